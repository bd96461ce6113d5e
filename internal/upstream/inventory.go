package upstream

import (
	"net/http"
	"sync"
	"time"

	"github.com/ashendes/storefront/internal/metrics"
	"github.com/ashendes/storefront/internal/models"
	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
)

const inventoryService = "inventory-service"

// SampleCatalog seeds the stand-in inventory
func SampleCatalog() []models.CatalogItem {
	return []models.CatalogItem{
		{ID: "fashion-linen-shirt", Name: "Linen Summer Shirt", Description: "Breathable linen for hot days", Price: 39.99, Category: "fashion", Qty: 40},
		{ID: "fashion-wool-coat", Name: "Wool Winter Coat", Description: "Warm double-breasted coat", Price: 189.00, Category: "fashion", Qty: 12},
		{ID: "fashion-oxford", Name: "Formal Oxford Shirt", Description: "Crisp cotton for the office", Price: 59.50, Category: "fashion", Qty: 25},
		{ID: "electronics-laptop", Name: "Laptop", Description: "14-inch ultrabook", Price: 999.99, Category: "electronics", Qty: 10},
		{ID: "electronics-headphones", Name: "Headphones", Description: "Noise cancelling over-ear", Price: 149.99, Category: "electronics", Qty: 20},
		{ID: "blog-minimal", Name: "Minimal Blog Template", Price: 49.00, Category: "blog", Qty: 100},
		{ID: "gov-portal", Name: "Citizen Portal Template", Price: 299.00, Category: "government", Qty: 100},
		{ID: "food-bakery", Name: "Bakery Storefront Template", Price: 79.00, Category: "food-store", Qty: 100},
		{ID: "furn-luxe", Name: "Luxe Showroom Template", Description: "Hero carousel and lookbook grid", Price: 120.00, Category: "furniture-store", Qty: 4},
	}
}

// Inventory is the stand-in inventory API
type Inventory struct {
	mu    sync.RWMutex
	items map[string]*models.CatalogItem
	order []string

	// Proxied serves GET /inventory in the gateway shape with column-style names
	Proxied bool
	Chaos   *Chaos
}

func NewInventory(items []models.CatalogItem) *Inventory {
	inv := &Inventory{
		items: make(map[string]*models.CatalogItem, len(items)),
		Chaos: NewChaos(inventoryService, 0.3),
	}
	for _, it := range items {
		it := it
		inv.items[it.ID] = &it
		inv.order = append(inv.order, it.ID)
		metrics.InventoryLevel.WithLabelValues(it.ID).Set(float64(it.Qty))
	}
	return inv
}

// Register mounts the inventory routes
func (inv *Inventory) Register(r gin.IRouter) {
	r.GET("/inventory", inv.list)
	r.GET("/inventory/status", inv.status)
	r.POST("/inventory/reserve", inv.reserve)
	r.POST("/inventory/release", inv.release)
	inv.Chaos.Register(r, "inventory")
}

// Snapshot returns the current items in listing order
func (inv *Inventory) Snapshot() []models.CatalogItem {
	inv.mu.RLock()
	defer inv.mu.RUnlock()

	out := make([]models.CatalogItem, 0, len(inv.order))
	for _, id := range inv.order {
		out = append(out, *inv.items[id])
	}
	return out
}

// Available returns the stock for id
func (inv *Inventory) Available(id string) (int, bool) {
	inv.mu.RLock()
	defer inv.mu.RUnlock()

	it, ok := inv.items[id]
	if !ok {
		return 0, false
	}
	return it.Qty, true
}

func (inv *Inventory) status(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"service":       inventoryService,
		"status":        "healthy",
		"chaos_enabled": inv.Chaos.Enabled(),
		"timestamp":     time.Now().Format(time.RFC3339),
	})
}

func (inv *Inventory) list(c *gin.Context) {
	if inv.Chaos.Fail() {
		log.Warn("Chaos: Simulated failure during listing")
		respond(c, inv.Proxied, http.StatusServiceUnavailable, gin.H{"error": "Service temporarily unavailable"})
		return
	}

	items := inv.Snapshot()
	if !inv.Proxied {
		c.JSON(http.StatusOK, models.InventoryListResponse{Items: items})
		return
	}

	rows := make([]gin.H, 0, len(items))
	for _, it := range items {
		rows = append(rows, gin.H{
			"ID":            it.ID,
			"NAME":          it.Name,
			"DESCRIPTION":   it.Description,
			"PRICE":         it.Price,
			"AVAILABLE_QTY": it.Qty,
		})
	}
	respond(c, true, http.StatusOK, gin.H{"items": rows})
}

func (inv *Inventory) reserve(c *gin.Context) {
	var req models.ReserveItemsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ReserveItemsResponse{
			Success: false,
			Message: "Invalid request: " + err.Error(),
		})
		return
	}

	if inv.Chaos.Fail() {
		log.WithField("order_id", req.OrderID).Warn("Chaos: Simulated failure during reserve")
		c.JSON(http.StatusServiceUnavailable, models.ReserveItemsResponse{
			Success: false,
			Message: "Service temporarily unavailable",
		})
		return
	}

	inv.mu.Lock()
	defer inv.mu.Unlock()

	// lines naming the same item are checked as one
	wanted := make(map[string]int, len(req.Items))
	var ids []string
	for _, line := range req.Items {
		if _, seen := wanted[line.ItemID]; !seen {
			ids = append(ids, line.ItemID)
		}
		wanted[line.ItemID] += line.Quantity
	}

	// all-or-nothing: report every short item before touching stock
	var conflicts []models.StockConflict
	for _, id := range ids {
		available := 0
		if it, ok := inv.items[id]; ok {
			available = it.Qty
		}
		if available < wanted[id] {
			conflicts = append(conflicts, models.StockConflict{
				ID:        id,
				Requested: wanted[id],
				Available: available,
			})
		}
	}
	if len(conflicts) > 0 {
		c.JSON(http.StatusConflict, models.ReserveItemsResponse{
			Success: false,
			Message: "Insufficient inventory",
			Details: conflicts,
		})
		return
	}

	for _, id := range ids {
		it := inv.items[id]
		it.Qty -= wanted[id]
		metrics.InventoryLevel.WithLabelValues(it.ID).Set(float64(it.Qty))
	}

	log.WithFields(log.Fields{
		"order_id": req.OrderID,
		"items":    len(req.Items),
	}).Info("Items reserved successfully")

	c.JSON(http.StatusOK, models.ReserveItemsResponse{
		Success: true,
		Message: "Items reserved successfully",
	})
}

func (inv *Inventory) release(c *gin.Context) {
	var req models.ReleaseItemsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ReleaseItemsResponse{
			Success: false,
			Message: "Invalid request: " + err.Error(),
		})
		return
	}

	inv.mu.Lock()
	defer inv.mu.Unlock()

	for _, line := range req.Items {
		if it, ok := inv.items[line.ItemID]; ok {
			it.Qty += line.Quantity
			metrics.InventoryLevel.WithLabelValues(it.ID).Set(float64(it.Qty))
		}
	}

	log.WithFields(log.Fields{
		"order_id": req.OrderID,
		"items":    len(req.Items),
	}).Info("Items released successfully")

	c.JSON(http.StatusOK, models.ReleaseItemsResponse{
		Success: true,
		Message: "Items released successfully",
	})
}
