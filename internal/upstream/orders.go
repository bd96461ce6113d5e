package upstream

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/ashendes/storefront/internal/metrics"
	"github.com/ashendes/storefront/internal/models"
	"github.com/ashendes/storefront/internal/patterns"
	"github.com/gin-gonic/gin"
	"github.com/go-resty/resty/v2"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

const orderService = "order-service"

// DeskConfig wires the order desk to its inventory and payment backends
type DeskConfig struct {
	InventoryURL string
	PaymentURL   string
	Timeout      time.Duration
	BulkheadSize int
	BulkheadWait time.Duration
	// Deadline bounds one whole order: reserve, charge and any rollback
	Deadline time.Duration
}

// OrderDesk is the stand-in order API. An order reserves stock, charges the
// card and releases the stock again if the charge fails.
type OrderDesk struct {
	mu      sync.RWMutex
	orders  map[string]*models.PlacedOrder
	replays map[string]string

	inventoryClient   *resty.Client
	paymentClient     *resty.Client
	inventoryURL      string
	paymentURL        string
	inventoryCircuit  *patterns.CircuitBreakerWrapper
	paymentCircuit    *patterns.CircuitBreakerWrapper
	inventoryBulkhead *patterns.Bulkhead
	paymentBulkhead   *patterns.Bulkhead
	deadline          time.Duration

	// Proxied answers POST /order in the gateway shape
	Proxied bool
}

func NewOrderDesk(cfg DeskConfig) *OrderDesk {
	if cfg.BulkheadSize <= 0 {
		cfg.BulkheadSize = 10
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = patterns.ServiceCallTimeout
	}
	if cfg.Deadline <= 0 {
		cfg.Deadline = patterns.DefaultTimeout
	}

	return &OrderDesk{
		orders:  make(map[string]*models.PlacedOrder),
		replays: make(map[string]string),
		inventoryClient: resty.New().
			SetTimeout(cfg.Timeout).
			SetRetryCount(0),
		paymentClient: resty.New().
			SetTimeout(cfg.Timeout).
			SetRetryCount(0),
		deadline:          cfg.Deadline,
		inventoryURL:      cfg.InventoryURL,
		paymentURL:        cfg.PaymentURL,
		inventoryCircuit:  patterns.NewCircuitBreaker("Inventory", orderService),
		paymentCircuit:    patterns.NewCircuitBreaker("Payment", orderService),
		inventoryBulkhead: patterns.NewBulkhead(cfg.BulkheadSize, cfg.BulkheadWait, "inventory", orderService),
		paymentBulkhead:   patterns.NewBulkhead(cfg.BulkheadSize, cfg.BulkheadWait, "payment", orderService),
	}
}

func (d *OrderDesk) Register(r gin.IRouter) {
	r.POST("/order", d.createOrder)
	r.GET("/order/circuit-status", d.circuitStatus)
	r.GET("/order/:orderId", d.getOrder)
}

var errStockConflict = errors.New("insufficient inventory")

type stockError struct {
	details []models.StockConflict
}

func (e *stockError) Error() string { return errStockConflict.Error() }
func (e *stockError) Unwrap() error { return errStockConflict }

func (d *OrderDesk) createOrder(c *gin.Context) {
	var req models.SubmitOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		metrics.OrdersTotal.WithLabelValues(orderService, "validation_failed").Inc()
		respond(c, d.Proxied, http.StatusBadRequest, models.SubmitOrderResponse{
			Status:  models.OrderStatusFailed,
			Error:   "INVALID_REQUEST",
			Message: "Invalid request: " + err.Error(),
		})
		return
	}

	key := strings.TrimSpace(c.GetHeader("Idempotency-Key"))
	if placed, ok := d.replay(key); ok {
		log.WithFields(log.Fields{"order_id": placed.ID, "key": key}).Info("Replaying order for repeated idempotency key")
		respond(c, d.Proxied, http.StatusCreated, accepted(placed))
		return
	}

	order := &models.PlacedOrder{
		ID:        uuid.New().String(),
		Items:     req.Items,
		Payment:   req.Payment,
		Shipping:  req.Shipping,
		Amount:    req.Amount,
		Status:    models.OrderStatusPending,
		CreatedAt: time.Now(),
	}

	log.WithFields(log.Fields{
		"order_id": order.ID,
		"items":    len(order.Items),
		"amount":   order.Amount,
	}).Info("Processing new order")

	ctx, cancel := patterns.WithTimeout(c.Request.Context(), d.deadline)
	err := d.process(ctx, order)
	cancel()

	var stock *stockError
	switch {
	case errors.As(err, &stock):
		order.Status = models.OrderStatusFailed
		metrics.OrdersTotal.WithLabelValues(orderService, "conflict").Inc()
		respond(c, d.Proxied, http.StatusConflict, models.SubmitOrderResponse{
			OrderID: order.ID,
			Status:  models.OrderStatusFailed,
			Error:   models.ErrorInsufficientInventory,
			Message: "Insufficient inventory",
			Details: stock.details,
		})
	case err != nil:
		order.Status = models.OrderStatusFailed
		metrics.OrdersTotal.WithLabelValues(orderService, "failed").Inc()
		respond(c, d.Proxied, http.StatusBadGateway, models.SubmitOrderResponse{
			OrderID: order.ID,
			Status:  models.OrderStatusFailed,
			Error:   "ORDER_FAILED",
			Message: fmt.Sprintf("Order processing failed: %v", err),
		})
	default:
		order.Status = models.OrderStatusCompleted
		order.Confirmation = "CONF-" + strings.ToUpper(order.ID[:8])
		metrics.OrdersTotal.WithLabelValues(orderService, "completed").Inc()
		log.WithFields(log.Fields{"order_id": order.ID, "confirmation": order.Confirmation}).Info("Order completed successfully")
		respond(c, d.Proxied, http.StatusCreated, accepted(order))
	}

	d.mu.Lock()
	d.orders[order.ID] = order
	if key != "" && order.Status == models.OrderStatusCompleted {
		d.replays[key] = order.ID
	}
	d.mu.Unlock()
}

func accepted(o *models.PlacedOrder) models.SubmitOrderResponse {
	return models.SubmitOrderResponse{
		Confirmation: o.Confirmation,
		OrderID:      o.ID,
		Status:       o.Status,
		Total:        o.Amount,
	}
}

func (d *OrderDesk) replay(key string) (*models.PlacedOrder, bool) {
	if key == "" {
		return nil, false
	}
	d.mu.RLock()
	defer d.mu.RUnlock()

	id, ok := d.replays[key]
	if !ok {
		return nil, false
	}
	return d.orders[id], true
}

// Order returns a copy of a recorded order
func (d *OrderDesk) Order(id string) (models.PlacedOrder, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	o, ok := d.orders[id]
	if !ok {
		return models.PlacedOrder{}, false
	}
	return *o, true
}

func (d *OrderDesk) getOrder(c *gin.Context) {
	id := c.Param("orderId")
	order, ok := d.Order(id)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "Order not found", "order_id": id})
		return
	}
	c.JSON(http.StatusOK, order)
}

func (d *OrderDesk) circuitStatus(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"inventory_circuit": gin.H{
			"name":  "Inventory",
			"state": d.inventoryCircuit.GetState(),
			"value": d.inventoryCircuit.GetStateValue(),
		},
		"payment_circuit": gin.H{
			"name":  "Payment",
			"state": d.paymentCircuit.GetState(),
			"value": d.paymentCircuit.GetStateValue(),
		},
	})
}

func (d *OrderDesk) process(ctx context.Context, order *models.PlacedOrder) error {
	if err := d.reserve(ctx, order); err != nil {
		log.WithField("order_id", order.ID).WithError(err).Error("Failed to reserve inventory")
		return err
	}

	txID, err := d.charge(ctx, order)
	if err != nil {
		log.WithField("order_id", order.ID).WithError(err).Error("Payment failed, releasing inventory")
		if releaseErr := d.release(ctx, order); releaseErr != nil {
			log.WithField("order_id", order.ID).WithError(releaseErr).Error("Failed to release inventory during rollback")
		}
		return fmt.Errorf("payment processing failed: %w", err)
	}

	order.TransactionID = txID
	return nil
}

func reserveLines(lines []models.OrderLine) []models.ReserveLine {
	out := make([]models.ReserveLine, len(lines))
	for i, l := range lines {
		out[i] = models.ReserveLine{ItemID: l.ID, Quantity: l.Qty}
	}
	return out
}

// reserve holds stock for every line. A 409 from inventory is returned as a
// *stockError and is not counted as a breaker failure.
func (d *OrderDesk) reserve(ctx context.Context, order *models.PlacedOrder) error {
	body := models.ReserveItemsRequest{OrderID: order.ID, Items: reserveLines(order.Items)}

	var conflicts []models.StockConflict
	err := d.inventoryBulkhead.Execute(ctx, func() error {
		_, cbErr := d.inventoryCircuit.Execute(func() (interface{}, error) {
			resp, httpErr := d.inventoryClient.R().
				SetContext(ctx).
				SetHeader("Content-Type", "application/json").
				SetBody(body).
				Post(d.inventoryURL + "/inventory/reserve")
			if httpErr != nil {
				return nil, fmt.Errorf("HTTP error: %w", httpErr)
			}

			var out models.ReserveItemsResponse
			if err := json.Unmarshal(resp.Body(), &out); err != nil {
				return nil, fmt.Errorf("failed to parse response: %w", err)
			}
			if resp.StatusCode() == http.StatusConflict {
				conflicts = out.Details
				return out, nil
			}
			if resp.StatusCode() != http.StatusOK || !out.Success {
				return nil, fmt.Errorf("inventory service returned status %d: %s", resp.StatusCode(), out.Message)
			}
			return out, nil
		})
		return cbErr
	})
	if err != nil {
		return fmt.Errorf("inventory reservation failed: %w", err)
	}
	if len(conflicts) > 0 {
		return &stockError{details: conflicts}
	}
	return nil
}

func (d *OrderDesk) charge(ctx context.Context, order *models.PlacedOrder) (string, error) {
	body := models.ChargeRequest{
		OrderID: order.ID,
		Amount:  order.Amount,
		Method:  order.Payment.Method,
		Last4:   order.Payment.Last4,
	}

	var txID string
	err := d.paymentBulkhead.Execute(ctx, func() error {
		_, cbErr := d.paymentCircuit.Execute(func() (interface{}, error) {
			resp, httpErr := d.paymentClient.R().
				SetContext(ctx).
				SetHeader("Content-Type", "application/json").
				SetBody(body).
				Post(d.paymentURL + "/payment/charge")
			if httpErr != nil {
				return nil, fmt.Errorf("HTTP error: %w", httpErr)
			}

			var out models.ChargeResponse
			if err := json.Unmarshal(resp.Body(), &out); err != nil {
				return nil, fmt.Errorf("failed to parse response: %w", err)
			}
			if resp.StatusCode() != http.StatusOK || out.Status != models.TransactionStatusCompleted {
				return nil, fmt.Errorf("payment failed: %s", out.Message)
			}
			txID = out.TransactionID
			return out, nil
		})
		return cbErr
	})
	return txID, err
}

// release returns reserved stock. It bypasses the breaker.
func (d *OrderDesk) release(ctx context.Context, order *models.PlacedOrder) error {
	body := models.ReleaseItemsRequest{OrderID: order.ID, Items: reserveLines(order.Items)}

	resp, err := d.inventoryClient.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(body).
		Post(d.inventoryURL + "/inventory/release")
	if err != nil {
		return fmt.Errorf("HTTP error: %w", err)
	}
	if resp.StatusCode() != http.StatusOK {
		return fmt.Errorf("inventory service returned status %d", resp.StatusCode())
	}
	return nil
}
