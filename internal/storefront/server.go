// Package storefront serves the checkout pages and actions as a JSON API.
// Every session gets its own storage namespace; the catalog, order and chat
// backends are shared.
package storefront

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/ashendes/storefront/internal/chat"
	"github.com/ashendes/storefront/internal/checkout"
	"github.com/ashendes/storefront/internal/metrics"
	"github.com/ashendes/storefront/internal/models"
	"github.com/ashendes/storefront/internal/order"
	"github.com/ashendes/storefront/internal/storage"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"
	"golang.org/x/time/rate"
)

const serviceName = "storefront"

// CatalogLoader fetches the normalized inventory listing
type CatalogLoader interface {
	Load(ctx context.Context) ([]models.CatalogItem, error)
}

// Deps are the collaborators a Server needs
type Deps struct {
	Store   storage.Store
	Catalog CatalogLoader
	Orders  *order.Client
	Chat    chat.Asker

	// ChatRate and ChatBurst limit chat messages per session
	ChatRate  rate.Limit
	ChatBurst int

	Now func() time.Time
}

// Server is the storefront backend
type Server struct {
	kv        storage.Store
	catalog   CatalogLoader
	orders    *order.Client
	assistant *chat.Assistant
	limiter   *SessionLimiter
	now       func() time.Time

	mu       sync.RWMutex
	snapshot []models.CatalogItem
}

func New(deps Deps) *Server {
	now := deps.Now
	if now == nil {
		now = time.Now
	}
	if deps.ChatRate == 0 {
		deps.ChatRate = rate.Inf
	}
	if deps.ChatBurst < 1 {
		deps.ChatBurst = 1
	}

	return &Server{
		kv:        deps.Store,
		catalog:   deps.Catalog,
		orders:    deps.Orders,
		assistant: chat.NewAssistant(deps.Chat),
		limiter:   NewSessionLimiter(deps.ChatRate, deps.ChatBurst, 30*time.Minute),
		now:       now,
	}
}

// Router builds the gin engine with every storefront route
func (s *Server) Router() *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(metrics.PrometheusMiddleware(serviceName))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "healthy"})
	})
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := router.Group("/", Session())

	api.GET("/purchase", s.purchasePage)
	api.GET("/templates", s.templates)
	api.GET("/templates/:category", s.templatesByCategory)

	api.GET("/cart", s.getCart)
	api.POST("/cart/items", s.addCartItem)
	api.PUT("/cart/items/:id", s.setCartQuantity)
	api.DELETE("/cart/items/:id", s.removeCartItem)
	api.POST("/cart/saved", s.saveCart)
	api.DELETE("/cart/saved", s.clearSavedCarts)
	api.POST("/cart/saved/:id/load", s.loadSavedCart)

	api.POST("/checkout/enter/:step", s.enterStep)
	api.POST("/checkout/proceed", s.proceed)
	api.POST("/checkout/payment", s.submitPayment)
	api.POST("/checkout/shipping", s.submitShipping)
	api.POST("/checkout/confirm", s.confirmOrder)
	api.POST("/checkout/back/:step", s.back)
	api.POST("/checkout/new", s.startNewOrder)

	api.POST("/chatbot", s.limiter.Middleware(), s.chatbot)
	api.POST("/chatbot/cart", s.chatAddToCart)

	return router
}

// store is the calling session's storage namespace
func (s *Server) store(c *gin.Context) storage.Store {
	return storage.NewNamespaced(s.kv, "session:"+SessionID(c))
}

func (s *Server) workflow(c *gin.Context) *checkout.Workflow {
	return checkout.New(s.store(c), s.orders.For(SessionID(c)), checkout.WithClock(s.now))
}

// loadCatalog fetches the listing and replaces the shared snapshot. Loads are
// not coalesced; the last one to finish wins.
func (s *Server) loadCatalog(ctx context.Context) ([]models.CatalogItem, error) {
	items, err := s.catalog.Load(ctx)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.snapshot = items
	s.mu.Unlock()

	log.WithField("items", len(items)).Debug("Catalog snapshot replaced")
	return items, nil
}

// lookup finds id in the catalog snapshot, loading it first if empty
func (s *Server) lookup(ctx context.Context, id string) (models.CatalogItem, error) {
	s.mu.RLock()
	items := s.snapshot
	s.mu.RUnlock()

	if items == nil {
		var err error
		if items, err = s.loadCatalog(ctx); err != nil {
			return models.CatalogItem{}, err
		}
	}

	for _, it := range items {
		if it.ID == id {
			return it, nil
		}
	}
	return models.CatalogItem{}, errUnknownItem
}
