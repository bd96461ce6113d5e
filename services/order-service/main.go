package main

import (
	"net/http"

	"github.com/ashendes/storefront/internal/config"
	"github.com/ashendes/storefront/internal/logging"
	"github.com/ashendes/storefront/internal/metrics"
	"github.com/ashendes/storefront/internal/patterns"
	"github.com/ashendes/storefront/internal/upstream"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"
)

func main() {
	config.LoadDotEnv()
	logging.Setup(config.GetEnv("LOG_LEVEL", "info"))

	port := config.GetEnv("PORT", "8080")

	// Get service URLs from environment or use defaults
	cfg := upstream.DeskConfig{
		InventoryURL: config.GetEnv("INVENTORY_SERVICE_URL", "http://localhost:8081"),
		PaymentURL:   config.GetEnv("PAYMENT_SERVICE_URL", "http://localhost:8082"),
		Timeout:      config.GetEnvDuration("SERVICE_CALL_TIMEOUT", patterns.ServiceCallTimeout),
		Deadline:     config.GetEnvDuration("ORDER_DEADLINE", patterns.DefaultTimeout),
		BulkheadSize: config.GetEnvInt("BULKHEAD_SIZE", 10),
		BulkheadWait: config.GetEnvDuration("BULKHEAD_WAIT", 0),
	}

	desk := upstream.NewOrderDesk(cfg)
	desk.Proxied = config.GetEnvBool("ORDER_PROXIED", false)

	router := gin.Default()

	// Add Prometheus middleware
	router.Use(metrics.PrometheusMiddleware("order-service"))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "healthy"})
	})

	desk.Register(router)

	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	log.WithFields(log.Fields{
		"inventory_url": cfg.InventoryURL,
		"payment_url":   cfg.PaymentURL,
		"proxied":       desk.Proxied,
	}).Info("Order Service starting on port " + port)

	if err := router.Run(":" + port); err != nil {
		log.Fatal("Failed to start server: ", err)
	}
}
