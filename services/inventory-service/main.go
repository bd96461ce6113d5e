package main

import (
	"net/http"

	"github.com/ashendes/storefront/internal/config"
	"github.com/ashendes/storefront/internal/logging"
	"github.com/ashendes/storefront/internal/metrics"
	"github.com/ashendes/storefront/internal/upstream"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"
)

func main() {
	config.LoadDotEnv()
	logging.Setup(config.GetEnv("LOG_LEVEL", "info"))

	port := config.GetEnv("PORT", "8081")

	inventory := upstream.NewInventory(upstream.SampleCatalog())
	inventory.Proxied = config.GetEnvBool("INVENTORY_PROXIED", false)
	concierge := upstream.NewConcierge(inventory)

	router := gin.Default()

	// Add Prometheus middleware
	router.Use(metrics.PrometheusMiddleware("inventory-service"))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "healthy"})
	})

	inventory.Register(router)
	concierge.Register(router)

	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	log.WithFields(log.Fields{
		"items":   len(inventory.Snapshot()),
		"proxied": inventory.Proxied,
	}).Info("Inventory Service starting on port " + port)

	if err := router.Run(":" + port); err != nil {
		log.Fatal("Failed to start server: ", err)
	}
}
