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

	port := config.GetEnv("PORT", "8082")
	payments := upstream.NewPayments()

	router := gin.Default()
	router.Use(metrics.PrometheusMiddleware("payment-service"))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "healthy"})
	})
	payments.Register(router)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	log.Info("Payment Service starting on port " + port)

	if err := router.Run(":" + port); err != nil {
		log.Fatal("Failed to start server: ", err)
	}
}
