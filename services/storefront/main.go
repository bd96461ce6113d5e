package main

import (
	"context"
	"time"

	"github.com/ashendes/storefront/internal/catalog"
	"github.com/ashendes/storefront/internal/chat"
	"github.com/ashendes/storefront/internal/config"
	"github.com/ashendes/storefront/internal/logging"
	"github.com/ashendes/storefront/internal/order"
	"github.com/ashendes/storefront/internal/patterns"
	"github.com/ashendes/storefront/internal/storage"
	"github.com/ashendes/storefront/internal/storefront"
	"github.com/go-resty/resty/v2"
	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"
)

func newStore(cfg *config.Config) storage.Store {
	if cfg.RedisAddr == "" {
		log.Info("REDIS_ADDR not set, using in-memory session storage")
		return storage.NewMemoryStore()
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})

	ctx, cancel := patterns.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		log.WithError(err).WithField("addr", cfg.RedisAddr).Fatal("Failed to connect to redis")
	}
	return storage.NewRedisStore(client, cfg.StorageTTL)
}

func newHTTPClient(cfg *config.Config) *resty.Client {
	return resty.New().
		SetTimeout(cfg.HTTPTimeout).
		SetRetryCount(0)
}

func main() {
	cfg := config.Load()
	logging.Setup(cfg.LogLevel)

	var catalogOpts []catalog.Option
	var chatOpts []chat.Option
	if cfg.BreakerEnabled {
		catalogOpts = append(catalogOpts, catalog.WithBreaker(patterns.NewCircuitBreaker("Catalog", "storefront")))
		chatOpts = append(chatOpts, chat.WithBreaker(patterns.NewCircuitBreaker("Chat", "storefront")))
	}

	srv := storefront.New(storefront.Deps{
		Store:     newStore(cfg),
		Catalog:   catalog.NewLoader(newHTTPClient(cfg), cfg.InventoryURL, catalogOpts...),
		Orders:    order.NewClient(newHTTPClient(cfg), cfg.OrderURL, order.WithIdempotencyKeys(cfg.IdempotencyKeys)),
		Chat:      chat.NewClient(newHTTPClient(cfg), cfg.ChatURL, chatOpts...),
		ChatRate:  storefront.PerMinute(cfg.ChatRatePerMin),
		ChatBurst: cfg.ChatBurst,
	})

	log.WithFields(log.Fields{
		"inventory_url": cfg.InventoryURL,
		"order_url":     cfg.OrderURL,
		"chat_url":      cfg.ChatURL,
		"redis":         cfg.RedisAddr != "",
		"breakers":      cfg.BreakerEnabled,
	}).Info("Storefront starting on port " + cfg.Port)

	if err := srv.Router().Run(":" + cfg.Port); err != nil {
		log.Fatal("Failed to start server: ", err)
	}
}
