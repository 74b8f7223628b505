package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/rojasecr/MarketplaceQL/config"
	"github.com/rojasecr/MarketplaceQL/internal/adapter/handler"
	"github.com/rojasecr/MarketplaceQL/internal/adapter/storage"
	"github.com/rojasecr/MarketplaceQL/internal/core/service"
	"github.com/rojasecr/MarketplaceQL/internal/pkg/telemetry"
)

func main() {
	_ = godotenv.Load()
	cfg := config.LoadEnv()

	logger, err := telemetry.NewLogger(cfg.Logger.Level, cfg.Logger.Encoding)
	if err != nil {
		log.Fatalf("failed to build logger: %v", err)
	}
	defer logger.Sync()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// MySQL
	db, err := sqlx.Open("mysql", cfg.MySQL.DSN)
	if err != nil {
		logger.Fatal("failed to open mysql", zap.Error(err))
	}
	db.SetMaxOpenConns(cfg.MySQL.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MySQL.MaxIdleConns)
	db.SetConnMaxLifetime(time.Duration(cfg.MySQL.ConnMaxLifetime) * time.Second)

	if err := db.PingContext(ctx); err != nil {
		logger.Fatal("failed to ping mysql", zap.Error(err))
	}
	logger.Info("connected to mysql")

	// Redis
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
		PoolSize: cfg.Redis.PoolSize,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		logger.Fatal("failed to connect redis", zap.Error(err))
	}
	logger.Info("connected to redis")

	store := storage.NewMySQLAdapter(db)
	cache := storage.NewRedisAdapter(rdb)

	// Seed the stock mirror from the authoritative product table.
	products, err := store.ListProducts(ctx, false)
	if err != nil {
		logger.Fatal("failed to load products", zap.Error(err))
	}
	for _, p := range products {
		if err := cache.SetStock(ctx, p.ID, p.InventoryCount); err != nil {
			logger.Fatal("failed to seed stock mirror", zap.String("product_id", p.ID), zap.Error(err))
		}
	}
	logger.Info("stock mirror seeded", zap.Int("products", len(products)))

	metrics := telemetry.NewCheckoutMetrics(prometheus.DefaultRegisterer)
	carts := service.NewCartService(store, cache, logger, metrics, service.CheckoutConfig{
		MaxAttempts:    cfg.Checkout.MaxAttempts,
		RetryBackoff:   time.Duration(cfg.Checkout.RetryBackoffMS) * time.Millisecond,
		AttemptTimeout: time.Duration(cfg.Checkout.AttemptTimeout) * time.Second,
	})

	httpHandler := handler.NewHTTPHandler(carts, logger)
	httpServer := &http.Server{
		Addr:    cfg.Server.HTTPPort,
		Handler: httpHandler.Routes(),
	}

	go func() {
		logger.Info("HTTP server listening", zap.String("addr", cfg.Server.HTTPPort))
		if err := httpServer.ListenAndServe(); err != http.ErrServerClosed {
			logger.Error("HTTP server error", zap.Error(err))
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), time.Duration(cfg.Server.ShutdownTimeout)*time.Second)
	defer shutdownCancel()
	httpServer.Shutdown(shutdownCtx)
	logger.Info("HTTP server stopped")

	rdb.Close()
	db.Close()
	logger.Info("connections closed")
}
