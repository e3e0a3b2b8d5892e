// cmd/api/main.go
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/your-org/pcstore-backend/internal/config"
	"github.com/your-org/pcstore-backend/internal/domain/cart"
	"github.com/your-org/pcstore-backend/internal/domain/catalog"
	"github.com/your-org/pcstore-backend/internal/domain/checkout"
	"github.com/your-org/pcstore-backend/internal/domain/order"
	"github.com/your-org/pcstore-backend/internal/domain/pcbuild"
	"github.com/your-org/pcstore-backend/internal/infrastructure/database/dbtx"
	"github.com/your-org/pcstore-backend/internal/infrastructure/database/postgres"
	"github.com/your-org/pcstore-backend/internal/infrastructure/database/redis"
	"github.com/your-org/pcstore-backend/internal/interfaces/http"
	"github.com/your-org/pcstore-backend/internal/interfaces/http/handlers"
	"github.com/your-org/pcstore-backend/internal/interfaces/http/routes"
	"github.com/your-org/pcstore-backend/internal/pkg/auth"
	"github.com/your-org/pcstore-backend/internal/pkg/logger"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		logrus.Fatalf("Failed to load configuration: %v", err)
	}

	log := logger.New(cfg)
	log.WithFields(logrus.Fields{
		"app":         cfg.App.Name,
		"version":     cfg.App.Version,
		"environment": cfg.App.Environment,
	}).Info("Starting")

	// Connect to database
	db, err := postgres.NewConnection(cfg, log)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	// Connect to Redis
	redisClient, err := redis.NewConnection(cfg, log)
	if err != nil {
		log.Fatalf("Failed to connect to Redis: %v", err)
	}
	defer redisClient.Close()

	// Run database migrations
	migration := postgres.NewMigration(db.GetDB(), log)

	if err := migration.RunAutoMigrations(); err != nil {
		log.Fatalf("Database migration failed: %v", err)
	}

	if err := migration.CreateIndexes(); err != nil {
		log.WithError(err).Warn("Index creation failed")
	}

	// Seed initial data in development
	if cfg.IsDevelopment() {
		if err := migration.SeedInitialData(); err != nil {
			log.WithError(err).Warn("Data seeding failed")
		}
		migration.LogTableInfo()
	}

	server := http.NewServer(cfg, log, buildDependencies(cfg, log, db, redisClient))

	// Start server in a goroutine
	go func() {
		if err := server.Start(); err != nil {
			log.Fatalf("Failed to start HTTP server: %v", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down gracefully")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Stop(ctx); err != nil {
		log.WithError(err).Error("Failed to shutdown HTTP server gracefully")
	}

	log.Info("Server shutdown completed")
}

// buildDependencies wires repositories, services and handlers
func buildDependencies(cfg *config.Config, log *logrus.Logger, db *postgres.DB, redisClient *redis.Client) http.Dependencies {
	gormDB := db.GetDB()
	tx := dbtx.NewTransactor(gormDB)

	// Purchases price from the database and evict cache entries they
	// find stale; the preview may read the cache
	repo := catalog.NewRepository(gormDB)
	cachedProducts := catalog.NewCachedLookup(repo, redisClient.GetClient(), cfg.Store.CatalogCacheTTL, log.WithField("component", "catalog_cache"))
	products := catalog.ReconcileWith(repo, cachedProducts)

	builds := pcbuild.NewService(
		pcbuild.NewRepository(gormDB),
		pcbuild.NewPricer(products, cfg.Store.BuildPlaceholderImage),
		pcbuild.NewPricer(cachedProducts, cfg.Store.BuildPlaceholderImage),
	)

	carts := cart.NewService(cart.NewRepository(gormDB), tx, products, builds, cfg.Store.CartWriteRetries, log.WithField("component", "cart"))

	orderStore := order.NewRepository(gormDB)
	materializer := order.NewMaterializer(orderStore, carts, log.WithField("component", "order_materializer"))
	checkouts := checkout.NewService(checkout.NewRepository(gormDB), tx, carts, builds, materializer, log.WithField("component", "checkout"))
	orders := order.NewService(orderStore, log.WithField("component", "order"))

	return http.Dependencies{
		Handlers: routes.Handlers{
			Cart:     handlers.NewCartHandler(carts),
			Checkout: handlers.NewCheckoutHandler(checkouts, builds),
			Order:    handlers.NewOrderHandler(orders),
		},
		Health: handlers.NewHealthHandler(cfg.App.Version, cfg.App.Environment, map[string]handlers.Pinger{
			"database": db,
			"redis":    redisClient,
		}),
		Tokens:      auth.NewJWTManager(cfg),
		RateLimiter: redisClient,
	}
}
