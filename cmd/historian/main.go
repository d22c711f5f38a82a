// cmd/historian/main.go pops room actions from the Redis queue and persists them to PostgreSQL.
package main

import (
	"context"
	"os/signal"
	"syscall"

	_ "github.com/joho/godotenv/autoload"
	"github.com/xerekinha/pyramid/internal/cache"
	"github.com/xerekinha/pyramid/internal/config"
	"github.com/xerekinha/pyramid/internal/database"
	"github.com/xerekinha/pyramid/internal/historian"
)

func main() {
	cfg := config.Load()
	logger := cfg.NewLogger()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.DatabaseURL == "" {
		logger.Fatal("DATABASE_URL is required")
	}
	pool, err := database.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Fatalf("postgres: %v", err)
	}
	defer pool.Close()
	if err := database.EnsureSchema(ctx, pool); err != nil {
		logger.Fatal(err)
	}

	addr := cfg.RedisAddr
	if addr == "" {
		addr = "localhost:6379"
	}
	rdb, err := cache.Connect(ctx, addr, cfg.RedisDB)
	if err != nil {
		logger.Fatalf("redis: %v", err)
	}
	defer rdb.Close()

	hs := historian.New(
		cache.NewConsumer(rdb, cfg.HistorianQueue),
		database.NewStore(pool),
		cfg.HistorianBatchSize,
		cfg.HistorianFlush,
		cfg.RoomInactivity,
		logger,
	)
	hs.Run(ctx)
	logger.Info("Historian shutdown complete.")
}
