// cmd/server/main.go
package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/joho/godotenv/autoload"
	"github.com/sirupsen/logrus"
	"github.com/xerekinha/pyramid/internal/auth"
	"github.com/xerekinha/pyramid/internal/cache"
	"github.com/xerekinha/pyramid/internal/config"
	"github.com/xerekinha/pyramid/internal/handlers"
	"github.com/xerekinha/pyramid/internal/middleware"
)

func main() {
	cfg := config.Load()
	logger := cfg.NewLogger()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	signer, err := newSigner(cfg)
	if err != nil {
		logger.Fatalf("session signer: %v", err)
	}

	gs := handlers.NewGameServer(signer, logger)
	gs.GracePeriod = cfg.SessionGracePeriod
	gs.MaxPlayers = cfg.MaxPlayers

	if cfg.RedisAddr != "" {
		rdb, err := cache.Connect(ctx, cfg.RedisAddr, cfg.RedisDB)
		if err != nil {
			logger.Fatalf("redis: %v", err)
		}
		defer rdb.Close()
		gs.Recorder = cache.NewPublisher(rdb, cfg.HistorianQueue, logger)
		logger.Infof("Recording room actions to %s/%s", cfg.RedisAddr, cfg.HistorianQueue)
	}

	go gs.RunSweeper(ctx, cfg.SessionSweepInterval)

	logged := middleware.LogMiddleware(logger)
	mux := http.NewServeMux()
	mux.Handle("/", logged(http.HandlerFunc(handlers.PingHandler)))
	mux.Handle("/lobbies", logged(handlers.LobbiesHandler(logger, gs)))
	mux.Handle("/ws", logged(handlers.WSHandler(logger, gs, cfg.AllowedOrigins)))

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Warnf("shutdown: %v", err)
		}
	}()

	logger.Infof("Running on %s", srv.Addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Fatalf("server exited: %v", err)
	}
	logger.Info("Server stopped")
}

func newSigner(cfg config.Config) (*auth.Signer, error) {
	if cfg.SessionKeyPath == "" {
		logrus.Debug("SESSION_KEY_PATH not set, generating an ephemeral key")
		return auth.NewSigner()
	}
	return auth.LoadSigner(cfg.SessionKeyPath)
}
