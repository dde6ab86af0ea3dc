// cmd/server/main.go
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/joho/godotenv/autoload"
	"github.com/sirupsen/logrus"

	"github.com/jason-s-yu/suitduel/internal/cache"
	"github.com/jason-s-yu/suitduel/internal/database"
	"github.com/jason-s-yu/suitduel/internal/handlers"
	"github.com/jason-s-yu/suitduel/internal/middleware"
)

func main() {
	logger := logrus.New()
	logger.SetLevel(logrus.DebugLevel)

	// Redis and Postgres are optional. Without Redis the action journal is
	// skipped; without Postgres duel results are not persisted. Play works
	// either way.
	if err := cache.ConnectRedis(); err != nil {
		logger.Warnf("Redis unavailable, action journaling disabled: %v", err)
		cache.Rdb = nil
	}
	if err := database.ConnectDB(); err != nil {
		logger.Warnf("Postgres unavailable, result persistence disabled: %v", err)
		database.DB = nil
	}

	srv := handlers.NewGameServer(logger)

	mux := http.NewServeMux()
	mux.Handle("/duel/ws", middleware.LogMiddleware(logger)(http.HandlerFunc(
		handlers.DuelWSHandler(logger, srv),
	)))
	mux.Handle("/healthz", middleware.LogMiddleware(logger)(http.HandlerFunc(
		func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
			w.Write([]byte("ok"))
		},
	)))

	addr := ":8080"
	if port := os.Getenv("PORT"); port != "" {
		addr = ":" + port
	}
	httpServer := &http.Server{
		Addr:    addr,
		Handler: mux,
	}

	go func() {
		logger.Infof("Running on %s", addr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatalf("server exited: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down...")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(ctx); err != nil {
		logger.Errorf("server shutdown: %v", err)
	}
	if database.DB != nil {
		database.DB.Close()
	}
	if cache.Rdb != nil {
		cache.Rdb.Close()
	}
	logger.Info("Server stopped.")
}
