package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"pharmacy_console/api"
	"pharmacy_console/internal/backend"
	"pharmacy_console/internal/config"
	"pharmacy_console/internal/dashboard"
	"pharmacy_console/internal/orders"
	"pharmacy_console/internal/sales"
	"pharmacy_console/internal/session"
)

func main() {
	// .env is optional; real environment variables win.
	_ = godotenv.Load()
	cfg := config.Load()

	logger, err := newLogger(cfg)
	if err != nil {
		panic(fmt.Errorf("error trying to create logger: %v", err))
	}
	defer logger.Sync()

	loc, err := cfg.Location()
	if err != nil {
		logger.Fatal("invalid configuration", zap.Error(err))
	}
	now := func() time.Time { return time.Now().In(loc) }
	formatter := sales.NewFormatter(loc, cfg.TimeLayout)
	key := sales.TransactionKey(formatter)
	if cfg.GroupByTimestamps {
		key = sales.TimestampKey(formatter)
	}

	client := backend.New(cfg.BackendURL, cfg.BackendTimeout, logger)
	closers := []func() error{client.Close}

	var storage orders.Storage = orders.NewLocalStorage()
	if cfg.RedisAddr != "" {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		redisStorage := orders.NewRedisStorage(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB, cfg.StagingTTL)
		if err := redisStorage.Ping(ctx); err != nil {
			logger.Warn("redis unavailable, staging orders in memory", zap.String("addr", cfg.RedisAddr), zap.Error(err))
			redisStorage.Close()
		} else {
			storage = redisStorage
			closers = append(closers, redisStorage.Close)
			logger.Info("staging storage: redis", zap.String("addr", cfg.RedisAddr))
		}
		cancel()
	} else {
		logger.Info("staging storage: in-memory")
	}
	if cfg.JWTSecret == "" {
		logger.Warn("JWT_SECRET not set, session tokens are decoded without verification")
	}

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Recovery())
	api.InitRoutes(r, api.Dependencies{
		Sessions:  session.NewParser(cfg.JWTSecret),
		Catalog:   client,
		Dashboard: dashboard.NewService(client, logger, key, formatter, now),
		Orders:    orders.NewService(storage, client, logger, now),
		Sales:     sales.NewService(client, logger, key, formatter),
		Logger:    logger,
		Now:       now,
	})

	server := &http.Server{
		Addr:              cfg.Address(),
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		// Commits fan out to the backend, so leave room for a slow batch.
		WriteTimeout: cfg.BackendTimeout + 10*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("console listening", zap.String("addr", cfg.Address()), zap.String("backend", cfg.BackendURL))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("error trying to start server", zap.Error(err))
		}
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 8*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown error", zap.Error(err))
	}
	for _, closeFn := range closers {
		if err := closeFn(); err != nil {
			logger.Warn("close error", zap.Error(err))
		}
	}
	logger.Info("server stopped")
}

func newLogger(cfg config.Config) (*zap.Logger, error) {
	if cfg.IsProduction() {
		return zap.NewProduction()
	}
	return zap.NewDevelopment()
}
