package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/wichananm65/shop-backend/internal/config"
	"github.com/wichananm65/shop-backend/internal/database"
	"github.com/wichananm65/shop-backend/internal/logger"
	"github.com/wichananm65/shop-backend/internal/metrics"
	"github.com/wichananm65/shop-backend/internal/user"
	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		// the logger is not built yet
		zap.NewExample().Fatal("load config", zap.Error(err))
	}
	log := logger.New(cfg.Env, cfg.LogLevel)
	defer func() { _ = log.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatal("open database", zap.Error(err))
	}
	defer db.Close()

	if err := database.Migrate(db); err != nil {
		log.Fatal("migrate database", zap.Error(err))
	}

	if err := bootstrapAdmin(ctx, cfg, user.NewService(user.NewPostgresRepository(db)), log); err != nil {
		log.Fatal("bootstrap admin", zap.Error(err))
	}

	images, err := newImageStore(ctx, cfg)
	if err != nil {
		log.Fatal("image storage", zap.Error(err))
	}

	app := newApp(cfg, db, log, metrics.New(), images)

	errCh := make(chan error, 1)
	go func() {
		log.Info("starting server", zap.String("addr", cfg.Addr), zap.String("env", cfg.Env), zap.String("stock_policy", cfg.StockPolicy))
		errCh <- app.Listen(cfg.Addr)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			log.Fatal("server stopped", zap.Error(err))
		}
	case <-ctx.Done():
		log.Info("shutting down")
		if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
			log.Error("shutdown", zap.Error(err))
		}
	}
}
