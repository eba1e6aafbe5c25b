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

	"healthlog/internal/cache"
	"healthlog/internal/classifier"
	"healthlog/internal/config"
	"healthlog/internal/httpapi"
	logpkg "healthlog/internal/logger"
	"healthlog/internal/service"
	"healthlog/internal/upstream"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	log, err := logpkg.NewLogger(cfg.Log.Level, cfg.Log.Format, "healthlog")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	if err := run(cfg, log); err != nil {
		log.Fatal("Service error", zap.Error(err))
	}
	log.Info("Service stopped")
}

func run(cfg *config.Config, log *zap.Logger) error {
	tables, err := classifier.LoadTables(cfg.Engine.ThresholdsFile)
	if err != nil {
		return err
	}

	client := upstream.NewClient(upstream.Options{
		BaseURL:           cfg.Upstream.BaseURL,
		DashboardPath:     cfg.Upstream.DashboardPath,
		ShareValidatePath: cfg.Upstream.ShareValidatePath,
		Timeout:           cfg.Upstream.Timeout,
		RetryCount:        cfg.Upstream.RetryCount,
	}, log)

	opts := service.Options{
		Tables:   tables,
		Location: cfg.Location(),
		IdleTTL:  cfg.Cache.TTL,
	}
	if cfg.Cache.Enabled {
		kv := cache.NewRedisKVStore(cache.NewRedisClient(&cfg.Redis))
		defer kv.Close()
		if err := kv.Ping(context.Background()); err != nil {
			return fmt.Errorf("failed to connect to redis: %w", err)
		}
		opts.Store = cache.NewSnapshotCache(kv, cfg.Cache.TTL, log)
	}
	svc := service.NewHealthService(client, client, opts, log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)

	server := &http.Server{
		Addr:              cfg.HTTP.Addr,
		Handler:           httpapi.NewRouter(svc, log),
		ReadHeaderTimeout: 10 * time.Second,
	}
	g.Go(func() error {
		log.Info("Starting HTTP server", zap.String("addr", cfg.HTTP.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info("Shutting down HTTP server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	if cfg.Refresh.Cron != "" {
		refresher, err := service.NewRefresher(svc, cfg.Refresh.Cron, cfg.Upstream.Timeout, log)
		if err != nil {
			stop()
			_ = g.Wait()
			return err
		}
		g.Go(func() error {
			return refresher.Start(gctx)
		})
	}

	return g.Wait()
}
