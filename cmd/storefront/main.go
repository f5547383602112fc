package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fjod/go_storefront/internal/catalog"
	"github.com/fjod/go_storefront/internal/config"
	"github.com/fjod/go_storefront/internal/events"
	h "github.com/fjod/go_storefront/internal/http"
	"github.com/fjod/go_storefront/internal/session"
	"github.com/fjod/go_storefront/pkg/circuitbreaker"
	"github.com/fjod/go_storefront/pkg/logger"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

func main() {
	cfg := config.Load()

	zl, err := logger.New(logger.Options{Service: "storefront", Env: cfg.AppEnv, Level: cfg.LogLevel})
	if err != nil {
		log.Fatalf("failed to build logger: %v", err)
	}
	defer zl.Sync()
	zap.ReplaceGlobals(zl)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, zl); err != nil {
		zl.Fatal("storefront stopped with error", zap.Error(err))
	}
	zl.Info("storefront exited")
}

func run(ctx context.Context, cfg *config.Config, zl *zap.Logger) error {
	// Product cache is optional; without Redis every read goes to the catalog API.
	var cache catalog.ProductCache = catalog.NoopCache{}
	if cfg.RedisAddr != "" {
		redisClient := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       0,
		})
		defer redisClient.Close()
		if err := redisClient.Ping(ctx).Err(); err != nil {
			zl.Warn("redis ping failed, product cache disabled", zap.String("addr", cfg.RedisAddr), zap.Error(err))
		} else {
			cache = catalog.NewRedisCache(redisClient, cfg.CacheTTL)
			zl.Info("redis ping succeeded", zap.String("addr", cfg.RedisAddr))
		}
	}

	catalogClient := catalog.NewClient(catalog.Options{
		BaseURL: cfg.CatalogBaseURL,
		Timeout: cfg.CatalogTimeout,
		Cache:   cache,
		Breaker: circuitbreaker.DefaultOptions(),
		Logger:  zl.Named("catalog"),
	})

	var publisher *events.Publisher
	var subscribers session.SubscriberFactory
	if len(cfg.KafkaBrokers) > 0 {
		publisher = events.NewPublisher(events.NewKafkaWriter(cfg.KafkaTopic, cfg.KafkaBrokers...), 1024, zl.Named("events"))
		subscribers = publisher.For
		zl.Info("cart activity publishing enabled", zap.Strings("brokers", cfg.KafkaBrokers), zap.String("topic", cfg.KafkaTopic))
	}

	sessions := session.NewManager(session.Options{
		TTL:         cfg.SessionTTL,
		Subscribers: subscribers,
		Logger:      zl.Named("session"),
	})
	sessions.Start()

	srv := &http.Server{
		Addr: ":" + cfg.HTTPPort,
		Handler: h.NewRouter(h.RouterOptions{
			Catalog:        catalogClient,
			Sessions:       sessions,
			Logger:         zl.Named("http"),
			RequestTimeout: cfg.RequestTimeout,
			MaxBodySize:    cfg.MaxRequestBodySize,
			BadgeCap:       cfg.BadgeCap,
		}),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: cfg.RequestTimeout + 5*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		zl.Info("storefront starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	// Graceful shutdown
	g.Go(func() error {
		<-gctx.Done()
		zl.Info("shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		err := srv.Shutdown(shutdownCtx)
		sessions.Close()
		return err
	})

	if publisher != nil {
		g.Go(func() error {
			publisher.Run(gctx)
			return publisher.Close()
		})
	}

	return g.Wait()
}
