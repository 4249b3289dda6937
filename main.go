package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/docserve/docserve/internal/config"
	"github.com/docserve/docserve/internal/database"
	"github.com/docserve/docserve/internal/document/cache"
	"github.com/docserve/docserve/internal/document/coordinator"
	"github.com/docserve/docserve/internal/document/handler"
	"github.com/docserve/docserve/internal/document/store"
	"github.com/docserve/docserve/internal/health"
	"github.com/docserve/docserve/pkg/logger"
	"github.com/docserve/docserve/pkg/metrics"
	"github.com/docserve/docserve/pkg/middleware"
)

func main() {
	// initialize logging (can be controlled with LOG_LEVEL env: debug|info|warn|error|fatal)
	logger.Init(os.Getenv("LOG_LEVEL"))

	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Fatalf("failed to load config: %v", err)
	}
	logger.Infof("config loaded: storage=%s mongo=%v redis=%v minio=%v",
		cfg.Storage.Backend, cfg.MongoDB.URI != "", cfg.Redis.Host != "", cfg.MinIO.Endpoint != "")

	ctx := context.Background()

	// Redis client for the cache (and optionally the rate limiter). The
	// cache is advisory: an unreachable Redis only degrades the service,
	// so a failed ping is logged and startup continues.
	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Host + ":" + cfg.Redis.Port,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err := redisClient.Ping(ctx).Err(); err != nil {
		logger.Warnf("cache unreachable at startup (%s:%s), continuing degraded: %v", cfg.Redis.Host, cfg.Redis.Port, err)
	} else {
		logger.Infof("connected to Redis cache at %s:%s", cfg.Redis.Host, cfg.Redis.Port)
	}
	docCache := cache.NewRedisCache(redisClient, "document:")

	// Durable store. Unlike the cache this is the authority: without it
	// the service cannot accept writes, so startup fails loudly.
	docStore, cleanup, err := buildStore(ctx, cfg)
	if err != nil {
		logger.Fatalf("failed to initialize durable store: %v", err)
	}
	defer cleanup()

	co := coordinator.New(docStore, docCache, coordinator.Options{
		TTL:            cfg.Documents.CacheTTL,
		CacheTimeout:   cfg.Documents.CacheTimeout,
		StoreTimeout:   cfg.Documents.StoreTimeout,
		MaxContentSize: cfg.Documents.MaxContentSize,
	})
	agg := health.NewAggregator(docStore, docCache, cfg.Documents.ProbeTimeout)

	if cfg.Server.Environment != "development" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Logger(), gin.Recovery())

	if cfg.RateLimit.Enabled {
		if cfg.RateLimit.UseRedis {
			win := time.Duration(cfg.RateLimit.WindowSeconds) * time.Second
			r.Use(middleware.RedisRateLimitMiddleware(redisClient, cfg.RateLimit.RPS, cfg.RateLimit.Burst, win))
		} else {
			r.Use(middleware.RateLimitMiddleware(cfg.RateLimit.RPS, cfg.RateLimit.Burst))
		}
	}

	handler.RegisterDocumentRoutes(r, co)
	handler.RegisterHealthRoute(r, agg)

	metrics.RegisterCollectors(prometheus.DefaultRegisterer)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	addr := fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.Port)
	logger.Infof("starting document service on %s", addr)
	if err := r.Run(addr); err != nil {
		logger.Fatalf("server failed: %v", err)
	}
}

// buildStore wires the configured durable backend. The returned cleanup
// closes backend connections on shutdown.
func buildStore(ctx context.Context, cfg *config.Config) (store.Store, func(), error) {
	noop := func() {}
	switch cfg.Storage.Backend {
	case "memory":
		logger.Warn("using in-memory store: data is lost on restart (development only)")
		return store.NewMemoryStore(), noop, nil
	case "tiered":
		client, err := database.ConnectMongoWithRetry(ctx, cfg.MongoDB.URI, cfg.MongoDB.Timeout, 5)
		if err != nil {
			return nil, noop, err
		}
		blobs, err := store.NewBlobStore(&store.BlobConfig{
			Endpoint:  cfg.MinIO.Endpoint,
			AccessKey: cfg.MinIO.AccessKey,
			SecretKey: cfg.MinIO.SecretKey,
			UseSSL:    cfg.MinIO.UseSSL,
			Bucket:    cfg.MinIO.Bucket,
		})
		if err != nil {
			_ = client.Disconnect(ctx)
			return nil, noop, err
		}
		col := client.Database(cfg.MongoDB.Database).Collection("documents")
		return store.NewTieredStore(col, blobs), func() { _ = client.Disconnect(ctx) }, nil
	default:
		client, err := database.ConnectMongoWithRetry(ctx, cfg.MongoDB.URI, cfg.MongoDB.Timeout, 5)
		if err != nil {
			return nil, noop, err
		}
		col := client.Database(cfg.MongoDB.Database).Collection("documents")
		return store.NewMongoStore(col), func() { _ = client.Disconnect(ctx) }, nil
	}
}
