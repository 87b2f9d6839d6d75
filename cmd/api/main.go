package main

import (
	"context"
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"

	"amsgate/internal/assembler/presets"
	"amsgate/internal/config"
	"amsgate/internal/httpapi"
	"amsgate/internal/media"
	"amsgate/internal/media/amsrest"
	"amsgate/internal/media/processorcache"
	"amsgate/internal/pkg/logger"
	"amsgate/internal/pkg/shutdown"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logger.NewDefault().LogFatal("failed to load configuration", err)
	}

	log := logger.New(logger.Config{
		Level:       cfg.LogLevel,
		Format:      cfg.LogFormat,
		ServiceName: "amsgate",
		AddSource:   cfg.LogSource,
	})

	log.Info("starting media gateway",
		"version", "0.1.0",
		"endpoint", cfg.RESTAPIEndpoint,
	)

	ctx := context.Background()

	shutdownMgr := shutdown.NewManager(log, 30*time.Second)

	// Connect to Azure Media Services
	client, err := amsrest.New(ctx, amsrest.Config{
		RESTAPIEndpoint: cfg.RESTAPIEndpoint,
		AADTenantDomain: cfg.AADTenantDomain,
		ClientID:        cfg.ClientID,
		ClientSecret:    cfg.ClientSecret,
	})
	if err != nil {
		log.LogFatal("failed to create media services client", err)
	}

	var svc media.Service = client

	// Optional Redis-backed processor cache
	if cfg.RedisAddr != "" {
		log.Info("connecting to Redis", "addr", cfg.RedisAddr)
		rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		shutdownMgr.Register("redis", func(ctx context.Context) error {
			return rdb.Close()
		})

		if err := rdb.Ping(ctx).Err(); err != nil {
			log.LogFatal("failed to ping Redis", err)
		}
		log.Info("Redis connected")

		svc = processorcache.New(svc, rdb, processorcache.DefaultTTL, log)
	}

	router := httpapi.NewRouter(httpapi.Deps{
		Svc:                svc,
		Presets:            presets.NewStore(cfg.PresetDir),
		Log:                log,
		PollAttempts:       cfg.PollAttempts,
		PollInterval:       cfg.PollInterval,
		CORSAllowedOrigins: cfg.CORSAllowedOrigins,
	})

	server := &http.Server{
		Addr:    "0.0.0.0:" + cfg.HTTPPort,
		Handler: router,
		// WriteTimeout must cover the full status poll loop.
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	shutdownMgr.Register("http-server", func(ctx context.Context) error {
		log.Info("shutting down HTTP server")
		return server.Shutdown(ctx)
	})

	go func() {
		log.Info("HTTP server listening",
			"addr", server.Addr,
			"port", cfg.HTTPPort,
		)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.LogFatal("HTTP server failed", err)
		}
	}()

	shutdownMgr.Wait()
}
