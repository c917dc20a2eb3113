package main

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/ignite/recon-dashboard/internal/api"
	"github.com/ignite/recon-dashboard/internal/cache"
	"github.com/ignite/recon-dashboard/internal/config"
	"github.com/ignite/recon-dashboard/internal/entity"
	"github.com/ignite/recon-dashboard/internal/pkg/distlock"
	"github.com/ignite/recon-dashboard/internal/pkg/logger"
	"github.com/ignite/recon-dashboard/internal/screens"
	"github.com/ignite/recon-dashboard/internal/upstream"
)

// checkPortAvailable verifies that the target port is not already in use.
func checkPortAvailable(addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("address %s is already in use: %w", addr, err)
	}
	ln.Close()
	return nil
}

func fatal(msg string, fields ...interface{}) {
	logger.Error(msg, fields...)
	os.Exit(1)
}

func main() {
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "config/config.yaml"
	}

	// Load configuration
	cfg, err := config.LoadFromEnv(configPath)
	if err != nil {
		fatal("failed to load config", "error", err)
	}
	logger.SetLevel(logger.ParseLevel(cfg.Logging.Level))
	logger.SetRedactPII(cfg.Logging.Redact())

	loc, err := cfg.Engine.Location()
	if err != nil {
		fatal("invalid engine config", "error", err)
	}

	addr := cfg.Server.Addr()
	if err := checkPortAvailable(addr); err != nil {
		fatal("pre-flight check failed", "error", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Redis is optional: without it every screen fetches its upstream directly.
	var redisClient redis.UniversalClient
	if cfg.Redis.Enabled() {
		client, err := cache.Connect(ctx, cfg.Redis.URL)
		if err != nil {
			logger.Warn("redis unavailable, payload cache disabled", "error", err)
		} else {
			redisClient = client
			defer client.Close()
			logger.Info("payload cache enabled", "prefix", cfg.Redis.KeyPrefix, "ttl_seconds", cfg.Redis.TTLSeconds)
		}
	}

	sources, archive := buildSources(ctx, cfg)
	sources = cacheSources(sources, redisClient, cfg.Redis)

	health := api.NewHealthChecker(redisClient, archive, map[string]bool{
		entity.Benefit:  sources.Benefits != nil,
		entity.Dispatch: sources.Dispatches != nil,
		entity.History:  sources.History != nil,
		entity.Channel:  sources.Channels != nil,
	})

	svc := screens.NewService(sources, loc)
	server := api.NewServer(cfg.Server, svc, health)

	// Setup graceful shutdown
	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGTERM)

	go func() {
		logger.Info("starting server", "addr", addr, "timezone", loc.String())
		if err := server.ListenAndServe(addr); err != nil && err != http.ErrServerClosed {
			fatal("server error", "error", err)
		}
	}()

	<-done
	logger.Info("shutting down")
	cancel()

	timeout := cfg.Server.ShutdownTimeout()
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), timeout)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown error", "error", err)
	}
	logger.Info("server stopped")
}

// buildSources creates the upstream of every configured screen. The archive
// is returned separately for the health checker; it is nil when disabled.
func buildSources(ctx context.Context, cfg *config.Config) (screens.Sources, api.Checker) {
	var sources screens.Sources

	if cfg.Upstream.Banking.Enabled() {
		sources.Benefits = upstream.NewBankingClient(cfg.Upstream.Banking)
	}
	if cfg.Upstream.Dispatch.Enabled() {
		sources.Dispatches = upstream.NewWebhookSource(entity.Dispatch, cfg.Upstream.Dispatch)
	}
	if cfg.Upstream.Graph.Enabled() {
		sources.Channels = upstream.NewGraphClient(cfg.Upstream.Graph)
	}

	var history []upstream.Source
	if cfg.Upstream.History.Enabled() {
		history = append(history, upstream.NewWebhookSource(entity.History, cfg.Upstream.History))
	}
	var checker api.Checker
	if cfg.HistoryArchive.Enabled && cfg.HistoryArchive.Bucket != "" {
		archive, err := upstream.NewArchiveSource(ctx, cfg.HistoryArchive)
		if err != nil {
			logger.Warn("history archive disabled", "error", err)
		} else {
			history = append(history, archive)
			checker = archive
		}
	}
	if len(history) > 0 {
		sources.History = upstream.NewMultiSource(entity.History, history...)
	}

	logger.Info("upstreams configured",
		"benefit", sources.Benefits != nil,
		"dispatch", sources.Dispatches != nil,
		"history_sources", len(history),
		"channel", sources.Channels != nil)
	return sources, checker
}

// cacheSources fronts every configured source with the Redis payload cache.
func cacheSources(s screens.Sources, client redis.UniversalClient, cfg config.RedisConfig) screens.Sources {
	if client == nil {
		return s
	}
	payloads := cache.NewRedisCache(client, cfg.KeyPrefix)
	locks := distlock.NewFactory(client)
	wrap := func(src upstream.Source) upstream.Source {
		if src == nil {
			return nil
		}
		return cache.Wrap(src, payloads, locks, cfg.TTL(), cfg.LockTTL())
	}
	return screens.Sources{
		Benefits:   wrap(s.Benefits),
		Dispatches: wrap(s.Dispatches),
		History:    wrap(s.History),
		Channels:   wrap(s.Channels),
	}
}
