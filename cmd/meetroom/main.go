package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"meetroom/internal/api"
	"meetroom/internal/bookingapi"
	"meetroom/internal/config"
	"meetroom/internal/events"
	"meetroom/internal/metrics"
	"meetroom/internal/session"
	"meetroom/internal/store"
)

func main() {
	// Initialize logger
	output := zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}
	logger := zerolog.New(output).With().Timestamp().Logger()

	cfg, err := config.Load(os.Getenv("MEETROOM_CONFIG_PATH"))
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load config")
	}

	if cfg.API.BaseURL == "" {
		logger.Fatal().Msg("set api.base_url in config")
	}

	slotsCfg, err := cfg.SlotsConfig()
	if err != nil {
		logger.Fatal().Err(err).Msg("invalid booking config")
	}

	snapshots, err := store.NewDB(cfg.Database.Path)
	if err != nil {
		logger.Fatal().Err(err).Msg("open db error")
	}
	defer snapshots.Close()

	client := bookingapi.NewClient(cfg.API.BaseURL, cfg.API.APIKey, cfg.APITimeout(), logger)
	var rdb *redis.Client
	if cfg.Redis.Address != "" && cfg.API.CacheTTLSeconds > 0 {
		rdb = redis.NewClient(&redis.Options{Addr: cfg.Redis.Address, Password: cfg.Redis.Password, DB: cfg.Redis.DB})
		client.UseRedisCache(rdb, time.Duration(cfg.API.CacheTTLSeconds)*time.Second)
	}
	if cfg.API.RatePerSecond > 0 {
		client.UseRateLimit(cfg.API.RatePerSecond, cfg.API.RateBurst)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.Monitoring.HealthCheckPort == 0 {
		cfg.Monitoring.HealthCheckPort = 8090
	}
	go startHealthServer(ctx, cfg.Monitoring.HealthCheckPort, snapshots, rdb, client, &logger)

	if cfg.Monitoring.PrometheusEnabled {
		if cfg.Monitoring.PrometheusPort == 0 {
			cfg.Monitoring.PrometheusPort = 9090
		}
		metrics.Register()
		go startMetricsServer(ctx, cfg.Monitoring.PrometheusPort, &logger)
	}

	go runSnapshotCleanup(ctx, snapshots, &logger)

	backup := store.NewBackupService(cfg.Database.Path, cfg.Database.Backup, &logger)
	go backup.Start(ctx)

	bus := events.NewBus()
	bus.Subscribe(events.TypeFetchFailed, func(e events.Event) error {
		logger.Warn().Str("room_id", e.RoomID).Str("date", e.Date.String()).Msg("availability fetch failed")
		return nil
	})

	sessions := session.NewStore(slotsCfg.Hours, cfg.SessionTimeout())
	go runSessionCleanup(ctx, sessions, &logger)

	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	srv := api.NewHTTPServer(cfg.Server.Port, client, snapshots, sessions, bus, slotsCfg, cfg.API.APIKey, logger)

	logger.Info().Msg("meetroom service started")
	if err := srv.Start(ctx); err != nil {
		// Fatal exits without running defers; release the db first.
		snapshots.Close()
		logger.Fatal().Err(err).Msg("api server error")
	}
}

func startHealthServer(ctx context.Context, port int, snapshots *store.DB, rdb *redis.Client, client *bookingapi.Client, logger *zerolog.Logger) {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	mux.HandleFunc("/readyz", func(w http.ResponseWriter, _ *http.Request) {
		ctxPing, cancel := context.WithTimeout(ctx, time.Second)
		defer cancel()
		if err := snapshots.PingContext(ctxPing); err != nil {
			http.Error(w, "db not ready", http.StatusServiceUnavailable)
			return
		}
		if rdb != nil {
			if err := rdb.Ping(ctxPing).Err(); err != nil {
				http.Error(w, "redis not ready", http.StatusServiceUnavailable)
				return
			}
		}
		if err := client.HealthCheck(ctxPing); err != nil {
			http.Error(w, "upstream not ready", http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ready"))
	})

	srv := &http.Server{Addr: fmt.Sprintf(":%d", port), Handler: mux}
	go func() {
		<-ctx.Done()
		ctxShutdown, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctxShutdown)
	}()
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error().Err(err).Msg("health server error")
	}
}

func startMetricsServer(ctx context.Context, port int, logger *zerolog.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	srv := &http.Server{Addr: fmt.Sprintf(":%d", port), Handler: mux}
	go func() {
		<-ctx.Done()
		ctxShutdown, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctxShutdown)
	}()
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error().Err(err).Msg("metrics server error")
	}
}

// runSessionCleanup expires idle form sessions every few minutes.
func runSessionCleanup(ctx context.Context, sessions *session.Store, logger *zerolog.Logger) {
	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if removed := sessions.Cleanup(); removed > 0 {
				logger.Debug().Int("removed", removed).Msg("expired form sessions")
			}
		}
	}
}

// runSnapshotCleanup drops stored snapshots older than 30 days once a
// day. The snapshots only exist to bridge upstream outages; anything a
// month old is not worth falling back to.
func runSnapshotCleanup(ctx context.Context, snapshots *store.DB, logger *zerolog.Logger) {
	const retention = 30 * 24 * time.Hour
	ticker := time.NewTicker(24 * time.Hour)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			removed, err := snapshots.Cleanup(ctx, retention)
			if err != nil {
				logger.Error().Err(err).Msg("snapshot cleanup error")
				continue
			}
			if removed > 0 {
				logger.Info().Int64("removed", removed).Msg("cleaned up old snapshots")
			}
		}
	}
}
