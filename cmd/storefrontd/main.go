package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	_ "modernc.org/sqlite"

	"github.com/fr0stylo/storefront/internal/adapters/custodyhttp"
	"github.com/fr0stylo/storefront/internal/adapters/sqlite"
	"github.com/fr0stylo/storefront/internal/app/ports"
	appservices "github.com/fr0stylo/storefront/internal/app/services"
	"github.com/fr0stylo/storefront/internal/config"
	"github.com/fr0stylo/storefront/internal/custody/memcustody"
	"github.com/fr0stylo/storefront/internal/db"
	"github.com/fr0stylo/storefront/internal/observability"
	"github.com/fr0stylo/storefront/internal/server"
	"github.com/fr0stylo/storefront/internal/server/routes"
	"github.com/fr0stylo/storefront/pkg/eventpublisher"
)

const shutdownTimeout = 10 * time.Second

func Run() error {
	baseHandler := slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo})
	log := slog.New(observability.WrapSlogHandler(baseHandler))
	slog.SetDefault(log)

	if err := godotenv.Load(); err != nil {
		slog.Debug("No .env file loaded", "error", err)
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTelemetry, err := observability.SetupOpenTelemetry(ctx, log, observability.OpenTelemetryConfig{
		Enabled:           cfg.Observability.Enabled,
		OTLPEndpoint:      cfg.Observability.OTLPEndpoint,
		OTLPTraceHeaders:  cfg.Observability.OTLPTraceHeaders,
		OTLPMetricHeaders: cfg.Observability.OTLPMetricHeaders,
		ServiceName:       cfg.Observability.ServiceName,
		ServiceVer:        cfg.Observability.ServiceVer,
		SamplingRatio:     cfg.Observability.SamplingRatio,
		MetricsConsole:    cfg.Observability.MetricsConsole,
		Environment:       cfg.Environment,
		CustodyMode:       cfg.Custody.Mode,
	})
	if err != nil {
		return fmt.Errorf("failed to initialize OpenTelemetry: %w", err)
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTelemetry(ctx); err != nil {
			slog.Error("Failed to shutdown OpenTelemetry", "error", err)
		}
	}()

	database, err := db.New(cfg.Database.Path)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	store := sqlite.NewMarketStore(database)
	defer func() {
		if err := store.Close(); err != nil {
			slog.Error("Failed to close database", "error", err)
		}
	}()

	if cfg.Database.LogTiming {
		go logDBLatencyStats(ctx, log, database)
	}

	srv := server.New(log)
	srv.RegisterRouter(routes.HealthRoutes{})

	var custody ports.Custody
	switch cfg.Custody.Mode {
	case config.CustodyModeHTTP:
		custody = custodyhttp.NewClient(cfg.Custody.URL, cfg.Custody.Token, cfg.Custody.Secret, nil)
		slog.Info("Using remote custody", "url", cfg.Custody.URL)
	default:
		local := memcustody.New()
		custody = local
		srv.RegisterRouter(custodyhttp.NewHandler(local, cfg.Custody.Token, cfg.Custody.Secret, log))
		slog.Warn("Using in-memory custody, assets and funds are lost on restart")
	}

	market := appservices.NewMarketService(store, custody, appservices.WithLogger(log))
	srv.RegisterRouter(routes.NewMarketRoutes(market, log))

	relayDone := make(chan struct{})
	if cfg.RelayEnabled() {
		relay := appservices.NewEventRelay(store, eventpublisher.Client{
			Endpoint: cfg.Relay.Endpoint,
			Token:    cfg.Relay.Token,
			Secret:   cfg.Relay.Secret,
			Source:   cfg.Observability.ServiceName,
		},
			appservices.WithRelayBatchSize(int64(cfg.Relay.BatchSize)),
			appservices.WithRelayLogger(log),
		)
		go func() {
			defer close(relayDone)
			if err := relay.Run(ctx, cfg.RelayInterval()); err != nil {
				slog.Error("Event relay stopped", "error", err)
			}
		}()
		slog.Info("Event relay started", "endpoint", cfg.Relay.Endpoint, "interval", cfg.RelayInterval().String())
	} else {
		close(relayDone)
	}

	serveErr := make(chan error, 1)
	go func() {
		addr := fmt.Sprintf(":%d", cfg.Server.Port)
		slog.Info("Starting server", "port", cfg.Server.Port, "custody", cfg.Custody.Mode)
		serveErr <- srv.Start(addr)
	}()

	select {
	case err := <-serveErr:
		stop()
		<-relayDone
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	slog.Info("Shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shutdown server: %w", err)
	}
	<-relayDone
	return nil
}

func main() {
	if err := Run(); err != nil {
		slog.Error("server exited", "error", err)
		os.Exit(1)
	}
}

func logDBLatencyStats(ctx context.Context, log *slog.Logger, database *db.Database) {
	ticker := time.NewTicker(60 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
		stats := database.QueryLatencyStats()
		limit := min(5, len(stats))
		for _, entry := range stats[:limit] {
			log.Info("db_query_latency",
				"query", entry.Name,
				"count", entry.Count,
				"p50_ms", entry.P50.Milliseconds(),
				"p95_ms", entry.P95.Milliseconds(),
				"max_ms", entry.Max.Milliseconds(),
			)
		}
	}
}
