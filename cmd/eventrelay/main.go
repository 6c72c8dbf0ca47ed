package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	_ "modernc.org/sqlite"

	"github.com/fr0stylo/storefront/internal/adapters/sqlite"
	appservices "github.com/fr0stylo/storefront/internal/app/services"
	"github.com/fr0stylo/storefront/internal/db"
	"github.com/fr0stylo/storefront/internal/observability"
	"github.com/fr0stylo/storefront/pkg/eventpublisher"
)

func main() {
	if err := godotenv.Load(); err != nil {
		fmt.Fprintln(os.Stderr, "no .env file loaded:", err)
	}
	v := viper.New()
	v.AutomaticEnv()
	v.SetDefault("STOREFRONT_DB_PATH", "data/storefront")

	dbPath := flag.String("db", strings.TrimSpace(v.GetString("STOREFRONT_DB_PATH")), "SQLite database path (or STOREFRONT_DB_PATH)")
	endpoint := flag.String("endpoint", strings.TrimSpace(v.GetString("STOREFRONT_RELAY_ENDPOINT")), "Indexer base URL (or STOREFRONT_RELAY_ENDPOINT)")
	token := flag.String("token", strings.TrimSpace(v.GetString("STOREFRONT_RELAY_TOKEN")), "Indexer auth token (or STOREFRONT_RELAY_TOKEN)")
	secret := flag.String("secret", strings.TrimSpace(v.GetString("STOREFRONT_RELAY_SECRET")), "Indexer signing secret (or STOREFRONT_RELAY_SECRET)")
	source := flag.String("source", eventpublisher.DefaultSource, "CloudEvents source")
	batch := flag.Int64("batch", 100, "Events per delivery")
	loop := flag.Bool("loop", false, "Keep relaying until interrupted")
	interval := flag.Duration("interval", time.Second, "Poll interval with -loop")
	timeout := flag.Duration("timeout", 10*time.Second, "Request timeout")
	flag.Parse()

	if strings.TrimSpace(*endpoint) == "" || strings.TrimSpace(*token) == "" || strings.TrimSpace(*secret) == "" {
		exitErr("endpoint/token/secret are required (or set STOREFRONT_RELAY_ENDPOINT, STOREFRONT_RELAY_TOKEN, STOREFRONT_RELAY_SECRET)")
	}
	if *batch <= 0 || *batch > 1000 {
		exitErr("batch must be between 1 and 1000")
	}

	log := slog.New(observability.WrapSlogHandler(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo})))
	slog.SetDefault(log)

	database, err := db.New(strings.TrimSpace(*dbPath))
	if err != nil {
		exitErr(fmt.Sprintf("open database: %v", err))
	}
	store := sqlite.NewMarketStore(database)
	defer func() {
		if err := store.Close(); err != nil {
			slog.Error("Failed to close database", "error", err)
		}
	}()

	relay := appservices.NewEventRelay(store, eventpublisher.Client{
		Endpoint: strings.TrimSpace(*endpoint),
		Token:    strings.TrimSpace(*token),
		Secret:   strings.TrimSpace(*secret),
		Source:   strings.TrimSpace(*source),
		Timeout:  *timeout,
	},
		appservices.WithRelayBatchSize(*batch),
		appservices.WithRelayLogger(log),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if *loop {
		if err := relay.Run(ctx, *interval); err != nil {
			exitErr(err.Error())
		}
		return
	}

	total := 0
	for {
		published, err := relay.RunOnce(ctx)
		if err != nil {
			exitErr(fmt.Sprintf("relay events: %v", err))
		}
		total += published
		if int64(published) < *batch {
			break
		}
	}
	fmt.Printf("Relayed %d events to %s\n", total, strings.TrimSpace(*endpoint))
}

func exitErr(message string) {
	fmt.Fprintln(os.Stderr, message)
	os.Exit(1)
}
