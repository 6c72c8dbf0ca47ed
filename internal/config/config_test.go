package config

import "testing"

func TestLoadDefaultsForLocalDevelopment(t *testing.T) {
	t.Setenv("STOREFRONT_ENV", "dev")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.Server.Port != 8080 {
		t.Fatalf("expected default port 8080, got %d", cfg.Server.Port)
	}
	if cfg.Database.Path != "data/storefront" {
		t.Fatalf("expected default db path, got %q", cfg.Database.Path)
	}
	if cfg.Custody.Mode != CustodyModeMemory {
		t.Fatalf("expected memory custody by default, got %q", cfg.Custody.Mode)
	}
	if cfg.RelayEnabled() {
		t.Fatal("expected relay disabled without endpoint")
	}
	if cfg.Relay.BatchSize != 100 || cfg.RelayInterval().Milliseconds() != 1000 {
		t.Fatalf("unexpected relay defaults %+v", cfg.Relay)
	}
}

func TestLoadRejectsMemoryCustodyOutsideLocal(t *testing.T) {
	t.Setenv("STOREFRONT_ENV", "production")
	t.Setenv("STOREFRONT_CUSTODY_MODE", "memory")

	if _, err := Load(); err == nil {
		t.Fatal("expected error for memory custody in production")
	}
}

func TestLoadRequiresCustodyURLAndSecretForHTTPMode(t *testing.T) {
	t.Setenv("STOREFRONT_ENV", "production")
	t.Setenv("STOREFRONT_CUSTODY_MODE", "http")
	t.Setenv("STOREFRONT_CUSTODY_URL", "")

	if _, err := Load(); err == nil {
		t.Fatal("expected error for missing custody url")
	}

	t.Setenv("STOREFRONT_CUSTODY_URL", "https://custody.example")
	t.Setenv("STOREFRONT_CUSTODY_SECRET", "")
	if _, err := Load(); err == nil {
		t.Fatal("expected error for missing custody secret in production")
	}

	t.Setenv("STOREFRONT_CUSTODY_SECRET", "s3cret")
	cfg, err := Load()
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.Custody.URL != "https://custody.example" || cfg.Custody.Secret != "s3cret" {
		t.Fatalf("unexpected custody config %+v", cfg.Custody)
	}
}

func TestLoadForToolSkipsCustodyChecks(t *testing.T) {
	t.Setenv("STOREFRONT_ENV", "production")
	t.Setenv("STOREFRONT_CUSTODY_MODE", "memory")

	if _, err := LoadForTool(); err != nil {
		t.Fatalf("expected tool load to succeed, got %v", err)
	}
}

func TestLoadRejectsUnknownCustodyMode(t *testing.T) {
	t.Setenv("STOREFRONT_ENV", "dev")
	t.Setenv("STOREFRONT_CUSTODY_MODE", "chain")

	if _, err := Load(); err == nil {
		t.Fatal("expected error for unknown custody mode")
	}
}

func TestLoadClampsRelaySettings(t *testing.T) {
	t.Setenv("STOREFRONT_ENV", "dev")
	t.Setenv("STOREFRONT_RELAY_BATCH_SIZE", "50000")
	t.Setenv("STOREFRONT_RELAY_INTERVAL_MS", "5")
	t.Setenv("STOREFRONT_RELAY_ENDPOINT", "https://indexer.example/events")
	t.Setenv("STOREFRONT_RELAY_TOKEN", "relay-token")
	t.Setenv("STOREFRONT_RELAY_SECRET", "relay-secret")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.Relay.BatchSize != 1000 {
		t.Fatalf("expected batch size clamped to 1000, got %d", cfg.Relay.BatchSize)
	}
	if cfg.Relay.IntervalMS != 100 {
		t.Fatalf("expected interval clamped to 100, got %d", cfg.Relay.IntervalMS)
	}
	if !cfg.RelayEnabled() {
		t.Fatal("expected relay enabled with endpoint")
	}
}

func TestLoadParsesOTLPHeadersAndMetricsConsole(t *testing.T) {
	t.Setenv("STOREFRONT_ENV", "dev")
	t.Setenv("OTEL_EXPORTER_OTLP_HEADERS", "authorization=Bearer common,x-team=market")
	t.Setenv("OTEL_EXPORTER_OTLP_TRACES_HEADERS", "x-trace=trace-only")
	t.Setenv("OTEL_EXPORTER_OTLP_METRICS_HEADERS", "x-metric=metric-only")
	t.Setenv("STOREFRONT_OTEL_METRICS_CONSOLE", "true")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if !cfg.Observability.Enabled || !cfg.Observability.MetricsConsole {
		t.Fatal("expected observability enabled when console metrics is true")
	}
	if cfg.Observability.OTLPTraceHeaders["authorization"] != "Bearer common" || cfg.Observability.OTLPTraceHeaders["x-trace"] != "trace-only" {
		t.Fatalf("unexpected trace headers %#v", cfg.Observability.OTLPTraceHeaders)
	}
	if cfg.Observability.OTLPMetricHeaders["x-metric"] != "metric-only" {
		t.Fatalf("unexpected metric headers %#v", cfg.Observability.OTLPMetricHeaders)
	}
	if _, ok := cfg.Observability.OTLPMetricHeaders["x-trace"]; ok {
		t.Fatal("trace-only header leaked into metric headers")
	}
}

func TestLoadRequiresRelayCredentialsWithEndpoint(t *testing.T) {
	t.Setenv("STOREFRONT_ENV", "dev")
	t.Setenv("STOREFRONT_RELAY_ENDPOINT", "https://indexer.example/events")
	t.Setenv("STOREFRONT_RELAY_TOKEN", "relay-token")

	if _, err := Load(); err == nil {
		t.Fatal("expected error for relay endpoint without secret")
	}
}
