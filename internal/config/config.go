package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const (
	CustodyModeMemory = "memory"
	CustodyModeHTTP   = "http"
)

type Config struct {
	Environment   string
	Server        ServerConfig
	Database      DatabaseConfig
	Observability ObservabilityConfig
	Custody       CustodyConfig
	Relay         RelayConfig
}

type ServerConfig struct {
	Port int
}

type DatabaseConfig struct {
	Path      string
	LogTiming bool
}

type ObservabilityConfig struct {
	Enabled           bool
	OTLPEndpoint      string
	OTLPTraceHeaders  map[string]string
	OTLPMetricHeaders map[string]string
	ServiceName       string
	ServiceVer        string
	SamplingRatio     float64
	MetricsConsole    bool
}

// CustodyConfig selects where assets and funds live. In memory mode Token and
// Secret protect the locally served custody routes; in http mode they
// authenticate against the remote service at URL.
type CustodyConfig struct {
	Mode   string
	URL    string
	Token  string
	Secret string
}

type RelayConfig struct {
	Endpoint   string
	Token      string
	Secret     string
	BatchSize  int
	IntervalMS int
}

func Load() (Config, error) {
	return load(true)
}

// LoadForTool loads config for CLI tools that never talk to custody.
func LoadForTool() (Config, error) {
	return load(false)
}

func load(requireCustody bool) (Config, error) {
	v := viper.New()
	v.AutomaticEnv()

	v.SetDefault("storefront_env", "")
	v.SetDefault("app_env", "")
	v.SetDefault("go_env", "")
	v.SetDefault("storefront_port", 8080)
	v.SetDefault("storefront_db_path", "data/storefront")
	v.SetDefault("storefront_db_timing", false)
	v.SetDefault("storefront_otel_enabled", false)
	v.SetDefault("otel_exporter_otlp_endpoint", "")
	v.SetDefault("otel_exporter_otlp_headers", "")
	v.SetDefault("otel_exporter_otlp_traces_headers", "")
	v.SetDefault("otel_exporter_otlp_metrics_headers", "")
	v.SetDefault("otel_service_name", "")
	v.SetDefault("storefront_service_name", "storefront")
	v.SetDefault("storefront_version", "dev")
	v.SetDefault("otel_service_version", "")
	v.SetDefault("storefront_otel_sampling_ratio", 1.0)
	v.SetDefault("storefront_otel_metrics_console", false)
	v.SetDefault("storefront_custody_mode", CustodyModeMemory)
	v.SetDefault("storefront_custody_url", "")
	v.SetDefault("storefront_custody_token", "")
	v.SetDefault("storefront_custody_secret", "")
	v.SetDefault("storefront_relay_endpoint", "")
	v.SetDefault("storefront_relay_token", "")
	v.SetDefault("storefront_relay_secret", "")
	v.SetDefault("storefront_relay_batch_size", 100)
	v.SetDefault("storefront_relay_interval_ms", 1000)

	env := resolveEnvironment(v)
	port := v.GetInt("storefront_port")
	if port <= 0 || port > 65535 {
		return Config{}, fmt.Errorf("invalid STOREFRONT_PORT: %d", port)
	}

	samplingRatio := v.GetFloat64("storefront_otel_sampling_ratio")
	if samplingRatio < 0 {
		samplingRatio = 0
	}
	if samplingRatio > 1 {
		samplingRatio = 1
	}

	batchSize := v.GetInt("storefront_relay_batch_size")
	if batchSize <= 0 {
		batchSize = 100
	}
	if batchSize > 1000 {
		batchSize = 1000
	}

	interval := v.GetInt("storefront_relay_interval_ms")
	if interval <= 0 {
		interval = 1000
	}
	if interval < 100 {
		interval = 100
	}
	if interval > 60000 {
		interval = 60000
	}

	mode := strings.ToLower(strings.TrimSpace(v.GetString("storefront_custody_mode")))
	switch mode {
	case "":
		mode = CustodyModeMemory
	case CustodyModeMemory, CustodyModeHTTP:
	default:
		return Config{}, fmt.Errorf("invalid STOREFRONT_CUSTODY_MODE: %q", mode)
	}

	serviceName := strings.TrimSpace(v.GetString("otel_service_name"))
	if serviceName == "" {
		serviceName = strings.TrimSpace(v.GetString("storefront_service_name"))
	}
	if serviceName == "" {
		serviceName = "storefront"
	}

	serviceVersion := strings.TrimSpace(v.GetString("storefront_version"))
	if serviceVersion == "" {
		serviceVersion = strings.TrimSpace(v.GetString("otel_service_version"))
	}
	if serviceVersion == "" {
		serviceVersion = "dev"
	}

	otlpEndpoint := strings.TrimSpace(v.GetString("otel_exporter_otlp_endpoint"))
	otlpCommonHeaders := parseOTLPHeaders(v.GetString("otel_exporter_otlp_headers"))
	otlpTraceHeaders := parseOTLPHeaders(v.GetString("otel_exporter_otlp_traces_headers"))
	otlpMetricHeaders := parseOTLPHeaders(v.GetString("otel_exporter_otlp_metrics_headers"))
	metricsConsole := v.GetBool("storefront_otel_metrics_console")
	otelEnabled := v.GetBool("storefront_otel_enabled") || otlpEndpoint != "" || metricsConsole

	cfg := Config{
		Environment: env,
		Server:      ServerConfig{Port: port},
		Database: DatabaseConfig{
			Path:      strings.TrimSpace(v.GetString("storefront_db_path")),
			LogTiming: v.GetBool("storefront_db_timing"),
		},
		Observability: ObservabilityConfig{
			Enabled:           otelEnabled,
			OTLPEndpoint:      otlpEndpoint,
			OTLPTraceHeaders:  mergeHeaderMaps(otlpCommonHeaders, otlpTraceHeaders),
			OTLPMetricHeaders: mergeHeaderMaps(otlpCommonHeaders, otlpMetricHeaders),
			ServiceName:       serviceName,
			ServiceVer:        serviceVersion,
			SamplingRatio:     samplingRatio,
			MetricsConsole:    metricsConsole,
		},
		Custody: CustodyConfig{
			Mode:   mode,
			URL:    strings.TrimSpace(v.GetString("storefront_custody_url")),
			Token:  strings.TrimSpace(v.GetString("storefront_custody_token")),
			Secret: strings.TrimSpace(v.GetString("storefront_custody_secret")),
		},
		Relay: RelayConfig{
			Endpoint:   strings.TrimSpace(v.GetString("storefront_relay_endpoint")),
			Token:      strings.TrimSpace(v.GetString("storefront_relay_token")),
			Secret:     strings.TrimSpace(v.GetString("storefront_relay_secret")),
			BatchSize:  batchSize,
			IntervalMS: interval,
		},
	}

	if strings.TrimSpace(cfg.Database.Path) == "" {
		cfg.Database.Path = "data/storefront"
	}
	if requireCustody && cfg.Custody.Mode == CustodyModeHTTP {
		if cfg.Custody.URL == "" {
			return Config{}, fmt.Errorf("STOREFRONT_CUSTODY_URL is required in http custody mode")
		}
		if !cfg.IsLocalDevelopment() && cfg.Custody.Secret == "" {
			return Config{}, fmt.Errorf("STOREFRONT_CUSTODY_SECRET is required outside local/dev environments")
		}
	}
	if cfg.Relay.Endpoint != "" && (cfg.Relay.Token == "" || cfg.Relay.Secret == "") {
		return Config{}, fmt.Errorf("STOREFRONT_RELAY_TOKEN and STOREFRONT_RELAY_SECRET are required with STOREFRONT_RELAY_ENDPOINT")
	}
	if requireCustody && !cfg.IsLocalDevelopment() && cfg.Custody.Mode == CustodyModeMemory {
		return Config{}, fmt.Errorf("memory custody is only allowed in local/dev environments")
	}

	return cfg, nil
}

func parseOTLPHeaders(raw string) map[string]string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	out := make(map[string]string)
	for _, part := range strings.Split(raw, ",") {
		key, value, ok := strings.Cut(strings.TrimSpace(part), "=")
		if !ok {
			continue
		}
		key = strings.TrimSpace(key)
		value = strings.TrimSpace(value)
		if key == "" || value == "" {
			continue
		}
		out[key] = value
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

func mergeHeaderMaps(base, override map[string]string) map[string]string {
	if len(base) == 0 && len(override) == 0 {
		return nil
	}
	out := make(map[string]string, len(base)+len(override))
	for k, v := range base {
		out[k] = v
	}
	for k, v := range override {
		out[k] = v
	}
	return out
}

func (c Config) IsLocalDevelopment() bool {
	switch strings.ToLower(strings.TrimSpace(c.Environment)) {
	case "", "local", "dev", "development", "test":
		return true
	default:
		return false
	}
}

// RelayInterval is the pause between outbox polls.
func (c Config) RelayInterval() time.Duration {
	return time.Duration(c.Relay.IntervalMS) * time.Millisecond
}

// RelayEnabled reports whether outbox events have somewhere to go.
func (c Config) RelayEnabled() bool {
	return c.Relay.Endpoint != ""
}

func resolveEnvironment(v *viper.Viper) string {
	for _, key := range []string{"storefront_env", "app_env", "go_env"} {
		value := strings.TrimSpace(v.GetString(key))
		if value != "" {
			return strings.ToLower(value)
		}
	}
	return ""
}
