package config

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Environment   string
	Server        ServerConfig
	Database      DatabaseConfig
	Auth          AuthConfig
	Ephemeral     EphemeralConfig
	OAuth         OAuthConfig
	RateLimit     RateLimitConfig
	Providers     map[string]ProviderConfig
	Jobs          JobsConfig
	Observability ObservabilityConfig
}

type ServerConfig struct {
	Port int
	// TrustedProxies lists CIDRs whose X-Forwarded-For header is trusted for client IPs.
	TrustedProxies []string
}

type DatabaseConfig struct {
	Path          string
	SlowQueryLogs time.Duration
}

type AuthConfig struct {
	SessionSecret      string
	TokenKey           string
	GitHubClientID     string
	GitHubClientSecret string
	GitHubCallbackURL  string
	SecureCookie       bool
	// SystemOperators lists operator emails allowed to change system-wide switches.
	SystemOperators []string
}

type EphemeralConfig struct {
	RedisURL string
}

type OAuthConfig struct {
	CallbackBaseURL   string
	CallbackAllowList []string
	StateTTL          time.Duration
	ProviderTimeout   time.Duration
	RefreshSweep      string
}

// RateLimitRoute overrides the default window and limits for a path prefix.
type RateLimitRoute struct {
	Prefix    string `json:"prefix"`
	WindowSec int    `json:"windowSec"`
	Max       int    `json:"max"`
	Burst     int    `json:"burst"`
}

type RateLimitConfig struct {
	WindowSec int
	Max       int
	Burst     int
	Routes    []RateLimitRoute
}

// ProviderConfig holds client credentials and webhook secrets for one platform.
type ProviderConfig struct {
	ClientID           string
	ClientSecret       string
	WebhookSecret      string
	WebhookVerifyToken string
}

// Configured reports whether the OAuth client credentials are present.
func (p ProviderConfig) Configured() bool {
	return p.ClientID != "" && p.ClientSecret != ""
}

type JobsConfig struct {
	Workers   int
	QueueSize int
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

var providerNames = []string{"meta", "linkedin", "google", "youtube"}

func Load() (Config, error) {
	return load(true)
}

// LoadForTool loads config for CLI tools that do not serve HTTP sessions.
func LoadForTool() (Config, error) {
	return load(false)
}

func load(requireSecrets bool) (Config, error) {
	v := viper.New()
	v.AutomaticEnv()

	v.SetDefault("tokengate_env", "")
	v.SetDefault("app_env", "")
	v.SetDefault("go_env", "")
	v.SetDefault("tokengate_port", 8080)
	v.SetDefault("tokengate_db_path", "data/tokengate")
	v.SetDefault("tokengate_db_slow_query_ms", 0)
	v.SetDefault("tokengate_secure_cookie", false)
	v.SetDefault("tokengate_system_operators", "")
	v.SetDefault("tokengate_trusted_proxies", "")
	v.SetDefault("tokengate_redis_url", "")
	v.SetDefault("tokengate_callback_base_url", "")
	v.SetDefault("tokengate_callback_allowlist", "")
	v.SetDefault("tokengate_state_ttl_seconds", 300)
	v.SetDefault("tokengate_provider_timeout", "15s")
	v.SetDefault("tokengate_refresh_sweep", "@every 5m")
	v.SetDefault("tokengate_rate_limit_window_sec", 60)
	v.SetDefault("tokengate_rate_limit_max", 60)
	v.SetDefault("tokengate_rate_limit_burst", 20)
	v.SetDefault("tokengate_rate_limit_routes", "")
	v.SetDefault("tokengate_job_workers", 8)
	v.SetDefault("tokengate_job_queue_size", 1024)
	v.SetDefault("tokengate_otel_enabled", false)
	v.SetDefault("otel_exporter_otlp_endpoint", "")
	v.SetDefault("otel_exporter_otlp_headers", "")
	v.SetDefault("otel_exporter_otlp_traces_headers", "")
	v.SetDefault("otel_exporter_otlp_metrics_headers", "")
	v.SetDefault("otel_service_name", "tokengate")
	v.SetDefault("tokengate_version", "dev")
	v.SetDefault("tokengate_otel_sampling_ratio", 1.0)
	v.SetDefault("tokengate_otel_metrics_console", false)

	env := resolveEnvironment(v)
	port := v.GetInt("tokengate_port")
	if port <= 0 || port > 65535 {
		return Config{}, fmt.Errorf("invalid TOKENGATE_PORT: %d", port)
	}

	samplingRatio := clampFloat(v.GetFloat64("tokengate_otel_sampling_ratio"), 0, 1)

	callbackBase := strings.TrimRight(strings.TrimSpace(v.GetString("tokengate_callback_base_url")), "/")
	if callbackBase == "" {
		callbackBase = fmt.Sprintf("http://localhost:%d", port)
	}
	githubCallback := strings.TrimSpace(v.GetString("github_callback_url"))
	if githubCallback == "" {
		githubCallback = callbackBase + "/auth/github/callback"
	}

	stateTTL := time.Duration(v.GetInt("tokengate_state_ttl_seconds")) * time.Second
	if stateTTL <= 0 {
		stateTTL = 300 * time.Second
	}
	providerTimeout := v.GetDuration("tokengate_provider_timeout")
	if providerTimeout <= 0 {
		providerTimeout = 15 * time.Second
	}

	routes, err := parseRateLimitRoutes(v.GetString("tokengate_rate_limit_routes"))
	if err != nil {
		return Config{}, err
	}

	providers := make(map[string]ProviderConfig, len(providerNames))
	for _, name := range providerNames {
		providers[name] = ProviderConfig{
			ClientID:           strings.TrimSpace(v.GetString(name + "_client_id")),
			ClientSecret:       strings.TrimSpace(v.GetString(name + "_client_secret")),
			WebhookSecret:      strings.TrimSpace(v.GetString(name + "_webhook_secret")),
			WebhookVerifyToken: strings.TrimSpace(v.GetString(name + "_webhook_verify_token")),
		}
	}

	otlpEndpoint := strings.TrimSpace(v.GetString("otel_exporter_otlp_endpoint"))
	otlpCommonHeaders := parseOTLPHeaders(v.GetString("otel_exporter_otlp_headers"))
	metricsConsole := v.GetBool("tokengate_otel_metrics_console")
	serviceName := strings.TrimSpace(v.GetString("otel_service_name"))
	if serviceName == "" {
		serviceName = "tokengate"
	}

	cfg := Config{
		Environment: env,
		Server: ServerConfig{
			Port:           port,
			TrustedProxies: splitList(v.GetString("tokengate_trusted_proxies")),
		},
		Database: DatabaseConfig{
			Path:          strings.TrimSpace(v.GetString("tokengate_db_path")),
			SlowQueryLogs: time.Duration(v.GetInt("tokengate_db_slow_query_ms")) * time.Millisecond,
		},
		Auth: AuthConfig{
			SessionSecret:      strings.TrimSpace(v.GetString("tokengate_session_secret")),
			TokenKey:           strings.TrimSpace(v.GetString("tokengate_token_key")),
			GitHubClientID:     strings.TrimSpace(v.GetString("github_client_id")),
			GitHubClientSecret: strings.TrimSpace(v.GetString("github_client_secret")),
			GitHubCallbackURL:  githubCallback,
			SecureCookie:       v.GetBool("tokengate_secure_cookie"),
			SystemOperators:    splitList(v.GetString("tokengate_system_operators")),
		},
		Ephemeral: EphemeralConfig{
			RedisURL: strings.TrimSpace(v.GetString("tokengate_redis_url")),
		},
		OAuth: OAuthConfig{
			CallbackBaseURL:   callbackBase,
			CallbackAllowList: splitList(v.GetString("tokengate_callback_allowlist")),
			StateTTL:          stateTTL,
			ProviderTimeout:   providerTimeout,
			RefreshSweep:      strings.TrimSpace(v.GetString("tokengate_refresh_sweep")),
		},
		RateLimit: RateLimitConfig{
			WindowSec: positiveOr(v.GetInt("tokengate_rate_limit_window_sec"), 60),
			Max:       positiveOr(v.GetInt("tokengate_rate_limit_max"), 60),
			Burst:     max(v.GetInt("tokengate_rate_limit_burst"), 0),
			Routes:    routes,
		},
		Providers: providers,
		Jobs: JobsConfig{
			Workers:   positiveOr(v.GetInt("tokengate_job_workers"), 8),
			QueueSize: positiveOr(v.GetInt("tokengate_job_queue_size"), 1024),
		},
		Observability: ObservabilityConfig{
			Enabled:           v.GetBool("tokengate_otel_enabled") || otlpEndpoint != "" || metricsConsole,
			OTLPEndpoint:      otlpEndpoint,
			OTLPTraceHeaders:  mergeHeaderMaps(otlpCommonHeaders, parseOTLPHeaders(v.GetString("otel_exporter_otlp_traces_headers"))),
			OTLPMetricHeaders: mergeHeaderMaps(otlpCommonHeaders, parseOTLPHeaders(v.GetString("otel_exporter_otlp_metrics_headers"))),
			ServiceName:       serviceName,
			ServiceVer:        strings.TrimSpace(v.GetString("tokengate_version")),
			SamplingRatio:     samplingRatio,
			MetricsConsole:    metricsConsole,
		},
	}

	if cfg.Database.Path == "" {
		cfg.Database.Path = "data/tokengate"
	}
	if cfg.IsLocalDevelopment() {
		if cfg.Auth.SessionSecret == "" {
			cfg.Auth.SessionSecret = "tokengate-local-dev"
		}
		if cfg.Auth.TokenKey == "" {
			cfg.Auth.TokenKey = "tokengate-local-dev-token-key"
		}
		return cfg, nil
	}

	if cfg.Auth.TokenKey == "" {
		return Config{}, fmt.Errorf("TOKENGATE_TOKEN_KEY is required outside local/dev environments")
	}
	if requireSecrets {
		if cfg.Auth.SessionSecret == "" {
			return Config{}, fmt.Errorf("TOKENGATE_SESSION_SECRET is required outside local/dev environments")
		}
		if cfg.Ephemeral.RedisURL == "" {
			return Config{}, fmt.Errorf("TOKENGATE_REDIS_URL is required outside local/dev environments")
		}
	}
	return cfg, nil
}

// Provider returns credentials for a platform name.
func (c Config) Provider(name string) ProviderConfig {
	return c.Providers[strings.ToLower(strings.TrimSpace(name))]
}

func (c Config) IsLocalDevelopment() bool {
	switch strings.ToLower(strings.TrimSpace(c.Environment)) {
	case "", "local", "dev", "development", "test":
		return true
	default:
		return false
	}
}

func resolveEnvironment(v *viper.Viper) string {
	for _, key := range []string{"tokengate_env", "app_env", "go_env"} {
		value := strings.TrimSpace(v.GetString(key))
		if value != "" {
			return strings.ToLower(value)
		}
	}
	return ""
}

func parseRateLimitRoutes(raw string) ([]RateLimitRoute, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	var routes []RateLimitRoute
	if err := json.Unmarshal([]byte(raw), &routes); err != nil {
		return nil, fmt.Errorf("invalid TOKENGATE_RATE_LIMIT_ROUTES: %w", err)
	}
	out := routes[:0]
	for _, route := range routes {
		route.Prefix = strings.TrimSpace(route.Prefix)
		if route.Prefix == "" || route.WindowSec <= 0 || route.Max <= 0 {
			return nil, fmt.Errorf("invalid TOKENGATE_RATE_LIMIT_ROUTES entry %+v", route)
		}
		if route.Burst < 0 {
			route.Burst = 0
		}
		out = append(out, route)
	}
	return out, nil
}

func splitList(raw string) []string {
	out := make([]string, 0)
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func parseOTLPHeaders(raw string) map[string]string {
	out := make(map[string]string)
	for _, part := range splitList(raw) {
		key, value, ok := strings.Cut(part, "=")
		key, value = strings.TrimSpace(key), strings.TrimSpace(value)
		if !ok || key == "" || value == "" {
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

func positiveOr(value, fallback int) int {
	if value <= 0 {
		return fallback
	}
	return value
}

func clampFloat(value, lo, hi float64) float64 {
	return min(max(value, lo), hi)
}
