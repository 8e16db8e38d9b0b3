package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/fr0stylo/tokengate/internal/adapters/memory"
	"github.com/fr0stylo/tokengate/internal/adapters/publisher"
	"github.com/fr0stylo/tokengate/internal/adapters/redis"
	"github.com/fr0stylo/tokengate/internal/adapters/sqlite"
	"github.com/fr0stylo/tokengate/internal/app/domain"
	"github.com/fr0stylo/tokengate/internal/app/ports"
	appservices "github.com/fr0stylo/tokengate/internal/app/services"
	"github.com/fr0stylo/tokengate/internal/config"
	"github.com/fr0stylo/tokengate/internal/db"
	"github.com/fr0stylo/tokengate/internal/jobs"
	"github.com/fr0stylo/tokengate/internal/observability"
	"github.com/fr0stylo/tokengate/internal/providers"
	"github.com/fr0stylo/tokengate/internal/ratelimit"
	"github.com/fr0stylo/tokengate/internal/secrets"
	"github.com/fr0stylo/tokengate/internal/server"
	"github.com/fr0stylo/tokengate/internal/server/routes"
)

func main() {
	log := slog.New(observability.WrapSlogHandler(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo})))
	slog.SetDefault(log)

	if err := godotenv.Load(); err != nil {
		slog.Debug("No .env file loaded", "error", err)
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("Failed to load config", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		slog.Error("Server stopped with error", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg config.Config, log *slog.Logger) error {
	shutdownTelemetry, err := observability.SetupOpenTelemetry(ctx, log, observability.OpenTelemetryConfig{
		Enabled:           cfg.Observability.Enabled,
		OTLPEndpoint:      cfg.Observability.OTLPEndpoint,
		OTLPTraceHeaders:  cfg.Observability.OTLPTraceHeaders,
		OTLPMetricHeaders: cfg.Observability.OTLPMetricHeaders,
		ServiceName:       cfg.Observability.ServiceName,
		ServiceVer:        cfg.Observability.ServiceVer,
		SamplingRatio:     cfg.Observability.SamplingRatio,
		MetricsConsole:    cfg.Observability.MetricsConsole,
	})
	if err != nil {
		return fmt.Errorf("setup telemetry: %w", err)
	}
	defer func() {
		flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTelemetry(flushCtx); err != nil {
			slog.Error("Failed to flush telemetry", "error", err)
		}
	}()

	database, err := db.New(cfg.Database.Path)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer func() {
		if err := database.Close(); err != nil {
			slog.Error("Failed to close database", "error", err)
		}
	}()
	database.LogSlowQueries(cfg.Database.SlowQueryLogs)

	pingers := map[string]routes.Pinger{"db": database}
	var ephemeral ports.EphemeralStore
	if cfg.Ephemeral.RedisURL != "" {
		redisStore, err := redis.Open(ctx, cfg.Ephemeral.RedisURL)
		if err != nil {
			return fmt.Errorf("open redis: %w", err)
		}
		defer func() { _ = redisStore.Close() }()
		ephemeral = redisStore
		pingers["redis"] = redisStore
	} else {
		slog.Warn("TOKENGATE_REDIS_URL not set, using in-process ephemeral store")
		ephemeral = memory.NewStore()
	}

	cipher, err := secrets.NewCipher(cfg.Auth.TokenKey)
	if err != nil {
		return fmt.Errorf("token cipher: %w", err)
	}

	creds := make(map[domain.Platform]providers.Credentials, len(domain.Platforms))
	webhookSecrets := make(map[domain.Platform]appservices.WebhookSecrets, len(domain.Platforms))
	for _, platform := range domain.Platforms {
		p := cfg.Provider(platform.String())
		creds[platform] = providers.Credentials{ClientID: p.ClientID, ClientSecret: p.ClientSecret}
		webhookSecrets[platform] = appservices.WebhookSecrets{Secret: p.WebhookSecret, VerifyToken: p.WebhookVerifyToken}
	}
	registry := providers.NewRegistry(creds, observability.NewOutboundClient(cfg.OAuth.ProviderTimeout))

	store := sqlite.NewStore(database)
	queue := jobs.New(ephemeral, log, jobs.Options{Workers: cfg.Jobs.Workers, QueueSize: cfg.Jobs.QueueSize})
	defer queue.Stop()

	audit := appservices.NewAuditor(store, log)
	tokens := appservices.NewTokenService(store, cipher, appservices.NewTokenCache(ephemeral, cipher, log), nil, log)
	engine := appservices.NewRefreshEngine(tokens, ephemeral, registry, audit, log)
	flow := appservices.NewOAuthFlow(registry, ephemeral, tokens, audit, appservices.OAuthFlowConfig{
		CallbackBaseURL: cfg.OAuth.CallbackBaseURL,
		AllowList:       cfg.OAuth.CallbackAllowList,
		StateTTL:        cfg.OAuth.StateTTL,
		AllowUnlisted:   cfg.IsLocalDevelopment() && len(cfg.OAuth.CallbackAllowList) == 0,
	}, log)
	gate := appservices.NewWebhookGate(store, queue, webhookSecrets, log)
	executor := appservices.NewPublishExecutor(tokens, publisher.NewDryRun(log), log)

	queue.Handle(appservices.JobTypeWebhookReceived, gate.HandleJob)
	queue.Handle(appservices.JobTypePublish, executor.HandleJob)

	sweep := appservices.NewRefreshSweep(engine, cfg.OAuth.RefreshSweep, log)
	if err := sweep.Start(); err != nil {
		return fmt.Errorf("schedule refresh sweep: %w", err)
	}
	defer func() { <-sweep.Stop().Done() }()

	limiter := ratelimit.New(ephemeral, rateLimitConfig(cfg.RateLimit), log, ratelimit.WithSkipper(func(path string) bool {
		return path == "/healthz" || path == "/readyz"
	}))

	routes.ConfigureAuth(routes.AuthConfig{
		SessionKey:         cfg.Auth.SessionSecret,
		GitHubClientID:     cfg.Auth.GitHubClientID,
		GitHubClientSecret: cfg.Auth.GitHubClientSecret,
		GitHubCallbackURL:  cfg.Auth.GitHubCallbackURL,
		SecureCookies:      cfg.Auth.SecureCookie,
	})

	srv, err := server.New(log, server.Options{TrustedProxies: cfg.Server.TrustedProxies}, limiter.Middleware())
	if err != nil {
		return fmt.Errorf("configure server: %w", err)
	}
	srv.RegisterRouter(routes.NewHealthRoutes(pingers))
	srv.RegisterRouter(routes.NewAuthRoutes(appservices.NewOperatorService(store), cfg.IsLocalDevelopment()))
	srv.RegisterRouter(routes.NewOAuthRoutes(flow, routes.NewStateCookies(cfg.Auth.SessionSecret, flow.StateTTL(), cfg.Auth.SecureCookie)))
	srv.RegisterRouter(routes.NewWebhookRoutes(gate))
	srv.RegisterRouter(routes.NewTokenRoutes(tokens))
	srv.RegisterRouter(routes.NewPublishRoutes(
		appservices.NewAdmissionGate(store, queue, log),
		appservices.NewPolicyService(store, log),
		appservices.NewSystemOperators(cfg.Auth.SystemOperators),
	))

	errCh := make(chan error, 1)
	go func() {
		slog.Info("Starting server", "port", cfg.Server.Port, "env", cfg.Environment)
		errCh <- srv.Start(fmt.Sprintf(":%d", cfg.Server.Port))
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	slog.Info("Shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func rateLimitConfig(cfg config.RateLimitConfig) ratelimit.Config {
	rules := make([]ratelimit.Rule, 0, len(cfg.Routes))
	for _, route := range cfg.Routes {
		rules = append(rules, ratelimit.Rule{
			Prefix:    strings.TrimSpace(route.Prefix),
			WindowSec: route.WindowSec,
			Max:       route.Max,
			Burst:     route.Burst,
		})
	}
	return ratelimit.Config{WindowSec: cfg.WindowSec, Max: cfg.Max, Burst: cfg.Burst, Routes: rules}
}
