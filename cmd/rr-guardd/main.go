package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/haukened/rr-guard/internal/guard/capability"
	"github.com/haukened/rr-guard/internal/guard/common/clock"
	"github.com/haukened/rr-guard/internal/guard/common/log"
	"github.com/haukened/rr-guard/internal/guard/config"
	"github.com/haukened/rr-guard/internal/guard/gateways/proxy"
	"github.com/haukened/rr-guard/internal/guard/infra/metrics"
	"github.com/haukened/rr-guard/internal/guard/repos/matcher"
	"github.com/haukened/rr-guard/internal/guard/repos/matcher/bloom"
	"github.com/haukened/rr-guard/internal/guard/repos/matcher/lru"
	"github.com/haukened/rr-guard/internal/guard/repos/policy"
	"github.com/haukened/rr-guard/internal/guard/services/interceptor"
	"github.com/haukened/rr-guard/internal/guard/services/lifecycle"
)

const (
	version = "0.1.0-dev"
	appName = "rr-guardd"

	defaultShutdownTimeout = 10 * time.Second
)

// Application holds the wired components of the guard daemon.
type Application struct {
	config     *config.AppConfig
	controller *lifecycle.Controller
	matcher    *matcher.Matcher
	server     *proxy.Server
}

// statusPayload is the /healthz body.
type statusPayload struct {
	lifecycle.Status
	App     string        `json:"app"`
	Version string        `json:"version"`
	Matcher matcher.Stats `json:"matcher"`
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Configuration error: %v\n", err)
		os.Exit(1)
	}

	if err := log.Configure(cfg.Env, cfg.Log.Level); err != nil {
		fmt.Fprintf(os.Stderr, "Logging configuration error: %v\n", err)
		os.Exit(1)
	}

	log.Info(map[string]any{
		"version":       version,
		"env":           cfg.Env,
		"log_level":     cfg.Log.Level,
		"port":          cfg.Proxy.Port,
		"policy_source": cfg.Policy.Source,
		"cache_size":    cfg.Policy.CacheSize,
		"sanitize_html": cfg.Proxy.SanitizeHTML,
	}, "Starting rr-guard daemon")

	app, err := buildApplication(cfg)
	if err != nil {
		log.Fatal(map[string]any{"error": err}, "Failed to build application")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigChan
		log.Info(map[string]any{"signal": sig.String()}, "Shutdown signal received")
		cancel()
	}()

	if err := app.Run(ctx); err != nil {
		log.Fatal(map[string]any{"error": err}, "Server failed")
	}
	log.Info(nil, "rr-guard daemon stopped gracefully")
}

// buildApplication constructs all components and wires them together.
func buildApplication(cfg *config.AppConfig) (*Application, error) {
	clk := clock.RealClock{}
	logger := log.GetLogger()
	met := metrics.New()

	m, err := buildMatcher(cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to build matcher: %w", err)
	}

	env := capability.NewDefaultEnvironment()
	ctrl := lifecycle.NewController(lifecycle.ControllerOptions{
		Environment: env,
		Plan:        interceptor.Interceptors(m, logger, met),
		Policy:      m.PolicySet(),
		Gauges:      met,
		Clock:       clk,
		Logger:      logger,
	})

	handler := proxy.NewHandler(proxy.Options{
		Environment:     env,
		Indicators:      m,
		SanitizeHTML:    cfg.Proxy.SanitizeHTML && cfg.Watcher.Enabled,
		SecurityHeaders: cfg.Proxy.SecurityHeaders,
		MarkerAttribute: cfg.Watcher.MarkerAttribute,
		Metrics:         met,
		Status: func() any {
			return statusPayload{Status: ctrl.Status(), App: appName, Version: version, Matcher: m.Stats()}
		},
		Logger: logger,
	})

	return &Application{
		config:     cfg,
		controller: ctrl,
		matcher:    m,
		server:     proxy.NewServer(cfg.ListenAddr(), handler, logger),
	}, nil
}

// buildMatcher loads the policy and assembles the matcher with its cache and
// prefilter. A policy that fails to load yields an empty set, which leaves
// only the fixed extension schemes blocked.
func buildMatcher(cfg *config.AppConfig, logger log.Logger) (*matcher.Matcher, error) {
	set := policy.Load(cfg.Policy.Source, logger)

	cache, err := lru.New(cfg.Policy.CacheSize)
	if err != nil {
		return nil, fmt.Errorf("failed to create decision cache: %w", err)
	}
	log.Info(map[string]any{
		"type": "LRU",
		"size": cfg.Policy.CacheSize,
	}, "Decision cache configured")

	return matcher.New(set, cache, bloom.NewFactory(), cfg.Policy.FPRate,
		matcher.WithCacheCapacity(cfg.Policy.CacheSize)), nil
}

// Run activates the guard, serves until ctx is cancelled, then tears down.
func (app *Application) Run(ctx context.Context) error {
	app.controller.Activate()

	if err := app.server.Start(ctx); err != nil {
		app.controller.Deactivate()
		return fmt.Errorf("failed to start proxy server: %w", err)
	}

	<-ctx.Done()
	log.Info(nil, "Shutdown initiated")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), defaultShutdownTimeout)
	defer cancel()

	if err := app.server.Stop(shutdownCtx); err != nil {
		log.Warn(map[string]any{"error": err}, "Error during proxy shutdown")
	}
	app.controller.Deactivate()

	log.Info(nil, "Graceful shutdown completed")
	return nil
}
