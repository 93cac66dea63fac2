// Package app wires the process together: it builds the logger, the
// conversation store, the provider and the relay exactly once from a
// [config.Config] and hands them to the HTTP server and the CLI.
package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/leofalp/chatrelay/core/relay"
	"github.com/leofalp/chatrelay/core/relay/middleware"
	"github.com/leofalp/chatrelay/internal/config"
	"github.com/leofalp/chatrelay/internal/utils"
	"github.com/leofalp/chatrelay/providers/ai"
	"github.com/leofalp/chatrelay/providers/ai/factory"
	"github.com/leofalp/chatrelay/providers/memory"
	"github.com/leofalp/chatrelay/providers/memory/inmemory"
	"github.com/leofalp/chatrelay/providers/memory/pgmemory"
	"github.com/leofalp/chatrelay/providers/memory/redismemory"
	"github.com/leofalp/chatrelay/providers/memory/sqlitememory"
	"github.com/leofalp/chatrelay/providers/observability/slogobs"
)

// App holds the long-lived components of a running process.
type App struct {
	Config   *config.Config
	Logger   *slog.Logger
	Store    memory.Store
	Provider ai.Provider
	Relay    *relay.Relay

	closers []func() error
}

// Option customizes Build.
type Option func(*buildOptions)

type buildOptions struct {
	logOutput io.Writer
	store     memory.Store
	provider  ai.Provider
}

// WithLogOutput sends logs to w instead of stdout.
func WithLogOutput(w io.Writer) Option {
	return func(o *buildOptions) {
		o.logOutput = w
	}
}

// WithStore skips backend selection and uses store as is.
func WithStore(store memory.Store) Option {
	return func(o *buildOptions) {
		o.store = store
	}
}

// WithProvider skips provider selection and uses provider as is.
func WithProvider(provider ai.Provider) Option {
	return func(o *buildOptions) {
		o.provider = provider
	}
}

// Build constructs every component from cfg. On error nothing is left open.
func Build(ctx context.Context, cfg *config.Config, opts ...Option) (*App, error) {
	options := buildOptions{logOutput: os.Stdout}
	for _, opt := range opts {
		opt(&options)
	}

	logger := slogobs.NewLogger(
		slogobs.WithLevel(slogobs.ParseLogLevel(cfg.LogLevel)),
		slogobs.WithFormat(slogobs.ParseFormat(cfg.LogFormat)),
		slogobs.WithOutput(options.logOutput),
	).With(slog.String("app_env", cfg.AppEnv))

	a := &App{Config: cfg, Logger: logger}

	store := options.store
	if store == nil {
		var err error
		store, err = a.openStore(ctx)
		if err != nil {
			_ = a.Close()
			return nil, err
		}
	}
	a.Store = store

	provider := options.provider
	if provider == nil {
		provider = factory.New(factory.Settings{
			Provider:           cfg.Provider,
			OpenAIAPIKey:       cfg.OpenAIAPIKey,
			OpenAIModel:        cfg.OpenAIModel,
			OpenAIBaseURL:      cfg.OpenAIBaseURL,
			HFAPIKey:           cfg.HFAPIKey,
			HFModel:            cfg.HFModel,
			HFBaseURL:          cfg.HFBaseURL,
			HFMaxNewTokens:     cfg.HFMaxNewTokens,
			HFTemperature:      cfg.HFTemperature,
			AnthropicAPIKey:    cfg.AnthropicAPIKey,
			AnthropicModel:     cfg.AnthropicModel,
			AnthropicMaxTokens: cfg.AnthropicMaxTokens,
			Pool:               utils.NewBlockingPool(cfg.BlockingPoolSize),
		}, logger)
	}
	a.Provider = provider

	a.Relay = relay.New(store, provider,
		relay.WithProviderName(cfg.Provider),
		relay.WithSystemPrompt(cfg.SystemPrompt),
		relay.WithHistoryLimit(cfg.HistoryLimit),
		relay.WithGenerationConfig(ai.GenerationConfig{MaxTokens: cfg.MaxTokens, Temperature: cfg.Temperature}),
		relay.WithTracer(slogobs.New(slogobs.WithLogger(logger))),
		relay.WithMiddleware(
			middleware.NewTimeoutMiddleware(cfg.ProviderTimeout),
			middleware.NewLoggingMiddleware(logger, cfg.Provider, middleware.ParseLogLevel(cfg.RelayLogDetail)),
		),
	)

	logger.Info("Relay ready",
		slog.String("provider", cfg.Provider),
		slog.String("store_backend", cfg.StoreBackend),
		slog.Int("history_limit", cfg.HistoryLimit),
	)
	return a, nil
}

func (a *App) openStore(ctx context.Context) (memory.Store, error) {
	cfg := a.Config

	switch cfg.StoreBackend {
	case config.StoreMemory:
		return inmemory.New(), nil

	case config.StoreRedis:
		client, err := redismemory.Dial(ctx, redismemory.Options{
			Host:     cfg.RedisHost,
			Port:     cfg.RedisPort,
			DB:       cfg.RedisDB,
			Password: cfg.RedisPassword,
		})
		if err != nil {
			return nil, fmt.Errorf("app: open redis store: %w", err)
		}
		a.closers = append(a.closers, client.Close)
		return redismemory.New(client), nil

	case config.StorePostgres:
		pool, err := pgmemory.Dial(ctx, cfg.PostgresDSN)
		if err != nil {
			return nil, fmt.Errorf("app: open postgres store: %w", err)
		}
		a.closers = append(a.closers, func() error { pool.Close(); return nil })

		store := pgmemory.New(pool)
		if err := store.EnsureSchema(ctx); err != nil {
			return nil, fmt.Errorf("app: open postgres store: %w", err)
		}
		return store, nil

	case config.StoreSQLite:
		store, err := sqlitememory.Open(ctx, cfg.SQLitePath)
		if err != nil {
			return nil, fmt.Errorf("app: open sqlite store: %w", err)
		}
		a.closers = append(a.closers, store.Close)
		return store, nil

	default:
		return nil, fmt.Errorf("app: unknown store backend %q", cfg.StoreBackend)
	}
}

// Close releases store connections in reverse order of acquisition.
func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}
