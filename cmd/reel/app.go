package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/mmcdole/reel/internal/api"
	"github.com/mmcdole/reel/internal/auth"
	"github.com/mmcdole/reel/internal/cache"
	"github.com/mmcdole/reel/internal/config"
	"github.com/mmcdole/reel/internal/domain"
	"github.com/mmcdole/reel/internal/log"
	"github.com/mmcdole/reel/internal/profile"
	"github.com/mmcdole/reel/internal/store"
)

// app holds the wired components for one command invocation
type app struct {
	cfg       *config.Config
	logger    *slog.Logger
	logCloser io.Closer
	store     domain.KeyValueStore
	creds     *auth.Source
	svc       *profile.Service
}

// openApp loads configuration and wires logger, store, credentials, API client
// and profile service. observer may be nil.
func openApp(ctx context.Context, observer domain.Observer) (*app, error) {
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if verbose {
		cfg.Logging.Level = "DEBUG"
	}

	logger, logCloser, err := log.SetupLogger(&cfg.Logging)
	if err != nil {
		// Fall back to null logger if file logging fails
		logger = log.NullLogger()
		logCloser = io.NopCloser(nil)
	}
	slog.SetDefault(logger)

	if !cfg.IsConfigured() {
		logCloser.Close()
		return nil, fmt.Errorf("server.url is not set: add it to %s or set REEL_SERVER_URL", config.DefaultConfigFile())
	}

	kv, err := openStore(ctx, cfg, logger)
	if err != nil {
		logCloser.Close()
		return nil, err
	}

	creds := auth.NewSource(kv, cfg.Server.Token, logger)
	client := api.NewClient(cfg.Server.URL, creds, cfg.Server.Timeout, logger)

	opts := []cache.Option{cache.WithFetchTimeout(cfg.Cache.FetchTimeout)}
	if observer != nil {
		opts = append(opts, cache.WithObserver(observer))
	}
	svc := profile.NewService(client, creds, kv, policiesFrom(cfg.Cache), logger, opts...)

	logger.Debug("app wired", "backend", cfg.Cache.Backend, "server", cfg.Server.URL)

	return &app{
		cfg:       cfg,
		logger:    logger,
		logCloser: logCloser,
		store:     kv,
		creds:     creds,
		svc:       svc,
	}, nil
}

// Close stops background refreshes, then releases the store and log file
func (a *app) Close() error {
	a.svc.Close()
	return errors.Join(a.store.Close(), a.logCloser.Close())
}

func openStore(ctx context.Context, cfg *config.Config, logger *slog.Logger) (domain.KeyValueStore, error) {
	switch cfg.Cache.Backend {
	case config.BackendMemory:
		return store.NewMemoryStore(), nil
	case config.BackendRedis:
		s, err := store.NewRedisStore(ctx, store.RedisConfig{
			Addr:      cfg.Cache.Redis.Addr,
			Password:  cfg.Cache.Redis.Password,
			DB:        cfg.Cache.Redis.DB,
			Namespace: cfg.Cache.Redis.Namespace,
		}, logger)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to redis: %w", err)
		}
		return s, nil
	default:
		s, err := store.NewStore(cfg.Cache.Dir, cfg.Server.URL)
		if err != nil {
			return nil, fmt.Errorf("failed to open cache: %w", err)
		}
		return s, nil
	}
}

func policiesFrom(c config.CacheConfig) profile.Policies {
	return profile.Policies{
		Profile:   cache.Policy{MaxAge: c.Profile.MaxAge, RefreshAfter: c.Profile.RefreshAfter},
		Videos:    cache.Policy{MaxAge: c.Videos.MaxAge, RefreshAfter: c.Videos.RefreshAfter},
		Followers: cache.Policy{MaxAge: c.Followers.MaxAge, RefreshAfter: c.Followers.RefreshAfter},
	}
}
