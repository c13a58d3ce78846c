package embedmux

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/embedmux/embedmux/caches/local"
	"github.com/embedmux/embedmux/caches/redis"
	"github.com/embedmux/embedmux/internal/config"
	"github.com/embedmux/embedmux/internal/secret"
	"github.com/embedmux/embedmux/internal/secret/env"
	"github.com/embedmux/embedmux/internal/secret/vault"
)

// NewFromConfigFile builds a client from a YAML configuration file.
// Provider API keys may be secret references ("env:NAME", "vault:path#key");
// they are resolved through the configured secrets backend before the client
// is constructed. Options passed here are applied after the file and win on
// conflict.
func NewFromConfigFile(ctx context.Context, path string, extra ...Option) (*Client, error) {
	cfg, err := config.LoadFromFile(path)
	if err != nil {
		return nil, err
	}
	logger := newLogger(cfg.Logging)

	secrets, err := newSecretResolver(cfg.Secrets, logger)
	if err != nil {
		return nil, fmt.Errorf("secrets backend: %w", err)
	}

	client, err := newFromConfig(ctx, cfg, secrets, logger, extra...)
	if err != nil {
		_ = secrets.Close()
		return nil, err
	}
	client.secretSrc = secrets
	return client, nil
}

// WatchConfigFile is NewFromConfigFile plus hot reload: the file is watched
// and the declarative provider set is swapped atomically when it changes.
// Cache, rate limit, and logging settings stay as loaded at construction.
// A reload that fails validation is logged and rejected, keeping the current
// provider set. The watch stops when ctx is cancelled or the client is closed.
func WatchConfigFile(ctx context.Context, path string, extra ...Option) (*Client, error) {
	cfg, err := config.LoadFromFile(path)
	if err != nil {
		return nil, err
	}
	logger := newLogger(cfg.Logging)

	mgr, err := config.NewManager(path, logger)
	if err != nil {
		return nil, err
	}

	secrets, err := newSecretResolver(cfg.Secrets, logger)
	if err != nil {
		_ = mgr.Close()
		return nil, fmt.Errorf("secrets backend: %w", err)
	}

	client, err := newFromConfig(ctx, mgr.Get(), secrets, logger, extra...)
	if err != nil {
		_ = secrets.Close()
		_ = mgr.Close()
		return nil, err
	}
	client.secretSrc = secrets
	client.watcher = mgr

	mgr.OnChange(func(next *config.Config) {
		resolved, err := resolveProviderConfigs(context.Background(), next.Providers, secrets)
		if err == nil {
			err = client.setFileProviders(resolved)
		}
		if err != nil {
			logger.Error("config reload rejected, keeping current providers", "path", path, "error", err)
			return
		}
		logger.Info("provider set reloaded", "path", path, "providers", client.GetProviders())
	})

	if err := mgr.Watch(ctx); err != nil {
		_ = client.Close()
		return nil, err
	}
	return client, nil
}

func newFromConfig(ctx context.Context, cfg *config.Config, secrets *secretResolver, logger *slog.Logger, extra ...Option) (*Client, error) {
	opts := []Option{WithLogger(logger)}

	resolved, err := resolveProviderConfigs(ctx, cfg.Providers, secrets)
	if err != nil {
		return nil, err
	}
	for _, pc := range resolved {
		opts = append(opts, WithProvider(pc))
	}

	if cfg.Cache.Enabled {
		switch cfg.Cache.Type {
		case "", "local":
			opts = append(opts, WithCache(local.New(local.Config{DefaultTTL: cfg.Cache.TTL})))
		case "redis":
			rc := redis.DefaultConfig()
			rc.Addr = cfg.Cache.RedisAddr
			rc.DB = cfg.Cache.RedisDB
			rc.Password = cfg.Cache.RedisPass
			rc.DefaultTTL = cfg.Cache.TTL
			if cfg.Cache.Namespace != "" {
				rc.Namespace = cfg.Cache.Namespace
			}
			c, err := redis.New(rc)
			if err != nil {
				return nil, fmt.Errorf("redis cache: %w", err)
			}
			opts = append(opts, WithCache(c))
		}
		if cfg.Cache.TTL > 0 {
			opts = append(opts, WithCacheTTL(cfg.Cache.TTL))
		}
	}

	if cfg.RateLimit.Enabled {
		opts = append(opts, WithRateLimit(cfg.RateLimit.RequestsPerMinute, cfg.RateLimit.BurstSize))
	}

	opts = append(opts, extra...)
	return New(opts...)
}

// resolveProviderConfigs turns file-declared providers into client provider
// configs, resolving secret references in API keys. It runs once at
// construction and again on every hot reload.
func resolveProviderConfigs(ctx context.Context, cfgs []config.ProviderConfig, secrets *secretResolver) ([]ProviderConfig, error) {
	out := make([]ProviderConfig, 0, len(cfgs))
	for _, pc := range cfgs {
		apiKey, err := secrets.Resolve(ctx, pc.APIKey)
		if err != nil {
			return nil, fmt.Errorf("provider %s: resolve api key: %w", pc.Name, err)
		}
		out = append(out, ProviderConfig{
			Name:     pc.Name,
			Type:     pc.Type,
			APIKey:   apiKey,
			BaseURL:  pc.BaseURL,
			Models:   pc.Models,
			Timeout:  pc.Timeout,
			Headers:  pc.Headers,
			Metadata: pc.Metadata,
		})
	}
	return out, nil
}

// secretResolver maps reference backends to their providers. Plain strings
// pass through unchanged, so literal API keys keep working.
type secretResolver struct {
	backends map[string]secret.Provider
}

func newSecretResolver(cfg config.SecretsConfig, logger *slog.Logger) (*secretResolver, error) {
	r := &secretResolver{backends: map[string]secret.Provider{
		"env": env.New(),
	}}
	if cfg.Backend == "vault" {
		vp, err := vault.New(vault.Config{
			Address:  cfg.VaultAddress,
			RoleID:   cfg.VaultRoleID,
			SecretID: cfg.VaultSecretID,
			CACert:   cfg.VaultCACert,
			Logger:   logger,
		})
		if err != nil {
			return nil, err
		}
		r.backends["vault"] = secret.NewCachedProvider(vp, cfg.CacheTTL)
	}
	return r, nil
}

func (r *secretResolver) Resolve(ctx context.Context, raw string) (string, error) {
	ref, ok := secret.ParseReference(raw)
	if !ok {
		return raw, nil
	}
	backend, ok := r.backends[ref.Backend]
	if !ok {
		return "", fmt.Errorf("secret backend %q is not configured", ref.Backend)
	}
	return backend.Get(ctx, ref.Path)
}

func (r *secretResolver) Close() error {
	var firstErr error
	for _, b := range r.backends {
		if err := b.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

func newLogger(cfg config.LoggingConfig) *slog.Logger {
	var level slog.Level
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	hopts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if cfg.Format == "text" {
		handler = slog.NewTextHandler(os.Stderr, hopts)
	} else {
		handler = slog.NewJSONHandler(os.Stderr, hopts)
	}
	return slog.New(handler)
}
