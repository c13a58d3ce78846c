package config

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Editors tend to fire several write events per save; collapse them into
// one reload so the provider set is not rebuilt mid-write.
const reloadDebounce = 500 * time.Millisecond

// Manager holds the active configuration and hot-reloads it when the file
// changes, so provider credentials and model lists can be rotated without
// restarting the embedding client. Readers always see a complete snapshot:
// updates swap an atomic pointer, never mutate in place.
type Manager struct {
	current  atomic.Pointer[Config]
	path     string
	watcher  *fsnotify.Watcher
	onChange []func(*Config)
	logger   *slog.Logger
}

// NewManager loads path and returns a manager serving that snapshot.
// Call Watch to start picking up file changes.
func NewManager(path string, logger *slog.Logger) (*Manager, error) {
	cfg, err := LoadFromFile(path)
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.Default()
	}

	m := &Manager{
		path:   path,
		logger: logger,
	}
	m.current.Store(cfg)
	return m, nil
}

// Get returns the current configuration snapshot. Safe for concurrent use.
func (m *Manager) Get() *Config {
	return m.current.Load()
}

// OnChange registers a callback invoked with each successfully reloaded
// configuration. Register callbacks before calling Watch.
func (m *Manager) OnChange(fn func(*Config)) {
	m.onChange = append(m.onChange, fn)
}

// Watch begins watching the configuration file and reloading on change.
// The watch runs until ctx is cancelled or Close is called.
func (m *Manager) Watch(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	if err := watcher.Add(m.path); err != nil {
		_ = watcher.Close()
		return err
	}
	m.watcher = watcher

	go m.watchLoop(ctx)
	return nil
}

func (m *Manager) watchLoop(ctx context.Context) {
	var pending *time.Timer

	for {
		select {
		case <-ctx.Done():
			if pending != nil {
				pending.Stop()
			}
			_ = m.watcher.Close()
			return

		case event, ok := <-m.watcher.Events:
			if !ok {
				return
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			if pending != nil {
				pending.Stop()
			}
			pending = time.AfterFunc(reloadDebounce, m.reload)

		case err, ok := <-m.watcher.Errors:
			if !ok {
				return
			}
			m.logger.Error("config watch error", "path", m.path, "error", err)
		}
	}
}

// reload parses the file and publishes the new snapshot. A file that fails
// to parse or validate leaves the current snapshot in place, so a half-saved
// edit cannot take down a running client.
func (m *Manager) reload() {
	next, err := LoadFromFile(m.path)
	if err != nil {
		m.logger.Error("config reload failed, keeping current snapshot",
			"path", m.path, "error", err)
		return
	}

	m.current.Store(next)
	m.logger.Info("configuration reloaded", "path", m.path, "providers", len(next.Providers))

	for _, fn := range m.onChange {
		fn(next)
	}
}

// Close stops watching the configuration file.
func (m *Manager) Close() error {
	if m.watcher != nil {
		return m.watcher.Close()
	}
	return nil
}
