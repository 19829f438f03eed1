package config

import (
	"context"
	"errors"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"
	"github.com/leonardotrapani/voicebridge/internal/logging"
	"go.uber.org/zap"
)

// ChangeFunc receives the previous and the reloaded config.
type ChangeFunc func(prev, next *Config)

type Manager struct {
	mu        sync.RWMutex
	path      string
	config    *Config
	listeners []ChangeFunc
	watcher   *fsnotify.Watcher
	wg        sync.WaitGroup
	log       *zap.SugaredLogger
}

// NewManager loads the config at path, or at GetConfigPath when path is
// empty. A missing file falls back to defaults plus environment.
func NewManager(path string, log *zap.SugaredLogger) (*Manager, error) {
	log = logging.OrNop(log).Named(logging.ComponentConfig)
	log.Debugw("initializing configuration system")

	if path == "" {
		p, err := GetConfigPath()
		if err != nil {
			return nil, err
		}
		path = p
	}

	config, err := LoadFile(path)
	if errors.Is(err, ErrConfigNotFound) {
		log.Warnw("no config file, using defaults", "path", path)
		config, err = Defaults()
	}
	if err != nil {
		log.Errorw("failed to load initial configuration", "error", err)
		return nil, err
	}

	if err := config.Validate(); err != nil {
		log.Warnw("validation warning", "error", err)
	}

	log.Infow("configuration loaded", "path", path)
	return &Manager{path: path, config: config, log: log}, nil
}

func (m *Manager) Path() string { return m.path }

func (m *Manager) GetConfig() *Config {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return m.config.Clone()
}

// OnChange registers fn to run after every successful reload.
func (m *Manager) OnChange(fn ChangeFunc) {
	m.mu.Lock()
	m.listeners = append(m.listeners, fn)
	m.mu.Unlock()
}

func (m *Manager) StartWatching(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}

	// watch the directory: editors replace the file instead of writing it
	if err := watcher.Add(filepath.Dir(m.path)); err != nil {
		watcher.Close()
		return err
	}
	m.watcher = watcher

	m.wg.Add(1)
	go m.watchLoop(ctx)

	m.log.Infow("watching for changes", "path", m.path)
	return nil
}

func (m *Manager) Stop() {
	if m.watcher != nil {
		m.watcher.Close()
	}
	m.wg.Wait()
}

func (m *Manager) watchLoop(ctx context.Context) {
	defer m.wg.Done()
	configFileName := filepath.Base(m.path)

	for {
		select {
		case event, ok := <-m.watcher.Events:
			if !ok {
				return
			}

			if filepath.Base(event.Name) != configFileName {
				continue
			}

			// Only react to Write and Create events (ignore Chmod, Remove, etc.)
			if event.Op&fsnotify.Write == fsnotify.Write || event.Op&fsnotify.Create == fsnotify.Create {
				m.log.Infow("file change detected, reloading", "file", event.Name)
				m.Reload()
			}

		case err, ok := <-m.watcher.Errors:
			if !ok {
				return
			}
			m.log.Warnw("watcher error", "error", err)

		case <-ctx.Done():
			return
		}
	}
}

// Reload re-reads the file. An invalid file keeps the current config.
func (m *Manager) Reload() bool {
	newConfig, err := LoadFile(m.path)
	if err != nil {
		m.log.Errorw("failed to reload config", "error", err)
		return false
	}

	if err := newConfig.Validate(); err != nil {
		m.log.Errorw("invalid config after reload", "error", err)
		return false
	}

	m.mu.Lock()
	prev := m.config
	m.config = newConfig
	listeners := append([]ChangeFunc(nil), m.listeners...)
	m.mu.Unlock()

	m.log.Infow("configuration reloaded")
	for _, fn := range listeners {
		fn(prev, newConfig)
	}
	return true
}
