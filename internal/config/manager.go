package config

import (
	"context"
	"log"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"
)

// Subscriber is called with the new configuration after a successful reload.
type Subscriber func(old, next *Config)

type Manager struct {
	mu          sync.RWMutex
	config      *Config
	path        string
	watcher     *fsnotify.Watcher
	subscribers []Subscriber
	wg          sync.WaitGroup
}

func NewManager() (*Manager, error) {
	configPath, err := GetConfigPath()
	if err != nil {
		return nil, err
	}
	return NewManagerAt(configPath)
}

// NewManagerAt loads the config at path, or defaults when it does not exist yet.
func NewManagerAt(configPath string) (*Manager, error) {
	log.Printf("Config manager: initializing configuration system...")

	config, err := LoadFrom(configPath)
	if err != nil {
		if !isNotFound(err) {
			log.Printf("Config manager: failed to load initial configuration: %v", err)
			return nil, err
		}
		log.Printf("Config manager: %s does not exist, using defaults", configPath)
		config = DefaultConfig()
		config.applyThreadsDefault()
	}

	log.Printf("Config manager: validating initial configuration...")
	if err := config.Validate(); err != nil {
		log.Printf("Config manager: validation warning: %v", err)
	}

	log.Printf("Config manager: initialization completed successfully")
	return &Manager{config: config, path: configPath}, nil
}

func (m *Manager) GetConfig() *Config {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.config.clone()
}

// Path returns the watched config file.
func (m *Manager) Path() string {
	return m.path
}

// Subscribe registers fn for future reloads.
func (m *Manager) Subscribe(fn Subscriber) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.subscribers = append(m.subscribers, fn)
}

// Update applies fn to a copy of the config, persists it and notifies subscribers.
func (m *Manager) Update(fn func(*Config)) error {
	m.mu.Lock()
	old := m.config
	next := old.clone()
	fn(next)
	if err := SaveTo(m.path, next); err != nil {
		m.mu.Unlock()
		return err
	}
	m.config = next
	subs := append([]Subscriber(nil), m.subscribers...)
	m.mu.Unlock()

	for _, sub := range subs {
		sub(old.clone(), next.clone())
	}
	return nil
}

func (m *Manager) StartWatching(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}

	m.watcher = watcher

	configDir := filepath.Dir(m.path)
	err = watcher.Add(configDir)
	if err != nil {
		watcher.Close()
		return err
	}

	m.wg.Add(1)
	go m.watchLoop(ctx, m.path)

	log.Printf("Config manager: watching %s for changes", m.path)
	return nil
}

func (m *Manager) Stop() {
	if m.watcher != nil {
		m.watcher.Close()
	}
	m.wg.Wait()
}

func (m *Manager) watchLoop(ctx context.Context, configPath string) {
	defer m.wg.Done()
	configFileName := filepath.Base(configPath)

	for {
		select {
		case event, ok := <-m.watcher.Events:
			if !ok {
				return
			}

			if filepath.Base(event.Name) != configFileName {
				continue
			}

			// SaveTo renames into place, which surfaces as Create on most platforms
			if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) {
				log.Printf("Config manager: file change detected: %s. Reloading config...", event.Name)
				m.reloadConfig()
			}

		case err, ok := <-m.watcher.Errors:
			if !ok {
				return
			}
			log.Printf("Config watcher error: %v", err)

		case <-ctx.Done():
			return
		}
	}
}

func (m *Manager) reloadConfig() {
	log.Printf("Config manager: starting configuration reload...")

	newConfig, err := LoadFrom(m.path)
	if err != nil {
		log.Printf("Config manager: failed to reload config: %v", err)
		return
	}

	log.Printf("Config manager: validating new configuration...")
	if err := newConfig.Validate(); err != nil {
		log.Printf("Config manager: invalid config after reload: %v", err)
		return
	}

	m.mu.Lock()
	old := m.config
	m.config = newConfig
	subs := append([]Subscriber(nil), m.subscribers...)
	m.mu.Unlock()

	for _, sub := range subs {
		sub(old.clone(), newConfig.clone())
	}
	log.Printf("Config manager: configuration successfully reloaded")
}

func (c *Config) clone() *Config {
	out := *c
	out.Providers = make(map[string]ProviderConfig, len(c.Providers))
	for k, v := range c.Providers {
		out.Providers[k] = v
	}
	return &out
}
