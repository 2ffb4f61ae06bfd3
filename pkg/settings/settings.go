// Package settings provides the persisted backend URL through a small
// get/set/subscribe interface so callers never touch storage directly.
package settings

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/rubiojr/efinder/pkg/config"
	"github.com/rubiojr/efinder/pkg/log"
	"github.com/rubiojr/efinder/pkg/storage"
)

// BackendURLKey is the storage key holding the configured backend URL.
const BackendURLKey = "api_url"

var logger = log.ForService("settings")

// Provider exposes the backend URL setting.
type Provider interface {
	// Get returns the effective backend URL.
	Get(ctx context.Context) (string, error)
	// Set persists a new backend URL and notifies subscribers.
	Set(ctx context.Context, url string) error
	// Subscribe registers fn for changes and returns a function that removes it.
	Subscribe(fn func(url string)) (unsubscribe func())
}

// KV is the key/value persistence a StoreProvider needs. *storage.Store implements it.
type KV interface {
	GetSetting(ctx context.Context, key string) (string, error)
	SetSetting(ctx context.Context, key, value string) error
}

type subscribers struct {
	mu   sync.Mutex
	next int
	fns  map[int]func(string)
}

func (s *subscribers) add(fn func(string)) func() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fns == nil {
		s.fns = make(map[int]func(string))
	}
	id := s.next
	s.next++
	s.fns[id] = fn

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			delete(s.fns, id)
			s.mu.Unlock()
		})
	}
}

func (s *subscribers) notify(value string) {
	s.mu.Lock()
	fns := make([]func(string), 0, len(s.fns))
	for _, fn := range s.fns {
		fns = append(fns, fn)
	}
	s.mu.Unlock()

	for _, fn := range fns {
		fn(value)
	}
}

// MemoryProvider keeps the setting in memory. Useful for tests and one-shot CLI runs.
type MemoryProvider struct {
	mu    sync.RWMutex
	value string
	subs  subscribers
}

func NewMemoryProvider(initial string) *MemoryProvider {
	return &MemoryProvider{value: initial}
}

func (p *MemoryProvider) Get(ctx context.Context) (string, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.value, nil
}

func (p *MemoryProvider) Set(ctx context.Context, url string) error {
	p.mu.Lock()
	p.value = url
	p.mu.Unlock()
	p.subs.notify(url)
	return nil
}

func (p *MemoryProvider) Subscribe(fn func(string)) func() {
	return p.subs.add(fn)
}

// Defaults resolves the backend URL used when nothing has been stored:
// the EFINDER_API_URL environment variable, then the config file value,
// then config.DefaultBackendURL.
type Defaults struct {
	mu        sync.RWMutex
	configURL string
}

func NewDefaults(configURL string) *Defaults {
	return &Defaults{configURL: configURL}
}

// SetConfigURL replaces the config file value, e.g. after the file changed on disk.
func (d *Defaults) SetConfigURL(url string) {
	d.mu.Lock()
	d.configURL = url
	d.mu.Unlock()
}

func (d *Defaults) Resolve() string {
	if v := config.NormalizeBackendURL(os.Getenv(config.BackendURLEnv)); v != "" {
		return v
	}
	d.mu.RLock()
	v := config.NormalizeBackendURL(d.configURL)
	d.mu.RUnlock()
	if v != "" {
		return v
	}
	return config.DefaultBackendURL
}

// StoreProvider persists the setting through a KV store and falls back to
// Defaults when no value has been stored yet.
type StoreProvider struct {
	kv       KV
	defaults *Defaults
	subs     subscribers
}

func NewStoreProvider(kv KV, defaults *Defaults) *StoreProvider {
	if defaults == nil {
		defaults = NewDefaults("")
	}
	return &StoreProvider{kv: kv, defaults: defaults}
}

func (p *StoreProvider) Get(ctx context.Context) (string, error) {
	v, err := p.kv.GetSetting(ctx, BackendURLKey)
	if errors.Is(err, storage.ErrNotFound) || (err == nil && v == "") {
		return p.defaults.Resolve(), nil
	}
	if err != nil {
		return "", fmt.Errorf("reading backend URL: %w", err)
	}
	return v, nil
}

func (p *StoreProvider) Set(ctx context.Context, url string) error {
	if err := p.kv.SetSetting(ctx, BackendURLKey, url); err != nil {
		return fmt.Errorf("saving backend URL: %w", err)
	}
	logger.Infof("backend URL set to %s", url)
	p.subs.notify(url)
	return nil
}

func (p *StoreProvider) Subscribe(fn func(string)) func() {
	return p.subs.add(fn)
}

// Reload notifies subscribers with the current effective value. Call it after
// the defaults changed underneath a provider with no stored value.
func (p *StoreProvider) Reload(ctx context.Context) error {
	v, err := p.Get(ctx)
	if err != nil {
		return err
	}
	p.subs.notify(v)
	return nil
}

// Configure normalizes and validates raw, then stores it through p.
// It returns the value actually stored.
func Configure(ctx context.Context, p Provider, raw string) (string, error) {
	url := config.NormalizeBackendURL(raw)
	err := validation.Validate(url,
		validation.Required.Error("backend URL is required"),
		validation.By(func(v interface{}) error {
			s, _ := v.(string)
			return config.ValidateBackendURL(s)
		}),
	)
	if err != nil {
		return "", fmt.Errorf("invalid backend URL %q: %w", raw, err)
	}
	if err := p.Set(ctx, url); err != nil {
		return "", err
	}
	return url, nil
}
