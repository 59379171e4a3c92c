package dbc

import (
	"fmt"
	"log/slog"
	"reflect"
	"sync"
)

// RegistryConfig controls a Registry.
type RegistryConfig struct {
	// Logger receives registration and resolution records. If nil, records are discarded.
	Logger *slog.Logger
}

// Registry maps connection URIs to the providers that can open them.
// Providers are tried in registration order. A Registry is safe for
// concurrent use.
type Registry struct {
	mu        sync.RWMutex
	providers []Provider
	logger    *slog.Logger
}

// NewRegistry returns an empty registry.
func NewRegistry(cfg RegistryConfig) *Registry {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Registry{logger: logger}
}

// Register appends p. Registering a provider that is already present does nothing.
// Providers are matched by identity, so p must be of a comparable type.
func (r *Registry) Register(p Provider) error {
	if p == nil {
		return ErrProviderNil
	}
	if t := reflect.TypeOf(p); !t.Comparable() {
		return fmt.Errorf("%w: %s", ErrProviderIncomparable, t)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	for _, have := range r.providers {
		if sameProvider(have, p) {
			return nil
		}
	}
	r.providers = append(r.providers, p)
	r.logger.Debug("provider registered", slog.String("provider", p.Name()))
	return nil
}

// Unregister removes p and reports whether it was registered.
func (r *Registry) Unregister(p Provider) bool {
	if p == nil {
		return false
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	for i, have := range r.providers {
		if sameProvider(have, p) {
			r.providers = append(r.providers[:i:i], r.providers[i+1:]...)
			r.logger.Debug("provider unregistered", slog.String("provider", p.Name()))
			return true
		}
	}
	return false
}

// Providers returns the registered providers in registration order.
func (r *Registry) Providers() []Provider {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]Provider(nil), r.providers...)
}

// Lookup returns the first provider that supports uri.
func (r *Registry) Lookup(uri string) (Provider, error) {
	for _, p := range r.Providers() {
		if p.Supports(uri) {
			return p, nil
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrNoProvider, uri)
}

// Open returns a connection from the first provider that supports uri.
// Providers are called without the registry lock held.
func (r *Registry) Open(uri string) (Connection, error) {
	for _, p := range r.Providers() {
		if !p.Supports(uri) {
			continue
		}
		conn, err := p.Open(uri)
		if err != nil {
			return nil, err
		}
		if conn == nil {
			continue
		}
		r.logger.Debug("uri resolved", slog.String("provider", p.Name()))
		return conn, nil
	}
	return nil, fmt.Errorf("%w: %s", ErrNoProvider, uri)
}

// sameProvider compares providers by identity. Register admits only
// comparable types; the check keeps Unregister from panicking on others.
func sameProvider(a, b Provider) bool {
	ta, tb := reflect.TypeOf(a), reflect.TypeOf(b)
	if ta != tb || !ta.Comparable() {
		return false
	}
	return a == b
}

var (
	defaultOnce     sync.Once
	defaultRegistry *Registry
)

// Default returns the process-wide registry, creating it on first use.
func Default() *Registry {
	defaultOnce.Do(func() {
		defaultRegistry = NewRegistry(RegistryConfig{})
	})
	return defaultRegistry
}

// Register adds p to the default registry.
func Register(p Provider) error { return Default().Register(p) }

// Unregister removes p from the default registry.
func Unregister(p Provider) bool { return Default().Unregister(p) }

// Open resolves uri against the default registry.
func Open(uri string) (Connection, error) { return Default().Open(uri) }
