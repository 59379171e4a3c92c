package dbc

import (
	"fmt"
	"log/slog"
)

// ProviderConfig describes a provider backed by an Engine.
type ProviderConfig struct {
	// Name identifies the provider. If empty, the first scheme is used.
	Name string

	// Schemes lists the URI schemes the provider supports. Required.
	Schemes []string

	// Engine opens handles for connections created by the provider. Required.
	Engine Engine

	// Logger is passed to every connection. If nil, records are discarded.
	Logger *slog.Logger
}

// EngineProvider opens a new Conn over its engine for each supported URI.
type EngineProvider struct {
	name    string
	schemes []string
	engine  Engine
	logger  *slog.Logger
}

// Ensure EngineProvider satisfies the Provider interface at compile time.
var _ Provider = (*EngineProvider)(nil)

// NewProvider validates cfg and returns a provider for its schemes.
func NewProvider(cfg ProviderConfig) (*EngineProvider, error) {
	if cfg.Engine == nil {
		return nil, ErrEngineNil
	}
	if len(cfg.Schemes) == 0 {
		return nil, fmt.Errorf("%w: provider %q declares no schemes", ErrUnsupportedScheme, cfg.Name)
	}

	name := cfg.Name
	if name == "" {
		name = cfg.Schemes[0]
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	return &EngineProvider{
		name:    name,
		schemes: append([]string(nil), cfg.Schemes...),
		engine:  cfg.Engine,
		logger:  logger.With(slog.String("provider", name)),
	}, nil
}

func (p *EngineProvider) Name() string { return p.name }

// Schemes returns the URI schemes the provider supports.
func (p *EngineProvider) Schemes() []string { return append([]string(nil), p.schemes...) }

// Engine returns the engine connections are opened with.
func (p *EngineProvider) Engine() Engine { return p.engine }

func (p *EngineProvider) Supports(uri string) bool {
	u, err := ParseURI(uri)
	if err != nil {
		return false
	}
	return u.HasScheme(p.schemes...)
}

// Open creates a connection and opens uri on it. Unsupported URIs return
// (nil, nil).
func (p *EngineProvider) Open(uri string) (Connection, error) {
	if !p.Supports(uri) {
		return nil, nil
	}

	c, err := NewConnection(ConnectionConfig{Engine: p.engine, Schemes: p.schemes, Logger: p.logger})
	if err != nil {
		return nil, err
	}
	if err := c.Open(uri); err != nil {
		return nil, err
	}
	return c, nil
}
