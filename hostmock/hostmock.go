package hostmock

import (
	"errors"
	"fmt"
	"sync"
)

var (
	// ErrUnexpectedNamespace is returned when the namespace is not as expected.
	ErrUnexpectedNamespace = errors.New("unexpected namespace")

	// ErrUnexpectedCapability is returned when the capability is not as expected.
	ErrUnexpectedCapability = errors.New("unexpected capability")

	// ErrUnexpectedFunction is returned when the function is not as expected.
	ErrUnexpectedFunction = errors.New("unexpected function")

	// ErrOperationFailed is returned when Fail is set without a custom error.
	ErrOperationFailed = errors.New("operation failed")
)

// Config represents the configuration for creating a Mock instance.
type Config struct {
	// ExpectedNamespace defines the namespace expected in the host call.
	// Empty accepts any namespace.
	ExpectedNamespace string

	// ExpectedCapability defines the capability expected in the host call.
	// Empty accepts any capability.
	ExpectedCapability string

	// ExpectedFunction defines the function name expected in the host call.
	// Empty accepts any function.
	ExpectedFunction string

	// Error is the error to return if the mock is configured to fail.
	Error error

	// Fail indicates whether the mock should return an error.
	Fail bool

	// PayloadValidator validates the payload passed to the host call.
	PayloadValidator func([]byte) error

	// Handler builds the response from the called function and payload.
	Handler func(function string, payload []byte) ([]byte, error)

	// Response defines the response to return when no Handler is set.
	Response func() []byte
}

// Call records one host call.
type Call struct {
	Namespace  string
	Capability string
	Function   string
	Payload    []byte
}

// Mock simulates a host call interface with validation and configurable responses.
type Mock struct {
	mu    sync.Mutex
	cfg   Config
	calls []Call
}

// New creates a new instance of the Mock based on the provided Config.
func New(config Config) (*Mock, error) {
	return &Mock{cfg: config}, nil
}

// Calls returns a copy of every recorded call in order.
func (m *Mock) Calls() []Call {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Call(nil), m.calls...)
}

// HostCall simulates a host call, validating inputs and returning a response or error.
func (m *Mock) HostCall(namespace, capability, function string, payload []byte) ([]byte, error) {
	m.mu.Lock()
	m.calls = append(m.calls, Call{
		Namespace:  namespace,
		Capability: capability,
		Function:   function,
		Payload:    append([]byte(nil), payload...),
	})
	cfg := m.cfg
	m.mu.Unlock()

	if cfg.Fail {
		if cfg.Error != nil {
			return nil, cfg.Error
		}
		return nil, ErrOperationFailed
	}

	if cfg.ExpectedNamespace != "" && cfg.ExpectedNamespace != namespace {
		return nil, fmt.Errorf("%w: expected namespace %s, got %s", ErrUnexpectedNamespace, cfg.ExpectedNamespace, namespace)
	}
	if cfg.ExpectedCapability != "" && cfg.ExpectedCapability != capability {
		return nil, fmt.Errorf("%w: expected capability %s, got %s", ErrUnexpectedCapability, cfg.ExpectedCapability, capability)
	}
	if cfg.ExpectedFunction != "" && cfg.ExpectedFunction != function {
		return nil, fmt.Errorf("%w: expected function %s, got %s", ErrUnexpectedFunction, cfg.ExpectedFunction, function)
	}

	if cfg.PayloadValidator != nil {
		if err := cfg.PayloadValidator(payload); err != nil {
			return nil, err
		}
	}

	if cfg.Handler != nil {
		return cfg.Handler(function, payload)
	}
	if cfg.Response != nil {
		return cfg.Response(), nil
	}
	return nil, nil
}
