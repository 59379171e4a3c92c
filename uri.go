package dbc

import (
	"fmt"
	"strings"
)

// URI is a parsed connection string of the form "<scheme>:<payload>".
type URI struct {
	// Scheme selects the provider. It is stored lower-cased.
	Scheme string

	// Payload is everything after the first ':' and is handed to the engine.
	Payload string

	// Raw is the original string.
	Raw string
}

// ParseURI splits s at its first ':'.
func ParseURI(s string) (URI, error) {
	i := strings.IndexByte(s, ':')
	if i <= 0 {
		return URI{}, fmt.Errorf("%w: %q has no scheme", ErrInvalidURI, s)
	}
	scheme := s[:i]
	if strings.ContainsAny(scheme, " /\\?#") {
		return URI{}, fmt.Errorf("%w: %q has an invalid scheme", ErrInvalidURI, s)
	}
	return URI{Scheme: strings.ToLower(scheme), Payload: s[i+1:], Raw: s}, nil
}

// HasScheme reports whether u uses one of schemes, ignoring case.
func (u URI) HasScheme(schemes ...string) bool {
	for _, s := range schemes {
		if strings.EqualFold(u.Scheme, s) {
			return true
		}
	}
	return false
}

func (u URI) String() string { return u.Raw }
