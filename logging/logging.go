package logging

import (
	"context"
	"log/slog"
	"strconv"
	"strings"

	wapc "github.com/wapc/wapc-guest-tinygo"
)

const (
	// DefaultNamespace is the host namespace used when none is configured.
	DefaultNamespace = "tarmac"

	capabilityName = "logging"
)

// LevelTrace is below slog.LevelDebug and is sent to the host as Trace.
const LevelTrace = slog.Level(-8)

// HostCall defines the waPC host function signature used for logging.
type HostCall func(string, string, string, []byte) ([]byte, error)

// Config controls how a Handler interacts with the host runtime.
type Config struct {
	// Namespace is the host namespace. Defaults to DefaultNamespace.
	Namespace string

	// HostCall overrides the waPC host function used for logging operations.
	HostCall HostCall

	// Level is the minimum level forwarded to the host. Defaults to slog.LevelInfo.
	Level slog.Leveler
}

// Handler is a slog.Handler that emits records through the host capability.
type Handler struct {
	namespace string
	hostCall  HostCall
	level     slog.Leveler

	// prefix holds attributes added with WithAttrs, already formatted.
	prefix string
	group  string
}

// Ensure Handler satisfies the slog.Handler interface at compile time.
var _ slog.Handler = (*Handler)(nil)

// NewHandler creates a Handler from cfg.
func NewHandler(cfg Config) *Handler {
	namespace := cfg.Namespace
	if namespace == "" {
		namespace = DefaultNamespace
	}

	hostCall := cfg.HostCall
	if hostCall == nil {
		hostCall = wapc.HostCall
	}

	level := cfg.Level
	if level == nil {
		level = slog.LevelInfo
	}

	return &Handler{namespace: namespace, hostCall: hostCall, level: level}
}

// New returns a logger backed by a Handler created from cfg.
func New(cfg Config) *slog.Logger { return slog.New(NewHandler(cfg)) }

func (h *Handler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level.Level()
}

func (h *Handler) Handle(_ context.Context, r slog.Record) error {
	var b strings.Builder
	b.WriteString(r.Message)
	b.WriteString(h.prefix)
	r.Attrs(func(a slog.Attr) bool {
		appendAttr(&b, h.group, a)
		return true
	})

	_, err := h.hostCall(h.namespace, capabilityName, function(r.Level), []byte(b.String()))
	return err
}

func (h *Handler) WithAttrs(attrs []slog.Attr) slog.Handler {
	if len(attrs) == 0 {
		return h
	}
	var b strings.Builder
	b.WriteString(h.prefix)
	for _, a := range attrs {
		appendAttr(&b, h.group, a)
	}
	c := *h
	c.prefix = b.String()
	return &c
}

func (h *Handler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	c := *h
	c.group = h.group + name + "."
	return &c
}

func appendAttr(b *strings.Builder, group string, a slog.Attr) {
	a.Value = a.Value.Resolve()
	if a.Equal(slog.Attr{}) {
		return
	}

	if a.Value.Kind() == slog.KindGroup {
		g := group
		if a.Key != "" {
			g = group + a.Key + "."
		}
		for _, ga := range a.Value.Group() {
			appendAttr(b, g, ga)
		}
		return
	}

	b.WriteByte(' ')
	b.WriteString(group)
	b.WriteString(a.Key)
	b.WriteByte('=')
	b.WriteString(quote(a.Value.String()))
}

func quote(s string) string {
	if s == "" || strings.ContainsAny(s, " =\"\t\n") {
		return strconv.Quote(s)
	}
	return s
}

// function maps a slog level to the host log function.
func function(level slog.Level) string {
	switch {
	case level >= slog.LevelError:
		return "Error"
	case level >= slog.LevelWarn:
		return "Warn"
	case level >= slog.LevelInfo:
		return "Info"
	case level >= slog.LevelDebug:
		return "Debug"
	default:
		return "Trace"
	}
}
