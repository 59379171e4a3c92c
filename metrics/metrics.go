package metrics

import (
	"errors"
	"regexp"
	"sync"
	"time"

	proto "github.com/tarmac-project/protobuf-go/sdk/metrics"
	wapc "github.com/wapc/wapc-guest-tinygo"
)

const (
	// DefaultNamespace is the host namespace used when none is configured.
	DefaultNamespace = "tarmac"

	// DefaultPrefix starts every metric name when no prefix is configured.
	DefaultPrefix = "dbc"

	capabilityName = "metrics"
	fnCounter      = "counter"
	fnGauge        = "gauge"
	fnHistogram    = "histogram"
	actionInc      = "inc"
	actionDec      = "dec"
)

var (
	// ErrInvalidMetricName indicates a metric name that does not match the supported format.
	ErrInvalidMetricName = errors.New("metric name is invalid")

	// isMetricNameValid validates metric names using the same pattern as tarmac callback validation.
	isMetricNameValid = regexp.MustCompile(`^[a-zA-Z0-9_:][a-zA-Z0-9_:]*$`)
)

// HostCall defines the waPC host function signature used by metrics operations.
type HostCall func(string, string, string, []byte) ([]byte, error)

// Config controls how a Recorder interacts with the host runtime.
type Config struct {
	// Namespace is the host namespace. Defaults to DefaultNamespace.
	Namespace string

	// Prefix starts every metric name. Defaults to DefaultPrefix.
	Prefix string

	// HostCall overrides the waPC host function used for metrics operations.
	HostCall HostCall
}

// Recorder emits engine metrics through the host capability. It is safe for
// concurrent use.
type Recorder struct {
	namespace string
	prefix    string
	hostCall  HostCall

	mu  sync.Mutex
	ops map[string]bool
}

// New creates a Recorder with namespace and prefix defaults.
func New(cfg Config) (*Recorder, error) {
	namespace := cfg.Namespace
	if namespace == "" {
		namespace = DefaultNamespace
	}

	prefix := cfg.Prefix
	if prefix == "" {
		prefix = DefaultPrefix
	}
	if !isMetricNameValid.MatchString(prefix) {
		return nil, ErrInvalidMetricName
	}

	hostCall := cfg.HostCall
	if hostCall == nil {
		hostCall = wapc.HostCall
	}

	return &Recorder{namespace: namespace, prefix: prefix, hostCall: hostCall, ops: make(map[string]bool)}, nil
}

// Opened increments the open handle gauge.
func (r *Recorder) Opened() { r.gauge(r.prefix+"_open_handles", actionInc) }

// Closed decrements the open handle gauge.
func (r *Recorder) Closed() { r.gauge(r.prefix+"_open_handles", actionDec) }

// Observe records one call of op that took d and failed when err is non-nil.
// Operations whose names are not valid metric names are ignored.
func (r *Recorder) Observe(op string, d time.Duration, err error) {
	if !r.valid(op) {
		return
	}
	base := r.prefix + "_" + op
	r.counter(base + "_total")
	if err != nil {
		r.counter(base + "_errors_total")
	}
	r.histogram(base+"_duration_seconds", d.Seconds())
}

// valid caches name checks per operation.
func (r *Recorder) valid(op string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	ok, seen := r.ops[op]
	if !seen {
		ok = isMetricNameValid.MatchString(op)
		r.ops[op] = ok
	}
	return ok
}

func (r *Recorder) counter(name string) {
	payload, err := (&proto.MetricsCounter{Name: name}).MarshalVT()
	if err != nil {
		return
	}
	_, _ = r.hostCall(r.namespace, capabilityName, fnCounter, payload)
}

func (r *Recorder) gauge(name, action string) {
	payload, err := (&proto.MetricsGauge{Name: name, Action: action}).MarshalVT()
	if err != nil {
		return
	}
	_, _ = r.hostCall(r.namespace, capabilityName, fnGauge, payload)
}

func (r *Recorder) histogram(name string, value float64) {
	payload, err := (&proto.MetricsHistogram{Name: name, Value: value}).MarshalVT()
	if err != nil {
		return
	}
	_, _ = r.hostCall(r.namespace, capabilityName, fnHistogram, payload)
}
