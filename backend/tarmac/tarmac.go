package tarmac

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/dbcore/dbc"
	"github.com/dbcore/dbc/logging"
	"github.com/dbcore/dbc/metrics"
	sdkproto "github.com/tarmac-project/protobuf-go/sdk"
	proto "github.com/tarmac-project/protobuf-go/sdk/sql"
	wapc "github.com/wapc/wapc-guest-tinygo"
)

const (
	// Scheme is the URI scheme served by this provider.
	Scheme = "tarmac"

	// DefaultNamespace is the host namespace used when the URI names none.
	DefaultNamespace = logging.DefaultNamespace

	capabilityName = "sql"
	fnExec         = "exec"
	fnQuery        = "query"

	hostStatusOK       = int32(200)
	hostStatusPartial  = int32(206)
	hostStatusBadInput = int32(400)
	hostStatusMissing  = int32(404)
	hostStatusError    = int32(500)
)

var (
	// ErrHostCall is returned when the host call itself fails.
	ErrHostCall = errors.New("host call failed")

	// ErrHostResponseInvalid is returned when the host response cannot be used.
	ErrHostResponseInvalid = errors.New("host response is invalid")

	// ErrHostError is returned when the host reports a failed operation.
	ErrHostError = errors.New("host returned an error")

	// ErrInvalidQuery indicates an empty or invalid SQL query.
	ErrInvalidQuery = errors.New("query is invalid")

	// ErrMarshalRequest wraps failures while encoding the request payload.
	ErrMarshalRequest = errors.New("failed to marshal request")

	// ErrUnmarshalResponse wraps failures while decoding the host response.
	ErrUnmarshalResponse = errors.New("failed to unmarshal response")

	// ErrHandleClosed is returned when a closed handle is used.
	ErrHandleClosed = errors.New("tarmac handle is closed")
)

// HostCall defines the waPC host function signature used by SQL operations.
type HostCall func(string, string, string, []byte) ([]byte, error)

// Config controls how the engine interacts with the host runtime.
type Config struct {
	// HostCall overrides the waPC host function used for SQL operations.
	HostCall HostCall

	// Logger receives connection records. If nil, records at Info and above
	// are sent to the host logging capability.
	Logger *slog.Logger

	// Metrics, when set, records open handles and query and exec calls.
	Metrics *metrics.Recorder
}

// Engine implements dbc.Engine over the host SQL capability.
type Engine struct {
	hostCall HostCall
	metrics  *metrics.Recorder
}

// Ensure Engine satisfies the dbc.Engine interface at compile time.
var _ dbc.Engine = (*Engine)(nil)

// NewEngine creates an engine. Opening a handle performs no host call.
func NewEngine(cfg Config) *Engine {
	hostCall := cfg.HostCall
	if hostCall == nil {
		hostCall = wapc.HostCall
	}
	return &Engine{hostCall: hostCall, metrics: cfg.Metrics}
}

// New returns a provider for the tarmac scheme.
func New(cfg Config) (*dbc.EngineProvider, error) {
	e := NewEngine(cfg)

	logger := cfg.Logger
	if logger == nil {
		logger = logging.New(logging.Config{HostCall: logging.HostCall(e.hostCall)})
	}

	return dbc.NewProvider(dbc.ProviderConfig{
		Name:    "tarmac",
		Schemes: []string{Scheme},
		Engine:  e,
		Logger:  logger,
	})
}

// Open returns a handle for the namespace name, or DefaultNamespace when
// name is empty.
func (e *Engine) Open(name string) (dbc.Handle, error) {
	namespace := name
	if namespace == "" {
		namespace = DefaultNamespace
	}
	if e.metrics != nil {
		e.metrics.Opened()
	}
	return &handle{namespace: namespace, hostCall: e.hostCall, metrics: e.metrics}, nil
}

type handle struct {
	namespace string
	hostCall  HostCall
	metrics   *metrics.Recorder
	closed    bool
}

// Ensure handle satisfies the optional dbc.Updater interface at compile time.
var _ dbc.Updater = (*handle)(nil)

func (h *handle) Query(query string) (*dbc.Result, error) {
	start := time.Now()
	res, err := h.query(query)
	h.observe(fnQuery, start, err)
	return res, err
}

func (h *handle) query(query string) (*dbc.Result, error) {
	if h.closed {
		return nil, ErrHandleClosed
	}
	if query == "" {
		return nil, ErrInvalidQuery
	}

	req := &proto.SQLQuery{Query: []byte(query)}
	b, err := req.MarshalVT()
	if err != nil {
		return nil, errors.Join(ErrMarshalRequest, err)
	}

	respBytes, callErr := h.hostCall(h.namespace, capabilityName, fnQuery, b)
	if callErr != nil && len(respBytes) == 0 {
		return nil, errors.Join(ErrHostCall, callErr)
	}

	var resp proto.SQLQueryResponse
	if unmarshalErr := resp.UnmarshalVT(respBytes); unmarshalErr != nil {
		return nil, unmarshalFailure(callErr, unmarshalErr)
	}

	if statusErr := validateStatus(resp.GetStatus(), callErr); statusErr != nil {
		return nil, statusErr
	}

	return decodeData(resp.GetColumns(), resp.GetData())
}

// Update sends query to the host exec function and reports rows affected.
func (h *handle) Update(query string) (int64, error) {
	start := time.Now()
	n, err := h.exec(query)
	h.observe(fnExec, start, err)
	return n, err
}

func (h *handle) exec(query string) (int64, error) {
	if h.closed {
		return 0, ErrHandleClosed
	}
	if query == "" {
		return 0, ErrInvalidQuery
	}

	req := &proto.SQLExec{Query: []byte(query)}
	b, err := req.MarshalVT()
	if err != nil {
		return 0, errors.Join(ErrMarshalRequest, err)
	}

	respBytes, callErr := h.hostCall(h.namespace, capabilityName, fnExec, b)
	if callErr != nil && len(respBytes) == 0 {
		return 0, errors.Join(ErrHostCall, callErr)
	}

	var resp proto.SQLExecResponse
	if unmarshalErr := resp.UnmarshalVT(respBytes); unmarshalErr != nil {
		return 0, unmarshalFailure(callErr, unmarshalErr)
	}

	if statusErr := validateStatus(resp.GetStatus(), callErr); statusErr != nil {
		return 0, statusErr
	}

	return resp.GetRowsAffected(), nil
}

// Close releases the handle. The host keeps no per-handle state.
func (h *handle) Close() error {
	if !h.closed && h.metrics != nil {
		h.metrics.Closed()
	}
	h.closed = true
	return nil
}

func (h *handle) observe(op string, start time.Time, err error) {
	if h.metrics != nil {
		h.metrics.Observe(op, time.Since(start), err)
	}
}

func unmarshalFailure(callErr, unmarshalErr error) error {
	if callErr != nil {
		return errors.Join(ErrHostCall, callErr, ErrHostResponseInvalid, ErrUnmarshalResponse, unmarshalErr)
	}
	return errors.Join(ErrHostResponseInvalid, ErrUnmarshalResponse, unmarshalErr)
}

// validateStatus maps host status codes to errors. Failures reported by the
// host become *dbc.SQLError with the host status text as the message.
func validateStatus(status *sdkproto.Status, callErr error) error {
	if status == nil {
		if callErr != nil {
			return errors.Join(ErrHostCall, callErr, ErrHostResponseInvalid)
		}
		return ErrHostResponseInvalid
	}

	code := status.GetCode()
	switch code {
	case hostStatusOK, hostStatusPartial:
		return nil
	case hostStatusBadInput, hostStatusMissing, hostStatusError:
		detail := fmt.Sprintf("host status %d", code)
		msg := status.GetStatus()
		if msg != "" {
			detail = fmt.Sprintf("%s: %s", detail, msg)
		} else {
			msg = detail
		}
		cause := errors.Join(ErrHostError, errors.New(detail))
		if callErr != nil {
			cause = errors.Join(ErrHostCall, callErr, cause)
		}
		return &dbc.SQLError{Message: msg, Err: cause}
	default:
		statusErr := fmt.Errorf("unexpected host status code %d", code)
		if callErr != nil {
			return errors.Join(ErrHostCall, callErr, ErrHostResponseInvalid, statusErr)
		}
		return errors.Join(ErrHostResponseInvalid, statusErr)
	}
}
