// Package errors provides domain-specific error types for outmode.
//
// Every failure of a control-API call falls into one of three classes:
// the endpoint could not be reached, the daemon rejected the request, or
// the daemon answered with something we could not understand.  The
// structured types below carry the request context and match the
// corresponding sentinel with [errors.Is].
package errors

import (
	"errors"
	"fmt"
	"net"
	"net/http"
)

// ── Sentinel errors ──────────────────────────────────────────────────

var (
	ErrUnreachable       = errors.New("control endpoint unreachable")
	ErrAuthFailed        = errors.New("authentication failed")
	ErrRejected          = errors.New("request rejected by daemon")
	ErrMalformedResponse = errors.New("malformed response")
	ErrUnknownMode       = errors.New("unknown outbound mode")
	ErrNotConnected      = errors.New("not connected")
)

// ── Structured error types ───────────────────────────────────────────

// NetworkError represents a failure to reach the control endpoint.
type NetworkError struct {
	Op        string // operation: "dial", "GET /v1/outbound", ...
	Addr      string // network address involved
	Err       error  // underlying error
	Retryable bool   // whether a later attempt could succeed
}

func (e *NetworkError) Error() string {
	s := fmt.Sprintf("%s %s: %v", e.Op, e.Addr, e.Err)
	if e.Retryable {
		s += " (retryable)"
	}
	return s
}

func (e *NetworkError) Unwrap() error { return e.Err }

// Is makes every NetworkError match ErrUnreachable.
func (e *NetworkError) Is(target error) bool { return target == ErrUnreachable }

// APIError is a response from the daemon that did not carry what we
// asked for.  Kind is one of ErrAuthFailed, ErrRejected or
// ErrMalformedResponse.
type APIError struct {
	Op     string // "GET /v1/outbound"
	Status int    // HTTP status (0 if not applicable)
	Kind   error
	Detail string // short body excerpt or decode error
}

func (e *APIError) Error() string {
	msg := e.Op + ": "
	if e.Status != 0 {
		msg += fmt.Sprintf("%d %s: ", e.Status, http.StatusText(e.Status))
	}
	msg += e.Kind.Error()
	if e.Detail != "" {
		msg += " (" + e.Detail + ")"
	}
	return msg
}

func (e *APIError) Unwrap() error { return e.Kind }

// SSHError represents an SSH-specific failure with gateway context.
type SSHError struct {
	Op   string // "handshake", "auth", "hostkey"
	Host string
	Port int
	Err  error
}

func (e *SSHError) Error() string {
	return fmt.Sprintf("ssh %s %s:%d: %v", e.Op, e.Host, e.Port, e.Err)
}

func (e *SSHError) Unwrap() error { return e.Err }

// Is treats a broken SSH gateway as an unreachable endpoint.
func (e *SSHError) Is(target error) bool { return target == ErrUnreachable }

// ConfigError represents an invalid configuration value.
type ConfigError struct {
	Field   string      // config field name
	Value   interface{} // the invalid value (nil if missing)
	Message string      // human-readable explanation
	Hint    string      // suggestion for the user (optional)
}

func (e *ConfigError) Error() string {
	msg := fmt.Sprintf("config: --%s", e.Field)
	if e.Value != nil {
		msg += fmt.Sprintf("=%v", e.Value)
	}
	msg += ": " + e.Message
	if e.Hint != "" {
		msg += "\n  hint: " + e.Hint
	}
	return msg
}

// ── Constructors ─────────────────────────────────────────────────────

// Wrap creates a NetworkError, automatically detecting retryability
// from the underlying error.
func Wrap(op, addr string, err error) *NetworkError {
	return &NetworkError{
		Op:        op,
		Addr:      addr,
		Err:       err,
		Retryable: classifyRetryable(err),
	}
}

// WrapSSH creates an SSHError.
func WrapSSH(op, host string, port int, err error) *SSHError {
	return &SSHError{Op: op, Host: host, Port: port, Err: err}
}

// FromStatus maps a non-2xx HTTP status to an APIError.
func FromStatus(op string, status int, detail string) *APIError {
	kind := ErrRejected
	if status == http.StatusUnauthorized || status == http.StatusForbidden {
		kind = ErrAuthFailed
	}
	return &APIError{Op: op, Status: status, Kind: kind, Detail: detail}
}

// Malformed creates an APIError for a response we could not decode.
func Malformed(op string, detail string) *APIError {
	return &APIError{Op: op, Kind: ErrMalformedResponse, Detail: detail}
}

// ── Classification helpers ───────────────────────────────────────────

// IsConnectivity reports whether err means the daemon was not reached.
func IsConnectivity(err error) bool { return errors.Is(err, ErrUnreachable) }

// IsAuth reports whether the daemon refused the key.
func IsAuth(err error) bool { return errors.Is(err, ErrAuthFailed) }

// IsRejected reports whether the daemon refused the request for a
// reason other than the key.
func IsRejected(err error) bool { return errors.Is(err, ErrRejected) }

// IsMalformed reports whether the daemon's payload could not be used.
func IsMalformed(err error) bool { return errors.Is(err, ErrMalformedResponse) }

// Class returns a short label for metrics and logs.
func Class(err error) string {
	switch {
	case err == nil:
		return ""
	case IsConnectivity(err):
		return "connectivity"
	case IsAuth(err):
		return "auth"
	case IsRejected(err):
		return "rejected"
	case IsMalformed(err):
		return "malformed"
	default:
		return "other"
	}
}

// IsRetryable reports whether err is worth retrying by the user.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	var ne *NetworkError
	if errors.As(err, &ne) {
		return ne.Retryable
	}
	return classifyRetryable(err)
}

// classifyRetryable inspects standard library error types.
func classifyRetryable(err error) bool {
	if err == nil {
		return false
	}
	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return opErr.Temporary() //nolint:staticcheck // Temporary is deprecated but still useful
	}
	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return dnsErr.Temporary() //nolint:staticcheck
	}
	var timeout interface{ Timeout() bool }
	if errors.As(err, &timeout) {
		return timeout.Timeout()
	}
	return false
}

// ── Re-exports for convenience ───────────────────────────────────────
//
// These allow callers to use outmode/internal/errors as a drop-in
// replacement for the standard library in common operations.

// As is [errors.As].
func As(err error, target interface{}) bool { return errors.As(err, target) }

// Is is [errors.Is].
func Is(err, target error) bool { return errors.Is(err, target) }
