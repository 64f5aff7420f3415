package basex

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"strings"
	"syscall"

	"github.com/heartmarshall/dictionary-writing-system/internal/domain"
)

// ServerError is an error reported by the BaseX server, such as an XQuery
// error or an unknown database. The connection stays usable.
type ServerError struct {
	Message string
}

func (e *ServerError) Error() string { return "basex: " + e.Message }

// Phase of a request in which a connection failure happened.
const (
	PhaseDial    = "dial"
	PhaseSend    = "send"
	PhaseReceive = "receive"
)

// ConnError is an I/O failure on the connection. The client that returned
// it must not be used again.
type ConnError struct {
	Phase string
	Err   error
}

func (e *ConnError) Error() string { return fmt.Sprintf("basex: %s: %v", e.Phase, e.Err) }

func (e *ConnError) Unwrap() error { return e.Err }

// ErrAccessDenied is returned when the server rejects the credentials.
var ErrAccessDenied = errors.New("basex: access denied")

// ErrNoDatabase is returned by calls that need the configured database
// when it is not open on the session. The session itself is healthy.
var ErrNoDatabase = errors.New("basex: database not opened")

// ErrClientClosed is returned by calls on a closed or broken client.
var ErrClientClosed = errors.New("basex: client closed")

// server messages that mean the session lost its state and must be rebuilt.
var sessionLostMessages = []string{
	"no database opened",
	"connection reset",
	"broken pipe",
}

// IsConnectionError reports whether err means the session is unusable and
// a reconnect may help. Context cancellation is not a connection error.
func IsConnectionError(err error) bool {
	if err == nil || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	var ce *ConnError
	if errors.As(err, &ce) {
		return true
	}
	if errors.Is(err, ErrClientClosed) || errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) ||
		errors.Is(err, net.ErrClosed) || errors.Is(err, syscall.ECONNRESET) ||
		errors.Is(err, syscall.EPIPE) || errors.Is(err, syscall.ECONNREFUSED) {
		return true
	}
	var se *ServerError
	if errors.As(err, &se) {
		msg := strings.ToLower(se.Message)
		for _, m := range sessionLostMessages {
			if strings.Contains(msg, m) {
				return true
			}
		}
	}
	return false
}

// IsUnsent reports whether err is a connection failure that happened before
// the request reached the server, so resending cannot apply it twice.
func IsUnsent(err error) bool {
	var ce *ConnError
	if errors.As(err, &ce) {
		return ce.Phase == PhaseDial || ce.Phase == PhaseSend
	}
	return errors.Is(err, ErrClientClosed)
}

// Error codes raised by the repositories' own XQuery with fn:error.
const (
	codeNotFound = "dws:not-found"
	codeExists   = "dws:exists"
)

// ErrorNamespace declares the dws prefix used by the repository error codes.
const ErrorNamespace = `declare namespace dws = "urn:dws:error";`

// MapError converts connector errors to domain errors. Context errors pass
// through with the entity prefix only.
func MapError(err error, entity, id string) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return fmt.Errorf("%s %s: %w", entity, id, err)
	}
	var se *ServerError
	if errors.As(err, &se) {
		switch {
		case strings.Contains(se.Message, codeNotFound):
			return fmt.Errorf("%s %s: %w", entity, id, domain.ErrNotFound)
		case strings.Contains(se.Message, codeExists):
			return fmt.Errorf("%s %s: %w", entity, id, domain.ErrAlreadyExists)
		}
	}
	return fmt.Errorf("%s %s: %w", entity, id, err)
}
