package calendar

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"

	"google.golang.org/api/googleapi"
)

// TransientError marks a remote-call failure that a higher layer may retry:
// network trouble, rate limiting, or a server-side error.
type TransientError struct {
	Op  string
	Err error
}

func (e *TransientError) Error() string {
	return fmt.Sprintf("%s: transient: %v", e.Op, e.Err)
}

func (e *TransientError) Unwrap() error { return e.Err }

// PermanentError marks a remote-call failure that retrying cannot fix:
// the event or calendar does not exist, or access is denied.
type PermanentError struct {
	Op  string
	Err error
}

func (e *PermanentError) Error() string {
	return fmt.Sprintf("%s: permanent: %v", e.Op, e.Err)
}

func (e *PermanentError) Unwrap() error { return e.Err }

// IsTransient reports whether err is (or wraps) a TransientError.
func IsTransient(err error) bool {
	var te *TransientError
	return errors.As(err, &te)
}

// IsPermanent reports whether err is (or wraps) a PermanentError.
func IsPermanent(err error) bool {
	var pe *PermanentError
	return errors.As(err, &pe)
}

// classifyError wraps a raw client error as transient or permanent.
//
// HTTP 429 and all 5xx responses are transient, as are plain network errors
// and timeouts. Everything else from the API (404, 403, 400, ...) is
// permanent: retrying the same request would fail the same way.
func classifyError(op string, err error) error {
	if err == nil {
		return nil
	}

	var gerr *googleapi.Error
	if errors.As(err, &gerr) {
		switch {
		case gerr.Code == http.StatusTooManyRequests || gerr.Code >= 500:
			return &TransientError{Op: op, Err: err}
		default:
			return &PermanentError{Op: op, Err: err}
		}
	}

	var nerr net.Error
	if errors.As(err, &nerr) || errors.Is(err, context.DeadlineExceeded) {
		return &TransientError{Op: op, Err: err}
	}

	// Unrecognized errors stay transient so a later run gets another chance.
	return &TransientError{Op: op, Err: err}
}
