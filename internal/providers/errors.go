package providers

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// Kind classifies a backend failure for retry decisions.
type Kind int

const (
	// KindOther is a terminal failure: bad request, auth, decode errors.
	KindOther Kind = iota
	// KindUnavailable is a transient service failure worth retrying.
	KindUnavailable
	// KindCancelled means the call was superseded or aborted by the caller.
	KindCancelled
)

// Error is a typed backend failure returned by providers.
type Error struct {
	Kind    Kind
	Status  int // HTTP status when known, 0 otherwise
	Message string
}

func (e *Error) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("backend error (status %d): %s", e.Status, e.Message)
	}
	return "backend error: " + e.Message
}

// IsRetryable reports whether err is a transient service-unavailable
// failure. Matches the typed KindUnavailable as well as a
// "service temporarily unavailable" message substring from backends
// that do not surface a clean 503.
func IsRetryable(err error) bool {
	var be *Error
	if errors.As(err, &be) {
		if be.Kind == KindUnavailable {
			return true
		}
		if be.Kind == KindCancelled {
			return false
		}
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "service temporarily unavailable") ||
		strings.Contains(msg, "service unavailable")
}

// IsCancelled reports whether err represents a cancelled call.
func IsCancelled(err error) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var be *Error
	return errors.As(err, &be) && be.Kind == KindCancelled
}

// classifyStatus maps an HTTP status to an error kind.
func classifyStatus(status int, body string) Kind {
	switch {
	case status == 503 || status == 502 || status == 529:
		return KindUnavailable
	case strings.Contains(strings.ToLower(body), "service temporarily unavailable"):
		return KindUnavailable
	default:
		return KindOther
	}
}
