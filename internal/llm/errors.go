package llm

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"
)

// FailureKind classifies a failed generation call.
type FailureKind int

const (
	// FailUnavailable covers network errors, auth errors and 5xx replies.
	FailUnavailable FailureKind = iota
	// FailRateLimited is a 429 from the backend.
	FailRateLimited
	// FailMalformed means the reply was empty, not JSON, or off-schema.
	FailMalformed
	// FailTruncated means a structured reply hit the token limit.
	FailTruncated
)

func (k FailureKind) String() string {
	switch k {
	case FailRateLimited:
		return "rate-limited"
	case FailMalformed:
		return "malformed"
	case FailTruncated:
		return "truncated"
	default:
		return "unavailable"
	}
}

// Failure is the error every backend returns when a call yields no usable
// output. Callers degrade to their fallback on any Failure; the retry
// decorator uses Kind to decide whether another attempt can help.
type Failure struct {
	Kind    FailureKind
	Backend string

	// RetryAfter is the backend's requested wait, when it sent one.
	RetryAfter time.Duration

	// Output holds the raw reply for malformed and truncated failures.
	Output json.RawMessage

	Err error
}

func (f *Failure) Error() string {
	prefix := f.Kind.String()
	if f.Backend != "" {
		prefix = f.Backend + ": " + prefix
	}
	if f.Err == nil {
		return prefix
	}
	return fmt.Sprintf("%s: %v", prefix, f.Err)
}

func (f *Failure) Unwrap() error { return f.Err }

// FailureOf returns the Failure in err's chain, if any.
func FailureOf(err error) (*Failure, bool) {
	var f *Failure
	if errors.As(err, &f) {
		return f, true
	}
	return nil, false
}

// IsFailure reports whether err carries a Failure of the given kind.
func IsFailure(err error, kind FailureKind) bool {
	f, ok := FailureOf(err)
	return ok && f.Kind == kind
}

// statusFailure classifies an SDK error by HTTP status. header may be nil.
func statusFailure(backend string, status int, header http.Header, err error) *Failure {
	f := &Failure{Kind: FailUnavailable, Backend: backend, Err: err}
	if status == http.StatusTooManyRequests {
		f.Kind = FailRateLimited
		f.RetryAfter = retryAfter(header)
	}
	return f
}

// retryAfter reads a Retry-After header given in seconds.
func retryAfter(h http.Header) time.Duration {
	if h == nil {
		return 0
	}
	secs, err := strconv.Atoi(h.Get("Retry-After"))
	if err != nil || secs <= 0 {
		return 0
	}
	return time.Duration(secs) * time.Second
}
