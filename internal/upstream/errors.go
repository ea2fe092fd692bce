package upstream

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Kind classifies a failed fetch.
type Kind int

const (
	// KindRateLimited means the local token bucket for the API key was empty.
	KindRateLimited Kind = iota + 1
	// KindRejected means FMP refused the request (4xx other than 429, or
	// an error envelope in a 2xx body). Retrying will not help.
	KindRejected
	// KindUnavailable covers 429, 5xx, network failures and timeouts.
	KindUnavailable
	// KindProtocol means FMP answered 2xx with a body that is not JSON.
	KindProtocol
)

// Sentinels for errors.Is matching against a *Error of the same kind.
var (
	ErrRateLimited         = errors.New("rate limited")
	ErrUpstreamRejected    = errors.New("upstream rejected")
	ErrUpstreamUnavailable = errors.New("upstream unavailable")
	ErrUpstreamProtocol    = errors.New("upstream protocol error")
)

// Causes attached to errors that never reached FMP or that FMP answered oddly.
var (
	ErrUnknownEndpoint  = errors.New("endpoint is not registered")
	ErrMalformedPayload = errors.New("response body is not valid JSON")
	ErrMissingAPIKey    = errors.New("fmp api key is required")
)

func (k Kind) String() string {
	switch k {
	case KindRateLimited:
		return "rate_limited"
	case KindRejected:
		return "rejected"
	case KindUnavailable:
		return "unavailable"
	case KindProtocol:
		return "protocol_error"
	default:
		return "unknown"
	}
}

func (k Kind) sentinel() error {
	switch k {
	case KindRateLimited:
		return ErrRateLimited
	case KindRejected:
		return ErrUpstreamRejected
	case KindUnavailable:
		return ErrUpstreamUnavailable
	case KindProtocol:
		return ErrUpstreamProtocol
	default:
		return nil
	}
}

// Error is returned by every failed Client.Fetch.
type Error struct {
	Kind     Kind
	Endpoint string
	// Status is the HTTP status FMP answered with, zero when no response
	// was received.
	Status int
	// RetryAfter is set for KindRateLimited (time until the next token) and
	// for 429 responses carrying a Retry-After header.
	RetryAfter time.Duration
	Err        error
}

func (e *Error) Error() string {
	var b strings.Builder
	if s := e.Kind.sentinel(); s != nil {
		b.WriteString(s.Error())
	} else {
		b.WriteString("upstream error")
	}
	if e.Endpoint != "" {
		fmt.Fprintf(&b, " (%s)", e.Endpoint)
	}
	if e.Status != 0 {
		fmt.Fprintf(&b, ": status %d", e.Status)
	}
	if e.RetryAfter > 0 {
		fmt.Fprintf(&b, ": retry after %s", e.RetryAfter.Round(time.Millisecond))
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

// Is reports whether target is the sentinel for e's kind.
func (e *Error) Is(target error) bool {
	return target != nil && target == e.Kind.sentinel()
}

func (e *Error) Unwrap() error { return e.Err }

// KindOf returns the kind of the first *Error in err's chain.
func KindOf(err error) (Kind, bool) {
	var ue *Error
	if errors.As(err, &ue) {
		return ue.Kind, true
	}
	return 0, false
}

// RetryAfter returns the retry hint carried by err, or zero.
func RetryAfter(err error) time.Duration {
	var ue *Error
	if errors.As(err, &ue) {
		return ue.RetryAfter
	}
	return 0
}
