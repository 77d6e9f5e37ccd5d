package ai

import (
	"context"
	"errors"
	"net/http"
	"strings"
)

// failureKind classifies a remote-call failure for the retry loop.
type failureKind int

const (
	// failureRateLimited is an HTTP 429-equivalent signal. Retryable.
	failureRateLimited failureKind = iota
	// failureUnavailable is an HTTP 503-equivalent or provider
	// "unavailable"/"overloaded" signal. Retryable.
	failureUnavailable
	// failureProvider is any other recognized provider rejection.
	// Not retryable; the error text is surfaced in the fallback.
	failureProvider
	// failureUnexpected covers network-layer and unrecognized faults.
	// Transient faults are indistinguishable from provider hiccups, so
	// these are retried like rate limits.
	failureUnexpected
	// failureCanceled means the caller's context is done. Terminal.
	failureCanceled
)

func (k failureKind) String() string {
	switch k {
	case failureRateLimited:
		return "rate_limited"
	case failureUnavailable:
		return "unavailable"
	case failureProvider:
		return "provider_error"
	case failureUnexpected:
		return "unexpected"
	case failureCanceled:
		return "canceled"
	default:
		return "unknown"
	}
}

// statusCoder is implemented by HTTP-backed provider errors.
type statusCoder interface {
	StatusCode() int
}

// classify maps a Generate error to a failureKind. It probes for an HTTP
// status code on the error chain first, then falls back to matching the
// provider's error text.
func classify(err error) failureKind {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return failureCanceled
	}

	var sc statusCoder
	if errors.As(err, &sc) {
		return classifyStatus(sc.StatusCode())
	}

	text := strings.ToLower(err.Error())
	switch {
	case strings.Contains(text, "429"), strings.Contains(text, "rate limit"), strings.Contains(text, "too many requests"):
		return failureRateLimited
	case strings.Contains(text, "503"), strings.Contains(text, "unavailable"), strings.Contains(text, "overloaded"), strings.Contains(text, "server is busy"):
		return failureUnavailable
	case strings.Contains(text, "api error"), strings.Contains(text, "status code"), strings.Contains(text, "invalid request"):
		return failureProvider
	default:
		return failureUnexpected
	}
}

func classifyStatus(code int) failureKind {
	switch code {
	case http.StatusTooManyRequests:
		return failureRateLimited
	case http.StatusServiceUnavailable:
		return failureUnavailable
	default:
		return failureProvider
	}
}
