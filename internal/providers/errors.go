package providers

import (
	"context"
	"errors"
	"strings"
)

// ErrNotConfigured means no usable provider could even attempt the request
// (missing keys, no document support). Retrying cannot help.
var ErrNotConfigured = errors.New("no configured provider can serve this request")

// ErrorType buckets backend failures for logs.
type ErrorType string

const (
	ErrorQuota         ErrorType = "quota"
	ErrorRate          ErrorType = "rate"
	ErrorTransient     ErrorType = "transient"
	ErrorPermanent     ErrorType = "permanent"
	ErrorContext       ErrorType = "context"
	ErrorNotConfigured ErrorType = "not_configured"
	ErrorCanceled      ErrorType = "canceled"
)

func ClassifyError(err error) ErrorType {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrNotConfigured):
		return ErrorNotConfigured
	case errors.Is(err, context.Canceled):
		return ErrorCanceled
	case errors.Is(err, context.DeadlineExceeded):
		return ErrorTransient
	}
	e := strings.ToLower(err.Error())
	has := func(subs ...string) bool {
		for _, s := range subs {
			if strings.Contains(e, s) {
				return true
			}
		}
		return false
	}
	switch {
	case has("insufficient_quota", "quota", "credit balance"):
		return ErrorQuota
	case has("429", "rate limit", "rate_limit", "too many requests"):
		return ErrorRate
	case has("context length", "context_length", "too long", "too many tokens"):
		return ErrorContext
	case has("timeout", "temporarily", "unavailable", "overloaded", "502", "503", "504", "connection reset"):
		return ErrorTransient
	}
	return ErrorPermanent
}
