package acquire

import (
	"net/http"

	"go.uber.org/zap"
)

type options struct {
	client   *http.Client
	logger   *zap.Logger
	maxBytes int64
}

type Option func(*options)

func WithHTTPClient(c *http.Client) Option {
	return func(o *options) {
		if c != nil {
			o.client = c
		}
	}
}

func WithLogger(l *zap.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithMaxBytes caps how much of a response body is accepted.
func WithMaxBytes(n int64) Option {
	return func(o *options) {
		if n > 0 {
			o.maxBytes = n
		}
	}
}
