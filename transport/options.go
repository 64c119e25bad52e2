package transport

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/adamwoolhether/checkout/transport/throttle"
)

// Option is a functional option for configuring a [Client] via [New].
type Option func(*options) error
type options struct {
	client      *http.Client
	rt          http.RoundTripper
	timeout     *time.Duration
	userAgent   string
	throttle    *throttle.Config
	logger      *slog.Logger
	maxBodySize int64
}

// WithClient uses a copy of hc as the underlying [http.Client]. Its
// CheckRedirect is always replaced so redirects reach the caller.
func WithClient(hc *http.Client) Option {
	return func(o *options) error {
		if hc == nil {
			return errors.New("client must not be nil")
		}
		o.client = hc
		return nil
	}
}

// WithTransport sets a custom [http.RoundTripper] as the base transport.
func WithTransport(rt http.RoundTripper) Option {
	return func(o *options) error {
		if rt == nil {
			return errors.New("transport must not be nil")
		}
		o.rt = rt
		return nil
	}
}

// WithTimeout sets the overall request timeout. Zero disables it.
func WithTimeout(d time.Duration) Option {
	return func(o *options) error {
		if d < 0 {
			return errors.New("timeout must not be negative")
		}
		o.timeout = &d
		return nil
	}
}

// WithUserAgent replaces [DefaultUserAgent] on all outgoing requests.
func WithUserAgent(header string) Option {
	return func(o *options) error {
		o.userAgent = header
		return nil
	}
}

// WithThrottle enables token-bucket rate limiting with the given requests per second and burst capacity.
func WithThrottle(rps, burst int) Option {
	return func(o *options) error {
		if rps <= 0 || burst <= 0 {
			return fmt.Errorf("rps[%d] and burst[%d] %w", rps, burst, throttle.ErrMustNotBeZero)
		}
		o.throttle = &throttle.Config{RPS: rps, Burst: burst}
		return nil
	}
}

// WithLogger injects a custom [slog.Logger].
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) error {
		o.logger = logger
		return nil
	}
}

// WithMaxBodySize caps the number of response body bytes Send will read.
func WithMaxBodySize(n int64) Option {
	return func(o *options) error {
		if n <= 0 {
			return fmt.Errorf("max body size[%d] %w", n, ErrInvalidBodySize)
		}
		o.maxBodySize = n
		return nil
	}
}

// userAgent is an http.RoundTripper, enabling the persistent User-Agent header.
type userAgent struct {
	value string
	base  http.RoundTripper
}

func (ua userAgent) RoundTrip(r *http.Request) (*http.Response, error) {
	cpy := r.Clone(r.Context())
	cpy.Header.Set("User-Agent", ua.value)
	return ua.base.RoundTrip(cpy)
}
