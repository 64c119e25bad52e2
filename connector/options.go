package connector

import (
	"errors"
	"fmt"
	"log/slog"

	"go.opentelemetry.io/otel/trace"
)

// Option is a functional option for configuring a [Connector] via [New].
type Option func(*options) error
type options struct {
	logger       *slog.Logger
	tracer       trace.Tracer
	recorder     Recorder
	maxRedirects *int
	useJSONNum   bool
}

// WithLogger injects a custom [slog.Logger]. Exchanges are logged at debug level.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) error {
		o.logger = logger
		return nil
	}
}

// WithTracer records a span per Apply call and per exchange.
func WithTracer(tracer trace.Tracer) Option {
	return func(o *options) error {
		if tracer == nil {
			return errors.New("tracer must not be nil")
		}
		o.tracer = tracer
		return nil
	}
}

// WithRecorder reports every exchange to r.
func WithRecorder(r Recorder) Option {
	return func(o *options) error {
		o.recorder = r
		return nil
	}
}

// WithMaxRedirects caps how many redirects one Apply call follows. Zero
// makes every followable redirect an [ErrTooManyRedirects] failure.
func WithMaxRedirects(n int) Option {
	return func(o *options) error {
		if n < 0 {
			return fmt.Errorf("max redirects[%d] must not be negative", n)
		}
		o.maxRedirects = &n
		return nil
	}
}

// WithJSONNumber decodes numbers in 200 bodies as [json.Number] instead of float64.
func WithJSONNumber() Option {
	return func(o *options) error {
		o.useJSONNum = true
		return nil
	}
}

// ApplyOption is a functional option for [Connector.Apply].
type ApplyOption func(*applyOpts)

type applyOpts struct {
	url *string
}

// WithURL targets url instead of the resource's location for this call. The
// resource's location is not changed.
func WithURL(url string) ApplyOption {
	return func(o *applyOpts) {
		o.url = &url
	}
}
