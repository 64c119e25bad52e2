package throttle

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"golang.org/x/time/rate"
)

var (
	ErrMustNotBeZero = errors.New("must be greater than zero")
	ErrWaitingFailed = errors.New("limiter waiting failed")
	ErrContextEnded  = errors.New("throttle context ended")
)

// Config holds the limiter's requests per second and burst size.
type Config struct {
	RPS   int
	Burst int
}

func (c Config) validate() error {
	if c.RPS <= 0 || c.Burst <= 0 {
		return fmt.Errorf("rps[%d] and burst[%d] %w", c.RPS, c.Burst, ErrMustNotBeZero)
	}
	return nil
}

type throttle struct {
	limiter *rate.Limiter
	cfg     Config
	next    http.RoundTripper
	logFn   func() *slog.Logger
}

// NewRoundTripper wraps next with a limiter built from cfg. logFn is resolved
// per request so the logger may be swapped after construction; when it
// returns nil nothing is logged.
func NewRoundTripper(cfg Config, logFn func() *slog.Logger, next http.RoundTripper) (http.RoundTripper, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	if next == nil {
		next = http.DefaultTransport
	}
	if logFn == nil {
		logFn = func() *slog.Logger { return nil }
	}

	return &throttle{
		limiter: rate.NewLimiter(rate.Limit(cfg.RPS), cfg.Burst),
		cfg:     cfg,
		next:    next,
		logFn:   logFn,
	}, nil
}

func (t *throttle) RoundTrip(r *http.Request) (*http.Response, error) {
	ctx := r.Context()
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w early: %w", ErrContextEnded, err)
	}

	// Tokens peeks at the bucket; Allow would consume a token.
	logger := t.logFn()
	if logger != nil && t.limiter.Tokens() < 1 {
		start := time.Now()
		logger.Info("throttle tokens exhausted", "rps", t.cfg.RPS, "burst", t.cfg.Burst, "host", r.URL.Host)
		defer func() {
			logger.Info("throttle wait complete", "waited", time.Since(start).String(), "host", r.URL.Host)
		}()
	}

	if err := t.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrWaitingFailed, err)
	}

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w post-wait: %w", ErrContextEnded, err)
	}

	return t.next.RoundTrip(r)
}
