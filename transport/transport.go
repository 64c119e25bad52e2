package transport

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"runtime"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"

	"github.com/adamwoolhether/checkout/transport/throttle"
)

// Version is reported in the default User-Agent.
const Version = "1.0.0"

const defaultTimeout = 10 * time.Second

// DefaultUserAgent identifies the library, platform and Go runtime.
var DefaultUserAgent = fmt.Sprintf("Library/Klarna.ApiWrapper_Go-%s OS/%s_%s Language/Go_%s",
	Version, runtime.GOOS, runtime.GOARCH, runtime.Version())

// Client wraps a std-lib *http.Client configured to never follow redirects.
type Client struct {
	c           *http.Client
	logger      *slog.Logger
	maxBodySize int64
}

// New builds a Client. Without options it uses a fresh *http.Client with
// http.DefaultTransport, a 10s timeout and [DefaultUserAgent].
func New(optFns ...Option) (*Client, error) {
	var opts options
	for _, opt := range optFns {
		if err := opt(&opts); err != nil {
			return nil, fmt.Errorf("applying transport option: %w", err)
		}
	}

	client := &Client{
		c:           &http.Client{Timeout: defaultTimeout},
		logger:      slog.Default(),
		maxBodySize: maxBodySize,
	}

	if opts.client != nil {
		cpy := *opts.client
		client.c = &cpy
	}

	if opts.logger != nil {
		client.logger = opts.logger
	}

	if opts.timeout != nil {
		client.c.Timeout = *opts.timeout
	}

	if opts.maxBodySize > 0 {
		client.maxBodySize = opts.maxBodySize
	}

	// Redirects carry protocol meaning for the connector.
	client.c.CheckRedirect = func(*http.Request, []*http.Request) error {
		return http.ErrUseLastResponse
	}

	var rt http.RoundTripper
	switch {
	case opts.rt != nil:
		rt = opts.rt
	case opts.client != nil && opts.client.Transport != nil:
		rt = opts.client.Transport
	default:
		rt = http.DefaultTransport
	}

	ua := DefaultUserAgent
	if opts.userAgent != "" {
		ua = opts.userAgent
	}
	rt = userAgent{value: ua, base: rt}

	if opts.throttle != nil {
		throttled, err := throttle.NewRoundTripper(*opts.throttle, func() *slog.Logger { return client.logger }, rt)
		if err != nil {
			return nil, fmt.Errorf("configuring throttle: %w", err)
		}
		rt = throttled
	}
	client.c.Transport = rt

	return client, nil
}

// CreateRequest returns a GET request builder for url. The url is not
// validated until Send.
func (c *Client) CreateRequest(url string) *Request {
	return NewRequest(url)
}

// Send performs a single round trip for a snapshot of req and reads the whole
// response body. Any status code is a successful Send.
func (c *Client) Send(ctx context.Context, req *Request) (*Response, error) {
	sent := req.clone()

	fail := func(err error) error {
		return &Error{Method: sent.method, URL: sent.url, Err: err}
	}

	var body io.Reader = http.NoBody
	if len(sent.data) > 0 {
		body = bytes.NewReader(sent.data)
	}

	hreq, err := http.NewRequestWithContext(ctx, sent.method, sent.url, body)
	if err != nil {
		return nil, fail(fmt.Errorf("instantiating request: %w", err))
	}
	hreq.Header = sent.header.Clone()
	otel.GetTextMapPropagator().Inject(ctx, propagation.HeaderCarrier(hreq.Header))

	resp, err := c.c.Do(hreq)
	if err != nil {
		return nil, fail(fmt.Errorf("exec http do: %w", err))
	}
	defer func() {
		if _, err := io.Copy(io.Discard, resp.Body); err != nil {
			c.logger.Error("failed to discard unused body", "error", err)
		}
		if err := resp.Body.Close(); err != nil {
			c.logger.Error("failed to close response body", "error", err)
		}
	}()

	b, err := io.ReadAll(io.LimitReader(resp.Body, c.maxBodySize+1))
	if err != nil {
		return nil, fail(fmt.Errorf("reading body: %w", err))
	}
	if int64(len(b)) > c.maxBodySize {
		// 4xx and 5xx bodies are truncated so the status still reaches the caller.
		if resp.StatusCode < 400 {
			return nil, fail(fmt.Errorf("limit[%d] %w", c.maxBodySize, ErrBodyTooLarge))
		}
		b = b[:c.maxBodySize]
	}

	return &Response{
		Status:  resp.StatusCode,
		Header:  resp.Header,
		Body:    b,
		Request: sent,
	}, nil
}
