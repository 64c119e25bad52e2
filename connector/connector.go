package connector

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"github.com/adamwoolhether/checkout/transport"
)

// Connector applies GET and POST operations to resources. It holds no per
// call state and may be shared; a single Resource must not be used by
// concurrent calls.
type Connector struct {
	transport    Transport
	digester     Digester
	secret       Secret
	logger       *slog.Logger
	tracer       trace.Tracer
	recorder     Recorder
	maxRedirects int
	useJSONNum   bool
}

// New builds a Connector that signs with secret.
func New(t Transport, d Digester, secret Secret, optFns ...Option) (*Connector, error) {
	if t == nil {
		return nil, errors.New("transport must not be nil")
	}
	if d == nil {
		return nil, errors.New("digester must not be nil")
	}

	var opts options
	for _, opt := range optFns {
		if err := opt(&opts); err != nil {
			return nil, fmt.Errorf("applying connector option: %w", err)
		}
	}

	c := &Connector{
		transport:    t,
		digester:     d,
		secret:       secret,
		logger:       slog.Default(),
		tracer:       noop.NewTracerProvider().Tracer("no-op tracer"),
		recorder:     opts.recorder,
		maxRedirects: defaultMaxRedirects,
		useJSONNum:   opts.useJSONNum,
	}
	if opts.logger != nil {
		c.logger = opts.logger
	}
	if opts.tracer != nil {
		c.tracer = opts.tracer
	}
	if opts.maxRedirects != nil {
		c.maxRedirects = *opts.maxRedirects
	}

	return c, nil
}

// Apply runs method against r. method must be [Retrieve] or
// [CreateOrUpdate]; anything else fails with [ErrInvalidMethod] before any
// request is made. Errors from the Transport are returned unchanged.
func (c *Connector) Apply(ctx context.Context, method string, r Resource, opts ...ApplyOption) (*transport.Response, error) {
	switch method {
	case Retrieve, CreateOrUpdate:
	default:
		return nil, fmt.Errorf("method[%s] %w", method, ErrInvalidMethod)
	}
	if r == nil {
		return nil, errors.New("resource must not be nil")
	}

	var settings applyOpts
	for _, opt := range opts {
		opt(&settings)
	}

	opID := uuid.NewString()
	ctx, span := c.tracer.Start(ctx, "checkout.apply", trace.WithAttributes(
		attribute.String("http.request.method", method),
		attribute.String("checkout.op", opID),
	))
	defer span.End()

	resp, err := c.handle(ctx, c.logger.With("op", opID), method, r, settings, 0)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	return resp, nil
}

// handle performs one exchange and dispatches on its status. hops counts the
// redirects already followed in this Apply call.
func (c *Connector) handle(ctx context.Context, logger *slog.Logger, method string, r Resource, settings applyOpts, hops int) (*transport.Response, error) {
	url := resolveURL(r, settings)

	var payload []byte
	if method == CreateOrUpdate {
		b, err := json.Marshal(r.Marshal())
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrMarshalPayload, err)
		}
		payload = b
	}

	req := c.createRequest(r, method, payload, url)

	ctx, span := c.tracer.Start(ctx, "checkout.exchange", trace.WithAttributes(
		attribute.String("http.request.method", method),
		attribute.String("url.full", url),
		attribute.Int("checkout.redirect.hops", hops),
	))
	defer span.End()

	start := time.Now()
	resp, err := c.transport.Send(ctx, req)
	elapsed := time.Since(start)
	if err != nil {
		c.observe(method, 0, elapsed)
		return nil, err
	}
	c.observe(method, resp.Status, elapsed)
	span.SetAttributes(attribute.Int("http.response.status_code", resp.Status))
	logger.Debug("checkout exchange", "method", method, "url", url, "status", resp.Status, "since", elapsed.String())

	if err := verify(resp); err != nil {
		return nil, err
	}

	return c.handleResponse(ctx, logger, method, resp, r, hops)
}

// createRequest builds a signed request. The digest covers payload followed
// by the secret; Content-Type and the body are only set for a non-empty payload.
func (c *Connector) createRequest(r Resource, method string, payload []byte, url string) *transport.Request {
	digest := c.digester.Digest(c.secret.appendTo(bytes.Clone(payload)))

	req := c.transport.CreateRequest(url)
	req.SetMethod(method)
	req.SetHeader("Authorization", "Klarna "+digest)
	req.SetHeader("Accept", r.ContentType())
	if len(payload) > 0 {
		req.SetHeader("Content-Type", r.ContentType())
		req.SetData(payload)
	}

	return req
}

// handleResponse applies the status rules to r:
//
//	301: update the location, then continue as 302
//	301/302 to a non-GET request: stop and return the response
//	301/302/303: follow Location with a GET
//	201: update the location
//	200: parse the body into r
func (c *Connector) handleResponse(ctx context.Context, logger *slog.Logger, method string, resp *transport.Response, r Resource, hops int) (*transport.Response, error) {
	status := resp.Status

	if status == http.StatusMovedPermanently {
		r.SetLocation(resp.Location())
	}

	redirect := status == http.StatusMovedPermanently || status == http.StatusFound
	if redirect && requestMethod(resp, method) != Retrieve {
		return resp, nil
	}

	switch status {
	case http.StatusMovedPermanently, http.StatusFound, http.StatusSeeOther:
		return c.follow(ctx, logger, resp, r, hops)
	case http.StatusCreated:
		r.SetLocation(resp.Location())
	case http.StatusOK:
		if err := c.parse(resp, r); err != nil {
			return nil, err
		}
	}

	return resp, nil
}

// follow re-runs the operation as a GET against the Location header without
// replaying any body.
func (c *Connector) follow(ctx context.Context, logger *slog.Logger, resp *transport.Response, r Resource, hops int) (*transport.Response, error) {
	location := resp.Location()
	if hops >= c.maxRedirects {
		return nil, fmt.Errorf("%w: followed %d, next[%s]", ErrTooManyRedirects, hops, location)
	}

	logger.Debug("following redirect", "status", resp.Status, "location", location)

	return c.handle(ctx, logger, Retrieve, r, applyOpts{url: &location}, hops+1)
}

// parse decodes a 200 body into a JSON object and hands it to r. r is left
// untouched when the body is not exactly one non-null JSON object.
func (c *Connector) parse(resp *transport.Response, r Resource) error {
	d := json.NewDecoder(bytes.NewReader(resp.Body))
	if c.useJSONNum {
		d.UseNumber()
	}

	var data map[string]any
	if err := d.Decode(&data); err != nil {
		return fmt.Errorf("%w: %w", ErrMalformedResponseBody, err)
	}
	if _, err := d.Token(); !errors.Is(err, io.EOF) {
		return fmt.Errorf("%w: trailing data after object", ErrMalformedResponseBody)
	}
	if data == nil {
		return fmt.Errorf("%w: null body", ErrMalformedResponseBody)
	}

	if err := r.Parse(data); err != nil {
		return fmt.Errorf("parsing resource: %w", err)
	}

	return nil
}

func (c *Connector) observe(method string, status int, elapsed time.Duration) {
	if c.recorder != nil {
		c.recorder.ObserveExchange(method, status, elapsed)
	}
}

// resolveURL prefers the per call override, even when it is empty.
func resolveURL(r Resource, settings applyOpts) string {
	if settings.url != nil {
		return *settings.url
	}
	return r.Location()
}

// verify fails any 4xx or 5xx response.
func verify(resp *transport.Response) error {
	if resp.Status < 400 || resp.Status > 599 {
		return nil
	}

	err := ErrHTTPStatus
	if resp.Status == http.StatusUnauthorized || resp.Status == http.StatusForbidden {
		err = fmt.Errorf("%w: %w", ErrAuthFailure, ErrHTTPStatus)
	}

	return &StatusError{
		StatusCode: resp.Status,
		Body:       resp.Body,
		Err:        err,
	}
}

// requestMethod is the method of the request that produced resp, falling
// back to method for transports that do not set the back-reference.
func requestMethod(resp *transport.Response, method string) string {
	if resp.Request != nil {
		return resp.Request.Method()
	}
	return method
}
