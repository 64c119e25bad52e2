package transport_test

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"

	"github.com/adamwoolhether/checkout/transport"
	"github.com/adamwoolhether/checkout/transport/throttle"
)

type captured struct {
	Method      string
	Path        string
	Body        string
	Accept      string
	ContentType string
	UserAgent   string
}

func echoServer(t *testing.T, got *captured) *httptest.Server {
	t.Helper()

	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b, err := io.ReadAll(r.Body)
		if err != nil {
			t.Errorf("reading body: %v", err)
		}
		*got = captured{
			Method:      r.Method,
			Path:        r.URL.Path,
			Body:        string(b),
			Accept:      r.Header.Get("Accept"),
			ContentType: r.Header.Get("Content-Type"),
			UserAgent:   r.Header.Get("User-Agent"),
		}

		switch r.URL.Path {
		case "/redirect":
			w.Header().Set("Location", "/target")
			w.WriteHeader(http.StatusFound)
		case "/big":
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte(strings.Repeat("x", 64)))
		case "/big-error":
			w.WriteHeader(http.StatusInternalServerError)
			_, _ = w.Write([]byte(strings.Repeat("e", 64)))
		default:
			w.Header().Set("X-Echo", "1")
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte(`{"ok":true}`))
		}
	}))
	t.Cleanup(ts.Close)

	return ts
}

func TestClient_Send(t *testing.T) {
	var got captured
	ts := echoServer(t, &got)

	c, err := transport.New()
	if err != nil {
		t.Fatalf("building client: %v", err)
	}

	testCases := map[string]struct {
		path      string
		method    string
		headers   map[string]string
		data      []byte
		expStatus int
		exp       captured
	}{
		"get": {
			path:      "/orders/1",
			method:    http.MethodGet,
			headers:   map[string]string{"Accept": "application/json"},
			expStatus: http.StatusOK,
			exp: captured{
				Method:    http.MethodGet,
				Path:      "/orders/1",
				Accept:    "application/json",
				UserAgent: transport.DefaultUserAgent,
			},
		},
		"postWithData": {
			path:   "/orders",
			method: http.MethodPost,
			headers: map[string]string{
				"Accept":       "application/json",
				"Content-Type": "application/json",
			},
			data:      []byte(`{"a":1}`),
			expStatus: http.StatusOK,
			exp: captured{
				Method:      http.MethodPost,
				Path:        "/orders",
				Body:        `{"a":1}`,
				Accept:      "application/json",
				ContentType: "application/json",
				UserAgent:   transport.DefaultUserAgent,
			},
		},
		"redirectNotFollowed": {
			path:      "/redirect",
			method:    http.MethodGet,
			expStatus: http.StatusFound,
			exp: captured{
				Method:    http.MethodGet,
				Path:      "/redirect",
				UserAgent: transport.DefaultUserAgent,
			},
		},
	}

	for name, tc := range testCases {
		t.Run(name, func(t *testing.T) {
			req := c.CreateRequest(ts.URL + tc.path)
			req.SetMethod(tc.method)
			for k, v := range tc.headers {
				req.SetHeader(k, v)
			}
			if tc.data != nil {
				req.SetData(tc.data)
			}

			resp, err := c.Send(t.Context(), req)
			if err != nil {
				t.Fatalf("send: %v", err)
			}

			if resp.Status != tc.expStatus {
				t.Errorf("exp status %d, got %d", tc.expStatus, resp.Status)
			}
			if diff := cmp.Diff(tc.exp, got); diff != "" {
				t.Errorf("unexpected request on the wire (-want +got):\n%s", diff)
			}
			if resp.Request == nil || resp.Request.URL() != ts.URL+tc.path {
				t.Errorf("exp back-reference to request for %s", tc.path)
			}
		})
	}
}

func TestClient_SendLocationAndBody(t *testing.T) {
	var got captured
	ts := echoServer(t, &got)

	c, err := transport.New()
	if err != nil {
		t.Fatalf("building client: %v", err)
	}

	resp, err := c.Send(t.Context(), c.CreateRequest(ts.URL+"/redirect"))
	if err != nil {
		t.Fatalf("send: %v", err)
	}
	if resp.Location() != "/target" {
		t.Errorf("exp Location /target, got %q", resp.Location())
	}

	resp, err = c.Send(t.Context(), c.CreateRequest(ts.URL+"/"))
	if err != nil {
		t.Fatalf("send: %v", err)
	}
	if string(resp.Body) != `{"ok":true}` {
		t.Errorf("unexpected body %q", resp.Body)
	}
	if resp.Header.Get("X-Echo") != "1" {
		t.Errorf("exp response headers to be kept")
	}
}

func TestClient_SendSnapshotsRequest(t *testing.T) {
	var got captured
	ts := echoServer(t, &got)

	c, err := transport.New()
	if err != nil {
		t.Fatalf("building client: %v", err)
	}

	req := c.CreateRequest(ts.URL + "/")
	req.SetMethod(http.MethodPost)
	req.SetHeader("Authorization", "Klarna abc")
	req.SetData([]byte("one"))

	resp, err := c.Send(t.Context(), req)
	if err != nil {
		t.Fatalf("send: %v", err)
	}

	req.SetMethod(http.MethodGet)
	req.SetHeader("Authorization", "Klarna changed")
	req.SetData([]byte("two"))

	if resp.Request.Method() != http.MethodPost {
		t.Errorf("exp snapshot method POST, got %s", resp.Request.Method())
	}
	if resp.Request.Header("Authorization") != "Klarna abc" {
		t.Errorf("exp snapshot header, got %q", resp.Request.Header("Authorization"))
	}
	if string(resp.Request.Data()) != "one" {
		t.Errorf("exp snapshot data, got %q", resp.Request.Data())
	}
}

func TestClient_SendErrors(t *testing.T) {
	var got captured
	ts := echoServer(t, &got)

	closed := httptest.NewServer(http.NotFoundHandler())
	closedURL := closed.URL
	closed.Close()

	testCases := map[string]struct {
		url   string
		opts  []transport.Option
		cause error
	}{
		"malformedURL": {
			url: "://missing-scheme",
		},
		"connectionRefused": {
			url: closedURL + "/orders",
		},
		"bodyTooLarge": {
			url:   ts.URL + "/big",
			opts:  []transport.Option{transport.WithMaxBodySize(8)},
			cause: transport.ErrBodyTooLarge,
		},
	}

	for name, tc := range testCases {
		t.Run(name, func(t *testing.T) {
			c, err := transport.New(tc.opts...)
			if err != nil {
				t.Fatalf("building client: %v", err)
			}

			_, err = c.Send(t.Context(), c.CreateRequest(tc.url))
			if !errors.Is(err, transport.ErrSend) {
				t.Fatalf("exp ErrSend, got: %v", err)
			}

			var terr *transport.Error
			if !errors.As(err, &terr) {
				t.Fatalf("exp *transport.Error, got %T", err)
			}
			if terr.URL != tc.url || terr.Method != http.MethodGet {
				t.Errorf("unexpected error details: %+v", terr)
			}
			if tc.cause != nil && !errors.Is(err, tc.cause) {
				t.Errorf("exp cause %v, got: %v", tc.cause, err)
			}
		})
	}
}

func TestClient_SendTruncatesLargeErrorBody(t *testing.T) {
	var got captured
	ts := echoServer(t, &got)

	c, err := transport.New(transport.WithMaxBodySize(8))
	if err != nil {
		t.Fatalf("building client: %v", err)
	}

	resp, err := c.Send(t.Context(), c.CreateRequest(ts.URL+"/big-error"))
	if err != nil {
		t.Fatalf("exp the error status to be returned, got: %v", err)
	}
	if resp.Status != http.StatusInternalServerError {
		t.Errorf("exp 500, got %d", resp.Status)
	}
	if string(resp.Body) != "eeeeeeee" {
		t.Errorf("exp body cut to the limit, got %q", resp.Body)
	}
}

func TestClient_SendContextCancelled(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
		w.WriteHeader(http.StatusOK)
	}))
	defer ts.Close()

	c, err := transport.New()
	if err != nil {
		t.Fatalf("building client: %v", err)
	}

	ctx, cancel := context.WithTimeout(t.Context(), 20*time.Millisecond)
	defer cancel()

	_, err = c.Send(ctx, c.CreateRequest(ts.URL))
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("exp context.DeadlineExceeded, got: %v", err)
	}
}

func TestClient_Options(t *testing.T) {
	var got captured
	ts := echoServer(t, &got)

	var called bool
	custom := roundTripFunc(func(r *http.Request) (*http.Response, error) {
		called = true
		return http.DefaultTransport.RoundTrip(r)
	})

	provided := &http.Client{Timeout: 42 * time.Second}

	c, err := transport.New(
		transport.WithClient(provided),
		transport.WithTransport(custom),
		transport.WithUserAgent("kco-test/1.0"),
		transport.WithThrottle(100, 10),
		transport.WithTimeout(5*time.Second),
	)
	if err != nil {
		t.Fatalf("building client: %v", err)
	}

	if _, err := c.Send(t.Context(), c.CreateRequest(ts.URL+"/redirect")); err != nil {
		t.Fatalf("send: %v", err)
	}

	if !called {
		t.Error("custom transport was not called")
	}
	if got.UserAgent != "kco-test/1.0" {
		t.Errorf("exp custom User-Agent, got %q", got.UserAgent)
	}
	if provided.Timeout != 42*time.Second || provided.CheckRedirect != nil {
		t.Error("provided client must not be mutated")
	}
}

func TestClient_OptionValidation(t *testing.T) {
	testCases := map[string]struct {
		opt transport.Option
		err error
	}{
		"nilClient":       {opt: transport.WithClient(nil)},
		"nilTransport":    {opt: transport.WithTransport(nil)},
		"negativeTimeout": {opt: transport.WithTimeout(-1)},
		"zeroThrottle":    {opt: transport.WithThrottle(0, 10), err: throttle.ErrMustNotBeZero},
		"zeroBodySize":    {opt: transport.WithMaxBodySize(0), err: transport.ErrInvalidBodySize},
	}

	for name, tc := range testCases {
		t.Run(name, func(t *testing.T) {
			_, err := transport.New(tc.opt)
			if err == nil {
				t.Fatal("expected error")
			}
			if tc.err != nil && !errors.Is(err, tc.err) {
				t.Errorf("exp %v, got: %v", tc.err, err)
			}
		})
	}
}

func TestClient_InjectsTraceContext(t *testing.T) {
	prev := otel.GetTextMapPropagator()
	otel.SetTextMapPropagator(propagation.TraceContext{})
	t.Cleanup(func() { otel.SetTextMapPropagator(prev) })

	var traceparent string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		traceparent = r.Header.Get("Traceparent")
		w.WriteHeader(http.StatusOK)
	}))
	defer ts.Close()

	sc := trace.NewSpanContext(trace.SpanContextConfig{
		TraceID:    trace.TraceID{0x01, 0x02},
		SpanID:     trace.SpanID{0x03},
		TraceFlags: trace.FlagsSampled,
	})
	ctx := trace.ContextWithSpanContext(t.Context(), sc)

	c, err := transport.New()
	if err != nil {
		t.Fatalf("building client: %v", err)
	}

	if _, err := c.Send(ctx, c.CreateRequest(ts.URL)); err != nil {
		t.Fatalf("send: %v", err)
	}

	exp := "00-01020000000000000000000000000000-0300000000000000-01"
	if traceparent != exp {
		t.Errorf("exp traceparent %q, got %q", exp, traceparent)
	}
}

// roundTripFunc adapts a function into an http.RoundTripper.
type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(r *http.Request) (*http.Response, error) {
	return f(r)
}
