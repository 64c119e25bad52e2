package transport

import (
	"bytes"
	"errors"
	"fmt"
	"net/http"
)

// maxBodySize caps how much of a response body Send reads by default.
const maxBodySize = 10 << 20 // 10MB

var (
	// ErrSend is the sentinel wrapped by every [*Error].
	ErrSend = errors.New("transport send failed")
	// ErrBodyTooLarge is wrapped when a response body exceeds the configured limit.
	ErrBodyTooLarge = errors.New("response body too large")
	// ErrInvalidBodySize is returned by [WithMaxBodySize] for sizes below one.
	ErrInvalidBodySize = errors.New("body size must be greater than zero")
)

// Error is returned by [Client.Send] when no response could be obtained:
// invalid URLs, dial failures, timeouts, cancelled contexts, unreadable bodies.
type Error struct {
	Method string
	URL    string
	Err    error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%v: %s %s: %v", ErrSend, e.Method, e.URL, e.Err)
}

// Unwrap exposes both [ErrSend] and the underlying cause.
func (e *Error) Unwrap() []error {
	return []error{ErrSend, e.Err}
}

// Request is a mutable request builder. A zero method means GET.
type Request struct {
	method string
	url    string
	header http.Header
	data   []byte
}

// NewRequest returns a GET request for url.
func NewRequest(url string) *Request {
	return &Request{
		method: http.MethodGet,
		url:    url,
		header: make(http.Header),
	}
}

// URL returns the target URL.
func (r *Request) URL() string { return r.url }

// Method returns the HTTP method.
func (r *Request) Method() string { return r.method }

// SetMethod sets the HTTP method.
func (r *Request) SetMethod(method string) { r.method = method }

// SetHeader replaces any existing values of the header key.
func (r *Request) SetHeader(key, value string) { r.header.Set(key, value) }

// Header returns the first value of the header key.
func (r *Request) Header(key string) string { return r.header.Get(key) }

// Headers returns a copy of every header on the request.
func (r *Request) Headers() http.Header { return r.header.Clone() }

// SetData sets the request body. The slice is copied.
func (r *Request) SetData(data []byte) { r.data = bytes.Clone(data) }

// Data returns a copy of the request body, nil when none was set.
func (r *Request) Data() []byte { return bytes.Clone(r.data) }

func (r *Request) clone() *Request {
	return &Request{
		method: r.method,
		url:    r.url,
		header: r.header.Clone(),
		data:   bytes.Clone(r.data),
	}
}

// Response is a fully read HTTP response. Request is the snapshot of the
// request that produced it, taken when it was sent.
type Response struct {
	Status  int
	Header  http.Header
	Body    []byte
	Request *Request
}

// Location returns the Location header.
func (r *Response) Location() string {
	return r.Header.Get("Location")
}
