package connector

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/adamwoolhether/checkout/transport"
)

// The two methods accepted by [Connector.Apply].
const (
	Retrieve       = http.MethodGet
	CreateOrUpdate = http.MethodPost
)

const defaultMaxRedirects = 10

var (
	// ErrInvalidMethod is returned by Apply for any method other than GET or POST.
	ErrInvalidMethod = errors.New("is not a valid HTTP method")
	// ErrHTTPStatus is the sentinel wrapped by [StatusError].
	ErrHTTPStatus = errors.New("error status code")
	// ErrAuthFailure is joined with [ErrHTTPStatus] for 401 and 403 responses.
	ErrAuthFailure = errors.New("auth failure")
	// ErrMalformedResponseBody is returned when a 200 body is not a JSON object.
	ErrMalformedResponseBody = errors.New("malformed response body")
	// ErrTooManyRedirects is returned when a redirect chain exceeds the limit.
	ErrTooManyRedirects = errors.New("too many redirects")
	// ErrMarshalPayload is returned when a resource's state cannot be JSON encoded.
	ErrMarshalPayload = errors.New("marshalling payload")
)

// StatusError is returned when the server answers with a 4xx or 5xx status.
// Body is the raw, undecoded response body.
type StatusError struct {
	StatusCode int
	Body       []byte
	Err        error
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%v: %d, body: %s", e.Err, e.StatusCode, e.Body)
}

func (e *StatusError) Unwrap() error {
	return e.Err
}

// Resource is the client side representation of a remote entity.
//
// Parse is only called with a decoded, non-nil JSON object.
type Resource interface {
	Location() string
	SetLocation(url string)
	ContentType() string
	Marshal() map[string]any
	Parse(data map[string]any) error
}

// Digester turns bytes into the digest placed in the Authorization header.
type Digester interface {
	Digest(data []byte) string
}

// Transport creates and sends requests. Send must report every failure to
// obtain a response as an error; any status code is a successful Send.
type Transport interface {
	CreateRequest(url string) *transport.Request
	Send(ctx context.Context, req *transport.Request) (*transport.Response, error)
}

// Recorder observes each request/response exchange. status is 0 when Send
// failed.
type Recorder interface {
	ObserveExchange(method string, status int, elapsed time.Duration)
}
