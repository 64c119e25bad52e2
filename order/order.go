package order

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"sync"

	"github.com/adamwoolhether/checkout/connector"
	"github.com/adamwoolhether/checkout/transport"
)

const (
	// ContentType is the media type of version 2 aggregated orders.
	ContentType = "application/vnd.klarna.checkout.aggregated-order-v2+json"

	// BaseURI is the live order collection.
	BaseURI = "https://checkout.klarna.com/checkout/orders"
	// TestBaseURI is the test drive order collection.
	TestBaseURI = "https://checkout.testdrive.klarna.com/checkout/orders"
)

// ErrNoLocation is returned when fetching or updating an order that was
// never created or given a location.
var ErrNoLocation = errors.New("order has no location")

// Applier runs an operation against a resource. *connector.Connector
// satisfies it.
type Applier interface {
	Apply(ctx context.Context, method string, r connector.Resource, opts ...connector.ApplyOption) (*transport.Response, error)
}

// Order is a checkout order. Its methods are safe to call concurrently,
// though concurrent exchanges on one Order race on its final state.
type Order struct {
	conn        Applier
	baseURI     string
	contentType string

	mu       sync.RWMutex
	location string
	data     map[string]any
}

// New returns an empty order bound to conn.
func New(conn Applier, optFns ...Option) (*Order, error) {
	if conn == nil {
		return nil, errors.New("connector must not be nil")
	}

	opts := options{
		baseURI:     BaseURI,
		contentType: ContentType,
	}
	for _, opt := range optFns {
		if err := opt(&opts); err != nil {
			return nil, fmt.Errorf("applying order option: %w", err)
		}
	}

	return &Order{
		conn:        conn,
		baseURI:     opts.baseURI,
		contentType: opts.contentType,
		location:    opts.location,
		data:        map[string]any{},
	}, nil
}

// Create replaces the order data with data and posts it to the base URI.
// On success the order location points at the new order.
func (o *Order) Create(ctx context.Context, data map[string]any) error {
	o.replace(data)

	if _, err := o.conn.Apply(ctx, connector.CreateOrUpdate, o, connector.WithURL(o.baseURI)); err != nil {
		return fmt.Errorf("creating order: %w", err)
	}

	return nil
}

// Fetch reloads the order data from its location.
func (o *Order) Fetch(ctx context.Context) error {
	if o.Location() == "" {
		return ErrNoLocation
	}

	if _, err := o.conn.Apply(ctx, connector.Retrieve, o); err != nil {
		return fmt.Errorf("fetching order: %w", err)
	}

	return nil
}

// Update replaces the order data with data and posts it to the order
// location. The response body, when present, becomes the new order data.
func (o *Order) Update(ctx context.Context, data map[string]any) error {
	if o.Location() == "" {
		return ErrNoLocation
	}
	o.replace(data)

	if _, err := o.conn.Apply(ctx, connector.CreateOrUpdate, o); err != nil {
		return fmt.Errorf("updating order: %w", err)
	}

	return nil
}

// Get returns the top level value stored under key.
func (o *Order) Get(key string) (any, bool) {
	o.mu.RLock()
	defer o.mu.RUnlock()

	v, ok := o.data[key]
	return v, ok
}

// Set stores value under key.
func (o *Order) Set(key string, value any) {
	o.mu.Lock()
	defer o.mu.Unlock()

	o.data[key] = value
}

// Data returns a shallow copy of the order data.
func (o *Order) Data() map[string]any {
	o.mu.RLock()
	defer o.mu.RUnlock()

	return maps.Clone(o.data)
}

var _ connector.Resource = (*Order)(nil)

func (o *Order) Location() string {
	o.mu.RLock()
	defer o.mu.RUnlock()

	return o.location
}

func (o *Order) SetLocation(url string) {
	o.mu.Lock()
	defer o.mu.Unlock()

	o.location = url
}

func (o *Order) ContentType() string {
	return o.contentType
}

// Marshal returns a shallow copy of the order data for encoding.
func (o *Order) Marshal() map[string]any {
	return o.Data()
}

// Parse replaces the order data with data.
func (o *Order) Parse(data map[string]any) error {
	o.replace(data)
	return nil
}

func (o *Order) replace(data map[string]any) {
	cp := maps.Clone(data)
	if cp == nil {
		cp = map[string]any{}
	}

	o.mu.Lock()
	defer o.mu.Unlock()

	o.data = cp
}
