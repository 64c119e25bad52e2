// Package transport is the net/http backed transport used by the checkout
// connector.
//
// # Building a Client
//
// Use [New] to create a [Client] with functional options:
//
//	c, err := transport.New(
//		transport.WithTimeout(10 * time.Second),
//		transport.WithThrottle(5, 2),
//	)
//
// # Sending Requests
//
// A [Request] is a mutable builder obtained from [Client.CreateRequest].
// [Client.Send] snapshots it, performs one round trip, and returns the whole
// [Response] with the body already read:
//
//	req := c.CreateRequest("https://checkout.klarna.com/checkout/orders/123")
//	req.SetHeader("Accept", contentType)
//	resp, err := c.Send(ctx, req)
//
// The Client never follows redirects itself; status codes, including 3xx,
// are handed back to the caller untouched. Every failure to obtain a
// response is reported as an [*Error].
package transport
