// Package throttle provides an [http.RoundTripper] that rate-limits
// outbound calls to the checkout API with a token bucket from
// [golang.org/x/time/rate].
//
//	rt, err := throttle.NewRoundTripper(
//		throttle.Config{RPS: 5, Burst: 2},
//		func() *slog.Logger { return slog.Default() },
//		http.DefaultTransport,
//	)
//
// Requests over the limit block until a token is available or the request
// context ends.
package throttle
