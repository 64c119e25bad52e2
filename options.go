package checkout

import (
	"log/slog"

	"github.com/adamwoolhether/checkout/connector"
	"github.com/adamwoolhether/checkout/transport"
)

// Option configures [New].
type Option func(*options) error
type options struct {
	algorithm string
	transport []transport.Option
	connector []connector.Option
}

// WithDigest selects the digest algorithm by name. An empty name means
// SHA-256; digest.Supported lists the others.
func WithDigest(algorithm string) Option {
	return func(o *options) error {
		o.algorithm = algorithm
		return nil
	}
}

// WithLogger hands logger to both the transport and the connector.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) error {
		o.transport = append(o.transport, transport.WithLogger(logger))
		o.connector = append(o.connector, connector.WithLogger(logger))
		return nil
	}
}

// WithTransportOptions passes opts through to [transport.New].
func WithTransportOptions(opts ...transport.Option) Option {
	return func(o *options) error {
		o.transport = append(o.transport, opts...)
		return nil
	}
}

// WithConnectorOptions passes opts through to [connector.New].
func WithConnectorOptions(opts ...connector.Option) Option {
	return func(o *options) error {
		o.connector = append(o.connector, opts...)
		return nil
	}
}
