package checkout

import (
	"errors"
	"fmt"

	"github.com/adamwoolhether/checkout/connector"
	"github.com/adamwoolhether/checkout/digest"
	"github.com/adamwoolhether/checkout/transport"
)

// ErrEmptySecret is returned by [New] when no shared secret is given.
var ErrEmptySecret = errors.New("shared secret must not be empty")

// New returns a connector that signs every request with secret.
// Unless overridden it uses SHA-256 and a [transport.Client] with default
// settings.
func New(secret string, optFns ...Option) (*connector.Connector, error) {
	if secret == "" {
		return nil, ErrEmptySecret
	}

	var opts options
	for _, opt := range optFns {
		if err := opt(&opts); err != nil {
			return nil, fmt.Errorf("applying option: %w", err)
		}
	}

	d, err := digest.New(opts.algorithm)
	if err != nil {
		return nil, fmt.Errorf("building digester: %w", err)
	}

	t, err := transport.New(opts.transport...)
	if err != nil {
		return nil, fmt.Errorf("building transport: %w", err)
	}

	conn, err := connector.New(t, d, connector.NewSecret(secret), opts.connector...)
	if err != nil {
		return nil, fmt.Errorf("building connector: %w", err)
	}

	return conn, nil
}
