package connector

import (
	"fmt"
	"log/slog"
)

const redacted = "[REDACTED]"

// Secret holds the shared secret. Every way of printing, encoding or logging
// it yields "[REDACTED]". The value sits behind a pointer so that reflective
// printing of structs embedding a Secret shows an address, not the value.
type Secret struct {
	p *string
}

// NewSecret wraps s.
func NewSecret(s string) Secret {
	return Secret{p: &s}
}

// IsZero reports whether no secret was set.
func (s Secret) IsZero() bool { return s.p == nil || *s.p == "" }

// appendTo appends the raw secret to b. It is the only reader of the value.
func (s Secret) appendTo(b []byte) []byte {
	if s.p == nil {
		return b
	}
	return append(b, *s.p...)
}

func (Secret) String() string               { return redacted }
func (Secret) GoString() string             { return redacted }
func (Secret) LogValue() slog.Value         { return slog.StringValue(redacted) }
func (Secret) MarshalText() ([]byte, error) { return []byte(redacted), nil }
func (Secret) MarshalJSON() ([]byte, error) { return []byte(`"` + redacted + `"`), nil }
func (Secret) Format(f fmt.State, _ rune)   { _, _ = f.Write([]byte(redacted)) }
