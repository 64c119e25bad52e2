// Package config loads the kco command configuration from defaults, an
// optional file and the environment.
package config

import (
	"log/slog"
	"time"

	"github.com/adamwoolhether/checkout/digest"
	"github.com/adamwoolhether/checkout/order"
)

// Config holds every connector setting the CLI exposes.
type Config struct {
	BaseURI      string         `koanf:"baseURI" json:"baseURI" validate:"required,url"`
	SharedSecret string         `koanf:"sharedSecret" json:"sharedSecret" validate:"required"`
	ContentType  string         `koanf:"contentType" json:"contentType" validate:"required"`
	Digest       string         `koanf:"digest" json:"digest" validate:"oneof=sha-256 sha-512 sha3-256 sha3-512 blake2b-256 blake2b-512"`
	Timeout      time.Duration  `koanf:"timeout" json:"timeout" validate:"gte=0"`
	UserAgent    string         `koanf:"userAgent" json:"userAgent"`
	MaxRedirects int            `koanf:"maxRedirects" json:"maxRedirects" validate:"gte=0"`
	Throttle     ThrottleConfig `koanf:"throttle" json:"throttle"`
	Logging      LoggingConfig  `koanf:"logging" json:"logging"`
}

// ThrottleConfig enables outbound rate limiting when RPS is set.
type ThrottleConfig struct {
	RPS   int `koanf:"rps" json:"rps" validate:"gte=0"`
	Burst int `koanf:"burst" json:"burst" validate:"required_with=RPS,gte=0"`
}

// Enabled reports whether requests should be throttled.
func (t ThrottleConfig) Enabled() bool { return t.RPS > 0 }

// LoggingConfig selects the log level and handler format.
type LoggingConfig struct {
	Level  string `koanf:"level" json:"level" validate:"oneof=debug info warn error"`
	Format string `koanf:"format" json:"format" validate:"oneof=json text"`
}

// DefaultConfig is the baseline every source is merged over.
func DefaultConfig() Config {
	return Config{
		BaseURI:      order.BaseURI,
		ContentType:  order.ContentType,
		Digest:       digest.AlgorithmSHA256,
		Timeout:      10 * time.Second,
		MaxRedirects: 10,
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Validate checks c against its declared tags.
func (c Config) Validate() error {
	return validateStruct(c)
}

// LogValue omits the shared secret.
func (c Config) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("baseURI", c.BaseURI),
		slog.String("contentType", c.ContentType),
		slog.String("digest", c.Digest),
		slog.Duration("timeout", c.Timeout),
		slog.Int("maxRedirects", c.MaxRedirects),
		slog.Int("throttle.rps", c.Throttle.RPS),
		slog.Int("throttle.burst", c.Throttle.Burst),
	)
}
