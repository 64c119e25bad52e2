package config_test

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/adamwoolhether/checkout/internal/config"
)

func writeFile(t *testing.T, name, contents string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o600))
	return path
}

func TestLoader(t *testing.T) {
	tests := []struct {
		name    string
		setup   func(t *testing.T) []string
		wantErr bool
		assert  func(t *testing.T, cfg config.Config)
	}{
		{
			name: "returns defaults with only a secret",
			setup: func(t *testing.T) []string {
				t.Setenv("KCO_SHAREDSECRET", "s3cr3t")
				return nil
			},
			assert: func(t *testing.T, cfg config.Config) {
				exp := config.DefaultConfig()
				exp.SharedSecret = "s3cr3t"
				require.Equal(t, exp, cfg)
			},
		},
		{
			name: "merges yaml file",
			setup: func(t *testing.T) []string {
				return []string{writeFile(t, "kco.yaml", "sharedSecret: fromfile\ntimeout: 3s\nthrottle:\n  rps: 5\n  burst: 2\n")}
			},
			assert: func(t *testing.T, cfg config.Config) {
				require.Equal(t, "fromfile", cfg.SharedSecret)
				require.Equal(t, 3*time.Second, cfg.Timeout)
				require.True(t, cfg.Throttle.Enabled())
				require.Equal(t, 2, cfg.Throttle.Burst)
			},
		},
		{
			name: "merges json file",
			setup: func(t *testing.T) []string {
				return []string{writeFile(t, "kco.json", `{"sharedSecret":"fromjson","digest":"sha-512","maxRedirects":3}`)}
			},
			assert: func(t *testing.T, cfg config.Config) {
				require.Equal(t, "fromjson", cfg.SharedSecret)
				require.Equal(t, "sha-512", cfg.Digest)
				require.Equal(t, 3, cfg.MaxRedirects)
			},
		},
		{
			name: "merges toml file",
			setup: func(t *testing.T) []string {
				return []string{writeFile(t, "kco.toml", "sharedSecret = \"fromtoml\"\n\n[logging]\nlevel = \"debug\"\nformat = \"json\"\n")}
			},
			assert: func(t *testing.T, cfg config.Config) {
				require.Equal(t, "fromtoml", cfg.SharedSecret)
				require.Equal(t, "debug", cfg.Logging.Level)
				require.Equal(t, "json", cfg.Logging.Format)
			},
		},
		{
			name: "prefers env overrides",
			setup: func(t *testing.T) []string {
				path := writeFile(t, "kco.yaml", "sharedSecret: fromfile\nbaseURI: https://file.example/orders\n")
				t.Setenv("KCO_SHARED_SECRET", "fromenv")
				t.Setenv("KCO_BASE_URI", "https://env.example/orders")
				t.Setenv("KCO_THROTTLE__RPS", "7")
				t.Setenv("KCO_THROTTLE__BURST", "1")
				return []string{path}
			},
			assert: func(t *testing.T, cfg config.Config) {
				require.Equal(t, "fromenv", cfg.SharedSecret)
				require.Equal(t, "https://env.example/orders", cfg.BaseURI)
				require.Equal(t, config.ThrottleConfig{RPS: 7, Burst: 1}, cfg.Throttle)
			},
		},
		{
			name: "fails on missing file",
			setup: func(t *testing.T) []string {
				return []string{filepath.Join(t.TempDir(), "missing.yaml")}
			},
			wantErr: true,
		},
		{
			name: "fails on unknown extension",
			setup: func(t *testing.T) []string {
				return []string{writeFile(t, "kco.ini", "sharedSecret=x")}
			},
			wantErr: true,
		},
		{
			name: "fails without secret",
			setup: func(t *testing.T) []string {
				return nil
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			files := tt.setup(t)

			cfg, err := config.NewLoader(config.DefaultEnvPrefix, files...).Load(t.Context())
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			tt.assert(t, cfg)
		})
	}
}

func TestLoaderUnknownFormat(t *testing.T) {
	_, err := config.NewLoader("", writeFile(t, "kco.conf", "")).Load(t.Context())
	require.ErrorIs(t, err, config.ErrUnknownFormat)
}

func TestValidate(t *testing.T) {
	valid := config.DefaultConfig()
	valid.SharedSecret = "s"
	require.NoError(t, valid.Validate())

	cfg := valid
	cfg.BaseURI = "not a url"
	cfg.Digest = "md5"
	cfg.Throttle = config.ThrottleConfig{RPS: 5}
	cfg.Logging.Level = "verbose"
	cfg.SharedSecret = ""

	err := cfg.Validate()
	require.Error(t, err)

	var fe config.FieldErrors
	require.True(t, errors.As(err, &fe))

	fields := fe.Fields()
	require.Contains(t, fields, "baseURI")
	require.Contains(t, fields, "digest")
	require.Contains(t, fields, "throttle.burst")
	require.Contains(t, fields, "logging.level")
	require.Equal(t, "This field is required", fields["sharedSecret"])
}
