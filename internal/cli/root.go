// Package cli implements the kco command.
package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/adamwoolhether/checkout"
	"github.com/adamwoolhether/checkout/connector"
	"github.com/adamwoolhether/checkout/internal/config"
	"github.com/adamwoolhether/checkout/internal/logging"
	"github.com/adamwoolhether/checkout/internal/metrics"
	"github.com/adamwoolhether/checkout/order"
	"github.com/adamwoolhether/checkout/transport"
)

var errorLabel = color.New(color.FgRed)

// app carries the global flags and what PersistentPreRunE builds from them.
type app struct {
	stdout io.Writer
	stderr io.Writer

	configFile  string
	envPrefix   string
	jsonOutput  bool
	showMetrics bool

	cfg      config.Config
	logger   *slog.Logger
	recorder *metrics.Recorder
	conn     *connector.Connector
}

// Run executes kco with args and returns the process exit code.
func Run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	a := &app{stdout: stdout, stderr: stderr}

	root := a.rootCmd()
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)

	err := root.ExecuteContext(ctx)

	if a.recorder != nil {
		if werr := a.recorder.WriteText(stderr); werr != nil && err == nil {
			err = werr
		}
	}

	if err != nil {
		a.printError(err)
		return 1
	}
	return 0
}

func (a *app) rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "kco [command] [flags]",
		Short: "kco talks to the Klarna Checkout order API",
		Long: `kco creates, fetches and updates Klarna Checkout orders using a signed
connector. Settings come from defaults, an optional config file and
KCO_ prefixed environment variables, in increasing precedence.

Examples:
  # Create an order from a YAML document
  KCO_SHARED_SECRET=secret kco create -f order.yaml

  # Print one field of an order
  kco fetch https://checkout.testdrive.klarna.com/checkout/orders/ABC --field status

  # Update an order and print it as YAML
  kco update https://checkout.testdrive.klarna.com/checkout/orders/ABC -f patch.json -o yaml`,
		SilenceErrors:     true,
		SilenceUsage:      true,
		PersistentPreRunE: a.setup,
	}

	root.PersistentFlags().StringVar(&a.configFile, "config", "", "Path to a YAML, JSON or TOML config file")
	root.PersistentFlags().StringVar(&a.envPrefix, "env-prefix", config.DefaultEnvPrefix, "Prefix of environment variables to read settings from")
	root.PersistentFlags().BoolVarP(&a.jsonOutput, "json", "j", false, "Print errors as JSON")
	root.PersistentFlags().BoolVar(&a.showMetrics, "metrics", false, "Write exchange metrics to stderr on exit")

	root.AddCommand(a.createCmd(), a.fetchCmd(), a.updateCmd())

	return root
}

// setup loads the configuration and builds the connector.
func (a *app) setup(cmd *cobra.Command, _ []string) error {
	cfg, err := config.NewLoader(a.envPrefix, a.configFile).Load(cmd.Context())
	if err != nil {
		return err
	}
	a.cfg = cfg

	a.logger, err = logging.New(cfg.Logging, a.stderr)
	if err != nil {
		return err
	}
	a.logger.Debug("configuration loaded", "config", cfg)

	transportOpts := []transport.Option{
		transport.WithTimeout(cfg.Timeout),
	}
	if cfg.UserAgent != "" {
		transportOpts = append(transportOpts, transport.WithUserAgent(cfg.UserAgent))
	}
	if cfg.Throttle.Enabled() {
		transportOpts = append(transportOpts, transport.WithThrottle(cfg.Throttle.RPS, cfg.Throttle.Burst))
	}

	connectorOpts := []connector.Option{
		connector.WithMaxRedirects(cfg.MaxRedirects),
	}
	if a.showMetrics {
		a.recorder = metrics.NewRecorder(nil)
		connectorOpts = append(connectorOpts, connector.WithRecorder(a.recorder))
	}

	a.conn, err = checkout.New(cfg.SharedSecret,
		checkout.WithDigest(cfg.Digest),
		checkout.WithLogger(a.logger),
		checkout.WithTransportOptions(transportOpts...),
		checkout.WithConnectorOptions(connectorOpts...),
	)
	if err != nil {
		return err
	}

	return nil
}

func (a *app) newOrder(opts ...order.Option) (*order.Order, error) {
	opts = append([]order.Option{
		order.WithBaseURI(a.cfg.BaseURI),
		order.WithContentType(a.cfg.ContentType),
	}, opts...)

	return order.New(a.conn, opts...)
}

func (a *app) printError(err error) {
	if !a.jsonOutput {
		errorLabel.Fprintf(a.stderr, "Error: %v\n", err)
		return
	}

	kv := map[string]any{
		"error": err.Error(),
	}
	var serr *connector.StatusError
	if errors.As(err, &serr) {
		kv["status"] = serr.StatusCode
		if json.Valid(serr.Body) {
			kv["body"] = json.RawMessage(serr.Body)
		}
	}

	b, merr := json.Marshal(kv)
	if merr != nil {
		fmt.Fprintf(a.stderr, "Error: %v\n", err)
		return
	}
	fmt.Fprintln(a.stderr, string(b))
}
