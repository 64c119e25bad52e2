package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/tidwall/gjson"
	"sigs.k8s.io/yaml"

	"github.com/adamwoolhether/checkout/order"
)

const (
	outputJSON = "json"
	outputYAML = "yaml"
)

func (a *app) createCmd() *cobra.Command {
	var file string

	cmd := &cobra.Command{
		Use:   "create -f FILE",
		Short: "Create an order and print its location",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			data, err := readDocument(file)
			if err != nil {
				return err
			}

			o, err := a.newOrder()
			if err != nil {
				return err
			}
			if err := o.Create(cmd.Context(), data); err != nil {
				return err
			}

			if a.jsonOutput {
				return a.printJSON(map[string]string{"location": o.Location()})
			}
			fmt.Fprintln(a.stdout, o.Location())
			return nil
		},
	}

	cmd.Flags().StringVarP(&file, "filename", "f", "", "YAML or JSON order document")
	_ = cmd.MarkFlagRequired("filename")

	return cmd
}

func (a *app) fetchCmd() *cobra.Command {
	var field, output string

	cmd := &cobra.Command{
		Use:   "fetch LOCATION [--field PATH] [-o json|yaml]",
		Short: "Fetch an order and print it",
		Long: `Fetch an order and print it. --field selects a single value using a
gjson path such as cart.items.0.name.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			o, err := a.newOrder(order.WithLocation(args[0]))
			if err != nil {
				return err
			}
			if err := o.Fetch(cmd.Context()); err != nil {
				return err
			}

			return a.printOrder(o, field, output)
		},
	}

	cmd.Flags().StringVar(&field, "field", "", "gjson path of a single value to print")
	cmd.Flags().StringVarP(&output, "output", "o", outputJSON, "Output format: json or yaml")

	return cmd
}

func (a *app) updateCmd() *cobra.Command {
	var file, output string

	cmd := &cobra.Command{
		Use:   "update LOCATION -f FILE [-o json|yaml]",
		Short: "Update an order and print the result",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := readDocument(file)
			if err != nil {
				return err
			}

			o, err := a.newOrder(order.WithLocation(args[0]))
			if err != nil {
				return err
			}
			if err := o.Update(cmd.Context(), data); err != nil {
				return err
			}

			return a.printOrder(o, "", output)
		},
	}

	cmd.Flags().StringVarP(&file, "filename", "f", "", "YAML or JSON document with the fields to change")
	cmd.Flags().StringVarP(&output, "output", "o", outputJSON, "Output format: json or yaml")
	_ = cmd.MarkFlagRequired("filename")

	return cmd
}

func (a *app) printOrder(o *order.Order, field, output string) error {
	b, err := json.Marshal(o.Data())
	if err != nil {
		return fmt.Errorf("encoding order: %w", err)
	}

	if field != "" {
		res := gjson.GetBytes(b, field)
		if !res.Exists() {
			return fmt.Errorf("field %q not found", field)
		}
		if res.Type == gjson.String {
			fmt.Fprintln(a.stdout, res.String())
			return nil
		}
		b = []byte(res.Raw)
	}

	switch output {
	case outputJSON:
		var v any
		if err := json.Unmarshal(b, &v); err != nil {
			return fmt.Errorf("decoding order: %w", err)
		}
		return a.printJSON(v)
	case outputYAML:
		y, err := yaml.JSONToYAML(b)
		if err != nil {
			return fmt.Errorf("converting order to yaml: %w", err)
		}
		_, err = a.stdout.Write(y)
		return err
	default:
		return fmt.Errorf("output[%s] must be %s or %s", output, outputJSON, outputYAML)
	}
}

func (a *app) printJSON(v any) error {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("formatting json: %w", err)
	}
	fmt.Fprintln(a.stdout, string(b))
	return nil
}

// readDocument reads a YAML or JSON object from path.
func readDocument(path string) (map[string]any, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	b, err := yaml.YAMLToJSON(raw)
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}

	var data map[string]any
	if err := json.Unmarshal(b, &data); err != nil || data == nil {
		return nil, fmt.Errorf("%s must contain an object", path)
	}

	return data, nil
}
