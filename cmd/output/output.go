// Package output renders command results as a table, JSON or YAML.
package output

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

// Supported formats.
const (
	Table = "table"
	JSON  = "json"
	YAML  = "yaml"
)

// AddFlag registers the --output flag on cmd.
func AddFlag(cmd *cobra.Command, format *string) {
	cmd.Flags().StringVarP(format, "output", "o", Table, "Output format: table, json, yaml")
}

// Write renders v to w in format. table receives a tabwriter for the
// table format; its rows are tab separated.
func Write(w io.Writer, format string, v any, table func(tw *tabwriter.Writer)) error {
	switch strings.ToLower(format) {
	case JSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case YAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return err
		}
		return enc.Close()
	case Table, "":
		tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
		table(tw)
		return tw.Flush()
	default:
		return fmt.Errorf("unsupported output format %q, expected table, json or yaml", format)
	}
}

// Row writes one tab separated row.
func Row(tw *tabwriter.Writer, cells ...any) {
	for i, c := range cells {
		if i > 0 {
			fmt.Fprint(tw, "\t")
		}
		fmt.Fprint(tw, c)
	}
	fmt.Fprintln(tw)
}
