// Package list implements the list command.
package list

import (
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/vtttools/mediastore/cmd/output"
	"github.com/vtttools/mediastore/internal/app"
	"github.com/vtttools/mediastore/internal/assetstore"
	"github.com/vtttools/mediastore/internal/errors"
	"github.com/vtttools/mediastore/internal/taxonomy"
)

type listFlags struct {
	kind     string
	category string
	typ      string
	subtype  string
	name     string
	format   string
}

// Command creates the list command.
func Command(ctx *app.Context) *cobra.Command {
	var flags listFlags

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List assets in the asset store",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			filter := assetstore.Filter{
				Category: flags.category,
				Type:     flags.typ,
				Subtype:  flags.subtype,
				Name:     flags.name,
			}
			if flags.kind != "" {
				kind, ok := taxonomy.ParseKind(flags.kind)
				if !ok {
					return errors.InvalidArgument("kind", "unknown asset kind %q", flags.kind)
				}
				filter.Kind = &kind
			}

			assets, err := ctx.Assets.GetAssets(cmd.Context(), filter)
			if err != nil {
				return err
			}

			return output.Write(cmd.OutOrStdout(), flags.format, assets, func(tw *tabwriter.Writer) {
				output.Row(tw, "KIND", "CATEGORY", "TYPE", "SUBTYPE", "NAME", "TOKENS")
				for _, a := range assets {
					c := a.Classification
					output.Row(tw, c.Kind, c.Category, c.Type, dash(c.Subtype), a.Name, tokenList(a.Tokens))
				}
			})
		},
	}

	f := cmd.Flags()
	f.StringVar(&flags.kind, "kind", "", "Only list assets of this kind")
	f.StringVar(&flags.category, "category", "", "Only list assets in this category")
	f.StringVar(&flags.typ, "type", "", "Only list assets of this type")
	f.StringVar(&flags.subtype, "subtype", "", "Only list assets of this subtype")
	f.StringVar(&flags.name, "name", "", "Only list assets with this name")
	output.AddFlag(cmd, &flags.format)

	return cmd
}

func tokenList(tokens []taxonomy.Resource) string {
	if len(tokens) == 0 {
		return "-"
	}
	parts := make([]string, len(tokens))
	for i, t := range tokens {
		parts[i] = t.Description
	}
	return strings.Join(parts, ",")
}

func dash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
