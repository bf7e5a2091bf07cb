// Package summary implements the summary command.
package summary

import (
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/vtttools/mediastore/cmd/output"
	"github.com/vtttools/mediastore/internal/app"
	"github.com/vtttools/mediastore/internal/entitystore"
)

// Command creates the summary command.
func Command(ctx *app.Context) *cobra.Command {
	var (
		filter entitystore.Filter
		format string
	)

	cmd := &cobra.Command{
		Use:   "summary",
		Short: "Summarize entities with their variant and pose counts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			summaries, err := ctx.Entities.GetEntitySummaries(cmd.Context(), filter)
			if err != nil {
				return err
			}

			return output.Write(cmd.OutOrStdout(), format, summaries, func(tw *tabwriter.Writer) {
				output.Row(tw, "GENRE", "CATEGORY", "TYPE", "SUBTYPE", "NAME", "VARIANTS", "POSES")
				for _, s := range summaries {
					output.Row(tw, s.Genre, s.Category, s.Type, s.Subtype, s.Name, s.VariantCount, s.TotalPoseCount)
				}
			})
		},
	}

	f := cmd.Flags()
	f.StringVar(&filter.Genre, "genre", "", "Only include this genre")
	f.StringVar(&filter.Category, "category", "", "Only include this category")
	f.StringVar(&filter.Type, "type", "", "Only include this type")
	f.StringVar(&filter.Subtype, "subtype", "", "Only include this subtype")
	f.StringVar(&filter.Name, "name", "", "Only include entities with this name")
	output.AddFlag(cmd, &format)

	return cmd
}
