// Package info implements the info command.
package info

import (
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/vtttools/mediastore/cmd/output"
	"github.com/vtttools/mediastore/internal/app"
	"github.com/vtttools/mediastore/internal/errors"
)

// Command creates the info command.
func Command(ctx *app.Context) *cobra.Command {
	var genre, format string

	cmd := &cobra.Command{
		Use:   "info [category] [type] [subtype] [name]",
		Short: "Show every variant and pose stored for an entity",
		Args:  cobra.ExactArgs(4),
		RunE: func(cmd *cobra.Command, args []string) error {
			info, err := ctx.Entities.GetEntityInfo(cmd.Context(), genre, args[0], args[1], args[2], args[3])
			if err != nil {
				return err
			}
			if info == nil {
				return errors.Newf("entity %q not found", args[3]).
					Component("cli").
					Category(errors.CategoryNotFound).
					Build()
			}

			return output.Write(cmd.OutOrStdout(), format, info, func(tw *tabwriter.Writer) {
				output.Row(tw, "VARIANT", "POSE", "TYPE", "SIZE", "PATH")
				for _, v := range info.Variants {
					for _, p := range v.Poses {
						output.Row(tw, v.VariantID, p.PoseNumber, p.ImageType, p.Size, p.Path)
					}
				}
			})
		},
	}

	cmd.Flags().StringVar(&genre, "genre", "", "Entity genre (default from storage.entities.defaultgenre)")
	output.AddFlag(cmd, &format)

	return cmd
}
