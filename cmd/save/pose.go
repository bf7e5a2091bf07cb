package save

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/vtttools/mediastore/internal/app"
	"github.com/vtttools/mediastore/internal/imagetype"
	"github.com/vtttools/mediastore/internal/taxonomy"
)

type poseFlags struct {
	genre     string
	category  string
	typ       string
	subtype   string
	name      string
	variantID string
	imageType string
	metadata  bool
}

// PoseCommand creates the save-pose command for the entity store.
func PoseCommand(ctx *app.Context) *cobra.Command {
	var flags poseFlags

	cmd := &cobra.Command{
		Use:   "save-pose [file]",
		Short: "Save a pose image or metadata for an entity variant",
		Long: "Save FILE as one pose of an entity's structural variant, or with --metadata\n" +
			"replace the variant's metadata.json. Use - to read from standard input.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			entity := &taxonomy.EntityDefinition{
				Name:     flags.name,
				Genre:    flags.genre,
				Category: flags.category,
				Type:     flags.typ,
				Subtype:  flags.subtype,
			}
			variant := &taxonomy.StructuralVariant{VariantID: flags.variantID}

			content, err := readInput(cmd, args[0])
			if err != nil {
				return err
			}

			var path string
			if flags.metadata {
				path, err = ctx.Entities.SaveMetadata(cmd.Context(), entity, variant, string(content))
			} else {
				path, err = ctx.Entities.SaveImage(cmd.Context(), entity, variant, content, flags.imageType)
			}
			if err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), path)
			return nil
		},
	}

	f := cmd.Flags()
	f.StringVar(&flags.genre, "genre", "", "Entity genre (default from storage.entities.defaultgenre)")
	f.StringVar(&flags.category, "category", "", "Entity category")
	f.StringVar(&flags.typ, "type", "", "Entity type")
	f.StringVar(&flags.subtype, "subtype", "", "Entity subtype")
	f.StringVar(&flags.name, "name", "", "Entity name")
	f.StringVar(&flags.variantID, "variant-id", "", "Structural variant id, e.g. male-warrior")
	f.StringVar(&flags.imageType, "image-type", imagetype.TopDown, "Pose image type: TopDown, Miniature, Photo, Portrait")
	f.BoolVar(&flags.metadata, "metadata", false, "Store FILE as the variant metadata JSON instead of a pose")
	for _, name := range []string{"category", "type", "subtype", "name", "variant-id"} {
		_ = cmd.MarkFlagRequired(name)
	}

	return cmd
}
