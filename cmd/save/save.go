// Package save implements the commands that write files into the stores.
package save

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/vtttools/mediastore/internal/app"
	"github.com/vtttools/mediastore/internal/errors"
	"github.com/vtttools/mediastore/internal/imagetype"
	"github.com/vtttools/mediastore/internal/taxonomy"
)

type assetFlags struct {
	kind      string
	category  string
	typ       string
	subtype   string
	name      string
	imageType string
	variant   int
	prompt    bool
}

// Command creates the save command for the asset store.
func Command(ctx *app.Context) *cobra.Command {
	var flags assetFlags

	cmd := &cobra.Command{
		Use:   "save [file]",
		Short: "Save an image or prompt for an asset",
		Long: "Save FILE as the image (or, with --prompt, the prompt) of one asset token.\n" +
			"Use - to read from standard input.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			kind, ok := taxonomy.ParseKind(flags.kind)
			if !ok {
				return errors.InvalidArgument("kind", "unknown asset kind %q", flags.kind)
			}
			asset := &taxonomy.Asset{
				Name: flags.name,
				Classification: taxonomy.Classification{
					Kind:     kind,
					Category: flags.category,
					Type:     flags.typ,
					Subtype:  flags.subtype,
				},
			}

			content, err := readInput(cmd, args[0])
			if err != nil {
				return err
			}

			var path string
			if flags.prompt {
				path, err = ctx.Assets.SavePrompt(cmd.Context(), flags.imageType, asset, flags.variant, string(content))
			} else {
				path, err = ctx.Assets.SaveImage(cmd.Context(), flags.imageType, asset, flags.variant, content)
			}
			if err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), path)
			return nil
		},
	}

	f := cmd.Flags()
	f.StringVar(&flags.kind, "kind", "", "Asset kind: Character, Creature, Effect, Object")
	f.StringVar(&flags.category, "category", "", "Asset category")
	f.StringVar(&flags.typ, "type", "", "Asset type")
	f.StringVar(&flags.subtype, "subtype", "", "Asset subtype (optional)")
	f.StringVar(&flags.name, "name", "", "Asset name")
	f.StringVar(&flags.imageType, "image-type", imagetype.TopDown, "Image type, e.g. TopDown, CloseUp, Portrait")
	f.IntVar(&flags.variant, "variant", 0, "Token variant index; 0 is the base token")
	f.BoolVar(&flags.prompt, "prompt", false, "Store FILE as the prompt text instead of the image")
	for _, name := range []string{"kind", "category", "type", "name"} {
		_ = cmd.MarkFlagRequired(name)
	}

	return cmd
}

// readInput reads path, or standard input when path is "-".
func readInput(cmd *cobra.Command, path string) ([]byte, error) {
	if path == "-" {
		data, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return nil, errors.New(err).
				Component("cli").
				Category(errors.CategoryFileIO).
				Context("operation", "read_stdin").
				Build()
		}
		return data, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.New(err).
			Component("cli").
			Category(errors.CategoryFileIO).
			Context("operation", "read_input").
			Build()
	}
	return data, nil
}
