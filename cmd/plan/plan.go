// Package plan implements the plan command, which compares a definitions
// file against the asset store and reports what still has to be generated.
package plan

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/vtttools/mediastore/cmd/output"
	"github.com/vtttools/mediastore/internal/app"
	"github.com/vtttools/mediastore/internal/assetstore"
	"github.com/vtttools/mediastore/internal/errors"
	"github.com/vtttools/mediastore/internal/taxonomy"
)

// Item is the generation state of one rendering.
type Item struct {
	Asset     string `json:"asset" yaml:"asset"`
	Kind      string `json:"kind" yaml:"kind"`
	Token     int    `json:"token" yaml:"token"`
	ImageType string `json:"imageType" yaml:"image_type"`
	HasImage  bool   `json:"hasImage" yaml:"has_image"`
	HasPrompt bool   `json:"hasPrompt" yaml:"has_prompt"`
}

// Complete reports whether both the image and its prompt are stored.
func (i Item) Complete() bool {
	return i.HasImage && i.HasPrompt
}

type planFlags struct {
	name   string
	all    bool
	format string
}

// Command creates the plan command.
func Command(ctx *app.Context) *cobra.Command {
	var flags planFlags

	cmd := &cobra.Command{
		Use:   "plan [definitions.json]",
		Short: "Report which images and prompts are missing for a definitions file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			assets, err := taxonomy.LoadAssets(args[0])
			if err != nil {
				return err
			}

			items, err := build(cmd, ctx.Assets, assets, flags.name)
			if err != nil {
				return err
			}

			missing := 0
			shown := make([]Item, 0, len(items))
			for _, it := range items {
				if !it.Complete() {
					missing++
				}
				if flags.all || !it.Complete() {
					shown = append(shown, it)
				}
			}

			return output.Write(cmd.OutOrStdout(), flags.format, shown, func(tw *tabwriter.Writer) {
				output.Row(tw, "ASSET", "KIND", "TOKEN", "IMAGE TYPE", "IMAGE", "PROMPT")
				for _, it := range shown {
					output.Row(tw, it.Asset, it.Kind, it.Token, it.ImageType, mark(it.HasImage), mark(it.HasPrompt))
				}
				fmt.Fprintf(tw, "\n%d of %d renderings incomplete\n", missing, len(items))
			})
		},
	}

	f := cmd.Flags()
	f.StringVar(&flags.name, "name", "", "Only plan the asset with this name")
	f.BoolVar(&flags.all, "all", false, "Include renderings that are already complete")
	output.AddFlag(cmd, &flags.format)

	return cmd
}

// build probes every role of every token of the selected assets. An asset
// without tokens is planned as its base token.
func build(cmd *cobra.Command, store *assetstore.Store, assets []taxonomy.Asset, name string) ([]Item, error) {
	var items []Item
	for i := range assets {
		asset := &assets[i]
		if name != "" && !strings.EqualFold(strings.TrimSpace(asset.Name), strings.TrimSpace(name)) {
			continue
		}
		if err := cmd.Context().Err(); err != nil {
			return nil, errors.Cancelled(err, "plan")
		}

		indices := []int{0}
		if len(asset.Tokens) > 0 {
			indices = indices[:0]
			for _, t := range asset.Tokens {
				indices = append(indices, t.Index)
			}
		}

		for _, idx := range indices {
			for _, role := range store.ImageTypes(asset.Classification.Kind) {
				hasImage, err := store.ImageFileExists(role, asset, idx)
				if err != nil {
					return nil, err
				}
				hasPrompt, err := store.PromptFileExists(role, asset, idx)
				if err != nil {
					return nil, err
				}
				items = append(items, Item{
					Asset:     asset.Name,
					Kind:      asset.Classification.Kind.String(),
					Token:     idx,
					ImageType: role,
					HasImage:  hasImage,
					HasPrompt: hasPrompt,
				})
			}
		}
	}
	if name != "" && len(items) == 0 {
		return nil, errors.Newf("no definition named %q with generated image types", name).
			Component("cli").
			Category(errors.CategoryNotFound).
			Build()
	}
	return items, nil
}

func mark(ok bool) string {
	if ok {
		return "yes"
	}
	return "missing"
}
