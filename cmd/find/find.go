// Package find implements the find command.
package find

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

// TokenFiles lists the stored files of one token.
type TokenFiles struct {
	Index   int      `json:"index" yaml:"index"`
	Images  []string `json:"images" yaml:"images"`
	Prompts []string `json:"prompts" yaml:"prompts"`
}

// Result is the rendered outcome of a lookup.
type Result struct {
	Asset  *taxonomy.Asset `json:"asset" yaml:"asset"`
	Tokens []TokenFiles    `json:"tokens" yaml:"tokens"`
}

// Command creates the find command.
func Command(ctx *app.Context) *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "find [name]",
		Short: "Find an asset by name and list its stored files",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			asset, err := ctx.Assets.FindAsset(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if asset == nil {
				return errors.Newf("asset %q not found", args[0]).
					Component("cli").
					Category(errors.CategoryNotFound).
					Build()
			}

			result, err := collect(ctx.Assets, asset)
			if err != nil {
				return err
			}

			return output.Write(cmd.OutOrStdout(), format, result, func(tw *tabwriter.Writer) {
				c := asset.Classification
				fmt.Fprintf(tw, "%s (%s/%s/%s", asset.Name, c.Kind, c.Category, c.Type)
				if c.Subtype != "" {
					fmt.Fprintf(tw, "/%s", c.Subtype)
				}
				fmt.Fprintln(tw, ")")
				output.Row(tw, "TOKEN", "IMAGES", "PROMPTS")
				for _, tf := range result.Tokens {
					output.Row(tw, tf.Index, strings.Join(tf.Images, ", "), strings.Join(tf.Prompts, ", "))
				}
			})
		},
	}
	output.AddFlag(cmd, &format)

	return cmd
}

// collect probes the files of every discovered token.
func collect(store *assetstore.Store, asset *taxonomy.Asset) (Result, error) {
	result := Result{Asset: asset, Tokens: []TokenFiles{}}
	for _, token := range asset.Tokens {
		images, err := store.GetExistingImageFiles(asset, token.Index)
		if err != nil {
			return Result{}, err
		}
		prompts, err := store.GetExistingPromptFiles(asset, token.Index)
		if err != nil {
			return Result{}, err
		}
		result.Tokens = append(result.Tokens, TokenFiles{Index: token.Index, Images: images, Prompts: prompts})
	}
	return result, nil
}
