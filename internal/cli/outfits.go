package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/kirillkom/ai-closet/internal/client"
	"github.com/kirillkom/ai-closet/internal/core/domain"
	"github.com/kirillkom/ai-closet/internal/core/view"
)

func newOutfitsCommand(root *RootOptions) *cobra.Command {
	var tags []string

	cmd := &cobra.Command{
		Use:   "outfits",
		Short: "List outfits",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			closet := client.NewCloset(root.backend(), nil)
			if err := closet.Load(cmd.Context()); err != nil {
				return WrapExitError(ExitFailure, "load closet", err)
			}
			outfits := closet.FilteredOutfits(view.Filter{Tags: tags})
			return root.formatter(cmd).Render(outfits, func(w io.Writer) error {
				for i := range outfits {
					if err := writeOutfitLine(w, &outfits[i]); err != nil {
						return err
					}
				}
				_, err := fmt.Fprintf(w, "total: %d\n", len(outfits))
				return err
			})
		},
	}
	cmd.Flags().StringArrayVar(&tags, "tag", nil, "only outfits carrying this tag (repeatable)")

	cmd.AddCommand(&cobra.Command{
		Use:   "delete <id>",
		Short: "Delete an outfit",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := root.backend().DeleteOutfit(cmd.Context(), args[0]); err != nil {
				return WrapExitError(ExitFailure, "delete outfit", err)
			}
			result := map[string]string{"deleted": args[0]}
			return root.formatter(cmd).Render(result, func(w io.Writer) error {
				_, err := fmt.Fprintf(w, "deleted %s\n", args[0])
				return err
			})
		},
	})

	return cmd
}

func writeOutfitLine(w io.Writer, o *domain.Outfit) error {
	_, err := fmt.Fprintf(w, "%s  items=%d maxZ=%d  tags=%s\n",
		o.ID, len(o.ClothingItems), o.MaxZIndex(), joinOrDash(o.Tags))
	return err
}
