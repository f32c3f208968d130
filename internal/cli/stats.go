package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/kirillkom/ai-closet/internal/client"
	"github.com/kirillkom/ai-closet/internal/core/view"
)

type statsReport struct {
	Items      int                  `json:"items"`
	Outfits    int                  `json:"outfits"`
	Categories []view.CategoryCount `json:"categories"`
	ItemTags   []view.TagCount      `json:"itemTags"`
	OutfitTags []view.TagCount      `json:"outfitTags"`
}

func newStatsCommand(root *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Summarize the wardrobe by category and tag",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			closet := client.NewCloset(root.backend(), nil)
			if err := closet.Load(cmd.Context()); err != nil {
				return WrapExitError(ExitFailure, "load closet", err)
			}
			report := statsReport{
				Items:      len(closet.Items()),
				Outfits:    len(closet.Outfits()),
				Categories: closet.CategoryCounts(),
				ItemTags:   closet.TagFrequency(),
				OutfitTags: closet.OutfitTagFrequency(),
			}
			return root.formatter(cmd).Render(report, func(w io.Writer) error {
				return writeStats(w, report)
			})
		},
	}
}

func writeStats(w io.Writer, r statsReport) error {
	fmt.Fprintf(w, "items: %d\noutfits: %d\n", r.Items, r.Outfits)
	fmt.Fprintln(w, "categories:")
	for _, c := range r.Categories {
		fmt.Fprintf(w, "  %s: %d\n", c.Category, c.Count)
	}
	fmt.Fprintln(w, "item tags:")
	for _, t := range r.ItemTags {
		fmt.Fprintf(w, "  %s: %d\n", t.Tag, t.Count)
	}
	fmt.Fprintln(w, "outfit tags:")
	for _, t := range r.OutfitTags {
		if _, err := fmt.Fprintf(w, "  %s: %d\n", t.Tag, t.Count); err != nil {
			return err
		}
	}
	return nil
}
