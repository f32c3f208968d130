package cli

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/kirillkom/ai-closet/internal/client"
	"github.com/kirillkom/ai-closet/internal/core/domain"
	"github.com/kirillkom/ai-closet/internal/core/view"
)

type uploadOptions struct {
	wait         bool
	pollInterval time.Duration
	maxAttempts  int
}

func newUploadCommand(root *RootOptions) *cobra.Command {
	opts := &uploadOptions{}

	cmd := &cobra.Command{
		Use:   "upload <image>",
		Short: "Upload a clothing photo and follow its processing",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runUpload(cmd, root, opts, args[0])
		},
	}

	cmd.Flags().BoolVar(&opts.wait, "wait", true, "wait until background removal and categorization settle")
	cmd.Flags().DurationVar(&opts.pollInterval, "poll-interval", client.DefaultPollInterval, "delay between status checks")
	cmd.Flags().IntVar(&opts.maxAttempts, "max-attempts", client.DefaultPollMaxAttempts, "status re-checks after the first one before giving up")

	return cmd
}

func runUpload(cmd *cobra.Command, root *RootOptions, opts *uploadOptions, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return WrapExitError(ExitCommandError, "open image", err)
	}
	defer f.Close()

	out := root.formatter(cmd)
	backend := root.backend()
	ctx := cmd.Context()
	filename := filepath.Base(path)

	if !opts.wait {
		created, err := backend.CreateItem(ctx, filename, f)
		if err != nil {
			return WrapExitError(ExitFailure, "upload image", err)
		}
		return out.Render(created, func(w io.Writer) error {
			return writeItemLine(w, *created)
		})
	}

	closet := client.NewCloset(backend, client.NewPoller(backend, opts.pollInterval, opts.maxAttempts))
	var stageErr string
	created, err := closet.AddFromImage(ctx, filename, f, client.Callbacks{
		OnBackgroundRemoved: func(it domain.ClothingItem) {
			out.VerboseLog("%s: background removed", it.ID)
		},
		OnCategorized: func(it domain.ClothingItem) {
			out.VerboseLog("%s: categorized as %s", it.ID, it.Category)
		},
		OnError: func(it domain.ClothingItem, message string) {
			stageErr = message
			fmt.Fprintf(out.ErrWriter, "%s: processing error: %s\n", it.ID, message)
		},
	})
	if err != nil {
		return WrapExitError(ExitFailure, "upload image", err)
	}
	out.VerboseLog("%s: uploaded, waiting for processing", created.ID)
	closet.Wait()

	final, _ := closet.Item(created.ID)
	if err := out.Render(final, func(w io.Writer) error {
		return writeItemLine(w, final)
	}); err != nil {
		return err
	}
	if !final.ProcessingStatus.Done() {
		return NewExitError(ExitFailure, "processing did not finish in time")
	}
	if stageErr != "" {
		return NewExitError(ExitFailure, stageErr)
	}
	return nil
}

type listOptions struct {
	category string
	tags     []string
}

func newListCommand(root *RootOptions) *cobra.Command {
	opts := &listOptions{}

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List clothing items",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			closet := client.NewCloset(root.backend(), nil)
			if err := closet.Load(cmd.Context()); err != nil {
				return WrapExitError(ExitFailure, "load closet", err)
			}
			items := closet.FilteredItems(view.Filter{Category: opts.category, Tags: opts.tags})
			return root.formatter(cmd).Render(items, func(w io.Writer) error {
				for _, it := range items {
					if err := writeItemLine(w, it); err != nil {
						return err
					}
				}
				_, err := fmt.Fprintf(w, "total: %d\n", len(items))
				return err
			})
		},
	}

	cmd.Flags().StringVar(&opts.category, "category", domain.CategoryAll, "only items of this category")
	cmd.Flags().StringArrayVar(&opts.tags, "tag", nil, "only items carrying this tag (repeatable)")

	return cmd
}

func newGetCommand(root *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "get <id>",
		Short: "Show one clothing item",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			item, err := root.backend().GetItem(cmd.Context(), args[0])
			if err != nil {
				return WrapExitError(ExitFailure, "get item", err)
			}
			return root.formatter(cmd).Render(item, func(w io.Writer) error {
				return writeItemDetail(w, *item)
			})
		},
	}
}

func newUsageCommand(root *RootOptions, action domain.UsageAction) *cobra.Command {
	return &cobra.Command{
		Use:   string(action) + " <id>",
		Short: fmt.Sprintf("Record that an item was %s", action),
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			item, err := root.backend().RecordUsage(cmd.Context(), args[0], action)
			if err != nil {
				return WrapExitError(ExitFailure, "record usage", err)
			}
			return root.formatter(cmd).Render(item, func(w io.Writer) error {
				return writeItemLine(w, *item)
			})
		},
	}
}

func newDeleteCommand(root *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a clothing item",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := root.backend().DeleteItem(cmd.Context(), args[0]); err != nil {
				return WrapExitError(ExitFailure, "delete item", err)
			}
			result := map[string]string{"deleted": args[0]}
			return root.formatter(cmd).Render(result, func(w io.Writer) error {
				_, err := fmt.Fprintf(w, "deleted %s\n", args[0])
				return err
			})
		},
	}
}

func writeItemLine(w io.Writer, it domain.ClothingItem) error {
	_, err := fmt.Fprintf(w, "%s  %s  bg=%s cat=%s  worn=%d washed=%d  tags=%s\n",
		it.ID,
		orDefault(it.Category, "uncategorized"),
		it.ProcessingStatus.BackgroundRemoval,
		it.ProcessingStatus.Categorization,
		it.WearCount,
		it.WashCount,
		joinOrDash(it.Tags),
	)
	return err
}

func writeItemDetail(w io.Writer, it domain.ClothingItem) error {
	rows := [][2]string{
		{"id", it.ID},
		{"category", orDefault(it.Category, "uncategorized")},
		{"subcategory", orDefault(it.Subcategory, "-")},
		{"color", joinOrDash(it.Color)},
		{"season", joinOrDash(it.Season)},
		{"occasion", joinOrDash(it.Occasion)},
		{"tags", joinOrDash(it.Tags)},
		{"image", orDefault(it.ImageURI, "-")},
		{"cutout", orDefault(it.BackgroundRemovedImageURI, "-")},
		{"backgroundRemoval", stageText(it.ProcessingStatus.BackgroundRemoval, it.ProcessingError.BackgroundRemoval)},
		{"categorization", stageText(it.ProcessingStatus.Categorization, it.ProcessingError.Categorization)},
		{"worn", fmt.Sprintf("%d", it.WearCount)},
		{"washed", fmt.Sprintf("%d", it.WashCount)},
	}
	for _, row := range rows {
		if _, err := fmt.Fprintf(w, "%-18s %s\n", row[0]+":", row[1]); err != nil {
			return err
		}
	}
	return nil
}

func stageText(status domain.StageStatus, message string) string {
	if status == domain.StageError && message != "" {
		return fmt.Sprintf("%s (%s)", status, message)
	}
	return string(status)
}

func joinOrDash(values []string) string {
	if len(values) == 0 {
		return "-"
	}
	return strings.Join(values, ",")
}

func orDefault(v, fallback string) string {
	if strings.TrimSpace(v) == "" {
		return fallback
	}
	return v
}
