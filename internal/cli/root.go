// Package cli implements the closet command-line client.
package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"github.com/kirillkom/ai-closet/internal/client"
	"github.com/kirillkom/ai-closet/internal/core/domain"
	"github.com/kirillkom/ai-closet/internal/observability/logging"
)

// Backend is the API surface the commands use.
type Backend interface {
	client.API
	GetItem(ctx context.Context, id string) (*domain.ClothingItem, error)
}

// BackendFactory builds a Backend from the resolved global flags.
type BackendFactory func(opts *RootOptions) Backend

// RootOptions holds global flags for all commands.
type RootOptions struct {
	BaseURL string
	UserID  string
	Token   string
	Output  string
	Verbose bool

	newBackend BackendFactory
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json", "yaml"}

func (o *RootOptions) backend() Backend {
	return o.newBackend(o)
}

func defaultBackend(opts *RootOptions) Backend {
	return client.New(opts.BaseURL, opts.UserID, client.WithToken(opts.Token))
}

func NewRootCommand() *cobra.Command {
	return newRootCommand(defaultBackend)
}

func newRootCommand(factory BackendFactory) *cobra.Command {
	opts := &RootOptions{newBackend: factory}

	cmd := &cobra.Command{
		Use:   "closet",
		Short: "Manage a digital wardrobe from the terminal",
		Long: `closet uploads clothing photos, follows their background removal and
categorization, and queries the wardrobe and its outfits.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if !slices.Contains(ValidFormats, opts.Output) {
				return NewExitError(ExitCommandError, fmt.Sprintf("invalid output %q: must be one of %v", opts.Output, ValidFormats))
			}
			if strings.TrimSpace(opts.UserID) == "" && strings.TrimSpace(opts.Token) == "" {
				return NewExitError(ExitCommandError, "either --user or --token is required")
			}
			level := "warn"
			if opts.Verbose {
				level = "debug"
			}
			errOut := &syncWriter{w: cmd.ErrOrStderr()}
			cmd.Root().SetErr(errOut)
			slog.SetDefault(logging.NewTextLogger(errOut, level))
			return nil
		},
	}

	cmd.PersistentFlags().StringVar(&opts.BaseURL, "api-url", envOr("CLOSET_API_URL", "http://localhost:3000"), "wardrobe API base URL")
	cmd.PersistentFlags().StringVarP(&opts.UserID, "user", "u", os.Getenv("CLOSET_USER_ID"), "user id to act as")
	cmd.PersistentFlags().StringVar(&opts.Token, "token", os.Getenv("CLOSET_TOKEN"), "bearer token for authenticated APIs")
	cmd.PersistentFlags().StringVarP(&opts.Output, "output", "o", "text", "output format (text|json|yaml)")
	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")

	cmd.AddCommand(newUploadCommand(opts))
	cmd.AddCommand(newListCommand(opts))
	cmd.AddCommand(newGetCommand(opts))
	cmd.AddCommand(newStatsCommand(opts))
	cmd.AddCommand(newUsageCommand(opts, domain.UsageWorn))
	cmd.AddCommand(newUsageCommand(opts, domain.UsageWashed))
	cmd.AddCommand(newDeleteCommand(opts))
	cmd.AddCommand(newOutfitsCommand(opts))

	return cmd
}

func (o *RootOptions) formatter(cmd *cobra.Command) *OutputFormatter {
	return &OutputFormatter{
		Format:    o.Output,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   o.Verbose,
	}
}

func envOr(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}
