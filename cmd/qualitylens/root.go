package main

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"
)

// version is set at build time via -ldflags.
var version = "dev"

func newRootCmd() *cobra.Command {
	var verbose bool

	root := &cobra.Command{
		Use:   "qualitylens",
		Short: "Quality analytics for the electronics assembly line",
		Long: "qualitylens answers analytic questions over inspection checklists,\n" +
			"trains the local intent model and mints API keys.",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		CompletionOptions: cobra.CompletionOptions{
			HiddenDefaultCmd: true,
		},
		PersistentPreRun: func(cmd *cobra.Command, _ []string) {
			level := slog.LevelWarn
			if verbose {
				level = slog.LevelDebug
			}
			slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
		},
	}
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "log analyzer decisions to stderr")

	root.AddCommand(newAskCmd())
	root.AddCommand(newIntentsCmd())
	root.AddCommand(newKeysCmd())
	return root
}
