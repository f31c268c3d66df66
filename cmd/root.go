package cmd

import (
	"log"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
)

var (
	projectDir string
	verbose    bool
)

var rootCmd = &cobra.Command{
	Use:     "bridgedoc",
	Version: "0.1.0",
	Short:   "Unified documentation for Rust/Python hybrid projects",
	Long: `bridgedoc builds a single documentation model from a project that
mixes Rust and Python through native bindings, resolving which Python
items are implemented by which Rust items, and renders it as markdown.`,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		log.Fatalf("command failed: %v", err)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&projectDir, "project", "p", ".", "project directory containing bridgedoc.toml")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")

	cobra.OnInitialize(func() {
		level := slog.LevelWarn
		if verbose {
			level = slog.LevelDebug
		}
		slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
	})

	rootCmd.AddCommand(buildCmd)
	rootCmd.AddCommand(checkCmd)
	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(cacheCmd)
	rootCmd.AddCommand(serveCmd)
}
