package cmd

import (
	"log"

	"github.com/spf13/cobra"

	"github.com/bridgedoc/bridgedoc/internal/config"
	"github.com/bridgedoc/bridgedoc/internal/mcp"
	"github.com/bridgedoc/bridgedoc/internal/store"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve stored documentation over MCP on stdio",
	Long: `serve exposes every build saved to the local store as MCP
resources (pydoc:// URIs) and tools. Run "bridgedoc build" first.`,
	Run: runServe,
}

func runServe(cmd *cobra.Command, args []string) {
	st, err := store.New(config.StorePath())
	if err != nil {
		log.Fatalf("opening store: %v", err)
	}
	defer st.Close()

	server := mcp.NewServer(st, rootCmd.Version)
	if err := server.Run(); err != nil {
		log.Fatalf("server error: %v", err)
	}
}
