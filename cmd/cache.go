package cmd

import (
	"fmt"
	"log"

	"github.com/spf13/cobra"

	"github.com/bridgedoc/bridgedoc/internal/cache"
)

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Manage model snapshots",
}

var cacheListCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored snapshots",
	Run:   runCacheList,
}

var cacheClearCmd = &cobra.Command{
	Use:   "clear <project>",
	Short: "Remove a stored snapshot",
	Args:  cobra.ExactArgs(1),
	Run:   runCacheClear,
}

func init() {
	cacheCmd.AddCommand(cacheListCmd)
	cacheCmd.AddCommand(cacheClearCmd)
}

func runCacheList(cmd *cobra.Command, args []string) {
	entries, err := cache.List()
	if err != nil {
		log.Fatalf("listing snapshots: %v", err)
	}
	if len(entries) == 0 {
		fmt.Println("no snapshots stored")
		return
	}
	for _, e := range entries {
		fmt.Printf("%-30s %8d bytes  %s\n", e.Name, e.Size, e.Modified.Format("2006-01-02 15:04"))
	}
}

func runCacheClear(cmd *cobra.Command, args []string) {
	if err := cache.Clear(args[0]); err != nil {
		log.Fatalf("clearing snapshot: %v", err)
	}
	fmt.Printf("cleared snapshot %s\n", args[0])
}
