package cmd

import (
	"fmt"
	"log"

	"github.com/spf13/cobra"

	"mspro-labs/import-scout/internal/cache"
	"mspro-labs/import-scout/internal/config"
)

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Inspect or clear the fetched-page cache",
}

var cacheListCmd = &cobra.Command{
	Use:   "list",
	Short: "List cached pages, newest first",
	Run: func(cmd *cobra.Command, args []string) {
		store := openStore()
		defer store.Close()

		entries, err := store.List()
		if err != nil {
			log.Fatalf("Failed to list cache: %v", err)
		}
		if len(entries) == 0 {
			fmt.Println("Cache is empty.")
			return
		}
		for _, e := range entries {
			fmt.Printf("[%s] %7d bytes  %s\n",
				e.FetchedAt.Format("2006-01-02 15:04"), e.Size, e.URL)
		}
	},
}

var cacheClearCmd = &cobra.Command{
	Use:   "clear <url|all>",
	Short: "Remove one cached page, or everything",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		store := openStore()
		defer store.Close()

		var affected int64
		var err error
		if args[0] == "all" {
			affected, err = store.ClearAll()
		} else {
			affected, err = store.Clear(args[0])
		}
		if err != nil {
			log.Fatalf("Failed to clear cache: %v", err)
		}
		fmt.Printf("Done. Removed %d page(s) from cache.\n", affected)
	},
}

func init() {
	cacheCmd.AddCommand(cacheListCmd)
	cacheCmd.AddCommand(cacheClearCmd)
	rootCmd.AddCommand(cacheCmd)
}

func openStore() *cache.Store {
	appCfg, err := config.GetAppConfig()
	if err != nil {
		log.Fatalf("Config error: %v", err)
	}
	marketCfg, err := config.LoadMarketConfig(appCfg.ConfigPath)
	if err != nil {
		log.Fatalf("Market configuration error: %v", err)
	}
	store, err := cache.Open(appCfg.CachePath, marketCfg.CacheTTL())
	if err != nil {
		log.Fatalf("Cache error: %v", err)
	}
	return store
}
