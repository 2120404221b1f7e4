package cmd

import (
	"fmt"
	"log"
	"os"

	"github.com/spf13/cobra"

	"mspro-labs/import-scout/internal/cache"
	"mspro-labs/import-scout/internal/config"
	"mspro-labs/import-scout/internal/fetch"
	"mspro-labs/import-scout/internal/pipeline"
)

var rootCmd = &cobra.Command{
	Use:   "import-scout",
	Short: "Rank German used-car listings by French resale opportunity",
	Long: `import-scout fetches mobile.de listings, extracts the vehicle attributes,
estimates French resale price, import costs, margin and liquidity, and ranks
the batch by composite opportunity score.`,
}

// Execute runs the CLI.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// buildRunner wires config, cache and browser into a pipeline Runner.
// The returned cleanup must be called when the batch is done.
func buildRunner() (config.AppConfig, *pipeline.Runner, func(), error) {
	appCfg, err := config.GetAppConfig()
	if err != nil {
		return appCfg, nil, nil, fmt.Errorf("app configuration error: %w", err)
	}
	marketCfg, err := config.LoadMarketConfig(appCfg.ConfigPath)
	if err != nil {
		return appCfg, nil, nil, fmt.Errorf("market configuration error: %w", err)
	}

	store, err := cache.Open(appCfg.CachePath, marketCfg.CacheTTL())
	if err != nil {
		return appCfg, nil, nil, fmt.Errorf("cache error: %w", err)
	}

	browser, err := fetch.NewBrowser(marketCfg, appCfg.ChromeBin)
	if err != nil {
		store.Close()
		return appCfg, nil, nil, fmt.Errorf("browser error: %w", err)
	}

	cleanup := func() {
		browser.Close()
		if err := store.Close(); err != nil {
			log.Printf("Warning: failed to close cache: %v", err)
		}
	}

	runner := pipeline.New(marketCfg, cache.NewFetcher(store, browser))
	return appCfg, runner, cleanup, nil
}
