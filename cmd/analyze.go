package cmd

import (
	"context"
	"fmt"
	"log"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"mspro-labs/import-scout/internal/models"
	"mspro-labs/import-scout/internal/pipeline"
)

var (
	analyzeFile   string
	analyzeSearch string
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze [listing-url ...]",
	Short: "Fetch, score and rank a batch of listings",
	Long: `Analyzes the given listing URLs (or a file of pasted links, or every
listing found on a search-results page) and prints the ranked table plus the
top opportunities.

Examples:
  import-scout analyze https://m.mobile.de/fahrzeuge/details.html?id=123
  import-scout analyze --file links.txt
  import-scout analyze --search "https://suchen.mobile.de/fahrzeuge/search.html?..."`,
	Run: func(cmd *cobra.Command, args []string) {
		runAnalyze(args)
	},
}

func init() {
	analyzeCmd.Flags().StringVarP(&analyzeFile, "file", "f", "", "file with one listing link per line")
	analyzeCmd.Flags().StringVar(&analyzeSearch, "search", "", "search-results URL to harvest listings from")
	rootCmd.AddCommand(analyzeCmd)
}

func runAnalyze(args []string) {
	_, runner, cleanup, err := buildRunner()
	if err != nil {
		log.Fatalf("Setup failed: %v", err)
	}
	defer cleanup()

	ctx := context.Background()

	urls, err := collectURLs(ctx, runner, args)
	if err != nil {
		log.Fatalf("%v", err)
	}

	result, err := runner.Run(ctx, urls)
	if err != nil {
		log.Fatalf("Analysis failed: %v", err)
	}

	printResults(result)
}

func collectURLs(ctx context.Context, runner *pipeline.Runner, args []string) ([]string, error) {
	urls := append([]string(nil), args...)

	if analyzeFile != "" {
		data, err := os.ReadFile(analyzeFile)
		if err != nil {
			return nil, fmt.Errorf("failed to read link file: %w", err)
		}
		urls = append(urls, runner.CleanLinks(string(data))...)
	}

	if analyzeSearch != "" {
		harvested, err := runner.Harvest(ctx, analyzeSearch)
		if err != nil {
			return nil, fmt.Errorf("failed to harvest search page: %w", err)
		}
		log.Printf("Harvested %d listings from search page", len(harvested))
		urls = append(urls, harvested...)
	}

	return urls, nil
}

func printResults(result *pipeline.Result) {
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "#\tMAKE\tMODEL\tYEAR\tKM\tFUEL\tDE €\tFR EST €\tCOST €\tMARGIN €\tLIQ\tSCORE")
	for i, l := range result.Listings {
		if l.Failed() {
			fmt.Fprintf(w, "%d\t-\t-\t-\t-\t-\t-\t-\t-\t-\t-\tFAILED: %s\n", i+1, l.Err)
			continue
		}
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\t%s\t%s\t%d\t%d\t%s\t%d\t%.1f\n",
			i+1, l.Make, l.Model,
			fmtOpt(l.Year), fmtOpt(l.MileageKM), l.Fuel, fmtOpt(l.PriceOrigin),
			l.ResalePrice, l.ImportCost, fmtOpt(l.Margin),
			l.LiquidityScore, l.CompositeScore)
	}
	w.Flush()

	if len(result.Shortlist) == 0 {
		return
	}
	fmt.Println("\nTop opportunities:")
	for _, l := range result.Shortlist {
		fmt.Printf("- %s %s | %s | %s km | DE: %s € → margin: %s €\n  %s\n",
			l.Make, l.Model, fmtOpt(l.Year), fmtOpt(l.MileageKM),
			fmtOpt(l.PriceOrigin), fmtOpt(l.Margin), l.SourceURL)
	}
}

func fmtOpt(v *int) string {
	if v == nil {
		return "?"
	}
	return fmt.Sprintf("%d", *v)
}

// shortlistText renders the shortlist as plain lines, shared with advise.
func shortlistText(shortlist []models.ScoredListing) string {
	var sb strings.Builder
	for _, l := range shortlist {
		sb.WriteString(fmt.Sprintf("%s %s | score %.1f | %s\n",
			l.Make, l.Model, l.CompositeScore, l.SourceURL))
	}
	return sb.String()
}
