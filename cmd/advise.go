package cmd

import (
	"context"
	"fmt"
	"log"

	"github.com/spf13/cobra"

	"mspro-labs/import-scout/internal/ai"
)

var adviseCmd = &cobra.Command{
	Use:   "advise [listing-url ...]",
	Short: "Analyze a batch and get an AI read on the shortlist",
	Long: `Runs the same analysis as 'analyze', then asks Gemini for a short
buy/skip verdict on each shortlisted opportunity. Requires GEMINI_API_KEY.
The numeric ranking is printed regardless of whether the AI call succeeds.`,
	Args: cobra.MinimumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		runAdvise(args)
	},
}

func init() {
	rootCmd.AddCommand(adviseCmd)
}

func runAdvise(args []string) {
	_, runner, cleanup, err := buildRunner()
	if err != nil {
		log.Fatalf("Setup failed: %v", err)
	}
	defer cleanup()

	ctx := context.Background()

	result, err := runner.Run(ctx, args)
	if err != nil {
		log.Fatalf("Analysis failed: %v", err)
	}
	printResults(result)

	aiClient, err := ai.NewClient(ctx)
	if err != nil {
		log.Printf("Warning: AI unavailable (check GEMINI_API_KEY): %v", err)
		return
	}
	defer aiClient.Close()

	verdict, err := aiClient.Advise(ctx, result.Shortlist)
	if err != nil {
		log.Printf("Warning: AI advice failed: %v", err)
		return
	}

	fmt.Println("\nAI verdict on:")
	fmt.Print(shortlistText(result.Shortlist))
	fmt.Println()
	fmt.Println(verdict)
}
