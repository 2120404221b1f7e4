package ai

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	"mspro-labs/import-scout/internal/models"
)

// Client wraps the GenAI client for the advise command.
type Client struct {
	genaiClient *genai.Client
	model       *genai.GenerativeModel
}

// NewClient creates a connected AI client.
func NewClient(ctx context.Context) (*Client, error) {
	apiKey := os.Getenv("GEMINI_API_KEY")
	if apiKey == "" {
		return nil, fmt.Errorf("GEMINI_API_KEY environment variable is required")
	}

	c, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create AI client: %w", err)
	}

	return &Client{
		genaiClient: c,
		model:       c.GenerativeModel("gemini-1.5-flash"),
	}, nil
}

// Close terminates the connection.
func (c *Client) Close() {
	if c.genaiClient != nil {
		c.genaiClient.Close()
	}
}

// Advise asks the model for a short buy/skip read on the scored shortlist.
// Purely advisory: the numeric ranking stands on its own.
func (c *Client) Advise(ctx context.Context, shortlist []models.ScoredListing) (string, error) {
	if len(shortlist) == 0 {
		return "", fmt.Errorf("nothing to advise on: shortlist is empty")
	}

	res, err := c.model.GenerateContent(ctx, genai.Text(buildPrompt(shortlist)))
	if err != nil {
		return "", fmt.Errorf("generation failed: %w", err)
	}
	if len(res.Candidates) == 0 || res.Candidates[0].Content == nil {
		return "", fmt.Errorf("AI returned empty response")
	}

	var sb strings.Builder
	for _, part := range res.Candidates[0].Content.Parts {
		if text, ok := part.(genai.Text); ok {
			sb.WriteString(string(text))
		}
	}
	return sb.String(), nil
}

func buildPrompt(shortlist []models.ScoredListing) string {
	var sb strings.Builder
	sb.WriteString("You are advising a small used-car importer who buys in Germany and resells in France.\n")
	sb.WriteString("For each candidate below, give a one-line buy/skip verdict with the main risk.\n\n")
	for i, l := range shortlist {
		margin := "margin unknown"
		if l.Margin != nil {
			margin = fmt.Sprintf("margin %d EUR", *l.Margin)
		}
		priceDE := "price unknown"
		if l.PriceOrigin != nil {
			priceDE = fmt.Sprintf("DE price %d EUR", *l.PriceOrigin)
		}
		sb.WriteString(fmt.Sprintf("%d. %s %s, %s, %s, liquidity %d/100, score %.1f\n",
			i+1, l.Make, l.Model, priceDE, margin, l.LiquidityScore, l.CompositeScore))
	}
	return sb.String()
}
