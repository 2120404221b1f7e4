package pipeline

import (
	"context"
	"fmt"
	"log"
	"os"
	"strings"

	"mspro-labs/import-scout/internal/config"
	"mspro-labs/import-scout/internal/extract"
	"mspro-labs/import-scout/internal/fetch"
	"mspro-labs/import-scout/internal/models"
	"mspro-labs/import-scout/internal/score"
)

var logger = log.New(os.Stdout, "PIPELINE: ", log.LstdFlags|log.Lshortfile)

// Result is one completed batch: every input listing ranked, plus the
// shortlist of top scoreable opportunities.
type Result struct {
	Listings  []models.ScoredListing
	Shortlist []models.ScoredListing
}

// Runner drives fetch → extract → score over a batch of listing URLs.
// Failures stay per-listing: one dead page never aborts the batch.
type Runner struct {
	cfg       *config.MarketConfig
	fetcher   fetch.Fetcher
	extractor *extract.Extractor
}

// New builds a Runner on top of any Fetcher (browser, cached, or fake).
func New(cfg *config.MarketConfig, fetcher fetch.Fetcher) *Runner {
	return &Runner{
		cfg:       cfg,
		fetcher:   fetcher,
		extractor: extract.New(cfg),
	}
}

// CleanLinks filters free-form pasted text down to listing URLs: one per
// line, canonicalized, deduplicated in first-seen order, capped at the batch
// limit.
func (r *Runner) CleanLinks(text string) []string {
	seen := make(map[string]struct{})
	var urls []string
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || !r.cfg.IsListingURL(line) {
			continue
		}
		u := r.cfg.CanonicalURL(line)
		if _, dup := seen[u]; dup {
			continue
		}
		seen[u] = struct{}{}
		urls = append(urls, u)
		if len(urls) >= r.cfg.BatchLimit {
			break
		}
	}
	return urls
}

// Run analyzes the batch. URLs are canonicalized and deduplicated first; the
// output contains exactly one ranked record per unique listing, with failed
// fetches carrying the sentinel score at the bottom.
func (r *Runner) Run(ctx context.Context, rawURLs []string) (*Result, error) {
	urls := r.dedup(rawURLs)
	if len(urls) == 0 {
		return nil, fmt.Errorf("no valid listing URLs supplied")
	}
	if len(urls) > r.cfg.BatchLimit {
		urls = urls[:r.cfg.BatchLimit]
	}

	logger.Printf("Analyzing %d listings...", len(urls))

	// Index-addressed results: ranking depends only on scores and input
	// order, never on fetch completion order.
	scored := make([]models.ScoredListing, len(urls))
	pool := newWorkerPool(r.cfg.Concurrency, r.cfg.HostDelay())

	for i, u := range urls {
		i, u := i, u
		pool.submit(u, func() {
			scored[i] = r.analyzeOne(ctx, u)
		})
	}
	pool.wait()

	ranked := score.Rank(scored)

	return &Result{
		Listings:  ranked,
		Shortlist: shortlist(ranked, r.cfg.ShortlistSize),
	}, nil
}

func (r *Runner) analyzeOne(ctx context.Context, url string) (scored models.ScoredListing) {
	// The browser driver panics on some failure modes; a panicking listing
	// degrades to the failure sentinel like any other fetch error.
	defer func() {
		if rec := recover(); rec != nil {
			logger.Printf("Listing panicked: %s: %v", url, rec)
			scored = score.Failed(url, fmt.Sprintf("panic: %v", rec))
		}
	}()

	html, err := r.fetcher.Fetch(ctx, url)
	if err != nil {
		logger.Printf("Listing failed: %v", err)
		return score.Failed(url, err.Error())
	}

	attrs := r.extractor.Extract(html, url)
	// Timing-belt service history cannot be confirmed from the listing page,
	// so the cost model always prices in the uncertainty surcharge.
	return score.Listing(r.cfg, attrs, false)
}

// Harvest extracts listing-detail URLs from a search-results page, for
// feeding a whole results page into Run.
func (r *Runner) Harvest(ctx context.Context, searchURL string) ([]string, error) {
	pageURL := r.cfg.CanonicalURL(searchURL)
	html, err := r.fetcher.Fetch(ctx, pageURL)
	if err != nil {
		return nil, err
	}
	return r.extractor.ListingLinks(html, pageURL, r.cfg.BatchLimit), nil
}

func (r *Runner) dedup(rawURLs []string) []string {
	seen := make(map[string]struct{})
	var urls []string
	for _, raw := range rawURLs {
		raw = strings.TrimSpace(raw)
		if raw == "" {
			continue
		}
		u := r.cfg.CanonicalURL(raw)
		if _, dup := seen[u]; dup {
			continue
		}
		seen[u] = struct{}{}
		urls = append(urls, u)
	}
	return urls
}

func shortlist(ranked []models.ScoredListing, n int) []models.ScoredListing {
	var top []models.ScoredListing
	for _, l := range ranked {
		if l.Failed() || len(top) >= n {
			break
		}
		top = append(top, l)
	}
	return top
}
