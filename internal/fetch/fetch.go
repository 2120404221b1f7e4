package fetch

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
	"github.com/go-rod/stealth"

	"mspro-labs/import-scout/internal/config"
)

var logger = log.New(os.Stdout, "FETCH: ", log.LstdFlags|log.Lshortfile)

// Fetcher retrieves one page by URL. Implementations decide how (headless
// browser, plain HTTP, cache); the pipeline does not care.
type Fetcher interface {
	Fetch(ctx context.Context, url string) (string, error)
}

// FetchError marks a failed page retrieval. The batch keeps going; the
// affected listing carries this message into the output.
type FetchError struct {
	URL     string
	Message string
	Err     error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch %s: %s", e.URL, e.Message)
}

func (e *FetchError) Unwrap() error { return e.Err }

// Browser is the go-rod backed Fetcher. Listing pages are script-heavy and
// sit behind a cookie-consent wall, so a rendering engine beats plain HTTP.
type Browser struct {
	browser *rod.Browser
	cfg     *config.MarketConfig
}

// NewBrowser launches a headless browser. chromeBin may be empty to use
// whatever the launcher resolves.
func NewBrowser(cfg *config.MarketConfig, chromeBin string) (*Browser, error) {
	l := launcher.New().Headless(true).NoSandbox(true)
	if chromeBin != "" {
		l = l.Bin(chromeBin)
	}
	u, err := l.Launch()
	if err != nil {
		return nil, fmt.Errorf("failed to launch browser: %w", err)
	}

	browser := rod.New().ControlURL(u)
	if err := browser.Connect(); err != nil {
		return nil, fmt.Errorf("failed to connect to browser: %w", err)
	}
	return &Browser{browser: browser, cfg: cfg}, nil
}

// Close shuts the browser down.
func (b *Browser) Close() {
	if b.browser != nil {
		_ = b.browser.Close()
	}
}

// Fetch navigates to the URL, clears the consent dialog when one shows up,
// and returns the rendered HTML. Every failure comes back as a *FetchError,
// including panics out of the browser driver.
func (b *Browser) Fetch(ctx context.Context, url string) (html string, err error) {
	page, err := stealth.Page(b.browser)
	if err != nil {
		return "", &FetchError{URL: url, Message: "failed to open page", Err: err}
	}
	defer func() {
		if closeErr := page.Close(); closeErr != nil {
			logger.Printf("Warning: failed to close page: %v", closeErr)
		}
		if r := recover(); r != nil {
			logger.Printf("Panic in Fetch: %v", r)
			html = ""
			err = &FetchError{URL: url, Message: fmt.Sprintf("browser panic: %v", r)}
		}
	}()

	page = page.Context(ctx).Timeout(b.cfg.FetchTimeout())

	if err := page.SetUserAgent(&proto.NetworkSetUserAgentOverride{
		UserAgent: b.cfg.UserAgent,
	}); err != nil {
		return "", &FetchError{URL: url, Message: "failed to set user agent", Err: err}
	}

	logger.Printf("Navigating to: %s", url)
	if err := page.Navigate(url); err != nil {
		return "", &FetchError{URL: url, Message: "navigation failed", Err: err}
	}
	if err := page.WaitStable(time.Second); err != nil {
		return "", &FetchError{URL: url, Message: "page never stabilized", Err: err}
	}

	// Consent dialog shows on first visit only. Missing button is fine.
	_ = rod.Try(func() {
		page.Timeout(5 * time.Second).MustElementR("button", "(?i)akzeptieren|accept").MustClick()
		page.MustWaitStable()
	})

	html, err = page.HTML()
	if err != nil {
		return "", &FetchError{URL: url, Message: "failed to read page HTML", Err: err}
	}
	return html, nil
}
