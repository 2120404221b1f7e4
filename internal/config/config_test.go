package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultsAreValid(t *testing.T) {
	if err := DefaultMarketConfig().Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}
}

func TestValidateRejectsBrokenConfig(t *testing.T) {
	testCases := []struct {
		name    string
		corrupt func(*MarketConfig)
	}{
		{"zero price floor", func(c *MarketConfig) { c.PriceFloor = 0 }},
		{"risk tiers reversed", func(c *MarketConfig) { c.RiskMediumFromKM = 250000 }},
		{"negative weight", func(c *MarketConfig) { c.MarginWeight = -0.1 }},
		{"zero weights", func(c *MarketConfig) { c.MarginWeight = 0; c.LiquidityWeight = 0 }},
		{"empty catalogue", func(c *MarketConfig) { c.KnownMakes = nil }},
		{"zero batch limit", func(c *MarketConfig) { c.BatchLimit = 0 }},
		{"no canonical host", func(c *MarketConfig) { c.CanonicalHost = "" }},
	}
	for _, tc := range testCases {
		cfg := DefaultMarketConfig()
		tc.corrupt(cfg)
		if err := cfg.Validate(); err == nil {
			t.Errorf("%s: expected validation error", tc.name)
		}
	}
}

func TestLoadMarketConfigMissingFileUsesDefaults(t *testing.T) {
	cfg, err := LoadMarketConfig(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatalf("expected defaults for missing file, got error: %v", err)
	}
	if cfg.PriceFloor != 2000 {
		t.Errorf("expected default price floor 2000, got %d", cfg.PriceFloor)
	}
}

func TestLoadMarketConfigOverlay(t *testing.T) {
	path := filepath.Join(t.TempDir(), "market.yaml")
	yaml := "diesel_bonus: 500\nbatch_limit: 5\n"
	if err := os.WriteFile(path, []byte(yaml), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadMarketConfig(path)
	if err != nil {
		t.Fatalf("LoadMarketConfig failed: %v", err)
	}
	if cfg.DieselBonus != 500 {
		t.Errorf("override lost: diesel_bonus = %d", cfg.DieselBonus)
	}
	if cfg.BatchLimit != 5 {
		t.Errorf("override lost: batch_limit = %d", cfg.BatchLimit)
	}
	// Untouched keys keep their defaults.
	if cfg.PriceFloor != 2000 {
		t.Errorf("default lost: price_floor = %d", cfg.PriceFloor)
	}
}

func TestLoadMarketConfigRejectsMalformedYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "market.yaml")
	if err := os.WriteFile(path, []byte("diesel_bonus: [not an int"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadMarketConfig(path); err == nil {
		t.Fatal("expected error for malformed YAML")
	}
}

func TestBasePriceFor(t *testing.T) {
	cfg := DefaultMarketConfig()
	if got := cfg.BasePriceFor("Volkswagen", "Golf"); got != 9800 {
		t.Errorf("BasePriceFor(Volkswagen, Golf): expected 9800, got %d", got)
	}
	if got := cfg.BasePriceFor("Lada", "Niva"); got != cfg.DefaultBasePrice {
		t.Errorf("unknown pair: expected default %d, got %d", cfg.DefaultBasePrice, got)
	}
}

func TestCanonicalURL(t *testing.T) {
	cfg := DefaultMarketConfig()
	testCases := []struct {
		input    string
		expected string
	}{
		{
			"https://suchen.mobile.de/fahrzeuge/details.html?id=1",
			"https://m.mobile.de/fahrzeuge/details.html?id=1",
		},
		{
			"https://www.mobile.de/fahrzeuge/details.html?id=1",
			"https://m.mobile.de/fahrzeuge/details.html?id=1",
		},
		{
			"https://WWW.MOBILE.DE/fahrzeuge/details.html?id=1",
			"https://m.mobile.de/fahrzeuge/details.html?id=1",
		},
		{
			"https://m.mobile.de/fahrzeuge/details.html?id=1",
			"https://m.mobile.de/fahrzeuge/details.html?id=1",
		},
		{
			"https://example.com/x",
			"https://example.com/x",
		},
	}
	for _, tc := range testCases {
		if got := cfg.CanonicalURL(tc.input); got != tc.expected {
			t.Errorf("CanonicalURL(%q): expected %q, got %q", tc.input, tc.expected, got)
		}
	}
}

func TestIsListingURL(t *testing.T) {
	cfg := DefaultMarketConfig()
	testCases := []struct {
		input    string
		expected bool
	}{
		{"https://m.mobile.de/fahrzeuge/details.html?id=1", true},
		{"https://suchen.mobile.de/fahrzeuge/details.html?id=1", true},
		{"https://m.mobile.de/fahrzeuge/search.html?p=2", false},
		{"https://example.com/details.html?id=1", false},
		{"garbage", false},
	}
	for _, tc := range testCases {
		if got := cfg.IsListingURL(tc.input); got != tc.expected {
			t.Errorf("IsListingURL(%q): expected %v, got %v", tc.input, tc.expected, got)
		}
	}
}
