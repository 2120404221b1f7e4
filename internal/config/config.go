package config

import (
	"fmt"
	"log"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// AppConfig holds infrastructure settings from the environment.
type AppConfig struct {
	CachePath  string // SQLite page-cache location
	ConfigPath string // Path to the market YAML file
	ListenAddr string // Web UI bind address
	ChromeBin  string // Optional browser binary override
}

// GetAppConfig reads infrastructure settings from the environment, loading a
// .env file first when one is present.
func GetAppConfig() (AppConfig, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("[config] No .env file found, falling back to system env vars")
	}

	return AppConfig{
		CachePath:  getEnv("CACHE_PATH", "./local-data/pages.db"),
		ConfigPath: getEnv("CONFIG_PATH", "market.yaml"),
		ListenAddr: getEnv("LISTEN_ADDR", ":8080"),
		ChromeBin:  getEnv("CHROME_BIN", ""),
	}, nil
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

// BasePrice is one row of the resale base-price table.
type BasePrice struct {
	Make  string `yaml:"make"`
	Model string `yaml:"model"`
	Price int    `yaml:"price"`
}

// MakeModel identifies one high-demand catalogue pair.
type MakeModel struct {
	Make  string `yaml:"make"`
	Model string `yaml:"model"`
}

// MarketConfig holds every tunable of the pricing, risk, liquidity and ranking
// models plus the scrape limits. Loaded from YAML over compiled-in defaults.
type MarketConfig struct {
	// Pricing model.
	ReferenceYear      int         `yaml:"reference_year"`
	BasePrices         []BasePrice `yaml:"base_prices"`
	DefaultBasePrice   int         `yaml:"default_base_price"`
	AgeDepreciation    int         `yaml:"age_depreciation_per_year"`
	MileageThresholdKM int         `yaml:"mileage_threshold_km"`
	MileageStepKM      int         `yaml:"mileage_step_km"`
	MileageStepPenalty int         `yaml:"mileage_step_penalty"`
	DieselBonus        int         `yaml:"diesel_bonus"`
	PriceFloor         int         `yaml:"price_floor"`

	// Import cost model.
	ExportPlatesCost       int `yaml:"export_plates_cost"`
	RoadworthinessCost     int `yaml:"roadworthiness_cost"`
	RegistrationTaxCost    int `yaml:"registration_tax_cost"`
	RiskLow                int `yaml:"risk_low"`
	RiskMedium             int `yaml:"risk_medium"`
	RiskHigh               int `yaml:"risk_high"`
	RiskMediumFromKM       int `yaml:"risk_medium_from_km"`
	RiskHighFromKM         int `yaml:"risk_high_from_km"`
	MaintenanceSurcharge   int `yaml:"maintenance_unknown_surcharge"`

	// Liquidity model.
	HighDemandPairs     []MakeModel `yaml:"high_demand_pairs"`
	HighDemandPoints    int         `yaml:"high_demand_points"`
	MileageBonusBelowKM int         `yaml:"mileage_bonus_below_km"`
	MileageBonusPoints  int         `yaml:"mileage_bonus_points"`
	LowMileageBelowKM   int         `yaml:"low_mileage_below_km"`
	LowMileagePoints    int         `yaml:"low_mileage_points"`
	ProfessionalPoints  int         `yaml:"professional_points"`
	LiquidityCap        int         `yaml:"liquidity_cap"`

	// Composite ranking.
	MarginWeight      float64 `yaml:"margin_weight"`
	LiquidityWeight   float64 `yaml:"liquidity_weight"`
	MarginClampUnits  int     `yaml:"margin_clamp_units"` // clamp of margin/1000, in ±units

	// Scoring fallbacks for listings missing year or mileage.
	FallbackYear      int `yaml:"fallback_year"`
	FallbackMileageKM int `yaml:"fallback_mileage_km"`

	// Extraction catalogues.
	KnownMakes  []string `yaml:"known_makes"`
	KnownModels []string `yaml:"known_models"`

	// Target site.
	CanonicalHost string   `yaml:"canonical_host"`
	HostAliases   []string `yaml:"host_aliases"`
	ListingMarker string   `yaml:"listing_marker"`
	UserAgent     string   `yaml:"user_agent"`

	// Batch limits and pacing.
	BatchLimit      int `yaml:"batch_limit"`
	ShortlistSize   int `yaml:"shortlist_size"`
	Concurrency     int `yaml:"concurrency"`
	FetchTimeoutSec int `yaml:"fetch_timeout_sec"`
	HostDelayMs     int `yaml:"host_delay_ms"`
	CacheTTLSec     int `yaml:"cache_ttl_sec"`
}

// DefaultMarketConfig returns the built-in tuning, matching the mobile.de to
// France import niche the tool was written for.
func DefaultMarketConfig() *MarketConfig {
	return &MarketConfig{
		ReferenceYear: 2026,
		BasePrices: []BasePrice{
			{Make: "Volkswagen", Model: "Golf", Price: 9800},
			{Make: "Skoda", Model: "Octavia", Price: 9000},
			{Make: "Peugeot", Model: "308", Price: 8600},
			{Make: "Renault", Model: "Megane", Price: 8400},
			{Make: "Ford", Model: "Focus", Price: 8300},
			{Make: "Volkswagen", Model: "Polo", Price: 7800},
			{Make: "Audi", Model: "A3", Price: 10200},
		},
		DefaultBasePrice:   7800,
		AgeDepreciation:    180,
		MileageThresholdKM: 150000,
		MileageStepKM:      10000,
		MileageStepPenalty: 200,
		DieselBonus:        300,
		PriceFloor:         2000,

		ExportPlatesCost:     250,
		RoadworthinessCost:   80,
		RegistrationTaxCost:  280,
		RiskLow:              300,
		RiskMedium:           600,
		RiskHigh:             900,
		RiskMediumFromKM:     160000,
		RiskHighFromKM:       200000,
		MaintenanceSurcharge: 300,

		HighDemandPairs: []MakeModel{
			{Make: "Volkswagen", Model: "Golf"},
			{Make: "Skoda", Model: "Octavia"},
			{Make: "Peugeot", Model: "308"},
			{Make: "Renault", Model: "Megane"},
			{Make: "Ford", Model: "Focus"},
			{Make: "Volkswagen", Model: "Polo"},
			{Make: "Audi", Model: "A3"},
		},
		HighDemandPoints:    40,
		MileageBonusBelowKM: 180000,
		MileageBonusPoints:  20,
		LowMileageBelowKM:   140000,
		LowMileagePoints:    10,
		ProfessionalPoints:  20,
		LiquidityCap:        100,

		MarginWeight:     0.6,
		LiquidityWeight:  0.4,
		MarginClampUnits: 10,

		FallbackYear:      2012,
		FallbackMileageKM: 180000,

		KnownMakes:  []string{"Volkswagen", "Skoda", "Peugeot", "Renault", "Ford", "Audi"},
		KnownModels: []string{"Golf", "Octavia", "308", "Megane", "Focus", "Polo", "A3"},

		CanonicalHost: "m.mobile.de",
		HostAliases:   []string{"suchen.mobile.de", "www.mobile.de"},
		ListingMarker: "details.html",
		UserAgent: "Mozilla/5.0 (Macintosh; Intel Mac OS X 13_5) " +
			"AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120 Safari/537.36",

		BatchLimit:      20,
		ShortlistSize:   5,
		Concurrency:     3,
		FetchTimeoutSec: 60,
		HostDelayMs:     500,
		CacheTTLSec:     600,
	}
}

// LoadMarketConfig reads the YAML file at path over the defaults. A missing
// file is not an error: the defaults are a complete working configuration.
func LoadMarketConfig(path string) (*MarketConfig, error) {
	cfg := DefaultMarketConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, cfg.Validate()
		}
		return nil, fmt.Errorf("failed to read config file at '%s': %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse YAML config: %w", err)
	}
	return cfg, cfg.Validate()
}

// Validate rejects configurations the scoring model cannot run on. Called at
// startup, before any fetch.
func (c *MarketConfig) Validate() error {
	switch {
	case c.ReferenceYear < 1990:
		return fmt.Errorf("invalid config: reference_year %d", c.ReferenceYear)
	case c.PriceFloor <= 0:
		return fmt.Errorf("invalid config: price_floor must be positive, got %d", c.PriceFloor)
	case c.MileageStepKM <= 0:
		return fmt.Errorf("invalid config: mileage_step_km must be positive, got %d", c.MileageStepKM)
	case c.RiskMediumFromKM >= c.RiskHighFromKM:
		return fmt.Errorf("invalid config: risk tiers out of order (%d >= %d)",
			c.RiskMediumFromKM, c.RiskHighFromKM)
	case c.MarginWeight < 0 || c.LiquidityWeight < 0:
		return fmt.Errorf("invalid config: negative composite weight")
	case c.MarginWeight+c.LiquidityWeight == 0:
		return fmt.Errorf("invalid config: composite weights sum to zero")
	case c.LiquidityCap <= 0 || c.LiquidityCap > 100:
		return fmt.Errorf("invalid config: liquidity_cap %d outside (0,100]", c.LiquidityCap)
	case c.BatchLimit <= 0:
		return fmt.Errorf("invalid config: batch_limit must be positive, got %d", c.BatchLimit)
	case c.Concurrency <= 0:
		return fmt.Errorf("invalid config: concurrency must be positive, got %d", c.Concurrency)
	case c.FetchTimeoutSec <= 0:
		return fmt.Errorf("invalid config: fetch_timeout_sec must be positive, got %d", c.FetchTimeoutSec)
	case c.CanonicalHost == "":
		return fmt.Errorf("invalid config: canonical_host is required")
	case len(c.KnownMakes) == 0 || len(c.KnownModels) == 0:
		return fmt.Errorf("invalid config: make/model catalogues must not be empty")
	}
	return nil
}

// BasePriceFor looks up the resale base for a (make, model) pair, falling back
// to the default base for anything outside the table.
func (c *MarketConfig) BasePriceFor(make, model string) int {
	for _, bp := range c.BasePrices {
		if bp.Make == make && bp.Model == model {
			return bp.Price
		}
	}
	return c.DefaultBasePrice
}

// IsHighDemand reports whether the pair is in the high-demand set.
func (c *MarketConfig) IsHighDemand(make, model string) bool {
	for _, mm := range c.HighDemandPairs {
		if mm.Make == make && mm.Model == model {
			return true
		}
	}
	return false
}

// CanonicalURL rewrites known alias hosts (search and www subdomains) to the
// canonical mobile host, so the same listing reached through different entry
// points dedups to one URL.
func (c *MarketConfig) CanonicalURL(raw string) string {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil || u.Host == "" {
		// Not parseable as an absolute URL; best-effort string rewrite.
		out := raw
		for _, alias := range c.HostAliases {
			out = strings.ReplaceAll(out, alias, c.CanonicalHost)
		}
		return out
	}

	host := strings.ToLower(u.Host)
	for _, alias := range c.HostAliases {
		if host == strings.ToLower(alias) {
			host = c.CanonicalHost
			break
		}
	}
	u.Host = host
	return u.String()
}

// IsListingURL reports whether raw points at a listing detail page on the
// target site (canonical host or any alias).
func (c *MarketConfig) IsListingURL(raw string) bool {
	if !strings.Contains(raw, c.ListingMarker) {
		return false
	}
	if strings.Contains(raw, c.CanonicalHost) {
		return true
	}
	for _, alias := range c.HostAliases {
		if strings.Contains(raw, alias) {
			return true
		}
	}
	return false
}

// FetchTimeout returns the per-page fetch timeout as a duration.
func (c *MarketConfig) FetchTimeout() time.Duration {
	return time.Duration(c.FetchTimeoutSec) * time.Second
}

// HostDelay returns the mandatory pause between requests to the same host.
func (c *MarketConfig) HostDelay() time.Duration {
	return time.Duration(c.HostDelayMs) * time.Millisecond
}

// CacheTTL returns how long a fetched page stays valid in the cache.
func (c *MarketConfig) CacheTTL() time.Duration {
	return time.Duration(c.CacheTTLSec) * time.Second
}
