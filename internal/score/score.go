package score

import (
	"math"
	"sort"

	"mspro-labs/import-scout/internal/config"
	"mspro-labs/import-scout/internal/models"
)

// ResalePrice estimates what the vehicle sells for on the French market.
// Base value by (make, model), minus age and high-mileage depreciation, plus
// the diesel premium, floored at scrap value.
func ResalePrice(cfg *config.MarketConfig, make, model string, year, mileageKM int, fuel models.Fuel) int {
	price := cfg.BasePriceFor(make, model)

	age := cfg.ReferenceYear - year
	price -= age * cfg.AgeDepreciation

	if mileageKM > cfg.MileageThresholdKM {
		steps := (mileageKM - cfg.MileageThresholdKM) / cfg.MileageStepKM
		price -= steps * cfg.MileageStepPenalty
	}

	if fuel == models.FuelDiesel {
		price += cfg.DieselBonus
	}

	if price < cfg.PriceFloor {
		return cfg.PriceFloor
	}
	return price
}

// ImportCost estimates the total cost of bringing the car into France: fixed
// paperwork costs plus a mileage-banded mechanical risk buffer. An unconfirmed
// timing-belt service history adds a flat surcharge to the buffer.
func ImportCost(cfg *config.MarketConfig, mileageKM int, maintenanceKnown bool) int {
	fixed := cfg.ExportPlatesCost + cfg.RoadworthinessCost + cfg.RegistrationTaxCost

	var risk int
	switch {
	case mileageKM < cfg.RiskMediumFromKM:
		risk = cfg.RiskLow
	case mileageKM < cfg.RiskHighFromKM:
		risk = cfg.RiskMedium
	default:
		risk = cfg.RiskHigh
	}

	if !maintenanceKnown {
		risk += cfg.MaintenanceSurcharge
	}

	return fixed + risk
}

// Liquidity scores how fast this profile resells, 0..cap. Criteria are
// additive and independent; both mileage bonuses can stack.
func Liquidity(cfg *config.MarketConfig, make, model string, mileageKM int, seller models.SellerType) int {
	score := 0
	if cfg.IsHighDemand(make, model) {
		score += cfg.HighDemandPoints
	}
	if mileageKM < cfg.MileageBonusBelowKM {
		score += cfg.MileageBonusPoints
	}
	if seller == models.SellerProfessional {
		score += cfg.ProfessionalPoints
	}
	if mileageKM < cfg.LowMileageBelowKM {
		score += cfg.LowMileagePoints
	}
	if score > cfg.LiquidityCap {
		return cfg.LiquidityCap
	}
	return score
}

// Composite blends margin and liquidity into the ranking score, rounded to
// one decimal. A nil margin contributes zero — an unknown purchase price is
// not a negative signal.
func Composite(cfg *config.MarketConfig, margin *int, liquidity int) float64 {
	marginPoints := 0.0
	if margin != nil {
		clamp := float64(cfg.MarginClampUnits)
		scaled := float64(*margin) / 1000
		marginPoints = math.Min(math.Max(scaled, -clamp), clamp) * 10
	}
	raw := cfg.MarginWeight*marginPoints + cfg.LiquidityWeight*float64(liquidity)
	return math.Round(raw*10) / 10
}

// Listing scores one extracted record. Year and mileage fall back to the
// configured pessimistic defaults when the page did not yield them; the
// attributes themselves keep their absence markers.
func Listing(cfg *config.MarketConfig, attrs models.ListingAttributes, maintenanceKnown bool) models.ScoredListing {
	year := cfg.FallbackYear
	if attrs.Year != nil {
		year = *attrs.Year
	}
	mileage := cfg.FallbackMileageKM
	if attrs.MileageKM != nil {
		mileage = *attrs.MileageKM
	}

	resale := ResalePrice(cfg, attrs.Make, attrs.Model, year, mileage, attrs.Fuel)
	cost := ImportCost(cfg, mileage, maintenanceKnown)
	liquidity := Liquidity(cfg, attrs.Make, attrs.Model, mileage, attrs.SellerType)

	var margin *int
	if attrs.PriceOrigin != nil {
		margin = models.IntPtr(resale - (*attrs.PriceOrigin + cost))
	}

	return models.ScoredListing{
		ListingAttributes: attrs,
		ResalePrice:       resale,
		ImportCost:        cost,
		Margin:            margin,
		LiquidityScore:    liquidity,
		CompositeScore:    Composite(cfg, margin, liquidity),
	}
}

// Failed builds the sentinel record for a listing whose fetch failed. It
// stays in the output, sorted after everything scoreable.
func Failed(sourceURL, errMsg string) models.ScoredListing {
	return models.ScoredListing{
		ListingAttributes: models.ListingAttributes{
			Make:         models.UnknownLabel,
			Model:        models.UnknownLabel,
			Fuel:         models.FuelUnknown,
			Transmission: models.TransmissionManual,
			SellerType:   models.SellerProfessional,
			SourceURL:    sourceURL,
		},
		CompositeScore: models.ScoreFailed,
		Err:            errMsg,
	}
}

// Rank orders a batch by descending composite score. Ties keep input order,
// and failed listings always land at the bottom, so the result depends only
// on scores, never on fetch completion order.
func Rank(listings []models.ScoredListing) []models.ScoredListing {
	ranked := make([]models.ScoredListing, len(listings))
	copy(ranked, listings)
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].CompositeScore > ranked[j].CompositeScore
	})
	return ranked
}
