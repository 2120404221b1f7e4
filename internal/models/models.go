package models

// Fuel is the normalized fuel type of a listing.
type Fuel string

const (
	FuelDiesel  Fuel = "diesel"
	FuelPetrol  Fuel = "petrol"
	FuelUnknown Fuel = "unknown"
)

// Transmission defaults to manual when nothing on the page says otherwise.
type Transmission string

const (
	TransmissionManual    Transmission = "manual"
	TransmissionAutomatic Transmission = "automatic"
)

// SellerType affects liquidity scoring only.
type SellerType string

const (
	SellerProfessional SellerType = "professional"
	SellerPrivate      SellerType = "private"
)

// UnknownLabel is the sentinel for make/model when no catalogue entry matched.
// Scoring treats it as a regular value, never as an error.
const UnknownLabel = "unknown"

// ListingAttributes is the best-effort record extracted from one listing page.
// Categorical fields always hold a concrete value (unknown sentinels included);
// the three numeric fields are nil when the page gave us nothing usable.
type ListingAttributes struct {
	Make         string
	Model        string
	Year         *int
	MileageKM    *int
	Fuel         Fuel
	Transmission Transmission
	SellerType   SellerType
	PriceOrigin  *int
	Title        string
	SourceURL    string
}

// ScoreFailed is the composite score attached to listings whose fetch failed.
// It sorts after every score the model can produce.
const ScoreFailed = -1e9

// ScoredListing is a ListingAttributes plus the model outputs for one batch
// run. Built once, never mutated, discarded after rendering.
type ScoredListing struct {
	ListingAttributes

	ResalePrice    int
	ImportCost     int
	Margin         *int
	LiquidityScore int
	CompositeScore float64

	// Err is set when the fetch failed; such listings keep their slot in the
	// output with CompositeScore = ScoreFailed.
	Err string
}

// Failed reports whether this listing carries the failure sentinel.
func (s ScoredListing) Failed() bool {
	return s.Err != ""
}

// IntPtr is a helper for building the optional numeric fields.
func IntPtr(v int) *int { return &v }
