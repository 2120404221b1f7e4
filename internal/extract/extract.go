package extract

import (
	"encoding/json"
	"net/url"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"mspro-labs/import-scout/internal/config"
	"mspro-labs/import-scout/internal/models"
	"mspro-labs/import-scout/internal/normalize"
)

// Text-layer patterns. The site mixes German formatting with the odd English
// label, so every pattern is case-insensitive and separator-tolerant.
var (
	rePriceBefore = regexp.MustCompile(`€\s?([\d.,]+)`)
	rePriceAfter  = regexp.MustCompile(`([\d.,]+)\s?€`)
	reMileage     = regexp.MustCompile(`(?i)\b(\d{1,3}(?:[.,]?\d{3})+)\s?km\b`)
	// "EZ 06/2011" style first-registration tokens beat bare 4-digit numbers,
	// which otherwise match engine codes and postcodes.
	reRegYear  = regexp.MustCompile(`\b\d{1,2}/(\d{4})\b`)
	reBareYear = regexp.MustCompile(`\b(\d{4})\b`)
)

var (
	automaticKeywords = []string{"automatik", "automatic"}
	privateKeywords   = []string{"privat", "particulier"}
	petrolKeywords    = []string{"benzin", "petrol", "essence", "gasoline"}
)

type catalogueEntry struct {
	label string
	re    *regexp.Regexp
}

// Extractor turns one fetched listing page into ListingAttributes. It never
// fails: anything it cannot read degrades to the field's sentinel.
type Extractor struct {
	cfg    *config.MarketConfig
	makes  []catalogueEntry
	models []catalogueEntry
}

// New compiles the make/model catalogues into word-boundary matchers.
func New(cfg *config.MarketConfig) *Extractor {
	return &Extractor{
		cfg:    cfg,
		makes:  compileCatalogue(cfg.KnownMakes),
		models: compileCatalogue(cfg.KnownModels),
	}
}

func compileCatalogue(names []string) []catalogueEntry {
	entries := make([]catalogueEntry, 0, len(names))
	for _, name := range names {
		re := regexp.MustCompile(`(?i)\b` + regexp.QuoteMeta(name) + `\b`)
		entries = append(entries, catalogueEntry{label: name, re: re})
	}
	return entries
}

// Extract reads vehicle attributes from the page, structured metadata first,
// then per-field text fallbacks for whatever is still unresolved.
func (e *Extractor) Extract(html, sourceURL string) models.ListingAttributes {
	attrs := models.ListingAttributes{
		Make:         models.UnknownLabel,
		Model:        models.UnknownLabel,
		Fuel:         models.FuelUnknown,
		Transmission: models.TransmissionManual,
		SellerType:   models.SellerProfessional,
		SourceURL:    sourceURL,
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return attrs
	}

	attrs.Title = strings.TrimSpace(doc.Find("h1").First().Text())

	e.applyStructured(doc, &attrs)
	e.applyTextFallbacks(flattenText(doc), &attrs)

	return attrs
}

// applyStructured reads the first JSON-LD block typed as a car/vehicle entity.
// Each field is taken independently; a malformed field just stays unresolved.
func (e *Extractor) applyStructured(doc *goquery.Document, attrs *models.ListingAttributes) {
	doc.Find(`script[type="application/ld+json"]`).EachWithBreak(func(_ int, s *goquery.Selection) bool {
		var data any
		if err := json.Unmarshal([]byte(s.Text()), &data); err != nil {
			return true // continue
		}
		node := findVehicleNode(data)
		if node == nil {
			return true
		}
		readVehicleNode(node, attrs)
		return false // first vehicle block wins
	})
}

// findVehicleNode accepts a bare object or a top-level array of objects.
func findVehicleNode(data any) map[string]any {
	switch v := data.(type) {
	case map[string]any:
		if isVehicleType(v["@type"]) {
			return v
		}
	case []any:
		for _, item := range v {
			if m, ok := item.(map[string]any); ok && isVehicleType(m["@type"]) {
				return m
			}
		}
	}
	return nil
}

func isVehicleType(t any) bool {
	s, ok := t.(string)
	return ok && (s == "Car" || s == "Vehicle")
}

func readVehicleNode(node map[string]any, attrs *models.ListingAttributes) {
	// brand is either a plain string or a nested {"name": ...} object.
	switch brand := node["brand"].(type) {
	case string:
		if brand != "" {
			attrs.Make = brand
		}
	case map[string]any:
		if name := asString(brand["name"]); name != "" {
			attrs.Make = name
		}
	}

	if model := asString(node["model"]); model != "" {
		attrs.Model = model
	}
	if year := asInt(node["productionDate"]); year != nil {
		attrs.Year = year
	}

	// mileageFromOdometer is a plain number or a QuantitativeValue object.
	switch m := node["mileageFromOdometer"].(type) {
	case float64:
		attrs.MileageKM = models.IntPtr(int(m))
	case map[string]any:
		attrs.MileageKM = asInt(m["value"])
	}

	// offers is an Offer object or a list of them; first price wins.
	switch offers := node["offers"].(type) {
	case map[string]any:
		attrs.PriceOrigin = asInt(offers["price"])
	case []any:
		for _, o := range offers {
			if om, ok := o.(map[string]any); ok {
				if p := asInt(om["price"]); p != nil {
					attrs.PriceOrigin = p
					break
				}
			}
		}
	}

	// fuelType is a string or a list of strings.
	fuelRaw := asString(node["fuelType"])
	if fuelRaw == "" {
		if list, ok := node["fuelType"].([]any); ok && len(list) > 0 {
			fuelRaw = asString(list[0])
		}
	}
	if fuel := classifyFuel(strings.ToLower(fuelRaw)); fuel != models.FuelUnknown {
		attrs.Fuel = fuel
	}
}

func asString(v any) string {
	s, _ := v.(string)
	return strings.TrimSpace(s)
}

// asInt reads a JSON value that sites emit either as a number or a formatted
// string ("177.000").
func asInt(v any) *int {
	switch n := v.(type) {
	case float64:
		return models.IntPtr(int(n))
	case string:
		return normalize.ParseIntPtr(n)
	}
	return nil
}

// applyTextFallbacks scans the flattened visible text for every field the
// structured layer left unresolved.
func (e *Extractor) applyTextFallbacks(text string, attrs *models.ListingAttributes) {
	lower := strings.ToLower(text)

	if attrs.PriceOrigin == nil {
		attrs.PriceOrigin = findPrice(text)
	}
	if attrs.MileageKM == nil {
		if m := reMileage.FindStringSubmatch(text); m != nil {
			attrs.MileageKM = normalize.ParseIntPtr(m[1])
		}
	}
	if attrs.Year == nil {
		attrs.Year = e.findYear(text)
	}
	if attrs.Make == models.UnknownLabel {
		attrs.Make = matchCatalogue(e.makes, text)
	}
	if attrs.Model == models.UnknownLabel {
		attrs.Model = matchCatalogue(e.models, text)
	}
	if attrs.Fuel == models.FuelUnknown {
		attrs.Fuel = classifyFuel(lower)
	}

	if containsAny(lower, automaticKeywords) {
		attrs.Transmission = models.TransmissionAutomatic
	}
	if containsAny(lower, privateKeywords) {
		attrs.SellerType = models.SellerPrivate
	}
}

func findPrice(text string) *int {
	if m := rePriceBefore.FindStringSubmatch(text); m != nil {
		if p := normalize.ParseIntPtr(m[1]); p != nil {
			return p
		}
	}
	if m := rePriceAfter.FindStringSubmatch(text); m != nil {
		return normalize.ParseIntPtr(m[1])
	}
	return nil
}

// findYear prefers a 4-digit token following a registration "MM/" prefix and
// only falls back to the first bare 4-digit token in plausible range.
func (e *Extractor) findYear(text string) *int {
	if m := reRegYear.FindStringSubmatch(text); m != nil {
		if y := normalize.ParseIntPtr(m[1]); y != nil && e.plausibleYear(*y) {
			return y
		}
	}
	for _, m := range reBareYear.FindAllStringSubmatch(text, -1) {
		if y := normalize.ParseIntPtr(m[1]); y != nil && e.plausibleYear(*y) {
			return y
		}
	}
	return nil
}

func (e *Extractor) plausibleYear(y int) bool {
	return y >= 1980 && y <= e.cfg.ReferenceYear+1
}

func matchCatalogue(entries []catalogueEntry, text string) string {
	for _, entry := range entries {
		if entry.re.MatchString(text) {
			return entry.label
		}
	}
	return models.UnknownLabel
}

// classifyFuel never defaults to diesel: the diesel pricing bonus is only paid
// on a positive match.
func classifyFuel(lower string) models.Fuel {
	if strings.Contains(lower, "diesel") {
		return models.FuelDiesel
	}
	if containsAny(lower, petrolKeywords) {
		return models.FuelPetrol
	}
	return models.FuelUnknown
}

func containsAny(haystack string, needles []string) bool {
	for _, n := range needles {
		if strings.Contains(haystack, n) {
			return true
		}
	}
	return false
}

func flattenText(doc *goquery.Document) string {
	return strings.Join(strings.Fields(doc.Text()), " ")
}

// ListingLinks harvests listing-detail URLs from a search-results page,
// canonicalized and deduplicated in document order. Relative hrefs are
// resolved against pageURL. max <= 0 means no cap.
func (e *Extractor) ListingLinks(html, pageURL string, max int) []string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil
	}
	base, err := url.Parse(pageURL)
	if err != nil {
		base = nil
	}

	seen := make(map[string]struct{})
	var links []string
	doc.Find("a[href]").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		href, _ := s.Attr("href")
		if base != nil {
			if ref, err := url.Parse(strings.TrimSpace(href)); err == nil {
				href = base.ResolveReference(ref).String()
			}
		}
		if !e.cfg.IsListingURL(href) {
			return true
		}
		u := e.cfg.CanonicalURL(href)
		if _, dup := seen[u]; dup {
			return true
		}
		seen[u] = struct{}{}
		links = append(links, u)
		return max <= 0 || len(links) < max
	})
	return links
}
