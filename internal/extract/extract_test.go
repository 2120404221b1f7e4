package extract

import (
	"reflect"
	"testing"

	"mspro-labs/import-scout/internal/config"
	"mspro-labs/import-scout/internal/models"
)

const structuredHTML = `
<html>
<body>
  <h1>VW Golf VII 2.0 TDI Comfortline</h1>
  <script type="application/ld+json">
  {
    "@type": "Car",
    "brand": {"name": "Volkswagen"},
    "model": "Golf",
    "productionDate": "2011",
    "mileageFromOdometer": {"value": 177000},
    "offers": {"price": 5490},
    "fuelType": "Diesel"
  }
  </script>
  <p>Getriebe: Schaltgetriebe. Anbieter: Privat.</p>
</body>
</html>
`

const textOnlyHTML = `
<html>
<body>
  <h1>Skoda Octavia Combi</h1>
  <p>EZ 06/2014, 132.500 km, Benzin, Automatik</p>
  <p>Preis: 8.990 €</p>
  <p>Händler-Angebot</p>
</body>
</html>
`

const partialStructuredHTML = `
<html>
<body>
  <h1>Peugeot 308 SW</h1>
  <script type="application/ld+json">
  {"@type": "Vehicle", "offers": {"price": "7.250"}}
  </script>
  <p>EZ 03/2015, 98.000 km, Diesel</p>
</body>
</html>
`

func testConfig() *config.MarketConfig {
	return config.DefaultMarketConfig()
}

func TestExtractStructured(t *testing.T) {
	e := New(testConfig())
	attrs := e.Extract(structuredHTML, "https://m.mobile.de/fahrzeuge/details.html?id=1")

	if attrs.Make != "Volkswagen" {
		t.Errorf("Make: expected 'Volkswagen', got '%s'", attrs.Make)
	}
	if attrs.Model != "Golf" {
		t.Errorf("Model: expected 'Golf', got '%s'", attrs.Model)
	}
	if attrs.Year == nil || *attrs.Year != 2011 {
		t.Errorf("Year: expected 2011, got %v", attrs.Year)
	}
	if attrs.MileageKM == nil || *attrs.MileageKM != 177000 {
		t.Errorf("MileageKM: expected 177000, got %v", attrs.MileageKM)
	}
	if attrs.PriceOrigin == nil || *attrs.PriceOrigin != 5490 {
		t.Errorf("PriceOrigin: expected 5490, got %v", attrs.PriceOrigin)
	}
	if attrs.Fuel != models.FuelDiesel {
		t.Errorf("Fuel: expected diesel, got '%s'", attrs.Fuel)
	}
	if attrs.Transmission != models.TransmissionManual {
		t.Errorf("Transmission: expected manual, got '%s'", attrs.Transmission)
	}
	if attrs.SellerType != models.SellerPrivate {
		t.Errorf("SellerType: expected private, got '%s'", attrs.SellerType)
	}
	if attrs.Title != "VW Golf VII 2.0 TDI Comfortline" {
		t.Errorf("Title wrong: got '%s'", attrs.Title)
	}
	if attrs.SourceURL != "https://m.mobile.de/fahrzeuge/details.html?id=1" {
		t.Errorf("SourceURL wrong: got '%s'", attrs.SourceURL)
	}
}

func TestExtractTextFallback(t *testing.T) {
	e := New(testConfig())
	attrs := e.Extract(textOnlyHTML, "u")

	if attrs.Make != "Skoda" {
		t.Errorf("Make: expected 'Skoda', got '%s'", attrs.Make)
	}
	if attrs.Model != "Octavia" {
		t.Errorf("Model: expected 'Octavia', got '%s'", attrs.Model)
	}
	if attrs.Year == nil || *attrs.Year != 2014 {
		t.Errorf("Year: expected 2014 from EZ pattern, got %v", attrs.Year)
	}
	if attrs.MileageKM == nil || *attrs.MileageKM != 132500 {
		t.Errorf("MileageKM: expected 132500, got %v", attrs.MileageKM)
	}
	if attrs.PriceOrigin == nil || *attrs.PriceOrigin != 8990 {
		t.Errorf("PriceOrigin: expected 8990, got %v", attrs.PriceOrigin)
	}
	if attrs.Fuel != models.FuelPetrol {
		t.Errorf("Fuel: expected petrol, got '%s'", attrs.Fuel)
	}
	if attrs.Transmission != models.TransmissionAutomatic {
		t.Errorf("Transmission: expected automatic, got '%s'", attrs.Transmission)
	}
	if attrs.SellerType != models.SellerProfessional {
		t.Errorf("SellerType: expected professional, got '%s'", attrs.SellerType)
	}
}

// Structured extraction is per-field: a block carrying only a price must not
// block the text layer from resolving the rest.
func TestExtractLayeredPerField(t *testing.T) {
	e := New(testConfig())
	attrs := e.Extract(partialStructuredHTML, "u")

	if attrs.PriceOrigin == nil || *attrs.PriceOrigin != 7250 {
		t.Errorf("PriceOrigin: expected 7250 from JSON-LD, got %v", attrs.PriceOrigin)
	}
	if attrs.Make != "Peugeot" {
		t.Errorf("Make: expected 'Peugeot' from text, got '%s'", attrs.Make)
	}
	if attrs.Model != "308" {
		t.Errorf("Model: expected '308' from text, got '%s'", attrs.Model)
	}
	if attrs.Year == nil || *attrs.Year != 2015 {
		t.Errorf("Year: expected 2015 from text, got %v", attrs.Year)
	}
	if attrs.MileageKM == nil || *attrs.MileageKM != 98000 {
		t.Errorf("MileageKM: expected 98000 from text, got %v", attrs.MileageKM)
	}
	if attrs.Fuel != models.FuelDiesel {
		t.Errorf("Fuel: expected diesel from text, got '%s'", attrs.Fuel)
	}
}

func TestExtractGarbageDegradesToSentinels(t *testing.T) {
	e := New(testConfig())
	attrs := e.Extract("<html><body><p>nichts hier</p></body></html>", "u")

	if attrs.Make != models.UnknownLabel || attrs.Model != models.UnknownLabel {
		t.Errorf("expected unknown make/model, got '%s'/'%s'", attrs.Make, attrs.Model)
	}
	if attrs.Year != nil || attrs.MileageKM != nil || attrs.PriceOrigin != nil {
		t.Errorf("expected absent numeric fields, got %v/%v/%v",
			attrs.Year, attrs.MileageKM, attrs.PriceOrigin)
	}
	if attrs.Fuel != models.FuelUnknown {
		t.Errorf("expected unknown fuel, got '%s'", attrs.Fuel)
	}
	if attrs.Transmission != models.TransmissionManual {
		t.Errorf("expected manual default, got '%s'", attrs.Transmission)
	}
	if attrs.SellerType != models.SellerProfessional {
		t.Errorf("expected professional default, got '%s'", attrs.SellerType)
	}
}

func TestExtractIdempotent(t *testing.T) {
	e := New(testConfig())
	a := e.Extract(structuredHTML, "u")
	b := e.Extract(structuredHTML, "u")
	if !reflect.DeepEqual(a, b) {
		t.Errorf("extraction not idempotent:\n%+v\n%+v", a, b)
	}
}

// A bare 4-digit token that cannot be a calendar year (engine code, price)
// must not be read as one.
func TestExtractYearIgnoresImplausibleTokens(t *testing.T) {
	e := New(testConfig())
	attrs := e.Extract("<html><body><p>Motorcode 9755, Preis 5490 €, Baujahr 2009</p></body></html>", "u")
	if attrs.Year == nil || *attrs.Year != 2009 {
		t.Errorf("Year: expected 2009, got %v", attrs.Year)
	}
}

func TestListingLinks(t *testing.T) {
	const searchHTML = `
	<html><body>
	  <a href="https://suchen.mobile.de/fahrzeuge/details.html?id=11">one</a>
	  <a href="https://www.mobile.de/fahrzeuge/details.html?id=11">one again, alias host</a>
	  <a href="https://m.mobile.de/fahrzeuge/details.html?id=22">two</a>
	  <a href="/fahrzeuge/details.html?id=44">three, site-relative</a>
	  <a href="https://example.com/details.html?id=33">wrong host</a>
	  <a href="https://m.mobile.de/fahrzeuge/search.html?p=2">pagination</a>
	</body></html>
	`
	const pageURL = "https://m.mobile.de/fahrzeuge/search.html?ms=25200"
	e := New(testConfig())

	links := e.ListingLinks(searchHTML, pageURL, 10)
	expected := []string{
		"https://m.mobile.de/fahrzeuge/details.html?id=11",
		"https://m.mobile.de/fahrzeuge/details.html?id=22",
		"https://m.mobile.de/fahrzeuge/details.html?id=44",
	}
	if !reflect.DeepEqual(links, expected) {
		t.Errorf("ListingLinks: expected %v, got %v", expected, links)
	}

	if capped := e.ListingLinks(searchHTML, pageURL, 1); len(capped) != 1 {
		t.Errorf("ListingLinks cap: expected 1 link, got %d", len(capped))
	}
}
