package normalize

import (
	"regexp"
	"strconv"
	"strings"
)

// Listing pages mix German and English number formatting. Every quantity we
// care about (prices in whole euros, mileage in km, years) is an integer, so
// '.' and ',' are always grouping separators here, never decimal points.
var reNonDigit = regexp.MustCompile(`[^\d]`)

// ParseIntToken parses a loosely formatted numeric token ("12.500", "12,500 ",
// "177000") into an integer. It never fails loudly: any input without a clean
// digit sequence yields (0, false).
func ParseIntToken(text string) (int, bool) {
	cleaned := strings.TrimSpace(text)
	if cleaned == "" {
		return 0, false
	}
	cleaned = strings.ReplaceAll(cleaned, ".", "")
	cleaned = strings.ReplaceAll(cleaned, ",", "")
	cleaned = strings.ReplaceAll(cleaned, " ", "")
	if cleaned == "" || reNonDigit.MatchString(cleaned) {
		return 0, false
	}
	n, err := strconv.Atoi(cleaned)
	if err != nil {
		return 0, false
	}
	return n, true
}

// ParseIntPtr is ParseIntToken for optional fields: nil on failure.
func ParseIntPtr(text string) *int {
	if n, ok := ParseIntToken(text); ok {
		return &n
	}
	return nil
}
