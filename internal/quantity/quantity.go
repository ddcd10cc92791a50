// Package quantity normalizes the free-form amounts clients send for
// inventory items: bare numbers, or strings like "200g" and "10 Slices".
package quantity

import (
	"regexp"
	"strconv"
	"strings"
)

// DefaultUnit is used whenever no unit can be determined.
const DefaultUnit = "pcs"

var amountRe = regexp.MustCompile(`^(\d+(?:\.\d+)?)(?:\s*([A-Za-z][A-Za-z\s]*))?$`)

// Parse accepts a quantity as a number or a string with an optional unit
// suffix and returns the numeric amount plus a normalized unit. A string
// that cannot be parsed yields {0, "pcs"}; callers must treat a zero
// quantity as a data-quality problem rather than a valid amount.
func Parse(v interface{}) (float64, string) {
	switch q := v.(type) {
	case float64:
		return q, DefaultUnit
	case int:
		return float64(q), DefaultUnit
	case string:
		return ParseString(q)
	default:
		return 0, DefaultUnit
	}
}

// ParseString parses strings like "200g", "10 Slices", "1" or "1 pcs".
func ParseString(s string) (float64, string) {
	m := amountRe.FindStringSubmatch(strings.TrimSpace(s))
	if m == nil {
		return 0, DefaultUnit
	}

	q, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return 0, DefaultUnit
	}

	unit := strings.TrimSpace(m[2])
	if unit == "" {
		unit = DefaultUnit
	}
	return q, NormalizeUnit(unit)
}

// NormalizeUnit collapses common unit synonyms to a canonical short form.
// Unrecognized units are title-cased and passed through unchanged.
func NormalizeUnit(unit string) string {
	switch strings.ToLower(unit) {
	case "g", "gram", "grams":
		return "g"
	case "kg", "kilogram", "kilograms":
		return "kg"
	case "l", "liter", "liters":
		return "L"
	case "ml", "milliliter", "milliliters":
		return "mL"
	case "slice", "slices":
		return "Slices"
	case "pc", "pcs", "piece", "pieces":
		return "pcs"
	}
	if len(unit) > 1 {
		return strings.ToUpper(unit[:1]) + strings.ToLower(unit[1:])
	}
	return unit
}
