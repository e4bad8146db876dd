package services

import (
	"regexp"
	"strings"
	"unicode"

	"github.com/shopspring/decimal"

	"realestate-agent/models"
	"realestate-agent/utils"
)

var (
	// priceRegexp captures the first numeric value in a price string
	priceRegexp = regexp.MustCompile(`\d+(?:\.\d+)?`)
	// lakhRegexp matches "lakh", "lac", "lacs" and the "L" abbreviation
	lakhRegexp = regexp.MustCompile(`\b(lakhs?|lacs?|l)\b`)
	// croreRegexp matches "crore", "cr" and "cr."
	croreRegexp = regexp.MustCompile(`\b(crores?|cr)\b`)

	lakhsPerCrore  = decimal.NewFromInt(100)
	rupeesPerCrore = decimal.NewFromInt(10_000_000)
	// plain numbers above this are taken to be rupees rather than crores
	rupeeThreshold = decimal.NewFromInt(1000)
)

// Cleaner transforms RawProperty records into clean, validated Properties.
type Cleaner struct {
	logger *utils.Logger
}

// NewCleaner creates a Cleaner with the given logger.
func NewCleaner(logger *utils.Logger) *Cleaner {
	return &Cleaner{logger: logger}
}

// Clean normalizes raw records for city: whitespace is collapsed, prices are
// converted to crores, nameless rows are dropped and duplicates on the
// (building name, address) natural key are skipped.
func (c *Cleaner) Clean(raw []models.RawProperty, city string) []models.Property {
	city = normaliseText(city)
	seen := make(map[string]struct{})
	result := make([]models.Property, 0, len(raw))

	for _, r := range raw {
		name := normaliseText(r.BuildingName)
		if name == "" {
			c.logger.Warn("[cleaner] Dropping property with empty building name at %q", r.LocationAddress)
			continue
		}

		address := normaliseText(r.LocationAddress)
		key := strings.ToLower(name + "|" + address)
		if _, dup := seen[key]; dup {
			c.logger.Debug("[cleaner] Duplicate property skipped: %s, %s", name, address)
			continue
		}
		seen[key] = struct{}{}

		propertyType := normaliseText(r.PropertyType)
		if pt, err := models.ParsePropertyType(propertyType); err == nil {
			propertyType = string(pt)
		}

		result = append(result, models.Property{
			BuildingName:    name,
			PropertyType:    propertyType,
			LocationAddress: address,
			City:            city,
			Price:           c.parsePrice(string(r.Price)),
			PriceUnit:       models.PriceUnitCrore,
			Description:     normaliseText(r.Description),
			SourceURL:       strings.TrimSpace(r.SourceURL),
		})
	}

	c.logger.Info("[cleaner] Cleaned %d → %d properties (dropped %d)",
		len(raw), len(result), len(raw)-len(result))
	return result
}

// parsePrice converts a listing price to crores.
// Examples:
//
//	"₹1.2 Cr"      → 1.2
//	"85 Lakh"      → 0.85
//	"2.5"          → 2.5
//	"₹ 45,00,000"  → 0.45
func (c *Cleaner) parsePrice(raw string) decimal.Decimal {
	lower := strings.ToLower(raw)
	cleaned := strings.ReplaceAll(lower, ",", "")
	match := priceRegexp.FindString(cleaned)
	if match == "" {
		return decimal.Zero
	}

	value, err := decimal.NewFromString(match)
	if err != nil {
		c.logger.Debug("[cleaner] Unparseable price %q", raw)
		return decimal.Zero
	}

	switch {
	case croreRegexp.MatchString(lower):
		return value
	case lakhRegexp.MatchString(lower):
		return value.Div(lakhsPerCrore)
	case value.GreaterThan(rupeeThreshold):
		return value.Div(rupeesPerCrore)
	default:
		return value
	}
}

// normaliseText strips leading/trailing whitespace and collapses internal whitespace.
func normaliseText(s string) string {
	s = strings.TrimSpace(s)
	fields := strings.FieldsFunc(s, func(r rune) bool {
		return unicode.IsSpace(r)
	})
	return strings.Join(fields, " ")
}
