package models

import (
	"fmt"
	"math"
	"strings"

	"github.com/shopspring/decimal"
)

// PropertyType is the kind of property a search targets.
type PropertyType string

const (
	PropertyTypeFlat            PropertyType = "Flat"
	PropertyTypeIndividualHouse PropertyType = "Individual House"
	PropertyTypeOther           PropertyType = "Other"
)

// ParsePropertyType accepts the canonical names plus common spellings such
// as "IndividualHouse" or "individual-house".
func ParsePropertyType(s string) (PropertyType, error) {
	norm := strings.ToLower(strings.TrimSpace(s))
	norm = strings.NewReplacer(" ", "", "_", "", "-", "").Replace(norm)
	switch norm {
	case "flat", "apartment":
		return PropertyTypeFlat, nil
	case "individualhouse", "house", "villa":
		return PropertyTypeIndividualHouse, nil
	case "other":
		return PropertyTypeOther, nil
	}
	return "", fmt.Errorf("unknown property type %q", s)
}

// Search price bounds, in crores.
var (
	MinSearchPrice = decimal.RequireFromString("0.1")
	MaxSearchPrice = decimal.NewFromInt(100)
)

// ValidationError reports a malformed request; nothing has been called or
// stored when it is returned.
type ValidationError struct {
	Field string
	Msg   string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Msg
	}
	return e.Field + ": " + e.Msg
}

// SearchRequest is one property search: where, up to what price, what kind.
type SearchRequest struct {
	City         string
	MaxPrice     decimal.Decimal
	PropertyType PropertyType
}

// NewSearchRequest builds and validates a request from raw caller input.
func NewSearchRequest(city string, maxPrice float64, propertyType string) (SearchRequest, error) {
	if math.IsNaN(maxPrice) || math.IsInf(maxPrice, 0) {
		return SearchRequest{}, &ValidationError{Field: "max_price", Msg: "max price must be a finite number"}
	}
	pt, err := ParsePropertyType(propertyType)
	if err != nil {
		return SearchRequest{}, &ValidationError{Field: "property_type", Msg: err.Error()}
	}
	req := SearchRequest{
		City:         strings.TrimSpace(city),
		MaxPrice:     decimal.NewFromFloat(maxPrice),
		PropertyType: pt,
	}
	if err := req.Validate(); err != nil {
		return SearchRequest{}, err
	}
	return req, nil
}

// Validate checks the request shape.
func (r SearchRequest) Validate() error {
	if strings.TrimSpace(r.City) == "" {
		return &ValidationError{Field: "city", Msg: "city must not be empty"}
	}
	if r.MaxPrice.LessThan(MinSearchPrice) || r.MaxPrice.GreaterThan(MaxSearchPrice) {
		return &ValidationError{
			Field: "max_price",
			Msg:   fmt.Sprintf("max price must be between %s and %s crores, got %s", MinSearchPrice, MaxSearchPrice, r.MaxPrice),
		}
	}
	if _, err := ParsePropertyType(string(r.PropertyType)); err != nil {
		return &ValidationError{Field: "property_type", Msg: err.Error()}
	}
	return nil
}

// Canonical trims the city, maps the property type onto its canonical name
// and validates the result. Cache keys and history rows are built from the
// canonical form.
func (r SearchRequest) Canonical() (SearchRequest, error) {
	r.City = strings.TrimSpace(r.City)
	if pt, err := ParsePropertyType(string(r.PropertyType)); err == nil {
		r.PropertyType = pt
	}
	if err := r.Validate(); err != nil {
		return SearchRequest{}, err
	}
	return r, nil
}

// MaxPriceFloat is the budget as a float, used for cache keys.
func (r SearchRequest) MaxPriceFloat() float64 {
	return r.MaxPrice.InexactFloat64()
}
