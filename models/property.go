package models

import (
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// PriceUnitCrore is the canonical unit for every stored price (1 crore = 10^7 INR).
const PriceUnitCrore = "crore"

// RawProperty is one record as returned by the scrape provider, before any
// normalization. Price arrives as free text ("₹1.2 Cr", "85 Lakh", 2.5).
type RawProperty struct {
	BuildingName    string     `json:"building_name"`
	PropertyType    string     `json:"property_type"`
	LocationAddress string     `json:"location_address"`
	Price           FlexString `json:"price"`
	Description     string     `json:"description"`
	SourceURL       string     `json:"source_url,omitempty"`
}

// FlexString accepts either a JSON string or a JSON number.
type FlexString string

func (f *FlexString) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		*f = ""
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		*f = FlexString(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return err
	}
	*f = FlexString(n.String())
	return nil
}

// Property is the cleaned record stored in the properties table.
type Property struct {
	ID              uint            `gorm:"primaryKey" json:"id,omitempty"`
	BuildingName    string          `gorm:"size:200;not null" json:"building_name"`
	PropertyType    string          `gorm:"size:50;not null;index" json:"property_type"`
	LocationAddress string          `gorm:"type:text;not null" json:"location_address"`
	City            string          `gorm:"size:100;not null;index" json:"city"`
	Price           decimal.Decimal `gorm:"type:numeric(14,4);not null" json:"price"`
	PriceUnit       string          `gorm:"size:20;not null" json:"price_unit"`
	Description     string          `gorm:"type:text" json:"description"`
	SourceURL       string          `gorm:"type:text" json:"source_url,omitempty"`
	CreatedAt       time.Time       `gorm:"index" json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

var (
	errPropertyCity  = errors.New("property city must not be empty")
	errPropertyPrice = errors.New("property price must not be negative")
)

// BeforeSave rejects an empty city or a negative price.
func (p *Property) BeforeSave(tx *gorm.DB) error {
	if strings.TrimSpace(p.City) == "" {
		return errPropertyCity
	}
	if p.Price.IsNegative() {
		return errPropertyPrice
	}
	if p.PriceUnit == "" {
		p.PriceUnit = PriceUnitCrore
	}
	return nil
}

// PropertyUpdate lists the mutable fields of a stored property; nil fields
// are left unchanged.
type PropertyUpdate struct {
	BuildingName    *string          `json:"building_name,omitempty"`
	PropertyType    *string          `json:"property_type,omitempty"`
	LocationAddress *string          `json:"location_address,omitempty"`
	City            *string          `json:"city,omitempty"`
	Price           *decimal.Decimal `json:"price,omitempty"`
	Description     *string          `json:"description,omitempty"`
	SourceURL       *string          `json:"source_url,omitempty"`
}

// ApplyTo copies the set fields onto p.
func (u PropertyUpdate) ApplyTo(p *Property) {
	if u.BuildingName != nil {
		p.BuildingName = *u.BuildingName
	}
	if u.PropertyType != nil {
		p.PropertyType = *u.PropertyType
	}
	if u.LocationAddress != nil {
		p.LocationAddress = *u.LocationAddress
	}
	if u.City != nil {
		p.City = *u.City
	}
	if u.Price != nil {
		p.Price = *u.Price
	}
	if u.Description != nil {
		p.Description = *u.Description
	}
	if u.SourceURL != nil {
		p.SourceURL = *u.SourceURL
	}
}

// SearchHistory is one append-only row per orchestrated search.
type SearchHistory struct {
	ID           uint            `gorm:"primaryKey" json:"id"`
	City         string          `gorm:"size:100;not null;index" json:"city"`
	PropertyType string          `gorm:"size:50;not null" json:"property_type"`
	MaxPrice     decimal.Decimal `gorm:"type:numeric(14,4);not null" json:"max_price"`
	ResultsCount int             `gorm:"not null;default:0" json:"results_count"`
	CreatedAt    time.Time       `gorm:"index" json:"created_at"`
}

func (SearchHistory) TableName() string {
	return "search_history"
}

// SearchResult is the composite {properties, analysis} pair returned to the
// caller of a search and stored in the cache.
type SearchResult struct {
	Properties []Property `json:"properties"`
	Analysis   string     `json:"analysis"`
}

// PriceSummary holds computed statistics over a set of properties.
type PriceSummary struct {
	TotalProperties  int
	PricedProperties int
	AveragePrice     decimal.Decimal
	MinPrice         decimal.Decimal
	MaxPrice         decimal.Decimal
	Cheapest         *Property
	MostExpensive    *Property
	ByLocation       map[string]int
}
