package services

import (
	"testing"

	"github.com/shopspring/decimal"

	"realestate-agent/models"
	"realestate-agent/utils"
)

func newTestLogger() *utils.Logger { return utils.NewDiscardLogger() }

func TestCleanerParsePrice(t *testing.T) {
	c := NewCleaner(newTestLogger())

	tests := []struct {
		raw  string
		want string
	}{
		{"₹1.2 Cr", "1.2"},
		{"1.75 Crore", "1.75"},
		{"85 Lakh", "0.85"},
		{"₹ 60 L", "0.6"},
		{"2.5", "2.5"},
		{"₹ 45,00,000", "0.45"},
		{"", "0"},
		{"Price on request", "0"},
	}

	for _, tt := range tests {
		got := c.parsePrice(tt.raw)
		if !got.Equal(decimal.RequireFromString(tt.want)) {
			t.Errorf("parsePrice(%q) = %s; want %s", tt.raw, got, tt.want)
		}
	}
}

func TestCleanerDropsNamelessRows(t *testing.T) {
	c := NewCleaner(newTestLogger())
	raw := []models.RawProperty{
		{BuildingName: "  ", LocationAddress: "Whitefield", Price: "1 Cr"},
		{BuildingName: "Prestige Lakeside", LocationAddress: "Whitefield", Price: "1.4 Cr"},
	}

	cleaned := c.Clean(raw, "Bangalore")
	if len(cleaned) != 1 {
		t.Fatalf("expected 1 property after dropping nameless row, got %d", len(cleaned))
	}
	if cleaned[0].City != "Bangalore" {
		t.Errorf("city should be stamped, got %q", cleaned[0].City)
	}
	if cleaned[0].PriceUnit != models.PriceUnitCrore {
		t.Errorf("price unit: got %q", cleaned[0].PriceUnit)
	}
}

func TestCleanerDeduplicatesNaturalKey(t *testing.T) {
	c := NewCleaner(newTestLogger())
	raw := []models.RawProperty{
		{BuildingName: "Sobha City", LocationAddress: "Hebbal,  Bangalore"},
		{BuildingName: "sobha  city", LocationAddress: "hebbal, bangalore"},
		{BuildingName: "Sobha City", LocationAddress: "Thanisandra"},
	}

	cleaned := c.Clean(raw, "Bangalore")
	if len(cleaned) != 2 {
		t.Errorf("expected 2 properties after deduplication, got %d", len(cleaned))
	}
}

func TestCleanerNormalisesText(t *testing.T) {
	c := NewCleaner(newTestLogger())
	raw := []models.RawProperty{{
		BuildingName:    "  Brigade\tMeadows ",
		PropertyType:    "flat",
		LocationAddress: "Kanakapura\n Road",
		Description:     " 3 BHK   ready to move ",
	}}

	got := c.Clean(raw, " Bangalore ")[0]
	if got.BuildingName != "Brigade Meadows" {
		t.Errorf("BuildingName: got %q", got.BuildingName)
	}
	if got.PropertyType != "Flat" {
		t.Errorf("PropertyType: got %q, want Flat", got.PropertyType)
	}
	if got.LocationAddress != "Kanakapura Road" {
		t.Errorf("LocationAddress: got %q", got.LocationAddress)
	}
	if got.Description != "3 BHK ready to move" {
		t.Errorf("Description: got %q", got.Description)
	}
	if got.City != "Bangalore" {
		t.Errorf("City: got %q", got.City)
	}
}
