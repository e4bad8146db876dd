package storage

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"

	"realestate-agent/models"
)

func TestCSVWriterWritesProperties(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "properties.csv")
	w, err := NewCSVWriter(path)
	if err != nil {
		t.Fatalf("NewCSVWriter: %v", err)
	}

	props := []models.Property{{
		ID: 7, BuildingName: "Sobha City", PropertyType: "Flat", LocationAddress: "Hebbal, Bangalore",
		City: "Bangalore", Price: decimal.RequireFromString("0.95"), PriceUnit: models.PriceUnitCrore,
	}}
	if err := w.WriteProperties(props); err != nil {
		t.Fatalf("WriteProperties: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	f, err := os.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	rows, err := csv.NewReader(f).ReadAll()
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 2 {
		t.Fatalf("expected header + 1 row, got %d rows", len(rows))
	}
	if rows[1][0] != "7" || rows[1][1] != "Sobha City" || rows[1][5] != "0.95" {
		t.Errorf("unexpected row: %v", rows[1])
	}
	if rows[1][3] != "Hebbal, Bangalore" {
		t.Errorf("address with comma should survive quoting, got %q", rows[1][3])
	}
}
