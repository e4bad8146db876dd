package storage

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	"realestate-agent/models"
)

// CSVWriter exports properties to a CSV file.
// It is safe for concurrent use.
type CSVWriter struct {
	mu     sync.Mutex
	file   *os.File
	writer *csv.Writer
}

// NewCSVWriter creates (or truncates) the CSV file at the given path and
// writes the header row. Intermediate directories are created automatically.
func NewCSVWriter(path string) (*CSVWriter, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("csv: create output dir: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("csv: create file %q: %w", path, err)
	}

	w := csv.NewWriter(f)

	if err := w.Write(csvHeader); err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("csv: write header: %w", err)
	}
	w.Flush()

	return &CSVWriter{file: f, writer: w}, nil
}

// WriteProperties appends one row per property.
func (c *CSVWriter) WriteProperties(props []models.Property) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, p := range props {
		if err := c.writer.Write(propertyRow(p)); err != nil {
			return fmt.Errorf("csv: write row for %q: %w", p.BuildingName, err)
		}
	}

	c.writer.Flush()
	return c.writer.Error()
}

// Close flushes and closes the underlying file.
func (c *CSVWriter) Close() error {
	c.writer.Flush()
	return c.file.Close()
}

var csvHeader = []string{
	"id", "building_name", "property_type", "location_address", "city",
	"price", "price_unit", "description", "source_url", "created_at",
}

// propertyRow renders p in csvHeader order. Unsaved properties have blank
// id and created_at cells.
func propertyRow(p models.Property) []string {
	var id, created string
	if p.ID != 0 {
		id = strconv.FormatUint(uint64(p.ID), 10)
	}
	if !p.CreatedAt.IsZero() {
		created = p.CreatedAt.Format(time.RFC3339)
	}
	return []string{
		id, p.BuildingName, p.PropertyType, p.LocationAddress, p.City,
		p.Price.String(), p.PriceUnit, p.Description, p.SourceURL, created,
	}
}
