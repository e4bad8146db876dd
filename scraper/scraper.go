// Package scraper describes what the scrape backends fetch: the listing
// sites to read and the record shape to extract from them.
package scraper

import (
	"fmt"
	"strings"

	"realestate-agent/models"
)

// SourceURLs returns the listing pages searched for city. A trailing "/*"
// asks the extraction provider to follow the site's result pages.
func SourceURLs(city string) []string {
	slug := citySlug(city)
	return []string{
		fmt.Sprintf("https://www.squareyards.com/sale/property-for-sale-in-%s/*", slug),
		fmt.Sprintf("https://www.99acres.com/property-in-%s-ffid/*", slug),
		fmt.Sprintf("https://housing.com/in/buy/%s/%s", slug, slug),
	}
}

// PageURL strips the crawl wildcard from a source URL.
func PageURL(source string) string {
	return strings.TrimSuffix(source, "/*")
}

// Instruction is the natural-language extraction request for a search.
func Instruction(req models.SearchRequest, limit int) string {
	return fmt.Sprintf("Extract up to %d %s properties under %s crores in %s.",
		limit, req.PropertyType, req.MaxPrice.String(), req.City)
}

// Schema is the JSON schema of the extraction result: an object holding a
// "properties" array of listing records.
func Schema() map[string]any {
	str := map[string]any{"type": "string"}
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"properties": map[string]any{
				"type": "array",
				"items": map[string]any{
					"type": "object",
					"properties": map[string]any{
						"building_name":    str,
						"property_type":    str,
						"location_address": str,
						"price":            str,
						"description":      str,
					},
					"required": []string{"building_name", "property_type", "location_address", "price", "description"},
				},
			},
		},
		"required": []string{"properties"},
	}
}

func citySlug(city string) string {
	return strings.Join(strings.Fields(strings.ToLower(city)), "-")
}
