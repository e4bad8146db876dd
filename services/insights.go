package services

import (
	"fmt"
	"sort"
	"strings"

	"github.com/shopspring/decimal"

	"realestate-agent/models"
	"realestate-agent/utils"
)

type InsightService struct {
	logger *utils.Logger
}

func NewInsightService(logger *utils.Logger) *InsightService {
	return &InsightService{logger: logger}
}

// Summarize computes price and location statistics over a result set.
// Properties without a price are counted but left out of the price stats.
func (s *InsightService) Summarize(props []models.Property) models.PriceSummary {
	summary := models.PriceSummary{
		ByLocation: make(map[string]int),
	}
	if len(props) == 0 {
		return summary
	}

	summary.TotalProperties = len(props)

	total := decimal.Zero
	for i := range props {
		p := &props[i]
		if loc := locality(p.LocationAddress); loc != "" {
			summary.ByLocation[loc]++
		}
		if !p.Price.IsPositive() {
			continue
		}

		summary.PricedProperties++
		total = total.Add(p.Price)
		if summary.Cheapest == nil || p.Price.LessThan(summary.Cheapest.Price) {
			summary.Cheapest = p
		}
		if summary.MostExpensive == nil || p.Price.GreaterThan(summary.MostExpensive.Price) {
			summary.MostExpensive = p
		}
	}

	if summary.PricedProperties > 0 {
		summary.AveragePrice = total.Div(decimal.NewFromInt(int64(summary.PricedProperties))).Round(2)
		summary.MinPrice = summary.Cheapest.Price.Round(2)
		summary.MaxPrice = summary.MostExpensive.Price.Round(2)
	}

	s.logger.Debug("[insights] %d properties, %d priced, avg %s Cr",
		summary.TotalProperties, summary.PricedProperties, summary.AveragePrice)
	return summary
}

// Describe renders a summary as plain text lines for a model prompt.
func (s *InsightService) Describe(sum models.PriceSummary) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Total properties: %d\n", sum.TotalProperties)
	if sum.PricedProperties > 0 {
		fmt.Fprintf(&b, "Average price: %s Cr\n", sum.AveragePrice.StringFixed(2))
		fmt.Fprintf(&b, "Price range: %s Cr to %s Cr\n", sum.MinPrice.StringFixed(2), sum.MaxPrice.StringFixed(2))
	} else {
		b.WriteString("No price data available\n")
	}
	for _, lc := range sortedLocations(sum.ByLocation) {
		fmt.Fprintf(&b, "Listings in %s: %d\n", lc.loc, lc.count)
	}
	return b.String()
}

// Print writes a search result report to stdout.
func (s *InsightService) Print(city string, r *models.SearchResult) {
	sep := strings.Repeat("═", 54)
	thin := strings.Repeat("─", 54)
	sum := s.Summarize(r.Properties)

	fmt.Printf("\n\033[1;35m%s\033[0m\n", sep)
	fmt.Printf("\033[1;35m  🏠 PROPERTY SEARCH: %s\033[0m\n", strings.ToUpper(city))
	fmt.Printf("\033[1;35m%s\033[0m\n\n", sep)

	// Overview
	fmt.Printf("\033[1;33m  Overview\033[0m\n")
	fmt.Printf("  %s\n", thin)
	fmt.Printf("  Properties found : \033[1m%d\033[0m\n", sum.TotalProperties)
	fmt.Printf("  With a price     : \033[1m%d\033[0m\n", sum.PricedProperties)
	fmt.Println()

	// Price Stats
	fmt.Printf("\033[1;33m  Price Statistics (crore)\033[0m\n")
	fmt.Printf("  %s\n", thin)
	if sum.PricedProperties > 0 {
		fmt.Printf("  Average price : \033[1;32m₹%s Cr\033[0m\n", sum.AveragePrice.StringFixed(2))
		fmt.Printf("  Minimum price : \033[1;32m₹%s Cr\033[0m\n", sum.MinPrice.StringFixed(2))
		fmt.Printf("  Maximum price : \033[1;32m₹%s Cr\033[0m\n", sum.MaxPrice.StringFixed(2))
	} else {
		fmt.Printf("  No price data available\n")
	}
	fmt.Println()

	// Listings
	fmt.Printf("\033[1;33m  Properties\033[0m\n")
	fmt.Printf("  %s\n", thin)
	if len(r.Properties) == 0 {
		fmt.Printf("  No properties found\n")
	}
	for i, p := range r.Properties {
		fmt.Printf("  \033[1m%d.\033[0m %-38s \033[1;32m₹%s Cr\033[0m\n",
			i+1, truncate(p.BuildingName, 36), p.Price.StringFixed(2))
		fmt.Printf("     %s | %s\n", p.PropertyType, truncate(p.LocationAddress, 40))
	}
	fmt.Println()

	// Properties by Location
	fmt.Printf("\033[1;33m  Properties by Location\033[0m\n")
	fmt.Printf("  %s\n", thin)
	if len(sum.ByLocation) == 0 {
		fmt.Printf("  No location data\n")
	} else {
		for _, lc := range sortedLocations(sum.ByLocation) {
			bar := strings.Repeat("█", lc.count)
			fmt.Printf("  %-30s %s (%d)\n", truncate(lc.loc, 28), bar, lc.count)
		}
	}
	fmt.Println()

	// Analysis
	fmt.Printf("\033[1;33m  Market Analysis\033[0m\n")
	fmt.Printf("  %s\n", thin)
	fmt.Printf("%s\n", r.Analysis)

	fmt.Printf("\n\033[1;35m%s\033[0m\n\n", sep)
}

type locCount struct {
	loc   string
	count int
}

// sortedLocations orders locations by count descending, then by name.
func sortedLocations(m map[string]int) []locCount {
	locs := make([]locCount, 0, len(m))
	for loc, cnt := range m {
		if loc != "" {
			locs = append(locs, locCount{loc, cnt})
		}
	}
	sort.Slice(locs, func(i, j int) bool {
		if locs[i].count != locs[j].count {
			return locs[i].count > locs[j].count
		}
		return locs[i].loc < locs[j].loc
	})
	return locs
}

// locality is the first comma-separated part of an address, usually the
// neighbourhood ("Whitefield, Bangalore" → "Whitefield").
func locality(address string) string {
	part, _, _ := strings.Cut(address, ",")
	return strings.TrimSpace(part)
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max-3] + "..."
}
