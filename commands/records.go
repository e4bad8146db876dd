package commands

import (
	"fmt"
	"io"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"realestate-agent/config"
	"realestate-agent/models"
	"realestate-agent/storage"
)

func historyCmd(o *config.Overrides) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recent searches",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd.Context(), o)
			if err != nil {
				return err
			}
			defer a.close()

			rows, err := a.store.RecentSearchHistory(cmd.Context(), limit)
			if err != nil {
				return err
			}
			printHistory(cmd.OutOrStdout(), rows)
			return nil
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 10, "number of searches to show")
	return cmd
}

func propertiesCmd(o *config.Overrides) *cobra.Command {
	var (
		city, propertyType string
		maxPrice           float64
		limit              int
	)

	cmd := &cobra.Command{
		Use:   "properties",
		Short: "List stored properties",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			f := storage.PropertyFilter{City: city, Limit: limit}
			if propertyType != "" {
				pt, err := models.ParsePropertyType(propertyType)
				if err != nil {
					return err
				}
				f.PropertyType = string(pt)
			}
			if maxPrice > 0 {
				p := decimal.NewFromFloat(maxPrice)
				f.MaxPrice = &p
			}

			a, err := newApp(cmd.Context(), o)
			if err != nil {
				return err
			}
			defer a.close()

			props, err := a.store.SearchProperties(cmd.Context(), f)
			if err != nil {
				return err
			}
			printProperties(cmd.OutOrStdout(), props)
			return nil
		},
	}

	cmd.Flags().StringVar(&city, "city", "", "filter by city")
	cmd.Flags().StringVar(&propertyType, "type", "", "filter by property type")
	cmd.Flags().Float64Var(&maxPrice, "max-price", 0, "filter by maximum price in crores")
	cmd.Flags().IntVar(&limit, "limit", 100, "maximum rows")
	return cmd
}

func printHistory(w io.Writer, rows []models.SearchHistory) {
	if len(rows) == 0 {
		fmt.Fprintln(w, "No searches yet.")
		return
	}
	fmt.Fprintf(w, "%-5s  %-16s  %-18s  %9s  %7s  %s\n", "ID", "When", "City", "Max (Cr)", "Results", "Type")
	for _, h := range rows {
		fmt.Fprintf(w, "%-5d  %-16s  %-18s  %9s  %7d  %s\n",
			h.ID, h.CreatedAt.Format("2006-01-02 15:04"), h.City, h.MaxPrice.StringFixed(2), h.ResultsCount, h.PropertyType)
	}
}

func printProperties(w io.Writer, props []models.Property) {
	if len(props) == 0 {
		fmt.Fprintln(w, "No properties stored.")
		return
	}
	fmt.Fprintf(w, "%-5s  %-32s  %-16s  %-14s  %9s\n", "ID", "Building", "Type", "City", "Price (Cr)")
	for _, p := range props {
		name := p.BuildingName
		if len(name) > 32 {
			name = name[:29] + "..."
		}
		fmt.Fprintf(w, "%-5d  %-32s  %-16s  %-14s  %9s\n",
			p.ID, name, p.PropertyType, p.City, p.Price.StringFixed(2))
	}
	fmt.Fprintf(w, "%s\n%d properties\n", strings.Repeat("-", 84), len(props))
}
