package commands

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"realestate-agent/config"
	"realestate-agent/models"
	"realestate-agent/storage"
)

func searchCmd(o *config.Overrides) *cobra.Command {
	var (
		maxPrice     float64
		propertyType string
		exportCSV    bool
	)

	cmd := &cobra.Command{
		Use:   "search CITY",
		Short: "Search listings in a city and analyze the market",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			city := strings.Join(args, " ")
			req, err := models.NewSearchRequest(city, maxPrice, propertyType)
			if err != nil {
				return err
			}

			a, err := newApp(cmd.Context(), o)
			if err != nil {
				return err
			}
			defer a.close()

			result, err := a.pipeline.Search(cmd.Context(), req)
			if err != nil {
				return fmt.Errorf("search failed: %w", err)
			}
			a.insights.Print(req.City, result)

			if exportCSV && len(result.Properties) > 0 {
				w, err := storage.NewCSVWriter(a.cfg.CSVOutputPath)
				if err != nil {
					return err
				}
				defer w.Close()
				if err := w.WriteProperties(result.Properties); err != nil {
					return err
				}
				a.logger.Info("Saved %d properties to %s", len(result.Properties), a.cfg.CSVOutputPath)
			}
			return nil
		},
	}

	cmd.Flags().Float64Var(&maxPrice, "max-price", 1, "maximum price in crores (0.1 to 100)")
	cmd.Flags().StringVar(&propertyType, "type", string(models.PropertyTypeFlat), "Flat, Individual House or Other")
	cmd.Flags().BoolVar(&exportCSV, "csv", false, "also export the results to CSV_OUTPUT_PATH")
	return cmd
}
