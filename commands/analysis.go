package commands

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"realestate-agent/config"
	"realestate-agent/models"
)

func investCmd(o *config.Overrides) *cobra.Command {
	var refresh bool

	cmd := &cobra.Command{
		Use:   "invest PROPERTY_ID",
		Short: "Investment analysis for a stored property",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}

			a, err := newApp(cmd.Context(), o)
			if err != nil {
				return err
			}
			defer a.close()

			res, err := a.pipeline.AnalyzeInvestment(cmd.Context(), id, refresh)
			if err != nil {
				return fmt.Errorf("property %d: %w", id, err)
			}
			printInvestment(cmd.OutOrStdout(), res)
			return nil
		},
	}

	cmd.Flags().BoolVar(&refresh, "refresh", false, "ignore a cached analysis and ask the model again")
	return cmd
}

func trendsCmd(o *config.Overrides) *cobra.Command {
	var propertyType, timeframe string

	cmd := &cobra.Command{
		Use:   "trends CITY",
		Short: "Market trend outlook for a city",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			req, err := models.NewTrendRequest(strings.Join(args, " "), propertyType, timeframe)
			if err != nil {
				return err
			}

			a, err := newApp(cmd.Context(), o)
			if err != nil {
				return err
			}
			defer a.close()

			res, err := a.pipeline.MarketTrends(cmd.Context(), req)
			if err != nil {
				return err
			}
			printTrend(cmd.OutOrStdout(), req, res)
			return nil
		},
	}

	cmd.Flags().StringVar(&propertyType, "type", "All", "property type or All")
	cmd.Flags().StringVar(&timeframe, "timeframe", "1year", strings.Join(models.Timeframes, ", "))
	return cmd
}

func printInvestment(w io.Writer, a *models.InvestmentAnalysis) {
	fmt.Fprintf(w, "Property #%d\n", a.PropertyID)
	fmt.Fprintf(w, "  Recommendation   : %s\n", strings.ToUpper(string(a.Recommendation)))
	fmt.Fprintf(w, "  5-year ROI       : %.1f%%\n", a.ROI5Year)
	fmt.Fprintf(w, "  10-year ROI      : %.1f%%\n", a.ROI10Year)
	fmt.Fprintf(w, "  Appreciation     : %.1f%% / year\n", a.AppreciationRate)
	fmt.Fprintf(w, "  Rental yield     : %.1f%%\n", a.RentalYield)
	fmt.Fprintf(w, "  Risk score       : %d / 100\n", a.RiskScore)
	fmt.Fprintf(w, "\n%s\n", a.AnalysisText)
}

func printTrend(w io.Writer, req models.TrendRequest, t models.MarketTrendResult) {
	fmt.Fprintf(w, "%s (%s, %s)\n", req.City, req.PropertyType, req.Timeframe)
	fmt.Fprintf(w, "  Price trend      : %s\n", t.PriceTrend)
	fmt.Fprintf(w, "  Demand           : %s\n", t.DemandLevel)
	fmt.Fprintf(w, "  Growth forecast  : %.1f%%\n", t.GrowthPrediction)
	if len(t.HotAreas) > 0 {
		fmt.Fprintf(w, "  Hot areas        : %s\n", strings.Join(t.HotAreas, ", "))
	}
	fmt.Fprintf(w, "\n%s\n", t.Insights)
}

func parseID(s string) (uint, error) {
	id, err := strconv.ParseUint(s, 10, 0)
	if err != nil || id == 0 {
		return 0, fmt.Errorf("invalid property id %q", s)
	}
	return uint(id), nil
}
