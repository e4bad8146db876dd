// Package agents turns language-model output into the records the rest of
// the system works with. Every method absorbs model failures and returns a
// fixed fallback instead of an error.
package agents

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/shopspring/decimal"

	"realestate-agent/llm"
	"realestate-agent/models"
	"realestate-agent/services"
	"realestate-agent/utils"
)

// Fixed messages returned in place of model output.
const (
	NoPropertiesMessage       = "No properties found. Please try searching with different criteria."
	AnalysisFailedMessage     = "Analysis could not be generated. Please try again."
	InvestmentFallbackMessage = "Unable to generate investment analysis. Please try again or consult with a real estate expert."
	TrendFallbackMessage      = "Unable to generate market trend analysis. Please try again or consult with a real estate market analyst."
)

// maxPageText bounds the page text sent for extraction.
const maxPageText = 30000

// DefaultInvestment is returned when an investment analysis cannot be produced.
func DefaultInvestment() models.InvestmentResult {
	return models.InvestmentResult{
		RiskScore:      50,
		Recommendation: models.RecommendationHold,
		Analysis:       InvestmentFallbackMessage,
	}
}

// DefaultTrend is returned when a market-trend analysis cannot be produced.
func DefaultTrend() models.MarketTrendResult {
	return models.MarketTrendResult{
		PriceTrend:  models.PriceTrendStable,
		DemandLevel: models.DemandMedium,
		HotAreas:    []string{},
		Insights:    TrendFallbackMessage,
	}
}

// Analyst is the analysis gateway in front of a language model.
type Analyst struct {
	model    llm.Model
	insights *services.InsightService
	timeout  time.Duration
	logger   *utils.Logger
}

// NewAnalyst wires an Analyst. A zero timeout leaves calls bounded only by
// the caller's context.
func NewAnalyst(model llm.Model, insights *services.InsightService, timeout time.Duration, logger *utils.Logger) *Analyst {
	return &Analyst{model: model, insights: insights, timeout: timeout, logger: logger}
}

func (a *Analyst) generate(ctx context.Context, prompt string) (string, error) {
	if a.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, a.timeout)
		defer cancel()
	}
	text, err := a.model.Generate(ctx, prompt)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(text) == "" {
		return "", fmt.Errorf("model returned no text")
	}
	return text, nil
}

// SummarizeMarket asks for a free-text analysis of a search result set. An
// empty set short-circuits without calling the model.
func (a *Analyst) SummarizeMarket(ctx context.Context, props []models.Property, maxPrice decimal.Decimal) string {
	if len(props) == 0 {
		return NoPropertiesMessage
	}

	listing, err := json.MarshalIndent(props, "", "  ")
	if err != nil {
		a.logger.Error("[analyst] Could not encode properties: %v", err)
		return AnalysisFailedMessage
	}
	summary := a.insights.Describe(a.insights.Summarize(props))
	prompt := fmt.Sprintf(marketSummaryPrompt, listing, summary, maxPrice.String())

	a.logger.Info("[analyst] Requesting market analysis for %d properties", len(props))
	text, err := a.generate(ctx, prompt)
	if err != nil {
		a.logger.Error("[analyst] Market analysis failed: %v", err)
		return AnalysisFailedMessage
	}
	return text
}

// investmentWire tolerates fractional risk scores from the model. The
// pointer fields are required; a reply without them is malformed.
type investmentWire struct {
	ROI5Year         float64  `json:"roi_5year"`
	ROI10Year        float64  `json:"roi_10year"`
	AppreciationRate float64  `json:"appreciation_rate"`
	RentalYield      float64  `json:"rental_yield"`
	RiskScore        *float64 `json:"risk_score"`
	Recommendation   *string  `json:"recommendation"`
	Analysis         string   `json:"analysis"`
}

// trendWire mirrors models.MarketTrendResult with its required fields as
// pointers.
type trendWire struct {
	PriceTrend       *string  `json:"price_trend"`
	DemandLevel      string   `json:"demand_level"`
	GrowthPrediction float64  `json:"growth_prediction"`
	HotAreas         []string `json:"hot_areas"`
	Insights         *string  `json:"insights"`
}

// AnalyzeInvestment asks for a structured investment analysis of one property.
func (a *Analyst) AnalyzeInvestment(ctx context.Context, p models.Property) models.InvestmentResult {
	prompt := fmt.Sprintf(investmentPrompt,
		orNA(p.BuildingName), orNA(p.PropertyType), orNA(p.LocationAddress),
		orNA(p.City), p.Price.String(), orNA(p.Description))

	a.logger.Info("[analyst] Analyzing investment potential for %s", orNA(p.BuildingName))
	text, err := a.generate(ctx, prompt)
	if err != nil {
		a.logger.Error("[analyst] Investment analysis failed: %v", err)
		return DefaultInvestment()
	}

	var w investmentWire
	if err := json.Unmarshal([]byte(StripCodeFence(text)), &w); err != nil {
		a.logger.Error("[analyst] Failed to parse investment JSON: %v", err)
		return DefaultInvestment()
	}
	if w.RiskScore == nil || w.Recommendation == nil {
		a.logger.Error("[analyst] Investment JSON lacks risk_score or recommendation")
		return DefaultInvestment()
	}

	rec, ok := models.ParseRecommendation(*w.Recommendation)
	if !ok {
		a.logger.Warn("[analyst] Unknown recommendation %q, using hold", *w.Recommendation)
		rec = models.RecommendationHold
	}
	result := models.InvestmentResult{
		ROI5Year:         w.ROI5Year,
		ROI10Year:        w.ROI10Year,
		AppreciationRate: w.AppreciationRate,
		RentalYield:      w.RentalYield,
		RiskScore:        clampRisk(*w.RiskScore),
		Recommendation:   rec,
		Analysis:         strings.TrimSpace(w.Analysis),
	}
	a.logger.Info("[analyst] Investment analysis complete: %s", result.Recommendation)
	return result
}

// AnalyzeMarketTrend asks for a structured market outlook.
func (a *Analyst) AnalyzeMarketTrend(ctx context.Context, req models.TrendRequest) models.MarketTrendResult {
	prompt := fmt.Sprintf(marketTrendPrompt, req.City, req.PropertyType, req.Timeframe)

	a.logger.Info("[analyst] Analyzing market trends for %s, type: %s, timeframe: %s",
		req.City, req.PropertyType, req.Timeframe)
	text, err := a.generate(ctx, prompt)
	if err != nil {
		a.logger.Error("[analyst] Market trend analysis failed: %v", err)
		return DefaultTrend()
	}

	var w trendWire
	if err := json.Unmarshal([]byte(StripCodeFence(text)), &w); err != nil {
		a.logger.Error("[analyst] Failed to parse trend JSON: %v", err)
		return DefaultTrend()
	}
	if w.PriceTrend == nil || w.Insights == nil {
		a.logger.Error("[analyst] Trend JSON lacks price_trend or insights")
		return DefaultTrend()
	}

	result := models.MarketTrendResult{
		DemandLevel:      models.DemandLevel(w.DemandLevel),
		GrowthPrediction: w.GrowthPrediction,
		HotAreas:         w.HotAreas,
		Insights:         strings.TrimSpace(*w.Insights),
	}
	switch trend := models.PriceTrend(strings.ToLower(strings.TrimSpace(*w.PriceTrend))); trend {
	case models.PriceTrendRising, models.PriceTrendStable, models.PriceTrendDeclining:
		result.PriceTrend = trend
	default:
		result.PriceTrend = models.PriceTrendStable
	}
	switch demand := models.DemandLevel(strings.ToLower(strings.TrimSpace(string(result.DemandLevel)))); demand {
	case models.DemandHigh, models.DemandMedium, models.DemandLow:
		result.DemandLevel = demand
	default:
		result.DemandLevel = models.DemandMedium
	}
	if result.HotAreas == nil {
		result.HotAreas = []string{}
	}
	return result
}

// ExtractProperties asks the model to pull listing records out of rendered
// page text. Used by the browser scrape backend.
func (a *Analyst) ExtractProperties(ctx context.Context, pageText string, instruction string) []models.RawProperty {
	pageText = strings.TrimSpace(pageText)
	if pageText == "" {
		return []models.RawProperty{}
	}
	if len(pageText) > maxPageText {
		cut := maxPageText
		for cut > 0 && !utf8.RuneStart(pageText[cut]) {
			cut--
		}
		pageText = pageText[:cut]
	}

	text, err := a.generate(ctx, fmt.Sprintf(extractionPrompt, instruction, pageText))
	if err != nil {
		a.logger.Error("[analyst] Property extraction failed: %v", err)
		return []models.RawProperty{}
	}

	body := StripCodeFence(text)
	var wrapped struct {
		Properties []models.RawProperty `json:"properties"`
	}
	if err := json.Unmarshal([]byte(body), &wrapped); err == nil && wrapped.Properties != nil {
		return wrapped.Properties
	}
	var bare []models.RawProperty
	if err := json.Unmarshal([]byte(body), &bare); err == nil {
		return bare
	}
	a.logger.Error("[analyst] Failed to parse extracted properties")
	return []models.RawProperty{}
}

// StripCodeFence removes a surrounding markdown code fence and its optional
// language tag ("```json ... ```").
func StripCodeFence(text string) string {
	text = strings.TrimSpace(text)
	if !strings.HasPrefix(text, "```") {
		return text
	}
	text = strings.TrimPrefix(text, "```")
	if nl := strings.IndexByte(text, '\n'); nl >= 0 {
		tag := strings.TrimSpace(text[:nl])
		if tag == "" || !strings.ContainsAny(tag, "{[") {
			text = text[nl+1:]
		}
	} else {
		text = strings.TrimPrefix(text, "json")
	}
	if end := strings.LastIndex(text, "```"); end >= 0 {
		text = text[:end]
	}
	return strings.TrimSpace(text)
}

func clampRisk(v float64) int {
	if math.IsNaN(v) {
		return 50
	}
	r := int(math.Round(v))
	if r < 0 {
		return 0
	}
	if r > 100 {
		return 100
	}
	return r
}

func orNA(s string) string {
	if strings.TrimSpace(s) == "" {
		return "N/A"
	}
	return s
}
