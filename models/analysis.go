package models

import (
	"fmt"
	"strings"
	"time"
)

// Recommendation is the investment verdict.
type Recommendation string

const (
	RecommendationBuy   Recommendation = "buy"
	RecommendationHold  Recommendation = "hold"
	RecommendationAvoid Recommendation = "avoid"
)

// ParseRecommendation normalizes a model-supplied verdict; ok is false for
// anything outside buy/hold/avoid.
func ParseRecommendation(s string) (Recommendation, bool) {
	r := Recommendation(strings.ToLower(strings.TrimSpace(s)))
	switch r {
	case RecommendationBuy, RecommendationHold, RecommendationAvoid:
		return r, true
	}
	return "", false
}

// InvestmentResult is the structured output of an investment analysis.
type InvestmentResult struct {
	ROI5Year         float64        `json:"roi_5year"`
	ROI10Year        float64        `json:"roi_10year"`
	AppreciationRate float64        `json:"appreciation_rate"`
	RentalYield      float64        `json:"rental_yield"`
	RiskScore        int            `json:"risk_score"`
	Recommendation   Recommendation `json:"recommendation"`
	Analysis         string         `json:"analysis"`
}

// InvestmentAnalysis is a stored, immutable investment analysis. Many may
// exist per property; the most recent one is current.
type InvestmentAnalysis struct {
	ID               uint           `gorm:"primaryKey" json:"id"`
	PropertyID       uint           `gorm:"not null;index" json:"property_id"`
	Property         *Property      `gorm:"foreignKey:PropertyID" json:"-"`
	ROI5Year         float64        `gorm:"column:roi_5yr;not null;default:0" json:"roi_5year"`
	ROI10Year        float64        `gorm:"column:roi_10yr;not null;default:0" json:"roi_10year"`
	AppreciationRate float64        `gorm:"not null;default:0" json:"appreciation_rate"`
	RentalYield      float64        `gorm:"not null;default:0" json:"rental_yield"`
	RiskScore        int            `gorm:"not null" json:"risk_score"`
	Recommendation   Recommendation `gorm:"size:20;not null" json:"recommendation"`
	AnalysisText     string         `gorm:"type:text" json:"analysis_text"`
	CreatedAt        time.Time      `gorm:"index" json:"created_at"`
}

// NewInvestmentAnalysis binds a model result to a stored property.
func NewInvestmentAnalysis(propertyID uint, r InvestmentResult) *InvestmentAnalysis {
	return &InvestmentAnalysis{
		PropertyID:       propertyID,
		ROI5Year:         r.ROI5Year,
		ROI10Year:        r.ROI10Year,
		AppreciationRate: r.AppreciationRate,
		RentalYield:      r.RentalYield,
		RiskScore:        r.RiskScore,
		Recommendation:   r.Recommendation,
		AnalysisText:     r.Analysis,
	}
}

// PriceTrend and DemandLevel are the market-trend enums.
type (
	PriceTrend  string
	DemandLevel string
)

const (
	PriceTrendRising    PriceTrend = "rising"
	PriceTrendStable    PriceTrend = "stable"
	PriceTrendDeclining PriceTrend = "declining"

	DemandHigh   DemandLevel = "high"
	DemandMedium DemandLevel = "medium"
	DemandLow    DemandLevel = "low"
)

// MarketTrendResult is a transient market outlook for a city.
type MarketTrendResult struct {
	PriceTrend       PriceTrend  `json:"price_trend"`
	DemandLevel      DemandLevel `json:"demand_level"`
	GrowthPrediction float64     `json:"growth_prediction"`
	HotAreas         []string    `json:"hot_areas"`
	Insights         string      `json:"insights"`
}

// Timeframes accepted by a trend request.
var Timeframes = []string{"6months", "1year", "3years"}

// TrendRequest asks for the market outlook of a city.
type TrendRequest struct {
	City         string
	PropertyType string
	Timeframe    string
}

// NewTrendRequest validates and fills defaults ("All" types, "1year").
func NewTrendRequest(city, propertyType, timeframe string) (TrendRequest, error) {
	req := TrendRequest{
		City:         strings.TrimSpace(city),
		PropertyType: strings.TrimSpace(propertyType),
		Timeframe:    strings.ToLower(strings.TrimSpace(timeframe)),
	}
	if req.City == "" {
		return TrendRequest{}, &ValidationError{Field: "city", Msg: "city must not be empty"}
	}
	if req.PropertyType == "" || strings.EqualFold(req.PropertyType, "all") {
		req.PropertyType = "All"
	} else {
		pt, err := ParsePropertyType(req.PropertyType)
		if err != nil {
			return TrendRequest{}, &ValidationError{Field: "property_type", Msg: err.Error()}
		}
		req.PropertyType = string(pt)
	}
	if req.Timeframe == "" {
		req.Timeframe = "1year"
	}
	for _, tf := range Timeframes {
		if tf == req.Timeframe {
			return req, nil
		}
	}
	return TrendRequest{}, &ValidationError{
		Field: "timeframe",
		Msg:   fmt.Sprintf("timeframe must be one of %s", strings.Join(Timeframes, ", ")),
	}
}
