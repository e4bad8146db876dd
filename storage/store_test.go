package storage

import (
	"context"
	"fmt"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"realestate-agent/models"
	"realestate-agent/utils"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(context.Background(), "sqlite://:memory:", utils.NewDiscardLogger())
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func newProperty(name, city, propertyType, price string) models.Property {
	return models.Property{
		BuildingName:    name,
		PropertyType:    propertyType,
		LocationAddress: name + " Road",
		City:            city,
		Price:           decimal.RequireFromString(price),
		PriceUnit:       models.PriceUnitCrore,
	}
}

func TestOpenRejectsUnknownScheme(t *testing.T) {
	_, err := Open(context.Background(), "mysql://localhost/db", utils.NewDiscardLogger())
	assert.Error(t, err)
}

func TestCreateAndGetProperty(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	p := newProperty("Prestige Lakeside", "Bangalore", "Flat", "1.5")
	require.NoError(t, s.CreateProperty(ctx, &p))
	require.NotZero(t, p.ID)

	got, err := s.GetPropertyByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, "Prestige Lakeside", got.BuildingName)
	assert.True(t, got.Price.Equal(decimal.RequireFromString("1.5")), "price round-trip: %s", got.Price)
	assert.Equal(t, models.PriceUnitCrore, got.PriceUnit)

	_, err = s.GetPropertyByID(ctx, 9999)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestCreatePropertyEnforcesInvariants(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	noCity := newProperty("Nowhere", "", "Flat", "1")
	assert.Error(t, s.CreateProperty(ctx, &noCity))

	negative := newProperty("Negative", "Pune", "Flat", "-1")
	assert.Error(t, s.CreateProperty(ctx, &negative))
}

func TestSearchPropertiesFiltersAndOrders(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	for _, p := range []models.Property{
		newProperty("A", "Bangalore", "Flat", "1.0"),
		newProperty("B", "Bangalore", "Flat", "6.0"),
		newProperty("C", "Bangalore", "Individual House", "2.0"),
		newProperty("D", "Pune", "Flat", "0.8"),
	} {
		p := p
		require.NoError(t, s.CreateProperty(ctx, &p))
	}

	all, err := s.SearchProperties(ctx, PropertyFilter{})
	require.NoError(t, err)
	require.Len(t, all, 4)
	assert.Equal(t, "D", all[0].BuildingName, "newest first")

	maxPrice := decimal.NewFromInt(5)
	flats, err := s.SearchProperties(ctx, PropertyFilter{City: "Bangalore", PropertyType: "Flat", MaxPrice: &maxPrice})
	require.NoError(t, err)
	require.Len(t, flats, 1)
	assert.Equal(t, "A", flats[0].BuildingName)

	limited, err := s.SearchProperties(ctx, PropertyFilter{Limit: 2})
	require.NoError(t, err)
	assert.Len(t, limited, 2)
}

func TestUpdateProperty(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	p := newProperty("Old Name", "Chennai", "Flat", "1.2")
	require.NoError(t, s.CreateProperty(ctx, &p))

	name := "New Name"
	price := decimal.RequireFromString("1.35")
	got, err := s.UpdateProperty(ctx, p.ID, models.PropertyUpdate{BuildingName: &name, Price: &price})
	require.NoError(t, err)
	assert.Equal(t, "New Name", got.BuildingName)
	assert.Equal(t, "Chennai", got.City)

	reloaded, err := s.GetPropertyByID(ctx, p.ID)
	require.NoError(t, err)
	assert.True(t, reloaded.Price.Equal(price))

	_, err = s.UpdateProperty(ctx, 424242, models.PropertyUpdate{BuildingName: &name})
	assert.ErrorIs(t, err, ErrNotFound)

	empty := ""
	_, err = s.UpdateProperty(ctx, p.ID, models.PropertyUpdate{City: &empty})
	assert.Error(t, err, "an update may not blank the city")
}

func TestDeletePropertyRemovesAnalyses(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	p := newProperty("Doomed", "Hyderabad", "Flat", "0.9")
	require.NoError(t, s.CreateProperty(ctx, &p))
	require.NoError(t, s.CreateInvestmentAnalysis(ctx, models.NewInvestmentAnalysis(p.ID, models.InvestmentResult{
		RiskScore: 40, Recommendation: models.RecommendationBuy,
	})))

	require.NoError(t, s.DeleteProperty(ctx, p.ID))

	_, err := s.GetPropertyByID(ctx, p.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	analyses, err := s.AllAnalysesForProperty(ctx, p.ID)
	require.NoError(t, err)
	assert.Empty(t, analyses)

	assert.ErrorIs(t, s.DeleteProperty(ctx, p.ID), ErrNotFound)
}

func TestSearchHistoryNewestFirst(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	for i, city := range []string{"Mumbai", "Delhi", "Kolkata"} {
		require.NoError(t, s.CreateSearchHistory(ctx, &models.SearchHistory{
			City: city, PropertyType: "Flat", MaxPrice: decimal.NewFromInt(int64(i + 1)), ResultsCount: i,
		}))
	}

	rows, err := s.RecentSearchHistory(ctx, 2)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "Kolkata", rows[0].City)
	assert.Equal(t, "Delhi", rows[1].City)
	assert.False(t, rows[0].CreatedAt.IsZero())
}

func TestSaveSearchIsBestEffortPerProperty(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	props := []models.Property{
		newProperty("Good One", "Bangalore", "Flat", "1.1"),
		newProperty("Bad One", "", "Flat", "1.2"),
		newProperty("Good Two", "Bangalore", "Flat", "2.2"),
	}
	h := &models.SearchHistory{City: "Bangalore", PropertyType: "Flat", MaxPrice: decimal.NewFromInt(5), ResultsCount: len(props)}

	saved, err := s.SaveSearch(ctx, props, h)
	require.NoError(t, err)
	assert.Equal(t, 2, saved)
	assert.NotZero(t, props[0].ID)
	assert.Zero(t, props[1].ID)
	assert.NotZero(t, props[2].ID)

	stored, err := s.SearchProperties(ctx, PropertyFilter{City: "Bangalore"})
	require.NoError(t, err)
	assert.Len(t, stored, 2)

	history, err := s.RecentSearchHistory(ctx, 10)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, 3, history[0].ResultsCount)
}

func TestSaveSearchHistoryFailureRollsBack(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	props := []models.Property{newProperty("Kept?", "Goa", "Flat", "1.0")}
	require.NoError(t, s.db.Migrator().DropTable(&models.SearchHistory{}))

	_, err := s.SaveSearch(ctx, props, &models.SearchHistory{City: "Goa", PropertyType: "Flat"})
	require.Error(t, err)
	assert.Zero(t, props[0].ID)

	stored, err := s.SearchProperties(ctx, PropertyFilter{City: "Goa"})
	require.NoError(t, err)
	assert.Empty(t, stored, "properties must roll back with the history row")
}

func TestInvestmentAnalyses(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	p := newProperty("Brigade Meadows", "Bangalore", "Flat", "1.2")
	require.NoError(t, s.CreateProperty(ctx, &p))

	for i := 1; i <= 3; i++ {
		a := models.NewInvestmentAnalysis(p.ID, models.InvestmentResult{
			ROI5Year:       float64(10 * i),
			RiskScore:      30 + i,
			Recommendation: models.RecommendationHold,
			Analysis:       fmt.Sprintf("analysis %d", i),
		})
		require.NoError(t, s.CreateInvestmentAnalysis(ctx, a))
	}

	latest, err := s.LatestAnalysisForProperty(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, "analysis 3", latest.AnalysisText)
	assert.Equal(t, 30.0, latest.ROI5Year)
	assert.Equal(t, 33, latest.RiskScore)

	all, err := s.AllAnalysesForProperty(ctx, p.ID)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "analysis 1", all[2].AnalysisText)

	_, err = s.LatestAnalysisForProperty(ctx, 777)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestAnalysisRequiresExistingProperty(t *testing.T) {
	s := newTestStore(t)
	err := s.CreateInvestmentAnalysis(context.Background(), models.NewInvestmentAnalysis(12345, models.InvestmentResult{
		Recommendation: models.RecommendationAvoid,
	}))
	assert.ErrorIs(t, err, ErrNotFound)
}
