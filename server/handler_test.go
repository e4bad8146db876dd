package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"realestate-agent/health"
	"realestate-agent/models"
	"realestate-agent/storage"
	"realestate-agent/utils"
)

type fakeService struct {
	searchReq   models.SearchRequest
	searchErr   error
	refreshSeen bool
	updated     models.PropertyUpdate
	deleted     uint
}

func (f *fakeService) Search(_ context.Context, req models.SearchRequest) (*models.SearchResult, error) {
	f.searchReq = req
	if f.searchErr != nil {
		return nil, f.searchErr
	}
	return &models.SearchResult{
		Properties: []models.Property{{ID: 1, BuildingName: "Prestige Lakeside", City: req.City}},
		Analysis:   "Strong demand in Whitefield.",
	}, nil
}

func (f *fakeService) AnalyzeInvestment(_ context.Context, id uint, refresh bool) (*models.InvestmentAnalysis, error) {
	f.refreshSeen = refresh
	if id == 404 {
		return nil, storage.ErrNotFound
	}
	return &models.InvestmentAnalysis{ID: 7, PropertyID: id, RiskScore: 30}, nil
}

func (f *fakeService) MarketTrends(_ context.Context, req models.TrendRequest) (models.MarketTrendResult, error) {
	return models.MarketTrendResult{Insights: "rising in " + req.City}, nil
}

func (f *fakeService) UpdateProperty(_ context.Context, id uint, upd models.PropertyUpdate) (*models.Property, error) {
	f.updated = upd
	p := &models.Property{ID: id, City: "Bangalore"}
	upd.ApplyTo(p)
	return p, nil
}

func (f *fakeService) DeleteProperty(_ context.Context, id uint) error {
	if id == 404 {
		return storage.ErrNotFound
	}
	f.deleted = id
	return nil
}

type fakeRepo struct {
	filter storage.PropertyFilter
	limit  int
}

func (f *fakeRepo) GetPropertyByID(_ context.Context, id uint) (*models.Property, error) {
	if id == 404 {
		return nil, storage.ErrNotFound
	}
	return &models.Property{ID: id, BuildingName: "Sobha City"}, nil
}

func (f *fakeRepo) SearchProperties(_ context.Context, filter storage.PropertyFilter) ([]models.Property, error) {
	f.filter = filter
	return []models.Property{{ID: 1}, {ID: 2}}, nil
}

func (f *fakeRepo) RecentSearchHistory(_ context.Context, limit int) ([]models.SearchHistory, error) {
	f.limit = limit
	return []models.SearchHistory{{ID: 1, City: "Pune"}}, nil
}

func (f *fakeRepo) LatestAnalysisForProperty(_ context.Context, id uint) (*models.InvestmentAnalysis, error) {
	return &models.InvestmentAnalysis{ID: 9, PropertyID: id}, nil
}

func (f *fakeRepo) AllAnalysesForProperty(_ context.Context, id uint) ([]models.InvestmentAnalysis, error) {
	return []models.InvestmentAnalysis{{ID: 9, PropertyID: id}, {ID: 8, PropertyID: id}}, nil
}

type fakeHealth struct{}

func (fakeHealth) Check(context.Context) health.Report {
	return health.Report{Status: health.StatusHealthy, Version: health.Version}
}

func newTestServer(t *testing.T) (*httptest.Server, *fakeService, *fakeRepo) {
	t.Helper()
	svc := &fakeService{}
	repo := &fakeRepo{}
	mux := http.NewServeMux()
	NewHandler(svc, repo, fakeHealth{}, utils.NewDiscardLogger()).RegisterRoutes(mux)
	ts := httptest.NewServer(mux)
	t.Cleanup(ts.Close)
	return ts, svc, repo
}

func do(t *testing.T, method, url, body string) (*http.Response, map[string]any) {
	t.Helper()
	req, err := http.NewRequest(method, url, strings.NewReader(body))
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	var out any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	if m, ok := out.(map[string]any); ok {
		return resp, m
	}
	return resp, map[string]any{"items": out}
}

func TestSearchEndpoint(t *testing.T) {
	ts, svc, _ := newTestServer(t)

	resp, body := do(t, http.MethodPost, ts.URL+"/search",
		`{"city":"Bangalore","max_price":2,"property_type":"flat"}`)

	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "Strong demand in Whitefield.", body["analysis"])
	assert.Len(t, body["properties"], 1)
	assert.Equal(t, models.PropertyType("Flat"), svc.searchReq.PropertyType)
	assert.True(t, svc.searchReq.MaxPrice.Equal(decimal.NewFromInt(2)))
}

func TestSearchRejectsBadInput(t *testing.T) {
	ts, _, _ := newTestServer(t)

	tests := []struct {
		name string
		body string
	}{
		{"not json", `city=Bangalore`},
		{"empty city", `{"city":"","max_price":2,"property_type":"Flat"}`},
		{"price too high", `{"city":"Pune","max_price":500,"property_type":"Flat"}`},
		{"unknown type", `{"city":"Pune","max_price":2,"property_type":"Castle"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, body := do(t, http.MethodPost, ts.URL+"/search", tt.body)
			assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
			assert.NotEmpty(t, body["error"])
		})
	}
}

func TestSearchInternalErrorIsOpaque(t *testing.T) {
	ts, svc, _ := newTestServer(t)
	svc.searchErr = errors.New("pq: connection refused")

	resp, body := do(t, http.MethodPost, ts.URL+"/search",
		`{"city":"Pune","max_price":1,"property_type":"Villa"}`)

	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	assert.Equal(t, "internal error", body["error"])
}

func TestListPropertiesFilters(t *testing.T) {
	ts, _, repo := newTestServer(t)

	resp, body := do(t, http.MethodGet, ts.URL+"/properties?city=Pune&property_type=villa&max_price=1.5&limit=5", "")

	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Len(t, body["items"], 2)
	assert.Equal(t, "Pune", repo.filter.City)
	assert.Equal(t, "Individual House", repo.filter.PropertyType)
	assert.Equal(t, 5, repo.filter.Limit)
	require.NotNil(t, repo.filter.MaxPrice)
	assert.Equal(t, "1.5", repo.filter.MaxPrice.String())

	resp, _ = do(t, http.MethodGet, ts.URL+"/properties?limit=0", "")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestPropertyByID(t *testing.T) {
	ts, _, _ := newTestServer(t)

	tests := []struct {
		path string
		want int
	}{
		{"/properties/3", http.StatusOK},
		{"/properties/404", http.StatusNotFound},
		{"/properties/abc", http.StatusBadRequest},
		{"/properties/0", http.StatusBadRequest},
	}

	for _, tt := range tests {
		resp, _ := do(t, http.MethodGet, ts.URL+tt.path, "")
		assert.Equal(t, tt.want, resp.StatusCode, tt.path)
	}
}

func TestUpdateAndDeleteProperty(t *testing.T) {
	ts, svc, _ := newTestServer(t)

	resp, body := do(t, http.MethodPut, ts.URL+"/properties/3", `{"price":"1.75","description":"renovated"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "renovated", body["description"])
	require.NotNil(t, svc.updated.Price)
	assert.Equal(t, "1.75", svc.updated.Price.String())

	resp, _ = do(t, http.MethodPut, ts.URL+"/properties/3", `{"price":"-1"}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, _ = do(t, http.MethodPut, ts.URL+"/properties/3", `{"city":""}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, _ = do(t, http.MethodDelete, ts.URL+"/properties/3", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, uint(3), svc.deleted)

	resp, _ = do(t, http.MethodDelete, ts.URL+"/properties/404", "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestInvestmentEndpoints(t *testing.T) {
	ts, svc, _ := newTestServer(t)

	resp, body := do(t, http.MethodPost, ts.URL+"/properties/5/investment?refresh=true", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.True(t, svc.refreshSeen)
	assert.EqualValues(t, 5, body["property_id"])

	resp, _ = do(t, http.MethodPost, ts.URL+"/properties/404/investment", "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, body = do(t, http.MethodGet, ts.URL+"/properties/5/investment", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.EqualValues(t, 9, body["id"])

	resp, body = do(t, http.MethodGet, ts.URL+"/properties/5/investment?all=true", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Len(t, body["items"], 2)
}

func TestTrendsEndpoint(t *testing.T) {
	ts, _, _ := newTestServer(t)

	resp, body := do(t, http.MethodGet, ts.URL+"/trends?city=Mumbai&timeframe=6months", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "rising in Mumbai", body["insights"])

	resp, _ = do(t, http.MethodGet, ts.URL+"/trends?city=Mumbai&timeframe=decade", "")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestHistoryAndHealth(t *testing.T) {
	ts, _, repo := newTestServer(t)

	resp, body := do(t, http.MethodGet, ts.URL+"/history", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Len(t, body["items"], 1)
	assert.Equal(t, 10, repo.limit)

	_, _ = do(t, http.MethodGet, ts.URL+"/history?limit=3", "")
	assert.Equal(t, 3, repo.limit)

	resp, body = do(t, http.MethodGet, ts.URL+"/health", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, health.StatusHealthy, body["status"])
}
