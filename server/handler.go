// Package server exposes the search pipeline as a JSON HTTP API.
//
// Routes:
//
//	POST   /search                        → run an orchestrated search
//	GET    /properties                    → list stored properties (?city=&property_type=&max_price=&limit=)
//	GET    /properties/{id}               → one stored property
//	PUT    /properties/{id}               → update a stored property
//	DELETE /properties/{id}               → delete a stored property and its analyses
//	POST   /properties/{id}/investment    → analyze (?refresh=true bypasses the cache)
//	GET    /properties/{id}/investment    → latest stored analysis (?all=true for history)
//	GET    /trends                        → market trend (?city=&property_type=&timeframe=)
//	GET    /history                       → recent searches (?limit=)
//	GET    /health                        → database and cache status
package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/shopspring/decimal"

	"realestate-agent/health"
	"realestate-agent/models"
	"realestate-agent/storage"
	"realestate-agent/utils"
)

// Service is the orchestration surface used by the handlers.
type Service interface {
	Search(ctx context.Context, req models.SearchRequest) (*models.SearchResult, error)
	AnalyzeInvestment(ctx context.Context, propertyID uint, refresh bool) (*models.InvestmentAnalysis, error)
	MarketTrends(ctx context.Context, req models.TrendRequest) (models.MarketTrendResult, error)
	UpdateProperty(ctx context.Context, id uint, upd models.PropertyUpdate) (*models.Property, error)
	DeleteProperty(ctx context.Context, id uint) error
}

// Repository is the read side of the persistence layer.
type Repository interface {
	GetPropertyByID(ctx context.Context, id uint) (*models.Property, error)
	SearchProperties(ctx context.Context, f storage.PropertyFilter) ([]models.Property, error)
	RecentSearchHistory(ctx context.Context, limit int) ([]models.SearchHistory, error)
	LatestAnalysisForProperty(ctx context.Context, propertyID uint) (*models.InvestmentAnalysis, error)
	AllAnalysesForProperty(ctx context.Context, propertyID uint) ([]models.InvestmentAnalysis, error)
}

// HealthChecker produces a health report.
type HealthChecker interface {
	Check(ctx context.Context) health.Report
}

// Handler holds shared dependencies.
type Handler struct {
	svc    Service
	repo   Repository
	health HealthChecker
	logger *utils.Logger
}

// NewHandler returns a configured Handler.
func NewHandler(svc Service, repo Repository, hc HealthChecker, logger *utils.Logger) *Handler {
	return &Handler{svc: svc, repo: repo, health: hc, logger: logger}
}

// RegisterRoutes mounts all routes on mux.
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /search", h.search)
	mux.HandleFunc("GET /properties", h.listProperties)
	mux.HandleFunc("GET /properties/{id}", h.getProperty)
	mux.HandleFunc("PUT /properties/{id}", h.updateProperty)
	mux.HandleFunc("DELETE /properties/{id}", h.deleteProperty)
	mux.HandleFunc("POST /properties/{id}/investment", h.analyzeInvestment)
	mux.HandleFunc("GET /properties/{id}/investment", h.getInvestment)
	mux.HandleFunc("GET /trends", h.trends)
	mux.HandleFunc("GET /history", h.history)
	mux.HandleFunc("GET /health", h.healthCheck)
}

// ─── Individual handlers ──────────────────────────────────────────────────────

type searchBody struct {
	City         string  `json:"city"`
	MaxPrice     float64 `json:"max_price"`
	PropertyType string  `json:"property_type"`
}

func (h *Handler) search(w http.ResponseWriter, r *http.Request) {
	var body searchBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		jsonError(w, "body must be a JSON object with city, max_price and property_type", http.StatusBadRequest)
		return
	}

	req, err := models.NewSearchRequest(body.City, body.MaxPrice, body.PropertyType)
	if err != nil {
		h.fail(w, err)
		return
	}

	result, err := h.svc.Search(r.Context(), req)
	if err != nil {
		h.fail(w, err)
		return
	}
	jsonOK(w, result)
}

func (h *Handler) listProperties(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	f := storage.PropertyFilter{
		City:         q.Get("city"),
		PropertyType: q.Get("property_type"),
	}
	if f.PropertyType != "" {
		if pt, err := models.ParsePropertyType(f.PropertyType); err == nil {
			f.PropertyType = string(pt)
		}
	}
	if v := q.Get("max_price"); v != "" {
		price, err := decimal.NewFromString(v)
		if err != nil {
			jsonError(w, "max_price must be a number", http.StatusBadRequest)
			return
		}
		f.MaxPrice = &price
	}
	if v := q.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			jsonError(w, "limit must be a positive integer", http.StatusBadRequest)
			return
		}
		f.Limit = n
	}

	props, err := h.repo.SearchProperties(r.Context(), f)
	if err != nil {
		h.fail(w, err)
		return
	}
	jsonOK(w, props)
}

func (h *Handler) getProperty(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	p, err := h.repo.GetPropertyByID(r.Context(), id)
	if err != nil {
		h.fail(w, err)
		return
	}
	jsonOK(w, p)
}

func (h *Handler) updateProperty(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var upd models.PropertyUpdate
	if err := json.NewDecoder(r.Body).Decode(&upd); err != nil {
		jsonError(w, "body must be a JSON object of property fields", http.StatusBadRequest)
		return
	}
	if upd.Price != nil && upd.Price.IsNegative() {
		jsonError(w, "price must not be negative", http.StatusBadRequest)
		return
	}
	if upd.City != nil && *upd.City == "" {
		jsonError(w, "city must not be empty", http.StatusBadRequest)
		return
	}

	p, err := h.svc.UpdateProperty(r.Context(), id, upd)
	if err != nil {
		h.fail(w, err)
		return
	}
	jsonOK(w, p)
}

func (h *Handler) deleteProperty(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	if err := h.svc.DeleteProperty(r.Context(), id); err != nil {
		h.fail(w, err)
		return
	}
	jsonOK(w, map[string]any{"deleted": id})
}

func (h *Handler) analyzeInvestment(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	refresh, _ := strconv.ParseBool(r.URL.Query().Get("refresh"))

	a, err := h.svc.AnalyzeInvestment(r.Context(), id, refresh)
	if err != nil {
		h.fail(w, err)
		return
	}
	jsonOK(w, a)
}

func (h *Handler) getInvestment(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	if all, _ := strconv.ParseBool(r.URL.Query().Get("all")); all {
		rows, err := h.repo.AllAnalysesForProperty(r.Context(), id)
		if err != nil {
			h.fail(w, err)
			return
		}
		jsonOK(w, rows)
		return
	}

	a, err := h.repo.LatestAnalysisForProperty(r.Context(), id)
	if err != nil {
		h.fail(w, err)
		return
	}
	jsonOK(w, a)
}

func (h *Handler) trends(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	req, err := models.NewTrendRequest(q.Get("city"), q.Get("property_type"), q.Get("timeframe"))
	if err != nil {
		h.fail(w, err)
		return
	}

	result, err := h.svc.MarketTrends(r.Context(), req)
	if err != nil {
		h.fail(w, err)
		return
	}
	jsonOK(w, result)
}

func (h *Handler) history(w http.ResponseWriter, r *http.Request) {
	limit := 10
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			jsonError(w, "limit must be a positive integer", http.StatusBadRequest)
			return
		}
		limit = n
	}

	rows, err := h.repo.RecentSearchHistory(r.Context(), limit)
	if err != nil {
		h.fail(w, err)
		return
	}
	jsonOK(w, rows)
}

func (h *Handler) healthCheck(w http.ResponseWriter, r *http.Request) {
	jsonOK(w, h.health.Check(r.Context()))
}

// ─── Helpers ──────────────────────────────────────────────────────────────────

// fail maps an error onto a status code: validation → 400, missing → 404,
// everything else → 500 with the detail kept in the log.
func (h *Handler) fail(w http.ResponseWriter, err error) {
	var verr *models.ValidationError
	switch {
	case errors.As(err, &verr):
		jsonError(w, verr.Error(), http.StatusBadRequest)
	case errors.Is(err, storage.ErrNotFound):
		jsonError(w, "not found", http.StatusNotFound)
	default:
		h.logger.Error("[server] Request failed: %v", err)
		jsonError(w, "internal error", http.StatusInternalServerError)
	}
}

func pathID(w http.ResponseWriter, r *http.Request) (uint, bool) {
	id, err := strconv.ParseUint(r.PathValue("id"), 10, 0)
	if err != nil || id == 0 {
		jsonError(w, "id must be a positive integer", http.StatusBadRequest)
		return 0, false
	}
	return uint(id), true
}

func jsonOK(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(v)
}

func jsonError(w http.ResponseWriter, msg string, code int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
