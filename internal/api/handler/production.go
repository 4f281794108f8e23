package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/kiranshivaraju/qualitylens/internal/api/response"
	"github.com/kiranshivaraju/qualitylens/internal/store"
	"github.com/kiranshivaraju/qualitylens/pkg/models"
)

const dateLayout = time.DateOnly

// ProductionStore is the production registry part of the store.
type ProductionStore interface {
	CreateProductionEntry(ctx context.Context, e *models.ProductionEntry) error
	ListProductionEntries(ctx context.Context, filter store.ProductionFilter) ([]*models.ProductionEntry, error)
}

// Production serves the production registry.
type Production struct {
	store  ProductionStore
	logger *slog.Logger
}

func NewProduction(s ProductionStore) *Production {
	return &Production{store: s, logger: slog.Default().With("component", "production_handler")}
}

type createProductionRequest struct {
	RecordDate      string  `json:"record_date"`
	Kind            string  `json:"kind"`
	DailyQuantity   int     `json:"daily_quantity"`
	MonthlyQuantity int     `json:"monthly_quantity"`
	DailyNote       *string `json:"daily_note,omitempty"`
	MonthlyNote     *string `json:"monthly_note,omitempty"`
	Responsible     string  `json:"responsible"`
}

// Create handles POST /api/v1/production.
func (h *Production) Create(w http.ResponseWriter, r *http.Request) {
	var req createProductionRequest
	if err := response.Decode(r, &req); err != nil {
		response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", err.Error(), nil)
		return
	}

	date, err := time.Parse(dateLayout, req.RecordDate)
	if err != nil {
		response.Error(w, http.StatusBadRequest, "VALIDATION_ERROR", "record_date must be YYYY-MM-DD", nil)
		return
	}
	kind := strings.ToUpper(req.Kind)
	switch {
	case kind != models.ProductionDaily && kind != models.ProductionMonthly:
		response.Error(w, http.StatusBadRequest, "VALIDATION_ERROR", "kind must be D or M", nil)
		return
	case req.DailyQuantity < 0 || req.MonthlyQuantity < 0:
		response.Error(w, http.StatusBadRequest, "VALIDATION_ERROR", "quantities must not be negative", nil)
		return
	case kind == models.ProductionDaily && req.DailyQuantity == 0:
		response.Error(w, http.StatusBadRequest, "VALIDATION_ERROR", "daily_quantity is required for kind D", nil)
		return
	case kind == models.ProductionMonthly && req.MonthlyQuantity == 0:
		response.Error(w, http.StatusBadRequest, "VALIDATION_ERROR", "monthly_quantity is required for kind M", nil)
		return
	case strings.TrimSpace(req.Responsible) == "":
		response.Error(w, http.StatusBadRequest, "VALIDATION_ERROR", "responsible is required", nil)
		return
	}

	e := &models.ProductionEntry{
		Date:            date,
		Kind:            kind,
		DailyQuantity:   req.DailyQuantity,
		MonthlyQuantity: req.MonthlyQuantity,
		DailyNote:       req.DailyNote,
		MonthlyNote:     req.MonthlyNote,
		Responsible:     strings.TrimSpace(req.Responsible),
	}
	if err := h.store.CreateProductionEntry(r.Context(), e); err != nil {
		if errors.Is(err, store.ErrDuplicateKey) {
			response.Error(w, http.StatusConflict, "DUPLICATE_ENTRY",
				"A production entry of this kind already exists for the date", nil)
			return
		}
		h.logger.Error("create production entry", "error", err)
		response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR",
			"An unexpected error occurred", nil)
		return
	}
	response.Created(w, e)
}

// List handles GET /api/v1/production?kind=D&since=2024-01-01&until=2024-01-31.
func (h *Production) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	var filter store.ProductionFilter
	if kind := strings.ToUpper(q.Get("kind")); kind != "" {
		if kind != models.ProductionDaily && kind != models.ProductionMonthly {
			response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "kind must be D or M", nil)
			return
		}
		filter.Kind = kind
	}
	for param, dst := range map[string]*time.Time{"since": &filter.Since, "until": &filter.Until} {
		v := q.Get(param)
		if v == "" {
			continue
		}
		t, err := time.Parse(dateLayout, v)
		if err != nil {
			response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", param+" must be YYYY-MM-DD", nil)
			return
		}
		*dst = t
	}

	entries, err := h.store.ListProductionEntries(r.Context(), filter)
	if err != nil {
		h.logger.Error("list production entries", "error", err)
		response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR",
			"An unexpected error occurred", nil)
		return
	}
	response.JSON(w, entries)
}
