package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/kiranshivaraju/qualitylens/internal/api/response"
	"github.com/kiranshivaraju/qualitylens/internal/store"
	"github.com/kiranshivaraju/qualitylens/pkg/models"
)

// ChecklistStore is the checklist part of the store.
type ChecklistStore interface {
	CreateChecklist(ctx context.Context, c *models.Checklist) error
	GetChecklist(ctx context.Context, id int64) (*models.Checklist, error)
	ListChecklists(ctx context.Context, filter store.ChecklistFilter) ([]*models.Checklist, int, error)
	CompleteChecklist(ctx context.Context, id int64, assistanceResponsible string, note *string) (*models.Checklist, error)
}

// Inspector schedules the domain inspection of a completed checklist.
type Inspector interface {
	InspectAsync(ctx context.Context, c *models.Checklist) bool
}

// Checklists serves the checklist registry.
type Checklists struct {
	store     ChecklistStore
	inspector Inspector
	logger    *slog.Logger
}

// NewChecklists creates the checklist handlers. inspector may be nil.
func NewChecklists(s ChecklistStore, inspector Inspector) *Checklists {
	return &Checklists{
		store:     s,
		inspector: inspector,
		logger:    slog.Default().With("component", "checklist_handler"),
	}
}

type createChecklistRequest struct {
	Product     string `json:"product"`
	Quantity    int    `json:"quantity"`
	Responsible string `json:"responsible"`
	// SendToAssistance leaves the checklist PENDENTE for the assistance team.
	SendToAssistance  bool             `json:"send_to_assistance"`
	Failure           string           `json:"failure,omitempty"`
	Sector            string           `json:"sector,omitempty"`
	ComponentLocation string           `json:"component_location,omitempty"`
	BoardSide         string           `json:"board_side,omitempty"`
	ProductionNote    string           `json:"production_note,omitempty"`
	Failures          []models.Failure `json:"failures,omitempty"`
}

func (req createChecklistRequest) validate() map[string][]string {
	errs := map[string][]string{}
	if strings.TrimSpace(req.Product) == "" {
		errs["product"] = append(errs["product"], "product is required")
	}
	if req.Quantity <= 0 {
		errs["quantity"] = append(errs["quantity"], "quantity must be positive")
	}
	if strings.TrimSpace(req.Responsible) == "" {
		errs["responsible"] = append(errs["responsible"], "responsible is required")
	}
	if strings.TrimSpace(req.Failure) == "" && len(req.Failures) == 0 {
		errs["failure"] = append(errs["failure"], "failure or failures is required")
	}
	if req.Failure != "" && len(req.Failures) > 0 {
		errs["failures"] = append(errs["failures"], "failure and failures are mutually exclusive")
	}
	for i, f := range req.Failures {
		if strings.TrimSpace(f.Failure) == "" {
			errs["failures"] = append(errs["failures"], "failures["+strconv.Itoa(i)+"].failure is required")
		}
	}
	return errs
}

func (req createChecklistRequest) checklist() *models.Checklist {
	c := &models.Checklist{
		Product:     strings.TrimSpace(req.Product),
		Quantity:    req.Quantity,
		Responsible: strings.TrimSpace(req.Responsible),
		Status:      models.ChecklistStatusComplete,
		Failures:    req.Failures,
	}
	if req.SendToAssistance {
		c.Status = models.ChecklistStatusPending
	}
	c.Failure = optional(req.Failure)
	c.Sector = optional(req.Sector)
	c.ComponentLocation = optional(req.ComponentLocation)
	c.BoardSide = optional(req.BoardSide)
	c.ProductionNote = optional(req.ProductionNote)
	return c
}

// Create handles POST /api/v1/checklists.
func (h *Checklists) Create(w http.ResponseWriter, r *http.Request) {
	var req createChecklistRequest
	if err := response.Decode(r, &req); err != nil {
		response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", err.Error(), nil)
		return
	}
	if errs := req.validate(); len(errs) > 0 {
		response.Error(w, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid checklist", errs)
		return
	}

	c := req.checklist()
	if err := h.store.CreateChecklist(r.Context(), c); err != nil {
		h.logger.Error("create checklist", "error", err)
		response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR",
			"An unexpected error occurred", nil)
		return
	}
	h.logger.Info("checklist created", "document_id", c.DocumentID, "status", c.Status)

	h.inspect(r.Context(), c)
	response.Created(w, c)
}

// List handles GET /api/v1/checklists.
func (h *Checklists) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	status := strings.ToUpper(q.Get("status"))
	if status != "" && status != models.ChecklistStatusPending && status != models.ChecklistStatusComplete {
		response.Error(w, http.StatusBadRequest, "INVALID_REQUEST",
			"status must be PENDENTE or COMPLETO", nil)
		return
	}
	page, err := intParam(q.Get("page"))
	if err != nil {
		response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "page must be an integer", nil)
		return
	}
	limit, err := intParam(q.Get("limit"))
	if err != nil {
		response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "limit must be an integer", nil)
		return
	}
	page, limit = store.NormalizePage(page, limit)

	items, total, err := h.store.ListChecklists(r.Context(), store.ChecklistFilter{
		Status: status,
		Page:   page,
		Limit:  limit,
	})
	if err != nil {
		h.logger.Error("list checklists", "error", err)
		response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR",
			"An unexpected error occurred", nil)
		return
	}
	response.Collection(w, items, response.NewPaginationMeta(page, limit, total))
}

// Get handles GET /api/v1/checklists/{id}.
func (h *Checklists) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := checklistID(w, r)
	if !ok {
		return
	}
	c, err := h.store.GetChecklist(r.Context(), id)
	if err != nil {
		h.writeStoreError(w, id, err)
		return
	}
	response.JSON(w, c)
}

type completeChecklistRequest struct {
	AssistanceResponsible string  `json:"assistance_responsible"`
	AssistanceNote        *string `json:"assistance_note,omitempty"`
}

// Complete handles POST /api/v1/checklists/{id}/complete.
func (h *Checklists) Complete(w http.ResponseWriter, r *http.Request) {
	id, ok := checklistID(w, r)
	if !ok {
		return
	}
	var req completeChecklistRequest
	if err := response.Decode(r, &req); err != nil {
		response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", err.Error(), nil)
		return
	}
	if strings.TrimSpace(req.AssistanceResponsible) == "" {
		response.Error(w, http.StatusBadRequest, "VALIDATION_ERROR", "assistance_responsible is required", nil)
		return
	}

	c, err := h.store.CompleteChecklist(r.Context(), id, strings.TrimSpace(req.AssistanceResponsible), req.AssistanceNote)
	if err != nil {
		h.writeStoreError(w, id, err)
		return
	}
	h.inspect(r.Context(), c)
	response.JSON(w, c)
}

func (h *Checklists) inspect(ctx context.Context, c *models.Checklist) {
	if h.inspector == nil {
		return
	}
	if h.inspector.InspectAsync(ctx, c) {
		h.logger.Debug("inspection scheduled", "document_id", c.DocumentID)
	}
}

func (h *Checklists) writeStoreError(w http.ResponseWriter, id int64, err error) {
	switch {
	case errors.Is(err, store.ErrNotFound):
		response.Error(w, http.StatusNotFound, "CHECKLIST_NOT_FOUND", "Checklist not found", nil)
	case errors.Is(err, store.ErrInvalidTransition):
		response.Error(w, http.StatusConflict, "INVALID_TRANSITION", "Checklist is not pending", nil)
	default:
		h.logger.Error("checklist store error", "checklist_id", id, "error", err)
		response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR",
			"An unexpected error occurred", nil)
	}
}

func checklistID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		response.Error(w, http.StatusBadRequest, "INVALID_ID", "id must be a positive integer", nil)
		return 0, false
	}
	return id, true
}

func intParam(v string) (int, error) {
	if v == "" {
		return 0, nil
	}
	return strconv.Atoi(v)
}

func optional(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}
