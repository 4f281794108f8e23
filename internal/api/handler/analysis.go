package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	mw "github.com/kiranshivaraju/qualitylens/internal/api/middleware"
	"github.com/kiranshivaraju/qualitylens/internal/api/response"
	"github.com/kiranshivaraju/qualitylens/internal/intelligence"
	"github.com/kiranshivaraju/qualitylens/internal/orchestrator"
	"github.com/kiranshivaraju/qualitylens/pkg/models"
)

const anonymousSession = "anonymous"

// Asker answers analytic queries.
type Asker interface {
	Ask(ctx context.Context, query string, raw []models.RawRecord, mem *orchestrator.Memory) (intelligence.Reply, error)
}

type analysisRequest struct {
	Query string `json:"query"`
	// Records replaces the stored dataset when present.
	Records []models.RawRecord `json:"records,omitempty"`
}

type analysisResponse struct {
	models.AnalysisResponse
	ReportID *uuid.UUID `json:"report_id,omitempty"`
}

// NewAnalysisHandler returns an http.HandlerFunc for POST /api/v1/analysis.
func NewAnalysisHandler(svc Asker, sessions *Sessions) http.HandlerFunc {
	logger := slog.Default().With("component", "analysis_handler")

	return func(w http.ResponseWriter, r *http.Request) {
		var req analysisRequest
		if err := response.Decode(r, &req); err != nil {
			response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", err.Error(), nil)
			return
		}

		mem := sessions.Memory(sessionKey(r))
		reply, err := svc.Ask(r.Context(), req.Query, req.Records, mem)
		if err != nil {
			switch {
			case errors.Is(err, orchestrator.ErrEmptyQuery):
				response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "query is required", nil)
			default:
				logger.Error("analysis failed", "error", err)
				response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR",
					"An unexpected error occurred", nil)
			}
			return
		}

		out := analysisResponse{AnalysisResponse: models.NewAnalysisResponse(req.Query, reply.Result)}
		if reply.Route == intelligence.RouteReport {
			id := reply.ReportID
			out.ReportID = &id
			response.Accepted(w, out)
			return
		}
		response.JSON(w, out)
	}
}

func sessionKey(r *http.Request) string {
	if id := r.Header.Get(mw.SessionHeader); id != "" {
		return id
	}
	if prefix, ok := mw.GetKeyPrefix(r); ok {
		return prefix
	}
	return anonymousSession
}
