package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/kiranshivaraju/qualitylens/internal/api/response"
	"github.com/kiranshivaraju/qualitylens/internal/apikey"
	"github.com/kiranshivaraju/qualitylens/internal/store"
	"github.com/kiranshivaraju/qualitylens/pkg/models"
)

// KeyStore is the API key part of the store.
type KeyStore interface {
	CreateAPIKey(ctx context.Context, key *models.APIKey) error
	ListAPIKeys(ctx context.Context) ([]*models.APIKey, error)
	RevokeAPIKey(ctx context.Context, id uuid.UUID) error
}

// Keys serves the admin API key endpoints.
type Keys struct {
	store  KeyStore
	now    func() time.Time
	logger *slog.Logger
}

func NewKeys(s KeyStore) *Keys {
	return &Keys{store: s, now: time.Now, logger: slog.Default().With("component", "keys_handler")}
}

type createKeyRequest struct {
	Name   string   `json:"name"`
	Scopes []string `json:"scopes,omitempty"`
}

type createdKey struct {
	*models.APIKey
	// Key is the raw key. It is returned only once.
	Key string `json:"key"`
}

// Create handles POST /api/v1/admin/keys.
func (h *Keys) Create(w http.ResponseWriter, r *http.Request) {
	var req createKeyRequest
	if err := response.Decode(r, &req); err != nil {
		response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", err.Error(), nil)
		return
	}
	if strings.TrimSpace(req.Name) == "" {
		response.Error(w, http.StatusBadRequest, "VALIDATION_ERROR", "name is required", nil)
		return
	}

	key, raw, err := apikey.Generate(strings.TrimSpace(req.Name), req.Scopes, h.now())
	if err != nil {
		if errors.Is(err, apikey.ErrUnknownScope) {
			response.Error(w, http.StatusBadRequest, "VALIDATION_ERROR", err.Error(), nil)
			return
		}
		h.logger.Error("generate api key", "error", err)
		response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR",
			"An unexpected error occurred", nil)
		return
	}

	if err := h.store.CreateAPIKey(r.Context(), key); err != nil {
		if errors.Is(err, store.ErrDuplicateKey) {
			response.Error(w, http.StatusConflict, "DUPLICATE_KEY", "Key prefix collision, retry", nil)
			return
		}
		h.logger.Error("create api key", "error", err)
		response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR",
			"An unexpected error occurred", nil)
		return
	}
	h.logger.Info("api key created", "key_id", key.ID, "key_prefix", key.KeyPrefix)
	response.Created(w, createdKey{APIKey: key, Key: raw})
}

// List handles GET /api/v1/admin/keys.
func (h *Keys) List(w http.ResponseWriter, r *http.Request) {
	keys, err := h.store.ListAPIKeys(r.Context())
	if err != nil {
		h.logger.Error("list api keys", "error", err)
		response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR",
			"An unexpected error occurred", nil)
		return
	}
	response.JSON(w, keys)
}

// Revoke handles DELETE /api/v1/admin/keys/{keyID}.
func (h *Keys) Revoke(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "keyID"))
	if err != nil {
		response.Error(w, http.StatusBadRequest, "INVALID_ID", "keyID must be a UUID", nil)
		return
	}
	if err := h.store.RevokeAPIKey(r.Context(), id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			response.Error(w, http.StatusNotFound, "KEY_NOT_FOUND", "API key not found", nil)
			return
		}
		h.logger.Error("revoke api key", "key_id", id, "error", err)
		response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR",
			"An unexpected error occurred", nil)
		return
	}
	response.NoContent(w)
}
