// Package apikey mints and recognizes API keys. Raw keys are shown once;
// only their bcrypt hash and a short lookup prefix are persisted.
package apikey

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/kiranshivaraju/qualitylens/pkg/models"
)

// PrefixLen is the number of leading characters of a raw key stored in
// clear text for lookup.
const PrefixLen = 8

const rawKeyBytes = 24

// Scopes.
const (
	ScopeAdmin   = "admin"
	ScopeAnalyst = "analyst"
)

var knownScopes = []string{ScopeAdmin, ScopeAnalyst}

var ErrUnknownScope = errors.New("unknown scope")

// Prefix returns the lookup prefix of rawKey, or "" when the key is too short.
func Prefix(rawKey string) string {
	if len(rawKey) < PrefixLen {
		return ""
	}
	return rawKey[:PrefixLen]
}

// Generate creates a new key named name. The returned raw key must be
// handed to the caller; it cannot be recovered from the stored record.
// An empty scope list grants the analyst scope.
func Generate(name string, scopes []string, now time.Time) (*models.APIKey, string, error) {
	if len(scopes) == 0 {
		scopes = []string{ScopeAnalyst}
	}
	for _, s := range scopes {
		if !slices.Contains(knownScopes, s) {
			return nil, "", fmt.Errorf("%w: %q", ErrUnknownScope, s)
		}
	}

	buf := make([]byte, rawKeyBytes)
	if _, err := rand.Read(buf); err != nil {
		return nil, "", fmt.Errorf("read random: %w", err)
	}
	raw := hex.EncodeToString(buf)

	hash, err := bcrypt.GenerateFromPassword([]byte(raw), bcrypt.DefaultCost)
	if err != nil {
		return nil, "", fmt.Errorf("hash key: %w", err)
	}

	now = now.UTC()
	return &models.APIKey{
		ID:        uuid.New(),
		Name:      name,
		KeyHash:   string(hash),
		KeyPrefix: Prefix(raw),
		Scopes:    slices.Clone(scopes),
		CreatedAt: now,
		UpdatedAt: now,
	}, raw, nil
}

// Matches reports whether rawKey hashes to key.
func Matches(key *models.APIKey, rawKey string) bool {
	return bcrypt.CompareHashAndPassword([]byte(key.KeyHash), []byte(rawKey)) == nil
}
