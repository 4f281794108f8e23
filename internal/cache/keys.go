package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"github.com/google/uuid"
)

// ReasoningKey addresses a memoized reasoning-service answer.
func ReasoningKey(operation, inputHash string) string {
	return fmt.Sprintf("reasoning:%s:%s", operation, inputHash)
}

func ReportStatusKey(reportID uuid.UUID) string {
	return fmt.Sprintf("report:%s", reportID)
}

func RateLimitKey(keyPrefix string) string {
	return fmt.Sprintf("ratelimit:%s", keyPrefix)
}

// Hash returns the hex SHA-256 of the parts, separated so that
// ("ab", "c") and ("a", "bc") differ.
func Hash(parts ...[]byte) string {
	h := sha256.New()
	for _, p := range parts {
		fmt.Fprintf(h, "%d:", len(p))
		h.Write(p)
	}
	return hex.EncodeToString(h.Sum(nil))
}
