package utils

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// NewUUID generates a new UUID
func NewUUID() uuid.UUID {
	return uuid.New()
}

// ParseUUID parses a string into a UUID
func ParseUUID(s string) (uuid.UUID, error) {
	return uuid.Parse(strings.TrimSpace(s))
}

// FormatDocumentNo renders a document number such as RV-000001.
func FormatDocumentNo(prefix string, seq int64) string {
	prefix = strings.TrimRight(strings.ToUpper(strings.TrimSpace(prefix)), "-")
	if prefix == "" {
		return fmt.Sprintf("%06d", seq)
	}
	return fmt.Sprintf("%s-%06d", prefix, seq)
}
