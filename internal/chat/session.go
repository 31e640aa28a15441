package chat

import (
	"strings"
	"unicode"

	"github.com/google/uuid"
)

const maxSessionIDLen = 100

// NewSessionID returns a random (v4) UUID.
func NewSessionID() (string, error) {
	id, err := uuid.NewRandom()
	if err != nil {
		return "", err
	}
	return id.String(), nil
}

// validSessionID accepts any printable id that fits the column, so that
// ids issued by other clients keep working.
func validSessionID(s string) bool {
	if s == "" || len(s) > maxSessionIDLen {
		return false
	}
	return strings.IndexFunc(s, func(r rune) bool {
		return unicode.IsControl(r) || unicode.IsSpace(r)
	}) < 0
}

// ShortSessionID abbreviates an id for listings: first 8 runes plus "...".
func ShortSessionID(s string) string {
	r := []rune(s)
	if len(r) <= 8 {
		return s
	}
	return string(r[:8]) + "..."
}
