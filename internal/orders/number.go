package orders

import (
	"crypto/rand"
	"fmt"
	"regexp"
	"time"
)

// orderNumberPattern documents the shape of generated order numbers:
// a GT prefix, the order date as YYMMDD, then six uppercase hex characters.
var orderNumberPattern = regexp.MustCompile(`^GT\d{6}[0-9A-F]{6}$`)

// GenerateOrderNumber produces a human-readable candidate order number.
// The random suffix gives ~16.7M combinations per day; uniqueness is still
// enforced by the database index, and callers retry on collision.
func GenerateOrderNumber(now time.Time) (string, error) {
	var suffix [3]byte
	if _, err := rand.Read(suffix[:]); err != nil {
		return "", fmt.Errorf("generating order number suffix: %w", err)
	}
	return fmt.Sprintf("GT%s%02X%02X%02X", now.Format("060102"), suffix[0], suffix[1], suffix[2]), nil
}

// ValidOrderNumber reports whether the value matches the generated format.
func ValidOrderNumber(value string) bool {
	return orderNumberPattern.MatchString(value)
}
