package idgen

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"strings"
)

const idAlphabet = "abcdefghijklmnopqrstuvwxyz0123456789"

// GenerateSecureID returns "<prefix>_<length random chars>" using a
// cryptographically secure source. The suffix alphabet is lowercase
// alphanumeric so IDs are safe in URLs and case-insensitive contexts.
func GenerateSecureID(prefix string, length int) (string, error) {
	if length <= 0 {
		return "", fmt.Errorf("idgen: length must be positive, got %d", length)
	}
	suffix := make([]byte, length)
	alphabetLen := big.NewInt(int64(len(idAlphabet)))
	for i := range suffix {
		n, err := rand.Int(rand.Reader, alphabetLen)
		if err != nil {
			return "", fmt.Errorf("idgen: read random: %w", err)
		}
		suffix[i] = idAlphabet[n.Int64()]
	}
	return prefix + "_" + string(suffix), nil
}

// ValidateIDFormat reports whether id is "<expectedPrefix>_<suffix>" with a
// non-empty lowercase alphanumeric suffix.
func ValidateIDFormat(id, expectedPrefix string) bool {
	want := expectedPrefix + "_"
	if !strings.HasPrefix(id, want) {
		return false
	}
	suffix := id[len(want):]
	if suffix == "" {
		return false
	}
	for _, char := range suffix {
		if !((char >= 'a' && char <= 'z') || (char >= '0' && char <= '9')) {
			return false
		}
	}
	return true
}

// MustGenerateSecureID is GenerateSecureID that panics on entropy failure.
// Entropy exhaustion is not a recoverable request-path condition.
func MustGenerateSecureID(prefix string, length int) string {
	id, err := GenerateSecureID(prefix, length)
	if err != nil {
		panic(err)
	}
	return id
}
