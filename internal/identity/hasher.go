package identity

import (
	"golang.org/x/crypto/bcrypt"
)

// Hasher produces and verifies bcrypt password digests. It backs both
// authentication here and digest creation in the users module.
type Hasher struct {
	cost int
}

// NewHasher creates a hasher with the given bcrypt cost. A cost outside
// bcrypt's supported range falls back to the library default.
func NewHasher(cost int) *Hasher {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	return &Hasher{cost: cost}
}

// Hash returns the bcrypt digest of plaintext.
func (h *Hasher) Hash(plaintext string) (string, error) {
	digest, err := bcrypt.GenerateFromPassword([]byte(plaintext), h.cost)
	if err != nil {
		return "", err
	}
	return string(digest), nil
}

// Verify reports whether plaintext matches the stored digest.
func (h *Hasher) Verify(plaintext, digest string) bool {
	return bcrypt.CompareHashAndPassword([]byte(digest), []byte(plaintext)) == nil
}
