package auth

import (
	"errors"

	"golang.org/x/crypto/bcrypt"
)

// DefaultCost is the bcrypt work factor used when PasswordHasher.Cost is zero.
const DefaultCost = bcrypt.DefaultCost

// PasswordHasher derives and checks salted one-way password digests.
type PasswordHasher struct {
	Cost int
}

// NewPasswordHasher returns a hasher with the default work factor.
func NewPasswordHasher() *PasswordHasher {
	return &PasswordHasher{Cost: DefaultCost}
}

func (h *PasswordHasher) cost() int {
	if h == nil || h.Cost == 0 {
		return DefaultCost
	}
	return h.Cost
}

// Hash returns a digest for plain. A fresh salt is drawn on every call, so
// hashing the same password twice yields different digests.
func (h *PasswordHasher) Hash(plain string) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(plain), h.cost())
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// Verify reports whether plain matches digest. A mismatch is (false, nil);
// an error means the digest itself is unusable.
func (h *PasswordHasher) Verify(plain, digest string) (bool, error) {
	err := bcrypt.CompareHashAndPassword([]byte(digest), []byte(plain))
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, bcrypt.ErrMismatchedHashAndPassword):
		return false, nil
	default:
		return false, err
	}
}
