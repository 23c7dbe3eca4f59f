// Package hash provides the password hashing strategy used by the password
// interface.
package hash

import (
	"golang.org/x/crypto/bcrypt"
)

// Hasher hashes secrets before storage.
type Hasher interface {
	Hash(plain string) (string, error)
}

// Bcrypt hashes with bcrypt at Cost.
type Bcrypt struct {
	Cost int
}

// NewBcrypt returns a bcrypt hasher. A cost outside the bcrypt range falls
// back to bcrypt.DefaultCost.
func NewBcrypt(cost int) *Bcrypt {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	return &Bcrypt{Cost: cost}
}

func (b *Bcrypt) Hash(plain string) (string, error) {
	out, err := bcrypt.GenerateFromPassword([]byte(plain), b.Cost)
	if err != nil {
		return "", err
	}
	return string(out), nil
}

// Verify reports whether plain matches hashed.
func Verify(hashed, plain string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hashed), []byte(plain)) == nil
}
