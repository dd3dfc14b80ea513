package password

import (
	"fmt"

	"golang.org/x/crypto/bcrypt"

	"unisocial/internal/models"
)

const (
	MinLength = 6
	MaxLength = 72
)

type Hasher struct {
	cost int
}

// NewHasher returns a bcrypt hasher. Out of range costs fall back to bcrypt.DefaultCost.
func NewHasher(cost int) *Hasher {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	return &Hasher{cost: cost}
}

func Validate(plaintext string) error {
	if len(plaintext) < MinLength || len(plaintext) > MaxLength {
		return models.ErrInvalidPassword
	}
	return nil
}

func (h *Hasher) Hash(plaintext string) (string, error) {
	if err := Validate(plaintext); err != nil {
		return "", err
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(plaintext), h.cost)
	if err != nil {
		return "", fmt.Errorf("ошибка при хешировании пароля: %w", err)
	}
	return string(hashed), nil
}

// Verify never returns an error: a malformed hash is just a mismatch.
func (h *Hasher) Verify(plaintext, stored string) bool {
	return bcrypt.CompareHashAndPassword([]byte(stored), []byte(plaintext)) == nil
}
