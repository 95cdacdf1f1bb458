package auth

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// ErrPasswordMismatch is returned by Verify when the password is wrong.
var ErrPasswordMismatch = errors.New("auth: password does not match")

const defaultCost = 12

// PasswordService hashes account passwords.
//
// The plaintext is first peppered with the server salt and reduced to a
// hex SHA-256 digest; bcrypt then hashes that 64-byte digest. A database dump
// without SALT is not enough to start guessing, and bcrypt never sees more
// than its 72-byte input limit.
type PasswordService struct {
	cost int
	salt string
}

func NewPasswordService(salt string) *PasswordService {
	return &PasswordService{cost: defaultCost, salt: salt}
}

// NewPasswordServiceForTest lets tests drop the bcrypt cost to
// bcrypt.MinCost.
func NewPasswordServiceForTest(cost int, salt string) *PasswordService {
	return &PasswordService{cost: cost, salt: salt}
}

func (p *PasswordService) pepper(plaintext string) []byte {
	sum := sha256.Sum256([]byte(plaintext + p.salt))
	return []byte(hex.EncodeToString(sum[:]))
}

// Hash returns the bcrypt string stored in users.password_hash.
func (p *PasswordService) Hash(plaintext string) (string, error) {
	if plaintext == "" {
		return "", errors.New("auth: empty password")
	}
	out, err := bcrypt.GenerateFromPassword(p.pepper(plaintext), p.cost)
	if err != nil {
		return "", fmt.Errorf("auth: bcrypt: %w", err)
	}
	return string(out), nil
}

// Verify returns nil when plaintext matches hash and ErrPasswordMismatch when
// it does not. Accounts created through a provider have no hash; they never
// match.
func (p *PasswordService) Verify(hash, plaintext string) error {
	if hash == "" {
		return ErrPasswordMismatch
	}
	switch err := bcrypt.CompareHashAndPassword([]byte(hash), p.pepper(plaintext)); {
	case err == nil:
		return nil
	case errors.Is(err, bcrypt.ErrMismatchedHashAndPassword):
		return ErrPasswordMismatch
	default:
		return fmt.Errorf("auth: reading stored hash: %w", err)
	}
}
