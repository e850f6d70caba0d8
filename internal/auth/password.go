package auth

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"unicode"

	"golang.org/x/crypto/bcrypt"
)

// HashPassword hashes a plain password with bcrypt.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hash), nil
}

// CheckPassword reports whether password matches the stored bcrypt hash.
func CheckPassword(password, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

// ValidatePassword enforces the password policy: at least 8 characters with
// at least one letter and one digit.
func ValidatePassword(password string) error {
	if len(password) < 8 {
		return fmt.Errorf("password must be at least 8 characters long")
	}
	var hasLetter, hasDigit bool
	for _, r := range password {
		switch {
		case unicode.IsLetter(r):
			hasLetter = true
		case unicode.IsDigit(r):
			hasDigit = true
		}
	}
	if !hasLetter {
		return fmt.Errorf("password must contain at least one letter")
	}
	if !hasDigit {
		return fmt.Errorf("password must contain at least one digit")
	}
	return nil
}

const tempPasswordAlphabet = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// GenerateTempPassword returns a random password satisfying the policy,
// used for admin-driven password resets.
func GenerateTempPassword(length int) (string, error) {
	if length < 8 {
		length = 12
	}
	for {
		buf := make([]byte, length)
		for i := range buf {
			n, err := rand.Int(rand.Reader, big.NewInt(int64(len(tempPasswordAlphabet))))
			if err != nil {
				return "", fmt.Errorf("generate password: %w", err)
			}
			buf[i] = tempPasswordAlphabet[n.Int64()]
		}
		pw := string(buf)
		if ValidatePassword(pw) == nil {
			return pw, nil
		}
	}
}
