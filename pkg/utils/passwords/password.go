// Package passwords hashes and verifies account passwords with argon2id.
package passwords

import (
	"errors"
	"strings"
	"unicode/utf8"

	"github.com/alexedwards/argon2id"
	"github.com/go-playground/validator/v10"
	"github.com/jackc/pgx/v5/pgtype"
)

const (
	// MinPasswordLength is the minimum password length in characters.
	MinPasswordLength = 8
	// MaxPasswordLength is the maximum password length in characters.
	MaxPasswordLength = 512
)

var (
	ErrPasswordTooShort = errors.New("password is too short")
	ErrPasswordTooLong  = errors.New("password is too long")
)

var params = &argon2id.Params{
	Memory:      64 * 1024,
	Iterations:  3,
	Parallelism: 2,
	SaltLength:  16,
	KeyLength:   32,
}

// Password is an encoded argon2id hash. The zero value matches nothing.
type Password string

// PasswordInput carries a plaintext password for validation.
type PasswordInput struct {
	Password string `validate:"required,min=8,max=512"`
}

var validate = validator.New()

// Check validates plaintext against the length rules.
func Check(input PasswordInput) error {
	if err := validate.Struct(input); err != nil {
		if utf8.RuneCountInString(input.Password) > MaxPasswordLength {
			return ErrPasswordTooLong
		}
		return ErrPasswordTooShort
	}
	return nil
}

// NewPassword validates and hashes the input.
func NewPassword(input PasswordInput) (Password, error) {
	if err := Check(input); err != nil {
		return "", err
	}
	hash, err := argon2id.CreateHash(input.Password, params)
	if err != nil {
		return "", err
	}
	return Password(hash), nil
}

// Matches reports whether plaintext hashes to p. Malformed hashes never match.
func (p Password) Matches(plaintext string) bool {
	if !IsArgonEncoded(string(p)) {
		return false
	}
	ok, err := argon2id.ComparePasswordAndHash(plaintext, string(p))
	return err == nil && ok
}

// String hides the hash from logs.
func (p Password) String() string {
	if p == "" {
		return ""
	}
	return "[redacted]"
}

// ScanText implements pgtype.TextScanner.
func (p *Password) ScanText(v pgtype.Text) error {
	if !v.Valid {
		*p = ""
		return nil
	}
	*p = Password(v.String)
	return nil
}

// TextValue implements pgtype.TextValuer.
func (p Password) TextValue() (pgtype.Text, error) {
	return pgtype.Text{String: string(p), Valid: p != ""}, nil
}

// IsArgonEncoded returns true if the input is an argon2id hash.
func IsArgonEncoded(input string) bool {
	return strings.HasPrefix(input, "$argon2id$")
}
