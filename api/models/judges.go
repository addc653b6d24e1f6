package models

import (
	"strings"
	"unicode"
)

// CodeSuffix is appended to every derived judge code.
const CodeSuffix = "-HACK"

// DeriveSecretCode computes a judge's access code from their name:
// uppercase, all whitespace stripped, fixed suffix. Two names that differ
// only by case or whitespace derive the same code and collide on creation.
func DeriveSecretCode(name string) string {
	stripped := strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, name)

	return strings.ToUpper(stripped) + CodeSuffix
}

// SanitizeAccessCode normalizes a code typed at the login prompt the same
// way the derivation does, so lookups are whitespace and case insensitive.
func SanitizeAccessCode(code string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, code)
}

type VerifyResponse struct {
	Valid bool           `json:"valid"`
	Role  string         `json:"role"`
	Judge *JudgeResponse `json:"judge,omitempty"`
}

const (
	RoleAdmin = "admin"
	RoleJudge = "judge"
)
