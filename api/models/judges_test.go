package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDeriveSecretCode(t *testing.T) {
	t.Run("uppercases and strips whitespace", func(t *testing.T) {
		assert.Equal(t, "FOOBAR-HACK", DeriveSecretCode("Foo Bar"))
	})

	t.Run("handles tabs and repeated spaces", func(t *testing.T) {
		assert.Equal(t, "FOOBAR-HACK", DeriveSecretCode("foo \t bar"))
	})

	t.Run("names differing only by case and whitespace collide", func(t *testing.T) {
		assert.Equal(t, DeriveSecretCode("Foo Bar"), DeriveSecretCode("foo  bar"))
	})

	t.Run("empty name still gets the suffix", func(t *testing.T) {
		assert.Equal(t, CodeSuffix, DeriveSecretCode(""))
	})
}

func TestSanitizeAccessCode(t *testing.T) {
	assert.Equal(t, "ADMIN-1234", SanitizeAccessCode(" ADMIN-1234 "))
	assert.Equal(t, "admin-1234", SanitizeAccessCode("admin - 1234"))
}
