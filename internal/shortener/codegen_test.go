package shortener

import (
	"strings"
	"testing"

	"github.com/abdusco/linkzip/internal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRandomGenerator(t *testing.T) {
	t.Run("length and alphabet", func(t *testing.T) {
		for _, length := range []int{1, 6, 8, 20} {
			code, err := NewRandomGenerator(length).Generate()
			require.NoError(t, err)
			assert.Len(t, code, length)
			for _, c := range code {
				assert.True(t, strings.ContainsRune(codeAlphabet, c), "unexpected char %q", c)
			}
		}
	})

	t.Run("out of range length falls back to default", func(t *testing.T) {
		for _, length := range []int{0, -1, MaxCodeLength + 1} {
			code, err := NewRandomGenerator(length).Generate()
			require.NoError(t, err)
			assert.Len(t, code, DefaultCodeLength)
		}
	})
}

func TestValidateCode(t *testing.T) {
	tests := []struct {
		name  string
		code  string
		valid bool
	}{
		{"lowercase", "abc123", true},
		{"with hyphen", "my-link", true},
		{"single char", "a", true},
		{"max length", strings.Repeat("a", 20), true},
		{"empty", "", false},
		{"too long", strings.Repeat("a", 21), false},
		{"uppercase", "MyLink", false},
		{"underscore", "my_link", false},
		{"slash", "a/b", false},
		{"space", "a b", false},
		{"unicode", "café", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateCode(tt.code)
			if tt.valid {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, internal.ErrInvalidCode)
			}
		})
	}
}

func TestValidateURL(t *testing.T) {
	tests := []struct {
		name  string
		url   string
		valid bool
	}{
		{"https", "https://example.com", true},
		{"http with path and query", "http://example.com/a/b?c=1", true},
		{"with port", "https://example.com:8443/x", true},
		{"empty", "", false},
		{"blank", "   ", false},
		{"no scheme", "example.com", false},
		{"ftp", "ftp://example.com/file", false},
		{"javascript", "javascript:alert(1)", false},
		{"no host", "https://", false},
		{"garbage", "not a url", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateURL(tt.url)
			if tt.valid {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, internal.ErrInvalidURL)
			}
		})
	}
}
