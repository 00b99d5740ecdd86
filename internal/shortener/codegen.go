package shortener

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"net/url"
	"strings"

	"github.com/abdusco/linkzip/internal"
)

const (
	codeAlphabet      = "abcdefghijklmnopqrstuvwxyz0123456789"
	DefaultCodeLength = 8
	MaxCodeLength     = 20
)

// reservedCodes are top-level paths the router serves itself; a link under one of them
// would never be reached by GET /:code.
var reservedCodes = map[string]struct{}{
	"api":     {},
	"health":  {},
	"metrics": {},
}

func IsReservedCode(code string) bool {
	_, ok := reservedCodes[code]
	return ok
}

// Generator produces random short code candidates.
type Generator interface {
	Generate() (string, error)
}

type RandomGenerator struct {
	length int
}

func NewRandomGenerator(length int) *RandomGenerator {
	if length <= 0 || length > MaxCodeLength {
		length = DefaultCodeLength
	}
	return &RandomGenerator{length: length}
}

func (g *RandomGenerator) Generate() (string, error) {
	max := big.NewInt(int64(len(codeAlphabet)))
	code := make([]byte, g.length)
	for i := range code {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", fmt.Errorf("failed to read random bytes: %w", err)
		}
		code[i] = codeAlphabet[n.Int64()]
	}
	return string(code), nil
}

// ValidateCode checks a short code against the code alphabet ([a-z0-9-]) and length (1-20).
func ValidateCode(code string) error {
	if code == "" || len(code) > MaxCodeLength {
		return internal.ErrInvalidCode
	}
	for _, c := range code {
		if !isCodeChar(c) {
			return internal.ErrInvalidCode
		}
	}
	return nil
}

func isCodeChar(c rune) bool {
	return (c >= 'a' && c <= 'z') || (c >= '0' && c <= '9') || c == '-'
}

// ValidateURL accepts absolute http and https URLs with a host.
func ValidateURL(raw string) error {
	if strings.TrimSpace(raw) == "" {
		return internal.ErrInvalidURL
	}

	parsed, err := url.Parse(raw)
	if err != nil {
		return internal.ErrInvalidURL
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return internal.ErrInvalidURL
	}
	if parsed.Host == "" || parsed.Hostname() == "" {
		return internal.ErrInvalidURL
	}
	return nil
}
