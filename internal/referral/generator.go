package referral

import (
	"fmt"
	"strings"

	gonanoid "github.com/matoous/go-nanoid/v2"
)

const (
	Alphabet      = "0123456789abcdefghijklmnopqrstuvwxyz"
	DefaultLength = 6
)

// Generator produces random referral codes. Uniqueness is left to the store.
type Generator struct {
	length int
}

func NewGenerator(length int) *Generator {
	if length <= 0 {
		length = DefaultLength
	}
	return &Generator{length: length}
}

func (g *Generator) Length() int {
	return g.length
}

// Generate returns a new code of the configured length drawn from Alphabet
func (g *Generator) Generate() (string, error) {
	code, err := gonanoid.Generate(Alphabet, g.length)
	if err != nil {
		return "", fmt.Errorf("failed to generate referral code: %w", err)
	}
	return code, nil
}

// IsValid reports whether code has the configured length and only uses Alphabet
func (g *Generator) IsValid(code string) bool {
	if len(code) != g.length {
		return false
	}
	for _, r := range code {
		if !strings.ContainsRune(Alphabet, r) {
			return false
		}
	}
	return true
}
