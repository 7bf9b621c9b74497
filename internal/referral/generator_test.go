package referral

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerator_Generate(t *testing.T) {
	g := NewGenerator(0)
	assert.Equal(t, DefaultLength, g.Length())

	seen := make(map[string]struct{})
	for i := 0; i < 200; i++ {
		code, err := g.Generate()
		require.NoError(t, err)
		assert.Len(t, code, 6)
		assert.True(t, g.IsValid(code), "generated code %q should be valid", code)
		seen[code] = struct{}{}
	}
	// 36^6 possibilities; 200 draws should not collide in practice
	assert.Greater(t, len(seen), 190)
}

func TestGenerator_CustomLength(t *testing.T) {
	g := NewGenerator(10)
	code, err := g.Generate()
	require.NoError(t, err)
	assert.Len(t, code, 10)
}

func TestGenerator_IsValid(t *testing.T) {
	g := NewGenerator(6)

	tests := []struct {
		code  string
		valid bool
	}{
		{"c1abcd", true},
		{"000000", true},
		{"zzzzzz", true},
		{"C1ABCD", false},
		{"c1abc", false},
		{"c1abcde", false},
		{"c1-bcd", false},
		{"", false},
	}
	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			assert.Equal(t, tt.valid, g.IsValid(tt.code))
		})
	}
}
