package internal

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFindSimilarStrings(t *testing.T) {
	tests := []struct {
		name       string
		target     string
		candidates []string
		max        int
		expected   []string
	}{
		{"typo", "usre", []string{"user", "users", "email"}, 3, []string{"user", "users"}},
		{"case insensitive", "Name", []string{"name", "game"}, 3, []string{"name", "game"}},
		{"limited", "abc", []string{"abd", "abe", "abf"}, 2, []string{"abd", "abe"}},
		{"nothing close", "title", []string{"zzzzzzzz"}, 3, []string{}},
		{"exact match excluded", "user", []string{"user"}, 3, []string{}},
		{"no candidates", "x", nil, 3, nil},
		{"zero max", "x", []string{"x"}, 0, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, FindSimilarStrings(tt.target, tt.candidates, tt.max))
		})
	}
}

func TestLevenshteinDistance(t *testing.T) {
	tests := []struct {
		a, b     string
		expected int
	}{
		{"", "", 0},
		{"", "abc", 3},
		{"abc", "", 3},
		{"kitten", "sitting", 3},
		{"flaw", "lawn", 2},
		{"same", "same", 0},
	}

	for _, tt := range tests {
		t.Run(tt.a+"_"+tt.b, func(t *testing.T) {
			assert.Equal(t, tt.expected, levenshteinDistance(tt.a, tt.b))
		})
	}
}

func TestLineOf(t *testing.T) {
	content := "a\nb\nc"
	assert.Equal(t, 1, LineOf(content, 0))
	assert.Equal(t, 2, LineOf(content, 2))
	assert.Equal(t, 3, LineOf(content, 4))
	assert.Equal(t, 3, LineOf(content, 99))
	assert.Equal(t, 0, LineOf(content, -1))
}
