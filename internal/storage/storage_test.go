package storage

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeName(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"trims and collapses", "  Food \t and drinks ", "Food and drinks"},
		{"composes accents", "Sante\u0301", "Sant\u00e9"},
		{"drops control chars", "Rent\u0007", "Rent"},
		{"keeps cyrillic", "Продукты", "Продукты"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizeName(tt.in))
		})
	}
}

func TestNormalizeEmail(t *testing.T) {
	assert.Equal(t, "bob@example.com", NormalizeEmail("  Bob@Example.COM "))
}
