package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseCategory(t *testing.T) {
	tests := []struct {
		in   string
		want Category
		ok   bool
	}{
		{"food", CategoryFood, true},
		{"  Accommodation ", CategoryAccommodation, true},
		{"TIP", CategoryTip, true},
		{"restaurant", "", false},
		{"", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, ok := ParseCategory(tt.in)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseSourceType(t *testing.T) {
	got, ok := ParseSourceType("YouTube")
	assert.True(t, ok)
	assert.Equal(t, SourceYouTube, got)

	_, ok = ParseSourceType("tiktok")
	assert.False(t, ok)
}

func TestCandidate_Validate(t *testing.T) {
	assert.NoError(t, Candidate{Name: "Nishiki Market", Category: CategoryShopping}.Validate())
	assert.ErrorIs(t, Candidate{Name: " ", Category: CategoryFood}.Validate(), ErrValidation)
	assert.ErrorIs(t, Candidate{Name: "x", Category: "nightlife"}.Validate(), ErrValidation)
}
