package domain

import (
	"fmt"
	"strings"
)

// Category classifies what kind of real-world thing a candidate is.
type Category string

const (
	CategoryFood          Category = "food"
	CategoryAccommodation Category = "accommodation"
	CategoryPlace         Category = "place"
	CategoryShopping      Category = "shopping"
	CategoryActivity      Category = "activity"
	CategoryTip           Category = "tip"
)

// Categories lists every accepted category in prompt order.
var Categories = []Category{
	CategoryFood,
	CategoryAccommodation,
	CategoryPlace,
	CategoryShopping,
	CategoryActivity,
	CategoryTip,
}

// ParseCategory normalizes s and reports whether it names a known category.
func ParseCategory(s string) (Category, bool) {
	c := Category(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range Categories {
		if c == known {
			return c, true
		}
	}
	return "", false
}

// SourceType identifies where shared content came from.
type SourceType string

const (
	SourceYouTube   SourceType = "youtube"
	SourceInstagram SourceType = "instagram"
	SourceReddit    SourceType = "reddit"
	SourceText      SourceType = "text"
)

// ParseSourceType normalizes s and reports whether it is a supported source.
func ParseSourceType(s string) (SourceType, bool) {
	switch t := SourceType(strings.ToLower(strings.TrimSpace(s))); t {
	case SourceYouTube, SourceInstagram, SourceReddit, SourceText:
		return t, true
	default:
		return "", false
	}
}

// Candidate is an unconfirmed place extracted from shared content.
// It is never persisted directly; the importer merges it with enrichment
// data into a NewItem first.
type Candidate struct {
	Name            string   `json:"name"`
	Category        Category `json:"category"`
	Description     string   `json:"description"`
	LocationHint    string   `json:"location_hint,omitempty"`
	OriginalContent string   `json:"original_content,omitempty"`
}

// Validate checks the fields every candidate must carry.
func (c Candidate) Validate() error {
	if strings.TrimSpace(c.Name) == "" {
		return fmt.Errorf("%w: candidate name is required", ErrValidation)
	}
	if _, ok := ParseCategory(string(c.Category)); !ok {
		return fmt.Errorf("%w: unknown category %q", ErrValidation, c.Category)
	}
	return nil
}
