package domain

import "slices"

// MaxPhotos bounds how many photo references are kept per place.
const MaxPhotos = 5

// areaTypePriority is the order in which address component types are
// considered when deriving an area name. Every sublocality level ranks
// between locality and administrative_area_level_2.
var areaTypePriority = [][]string{
	{"locality"},
	{"sublocality", "sublocality_level_1", "sublocality_level_2", "sublocality_level_3", "sublocality_level_4", "sublocality_level_5"},
	{"administrative_area_level_2"},
}

// EnrichmentResult is the outcome of resolving a candidate against the places
// provider. Every field is optional; nil means the provider did not return it.
type EnrichmentResult struct {
	ProviderPlaceID  *string       `json:"provider_place_id,omitempty"`
	Name             *string       `json:"name,omitempty"`
	Rating           *float64      `json:"rating,omitempty"`
	RatingCount      *int          `json:"rating_count,omitempty"`
	PriceLevel       *int          `json:"price_level,omitempty"`
	FormattedAddress *string       `json:"formatted_address,omitempty"`
	AreaName         string        `json:"area_name"`
	Coordinates      *Coordinates  `json:"coordinates,omitempty"`
	Photos           []PhotoRef    `json:"photos,omitempty"`
	OpeningHours     *OpeningHours `json:"opening_hours,omitempty"`
}

// NewEnrichmentResult converts provider details into an EnrichmentResult:
// empty strings become nil, price levels outside 0-4 are dropped, photos are
// capped at MaxPhotos, and the area name is derived from address components.
func NewEnrichmentResult(d PlaceDetails) *EnrichmentResult {
	r := &EnrichmentResult{
		ProviderPlaceID:  stringPtr(d.PlaceID),
		Name:             stringPtr(d.Name),
		Rating:           d.Rating,
		RatingCount:      d.UserRatingsTotal,
		FormattedAddress: stringPtr(d.FormattedAddress),
		AreaName:         DeriveAreaName(d.AddressComponents),
		Coordinates:      d.Location,
		OpeningHours:     d.OpeningHours,
	}
	if d.PriceLevel != nil && *d.PriceLevel >= 0 && *d.PriceLevel <= 4 {
		r.PriceLevel = d.PriceLevel
	}
	if len(d.Photos) > 0 {
		n := min(len(d.Photos), MaxPhotos)
		r.Photos = slices.Clone(d.Photos[:n])
	}
	return r
}

// DeriveAreaName returns the first component classified as locality,
// sub-locality, or administrative_area_level_2, in that priority order.
// Returns "" if no component matches.
func DeriveAreaName(components []AddressComponent) string {
	for _, types := range areaTypePriority {
		for _, c := range components {
			if c.LongName == "" {
				continue
			}
			for _, t := range c.Types {
				if slices.Contains(types, t) {
					return c.LongName
				}
			}
		}
	}
	return ""
}

func stringPtr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
