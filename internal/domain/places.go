package domain

import "context"

// Coordinates is a WGS-84 latitude/longitude pair.
type Coordinates struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// PhotoRef points at a provider-hosted photo. The reference is opaque and is
// exchanged for image bytes by a separate photo endpoint.
type PhotoRef struct {
	Reference    string   `json:"reference"`
	Width        int      `json:"width,omitempty"`
	Height       int      `json:"height,omitempty"`
	Attributions []string `json:"attributions,omitempty"`
}

// OpeningHours is the provider's opening-hours block.
type OpeningHours struct {
	OpenNow     *bool    `json:"open_now,omitempty"`
	WeekdayText []string `json:"weekday_text,omitempty"`
}

// AddressComponent is one structured piece of a provider address,
// e.g. {LongName: "Shibuya", Types: ["locality", "political"]}.
type AddressComponent struct {
	LongName  string   `json:"long_name"`
	ShortName string   `json:"short_name"`
	Types     []string `json:"types"`
}

// PlaceSummary is one text-search hit.
type PlaceSummary struct {
	PlaceID string
	Name    string
}

// PlaceDetails is the provider's canonical record for a place.
type PlaceDetails struct {
	PlaceID           string
	Name              string
	FormattedAddress  string
	Rating            *float64
	UserRatingsTotal  *int
	PriceLevel        *int
	Location          *Coordinates
	AddressComponents []AddressComponent
	Photos            []PhotoRef
	OpeningHours      *OpeningHours
}

// DetailFields are the fields requested from the details endpoint.
var DetailFields = []string{
	"place_id",
	"name",
	"formatted_address",
	"rating",
	"user_ratings_total",
	"price_level",
	"photos",
	"geometry",
	"address_components",
	"opening_hours",
}

// PlaceSearchProvider resolves place names against a third-party places API.
// Implementations are unreliable by nature: callers must tolerate errors,
// empty results, and partial records.
type PlaceSearchProvider interface {
	// TextSearch returns hits for a free-text query, best match first.
	// An empty slice with a nil error means nothing matched.
	TextSearch(ctx context.Context, query string) ([]PlaceSummary, error)

	// Details fetches the canonical record for a place id.
	Details(ctx context.Context, placeID string, fields []string) (PlaceDetails, error)
}
