package domain

import (
	"time"

	"github.com/google/uuid"
)

// SourceAttribution records where an imported item was shared from.
type SourceAttribution struct {
	URL   string     `json:"url,omitempty"`
	Type  SourceType `json:"type,omitempty"`
	Title string     `json:"title,omitempty"`
}

// ExistingItem is the slice of a saved item the duplicate check needs.
type ExistingItem struct {
	ID   uuid.UUID `json:"id"`
	Name string    `json:"name"`
}

// DuplicateDecision gates whether a candidate is persisted. It is never stored.
type DuplicateDecision struct {
	IsDuplicate   bool       `json:"is_duplicate"`
	MatchedItemID *uuid.UUID `json:"matched_item_id,omitempty"`
}

// NewItem is a merged candidate ready to be written by an item store.
type NewItem struct {
	Name            string
	Category        Category
	Description     string
	LocationName    string
	OriginalContent string
	Source          SourceAttribution

	ProviderPlaceID  *string
	Rating           *float64
	RatingCount      *int
	PriceLevel       *int
	FormattedAddress *string
	AreaName         string
	Coordinates      *Coordinates
	Photos           []PhotoRef
	OpeningHours     *OpeningHours
}

// SavedItem is a place attached to a trip. At most one SavedItem per trip may
// reference a given ProviderPlaceID.
type SavedItem struct {
	ID              uuid.UUID         `json:"id"`
	TripID          uuid.UUID         `json:"trip_id"`
	Name            string            `json:"name"`
	Category        Category          `json:"category"`
	Description     string            `json:"description"`
	LocationName    string            `json:"location_name,omitempty"`
	OriginalContent string            `json:"original_content,omitempty"`
	Source          SourceAttribution `json:"source"`

	ProviderPlaceID  *string       `json:"provider_place_id,omitempty"`
	Rating           *float64      `json:"rating,omitempty"`
	RatingCount      *int          `json:"rating_count,omitempty"`
	PriceLevel       *int          `json:"price_level,omitempty"`
	FormattedAddress *string       `json:"formatted_address,omitempty"`
	AreaName         string        `json:"area_name,omitempty"`
	Coordinates      *Coordinates  `json:"coordinates,omitempty"`
	Photos           []PhotoRef    `json:"photos,omitempty"`
	OpeningHours     *OpeningHours `json:"opening_hours,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ItemPatch is a partial update. Nil fields are left untouched.
type ItemPatch struct {
	Description      *string
	LocationName     *string
	ProviderPlaceID  *string
	Rating           *float64
	RatingCount      *int
	PriceLevel       *int
	FormattedAddress *string
	AreaName         *string
	Coordinates      *Coordinates
	Photos           []PhotoRef
	OpeningHours     *OpeningHours
}

// Trip is the minimal trip record the importer needs to check preconditions.
type Trip struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}
