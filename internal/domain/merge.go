package domain

import "strings"

// MergeEnrichment builds the item to persist from a candidate and an optional
// enrichment result. Enrichment only adds data: the candidate's name,
// category, description, and location hint are kept as extracted, and a nil
// enrichment field never clears anything. The provider's name is used only
// when the candidate has none.
func MergeEnrichment(c Candidate, src SourceAttribution, e *EnrichmentResult) NewItem {
	item := NewItem{
		Name:            strings.TrimSpace(c.Name),
		Category:        c.Category,
		Description:     strings.TrimSpace(c.Description),
		LocationName:    strings.TrimSpace(c.LocationHint),
		OriginalContent: c.OriginalContent,
		Source:          src,
	}
	if e == nil {
		return item
	}

	if item.Name == "" && e.Name != nil {
		item.Name = *e.Name
	}
	item.ProviderPlaceID = e.ProviderPlaceID
	item.Rating = e.Rating
	item.RatingCount = e.RatingCount
	item.PriceLevel = e.PriceLevel
	item.FormattedAddress = e.FormattedAddress
	item.AreaName = e.AreaName
	item.Coordinates = e.Coordinates
	item.Photos = e.Photos
	item.OpeningHours = e.OpeningHours

	if item.LocationName == "" && e.AreaName != "" {
		item.LocationName = e.AreaName
	}
	return item
}
