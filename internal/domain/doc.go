// Package domain models places shared into a trip from social-media content.
//
// # Lifecycle
//
// Shared content (a YouTube transcript, an Instagram caption, a Reddit post)
// is turned into zero or more [Candidate] values by the extraction agent. The
// user picks which candidates to keep; the importer then checks each one for
// duplicates against the trip, enriches it against the places provider, and
// persists the merged [NewItem] as a [SavedItem].
//
// # Provider place ids
//
// The places provider's stable id is the primary deduplication key. For a
// given trip, at most one SavedItem may reference a given ProviderPlaceID.
// The guarantee lives in the storage layer (a unique index on
// (trip_id, provider_place_id)); a write that would break it fails with
// [ErrPersistenceConflict]. The name-based duplicate check that runs before
// enrichment only stops obvious repeats early.
//
// # Area names
//
// Provider addresses come back as structured components, e.g.
//
//	{long_name: "Shibuya",  types: [locality, political]}
//	{long_name: "Jinnan",   types: [sublocality_level_1, sublocality, political]}
//	{long_name: "Tokyo",    types: [administrative_area_level_1, political]}
//
// The area name is the first component typed locality, then any sublocality
// level, then administrative_area_level_2. The example above yields "Shibuya".
// See [DeriveAreaName].
//
// # Merging
//
// Enrichment only adds fields. Anything the candidate carried from extraction
// (name, category, description, location hint) survives the merge. See
// [MergeEnrichment].
package domain
