// Package sqlite persists trips and saved items in a local SQLite database.
// It backs development setups and the CLI; the schema and uniqueness rules
// mirror the Postgres store.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/c0ncepT23/Travelbuddy-sub005/internal/domain"
	"github.com/c0ncepT23/Travelbuddy-sub005/migrations"
)

// CandidateLimit bounds how many items FindDuplicateCandidates returns.
const CandidateLimit = 200

// Store is the SQLite implementation of the item store.
type Store struct {
	db *sql.DB
}

// Open opens (creating if needed) the database at path and applies pending
// migrations.
func Open(ctx context.Context, path string) (*Store, error) {
	db, err := OpenDB(ctx, path)
	if err != nil {
		return nil, err
	}

	s := &Store{db: db}
	if err := s.Migrate(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

// OpenDB opens the database at path with foreign keys, WAL, and a busy
// timeout enabled on every connection. It does not migrate.
func OpenDB(ctx context.Context, path string) (*sql.DB, error) {
	dsn := "file:" + path + "?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("sqlite.Open: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("sqlite.Open: ping: %w", err)
	}
	return db, nil
}

// Migrate applies pending migrations.
func (s *Store) Migrate(ctx context.Context) error {
	provider, err := migrations.NewProvider("sqlite", s.db)
	if err != nil {
		return fmt.Errorf("sqlite.Store.Migrate: %w", err)
	}
	if _, err := provider.Up(ctx); err != nil {
		return fmt.Errorf("sqlite.Store.Migrate: %w", err)
	}
	return nil
}

// Ping checks that the database answers.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// CreateTrip inserts a trip and returns the persisted record.
func (s *Store) CreateTrip(ctx context.Context, name string) (domain.Trip, error) {
	t := domain.Trip{ID: uuid.New(), Name: name, CreatedAt: domain.Now()}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO trips (id, name, created_at) VALUES (?, ?, ?)`,
		t.ID.String(), t.Name, t.CreatedAt.UnixNano(),
	)
	if err != nil {
		return domain.Trip{}, fmt.Errorf("sqlite.Store.CreateTrip: %w", err)
	}
	return t, nil
}

// GetTrip returns domain.ErrTripNotFound if the trip does not exist.
func (s *Store) GetTrip(ctx context.Context, id uuid.UUID) (domain.Trip, error) {
	var (
		t       domain.Trip
		rawID   string
		created int64
	)
	err := s.db.QueryRowContext(ctx, `SELECT id, name, created_at FROM trips WHERE id = ?`, id.String()).
		Scan(&rawID, &t.Name, &created)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Trip{}, fmt.Errorf("sqlite.Store.GetTrip: %w", domain.ErrTripNotFound)
		}
		return domain.Trip{}, fmt.Errorf("sqlite.Store.GetTrip: %w", err)
	}
	if t.ID, err = uuid.Parse(rawID); err != nil {
		return domain.Trip{}, fmt.Errorf("sqlite.Store.GetTrip: %w", err)
	}
	t.CreatedAt = fromNanos(created)
	return t, nil
}

// FindDuplicateCandidates returns up to CandidateLimit of the trip's items,
// most likely matches first: names containing (or contained in) name, then
// items in the same location, then newest first. An empty name matches all.
func (s *Store) FindDuplicateCandidates(ctx context.Context, tripID uuid.UUID, name, locationHint string) ([]domain.ExistingItem, error) {
	if err := s.tripExists(ctx, tripID); err != nil {
		return nil, fmt.Errorf("sqlite.Store.FindDuplicateCandidates: %w", err)
	}

	const q = `
		SELECT id, name
		FROM saved_items
		WHERE trip_id = :trip_id
		ORDER BY
		    (instr(lower(name), lower(:name)) > 0 OR instr(lower(:name), lower(name)) > 0) DESC,
		    (:hint <> '' AND lower(location_name) = lower(:hint)) DESC,
		    created_at DESC
		LIMIT :limit`

	rows, err := s.db.QueryContext(ctx, q,
		sql.Named("trip_id", tripID.String()),
		sql.Named("name", strings.TrimSpace(name)),
		sql.Named("hint", strings.TrimSpace(locationHint)),
		sql.Named("limit", CandidateLimit),
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite.Store.FindDuplicateCandidates: %w", err)
	}
	defer rows.Close()

	var items []domain.ExistingItem
	for rows.Next() {
		var rawID, itemName string
		if err := rows.Scan(&rawID, &itemName); err != nil {
			return nil, fmt.Errorf("sqlite.Store.FindDuplicateCandidates: scan: %w", err)
		}
		id, err := uuid.Parse(rawID)
		if err != nil {
			return nil, fmt.Errorf("sqlite.Store.FindDuplicateCandidates: %w", err)
		}
		items = append(items, domain.ExistingItem{ID: id, Name: itemName})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite.Store.FindDuplicateCandidates: rows: %w", err)
	}
	return items, nil
}

// ListItems returns every item saved to the trip, newest first.
func (s *Store) ListItems(ctx context.Context, tripID uuid.UUID) ([]domain.SavedItem, error) {
	if err := s.tripExists(ctx, tripID); err != nil {
		return nil, fmt.Errorf("sqlite.Store.ListItems: %w", err)
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT `+itemColumns+` FROM saved_items WHERE trip_id = ? ORDER BY created_at DESC`,
		tripID.String(),
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite.Store.ListItems: %w", err)
	}
	defer rows.Close()

	var items []domain.SavedItem
	for rows.Next() {
		it, err := scanItem(rows)
		if err != nil {
			return nil, fmt.Errorf("sqlite.Store.ListItems: scan: %w", err)
		}
		items = append(items, it)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite.Store.ListItems: rows: %w", err)
	}
	return items, nil
}

// Create inserts item under tripID. A second item with the same provider
// place id on the same trip yields domain.ErrPersistenceConflict.
func (s *Store) Create(ctx context.Context, tripID uuid.UUID, item domain.NewItem) (domain.SavedItem, error) {
	photos, hours, err := encodeJSON(item.Photos, item.OpeningHours)
	if err != nil {
		return domain.SavedItem{}, fmt.Errorf("sqlite.Store.Create: %w", err)
	}
	lat, lng := splitCoordinates(item.Coordinates)
	id := uuid.New()
	now := domain.Now().UnixNano()

	const q = `
		INSERT INTO saved_items (
		    id, trip_id, name, category, description, location_name, original_content,
		    source_url, source_type, source_title,
		    provider_place_id, rating, rating_count, price_level, formatted_address,
		    area_name, latitude, longitude, photos, opening_hours, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	_, err = s.db.ExecContext(ctx, q,
		id.String(), tripID.String(), item.Name, string(item.Category), item.Description,
		item.LocationName, item.OriginalContent,
		item.Source.URL, string(item.Source.Type), item.Source.Title,
		item.ProviderPlaceID, item.Rating, item.RatingCount, item.PriceLevel, item.FormattedAddress,
		item.AreaName, lat, lng, photos, hours, now, now,
	)
	if err != nil {
		return domain.SavedItem{}, fmt.Errorf("sqlite.Store.Create: %w", mapWriteErr(err))
	}

	saved, err := s.getItem(ctx, id)
	if err != nil {
		return domain.SavedItem{}, fmt.Errorf("sqlite.Store.Create: %w", err)
	}
	return saved, nil
}

// Update applies the non-nil fields of patch. Returns domain.ErrNotFound if
// the item does not exist.
func (s *Store) Update(ctx context.Context, id uuid.UUID, patch domain.ItemPatch) (domain.SavedItem, error) {
	var photos *string
	if patch.Photos != nil {
		b, err := json.Marshal(patch.Photos)
		if err != nil {
			return domain.SavedItem{}, fmt.Errorf("sqlite.Store.Update: encode photos: %w", err)
		}
		p := string(b)
		photos = &p
	}
	_, hours, err := encodeJSON(nil, patch.OpeningHours)
	if err != nil {
		return domain.SavedItem{}, fmt.Errorf("sqlite.Store.Update: %w", err)
	}
	lat, lng := splitCoordinates(patch.Coordinates)

	const q = `
		UPDATE saved_items
		SET description       = COALESCE(:description, description),
		    location_name     = COALESCE(:location_name, location_name),
		    provider_place_id = COALESCE(:provider_place_id, provider_place_id),
		    rating            = COALESCE(:rating, rating),
		    rating_count      = COALESCE(:rating_count, rating_count),
		    price_level       = COALESCE(:price_level, price_level),
		    formatted_address = COALESCE(:formatted_address, formatted_address),
		    area_name         = COALESCE(:area_name, area_name),
		    latitude          = COALESCE(:latitude, latitude),
		    longitude         = COALESCE(:longitude, longitude),
		    photos            = COALESCE(:photos, photos),
		    opening_hours     = COALESCE(:opening_hours, opening_hours),
		    updated_at        = :now
		WHERE id = :id`

	res, err := s.db.ExecContext(ctx, q,
		sql.Named("id", id.String()),
		sql.Named("description", patch.Description),
		sql.Named("location_name", patch.LocationName),
		sql.Named("provider_place_id", patch.ProviderPlaceID),
		sql.Named("rating", patch.Rating),
		sql.Named("rating_count", patch.RatingCount),
		sql.Named("price_level", patch.PriceLevel),
		sql.Named("formatted_address", patch.FormattedAddress),
		sql.Named("area_name", patch.AreaName),
		sql.Named("latitude", lat),
		sql.Named("longitude", lng),
		sql.Named("photos", photos),
		sql.Named("opening_hours", hours),
		sql.Named("now", domain.Now().UnixNano()),
	)
	if err != nil {
		return domain.SavedItem{}, fmt.Errorf("sqlite.Store.Update: %w", mapWriteErr(err))
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return domain.SavedItem{}, fmt.Errorf("sqlite.Store.Update: %w", domain.ErrNotFound)
	}

	saved, err := s.getItem(ctx, id)
	if err != nil {
		return domain.SavedItem{}, fmt.Errorf("sqlite.Store.Update: %w", err)
	}
	return saved, nil
}

func (s *Store) getItem(ctx context.Context, id uuid.UUID) (domain.SavedItem, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+itemColumns+` FROM saved_items WHERE id = ?`, id.String())
	it, err := scanItem(row)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.SavedItem{}, domain.ErrNotFound
	}
	return it, err
}

func (s *Store) tripExists(ctx context.Context, tripID uuid.UUID) error {
	var exists bool
	err := s.db.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM trips WHERE id = ?)`, tripID.String()).Scan(&exists)
	if err != nil {
		return err
	}
	if !exists {
		return domain.ErrTripNotFound
	}
	return nil
}

const itemColumns = `id, trip_id, name, category, description, location_name, original_content,
    source_url, source_type, source_title,
    provider_place_id, rating, rating_count, price_level, formatted_address,
    area_name, latitude, longitude, photos, opening_hours, created_at, updated_at`

type scanner interface {
	Scan(dest ...any) error
}

func scanItem(s scanner) (domain.SavedItem, error) {
	var (
		it                 domain.SavedItem
		rawID, rawTrip     string
		category, srcType  string
		placeID, address   sql.NullString
		rating, lat, lng   sql.NullFloat64
		ratingCount, price sql.NullInt64
		photos             string
		hours              sql.NullString
		created, updated   int64
	)
	err := s.Scan(
		&rawID, &rawTrip, &it.Name, &category, &it.Description, &it.LocationName, &it.OriginalContent,
		&it.Source.URL, &srcType, &it.Source.Title,
		&placeID, &rating, &ratingCount, &price, &address,
		&it.AreaName, &lat, &lng, &photos, &hours, &created, &updated,
	)
	if err != nil {
		return domain.SavedItem{}, err
	}

	if it.ID, err = uuid.Parse(rawID); err != nil {
		return domain.SavedItem{}, fmt.Errorf("parse id: %w", err)
	}
	if it.TripID, err = uuid.Parse(rawTrip); err != nil {
		return domain.SavedItem{}, fmt.Errorf("parse trip id: %w", err)
	}
	it.Category = domain.Category(category)
	it.Source.Type = domain.SourceType(srcType)
	if placeID.Valid {
		it.ProviderPlaceID = &placeID.String
	}
	if address.Valid {
		it.FormattedAddress = &address.String
	}
	if rating.Valid {
		it.Rating = &rating.Float64
	}
	if ratingCount.Valid {
		n := int(ratingCount.Int64)
		it.RatingCount = &n
	}
	if price.Valid {
		n := int(price.Int64)
		it.PriceLevel = &n
	}
	if lat.Valid && lng.Valid {
		it.Coordinates = &domain.Coordinates{Lat: lat.Float64, Lng: lng.Float64}
	}
	if photos != "" {
		if err := json.Unmarshal([]byte(photos), &it.Photos); err != nil {
			return domain.SavedItem{}, fmt.Errorf("decode photos: %w", err)
		}
		if len(it.Photos) == 0 {
			it.Photos = nil
		}
	}
	if hours.Valid {
		it.OpeningHours = &domain.OpeningHours{}
		if err := json.Unmarshal([]byte(hours.String), it.OpeningHours); err != nil {
			return domain.SavedItem{}, fmt.Errorf("decode opening hours: %w", err)
		}
	}
	it.CreatedAt = fromNanos(created)
	it.UpdatedAt = fromNanos(updated)
	return it, nil
}

// encodeJSON renders the JSON columns. Photos always encode (empty list for
// nil); opening hours stay NULL when absent.
func encodeJSON(photos []domain.PhotoRef, hours *domain.OpeningHours) (string, *string, error) {
	if photos == nil {
		photos = []domain.PhotoRef{}
	}
	p, err := json.Marshal(photos)
	if err != nil {
		return "", nil, fmt.Errorf("encode photos: %w", err)
	}
	if hours == nil {
		return string(p), nil, nil
	}
	h, err := json.Marshal(hours)
	if err != nil {
		return "", nil, fmt.Errorf("encode opening hours: %w", err)
	}
	hs := string(h)
	return string(p), &hs, nil
}

func splitCoordinates(c *domain.Coordinates) (*float64, *float64) {
	if c == nil {
		return nil, nil
	}
	lat, lng := c.Lat, c.Lng
	return &lat, &lng
}

func fromNanos(n int64) time.Time {
	return time.Unix(0, n).UTC()
}

// mapWriteErr translates SQLite constraint failures into domain errors.
func mapWriteErr(err error) error {
	code := 0
	var coder interface{ Code() int }
	if errors.As(err, &coder) {
		code = coder.Code()
	}
	msg := err.Error()
	switch {
	case code == sqlite3.SQLITE_CONSTRAINT_UNIQUE || strings.Contains(msg, "UNIQUE constraint failed"):
		return fmt.Errorf("%w: %v", domain.ErrPersistenceConflict, err)
	case code == sqlite3.SQLITE_CONSTRAINT_FOREIGNKEY || strings.Contains(msg, "FOREIGN KEY constraint failed"):
		return domain.ErrTripNotFound
	default:
		return err
	}
}
