// Package postgres persists trips and saved items in PostgreSQL via pgx.
// No business logic lives here, only SQL and type mapping.
package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"

	"github.com/c0ncepT23/Travelbuddy-sub005/internal/domain"
	"github.com/c0ncepT23/Travelbuddy-sub005/migrations"
)

// CandidateLimit bounds how many items FindDuplicateCandidates returns.
const CandidateLimit = 200

const (
	codeUniqueViolation     = "23505"
	codeForeignKeyViolation = "23503"
)

// DB is the minimal interface satisfied by *pgxpool.Pool, pgx.Conn, and pgx.Tx.
// Tests pass a transaction that is rolled back after each test.
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Store is the Postgres implementation of the item store.
type Store struct {
	db   DB
	pool *pgxpool.Pool
}

// NewStore constructs a Store over db. Close is a no-op for stores built this way.
func NewStore(db DB) *Store {
	return &Store{db: db}
}

// Open connects a pool to dsn and verifies it with a ping.
func Open(ctx context.Context, dsn string) (*Store, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("postgres.Open: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("postgres.Open: ping: %w", err)
	}
	return &Store{db: pool, pool: pool}, nil
}

// OpenDB opens a database/sql handle on the pgx driver for migration tooling.
func OpenDB(ctx context.Context, dsn string) (*sql.DB, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("postgres.OpenDB: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("postgres.OpenDB: ping: %w", err)
	}
	return db, nil
}

// Migrate applies pending migrations. It requires a store created by Open.
func (s *Store) Migrate(ctx context.Context) error {
	if s.pool == nil {
		return errors.New("postgres.Store.Migrate: store has no pool")
	}
	sqlDB := stdlib.OpenDBFromPool(s.pool)
	defer sqlDB.Close()

	provider, err := migrations.NewProvider("postgres", sqlDB)
	if err != nil {
		return fmt.Errorf("postgres.Store.Migrate: %w", err)
	}
	if _, err := provider.Up(ctx); err != nil {
		return fmt.Errorf("postgres.Store.Migrate: %w", err)
	}
	return nil
}

// Ping checks that the database answers.
func (s *Store) Ping(ctx context.Context) error {
	if s.pool != nil {
		return s.pool.Ping(ctx)
	}
	_, err := s.db.Exec(ctx, "SELECT 1")
	return err
}

// Close releases the pool.
func (s *Store) Close() error {
	if s.pool != nil {
		s.pool.Close()
	}
	return nil
}

// CreateTrip inserts a trip and returns the persisted record.
func (s *Store) CreateTrip(ctx context.Context, name string) (domain.Trip, error) {
	const q = `
		INSERT INTO trips (name, created_at)
		VALUES (@name, @created_at)
		RETURNING id, name, created_at`

	var t domain.Trip
	err := s.db.QueryRow(ctx, q, pgx.NamedArgs{"name": name, "created_at": domain.Now()}).
		Scan(&t.ID, &t.Name, &t.CreatedAt)
	if err != nil {
		return domain.Trip{}, fmt.Errorf("postgres.Store.CreateTrip: %w", err)
	}
	return t, nil
}

// GetTrip returns domain.ErrTripNotFound if the trip does not exist.
func (s *Store) GetTrip(ctx context.Context, id uuid.UUID) (domain.Trip, error) {
	const q = `SELECT id, name, created_at FROM trips WHERE id = @id`

	var t domain.Trip
	err := s.db.QueryRow(ctx, q, pgx.NamedArgs{"id": id}).Scan(&t.ID, &t.Name, &t.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Trip{}, fmt.Errorf("postgres.Store.GetTrip: %w", domain.ErrTripNotFound)
		}
		return domain.Trip{}, fmt.Errorf("postgres.Store.GetTrip: %w", err)
	}
	return t, nil
}

// FindDuplicateCandidates returns up to CandidateLimit of the trip's items,
// most likely matches first: names containing (or contained in) name, then
// items in the same location, then newest first. An empty name matches all.
func (s *Store) FindDuplicateCandidates(ctx context.Context, tripID uuid.UUID, name, locationHint string) ([]domain.ExistingItem, error) {
	if err := s.tripExists(ctx, tripID); err != nil {
		return nil, fmt.Errorf("postgres.Store.FindDuplicateCandidates: %w", err)
	}

	const q = `
		SELECT id, name
		FROM saved_items
		WHERE trip_id = @trip_id
		ORDER BY
		    (strpos(lower(name), lower(@name::text)) > 0 OR strpos(lower(@name::text), lower(name)) > 0) DESC,
		    (@hint::text <> '' AND lower(location_name) = lower(@hint::text)) DESC,
		    created_at DESC
		LIMIT @limit`

	rows, err := s.db.Query(ctx, q, pgx.NamedArgs{
		"trip_id": tripID,
		"name":    name,
		"hint":    locationHint,
		"limit":   CandidateLimit,
	})
	if err != nil {
		return nil, fmt.Errorf("postgres.Store.FindDuplicateCandidates: %w", err)
	}
	defer rows.Close()

	var items []domain.ExistingItem
	for rows.Next() {
		var it domain.ExistingItem
		if err := rows.Scan(&it.ID, &it.Name); err != nil {
			return nil, fmt.Errorf("postgres.Store.FindDuplicateCandidates: scan: %w", err)
		}
		items = append(items, it)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres.Store.FindDuplicateCandidates: rows: %w", err)
	}
	return items, nil
}

// ListItems returns every item saved to the trip, newest first.
func (s *Store) ListItems(ctx context.Context, tripID uuid.UUID) ([]domain.SavedItem, error) {
	if err := s.tripExists(ctx, tripID); err != nil {
		return nil, fmt.Errorf("postgres.Store.ListItems: %w", err)
	}

	q := `SELECT ` + itemColumns + ` FROM saved_items WHERE trip_id = @trip_id ORDER BY created_at DESC`
	rows, err := s.db.Query(ctx, q, pgx.NamedArgs{"trip_id": tripID})
	if err != nil {
		return nil, fmt.Errorf("postgres.Store.ListItems: %w", err)
	}
	defer rows.Close()

	var items []domain.SavedItem
	for rows.Next() {
		it, err := scanItem(rows)
		if err != nil {
			return nil, fmt.Errorf("postgres.Store.ListItems: scan: %w", err)
		}
		items = append(items, it)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres.Store.ListItems: rows: %w", err)
	}
	return items, nil
}

// Create inserts item under tripID. A second item with the same provider
// place id on the same trip yields domain.ErrPersistenceConflict.
func (s *Store) Create(ctx context.Context, tripID uuid.UUID, item domain.NewItem) (domain.SavedItem, error) {
	q := `
		INSERT INTO saved_items (
		    trip_id, name, category, description, location_name, original_content,
		    source_url, source_type, source_title,
		    provider_place_id, rating, rating_count, price_level, formatted_address,
		    area_name, latitude, longitude, photos, opening_hours, created_at, updated_at)
		VALUES (
		    @trip_id, @name, @category, @description, @location_name, @original_content,
		    @source_url, @source_type, @source_title,
		    @provider_place_id, @rating, @rating_count, @price_level, @formatted_address,
		    @area_name, @latitude, @longitude, @photos, @opening_hours, @now, @now)
		RETURNING ` + itemColumns

	photos, hours, err := encodeJSON(item.Photos, item.OpeningHours)
	if err != nil {
		return domain.SavedItem{}, fmt.Errorf("postgres.Store.Create: %w", err)
	}
	lat, lng := splitCoordinates(item.Coordinates)

	args := pgx.NamedArgs{
		"trip_id":           tripID,
		"name":              item.Name,
		"category":          string(item.Category),
		"description":       item.Description,
		"location_name":     item.LocationName,
		"original_content":  item.OriginalContent,
		"source_url":        item.Source.URL,
		"source_type":       string(item.Source.Type),
		"source_title":      item.Source.Title,
		"provider_place_id": item.ProviderPlaceID,
		"rating":            item.Rating,
		"rating_count":      item.RatingCount,
		"price_level":       item.PriceLevel,
		"formatted_address": item.FormattedAddress,
		"area_name":         item.AreaName,
		"latitude":          lat,
		"longitude":         lng,
		"photos":            photos,
		"opening_hours":     hours,
		"now":               domain.Now(),
	}

	saved, err := scanItem(s.db.QueryRow(ctx, q, args))
	if err != nil {
		return domain.SavedItem{}, fmt.Errorf("postgres.Store.Create: %w", mapWriteErr(err))
	}
	return saved, nil
}

// Update applies the non-nil fields of patch. Returns domain.ErrNotFound if
// the item does not exist.
func (s *Store) Update(ctx context.Context, id uuid.UUID, patch domain.ItemPatch) (domain.SavedItem, error) {
	q := `
		UPDATE saved_items
		SET description       = COALESCE(@description::text, description),
		    location_name     = COALESCE(@location_name::text, location_name),
		    provider_place_id = COALESCE(@provider_place_id::text, provider_place_id),
		    rating            = COALESCE(@rating::double precision, rating),
		    rating_count      = COALESCE(@rating_count::integer, rating_count),
		    price_level       = COALESCE(@price_level::smallint, price_level),
		    formatted_address = COALESCE(@formatted_address::text, formatted_address),
		    area_name         = COALESCE(@area_name::text, area_name),
		    latitude          = COALESCE(@latitude::double precision, latitude),
		    longitude         = COALESCE(@longitude::double precision, longitude),
		    photos            = COALESCE(@photos::jsonb, photos),
		    opening_hours     = COALESCE(@opening_hours::jsonb, opening_hours),
		    updated_at        = @now
		WHERE id = @id
		RETURNING ` + itemColumns

	var photos []byte
	if patch.Photos != nil {
		b, err := json.Marshal(patch.Photos)
		if err != nil {
			return domain.SavedItem{}, fmt.Errorf("postgres.Store.Update: encode photos: %w", err)
		}
		photos = b
	}
	_, hours, err := encodeJSON(nil, patch.OpeningHours)
	if err != nil {
		return domain.SavedItem{}, fmt.Errorf("postgres.Store.Update: %w", err)
	}
	lat, lng := splitCoordinates(patch.Coordinates)

	args := pgx.NamedArgs{
		"id":                id,
		"description":       patch.Description,
		"location_name":     patch.LocationName,
		"provider_place_id": patch.ProviderPlaceID,
		"rating":            patch.Rating,
		"rating_count":      patch.RatingCount,
		"price_level":       patch.PriceLevel,
		"formatted_address": patch.FormattedAddress,
		"area_name":         patch.AreaName,
		"latitude":          lat,
		"longitude":         lng,
		"photos":            photos,
		"opening_hours":     hours,
		"now":               domain.Now(),
	}

	saved, err := scanItem(s.db.QueryRow(ctx, q, args))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.SavedItem{}, fmt.Errorf("postgres.Store.Update: %w", domain.ErrNotFound)
		}
		return domain.SavedItem{}, fmt.Errorf("postgres.Store.Update: %w", mapWriteErr(err))
	}
	return saved, nil
}

func (s *Store) tripExists(ctx context.Context, tripID uuid.UUID) error {
	var exists bool
	err := s.db.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM trips WHERE id = @id)`, pgx.NamedArgs{"id": tripID}).Scan(&exists)
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

// scanner is satisfied by both pgx.Row and pgx.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanItem(s scanner) (domain.SavedItem, error) {
	var (
		it         domain.SavedItem
		category   string
		sourceType string
		priceLevel *int16
		lat, lng   *float64
		photos     []byte
		hours      []byte
	)
	err := s.Scan(
		&it.ID, &it.TripID, &it.Name, &category, &it.Description, &it.LocationName, &it.OriginalContent,
		&it.Source.URL, &sourceType, &it.Source.Title,
		&it.ProviderPlaceID, &it.Rating, &it.RatingCount, &priceLevel, &it.FormattedAddress,
		&it.AreaName, &lat, &lng, &photos, &hours, &it.CreatedAt, &it.UpdatedAt,
	)
	if err != nil {
		return domain.SavedItem{}, err
	}

	it.Category = domain.Category(category)
	it.Source.Type = domain.SourceType(sourceType)
	if priceLevel != nil {
		p := int(*priceLevel)
		it.PriceLevel = &p
	}
	if lat != nil && lng != nil {
		it.Coordinates = &domain.Coordinates{Lat: *lat, Lng: *lng}
	}
	if len(photos) > 0 {
		if err := json.Unmarshal(photos, &it.Photos); err != nil {
			return domain.SavedItem{}, fmt.Errorf("decode photos: %w", err)
		}
		if len(it.Photos) == 0 {
			it.Photos = nil
		}
	}
	if len(hours) > 0 {
		it.OpeningHours = &domain.OpeningHours{}
		if err := json.Unmarshal(hours, it.OpeningHours); err != nil {
			return domain.SavedItem{}, fmt.Errorf("decode opening hours: %w", err)
		}
	}
	it.CreatedAt = it.CreatedAt.UTC()
	it.UpdatedAt = it.UpdatedAt.UTC()
	return it, nil
}

// encodeJSON renders the JSON columns. Photos always encode (empty list for
// nil); opening hours stay NULL when absent.
func encodeJSON(photos []domain.PhotoRef, hours *domain.OpeningHours) ([]byte, []byte, error) {
	if photos == nil {
		photos = []domain.PhotoRef{}
	}
	p, err := json.Marshal(photos)
	if err != nil {
		return nil, nil, fmt.Errorf("encode photos: %w", err)
	}
	if hours == nil {
		return p, nil, nil
	}
	h, err := json.Marshal(hours)
	if err != nil {
		return nil, nil, fmt.Errorf("encode opening hours: %w", err)
	}
	return p, h, nil
}

func splitCoordinates(c *domain.Coordinates) (*float64, *float64) {
	if c == nil {
		return nil, nil
	}
	lat, lng := c.Lat, c.Lng
	return &lat, &lng
}

func mapWriteErr(err error) error {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return err
	}
	switch pgErr.Code {
	case codeUniqueViolation:
		return fmt.Errorf("%w: %s", domain.ErrPersistenceConflict, pgErr.ConstraintName)
	case codeForeignKeyViolation:
		return domain.ErrTripNotFound
	default:
		return err
	}
}
