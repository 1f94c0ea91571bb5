package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/c0ncepT23/Travelbuddy-sub005/internal/domain"
	"github.com/c0ncepT23/Travelbuddy-sub005/internal/importer"
)

const confirmTimeout = 5 * time.Second

type createTripRequest struct {
	Name string `json:"name"`
}

type extractRequest struct {
	Content    string `json:"content"`
	SourceType string `json:"source_type"`
}

type extractResponse struct {
	Candidates []domain.Candidate `json:"candidates"`
}

type importRequest struct {
	Candidates []domain.Candidate       `json:"candidates"`
	Source     domain.SourceAttribution `json:"source"`
}

type importContentRequest struct {
	Content    string                   `json:"content"`
	SourceType string                   `json:"source_type"`
	Source     domain.SourceAttribution `json:"source"`
}

type listItemsResponse struct {
	Items []domain.SavedItem `json:"items"`
}

// itemPatchRequest mirrors domain.ItemPatch; absent fields stay untouched.
type itemPatchRequest struct {
	Description      *string              `json:"description"`
	LocationName     *string              `json:"location_name"`
	ProviderPlaceID  *string              `json:"provider_place_id"`
	Rating           *float64             `json:"rating"`
	RatingCount      *int                 `json:"rating_count"`
	PriceLevel       *int                 `json:"price_level"`
	FormattedAddress *string              `json:"formatted_address"`
	AreaName         *string              `json:"area_name"`
	Coordinates      *domain.Coordinates  `json:"coordinates"`
	Photos           []domain.PhotoRef    `json:"photos"`
	OpeningHours     *domain.OpeningHours `json:"opening_hours"`
}

func (p itemPatchRequest) toDomain() (domain.ItemPatch, error) {
	if p.PriceLevel != nil && (*p.PriceLevel < 0 || *p.PriceLevel > 4) {
		return domain.ItemPatch{}, fmt.Errorf("%w: price_level must be between 0 and 4", domain.ErrValidation)
	}
	if p.Rating != nil && (*p.Rating < 0 || *p.Rating > 5) {
		return domain.ItemPatch{}, fmt.Errorf("%w: rating must be between 0 and 5", domain.ErrValidation)
	}
	if len(p.Photos) > domain.MaxPhotos {
		p.Photos = p.Photos[:domain.MaxPhotos]
	}
	return domain.ItemPatch{
		Description:      p.Description,
		LocationName:     p.LocationName,
		ProviderPlaceID:  p.ProviderPlaceID,
		Rating:           p.Rating,
		RatingCount:      p.RatingCount,
		PriceLevel:       p.PriceLevel,
		FormattedAddress: p.FormattedAddress,
		AreaName:         p.AreaName,
		Coordinates:      p.Coordinates,
		Photos:           p.Photos,
		OpeningHours:     p.OpeningHours,
	}, nil
}

func (s *Server) handleCreateTrip(w http.ResponseWriter, r *http.Request) {
	var req createTripRequest
	if !decodeBody(w, r, &req) {
		return
	}
	name := strings.TrimSpace(req.Name)
	if name == "" {
		writeError(w, fmt.Errorf("%w: name is required", domain.ErrValidation))
		return
	}

	trip, err := s.deps.Trips.CreateTrip(r.Context(), name)
	if err != nil {
		s.serverError(w, r, "create trip", err)
		return
	}
	writeJSON(w, http.StatusCreated, trip)
}

func (s *Server) handleGetTrip(w http.ResponseWriter, r *http.Request) {
	tripID, ok := pathUUID(w, r, "tripID")
	if !ok {
		return
	}

	trip, err := s.deps.Trips.GetTrip(r.Context(), tripID)
	if err != nil {
		s.serverError(w, r, "get trip", err)
		return
	}
	writeJSON(w, http.StatusOK, trip)
}

func (s *Server) handleListItems(w http.ResponseWriter, r *http.Request) {
	tripID, ok := pathUUID(w, r, "tripID")
	if !ok {
		return
	}

	items, err := s.deps.Trips.ListItems(r.Context(), tripID)
	if err != nil {
		s.serverError(w, r, "list items", err)
		return
	}
	if items == nil {
		items = []domain.SavedItem{}
	}
	writeJSON(w, http.StatusOK, listItemsResponse{Items: items})
}

func (s *Server) handleUpdateItem(w http.ResponseWriter, r *http.Request) {
	if _, ok := pathUUID(w, r, "tripID"); !ok {
		return
	}
	itemID, ok := pathUUID(w, r, "itemID")
	if !ok {
		return
	}
	var req itemPatchRequest
	if !decodeBody(w, r, &req) {
		return
	}
	patch, err := req.toDomain()
	if err != nil {
		writeError(w, err)
		return
	}

	item, err := s.deps.Trips.Update(r.Context(), itemID, patch)
	if err != nil {
		s.serverError(w, r, "update item", err)
		return
	}
	writeJSON(w, http.StatusOK, item)
}

func (s *Server) handleExtract(w http.ResponseWriter, r *http.Request) {
	if _, ok := pathUUID(w, r, "tripID"); !ok {
		return
	}
	var req extractRequest
	if !decodeBody(w, r, &req) {
		return
	}

	candidates, err := s.deps.Extractor.Extract(r.Context(), req.Content, domain.SourceType(req.SourceType))
	if err != nil {
		s.serverError(w, r, "extract", err)
		return
	}
	writeJSON(w, http.StatusOK, extractResponse{Candidates: candidates})
}

func (s *Server) handleImport(w http.ResponseWriter, r *http.Request) {
	tripID, ok := pathUUID(w, r, "tripID")
	if !ok {
		return
	}
	var req importRequest
	if !decodeBody(w, r, &req) {
		return
	}
	src, err := normalizeSource(req.Source, "")
	if err != nil {
		writeError(w, err)
		return
	}

	summary, err := s.deps.Importer.Run(r.Context(), tripID, req.Candidates, src)
	if err != nil {
		s.serverError(w, r, "import", err)
		return
	}
	s.confirm(r.Context(), tripID, summary)
	writeJSON(w, http.StatusOK, summary)
}

func (s *Server) handleImportContent(w http.ResponseWriter, r *http.Request) {
	tripID, ok := pathUUID(w, r, "tripID")
	if !ok {
		return
	}
	var req importContentRequest
	if !decodeBody(w, r, &req) {
		return
	}
	src, err := normalizeSource(req.Source, req.SourceType)
	if err != nil {
		writeError(w, err)
		return
	}

	summary, err := s.deps.Importer.ImportContent(r.Context(), tripID, req.Content, domain.SourceType(req.SourceType), src)
	if err != nil {
		s.serverError(w, r, "import content", err)
		return
	}
	s.confirm(r.Context(), tripID, summary)
	writeJSON(w, http.StatusOK, summary)
}

// confirm sends the chat confirmation. Delivery failures are logged by the
// confirmer and never change the response.
func (s *Server) confirm(ctx context.Context, tripID uuid.UUID, summary importer.Summary) {
	if s.deps.Confirmer == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), confirmTimeout)
	defer cancel()
	_ = s.deps.Confirmer.Confirm(ctx, tripID, summary)
}

// serverError writes err's mapped status, logging unexpected failures.
func (s *Server) serverError(w http.ResponseWriter, r *http.Request, op string, err error) {
	if status, _ := statusFor(err); status == http.StatusInternalServerError {
		s.logger.ErrorContext(r.Context(), op+" failed", "error", err)
	}
	writeError(w, err)
}

// normalizeSource validates src.Type, defaulting it to fallback when empty.
func normalizeSource(src domain.SourceAttribution, fallback string) (domain.SourceAttribution, error) {
	raw := string(src.Type)
	if raw == "" {
		raw = fallback
	}
	if raw == "" {
		return src, nil
	}
	t, ok := domain.ParseSourceType(raw)
	if !ok {
		return src, fmt.Errorf("%w: unknown source type %q", domain.ErrValidation, raw)
	}
	src.Type = t
	return src, nil
}

func pathUUID(w http.ResponseWriter, r *http.Request, param string) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, param))
	if err != nil {
		writeBadRequest(w, fmt.Sprintf("invalid %s", param))
		return uuid.Nil, false
	}
	return id, true
}

func decodeBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			writeJSON(w, http.StatusRequestEntityTooLarge, errorResponse{Error: errorDetail{
				Code:    "body_too_large",
				Message: fmt.Sprintf("request body exceeds %d bytes", tooBig.Limit),
			}})
			return false
		}
		writeBadRequest(w, "invalid JSON body")
		return false
	}
	return true
}
