package http_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	httpadapter "github.com/c0ncepT23/Travelbuddy-sub005/internal/adapter/http"
	"github.com/c0ncepT23/Travelbuddy-sub005/internal/domain"
	"github.com/c0ncepT23/Travelbuddy-sub005/internal/importer"
)

type mockPinger struct{ err error }

func (m *mockPinger) Ping(context.Context) error { return m.err }

type mockTrips struct {
	CreateTripFn func(ctx context.Context, name string) (domain.Trip, error)
	GetTripFn    func(ctx context.Context, id uuid.UUID) (domain.Trip, error)
	ListItemsFn  func(ctx context.Context, tripID uuid.UUID) ([]domain.SavedItem, error)
	UpdateFn     func(ctx context.Context, id uuid.UUID, patch domain.ItemPatch) (domain.SavedItem, error)
}

func (m *mockTrips) CreateTrip(ctx context.Context, name string) (domain.Trip, error) {
	return m.CreateTripFn(ctx, name)
}

func (m *mockTrips) GetTrip(ctx context.Context, id uuid.UUID) (domain.Trip, error) {
	return m.GetTripFn(ctx, id)
}

func (m *mockTrips) ListItems(ctx context.Context, tripID uuid.UUID) ([]domain.SavedItem, error) {
	return m.ListItemsFn(ctx, tripID)
}

func (m *mockTrips) Update(ctx context.Context, id uuid.UUID, patch domain.ItemPatch) (domain.SavedItem, error) {
	return m.UpdateFn(ctx, id, patch)
}

type mockExtractor struct {
	ExtractFn func(ctx context.Context, content string, source domain.SourceType) ([]domain.Candidate, error)
}

func (m *mockExtractor) Extract(ctx context.Context, content string, source domain.SourceType) ([]domain.Candidate, error) {
	return m.ExtractFn(ctx, content, source)
}

type mockImporter struct {
	RunFn           func(ctx context.Context, tripID uuid.UUID, candidates []domain.Candidate, src domain.SourceAttribution) (importer.Summary, error)
	ImportContentFn func(ctx context.Context, tripID uuid.UUID, content string, source domain.SourceType, src domain.SourceAttribution) (importer.Summary, error)
}

func (m *mockImporter) Run(ctx context.Context, tripID uuid.UUID, candidates []domain.Candidate, src domain.SourceAttribution) (importer.Summary, error) {
	return m.RunFn(ctx, tripID, candidates, src)
}

func (m *mockImporter) ImportContent(ctx context.Context, tripID uuid.UUID, content string, source domain.SourceType, src domain.SourceAttribution) (importer.Summary, error) {
	return m.ImportContentFn(ctx, tripID, content, source, src)
}

type recordingConfirmer struct {
	calls []importer.Summary
	err   error
}

func (c *recordingConfirmer) Confirm(_ context.Context, _ uuid.UUID, s importer.Summary) error {
	c.calls = append(c.calls, s)
	return c.err
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestServer(deps httpadapter.Deps) *httpadapter.Server {
	if deps.Ready == nil {
		deps.Ready = &mockPinger{}
	}
	return httpadapter.NewServer(":0", deps, discardLogger())
}

func do(t *testing.T, srv *httpadapter.Server, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, r)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	return rec
}

func errorCode(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body.Error.Code
}

func TestHealthzReturns200(t *testing.T) {
	rec := do(t, newTestServer(httpadapter.Deps{}), http.MethodGet, "/healthz", "")

	assert.Equal(t, http.StatusOK, rec.Code)
	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "healthy", body["status"])
}

func TestReadyzReturns200WhenReady(t *testing.T) {
	rec := do(t, newTestServer(httpadapter.Deps{}), http.MethodGet, "/readyz", "")

	assert.Equal(t, http.StatusOK, rec.Code)
	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "ready", body["status"])
}

func TestReadyzReturns503WhenStoreDown(t *testing.T) {
	srv := newTestServer(httpadapter.Deps{Ready: &mockPinger{err: fmt.Errorf("connection refused")}})
	rec := do(t, srv, http.MethodGet, "/readyz", "")

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "not ready", body["status"])
	assert.Equal(t, "connection refused", body["error"])
}

func TestMetricsEndpoint(t *testing.T) {
	rec := do(t, newTestServer(httpadapter.Deps{}), http.MethodGet, "/metrics", "")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "go_goroutines")
}

func TestCreateTrip(t *testing.T) {
	id := uuid.New()
	trips := &mockTrips{CreateTripFn: func(_ context.Context, name string) (domain.Trip, error) {
		return domain.Trip{ID: id, Name: name}, nil
	}}
	srv := newTestServer(httpadapter.Deps{Trips: trips})

	rec := do(t, srv, http.MethodPost, "/trips", `{"name":"  Tokyo  "}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	var got domain.Trip
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, id, got.ID)
	assert.Equal(t, "Tokyo", got.Name)
}

func TestCreateTrip_Validation(t *testing.T) {
	srv := newTestServer(httpadapter.Deps{Trips: &mockTrips{}})

	rec := do(t, srv, http.MethodPost, "/trips", `{"name":" "}`)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Equal(t, "validation_error", errorCode(t, rec))

	rec = do(t, srv, http.MethodPost, "/trips", `{not json`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGetTrip(t *testing.T) {
	trip := domain.Trip{ID: uuid.New(), Name: "Tokyo", CreatedAt: time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)}
	trips := &mockTrips{GetTripFn: func(_ context.Context, id uuid.UUID) (domain.Trip, error) {
		if id != trip.ID {
			return domain.Trip{}, domain.ErrTripNotFound
		}
		return trip, nil
	}}
	srv := newTestServer(httpadapter.Deps{Trips: trips})

	rec := do(t, srv, http.MethodGet, "/trips/"+trip.ID.String(), "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"id":"`+trip.ID.String()+`","name":"Tokyo","created_at":"2026-03-01T09:00:00Z"}`, rec.Body.String())

	rec = do(t, srv, http.MethodGet, "/trips/"+uuid.NewString(), "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestListItems(t *testing.T) {
	tripID := uuid.New()
	trips := &mockTrips{ListItemsFn: func(_ context.Context, id uuid.UUID) ([]domain.SavedItem, error) {
		if id != tripID {
			return nil, domain.ErrTripNotFound
		}
		return nil, nil
	}}
	srv := newTestServer(httpadapter.Deps{Trips: trips})

	rec := do(t, srv, http.MethodGet, "/trips/"+tripID.String()+"/items", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"items":[]}`, rec.Body.String())

	rec = do(t, srv, http.MethodGet, "/trips/"+uuid.NewString()+"/items", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = do(t, srv, http.MethodGet, "/trips/not-a-uuid/items", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestUpdateItem(t *testing.T) {
	itemID := uuid.New()
	var gotPatch domain.ItemPatch
	trips := &mockTrips{UpdateFn: func(_ context.Context, id uuid.UUID, patch domain.ItemPatch) (domain.SavedItem, error) {
		gotPatch = patch
		return domain.SavedItem{ID: id, Description: *patch.Description}, nil
	}}
	srv := newTestServer(httpadapter.Deps{Trips: trips})

	path := "/trips/" + uuid.NewString() + "/items/" + itemID.String()
	rec := do(t, srv, http.MethodPatch, path, `{"description":"best ramen"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, gotPatch.Description)
	assert.Equal(t, "best ramen", *gotPatch.Description)
	assert.Nil(t, gotPatch.Rating)

	rec = do(t, srv, http.MethodPatch, path, `{"price_level":7}`)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestUpdateItem_ErrorMapping(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
	}{
		{"not found", fmt.Errorf("store: %w", domain.ErrNotFound), http.StatusNotFound},
		{"conflict", fmt.Errorf("store: %w", domain.ErrPersistenceConflict), http.StatusConflict},
		{"unexpected", errors.New("disk full"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			trips := &mockTrips{UpdateFn: func(context.Context, uuid.UUID, domain.ItemPatch) (domain.SavedItem, error) {
				return domain.SavedItem{}, tt.err
			}}
			srv := newTestServer(httpadapter.Deps{Trips: trips})

			path := "/trips/" + uuid.NewString() + "/items/" + uuid.NewString()
			rec := do(t, srv, http.MethodPatch, path, `{"area_name":"Shibuya"}`)
			assert.Equal(t, tt.status, rec.Code)
		})
	}
}

func TestExtract(t *testing.T) {
	ext := &mockExtractor{ExtractFn: func(_ context.Context, content string, source domain.SourceType) ([]domain.Candidate, error) {
		assert.Equal(t, domain.SourceType("youtube"), source)
		return []domain.Candidate{{Name: "Ichiran", Category: domain.CategoryFood, Description: "ramen"}}, nil
	}}
	srv := newTestServer(httpadapter.Deps{Extractor: ext})

	rec := do(t, srv, http.MethodPost, "/trips/"+uuid.NewString()+"/extract", `{"content":"video transcript","source_type":"youtube"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	var body struct {
		Candidates []domain.Candidate `json:"candidates"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Len(t, body.Candidates, 1)
	assert.Equal(t, "Ichiran", body.Candidates[0].Name)
}

func TestExtract_ErrorMapping(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{"extraction failed", fmt.Errorf("%w: all tiers failed", domain.ErrExtraction), http.StatusUnprocessableEntity, "extraction_failed"},
		{"validation", fmt.Errorf("%w: content is empty", domain.ErrValidation), http.StatusUnprocessableEntity, "validation_error"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ext := &mockExtractor{ExtractFn: func(context.Context, string, domain.SourceType) ([]domain.Candidate, error) {
				return nil, tt.err
			}}
			srv := newTestServer(httpadapter.Deps{Extractor: ext})

			rec := do(t, srv, http.MethodPost, "/trips/"+uuid.NewString()+"/extract", `{"content":"x","source_type":"reddit"}`)
			assert.Equal(t, tt.status, rec.Code)
			assert.Equal(t, tt.code, errorCode(t, rec))
		})
	}
}

func TestImport_SendsConfirmation(t *testing.T) {
	tripID := uuid.New()
	summary := importer.Summary{SavedCount: 1, SkippedDuplicateCount: 1}
	imp := &mockImporter{RunFn: func(_ context.Context, id uuid.UUID, candidates []domain.Candidate, src domain.SourceAttribution) (importer.Summary, error) {
		assert.Equal(t, tripID, id)
		assert.Len(t, candidates, 2)
		assert.Equal(t, domain.SourceInstagram, src.Type)
		return summary, nil
	}}
	confirmer := &recordingConfirmer{err: errors.New("broker down")}
	srv := newTestServer(httpadapter.Deps{Importer: imp, Confirmer: confirmer})

	body := `{"candidates":[{"name":"Ichiran","category":"food","description":"ramen"},{"name":"Afuri","category":"food","description":"yuzu ramen"}],"source":{"url":"https://instagram.com/p/1","type":"Instagram"}}`
	rec := do(t, srv, http.MethodPost, "/trips/"+tripID.String()+"/imports", body)

	require.Equal(t, http.StatusOK, rec.Code, "notification failure does not fail the import")
	var got importer.Summary
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, 1, got.SavedCount)
	assert.Equal(t, 1, got.SkippedDuplicateCount)
	require.Len(t, confirmer.calls, 1)
	assert.Equal(t, 1, confirmer.calls[0].SavedCount)
}

func TestImport_PreconditionIs404(t *testing.T) {
	imp := &mockImporter{RunFn: func(context.Context, uuid.UUID, []domain.Candidate, domain.SourceAttribution) (importer.Summary, error) {
		return importer.Summary{}, fmt.Errorf("%w: read items: %w", domain.ErrPrecondition, domain.ErrTripNotFound)
	}}
	confirmer := &recordingConfirmer{}
	srv := newTestServer(httpadapter.Deps{Importer: imp, Confirmer: confirmer})

	rec := do(t, srv, http.MethodPost, "/trips/"+uuid.NewString()+"/imports", `{"candidates":[]}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Empty(t, confirmer.calls)
}

func TestImport_UnknownSourceType(t *testing.T) {
	srv := newTestServer(httpadapter.Deps{Importer: &mockImporter{}})

	rec := do(t, srv, http.MethodPost, "/trips/"+uuid.NewString()+"/imports", `{"candidates":[],"source":{"type":"myspace"}}`)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestImportContent(t *testing.T) {
	imp := &mockImporter{ImportContentFn: func(_ context.Context, _ uuid.UUID, content string, source domain.SourceType, src domain.SourceAttribution) (importer.Summary, error) {
		assert.Equal(t, "pasted list", content)
		assert.Equal(t, domain.SourceType("text"), source)
		assert.Equal(t, domain.SourceText, src.Type)
		return importer.Summary{SavedCount: 3}, nil
	}}
	srv := newTestServer(httpadapter.Deps{Importer: imp})

	rec := do(t, srv, http.MethodPost, "/trips/"+uuid.NewString()+"/imports/content", `{"content":"pasted list","source_type":"text"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"saved_count":3`)
}

func TestImportContent_ExtractionFailureIs422(t *testing.T) {
	imp := &mockImporter{ImportContentFn: func(context.Context, uuid.UUID, string, domain.SourceType, domain.SourceAttribution) (importer.Summary, error) {
		return importer.Summary{}, fmt.Errorf("%w: every tier failed", domain.ErrExtraction)
	}}
	srv := newTestServer(httpadapter.Deps{Importer: imp})

	rec := do(t, srv, http.MethodPost, "/trips/"+uuid.NewString()+"/imports/content", `{"content":"x","source_type":"reddit"}`)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestBodyTooLarge(t *testing.T) {
	srv := newTestServer(httpadapter.Deps{Extractor: &mockExtractor{}})

	big := `{"content":"` + strings.Repeat("a", 2<<20) + `","source_type":"text"}`
	rec := do(t, srv, http.MethodPost, "/trips/"+uuid.NewString()+"/extract", big)
	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
}
