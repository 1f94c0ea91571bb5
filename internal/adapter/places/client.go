package places

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/c0ncepT23/Travelbuddy-sub005/internal/domain"
	"github.com/c0ncepT23/Travelbuddy-sub005/internal/observability"
)

// DefaultBaseURL is the Google Places web service root.
const DefaultBaseURL = "https://maps.googleapis.com/maps/api/place"

// Google Places status values that are not errors.
const (
	statusOK          = "OK"
	statusZeroResults = "ZERO_RESULTS"
)

// Config configures a Client.
type Config struct {
	APIKey   string
	BaseURL  string
	Language string
	Timeout  time.Duration
	// RateLimit caps outgoing requests per second across all callers.
	RateLimit float64
}

// Client implements domain.PlaceSearchProvider using the Google Places API.
type Client struct {
	apiKey     string
	baseURL    string
	language   string
	httpClient *http.Client
	limiter    *rate.Limiter
	logger     *slog.Logger
	metrics    *observability.Metrics
}

// NewClient creates a Google Places client.
func NewClient(cfg Config, logger *slog.Logger, metrics *observability.Metrics) *Client {
	baseURL := strings.TrimRight(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	limit := rate.Inf
	if cfg.RateLimit > 0 {
		limit = rate.Limit(cfg.RateLimit)
	}
	return &Client{
		apiKey:   cfg.APIKey,
		baseURL:  baseURL,
		language: cfg.Language,
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		limiter: rate.NewLimiter(limit, 1),
		logger:  logger,
		metrics: metrics,
	}
}

// TextSearch runs a free-text place search.
func (c *Client) TextSearch(ctx context.Context, query string) ([]domain.PlaceSummary, error) {
	params := url.Values{"query": {query}}

	var resp textSearchResponse
	if err := c.get(ctx, "textsearch", params, &resp); err != nil {
		return nil, err
	}
	if err := checkStatus("textsearch", resp.Status, resp.ErrorMessage); err != nil {
		return nil, err
	}

	out := make([]domain.PlaceSummary, 0, len(resp.Results))
	for _, r := range resp.Results {
		if r.PlaceID == "" {
			continue
		}
		out = append(out, domain.PlaceSummary{PlaceID: r.PlaceID, Name: r.Name})
	}
	return out, nil
}

// Details fetches the requested fields for placeID.
func (c *Client) Details(ctx context.Context, placeID string, fields []string) (domain.PlaceDetails, error) {
	params := url.Values{"place_id": {placeID}}
	if len(fields) > 0 {
		params.Set("fields", strings.Join(fields, ","))
	}

	var resp detailsResponse
	if err := c.get(ctx, "details", params, &resp); err != nil {
		return domain.PlaceDetails{}, err
	}
	if err := checkStatus("details", resp.Status, resp.ErrorMessage); err != nil {
		return domain.PlaceDetails{}, err
	}
	if resp.Status == statusZeroResults {
		return domain.PlaceDetails{}, fmt.Errorf("details %s: %w", placeID, domain.ErrNotFound)
	}
	return resp.Result.toDomain(), nil
}

func (c *Client) get(ctx context.Context, method string, params url.Values, out any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("%s rate limit: %w", method, err)
	}

	params.Set("key", c.apiKey)
	if c.language != "" {
		params.Set("language", c.language)
	}
	fullURL := fmt.Sprintf("%s/%s/json?%s", c.baseURL, method, params.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	c.metrics.PlacesAPIDuration.WithLabelValues(method).Observe(time.Since(start).Seconds())
	if err != nil {
		return fmt.Errorf("%s request: %w", method, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("places API error: status %d: %s", resp.StatusCode, body)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s response: %w", method, err)
	}
	return nil
}

func checkStatus(method, status, message string) error {
	switch status {
	case statusOK, statusZeroResults:
		return nil
	default:
		if message != "" {
			return fmt.Errorf("places %s: %s: %s", method, status, message)
		}
		return fmt.Errorf("places %s: %s", method, status)
	}
}

// Google Places API response types.

type textSearchResponse struct {
	Status       string `json:"status"`
	ErrorMessage string `json:"error_message"`
	Results      []struct {
		PlaceID string `json:"place_id"`
		Name    string `json:"name"`
	} `json:"results"`
}

type detailsResponse struct {
	Status       string      `json:"status"`
	ErrorMessage string      `json:"error_message"`
	Result       placeResult `json:"result"`
}

type placeResult struct {
	PlaceID           string                    `json:"place_id"`
	Name              string                    `json:"name"`
	FormattedAddress  string                    `json:"formatted_address"`
	Rating            *float64                  `json:"rating"`
	UserRatingsTotal  *int                      `json:"user_ratings_total"`
	PriceLevel        *int                      `json:"price_level"`
	Geometry          *geometry                 `json:"geometry"`
	AddressComponents []domain.AddressComponent `json:"address_components"`
	Photos            []photo                   `json:"photos"`
	OpeningHours      *domain.OpeningHours      `json:"opening_hours"`
}

type geometry struct {
	Location *domain.Coordinates `json:"location"`
}

type photo struct {
	PhotoReference   string   `json:"photo_reference"`
	Width            int      `json:"width"`
	Height           int      `json:"height"`
	HTMLAttributions []string `json:"html_attributions"`
}

func (r placeResult) toDomain() domain.PlaceDetails {
	d := domain.PlaceDetails{
		PlaceID:           r.PlaceID,
		Name:              r.Name,
		FormattedAddress:  r.FormattedAddress,
		Rating:            r.Rating,
		UserRatingsTotal:  r.UserRatingsTotal,
		PriceLevel:        r.PriceLevel,
		AddressComponents: r.AddressComponents,
		OpeningHours:      r.OpeningHours,
	}
	if r.Geometry != nil {
		d.Location = r.Geometry.Location
	}
	for _, p := range r.Photos {
		if p.PhotoReference == "" {
			continue
		}
		d.Photos = append(d.Photos, domain.PhotoRef{
			Reference:    p.PhotoReference,
			Width:        p.Width,
			Height:       p.Height,
			Attributions: p.HTMLAttributions,
		})
	}
	return d
}
