package service

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/acady/wayfarer/backend/internal/domain"
)

const mapboxBase = "https://api.mapbox.com/geocoding/v5/mapbox.places"

// Place is one forward-geocoding match.
type Place struct {
	Name      string  `json:"name"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// GeocodeService proxies Mapbox forward geocoding. Without an access token it
// degrades to empty results rather than failing, so the rest of the API works
// in deployments that never configured geocoding.
type GeocodeService struct {
	http    *http.Client
	token   string
	baseURL string
}

// NewGeocodeService constructs a GeocodeService. An empty token disables lookups.
func NewGeocodeService(token string) *GeocodeService {
	return &GeocodeService{
		http:    &http.Client{Timeout: 10 * time.Second},
		token:   token,
		baseURL: mapboxBase,
	}
}

// Search returns up to limit matches for the query.
func (s *GeocodeService) Search(ctx context.Context, query string, limit int) ([]Place, error) {
	if strings.TrimSpace(query) == "" {
		return nil, fmt.Errorf("%w: query is required", domain.ErrValidation)
	}
	if s.token == "" {
		return []Place{}, nil
	}
	if limit < 1 || limit > 10 {
		limit = 5
	}

	params := url.Values{}
	params.Set("access_token", s.token)
	params.Set("limit", strconv.Itoa(limit))
	reqURL := fmt.Sprintf("%s/%s.json?%s", s.baseURL, url.PathEscape(query), params.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("service.GeocodeService.Search: %w", err)
	}

	resp, err := s.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("service.GeocodeService.Search: %w: %v", domain.ErrUpstream, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("service.GeocodeService.Search: %w: status %d", domain.ErrUpstream, resp.StatusCode)
	}

	var body struct {
		Features []struct {
			PlaceName string     `json:"place_name"`
			Center    [2]float64 `json:"center"` // [longitude, latitude]
		} `json:"features"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("service.GeocodeService.Search: %w: %v", domain.ErrUpstream, err)
	}

	places := make([]Place, len(body.Features))
	for i, f := range body.Features {
		places[i] = Place{Name: f.PlaceName, Latitude: f.Center[1], Longitude: f.Center[0]}
	}
	return places, nil
}
