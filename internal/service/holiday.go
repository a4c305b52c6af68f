package service

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"regexp"
	"time"

	"github.com/patrickmn/go-cache"

	"github.com/acady/wayfarer/backend/internal/domain"
)

const nagerBase = "https://date.nager.at/api/v3"

var countryCodeRe = regexp.MustCompile(`^[A-Za-z]{2}$`)

// Holiday is one public holiday as reported by the upstream source.
type Holiday struct {
	Date        string `json:"date"`
	LocalName   string `json:"localName"`
	Name        string `json:"name"`
	CountryCode string `json:"countryCode"`
}

// HolidayService proxies the Nager.Date public holiday API. Responses are
// immutable for a given country and year, so they are cached for a day.
type HolidayService struct {
	http    *http.Client
	cache   *cache.Cache
	baseURL string
}

// NewHolidayService constructs a HolidayService with a 24h response cache.
func NewHolidayService() *HolidayService {
	return &HolidayService{
		http:    &http.Client{Timeout: 10 * time.Second},
		cache:   cache.New(24*time.Hour, time.Hour),
		baseURL: nagerBase,
	}
}

// List returns the public holidays for a country and year.
func (s *HolidayService) List(ctx context.Context, country string, year int) ([]Holiday, error) {
	if !countryCodeRe.MatchString(country) {
		return nil, fmt.Errorf("%w: country must be a two-letter code", domain.ErrValidation)
	}
	if year < 1975 || year > 2099 {
		return nil, fmt.Errorf("%w: year out of range", domain.ErrValidation)
	}

	key := fmt.Sprintf("%s/%d", country, year)
	if cached, ok := s.cache.Get(key); ok {
		return cached.([]Holiday), nil
	}

	url := fmt.Sprintf("%s/PublicHolidays/%d/%s", s.baseURL, year, country)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("service.HolidayService.List: %w", err)
	}

	resp, err := s.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("service.HolidayService.List: %w: %v", domain.ErrUpstream, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, fmt.Errorf("%w: unknown country %q", domain.ErrValidation, country)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("service.HolidayService.List: %w: status %d", domain.ErrUpstream, resp.StatusCode)
	}

	var holidays []Holiday
	if err := json.NewDecoder(resp.Body).Decode(&holidays); err != nil {
		return nil, fmt.Errorf("service.HolidayService.List: %w: %v", domain.ErrUpstream, err)
	}
	if holidays == nil {
		holidays = []Holiday{}
	}

	s.cache.SetDefault(key, holidays)
	return holidays, nil
}
