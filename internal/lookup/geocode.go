package lookup

import (
	"context"
	"net/url"
	"strings"
	"time"

	apperrors "iptrack/pkg/errors"
	"iptrack/pkg/logger"

	"github.com/shopspring/decimal"
)

// ReverseGeocoder maps coordinates to an ISO country code using the
// BigDataCloud reverse geocoding API. Without an API key the free
// client-side endpoint is used.
type ReverseGeocoder struct {
	baseURL string
	apiKey  string
	client  httpClient
	breaker *breaker[string]
}

func NewReverseGeocoder(baseURL, apiKey string, timeout time.Duration, log logger.Logger) *ReverseGeocoder {
	return &ReverseGeocoder{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		client:  newHTTPClient(timeout),
		breaker: newBreaker[string]("reverse-geocode", log),
	}
}

type reverseGeocodeResponse struct {
	CountryName string `json:"countryName"`
	CountryCode string `json:"countryCode"`
}

// CountryCode returns the alpha-2 code of the country containing lat/lng.
func (g *ReverseGeocoder) CountryCode(ctx context.Context, lat, lng decimal.Decimal) (string, error) {
	q := url.Values{}
	q.Set("latitude", lat.String())
	q.Set("longitude", lng.String())
	q.Set("localityLanguage", "en")

	path := "/reverse-geocode-client"
	if g.apiKey != "" {
		path = "/reverse-geocode"
		q.Set("key", g.apiKey)
	}
	endpoint := g.baseURL + path + "?" + q.Encode()

	return g.breaker.call(func() (string, error) {
		var resp reverseGeocodeResponse
		if err := g.client.getJSON(ctx, endpoint, &resp, apperrors.ErrCountryNotFound); err != nil {
			return "", err
		}
		code := strings.TrimSpace(resp.CountryCode)
		if code == "" {
			// Open sea or an unmapped area
			return "", apperrors.ErrCountryNotFound
		}
		return code, nil
	})
}
