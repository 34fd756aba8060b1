package lookup

import (
	"context"
	"errors"
	"strings"

	"iptrack/internal/domain"

	"github.com/shopspring/decimal"
)

// ErrNoGeoInput means a query carried neither a name, a code nor coordinates.
var ErrNoGeoInput = errors.New("no country name, code or coordinates given")

// GeoQuery is everything a caller may know about where a visit came from.
// The first usable field in Name, Code, Latitude/Longitude order is used.
type GeoQuery struct {
	Name      string
	Code      string
	Latitude  *decimal.Decimal
	Longitude *decimal.Decimal
}

// GeoResolver turns a GeoQuery into a canonical country and flag.
type GeoResolver struct {
	countries *CountryClient
	geocoder  *ReverseGeocoder
}

func NewGeoResolver(countries *CountryClient, geocoder *ReverseGeocoder) *GeoResolver {
	return &GeoResolver{countries: countries, geocoder: geocoder}
}

func (r *GeoResolver) Resolve(ctx context.Context, q GeoQuery) (*domain.Country, error) {
	if name := strings.TrimSpace(q.Name); name != "" {
		return r.countries.ByName(ctx, name)
	}
	if code := strings.TrimSpace(q.Code); code != "" {
		return r.countries.ByCode(ctx, code)
	}
	if q.Latitude != nil && q.Longitude != nil {
		code, err := r.geocoder.CountryCode(ctx, *q.Latitude, *q.Longitude)
		if err != nil {
			return nil, err
		}
		return r.countries.ByCode(ctx, code)
	}
	return nil, ErrNoGeoInput
}
