package lookup

import (
	"bytes"
	"context"
	"net/url"
	"strings"
	"time"

	"iptrack/internal/domain"
	apperrors "iptrack/pkg/errors"
	"iptrack/pkg/logger"

	json "github.com/goccy/go-json"
)

const countryFields = "flag,name,cca2"

// CountryClient queries the REST Countries v3.1 API.
type CountryClient struct {
	baseURL string
	client  httpClient
	breaker *breaker[*domain.Country]
}

func NewCountryClient(baseURL string, timeout time.Duration, log logger.Logger) *CountryClient {
	return &CountryClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  newHTTPClient(timeout),
		breaker: newBreaker[*domain.Country]("restcountries", log),
	}
}

type restCountry struct {
	Flag string `json:"flag"`
	CCA2 string `json:"cca2"`
	Name struct {
		Common string `json:"common"`
	} `json:"name"`
}

// countryList accepts either a single object or an array of objects; the
// name endpoint answers with an array, the alpha endpoint with an object.
type countryList []restCountry

func (l *countryList) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '{' {
		var one restCountry
		if err := json.Unmarshal(data, &one); err != nil {
			return err
		}
		*l = countryList{one}
		return nil
	}
	var many []restCountry
	if err := json.Unmarshal(data, &many); err != nil {
		return err
	}
	*l = many
	return nil
}

// ByName resolves a country by (partial) name. When several countries
// match, the one whose common name equals the query wins.
func (c *CountryClient) ByName(ctx context.Context, name string) (*domain.Country, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, apperrors.ErrCountryNotFound
	}
	endpoint := c.baseURL + "/name/" + url.PathEscape(name) + "?fields=" + countryFields

	return c.breaker.call(func() (*domain.Country, error) {
		var list countryList
		if err := c.client.getJSON(ctx, endpoint, &list, apperrors.ErrCountryNotFound); err != nil {
			return nil, err
		}
		return pickCountry(list, name)
	})
}

// ByCode resolves a country by ISO 3166-1 alpha-2 or alpha-3 code.
func (c *CountryClient) ByCode(ctx context.Context, code string) (*domain.Country, error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	if code == "" {
		return nil, apperrors.ErrCountryNotFound
	}
	endpoint := c.baseURL + "/alpha/" + url.PathEscape(code) + "?fields=" + countryFields

	return c.breaker.call(func() (*domain.Country, error) {
		var list countryList
		if err := c.client.getJSON(ctx, endpoint, &list, apperrors.ErrCountryNotFound); err != nil {
			return nil, err
		}
		return pickCountry(list, "")
	})
}

func pickCountry(list countryList, query string) (*domain.Country, error) {
	if len(list) == 0 {
		return nil, apperrors.ErrCountryNotFound
	}
	chosen := list[0]
	for _, rc := range list {
		if query != "" && strings.EqualFold(rc.Name.Common, query) {
			chosen = rc
			break
		}
	}
	if chosen.Name.Common == "" {
		return nil, apperrors.Wrap(apperrors.ErrLookupFailed, "country response without name")
	}
	return &domain.Country{Name: chosen.Name.Common, Code: chosen.CCA2, Flag: chosen.Flag}, nil
}
