// Package visit ingests client visit events, enriching each one with
// country and device lookups before it is stored.
package visit

import (
	"context"
	"errors"
	"strings"
	"time"

	"iptrack/internal/domain"
	"iptrack/internal/lookup"
	"iptrack/internal/metrics"
	apperrors "iptrack/pkg/errors"
	"iptrack/pkg/logger"

	"github.com/shopspring/decimal"
)

// PageSize is the fixed number of records per list page.
const PageSize = 20

const (
	msgSubmitFailed = "Registering data failed, please try again"
	msgNotFound     = "Could not find this data"
	msgFetchFailed  = "Fetching data failed, please try again later."
	msgDeleteFailed = "Something went wrong, could not delete data."
)

// SubmitRequest is the caller-supplied part of a visit event. Host and
// Brand are accepted for compatibility with older clients but are always
// replaced by lookup results.
type SubmitRequest struct {
	IP        string           `json:"IP" validate:"required,notblank,max=64"`
	IPDetails string           `json:"IPDetails" validate:"max=1024"`
	Host      string           `json:"Host" validate:"max=255"`
	Source    string           `json:"Source" validate:"max=255"`
	Domain    string           `json:"Domain" validate:"required,notblank,max=255"`
	Brand     string           `json:"Brand" validate:"max=255"`
	Country   string           `json:"Country" validate:"max=128"`
	Latitude  *decimal.Decimal `json:"Latitude" validate:"required_with=Longitude,omitempty,gte=-90,lte=90"`
	Longitude *decimal.Decimal `json:"Longitude" validate:"required_with=Latitude,omitempty,gte=-180,lte=180"`
	ISP       string           `json:"ISP" validate:"max=255"`
	VPN       domain.IntFlag   `json:"VPN"`
	New       domain.IntFlag   `json:"New"`
	Archive   domain.IntFlag   `json:"Archive"`
	Owner     string           `json:"owner" validate:"max=255"`
	Time      *domain.Int64    `json:"Time"`
}

// Client describes the request the event arrived on.
type Client struct {
	UserAgent string
	// CountryCode is an edge-supplied ISO code such as CF-IPCountry.
	CountryCode string
}

// GeoResolver resolves where a visit came from.
type GeoResolver interface {
	Resolve(ctx context.Context, q lookup.GeoQuery) (*domain.Country, error)
}

// DeviceDetector classifies a User-Agent string.
type DeviceDetector interface {
	Detect(ctx context.Context, userAgent string) (*domain.Device, error)
}

// Repository persists visit records.
type Repository interface {
	// Create inserts v and sets its ID and timestamps.
	Create(ctx context.Context, v *domain.Visit) error
	FindByID(ctx context.Context, id int64) (*domain.Visit, error)
	// List returns records in insertion order.
	List(ctx context.Context, limit, offset int) ([]*domain.Visit, error)
	Count(ctx context.Context) (int64, error)
	Delete(ctx context.Context, id int64) error
}

// Service is the ingestion enricher.
type Service struct {
	repo    Repository
	geo     GeoResolver
	devices DeviceDetector
	logger  logger.Logger
}

func NewService(repo Repository, geo GeoResolver, devices DeviceDetector, log logger.Logger) *Service {
	return &Service{repo: repo, geo: geo, devices: devices, logger: log}
}

// Page is one page of the visit listing.
type Page struct {
	Records  []*domain.Visit `json:"data"`
	Page     int             `json:"page"`
	PageSize int             `json:"pageSize"`
	Total    int64           `json:"total"`
}

// Submit enriches req and stores the result. Both lookups must succeed
// before anything is written.
func (s *Service) Submit(ctx context.Context, subject domain.Subject, req *SubmitRequest, client Client) (*domain.Visit, error) {
	userAgent := strings.TrimSpace(client.UserAgent)
	if userAgent == "" {
		return nil, Invalid(errors.New("missing User-Agent header"))
	}

	country, err := s.geo.Resolve(ctx, lookup.GeoQuery{
		Name:      req.Country,
		Code:      client.CountryCode,
		Latitude:  req.Latitude,
		Longitude: req.Longitude,
	})
	if err != nil {
		return nil, s.submitFailure("geo", err)
	}

	device, err := s.devices.Detect(ctx, userAgent)
	if err != nil {
		return nil, s.submitFailure("device", err)
	}

	v := merge(req, country, device)
	if v.Owner == "" && subject.Email != "" {
		v.Owner = subject.Email
	}

	if err := s.repo.Create(ctx, v); err != nil {
		return nil, s.submitFailure("store", err)
	}

	metrics.VisitsIngested.WithLabelValues("success").Inc()
	s.logger.Info("Visit recorded", map[string]interface{}{
		"visit_id": v.ID,
		"country":  v.Country,
		"user_id":  subject.UserID,
	})
	return v, nil
}

// merge builds the record to store. Lookup results always win for Host,
// Brand, Country and Flag; every other field is taken from the caller.
func merge(req *SubmitRequest, country *domain.Country, device *domain.Device) *domain.Visit {
	return &domain.Visit{
		IP:        strings.TrimSpace(req.IP),
		IPDetails: req.IPDetails,
		Host:      device.Type,
		Source:    req.Source,
		Domain:    strings.TrimSpace(req.Domain),
		Brand:     device.Brand,
		Country:   country.Name,
		Flag:      country.Flag,
		ISP:       req.ISP,
		VPN:       req.VPN,
		New:       req.New,
		Archive:   req.Archive,
		Owner:     strings.TrimSpace(req.Owner),
		Time:      req.Time,
	}
}

// Invalid reports a rejected submission. Callers see only the generic
// submit failure; the reason stays in the cause.
func Invalid(cause error) error {
	metrics.VisitsIngested.WithLabelValues("invalid").Inc()
	return apperrors.E(apperrors.KindValidation, msgSubmitFailed, cause)
}

func (s *Service) submitFailure(stage string, err error) error {
	if errors.Is(err, lookup.ErrNoGeoInput) {
		return Invalid(err)
	}

	kind, outcome := apperrors.KindInternal, "error"
	switch {
	case errors.Is(err, apperrors.ErrCountryNotFound):
		kind, outcome = apperrors.KindValidation, "invalid"
	case errors.Is(err, apperrors.ErrLookupFailed), errors.Is(err, apperrors.ErrLookupUnavailable),
		errors.Is(err, context.DeadlineExceeded):
		outcome = "lookup_failed"
	}
	s.logger.Error("Visit submission failed", map[string]interface{}{
		"stage": stage,
		"error": err.Error(),
	})
	metrics.VisitsIngested.WithLabelValues(outcome).Inc()
	return apperrors.E(kind, msgSubmitFailed, err)
}

// Get returns one record.
func (s *Service) Get(ctx context.Context, id int64) (*domain.Visit, error) {
	v, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, apperrors.ErrVisitNotFound) {
			return nil, apperrors.E(apperrors.KindNotFound, msgNotFound, err)
		}
		s.logger.Error("Fetching visit failed", map[string]interface{}{"visit_id": id, "error": err.Error()})
		return nil, apperrors.E(apperrors.KindInternal, "Something went wrong, could not find data", err)
	}
	return v, nil
}

// List returns page (1-based) of the records in insertion order.
func (s *Service) List(ctx context.Context, page int) (*Page, error) {
	if page < 1 {
		return nil, apperrors.E(apperrors.KindValidation, "Page must be a positive number.", nil)
	}

	start := time.Now()
	total, err := s.repo.Count(ctx)
	if err != nil {
		s.logger.Error("Counting visits failed", map[string]interface{}{"error": err.Error()})
		return nil, apperrors.E(apperrors.KindInternal, msgFetchFailed, err)
	}

	records := []*domain.Visit{}
	offset := (page - 1) * PageSize
	if int64(offset) < total {
		records, err = s.repo.List(ctx, PageSize, offset)
		if err != nil {
			s.logger.Error("Listing visits failed", map[string]interface{}{"page": page, "error": err.Error()})
			return nil, apperrors.E(apperrors.KindInternal, msgFetchFailed, err)
		}
	}

	s.logger.Debug("Listed visits", map[string]interface{}{
		"page":     page,
		"returned": len(records),
		"duration": time.Since(start).String(),
	})
	return &Page{Records: records, Page: page, PageSize: PageSize, Total: total}, nil
}

// Delete removes a record after confirming it exists.
func (s *Service) Delete(ctx context.Context, id int64) error {
	if _, err := s.repo.FindByID(ctx, id); err != nil {
		if errors.Is(err, apperrors.ErrVisitNotFound) {
			return apperrors.E(apperrors.KindNotFound, msgNotFound, err)
		}
		s.logger.Error("Fetching visit for delete failed", map[string]interface{}{"visit_id": id, "error": err.Error()})
		return apperrors.E(apperrors.KindInternal, msgDeleteFailed, err)
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, apperrors.ErrVisitNotFound) {
			return apperrors.E(apperrors.KindNotFound, msgNotFound, err)
		}
		s.logger.Error("Deleting visit failed", map[string]interface{}{"visit_id": id, "error": err.Error()})
		return apperrors.E(apperrors.KindInternal, msgDeleteFailed, err)
	}

	s.logger.Info("Visit deleted", map[string]interface{}{"visit_id": id})
	return nil
}
