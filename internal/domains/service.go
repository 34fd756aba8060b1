// Package domains manages the registry of tracked domain/URL pairs.
package domains

import (
	"context"
	"errors"
	"strings"
	"time"

	"iptrack/internal/domain"
	apperrors "iptrack/pkg/errors"
	"iptrack/pkg/logger"

	"github.com/lib/pq"
)

const PageSize = 20

const (
	msgCreateFailed = "Creating domain failed, please try again."
	msgDomainExists = "Domain URL is already registered."
	msgNotFound     = "Could not find this domain"
	msgFetchFailed  = "Fetching domains failed, please try again later."
	msgDeleteFailed = "Something went wrong, could not delete domain."
)

// CreateRequest is the body of POST /api/domains.
type CreateRequest struct {
	Domain string `json:"Domain" validate:"required,notblank,max=255"`
	URL    string `json:"URL" validate:"required,url,max=255"`
	Owner  string `json:"Owner" validate:"max=255"`
}

type Repository interface {
	// Create inserts d and sets its ID and timestamps. A duplicate URL
	// yields a unique violation or ErrDomainExists.
	Create(ctx context.Context, d *domain.Domain) error
	FindByID(ctx context.Context, id int64) (*domain.Domain, error)
	List(ctx context.Context, limit, offset int) ([]*domain.Domain, error)
	Count(ctx context.Context) (int64, error)
	Delete(ctx context.Context, id int64) error
}

type Service struct {
	repo   Repository
	logger logger.Logger
}

func NewService(repo Repository, log logger.Logger) *Service {
	return &Service{repo: repo, logger: log}
}

type Page struct {
	Records  []*domain.Domain `json:"domains"`
	Page     int              `json:"page"`
	PageSize int              `json:"pageSize"`
	Total    int64            `json:"total"`
}

// Create registers a domain. Owner defaults to the caller's email.
func (s *Service) Create(ctx context.Context, subject domain.Subject, req *CreateRequest) (*domain.Domain, error) {
	owner := strings.TrimSpace(req.Owner)
	if owner == "" {
		owner = subject.Email
	}

	now := time.Now().UTC()
	d := &domain.Domain{
		Domain:    strings.TrimSpace(req.Domain),
		URL:       strings.TrimSpace(req.URL),
		Owner:     owner,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.repo.Create(ctx, d); err != nil {
		if isUniqueViolation(err) || errors.Is(err, apperrors.ErrDomainExists) {
			return nil, apperrors.E(apperrors.KindConflict, msgDomainExists, err)
		}
		s.logger.Error("Creating domain failed", map[string]interface{}{"url": d.URL, "error": err.Error()})
		return nil, apperrors.E(apperrors.KindInternal, msgCreateFailed, err)
	}

	s.logger.Info("Domain registered", map[string]interface{}{"domain_id": d.ID, "user_id": subject.UserID})
	return d, nil
}

func (s *Service) Get(ctx context.Context, id int64) (*domain.Domain, error) {
	d, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, apperrors.ErrDomainNotFound) {
			return nil, apperrors.E(apperrors.KindNotFound, msgNotFound, err)
		}
		s.logger.Error("Fetching domain failed", map[string]interface{}{"domain_id": id, "error": err.Error()})
		return nil, apperrors.E(apperrors.KindInternal, "Something went wrong, could not find domain", err)
	}
	return d, nil
}

func (s *Service) List(ctx context.Context, page int) (*Page, error) {
	if page < 1 {
		return nil, apperrors.E(apperrors.KindValidation, "Page must be a positive number.", nil)
	}

	total, err := s.repo.Count(ctx)
	if err != nil {
		s.logger.Error("Counting domains failed", map[string]interface{}{"error": err.Error()})
		return nil, apperrors.E(apperrors.KindInternal, msgFetchFailed, err)
	}

	records := []*domain.Domain{}
	if offset := (page - 1) * PageSize; int64(offset) < total {
		records, err = s.repo.List(ctx, PageSize, offset)
		if err != nil {
			s.logger.Error("Listing domains failed", map[string]interface{}{"page": page, "error": err.Error()})
			return nil, apperrors.E(apperrors.KindInternal, msgFetchFailed, err)
		}
	}
	return &Page{Records: records, Page: page, PageSize: PageSize, Total: total}, nil
}

func (s *Service) Delete(ctx context.Context, id int64) error {
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, apperrors.ErrDomainNotFound) {
			return apperrors.E(apperrors.KindNotFound, msgNotFound, err)
		}
		s.logger.Error("Deleting domain failed", map[string]interface{}{"domain_id": id, "error": err.Error()})
		return apperrors.E(apperrors.KindInternal, msgDeleteFailed, err)
	}
	return nil
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == "23505"
}
