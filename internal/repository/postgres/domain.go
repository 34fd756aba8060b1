package postgres

import (
	"context"
	"database/sql"
	"time"

	"iptrack/internal/domain"
	"iptrack/pkg/errors"

	"github.com/jmoiron/sqlx"
)

type DomainRepository struct {
	db      *sqlx.DB
	timeout time.Duration
}

func NewDomainRepository(db *sqlx.DB, timeout time.Duration) *DomainRepository {
	return &DomainRepository{db: db, timeout: timeout}
}

const domainColumns = `id, domain, url, owner, created_at, updated_at`

func (r *DomainRepository) Create(ctx context.Context, d *domain.Domain) error {
	ctx, cancel := withTimeout(ctx, r.timeout)
	defer cancel()

	query := `
		INSERT INTO domains (domain, url, owner, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id`
	err := r.db.GetContext(ctx, &d.ID, query, d.Domain, d.URL, d.Owner, d.CreatedAt, d.UpdatedAt)
	if err != nil {
		return errors.Wrap(err, "failed to create domain")
	}
	return nil
}

func (r *DomainRepository) FindByID(ctx context.Context, id int64) (*domain.Domain, error) {
	ctx, cancel := withTimeout(ctx, r.timeout)
	defer cancel()

	var d domain.Domain
	err := r.db.GetContext(ctx, &d, `SELECT `+domainColumns+` FROM domains WHERE id = $1`, id)
	if err == sql.ErrNoRows {
		return nil, errors.ErrDomainNotFound
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to find domain")
	}
	return &d, nil
}

func (r *DomainRepository) List(ctx context.Context, limit, offset int) ([]*domain.Domain, error) {
	ctx, cancel := withTimeout(ctx, r.timeout)
	defer cancel()

	domains := []*domain.Domain{}
	err := r.db.SelectContext(ctx, &domains,
		`SELECT `+domainColumns+` FROM domains ORDER BY id ASC LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list domains")
	}
	return domains, nil
}

func (r *DomainRepository) Count(ctx context.Context) (int64, error) {
	ctx, cancel := withTimeout(ctx, r.timeout)
	defer cancel()

	var n int64
	if err := r.db.GetContext(ctx, &n, `SELECT COUNT(*) FROM domains`); err != nil {
		return 0, errors.Wrap(err, "failed to count domains")
	}
	return n, nil
}

func (r *DomainRepository) Delete(ctx context.Context, id int64) error {
	ctx, cancel := withTimeout(ctx, r.timeout)
	defer cancel()

	res, err := r.db.ExecContext(ctx, `DELETE FROM domains WHERE id = $1`, id)
	if err != nil {
		return errors.Wrap(err, "failed to delete domain")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return errors.ErrDomainNotFound
	}
	return nil
}
