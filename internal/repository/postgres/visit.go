package postgres

import (
	"context"
	"database/sql"
	"time"

	"iptrack/internal/domain"
	"iptrack/pkg/errors"

	"github.com/jmoiron/sqlx"
)

// VisitRepository stores enriched visit records. Records are never
// updated after insert.
type VisitRepository struct {
	db      *sqlx.DB
	timeout time.Duration
}

func NewVisitRepository(db *sqlx.DB, timeout time.Duration) *VisitRepository {
	return &VisitRepository{db: db, timeout: timeout}
}

const visitColumns = `id, ip, ip_details, host, source, domain, brand, country, flag, isp,
	vpn, is_new, archive, owner, client_time, created_at, updated_at`

func (r *VisitRepository) Create(ctx context.Context, v *domain.Visit) error {
	ctx, cancel := withTimeout(ctx, r.timeout)
	defer cancel()

	query := `
		INSERT INTO visits (
			ip, ip_details, host, source, domain, brand, country, flag, isp,
			vpn, is_new, archive, owner, client_time
		) VALUES (
			:ip, :ip_details, :host, :source, :domain, :brand, :country, :flag, :isp,
			:vpn, :is_new, :archive, :owner, :client_time
		)
		RETURNING id, created_at, updated_at`

	rows, err := r.db.NamedQueryContext(ctx, query, v)
	if err != nil {
		return errors.Wrap(err, "failed to create visit")
	}
	defer rows.Close()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return errors.Wrap(err, "failed to create visit")
		}
		return errors.Wrap(sql.ErrNoRows, "visit insert returned no row")
	}
	if err := rows.Scan(&v.ID, &v.CreatedAt, &v.UpdatedAt); err != nil {
		return errors.Wrap(err, "failed to read visit id")
	}
	return nil
}

func (r *VisitRepository) FindByID(ctx context.Context, id int64) (*domain.Visit, error) {
	ctx, cancel := withTimeout(ctx, r.timeout)
	defer cancel()

	var v domain.Visit
	err := r.db.GetContext(ctx, &v, `SELECT `+visitColumns+` FROM visits WHERE id = $1`, id)
	if err == sql.ErrNoRows {
		return nil, errors.ErrVisitNotFound
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to find visit")
	}
	return &v, nil
}

// List returns visits in insertion order.
func (r *VisitRepository) List(ctx context.Context, limit, offset int) ([]*domain.Visit, error) {
	ctx, cancel := withTimeout(ctx, r.timeout)
	defer cancel()

	visits := []*domain.Visit{}
	err := r.db.SelectContext(ctx, &visits,
		`SELECT `+visitColumns+` FROM visits ORDER BY id ASC LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list visits")
	}
	return visits, nil
}

func (r *VisitRepository) Count(ctx context.Context) (int64, error) {
	ctx, cancel := withTimeout(ctx, r.timeout)
	defer cancel()

	var n int64
	if err := r.db.GetContext(ctx, &n, `SELECT COUNT(*) FROM visits`); err != nil {
		return 0, errors.Wrap(err, "failed to count visits")
	}
	return n, nil
}

func (r *VisitRepository) Delete(ctx context.Context, id int64) error {
	ctx, cancel := withTimeout(ctx, r.timeout)
	defer cancel()

	res, err := r.db.ExecContext(ctx, `DELETE FROM visits WHERE id = $1`, id)
	if err != nil {
		return errors.Wrap(err, "failed to delete visit")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return errors.ErrVisitNotFound
	}
	return nil
}
