package postgres

import (
	"context"
	"database/sql"
	"time"

	"iptrack/internal/domain"
	"iptrack/pkg/errors"

	"github.com/jmoiron/sqlx"
)

type UserRepository struct {
	db      *sqlx.DB
	timeout time.Duration
}

func NewUserRepository(db *sqlx.DB, timeout time.Duration) *UserRepository {
	return &UserRepository{db: db, timeout: timeout}
}

const userColumns = `id, email, password_hash, display_name, role, created_at, updated_at`

// Create inserts the user and adds it to the group named after its role in
// one transaction. A duplicate email surfaces as the driver's unique
// violation.
func (r *UserRepository) Create(ctx context.Context, user *domain.User) error {
	ctx, cancel := withTimeout(ctx, r.timeout)
	defer cancel()

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "failed to begin transaction")
	}
	defer tx.Rollback()

	query := `
		INSERT INTO users (email, password_hash, display_name, role, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id`
	if err := tx.GetContext(ctx, &user.ID, query,
		user.Email, user.PasswordHash, user.DisplayName, user.Role, user.CreatedAt, user.UpdatedAt,
	); err != nil {
		return errors.Wrap(err, "failed to create user")
	}

	var groupID int64
	groupQuery := `
		INSERT INTO user_groups (name) VALUES ($1)
		ON CONFLICT (name) DO UPDATE SET name = EXCLUDED.name
		RETURNING id`
	if err := tx.GetContext(ctx, &groupID, groupQuery, string(user.Role)); err != nil {
		return errors.Wrap(err, "failed to resolve user group")
	}

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO user_group_members (user_id, group_id) VALUES ($1, $2)`, user.ID, groupID,
	); err != nil {
		return errors.Wrap(err, "failed to add user to group")
	}

	if err := tx.Commit(); err != nil {
		return errors.Wrap(err, "failed to commit user")
	}
	return nil
}

func (r *UserRepository) FindByID(ctx context.Context, id int64) (*domain.User, error) {
	ctx, cancel := withTimeout(ctx, r.timeout)
	defer cancel()

	var user domain.User
	err := r.db.GetContext(ctx, &user, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
	if err == sql.ErrNoRows {
		return nil, errors.ErrUserNotFound
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to find user")
	}
	return &user, nil
}

func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	ctx, cancel := withTimeout(ctx, r.timeout)
	defer cancel()

	var user domain.User
	err := r.db.GetContext(ctx, &user, `SELECT `+userColumns+` FROM users WHERE email = $1`, email)
	if err == sql.ErrNoRows {
		return nil, errors.ErrUserNotFound
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to find user by email")
	}
	return &user, nil
}

func (r *UserRepository) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	ctx, cancel := withTimeout(ctx, r.timeout)
	defer cancel()

	var exists bool
	err := r.db.GetContext(ctx, &exists, `SELECT EXISTS(SELECT 1 FROM users WHERE email = $1)`, email)
	if err != nil {
		return false, errors.Wrap(err, "failed to check email")
	}
	return exists, nil
}

// Update writes the mutable profile fields. Changing role also moves the
// user to the matching group.
func (r *UserRepository) Update(ctx context.Context, user *domain.User) error {
	ctx, cancel := withTimeout(ctx, r.timeout)
	defer cancel()

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "failed to begin transaction")
	}
	defer tx.Rollback()

	var previousRole domain.Role
	if err := tx.GetContext(ctx, &previousRole, `SELECT role FROM users WHERE id = $1 FOR UPDATE`, user.ID); err != nil {
		if err == sql.ErrNoRows {
			return errors.ErrUserNotFound
		}
		return errors.Wrap(err, "failed to lock user")
	}

	query := `
		UPDATE users
		SET email = $1, password_hash = $2, display_name = $3, role = $4, updated_at = $5
		WHERE id = $6`
	if _, err := tx.ExecContext(ctx, query,
		user.Email, user.PasswordHash, user.DisplayName, user.Role, user.UpdatedAt, user.ID,
	); err != nil {
		return errors.Wrap(err, "failed to update user")
	}

	if previousRole != user.Role {
		if err := moveGroup(ctx, tx, user.ID, user.Role); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return errors.Wrap(err, "failed to commit user update")
	}
	return nil
}

func moveGroup(ctx context.Context, tx *sqlx.Tx, userID int64, role domain.Role) error {
	if _, err := tx.ExecContext(ctx, `DELETE FROM user_group_members WHERE user_id = $1`, userID); err != nil {
		return errors.Wrap(err, "failed to leave user group")
	}
	var groupID int64
	if err := tx.GetContext(ctx, &groupID, `
		INSERT INTO user_groups (name) VALUES ($1)
		ON CONFLICT (name) DO UPDATE SET name = EXCLUDED.name
		RETURNING id`, string(role)); err != nil {
		return errors.Wrap(err, "failed to resolve user group")
	}
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO user_group_members (user_id, group_id) VALUES ($1, $2)`, userID, groupID,
	); err != nil {
		return errors.Wrap(err, "failed to join user group")
	}
	return nil
}

// GroupOf returns the name of the group the user belongs to.
func (r *UserRepository) GroupOf(ctx context.Context, userID int64) (string, error) {
	ctx, cancel := withTimeout(ctx, r.timeout)
	defer cancel()

	var name string
	err := r.db.GetContext(ctx, &name, `
		SELECT g.name FROM user_groups g
		JOIN user_group_members m ON m.group_id = g.id
		WHERE m.user_id = $1`, userID)
	if err == sql.ErrNoRows {
		return "", errors.ErrUserNotFound
	}
	if err != nil {
		return "", errors.Wrap(err, "failed to find user group")
	}
	return name, nil
}
