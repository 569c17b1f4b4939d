package postgres

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/Rapter1990/carservice-sub000/internal/auth/domain"
	"github.com/Rapter1990/carservice-sub000/internal/auth/store"
)

type usersRepo struct {
	q querier
}

const selectUser = `SELECT id, email, first_name, last_name, phone_number, password_hash,
	role, status, created_at, updated_at, COALESCE(created_by, '')
	FROM users`

func (r *usersRepo) GetUserByID(ctx context.Context, id string) (domain.User, error) {
	return scanUser(r.q.QueryRow(ctx, selectUser+` WHERE id = $1`, id))
}

func (r *usersRepo) GetUserByEmail(ctx context.Context, email string) (domain.User, error) {
	return scanUser(r.q.QueryRow(ctx, selectUser+` WHERE email = $1`, domain.NormalizeEmail(email)))
}

func (r *usersRepo) CreateUser(ctx context.Context, u domain.User) error {
	_, err := r.q.Exec(ctx, `
		INSERT INTO users (id, email, first_name, last_name, phone_number, password_hash,
			role, status, created_at, updated_at, created_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		u.ID,
		domain.NormalizeEmail(u.Email),
		u.FirstName,
		u.LastName,
		u.PhoneNumber,
		u.PasswordHash,
		string(u.Role),
		string(u.Status),
		u.CreatedAt.UTC(),
		u.UpdatedAt.UTC(),
		nullIfEmpty(u.CreatedBy),
	)
	return mapConstraint(err)
}

func (r *usersRepo) UpdatePasswordHash(ctx context.Context, userID string, newHash string) error {
	tag, err := r.q.Exec(ctx,
		`UPDATE users SET password_hash = $1, updated_at = $2 WHERE id = $3`,
		newHash, time.Now().UTC(), userID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (r *usersRepo) IsEmpty(ctx context.Context) (bool, error) {
	var exists bool
	if err := r.q.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM users)`).Scan(&exists); err != nil {
		return false, err
	}
	return !exists, nil
}

func scanUser(row pgx.Row) (domain.User, error) {
	var (
		u            domain.User
		role, status string
	)
	err := row.Scan(
		&u.ID,
		&u.Email,
		&u.FirstName,
		&u.LastName,
		&u.PhoneNumber,
		&u.PasswordHash,
		&role,
		&status,
		&u.CreatedAt,
		&u.UpdatedAt,
		&u.CreatedBy,
	)
	if err != nil {
		return domain.User{}, mapNotFound(err)
	}

	u.Role = domain.Role(role)
	u.Status = domain.UserStatus(status)
	u.CreatedAt = u.CreatedAt.UTC()
	u.UpdatedAt = u.UpdatedAt.UTC()
	return u, nil
}
