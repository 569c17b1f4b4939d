package postgres

import (
	"context"
	"time"

	"github.com/Rapter1990/carservice-sub000/internal/auth/domain"
)

type revokedTokensRepo struct {
	q querier
}

func (r *revokedTokensRepo) IsRevoked(ctx context.Context, jti string) (bool, error) {
	var exists bool
	err := r.q.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM revoked_tokens WHERE token_id = $1)`, jti).Scan(&exists)
	if err != nil {
		return false, err
	}
	return exists, nil
}

// RevokeAll inserts the whole batch in one statement from parallel arrays.
func (r *revokedTokensRepo) RevokeAll(ctx context.Context, tokens []domain.RevokedToken) error {
	if len(tokens) == 0 {
		return nil
	}

	ids := make([]string, len(tokens))
	users := make([]string, len(tokens))
	expires := make([]time.Time, len(tokens))
	revoked := make([]time.Time, len(tokens))
	for i, t := range tokens {
		ids[i] = t.TokenID
		users[i] = t.UserID
		expires[i] = t.ExpiresAt.UTC()
		revoked[i] = t.RevokedAt.UTC()
	}

	_, err := r.q.Exec(ctx, `
		INSERT INTO revoked_tokens (token_id, user_id, expires_at, revoked_at)
		SELECT * FROM unnest($1::text[], $2::text[], $3::timestamptz[], $4::timestamptz[])`,
		ids, users, expires, revoked)
	return mapConstraint(err)
}

func (r *revokedTokensRepo) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	tag, err := r.q.Exec(ctx, `DELETE FROM revoked_tokens WHERE expires_at <= $1`, now.UTC())
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}
