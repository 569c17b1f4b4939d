package sqlite

import (
	"context"
	"strings"
	"time"

	"github.com/Rapter1990/carservice-sub000/internal/auth/domain"
)

type revokedTokensRepo struct {
	q querier
}

func (r *revokedTokensRepo) IsRevoked(ctx context.Context, jti string) (bool, error) {
	var exists bool
	err := r.q.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM revoked_tokens WHERE token_id = ?)`, jti).Scan(&exists)
	if err != nil {
		return false, err
	}
	return exists, nil
}

// RevokeAll writes the batch as a single multi-row INSERT, which sqlite
// applies atomically.
func (r *revokedTokensRepo) RevokeAll(ctx context.Context, tokens []domain.RevokedToken) error {
	if len(tokens) == 0 {
		return nil
	}

	var b strings.Builder
	b.WriteString(`INSERT INTO revoked_tokens (token_id, user_id, expires_at, revoked_at) VALUES `)
	args := make([]any, 0, len(tokens)*4)
	for i, t := range tokens {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString("(?, ?, ?, ?)")
		args = append(args, t.TokenID, t.UserID, t.ExpiresAt.Unix(), t.RevokedAt.Unix())
	}

	_, err := r.q.ExecContext(ctx, b.String(), args...)
	return mapConstraint(err)
}

func (r *revokedTokensRepo) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	res, err := r.q.ExecContext(ctx, `DELETE FROM revoked_tokens WHERE expires_at <= ?`, now.Unix())
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
