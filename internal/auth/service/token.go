package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/Rapter1990/carservice-sub000/internal/auth/domain"
	"github.com/Rapter1990/carservice-sub000/internal/auth/store"
	"github.com/Rapter1990/carservice-sub000/pkg/jwtx"
	"github.com/Rapter1990/carservice-sub000/pkg/slogx"
)

// UserLookup re-reads a user from the directory. Refresh calls it on every
// exchange so role and status changes apply to the next access token.
type UserLookup func(ctx context.Context, userID string) (domain.User, error)

// TokenService issues, verifies and invalidates token pairs. It holds no
// state of its own besides the codec; revocation lives in the store.
type TokenService struct {
	Codec      *jwtx.Codec
	Revoked    store.RevokedTokens
	AccessTTL  time.Duration
	RefreshTTL time.Duration

	// Now stamps RevokedAt. Defaults to time.Now.
	Now func() time.Time
}

func (s *TokenService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

// IssueInitial mints a fresh access and refresh token for user. Callers
// have already checked credentials and status.
func (s *TokenService) IssueInitial(ctx context.Context, user domain.User) (domain.TokenPair, error) {
	access, exp, err := s.issueAccess(user)
	if err != nil {
		return domain.TokenPair{}, err
	}

	refresh, _, err := s.Codec.Issue(jwtx.NewRefreshClaims(user.ID), s.RefreshTTL)
	if err != nil {
		return domain.TokenPair{}, fmt.Errorf("issue refresh token: %w", err)
	}

	slogx.FromContext(ctx).Debug("token pair issued", slog.String("user_id", user.ID))

	return domain.TokenPair{
		AccessToken:          access,
		AccessTokenExpiresAt: exp,
		RefreshToken:         refresh,
	}, nil
}

// IssueFromRefresh exchanges a refresh token for a new access token. The
// refresh token itself is returned unchanged; it is never rotated.
func (s *TokenService) IssueFromRefresh(ctx context.Context, refreshToken string, lookup UserLookup) (domain.TokenPair, error) {
	l := slogx.FromContext(ctx)

	claims, err := s.Codec.Verify(refreshToken)
	if err != nil {
		l.Info("refresh token rejected", slog.Any("error", err))
		return domain.TokenPair{}, err
	}
	if !claims.IsRefresh() {
		return domain.TokenPair{}, fmt.Errorf("%w: not a refresh token", jwtx.ErrInvalidClaim)
	}

	if err := s.ensureNotRevoked(ctx, claims.ID); err != nil {
		return domain.TokenPair{}, err
	}

	user, err := lookup(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.TokenPair{}, ErrUserNotFound
		}
		return domain.TokenPair{}, err
	}
	if !user.IsActive() {
		l.Info("refresh for inactive user", slog.String("user_id", user.ID), slog.String("status", string(user.Status)))
		return domain.TokenPair{}, ErrUserStatusNotValid
	}

	access, exp, err := s.issueAccess(user)
	if err != nil {
		return domain.TokenPair{}, err
	}

	return domain.TokenPair{
		AccessToken:          access,
		AccessTokenExpiresAt: exp,
		RefreshToken:         refreshToken,
	}, nil
}

// VerifyAndAuthenticate resolves an access token into an identity: one
// signature check and one revocation lookup.
func (s *TokenService) VerifyAndAuthenticate(ctx context.Context, token string) (jwtx.Identity, error) {
	claims, err := s.Codec.Verify(token)
	if err != nil {
		return jwtx.Identity{}, err
	}
	if claims.IsRefresh() || claims.UserID == "" {
		return jwtx.Identity{}, fmt.Errorf("%w: not an access token", jwtx.ErrInvalidClaim)
	}

	if err := s.ensureNotRevoked(ctx, claims.ID); err != nil {
		return jwtx.Identity{}, err
	}

	return jwtx.IdentityFromClaims(claims), nil
}

// Invalidate revokes every token in tokens, or none of them. All tokens
// must verify and none may be revoked already, so a repeated logout with
// the same tokens fails with ErrTokenAlreadyInvalidated.
func (s *TokenService) Invalidate(ctx context.Context, tokens []string) error {
	if len(tokens) == 0 {
		return nil
	}

	now := s.now()
	seen := make(map[string]struct{}, len(tokens))
	records := make([]domain.RevokedToken, 0, len(tokens))

	for _, t := range tokens {
		claims, err := s.Codec.Verify(t)
		if err != nil {
			return err
		}
		if _, dup := seen[claims.ID]; dup {
			continue
		}
		seen[claims.ID] = struct{}{}

		records = append(records, domain.RevokedToken{
			TokenID:   claims.ID,
			UserID:    claims.UserID,
			ExpiresAt: claims.ExpiresAt.Time,
			RevokedAt: now,
		})
	}

	for _, r := range records {
		if err := s.ensureNotRevoked(ctx, r.TokenID); err != nil {
			return err
		}
	}

	if err := s.Revoked.RevokeAll(ctx, records); err != nil {
		// Lost a race with a concurrent logout of the same tokens.
		if errors.Is(err, store.ErrAlreadyExists) {
			return ErrTokenAlreadyInvalidated
		}
		return fmt.Errorf("revoke tokens: %w", err)
	}

	slogx.FromContext(ctx).Info("tokens invalidated", slog.Int("count", len(records)))
	return nil
}

func (s *TokenService) ensureNotRevoked(ctx context.Context, jti string) error {
	revoked, err := s.Revoked.IsRevoked(ctx, jti)
	if err != nil {
		return fmt.Errorf("check revocation: %w", err)
	}
	if revoked {
		slogx.FromContext(ctx).Info("revoked token presented", slog.String("jti", jti))
		return ErrTokenAlreadyInvalidated
	}
	return nil
}

func (s *TokenService) issueAccess(user domain.User) (string, time.Time, error) {
	claims := jwtx.NewAccessClaims(
		user.ID,
		user.FirstName,
		user.LastName,
		user.Email,
		string(user.Role),
		string(user.Status),
	)

	token, stamped, err := s.Codec.Issue(claims, s.AccessTTL)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("issue access token: %w", err)
	}
	return token, stamped.ExpiresAt.Time, nil
}
