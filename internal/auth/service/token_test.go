package service_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Rapter1990/carservice-sub000/internal/auth/domain"
	"github.com/Rapter1990/carservice-sub000/internal/auth/service"
	"github.com/Rapter1990/carservice-sub000/internal/auth/store"
	"github.com/Rapter1990/carservice-sub000/pkg/jwtx"
)

func TestTokenService_IssueInitial(t *testing.T) {
	f := newFixture(t)
	user := f.createUser(t, "ada@example.com", "correct horse", domain.RoleAdmin, domain.UserStatusActive)

	pair, err := f.tokens.IssueInitial(context.Background(), user)
	require.NoError(t, err)
	assert.Equal(t, f.clock.Now().Add(15*time.Minute).Unix(), pair.AccessTokenExpiresAt.Unix())

	access, err := f.tokens.Codec.Verify(pair.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, user.ID, access.UserID)
	assert.Equal(t, "ADMIN", access.UserType)
	assert.Equal(t, "ACTIVE", access.UserStatus)
	assert.Equal(t, "ada@example.com", access.UserEmail)

	refresh, err := f.tokens.Codec.Verify(pair.RefreshToken)
	require.NoError(t, err)
	assert.True(t, refresh.IsRefresh())
	assert.Equal(t, user.ID, refresh.UserID)
	assert.Empty(t, refresh.UserFirstName)
	assert.NotEqual(t, access.ID, refresh.ID)
	assert.Equal(t, f.clock.Now().Add(24*time.Hour).Unix(), refresh.ExpiresAt.Unix())
}

func TestTokenService_VerifyAndAuthenticate(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	user := f.createUser(t, "ada@example.com", "correct horse", domain.RoleUser, domain.UserStatusActive)

	pair, err := f.tokens.IssueInitial(ctx, user)
	require.NoError(t, err)

	t.Run("valid access token", func(t *testing.T) {
		id, err := f.tokens.VerifyAndAuthenticate(ctx, pair.AccessToken)
		require.NoError(t, err)
		assert.Equal(t, user.ID, id.UserID)
		assert.Equal(t, "USER", id.Role)
		assert.NotEmpty(t, id.TokenID)
	})

	t.Run("refresh token is not an access token", func(t *testing.T) {
		_, err := f.tokens.VerifyAndAuthenticate(ctx, pair.RefreshToken)
		require.ErrorIs(t, err, jwtx.ErrInvalidClaim)
	})

	t.Run("garbage", func(t *testing.T) {
		_, err := f.tokens.VerifyAndAuthenticate(ctx, "not-a-token")
		require.ErrorIs(t, err, jwtx.ErrMalformed)
	})

	t.Run("expired", func(t *testing.T) {
		f := newFixture(t)
		pair, err := f.tokens.IssueInitial(ctx, user)
		require.NoError(t, err)

		f.clock.Advance(15 * time.Minute)
		_, err = f.tokens.VerifyAndAuthenticate(ctx, pair.AccessToken)
		require.ErrorIs(t, err, jwtx.ErrExpired)
	})
}

func TestTokenService_IssueFromRefresh(t *testing.T) {
	ctx := context.Background()

	t.Run("new access token, same refresh token", func(t *testing.T) {
		f := newFixture(t)
		user := f.createUser(t, "ada@example.com", "correct horse", domain.RoleUser, domain.UserStatusActive)
		pair, err := f.tokens.IssueInitial(ctx, user)
		require.NoError(t, err)

		f.clock.Advance(time.Minute)
		next, err := f.tokens.IssueFromRefresh(ctx, pair.RefreshToken, f.store.Users().GetUserByID)
		require.NoError(t, err)
		assert.Equal(t, pair.RefreshToken, next.RefreshToken)
		assert.NotEqual(t, pair.AccessToken, next.AccessToken)
		assert.True(t, next.AccessTokenExpiresAt.After(pair.AccessTokenExpiresAt))

		_, err = f.tokens.VerifyAndAuthenticate(ctx, next.AccessToken)
		require.NoError(t, err)
	})

	t.Run("claims reflect current directory record", func(t *testing.T) {
		f := newFixture(t)
		user := f.createUser(t, "ada@example.com", "correct horse", domain.RoleUser, domain.UserStatusActive)
		pair, err := f.tokens.IssueInitial(ctx, user)
		require.NoError(t, err)

		promoted := func(ctx context.Context, id string) (domain.User, error) {
			u := user
			u.Role = domain.RoleAdmin
			return u, nil
		}
		next, err := f.tokens.IssueFromRefresh(ctx, pair.RefreshToken, promoted)
		require.NoError(t, err)

		id, err := f.tokens.VerifyAndAuthenticate(ctx, next.AccessToken)
		require.NoError(t, err)
		assert.Equal(t, "ADMIN", id.Role)
	})

	t.Run("revoked refresh token never reaches the directory", func(t *testing.T) {
		f := newFixture(t)
		user := f.createUser(t, "ada@example.com", "correct horse", domain.RoleUser, domain.UserStatusActive)
		pair, err := f.tokens.IssueInitial(ctx, user)
		require.NoError(t, err)
		require.NoError(t, f.tokens.Invalidate(ctx, []string{pair.AccessToken, pair.RefreshToken}))

		called := false
		lookup := func(ctx context.Context, id string) (domain.User, error) {
			called = true
			return user, nil
		}
		_, err = f.tokens.IssueFromRefresh(ctx, pair.RefreshToken, lookup)
		require.ErrorIs(t, err, service.ErrTokenAlreadyInvalidated)
		assert.False(t, called)
	})

	t.Run("inactive user", func(t *testing.T) {
		f := newFixture(t)
		user := f.createUser(t, "ada@example.com", "correct horse", domain.RoleUser, domain.UserStatusActive)
		pair, err := f.tokens.IssueInitial(ctx, user)
		require.NoError(t, err)

		suspended := func(ctx context.Context, id string) (domain.User, error) {
			u := user
			u.Status = domain.UserStatusSuspended
			return u, nil
		}
		_, err = f.tokens.IssueFromRefresh(ctx, pair.RefreshToken, suspended)
		require.ErrorIs(t, err, service.ErrUserStatusNotValid)
	})

	t.Run("user gone", func(t *testing.T) {
		f := newFixture(t)
		ghost := domain.User{ID: "ghost", Email: "ghost@example.com", Role: domain.RoleUser, Status: domain.UserStatusActive}
		pair, err := f.tokens.IssueInitial(ctx, ghost)
		require.NoError(t, err)

		_, err = f.tokens.IssueFromRefresh(ctx, pair.RefreshToken, f.store.Users().GetUserByID)
		require.ErrorIs(t, err, service.ErrUserNotFound)
	})

	t.Run("lookup failure propagates", func(t *testing.T) {
		f := newFixture(t)
		user := f.createUser(t, "ada@example.com", "correct horse", domain.RoleUser, domain.UserStatusActive)
		pair, err := f.tokens.IssueInitial(ctx, user)
		require.NoError(t, err)

		boom := errors.New("directory down")
		_, err = f.tokens.IssueFromRefresh(ctx, pair.RefreshToken, func(context.Context, string) (domain.User, error) {
			return domain.User{}, boom
		})
		require.ErrorIs(t, err, boom)
	})

	t.Run("access token cannot refresh", func(t *testing.T) {
		f := newFixture(t)
		user := f.createUser(t, "ada@example.com", "correct horse", domain.RoleUser, domain.UserStatusActive)
		pair, err := f.tokens.IssueInitial(ctx, user)
		require.NoError(t, err)

		_, err = f.tokens.IssueFromRefresh(ctx, pair.AccessToken, f.store.Users().GetUserByID)
		require.ErrorIs(t, err, jwtx.ErrInvalidClaim)
	})

	t.Run("expired refresh token", func(t *testing.T) {
		f := newFixture(t)
		user := f.createUser(t, "ada@example.com", "correct horse", domain.RoleUser, domain.UserStatusActive)
		pair, err := f.tokens.IssueInitial(ctx, user)
		require.NoError(t, err)

		f.clock.Advance(25 * time.Hour)
		_, err = f.tokens.IssueFromRefresh(ctx, pair.RefreshToken, f.store.Users().GetUserByID)
		require.ErrorIs(t, err, jwtx.ErrExpired)
	})
}

func TestTokenService_Invalidate(t *testing.T) {
	ctx := context.Background()

	t.Run("second logout fails", func(t *testing.T) {
		f := newFixture(t)
		user := f.createUser(t, "ada@example.com", "correct horse", domain.RoleUser, domain.UserStatusActive)
		pair, err := f.tokens.IssueInitial(ctx, user)
		require.NoError(t, err)

		tokens := []string{pair.AccessToken, pair.RefreshToken}
		require.NoError(t, f.tokens.Invalidate(ctx, tokens))
		require.ErrorIs(t, f.tokens.Invalidate(ctx, tokens), service.ErrTokenAlreadyInvalidated)

		_, err = f.tokens.VerifyAndAuthenticate(ctx, pair.AccessToken)
		require.ErrorIs(t, err, service.ErrTokenAlreadyInvalidated)
	})

	t.Run("one bad token revokes nothing", func(t *testing.T) {
		f := newFixture(t)
		user := f.createUser(t, "ada@example.com", "correct horse", domain.RoleUser, domain.UserStatusActive)
		pair, err := f.tokens.IssueInitial(ctx, user)
		require.NoError(t, err)

		err = f.tokens.Invalidate(ctx, []string{pair.AccessToken, "garbage"})
		require.ErrorIs(t, err, jwtx.ErrMalformed)

		_, err = f.tokens.VerifyAndAuthenticate(ctx, pair.AccessToken)
		require.NoError(t, err)
	})

	t.Run("one revoked token revokes nothing", func(t *testing.T) {
		f := newFixture(t)
		user := f.createUser(t, "ada@example.com", "correct horse", domain.RoleUser, domain.UserStatusActive)
		first, err := f.tokens.IssueInitial(ctx, user)
		require.NoError(t, err)
		second, err := f.tokens.IssueInitial(ctx, user)
		require.NoError(t, err)

		require.NoError(t, f.tokens.Invalidate(ctx, []string{first.AccessToken}))

		err = f.tokens.Invalidate(ctx, []string{second.AccessToken, first.AccessToken})
		require.ErrorIs(t, err, service.ErrTokenAlreadyInvalidated)

		_, err = f.tokens.VerifyAndAuthenticate(ctx, second.AccessToken)
		require.NoError(t, err)
	})

	t.Run("expired token fails the batch", func(t *testing.T) {
		f := newFixture(t)
		user := f.createUser(t, "ada@example.com", "correct horse", domain.RoleUser, domain.UserStatusActive)
		pair, err := f.tokens.IssueInitial(ctx, user)
		require.NoError(t, err)

		f.clock.Advance(time.Hour)
		err = f.tokens.Invalidate(ctx, []string{pair.AccessToken, pair.RefreshToken})
		require.ErrorIs(t, err, jwtx.ErrExpired)

		revoked, err := f.store.RevokedTokens().IsRevoked(ctx, mustJTI(t, f, pair.RefreshToken))
		require.NoError(t, err)
		assert.False(t, revoked)
	})

	t.Run("duplicates are collapsed", func(t *testing.T) {
		f := newFixture(t)
		user := f.createUser(t, "ada@example.com", "correct horse", domain.RoleUser, domain.UserStatusActive)
		pair, err := f.tokens.IssueInitial(ctx, user)
		require.NoError(t, err)

		require.NoError(t, f.tokens.Invalidate(ctx, []string{pair.AccessToken, pair.AccessToken}))
	})

	t.Run("empty set", func(t *testing.T) {
		f := newFixture(t)
		require.NoError(t, f.tokens.Invalidate(ctx, nil))
	})

	t.Run("store failure", func(t *testing.T) {
		f := newFixture(t)
		user := f.createUser(t, "ada@example.com", "correct horse", domain.RoleUser, domain.UserStatusActive)
		pair, err := f.tokens.IssueInitial(ctx, user)
		require.NoError(t, err)

		boom := errors.New("disk full")
		f.tokens.Revoked = failingRevocations{RevokedTokens: f.store.RevokedTokens(), err: boom}
		require.ErrorIs(t, f.tokens.Invalidate(ctx, []string{pair.AccessToken}), boom)
	})

	t.Run("lost race maps to already invalidated", func(t *testing.T) {
		f := newFixture(t)
		user := f.createUser(t, "ada@example.com", "correct horse", domain.RoleUser, domain.UserStatusActive)
		pair, err := f.tokens.IssueInitial(ctx, user)
		require.NoError(t, err)

		f.tokens.Revoked = failingRevocations{RevokedTokens: f.store.RevokedTokens(), err: store.ErrAlreadyExists}
		require.ErrorIs(t, f.tokens.Invalidate(ctx, []string{pair.AccessToken}), service.ErrTokenAlreadyInvalidated)
	})
}

// failingRevocations passes lookups through and fails every write.
type failingRevocations struct {
	store.RevokedTokens
	err error
}

func (f failingRevocations) RevokeAll(context.Context, []domain.RevokedToken) error {
	return f.err
}

func mustJTI(t *testing.T, f *fixture, token string) string {
	t.Helper()
	claims, err := f.tokens.Codec.Verify(token)
	require.NoError(t, err)
	return claims.ID
}
