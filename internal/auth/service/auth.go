package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/mail"
	"strings"

	"github.com/Rapter1990/carservice-sub000/internal/auth/domain"
	"github.com/Rapter1990/carservice-sub000/internal/auth/store"
	"github.com/Rapter1990/carservice-sub000/pkg/cryptox"
	"github.com/Rapter1990/carservice-sub000/pkg/idx"
	"github.com/Rapter1990/carservice-sub000/pkg/jwtx"
	"github.com/Rapter1990/carservice-sub000/pkg/slogx"
)

const minPasswordLength = 8

// AuthService implements the account flows on top of the user directory
// and the token service.
type AuthService struct {
	Store  store.Store
	Tokens *TokenService
	Hasher cryptox.PasswordHasher
}

// RegisterInput is a new account request.
type RegisterInput struct {
	Email       string
	Password    string
	FirstName   string
	LastName    string
	PhoneNumber string
	Role        string
}

// Login checks credentials and issues a token pair. Legacy bcrypt hashes
// are upgraded to argon2id on success.
func (s *AuthService) Login(ctx context.Context, email, password string) (domain.TokenPair, error) {
	l := slogx.FromContext(ctx)

	user, err := s.Store.Users().GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			l.Info("login for unknown email")
			return domain.TokenPair{}, ErrUserNotFound
		}
		return domain.TokenPair{}, err
	}

	if err := s.Hasher.Verify(password, user.PasswordHash); err != nil {
		if !errors.Is(err, cryptox.ErrPasswordMismatch) {
			l.Error("stored password hash unusable", slog.String("user_id", user.ID), slog.Any("error", err))
		} else {
			l.Info("login with wrong password", slog.String("user_id", user.ID))
		}
		return domain.TokenPair{}, ErrPasswordNotValid
	}

	if !user.IsActive() {
		l.Info("login for inactive user", slog.String("user_id", user.ID), slog.String("status", string(user.Status)))
		return domain.TokenPair{}, ErrUserStatusNotValid
	}

	if s.Hasher.NeedsRehash(user.PasswordHash) {
		s.rehash(ctx, user.ID, password)
	}

	return s.Tokens.IssueInitial(ctx, user)
}

// rehash is best effort: a failure leaves the old hash in place.
func (s *AuthService) rehash(ctx context.Context, userID, password string) {
	l := slogx.FromContext(ctx)

	hash, err := s.Hasher.Hash(password)
	if err != nil {
		l.Warn("password rehash failed", slog.String("user_id", userID), slog.Any("error", err))
		return
	}
	if err := s.Store.Users().UpdatePasswordHash(ctx, userID, hash); err != nil {
		l.Warn("password rehash not stored", slog.String("user_id", userID), slog.Any("error", err))
		return
	}
	l.Info("password hash upgraded", slog.String("user_id", userID))
}

// Refresh exchanges a refresh token for a new access token, re-reading the
// user so the new token reflects their current role and status.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (domain.TokenPair, error) {
	return s.Tokens.IssueFromRefresh(ctx, refreshToken, s.Store.Users().GetUserByID)
}

// Logout revokes both tokens of a pair.
func (s *AuthService) Logout(ctx context.Context, accessToken, refreshToken string) error {
	return s.Tokens.Invalidate(ctx, []string{accessToken, refreshToken})
}

// Register creates an account. actor is the authenticated caller, nil for
// self registration; only an ADMIN actor may create another ADMIN.
func (s *AuthService) Register(ctx context.Context, actor *jwtx.Identity, in RegisterInput) (domain.User, error) {
	user, err := s.newUser(actor, in)
	if err != nil {
		return domain.User{}, err
	}

	err = s.Store.WithTx(ctx, func(tx store.Tx) error {
		_, err := tx.Users().GetUserByEmail(ctx, user.Email)
		switch {
		case err == nil:
			return ErrUserAlreadyExists
		case !errors.Is(err, store.ErrNotFound):
			return err
		}
		return tx.Users().CreateUser(ctx, user)
	})
	if err != nil {
		if errors.Is(err, store.ErrAlreadyExists) {
			return domain.User{}, ErrUserAlreadyExists
		}
		return domain.User{}, err
	}

	slogx.FromContext(ctx).Info("user registered",
		slog.String("user_id", user.ID),
		slog.String("role", string(user.Role)),
		slog.String("created_by", user.CreatedBy),
	)
	return user, nil
}

func (s *AuthService) newUser(actor *jwtx.Identity, in RegisterInput) (domain.User, error) {
	email := domain.NormalizeEmail(in.Email)
	if addr, err := mail.ParseAddress(email); err != nil || addr.Address != email {
		return domain.User{}, fmt.Errorf("%w: email is not valid", ErrInvalidInput)
	}
	if len(in.Password) < minPasswordLength {
		return domain.User{}, fmt.Errorf("%w: password must be at least %d characters", ErrInvalidInput, minPasswordLength)
	}
	first, last := strings.TrimSpace(in.FirstName), strings.TrimSpace(in.LastName)
	if first == "" || last == "" {
		return domain.User{}, fmt.Errorf("%w: first and last name are required", ErrInvalidInput)
	}

	role := domain.RoleUser
	if in.Role != "" {
		r, ok := domain.ParseRole(in.Role)
		if !ok {
			return domain.User{}, fmt.Errorf("%w: unknown role %q", ErrInvalidInput, in.Role)
		}
		role = r
	}
	if role == domain.RoleAdmin && (actor == nil || !actor.HasRole(string(domain.RoleAdmin))) {
		return domain.User{}, ErrAccessDenied
	}

	hash, err := s.Hasher.Hash(in.Password)
	if err != nil {
		return domain.User{}, err
	}

	now := s.Tokens.now().UTC()
	u := domain.User{
		ID:           idx.NewAt(now).String(),
		Email:        email,
		FirstName:    first,
		LastName:     last,
		PhoneNumber:  strings.TrimSpace(in.PhoneNumber),
		PasswordHash: hash,
		Role:         role,
		Status:       domain.UserStatusActive,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if actor != nil {
		u.CreatedBy = actor.UserID
	}
	return u, nil
}
