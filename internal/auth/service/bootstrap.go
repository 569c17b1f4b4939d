package service

import (
	"context"
	"log/slog"

	"github.com/Rapter1990/carservice-sub000/internal/auth/domain"
	"github.com/Rapter1990/carservice-sub000/pkg/jwtx"
	"github.com/Rapter1990/carservice-sub000/pkg/slogx"
)

// BootstrapAdmin describes the first administrator, created when the user
// directory is empty.
type BootstrapAdmin struct {
	Email     string
	Password  string
	FirstName string
	LastName  string
}

// EnsureAdmin creates the bootstrap admin if no user exists yet. It returns
// false when the directory already had users.
func (s *AuthService) EnsureAdmin(ctx context.Context, admin BootstrapAdmin) (bool, error) {
	l := slogx.FromContext(ctx)

	empty, err := s.Store.Users().IsEmpty(ctx)
	if err != nil {
		return false, err
	}
	if !empty {
		l.Debug("user directory not empty, skipping admin bootstrap")
		return false, nil
	}

	first, last := admin.FirstName, admin.LastName
	if first == "" {
		first = "System"
	}
	if last == "" {
		last = "Admin"
	}

	// An anonymous admin actor passes the role check and leaves CreatedBy
	// empty.
	actor := jwtx.Identity{Role: string(domain.RoleAdmin)}
	user, err := s.Register(ctx, &actor, RegisterInput{
		Email:     admin.Email,
		Password:  admin.Password,
		FirstName: first,
		LastName:  last,
		Role:      string(domain.RoleAdmin),
	})
	if err != nil {
		return false, err
	}

	l.Info("bootstrap admin created", slog.String("user_id", user.ID))
	return true, nil
}
