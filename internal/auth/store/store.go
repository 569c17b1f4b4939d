package store

import (
	"context"
	"errors"
	"time"

	"github.com/Rapter1990/carservice-sub000/internal/auth/domain"
)

var (
	ErrNotFound      = errors.New("store: not found")
	ErrAlreadyExists = errors.New("store: already exists")
)

// Store is the root data access interface. Concrete drivers (sqlite,
// postgres) implement it and expose sub-repositories, which keeps
// transactions explicit: a Tx hands out the same repositories bound to the
// transaction.
type Store interface {
	Users() Users
	RevokedTokens() RevokedTokens

	ApplyMigrations() error

	// WithTx executes fn within a transaction. If fn returns an error the
	// transaction is rolled back, otherwise it is committed.
	WithTx(ctx context.Context, fn func(tx Tx) error) error

	// Close releases any underlying resources.
	Close() error

	// Ping verifies the database connection is still alive.
	Ping(ctx context.Context) error
}

// Tx is a transaction-scoped view of a Store.
type Tx interface {
	Users() Users
	RevokedTokens() RevokedTokens
}

// RevocationStore is a standalone revocation backend, used when revocation
// lives outside the user database (redis).
type RevocationStore interface {
	RevokedTokens() RevokedTokens
	Close() error
	Ping(ctx context.Context) error
}

type Users interface {
	// GetUserByID returns a user by id.
	GetUserByID(ctx context.Context, id string) (domain.User, error)

	// GetUserByEmail is used during login. Emails are stored normalized.
	GetUserByEmail(ctx context.Context, email string) (domain.User, error)

	// CreateUser inserts a new user (id is provided by the app via ULID).
	// Returns ErrAlreadyExists when the email is taken.
	CreateUser(ctx context.Context, u domain.User) error

	// UpdatePasswordHash replaces the hash and bumps updated_at.
	UpdatePasswordHash(ctx context.Context, userID string, newHash string) error

	// IsEmpty returns true if there are no users.
	IsEmpty(ctx context.Context) (bool, error)
}

type RevokedTokens interface {
	// IsRevoked reports whether jti has been revoked.
	IsRevoked(ctx context.Context, jti string) (bool, error)

	// RevokeAll records every token in one batch. Either all records are
	// written or none; a jti that is already revoked fails the batch with
	// ErrAlreadyExists.
	RevokeAll(ctx context.Context, tokens []domain.RevokedToken) error

	// DeleteExpired drops records whose token expired at or before now and
	// returns how many were removed.
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}
