package service_test

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/Rapter1990/carservice-sub000/internal/auth/domain"
	"github.com/Rapter1990/carservice-sub000/internal/auth/service"
	"github.com/Rapter1990/carservice-sub000/internal/auth/store/drivers/sqlite"
	"github.com/Rapter1990/carservice-sub000/pkg/cryptox"
	"github.com/Rapter1990/carservice-sub000/pkg/jwtx"
)

const testIssuer = "carservice-test"

var testKeys = sync.OnceValue(func() jwtx.KeyPair {
	keys, err := jwtx.GenerateKeyPair(2048)
	if err != nil {
		panic(err)
	}
	return keys
})

// clock is a settable time source shared by the codec and the services.
type clock struct {
	mu  sync.Mutex
	now time.Time
}

func newClock() *clock {
	return &clock{now: time.Now().Truncate(time.Second)}
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type fixture struct {
	store  *sqlite.Store
	clock  *clock
	tokens *service.TokenService
	auth   *service.AuthService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	return newFixtureWithLeeway(t, 0)
}

// newFixtureWithLeeway builds a fixture whose codec accepts tokens up to
// leeway past their expiry.
func newFixtureWithLeeway(t *testing.T, leeway time.Duration) *fixture {
	t.Helper()

	st, err := sqlite.NewStore(filepath.Join(t.TempDir(), "auth.db"))
	require.NoError(t, err)
	require.NoError(t, st.ApplyMigrations())
	t.Cleanup(func() { _ = st.Close() })

	clk := newClock()
	codec, err := jwtx.NewCodec(testKeys(), jwtx.CodecOptions{Issuer: testIssuer, Leeway: leeway, Now: clk.Now})
	require.NoError(t, err)

	tokens := &service.TokenService{
		Codec:      codec,
		Revoked:    st.RevokedTokens(),
		AccessTTL:  15 * time.Minute,
		RefreshTTL: 24 * time.Hour,
		Now:        clk.Now,
	}

	return &fixture{
		store:  st,
		clock:  clk,
		tokens: tokens,
		auth: &service.AuthService{
			Store:  st,
			Tokens: tokens,
			Hasher: cryptox.PasswordHasher{Pepper: "pepper"},
		},
	}
}

// createUser stores a user with the given status and password directly.
func (f *fixture) createUser(t *testing.T, email, password string, role domain.Role, status domain.UserStatus) domain.User {
	t.Helper()

	hash, err := f.auth.Hasher.Hash(password)
	require.NoError(t, err)

	now := time.Now().UTC().Truncate(time.Second)
	u := domain.User{
		ID:           "user-" + email,
		Email:        email,
		FirstName:    "Ada",
		LastName:     "Lovelace",
		PasswordHash: hash,
		Role:         role,
		Status:       status,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	require.NoError(t, f.store.Users().CreateUser(context.Background(), u))
	return u
}
