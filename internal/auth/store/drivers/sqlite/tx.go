package sqlite

import (
	"database/sql"

	"github.com/Rapter1990/carservice-sub000/internal/auth/store"
)

// txStore hands out repositories bound to one transaction. Nested
// transactions are not supported.
type txStore struct {
	tx *sql.Tx
}

func (t *txStore) Users() store.Users                 { return &usersRepo{q: t.tx} }
func (t *txStore) RevokedTokens() store.RevokedTokens { return &revokedTokensRepo{q: t.tx} }
