package domain

import "time"

// TokenPair is what login and refresh return. It is never persisted.
type TokenPair struct {
	AccessToken          string
	AccessTokenExpiresAt time.Time
	RefreshToken         string
}

// RevokedToken records one revoked jti. Only its existence matters to
// verification; ExpiresAt lets housekeeping drop records whose token can no
// longer verify anyway.
type RevokedToken struct {
	TokenID   string
	UserID    string
	ExpiresAt time.Time
	RevokedAt time.Time
}
