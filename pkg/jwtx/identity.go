package jwtx

import "time"

// Identity is the principal resolved from a verified access token. It is
// built once per request and carried in the request context.
type Identity struct {
	UserID    string
	Email     string
	FirstName string
	LastName  string
	Role      string
	Status    string

	// TokenID is the jti of the token the identity was resolved from.
	TokenID   string
	ExpiresAt time.Time
}

// IdentityFromClaims copies the identity claims out of verified claims.
func IdentityFromClaims(c Claims) Identity {
	id := Identity{
		UserID:    c.UserID,
		Email:     c.UserEmail,
		FirstName: c.UserFirstName,
		LastName:  c.UserLastName,
		Role:      c.UserType,
		Status:    c.UserStatus,
		TokenID:   c.ID,
	}
	if c.ExpiresAt != nil {
		id.ExpiresAt = c.ExpiresAt.Time
	}
	return id
}

// HasRole reports whether the identity carries one of roles.
func (i Identity) HasRole(roles ...string) bool {
	for _, r := range roles {
		if i.Role == r {
			return true
		}
	}
	return false
}
