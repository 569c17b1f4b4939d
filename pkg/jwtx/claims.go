package jwtx

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Default token TTLs. Access tokens are short lived, refresh tokens are
// measured in days. Both can be overridden through configuration.
const (
	DefaultAccessTokenTTL  = 30 * time.Minute
	DefaultRefreshTokenTTL = 1 * 24 * time.Hour
)

// Claim and header names on the wire. Existing clients read these exact
// strings so they must not change.
const (
	ClaimJTI           = "jti"
	ClaimIssuer        = "iss"
	ClaimIssuedAt      = "iat"
	ClaimExpiresAt     = "exp"
	ClaimUserID        = "userId"
	ClaimUserFirstName = "userFirstName"
	ClaimUserLastName  = "userLastName"
	ClaimUserEmail     = "userEmail"
	ClaimUserType      = "userType"
	ClaimUserStatus    = "userStatus"

	HeaderAlgorithm = "alg"
	HeaderType      = "typ"

	// TokenType is the value of the "typ" header and the scheme clients use
	// in the Authorization header.
	TokenType = "Bearer"
)

// Claims carried by both access and refresh tokens. Refresh tokens only
// populate UserID on top of the registered claims.
type Claims struct {
	jwt.RegisteredClaims

	UserID        string `json:"userId,omitempty"`
	UserFirstName string `json:"userFirstName,omitempty"`
	UserLastName  string `json:"userLastName,omitempty"`
	UserEmail     string `json:"userEmail,omitempty"`
	UserType      string `json:"userType,omitempty"`
	UserStatus    string `json:"userStatus,omitempty"`
}

// NewAccessClaims builds the identity claims of an access token. The
// registered claims (jti, iss, iat, exp) are stamped by Codec.Issue.
func NewAccessClaims(userID, firstName, lastName, email, userType, status string) Claims {
	return Claims{
		UserID:        userID,
		UserFirstName: firstName,
		UserLastName:  lastName,
		UserEmail:     email,
		UserType:      userType,
		UserStatus:    status,
	}
}

// NewRefreshClaims builds refresh token claims, which only identify the user.
func NewRefreshClaims(userID string) Claims {
	return Claims{UserID: userID}
}

// NewJTI returns a random identifier for the "jti" claim.
func NewJTI() string {
	return uuid.NewString()
}

// stamp fills the registered claims for a token issued at now.
func (c Claims) stamp(issuer string, now time.Time, ttl time.Duration) Claims {
	now = now.Truncate(time.Second)
	c.RegisteredClaims = jwt.RegisteredClaims{
		ID:        NewJTI(),
		Issuer:    issuer,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	}
	return c
}

// IsRefresh reports whether the claims look like a refresh token, that is
// they carry a user id and nothing else about the user.
func (c *Claims) IsRefresh() bool {
	return c.UserID != "" && c.UserEmail == "" && c.UserType == ""
}

// ValidateIssuer checks if the issuer matches expected value.
func (c *Claims) ValidateIssuer(expected string) error {
	if expected == "" {
		return nil
	}
	if c.Issuer != expected {
		return ErrIssuer
	}
	return nil
}

// ValidateExpiry rejects a token once exp <= now, compared in whole
// seconds. leeway pushes exp forward and is zero unless configured.
func (c *Claims) ValidateExpiry(now time.Time, leeway time.Duration) error {
	if c.ExpiresAt == nil {
		return ErrMalformed
	}
	if c.ExpiresAt.Add(leeway).Unix() <= now.Unix() {
		return ErrExpired
	}
	return nil
}
