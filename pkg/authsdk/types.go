package authsdk

import "time"

// Response is the success envelope around every response body.
type Response[T any] struct {
	Time       time.Time `json:"time"`
	HTTPStatus string    `json:"httpStatus"`
	IsSuccess  bool      `json:"isSuccess"`
	Response   T         `json:"response"`
}

// ErrorResponse is the failure envelope.
type ErrorResponse struct {
	Time       time.Time `json:"time"`
	HTTPStatus string    `json:"httpStatus"`
	Header     string    `json:"header"`
	Message    string    `json:"message"`
	IsSuccess  bool      `json:"isSuccess"`
}

// ============================================================================
// Token Types
// ============================================================================

// LoginRequest is the body of POST /api/v1/users/login.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// RefreshRequest is the body of POST /api/v1/users/refresh-token.
type RefreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

// LogoutRequest is the body of POST /api/v1/users/logout. Both tokens are
// revoked together or not at all.
type LogoutRequest struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

// TokenResponse is returned by login and refresh.
type TokenResponse struct {
	AccessToken string `json:"accessToken"`

	// AccessTokenExpiresAt is the access token expiry in epoch seconds.
	AccessTokenExpiresAt int64 `json:"accessTokenExpiresAt"`

	RefreshToken string `json:"refreshToken"`
}

// ============================================================================
// User Types
// ============================================================================

// RegisterRequest is the body of POST /api/v1/users/register. Role
// defaults to USER; creating an ADMIN requires an ADMIN caller.
type RegisterRequest struct {
	Email       string `json:"email"`
	Password    string `json:"password"`
	FirstName   string `json:"firstName"`
	LastName    string `json:"lastName"`
	PhoneNumber string `json:"phoneNumber,omitempty"`
	Role        string `json:"role,omitempty"`
}

// UserResponse describes a stored user account.
type UserResponse struct {
	ID          string    `json:"id"`
	Email       string    `json:"email"`
	FirstName   string    `json:"firstName"`
	LastName    string    `json:"lastName"`
	PhoneNumber string    `json:"phoneNumber,omitempty"`
	Role        string    `json:"role"`
	Status      string    `json:"status"`
	CreatedAt   time.Time `json:"createdAt"`
	CreatedBy   string    `json:"createdBy,omitempty"`
}

// MeResponse describes the caller as resolved from their access token.
type MeResponse struct {
	UserID         string `json:"userId"`
	Email          string `json:"email"`
	FirstName      string `json:"firstName"`
	LastName       string `json:"lastName"`
	Role           string `json:"role"`
	Status         string `json:"status"`
	TokenExpiresAt int64  `json:"tokenExpiresAt"`
}

// PingResponse is returned by the admin ping endpoint.
type PingResponse struct {
	Message string `json:"message"`
	UserID  string `json:"userId"`
}

// ============================================================================
// Health Types
// ============================================================================

// HealthResponse is returned by /livez and /readyz. It is not enveloped so
// probes can read it without knowing the API contract.
type HealthResponse struct {
	Status  string        `json:"status"`
	Uptime  string        `json:"uptime"`
	Version string        `json:"version"`
	Checks  *HealthChecks `json:"checks,omitempty"`
}

// HealthChecks reports readiness of each dependency.
type HealthChecks struct {
	Database   string `json:"database"`
	Revocation string `json:"revocation"`
	Signer     string `json:"signer"`
}
