package authsdk

import (
	"context"
	"net/http"
	"strings"
	"time"
)

// API paths.
const (
	PathRegister  = "/api/v1/users/register"
	PathLogin     = "/api/v1/users/login"
	PathRefresh   = "/api/v1/users/refresh-token"
	PathLogout    = "/api/v1/users/logout"
	PathMe        = "/api/v1/users/me"
	PathAdminPing = "/api/v1/admin/ping"
	PathLivez     = "/livez"
	PathReadyz    = "/readyz"
)

// SDKClient is a client for the authentication API. It covers the
// unauthenticated operations and opens Sessions.
type SDKClient struct {
	BaseURL    string
	HTTPClient *http.Client
}

// NewSDKClient creates a new client for baseURL.
func NewSDKClient(baseURL string) *SDKClient {
	return &SDKClient{
		BaseURL: strings.TrimSuffix(baseURL, "/"),
		HTTPClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// Login exchanges credentials for a token pair and wraps it in a Session.
func (c *SDKClient) Login(ctx context.Context, email, password string) (*Session, error) {
	tokens, err := c.LoginTokens(ctx, email, password)
	if err != nil {
		return nil, err
	}
	return c.NewSessionFromTokens(tokens), nil
}

// LoginTokens exchanges credentials for a raw token pair.
func (c *SDKClient) LoginTokens(ctx context.Context, email, password string) (TokenResponse, error) {
	resp, err := c.doJSON(ctx, http.MethodPost, PathLogin, "", LoginRequest{Email: email, Password: password})
	if err != nil {
		return TokenResponse{}, err
	}
	return decodeEnvelope[TokenResponse](resp, http.StatusOK)
}

// Refresh mints a new access token. The returned refresh token is the one
// that was sent.
func (c *SDKClient) Refresh(ctx context.Context, refreshToken string) (TokenResponse, error) {
	resp, err := c.doJSON(ctx, http.MethodPost, PathRefresh, "", RefreshRequest{RefreshToken: refreshToken})
	if err != nil {
		return TokenResponse{}, err
	}
	return decodeEnvelope[TokenResponse](resp, http.StatusOK)
}

// Register creates a user. bearer may be empty for self registration; an
// ADMIN access token is needed to create ADMIN users.
func (c *SDKClient) Register(ctx context.Context, bearer string, req RegisterRequest) (UserResponse, error) {
	resp, err := c.doJSON(ctx, http.MethodPost, PathRegister, bearer, req)
	if err != nil {
		return UserResponse{}, err
	}
	return decodeEnvelope[UserResponse](resp, http.StatusCreated)
}

// Logout revokes both tokens of a pair.
func (c *SDKClient) Logout(ctx context.Context, accessToken, refreshToken string) error {
	resp, err := c.doJSON(ctx, http.MethodPost, PathLogout, accessToken, LogoutRequest{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
	})
	if err != nil {
		return err
	}
	_, err = decodeEnvelope[struct{}](resp, http.StatusOK)
	return err
}

// GetLiveness calls /livez.
func (c *SDKClient) GetLiveness(ctx context.Context) (HealthResponse, error) {
	resp, err := c.doJSON(ctx, http.MethodGet, PathLivez, "", nil)
	if err != nil {
		return HealthResponse{}, err
	}
	return decodePlain[HealthResponse](resp)
}

// GetReadiness calls /readyz. A degraded service still returns its
// health report, with Status set accordingly.
func (c *SDKClient) GetReadiness(ctx context.Context) (HealthResponse, error) {
	resp, err := c.doJSON(ctx, http.MethodGet, PathReadyz, "", nil)
	if err != nil {
		return HealthResponse{}, err
	}
	return decodePlain[HealthResponse](resp)
}
