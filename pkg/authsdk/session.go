package authsdk

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"
)

// refreshBuffer is how long before expiry a Session refreshes.
const refreshBuffer = 30 * time.Second

// ErrNoRefreshToken is returned when the access token expired and the
// session has nothing to refresh it with.
var ErrNoRefreshToken = errors.New("authsdk: access token expired and no refresh token available")

// Session is an authenticated session that refreshes its access token
// automatically.
type Session struct {
	client *SDKClient

	mu           sync.RWMutex
	accessToken  string
	refreshToken string
	expiresAt    time.Time
}

// NewSessionFromTokens wraps an existing token pair.
func (c *SDKClient) NewSessionFromTokens(tokens TokenResponse) *Session {
	return &Session{
		client:       c,
		accessToken:  tokens.AccessToken,
		refreshToken: tokens.RefreshToken,
		expiresAt:    time.Unix(tokens.AccessTokenExpiresAt, 0).Add(-refreshBuffer),
	}
}

// AccessToken returns the current access token without checking expiry.
func (s *Session) AccessToken() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.accessToken
}

// RefreshToken returns the refresh token.
func (s *Session) RefreshToken() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.refreshToken
}

// getValidToken returns the access token, refreshing it first if it is
// about to expire.
func (s *Session) getValidToken(ctx context.Context) (string, error) {
	s.mu.RLock()
	if time.Now().Before(s.expiresAt) {
		token := s.accessToken
		s.mu.RUnlock()
		return token, nil
	}
	s.mu.RUnlock()

	s.mu.Lock()
	defer s.mu.Unlock()

	// Another goroutine may have refreshed while we waited.
	if time.Now().Before(s.expiresAt) {
		return s.accessToken, nil
	}
	if s.refreshToken == "" {
		return "", ErrNoRefreshToken
	}

	tokens, err := s.client.Refresh(ctx, s.refreshToken)
	if err != nil {
		return "", fmt.Errorf("failed to refresh token: %w", err)
	}

	s.accessToken = tokens.AccessToken
	s.expiresAt = time.Unix(tokens.AccessTokenExpiresAt, 0).Add(-refreshBuffer)
	return s.accessToken, nil
}

// Me returns the caller's identity as the server sees it.
func (s *Session) Me(ctx context.Context) (MeResponse, error) {
	token, err := s.getValidToken(ctx)
	if err != nil {
		return MeResponse{}, err
	}
	resp, err := s.client.doJSON(ctx, http.MethodGet, PathMe, token, nil)
	if err != nil {
		return MeResponse{}, err
	}
	return decodeEnvelope[MeResponse](resp, http.StatusOK)
}

// AdminPing calls the ADMIN-only ping endpoint.
func (s *Session) AdminPing(ctx context.Context) (PingResponse, error) {
	token, err := s.getValidToken(ctx)
	if err != nil {
		return PingResponse{}, err
	}
	resp, err := s.client.doJSON(ctx, http.MethodGet, PathAdminPing, token, nil)
	if err != nil {
		return PingResponse{}, err
	}
	return decodeEnvelope[PingResponse](resp, http.StatusOK)
}

// Register creates a user acting as this session's user.
func (s *Session) Register(ctx context.Context, req RegisterRequest) (UserResponse, error) {
	token, err := s.getValidToken(ctx)
	if err != nil {
		return UserResponse{}, err
	}
	return s.client.Register(ctx, token, req)
}

// Logout revokes the session's tokens. The session is unusable afterwards.
func (s *Session) Logout(ctx context.Context) error {
	s.mu.RLock()
	access, refresh := s.accessToken, s.refreshToken
	s.mu.RUnlock()

	return s.client.Logout(ctx, access, refresh)
}
