package http

import (
	"errors"
	"net/http"
	"strings"

	"github.com/Rapter1990/carservice-sub000/internal/auth/domain"
	"github.com/Rapter1990/carservice-sub000/internal/auth/service"
	"github.com/Rapter1990/carservice-sub000/pkg/authsdk"
	"github.com/Rapter1990/carservice-sub000/pkg/httpx"
	"github.com/Rapter1990/carservice-sub000/pkg/jwtx"
	"github.com/Rapter1990/carservice-sub000/pkg/slogx"
)

type UsersHandler struct {
	AuthService *service.AuthService
}

// HandleRegister godoc
//
//	@Summary		Register User
//	@Description	Creates a user account. Anyone may register a USER; creating an ADMIN requires an ADMIN bearer token.
//	@Tags			Users
//	@Accept			json
//	@Produce		json
//	@Security		BearerAuth
//	@Param			request	body		authsdk.RegisterRequest								true	"account details"
//	@Success		201		{object}	authsdk.Response[authsdk.UserResponse]				"created user"
//	@Failure		400		{object}	authsdk.ErrorResponse								"validation error"
//	@Failure		403		{object}	authsdk.ErrorResponse								"admin role requested without admin caller"
//	@Failure		409		{object}	authsdk.ErrorResponse								"email already registered"
//	@Router			/api/v1/users/register [post].
func (h *UsersHandler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req authsdk.RegisterRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	var actor *jwtx.Identity
	if id, ok := httpx.IdentityFromContext(ctx); ok {
		actor = &id
	}

	user, err := h.AuthService.Register(ctx, actor, service.RegisterInput{
		Email:       req.Email,
		Password:    req.Password,
		FirstName:   req.FirstName,
		LastName:    req.LastName,
		PhoneNumber: req.PhoneNumber,
		Role:        req.Role,
	})
	if err != nil {
		writeServiceError(w, r, err, "register failed")
		return
	}

	httpx.WriteSuccess(w, http.StatusCreated, toUserResponse(user))
}

// HandleLogin godoc
//
//	@Summary		Login
//	@Description	Exchanges email and password for an access and refresh token pair.
//	@Tags			Users
//	@Accept			json
//	@Produce		json
//	@Param			request	body		authsdk.LoginRequest						true	"credentials"
//	@Success		200		{object}	authsdk.Response[authsdk.TokenResponse]		"token pair"
//	@Failure		400		{object}	authsdk.ErrorResponse						"malformed request"
//	@Failure		401		{object}	authsdk.ErrorResponse						"invalid email or password"
//	@Failure		403		{object}	authsdk.ErrorResponse						"account not active"
//	@Failure		429		{object}	authsdk.ErrorResponse						"rate limited"
//	@Header			200		{string}	Cache-Control								"no-store"
//	@Router			/api/v1/users/login [post].
func (h *UsersHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var req authsdk.LoginRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.Email) == "" || req.Password == "" {
		authsdk.ErrInvalidRequest.WriteError(w)
		return
	}

	pair, err := h.AuthService.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		// Unknown email and wrong password look the same to the caller so
		// login cannot be used to probe for accounts.
		if errors.Is(err, service.ErrUserNotFound) {
			err = service.ErrPasswordNotValid
		}
		writeServiceError(w, r, err, "login failed")
		return
	}

	httpx.WriteSuccess(w, http.StatusOK, toTokenResponse(pair))
}

// HandleRefresh godoc
//
//	@Summary		Refresh Access Token
//	@Description	Issues a new access token for a valid, unrevoked refresh token. The refresh token is returned unchanged.
//	@Tags			Users
//	@Accept			json
//	@Produce		json
//	@Param			request	body		authsdk.RefreshRequest						true	"refresh token"
//	@Success		200		{object}	authsdk.Response[authsdk.TokenResponse]		"token pair"
//	@Failure		400		{object}	authsdk.ErrorResponse						"malformed request"
//	@Failure		401		{object}	authsdk.ErrorResponse						"refresh token invalid, expired or revoked"
//	@Failure		403		{object}	authsdk.ErrorResponse						"account not active"
//	@Failure		404		{object}	authsdk.ErrorResponse						"user no longer exists"
//	@Router			/api/v1/users/refresh-token [post].
func (h *UsersHandler) HandleRefresh(w http.ResponseWriter, r *http.Request) {
	var req authsdk.RefreshRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.RefreshToken) == "" {
		authsdk.ErrInvalidRequest.WriteError(w)
		return
	}

	pair, err := h.AuthService.Refresh(r.Context(), strings.TrimSpace(req.RefreshToken))
	if err != nil {
		writeServiceError(w, r, err, "refresh failed")
		return
	}

	httpx.WriteSuccess(w, http.StatusOK, toTokenResponse(pair))
}

// HandleLogout godoc
//
//	@Summary		Logout
//	@Description	Revokes an access and refresh token pair. Both are revoked or neither; repeating the call fails.
//	@Tags			Users
//	@Accept			json
//	@Produce		json
//	@Security		BearerAuth
//	@Param			request	body		authsdk.LogoutRequest		true	"tokens to revoke"
//	@Success		200		{object}	authsdk.Response[string]	"logged out"
//	@Failure		400		{object}	authsdk.ErrorResponse		"malformed request"
//	@Failure		401		{object}	authsdk.ErrorResponse		"token invalid, expired or already invalidated"
//	@Router			/api/v1/users/logout [post].
func (h *UsersHandler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	var req authsdk.LogoutRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	access, refresh := strings.TrimSpace(req.AccessToken), strings.TrimSpace(req.RefreshToken)
	if access == "" || refresh == "" {
		authsdk.ErrInvalidRequest.WriteError(w)
		return
	}

	if err := h.AuthService.Logout(r.Context(), access, refresh); err != nil {
		writeServiceError(w, r, err, "logout failed")
		return
	}

	slogx.FromContext(r.Context()).Info("user logged out")
	httpx.WriteSuccess(w, http.StatusOK, "logout successful")
}

// HandleMe godoc
//
//	@Summary		Current User
//	@Description	Returns the identity resolved from the caller's access token.
//	@Tags			Users
//	@Produce		json
//	@Security		BearerAuth
//	@Success		200	{object}	authsdk.Response[authsdk.MeResponse]	"caller identity"
//	@Failure		401	{object}	authsdk.ErrorResponse					"missing or invalid token"
//	@Router			/api/v1/users/me [get].
func (h *UsersHandler) HandleMe(w http.ResponseWriter, r *http.Request) {
	id, ok := httpx.IdentityFromContext(r.Context())
	if !ok {
		authsdk.ErrInvalidToken.WriteError(w)
		return
	}

	httpx.WriteSuccess(w, http.StatusOK, authsdk.MeResponse{
		UserID:         id.UserID,
		Email:          id.Email,
		FirstName:      id.FirstName,
		LastName:       id.LastName,
		Role:           id.Role,
		Status:         id.Status,
		TokenExpiresAt: id.ExpiresAt.Unix(),
	})
}

func toTokenResponse(p domain.TokenPair) authsdk.TokenResponse {
	return authsdk.TokenResponse{
		AccessToken:          p.AccessToken,
		AccessTokenExpiresAt: p.AccessTokenExpiresAt.Unix(),
		RefreshToken:         p.RefreshToken,
	}
}

func toUserResponse(u domain.User) authsdk.UserResponse {
	return authsdk.UserResponse{
		ID:          u.ID,
		Email:       u.Email,
		FirstName:   u.FirstName,
		LastName:    u.LastName,
		PhoneNumber: u.PhoneNumber,
		Role:        string(u.Role),
		Status:      string(u.Status),
		CreatedAt:   u.CreatedAt,
		CreatedBy:   u.CreatedBy,
	}
}
