package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/Rapter1990/carservice-sub000/internal/auth/service"
	"github.com/Rapter1990/carservice-sub000/pkg/authsdk"
	"github.com/Rapter1990/carservice-sub000/pkg/httpx"
	"github.com/Rapter1990/carservice-sub000/pkg/jwtx"
	"github.com/Rapter1990/carservice-sub000/pkg/slogx"
)

const maxBodyBytes = 1 << 20

// decodeJSON reads a JSON request body into v. On failure it writes a 400
// and returns false.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		slogx.FromContext(r.Context()).Debug("invalid request body", "error", err)
		authsdk.ErrInvalidRequest.WriteError(w)
		return false
	}
	return true
}

// writeServiceError maps service and token errors onto API errors.
func writeServiceError(w http.ResponseWriter, r *http.Request, err error, msg string) {
	log := slogx.FromContext(r.Context())

	switch {
	case errors.Is(err, service.ErrPasswordNotValid):
		log.Info(msg, "error", err)
		authsdk.ErrInvalidCredentials.WriteError(w)
	case errors.Is(err, jwtx.ErrExpired):
		log.Info(msg, "error", err)
		authsdk.ErrTokenExpired.WriteError(w)
	case errors.Is(err, jwtx.ErrMalformed),
		errors.Is(err, jwtx.ErrInvalidSig),
		errors.Is(err, jwtx.ErrIssuer),
		errors.Is(err, jwtx.ErrInvalidClaim):
		log.Warn(msg, "error", err)
		authsdk.ErrInvalidToken.WriteError(w)
	case errors.Is(err, service.ErrTokenAlreadyInvalidated):
		log.Warn(msg, "error", err)
		authsdk.ErrTokenAlreadyInvalidated.WriteError(w)
	case errors.Is(err, service.ErrUserNotFound):
		log.Info(msg, "error", err)
		authsdk.ErrUserNotFound.WriteError(w)
	case errors.Is(err, service.ErrUserStatusNotValid):
		log.Info(msg, "error", err)
		authsdk.ErrUserStatusNotValid.WriteError(w)
	case errors.Is(err, service.ErrUserAlreadyExists):
		authsdk.ErrUserAlreadyExists.WriteError(w)
	case errors.Is(err, service.ErrAccessDenied):
		log.Warn(msg, "error", err)
		authsdk.ErrAccessDenied.WriteError(w)
	case errors.Is(err, service.ErrInvalidInput):
		authsdk.NewAPIError(http.StatusBadRequest, httpx.HeaderValidationError, err.Error()).WriteError(w)
	default:
		log.Error(msg, "error", err)
		authsdk.ErrServerError.WriteError(w)
	}
}
