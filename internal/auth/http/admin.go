package http

import (
	"net/http"

	"github.com/Rapter1990/carservice-sub000/pkg/authsdk"
	"github.com/Rapter1990/carservice-sub000/pkg/httpx"
)

// HandleAdminPing godoc
//
//	@Summary		Admin Ping
//	@Description	Answers only for callers holding the ADMIN role.
//	@Tags			Admin
//	@Produce		json
//	@Security		BearerAuth
//	@Success		200	{object}	authsdk.Response[authsdk.PingResponse]	"pong"
//	@Failure		401	{object}	authsdk.ErrorResponse					"missing or invalid token"
//	@Failure		403	{object}	authsdk.ErrorResponse					"caller is not an admin"
//	@Router			/api/v1/admin/ping [get].
func HandleAdminPing(w http.ResponseWriter, r *http.Request) {
	id, _ := httpx.IdentityFromContext(r.Context())
	httpx.WriteSuccess(w, http.StatusOK, authsdk.PingResponse{
		Message: "pong",
		UserID:  id.UserID,
	})
}
