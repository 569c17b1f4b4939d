package http

import (
	"context"
	"net/http"
	"time"

	"github.com/Rapter1990/carservice-sub000/pkg/authsdk"
	"github.com/Rapter1990/carservice-sub000/pkg/httpx"
)

const (
	readyzTimeout = 2 * time.Second

	statusOK       = "ok"
	statusDegraded = "degraded"
)

func (r *Router) healthReport(status string, checks *authsdk.HealthChecks) authsdk.HealthResponse {
	return authsdk.HealthResponse{
		Status:  status,
		Uptime:  time.Since(r.startTime).Round(time.Second).String(),
		Version: r.buildVersion,
		Checks:  checks,
	}
}

// HandleLivez godoc
//
//	@Summary		Liveness probe
//	@Description	Returns 200 while the process is able to serve requests. Dependencies are not checked.
//	@Tags			Health
//	@Produce		json
//	@Success		200	{object}	authsdk.HealthResponse	"status, uptime, version"
//	@Router			/livez [get].
func (r *Router) HandleLivez(w http.ResponseWriter, _ *http.Request) {
	httpx.WriteJSON(w, http.StatusOK, r.healthReport(statusOK, nil))
}

// HandleReadyz godoc
//
//	@Summary		Readiness probe
//	@Description	Checks the user database, the revocation store and the token signer.
//	@Description	Any failing check turns the status to degraded with a 503.
//	@Tags			Health
//	@Produce		json
//	@Success		200	{object}	authsdk.HealthResponse	"status, uptime, version, checks"
//	@Failure		503	{object}	authsdk.HealthResponse	"status, uptime, version, checks - service not ready"
//	@Router			/readyz [get].
func (r *Router) HandleReadyz(w http.ResponseWriter, req *http.Request) {
	ctx, cancel := context.WithTimeout(req.Context(), readyzTimeout)
	defer cancel()

	healthy := true
	check := func(p Pinger) string {
		if p == nil {
			healthy = false
			return "error: not configured"
		}
		if err := p.Ping(ctx); err != nil {
			healthy = false
			return "error: " + err.Error()
		}
		return statusOK
	}

	checks := &authsdk.HealthChecks{
		Database:   check(r.database),
		Revocation: check(r.revocation),
		Signer:     statusOK,
	}
	if r.codec == nil || !r.codec.Ready() {
		checks.Signer = "error: no keys loaded"
		healthy = false
	}

	if !healthy {
		httpx.WriteJSON(w, http.StatusServiceUnavailable, r.healthReport(statusDegraded, checks))
		return
	}
	httpx.WriteJSON(w, http.StatusOK, r.healthReport(statusOK, checks))
}
