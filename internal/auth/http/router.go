package http

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	httpSwagger "github.com/swaggo/http-swagger"

	_ "github.com/Rapter1990/carservice-sub000/api/auth" // Swagger docs
	"github.com/Rapter1990/carservice-sub000/internal/auth/domain"
	"github.com/Rapter1990/carservice-sub000/internal/auth/service"
	"github.com/Rapter1990/carservice-sub000/pkg/httpx"
	"github.com/Rapter1990/carservice-sub000/pkg/jwtx"
	"github.com/Rapter1990/carservice-sub000/pkg/slogx"
)

// Pinger is a dependency readyz can probe.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Router holds shared dependencies for HTTP handlers.
type Router struct {
	Mux         *http.ServeMux
	middlewares []httpx.Middleware

	codec        *jwtx.Codec
	buildVersion string
	startTime    time.Time
	logger       *slog.Logger

	database   Pinger
	revocation Pinger

	TokenService *service.TokenService
	AuthService  *service.AuthService

	// Rate limit profiles, defaulting to the httpx package profiles.
	CredentialLimit httpx.RateLimitConfig
	UserLimit       httpx.RateLimitConfig
	PublicLimit     httpx.RateLimitConfig

	// ClientIP keys the per-IP limits. Nil means the direct peer address.
	ClientIP httpx.KeyExtractor
}

func NewRouter(
	codec *jwtx.Codec,
	buildVersion string,
	database, revocation Pinger,
	logger *slog.Logger,
) *Router {
	return &Router{
		Mux:             http.NewServeMux(),
		codec:           codec,
		buildVersion:    buildVersion,
		startTime:       time.Now(),
		logger:          logger,
		database:        database,
		revocation:      revocation,
		CredentialLimit: httpx.CredentialLimit,
		UserLimit:       httpx.UserLimit,
		PublicLimit:     httpx.PublicLimit,
	}
}

// ApplyRoutes registers every endpoint. TokenService and AuthService must
// be set first.
func (r *Router) ApplyRoutes() {
	// Every request is logged; a bearer token, when present, is resolved
	// once here and routes decide whether they need it.
	r.middlewares = []httpx.Middleware{
		slogx.HTTPMiddleware(r.logger),
		httpx.AuthnMiddleware(r.TokenService),
	}

	r.registerUsers()
	r.registerAdmin()
	r.registerSystem()

	r.Mux.Handle("GET /swagger/",
		httpx.Chain(httpSwagger.Handler(),
			httpx.RateLimitByIP(r.PublicLimit, r.ClientIP),
		),
	)
}

// ServeHTTP implements http.Handler for Router and applies the global middleware chain.
//
//	@title			Car Service Authentication API
//	@version		1.0.0
//	@description	Login, token refresh, logout and registration for the car service backend.
//	@description
//	@description				Access and refresh tokens are RS256 signed JWTs. Send the access token as "Bearer {token}".
//
//	@host						localhost:8080
//	@BasePath					/
//
//	@schemes					http https
//
//	@securityDefinitions.apikey	BearerAuth
//	@in							header
//	@name						Authorization
//	@description				JWT access token. Format: "Bearer {token}".
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	httpx.Chain(r.Mux, r.middlewares...).ServeHTTP(w, req)
}

func (r *Router) registerUsers() {
	h := &UsersHandler{AuthService: r.AuthService}

	// Credential endpoints - strict limit by IP against brute force
	r.Mux.Handle("POST /api/v1/users/register",
		httpx.Chain(http.HandlerFunc(h.HandleRegister),
			httpx.RateLimitByIP(r.CredentialLimit, r.ClientIP),
		),
	)
	r.Mux.Handle("POST /api/v1/users/login",
		httpx.Chain(http.HandlerFunc(h.HandleLogin),
			httpx.RateLimitByIP(r.CredentialLimit, r.ClientIP),
		),
	)
	r.Mux.Handle("POST /api/v1/users/refresh-token",
		httpx.Chain(http.HandlerFunc(h.HandleRefresh),
			httpx.RateLimitByIP(r.CredentialLimit, r.ClientIP),
		),
	)

	// Authenticated endpoints - limit by user
	r.Mux.Handle("POST /api/v1/users/logout",
		httpx.Chain(http.HandlerFunc(h.HandleLogout),
			httpx.RequireAuthenticated(),
			httpx.RateLimitByUser(r.UserLimit, r.ClientIP),
		),
	)
	r.Mux.Handle("GET /api/v1/users/me",
		httpx.Chain(http.HandlerFunc(h.HandleMe),
			httpx.RequireAuthenticated(),
			httpx.RateLimitByUser(r.UserLimit, r.ClientIP),
		),
	)
}

func (r *Router) registerAdmin() {
	r.Mux.Handle("GET /api/v1/admin/ping",
		httpx.Chain(http.HandlerFunc(HandleAdminPing),
			httpx.RequireRole(string(domain.RoleAdmin)),
			httpx.RateLimitByUser(r.UserLimit, r.ClientIP),
		),
	)
}

func (r *Router) registerSystem() {
	// Probes poll often, so they share the lenient public profile.
	r.Mux.Handle("GET /livez",
		httpx.Chain(http.HandlerFunc(r.HandleLivez),
			httpx.RateLimitByIP(r.PublicLimit, r.ClientIP),
		),
	)
	r.Mux.Handle("GET /readyz",
		httpx.Chain(http.HandlerFunc(r.HandleReadyz),
			httpx.RateLimitByIP(r.PublicLimit, r.ClientIP),
		),
	)
}
