package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/aussiebroadwan/fortress/internal/identity/domain"
	"github.com/aussiebroadwan/fortress/internal/identity/service"
	"github.com/aussiebroadwan/fortress/pkg/httpx"
	"github.com/aussiebroadwan/fortress/pkg/jwtx"
	"github.com/aussiebroadwan/fortress/pkg/slogx"

	_ "github.com/aussiebroadwan/fortress/api/identity" // Swagger docs
	httpSwagger "github.com/swaggo/http-swagger"
)

// Router holds shared dependencies for HTTP handlers.
type Router struct {
	Mux         *http.ServeMux
	middlewares []httpx.Middleware

	verifier     jwtx.Verifier
	buildVersion string
	startTime    time.Time
	logger       *slog.Logger
	db           Pinger

	AuthService    *service.AuthService
	MFAService     *service.MFAService
	RolesService   *service.RolesService
	AccountService *service.AccountService
}

func NewRouter(verifier jwtx.Verifier, buildVersion string, db Pinger, logger *slog.Logger) *Router {
	r := &Router{
		Mux:          http.NewServeMux(),
		verifier:     verifier,
		buildVersion: buildVersion,
		startTime:    time.Now(),
		db:           db,
		logger:       logger,
	}

	r.middlewares = []httpx.Middleware{
		slogx.HTTPMiddleware(r.logger),
	}

	return r
}

func (r *Router) ApplyRoutes() {
	r.registerAuth()
	r.registerMFA()
	r.registerRoles()
	r.registerUsers()
	r.registerAdmin()
	r.registerSystem()

	r.Mux.Handle("/swagger/", httpSwagger.Handler())
}

// ServeHTTP implements http.Handler for Router and applies the global middleware chain.
//
//	@title			Fortress Identity API
//	@version		0.1.0
//	@description	Account registration, password login with optional TOTP two-factor, and role management.
//	@description
//	@description				Access tokens are HS256 JWTs carrying the account's roles in the "role" claim.
//
//	@contact.name				AussieBroadWAN Team
//	@contact.url				https://github.com/aussiebroadwan/fortress
//
//	@license.name				MIT
//	@license.url				https://opensource.org/licenses/MIT
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

// bearer protects h with a token check and a per-account rate limit.
// Extra middlewares run after authentication.
func (r *Router) bearer(h http.HandlerFunc, limit httpx.RateLimitConfig, extra ...httpx.Middleware) http.Handler {
	mws := append([]httpx.Middleware{httpx.AuthnMiddleware(r.verifier)}, extra...)
	mws = append(mws, httpx.RateLimitByAccount(limit))
	return httpx.Chain(h, mws...)
}

func (r *Router) registerAuth() {
	h := &AuthHandler{AuthService: r.AuthService}

	// keyed on IP + email from the JSON body
	r.Mux.Handle("POST /api/auth/register",
		httpx.Chain(http.HandlerFunc(h.HandleRegister),
			httpx.RateLimitByIPAndJSONField(httpx.StrictLimit, "email"),
		),
	)
	r.Mux.Handle("POST /api/auth/login",
		httpx.Chain(http.HandlerFunc(h.HandleLogin),
			httpx.RateLimitByIPAndJSONField(httpx.StrictLimit, "email"),
		),
	)
	r.Mux.Handle("POST /api/auth/mfa/verify",
		httpx.Chain(http.HandlerFunc(h.HandleVerifyMFA),
			httpx.RateLimitByIPAndJSONField(httpx.StrictLimit, "email"),
		),
	)
}

func (r *Router) registerMFA() {
	h := &MFAHandler{MFAService: r.MFAService}

	r.Mux.Handle("POST /api/auth/mfa/enable", r.bearer(h.HandleEnable, httpx.ModerateLimit))
	// strict: codes are six digits
	r.Mux.Handle("POST /api/auth/mfa/confirm", r.bearer(h.HandleConfirm, httpx.StrictLimit))
}

func (r *Router) registerRoles() {
	h := &RolesHandler{RolesService: r.RolesService}
	admin := httpx.RequireAnyRole(domain.RoleAdmin.String())

	r.Mux.Handle("POST /api/auth/roles", r.bearer(h.HandleAssign, httpx.ModerateLimit, admin))
	r.Mux.Handle("DELETE /api/auth/roles", r.bearer(h.HandleRemove, httpx.ModerateLimit, admin))
}

func (r *Router) registerUsers() {
	h := &UsersHandler{AccountService: r.AccountService}

	r.Mux.Handle("GET /api/users/me", r.bearer(h.HandleMe, httpx.LenientLimit))
	r.Mux.Handle("PUT /api/users/me", r.bearer(h.HandleUpdateProfile, httpx.ModerateLimit))
	r.Mux.Handle("POST /api/users/me/password", r.bearer(h.HandleChangePassword, httpx.StrictLimit))
}

func (r *Router) registerAdmin() {
	h := &AdminHandler{AccountService: r.AccountService}
	admin := httpx.RequireAnyRole(domain.RoleAdmin.String())

	r.Mux.Handle("GET /api/admin/dashboard", r.bearer(h.HandleDashboard, httpx.LenientLimit, admin))
	r.Mux.Handle("POST /api/admin/users/{id}/activate", r.bearer(h.HandleActivate, httpx.ModerateLimit, admin))
	r.Mux.Handle("POST /api/admin/users/{id}/deactivate", r.bearer(h.HandleDeactivate, httpx.ModerateLimit, admin))
}

func (r *Router) registerSystem() {
	r.Mux.Handle("GET /livez",
		httpx.Chain(LivezHandler(r.startTime, r.buildVersion),
			httpx.RateLimitByIP(httpx.LenientLimit),
		),
	)
	r.Mux.Handle("GET /readyz",
		httpx.Chain(ReadyzHandler(r.startTime, r.buildVersion, r.db),
			httpx.RateLimitByIP(httpx.LenientLimit),
		),
	)
}
