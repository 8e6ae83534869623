package httptransport

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"ashram/internal/admin"
	"ashram/internal/authstate"
	"ashram/internal/content"
	"ashram/internal/gate"
	"ashram/internal/legacyadmin"
	"ashram/internal/platform/middleware"
	id "ashram/pkg/domain"
)

// Deps carries everything the router wires together.
type Deps struct {
	Auth     *authstate.Store
	Verifier EmailVerifier
	Roles    *admin.Service
	Checker  *legacyadmin.Checker
	Gate     *gate.Gate
	Library  *content.Library
	Logger   *slog.Logger
}

// NewRouter wires the full route tree: public content, auth endpoints,
// role-gated dashboards, break-glass admin routes, and the role-mutation API.
func NewRouter(d Deps) http.Handler {
	authHandler := NewAuthHandler(d.Auth, d.Verifier, d.Logger)
	adminHandler := NewAdminHandler(d.Roles, d.Checker, d.Logger)
	pageHandler := NewPageHandler(d.Library, d.Auth, d.Logger)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger(d.Logger))
	r.Use(middleware.Recovery(d.Logger))
	r.Use(middleware.ClientMetadata)

	// Public content pages.
	r.Get("/", pageHandler.handlePublicPage("home"))
	r.Get("/about", pageHandler.handlePublicPage("about"))
	r.Get("/events", pageHandler.handlePublicPage("events"))
	r.Get("/courses", pageHandler.handlePublicPage("courses"))
	r.Get("/donations", pageHandler.handlePublicPage("donations"))
	r.Get("/social-service", pageHandler.handlePublicPage("social-service"))

	// Auth pages and endpoints.
	r.Get("/auth", pageHandler.handleStatic("Sign In", "Sign in or create an account."))
	r.Get("/auth/verify", authHandler.handleVerify)
	r.Get("/admin-login", pageHandler.handleStatic("Admin Sign In", "Restricted. Authorized administrators only."))
	r.Get("/unauthorized", pageHandler.handleUnauthorized)

	r.Route("/api/auth", func(r chi.Router) {
		r.Post("/sign-up", authHandler.handleSignUp)
		r.Post("/sign-in", authHandler.handleSignIn)
		r.Post("/sign-out", authHandler.handleSignOut)
		r.Get("/me", authHandler.handleMe)
	})

	r.Route("/api/admin", func(r chi.Router) {
		r.Post("/login", adminHandler.handleLogin)
		r.Post("/logout", adminHandler.handleLogout)
		// Role mutations authenticate per request via the bearer token;
		// the service re-checks the caller's admin role on every call.
		r.Post("/roles/assign", adminHandler.handleAssignRole)
		r.Post("/roles/remove", adminHandler.handleRemoveRole)
	})

	// Role-gated dashboards.
	r.Group(func(r chi.Router) {
		r.Use(d.Gate.Protect(gate.Requirement{Roles: []id.Role{id.RoleDevotee}}))
		r.Get("/devotee-dashboard", pageHandler.handleDashboard("Devotee Dashboard"))
	})
	r.Group(func(r chi.Router) {
		r.Use(d.Gate.Protect(gate.Requirement{Roles: []id.Role{id.RoleMentor}}))
		r.Get("/mentor-dashboard", pageHandler.handleDashboard("Mentor Dashboard"))
	})
	r.Group(func(r chi.Router) {
		r.Use(d.Gate.Protect(gate.Requirement{Roles: []id.Role{id.RoleAdmin, id.RoleMentor}}))
		r.Get("/course-creation", pageHandler.handleDashboard("Course Creation"))
		r.Get("/course-edit/{courseID}", pageHandler.handleDashboard("Course Editor"))
	})

	// Break-glass admin routes. The backend admin role does not open these.
	r.Group(func(r chi.Router) {
		r.Use(d.Gate.Protect(gate.Requirement{BreakGlass: true}))
		r.Get("/admin", pageHandler.handleDashboard("Admin"))
		r.Get("/admin-dashboard", pageHandler.handleDashboard("Admin Dashboard"))
	})

	r.Handle("/metrics", promhttp.Handler())

	r.NotFound(pageHandler.handleNotFound)
	return r
}
