package httptransport

import (
	"fmt"
	"log/slog"
	"net/http"

	"ashram/internal/authstate"
	"ashram/internal/content"
)

// publicPages maps route slug to page title for the content library.
var publicPages = map[string]string{
	"home":           "Welcome",
	"about":          "About the Ashram",
	"events":         "Events",
	"courses":        "Courses",
	"donations":      "Donations",
	"social-service": "Social Service",
}

// PageHandler serves the public content pages and the dashboard shells.
type PageHandler struct {
	library *content.Library
	auth    *authstate.Store
	logger  *slog.Logger
}

func NewPageHandler(library *content.Library, auth *authstate.Store, logger *slog.Logger) *PageHandler {
	return &PageHandler{library: library, auth: auth, logger: logger}
}

func (h *PageHandler) handlePublicPage(slug string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		page, err := h.library.Page(slug, publicPages[slug])
		if err != nil {
			h.logger.ErrorContext(r.Context(), "page render failed", "error", err, "slug", slug)
			writeError(w, err)
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write(page)
	}
}

// handleDashboard renders a minimal dashboard shell. By the time this runs
// the gate has already admitted the request.
func (h *PageHandler) handleDashboard(title string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		email := ""
		if session := h.auth.Session(); session != nil {
			email = session.Email
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		fmt.Fprintf(w, "<!DOCTYPE html><html><head><title>%s</title></head><body><h1>%s</h1><p>Signed in as %s</p></body></html>", title, title, email)
	}
}

func (h *PageHandler) handleStatic(title, body string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		fmt.Fprintf(w, "<!DOCTYPE html><html><head><title>%s</title></head><body><h1>%s</h1><p>%s</p></body></html>", title, title, body)
	}
}

func (h *PageHandler) handleUnauthorized(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusForbidden)
	fmt.Fprint(w, "<!DOCTYPE html><html><head><title>Unauthorized</title></head><body><h1>Unauthorized</h1><p>You do not have permission to view this page.</p></body></html>")
}

func (h *PageHandler) handleNotFound(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusNotFound)
	fmt.Fprint(w, "<!DOCTYPE html><html><head><title>Not Found</title></head><body><h1>Page not found</h1><p><a href=\"/\">Return home</a></p></body></html>")
}
