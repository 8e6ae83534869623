package gate

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"ashram/internal/audit"
	"ashram/internal/authstate"
	"ashram/internal/legacyadmin"
	"ashram/internal/notify"
	"ashram/internal/platform/metrics"
	id "ashram/pkg/domain"
	"ashram/pkg/requestcontext"
)

// Default redirect targets. Overridable for tests.
const (
	DefaultLoginPath        = "/auth"
	DefaultUnauthorizedPath = "/unauthorized"
)

// Gate wires the pure decision core to the HTTP layer: it waits for source
// readiness, evaluates, then performs exactly one side effect per decision
// (pass through, or one redirect with one notification).
type Gate struct {
	auth     *authstate.Store
	admin    *legacyadmin.Checker
	notifier notify.Notifier
	metrics  *metrics.Metrics
	auditor  *audit.Publisher
	logger   *slog.Logger
	tracer   trace.Tracer

	readyTimeout     time.Duration
	loginPath        string
	unauthorizedPath string
}

// New constructs a Gate. readyTimeout bounds how long a request may sit in
// the checking state before it is refused outright.
func New(
	auth *authstate.Store,
	admin *legacyadmin.Checker,
	notifier notify.Notifier,
	m *metrics.Metrics,
	auditor *audit.Publisher,
	logger *slog.Logger,
	readyTimeout time.Duration,
) *Gate {
	return &Gate{
		auth:             auth,
		admin:            admin,
		notifier:         notifier,
		metrics:          m,
		auditor:          auditor,
		logger:           logger,
		tracer:           otel.Tracer("ashram/gate"),
		readyTimeout:     readyTimeout,
		loginPath:        DefaultLoginPath,
		unauthorizedPath: DefaultUnauthorizedPath,
	}
}

// Protect returns middleware enforcing the requirement on every request that
// reaches the wrapped handler.
func (g *Gate) Protect(req Requirement) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx, span := g.tracer.Start(r.Context(), "gate.Protect",
				trace.WithAttributes(attribute.String("http.route", r.URL.Path)))
			defer span.End()

			// Hold the request while the session check is in flight. A
			// request must never be redirected off a not-yet-ready state.
			waitStart := time.Now()
			waitCtx, cancel := context.WithTimeout(ctx, g.readyTimeout)
			ready := g.auth.WaitReady(waitCtx)
			cancel()
			g.metrics.ObserveGateReadyWait(float64(time.Since(waitStart).Milliseconds()))

			if !ready {
				g.metrics.ObserveGateDecision("unavailable")
				g.logger.WarnContext(ctx, "gate readiness timed out", "path", r.URL.Path)
				writeUnavailable(w)
				return
			}

			in := Inputs{
				SessionReady:       true,
				AdminCheckComplete: true,
				Authenticated:      g.auth.IsAuthenticated(),
				Roles:              g.auth.Roles(),
				LegacyAdmin:        g.admin.IsAdmin(ctx),
			}

			outcome := Evaluate(req, in)
			span.SetAttributes(attribute.String("gate.outcome", string(outcome)))

			switch outcome {
			case OutcomeAllow:
				g.metrics.ObserveGateDecision("allow")
				if session := g.auth.Session(); session != nil {
					ctx = requestcontext.WithUserID(ctx, session.UserID)
					ctx = requestcontext.WithSessionID(ctx, session.ID)
				}
				next.ServeHTTP(w, r.WithContext(ctx))

			case OutcomeRedirectLogin:
				g.metrics.ObserveGateDecision("redirect_login")
				g.deny(ctx, r, req, in, "Please sign in to continue.")
				http.Redirect(w, r, g.loginPath, http.StatusSeeOther)

			case OutcomeRedirectUnauthorized:
				g.metrics.ObserveGateDecision("redirect_unauthorized")
				g.deny(ctx, r, req, in, "You do not have permission to view this page.")
				http.Redirect(w, r, g.unauthorizedPath, http.StatusSeeOther)

			default:
				// Evaluate cannot return checking once both sources are
				// ready; refuse rather than guess.
				g.metrics.ObserveGateDecision("unavailable")
				writeUnavailable(w)
			}
		})
	}
}

// deny emits the single notification, the audit record, and the diagnostic
// log for a redirect decision.
func (g *Gate) deny(ctx context.Context, r *http.Request, req Requirement, in Inputs, message string) {
	g.notifier.Notify(ctx, notify.LevelError, message)

	event := audit.Event{
		Category:  audit.CategorySecurity,
		Action:    string(audit.EventGateDenied),
		Timestamp: requestcontext.Now(ctx),
		Reason:    r.URL.Path,
		RequestID: requestcontext.RequestID(ctx),
	}
	if session := g.auth.Session(); session != nil {
		event.UserID = session.UserID
		event.Email = session.Email
	}
	if err := g.auditor.Emit(ctx, event); err != nil {
		g.logger.ErrorContext(ctx, "failed to emit audit event", "error", err, "action", audit.EventGateDenied)
	}

	// A backend admin role does not open break-glass routes. That is the
	// contract, but it surprises operators, so leave a trace when it bites.
	if req.BreakGlass && in.Roles.Has(id.RoleAdmin) {
		g.logger.WarnContext(ctx, "admin route denied for session holding the admin role; break-glass sign-in is required",
			"path", r.URL.Path,
		)
	}
}

func writeUnavailable(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusServiceUnavailable)
	_ = json.NewEncoder(w).Encode(map[string]string{
		"error": "authorization state unavailable, retry shortly",
	})
}
