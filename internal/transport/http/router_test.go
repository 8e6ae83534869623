package httptransport

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"ashram/internal/admin"
	"ashram/internal/audit"
	"ashram/internal/authstate"
	"ashram/internal/content"
	"ashram/internal/email"
	"ashram/internal/gate"
	"ashram/internal/identity"
	"ashram/internal/identity/local"
	profilestore "ashram/internal/identity/store/profile"
	rolestore "ashram/internal/identity/store/role"
	sessionstore "ashram/internal/identity/store/session"
	userstore "ashram/internal/identity/store/user"
	"ashram/internal/legacyadmin"
	"ashram/internal/notify"
	id "ashram/pkg/domain"
)

const (
	operatorEmail    = "tridibesh.dspt@gmail.com"
	operatorPassword = "operator-secret-pw"
)

type appFixture struct {
	router   http.Handler
	provider *local.Provider
	tokens   *identity.JWTService
	roles    *rolestore.InMemoryRoleStore
	auth     *authstate.Store
	recorder *notify.Recorder
}

func newAppFixture(t *testing.T) *appFixture {
	t.Helper()
	logger := slog.Default()
	auditor := audit.NewPublisher(audit.NewInMemoryStore(), logger)
	recorder := notify.NewRecorder()

	tokens := identity.NewJWTService("router-test-key", "ashram-test", "ashram-web")
	roles := rolestore.New()
	provider := local.New(
		userstore.New(), profilestore.New(), roles, sessionstore.New(),
		tokens, email.NewNoopSender(logger), auditor, logger,
		local.WithSessionTTL(time.Hour),
	)

	auth := authstate.New(provider, recorder, nil, logger)
	auth.Initialize(context.Background(), "")
	t.Cleanup(auth.Close)

	hash, err := bcrypt.GenerateFromPassword([]byte(operatorPassword), bcrypt.MinCost)
	require.NoError(t, err)
	checker := legacyadmin.NewChecker(operatorEmail, string(hash), legacyadmin.NewInMemoryMarkerStore(), auditor, logger)

	router := NewRouter(Deps{
		Auth:     auth,
		Verifier: provider,
		Roles:    admin.NewService(provider, roles, auditor, nil, logger),
		Checker:  checker,
		Gate:     gate.New(auth, checker, recorder, nil, auditor, logger, time.Second),
		Library:  content.NewLibrary(""),
		Logger:   logger,
	})

	return &appFixture{
		router:   router,
		provider: provider,
		tokens:   tokens,
		roles:    roles,
		auth:     auth,
		recorder: recorder,
	}
}

func (f *appFixture) do(t *testing.T, method, path string, body any, header http.Header) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	for key, values := range header {
		for _, v := range values {
			req.Header.Add(key, v)
		}
	}
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)
	return rec
}

// registerVerified creates a verified account with the given roles and
// returns its user ID.
func (f *appFixture) registerVerified(t *testing.T, emailAddr string, roles ...id.Role) id.UserID {
	t.Helper()
	ctx := context.Background()
	user, err := f.provider.SignUp(ctx, identity.SignUpParams{Email: emailAddr, Password: "long-enough-pw"})
	require.NoError(t, err)

	verifyToken, err := f.tokens.MintVerifyToken(user.ID, emailAddr, time.Hour)
	require.NoError(t, err)
	require.NoError(t, f.provider.VerifyEmail(ctx, verifyToken))

	for _, role := range roles {
		require.NoError(t, f.roles.Assign(ctx, user.ID, role))
	}
	return user.ID
}

// signIn authenticates through the HTTP surface and waits for the role
// snapshot to land.
func (f *appFixture) signIn(t *testing.T, emailAddr string, roles ...id.Role) string {
	t.Helper()
	rec := f.do(t, http.MethodPost, "/api/auth/sign-in", map[string]string{
		"email":    emailAddr,
		"password": "long-enough-pw",
	}, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.NotEmpty(t, resp.Token)

	require.Eventually(t, func() bool {
		if !f.auth.IsAuthenticated() {
			return false
		}
		set := f.auth.Roles()
		for _, want := range roles {
			if !set.Has(want) {
				return false
			}
		}
		return true
	}, time.Second, 10*time.Millisecond)
	return resp.Token
}

func TestRouter_PublicPages(t *testing.T) {
	f := newAppFixture(t)
	for _, path := range []string{"/", "/about", "/events", "/courses", "/donations", "/social-service"} {
		rec := f.do(t, http.MethodGet, path, nil, nil)
		assert.Equal(t, http.StatusOK, rec.Code, path)
		assert.Contains(t, rec.Header().Get("Content-Type"), "text/html", path)
	}
}

func TestRouter_NotFoundFallback(t *testing.T) {
	f := newAppFixture(t)
	rec := f.do(t, http.MethodGet, "/no-such-page", nil, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRouter_SignUpFlow(t *testing.T) {
	f := newAppFixture(t)

	rec := f.do(t, http.MethodPost, "/api/auth/sign-up", map[string]string{
		"email":     "fresh@ashram.example",
		"password":  "long-enough-pw",
		"full_name": "Fresh Devotee",
	}, nil)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	// Registration must not authenticate.
	assert.False(t, f.auth.IsAuthenticated())

	// Sign-in before verification is refused.
	rec = f.do(t, http.MethodPost, "/api/auth/sign-in", map[string]string{
		"email":    "fresh@ashram.example",
		"password": "long-enough-pw",
	}, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = f.do(t, http.MethodPost, "/api/auth/sign-up", map[string]string{
		"email":    "not-an-email",
		"password": "long-enough-pw",
	}, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRouter_RoleGatedDashboards(t *testing.T) {
	f := newAppFixture(t)
	f.registerVerified(t, "devotee@ashram.example", id.RoleDevotee)

	// Anonymous requests bounce to the login page.
	rec := f.do(t, http.MethodGet, "/devotee-dashboard", nil, nil)
	require.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/auth", rec.Header().Get("Location"))

	f.signIn(t, "devotee@ashram.example", id.RoleDevotee)

	rec = f.do(t, http.MethodGet, "/devotee-dashboard", nil, nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	// Wrong role bounces to the unauthorized page.
	rec = f.do(t, http.MethodGet, "/mentor-dashboard", nil, nil)
	require.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/unauthorized", rec.Header().Get("Location"))
}

func TestRouter_MentorReachesCourseRoutes(t *testing.T) {
	f := newAppFixture(t)
	f.registerVerified(t, "mentor@ashram.example", id.RoleMentor)
	f.signIn(t, "mentor@ashram.example", id.RoleMentor)

	rec := f.do(t, http.MethodGet, "/course-creation", nil, nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = f.do(t, http.MethodGet, "/course-edit/42", nil, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRouter_BreakGlassFlow(t *testing.T) {
	f := newAppFixture(t)

	// Even a session holding the backend admin role is bounced.
	f.registerVerified(t, "backend-admin@ashram.example", id.RoleAdmin)
	f.signIn(t, "backend-admin@ashram.example", id.RoleAdmin)

	rec := f.do(t, http.MethodGet, "/admin-dashboard", nil, nil)
	require.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/unauthorized", rec.Header().Get("Location"))

	// Wrong break-glass credentials are rejected.
	rec = f.do(t, http.MethodPost, "/api/admin/login", map[string]string{
		"email":    operatorEmail,
		"password": "wrong",
	}, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	// Correct credentials open the admin routes.
	rec = f.do(t, http.MethodPost, "/api/admin/login", map[string]string{
		"email":    operatorEmail,
		"password": operatorPassword,
	}, nil)
	require.Equal(t, http.StatusNoContent, rec.Code)

	rec = f.do(t, http.MethodGet, "/admin-dashboard", nil, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	rec = f.do(t, http.MethodGet, "/admin", nil, nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	// Logout closes the channel again.
	rec = f.do(t, http.MethodPost, "/api/admin/logout", nil, nil)
	require.Equal(t, http.StatusNoContent, rec.Code)

	rec = f.do(t, http.MethodGet, "/admin-dashboard", nil, nil)
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/unauthorized", rec.Header().Get("Location"))
}

func TestRouter_RoleMutationAPI(t *testing.T) {
	f := newAppFixture(t)
	f.registerVerified(t, "admin@ashram.example", id.RoleAdmin)
	targetID := f.registerVerified(t, "target@ashram.example")

	adminToken := f.signIn(t, "admin@ashram.example", id.RoleAdmin)
	authHeader := http.Header{"Authorization": []string{"Bearer " + adminToken}}
	body := map[string]string{"user_id": targetID.String(), "role": "mentor"}

	rec := f.do(t, http.MethodPost, "/api/admin/roles/assign", body, authHeader)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	// Assigning again is still success.
	rec = f.do(t, http.MethodPost, "/api/admin/roles/assign", body, authHeader)
	assert.Equal(t, http.StatusOK, rec.Code)

	roles, err := f.roles.ListByUser(context.Background(), targetID)
	require.NoError(t, err)
	assert.Equal(t, []id.Role{id.RoleMentor}, roles)

	rec = f.do(t, http.MethodPost, "/api/admin/roles/remove", body, authHeader)
	assert.Equal(t, http.StatusOK, rec.Code)

	// Missing and invalid tokens are unauthorized.
	rec = f.do(t, http.MethodPost, "/api/admin/roles/assign", body, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	// A non-admin bearer is a hard forbidden.
	nonAdminToken := f.signIn(t, "target@ashram.example")
	rec = f.do(t, http.MethodPost, "/api/admin/roles/assign", body,
		http.Header{"Authorization": []string{"Bearer " + nonAdminToken}})
	assert.Equal(t, http.StatusForbidden, rec.Code)
}
