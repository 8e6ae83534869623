package httptransport

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/asaskevich/govalidator"

	"ashram/internal/authstate"
	"ashram/internal/identity"
	dErrors "ashram/pkg/domain-errors"
)

// EmailVerifier consumes an email-verification token.
type EmailVerifier interface {
	VerifyEmail(ctx context.Context, token string) error
}

// AuthHandler serves the session lifecycle endpoints.
type AuthHandler struct {
	auth     *authstate.Store
	verifier EmailVerifier
	logger   *slog.Logger
}

func NewAuthHandler(auth *authstate.Store, verifier EmailVerifier, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{auth: auth, verifier: verifier, logger: logger}
}

type signUpRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	FullName string `json:"full_name"`
}

type signInRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *AuthHandler) handleSignUp(w http.ResponseWriter, r *http.Request) {
	var req signUpRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, dErrors.New(dErrors.CodeInvalidInput, "invalid request body"))
		return
	}
	if err := validateSignUpRequest(req); err != nil {
		writeError(w, err)
		return
	}

	err := h.auth.SignUp(r.Context(), identity.SignUpParams{
		Email:    req.Email,
		Password: req.Password,
		FullName: req.FullName,
	})
	if err != nil {
		writeError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, map[string]string{
		"message": "verification email sent",
	})
}

func (h *AuthHandler) handleSignIn(w http.ResponseWriter, r *http.Request) {
	var req signInRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, dErrors.New(dErrors.CodeInvalidInput, "invalid request body"))
		return
	}
	if !govalidator.IsEmail(req.Email) || req.Password == "" {
		writeError(w, dErrors.New(dErrors.CodeInvalidInput, "email and password are required"))
		return
	}

	if err := h.auth.SignIn(r.Context(), req.Email, req.Password); err != nil {
		writeError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{
		"token": h.auth.Token(),
	})
}

func (h *AuthHandler) handleSignOut(w http.ResponseWriter, r *http.Request) {
	if err := h.auth.SignOut(r.Context()); err != nil {
		writeError(w, err)
		return
	}
	respondJSON(w, http.StatusNoContent, nil)
}

func (h *AuthHandler) handleVerify(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	if token == "" {
		writeError(w, dErrors.New(dErrors.CodeInvalidInput, "token is required"))
		return
	}
	if err := h.verifier.VerifyEmail(r.Context(), token); err != nil {
		writeError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{
		"message": "email verified, you can sign in now",
	})
}

// handleMe reports the current auth snapshot. It never blocks: while the
// initial session check is pending it reports loading rather than guessing.
func (h *AuthHandler) handleMe(w http.ResponseWriter, r *http.Request) {
	type meResponse struct {
		Loading       bool     `json:"loading"`
		Authenticated bool     `json:"authenticated"`
		Email         string   `json:"email,omitempty"`
		FullName      string   `json:"full_name,omitempty"`
		Roles         []string `json:"roles,omitempty"`
	}

	resp := meResponse{Loading: h.auth.SessionLoading()}
	if resp.Loading {
		respondJSON(w, http.StatusOK, resp)
		return
	}

	if session := h.auth.Session(); session != nil {
		resp.Authenticated = true
		resp.Email = session.Email
		for _, role := range h.auth.Roles().Slice() {
			resp.Roles = append(resp.Roles, role.String())
		}
		if profile := h.auth.Profile(); profile != nil && profile.FullName != nil {
			resp.FullName = *profile.FullName
		}
	}
	respondJSON(w, http.StatusOK, resp)
}

func validateSignUpRequest(req signUpRequest) error {
	if !govalidator.StringLength(req.Email, "1", "255") || !govalidator.IsEmail(req.Email) {
		return dErrors.New(dErrors.CodeInvalidInput, "invalid email")
	}
	if !govalidator.StringLength(req.Password, "8", "128") {
		return dErrors.New(dErrors.CodeInvalidInput, "password must be 8 to 128 characters")
	}
	if req.FullName != "" && !govalidator.StringLength(req.FullName, "1", "255") {
		return dErrors.New(dErrors.CodeInvalidInput, "full name too long")
	}
	return nil
}
