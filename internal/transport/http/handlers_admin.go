package httptransport

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"ashram/internal/admin"
	"ashram/internal/legacyadmin"
	id "ashram/pkg/domain"
	dErrors "ashram/pkg/domain-errors"
)

// AdminHandler serves the break-glass login endpoints and the role-mutation
// API. The two concerns share a handler because both live under /api/admin,
// but they authenticate through entirely separate channels.
type AdminHandler struct {
	roles   *admin.Service
	checker *legacyadmin.Checker
	logger  *slog.Logger
}

func NewAdminHandler(roles *admin.Service, checker *legacyadmin.Checker, logger *slog.Logger) *AdminHandler {
	return &AdminHandler{roles: roles, checker: checker, logger: logger}
}

type adminLoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *AdminHandler) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req adminLoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, dErrors.New(dErrors.CodeInvalidInput, "invalid request body"))
		return
	}
	if req.Email == "" || req.Password == "" {
		writeError(w, dErrors.New(dErrors.CodeInvalidInput, "email and password are required"))
		return
	}

	if err := h.checker.Authenticate(r.Context(), req.Email, req.Password); err != nil {
		writeError(w, err)
		return
	}
	respondJSON(w, http.StatusNoContent, nil)
}

func (h *AdminHandler) handleLogout(w http.ResponseWriter, r *http.Request) {
	if err := h.checker.Revoke(r.Context()); err != nil {
		writeError(w, err)
		return
	}
	respondJSON(w, http.StatusNoContent, nil)
}

type roleMutationRequest struct {
	UserID string `json:"user_id"`
	Role   string `json:"role"`
}

// parse validates the mutation request body.
func (req roleMutationRequest) parse() (id.UserID, id.Role, error) {
	userID, err := id.ParseUserID(req.UserID)
	if err != nil {
		return id.UserID{}, "", err
	}
	role, err := id.ParseRole(req.Role)
	if err != nil {
		return id.UserID{}, "", err
	}
	return userID, role, nil
}

func (h *AdminHandler) handleAssignRole(w http.ResponseWriter, r *http.Request) {
	token := bearerToken(r)
	if token == "" {
		writeError(w, dErrors.New(dErrors.CodeUnauthorized, "bearer token required"))
		return
	}

	var req roleMutationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, dErrors.New(dErrors.CodeInvalidInput, "invalid request body"))
		return
	}
	userID, role, err := req.parse()
	if err != nil {
		writeError(w, err)
		return
	}

	if err := h.roles.AssignRole(r.Context(), token, userID, role); err != nil {
		writeError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{
		"user_id": userID.String(),
		"role":    role.String(),
		"status":  "assigned",
	})
}

func (h *AdminHandler) handleRemoveRole(w http.ResponseWriter, r *http.Request) {
	token := bearerToken(r)
	if token == "" {
		writeError(w, dErrors.New(dErrors.CodeUnauthorized, "bearer token required"))
		return
	}

	var req roleMutationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, dErrors.New(dErrors.CodeInvalidInput, "invalid request body"))
		return
	}
	userID, role, err := req.parse()
	if err != nil {
		writeError(w, err)
		return
	}

	if err := h.roles.RemoveRole(r.Context(), token, userID, role); err != nil {
		writeError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{
		"user_id": userID.String(),
		"role":    role.String(),
		"status":  "removed",
	})
}
