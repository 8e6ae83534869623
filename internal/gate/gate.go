// Package gate is the authorization gate guarding protected routes. The
// decision core is a pure function over the two auth channels (backend
// session/roles, break-glass admin flag) so every path is unit-testable
// without HTTP.
package gate

import (
	id "ashram/pkg/domain"
)

// Outcome is the gate's decision for one request.
type Outcome string

const (
	// OutcomeChecking means an auth source is not ready yet. No redirect
	// and no notification may be produced in this state.
	OutcomeChecking Outcome = "checking"

	OutcomeAllow                Outcome = "allow"
	OutcomeRedirectLogin        Outcome = "redirect_login"
	OutcomeRedirectUnauthorized Outcome = "redirect_unauthorized"
)

// Requirement declares what a route demands. Exactly one channel applies:
// BreakGlass routes consult only the legacy admin flag, every other
// requirement consults only the backend session and roles. Roles is any-of;
// empty Roles with BreakGlass false means authenticated-only.
type Requirement struct {
	Roles      []id.Role
	BreakGlass bool
}

// Inputs is the gate's view of both auth channels at decision time.
type Inputs struct {
	// SessionReady is false until the initial session resolution completes.
	SessionReady bool
	// AdminCheckComplete is false until the admin flag has been read.
	AdminCheckComplete bool

	Authenticated bool
	Roles         id.RoleSet
	LegacyAdmin   bool
}

// Evaluate decides the outcome for one request. It inspects only the channel
// the requirement names: a backend admin role never satisfies a BreakGlass
// requirement, and the admin flag never satisfies a role requirement.
func Evaluate(req Requirement, in Inputs) Outcome {
	if req.BreakGlass {
		if !in.AdminCheckComplete {
			return OutcomeChecking
		}
		if in.LegacyAdmin {
			return OutcomeAllow
		}
		return OutcomeRedirectUnauthorized
	}

	if !in.SessionReady {
		return OutcomeChecking
	}
	if !in.Authenticated {
		return OutcomeRedirectLogin
	}
	if len(req.Roles) == 0 {
		return OutcomeAllow
	}
	if in.Roles.Intersects(req.Roles) {
		return OutcomeAllow
	}
	return OutcomeRedirectUnauthorized
}
