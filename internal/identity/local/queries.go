package local

import (
	"context"

	"ashram/internal/identity"
	id "ashram/pkg/domain"
)

// Profile reads the profile row for userID.
func (p *Provider) Profile(ctx context.Context, userID id.UserID) (*identity.Profile, error) {
	ctx, span := p.tracer.Start(ctx, "local.Profile")
	defer span.End()
	return p.profiles.FindByUser(ctx, userID)
}

// Roles reads all role assignments for userID. No rows yields an empty slice.
func (p *Provider) Roles(ctx context.Context, userID id.UserID) ([]id.Role, error) {
	ctx, span := p.tracer.Start(ctx, "local.Roles")
	defer span.End()
	return p.roles.ListByUser(ctx, userID)
}
