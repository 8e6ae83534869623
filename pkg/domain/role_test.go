package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "ashram/pkg/domain-errors"
)

func TestParseRole(t *testing.T) {
	t.Run("accepts supported roles", func(t *testing.T) {
		for _, s := range []string{"devotee", "mentor", "admin"} {
			r, err := ParseRole(s)
			require.NoError(t, err)
			assert.Equal(t, s, r.String())
		}
	})

	t.Run("rejects empty and unknown values", func(t *testing.T) {
		for _, s := range []string{"", "superuser", "Admin", "devotee "} {
			_, err := ParseRole(s)
			require.Error(t, err, "input %q", s)
			assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
		}
	})
}

func TestRoleSet(t *testing.T) {
	t.Run("deduplicates and is order-irrelevant", func(t *testing.T) {
		set := NewRoleSet(RoleMentor, RoleDevotee, RoleMentor)
		assert.Len(t, set.Slice(), 2)
		assert.True(t, set.Has(RoleMentor))
		assert.True(t, set.Has(RoleDevotee))
		assert.False(t, set.Has(RoleAdmin))
	})

	t.Run("intersects on any shared role", func(t *testing.T) {
		set := NewRoleSet(RoleMentor)
		assert.True(t, set.Intersects([]Role{RoleAdmin, RoleMentor}))
		assert.False(t, set.Intersects([]Role{RoleAdmin, RoleDevotee}))
	})

	t.Run("empty required slice never intersects", func(t *testing.T) {
		set := NewRoleSet(RoleAdmin, RoleMentor, RoleDevotee)
		assert.False(t, set.Intersects(nil))
		assert.False(t, set.Intersects([]Role{}))
	})
}
