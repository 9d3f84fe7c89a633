package user

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseRole(t *testing.T) {
	for _, valid := range []string{"player", "admin", "banned"} {
		role, err := ParseRole(valid)
		require.NoError(t, err)
		assert.Equal(t, valid, role.String())
		assert.True(t, role.Valid())
	}

	for _, invalid := range []string{"", "moderator", "Player", "ADMIN"} {
		_, err := ParseRole(invalid)
		assert.Error(t, err, invalid)
	}
}

func TestRolePredicates(t *testing.T) {
	assert.True(t, RoleAdmin.IsAdmin())
	assert.True(t, RoleAdmin.CanAccessAdmin())
	assert.False(t, RoleAdmin.IsPlayer())
	assert.False(t, RoleAdmin.IsBanned())

	assert.True(t, RolePlayer.IsPlayer())
	assert.False(t, RolePlayer.IsAdmin())
	assert.False(t, RolePlayer.CanAccessAdmin())

	assert.True(t, RoleBanned.IsBanned())
	assert.False(t, RoleBanned.CanAccessAdmin())
	assert.False(t, RoleBanned.IsPlayer())
}

func TestRoleLabel(t *testing.T) {
	assert.Equal(t, "Spieler", RolePlayer.Label())
	assert.Equal(t, "Administrator", RoleAdmin.Label())
	assert.Equal(t, "Gesperrt", RoleBanned.Label())
}

func TestRoleValid(t *testing.T) {
	assert.False(t, Role("").Valid())
	assert.False(t, Role("moderator").Valid())

	for _, r := range Roles() {
		assert.True(t, r.Valid())
	}
}
