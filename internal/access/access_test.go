package access

import (
	"errors"
	"testing"

	"pipe-rack-manager/internal/models"
	"pipe-rack-manager/internal/session"

	"github.com/stretchr/testify/assert"
)

var (
	admin  = &session.Session{ID: "a", Role: models.RoleAdmin}
	worker = &session.Session{ID: "w", Role: models.RoleUser, AssignedUnitID: "550"}
	guest  = &session.Session{ID: "g", Role: models.RoleGuest}
)

func TestViewUnit(t *testing.T) {
	assert.NoError(t, For(admin).ViewUnit("560"))
	assert.NoError(t, For(guest).ViewUnit("560"))
	assert.NoError(t, For(worker).ViewUnit("550"))

	err := For(worker).ViewUnit("560")
	assert.ErrorIs(t, err, ErrPermissionDenied)
	assert.Equal(t, "Access Denied: You can only view your assigned unit.", err.Error())

	assert.ErrorIs(t, For(nil).ViewUnit("550"), ErrPermissionDenied)
}

func TestEditRackStatus(t *testing.T) {
	assert.NoError(t, For(admin).EditRackStatus("560"))
	assert.NoError(t, For(worker).EditRackStatus("550"))
	assert.ErrorIs(t, For(worker).EditRackStatus("560"), ErrPermissionDenied)
	assert.ErrorIs(t, For(guest).EditRackStatus("550"), ErrPermissionDenied)
	assert.False(t, For(guest).CanEditRackStatus("550"))
	assert.True(t, For(worker).CanEditRackStatus("550"))
}

func TestAdministrativeWrites(t *testing.T) {
	for _, check := range []func(Capability) error{
		Capability.ManageUnits,
		Capability.ManageRacks,
		Capability.ManageUsers,
	} {
		assert.NoError(t, check(For(admin)))

		err := check(For(worker))
		assert.ErrorIs(t, err, ErrPermissionDenied)
		assert.Equal(t, MsgAdminRequired, err.Error())

		err = check(For(guest))
		var denied *DeniedError
		assert.True(t, errors.As(err, &denied))
		assert.Equal(t, MsgReadOnly, denied.Reason)
	}
	assert.True(t, For(admin).IsAdmin())
	assert.False(t, For(guest).IsAdmin())
}
