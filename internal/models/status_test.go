package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatusesOrderAndNote(t *testing.T) {
	got := Statuses()
	require.Len(t, got, 5)

	want := []RackStatus{StatusEmpty, StatusHalfFull, StatusMostlyFull, StatusNoSpace, StatusGroundNotReady}
	for i, info := range got {
		assert.Equal(t, want[i], info.Status)
		assert.Equal(t, info.Status == StatusGroundNotReady, info.Status.HasNote())
	}
}

func TestStatusesReturnsCopy(t *testing.T) {
	got := Statuses()
	got[0].Label = "changed"
	assert.Equal(t, "Empty", Statuses()[0].Label)
}

func TestParseRackStatus(t *testing.T) {
	s, err := ParseRackStatus("no-space")
	require.NoError(t, err)
	assert.Equal(t, StatusNoSpace, s)

	_, err = ParseRackStatus("full")
	assert.Error(t, err)
}

func TestUnknownStatusRendersAsEmpty(t *testing.T) {
	assert.Equal(t, "Empty", RackStatus("legacy").Info().Label)
	assert.Equal(t, "text-black", StatusGroundNotReady.Info().TextColor)
}

func TestUserAssignedUnit(t *testing.T) {
	unit := "550"
	assert.Equal(t, "550", User{AssignedUnitID: &unit}.AssignedUnit())
	assert.Equal(t, "", User{}.AssignedUnit())
	assert.True(t, RoleUser.Valid())
	assert.False(t, RoleGuest.Valid())
}
