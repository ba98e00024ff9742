// Package view is the per-client screen state machine: which screen is
// visible, which collections are live-bound for it, and the transient state
// of the status editor and the admin overlay.
package view

import (
	"pipe-rack-manager/internal/models"
	"pipe-rack-manager/internal/session"
)

type Screen string

const (
	ScreenLoading    Screen = "loading"
	ScreenLoggedOut  Screen = "logged-out"
	ScreenDashboard  Screen = "dashboard"
	ScreenUnitDetail Screen = "unit-detail"
)

// View is one rendered state of a client. Values handed to a Sink are never
// modified afterwards.
type View struct {
	Version uint64
	Screen  Screen
	Session *session.Session

	// Dashboard
	Units []models.Unit

	// UnitDetail
	Unit  *models.Unit
	Racks []models.PipeRack

	Admin  *AdminPanelView
	Editor *EditorView

	Alert  string
	Notice string

	CanManage     bool
	CanEditStatus bool
}

// EditorView is the open status editor of a single rack.
type EditorView struct {
	UnitID   string
	RackID   string
	Selected models.RackStatus
	Note     string
	ShowNote bool
	Pending  bool
	Error    string
}

// AdminPanelView is the user-management overlay shown above the dashboard.
type AdminPanelView struct {
	Users []models.User
	Units []models.Unit
}

// UnitName resolves a unit id against the overlay's unit list.
func (a *AdminPanelView) UnitName(id string) string {
	for _, u := range a.Units {
		if u.ID == id {
			return u.Name
		}
	}
	return "N/A"
}

// Sink receives every view the router produces. Show is called with the
// router's state lock held and must not call back into the router.
type Sink interface {
	Show(View)
}

type SinkFunc func(View)

func (f SinkFunc) Show(v View) { f(v) }
