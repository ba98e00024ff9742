package handlers

import (
	"testing"
	"time"

	"pipe-rack-manager/internal/models"
	"pipe-rack-manager/internal/session"
	"pipe-rack-manager/internal/view"
	"pipe-rack-manager/web"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLatestSinkKeepsNewestView(t *testing.T) {
	sink := newLatestSink()

	_, ok := sink.take()
	assert.False(t, ok)

	for i := uint64(1); i <= 3; i++ {
		sink.Show(view.View{Version: i, Screen: view.ScreenDashboard})
	}

	select {
	case <-sink.notify:
	case <-time.After(time.Second):
		t.Fatal("no notification")
	}
	v, ok := sink.take()
	require.True(t, ok)
	assert.Equal(t, uint64(3), v.Version)

	_, ok = sink.take()
	assert.False(t, ok, "taken views are not replayed")
	assert.Empty(t, sink.notify)
}

func TestRenderScreen(t *testing.T) {
	tmpl, err := web.Templates()
	require.NoError(t, err)
	h := New(Deps{Templates: tmpl})

	guest := session.Guest("anon-1")
	unit := &models.Unit{ID: "550", Name: "Unit 550"}
	racks := []models.PipeRack{
		{UnitID: "550", ID: "PR01", Status: models.StatusGroundNotReady, StatusNote: "crane on site"},
		{UnitID: "550", ID: "PR02", Status: models.StatusEmpty},
	}

	tests := []struct {
		name        string
		view        view.View
		contains    []string
		notContains []string
	}{
		{
			name:     "loading",
			view:     view.View{Screen: view.ScreenLoading},
			contains: []string{"Loading"},
		},
		{
			name:     "logged out",
			view:     view.View{Screen: view.ScreenLoggedOut},
			contains: []string{"Signed out"},
		},
		{
			name:        "guest dashboard",
			view:        view.View{Screen: view.ScreenDashboard, Session: guest, Units: []models.Unit{*unit}},
			contains:    []string{"Unit 550", "Guest (Read Only)"},
			notContains: []string{`data-action="create-unit"`},
		},
		{
			name:        "read-only unit detail",
			view:        view.View{Screen: view.ScreenUnitDetail, Session: guest, Unit: unit, Racks: racks},
			contains:    []string{"PR01", "PR02", "crane on site", "View-only mode"},
			notContains: []string{"open-status-editor"},
		},
		{
			name: "editor and alert",
			view: view.View{
				Screen: view.ScreenUnitDetail, Session: guest, Unit: unit, Racks: racks, CanEditStatus: true,
				Editor: &view.EditorView{UnitID: "550", RackID: "PR02", Selected: models.StatusGroundNotReady, ShowNote: true},
				Alert:  "Unit not found",
			},
			contains: []string{`id="status-editor"`, `data-action="open-status-editor"`, "Unit not found", "dismiss-alert"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			html, err := h.renderScreen(tt.view)
			require.NoError(t, err)
			for _, s := range tt.contains {
				assert.Contains(t, html, s)
			}
			for _, s := range tt.notContains {
				assert.NotContains(t, html, s)
			}
		})
	}
}
