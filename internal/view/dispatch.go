package view

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"pipe-rack-manager/internal/access"
	"pipe-rack-manager/internal/docstore"
	"pipe-rack-manager/internal/models"
	"pipe-rack-manager/internal/session"
)

const (
	MsgUnitNotFound      = "Unit not found"
	MsgRackNotFound      = "Pipe rack not found"
	MsgAssignUnit        = "Please assign a unit for regular users"
	MsgUserCreated       = "User created successfully! They can now login with their email and password."
	MsgUserUpdated       = "User updated successfully!"
	MsgUserDeleted       = "User profile deleted. Note: Their sign-in account still exists and must be removed separately."
	MsgInvalidRole       = "Role must be admin or user"
	MsgUnitFieldsMissing = "Unit number and name are required"
	MsgRackIDMissing     = "Pipe rack ID is required"
)

// Dispatch applies one user action. Failures of the action itself are shown
// in the view; the returned error is only for malformed input or a closed
// router.
func (r *Router) Dispatch(ctx context.Context, a Action) error {
	switch a.Kind {
	case ActSignOut:
		// The session change that follows performs the transition.
		r.auth.SignOut()
		return nil
	case ActDismissAlert:
		r.mu.Lock()
		defer r.mu.Unlock()
		r.view.Alert, r.view.Notice = "", ""
		r.emitLocked()
		return nil
	}

	r.opMu.Lock()
	defer r.opMu.Unlock()

	r.mu.Lock()
	closed, sess, screen := r.closed, r.view.Session, r.view.Screen
	r.mu.Unlock()
	if closed {
		return ErrClosed
	}
	if sess == nil {
		r.logger.Debug("action ignored without session", "action", a.Kind)
		return nil
	}

	switch a.Kind {
	case ActOpenUnit:
		if screen == ScreenDashboard {
			r.openUnit(ctx, sess, a.UnitID)
		}
	case ActBack:
		if screen == ScreenUnitDetail {
			r.enterDashboard()
		}
	case ActOpenAdminPanel:
		if screen != ScreenDashboard || r.hasOverlay() {
			return nil
		}
		if err := access.For(sess).ManageUsers(); err != nil {
			r.alert(err.Error())
			return nil
		}
		r.openAdminPanel()
	case ActCloseAdminPanel:
		if r.hasOverlay() {
			r.closeAdminPanel()
		}
	case ActCreateUnit:
		r.createUnit(ctx, sess, a)
	case ActDeleteUnit:
		r.deleteUnit(ctx, sess, a.UnitID)
	case ActCreatePipeRack:
		r.createPipeRack(ctx, sess, a.RackID)
	case ActDeletePipeRack:
		r.deletePipeRack(ctx, sess, a.RackID)
	case ActOpenStatusEditor:
		r.openStatusEditor(sess, a.RackID)
	case ActSelectStatus:
		r.selectStatus(a.Status)
	case ActSetNote:
		r.setNote(a.Note)
	case ActSaveStatus:
		r.saveStatus(ctx, sess)
	case ActCancelStatus:
		r.cancelStatus()
	case ActCreateUser:
		r.createUser(ctx, sess, a)
	case ActUpdateUser:
		r.updateUser(ctx, sess, a)
	case ActDeleteUser:
		r.deleteUser(ctx, sess, a.UserID)
	default:
		return fmt.Errorf("%w: %q", ErrUnknownAction, a.Kind)
	}
	return nil
}

func (r *Router) hasOverlay() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.overlay != nil
}

func (r *Router) alert(msg string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.view.Alert, r.view.Notice = msg, ""
	r.emitLocked()
}

func (r *Router) notice(msg string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.view.Alert, r.view.Notice = "", msg
	r.emitLocked()
}

// failure formats an action error for display. Permission errors carry their
// own wording.
func failure(prefix string, err error) string {
	if errors.Is(err, access.ErrPermissionDenied) {
		return err.Error()
	}
	return prefix + err.Error()
}

func (r *Router) currentUnitID() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.view.Screen != ScreenUnitDetail || r.view.Unit == nil {
		return ""
	}
	return r.view.Unit.ID
}

//
// UNITS
//

func (r *Router) openUnit(ctx context.Context, sess *session.Session, unitID string) {
	if err := access.For(sess).ViewUnit(unitID); err != nil {
		r.alert(err.Error())
		return
	}
	unit, err := r.store.GetUnit(ctx, unitID)
	if err != nil {
		r.logger.WithError(err).Error("load unit failed", "unit", unitID)
		r.alert(failure("Error loading unit: ", err))
		return
	}
	if unit == nil {
		r.alert(MsgUnitNotFound)
		return
	}
	r.enterUnitDetail(unit)
}

func (r *Router) createUnit(ctx context.Context, sess *session.Session, a Action) {
	if err := access.For(sess).ManageUnits(); err != nil {
		r.alert(err.Error())
		return
	}
	if strings.TrimSpace(a.UnitID) == "" || strings.TrimSpace(a.UnitName) == "" {
		r.alert(MsgUnitFieldsMissing)
		return
	}
	unit := models.Unit{ID: a.UnitID, Name: a.UnitName, Description: a.Description}
	if err := r.store.CreateUnit(ctx, sess.ID, unit); err != nil {
		r.alert(failure("Error creating unit: ", err))
	}
}

func (r *Router) deleteUnit(ctx context.Context, sess *session.Session, unitID string) {
	if err := access.For(sess).ManageUnits(); err != nil {
		r.alert(err.Error())
		return
	}
	if err := r.store.DeleteUnit(ctx, sess.ID, unitID); err != nil {
		r.alert(failure("Error deleting unit: ", err))
	}
}

//
// PIPE RACKS
//

func (r *Router) createPipeRack(ctx context.Context, sess *session.Session, rackID string) {
	unitID := r.currentUnitID()
	if unitID == "" {
		return
	}
	if err := access.For(sess).ManageRacks(); err != nil {
		r.alert(err.Error())
		return
	}
	if strings.TrimSpace(rackID) == "" {
		r.alert(MsgRackIDMissing)
		return
	}
	if err := r.store.CreatePipeRack(ctx, sess.ID, unitID, rackID); err != nil {
		r.alert(failure("Error creating pipe rack: ", err))
	}
}

func (r *Router) deletePipeRack(ctx context.Context, sess *session.Session, rackID string) {
	unitID := r.currentUnitID()
	if unitID == "" {
		return
	}
	if err := access.For(sess).ManageRacks(); err != nil {
		r.alert(err.Error())
		return
	}
	if err := r.store.DeletePipeRack(ctx, sess.ID, unitID, rackID); err != nil {
		r.alert(failure("Error deleting rack: ", err))
	}
}

//
// STATUS EDITOR
//

func (r *Router) openStatusEditor(sess *session.Session, rackID string) {
	unitID := r.currentUnitID()
	if unitID == "" {
		return
	}
	if err := access.For(sess).EditRackStatus(unitID); err != nil {
		r.alert(err.Error())
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	var rack *models.PipeRack
	for i := range r.view.Racks {
		if r.view.Racks[i].ID == rackID {
			rack = &r.view.Racks[i]
			break
		}
	}
	if rack == nil {
		r.view.Alert = MsgRackNotFound
		r.emitLocked()
		return
	}

	selected := rack.Status
	if !selected.Valid() {
		selected = models.StatusEmpty
	}
	r.editorToken++
	r.view.Editor = &EditorView{
		UnitID:   unitID,
		RackID:   rack.ID,
		Selected: selected,
		Note:     rack.StatusNote,
		ShowNote: selected.HasNote(),
	}
	r.emitLocked()
}

func (r *Router) selectStatus(value string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	ed := r.view.Editor
	if ed == nil || ed.Pending {
		return
	}
	status, err := models.ParseRackStatus(value)
	if err != nil {
		ed.Error = err.Error()
		r.emitLocked()
		return
	}
	// the note is kept until save even when hidden
	ed.Selected = status
	ed.ShowNote = status.HasNote()
	ed.Error = ""
	r.emitLocked()
}

func (r *Router) setNote(note string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	ed := r.view.Editor
	if ed == nil || ed.Pending {
		return
	}
	ed.Note = note
	r.emitLocked()
}

func (r *Router) cancelStatus() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.view.Editor == nil {
		return
	}
	r.editorToken++
	r.view.Editor = nil
	r.emitLocked()
}

// saveStatus issues exactly one write and waits for it. The rack list only
// changes when the binding delivers the stored result.
func (r *Router) saveStatus(ctx context.Context, sess *session.Session) {
	r.mu.Lock()
	ed := r.view.Editor
	if ed == nil || ed.Pending {
		r.mu.Unlock()
		return
	}
	if err := access.For(sess).EditRackStatus(ed.UnitID); err != nil {
		ed.Error = err.Error()
		r.emitLocked()
		r.mu.Unlock()
		return
	}

	upd := docstore.StatusUpdate{
		Status:    ed.Selected,
		UpdatedBy: sess.ID,
		UpdatedAt: r.now().UTC(),
	}
	if ed.Selected.HasNote() {
		upd.Note = strings.TrimSpace(ed.Note)
	}
	unitID, rackID, token := ed.UnitID, ed.RackID, r.editorToken
	ed.Pending = true
	ed.Error = ""
	r.emitLocked()
	r.mu.Unlock()

	err := r.store.UpdatePipeRackStatus(ctx, unitID, rackID, upd)

	r.mu.Lock()
	defer r.mu.Unlock()
	if token != r.editorToken || r.view.Editor == nil {
		return
	}
	if err != nil {
		r.logger.WithError(err).Warn("status update failed", "unit", unitID, "rack", rackID)
		r.view.Editor.Pending = false
		r.view.Editor.Error = err.Error()
	} else {
		r.editorToken++
		r.view.Editor = nil
	}
	r.emitLocked()
}

//
// USERS
//

func (r *Router) createUser(ctx context.Context, sess *session.Session, a Action) {
	if err := access.For(sess).ManageUsers(); err != nil {
		r.alert(err.Error())
		return
	}
	role := models.UserRole(a.Role)
	if !role.Valid() {
		r.alert(MsgInvalidRole)
		return
	}
	unitID := strings.TrimSpace(a.AssignedUnitID)
	if role == models.RoleUser && unitID == "" {
		r.alert(MsgAssignUnit)
		return
	}

	cred, err := r.accounts.CreateAccount(ctx, a.Email, a.Password)
	if err != nil {
		r.alert(failure("Error creating user: ", err))
		return
	}

	profile := models.User{
		ID:          cred.UID,
		Email:       cred.Email,
		Role:        role,
		DisplayName: a.DisplayName,
		CreatedAt:   r.now().UTC(),
	}
	if unitID != "" {
		profile.AssignedUnitID = &unitID
	}
	if err := r.store.SetUser(ctx, sess.ID, profile); err != nil {
		r.alert(failure("Error creating user: ", err))
		return
	}
	r.notice(MsgUserCreated)
}

func (r *Router) updateUser(ctx context.Context, sess *session.Session, a Action) {
	if err := access.For(sess).ManageUsers(); err != nil {
		r.alert(err.Error())
		return
	}
	role := models.UserRole(a.Role)
	if !role.Valid() {
		r.alert(MsgInvalidRole)
		return
	}
	upd := docstore.UserUpdate{Role: role}
	if unitID := strings.TrimSpace(a.AssignedUnitID); unitID != "" {
		upd.AssignedUnitID = &unitID
	}
	if err := r.store.UpdateUser(ctx, sess.ID, a.UserID, upd); err != nil {
		r.alert(failure("Error updating user: ", err))
		return
	}
	r.notice(MsgUserUpdated)
}

func (r *Router) deleteUser(ctx context.Context, sess *session.Session, userID string) {
	if err := access.For(sess).ManageUsers(); err != nil {
		r.alert(err.Error())
		return
	}
	if err := r.store.DeleteUser(ctx, sess.ID, userID); err != nil {
		r.alert(failure("Error deleting user: ", err))
		return
	}
	r.notice(MsgUserDeleted)
}
