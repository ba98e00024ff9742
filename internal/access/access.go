// Package access decides what a session may see and change. Every write
// path in the application asks a Capability first.
package access

import (
	"errors"

	"pipe-rack-manager/internal/models"
	"pipe-rack-manager/internal/session"
)

var ErrPermissionDenied = errors.New("permission denied")

const (
	MsgSignInRequired = "Please sign in to continue."
	MsgAssignedUnit   = "Access Denied: You can only view your assigned unit."
	MsgAssignedUnitRW = "Access Denied: You can only update pipe racks in your assigned unit."
	MsgReadOnly       = "Access Denied: Guest accounts are view-only."
	MsgAdminRequired  = "Access Denied: Administrator privileges required."
)

// DeniedError carries the message shown to the user. It matches
// ErrPermissionDenied with errors.Is.
type DeniedError struct {
	Reason string
}

func (e *DeniedError) Error() string {
	return e.Reason
}

func (e *DeniedError) Is(target error) bool {
	return target == ErrPermissionDenied
}

func deny(reason string) error {
	return &DeniedError{Reason: reason}
}

// Capability answers permission questions for one session.
type Capability struct {
	sess *session.Session
}

func For(sess *session.Session) Capability {
	return Capability{sess: sess}
}

func (c Capability) role() models.UserRole {
	if c.sess == nil {
		return ""
	}
	return c.sess.Role
}

func (c Capability) ViewUnit(unitID string) error {
	switch c.role() {
	case models.RoleAdmin, models.RoleGuest:
		return nil
	case models.RoleUser:
		if c.sess.AssignedUnitID == unitID {
			return nil
		}
		return deny(MsgAssignedUnit)
	default:
		return deny(MsgSignInRequired)
	}
}

func (c Capability) EditRackStatus(unitID string) error {
	switch c.role() {
	case models.RoleAdmin:
		return nil
	case models.RoleUser:
		if c.sess.AssignedUnitID == unitID {
			return nil
		}
		return deny(MsgAssignedUnitRW)
	case models.RoleGuest:
		return deny(MsgReadOnly)
	default:
		return deny(MsgSignInRequired)
	}
}

func (c Capability) admin() error {
	switch c.role() {
	case models.RoleAdmin:
		return nil
	case models.RoleGuest:
		return deny(MsgReadOnly)
	case "":
		return deny(MsgSignInRequired)
	default:
		return deny(MsgAdminRequired)
	}
}

func (c Capability) ManageUnits() error { return c.admin() }
func (c Capability) ManageRacks() error { return c.admin() }
func (c Capability) ManageUsers() error { return c.admin() }

// CanEditRackStatus is the boolean form used when rendering controls.
func (c Capability) CanEditRackStatus(unitID string) bool {
	return c.EditRackStatus(unitID) == nil
}

func (c Capability) IsAdmin() bool {
	return c.admin() == nil
}
