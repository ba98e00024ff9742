package view

import "errors"

var (
	ErrUnknownAction = errors.New("unknown action")
	ErrClosed        = errors.New("view router closed")
)

type ActionKind string

const (
	ActOpenUnit         ActionKind = "open-unit"
	ActBack             ActionKind = "back"
	ActOpenAdminPanel   ActionKind = "open-admin-panel"
	ActCloseAdminPanel  ActionKind = "close-admin-panel"
	ActCreateUnit       ActionKind = "create-unit"
	ActDeleteUnit       ActionKind = "delete-unit"
	ActCreatePipeRack   ActionKind = "create-pipe-rack"
	ActDeletePipeRack   ActionKind = "delete-pipe-rack"
	ActOpenStatusEditor ActionKind = "open-status-editor"
	ActSelectStatus     ActionKind = "select-status"
	ActSetNote          ActionKind = "set-note"
	ActSaveStatus       ActionKind = "save-status"
	ActCancelStatus     ActionKind = "cancel-status"
	ActCreateUser       ActionKind = "create-user"
	ActUpdateUser       ActionKind = "update-user"
	ActDeleteUser       ActionKind = "delete-user"
	ActSignOut          ActionKind = "sign-out"
	ActDismissAlert     ActionKind = "dismiss-alert"
)

// Action is a user intent as sent by the browser. Only the fields relevant
// to Kind are read.
type Action struct {
	Kind ActionKind `json:"action"`

	UnitID      string `json:"unitId,omitempty"`
	UnitName    string `json:"unitName,omitempty"`
	Description string `json:"description,omitempty"`

	RackID string `json:"rackId,omitempty"`
	Status string `json:"status,omitempty"`
	Note   string `json:"note,omitempty"`

	UserID         string `json:"userId,omitempty"`
	Email          string `json:"email,omitempty"`
	Password       string `json:"password,omitempty"`
	DisplayName    string `json:"displayName,omitempty"`
	Role           string `json:"role,omitempty"`
	AssignedUnitID string `json:"assignedUnitId,omitempty"`
}
