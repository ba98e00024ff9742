// Package docstore is the document store behind the UI: the users, units and
// units/{unitId}/pipeRacks collections, persisted through gorm. Every
// successful write publishes a change notice on the collection's path so live
// bindings can reload.
package docstore

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"pipe-rack-manager/internal/database"
	"pipe-rack-manager/internal/eventbus"
	"pipe-rack-manager/internal/logging"

	"gorm.io/gorm"
)

type Path string

const (
	UsersPath Path = "users"
	UnitsPath Path = "units"
)

func PipeRacksPath(unitID string) Path {
	return Path("units/" + unitID + "/pipeRacks")
}

var (
	ErrNotFound = errors.New("document not found")
	ErrRequired = errors.New("required field missing")
	ErrInvalid  = errors.New("invalid value")
)

// WriteError is returned by every rejected create, update or delete.
type WriteError struct {
	Op   string
	Path Path
	Err  error
}

func (e *WriteError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Err)
}

func (e *WriteError) Unwrap() error {
	return e.Err
}

type Store struct {
	db     *gorm.DB
	bus    eventbus.Bus
	logger *logging.Logger
	now    func() time.Time

	onWriteFailure func(op string)
}

func New(db *gorm.DB, bus eventbus.Bus, logger *logging.Logger) *Store {
	if logger == nil {
		logger = logging.Discard()
	}
	return &Store{
		db:     db,
		bus:    bus,
		logger: logger,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// Bus exposes the notice bus so bindings subscribe to the same fan-out the store publishes on.
func (s *Store) Bus() eventbus.Bus {
	return s.bus
}

func (s *Store) publish(ctx context.Context, path Path, docID string, op eventbus.Op) {
	if s.bus == nil {
		return
	}
	ev := eventbus.Event{Path: string(path), DocID: docID, Op: op, At: s.now()}
	// the write is already committed; a cancelled request must not swallow its notice
	if err := s.bus.Publish(context.WithoutCancel(ctx), string(path), ev); err != nil {
		s.logger.WithError(err).Warn("change notice not published", "path", path, "doc", docID)
	}
}

func (s *Store) audit(ctx context.Context, actorID, entity, entityID, action, details string) {
	err := database.CreateAuditLog(s.db.WithContext(context.WithoutCancel(ctx)), actorID, entity, entityID, action, details)
	if err != nil {
		s.logger.WithError(err).Warn("audit log not recorded", "entity", entity, "id", entityID, "action", action)
	}
}

// OnWriteFailure registers fn to be called with the operation name of every
// rejected write. Call it before the store is shared.
func (s *Store) OnWriteFailure(fn func(op string)) {
	s.onWriteFailure = fn
}

func (s *Store) writeErr(op string, path Path, err error) error {
	if s.onWriteFailure != nil {
		s.onWriteFailure(op)
	}
	return &WriteError{Op: op, Path: path, Err: err}
}

func required(field, value string) error {
	if strings.TrimSpace(value) == "" {
		return fmt.Errorf("%w: %s", ErrRequired, field)
	}
	return nil
}

// validDocID rejects ids that would break collection paths.
func validDocID(field, id string) error {
	if err := required(field, id); err != nil {
		return err
	}
	if strings.Contains(id, "/") {
		return fmt.Errorf("%w: %s must not contain '/'", ErrInvalid, field)
	}
	return nil
}

// History returns the audit trail of one entity, newest first.
func (s *Store) History(ctx context.Context, entity, entityID string, limit int) ([]AuditEntry, error) {
	logs, err := database.AuditTrail(s.db.WithContext(ctx), entity, entityID, limit)
	if err != nil {
		return nil, fmt.Errorf("load history: %w", err)
	}
	out := make([]AuditEntry, 0, len(logs))
	for _, l := range logs {
		out = append(out, AuditEntry{
			At:       l.CreatedAt,
			UserID:   l.UserID,
			Entity:   l.Entity,
			EntityID: l.EntityID,
			Action:   l.Action,
			Details:  l.Details,
		})
	}
	return out, nil
}

type AuditEntry struct {
	At       time.Time
	UserID   string
	Entity   string
	EntityID string
	Action   string
	Details  string
}
