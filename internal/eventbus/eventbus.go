// Package eventbus fans out collection change notices to live bindings.
//
// Topics are collection paths ("units", "units/550/pipeRacks", "users").
// A notice only says that a collection changed; subscribers reload the
// collection themselves, so a dropped notice is harmless while another one
// is still pending for the same subscriber.
package eventbus

import (
	"context"
	"errors"
	"time"
)

type Op string

const (
	OpCreated Op = "created"
	OpUpdated Op = "updated"
	OpDeleted Op = "deleted"
)

type Event struct {
	Path  string    `json:"path"`
	DocID string    `json:"doc_id"`
	Op    Op        `json:"op"`
	At    time.Time `json:"at"`
}

type Bus interface {
	Publish(ctx context.Context, topic string, event Event) error
	// Subscribe returns a channel of notices for topic. The channel is closed
	// when ctx is done or the bus is closed. The subscription is active when
	// Subscribe returns.
	Subscribe(ctx context.Context, topic string) (<-chan Event, error)
	Close() error
}

var ErrClosed = errors.New("eventbus: closed")

// SubscriberBuffer is the per-subscriber channel capacity.
const SubscriberBuffer = 64
