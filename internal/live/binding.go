// Package live keeps a full, current copy of one collection flowing to a
// callback: one snapshot at bind time, then a fresh snapshot for every change
// notice published on the collection's topic.
package live

import (
	"context"
	"sync"
	"sync/atomic"

	"pipe-rack-manager/internal/eventbus"
	"pipe-rack-manager/internal/logging"
)

// Observer receives binding lifecycle and delivery counts. Implementations
// must be safe for concurrent use.
type Observer interface {
	BindingOpened(topic string)
	BindingClosed(topic string)
	SnapshotDelivered(topic string, size int)
	SnapshotFailed(topic string)
}

type noopObserver struct{}

func (noopObserver) BindingOpened(string)          {}
func (noopObserver) BindingClosed(string)          {}
func (noopObserver) SnapshotDelivered(string, int) {}
func (noopObserver) SnapshotFailed(string)         {}

type Options struct {
	Logger   *logging.Logger
	Observer Observer
}

// Binding is the handle returned by Bind. The zero value is not usable.
type Binding struct {
	topic    string
	cancel   context.CancelFunc
	observer Observer
	logger   *logging.Logger

	mu         sync.Mutex // held for the duration of each delivery
	closed     atomic.Bool
	delivering atomic.Bool
	once       sync.Once
	done       chan struct{}
}

// Bind subscribes to topic and delivers the loaded collection to onSnapshot.
// The first delivery happens before Bind returns. Later deliveries run on the
// binding's own goroutine, one at a time, in notice order.
//
// Failures never reach the caller: a failed load or a broken subscription is
// logged and delivered as an empty collection.
func Bind[T any](ctx context.Context, bus eventbus.Bus, topic string, load func(context.Context) ([]T, error), onSnapshot func([]T), opts Options) *Binding {
	ctx, cancel := context.WithCancel(ctx)

	b := &Binding{
		topic:    topic,
		cancel:   cancel,
		observer: opts.Observer,
		logger:   opts.Logger,
		done:     make(chan struct{}),
	}
	if b.observer == nil {
		b.observer = noopObserver{}
	}
	if b.logger == nil {
		b.logger = logging.Discard()
	}
	b.logger = b.logger.With("topic", topic)
	b.observer.BindingOpened(topic)

	// Subscribe before the first load so no change between the two is lost.
	notices, err := bus.Subscribe(ctx, topic)
	if err != nil {
		b.logger.WithError(err).Error("live binding subscribe failed")
		b.observer.SnapshotFailed(topic)
		b.deliver(func() { onSnapshot([]T{}) })
		close(b.done)
		return b
	}

	reload := func() {
		items, err := load(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			b.logger.WithError(err).Error("live binding load failed")
			b.observer.SnapshotFailed(topic)
			items = []T{}
		}
		if items == nil {
			items = []T{}
		}
		b.deliver(func() {
			b.observer.SnapshotDelivered(topic, len(items))
			onSnapshot(items)
		})
	}

	reload()

	go func() {
		defer close(b.done)
		for {
			select {
			case <-ctx.Done():
				return
			case _, ok := <-notices:
				if !ok {
					if ctx.Err() == nil {
						b.logger.Error("live binding subscription closed")
						b.observer.SnapshotFailed(topic)
						b.deliver(func() { onSnapshot([]T{}) })
					}
					return
				}
				// Collapse queued notices: the next load observes all of them.
			drain:
				for {
					select {
					case _, ok := <-notices:
						if !ok {
							break drain
						}
					default:
						break drain
					}
				}
				reload()
			}
		}
	}()

	return b
}

func (b *Binding) deliver(fn func()) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed.Load() {
		return
	}
	b.delivering.Store(true)
	defer b.delivering.Store(false)
	fn()
}

// Unsubscribe stops the binding. It is safe to call more than once and from
// inside the snapshot callback. Once it returns no new delivery starts.
func (b *Binding) Unsubscribe() {
	b.once.Do(func() {
		b.closed.Store(true)
		b.cancel()
		b.observer.BindingClosed(b.topic)
	})
	if !b.delivering.Load() {
		// wait out a delivery running on another goroutine
		b.mu.Lock()
		b.mu.Unlock()
	}
}

// Done is closed once the binding's goroutine has exited.
func (b *Binding) Done() <-chan struct{} {
	return b.done
}

func (b *Binding) Topic() string {
	return b.topic
}

// Closed reports whether Unsubscribe has been called.
func (b *Binding) Closed() bool {
	return b.closed.Load()
}
