package eventbus

import (
	"context"
	"sync"
)

// Memory is the in-process Bus used by single-instance deployments and tests.
type Memory struct {
	mu     sync.Mutex
	subs   map[string]map[*memorySub]struct{}
	closed bool
	done   chan struct{}
}

type memorySub struct {
	ch   chan Event
	once sync.Once
}

func (s *memorySub) close() {
	s.once.Do(func() { close(s.ch) })
}

func NewMemory() *Memory {
	return &Memory{
		subs: make(map[string]map[*memorySub]struct{}),
		done: make(chan struct{}),
	}
}

func (m *Memory) Publish(ctx context.Context, topic string, event Event) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return ErrClosed
	}
	for sub := range m.subs[topic] {
		select {
		case sub.ch <- event:
		default:
			// subscriber already has a reload pending
		}
	}
	return nil
}

func (m *Memory) Subscribe(ctx context.Context, topic string) (<-chan Event, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return nil, ErrClosed
	}

	sub := &memorySub{ch: make(chan Event, SubscriberBuffer)}
	if m.subs[topic] == nil {
		m.subs[topic] = make(map[*memorySub]struct{})
	}
	m.subs[topic][sub] = struct{}{}

	go func() {
		select {
		case <-ctx.Done():
		case <-m.done:
			return
		}
		m.mu.Lock()
		defer m.mu.Unlock()
		if set, ok := m.subs[topic]; ok {
			delete(set, sub)
			if len(set) == 0 {
				delete(m.subs, topic)
			}
		}
		sub.close()
	}()

	return sub.ch, nil
}

// Subscribers returns the number of live subscriptions on topic.
func (m *Memory) Subscribers(topic string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.subs[topic])
}

func (m *Memory) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return nil
	}
	m.closed = true
	close(m.done)
	for topic, set := range m.subs {
		for sub := range set {
			sub.close()
		}
		delete(m.subs, topic)
	}
	return nil
}

var _ Bus = (*Memory)(nil)
