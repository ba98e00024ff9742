// Package redis implements eventbus.Bus on Redis Pub/Sub so that several
// server instances share change notices.
package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"pipe-rack-manager/internal/eventbus"
	"pipe-rack-manager/internal/logging"
)

type Bus struct {
	client *redis.Client
	prefix string
	logger *logging.Logger
}

func New(client *redis.Client, prefix string, logger *logging.Logger) *Bus {
	if logger == nil {
		logger = logging.Discard()
	}
	return &Bus{client: client, prefix: prefix, logger: logger}
}

// NewFromURL connects and pings Redis before returning.
func NewFromURL(redisURL, prefix string, logger *logging.Logger) (*Bus, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}
	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	b := New(client, prefix, logger)
	b.logger.Info("connected to redis event bus", "addr", opts.Addr)
	return b, nil
}

func (b *Bus) channel(topic string) string {
	return b.prefix + topic
}

func (b *Bus) Publish(ctx context.Context, topic string, event eventbus.Event) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	if err := b.client.Publish(ctx, b.channel(topic), data).Err(); err != nil {
		return fmt.Errorf("publish %s: %w", topic, err)
	}
	return nil
}

func (b *Bus) Subscribe(ctx context.Context, topic string) (<-chan eventbus.Event, error) {
	ps := b.client.Subscribe(ctx, b.channel(topic))
	// wait for the subscription confirmation
	if _, err := ps.Receive(ctx); err != nil {
		_ = ps.Close()
		return nil, fmt.Errorf("subscribe %s: %w", topic, err)
	}

	out := make(chan eventbus.Event, eventbus.SubscriberBuffer)
	msgs := ps.Channel()

	go func() {
		defer close(out)
		defer ps.Close()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-msgs:
				if !ok {
					return
				}
				var ev eventbus.Event
				if err := json.Unmarshal([]byte(msg.Payload), &ev); err != nil {
					b.logger.WithError(err).Warn("dropping malformed change notice", "channel", msg.Channel)
					continue
				}
				select {
				case out <- ev:
				default:
				}
			}
		}
	}()

	return out, nil
}

func (b *Bus) Close() error {
	return b.client.Close()
}

var _ eventbus.Bus = (*Bus)(nil)
