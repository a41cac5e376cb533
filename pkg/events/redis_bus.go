package events

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const channelPrefix = "wisdom:events:"

// RedisBus publishes through Redis pub/sub so every gateway instance sees an
// event. Messages received from Redis are relayed into the local bus, which
// means publishers observe their own events exactly like remote ones.
type RedisBus struct {
	client *redis.Client
	local  *LocalBus
	logger *zap.Logger
}

// NewRedisBus wraps local with a Redis transport.
func NewRedisBus(client *redis.Client, local *LocalBus, logger *zap.Logger) *RedisBus {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RedisBus{client: client, local: local, logger: logger}
}

// Channel returns the Redis channel name for topic.
func Channel(topic string) string { return channelPrefix + topic }

// Publish sends evt to every instance.
func (b *RedisBus) Publish(ctx context.Context, evt Event) error {
	evt = stamp(evt)
	payload, err := json.Marshal(evt)
	if err != nil {
		return fmt.Errorf("events: encode: %w", err)
	}
	if err := b.client.Publish(ctx, Channel(evt.Topic), payload).Err(); err != nil {
		return fmt.Errorf("events: publish %s: %w", evt.Topic, err)
	}
	return nil
}

// Subscribe registers a handler on the local fan-out.
func (b *RedisBus) Subscribe(topic string, handler Handler) func() {
	return b.local.Subscribe(topic, handler)
}

// Run relays Redis messages into the local bus until ctx is cancelled.
func (b *RedisBus) Run(ctx context.Context) error {
	sub := b.client.PSubscribe(ctx, channelPrefix+"*")
	defer sub.Close()

	if _, err := sub.Receive(ctx); err != nil {
		return fmt.Errorf("events: subscribe: %w", err)
	}
	b.logger.Info("event relay subscribed", zap.String("pattern", channelPrefix+"*"))

	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			evt, err := decode(msg.Channel, msg.Payload)
			if err != nil {
				b.logger.Warn("dropping malformed event", zap.String("channel", msg.Channel), zap.Error(err))
				continue
			}
			if err := b.local.Publish(ctx, evt); err != nil {
				b.logger.Warn("relay event failed", zap.String("topic", evt.Topic), zap.Error(err))
			}
		}
	}
}

func decode(channel, payload string) (Event, error) {
	var evt Event
	if err := json.Unmarshal([]byte(payload), &evt); err != nil {
		return Event{}, err
	}
	if evt.Topic == "" {
		evt.Topic = strings.TrimPrefix(channel, channelPrefix)
	}
	return stamp(evt), nil
}
