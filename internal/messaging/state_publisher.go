package messaging

import (
	"context"
	"encoding/json"
	"fmt"

	"weather-lookup/internal/services"

	"github.com/redis/go-redis/v9"
)

const DefaultStateChannel = "weather:state"

type redisPublisher interface {
	Publish(ctx context.Context, channel string, message any) *redis.IntCmd
}

// StatePublisher broadcasts every store transition on a Redis pub/sub channel.
type StatePublisher struct {
	rdb     redisPublisher
	channel string
}

func NewStatePublisher(rdb redisPublisher, channel string) *StatePublisher {
	if channel == "" {
		channel = DefaultStateChannel
	}
	return &StatePublisher{rdb: rdb, channel: channel}
}

func (p *StatePublisher) Name() string {
	return "redis-state"
}

func (p *StatePublisher) Channel() string {
	return p.channel
}

func (p *StatePublisher) Handle(ctx context.Context, st services.State) error {
	data, err := json.Marshal(st)
	if err != nil {
		return fmt.Errorf("marshal state: %w", err)
	}
	if err := p.rdb.Publish(ctx, p.channel, data).Err(); err != nil {
		return fmt.Errorf("redis publish %s: %w", p.channel, err)
	}
	return nil
}

// Follow subscribes to channel and decodes every message into a State until
// ctx is done.
func Follow(ctx context.Context, rdb *redis.Client, channel string, handler func(services.State)) error {
	sub := rdb.Subscribe(ctx, channel)
	defer sub.Close()

	if _, err := sub.Receive(ctx); err != nil {
		return fmt.Errorf("redis subscribe %s: %w", channel, err)
	}

	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			var st services.State
			if err := json.Unmarshal([]byte(msg.Payload), &st); err != nil {
				continue
			}
			handler(st)
		}
	}
}
