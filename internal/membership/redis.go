package membership

import (
	"context"

	apperrors "mergington-activities/internal/common/errors"
)

// Publisher is satisfied by *database.RedisClient.
type Publisher interface {
	Publish(ctx context.Context, channel string, payload []byte) (int64, error)
}

// RedisPublisher publishes each event as JSON on a pub/sub channel.
type RedisPublisher struct {
	client  Publisher
	channel string
}

func NewRedisPublisher(client Publisher, channel string) *RedisPublisher {
	return &RedisPublisher{client: client, channel: channel}
}

func (p *RedisPublisher) Name() string { return "redis" }

func (p *RedisPublisher) Handle(ctx context.Context, evt Event) error {
	payload, err := evt.JSON()
	if err != nil {
		return apperrors.NewEventPublishFailedError("redis:"+p.channel, err)
	}
	if _, err := p.client.Publish(ctx, p.channel, payload); err != nil {
		return apperrors.NewEventPublishFailedError("redis:"+p.channel, err)
	}
	return nil
}
