package redis

import (
	"context"
	"fmt"

	"bidbout/internal/domain"

	"github.com/go-redis/redis/v8"
)

const bidEventChannel = "bid_events"

type EventPublisherImpl struct {
	client *redis.Client
}

func NewEventPublisher(client *redis.Client) *EventPublisherImpl {
	return &EventPublisherImpl{client: client}
}

func (r *EventPublisherImpl) PublishBidEvent(ctx context.Context, event *domain.BidEvent) error {
	eventData := fmt.Sprintf("%s|%s|%s|%d|%d",
		event.LotID, event.Type, event.BidderID, event.Amount, event.Timestamp.Unix())

	return r.client.Publish(ctx, bidEventChannel, eventData).Err()
}
