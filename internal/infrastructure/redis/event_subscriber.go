package redis

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"bidbout/internal/domain"
	"bidbout/pkg/logger"

	"github.com/go-redis/redis/v8"
)

type RedisEventSubscriber struct {
	client *redis.Client
	log    logger.Logger
}

func NewEventSubscriber(client *redis.Client, log logger.Logger) *RedisEventSubscriber {
	return &RedisEventSubscriber{
		client: client,
		log:    log,
	}
}

func (r *RedisEventSubscriber) SubscribeToBidEvents(ctx context.Context, handler domain.EventHandler) error {
	pubsub := r.client.Subscribe(ctx, bidEventChannel)
	defer pubsub.Close()

	ch := pubsub.Channel()

	r.log.Info("Subscribed to bid events")

	for {
		select {
		case msg := <-ch:
			event, err := parseEventData(msg.Payload)
			if err != nil {
				r.log.Error("Failed to parse event", "payload", msg.Payload, "error", err)
				continue
			}

			if err := handler(event); err != nil {
				r.log.Error("Failed to handle event", "event", event, "error", err)
			}

		case <-ctx.Done():
			r.log.Info("Event subscriber stopped")
			return ctx.Err()
		}
	}
}

// parseEventData unpacks "lotID|eventType|bidderID|amount|timestamp".
func parseEventData(payload string) (*domain.BidEvent, error) {
	parts := strings.Split(payload, "|")
	if len(parts) < 5 {
		return nil, fmt.Errorf("invalid event format: %s", payload)
	}

	amount, err := strconv.ParseInt(parts[3], 10, 64)
	if err != nil {
		return nil, err
	}

	timestamp, err := strconv.ParseInt(parts[4], 10, 64)
	if err != nil {
		return nil, err
	}

	return &domain.BidEvent{
		LotID:     parts[0],
		Type:      domain.BidEventType(parts[1]),
		BidderID:  parts[2],
		Amount:    amount,
		Timestamp: time.Unix(timestamp, 0),
	}, nil
}
