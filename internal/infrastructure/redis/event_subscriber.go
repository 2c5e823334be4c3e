package redis

import (
	"bidding-engine/internal/domain"
	"bidding-engine/pkg/logger"
	"context"
	"encoding/json"

	"github.com/go-redis/redis/v8"
)

type EventSubscriber struct {
	client *redis.Client
	log    logger.Logger
}

func NewEventSubscriber(client *redis.Client, log logger.Logger) *EventSubscriber {
	return &EventSubscriber{client: client, log: log}
}

// SubscribeToBidEvents blocks until ctx is cancelled, invoking handler for
// every accepted bid published on the bid events channel.
func (s *EventSubscriber) SubscribeToBidEvents(ctx context.Context, handler domain.EventHandler) error {
	pubsub := s.client.Subscribe(ctx, bidEventsChannel)
	defer pubsub.Close()

	ch := pubsub.Channel()
	s.log.Info("Subscribed to bid events")

	for {
		select {
		case msg := <-ch:
			var event domain.BidEvent
			if err := json.Unmarshal([]byte(msg.Payload), &event); err != nil {
				s.log.Error("Failed to parse bid event", "payload", msg.Payload, "error", err)
				continue
			}
			if err := handler(&event); err != nil {
				s.log.Error("Failed to handle bid event", "auction_id", event.AuctionID, "error", err)
			}

		case <-ctx.Done():
			s.log.Info("Bid event subscriber stopped")
			return ctx.Err()
		}
	}
}
