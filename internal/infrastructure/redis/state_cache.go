package redis

import (
	"bidding-engine/internal/domain"
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/go-redis/redis/v8"
)

// StateCache fronts the auction catalog's status lookups so the hot bid path
// does not hit the relational store on every call.
type StateCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewStateCache(client *redis.Client, ttl time.Duration) *StateCache {
	return &StateCache{client: client, ttl: ttl}
}

func statusKey(auctionID string) string {
	return fmt.Sprintf("auction:%s:status", auctionID)
}

func (c *StateCache) SetAuctionStatus(ctx context.Context, auctionID string, status domain.AuctionStatus) error {
	return c.client.Set(ctx, statusKey(auctionID), int(status), c.ttl).Err()
}

func (c *StateCache) GetAuctionStatus(ctx context.Context, auctionID string) (domain.AuctionStatus, bool, error) {
	result, err := c.client.Get(ctx, statusKey(auctionID)).Result()
	if err != nil {
		if err == redis.Nil {
			return domain.AuctionNotStarted, false, nil
		}
		return domain.AuctionNotStarted, false, err
	}

	status, err := strconv.Atoi(result)
	if err != nil {
		return domain.AuctionNotStarted, false, err
	}
	return domain.AuctionStatus(status), true, nil
}
