package redis

import (
	"bidding-engine/internal/domain"
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/shopspring/decimal"
)

// BidLedger stores one hash per auction (current amount, leading bidder,
// last update) plus an RPUSH-ed list of accepted bid events. The commit is
// a Lua script so the compare-and-swap on the hash and the history append
// are one indivisible unit: no reader can observe one without the other.
type BidLedger struct {
	client *redis.Client
}

// commitScript returns 1 on success, 0 when the stored amount no longer
// matches the caller's expectation (ARGV[1] empty means "no bid yet").
var commitScript = redis.NewScript(`
    local current = redis.call('HGET', KEYS[1], 'now_bid')
    if ARGV[1] == '' then
        if current ~= false then
            return 0
        end
    else
        if current == false or current ~= ARGV[1] then
            return 0
        end
    end
    redis.call('HSET', KEYS[1],
        'now_bid', ARGV[2],
        'bidder_id', ARGV[3],
        'last_updated', ARGV[4])
    redis.call('RPUSH', KEYS[2], ARGV[5])
    return 1
`)

func NewBidLedger(client *redis.Client) *BidLedger {
	return &BidLedger{client: client}
}

func stateKey(auctionID string) string {
	return fmt.Sprintf("auction_bid:%s", auctionID)
}

func historyKey(auctionID string) string {
	return fmt.Sprintf("auction_bid:%s:history", auctionID)
}

func (l *BidLedger) State(ctx context.Context, auctionID string) (*domain.BidState, error) {
	fields, err := l.client.HMGet(ctx, stateKey(auctionID), "now_bid", "bidder_id", "last_updated").Result()
	if err != nil {
		return nil, err
	}

	state := &domain.BidState{AuctionID: auctionID}
	if fields[0] == nil {
		return state, nil
	}

	amount, err := decimal.NewFromString(fields[0].(string))
	if err != nil {
		return nil, fmt.Errorf("corrupt amount for auction %s: %w", auctionID, err)
	}
	state.CurrentAmount = amount
	state.HasBid = true

	if fields[1] != nil {
		state.CurrentBidderID = fields[1].(string)
	}
	if fields[2] != nil {
		if millis, err := strconv.ParseInt(fields[2].(string), 10, 64); err == nil {
			state.LastUpdated = time.UnixMilli(millis).UTC()
		}
	}
	return state, nil
}

func (l *BidLedger) CommitBid(ctx context.Context, auctionID string, prev *domain.BidState, event *domain.BidEvent) (bool, error) {
	expected := ""
	if prev.HasBid {
		expected = prev.CurrentAmount.String()
	}

	payload, err := json.Marshal(event)
	if err != nil {
		return false, err
	}

	result, err := commitScript.Run(ctx, l.client,
		[]string{stateKey(auctionID), historyKey(auctionID)},
		expected,
		event.Amount.String(),
		event.BidderID,
		strconv.FormatInt(event.Timestamp.UnixMilli(), 10),
		string(payload),
	).Result()
	if err != nil {
		return false, err
	}

	return result.(int64) == 1, nil
}

func (l *BidLedger) History(ctx context.Context, auctionID string, page, pageSize int) ([]*domain.BidEvent, error) {
	start := int64(page) * int64(pageSize)
	stop := start + int64(pageSize) - 1

	entries, err := l.client.LRange(ctx, historyKey(auctionID), start, stop).Result()
	if err != nil {
		return nil, err
	}

	var events []*domain.BidEvent
	for _, entry := range entries {
		var event domain.BidEvent
		if err := json.Unmarshal([]byte(entry), &event); err != nil {
			return nil, fmt.Errorf("corrupt history entry for auction %s: %w", auctionID, err)
		}
		events = append(events, &event)
	}
	return events, nil
}

func (l *BidLedger) Clear(ctx context.Context, auctionID string) error {
	return l.client.Del(ctx, stateKey(auctionID), historyKey(auctionID)).Err()
}
