package redis

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"bidbout/internal/domain"

	"github.com/go-redis/redis/v8"
)

// RedisPriceCache mirrors each lot's current price and winner so reads
// and the WebSocket greeting skip MySQL. The bid ledger remains the
// source of truth; the cache is refreshed after every resolution.
type RedisPriceCache struct {
	client *redis.Client
}

func NewPriceCache(client *redis.Client) *RedisPriceCache {
	return &RedisPriceCache{client: client}
}

func (r *RedisPriceCache) SetLotState(ctx context.Context, state *domain.LotState) error {
	key := fmt.Sprintf("lot:%s", state.LotID)

	return r.client.HSet(ctx, key,
		"current_price", strconv.FormatInt(state.Price, 10),
		"winner_id", state.WinnerID,
		"last_updated", state.LastUpdated.Unix(),
	).Err()
}

func (r *RedisPriceCache) GetLotState(ctx context.Context, lotID string) (*domain.LotState, error) {
	key := fmt.Sprintf("lot:%s", lotID)

	result, err := r.client.HMGet(ctx, key, "current_price", "winner_id").Result()
	if err != nil {
		return nil, err
	}

	var price int64
	winnerID := ""

	if result[0] != nil {
		price, _ = strconv.ParseInt(result[0].(string), 10, 64)
	}
	if result[1] != nil {
		winnerID = result[1].(string)
	}

	return &domain.LotState{
		LotID:       lotID,
		Price:       price,
		WinnerID:    winnerID,
		LastUpdated: time.Now(),
	}, nil
}
