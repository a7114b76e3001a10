package redis

import (
	"context"
	"fmt"
	"strconv"

	"bidbout/internal/domain"

	"github.com/go-redis/redis/v8"
)

type RedisStateCache struct {
	client *redis.Client
}

func NewStateCache(client *redis.Client) *RedisStateCache {
	return &RedisStateCache{client: client}
}

func (r *RedisStateCache) SetLotStatus(ctx context.Context, lotID string, status domain.LotStatus) error {
	key := fmt.Sprintf("lot:%s:status", lotID)
	return r.client.Set(ctx, key, int(status), 0).Err()
}

func (r *RedisStateCache) GetLotStatus(ctx context.Context, lotID string) (domain.LotStatus, error) {
	key := fmt.Sprintf("lot:%s:status", lotID)

	result, err := r.client.Get(ctx, key).Result()
	if err != nil {
		if err == redis.Nil {
			return domain.LotPending, nil
		}
		return domain.LotPending, err
	}

	status, err := strconv.Atoi(result)
	if err != nil {
		return domain.LotPending, err
	}

	return domain.LotStatus(status), nil
}
