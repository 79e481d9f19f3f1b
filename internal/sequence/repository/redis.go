package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/fekuna/omnipos-challan-service/internal/model"
	"github.com/redis/go-redis/v9"
)

// RedisRepository keeps counters in redis. INCR is atomic, but it commits on its own:
// a challan that fails after Increment leaves a gap in the sequence.
type RedisRepository struct {
	client *redis.Client
}

func NewRedisRepository(client *redis.Client) *RedisRepository {
	return &RedisRepository{client: client}
}

func counterKey(financialYear string, taxType model.TaxType) string {
	return fmt.Sprintf("challan:counter:%s:%s", financialYear, taxType)
}

func (r *RedisRepository) Increment(ctx context.Context, financialYear string, taxType model.TaxType) (int, error) {
	seq, err := r.client.Incr(ctx, counterKey(financialYear, taxType)).Result()
	if err != nil {
		return 0, err
	}
	return int(seq), nil
}

func (r *RedisRepository) Current(ctx context.Context, financialYear string, taxType model.TaxType) (int, error) {
	seq, err := r.client.Get(ctx, counterKey(financialYear, taxType)).Int()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	return seq, err
}
