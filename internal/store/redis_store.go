// Package store keeps generated route plans in Redis so they can be fetched
// again by ID until they expire.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/UnknownOlympus/hermes/internal/models"
	"github.com/redis/go-redis/v9"
)

const (
	planKeyPrefix = "hermes:plan:"
	latestPlanKey = "hermes:plans:latest"
)

// ErrPlanNotFound is returned when no plan is stored under the requested ID.
var ErrPlanNotFound = errors.New("route plan not found")

// RedisStore saves route plans as JSON documents with a TTL.
type RedisStore struct {
	rdb redis.Cmdable
	ttl time.Duration
}

// NewRedisStore returns a store writing through rdb.
func NewRedisStore(rdb redis.Cmdable, ttl time.Duration) *RedisStore {
	return &RedisStore{rdb: rdb, ttl: ttl}
}

// NewClient connects to Redis and checks the connection.
func NewClient(ctx context.Context, addr, password string, db int) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{Addr: addr, Password: password, DB: db})

	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("failed to ping redis: %w", err)
	}

	return rdb, nil
}

// SavePlan stores plan under its ID and marks it as the latest one.
func (s *RedisStore) SavePlan(ctx context.Context, plan *models.RoutePlan) error {
	payload, err := json.Marshal(plan)
	if err != nil {
		return fmt.Errorf("failed to encode route plan: %w", err)
	}

	_, err = s.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, planKeyPrefix+plan.ID, payload, s.ttl)
		pipe.Set(ctx, latestPlanKey, plan.ID, s.ttl)
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to store route plan: %w", err)
	}

	return nil
}

// GetPlan loads the plan stored under id.
func (s *RedisStore) GetPlan(ctx context.Context, id string) (*models.RoutePlan, error) {
	raw, err := s.rdb.Get(ctx, planKeyPrefix+id).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("%w: %s", ErrPlanNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read route plan: %w", err)
	}

	var plan models.RoutePlan
	if err = json.Unmarshal(raw, &plan); err != nil {
		return nil, fmt.Errorf("failed to decode route plan: %w", err)
	}

	return &plan, nil
}

// LatestPlan loads the most recently saved plan.
func (s *RedisStore) LatestPlan(ctx context.Context) (*models.RoutePlan, error) {
	id, err := s.rdb.Get(ctx, latestPlanKey).Result()
	if errors.Is(err, redis.Nil) {
		return nil, ErrPlanNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read latest plan id: %w", err)
	}

	return s.GetPlan(ctx, id)
}
