// Package redisstore backs the cooldown/rate windows with redis, so the
// state survives restarts and is shared across instances instead of
// living in a process-global map.
package redisstore

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"scholarfund/internal/core/ports"
)

// CooldownStore implements ports.CooldownStore on a redis client.
type CooldownStore struct {
	rdb *redis.Client
	log zerolog.Logger
}

var _ ports.CooldownStore = (*CooldownStore)(nil) // Ensure compliance

// NewCooldownStore creates the store and verifies the connection.
func NewCooldownStore(ctx context.Context, addr string, baseLogger *zerolog.Logger) (*CooldownStore, error) {
	log := baseLogger.With().Str("component", "redis_cooldown").Logger()

	rdb := redis.NewClient(&redis.Options{Addr: addr})
	if err := rdb.Ping(ctx).Err(); err != nil {
		log.Error().Err(err).Str("addr", addr).Msg("Failed to ping redis")
		return nil, err
	}

	log.Info().Str("addr", addr).Msg("Redis connection established")
	return &CooldownStore{rdb: rdb, log: log}, nil
}

// Close releases the client.
func (s *CooldownStore) Close() error {
	return s.rdb.Close()
}

func redisKey(key string, userID uuid.UUID) string {
	return fmt.Sprintf("cooldown:%s:%s", key, userID)
}

// StartCooldown opens the window; redis expiry closes it.
func (s *CooldownStore) StartCooldown(ctx context.Context, key string, userID uuid.UUID, d time.Duration) error {
	if err := s.rdb.Set(ctx, redisKey(key, userID), "1", d).Err(); err != nil {
		s.log.Error().Err(err).Str("key", key).Str("user_id", userID.String()).Msg("Failed to start cooldown")
		return err
	}
	return nil
}

// InCooldown reports whether the key still exists and its remaining TTL.
func (s *CooldownStore) InCooldown(ctx context.Context, key string, userID uuid.UUID) (bool, time.Duration, error) {
	ttl, err := s.rdb.TTL(ctx, redisKey(key, userID)).Result()
	if err != nil {
		s.log.Error().Err(err).Str("key", key).Str("user_id", userID.String()).Msg("Failed to read cooldown TTL")
		return false, 0, err
	}
	// -2 means the key is gone, -1 means no expiry was set.
	if ttl <= 0 {
		return false, 0, nil
	}
	return true, ttl, nil
}
