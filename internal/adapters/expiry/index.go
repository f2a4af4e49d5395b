package expiry

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

const dueSetKey = "auction:expirations"

// Index is a Redis sorted-set index of auction end times, scored by
// unix timestamp. It only answers "what is due"; settlement stays
// caller triggered through the expiry finalizer.
type Index struct {
	redis  *redis.Client
	logger zerolog.Logger
}

type IndexParams struct {
	RedisClient *redis.Client
	Logger      zerolog.Logger
}

// NewIndex creates a new Redis-backed expiry index
func NewIndex(params IndexParams) *Index {
	return &Index{
		redis:  params.RedisClient,
		logger: params.Logger.With().Str("component", "expiry_index").Logger(),
	}
}

// Track records a token's end time, overwriting any previous entry.
func (i *Index) Track(ctx context.Context, tokenID uint64, endTime time.Time) error {
	err := i.redis.ZAdd(ctx, dueSetKey, redis.Z{
		Score:  float64(endTime.Unix()),
		Member: strconv.FormatUint(tokenID, 10),
	}).Err()

	if err != nil {
		i.logger.Error().Err(err).Uint64("token_id", tokenID).Msg("Failed to track auction expiry")
		return fmt.Errorf("failed to track auction expiry: %w", err)
	}

	i.logger.Debug().
		Uint64("token_id", tokenID).
		Time("end_time", endTime).
		Msg("Auction tracked in expiry index")

	return nil
}

// Remove drops a token from the index after settlement
func (i *Index) Remove(ctx context.Context, tokenID uint64) error {
	if err := i.redis.ZRem(ctx, dueSetKey, strconv.FormatUint(tokenID, 10)).Err(); err != nil {
		return fmt.Errorf("failed to remove auction from expiry index: %w", err)
	}
	return nil
}

// Due returns tokens whose tracked end time is at or before now
func (i *Index) Due(ctx context.Context, now time.Time) ([]uint64, error) {
	members, err := i.redis.ZRangeByScore(ctx, dueSetKey, &redis.ZRangeBy{
		Min: "0",
		Max: strconv.FormatInt(now.Unix(), 10),
	}).Result()

	if err != nil {
		return nil, fmt.Errorf("failed to read expiry index: %w", err)
	}

	due := make([]uint64, 0, len(members))
	for _, member := range members {
		tokenID, err := strconv.ParseUint(member, 10, 64)
		if err != nil {
			i.logger.Error().Err(err).Str("member", member).Msg("Invalid token id in expiry index")
			continue
		}
		due = append(due, tokenID)
	}

	return due, nil
}
