package cache

import (
	"context"
	"fmt"
	"time"

	"fieldops/storage/redis"
)

const (
	// Dedupe markers replace in-memory "already handled today" sets so a
	// process restart cannot replay or drop effects.
	scanMarkerPrefix       = "scan:done"
	messageProcessedPrefix = "message:processed"

	markerTTL    = 48 * time.Hour
	processedTTL = 48 * time.Hour
)

// IsScanMarked reports whether a (scheduler, date, target) effect was
// already applied.
func IsScanMarked(ctx context.Context, scheduler, date string, targetID int64) (bool, error) {
	key := redis.Key(scanMarkerPrefix, scheduler, date, fmt.Sprintf("%d", targetID))
	result, err := redis.Client().Exists(ctx, key).Result()
	if err != nil {
		return false, fmt.Errorf("failed to check scan marker: %w", err)
	}
	return result > 0, nil
}

// MarkScan records a (scheduler, date, target) effect as applied.
func MarkScan(ctx context.Context, scheduler, date string, targetID int64) error {
	key := redis.Key(scanMarkerPrefix, scheduler, date, fmt.Sprintf("%d", targetID))
	return redis.Client().Set(ctx, key, "1", markerTTL).Err()
}

// TryMarkScan atomically claims a (scheduler, date, target) effect.
// Returns true when this caller won the claim.
func TryMarkScan(ctx context.Context, scheduler, date string, targetID int64) (bool, error) {
	key := redis.Key(scanMarkerPrefix, scheduler, date, fmt.Sprintf("%d", targetID))
	result, err := redis.Client().SetNX(ctx, key, "1", markerTTL).Result()
	if err != nil {
		return false, fmt.Errorf("failed to claim scan marker: %w", err)
	}
	return result, nil
}

// UnmarkScan clears a marker so a failed effect can retry next tick.
func UnmarkScan(ctx context.Context, scheduler, date string, targetID int64) error {
	key := redis.Key(scanMarkerPrefix, scheduler, date, fmt.Sprintf("%d", targetID))
	return redis.Client().Del(ctx, key).Err()
}

// TryMarkMessageProcessing atomically claims a queue message by ID.
// Returns true on first processing, false for duplicates.
func TryMarkMessageProcessing(ctx context.Context, messageID string, ttl time.Duration) (bool, error) {
	key := redis.Key(messageProcessedPrefix, messageID)
	if ttl <= 0 {
		ttl = processedTTL
	}

	result, err := redis.Client().SetNX(ctx, key, "processing", ttl).Result()
	if err != nil {
		return false, fmt.Errorf("failed to mark message as processing: %w", err)
	}
	return result, nil
}

// UnmarkMessageProcessing releases a claim so the message can be retried.
func UnmarkMessageProcessing(ctx context.Context, messageID string) error {
	key := redis.Key(messageProcessedPrefix, messageID)
	return redis.Client().Del(ctx, key).Err()
}

// MarkMessageProcessed finalizes a successful delivery.
func MarkMessageProcessed(ctx context.Context, messageID string, ttl time.Duration) error {
	key := redis.Key(messageProcessedPrefix, messageID)
	if ttl <= 0 {
		ttl = processedTTL
	}
	return redis.Client().Set(ctx, key, "completed", ttl).Err()
}
