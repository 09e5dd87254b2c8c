// Package redis provides a transcript cache shared between instances.
package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const keyPrefix = "vidrag:transcript:"

// TranscriptCache implements domain.TranscriptCache on Redis.
type TranscriptCache struct {
	rdb *redis.Client
	ttl time.Duration
}

// New connects to redisURL and verifies the server answers.
func New(ctx context.Context, redisURL string, ttl time.Duration) (*TranscriptCache, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	rdb := redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("redis %s unreachable: %w", opts.Addr, err)
	}
	return NewFromClient(rdb, ttl), nil
}

// NewFromClient wraps an existing client. ttl <= 0 stores without expiry.
func NewFromClient(rdb *redis.Client, ttl time.Duration) *TranscriptCache {
	if ttl < 0 {
		ttl = 0
	}
	return &TranscriptCache{rdb: rdb, ttl: ttl}
}

// Key returns the Redis key for a video.
func Key(videoID string) string {
	return keyPrefix + videoID
}

// Get returns the cached transcript for videoID.
func (c *TranscriptCache) Get(ctx context.Context, videoID string) (string, bool, error) {
	text, err := c.rdb.Get(ctx, Key(videoID)).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return text, true, nil
}

// Put stores the transcript for videoID.
func (c *TranscriptCache) Put(ctx context.Context, videoID, transcript string) error {
	return c.rdb.Set(ctx, Key(videoID), transcript, c.ttl).Err()
}

// Close closes the client.
func (c *TranscriptCache) Close() error {
	return c.rdb.Close()
}
