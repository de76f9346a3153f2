package status

import (
	"context"
	"encoding/json"
	"time"

	"github.com/charmbracelet/log"
	"github.com/redis/go-redis/v9"
)

// Publisher is the subset of a Redis client used by [RedisSink].
// *redis.Client satisfies it.
type Publisher interface {
	Publish(ctx context.Context, channel string, message any) *redis.IntCmd
}

// RedisSink publishes every event as JSON on a Redis pub/sub channel so that
// other processes (dashboards, a second UI) can follow a run live. Nothing is
// stored: subscribers that are not listening miss the event.
type RedisSink struct {
	pub     Publisher
	channel string
	timeout time.Duration
	logger  *log.Logger
}

// NewRedisSink returns a sink publishing on channel. Publish failures are
// logged to logger (if non-nil) and never interrupt generation.
func NewRedisSink(pub Publisher, channel string, logger *log.Logger) *RedisSink {
	return &RedisSink{pub: pub, channel: channel, timeout: 2 * time.Second, logger: logger}
}

// Channel returns the Redis channel events are published on.
func (s *RedisSink) Channel() string { return s.channel }

// Emit publishes e.
func (s *RedisSink) Emit(e Event) {
	payload, err := json.Marshal(e)
	if err != nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()
	if err := s.pub.Publish(ctx, s.channel, payload).Err(); err != nil && s.logger != nil {
		s.logger.Warn("status publish failed", "channel", s.channel, "error", err)
	}
}

// NewRedisClient connects to the Redis server at addr.
func NewRedisClient(addr, password string, db int) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
}
