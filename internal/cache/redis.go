// internal/cache/redis.go
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

// DefaultQueueName is the Redis list the historian consumes.
const DefaultQueueName = "pyramid_actions"

// ActionRecord is one accepted room action, as consumed by the historian.
type ActionRecord struct {
	RoomCode      string                 `json:"room_code"`
	GameID        uuid.UUID              `json:"game_id"`
	ActionIndex   int                    `json:"action_index"`
	ActorID       uuid.UUID              `json:"actor_id"`
	ActionType    string                 `json:"action_type"`
	ActionPayload map[string]interface{} `json:"action_payload"`
	Timestamp     int64                  `json:"timestamp"`
}

// Publisher pushes ActionRecords onto a Redis list.
type Publisher struct {
	rdb     *redis.Client
	queue   string
	timeout time.Duration
	log     *logrus.Entry
}

// Connect creates a Redis client and pings it.
func Connect(ctx context.Context, addr string, db int) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr: addr,
		DB:   db,
	})
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("failed to connect to Redis at %s: %w", addr, err)
	}
	return rdb, nil
}

// NewPublisher wraps a connected client. An empty queue uses DefaultQueueName.
func NewPublisher(rdb *redis.Client, queue string, logger *logrus.Logger) *Publisher {
	if queue == "" {
		queue = DefaultQueueName
	}
	return &Publisher{
		rdb:     rdb,
		queue:   queue,
		timeout: 2 * time.Second,
		log:     logger.WithField("component", "historian_feed"),
	}
}

// Publish serializes the record and RPUSHes it onto the queue.
func (p *Publisher) Publish(ctx context.Context, rec ActionRecord) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("failed to marshal ActionRecord: %w", err)
	}
	if err := p.rdb.RPush(ctx, p.queue, data).Err(); err != nil {
		return fmt.Errorf("failed to RPush to Redis list '%s': %w", p.queue, err)
	}
	return nil
}

// RecordAction publishes asynchronously so room handlers never wait on Redis.
func (p *Publisher) RecordAction(rec ActionRecord) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), p.timeout)
		defer cancel()
		if err := p.Publish(ctx, rec); err != nil {
			p.log.WithFields(logrus.Fields{
				"room":   rec.RoomCode,
				"action": rec.ActionType,
				"index":  rec.ActionIndex,
			}).Warnf("publish action: %v", err)
		}
	}()
}

// Consumer pops ActionRecords off the historian queue.
type Consumer struct {
	rdb   *redis.Client
	queue string
}

// NewConsumer reads from queue, or DefaultQueueName when empty.
func NewConsumer(rdb *redis.Client, queue string) *Consumer {
	if queue == "" {
		queue = DefaultQueueName
	}
	return &Consumer{rdb: rdb, queue: queue}
}

// Pop blocks up to timeout for the next record. It returns (nil, nil) when
// the queue stayed empty.
func (c *Consumer) Pop(ctx context.Context, timeout time.Duration) (*ActionRecord, error) {
	res, err := c.rdb.BLPop(ctx, timeout, c.queue).Result()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("BLPop %s: %w", c.queue, err)
	}
	if len(res) < 2 {
		return nil, nil
	}
	var rec ActionRecord
	if err := json.Unmarshal([]byte(res[1]), &rec); err != nil {
		return nil, fmt.Errorf("invalid action record: %w", err)
	}
	return &rec, nil
}
