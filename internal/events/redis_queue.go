package events

import (
	"context"
	"errors"
	"fmt"
	"time"

	"ChainGate/internal/gate"

	"github.com/redis/go-redis/v9"
)

// RedisQueueConfig describes the Redis connection for the event queue.
type RedisQueueConfig struct {
	Address   string
	Password  string
	DB        int
	Queue     string
	BlockWait time.Duration
}

// RedisQueue carries decision events over a Redis list.
type RedisQueue struct {
	client *redis.Client
	queue  string
	wait   time.Duration
}

// NewRedisQueue connects to Redis and verifies the connection.
func NewRedisQueue(cfg RedisQueueConfig) (*RedisQueue, error) {
	if cfg.Address == "" {
		return nil, errors.New("redis address cannot be empty")
	}
	queue := cfg.Queue
	if queue == "" {
		queue = "chaingate:decisions"
	}
	wait := cfg.BlockWait
	if wait <= 0 {
		wait = 5 * time.Second
	}
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Address,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err := client.Ping(context.Background()).Err(); err != nil {
		return nil, fmt.Errorf("connect to redis: %w", err)
	}
	return &RedisQueue{client: client, queue: queue, wait: wait}, nil
}

// Publish implements Publisher.
func (q *RedisQueue) Publish(ctx context.Context, event gate.DecisionEvent) error {
	payload, err := encodeEvent(event)
	if err != nil {
		return err
	}
	if err := q.client.LPush(ctx, q.queue, payload).Err(); err != nil {
		return fmt.Errorf("publish decision event to redis: %w", err)
	}
	return nil
}

// Consume implements Consumer via blocking BRPOP workers.
func (q *RedisQueue) Consume(ctx context.Context, workerCount int, handler Handler) error {
	if workerCount <= 0 {
		workerCount = 1
	}
	errCh := make(chan error, workerCount)
	for i := 0; i < workerCount; i++ {
		go func() {
			for {
				select {
				case <-ctx.Done():
					errCh <- ctx.Err()
					return
				default:
				}
				values, err := q.client.BRPop(ctx, q.wait, q.queue).Result()
				if err != nil {
					if errors.Is(err, context.Canceled) || errors.Is(err, redis.ErrClosed) {
						errCh <- err
						return
					}
					if err == redis.Nil {
						continue
					}
					errCh <- fmt.Errorf("pop decision event from redis: %w", err)
					return
				}
				if len(values) != 2 {
					continue
				}
				event, err := decodeEvent([]byte(values[1]))
				if err != nil {
					// Undecodable payloads are dropped; requeueing them
					// would loop forever.
					continue
				}
				_ = handler(ctx, event)
			}
		}()
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case err := <-errCh:
		return err
	}
}

// Close implements Queue.
func (q *RedisQueue) Close() error {
	if q == nil || q.client == nil {
		return nil
	}
	return q.client.Close()
}

var _ Queue = (*RedisQueue)(nil)
