package workers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"interview_backend/internal/services/dto"
)

var ErrQueueFull = errors.New("match task queue is full")

// TaskSource is the consuming side of a match task queue. Next blocks until a
// task is available or ctx is done.
type TaskSource interface {
	Next(ctx context.Context) (dto.MatchTask, error)
}

// -------------------------------
// Redis list queue
// -------------------------------

// RedisQueue pushes tasks with LPUSH and pops them with BRPOP, so tasks are
// consumed oldest first and survive an API restart.
type RedisQueue struct {
	rdb         *redis.Client
	key         string
	pollTimeout time.Duration
}

func NewRedisQueue(rdb *redis.Client, key string) *RedisQueue {
	return &RedisQueue{rdb: rdb, key: key, pollTimeout: 5 * time.Second}
}

func (q *RedisQueue) Dispatch(ctx context.Context, task dto.MatchTask) error {
	payload, err := json.Marshal(task)
	if err != nil {
		return fmt.Errorf("marshal match task: %w", err)
	}
	if err := q.rdb.LPush(ctx, q.key, payload).Err(); err != nil {
		return fmt.Errorf("LPUSH %s: %w", q.key, err)
	}
	return nil
}

func (q *RedisQueue) Next(ctx context.Context) (dto.MatchTask, error) {
	for {
		if err := ctx.Err(); err != nil {
			return dto.MatchTask{}, err
		}

		res, err := q.rdb.BRPop(ctx, q.pollTimeout, q.key).Result()
		if errors.Is(err, redis.Nil) {
			continue
		}
		if err != nil {
			if ctx.Err() != nil {
				return dto.MatchTask{}, ctx.Err()
			}
			return dto.MatchTask{}, fmt.Errorf("BRPOP %s: %w", q.key, err)
		}

		// res is [key, value]
		var task dto.MatchTask
		if err := json.Unmarshal([]byte(res[1]), &task); err != nil {
			return dto.MatchTask{}, fmt.Errorf("decode match task: %w", err)
		}
		return task, nil
	}
}

func (q *RedisQueue) Len(ctx context.Context) (int64, error) {
	return q.rdb.LLen(ctx, q.key).Result()
}

// -------------------------------
// In-process queue
// -------------------------------

// InlineQueue is a buffered channel used when no Redis is configured. Tasks
// are lost on restart.
type InlineQueue struct {
	tasks chan dto.MatchTask
}

func NewInlineQueue(size int) *InlineQueue {
	if size < 1 {
		size = 1
	}
	return &InlineQueue{tasks: make(chan dto.MatchTask, size)}
}

func (q *InlineQueue) Dispatch(ctx context.Context, task dto.MatchTask) error {
	select {
	case q.tasks <- task:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	default:
		return ErrQueueFull
	}
}

func (q *InlineQueue) Next(ctx context.Context) (dto.MatchTask, error) {
	select {
	case task := <-q.tasks:
		return task, nil
	case <-ctx.Done():
		return dto.MatchTask{}, ctx.Err()
	}
}

func (q *InlineQueue) Len() int {
	return len(q.tasks)
}
