package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/ragsense/ragsense/internal/core/domain"
	"github.com/ragsense/ragsense/internal/core/ports/driven"
)

// Key layout:
//
//	ragsense:tasks        stream of due task ids, read by the worker group
//	ragsense:delayed      zset of task ids scored by due time
//	ragsense:inflight     hash task id -> stream message id of the claim
//	ragsense:task_counts  hash of finished task counters
//	ragsense:task:<id>    JSON task record, expires after taskTTL
const (
	taskStream    = "ragsense:tasks"
	taskGroup     = "ragsense:workers"
	delayedSet    = "ragsense:delayed"
	inflightHash  = "ragsense:inflight"
	countersHash  = "ragsense:task_counts"
	taskKeyPrefix = "ragsense:task:"

	consumerPrefix = "worker-"

	// a claim idle this long is taken over from its (presumed dead) worker
	claimTimeout = 5 * time.Minute

	defaultTaskTTL = 24 * time.Hour
)

var _ driven.TaskQueue = (*Queue)(nil)

// Queue is the reindex task queue on Redis Streams, used when REDIS_URL is
// set. The stream carries only ids; task state is kept in per-task records.
type Queue struct {
	client       redis.UniversalClient
	consumerName string
	taskTTL      time.Duration
	now          func() time.Time
}

type Option func(*Queue)

// WithTaskTTL sets how long task records outlive their last update
func WithTaskTTL(ttl time.Duration) Option {
	return func(q *Queue) {
		if ttl > 0 {
			q.taskTTL = ttl
		}
	}
}

// NewQueue joins the worker consumer group, creating stream and group on
// first use. consumerName must be unique per process; "" generates one.
func NewQueue(ctx context.Context, client redis.UniversalClient, consumerName string, opts ...Option) (*Queue, error) {
	if client == nil {
		return nil, errors.New("redis client is required")
	}
	if consumerName == "" {
		consumerName = consumerPrefix + strconv.FormatInt(time.Now().UnixNano(), 36)
	}

	q := &Queue{client: client, consumerName: consumerName, taskTTL: defaultTaskTTL, now: time.Now}
	for _, opt := range opts {
		opt(q)
	}

	if err := client.XGroupCreateMkStream(ctx, taskStream, taskGroup, "0").Err(); err != nil &&
		!strings.HasPrefix(err.Error(), "BUSYGROUP") {
		return nil, fmt.Errorf("create consumer group: %w", err)
	}
	return q, nil
}

func (q *Queue) Enqueue(ctx context.Context, task *domain.Task) error {
	if task == nil {
		return errors.New("task is required")
	}
	return q.EnqueueBatch(ctx, []*domain.Task{task})
}

// EnqueueBatch writes all tasks in one MULTI so a batch is visible whole
func (q *Queue) EnqueueBatch(ctx context.Context, tasks []*domain.Task) error {
	now := q.now()
	_, err := q.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		for _, task := range tasks {
			if task == nil {
				continue
			}
			if err := q.save(ctx, pipe, task); err != nil {
				return err
			}
			if task.ScheduledFor.After(now) {
				pipe.ZAdd(ctx, delayedSet, redis.Z{Score: dueScore(task), Member: task.ID})
			} else {
				pipe.XAdd(ctx, streamEntry(task.ID))
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("enqueue tasks: %w", err)
	}
	return nil
}

func (q *Queue) save(ctx context.Context, pipe redis.Pipeliner, task *domain.Task) error {
	data, err := json.Marshal(task)
	if err != nil {
		return fmt.Errorf("marshal task %s: %w", task.ID, err)
	}
	pipe.Set(ctx, taskKeyPrefix+task.ID, data, q.taskTTL)
	return nil
}

func dueScore(task *domain.Task) float64 {
	return float64(task.ScheduledFor.Unix())
}

func streamEntry(taskID string) *redis.XAddArgs {
	return &redis.XAddArgs{Stream: taskStream, Values: []any{"task_id", taskID}}
}

// DequeueWithTimeout claims the next due task, blocking up to timeout
// seconds (0 blocks until ctx ends). It returns nil, nil when nothing came.
func (q *Queue) DequeueWithTimeout(ctx context.Context, timeout int) (*domain.Task, error) {
	// both are retried on every call, so failures only delay work
	_ = q.releaseDue(ctx)
	if task, _ := q.takeOverStale(ctx); task != nil {
		return task, nil
	}

	res, err := q.client.XReadGroup(ctx, &redis.XReadGroupArgs{
		Group:    taskGroup,
		Consumer: q.consumerName,
		Streams:  []string{taskStream, ">"},
		Count:    1,
		Block:    time.Duration(timeout) * time.Second,
	}).Result()
	switch {
	case errors.Is(err, redis.Nil), ctx.Err() != nil:
		return nil, nil
	case err != nil:
		return nil, fmt.Errorf("read task stream: %w", err)
	case len(res) == 0 || len(res[0].Messages) == 0:
		return nil, nil
	}
	return q.claim(ctx, res[0].Messages[0])
}

// claim turns a delivered message into a processing task. Messages whose
// record has expired are acknowledged and dropped.
func (q *Queue) claim(ctx context.Context, msg redis.XMessage) (*domain.Task, error) {
	taskID, _ := msg.Values["task_id"].(string)
	var task *domain.Task
	if taskID != "" {
		var err error
		task, err = q.GetTask(ctx, taskID)
		if err != nil && !errors.Is(err, domain.ErrNotFound) {
			return nil, err
		}
	}
	if task == nil {
		q.client.XAck(ctx, taskStream, taskGroup, msg.ID)
		q.client.XDel(ctx, taskStream, msg.ID)
		return nil, nil
	}

	task.MarkProcessing()
	_, err := q.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, inflightHash, task.ID, msg.ID)
		return q.save(ctx, pipe, task)
	})
	if err != nil {
		return nil, fmt.Errorf("claim task %s: %w", task.ID, err)
	}
	return task, nil
}

func (q *Queue) Ack(ctx context.Context, taskID string) error {
	return q.settle(ctx, taskID, func(pipe redis.Pipeliner, task *domain.Task) {
		task.MarkCompleted()
		pipe.HIncrBy(ctx, countersHash, string(domain.TaskStatusCompleted), 1)
	})
}

// Nack reschedules the task after domain.RetryBackoff, or marks it failed
// when its attempts are used up
func (q *Queue) Nack(ctx context.Context, taskID string, reason string) error {
	return q.settle(ctx, taskID, func(pipe redis.Pipeliner, task *domain.Task) {
		if !task.CanRetry() {
			task.MarkFailed(reason)
			pipe.HIncrBy(ctx, countersHash, string(domain.TaskStatusFailed), 1)
			return
		}
		task.Retry(reason)
		pipe.ZAdd(ctx, delayedSet, redis.Z{Score: dueScore(task), Member: task.ID})
	})
}

// settle removes the task's claim from the stream and stores the state
// applied by update, all in one MULTI
func (q *Queue) settle(ctx context.Context, taskID string, update func(redis.Pipeliner, *domain.Task)) error {
	task, err := q.GetTask(ctx, taskID)
	if err != nil {
		return err
	}
	msgID, err := q.client.HGet(ctx, inflightHash, taskID).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		return fmt.Errorf("look up claim of task %s: %w", taskID, err)
	}

	_, err = q.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		if msgID != "" {
			pipe.XAck(ctx, taskStream, taskGroup, msgID)
			pipe.XDel(ctx, taskStream, msgID)
		}
		pipe.HDel(ctx, inflightHash, taskID)
		update(pipe, task)
		return q.save(ctx, pipe, task)
	})
	if err != nil {
		return fmt.Errorf("settle task %s: %w", taskID, err)
	}
	return nil
}

// GetTask returns domain.ErrNotFound once the record has expired
func (q *Queue) GetTask(ctx context.Context, taskID string) (*domain.Task, error) {
	data, err := q.client.Get(ctx, taskKeyPrefix+taskID).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("task %s: %w", taskID, domain.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get task %s: %w", taskID, err)
	}

	task := new(domain.Task)
	if err := json.Unmarshal(data, task); err != nil {
		return nil, fmt.Errorf("decode task %s: %w", taskID, err)
	}
	return task, nil
}

// Stats reads queue depth from the stream and delayed set. Completed and
// failed are lifetime counters, not bounded by the record TTL.
func (q *Queue) Stats(ctx context.Context) (*driven.QueueStats, error) {
	pipe := q.client.Pipeline()
	streamLen := pipe.XLen(ctx, taskStream)
	inflight := pipe.HLen(ctx, inflightHash)
	delayed := pipe.ZCard(ctx, delayedSet)
	counters := pipe.HGetAll(ctx, countersHash)
	if _, err := pipe.Exec(ctx); err != nil && !errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("read queue stats: %w", err)
	}

	stats := &driven.QueueStats{ProcessingCount: inflight.Val()}
	stats.PendingCount = max(streamLen.Val()-stats.ProcessingCount, 0) + delayed.Val()
	stats.CompletedCount, _ = strconv.ParseInt(counters.Val()[string(domain.TaskStatusCompleted)], 10, 64)
	stats.FailedCount, _ = strconv.ParseInt(counters.Val()[string(domain.TaskStatusFailed)], 10, 64)
	return stats, nil
}

func (q *Queue) Ping(ctx context.Context) error {
	return q.client.Ping(ctx).Err()
}

// Close leaves the client open; it is shared with the lock and cache
func (q *Queue) Close() error {
	return nil
}

// releaseDue moves delayed tasks whose time has come onto the stream. ZREM
// decides the winner when several workers race for the same id.
func (q *Queue) releaseDue(ctx context.Context) error {
	due, err := q.client.ZRangeByScore(ctx, delayedSet, &redis.ZRangeBy{
		Min: "-inf",
		Max: strconv.FormatInt(q.now().Unix(), 10),
	}).Result()
	if err != nil {
		return err
	}
	for _, id := range due {
		removed, err := q.client.ZRem(ctx, delayedSet, id).Result()
		if err != nil {
			return err
		}
		if removed == 1 {
			if err := q.client.XAdd(ctx, streamEntry(id)).Err(); err != nil {
				return err
			}
		}
	}
	return nil
}

// takeOverStale claims one message left unacknowledged past claimTimeout
func (q *Queue) takeOverStale(ctx context.Context) (*domain.Task, error) {
	msgs, _, err := q.client.XAutoClaim(ctx, &redis.XAutoClaimArgs{
		Stream:   taskStream,
		Group:    taskGroup,
		Consumer: q.consumerName,
		MinIdle:  claimTimeout,
		Start:    "0-0",
		Count:    1,
	}).Result()
	if err != nil || len(msgs) == 0 {
		return nil, err
	}
	return q.claim(ctx, msgs[0])
}
