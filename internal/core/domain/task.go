package domain

import (
	"strconv"
	"time"

	"github.com/google/uuid"
)

// GenerateID returns a random UUID string
func GenerateID() string {
	return uuid.NewString()
}

// TaskType names the work a queued task performs
type TaskType string

const (
	TaskTypeReindex    TaskType = "reindex_collection"
	TaskTypeReindexAll TaskType = "reindex_all"
)

type TaskStatus string

const (
	TaskStatusPending    TaskStatus = "pending"
	TaskStatusProcessing TaskStatus = "processing"
	TaskStatusCompleted  TaskStatus = "completed"
	TaskStatusFailed     TaskStatus = "failed"
)

const (
	defaultMaxAttempts = 3
	maxRetryBackoff    = 5 * time.Minute
)

const (
	payloadCollection = "collection"
	payloadBatchSize  = "batch_size"
	payloadScrollTTL  = "scroll_ttl"
)

// Task is a queued reindex job. Payload values are strings so that both queue
// backends store them without a schema, e.g.
// {"collection": "jira", "batch_size": "128", "scroll_ttl": "2m0s"}.
type Task struct {
	ID       string            `json:"id"`
	Type     TaskType          `json:"type"`
	Payload  map[string]string `json:"payload"`
	Status   TaskStatus        `json:"status"`
	Priority int               `json:"priority"` // higher runs first

	Attempts    int    `json:"attempts"`
	MaxAttempts int    `json:"max_attempts"`
	Error       string `json:"error,omitempty"` // last failure reason

	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
	StartedAt    *time.Time `json:"started_at,omitempty"`
	CompletedAt  *time.Time `json:"completed_at,omitempty"`
	ScheduledFor time.Time  `json:"scheduled_for"` // not claimable before this
}

func NewTask(taskType TaskType, payload map[string]string) *Task {
	now := time.Now()
	return &Task{
		ID:           GenerateID(),
		Type:         taskType,
		Payload:      payload,
		Status:       TaskStatusPending,
		MaxAttempts:  defaultMaxAttempts,
		CreatedAt:    now,
		UpdatedAt:    now,
		ScheduledFor: now,
	}
}

// NewReindexTask queues a reindex of req.Collection
func NewReindexTask(req ReindexRequest) *Task {
	p := req.payload()
	p[payloadCollection] = req.Collection
	return NewTask(TaskTypeReindex, p)
}

// NewReindexAllTask queues a reindex of every embeddings-enabled collection.
// Zero values are left out of the payload so the worker's defaults apply.
func NewReindexAllTask(batchSize int, scrollTTL time.Duration) *Task {
	return NewTask(TaskTypeReindexAll, ReindexRequest{BatchSize: batchSize, ScrollTTL: scrollTTL}.payload())
}

func (r ReindexRequest) payload() map[string]string {
	p := map[string]string{}
	if r.BatchSize > 0 {
		p[payloadBatchSize] = strconv.Itoa(r.BatchSize)
	}
	if r.ScrollTTL > 0 {
		p[payloadScrollTTL] = r.ScrollTTL.String()
	}
	return p
}

// ReindexRequest reads the payload back. Unparsable numbers decode as zero.
func (t *Task) ReindexRequest() ReindexRequest {
	req := ReindexRequest{Collection: t.Payload[payloadCollection]}
	req.BatchSize, _ = strconv.Atoi(t.Payload[payloadBatchSize])
	if d, err := time.ParseDuration(t.Payload[payloadScrollTTL]); err == nil {
		req.ScrollTTL = d
	}
	return req
}

func (t *Task) CanRetry() bool {
	return t.Attempts < t.MaxAttempts
}

// IsReady reports whether a worker may claim the task now
func (t *Task) IsReady() bool {
	return t.Status == TaskStatusPending && !time.Now().Before(t.ScheduledFor)
}

// MarkProcessing records a claim and counts the attempt
func (t *Task) MarkProcessing() {
	now := time.Now()
	t.Attempts++
	t.Status, t.StartedAt, t.UpdatedAt = TaskStatusProcessing, &now, now
}

func (t *Task) MarkCompleted() {
	now := time.Now()
	t.Status, t.CompletedAt, t.UpdatedAt = TaskStatusCompleted, &now, now
	t.Error = ""
}

func (t *Task) MarkFailed(reason string) {
	t.Status, t.Error, t.UpdatedAt = TaskStatusFailed, reason, time.Now()
}

// Retry puts the task back to pending after RetryBackoff(Attempts)
func (t *Task) Retry(reason string) {
	now := time.Now()
	t.Status, t.Error, t.UpdatedAt = TaskStatusPending, reason, now
	t.ScheduledFor = now.Add(RetryBackoff(t.Attempts))
}

// RetryBackoff is 2^attempts seconds, at most five minutes
func RetryBackoff(attempts int) time.Duration {
	if attempts < 0 {
		attempts = 0
	}
	if attempts > 8 {
		return maxRetryBackoff
	}
	return min(time.Duration(1<<attempts)*time.Second, maxRetryBackoff)
}
