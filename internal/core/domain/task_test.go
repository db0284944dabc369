package domain

import (
	"testing"
	"time"
)

func TestGenerateID(t *testing.T) {
	id1 := GenerateID()
	id2 := GenerateID()

	if id1 == "" || id2 == "" {
		t.Error("expected non-empty IDs")
	}
	if id1 == id2 {
		t.Error("expected unique IDs")
	}
	if len(id1) != 36 {
		t.Errorf("expected UUID length 36, got %d", len(id1))
	}
}

func TestNewTask(t *testing.T) {
	task := NewTask(TaskTypeReindexAll, map[string]string{"key": "value"})

	if task.ID == "" {
		t.Error("expected non-empty ID")
	}
	if task.Type != TaskTypeReindexAll {
		t.Errorf("expected type %s, got %s", TaskTypeReindexAll, task.Type)
	}
	if task.Status != TaskStatusPending {
		t.Errorf("expected status %s, got %s", TaskStatusPending, task.Status)
	}
	if task.MaxAttempts != 3 {
		t.Errorf("expected max attempts 3, got %d", task.MaxAttempts)
	}
	if !task.IsReady() {
		t.Error("expected new task to be ready")
	}
}

func TestNewReindexTask_RoundTripsRequest(t *testing.T) {
	req := ReindexRequest{Collection: "jira", BatchSize: 100, ScrollTTL: 90 * time.Second}
	task := NewReindexTask(req)

	if task.Type != TaskTypeReindex {
		t.Errorf("expected type %s, got %s", TaskTypeReindex, task.Type)
	}

	got := task.ReindexRequest()
	if got != req {
		t.Errorf("expected %+v, got %+v", req, got)
	}
}

func TestNewReindexAllTask_OmitsUnsetValues(t *testing.T) {
	task := NewReindexAllTask(0, 0)

	if len(task.Payload) != 0 {
		t.Errorf("expected empty payload, got %v", task.Payload)
	}

	req := task.ReindexRequest()
	req.ApplyDefaults()
	if req.BatchSize != DefaultBatchSize {
		t.Errorf("expected default batch size, got %d", req.BatchSize)
	}
}

func TestTask_ReindexRequest_MalformedPayload(t *testing.T) {
	task := NewTask(TaskTypeReindex, map[string]string{
		"collection": "wiki",
		"batch_size": "lots",
		"scroll_ttl": "soon",
	})

	req := task.ReindexRequest()
	if req.Collection != "wiki" {
		t.Errorf("expected wiki, got %s", req.Collection)
	}
	if req.BatchSize != 0 || req.ScrollTTL != 0 {
		t.Errorf("expected zero values, got %d/%v", req.BatchSize, req.ScrollTTL)
	}
}

func TestTask_StateTransitions(t *testing.T) {
	task := NewTask(TaskTypeReindex, nil)

	task.MarkProcessing()
	if task.Status != TaskStatusProcessing || task.Attempts != 1 || task.StartedAt == nil {
		t.Errorf("unexpected processing state: %+v", task)
	}

	task.Retry("boom")
	if task.Status != TaskStatusPending || task.Error != "boom" {
		t.Errorf("unexpected retry state: %+v", task)
	}
	if !task.ScheduledFor.After(task.UpdatedAt) {
		t.Error("expected retry to be scheduled in the future")
	}
	if task.IsReady() {
		t.Error("expected retried task not to be ready yet")
	}

	task.MarkProcessing()
	task.MarkCompleted()
	if task.Status != TaskStatusCompleted || task.CompletedAt == nil || task.Error != "" {
		t.Errorf("unexpected completed state: %+v", task)
	}
}

func TestTask_CanRetry(t *testing.T) {
	task := NewTask(TaskTypeReindex, nil)
	for i := 0; i < task.MaxAttempts; i++ {
		if !task.CanRetry() {
			t.Fatalf("expected retry allowed at attempt %d", i)
		}
		task.MarkProcessing()
	}
	if task.CanRetry() {
		t.Error("expected retries exhausted")
	}
}

func TestRetryBackoff(t *testing.T) {
	tests := []struct {
		attempts int
		want     time.Duration
	}{
		{0, time.Second},
		{1, 2 * time.Second},
		{3, 8 * time.Second},
		{8, 256 * time.Second},
		{9, 5 * time.Minute},
		{40, 5 * time.Minute},
	}

	for _, tt := range tests {
		if got := RetryBackoff(tt.attempts); got != tt.want {
			t.Errorf("RetryBackoff(%d) = %v, want %v", tt.attempts, got, tt.want)
		}
	}
}
