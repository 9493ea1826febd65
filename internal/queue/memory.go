package queue

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/havenhq/haven/internal/models"
)

// MemoryQueue is a single-process queue backed by a buffered channel.
// Jobs pending at shutdown are lost; their rows stay "pending".
type MemoryQueue struct {
	jobChan chan *models.Job
	mu      sync.RWMutex
	closed  bool
}

// NewMemoryQueue creates a new in-memory queue
func NewMemoryQueue(bufferSize int) *MemoryQueue {
	if bufferSize <= 0 {
		bufferSize = 100
	}

	slog.Info("Initialized in-memory job queue", "buffer_size", bufferSize)
	return &MemoryQueue{
		jobChan: make(chan *models.Job, bufferSize),
	}
}

// Enqueue adds a job to the queue
func (q *MemoryQueue) Enqueue(ctx context.Context, job *models.Job) error {
	if job.ID == uuid.Nil {
		return fmt.Errorf("job must have an ID")
	}

	q.mu.RLock()
	defer q.mu.RUnlock()
	if q.closed {
		return ErrClosed
	}

	select {
	case q.jobChan <- job:
		slog.Debug("Job enqueued", "job_id", job.ID, "type", job.Type)
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(5 * time.Second):
		return fmt.Errorf("queue is full, could not enqueue job %s", job.ID)
	}
}

// Dequeue retrieves the next job from the queue
func (q *MemoryQueue) Dequeue(ctx context.Context) (*models.Job, error) {
	select {
	case job, ok := <-q.jobChan:
		if !ok {
			return nil, ErrClosed
		}
		slog.Debug("Job dequeued", "job_id", job.ID, "type", job.Type)
		return job, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Len returns the number of jobs waiting.
func (q *MemoryQueue) Len() int {
	return len(q.jobChan)
}

// Close closes the queue and releases resources
func (q *MemoryQueue) Close() error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return nil
	}
	q.closed = true
	close(q.jobChan)
	slog.Info("Memory queue closed")
	return nil
}
