// Package queue carries background jobs from the API to the worker. The
// database row is the record of a job; a queue only transports it.
package queue

import (
	"context"
	"errors"

	"github.com/havenhq/haven/internal/models"
)

// ErrClosed is returned by Dequeue once the queue has been closed.
var ErrClosed = errors.New("queue closed")

// Queue represents a job queue interface
type Queue interface {
	// Enqueue adds a job to the queue. The job must already have an ID.
	Enqueue(ctx context.Context, job *models.Job) error

	// Dequeue blocks for the next job. It returns context.DeadlineExceeded
	// when a poll interval passes with nothing to do.
	Dequeue(ctx context.Context) (*models.Job, error)

	// Close closes the queue and releases resources
	Close() error
}
