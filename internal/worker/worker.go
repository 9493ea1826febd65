package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/havenhq/haven/internal/metrics"
	"github.com/havenhq/haven/internal/models"
	"github.com/havenhq/haven/internal/notify"
	"github.com/havenhq/haven/internal/queue"
	"gorm.io/gorm"
)

// Worker processes jobs from the queue
type Worker struct {
	db          *gorm.DB
	queue       queue.Queue
	sender      notify.Sender
	logger      *slog.Logger
	maxWorkers  int
	maxAttempts int
	retryDelay  time.Duration
	semaphore   chan struct{}
	wg          sync.WaitGroup
}

// New creates a new worker instance
func New(db *gorm.DB, q queue.Queue, sender notify.Sender, logger *slog.Logger, maxWorkers, maxAttempts int) *Worker {
	if maxWorkers <= 0 {
		maxWorkers = 4
	}
	if maxAttempts <= 0 {
		maxAttempts = 1
	}
	return &Worker{
		db:          db,
		queue:       q,
		sender:      sender,
		logger:      logger,
		maxWorkers:  maxWorkers,
		maxAttempts: maxAttempts,
		retryDelay:  5 * time.Second,
		semaphore:   make(chan struct{}, maxWorkers),
	}
}

// Start processes jobs until ctx is cancelled or the queue closes, then
// waits for in-flight jobs.
func (w *Worker) Start(ctx context.Context) error {
	w.logger.Info("Worker started", "max_concurrent_jobs", w.maxWorkers, "max_attempts", w.maxAttempts)

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("Worker shutting down, waiting for jobs to complete")
			w.wg.Wait()
			w.logger.Info("All jobs completed, worker stopped")
			return ctx.Err()
		default:
		}

		job, err := w.queue.Dequeue(ctx)
		if err != nil {
			switch {
			case errors.Is(err, context.DeadlineExceeded) && ctx.Err() == nil:
				// Poll interval elapsed with nothing to do
				continue
			case ctx.Err() != nil:
				continue
			case errors.Is(err, queue.ErrClosed):
				w.logger.Info("Queue closed, waiting for jobs to complete")
				w.wg.Wait()
				return nil
			}
			w.logger.Error("Failed to dequeue job", "error", err)
			time.Sleep(time.Second)
			continue
		}

		select {
		case w.semaphore <- struct{}{}:
			w.wg.Add(1)
			go func(j *models.Job) {
				defer w.wg.Done()
				defer func() { <-w.semaphore }()

				w.processJob(ctx, j)
			}(job)
		case <-ctx.Done():
			w.logger.Info("Context cancelled while waiting for worker slot", "job_id", job.ID)
		}
	}
}

func (w *Worker) processJob(ctx context.Context, job *models.Job) {
	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			w.logger.Error("Panic recovered in processJob", "job_id", job.ID, "panic", r)
			w.finish(job, fmt.Errorf("job panicked: %v", r))
		}
		metrics.JobDuration.WithLabelValues(string(job.Type)).Observe(time.Since(start).Seconds())
	}()

	w.logger.Info("Processing job", "job_id", job.ID, "type", job.Type, "attempt", job.Attempts+1)

	now := time.Now()
	job.Status = models.JobStatusRunning
	job.StartedAt = &now
	job.Attempts++
	if err := w.db.Save(job).Error; err != nil {
		w.logger.Error("Failed to mark job running", "job_id", job.ID, "error", err)
	}

	err := w.executeJob(ctx, job)
	if err != nil && job.Attempts < w.maxAttempts && ctx.Err() == nil {
		w.retry(ctx, job, err)
		return
	}
	w.finish(job, err)
}

func (w *Worker) executeJob(ctx context.Context, job *models.Job) error {
	switch job.Type {
	case models.JobTypeSendEmail:
		return w.sendEmail(ctx, job)
	default:
		return fmt.Errorf("unknown job type: %s", job.Type)
	}
}

func (w *Worker) sendEmail(ctx context.Context, job *models.Job) error {
	msg, err := notify.MessageFromJob(job)
	if err != nil {
		return err
	}

	if err := notify.Deliver(ctx, w.sender, msg); err != nil {
		return err
	}

	metrics.EmailsTotal.WithLabelValues(string(msg.Kind), "sent").Inc()
	w.appendLog(job, fmt.Sprintf("sent %s to %d recipient(s)", msg.Kind, len(msg.To)))
	return nil
}

// retry puts the job back to pending and re-enqueues it after a linear
// backoff. If shutdown interrupts the wait the row stays pending.
func (w *Worker) retry(ctx context.Context, job *models.Job, cause error) {
	w.logger.Warn("Job failed, will retry", "job_id", job.ID, "attempt", job.Attempts, "error", cause)
	metrics.EmailsTotal.WithLabelValues(emailKind(job), "retry").Inc()

	job.Status = models.JobStatusPending
	job.Error = cause.Error()
	w.appendLog(job, fmt.Sprintf("attempt %d failed: %v", job.Attempts, cause))
	if err := w.db.Save(job).Error; err != nil {
		w.logger.Error("Failed to save job for retry", "job_id", job.ID, "error", err)
	}

	select {
	case <-time.After(time.Duration(job.Attempts) * w.retryDelay):
	case <-ctx.Done():
		return
	}

	if err := w.queue.Enqueue(ctx, job); err != nil {
		w.logger.Error("Failed to re-enqueue job", "job_id", job.ID, "error", err)
	}
}

func (w *Worker) finish(job *models.Job, err error) {
	completedAt := time.Now()
	job.CompletedAt = &completedAt

	if err != nil {
		w.logger.Error("Job failed", "job_id", job.ID, "attempts", job.Attempts, "error", err)
		job.Status = models.JobStatusFailed
		job.Error = err.Error()
		if job.Type == models.JobTypeSendEmail {
			metrics.EmailsTotal.WithLabelValues(emailKind(job), "failed").Inc()
		}
	} else {
		w.logger.Info("Job completed", "job_id", job.ID)
		job.Status = models.JobStatusCompleted
		job.Error = ""
	}

	if saveErr := w.db.Save(job).Error; saveErr != nil {
		w.logger.Error("Failed to save job result", "job_id", job.ID, "error", saveErr)
	}
}

func (w *Worker) appendLog(job *models.Job, line string) {
	stamped := time.Now().UTC().Format(time.RFC3339) + " " + line
	if job.Logs == "" {
		job.Logs = stamped
	} else {
		job.Logs += "\n" + stamped
	}
}

func emailKind(job *models.Job) string {
	if kind, ok := job.Metadata["kind"].(string); ok {
		return kind
	}
	return "unknown"
}
