package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/havenhq/haven/internal/models"
	"github.com/valkey-io/valkey-go"
	"gorm.io/gorm"
)

// DefaultValkeyKey is the list jobs are pushed onto.
const DefaultValkeyKey = "haven:jobs"

// ValkeyQueue shares jobs between several Haven processes. Valkey carries
// job IDs only; the full job is read back from the database.
type ValkeyQueue struct {
	client valkey.Client
	db     *gorm.DB
	key    string
}

type envelope struct {
	ID   string `json:"id"`
	Type string `json:"type"`
}

// NewValkeyQueue connects to addr and verifies the connection.
func NewValkeyQueue(addr string, db *gorm.DB) (*ValkeyQueue, error) {
	if db == nil {
		return nil, fmt.Errorf("database instance is required for Valkey queue")
	}

	client, err := valkey.NewClient(valkey.ClientOption{
		InitAddress: []string{addr},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to Valkey: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Do(ctx, client.B().Ping().Build()).Error(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to ping Valkey: %w", err)
	}

	q := &ValkeyQueue{client: client, db: db, key: DefaultValkeyKey}
	slog.Info("Initialized Valkey job queue", "address", addr, "queue_key", q.key)
	return q, nil
}

// Enqueue saves the job row then pushes its ID (RPUSH, FIFO).
func (q *ValkeyQueue) Enqueue(ctx context.Context, job *models.Job) error {
	if job.ID == uuid.Nil {
		return fmt.Errorf("job must have an ID")
	}

	if err := q.db.WithContext(ctx).Save(job).Error; err != nil {
		return fmt.Errorf("failed to save job to database: %w", err)
	}

	data, err := json.Marshal(envelope{ID: job.ID.String(), Type: string(job.Type)})
	if err != nil {
		return fmt.Errorf("failed to marshal job data: %w", err)
	}

	cmd := q.client.B().Rpush().Key(q.key).Element(string(data)).Build()
	if err := q.client.Do(ctx, cmd).Error(); err != nil {
		return fmt.Errorf("failed to push job to Valkey: %w", err)
	}

	slog.Debug("Job enqueued", "job_id", job.ID, "type", job.Type, "queue_key", q.key)
	return nil
}

// Dequeue blocks up to five seconds on BLPOP, then loads the job row.
func (q *ValkeyQueue) Dequeue(ctx context.Context) (*models.Job, error) {
	cmd := q.client.B().Blpop().Key(q.key).Timeout(5).Build()
	values, err := q.client.Do(ctx, cmd).AsStrSlice()
	if err != nil {
		if valkey.IsValkeyNil(err) {
			return nil, context.DeadlineExceeded
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, fmt.Errorf("failed to pop job from Valkey: %w", err)
	}
	if len(values) < 2 {
		return nil, fmt.Errorf("invalid BLPOP result: expected 2 values, got %d", len(values))
	}

	var env envelope
	if err := json.Unmarshal([]byte(values[1]), &env); err != nil {
		return nil, fmt.Errorf("failed to unmarshal job data: %w", err)
	}

	jobID, err := uuid.Parse(env.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to parse job ID: %w", err)
	}

	var job models.Job
	if err := q.db.WithContext(ctx).First(&job, "id = ?", jobID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("job %s missing from database", jobID)
		}
		return nil, fmt.Errorf("failed to fetch job from database: %w", err)
	}

	slog.Debug("Job dequeued", "job_id", job.ID, "type", job.Type)
	return &job, nil
}

// Close closes the Valkey connection
func (q *ValkeyQueue) Close() error {
	q.client.Close()
	slog.Info("Valkey queue closed")
	return nil
}
