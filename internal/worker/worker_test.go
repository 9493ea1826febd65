package worker

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/havenhq/haven/internal/models"
	"github.com/havenhq/haven/internal/notify"
	"github.com/havenhq/haven/internal/queue"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type fakeSender struct {
	mu       sync.Mutex
	failures int
	sent     []notify.Email
}

func (s *fakeSender) Send(ctx context.Context, email notify.Email) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failures > 0 {
		s.failures--
		return errors.New("smtp: 421 service not available")
	}
	s.sent = append(s.sent, email)
	return nil
}

func (s *fakeSender) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sent)
}

func setup(t *testing.T, sender notify.Sender, maxAttempts int) (*Worker, *notify.Notifier, *gorm.DB) {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "test.db")), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	sqlDB, _ := db.DB()
	sqlDB.SetMaxOpenConns(1)
	if err := db.AutoMigrate(&models.Job{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	q := queue.NewMemoryQueue(10)
	w := New(db, q, sender, slog.New(slog.NewTextHandler(io.Discard, nil)), 2, maxAttempts)
	w.retryDelay = 10 * time.Millisecond
	return w, notify.NewNotifier(db, q), db
}

func run(t *testing.T, w *Worker) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		_ = w.Start(ctx)
		close(done)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})
}

func waitForStatus(t *testing.T, db *gorm.DB, job *models.Job, want models.JobStatus) models.Job {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	var got models.Job
	for time.Now().Before(deadline) {
		if err := db.First(&got, "id = ?", job.ID).Error; err == nil && got.Status == want {
			return got
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("job %s never reached %s (last status %s)", job.ID, want, got.Status)
	return got
}

func paymentFailed() notify.Message {
	return notify.Message{
		Kind: notify.KindPaymentFailed,
		To:   []string{"admin@northside.org"},
		Data: map[string]string{"OrganizationName": "Northside"},
	}
}

func TestWorker_SendsEmail(t *testing.T) {
	sender := &fakeSender{}
	w, n, db := setup(t, sender, 3)
	run(t, w)

	job, err := n.Enqueue(context.Background(), nil, paymentFailed())
	if err != nil {
		t.Fatal(err)
	}

	done := waitForStatus(t, db, job, models.JobStatusCompleted)
	if done.Attempts != 1 {
		t.Errorf("expected 1 attempt, got %d", done.Attempts)
	}
	if done.CompletedAt == nil {
		t.Error("completed_at should be set")
	}
	if sender.count() != 1 {
		t.Errorf("expected 1 email sent, got %d", sender.count())
	}
}

func TestWorker_RetriesThenSucceeds(t *testing.T) {
	sender := &fakeSender{failures: 2}
	w, n, db := setup(t, sender, 3)
	run(t, w)

	job, err := n.Enqueue(context.Background(), nil, paymentFailed())
	if err != nil {
		t.Fatal(err)
	}

	done := waitForStatus(t, db, job, models.JobStatusCompleted)
	if done.Attempts != 3 {
		t.Errorf("expected 3 attempts, got %d", done.Attempts)
	}
	if sender.count() != 1 {
		t.Errorf("expected exactly one delivery, got %d", sender.count())
	}
}

func TestWorker_GivesUpAfterMaxAttempts(t *testing.T) {
	sender := &fakeSender{failures: 10}
	w, n, db := setup(t, sender, 2)
	run(t, w)

	job, err := n.Enqueue(context.Background(), nil, paymentFailed())
	if err != nil {
		t.Fatal(err)
	}

	failed := waitForStatus(t, db, job, models.JobStatusFailed)
	if failed.Attempts != 2 {
		t.Errorf("expected 2 attempts, got %d", failed.Attempts)
	}
	if failed.Error == "" {
		t.Error("failed job should record the error")
	}
}

func TestWorker_UnknownJobTypeFails(t *testing.T) {
	w, _, db := setup(t, &fakeSender{}, 3)
	run(t, w)

	job := &models.Job{Type: models.JobType("reindex"), Status: models.JobStatusPending}
	if err := db.Create(job).Error; err != nil {
		t.Fatal(err)
	}
	if err := w.queue.Enqueue(context.Background(), job); err != nil {
		t.Fatal(err)
	}

	waitForStatus(t, db, job, models.JobStatusFailed)
}
