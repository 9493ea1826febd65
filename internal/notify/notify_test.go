package notify

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/havenhq/haven/internal/config"
	"github.com/havenhq/haven/internal/models"
	"github.com/havenhq/haven/internal/queue"
	"github.com/resend/resend-go/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestRender_AllKinds(t *testing.T) {
	tests := []struct {
		kind     Kind
		data     map[string]string
		subject  string
		contains []string
	}{
		{
			kind: KindMemberInvitation,
			data: map[string]string{
				"OrganizationName": "Northside Housing",
				"InvitedBy":        "Alex",
				"Role":             "staff",
				"AcceptURL":        "https://app.haven.test/invitations/abc",
				"ExpiresAt":        "2 Nov 2026",
			},
			subject:  "You're invited to join Northside Housing on Haven",
			contains: []string{"Alex", "https://app.haven.test/invitations/abc", "staff"},
		},
		{
			kind: KindIncidentAlert,
			data: map[string]string{
				"OrganizationName": "Northside Housing",
				"Severity":         "critical",
				"Category":         "missing_person",
				"OccurredAt":       "19 Oct 2026 21:40",
				"ReportedBy":       "Sam",
				"IncidentURL":      "https://app.haven.test/incidents/1",
			},
			subject:  "[critical] Incident logged in Northside Housing",
			contains: []string{"missing_person", "Sam"},
		},
		{
			kind: KindPaymentFailed,
			data: map[string]string{
				"OrganizationName": "Northside Housing",
				"AmountDue":        "GBP 249.00",
				"BillingURL":       "https://app.haven.test/settings/billing",
			},
			subject:  "Payment failed for Northside Housing",
			contains: []string{"GBP 249.00", "past due"},
		},
	}

	for _, tt := range tests {
		t.Run(string(tt.kind), func(t *testing.T) {
			subject, html, err := Render(tt.kind, tt.data)
			require.NoError(t, err)
			assert.Equal(t, tt.subject, subject)
			for _, want := range tt.contains {
				assert.Contains(t, html, want)
			}
			assert.NotContains(t, html, "<no value>")
		})
	}
}

func TestRender_EscapesData(t *testing.T) {
	_, html, err := Render(KindIncidentAlert, map[string]string{
		"OrganizationName": "Org",
		"Category":         "<script>alert(1)</script>",
	})
	require.NoError(t, err)
	assert.NotContains(t, html, "<script>")
}

func TestRender_UnknownKind(t *testing.T) {
	_, _, err := Render(Kind("newsletter"), nil)
	assert.Error(t, err)
}

func TestMessageValidate(t *testing.T) {
	ok := Message{Kind: KindPaymentFailed, To: []string{"billing@northside.org"}}
	assert.NoError(t, ok.Validate())

	assert.Error(t, Message{Kind: KindPaymentFailed}.Validate(), "no recipients")
	assert.Error(t, Message{Kind: "spam", To: []string{"a@b.org"}}.Validate(), "unknown kind")
	assert.Error(t, Message{Kind: KindPaymentFailed, To: []string{"not an address"}}.Validate())
}

func setupNotifier(t *testing.T) (*Notifier, *gorm.DB, *queue.MemoryQueue) {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "test.db")), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.Job{}))

	q := queue.NewMemoryQueue(10)
	t.Cleanup(func() { q.Close() })
	return NewNotifier(db, q), db, q
}

func TestNotifier_EnqueueRoundTrip(t *testing.T) {
	n, db, q := setupNotifier(t)
	orgID := uuid.New()

	msg := Message{
		Kind: KindPaymentFailed,
		To:   []string{"admin@northside.org", "finance@northside.org"},
		Data: map[string]string{"OrganizationName": "Northside"},
	}
	job, err := n.Enqueue(context.Background(), &orgID, msg)
	require.NoError(t, err)

	var stored models.Job
	require.NoError(t, db.First(&stored, "id = ?", job.ID).Error)
	assert.Equal(t, models.JobStatusPending, stored.Status)
	assert.Equal(t, models.JobTypeSendEmail, stored.Type)

	// Decoding works from the database copy, where metadata went through JSON.
	decoded, err := MessageFromJob(&stored)
	require.NoError(t, err)
	assert.Equal(t, msg, decoded)

	queued, err := q.Dequeue(context.Background())
	require.NoError(t, err)
	assert.Equal(t, job.ID, queued.ID)
}

func TestNotifier_EnqueueRejectsInvalid(t *testing.T) {
	n, db, _ := setupNotifier(t)

	_, err := n.Enqueue(context.Background(), nil, Message{Kind: KindIncidentAlert})
	assert.Error(t, err)

	var count int64
	db.Model(&models.Job{}).Count(&count)
	assert.Zero(t, count, "invalid messages must not create jobs")
}

type recordingSender struct {
	sent []Email
}

func (s *recordingSender) Send(ctx context.Context, email Email) error {
	s.sent = append(s.sent, email)
	return nil
}

func TestDeliver(t *testing.T) {
	sender := &recordingSender{}
	err := Deliver(context.Background(), sender, Message{
		Kind: KindPaymentFailed,
		To:   []string{"admin@northside.org"},
		Data: map[string]string{"OrganizationName": "Northside"},
	})
	require.NoError(t, err)
	require.Len(t, sender.sent, 1)
	assert.Equal(t, "Payment failed for Northside", sender.sent[0].Subject)
}

func TestResendSender(t *testing.T) {
	mockServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/emails", r.URL.Path)

		var req resend.SendEmailRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "Haven <no-reply@haven.test>", req.From)
		assert.Equal(t, []string{"admin@northside.org"}, req.To)
		assert.Equal(t, "Hello", req.Subject)

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]string{"id": "mock-email-id"})
	}))
	defer mockServer.Close()

	client := resend.NewClient("test-api-key")
	baseURL, _ := url.Parse(mockServer.URL)
	client.BaseURL = baseURL

	sender := NewResendSender(client, "Haven <no-reply@haven.test>", discardLogger())
	err := sender.Send(context.Background(), Email{
		To:      []string{"admin@northside.org"},
		Subject: "Hello",
		HTML:    "<p>Hi</p>",
	})
	assert.NoError(t, err)
}

func TestNewSender(t *testing.T) {
	s, err := NewSender(config.EmailConfig{Provider: "log"}, discardLogger())
	require.NoError(t, err)
	assert.IsType(t, &LogSender{}, s)

	s, err = NewSender(config.EmailConfig{Provider: "smtp", SMTPHost: "mail.test"}, discardLogger())
	require.NoError(t, err)
	assert.IsType(t, &SMTPSender{}, s)

	_, err = NewSender(config.EmailConfig{Provider: "resend"}, discardLogger())
	assert.Error(t, err)

	_, err = NewSender(config.EmailConfig{Provider: "carrier-pigeon"}, discardLogger())
	assert.Error(t, err)
}

func TestBuildMIME(t *testing.T) {
	raw := string(buildMIME("Haven <no-reply@haven.test>", Email{
		To:      []string{"a@x.org", "b@x.org"},
		Subject: "Hi",
		HTML:    "<p>x</p>",
	}))
	assert.Contains(t, raw, "To: a@x.org, b@x.org\r\n")
	assert.Contains(t, raw, "Content-Type: text/html; charset=UTF-8\r\n\r\n<p>x</p>")
}
