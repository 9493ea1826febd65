// Package notify queues and delivers transactional email.
package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"net/mail"
	"strings"

	"github.com/google/uuid"
	"github.com/havenhq/haven/internal/models"
	"github.com/havenhq/haven/internal/queue"
	"gorm.io/gorm"
)

// Kind names an email template.
type Kind string

const (
	KindMemberInvitation Kind = "member_invitation"
	KindIncidentAlert    Kind = "incident_alert"
	KindPaymentFailed    Kind = "payment_failed"
)

// Message is the payload of a send_email job.
type Message struct {
	Kind Kind              `json:"kind"`
	To   []string          `json:"to"`
	Data map[string]string `json:"data"`
}

// Validate checks the kind and every recipient address.
func (m Message) Validate() error {
	if _, ok := subjects[m.Kind]; !ok {
		return fmt.Errorf("unknown email kind: %s", m.Kind)
	}
	if len(m.To) == 0 {
		return fmt.Errorf("email has no recipients")
	}
	for _, to := range m.To {
		if err := validateAddress(to); err != nil {
			return fmt.Errorf("invalid recipient %q: %w", to, err)
		}
	}
	return nil
}

// validateAddress rejects malformed addresses and header injection.
func validateAddress(addr string) error {
	parsed, err := mail.ParseAddress(addr)
	if err != nil {
		return err
	}
	if strings.ContainsAny(parsed.Address, "\r\n") {
		return fmt.Errorf("contains newline characters")
	}
	return nil
}

// Notifier records email jobs and hands them to the queue.
type Notifier struct {
	db    *gorm.DB
	queue queue.Queue
}

// NewNotifier creates a Notifier.
func NewNotifier(db *gorm.DB, q queue.Queue) *Notifier {
	return &Notifier{db: db, queue: q}
}

// Enqueue stores a pending send_email job and queues it. orgID may be nil
// for platform-level mail.
func (n *Notifier) Enqueue(ctx context.Context, orgID *uuid.UUID, msg Message) (*models.Job, error) {
	if err := msg.Validate(); err != nil {
		return nil, err
	}

	metadata, err := toMetadata(msg)
	if err != nil {
		return nil, err
	}

	job := &models.Job{
		OrganizationID: orgID,
		Type:           models.JobTypeSendEmail,
		Status:         models.JobStatusPending,
		Metadata:       metadata,
	}
	if err := n.db.WithContext(ctx).Create(job).Error; err != nil {
		return nil, fmt.Errorf("failed to create email job: %w", err)
	}

	if err := n.queue.Enqueue(ctx, job); err != nil {
		return nil, fmt.Errorf("failed to enqueue email job: %w", err)
	}
	return job, nil
}

func toMetadata(msg Message) (map[string]interface{}, error) {
	raw, err := json.Marshal(msg)
	if err != nil {
		return nil, fmt.Errorf("failed to encode email: %w", err)
	}
	var out map[string]interface{}
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("failed to encode email: %w", err)
	}
	return out, nil
}

// MessageFromJob decodes the payload written by Enqueue.
func MessageFromJob(job *models.Job) (Message, error) {
	var msg Message
	raw, err := json.Marshal(job.Metadata)
	if err != nil {
		return msg, fmt.Errorf("failed to read job metadata: %w", err)
	}
	if err := json.Unmarshal(raw, &msg); err != nil {
		return msg, fmt.Errorf("failed to decode email job: %w", err)
	}
	return msg, msg.Validate()
}

// Deliver renders msg and sends it.
func Deliver(ctx context.Context, sender Sender, msg Message) error {
	subject, html, err := Render(msg.Kind, msg.Data)
	if err != nil {
		return err
	}
	return sender.Send(ctx, Email{To: msg.To, Subject: subject, HTML: html})
}
