package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/havenhq/haven/internal/activity"
	"github.com/havenhq/haven/internal/models"
	"github.com/havenhq/haven/internal/notify"
	"github.com/havenhq/haven/internal/permissions"
	"github.com/havenhq/haven/internal/sanitize"
	"gorm.io/gorm"
)

// IncidentService manages the safeguarding incident log.
type IncidentService struct {
	db      *gorm.DB
	mailer  Mailer
	baseURL string
	logger  *slog.Logger
}

// NewIncidentService creates a new IncidentService.
func NewIncidentService(db *gorm.DB, mailer Mailer, baseURL string, logger *slog.Logger) *IncidentService {
	return &IncidentService{db: db, mailer: mailer, baseURL: strings.TrimRight(baseURL, "/"), logger: logger}
}

// List returns one page of the organization's incidents, newest first.
func (s *IncidentService) List(orgID uuid.UUID, f IncidentFilter) (PageResult[models.Incident], error) {
	q := s.db.Model(&models.Incident{}).Where("organization_id = ?", orgID)
	if f.Status != "" {
		q = q.Where("status = ?", f.Status)
	}
	if f.Severity != "" {
		q = q.Where("severity = ?", f.Severity)
	}
	if f.ResidentID != "" {
		rid, err := uuid.Parse(f.ResidentID)
		if err != nil {
			return PageResult[models.Incident]{}, validationErr("invalid resident_id")
		}
		q = q.Where("resident_id = ?", rid)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return PageResult[models.Incident]{}, err
	}

	limit, offset := f.Page.normalize()
	var incidents []models.Incident
	if err := q.Order("occurred_at DESC").Limit(limit).Offset(offset).Find(&incidents).Error; err != nil {
		return PageResult[models.Incident]{}, err
	}
	return newPageResult(incidents, total, f.Page), nil
}

// ListForUser returns the incidents recorded against the resident linked to
// userID.
func (s *IncidentService) ListForUser(orgID, userID uuid.UUID) ([]models.Incident, error) {
	var resident models.Resident
	if err := s.db.Select("id").
		Where("organization_id = ? AND user_id = ?", orgID, userID).
		First(&resident).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	var incidents []models.Incident
	err := s.db.Where("organization_id = ? AND resident_id = ?", orgID, resident.ID).
		Order("occurred_at DESC").
		Find(&incidents).Error
	return incidents, err
}

// Get returns a single incident.
func (s *IncidentService) Get(orgID, id uuid.UUID) (*models.Incident, error) {
	var incident models.Incident
	if err := s.db.Where("organization_id = ? AND id = ?", orgID, id).First(&incident).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &incident, nil
}

// Create logs an incident. High and critical incidents alert the
// organization's managers and admins by email.
func (s *IncidentService) Create(ctx context.Context, orgID uuid.UUID, req CreateIncidentRequest, actor Actor) (*models.Incident, error) {
	category := sanitize.Text(req.Category)
	description := sanitize.Text(req.Description)
	if category == "" || description == "" {
		return nil, validationErr("category and description are required")
	}

	occurred := time.Now().UTC()
	if req.OccurredAt != nil {
		if req.OccurredAt.After(time.Now().Add(5 * time.Minute)) {
			return nil, validationErr("occurred_at cannot be in the future")
		}
		occurred = req.OccurredAt.UTC()
	}

	var residentName string
	if req.ResidentID != nil {
		var r models.Resident
		if err := s.db.Select("id", "first_name", "last_name").
			Where("organization_id = ? AND id = ?", orgID, *req.ResidentID).
			First(&r).Error; err != nil {
			return nil, validationErr("resident not found")
		}
		residentName = r.FullName()
	}
	if req.PropertyID != nil {
		var count int64
		if err := s.db.Model(&models.Property{}).Where("organization_id = ? AND id = ?", orgID, *req.PropertyID).Count(&count).Error; err != nil {
			return nil, fmt.Errorf("failed to check property: %w", err)
		}
		if count == 0 {
			return nil, validationErr("property not found")
		}
	}

	incident := models.Incident{
		OrganizationID: orgID,
		ResidentID:     req.ResidentID,
		PropertyID:     req.PropertyID,
		ReportedByID:   actor.UserID,
		Category:       category,
		Severity:       req.Severity,
		Status:         models.IncidentStatusOpen,
		Description:    description,
		ActionsTaken:   sanitize.Text(req.ActionsTaken),
		OccurredAt:     occurred,
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&incident).Error; err != nil {
			return err
		}
		return activity.Record(tx, orgID, activity.Actor(actor.UserID), activity.ActionCreateIncident,
			activity.Resource("incident", incident.ID), map[string]string{"severity": string(incident.Severity), "category": category})
	})
	if err != nil {
		return nil, err
	}

	if incident.Severity.Escalates() {
		s.alert(ctx, &incident, residentName, actor)
	}
	return &incident, nil
}

// alert queues the escalation email. The incident is already recorded, so
// failures are logged rather than returned.
func (s *IncidentService) alert(ctx context.Context, incident *models.Incident, residentName string, actor Actor) {
	recipients, err := memberEmails(s.db, incident.OrganizationID, permissions.RoleManager, permissions.RoleAdmin)
	if err != nil {
		s.logger.Error("Failed to look up incident alert recipients", "incident_id", incident.ID, "error", err)
		return
	}
	if len(recipients) == 0 {
		s.logger.Warn("No managers to alert for incident", "incident_id", incident.ID, "organization_id", incident.OrganizationID)
		return
	}

	var org models.Organization
	s.db.Select("id", "name").First(&org, "id = ?", incident.OrganizationID)

	reporter := actor.Name
	if reporter == "" {
		reporter = "A staff member"
	}
	_, err = s.mailer.Enqueue(ctx, &incident.OrganizationID, notify.Message{
		Kind: notify.KindIncidentAlert,
		To:   recipients,
		Data: map[string]string{
			"OrganizationName": org.Name,
			"Severity":         string(incident.Severity),
			"Category":         incident.Category,
			"ResidentName":     residentName,
			"OccurredAt":       incident.OccurredAt.Format("2 Jan 2006 15:04"),
			"ReportedBy":       reporter,
			"IncidentURL":      s.baseURL + "/incidents/" + incident.ID.String(),
		},
	})
	if err != nil {
		s.logger.Error("Failed to queue incident alert", "incident_id", incident.ID, "error", err)
	}
}

// Update applies the non-nil fields of req to an open incident.
func (s *IncidentService) Update(orgID, id uuid.UUID, req UpdateIncidentRequest, actor Actor) (*models.Incident, error) {
	incident, err := s.Get(orgID, id)
	if err != nil {
		return nil, err
	}
	if incident.Status == models.IncidentStatusClosed {
		return nil, conflictErr("closed incidents cannot be edited")
	}

	changed := []string{}
	if req.Category != nil {
		if v := sanitize.Text(*req.Category); v != "" {
			incident.Category = v
			changed = append(changed, "category")
		}
	}
	if req.Severity != nil {
		incident.Severity = *req.Severity
		changed = append(changed, "severity")
	}
	if req.Status != nil {
		incident.Status = *req.Status
		changed = append(changed, "status")
	}
	if req.Description != nil {
		if v := sanitize.Text(*req.Description); v != "" {
			incident.Description = v
			changed = append(changed, "description")
		}
	}
	if req.ActionsTaken != nil {
		incident.ActionsTaken = sanitize.Text(*req.ActionsTaken)
		changed = append(changed, "actions_taken")
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Save(incident).Error; err != nil {
			return err
		}
		return activity.Record(tx, orgID, activity.Actor(actor.UserID), activity.ActionUpdateIncident,
			activity.Resource("incident", incident.ID), map[string]interface{}{"fields": changed})
	})
	if err != nil {
		return nil, err
	}
	return incident, nil
}

// Close marks an incident closed, recording the actions taken.
func (s *IncidentService) Close(orgID, id uuid.UUID, req CloseIncidentRequest, actor Actor) (*models.Incident, error) {
	incident, err := s.Get(orgID, id)
	if err != nil {
		return nil, err
	}
	if incident.Status == models.IncidentStatusClosed {
		return nil, conflictErr("incident is already closed")
	}

	now := time.Now().UTC()
	incident.Status = models.IncidentStatusClosed
	incident.ClosedAt = &now
	if actions := sanitize.Text(req.ActionsTaken); actions != "" {
		incident.ActionsTaken = actions
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Save(incident).Error; err != nil {
			return err
		}
		return activity.Record(tx, orgID, activity.Actor(actor.UserID), activity.ActionCloseIncident,
			activity.Resource("incident", incident.ID), nil)
	})
	if err != nil {
		return nil, err
	}
	return incident, nil
}

// Delete soft-deletes an incident.
func (s *IncidentService) Delete(orgID, id uuid.UUID, actor Actor) error {
	incident, err := s.Get(orgID, id)
	if err != nil {
		return err
	}
	return s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Delete(incident).Error; err != nil {
			return err
		}
		return activity.Record(tx, orgID, activity.Actor(actor.UserID), activity.ActionDeleteIncident,
			activity.Resource("incident", id), map[string]string{"severity": string(incident.Severity)})
	})
}
