package service

import (
	"github.com/google/uuid"
	"github.com/havenhq/haven/internal/models"
	"gorm.io/gorm"
)

// ActivityFilter narrows the activity log.
type ActivityFilter struct {
	Action  string `form:"action"`
	ActorID string `form:"actor_id"`
	Page
}

// ActivityService reads the organization activity log.
type ActivityService struct {
	db *gorm.DB
}

// NewActivityService creates a new ActivityService.
func NewActivityService(db *gorm.DB) *ActivityService {
	return &ActivityService{db: db}
}

// List returns one page of activity, newest first.
func (s *ActivityService) List(orgID uuid.UUID, f ActivityFilter) (PageResult[models.ActivityLog], error) {
	q := s.db.Model(&models.ActivityLog{}).Where("organization_id = ?", orgID)
	if f.Action != "" {
		q = q.Where("action = ?", f.Action)
	}
	if f.ActorID != "" {
		actor, err := uuid.Parse(f.ActorID)
		if err != nil {
			return PageResult[models.ActivityLog]{}, validationErr("invalid actor_id")
		}
		q = q.Where("actor_id = ?", actor)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return PageResult[models.ActivityLog]{}, err
	}

	limit, offset := f.Page.normalize()
	var entries []models.ActivityLog
	if err := q.Order("timestamp DESC, id DESC").Limit(limit).Offset(offset).Find(&entries).Error; err != nil {
		return PageResult[models.ActivityLog]{}, err
	}
	return newPageResult(entries, total, f.Page), nil
}
