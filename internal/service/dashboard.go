package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/havenhq/haven/internal/models"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"
)

// Dashboard holds the headline numbers for an organization.
type Dashboard struct {
	ActiveResidents   int64 `json:"active_residents"`
	ReferredResidents int64 `json:"referred_residents"`
	HighRiskResidents int64 `json:"high_risk_residents"`
	Properties        int64 `json:"properties"`
	TotalCapacity     int64 `json:"total_capacity"`
	AvailablePlaces   int64 `json:"available_places"`
	OpenIncidents     int64 `json:"open_incidents"`
	IncidentsLast30   int64 `json:"incidents_last_30_days"`
	CaseNotesLast7    int64 `json:"case_notes_last_7_days"`
}

// DashboardService computes dashboard counts.
type DashboardService struct {
	db *gorm.DB
}

// NewDashboardService creates a new DashboardService.
func NewDashboardService(db *gorm.DB) *DashboardService {
	return &DashboardService{db: db}
}

// Get runs the dashboard queries concurrently.
func (s *DashboardService) Get(ctx context.Context, orgID uuid.UUID) (*Dashboard, error) {
	d := &Dashboard{}
	now := time.Now().UTC()

	g, gctx := errgroup.WithContext(ctx)
	db := s.db.WithContext(gctx)

	residents := func() *gorm.DB {
		return db.Model(&models.Resident{}).Where("organization_id = ?", orgID)
	}
	incidents := func() *gorm.DB {
		return db.Model(&models.Incident{}).Where("organization_id = ?", orgID)
	}

	g.Go(func() error {
		return residents().Where("status = ?", models.ResidentStatusActive).Count(&d.ActiveResidents).Error
	})
	g.Go(func() error {
		return residents().Where("status = ?", models.ResidentStatusReferred).Count(&d.ReferredResidents).Error
	})
	g.Go(func() error {
		return residents().
			Where("risk_level = ? AND status IN ?", models.RiskHigh, []models.ResidentStatus{models.ResidentStatusReferred, models.ResidentStatusActive}).
			Count(&d.HighRiskResidents).Error
	})
	g.Go(func() error {
		var row struct {
			Count    int64
			Capacity int64
		}
		err := db.Model(&models.Property{}).
			Select("COUNT(*) AS count, COALESCE(SUM(capacity), 0) AS capacity").
			Where("organization_id = ? AND status = ?", orgID, models.PropertyStatusActive).
			Scan(&row).Error
		d.Properties, d.TotalCapacity = row.Count, row.Capacity
		return err
	})
	g.Go(func() error {
		return incidents().Where("status <> ?", models.IncidentStatusClosed).Count(&d.OpenIncidents).Error
	})
	g.Go(func() error {
		return incidents().Where("occurred_at >= ?", now.AddDate(0, 0, -30)).Count(&d.IncidentsLast30).Error
	})
	g.Go(func() error {
		return db.Model(&models.CaseNote{}).
			Joins("JOIN residents ON residents.id = case_notes.resident_id").
			Where("residents.organization_id = ? AND case_notes.created_at >= ?", orgID, now.AddDate(0, 0, -7)).
			Count(&d.CaseNotesLast7).Error
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}

	d.AvailablePlaces = d.TotalCapacity - d.ActiveResidents
	if d.AvailablePlaces < 0 {
		d.AvailablePlaces = 0
	}
	return d, nil
}
