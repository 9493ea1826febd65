package service

import (
	"errors"

	"github.com/google/uuid"
	"github.com/havenhq/haven/internal/activity"
	"github.com/havenhq/haven/internal/models"
	"github.com/havenhq/haven/internal/sanitize"
	"gorm.io/gorm"
)

// PropertyService manages properties and reports their occupancy.
type PropertyService struct {
	db *gorm.DB
}

// NewPropertyService creates a new PropertyService.
func NewPropertyService(db *gorm.DB) *PropertyService {
	return &PropertyService{db: db}
}

type occupancyRow struct {
	PropertyID uuid.UUID
	Occupied   int
}

// List returns every property of the organization with live occupancy.
func (s *PropertyService) List(orgID uuid.UUID) ([]PropertyWithOccupancy, error) {
	var properties []models.Property
	if err := s.db.Where("organization_id = ?", orgID).Order("name ASC").Find(&properties).Error; err != nil {
		return nil, err
	}

	counts, err := s.occupancyByProperty(orgID)
	if err != nil {
		return nil, err
	}

	result := make([]PropertyWithOccupancy, 0, len(properties))
	for _, p := range properties {
		result = append(result, withOccupancy(p, counts[p.ID]))
	}
	return result, nil
}

// Get returns a single property with its occupancy.
func (s *PropertyService) Get(orgID, id uuid.UUID) (*PropertyWithOccupancy, error) {
	p, err := s.load(orgID, id)
	if err != nil {
		return nil, err
	}
	n, err := occupancy(s.db, p.ID)
	if err != nil {
		return nil, err
	}
	result := withOccupancy(*p, int(n))
	return &result, nil
}

// Residents returns the residents currently placed in a property.
func (s *PropertyService) Residents(orgID, id uuid.UUID) ([]models.Resident, error) {
	if _, err := s.load(orgID, id); err != nil {
		return nil, err
	}
	var residents []models.Resident
	err := s.db.Select("id", "organization_id", "first_name", "last_name", "status", "risk_level", "property_id", "move_in_date").
		Where("property_id = ? AND status = ?", id, models.ResidentStatusActive).
		Order("last_name ASC").
		Find(&residents).Error
	return residents, err
}

// Create adds a property.
func (s *PropertyService) Create(orgID uuid.UUID, req CreatePropertyRequest, actor Actor) (*PropertyWithOccupancy, error) {
	name := sanitize.Text(req.Name)
	if name == "" {
		return nil, validationErr("name is required")
	}
	if req.Capacity < 1 {
		return nil, validationErr("capacity must be at least 1")
	}

	p := models.Property{
		OrganizationID: orgID,
		Name:           name,
		Address:        sanitize.Text(req.Address),
		Postcode:       sanitize.Text(req.Postcode),
		Capacity:       req.Capacity,
		Status:         models.PropertyStatusActive,
	}
	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&p).Error; err != nil {
			return err
		}
		return activity.Record(tx, orgID, activity.Actor(actor.UserID), activity.ActionCreateProperty,
			activity.Resource("property", p.ID), map[string]interface{}{"name": p.Name, "capacity": p.Capacity})
	})
	if err != nil {
		return nil, err
	}

	result := withOccupancy(p, 0)
	return &result, nil
}

// Update applies the non-nil fields of req. Capacity cannot drop below the
// number of residents already placed.
func (s *PropertyService) Update(orgID, id uuid.UUID, req UpdatePropertyRequest, actor Actor) (*PropertyWithOccupancy, error) {
	p, err := s.load(orgID, id)
	if err != nil {
		return nil, err
	}
	occupied, err := occupancy(s.db, p.ID)
	if err != nil {
		return nil, err
	}

	changed := []string{}
	if req.Name != nil {
		if v := sanitize.Text(*req.Name); v != "" {
			p.Name = v
			changed = append(changed, "name")
		}
	}
	if req.Address != nil {
		p.Address = sanitize.Text(*req.Address)
		changed = append(changed, "address")
	}
	if req.Postcode != nil {
		p.Postcode = sanitize.Text(*req.Postcode)
		changed = append(changed, "postcode")
	}
	if req.Capacity != nil {
		if int64(*req.Capacity) < occupied {
			return nil, conflictErr("capacity is below current occupancy")
		}
		p.Capacity = *req.Capacity
		changed = append(changed, "capacity")
	}
	if req.Status != nil {
		p.Status = *req.Status
		changed = append(changed, "status")
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Save(p).Error; err != nil {
			return err
		}
		return activity.Record(tx, orgID, activity.Actor(actor.UserID), activity.ActionUpdateProperty,
			activity.Resource("property", p.ID), map[string]interface{}{"fields": changed})
	})
	if err != nil {
		return nil, err
	}

	result := withOccupancy(*p, int(occupied))
	return &result, nil
}

// Delete soft-deletes an empty property.
func (s *PropertyService) Delete(orgID, id uuid.UUID, actor Actor) error {
	p, err := s.load(orgID, id)
	if err != nil {
		return err
	}
	occupied, err := occupancy(s.db, p.ID)
	if err != nil {
		return err
	}
	if occupied > 0 {
		return conflictErr("property still has residents placed")
	}

	return s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Delete(p).Error; err != nil {
			return err
		}
		return activity.Record(tx, orgID, activity.Actor(actor.UserID), activity.ActionDeleteProperty,
			activity.Resource("property", p.ID), map[string]string{"name": p.Name})
	})
}

func (s *PropertyService) load(orgID, id uuid.UUID) (*models.Property, error) {
	var p models.Property
	if err := s.db.Where("organization_id = ? AND id = ?", orgID, id).First(&p).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &p, nil
}

func (s *PropertyService) occupancyByProperty(orgID uuid.UUID) (map[uuid.UUID]int, error) {
	var rows []occupancyRow
	err := s.db.Model(&models.Resident{}).
		Select("property_id, COUNT(*) AS occupied").
		Where("organization_id = ? AND status = ? AND property_id IS NOT NULL", orgID, models.ResidentStatusActive).
		Group("property_id").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	counts := make(map[uuid.UUID]int, len(rows))
	for _, r := range rows {
		counts[r.PropertyID] = r.Occupied
	}
	return counts, nil
}

func withOccupancy(p models.Property, occupied int) PropertyWithOccupancy {
	available := p.Capacity - occupied
	if available < 0 || p.Status != models.PropertyStatusActive {
		available = 0
	}
	return PropertyWithOccupancy{Property: p, Occupied: occupied, Available: available}
}
