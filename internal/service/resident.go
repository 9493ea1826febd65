package service

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/havenhq/haven/internal/activity"
	"github.com/havenhq/haven/internal/crypto"
	"github.com/havenhq/haven/internal/models"
	"github.com/havenhq/haven/internal/sanitize"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ResidentService contains resident case management: records, placements
// and case notes. Support needs and note bodies are encrypted at rest.
type ResidentService struct {
	db     *gorm.DB
	cipher *crypto.FieldCipher
}

// NewResidentService creates a new ResidentService.
func NewResidentService(db *gorm.DB, cipher *crypto.FieldCipher) *ResidentService {
	return &ResidentService{db: db, cipher: cipher}
}

// List returns one page of the organization's residents.
func (s *ResidentService) List(orgID uuid.UUID, f ResidentFilter) (PageResult[models.Resident], error) {
	q := s.db.Model(&models.Resident{}).Where("organization_id = ?", orgID)
	if f.Status != "" {
		q = q.Where("status = ?", f.Status)
	}
	if f.RiskLevel != "" {
		q = q.Where("risk_level = ?", f.RiskLevel)
	}
	if f.PropertyID != "" {
		pid, err := uuid.Parse(f.PropertyID)
		if err != nil {
			return PageResult[models.Resident]{}, validationErr("invalid property_id")
		}
		q = q.Where("property_id = ?", pid)
	}
	if term := strings.TrimSpace(f.Query); term != "" {
		like := "%" + strings.ToLower(term) + "%"
		q = q.Where("(LOWER(first_name) LIKE ? OR LOWER(last_name) LIKE ?)", like, like)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return PageResult[models.Resident]{}, err
	}

	limit, offset := f.Page.normalize()
	var residents []models.Resident
	if err := q.Preload("Property").
		Order("last_name ASC, first_name ASC").
		Limit(limit).Offset(offset).
		Find(&residents).Error; err != nil {
		return PageResult[models.Resident]{}, err
	}
	for i := range residents {
		s.decrypt(&residents[i])
	}
	return newPageResult(residents, total, f.Page), nil
}

// Get returns a single resident of the organization.
func (s *ResidentService) Get(orgID, id uuid.UUID) (*models.Resident, error) {
	r, err := s.load(s.db, orgID, id)
	if err != nil {
		return nil, err
	}
	s.decrypt(r)
	return r, nil
}

// GetForUser returns the resident record linked to a resident's own login.
func (s *ResidentService) GetForUser(orgID, userID uuid.UUID) (*models.Resident, error) {
	var r models.Resident
	if err := s.db.Preload("Property").
		Where("organization_id = ? AND user_id = ?", orgID, userID).
		First(&r).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	s.decrypt(&r)
	return &r, nil
}

// UpdateOwnProfile lets a resident correct their own name.
func (s *ResidentService) UpdateOwnProfile(orgID, userID uuid.UUID, req UpdateOwnProfileRequest) (*models.Resident, error) {
	r, err := s.GetForUser(orgID, userID)
	if err != nil {
		return nil, err
	}
	update := UpdateResidentRequest{FirstName: req.FirstName, LastName: req.LastName}
	return s.Update(orgID, r.ID, update, Actor{UserID: userID})
}

// Create adds a resident. New residents start as referrals unless a status
// is given.
func (s *ResidentService) Create(orgID uuid.UUID, req CreateResidentRequest, actor Actor) (*models.Resident, error) {
	first, last := sanitize.Text(req.FirstName), sanitize.Text(req.LastName)
	if first == "" || last == "" {
		return nil, validationErr("first_name and last_name are required")
	}

	status := req.Status
	if status == "" {
		status = models.ResidentStatusReferred
	}
	risk := req.RiskLevel
	if risk == "" {
		risk = models.RiskLow
	}

	if req.KeyWorkerID != nil {
		if err := s.requireMember(orgID, *req.KeyWorkerID); err != nil {
			return nil, err
		}
	}

	needs, err := s.cipher.Encrypt(sanitize.Text(req.SupportNeeds))
	if err != nil {
		return nil, err
	}

	r := models.Resident{
		OrganizationID: orgID,
		FirstName:      first,
		LastName:       last,
		DateOfBirth:    req.DateOfBirth,
		Status:         status,
		RiskLevel:      risk,
		KeyWorkerID:    req.KeyWorkerID,
		UserID:         req.UserID,
		SupportNeeds:   needs,
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&r).Error; err != nil {
			return err
		}
		return activity.Record(tx, orgID, activity.Actor(actor.UserID), activity.ActionCreateResident,
			activity.Resource("resident", r.ID), map[string]string{"name": r.FullName()})
	})
	if err != nil {
		return nil, err
	}

	s.decrypt(&r)
	return &r, nil
}

// Update applies the non-nil fields of req.
func (s *ResidentService) Update(orgID, id uuid.UUID, req UpdateResidentRequest, actor Actor) (*models.Resident, error) {
	r, err := s.load(s.db, orgID, id)
	if err != nil {
		return nil, err
	}

	changed := []string{}
	if req.FirstName != nil {
		if v := sanitize.Text(*req.FirstName); v != "" {
			r.FirstName = v
			changed = append(changed, "first_name")
		}
	}
	if req.LastName != nil {
		if v := sanitize.Text(*req.LastName); v != "" {
			r.LastName = v
			changed = append(changed, "last_name")
		}
	}
	if req.DateOfBirth != nil {
		r.DateOfBirth = req.DateOfBirth
		changed = append(changed, "date_of_birth")
	}
	if req.Status != nil {
		r.Status = *req.Status
		changed = append(changed, "status")
	}
	if req.RiskLevel != nil {
		r.RiskLevel = *req.RiskLevel
		changed = append(changed, "risk_level")
	}
	if req.KeyWorkerID != nil {
		if err := s.requireMember(orgID, *req.KeyWorkerID); err != nil {
			return nil, err
		}
		r.KeyWorkerID = req.KeyWorkerID
		changed = append(changed, "key_worker_id")
	}
	if req.SupportNeeds != nil {
		enc, err := s.cipher.Encrypt(sanitize.Text(*req.SupportNeeds))
		if err != nil {
			return nil, err
		}
		r.SupportNeeds = enc
		changed = append(changed, "support_needs")
	}

	r.Property = nil
	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit(clause.Associations).Save(r).Error; err != nil {
			return err
		}
		return activity.Record(tx, orgID, activity.Actor(actor.UserID), activity.ActionUpdateResident,
			activity.Resource("resident", r.ID), map[string]interface{}{"fields": changed})
	})
	if err != nil {
		return nil, err
	}

	return s.Get(orgID, id)
}

// Delete soft-deletes a resident.
func (s *ResidentService) Delete(orgID, id uuid.UUID, actor Actor) error {
	r, err := s.load(s.db, orgID, id)
	if err != nil {
		return err
	}
	return s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Delete(r).Error; err != nil {
			return err
		}
		return activity.Record(tx, orgID, activity.Actor(actor.UserID), activity.ActionDeleteResident,
			activity.Resource("resident", id), map[string]string{"name": r.FullName()})
	})
}

// AssignProperty places a resident in a property and marks them active.
// The property must be active and have a free place.
func (s *ResidentService) AssignProperty(orgID, id uuid.UUID, req AssignPropertyRequest, actor Actor) (*models.Resident, error) {
	moveIn := time.Now().UTC()
	if req.MoveInDate != nil {
		moveIn = req.MoveInDate.UTC()
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		r, err := s.load(tx, orgID, id)
		if err != nil {
			return err
		}
		if r.PropertyID != nil && *r.PropertyID == req.PropertyID {
			return conflictErr("resident is already placed in this property")
		}

		var property models.Property
		pq := tx
		if tx.Dialector.Name() == "postgres" {
			pq = tx.Clauses(clause.Locking{Strength: "UPDATE"})
		}
		if err := pq.Where("organization_id = ? AND id = ?", orgID, req.PropertyID).First(&property).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return validationErr("property not found")
			}
			return err
		}
		if property.Status != models.PropertyStatusActive {
			return conflictErr("property is not accepting residents")
		}

		occupied, err := occupancy(tx, property.ID)
		if err != nil {
			return err
		}
		if occupied >= int64(property.Capacity) {
			return conflictErr("property is at capacity")
		}

		updates := map[string]interface{}{
			"property_id":   property.ID,
			"status":        models.ResidentStatusActive,
			"move_in_date":  moveIn,
			"move_out_date": nil,
		}
		if err := tx.Model(&models.Resident{}).Where("id = ?", r.ID).Updates(updates).Error; err != nil {
			return err
		}
		return activity.Record(tx, orgID, activity.Actor(actor.UserID), activity.ActionAssignProperty,
			activity.Resource("resident", r.ID), map[string]string{"property_id": property.ID.String(), "property": property.Name})
	})
	if err != nil {
		return nil, err
	}
	return s.Get(orgID, id)
}

// MoveOut ends a resident's placement, freeing their place.
func (s *ResidentService) MoveOut(orgID, id uuid.UUID, req MoveOutRequest, actor Actor) (*models.Resident, error) {
	moveOut := time.Now().UTC()
	if req.MoveOutDate != nil {
		moveOut = req.MoveOutDate.UTC()
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		r, err := s.load(tx, orgID, id)
		if err != nil {
			return err
		}
		if r.PropertyID == nil {
			return conflictErr("resident is not placed in a property")
		}
		previous := r.PropertyID.String()

		updates := map[string]interface{}{
			"property_id":   nil,
			"status":        models.ResidentStatusMovedOn,
			"move_out_date": moveOut,
		}
		if err := tx.Model(&models.Resident{}).Where("id = ?", r.ID).Updates(updates).Error; err != nil {
			return err
		}
		return activity.Record(tx, orgID, activity.Actor(actor.UserID), activity.ActionMoveOutResident,
			activity.Resource("resident", r.ID), map[string]string{"property_id": previous})
	})
	if err != nil {
		return nil, err
	}
	return s.Get(orgID, id)
}

// ListNotes returns a resident's case notes, newest first, decrypted.
func (s *ResidentService) ListNotes(orgID, residentID uuid.UUID) ([]models.CaseNote, error) {
	if _, err := s.load(s.db, orgID, residentID); err != nil {
		return nil, err
	}

	var notes []models.CaseNote
	if err := s.db.Preload("Author").
		Where("resident_id = ?", residentID).
		Order("created_at DESC").
		Find(&notes).Error; err != nil {
		return nil, err
	}
	for i := range notes {
		notes[i].Body = s.cipher.MustDecrypt(notes[i].Body)
	}
	return notes, nil
}

// CreateNote adds a case note. Basic formatting is kept; anything else is
// stripped before encryption.
func (s *ResidentService) CreateNote(orgID, residentID uuid.UUID, req CreateCaseNoteRequest, actor Actor) (*models.CaseNote, error) {
	if _, err := s.load(s.db, orgID, residentID); err != nil {
		return nil, err
	}

	body := sanitize.HTML(req.Body)
	if body == "" {
		return nil, validationErr("body is required")
	}
	enc, err := s.cipher.Encrypt(body)
	if err != nil {
		return nil, err
	}

	category := sanitize.Text(req.Category)
	if category == "" {
		category = "general"
	}

	note := models.CaseNote{
		ResidentID: residentID,
		AuthorID:   actor.UserID,
		Category:   category,
		Body:       enc,
	}
	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit(clause.Associations).Create(&note).Error; err != nil {
			return err
		}
		return activity.Record(tx, orgID, activity.Actor(actor.UserID), activity.ActionCreateCaseNote,
			activity.Resource("resident", residentID), map[string]string{"note_id": note.ID.String(), "category": category})
	})
	if err != nil {
		return nil, err
	}

	note.Body = body
	return &note, nil
}

func (s *ResidentService) load(db *gorm.DB, orgID, id uuid.UUID) (*models.Resident, error) {
	var r models.Resident
	if err := db.Where("organization_id = ? AND id = ?", orgID, id).First(&r).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if r.PropertyID != nil {
		var p models.Property
		if err := db.Where("id = ?", *r.PropertyID).First(&p).Error; err == nil {
			r.Property = &p
		}
	}
	return &r, nil
}

func (s *ResidentService) decrypt(r *models.Resident) {
	r.SupportNeeds = s.cipher.MustDecrypt(r.SupportNeeds)
}

func (s *ResidentService) requireMember(orgID, userID uuid.UUID) error {
	var count int64
	if err := s.db.Model(&models.Membership{}).Where("organization_id = ? AND user_id = ?", orgID, userID).Count(&count).Error; err != nil {
		return fmt.Errorf("failed to check key worker: %w", err)
	}
	if count == 0 {
		return validationErr("key worker must be a member of the organization")
	}
	return nil
}

// occupancy counts active residents placed in a property.
func occupancy(db *gorm.DB, propertyID uuid.UUID) (int64, error) {
	var n int64
	err := db.Model(&models.Resident{}).
		Where("property_id = ? AND status = ?", propertyID, models.ResidentStatusActive).
		Count(&n).Error
	return n, err
}
