package service

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/google/uuid"
	"github.com/havenhq/haven/internal/activity"
	"github.com/havenhq/haven/internal/models"
	"github.com/havenhq/haven/internal/sanitize"
	"gorm.io/gorm"
)

var slugPattern = regexp.MustCompile(`^[a-z0-9]+(?:-[a-z0-9]+)*$`)

// OrganizationService manages tenants.
type OrganizationService struct {
	db      *gorm.DB
	members *MemberService
}

// NewOrganizationService creates a new OrganizationService.
func NewOrganizationService(db *gorm.DB, members *MemberService) *OrganizationService {
	return &OrganizationService{db: db, members: members}
}

// Get returns a single organization.
func (s *OrganizationService) Get(orgID uuid.UUID) (*models.Organization, error) {
	var org models.Organization
	if err := s.db.First(&org, "id = ?", orgID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &org, nil
}

// List returns every organization, newest first. Platform admins only.
func (s *OrganizationService) List() ([]models.Organization, error) {
	var orgs []models.Organization
	if err := s.db.Order("created_at DESC").Find(&orgs).Error; err != nil {
		return nil, err
	}
	return orgs, nil
}

// Create provisions a tenant and, if AdminEmail is set, invites its first
// admin.
func (s *OrganizationService) Create(ctx context.Context, req CreateOrganizationRequest, actor Actor) (*models.Organization, error) {
	slug := strings.ToLower(strings.TrimSpace(req.Slug))
	if !slugPattern.MatchString(slug) {
		return nil, validationErr("slug must be lowercase letters, digits and single hyphens")
	}
	name := sanitize.Text(req.Name)
	if name == "" {
		return nil, validationErr("name is required")
	}

	var count int64
	if err := s.db.Model(&models.Organization{}).Where("slug = ?", slug).Count(&count).Error; err != nil {
		return nil, fmt.Errorf("failed to check slug: %w", err)
	}
	if count > 0 {
		return nil, conflictErr("an organization with this slug already exists")
	}

	org := models.Organization{
		Name:               name,
		Slug:               slug,
		ContactEmail:       strings.TrimSpace(req.ContactEmail),
		SubscriptionStatus: models.SubscriptionNone,
		SubscriptionTier:   models.TierStarter,
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&org).Error; err != nil {
			return err
		}
		return activity.Record(tx, org.ID, activity.Actor(actor.UserID), activity.ActionCreateOrganization,
			activity.Resource("organization", org.ID), map[string]interface{}{"name": org.Name, "slug": org.Slug})
	})
	if err != nil {
		return nil, err
	}

	if req.AdminEmail != "" && s.members != nil {
		invite := InviteMemberRequest{Email: req.AdminEmail, Role: "admin"}
		if _, err := s.members.Invite(ctx, org.ID, actor, invite); err != nil {
			return &org, err
		}
	}

	return &org, nil
}

// Update applies settings changes.
func (s *OrganizationService) Update(orgID uuid.UUID, req UpdateOrganizationRequest, actor Actor) (*models.Organization, error) {
	org, err := s.Get(orgID)
	if err != nil {
		return nil, err
	}

	changes := map[string]interface{}{}
	if req.Name != nil {
		name := sanitize.Text(*req.Name)
		if name == "" {
			return nil, validationErr("name cannot be empty")
		}
		org.Name = name
		changes["name"] = name
	}
	if req.ContactEmail != nil {
		org.ContactEmail = strings.TrimSpace(*req.ContactEmail)
		changes["contact_email"] = org.ContactEmail
	}
	if len(changes) == 0 {
		return org, nil
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(org).Updates(changes).Error; err != nil {
			return err
		}
		return activity.Record(tx, orgID, activity.Actor(actor.UserID), activity.ActionUpdateOrganization,
			activity.Resource("organization", orgID), changes)
	})
	if err != nil {
		return nil, err
	}
	return org, nil
}
