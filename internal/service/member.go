package service

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
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
	"gorm.io/gorm"
)

// InvitationTTL is how long an invitation link stays valid.
const InvitationTTL = 7 * 24 * time.Hour

// RoleAssigner mirrors membership changes into the request-time enforcer.
type RoleAssigner interface {
	AssignRole(userID, orgID uuid.UUID, role permissions.Role) error
	RevokeRole(userID, orgID uuid.UUID) error
}

// Mailer queues outgoing email.
type Mailer interface {
	Enqueue(ctx context.Context, orgID *uuid.UUID, msg notify.Message) (*models.Job, error)
}

// MemberService manages memberships and invitations.
type MemberService struct {
	db      *gorm.DB
	roles   RoleAssigner
	mailer  Mailer
	baseURL string
}

// NewMemberService creates a new MemberService. baseURL is the web app
// origin used to build invitation links.
func NewMemberService(db *gorm.DB, roles RoleAssigner, mailer Mailer, baseURL string) *MemberService {
	return &MemberService{db: db, roles: roles, mailer: mailer, baseURL: strings.TrimRight(baseURL, "/")}
}

// List returns the organization's members with their users.
func (s *MemberService) List(orgID uuid.UUID) ([]models.Membership, error) {
	var members []models.Membership
	err := s.db.Preload("User").
		Where("organization_id = ?", orgID).
		Order("created_at ASC").
		Find(&members).Error
	return members, err
}

// MembershipsFor returns every membership a user holds, with organizations.
func (s *MemberService) MembershipsFor(userID uuid.UUID) ([]models.Membership, error) {
	var members []models.Membership
	err := s.db.Preload("Organization").
		Where("user_id = ?", userID).
		Order("created_at ASC").
		Find(&members).Error
	return members, err
}

// Get returns one member of the organization.
func (s *MemberService) Get(orgID, userID uuid.UUID) (*models.Membership, error) {
	var m models.Membership
	err := s.db.Preload("User").
		Where("organization_id = ? AND user_id = ?", orgID, userID).
		First(&m).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &m, nil
}

// Invite records an invitation and emails the link. A still-pending
// invitation for the same address is replaced. A failure to queue the email
// is logged; the invitation stands and can be sent again.
func (s *MemberService) Invite(ctx context.Context, orgID uuid.UUID, actor Actor, req InviteMemberRequest) (*models.Invitation, error) {
	role, ok := permissions.ParseRole(req.Role)
	if !ok || role == permissions.RolePlatformAdmin {
		return nil, validationErr("invalid role")
	}
	if !permissions.CanInviteRole(actor.Role, role) {
		return nil, ErrForbidden
	}
	email := strings.ToLower(strings.TrimSpace(req.Email))

	var org models.Organization
	if err := s.db.First(&org, "id = ?", orgID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	var existing int64
	if err := s.db.Model(&models.Membership{}).
		Joins("JOIN users ON users.id = memberships.user_id").
		Where("memberships.organization_id = ? AND LOWER(users.email) = ?", orgID, email).
		Count(&existing).Error; err != nil {
		return nil, fmt.Errorf("failed to check membership: %w", err)
	}
	if existing > 0 {
		return nil, conflictErr("this person is already a member")
	}

	token, err := newToken()
	if err != nil {
		return nil, err
	}

	invitation := models.Invitation{
		OrganizationID: orgID,
		Email:          email,
		Role:           string(role),
		Token:          hashToken(token),
		InvitedByID:    actor.UserID,
		ExpiresAt:      time.Now().UTC().Add(InvitationTTL),
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("organization_id = ? AND email = ? AND accepted_at IS NULL", orgID, email).
			Delete(&models.Invitation{}).Error; err != nil {
			return err
		}
		if err := tx.Create(&invitation).Error; err != nil {
			return err
		}
		return activity.Record(tx, orgID, activity.Actor(actor.UserID), activity.ActionInviteMember,
			activity.Resource("invitation", invitation.ID), map[string]string{"email": email, "role": string(role)})
	})
	if err != nil {
		return nil, err
	}

	inviter := actor.Name
	if inviter == "" {
		inviter = "A colleague"
	}
	_, err = s.mailer.Enqueue(ctx, &orgID, notify.Message{
		Kind: notify.KindMemberInvitation,
		To:   []string{email},
		Data: map[string]string{
			"OrganizationName": org.Name,
			"InvitedBy":        inviter,
			"Role":             string(role),
			"AcceptURL":        s.baseURL + "/invitations/" + token,
			"ExpiresAt":        invitation.ExpiresAt.Format("2 Jan 2006"),
		},
	})
	if err != nil {
		slog.Error("Failed to queue invitation email", "invitation_id", invitation.ID, "organization_id", orgID, "error", err)
	}

	return &invitation, nil
}

// Accept turns an invitation into a membership for user. The invitation
// must be addressed to the user's email.
func (s *MemberService) Accept(token string, user *models.User) (*models.Membership, error) {
	var invitation models.Invitation
	if err := s.db.Where("token = ?", hashToken(token)).First(&invitation).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if invitation.AcceptedAt != nil {
		return nil, conflictErr("invitation has already been accepted")
	}
	if time.Now().After(invitation.ExpiresAt) {
		return nil, validationErr("invitation has expired")
	}
	if !strings.EqualFold(invitation.Email, user.Email) {
		return nil, ErrForbidden
	}

	role := permissions.Role(invitation.Role)
	membership := models.Membership{
		OrganizationID: invitation.OrganizationID,
		UserID:         user.ID,
		Role:           string(role),
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&models.Membership{}).
			Where("organization_id = ? AND user_id = ?", invitation.OrganizationID, user.ID).
			Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return conflictErr("you are already a member of this organization")
		}

		if err := tx.Create(&membership).Error; err != nil {
			return err
		}
		now := time.Now().UTC()
		if err := tx.Model(&invitation).Update("accepted_at", now).Error; err != nil {
			return err
		}
		return activity.Record(tx, invitation.OrganizationID, activity.Actor(user.ID), activity.ActionAcceptInvitation,
			activity.Resource("user", user.ID), map[string]string{"role": string(role)})
	})
	if err != nil {
		return nil, err
	}
	if err := s.roles.AssignRole(user.ID, invitation.OrganizationID, role); err != nil {
		return nil, fmt.Errorf("membership created but role assignment failed: %w", err)
	}
	return &membership, nil
}

// UpdateRole changes another member's role. The actor must be able to manage
// both the current and the new role.
func (s *MemberService) UpdateRole(orgID uuid.UUID, actor Actor, targetUserID uuid.UUID, req UpdateMemberRoleRequest) (*models.Membership, error) {
	newRole, ok := permissions.ParseRole(req.Role)
	if !ok || newRole == permissions.RolePlatformAdmin {
		return nil, validationErr("invalid role")
	}
	if targetUserID == actor.UserID {
		return nil, validationErr("you cannot change your own role")
	}

	m, err := s.Get(orgID, targetUserID)
	if err != nil {
		return nil, err
	}
	current := permissions.Role(m.Role)
	if !permissions.CanManageRole(actor.Role, current) || !permissions.CanManageRole(actor.Role, newRole) {
		return nil, ErrForbidden
	}
	if current == newRole {
		return m, nil
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		if current == permissions.RoleAdmin {
			if err := ensureAnotherAdmin(tx, orgID, targetUserID); err != nil {
				return err
			}
		}
		if err := tx.Model(m).Update("role", string(newRole)).Error; err != nil {
			return err
		}
		return activity.Record(tx, orgID, activity.Actor(actor.UserID), activity.ActionUpdateMemberRole,
			activity.Resource("user", targetUserID), map[string]string{"from": string(current), "to": string(newRole)})
	})
	if err != nil {
		return nil, err
	}
	if err := s.roles.AssignRole(targetUserID, orgID, newRole); err != nil {
		return nil, fmt.Errorf("role saved but enforcement update failed: %w", err)
	}
	m.Role = string(newRole)
	return m, nil
}

// Remove deletes another member from the organization.
func (s *MemberService) Remove(orgID uuid.UUID, actor Actor, targetUserID uuid.UUID) error {
	if targetUserID == actor.UserID {
		return validationErr("you cannot remove yourself")
	}

	m, err := s.Get(orgID, targetUserID)
	if err != nil {
		return err
	}
	role := permissions.Role(m.Role)
	if !permissions.CanManageRole(actor.Role, role) {
		return ErrForbidden
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		if role == permissions.RoleAdmin {
			if err := ensureAnotherAdmin(tx, orgID, targetUserID); err != nil {
				return err
			}
		}
		if err := tx.Delete(m).Error; err != nil {
			return err
		}
		return activity.Record(tx, orgID, activity.Actor(actor.UserID), activity.ActionRemoveMember,
			activity.Resource("user", targetUserID), map[string]string{"role": string(role)})
	})
	if err != nil {
		return err
	}
	return s.roles.RevokeRole(targetUserID, orgID)
}

// AdminEmails returns the addresses of members holding any of roles.
func (s *MemberService) AdminEmails(orgID uuid.UUID, roles ...permissions.Role) ([]string, error) {
	return memberEmails(s.db, orgID, roles...)
}

func memberEmails(db *gorm.DB, orgID uuid.UUID, roles ...permissions.Role) ([]string, error) {
	names := make([]string, len(roles))
	for i, r := range roles {
		names[i] = string(r)
	}
	var emails []string
	err := db.Model(&models.Membership{}).
		Joins("JOIN users ON users.id = memberships.user_id").
		Where("memberships.organization_id = ? AND memberships.role IN ?", orgID, names).
		Where("users.deleted_at IS NULL AND users.email <> ''").
		Order("users.email").
		Pluck("users.email", &emails).Error
	return emails, err
}

func ensureAnotherAdmin(tx *gorm.DB, orgID, leavingUserID uuid.UUID) error {
	var admins int64
	if err := tx.Model(&models.Membership{}).
		Where("organization_id = ? AND role = ? AND user_id <> ?", orgID, string(permissions.RoleAdmin), leavingUserID).
		Count(&admins).Error; err != nil {
		return err
	}
	if admins == 0 {
		return conflictErr("an organization must keep at least one admin")
	}
	return nil
}

func newToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("failed to generate token: %w", err)
	}
	return hex.EncodeToString(b), nil
}

func hashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}
