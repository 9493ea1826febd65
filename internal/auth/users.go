package auth

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"github.com/havenhq/haven/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// PlatformRoles mirrors the platform admin flag into the enforcer.
type PlatformRoles interface {
	SetPlatformAdmin(userID uuid.UUID, enabled bool) error
}

// Provisioner maps token identities onto local users, creating them on first
// sight. Users whose email is in the configured platform admin list are
// promoted; users removed from the list are demoted on their next request.
type Provisioner struct {
	db     *gorm.DB
	roles  PlatformRoles
	admins map[string]bool
	logger *slog.Logger
}

// NewProvisioner creates a Provisioner. adminEmails must already be
// lowercased.
func NewProvisioner(db *gorm.DB, roles PlatformRoles, adminEmails []string, logger *slog.Logger) *Provisioner {
	admins := make(map[string]bool, len(adminEmails))
	for _, e := range adminEmails {
		admins[e] = true
	}
	return &Provisioner{db: db, roles: roles, admins: admins, logger: logger}
}

// Resolve finds or creates the user for identity and syncs profile fields
// and the platform admin flag.
func (p *Provisioner) Resolve(identity *Identity) (*models.User, error) {
	email := strings.ToLower(strings.TrimSpace(identity.Email))
	isAdmin := email != "" && p.admins[email]

	var user models.User
	err := p.db.Where("external_id = ?", identity.Subject).First(&user).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		user = models.User{
			ExternalID:    identity.Subject,
			Email:         email,
			Name:          identity.Name,
			PlatformAdmin: isAdmin,
		}
		// Concurrent first requests for one subject race here; the loser
		// reads the winner's row.
		if err := p.db.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "external_id"}},
			DoNothing: true,
		}).Create(&user).Error; err != nil {
			return nil, fmt.Errorf("failed to create user: %w", err)
		}
		if err := p.db.Where("external_id = ?", identity.Subject).First(&user).Error; err != nil {
			return nil, fmt.Errorf("failed to load user: %w", err)
		}
		p.logger.Info("Provisioned user", "user_id", user.ID, "email", user.Email)
	case err != nil:
		return nil, fmt.Errorf("database error: %w", err)
	default:
		updates := map[string]interface{}{}
		if email != "" && user.Email != email {
			updates["email"] = email
		}
		if identity.Name != "" && user.Name != identity.Name {
			updates["name"] = identity.Name
		}
		if user.PlatformAdmin != isAdmin {
			updates["platform_admin"] = isAdmin
		}
		if len(updates) > 0 {
			if err := p.db.Model(&models.User{}).Where("id = ?", user.ID).Updates(updates).Error; err != nil {
				return nil, fmt.Errorf("failed to update user: %w", err)
			}
			if _, ok := updates["email"]; ok {
				user.Email = email
			}
			if _, ok := updates["name"]; ok {
				user.Name = identity.Name
			}
			if user.PlatformAdmin != isAdmin {
				user.PlatformAdmin = isAdmin
				p.logger.Info("Platform admin flag changed", "user_id", user.ID, "platform_admin", isAdmin)
			}
		}
	}

	if err := p.roles.SetPlatformAdmin(user.ID, user.PlatformAdmin); err != nil {
		return nil, err
	}
	return &user, nil
}
