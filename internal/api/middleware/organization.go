package middleware

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/havenhq/haven/internal/auth"
	"github.com/havenhq/haven/internal/models"
	"github.com/havenhq/haven/internal/permissions"
	"github.com/havenhq/haven/internal/service"
	"gorm.io/gorm"
)

// OrganizationHeader picks among a user's memberships.
const OrganizationHeader = "X-Organization-ID"

const (
	orgIDKey = "organization_id"
	actorKey = "actor"
)

// ResolveOrganization decides which organization the request acts in and
// stores the caller as a service.Actor. The organization comes from
// OrganizationHeader, or from the user's only membership. Platform admins may
// name any organization. When optional is true a request with no usable
// organization continues without one instead of being rejected.
func ResolveOrganization(db *gorm.DB, optional bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, err := auth.UserFromContext(c)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}

		orgID, role, status, msg := resolve(db, user, c.GetHeader(OrganizationHeader))
		if status != http.StatusOK {
			if optional && status != http.StatusInternalServerError {
				c.Next()
				return
			}
			c.AbortWithStatusJSON(status, gin.H{"error": msg})
			return
		}

		c.Set(orgIDKey, orgID)
		c.Set(actorKey, service.Actor{UserID: user.ID, Name: displayName(user), Role: role})
		c.Next()
	}
}

func resolve(db *gorm.DB, user *models.User, header string) (uuid.UUID, permissions.Role, int, string) {
	if header != "" {
		orgID, err := uuid.Parse(header)
		if err != nil {
			return uuid.Nil, "", http.StatusBadRequest, "invalid " + OrganizationHeader + " header"
		}
		var m models.Membership
		err = db.Where("organization_id = ? AND user_id = ?", orgID, user.ID).First(&m).Error
		switch {
		case err == nil:
			return orgID, permissions.Role(m.Role), http.StatusOK, ""
		case !errors.Is(err, gorm.ErrRecordNotFound):
			return uuid.Nil, "", http.StatusInternalServerError, "Internal server error"
		}
		if user.PlatformAdmin {
			var count int64
			if err := db.Model(&models.Organization{}).Where("id = ?", orgID).Count(&count).Error; err != nil {
				return uuid.Nil, "", http.StatusInternalServerError, "Internal server error"
			}
			if count > 0 {
				return orgID, permissions.RolePlatformAdmin, http.StatusOK, ""
			}
			return uuid.Nil, "", http.StatusNotFound, "organization not found"
		}
		return uuid.Nil, "", http.StatusForbidden, "you are not a member of this organization"
	}

	var memberships []models.Membership
	if err := db.Where("user_id = ?", user.ID).Limit(2).Find(&memberships).Error; err != nil {
		return uuid.Nil, "", http.StatusInternalServerError, "Internal server error"
	}
	switch len(memberships) {
	case 0:
		return uuid.Nil, "", http.StatusForbidden, "you are not a member of any organization"
	case 1:
		return memberships[0].OrganizationID, permissions.Role(memberships[0].Role), http.StatusOK, ""
	default:
		return uuid.Nil, "", http.StatusBadRequest, OrganizationHeader + " header is required for users in several organizations"
	}
}

func displayName(u *models.User) string {
	if u.Name != "" {
		return u.Name
	}
	return u.Email
}

// OrganizationID returns the organization chosen by ResolveOrganization.
func OrganizationID(c *gin.Context) (uuid.UUID, bool) {
	v, ok := c.Get(orgIDKey)
	if !ok {
		return uuid.Nil, false
	}
	id, ok := v.(uuid.UUID)
	return id, ok
}

// ActorFrom returns the caller stored by ResolveOrganization.
func ActorFrom(c *gin.Context) (service.Actor, bool) {
	v, ok := c.Get(actorKey)
	if !ok {
		return service.Actor{}, false
	}
	actor, ok := v.(service.Actor)
	return actor, ok
}
