package middleware

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/havenhq/haven/internal/auth"
	"github.com/havenhq/haven/internal/permissions"
)

// Enforcer answers permission checks for a user inside an organization.
type Enforcer interface {
	Enforce(userID, orgID uuid.UUID, perm permissions.Permission) (bool, error)
}

// RequirePermission allows the request only if the caller holds perm in the
// organization chosen by ResolveOrganization.
func RequirePermission(enf Enforcer, perm permissions.Permission) gin.HandlerFunc {
	return func(c *gin.Context) {
		actor, ok := ActorFrom(c)
		orgID, hasOrg := OrganizationID(c)
		if !ok || !hasOrg {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "Access denied"})
			return
		}

		allowed, err := enf.Enforce(actor.UserID, orgID, perm)
		if err != nil {
			slog.Error("Permission check failed", "user_id", actor.UserID, "permission", perm, "error", err)
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
			return
		}
		if !allowed {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "missing permission " + string(perm)})
			return
		}
		c.Next()
	}
}

// RequirePlatformAdmin allows only holders of the platform-wide wildcard.
func RequirePlatformAdmin(enf Enforcer) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, err := auth.UserFromContext(c)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}

		allowed, err := enf.Enforce(user.ID, uuid.Nil, permissions.Wildcard)
		if err != nil || !allowed {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "Platform admin access required"})
			return
		}
		c.Next()
	}
}
