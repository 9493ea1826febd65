package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/havenhq/haven/internal/api/middleware"
	"github.com/havenhq/haven/internal/auth"
	"github.com/havenhq/haven/internal/models"
	"github.com/havenhq/haven/internal/permissions"
	"github.com/havenhq/haven/internal/service"
)

// PermissionsHandler reports what the caller may do
type PermissionsHandler struct {
	base
	members *service.MemberService
}

// NewPermissionsHandler creates a new PermissionsHandler
func NewPermissionsHandler(members *service.MemberService, opts Options) *PermissionsHandler {
	return &PermissionsHandler{base: newBase(opts), members: members}
}

// MembershipSummary is one organization the caller belongs to.
type MembershipSummary struct {
	OrganizationID   uuid.UUID        `json:"organization_id"`
	OrganizationName string           `json:"organization_name"`
	Role             permissions.Role `json:"role"`
}

// MyPermissionsResponse describes the caller and their effective permissions
// in the selected organization, if any.
type MyPermissionsResponse struct {
	User           *models.User             `json:"user"`
	PlatformAdmin  bool                     `json:"platform_admin"`
	OrganizationID *uuid.UUID               `json:"organization_id,omitempty"`
	Role           permissions.Role         `json:"role,omitempty"`
	Permissions    []permissions.Permission `json:"permissions"`
	Memberships    []MembershipSummary      `json:"memberships"`
}

// Me godoc
// @Summary Get the caller's role and effective permissions
// @Tags permissions
// @Security BearerAuth
// @Produce json
// @Param X-Organization-ID header string false "Organization to act in"
// @Success 200 {object} MyPermissionsResponse
// @Failure 401 {object} ErrorResponse
// @Router /permissions/me [get]
func (h *PermissionsHandler) Me(c *gin.Context) {
	user, err := auth.UserFromContext(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "Unauthorized"})
		return
	}

	memberships, err := h.members.MembershipsFor(user.ID)
	if err != nil {
		h.respondError(c, err)
		return
	}

	resp := MyPermissionsResponse{
		User:          user,
		PlatformAdmin: user.PlatformAdmin,
		Permissions:   []permissions.Permission{},
		Memberships:   make([]MembershipSummary, 0, len(memberships)),
	}
	for _, m := range memberships {
		resp.Memberships = append(resp.Memberships, MembershipSummary{
			OrganizationID:   m.OrganizationID,
			OrganizationName: m.Organization.Name,
			Role:             permissions.Role(m.Role),
		})
	}

	if orgID, ok := middleware.OrganizationID(c); ok {
		actor, _ := middleware.ActorFrom(c)
		resp.OrganizationID = &orgID
		resp.Role = actor.Role
		resp.Permissions = permissions.PermissionsFor(actor.Role)
	} else if user.PlatformAdmin {
		resp.Role = permissions.RolePlatformAdmin
		resp.Permissions = permissions.PermissionsFor(permissions.RolePlatformAdmin)
	}

	c.JSON(http.StatusOK, resp)
}
