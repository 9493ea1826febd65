package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/havenhq/haven/internal/auth"
	"github.com/havenhq/haven/internal/permissions"
	"github.com/havenhq/haven/internal/service"
)

// OrganizationHandler serves the caller's organization and the platform
// tenant list
type OrganizationHandler struct {
	base
	svc *service.OrganizationService
}

// NewOrganizationHandler creates a new OrganizationHandler
func NewOrganizationHandler(svc *service.OrganizationService, opts Options) *OrganizationHandler {
	return &OrganizationHandler{base: newBase(opts), svc: svc}
}

// Get godoc
// @Summary Get the current organization
// @Tags organization
// @Security BearerAuth
// @Produce json
// @Success 200 {object} models.Organization
// @Failure 401 {object} ErrorResponse
// @Failure 403 {object} ErrorResponse
// @Router /organization [get]
func (h *OrganizationHandler) Get(c *gin.Context) {
	orgID, _, ok := tenant(c)
	if !ok {
		return
	}
	org, err := h.svc.Get(orgID)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, org)
}

// Update godoc
// @Summary Update organization settings
// @Tags organization
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param settings body service.UpdateOrganizationRequest true "Settings"
// @Success 200 {object} models.Organization
// @Failure 400 {object} ErrorResponse
// @Failure 403 {object} ErrorResponse
// @Router /organization [patch]
func (h *OrganizationHandler) Update(c *gin.Context) {
	orgID, actor, ok := tenant(c)
	if !ok {
		return
	}
	var req service.UpdateOrganizationRequest
	if !bindJSON(c, &req) {
		return
	}
	org, err := h.svc.Update(orgID, req, actor)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, org)
}

// ListAll godoc
// @Summary List every organization (platform admin only)
// @Tags platform
// @Security BearerAuth
// @Produce json
// @Success 200 {array} models.Organization
// @Failure 403 {object} ErrorResponse
// @Router /platform/organizations [get]
func (h *OrganizationHandler) ListAll(c *gin.Context) {
	orgs, err := h.svc.List()
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, orgs)
}

// Create godoc
// @Summary Create an organization (platform admin only)
// @Description Optionally invites the first admin by email.
// @Tags platform
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param organization body service.CreateOrganizationRequest true "Organization"
// @Success 201 {object} models.Organization
// @Failure 400 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Router /platform/organizations [post]
func (h *OrganizationHandler) Create(c *gin.Context) {
	user, err := auth.UserFromContext(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "Unauthorized"})
		return
	}
	var req service.CreateOrganizationRequest
	if !bindJSON(c, &req) {
		return
	}

	actor := service.Actor{UserID: user.ID, Name: user.Name, Role: permissions.RolePlatformAdmin}
	org, err := h.svc.Create(c.Request.Context(), req, actor)
	if err != nil {
		if org != nil {
			// Created, but the admin invitation failed.
			h.logger.Warn("Organization created without admin invitation", "organization_id", org.ID, "error", err)
			c.JSON(http.StatusCreated, org)
			return
		}
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, org)
}
