package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/havenhq/haven/internal/auth"
	"github.com/havenhq/haven/internal/service"
)

// MemberHandler manages memberships and invitations
type MemberHandler struct {
	base
	svc *service.MemberService
}

// NewMemberHandler creates a new MemberHandler
func NewMemberHandler(svc *service.MemberService, opts Options) *MemberHandler {
	return &MemberHandler{base: newBase(opts), svc: svc}
}

// AcceptInvitationRequest carries the token from an invitation link.
type AcceptInvitationRequest struct {
	Token string `json:"token" binding:"required"`
}

// List godoc
// @Summary List organization members
// @Tags members
// @Security BearerAuth
// @Produce json
// @Success 200 {array} models.Membership
// @Failure 403 {object} ErrorResponse
// @Router /members [get]
func (h *MemberHandler) List(c *gin.Context) {
	orgID, _, ok := tenant(c)
	if !ok {
		return
	}
	members, err := h.svc.List(orgID)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, members)
}

// Invite godoc
// @Summary Invite a member by email
// @Tags members
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param invitation body service.InviteMemberRequest true "Invitation"
// @Success 201 {object} models.Invitation
// @Failure 400 {object} ErrorResponse
// @Failure 403 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Router /members/invite [post]
func (h *MemberHandler) Invite(c *gin.Context) {
	orgID, actor, ok := tenant(c)
	if !ok {
		return
	}
	var req service.InviteMemberRequest
	if !bindJSON(c, &req) {
		return
	}
	invitation, err := h.svc.Invite(c.Request.Context(), orgID, actor, req)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, invitation)
}

// Accept godoc
// @Summary Accept an invitation
// @Description The invitation must be addressed to the caller's email.
// @Tags members
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param invitation body AcceptInvitationRequest true "Token"
// @Success 201 {object} models.Membership
// @Failure 400 {object} ErrorResponse
// @Failure 403 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /invitations/accept [post]
func (h *MemberHandler) Accept(c *gin.Context) {
	user, err := auth.UserFromContext(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "Unauthorized"})
		return
	}
	var req AcceptInvitationRequest
	if !bindJSON(c, &req) {
		return
	}
	membership, err := h.svc.Accept(req.Token, user)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, membership)
}

// UpdateRole godoc
// @Summary Change a member's role
// @Tags members
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param user_id path string true "User ID"
// @Param role body service.UpdateMemberRoleRequest true "Role"
// @Success 200 {object} models.Membership
// @Failure 400 {object} ErrorResponse
// @Failure 403 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /members/{user_id} [patch]
func (h *MemberHandler) UpdateRole(c *gin.Context) {
	orgID, actor, ok := tenant(c)
	if !ok {
		return
	}
	userID, ok := pathID(c, "user_id")
	if !ok {
		return
	}
	var req service.UpdateMemberRoleRequest
	if !bindJSON(c, &req) {
		return
	}
	m, err := h.svc.UpdateRole(orgID, actor, userID, req)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, m)
}

// Remove godoc
// @Summary Remove a member
// @Tags members
// @Security BearerAuth
// @Param user_id path string true "User ID"
// @Success 204
// @Failure 400 {object} ErrorResponse
// @Failure 403 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /members/{user_id} [delete]
func (h *MemberHandler) Remove(c *gin.Context) {
	orgID, actor, ok := tenant(c)
	if !ok {
		return
	}
	userID, ok := pathID(c, "user_id")
	if !ok {
		return
	}
	if err := h.svc.Remove(orgID, actor, userID); err != nil {
		h.respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
