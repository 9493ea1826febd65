package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/havenhq/haven/internal/service"
)

// ActivityHandler serves the activity log
type ActivityHandler struct {
	base
	svc *service.ActivityService
}

// NewActivityHandler creates a new ActivityHandler
func NewActivityHandler(svc *service.ActivityService, opts Options) *ActivityHandler {
	return &ActivityHandler{base: newBase(opts), svc: svc}
}

// List godoc
// @Summary List the organization's activity log
// @Tags activity
// @Security BearerAuth
// @Produce json
// @Param action query string false "Filter by action"
// @Param actor_id query string false "Filter by actor"
// @Param page query int false "Page number"
// @Param page_size query int false "Page size"
// @Success 200 {object} service.PageResult[models.ActivityLog]
// @Router /activity [get]
func (h *ActivityHandler) List(c *gin.Context) {
	orgID, _, ok := tenant(c)
	if !ok {
		return
	}
	var f service.ActivityFilter
	if !bindQuery(c, &f) {
		return
	}
	page, err := h.svc.List(orgID, f)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, page)
}
