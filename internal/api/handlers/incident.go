package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/havenhq/haven/internal/service"
)

// IncidentHandler serves the safeguarding incident log
type IncidentHandler struct {
	base
	svc *service.IncidentService
}

// NewIncidentHandler creates a new IncidentHandler
func NewIncidentHandler(svc *service.IncidentService, opts Options) *IncidentHandler {
	return &IncidentHandler{base: newBase(opts), svc: svc}
}

// List godoc
// @Summary List incidents
// @Tags incidents
// @Security BearerAuth
// @Produce json
// @Param status query string false "Filter by status"
// @Param severity query string false "Filter by severity"
// @Param resident_id query string false "Filter by resident"
// @Param page query int false "Page number"
// @Param page_size query int false "Page size"
// @Success 200 {object} service.PageResult[models.Incident]
// @Router /incidents [get]
func (h *IncidentHandler) List(c *gin.Context) {
	orgID, _, ok := tenant(c)
	if !ok {
		return
	}
	var f service.IncidentFilter
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

// Get godoc
// @Summary Get an incident
// @Tags incidents
// @Security BearerAuth
// @Produce json
// @Param id path string true "Incident ID"
// @Success 200 {object} models.Incident
// @Failure 404 {object} ErrorResponse
// @Router /incidents/{id} [get]
func (h *IncidentHandler) Get(c *gin.Context) {
	orgID, _, ok := tenant(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	incident, err := h.svc.Get(orgID, id)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, incident)
}

// Create godoc
// @Summary Report an incident
// @Description High and critical incidents email the organization's managers and admins.
// @Tags incidents
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param incident body service.CreateIncidentRequest true "Incident"
// @Success 201 {object} models.Incident
// @Failure 400 {object} ErrorResponse
// @Router /incidents [post]
func (h *IncidentHandler) Create(c *gin.Context) {
	orgID, actor, ok := tenant(c)
	if !ok {
		return
	}
	var req service.CreateIncidentRequest
	if !bindJSON(c, &req) {
		return
	}
	incident, err := h.svc.Create(c.Request.Context(), orgID, req, actor)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, incident)
}

// Update godoc
// @Summary Update an open incident
// @Tags incidents
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param id path string true "Incident ID"
// @Param incident body service.UpdateIncidentRequest true "Changes"
// @Success 200 {object} models.Incident
// @Failure 400 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Router /incidents/{id} [patch]
func (h *IncidentHandler) Update(c *gin.Context) {
	orgID, actor, ok := tenant(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req service.UpdateIncidentRequest
	if !bindJSON(c, &req) {
		return
	}
	incident, err := h.svc.Update(orgID, id, req, actor)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, incident)
}

// Close godoc
// @Summary Close an incident
// @Tags incidents
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param id path string true "Incident ID"
// @Param outcome body service.CloseIncidentRequest false "Outcome"
// @Success 200 {object} models.Incident
// @Failure 409 {object} ErrorResponse
// @Router /incidents/{id}/close [post]
func (h *IncidentHandler) Close(c *gin.Context) {
	orgID, actor, ok := tenant(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req service.CloseIncidentRequest
	if c.Request.ContentLength > 0 && !bindJSON(c, &req) {
		return
	}
	incident, err := h.svc.Close(orgID, id, req, actor)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, incident)
}

// Delete godoc
// @Summary Delete an incident
// @Tags incidents
// @Security BearerAuth
// @Param id path string true "Incident ID"
// @Success 204
// @Failure 404 {object} ErrorResponse
// @Router /incidents/{id} [delete]
func (h *IncidentHandler) Delete(c *gin.Context) {
	orgID, actor, ok := tenant(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := h.svc.Delete(orgID, id, actor); err != nil {
		h.respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
