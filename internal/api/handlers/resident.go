package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/havenhq/haven/internal/service"
)

// ResidentHandler serves residents, placements and case notes
type ResidentHandler struct {
	base
	svc       *service.ResidentService
	incidents *service.IncidentService
}

// NewResidentHandler creates a new ResidentHandler
func NewResidentHandler(svc *service.ResidentService, incidents *service.IncidentService, opts Options) *ResidentHandler {
	return &ResidentHandler{base: newBase(opts), svc: svc, incidents: incidents}
}

// List godoc
// @Summary List residents
// @Tags residents
// @Security BearerAuth
// @Produce json
// @Param status query string false "Filter by status"
// @Param risk_level query string false "Filter by risk level"
// @Param property_id query string false "Filter by property"
// @Param q query string false "Name search"
// @Param page query int false "Page number"
// @Param page_size query int false "Page size"
// @Success 200 {object} service.PageResult[models.Resident]
// @Failure 403 {object} ErrorResponse
// @Router /residents [get]
func (h *ResidentHandler) List(c *gin.Context) {
	orgID, _, ok := tenant(c)
	if !ok {
		return
	}
	var f service.ResidentFilter
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
// @Summary Get a resident
// @Tags residents
// @Security BearerAuth
// @Produce json
// @Param id path string true "Resident ID"
// @Success 200 {object} models.Resident
// @Failure 404 {object} ErrorResponse
// @Router /residents/{id} [get]
func (h *ResidentHandler) Get(c *gin.Context) {
	orgID, _, ok := tenant(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	r, err := h.svc.Get(orgID, id)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, r)
}

// Create godoc
// @Summary Create a resident
// @Tags residents
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param resident body service.CreateResidentRequest true "Resident"
// @Success 201 {object} models.Resident
// @Failure 400 {object} ErrorResponse
// @Router /residents [post]
func (h *ResidentHandler) Create(c *gin.Context) {
	orgID, actor, ok := tenant(c)
	if !ok {
		return
	}
	var req service.CreateResidentRequest
	if !bindJSON(c, &req) {
		return
	}
	r, err := h.svc.Create(orgID, req, actor)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, r)
}

// Update godoc
// @Summary Update a resident
// @Tags residents
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param id path string true "Resident ID"
// @Param resident body service.UpdateResidentRequest true "Changes"
// @Success 200 {object} models.Resident
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /residents/{id} [patch]
func (h *ResidentHandler) Update(c *gin.Context) {
	orgID, actor, ok := tenant(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req service.UpdateResidentRequest
	if !bindJSON(c, &req) {
		return
	}
	r, err := h.svc.Update(orgID, id, req, actor)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, r)
}

// Delete godoc
// @Summary Delete a resident
// @Tags residents
// @Security BearerAuth
// @Param id path string true "Resident ID"
// @Success 204
// @Failure 404 {object} ErrorResponse
// @Router /residents/{id} [delete]
func (h *ResidentHandler) Delete(c *gin.Context) {
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

// AssignProperty godoc
// @Summary Place a resident in a property
// @Description Fails with 409 when the property is full or inactive.
// @Tags residents
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param id path string true "Resident ID"
// @Param placement body service.AssignPropertyRequest true "Placement"
// @Success 200 {object} models.Resident
// @Failure 404 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Router /residents/{id}/assign [post]
func (h *ResidentHandler) AssignProperty(c *gin.Context) {
	orgID, actor, ok := tenant(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req service.AssignPropertyRequest
	if !bindJSON(c, &req) {
		return
	}
	r, err := h.svc.AssignProperty(orgID, id, req, actor)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, r)
}

// MoveOut godoc
// @Summary End a resident's placement
// @Tags residents
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param id path string true "Resident ID"
// @Param move_out body service.MoveOutRequest false "Move-out date"
// @Success 200 {object} models.Resident
// @Failure 404 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Router /residents/{id}/move-out [post]
func (h *ResidentHandler) MoveOut(c *gin.Context) {
	orgID, actor, ok := tenant(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req service.MoveOutRequest
	if c.Request.ContentLength > 0 && !bindJSON(c, &req) {
		return
	}
	r, err := h.svc.MoveOut(orgID, id, req, actor)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, r)
}

// ListNotes godoc
// @Summary List a resident's case notes
// @Tags residents
// @Security BearerAuth
// @Produce json
// @Param id path string true "Resident ID"
// @Success 200 {array} models.CaseNote
// @Failure 404 {object} ErrorResponse
// @Router /residents/{id}/notes [get]
func (h *ResidentHandler) ListNotes(c *gin.Context) {
	orgID, _, ok := tenant(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	notes, err := h.svc.ListNotes(orgID, id)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, notes)
}

// CreateNote godoc
// @Summary Add a case note
// @Tags residents
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param id path string true "Resident ID"
// @Param note body service.CreateCaseNoteRequest true "Note"
// @Success 201 {object} models.CaseNote
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /residents/{id}/notes [post]
func (h *ResidentHandler) CreateNote(c *gin.Context) {
	orgID, actor, ok := tenant(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req service.CreateCaseNoteRequest
	if !bindJSON(c, &req) {
		return
	}
	note, err := h.svc.CreateNote(orgID, id, req, actor)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, note)
}

// MyProfile godoc
// @Summary Get the calling resident's own profile
// @Tags self-service
// @Security BearerAuth
// @Produce json
// @Success 200 {object} models.Resident
// @Failure 404 {object} ErrorResponse
// @Router /me/profile [get]
func (h *ResidentHandler) MyProfile(c *gin.Context) {
	orgID, actor, ok := tenant(c)
	if !ok {
		return
	}
	r, err := h.svc.GetForUser(orgID, actor.UserID)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, r)
}

// UpdateMyProfile godoc
// @Summary Update the calling resident's own profile
// @Tags self-service
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param profile body service.UpdateOwnProfileRequest true "Changes"
// @Success 200 {object} models.Resident
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /me/profile [patch]
func (h *ResidentHandler) UpdateMyProfile(c *gin.Context) {
	orgID, actor, ok := tenant(c)
	if !ok {
		return
	}
	var req service.UpdateOwnProfileRequest
	if !bindJSON(c, &req) {
		return
	}
	r, err := h.svc.UpdateOwnProfile(orgID, actor.UserID, req)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, r)
}

// MyIncidents godoc
// @Summary List incidents involving the calling resident
// @Tags self-service
// @Security BearerAuth
// @Produce json
// @Success 200 {array} models.Incident
// @Router /me/incidents [get]
func (h *ResidentHandler) MyIncidents(c *gin.Context) {
	orgID, actor, ok := tenant(c)
	if !ok {
		return
	}
	incidents, err := h.incidents.ListForUser(orgID, actor.UserID)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, incidents)
}
