package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/havenhq/haven/internal/service"
)

// PropertyHandler serves properties and their occupancy
type PropertyHandler struct {
	base
	svc *service.PropertyService
}

// NewPropertyHandler creates a new PropertyHandler
func NewPropertyHandler(svc *service.PropertyService, opts Options) *PropertyHandler {
	return &PropertyHandler{base: newBase(opts), svc: svc}
}

// List godoc
// @Summary List properties with occupancy
// @Tags properties
// @Security BearerAuth
// @Produce json
// @Success 200 {array} service.PropertyWithOccupancy
// @Router /properties [get]
func (h *PropertyHandler) List(c *gin.Context) {
	orgID, _, ok := tenant(c)
	if !ok {
		return
	}
	properties, err := h.svc.List(orgID)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, properties)
}

// Get godoc
// @Summary Get a property with occupancy
// @Tags properties
// @Security BearerAuth
// @Produce json
// @Param id path string true "Property ID"
// @Success 200 {object} service.PropertyWithOccupancy
// @Failure 404 {object} ErrorResponse
// @Router /properties/{id} [get]
func (h *PropertyHandler) Get(c *gin.Context) {
	orgID, _, ok := tenant(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	p, err := h.svc.Get(orgID, id)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

// Residents godoc
// @Summary List the residents placed in a property
// @Tags properties
// @Security BearerAuth
// @Produce json
// @Param id path string true "Property ID"
// @Success 200 {array} models.Resident
// @Failure 404 {object} ErrorResponse
// @Router /properties/{id}/residents [get]
func (h *PropertyHandler) Residents(c *gin.Context) {
	orgID, _, ok := tenant(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	residents, err := h.svc.Residents(orgID, id)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, residents)
}

// Create godoc
// @Summary Create a property
// @Tags properties
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param property body service.CreatePropertyRequest true "Property"
// @Success 201 {object} service.PropertyWithOccupancy
// @Failure 400 {object} ErrorResponse
// @Router /properties [post]
func (h *PropertyHandler) Create(c *gin.Context) {
	orgID, actor, ok := tenant(c)
	if !ok {
		return
	}
	var req service.CreatePropertyRequest
	if !bindJSON(c, &req) {
		return
	}
	p, err := h.svc.Create(orgID, req, actor)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, p)
}

// Update godoc
// @Summary Update a property
// @Description Capacity cannot drop below current occupancy.
// @Tags properties
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param id path string true "Property ID"
// @Param property body service.UpdatePropertyRequest true "Changes"
// @Success 200 {object} service.PropertyWithOccupancy
// @Failure 400 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Router /properties/{id} [patch]
func (h *PropertyHandler) Update(c *gin.Context) {
	orgID, actor, ok := tenant(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req service.UpdatePropertyRequest
	if !bindJSON(c, &req) {
		return
	}
	p, err := h.svc.Update(orgID, id, req, actor)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

// Delete godoc
// @Summary Delete an empty property
// @Tags properties
// @Security BearerAuth
// @Param id path string true "Property ID"
// @Success 204
// @Failure 404 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Router /properties/{id} [delete]
func (h *PropertyHandler) Delete(c *gin.Context) {
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
