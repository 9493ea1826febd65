package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/havenhq/haven/internal/service"
)

// InsightsHandler serves cross-module search and the dashboard
type InsightsHandler struct {
	base
	search    *service.SearchService
	dashboard *service.DashboardService
}

// NewInsightsHandler creates a new InsightsHandler
func NewInsightsHandler(search *service.SearchService, dashboard *service.DashboardService, opts Options) *InsightsHandler {
	return &InsightsHandler{base: newBase(opts), search: search, dashboard: dashboard}
}

// Search godoc
// @Summary Search residents, properties and incidents
// @Tags search
// @Security BearerAuth
// @Produce json
// @Param q query string true "Search term"
// @Success 200 {object} service.SearchResults
// @Router /search [get]
func (h *InsightsHandler) Search(c *gin.Context) {
	orgID, _, ok := tenant(c)
	if !ok {
		return
	}
	results, err := h.search.Search(c.Request.Context(), orgID, c.Query("q"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, results)
}

// Dashboard godoc
// @Summary Get dashboard counts
// @Tags dashboard
// @Security BearerAuth
// @Produce json
// @Success 200 {object} service.Dashboard
// @Router /dashboard [get]
func (h *InsightsHandler) Dashboard(c *gin.Context) {
	orgID, _, ok := tenant(c)
	if !ok {
		return
	}
	d, err := h.dashboard.Get(c.Request.Context(), orgID)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, d)
}
