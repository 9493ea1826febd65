package handlers

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/havenhq/haven/internal/reports"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// ReportHandler serves the occupancy, incident and financial reports
type ReportHandler struct {
	base
	svc *reports.Service
}

// NewReportHandler creates a new ReportHandler
func NewReportHandler(svc *reports.Service, opts Options) *ReportHandler {
	return &ReportHandler{base: newBase(opts), svc: svc}
}

// Occupancy godoc
// @Summary Occupancy report
// @Tags reports
// @Security BearerAuth
// @Produce json
// @Success 200 {object} reports.OccupancyReport
// @Router /reports/occupancy [get]
func (h *ReportHandler) Occupancy(c *gin.Context) {
	orgID, _, ok := tenant(c)
	if !ok {
		return
	}
	report, err := h.svc.Occupancy(orgID)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, report)
}

// Incidents godoc
// @Summary Incident report
// @Tags reports
// @Security BearerAuth
// @Produce json
// @Param from query string false "First day (YYYY-MM-DD)"
// @Param to query string false "Last day (YYYY-MM-DD)"
// @Success 200 {object} reports.IncidentReport
// @Failure 400 {object} ErrorResponse
// @Router /reports/incidents [get]
func (h *ReportHandler) Incidents(c *gin.Context) {
	orgID, _, ok := tenant(c)
	if !ok {
		return
	}
	r, ok := h.window(c)
	if !ok {
		return
	}
	report, err := h.svc.Incidents(orgID, r)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, report)
}

// Financial godoc
// @Summary Financial report
// @Tags reports
// @Security BearerAuth
// @Produce json
// @Param from query string false "First day (YYYY-MM-DD)"
// @Param to query string false "Last day (YYYY-MM-DD)"
// @Success 200 {object} reports.FinancialReport
// @Failure 400 {object} ErrorResponse
// @Router /reports/financial [get]
func (h *ReportHandler) Financial(c *gin.Context) {
	orgID, _, ok := tenant(c)
	if !ok {
		return
	}
	r, ok := h.window(c)
	if !ok {
		return
	}
	report, err := h.svc.Financial(orgID, r)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, report)
}

// Export godoc
// @Summary Download a report as a spreadsheet
// @Tags reports
// @Security BearerAuth
// @Produce application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Param kind path string true "occupancy, incidents or financial"
// @Param from query string false "First day (YYYY-MM-DD)"
// @Param to query string false "Last day (YYYY-MM-DD)"
// @Success 200 {file} file
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /reports/{kind}/export [get]
func (h *ReportHandler) Export(c *gin.Context) {
	orgID, actor, ok := tenant(c)
	if !ok {
		return
	}
	r, ok := h.window(c)
	if !ok {
		return
	}
	filename, data, err := h.svc.Export(orgID, c.Param("kind"), r, actor)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(http.StatusOK, xlsxContentType, data)
}

func (h *ReportHandler) window(c *gin.Context) (reports.Range, bool) {
	var q reports.RangeQuery
	if !bindQuery(c, &q) {
		return reports.Range{}, false
	}
	r, err := q.Resolve(time.Now())
	if err != nil {
		h.respondError(c, err)
		return reports.Range{}, false
	}
	return r, true
}
