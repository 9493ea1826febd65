package handlers

import (
	"net/http"
	"runtime"

	"github.com/gin-gonic/gin"
	"github.com/havenhq/haven/internal/db"
	"gorm.io/gorm"
)

// Version is set via ldflags at build time
var Version = "dev"

// SystemHandler serves health and version information
type SystemHandler struct {
	db *gorm.DB
}

// NewSystemHandler creates a new SystemHandler
func NewSystemHandler(database *gorm.DB) *SystemHandler {
	return &SystemHandler{db: database}
}

// HealthResponse represents the health check response
type HealthResponse struct {
	Status     string `json:"status"`
	Database   string `json:"database"`
	InstanceID string `json:"instance_id,omitempty"`
	Version    string `json:"version"`
	GoVersion  string `json:"go_version"`
}

// Health godoc
// @Summary Health check
// @Description Reports whether the server can reach its database
// @Tags system
// @Produce json
// @Success 200 {object} HealthResponse
// @Failure 503 {object} HealthResponse
// @Router /health [get]
func (h *SystemHandler) Health(c *gin.Context) {
	resp := HealthResponse{Status: "ok", Database: "ok", Version: Version, GoVersion: runtime.Version()}

	sqlDB, err := h.db.DB()
	if err == nil {
		err = sqlDB.PingContext(c.Request.Context())
	}
	if err != nil {
		resp.Status = "degraded"
		resp.Database = "unreachable"
		c.JSON(http.StatusServiceUnavailable, resp)
		return
	}

	if id, err := db.GetInstanceID(h.db); err == nil {
		resp.InstanceID = id
	}
	c.JSON(http.StatusOK, resp)
}
