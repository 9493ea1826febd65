// Package handlers implements the HTTP endpoints of the tenant API, billing
// and the Stripe webhook.
package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/havenhq/haven/internal/api/middleware"
	"github.com/havenhq/haven/internal/billing"
	"github.com/havenhq/haven/internal/service"
)

// ErrorResponse is the body of every error reply.
type ErrorResponse struct {
	Error string `json:"error"`
}

// Options carries what every handler needs besides its service.
type Options struct {
	Logger *slog.Logger
	// Production hides internal error details from clients.
	Production bool
}

type base struct {
	logger     *slog.Logger
	production bool
}

func newBase(opts Options) base {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return base{logger: logger, production: opts.Production}
}

// respondError maps service-layer errors to HTTP status codes. Unmapped
// errors are logged in full and reported as 500 with the detail hidden in
// production.
func (b base) respondError(c *gin.Context, err error) {
	if errors.Is(err, service.ErrNotFound) {
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "Not found"})
		return
	}
	if errors.Is(err, service.ErrForbidden) {
		c.JSON(http.StatusForbidden, ErrorResponse{Error: "Access denied"})
		return
	}
	var validationErr *service.ValidationError
	if errors.As(err, &validationErr) {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: validationErr.Message})
		return
	}
	var conflictErr *service.ConflictError
	if errors.As(err, &conflictErr) {
		c.JSON(http.StatusConflict, ErrorResponse{Error: conflictErr.Message})
		return
	}
	if errors.Is(err, billing.ErrNotConfigured) {
		c.JSON(http.StatusServiceUnavailable, ErrorResponse{Error: err.Error()})
		return
	}

	b.logger.Error("Unhandled service error",
		"error", err,
		"method", c.Request.Method,
		"path", c.FullPath(),
	)
	msg := "Internal server error"
	if !b.production {
		msg = err.Error()
	}
	c.JSON(http.StatusInternalServerError, ErrorResponse{Error: msg})
}

// bindJSON decodes the request body into req, replying 400 on failure.
func bindJSON(c *gin.Context, req interface{}) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid request: " + err.Error()})
		return false
	}
	return true
}

// bindQuery decodes the query string into req, replying 400 on failure.
func bindQuery(c *gin.Context, req interface{}) bool {
	if err := c.ShouldBindQuery(req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid query: " + err.Error()})
		return false
	}
	return true
}

// pathID parses the named path parameter as a UUID, replying 400 on
// failure.
func pathID(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid " + name})
		return uuid.Nil, false
	}
	return id, true
}

// tenant returns the organization and actor of the request. The route must
// sit behind middleware.ResolveOrganization.
func tenant(c *gin.Context) (uuid.UUID, service.Actor, bool) {
	orgID, ok := middleware.OrganizationID(c)
	actor, hasActor := middleware.ActorFrom(c)
	if !ok || !hasActor {
		c.JSON(http.StatusForbidden, ErrorResponse{Error: "No organization selected"})
		return uuid.Nil, service.Actor{}, false
	}
	return orgID, actor, true
}
