package handlers

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/havenhq/haven/internal/billing"
)

// WebhookHandler receives Stripe events
type WebhookHandler struct {
	base
	processor *billing.Processor
}

// NewWebhookHandler creates a new WebhookHandler
func NewWebhookHandler(processor *billing.Processor, opts Options) *WebhookHandler {
	return &WebhookHandler{base: newBase(opts), processor: processor}
}

// Stripe godoc
// @Summary Receive a Stripe webhook event
// @Description Verifies the Stripe-Signature header before applying the event.
// @Tags billing
// @Accept json
// @Produce json
// @Success 200 {object} map[string]bool
// @Failure 400 {object} ErrorResponse
// @Failure 413 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /webhooks/stripe [post]
func (h *WebhookHandler) Stripe(c *gin.Context) {
	payload, err := io.ReadAll(http.MaxBytesReader(c.Writer, c.Request.Body, billing.MaxPayloadBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			c.JSON(http.StatusRequestEntityTooLarge, ErrorResponse{Error: "payload too large"})
			return
		}
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "failed to read body"})
		return
	}

	err = h.processor.Process(c.Request.Context(), payload, c.GetHeader("Stripe-Signature"))
	switch {
	case errors.Is(err, billing.ErrInvalidSignature):
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
	case err != nil:
		// Stripe retries on 5xx.
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "failed to process event"})
	default:
		c.JSON(http.StatusOK, gin.H{"received": true})
	}
}
