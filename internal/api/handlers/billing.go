package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/havenhq/haven/internal/billing"
)

// BillingHandler serves subscription status, Checkout and the Billing Portal
type BillingHandler struct {
	base
	svc *billing.Service
}

// NewBillingHandler creates a new BillingHandler
func NewBillingHandler(svc *billing.Service, opts Options) *BillingHandler {
	return &BillingHandler{base: newBase(opts), svc: svc}
}

// URLResponse carries a redirect target.
type URLResponse struct {
	URL string `json:"url"`
}

// Status godoc
// @Summary Get the organization's subscription
// @Tags billing
// @Security BearerAuth
// @Produce json
// @Success 200 {object} billing.Status
// @Failure 403 {object} ErrorResponse
// @Router /billing [get]
func (h *BillingHandler) Status(c *gin.Context) {
	orgID, _, ok := tenant(c)
	if !ok {
		return
	}
	status, err := h.svc.Status(orgID)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, status)
}

// Checkout godoc
// @Summary Start a Stripe Checkout session
// @Tags billing
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param checkout body billing.CheckoutInput true "Tier"
// @Success 200 {object} URLResponse
// @Failure 400 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Failure 503 {object} ErrorResponse
// @Router /billing/checkout [post]
func (h *BillingHandler) Checkout(c *gin.Context) {
	orgID, actor, ok := tenant(c)
	if !ok {
		return
	}
	var in billing.CheckoutInput
	if !bindJSON(c, &in) {
		return
	}
	url, err := h.svc.Checkout(c.Request.Context(), orgID, in, actor)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, URLResponse{URL: url})
}

// Portal godoc
// @Summary Open the Stripe Billing Portal
// @Tags billing
// @Security BearerAuth
// @Produce json
// @Success 200 {object} URLResponse
// @Failure 400 {object} ErrorResponse
// @Failure 503 {object} ErrorResponse
// @Router /billing/portal [post]
func (h *BillingHandler) Portal(c *gin.Context) {
	orgID, actor, ok := tenant(c)
	if !ok {
		return
	}
	url, err := h.svc.Portal(c.Request.Context(), orgID, actor)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, URLResponse{URL: url})
}

// Invoices godoc
// @Summary List stored invoices
// @Tags billing
// @Security BearerAuth
// @Produce json
// @Success 200 {array} models.Invoice
// @Router /billing/invoices [get]
func (h *BillingHandler) Invoices(c *gin.Context) {
	orgID, _, ok := tenant(c)
	if !ok {
		return
	}
	invoices, err := h.svc.Invoices(orgID)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, invoices)
}
