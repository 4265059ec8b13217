package controllers

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"subtrack/internal/models/request_models"
	"subtrack/internal/models/response_models"
	"subtrack/internal/services"
	"subtrack/pkg/utils"
)

// maxWebhookBytes bounds the webhook body read before signature checks.
const maxWebhookBytes = 1 << 16

type PaymentController struct {
	paymentService services.PaymentService
}

func NewPaymentController(paymentService services.PaymentService) *PaymentController {
	return &PaymentController{
		paymentService: paymentService,
	}
}

// CreateCheckoutRequest godoc
// @Summary Create a checkout session for a paid plan
// @Tags Billing
// @Accept json
// @Produce json
// @Param request body request_models.CreateCheckoutRequest true "Plan to buy"
// @Success 200 {object} utils.APIResponse
// @Failure 503 {object} utils.APIResponse
// @Security BearerAuth
// @Router /billing/checkout [post]
func (p *PaymentController) CreateCheckoutRequest(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	var request request_models.CreateCheckoutRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		utils.RespondError(c, http.StatusBadRequest, "Invalid request payload")
		return
	}

	checkoutURL, err := p.paymentService.CreateCheckoutForPlan(c.Request.Context(), userID, request.Plan)
	if err != nil {
		utils.HandleServiceError(c, err)
		return
	}

	utils.RespondSuccess(c, response_models.CreateCheckoutResponse{URL: checkoutURL}, "Checkout URL created successfully")
}

// CreatePortalSession godoc
// @Summary Open the billing portal
// @Tags Billing
// @Produce json
// @Success 200 {object} utils.APIResponse
// @Failure 409 {object} utils.APIResponse
// @Security BearerAuth
// @Router /billing/portal [post]
func (p *PaymentController) CreatePortalSession(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	portalURL, err := p.paymentService.CreatePortalSession(c.Request.Context(), userID)
	if err != nil {
		utils.HandleServiceError(c, err)
		return
	}
	utils.RespondSuccess(c, response_models.CreateCheckoutResponse{URL: portalURL}, "")
}

// GetStatus godoc
// @Summary Current plan
// @Tags Billing
// @Produce json
// @Success 200 {object} utils.APIResponse
// @Security BearerAuth
// @Router /billing/status [get]
func (p *PaymentController) GetStatus(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	status, err := p.paymentService.Status(c.Request.Context(), userID)
	if err != nil {
		utils.HandleServiceError(c, err)
		return
	}
	utils.RespondSuccess(c, status, "")
}

// HandleWebhook godoc
// @Summary Payment provider webhook
// @Tags Billing
// @Accept json
// @Success 200 {object} utils.APIResponse
// @Failure 400 {object} utils.APIResponse
// @Router /billing/webhook [post]
func (p *PaymentController) HandleWebhook(c *gin.Context) {
	payload, err := io.ReadAll(io.LimitReader(c.Request.Body, maxWebhookBytes))
	if err != nil {
		utils.RespondError(c, http.StatusBadRequest, "Failed to read request body")
		return
	}

	if err := p.paymentService.HandleWebhook(c.Request.Context(), payload, c.GetHeader("Stripe-Signature")); err != nil {
		utils.HandleServiceError(c, err)
		return
	}
	utils.RespondSuccess(c, nil, "")
}
