package controllers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"subtrack/internal/models/request_models"
	"subtrack/internal/models/response_models"
	"subtrack/internal/services"
	"subtrack/pkg/utils"
)

type SubscriptionController struct {
	subscriptionService services.SubscriptionServiceInterface
}

func NewSubscriptionController(subscriptionService services.SubscriptionServiceInterface) *SubscriptionController {
	return &SubscriptionController{subscriptionService: subscriptionService}
}

// ListSubscriptions godoc
// @Summary List subscriptions
// @Description Active (not deleted) subscriptions ordered by next renewal
// @Tags Subscriptions
// @Produce json
// @Success 200 {object} utils.APIResponse
// @Security BearerAuth
// @Router /subscriptions [get]
func (s *SubscriptionController) ListSubscriptions(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	subs, err := s.subscriptionService.List(c.Request.Context(), userID)
	if err != nil {
		utils.HandleServiceError(c, err)
		return
	}
	utils.RespondSuccess(c, response_models.NewSubscriptionList(subs), "Subscriptions fetched successfully")
}

// GetSubscription godoc
// @Summary Get a subscription
// @Tags Subscriptions
// @Produce json
// @Param id path string true "Subscription ID"
// @Success 200 {object} utils.APIResponse
// @Failure 404 {object} utils.APIResponse
// @Security BearerAuth
// @Router /subscriptions/{id} [get]
func (s *SubscriptionController) GetSubscription(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	id, ok := pathID(c)
	if !ok {
		return
	}
	sub, err := s.subscriptionService.Get(c.Request.Context(), userID, id)
	if err != nil {
		utils.HandleServiceError(c, err)
		return
	}
	utils.RespondSuccess(c, response_models.NewSubscriptionResponse(sub), "")
}

// ListCharges godoc
// @Summary Charges of a subscription
// @Tags Subscriptions
// @Produce json
// @Param id path string true "Subscription ID"
// @Success 200 {object} utils.APIResponse
// @Security BearerAuth
// @Router /subscriptions/{id}/charges [get]
func (s *SubscriptionController) ListCharges(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	id, ok := pathID(c)
	if !ok {
		return
	}
	charges, err := s.subscriptionService.Charges(c.Request.Context(), userID, id)
	if err != nil {
		utils.HandleServiceError(c, err)
		return
	}
	utils.RespondSuccess(c, response_models.NewChargeList(charges), "")
}

// CreateSubscription godoc
// @Summary Add a subscription manually
// @Tags Subscriptions
// @Accept json
// @Produce json
// @Param request body request_models.CreateSubscriptionRequest true "Manual charge"
// @Success 201 {object} utils.APIResponse
// @Failure 402 {object} utils.APIResponse
// @Security BearerAuth
// @Router /subscriptions [post]
func (s *SubscriptionController) CreateSubscription(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	var req request_models.CreateSubscriptionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, "Invalid request format")
		return
	}

	result, err := s.subscriptionService.Create(c.Request.Context(), userID, req)
	if err != nil {
		utils.HandleServiceError(c, err)
		return
	}
	utils.RespondStatus(c, http.StatusCreated, reconcileResponse(result), "Subscription recorded")
}

// UpdateSubscription godoc
// @Summary Edit a subscription
// @Description Change category, status or billing cycle
// @Tags Subscriptions
// @Accept json
// @Produce json
// @Param id path string true "Subscription ID"
// @Param request body request_models.UpdateSubscriptionRequest true "Fields to change"
// @Success 200 {object} utils.APIResponse
// @Security BearerAuth
// @Router /subscriptions/{id} [patch]
func (s *SubscriptionController) UpdateSubscription(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	id, ok := pathID(c)
	if !ok {
		return
	}
	var req request_models.UpdateSubscriptionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, "Invalid request format")
		return
	}

	sub, err := s.subscriptionService.Update(c.Request.Context(), userID, id, req)
	if err != nil {
		utils.HandleServiceError(c, err)
		return
	}
	utils.RespondSuccess(c, response_models.NewSubscriptionResponse(sub), "Subscription updated")
}

// DeleteSubscription godoc
// @Summary Cancel tracking of a subscription
// @Description Soft-deletes; the record can be restored
// @Tags Subscriptions
// @Param id path string true "Subscription ID"
// @Success 200 {object} utils.APIResponse
// @Failure 409 {object} utils.APIResponse
// @Security BearerAuth
// @Router /subscriptions/{id} [delete]
func (s *SubscriptionController) DeleteSubscription(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	id, ok := pathID(c)
	if !ok {
		return
	}
	if err := s.subscriptionService.Delete(c.Request.Context(), userID, id); err != nil {
		utils.HandleServiceError(c, err)
		return
	}
	utils.RespondSuccess(c, nil, "Subscription deleted")
}

// RestoreSubscription godoc
// @Summary Restore a deleted subscription
// @Tags Subscriptions
// @Param id path string true "Subscription ID"
// @Success 200 {object} utils.APIResponse
// @Failure 409 {object} utils.APIResponse
// @Security BearerAuth
// @Router /subscriptions/{id}/restore [post]
func (s *SubscriptionController) RestoreSubscription(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	id, ok := pathID(c)
	if !ok {
		return
	}
	sub, err := s.subscriptionService.Restore(c.Request.Context(), userID, id)
	if err != nil {
		utils.HandleServiceError(c, err)
		return
	}
	utils.RespondSuccess(c, response_models.NewSubscriptionResponse(sub), "Subscription restored")
}

// Summary godoc
// @Summary Monthly spend per currency
// @Tags Subscriptions
// @Produce json
// @Success 200 {object} utils.APIResponse
// @Security BearerAuth
// @Router /subscriptions/summary [get]
func (s *SubscriptionController) Summary(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	summary, err := s.subscriptionService.Summary(c.Request.Context(), userID)
	if err != nil {
		utils.HandleServiceError(c, err)
		return
	}
	utils.RespondSuccess(c, summary, "")
}

// Upcoming godoc
// @Summary Renewals due soon
// @Tags Subscriptions
// @Produce json
// @Param days query int false "Window in days (1-365, default 30)"
// @Success 200 {object} utils.APIResponse
// @Security BearerAuth
// @Router /subscriptions/upcoming [get]
func (s *SubscriptionController) Upcoming(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	days, err := strconv.Atoi(c.DefaultQuery("days", strconv.Itoa(services.DefaultUpcomingDays)))
	if err != nil {
		utils.RespondError(c, http.StatusBadRequest, "days must be a number")
		return
	}

	subs, err := s.subscriptionService.Upcoming(c.Request.Context(), userID, days)
	if err != nil {
		utils.HandleServiceError(c, err)
		return
	}
	utils.RespondSuccess(c, response_models.NewSubscriptionList(subs), "")
}

func reconcileResponse(r *services.ReconcileResult) response_models.ReconcileResponse {
	resp := response_models.ReconcileResponse{
		Outcome: string(r.Outcome),
		Charge:  response_models.NewChargeResponse(r.Charge),
	}
	if r.Subscription != nil {
		sub := response_models.NewSubscriptionResponse(r.Subscription)
		resp.Subscription = &sub
	}
	return resp
}
