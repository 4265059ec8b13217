package controllers

import (
	"github.com/gin-gonic/gin"

	"subtrack/internal/models/response_models"
	"subtrack/internal/services"
	"subtrack/pkg/utils"
)

type SuggestionController struct {
	suggestionService services.SuggestionService
}

func NewSuggestionController(suggestionService services.SuggestionService) *SuggestionController {
	return &SuggestionController{suggestionService: suggestionService}
}

// ListSuggestions godoc
// @Summary Pending suggestions
// @Tags Suggestions
// @Produce json
// @Success 200 {object} utils.APIResponse
// @Security BearerAuth
// @Router /suggestions [get]
func (s *SuggestionController) ListSuggestions(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	pending, err := s.suggestionService.ListPending(c.Request.Context(), userID)
	if err != nil {
		utils.HandleServiceError(c, err)
		return
	}
	utils.RespondSuccess(c, response_models.NewSuggestionList(pending), "")
}

// AcceptSuggestion godoc
// @Summary Accept a suggestion
// @Description Promotes the suggestion into the ledger
// @Tags Suggestions
// @Produce json
// @Param id path string true "Suggestion ID"
// @Success 200 {object} utils.APIResponse
// @Failure 404 {object} utils.APIResponse
// @Failure 409 {object} utils.APIResponse
// @Security BearerAuth
// @Router /suggestions/{id}/accept [post]
func (s *SuggestionController) AcceptSuggestion(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	id, ok := pathID(c)
	if !ok {
		return
	}
	result, err := s.suggestionService.Accept(c.Request.Context(), userID, id)
	if err != nil {
		utils.HandleServiceError(c, err)
		return
	}
	utils.RespondSuccess(c, reconcileResponse(result), "Suggestion accepted")
}

// IgnoreSuggestion godoc
// @Summary Ignore a suggestion
// @Description Also stops future suggestions from the same sender
// @Tags Suggestions
// @Param id path string true "Suggestion ID"
// @Success 200 {object} utils.APIResponse
// @Failure 409 {object} utils.APIResponse
// @Security BearerAuth
// @Router /suggestions/{id}/ignore [post]
func (s *SuggestionController) IgnoreSuggestion(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	id, ok := pathID(c)
	if !ok {
		return
	}
	if err := s.suggestionService.Ignore(c.Request.Context(), userID, id); err != nil {
		utils.HandleServiceError(c, err)
		return
	}
	utils.RespondSuccess(c, nil, "Suggestion ignored")
}

// ListIgnoredSenders godoc
// @Summary Ignored senders
// @Tags Suggestions
// @Produce json
// @Success 200 {object} utils.APIResponse
// @Security BearerAuth
// @Router /ignored-senders [get]
func (s *SuggestionController) ListIgnoredSenders(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	senders, err := s.suggestionService.ListIgnoredSenders(c.Request.Context(), userID)
	if err != nil {
		utils.HandleServiceError(c, err)
		return
	}
	utils.RespondSuccess(c, response_models.NewIgnoredSenderList(senders), "")
}
