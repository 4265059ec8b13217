package controllers

import (
	"net/http"
	"slices"

	"github.com/gin-gonic/gin"

	"subtrack/internal/models/request_models"
	"subtrack/internal/services"
	"subtrack/pkg/utils"
)

type IngestController struct {
	ingestService services.IngestService
}

func NewIngestController(ingestService services.IngestService) *IngestController {
	return &IngestController{ingestService: ingestService}
}

// Ingest godoc
// @Summary Ingest classified charge records
// @Description Routes each record into the ledger or the suggestion queue
// @Tags Ingest
// @Accept json
// @Produce json
// @Param request body request_models.IngestRequest true "Batch of records"
// @Success 200 {object} utils.APIResponse
// @Security BearerAuth
// @Router /ingest [post]
func (i *IngestController) Ingest(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	var req request_models.IngestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, "Invalid request format")
		return
	}

	summary, err := i.ingestService.Ingest(c.Request.Context(), userID, slices.Values(req.Records))
	if err != nil {
		utils.HandleServiceError(c, err)
		return
	}
	utils.RespondSuccess(c, summary, "Records ingested")
}
