package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"subtrack/pkg/middleware"
	"subtrack/pkg/utils"
)

// currentUser returns the caller's id, answering 401 when the session guard
// did not run or found nobody.
func currentUser(c *gin.Context) (uuid.UUID, bool) {
	id, ok := middleware.UserID(c)
	if !ok {
		utils.RespondError(c, http.StatusUnauthorized, "Unauthorized")
		return uuid.Nil, false
	}
	return id, true
}

// pathID parses the :id parameter. A malformed id cannot name a record the
// caller owns, so it is reported as not found.
func pathID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.RespondError(c, http.StatusNotFound, "Not found")
		return uuid.Nil, false
	}
	return id, true
}
