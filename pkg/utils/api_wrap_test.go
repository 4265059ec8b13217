package utils

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHandleServiceError(t *testing.T) {
	gin.SetMode(gin.TestMode)

	cases := []struct {
		name    string
		err     error
		code    int
		message string
	}{
		{"not found", fmt.Errorf("subscription x: %w", ErrNotFound), http.StatusNotFound, "Not found"},
		{"invalid state", ErrInvalidState, http.StatusConflict, ""},
		{"plan limit", ErrPlanLimitReached, http.StatusPaymentRequired, ""},
		{"store down", fmt.Errorf("find user: %w: dial tcp", ErrStoreUnavailable), http.StatusServiceUnavailable, "Service temporarily unavailable"},
		{"database error", fmt.Errorf("insert charge: %w: no such column secret_col", ErrDatabaseError), http.StatusInternalServerError, "Internal server error"},
		{"unknown", fmt.Errorf("boom"), http.StatusInternalServerError, "Internal server error"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(rec)
			HandleServiceError(c, tc.err)

			assert.Equal(t, tc.code, rec.Code)
			var body APIResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.Equal(t, "error", body.Status)
			if tc.message != "" {
				assert.Equal(t, tc.message, body.Message)
			}
			assert.NotContains(t, rec.Body.String(), "secret_col")
		})
	}
}
