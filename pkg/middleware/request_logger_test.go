package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func TestMetricsAuth(t *testing.T) {
	gin.SetMode(gin.TestMode)
	serve := func(token, header string) int {
		r := gin.New()
		r.GET("/metrics", MetricsAuth(token), func(c *gin.Context) { c.Status(http.StatusOK) })
		req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
		if header != "" {
			req.Header.Set("Authorization", header)
		}
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, req)
		return rec.Code
	}

	assert.Equal(t, http.StatusNotFound, serve("", "Bearer anything"))
	assert.Equal(t, http.StatusUnauthorized, serve("s3cret", ""))
	assert.Equal(t, http.StatusUnauthorized, serve("s3cret", "Bearer s3cre"))
	assert.Equal(t, http.StatusUnauthorized, serve("s3cret", "s3cret"))
	assert.Equal(t, http.StatusOK, serve("s3cret", "Bearer s3cret"))
}
