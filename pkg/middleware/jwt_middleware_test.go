package middleware

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dbm "subtrack/internal/models/db_models"
	"subtrack/internal/services"
	"subtrack/pkg/utils"
)

type stubSessions struct {
	result *services.SessionResult
	err    error
	seen   services.SessionCredentials
}

func (s *stubSessions) Authenticate(_ context.Context, creds services.SessionCredentials) (*services.SessionResult, error) {
	s.seen = creds
	return s.result, s.err
}

func (s *stubSessions) IssuePair(*dbm.User) (*services.TokenPair, error) {
	return nil, nil
}

func guardedEngine(guard gin.HandlerFunc) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/", guard, func(c *gin.Context) {
		id, ok := UserID(c)
		c.JSON(http.StatusOK, gin.H{"authenticated": ok, "user_id": id.String()})
	})
	return r
}

func cookieNamed(rec *httptest.ResponseRecorder, name string) *http.Cookie {
	for _, ck := range rec.Result().Cookies() {
		if ck.Name == name {
			return ck
		}
	}
	return nil
}

func TestRequireSession(t *testing.T) {
	userID := uuid.New()
	identity := services.Identity{ID: userID, Email: "a@example.com", Plan: dbm.PlanFree}

	t.Run("no credentials", func(t *testing.T) {
		stub := &stubSessions{}
		r := guardedEngine(NewSessionGuard(stub, utils.CookieOptions{}).RequireSession())

		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("bearer header wins over cookie", func(t *testing.T) {
		stub := &stubSessions{result: &services.SessionResult{Identity: identity}}
		r := guardedEngine(NewSessionGuard(stub, utils.CookieOptions{}).RequireSession())

		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer header-token")
		req.AddCookie(&http.Cookie{Name: utils.AccessCookieName, Value: "cookie-token"})
		req.AddCookie(&http.Cookie{Name: utils.RefreshCookieName, Value: "refresh"})
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, req)

		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "header-token", stub.seen.Access)
		assert.Equal(t, "refresh", stub.seen.Refresh)
		assert.Contains(t, rec.Body.String(), userID.String())
		assert.Nil(t, cookieNamed(rec, utils.AccessCookieName))
	})

	t.Run("rotation sets fresh cookies", func(t *testing.T) {
		exp := time.Now().Add(time.Hour)
		stub := &stubSessions{result: &services.SessionResult{
			Identity: identity,
			Rotated: &services.TokenPair{
				AccessToken: "new-access", AccessExpiresAt: exp,
				RefreshToken: "new-refresh", RefreshExpiresAt: exp,
			},
		}}
		r := guardedEngine(NewSessionGuard(stub, utils.CookieOptions{}).RequireSession())

		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.AddCookie(&http.Cookie{Name: utils.RefreshCookieName, Value: "old-refresh"})
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, req)

		require.Equal(t, http.StatusOK, rec.Code)
		access := cookieNamed(rec, utils.AccessCookieName)
		require.NotNil(t, access)
		assert.Equal(t, "new-access", access.Value)
		assert.True(t, access.HttpOnly)
		assert.Equal(t, "new-refresh", cookieNamed(rec, utils.RefreshCookieName).Value)
	})

	t.Run("rejected session clears cookies", func(t *testing.T) {
		stub := &stubSessions{err: utils.ErrUnauthorized}
		r := guardedEngine(NewSessionGuard(stub, utils.CookieOptions{}).RequireSession())

		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.AddCookie(&http.Cookie{Name: utils.RefreshCookieName, Value: "stale"})
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		cleared := cookieNamed(rec, utils.RefreshCookieName)
		require.NotNil(t, cleared)
		assert.Empty(t, cleared.Value)
	})

	t.Run("store outage is not a logout", func(t *testing.T) {
		stub := &stubSessions{err: fmt.Errorf("find user: %w", utils.ErrStoreUnavailable)}
		r := guardedEngine(NewSessionGuard(stub, utils.CookieOptions{}).RequireSession())

		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.AddCookie(&http.Cookie{Name: utils.RefreshCookieName, Value: "fine"})
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
		assert.Nil(t, cookieNamed(rec, utils.RefreshCookieName))
	})
}

func TestOptionalSession(t *testing.T) {
	t.Run("anonymous passes", func(t *testing.T) {
		r := guardedEngine(NewSessionGuard(&stubSessions{}, utils.CookieOptions{}).OptionalSession())

		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), `"authenticated":false`)
	})

	t.Run("invalid session passes anonymously", func(t *testing.T) {
		stub := &stubSessions{err: utils.ErrUnauthorized}
		r := guardedEngine(NewSessionGuard(stub, utils.CookieOptions{}).OptionalSession())

		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.AddCookie(&http.Cookie{Name: utils.AccessCookieName, Value: "junk"})
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, req)

		require.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), `"authenticated":false`)
		assert.NotNil(t, cookieNamed(rec, utils.AccessCookieName))
	})

	t.Run("valid session is attached", func(t *testing.T) {
		id := uuid.New()
		stub := &stubSessions{result: &services.SessionResult{Identity: services.Identity{ID: id, Plan: dbm.PlanPro}}}
		r := guardedEngine(NewSessionGuard(stub, utils.CookieOptions{}).OptionalSession())

		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.AddCookie(&http.Cookie{Name: utils.AccessCookieName, Value: "good"})
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, req)

		require.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), id.String())
	})
}
