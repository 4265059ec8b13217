package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"subtrack/internal/services"
	"subtrack/pkg/utils"
)

const (
	userIDKey   = "user_id"
	identityKey = "identity"
)

// SessionGuard authenticates requests from a bearer header or the session
// cookies, rotating the pair when only the refresh credential is valid.
type SessionGuard struct {
	sessions services.SessionService
	cookies  utils.CookieOptions
}

func NewSessionGuard(sessions services.SessionService, cookies utils.CookieOptions) *SessionGuard {
	return &SessionGuard{sessions: sessions, cookies: cookies}
}

// RequireSession rejects the request with 401 unless it carries a valid
// session.
func (g *SessionGuard) RequireSession() gin.HandlerFunc {
	return func(c *gin.Context) {
		creds := credentials(c)
		if creds.Access == "" && creds.Refresh == "" {
			utils.AbortWithError(c, http.StatusUnauthorized, "Unauthorized")
			return
		}

		result, err := g.sessions.Authenticate(c.Request.Context(), creds)
		if err != nil {
			if errors.Is(err, utils.ErrStoreUnavailable) {
				utils.HandleServiceError(c, err)
				c.Abort()
				return
			}
			utils.ClearSessionCookies(c, g.cookies)
			utils.AbortWithError(c, http.StatusUnauthorized, "Unauthorized")
			return
		}

		g.attach(c, result)
		c.Next()
	}
}

// OptionalSession attaches the identity when the request has a valid
// session and otherwise lets it through anonymously.
func (g *SessionGuard) OptionalSession() gin.HandlerFunc {
	return func(c *gin.Context) {
		creds := credentials(c)
		if creds.Access == "" && creds.Refresh == "" {
			c.Next()
			return
		}

		result, err := g.sessions.Authenticate(c.Request.Context(), creds)
		switch {
		case err == nil:
			g.attach(c, result)
		case errors.Is(err, utils.ErrStoreUnavailable):
			utils.LoggerFrom(c).Warn("optional session skipped", zap.Error(err))
		default:
			utils.ClearSessionCookies(c, g.cookies)
		}
		c.Next()
	}
}

func (g *SessionGuard) attach(c *gin.Context, result *services.SessionResult) {
	c.Set(userIDKey, result.Identity.ID)
	c.Set(identityKey, result.Identity)
	if p := result.Rotated; p != nil {
		utils.SetSessionCookies(c, g.cookies, p.AccessToken, p.AccessExpiresAt, p.RefreshToken, p.RefreshExpiresAt)
	}
}

func credentials(c *gin.Context) services.SessionCredentials {
	var creds services.SessionCredentials

	if h := c.GetHeader("Authorization"); strings.HasPrefix(h, "Bearer ") {
		creds.Access = strings.TrimSpace(strings.TrimPrefix(h, "Bearer "))
	}
	if creds.Access == "" {
		if v, err := c.Cookie(utils.AccessCookieName); err == nil {
			creds.Access = v
		}
	}
	if v, err := c.Cookie(utils.RefreshCookieName); err == nil {
		creds.Refresh = v
	}
	return creds
}

// UserID returns the authenticated user id set by the session guard.
func UserID(c *gin.Context) (uuid.UUID, bool) {
	v, ok := c.Get(userIDKey)
	if !ok {
		return uuid.Nil, false
	}
	id, ok := v.(uuid.UUID)
	return id, ok
}

// CurrentIdentity returns the identity set by the session guard, if any.
func CurrentIdentity(c *gin.Context) (services.Identity, bool) {
	v, ok := c.Get(identityKey)
	if !ok {
		return services.Identity{}, false
	}
	id, ok := v.(services.Identity)
	return id, ok
}
