package utils

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	dbm "subtrack/internal/models/db_models"
)

const (
	DefaultAccessTTL  = 15 * time.Minute
	DefaultRefreshTTL = 7 * 24 * time.Hour

	tokenTypeAccess  = "access"
	tokenTypeRefresh = "refresh"
)

// SessionClaims is the closed set of identity fields a credential carries.
type SessionClaims struct {
	UserID uuid.UUID
	Email  string
	Plan   dbm.Plan
}

// VerifiedToken is what a successful verification yields: the claims plus the
// token id and expiry, never a partially validated payload.
type VerifiedToken struct {
	SessionClaims
	TokenID   string
	ExpiresAt time.Time
}

type Claims struct {
	jwt.RegisteredClaims
	Email string `json:"email"`
	Plan  string `json:"plan"`
	Type  string `json:"typ"`
}

type TokenCodecConfig struct {
	AccessSecret  []byte
	RefreshSecret []byte
	AccessTTL     time.Duration
	RefreshTTL    time.Duration
}

// TokenCodec signs and verifies access and refresh credentials with two
// independent HMAC secrets.
type TokenCodec struct {
	cfg TokenCodecConfig
	now func() time.Time
}

func NewTokenCodec(cfg TokenCodecConfig) (*TokenCodec, error) {
	if len(cfg.AccessSecret) == 0 || len(cfg.RefreshSecret) == 0 {
		return nil, errors.New("token codec: access and refresh secrets are required")
	}
	if cfg.AccessTTL <= 0 {
		cfg.AccessTTL = DefaultAccessTTL
	}
	if cfg.RefreshTTL <= 0 {
		cfg.RefreshTTL = DefaultRefreshTTL
	}
	return &TokenCodec{cfg: cfg, now: time.Now}, nil
}

// WithClock returns a copy of the codec that reads time from now.
func (c *TokenCodec) WithClock(now func() time.Time) *TokenCodec {
	cp := *c
	cp.now = now
	return &cp
}

func (c *TokenCodec) AccessTTL() time.Duration  { return c.cfg.AccessTTL }
func (c *TokenCodec) RefreshTTL() time.Duration { return c.cfg.RefreshTTL }

func (c *TokenCodec) IssueAccess(claims SessionClaims) (string, time.Time, error) {
	return c.issue(claims, tokenTypeAccess, c.cfg.AccessSecret, c.cfg.AccessTTL)
}

func (c *TokenCodec) IssueRefresh(claims SessionClaims) (string, time.Time, error) {
	return c.issue(claims, tokenTypeRefresh, c.cfg.RefreshSecret, c.cfg.RefreshTTL)
}

func (c *TokenCodec) VerifyAccess(token string) (*VerifiedToken, error) {
	return c.verify(token, tokenTypeAccess, c.cfg.AccessSecret)
}

func (c *TokenCodec) VerifyRefresh(token string) (*VerifiedToken, error) {
	return c.verify(token, tokenTypeRefresh, c.cfg.RefreshSecret)
}

func (c *TokenCodec) issue(claims SessionClaims, typ string, secret []byte, ttl time.Duration) (string, time.Time, error) {
	if claims.UserID == uuid.Nil {
		return "", time.Time{}, fmt.Errorf("issue %s token: missing user id", typ)
	}
	now := c.now()
	expiresAt := now.Add(ttl)
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   claims.UserID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
		Email: claims.Email,
		Plan:  string(claims.Plan),
		Type:  typ,
	})
	signed, err := token.SignedString(secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign %s token: %w", typ, err)
	}
	return signed, expiresAt, nil
}

func (c *TokenCodec) verify(tokenString, typ string, secret []byte) (*VerifiedToken, error) {
	if tokenString == "" {
		return nil, ErrInvalidToken
	}
	claims := &Claims{}
	_, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		return secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(c.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, ErrInvalidToken
	}
	if claims.Type != typ || claims.ID == "" {
		return nil, ErrInvalidToken
	}

	userID, err := uuid.Parse(claims.Subject)
	if err != nil || userID == uuid.Nil {
		return nil, ErrInvalidToken
	}
	plan, err := dbm.ParsePlan(claims.Plan)
	if err != nil {
		return nil, ErrInvalidToken
	}
	if claims.Email == "" {
		return nil, ErrInvalidToken
	}

	return &VerifiedToken{
		SessionClaims: SessionClaims{UserID: userID, Email: claims.Email, Plan: plan},
		TokenID:       claims.ID,
		ExpiresAt:     claims.ExpiresAt.Time,
	}, nil
}
