package services

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	dbm "subtrack/internal/models/db_models"
	"subtrack/internal/repositories"
	mem "subtrack/pkg/memcache"
	"subtrack/pkg/metrics"
	"subtrack/pkg/utils"
)

// stubUsers serves FindById from a map and counts lookups.
type stubUsers struct {
	repositories.UserRepository
	users   map[uuid.UUID]*dbm.User
	err     error
	lookups int
}

func (s *stubUsers) FindById(_ context.Context, id uuid.UUID) (*dbm.User, error) {
	s.lookups++
	if s.err != nil {
		return nil, s.err
	}
	return s.users[id], nil
}

func newCodec(t *testing.T) *utils.TokenCodec {
	t.Helper()
	c, err := utils.NewTokenCodec(utils.TokenCodecConfig{
		AccessSecret:  []byte("access-secret"),
		RefreshSecret: []byte("refresh-secret"),
	})
	require.NoError(t, err)
	return c
}

func sessionUser(plan dbm.Plan) *dbm.User {
	return &dbm.User{BaseModel: dbm.BaseModel{ID: uuid.New()}, Email: "ana@example.com", Plan: plan}
}

func issuePast(t *testing.T, codec *utils.TokenCodec, u *dbm.User, ago time.Duration) (string, string) {
	t.Helper()
	past := codec.WithClock(func() time.Time { return time.Now().Add(-ago) })
	claims := utils.SessionClaims{UserID: u.ID, Email: u.Email, Plan: u.Plan}
	access, _, err := past.IssueAccess(claims)
	require.NoError(t, err)
	refresh, _, err := past.IssueRefresh(claims)
	require.NoError(t, err)
	return access, refresh
}

func TestSession_ValidAccessSkipsStore(t *testing.T) {
	codec := newCodec(t)
	u := sessionUser(dbm.PlanFree)
	users := &stubUsers{users: map[uuid.UUID]*dbm.User{u.ID: u}}
	svc := NewSessionService(codec, users, mem.NewConsumedTokens(), SessionOptions{}, metrics.NewCollector(), zap.NewNop())

	pair, err := svc.IssuePair(u)
	require.NoError(t, err)

	res, err := svc.Authenticate(context.Background(), SessionCredentials{Access: pair.AccessToken, Refresh: pair.RefreshToken})
	require.NoError(t, err)
	assert.Equal(t, u.ID, res.Identity.ID)
	assert.Nil(t, res.Rotated)
	assert.Zero(t, users.lookups)
}

func TestSession_ExpiredAccessRotatesFromStoredPlan(t *testing.T) {
	codec := newCodec(t)
	u := sessionUser(dbm.PlanFree)
	access, refresh := issuePast(t, codec, u, time.Hour)

	// Upgraded after the old pair was issued.
	stored := *u
	stored.Plan = dbm.PlanPremium
	users := &stubUsers{users: map[uuid.UUID]*dbm.User{u.ID: &stored}}
	m := metrics.NewCollector()
	svc := NewSessionService(codec, users, mem.NewConsumedTokens(), SessionOptions{}, m, zap.NewNop())

	res, err := svc.Authenticate(context.Background(), SessionCredentials{Access: access, Refresh: refresh})
	require.NoError(t, err)
	require.NotNil(t, res.Rotated)
	assert.Equal(t, dbm.PlanPremium, res.Identity.Plan)

	v, err := codec.VerifyAccess(res.Rotated.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, dbm.PlanPremium, v.Plan)
	_, err = codec.VerifyRefresh(res.Rotated.RefreshToken)
	require.NoError(t, err)
	assert.True(t, res.Rotated.RefreshExpiresAt.After(res.Rotated.AccessExpiresAt))
	assert.Equal(t, 1, users.lookups)
}

func TestSession_Rejections(t *testing.T) {
	codec := newCodec(t)
	u := sessionUser(dbm.PlanFree)
	good := &stubUsers{users: map[uuid.UUID]*dbm.User{u.ID: u}}

	svc := NewSessionService(codec, good, mem.NewConsumedTokens(), SessionOptions{}, nil, zap.NewNop())
	pair, err := svc.IssuePair(u)
	require.NoError(t, err)

	_, expiredRefresh := issuePast(t, codec, u, 8*24*time.Hour)

	cases := map[string]SessionCredentials{
		"nothing":                     {},
		"garbage":                     {Access: "nope", Refresh: "nope"},
		"refresh presented as access": {Access: pair.RefreshToken},
		"access presented as refresh": {Refresh: pair.AccessToken},
		"expired refresh":             {Refresh: expiredRefresh},
	}
	for name, creds := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := svc.Authenticate(context.Background(), creds)
			assert.ErrorIs(t, err, utils.ErrUnauthorized)
		})
	}

	t.Run("user gone", func(t *testing.T) {
		empty := &stubUsers{users: map[uuid.UUID]*dbm.User{}}
		svc := NewSessionService(codec, empty, mem.NewConsumedTokens(), SessionOptions{}, nil, zap.NewNop())
		_, err := svc.Authenticate(context.Background(), SessionCredentials{Refresh: pair.RefreshToken})
		assert.ErrorIs(t, err, utils.ErrUnauthorized)
	})

	t.Run("store down", func(t *testing.T) {
		down := &stubUsers{err: fmt.Errorf("find user: %w", utils.ErrStoreUnavailable)}
		svc := NewSessionService(codec, down, mem.NewConsumedTokens(), SessionOptions{}, nil, zap.NewNop())
		_, err := svc.Authenticate(context.Background(), SessionCredentials{Refresh: pair.RefreshToken})
		assert.ErrorIs(t, err, utils.ErrStoreUnavailable)
		assert.NotErrorIs(t, err, utils.ErrUnauthorized)
	})
}

func TestSession_RefreshReuse(t *testing.T) {
	codec := newCodec(t)
	u := sessionUser(dbm.PlanPro)
	users := &stubUsers{users: map[uuid.UUID]*dbm.User{u.ID: u}}
	_, refresh := issuePast(t, codec, u, time.Hour)

	t.Run("allowed by default", func(t *testing.T) {
		svc := NewSessionService(codec, users, mem.NewConsumedTokens(), SessionOptions{}, nil, zap.NewNop())
		for i := 0; i < 2; i++ {
			res, err := svc.Authenticate(context.Background(), SessionCredentials{Refresh: refresh})
			require.NoError(t, err)
			assert.NotNil(t, res.Rotated)
		}
	})

	t.Run("rejected with detection on", func(t *testing.T) {
		svc := NewSessionService(codec, users, mem.NewConsumedTokens(), SessionOptions{ReuseDetection: true}, nil, zap.NewNop())
		_, err := svc.Authenticate(context.Background(), SessionCredentials{Refresh: refresh})
		require.NoError(t, err)
		_, err = svc.Authenticate(context.Background(), SessionCredentials{Refresh: refresh})
		assert.ErrorIs(t, err, utils.ErrUnauthorized)
	})
}
