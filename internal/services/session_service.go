package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	dbm "subtrack/internal/models/db_models"
	"subtrack/internal/repositories"
	"subtrack/pkg/memcache"
	"subtrack/pkg/metrics"
	"subtrack/pkg/utils"
)

// SessionCredentials are the raw credentials presented with a request.
// Either may be empty.
type SessionCredentials struct {
	Access  string
	Refresh string
}

type Identity struct {
	ID    uuid.UUID `json:"id"`
	Email string    `json:"email"`
	Plan  dbm.Plan  `json:"plan"`
}

// TokenPair is a freshly minted access and refresh credential. The two are
// always issued together.
type TokenPair struct {
	AccessToken      string
	AccessExpiresAt  time.Time
	RefreshToken     string
	RefreshExpiresAt time.Time
}

// SessionResult is the authenticated identity plus, when the refresh path was
// taken, the rotated credentials the transport must deliver.
type SessionResult struct {
	Identity Identity
	Rotated  *TokenPair
}

type SessionService interface {
	Authenticate(ctx context.Context, creds SessionCredentials) (*SessionResult, error)
	IssuePair(user *dbm.User) (*TokenPair, error)
}

type SessionOptions struct {
	// ReuseDetection rejects a refresh credential that was already rotated.
	ReuseDetection bool
}

type sessionService struct {
	codec    *utils.TokenCodec
	users    repositories.UserRepository
	consumed mem.ConsumedTokenStore
	opts     SessionOptions
	metrics  *metrics.Collector
	log      *zap.Logger
}

func NewSessionService(
	codec *utils.TokenCodec,
	users repositories.UserRepository,
	consumed mem.ConsumedTokenStore,
	opts SessionOptions,
	m *metrics.Collector,
	log *zap.Logger,
) SessionService {
	return &sessionService{
		codec:    codec,
		users:    users,
		consumed: consumed,
		opts:     opts,
		metrics:  m,
		log:      log.Named("session"),
	}
}

func (s *sessionService) Authenticate(ctx context.Context, creds SessionCredentials) (*SessionResult, error) {
	if creds.Access != "" {
		if v, err := s.codec.VerifyAccess(creds.Access); err == nil {
			return &SessionResult{Identity: identityFromClaims(v.SessionClaims)}, nil
		}
	}

	if creds.Refresh == "" {
		return nil, utils.ErrUnauthorized
	}

	v, err := s.codec.VerifyRefresh(creds.Refresh)
	if err != nil {
		s.metrics.SessionRefresh("invalid")
		return nil, fmt.Errorf("%w: %w", utils.ErrUnauthorized, err)
	}
	if s.opts.ReuseDetection && s.consumed.Seen(v.TokenID) {
		s.metrics.SessionRefresh("reused")
		s.log.Warn("refresh credential reused", zap.String("user_id", v.UserID.String()))
		return nil, fmt.Errorf("%w: refresh credential already used", utils.ErrUnauthorized)
	}

	user, err := s.users.FindById(ctx, v.UserID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		s.metrics.SessionRefresh("unknown_user")
		return nil, fmt.Errorf("%w: user no longer exists", utils.ErrUnauthorized)
	}

	if s.opts.ReuseDetection && !s.consumed.Consume(v.TokenID, v.ExpiresAt) {
		s.metrics.SessionRefresh("reused")
		return nil, fmt.Errorf("%w: refresh credential already used", utils.ErrUnauthorized)
	}

	// Bind the new pair to the stored plan, not the one in the old claim.
	pair, err := s.IssuePair(user)
	if err != nil {
		return nil, err
	}
	s.metrics.SessionRefresh("rotated")

	return &SessionResult{
		Identity: Identity{ID: user.ID, Email: user.Email, Plan: user.Plan},
		Rotated:  pair,
	}, nil
}

func (s *sessionService) IssuePair(user *dbm.User) (*TokenPair, error) {
	if user == nil {
		return nil, errors.New("issue session: nil user")
	}
	claims := utils.SessionClaims{UserID: user.ID, Email: user.Email, Plan: user.Plan}

	access, accessExp, err := s.codec.IssueAccess(claims)
	if err != nil {
		return nil, err
	}
	refresh, refreshExp, err := s.codec.IssueRefresh(claims)
	if err != nil {
		return nil, err
	}
	return &TokenPair{
		AccessToken:      access,
		AccessExpiresAt:  accessExp,
		RefreshToken:     refresh,
		RefreshExpiresAt: refreshExp,
	}, nil
}

func identityFromClaims(c utils.SessionClaims) Identity {
	return Identity{ID: c.UserID, Email: c.Email, Plan: c.Plan}
}
