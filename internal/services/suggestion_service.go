package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	dbm "subtrack/internal/models/db_models"
	"subtrack/internal/models/request_models"
	"subtrack/internal/repositories"
	"subtrack/pkg/metrics"
	"subtrack/pkg/utils"
)

type SuggestionService interface {
	// Create records a pending suggestion unless the sender is ignored or
	// the source message was already suggested. It reports whether a new
	// suggestion was written.
	Create(ctx context.Context, userID uuid.UUID, rec request_models.ChargeRecord) (bool, error)
	Accept(ctx context.Context, userID, id uuid.UUID) (*ReconcileResult, error)
	Ignore(ctx context.Context, userID, id uuid.UUID) error
	ListPending(ctx context.Context, userID uuid.UUID) ([]dbm.PendingSubscriptionSuggestion, error)
	ListIgnoredSenders(ctx context.Context, userID uuid.UUID) ([]dbm.IgnoredSender, error)
}

type suggestionService struct {
	suggestions repositories.SuggestionRepository
	ignored     repositories.IgnoredSenderRepository
	reconciler  LedgerReconciler
	metrics     *metrics.Collector
	log         *zap.Logger
	now         func() time.Time
}

func NewSuggestionService(
	suggestions repositories.SuggestionRepository,
	ignored repositories.IgnoredSenderRepository,
	reconciler LedgerReconciler,
	m *metrics.Collector,
	log *zap.Logger,
) SuggestionService {
	return &suggestionService{
		suggestions: suggestions,
		ignored:     ignored,
		reconciler:  reconciler,
		metrics:     m,
		log:         log.Named("suggestions"),
		now:         func() time.Time { return time.Now().UTC() },
	}
}

func (s *suggestionService) Create(ctx context.Context, userID uuid.UUID, rec request_models.ChargeRecord) (bool, error) {
	rec, err := rec.Normalize()
	if err != nil {
		return false, err
	}

	if rec.SenderAddress != "" {
		ignored, err := s.ignored.Exists(ctx, userID, rec.SenderAddress)
		if err != nil {
			return false, err
		}
		if ignored {
			return false, nil
		}
	}

	return s.suggestions.InsertIfAbsent(ctx, &dbm.PendingSubscriptionSuggestion{
		UserID:          userID,
		SourceMessageID: rec.SourceMessageID,
		SenderAddress:   rec.SenderAddress,
		Subject:         rec.Subject,
		Service:         rec.Service,
		Amount:          rec.Amount,
		Currency:        rec.Currency,
		BillingCycle:    rec.BillingCycle,
		Kind:            rec.Kind,
		ChargedAt:       rec.ChargedAt,
		PaymentFailed:   rec.PaymentFailed,
		Status:          dbm.SuggestionPending,
	})
}

func (s *suggestionService) Accept(ctx context.Context, userID, id uuid.UUID) (*ReconcileResult, error) {
	var result *ReconcileResult
	err := s.reconciler.RunInTx(ctx, func(tx *gorm.DB) error {
		repo := s.suggestions.WithTx(tx)
		sg, err := s.decidable(ctx, repo, userID, id)
		if err != nil {
			return err
		}

		rec, err := recordFromSuggestion(sg).Normalize()
		if err != nil {
			return err
		}

		ok, err := repo.Transition(ctx, userID, id, dbm.SuggestionPending, dbm.SuggestionAccepted, s.now())
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("suggestion %s: %w", id, utils.ErrInvalidState)
		}

		result, err = s.reconciler.ReconcileTx(ctx, tx, userID, rec)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.metrics.SuggestionDecision("accepted")
	s.metrics.ReconcileOutcome(string(result.Outcome))
	s.log.Info("suggestion accepted",
		zap.String("user_id", userID.String()),
		zap.String("suggestion_id", id.String()),
		zap.String("outcome", string(result.Outcome)))
	return result, nil
}

func (s *suggestionService) Ignore(ctx context.Context, userID, id uuid.UUID) error {
	err := s.reconciler.RunInTx(ctx, func(tx *gorm.DB) error {
		repo := s.suggestions.WithTx(tx)
		sg, err := s.decidable(ctx, repo, userID, id)
		if err != nil {
			return err
		}

		ok, err := repo.Transition(ctx, userID, id, dbm.SuggestionPending, dbm.SuggestionIgnored, s.now())
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("suggestion %s: %w", id, utils.ErrInvalidState)
		}

		if sg.SenderAddress == "" {
			return nil
		}
		return s.ignored.WithTx(tx).Add(ctx, userID, request_models.NormalizeSender(sg.SenderAddress))
	})
	if err != nil {
		return err
	}

	s.metrics.SuggestionDecision("ignored")
	return nil
}

// decidable loads a suggestion owned by userID that is still pending.
func (s *suggestionService) decidable(ctx context.Context, repo repositories.SuggestionRepository, userID, id uuid.UUID) (*dbm.PendingSubscriptionSuggestion, error) {
	sg, err := repo.FindByID(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	if sg == nil {
		return nil, fmt.Errorf("suggestion %s: %w", id, utils.ErrNotFound)
	}
	if sg.Status != dbm.SuggestionPending {
		return nil, fmt.Errorf("suggestion %s is %s: %w", id, sg.Status, utils.ErrInvalidState)
	}
	return sg, nil
}

func (s *suggestionService) ListPending(ctx context.Context, userID uuid.UUID) ([]dbm.PendingSubscriptionSuggestion, error) {
	return s.suggestions.ListPending(ctx, userID)
}

func (s *suggestionService) ListIgnoredSenders(ctx context.Context, userID uuid.UUID) ([]dbm.IgnoredSender, error) {
	return s.ignored.List(ctx, userID)
}

func recordFromSuggestion(sg *dbm.PendingSubscriptionSuggestion) request_models.ChargeRecord {
	return request_models.ChargeRecord{
		SenderAddress:   sg.SenderAddress,
		Subject:         sg.Subject,
		Amount:          sg.Amount,
		Currency:        sg.Currency,
		Service:         sg.Service,
		BillingCycle:    sg.BillingCycle,
		Kind:            sg.Kind,
		ChargedAt:       sg.ChargedAt,
		SourceMessageID: sg.SourceMessageID,
		PaymentFailed:   sg.PaymentFailed,
	}
}
