package services

import (
	"context"
	"errors"
	"iter"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	dbm "subtrack/internal/models/db_models"
	"subtrack/internal/models/request_models"
	"subtrack/internal/repositories"
	"subtrack/pkg/utils"
)

type InvalidRecord struct {
	Index           int    `json:"index"`
	SourceMessageID string `json:"source_message_id,omitempty"`
	Reason          string `json:"reason"`
}

type IngestSummary struct {
	Reconciled int             `json:"reconciled"`
	Suggested  int             `json:"suggested"`
	Ignored    int             `json:"ignored"`
	Dropped    int             `json:"dropped"`
	Invalid    []InvalidRecord `json:"invalid"`
}

type IngestService interface {
	// Ingest routes classified records into the ledger or the suggestion
	// queue. Invalid records are reported in the summary; a store failure
	// stops the batch and is returned with the partial summary.
	Ingest(ctx context.Context, userID uuid.UUID, records iter.Seq[request_models.ChargeRecord]) (*IngestSummary, error)
}

type ingestService struct {
	users       repositories.UserRepository
	reconciler  LedgerReconciler
	suggestions SuggestionService
	log         *zap.Logger
}

func NewIngestService(
	users repositories.UserRepository,
	reconciler LedgerReconciler,
	suggestions SuggestionService,
	log *zap.Logger,
) IngestService {
	return &ingestService{
		users:       users,
		reconciler:  reconciler,
		suggestions: suggestions,
		log:         log.Named("ingest"),
	}
}

type ingestRoute int

const (
	routeDrop ingestRoute = iota
	routeReconcile
	routeSuggest
)

// route decides where a classified record goes. Only subscriptions with a
// known recurring cycle are trusted enough to skip user review.
func route(rec request_models.ChargeRecord) ingestRoute {
	switch rec.Kind {
	case dbm.KindSubscription:
		if rec.BillingCycle.IsRecurring() {
			return routeReconcile
		}
		return routeSuggest
	case dbm.KindOneTimeCharge:
		return routeSuggest
	default:
		return routeDrop
	}
}

func (s *ingestService) Ingest(ctx context.Context, userID uuid.UUID, records iter.Seq[request_models.ChargeRecord]) (*IngestSummary, error) {
	summary := &IngestSummary{Invalid: []InvalidRecord{}}

	i := -1
	for raw := range records {
		i++
		if err := ctx.Err(); err != nil {
			return summary, err
		}

		rec, err := raw.Normalize()
		if err != nil {
			summary.Invalid = append(summary.Invalid, InvalidRecord{
				Index:           i,
				SourceMessageID: raw.SourceMessageID,
				Reason:          err.Error(),
			})
			continue
		}

		switch route(rec) {
		case routeDrop:
			summary.Dropped++

		case routeReconcile:
			if _, err := s.reconciler.Reconcile(ctx, userID, rec); err != nil {
				if errors.Is(err, utils.ErrValidation) {
					summary.Invalid = append(summary.Invalid, InvalidRecord{Index: i, SourceMessageID: rec.SourceMessageID, Reason: err.Error()})
					continue
				}
				return summary, err
			}
			summary.Reconciled++

		case routeSuggest:
			created, err := s.suggestions.Create(ctx, userID, rec)
			if err != nil {
				return summary, err
			}
			if created {
				summary.Suggested++
			} else {
				summary.Ignored++
			}
		}
	}

	if err := s.users.TouchLastScan(ctx, userID, time.Now().UTC()); err != nil {
		return summary, err
	}

	s.log.Info("ingest finished",
		zap.String("user_id", userID.String()),
		zap.Int("reconciled", summary.Reconciled),
		zap.Int("suggested", summary.Suggested),
		zap.Int("ignored", summary.Ignored),
		zap.Int("dropped", summary.Dropped),
		zap.Int("invalid", len(summary.Invalid)))
	return summary, nil
}
