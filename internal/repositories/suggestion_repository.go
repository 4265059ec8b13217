package repositories

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	dbm "subtrack/internal/models/db_models"
)

type SuggestionRepository interface {
	InsertIfAbsent(ctx context.Context, s *dbm.PendingSubscriptionSuggestion) (bool, error)
	FindByID(ctx context.Context, userID, id uuid.UUID) (*dbm.PendingSubscriptionSuggestion, error)
	ListPending(ctx context.Context, userID uuid.UUID) ([]dbm.PendingSubscriptionSuggestion, error)

	// Transition moves a suggestion from one status to another in a single
	// conditional write; false means it was missing or not in from.
	Transition(ctx context.Context, userID, id uuid.UUID, from, to dbm.SuggestionStatus, at time.Time) (bool, error)

	WithTx(tx *gorm.DB) SuggestionRepository
}

type suggestionRepository struct {
	db *gorm.DB
}

func NewSuggestionRepository(db *gorm.DB) SuggestionRepository {
	return &suggestionRepository{db: db}
}

func (r *suggestionRepository) WithTx(tx *gorm.DB) SuggestionRepository {
	return &suggestionRepository{db: tx}
}

func (r *suggestionRepository) InsertIfAbsent(ctx context.Context, s *dbm.PendingSubscriptionSuggestion) (bool, error) {
	res := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}, {Name: "source_message_id"}},
			DoNothing: true,
		}).
		Create(s)
	if res.Error != nil {
		return false, storeError("insert suggestion", res.Error)
	}
	return res.RowsAffected > 0, nil
}

func (r *suggestionRepository) FindByID(ctx context.Context, userID, id uuid.UUID) (*dbm.PendingSubscriptionSuggestion, error) {
	var s dbm.PendingSubscriptionSuggestion
	err := r.db.WithContext(ctx).Where("id = ? AND user_id = ?", id, userID).First(&s).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, storeError("find suggestion", err)
	}
	return &s, nil
}

func (r *suggestionRepository) ListPending(ctx context.Context, userID uuid.UUID) ([]dbm.PendingSubscriptionSuggestion, error) {
	var out []dbm.PendingSubscriptionSuggestion
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND status = ?", userID, dbm.SuggestionPending).
		Order("charged_at DESC").
		Find(&out).Error
	if err != nil {
		return nil, storeError("list suggestions", err)
	}
	return out, nil
}

func (r *suggestionRepository) Transition(ctx context.Context, userID, id uuid.UUID, from, to dbm.SuggestionStatus, at time.Time) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&dbm.PendingSubscriptionSuggestion{}).
		Where("id = ? AND user_id = ? AND status = ?", id, userID, from).
		Updates(map[string]any{
			"status":     to,
			"decided_at": at,
			"updated_at": time.Now().Unix(),
		})
	if res.Error != nil {
		return false, storeError("transition suggestion", res.Error)
	}
	return res.RowsAffected > 0, nil
}
