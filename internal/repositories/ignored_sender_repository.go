package repositories

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	dbm "subtrack/internal/models/db_models"
)

type IgnoredSenderRepository interface {
	Add(ctx context.Context, userID uuid.UUID, sender string) error
	Exists(ctx context.Context, userID uuid.UUID, sender string) (bool, error)
	List(ctx context.Context, userID uuid.UUID) ([]dbm.IgnoredSender, error)
	WithTx(tx *gorm.DB) IgnoredSenderRepository
}

type ignoredSenderRepository struct {
	db *gorm.DB
}

func NewIgnoredSenderRepository(db *gorm.DB) IgnoredSenderRepository {
	return &ignoredSenderRepository{db: db}
}

func (r *ignoredSenderRepository) WithTx(tx *gorm.DB) IgnoredSenderRepository {
	return &ignoredSenderRepository{db: tx}
}

// Add is idempotent: the list is append-only and a repeat is a no-op.
func (r *ignoredSenderRepository) Add(ctx context.Context, userID uuid.UUID, sender string) error {
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}, {Name: "sender_address"}},
			DoNothing: true,
		}).
		Create(&dbm.IgnoredSender{UserID: userID, SenderAddress: sender}).Error
	return storeError("add ignored sender", err)
}

func (r *ignoredSenderRepository) Exists(ctx context.Context, userID uuid.UUID, sender string) (bool, error) {
	var n int64
	err := r.db.WithContext(ctx).
		Model(&dbm.IgnoredSender{}).
		Where("user_id = ? AND sender_address = ?", userID, sender).
		Count(&n).Error
	if err != nil {
		return false, storeError("check ignored sender", err)
	}
	return n > 0, nil
}

func (r *ignoredSenderRepository) List(ctx context.Context, userID uuid.UUID) ([]dbm.IgnoredSender, error) {
	var out []dbm.IgnoredSender
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at ASC").
		Find(&out).Error
	if err != nil {
		return nil, storeError("list ignored senders", err)
	}
	return out, nil
}
