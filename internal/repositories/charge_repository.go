package repositories

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"subtrack/internal/models/db_models"
)

type ChargeRepository interface {
	// InsertIfAbsent inserts the charge unless (user, source message) already
	// exists; it reports whether a row was written.
	InsertIfAbsent(ctx context.Context, charge *db_models.Charge) (bool, error)
	FindBySource(ctx context.Context, userID uuid.UUID, sourceMessageID string) (*db_models.Charge, error)
	LinkSubscription(ctx context.Context, chargeID, subscriptionID uuid.UUID) error
	ListBySubscription(ctx context.Context, userID, subscriptionID uuid.UUID) ([]db_models.Charge, error)
	WithTx(tx *gorm.DB) ChargeRepository
}

type chargeRepository struct {
	db *gorm.DB
}

func NewChargeRepository(db *gorm.DB) ChargeRepository {
	return &chargeRepository{db: db}
}

func (r *chargeRepository) WithTx(tx *gorm.DB) ChargeRepository {
	return &chargeRepository{db: tx}
}

func (r *chargeRepository) InsertIfAbsent(ctx context.Context, charge *db_models.Charge) (bool, error) {
	res := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}, {Name: "source_message_id"}},
			DoNothing: true,
		}).
		Create(charge)
	if res.Error != nil {
		return false, storeError("insert charge", res.Error)
	}
	return res.RowsAffected > 0, nil
}

func (r *chargeRepository) FindBySource(ctx context.Context, userID uuid.UUID, sourceMessageID string) (*db_models.Charge, error) {
	var charge db_models.Charge
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND source_message_id = ?", userID, sourceMessageID).
		First(&charge).Error

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, storeError("find charge", err)
	}
	return &charge, nil
}

func (r *chargeRepository) LinkSubscription(ctx context.Context, chargeID, subscriptionID uuid.UUID) error {
	err := r.db.WithContext(ctx).
		Model(&db_models.Charge{}).
		Where("id = ?", chargeID).
		Update("subscription_id", subscriptionID).Error
	return storeError("link charge", err)
}

func (r *chargeRepository) ListBySubscription(ctx context.Context, userID, subscriptionID uuid.UUID) ([]db_models.Charge, error) {
	var charges []db_models.Charge
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND subscription_id = ?", userID, subscriptionID).
		Order("charged_at DESC").
		Find(&charges).Error
	if err != nil {
		return nil, storeError("list charges", err)
	}
	return charges, nil
}
