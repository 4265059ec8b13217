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

type SubscriptionRepository interface {
	FindByKey(ctx context.Context, userID uuid.UUID, service, currency string) (*dbm.Subscription, error)
	FindByID(ctx context.Context, userID, id uuid.UUID) (*dbm.Subscription, error)

	// InsertIfAbsent creates the aggregate unless its (user, service,
	// currency) key is already taken, reporting whether it wrote a row.
	InsertIfAbsent(ctx context.Context, sub *dbm.Subscription) (bool, error)

	// UpdateVersioned applies fields only if the row still carries version,
	// bumping it. A false result means a concurrent writer got there first.
	UpdateVersioned(ctx context.Context, id uuid.UUID, version int64, fields map[string]any) (bool, error)

	// SetDeleted soft-deletes (at != nil) or restores (at == nil) a
	// subscription, reporting false when it was not in the opposite state.
	SetDeleted(ctx context.Context, userID, id uuid.UUID, at *time.Time) (bool, error)

	ListActive(ctx context.Context, userID uuid.UUID) ([]dbm.Subscription, error)
	ListRenewingBetween(ctx context.Context, userID uuid.UUID, from, to time.Time) ([]dbm.Subscription, error)
	CountActive(ctx context.Context, userID uuid.UUID) (int64, error)
	ListLapseCandidates(ctx context.Context, before time.Time) ([]dbm.Subscription, error)

	WithTx(tx *gorm.DB) SubscriptionRepository
}

type subscriptionRepository struct {
	db *gorm.DB
}

func NewSubscriptionRepository(db *gorm.DB) SubscriptionRepository {
	return &subscriptionRepository{db: db}
}

func (r *subscriptionRepository) WithTx(tx *gorm.DB) SubscriptionRepository {
	return &subscriptionRepository{db: tx}
}

func (r *subscriptionRepository) FindByKey(ctx context.Context, userID uuid.UUID, service, currency string) (*dbm.Subscription, error) {
	return r.first(ctx, "find subscription by key",
		"user_id = ? AND service = ? AND currency = ?", userID, service, currency)
}

func (r *subscriptionRepository) FindByID(ctx context.Context, userID, id uuid.UUID) (*dbm.Subscription, error) {
	return r.first(ctx, "find subscription", "id = ? AND user_id = ?", id, userID)
}

func (r *subscriptionRepository) first(ctx context.Context, op, query string, args ...any) (*dbm.Subscription, error) {
	var sub dbm.Subscription
	err := r.db.WithContext(ctx).Where(query, args...).First(&sub).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, storeError(op, err)
	}
	return &sub, nil
}

func (r *subscriptionRepository) InsertIfAbsent(ctx context.Context, sub *dbm.Subscription) (bool, error) {
	res := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}, {Name: "service"}, {Name: "currency"}},
			DoNothing: true,
		}).
		Create(sub)
	if res.Error != nil {
		return false, storeError("insert subscription", res.Error)
	}
	return res.RowsAffected > 0, nil
}

func (r *subscriptionRepository) UpdateVersioned(ctx context.Context, id uuid.UUID, version int64, fields map[string]any) (bool, error) {
	fields["version"] = version + 1
	fields["updated_at"] = time.Now().Unix()
	res := r.db.WithContext(ctx).
		Model(&dbm.Subscription{}).
		Where("id = ? AND version = ?", id, version).
		Updates(fields)
	if res.Error != nil {
		return false, storeError("update subscription", res.Error)
	}
	return res.RowsAffected > 0, nil
}

func (r *subscriptionRepository) SetDeleted(ctx context.Context, userID, id uuid.UUID, at *time.Time) (bool, error) {
	q := r.db.WithContext(ctx).Model(&dbm.Subscription{}).Where("id = ? AND user_id = ?", id, userID)
	if at != nil {
		q = q.Where("deleted_at IS NULL")
	} else {
		q = q.Where("deleted_at IS NOT NULL")
	}
	res := q.Updates(map[string]any{
		"deleted_at": at,
		"version":    gorm.Expr("version + 1"),
		"updated_at": time.Now().Unix(),
	})
	if res.Error != nil {
		return false, storeError("set subscription deleted", res.Error)
	}
	return res.RowsAffected > 0, nil
}

func (r *subscriptionRepository) active(ctx context.Context, userID uuid.UUID) *gorm.DB {
	return r.db.WithContext(ctx).Where("user_id = ? AND deleted_at IS NULL", userID)
}

func (r *subscriptionRepository) ListActive(ctx context.Context, userID uuid.UUID) ([]dbm.Subscription, error) {
	var subs []dbm.Subscription
	err := r.active(ctx, userID).
		Order("next_renewal IS NULL, next_renewal ASC, service ASC").
		Find(&subs).Error
	if err != nil {
		return nil, storeError("list subscriptions", err)
	}
	return subs, nil
}

func (r *subscriptionRepository) ListRenewingBetween(ctx context.Context, userID uuid.UUID, from, to time.Time) ([]dbm.Subscription, error) {
	var subs []dbm.Subscription
	err := r.active(ctx, userID).
		Where("next_renewal IS NOT NULL AND next_renewal >= ? AND next_renewal <= ?", from, to).
		Order("next_renewal ASC, service ASC").
		Find(&subs).Error
	if err != nil {
		return nil, storeError("list upcoming renewals", err)
	}
	return subs, nil
}

func (r *subscriptionRepository) CountActive(ctx context.Context, userID uuid.UUID) (int64, error) {
	var n int64
	err := r.active(ctx, userID).Model(&dbm.Subscription{}).Count(&n).Error
	if err != nil {
		return 0, storeError("count subscriptions", err)
	}
	return n, nil
}

func (r *subscriptionRepository) ListLapseCandidates(ctx context.Context, before time.Time) ([]dbm.Subscription, error) {
	var subs []dbm.Subscription
	err := r.db.WithContext(ctx).
		Where("deleted_at IS NULL AND next_renewal IS NOT NULL AND next_renewal < ?", before).
		Where("status IN ?", []dbm.SubscriptionStatus{dbm.SubStatusActive, dbm.SubStatusPastDue, dbm.SubStatusOnHold}).
		Order("next_renewal ASC").
		Find(&subs).Error
	if err != nil {
		return nil, storeError("list lapse candidates", err)
	}
	return subs, nil
}
