package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"subtrack/internal/models/db_models"
	"subtrack/pkg/utils"
)

type UserRepository interface {
	InsertTx(ctx context.Context, user *db_models.User) error
	FindById(ctx context.Context, id uuid.UUID) (*db_models.User, error)
	FindByEmail(ctx context.Context, email string) (*db_models.User, error)
	FindByStripeCustomer(ctx context.Context, customerID string) (*db_models.User, error)
	UpdatePlan(ctx context.Context, id uuid.UUID, plan db_models.Plan) error
	SetStripeCustomer(ctx context.Context, id uuid.UUID, customerID string) error
	TouchLastScan(ctx context.Context, id uuid.UUID, at time.Time) error
}

type userRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{
		db: db,
	}
}

func (u *userRepository) InsertTx(ctx context.Context, user *db_models.User) error {
	return storeError("insert user", u.db.WithContext(ctx).Create(user).Error)
}

func (u *userRepository) FindById(ctx context.Context, id uuid.UUID) (*db_models.User, error) {
	return u.first(ctx, "find user", "id = ?", id)
}

func (u *userRepository) FindByEmail(ctx context.Context, email string) (*db_models.User, error) {
	return u.first(ctx, "find user by email", "email = ?", email)
}

func (u *userRepository) FindByStripeCustomer(ctx context.Context, customerID string) (*db_models.User, error) {
	return u.first(ctx, "find user by customer", "stripe_customer_id = ?", customerID)
}

func (u *userRepository) first(ctx context.Context, op string, query string, args ...any) (*db_models.User, error) {
	var user db_models.User
	err := u.db.WithContext(ctx).Where(query, args...).First(&user).Error

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, storeError(op, err)
	}

	return &user, nil
}

func (u *userRepository) UpdatePlan(ctx context.Context, id uuid.UUID, plan db_models.Plan) error {
	return u.update(ctx, "update plan", id, map[string]any{"plan": plan})
}

func (u *userRepository) SetStripeCustomer(ctx context.Context, id uuid.UUID, customerID string) error {
	return u.update(ctx, "set stripe customer", id, map[string]any{"stripe_customer_id": customerID})
}

func (u *userRepository) TouchLastScan(ctx context.Context, id uuid.UUID, at time.Time) error {
	return u.update(ctx, "touch last scan", id, map[string]any{"last_scan_at": at})
}

func (u *userRepository) update(ctx context.Context, op string, id uuid.UUID, fields map[string]any) error {
	fields["updated_at"] = time.Now().Unix()
	res := u.db.WithContext(ctx).Model(&db_models.User{}).Where("id = ?", id).Updates(fields)
	if res.Error != nil {
		return storeError(op, res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("%s: %w", op, utils.ErrNotFound)
	}
	return nil
}
