package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"subtrack/internal/models/db_models"
	"subtrack/internal/models/request_models"
	"subtrack/internal/repositories"
	"subtrack/pkg/utils"
)

type AccountServiceInterface interface {
	Login(ctx context.Context, request request_models.LoginRequest) (*db_models.User, *TokenPair, error)
	CreateAccount(ctx context.Context, request request_models.SignUpRequest) (*db_models.User, *TokenPair, error)
	Me(ctx context.Context, userID uuid.UUID) (*db_models.User, error)
}

type AccountService struct {
	accountRepo repositories.UserRepository
	sessions    SessionService
	log         *zap.Logger
}

func NewAccountService(accountRepo repositories.UserRepository, sessions SessionService, log *zap.Logger) AccountServiceInterface {
	return &AccountService{
		accountRepo: accountRepo,
		sessions:    sessions,
		log:         log.Named("account"),
	}
}

func (a *AccountService) Login(ctx context.Context, request request_models.LoginRequest) (*db_models.User, *TokenPair, error) {
	startTime := time.Now()

	account, err := a.accountRepo.FindByEmail(ctx, normalizeEmail(request.Email))
	if err != nil {
		return nil, nil, err
	}
	if account == nil {
		// Same answer as a wrong password so emails cannot be probed.
		return nil, nil, utils.ErrInvalidCredentials
	}

	if err := utils.ComparePasswords(account.PasswordHash, request.Password); err != nil {
		return nil, nil, utils.ErrInvalidCredentials
	}

	pair, err := a.sessions.IssuePair(account)
	if err != nil {
		return nil, nil, err
	}

	a.log.Debug("login", zap.String("user_id", account.ID.String()), zap.Duration("took", time.Since(startTime)))
	return account, pair, nil
}

func (a *AccountService) CreateAccount(ctx context.Context, request request_models.SignUpRequest) (*db_models.User, *TokenPair, error) {
	email := normalizeEmail(request.Email)

	existingAccount, err := a.accountRepo.FindByEmail(ctx, email)
	if err != nil {
		return nil, nil, err
	}
	if existingAccount != nil {
		return nil, nil, utils.ErrEmailAlreadyExists
	}

	hashedPassword, err := utils.HashPassword(request.Password)
	if err != nil {
		return nil, nil, err
	}

	newAccount := &db_models.User{
		Name:         strings.TrimSpace(request.DisplayName),
		Email:        email,
		PasswordHash: hashedPassword,
		Plan:         db_models.PlanFree,
	}

	if err := a.accountRepo.InsertTx(ctx, newAccount); err != nil {
		if errors.Is(err, repositories.ErrDuplicateKey) {
			return nil, nil, utils.ErrEmailAlreadyExists
		}
		return nil, nil, err
	}

	pair, err := a.sessions.IssuePair(newAccount)
	if err != nil {
		return nil, nil, err
	}
	a.log.Info("account created", zap.String("user_id", newAccount.ID.String()))
	return newAccount, pair, nil
}

func (a *AccountService) Me(ctx context.Context, userID uuid.UUID) (*db_models.User, error) {
	account, err := a.accountRepo.FindById(ctx, userID)
	if err != nil {
		return nil, err
	}
	if account == nil {
		return nil, utils.ErrNotFound
	}
	return account, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
