package service

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/abhilipne0/agent-surath-backend/internal/model"
	"github.com/abhilipne0/agent-surath-backend/internal/repository"
)

// AccountService handles bettor account lookups and the audit trail.
type AccountService struct {
	users      *repository.UserRepository
	statements *repository.StatementRepository
}

// NewAccountService creates a new AccountService instance.
func NewAccountService(users *repository.UserRepository, statements *repository.StatementRepository) *AccountService {
	return &AccountService{
		users:      users,
		statements: statements,
	}
}

// Register creates a bettor account with the given opening balances.
func (s *AccountService) Register(ctx context.Context, userID int64, available, bonus decimal.Decimal) (*model.User, error) {
	user, err := s.users.Create(ctx, userID, available, bonus)
	if err != nil {
		return nil, fmt.Errorf("failed to register user: %w", err)
	}
	return user, nil
}

// GetUser retrieves a bettor account.
func (s *AccountService) GetUser(ctx context.Context, userID int64) (*model.User, error) {
	return s.users.GetByID(ctx, userID)
}

// Statements returns the bettor's most recent wallet audit entries.
func (s *AccountService) Statements(ctx context.Context, userID int64, limit int) ([]*model.Statement, error) {
	return s.statements.ListByUser(ctx, userID, limit)
}

// DailyNet reports each bettor's net game result for one calendar day.
func (s *AccountService) DailyNet(ctx context.Context, date time.Time) ([]*model.DailyNet, error) {
	return s.statements.DailyNet(ctx, date)
}
