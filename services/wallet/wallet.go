package wallet

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"medilink/models"
	"medilink/utils"
)

func (s *DefaultWalletService) Balance(ctx context.Context, role models.Role, userID string) (float64, error) {
	return s.Repo.GetBalance(ctx, role, userID)
}

func (s *DefaultWalletService) ListTransactions(ctx context.Context, userID string) ([]models.Transaction, error) {
	return s.Repo.ListTransactions(ctx, userID)
}

// GetTransaction returns a ledger entry to its owner or an admin.
func (s *DefaultWalletService) GetTransaction(ctx context.Context, callerID string, callerRole models.Role, transactionID string) (*models.Transaction, error) {
	txn, err := s.Repo.GetTransaction(ctx, transactionID)
	if err != nil {
		return nil, err
	}
	if callerRole != models.RoleAdmin && txn.UserID != callerID {
		return nil, utils.UnauthorizedErr("transaction %s does not belong to the caller", transactionID)
	}
	return txn, nil
}

// Deposit credits a confirmed gateway payment onto the wallet. The gateway
// reference is the idempotency key: webhooks are delivered at least once, so
// a replay finds the earlier transaction and returns it without a second
// credit. The unique index on gatewayRef closes the remaining race.
func (s *DefaultWalletService) Deposit(ctx context.Context, userID string, role models.Role, amount float64, gatewayRef string) (*models.Transaction, error) {
	logger := utils.GetLogger()

	if amount <= 0 {
		return nil, utils.InvalidStateErr("deposit amount must be positive")
	}
	if gatewayRef == "" {
		return nil, utils.InvalidStateErr("deposit requires a gateway reference")
	}

	if existing, err := s.Repo.GetByGatewayRef(ctx, gatewayRef); err == nil {
		logger.Info("deposit replay ignored",
			zap.String("gatewayRef", gatewayRef),
			zap.String("transactionId", existing.ID))
		return existing, nil
	} else if !utils.IsCode(err, utils.CodeNotFound) {
		return nil, err
	}

	now := time.Now()
	txn := &models.Transaction{
		ID:          uuid.New().String(),
		UserID:      userID,
		Role:        role,
		Type:        models.TxnDeposit,
		Amount:      amount,
		Status:      models.TxnSuccess,
		Reason:      "wallet deposit",
		GatewayRef:  gatewayRef,
		CreatedAt:   now,
		CompletedAt: &now,
	}
	if err := s.Repo.Credit(ctx, txn); err != nil {
		return nil, err
	}

	logger.Info("wallet deposit credited",
		zap.String("userId", userID),
		zap.Float64("amount", amount),
		zap.String("gatewayRef", gatewayRef))
	return txn, nil
}
