// File: database/repository/wallet/interface.go
package walletRepo

import (
	"context"

	"medilink/database"
	"medilink/models"

	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// WalletRepository owns the transactions and refunds collections plus the
// balance fields on the profile documents. Balances are only ever written
// through the transactional operations here (and the appointment repo's
// booking/payout transactions), never directly.
type WalletRepository interface {
	GetBalance(ctx context.Context, role models.Role, userID string) (float64, error)
	GetTransaction(ctx context.Context, transactionID string) (*models.Transaction, error)
	GetPaymentByAppointment(ctx context.Context, appointmentID string) (*models.Transaction, error)
	GetByGatewayRef(ctx context.Context, gatewayRef string) (*models.Transaction, error)
	ListTransactions(ctx context.Context, userID string) ([]models.Transaction, error)

	// Debit decrements the balance and appends the SUCCESS ledger record in
	// one transaction; fails with InsufficientFunds leaving balance unchanged.
	Debit(ctx context.Context, txn *models.Transaction) error
	// Credit increments the balance and appends the SUCCESS ledger record in
	// one transaction.
	Credit(ctx context.Context, txn *models.Transaction) error

	InsertRefund(ctx context.Context, refund *models.Refund) error
	GetRefund(ctx context.Context, refundID string) (*models.Refund, error)
	ListRefunds(ctx context.Context, status models.RefundStatus) ([]models.Refund, error)
	// SetRefundDecision moves REQUESTED -> APPROVED/REJECTED with compare-and-set.
	SetRefundDecision(ctx context.Context, refundID string, decision models.RefundStatus) (*models.Refund, error)
	// ProcessRefund credits the user and marks the refund PROCESSED atomically.
	ProcessRefund(ctx context.Context, refundID string, credit *models.Transaction) (*models.Refund, error)
}

type mongoWalletRepo struct {
	client   *mongo.Client
	patients *mongo.Collection
	doctors  *mongo.Collection
	txns     *mongo.Collection
	refunds  *mongo.Collection
}

// NewMongoWalletRepo constructs a new MongoDB WalletRepository and ensures
// its indexes exist.
func NewMongoWalletRepo() WalletRepository {
	db := database.DB()
	r := &mongoWalletRepo{
		client:   database.MongoClient,
		patients: db.Collection("patients"),
		doctors:  db.Collection("doctors"),
		txns:     db.Collection("transactions"),
		refunds:  db.Collection("refunds"),
	}
	if err := r.EnsureIndexes(); err != nil {
		zap.L().Warn("failed to ensure wallet indexes", zap.Error(err))
	}
	return r
}

// balanceColl picks the profile collection holding the balance for a role.
func (r *mongoWalletRepo) balanceColl(role models.Role) *mongo.Collection {
	if role == models.RoleDoctor {
		return r.doctors
	}
	return r.patients
}
