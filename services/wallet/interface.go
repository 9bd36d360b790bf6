package wallet

import (
	"context"

	profileRepo "medilink/database/repository/profile"
	walletRepo "medilink/database/repository/wallet"
	"medilink/models"
	"medilink/services/notification"
)

// WalletService owns deposits, the ledger view, and the refund lifecycle.
// Appointment payment capture and payouts live with the appointment service;
// this service never touches appointment state.
type WalletService interface {
	Balance(ctx context.Context, role models.Role, userID string) (float64, error)
	ListTransactions(ctx context.Context, userID string) ([]models.Transaction, error)
	GetTransaction(ctx context.Context, callerID string, callerRole models.Role, transactionID string) (*models.Transaction, error)

	// Deposit credits the wallet from a confirmed gateway payment. Replays of
	// the same gateway reference return the original transaction unchanged.
	Deposit(ctx context.Context, userID string, role models.Role, amount float64, gatewayRef string) (*models.Transaction, error)

	RequestRefund(ctx context.Context, callerID string, callerRole models.Role, input models.RequestRefundInput) (*models.Refund, error)
	GetRefund(ctx context.Context, callerID string, callerRole models.Role, refundID string) (*models.Refund, error)
	ListRefunds(ctx context.Context, status models.RefundStatus) ([]models.Refund, error)
	// DecideRefund moves a REQUESTED refund to APPROVED or REJECTED. Admin only.
	DecideRefund(ctx context.Context, refundID, decision string) (*models.Refund, error)
	// ProcessRefund credits an APPROVED refund back to its owner.
	ProcessRefund(ctx context.Context, refundID string) (*models.Refund, error)
}

// DefaultWalletService is the production implementation.
type DefaultWalletService struct {
	Repo     walletRepo.WalletRepository
	Profiles profileRepo.ProfileRepository
	Notifier notification.NotificationService // nil disables refund pushes
}
