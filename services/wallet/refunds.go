package wallet

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"medilink/models"
	"medilink/utils"
)

// RequestRefund opens a refund against one of the caller's successful ledger
// entries. The amount can never exceed the original transaction's amount;
// that bound is re-validated at processing time too, since the original is
// immutable once written.
func (s *DefaultWalletService) RequestRefund(ctx context.Context, callerID string, callerRole models.Role, input models.RequestRefundInput) (*models.Refund, error) {
	original, err := s.Repo.GetTransaction(ctx, input.OriginalTransactionID)
	if err != nil {
		return nil, err
	}
	if callerRole != models.RoleAdmin && original.UserID != callerID {
		return nil, utils.UnauthorizedErr("transaction %s does not belong to the caller", original.ID)
	}
	if original.Status != models.TxnSuccess {
		return nil, utils.InvalidStateErr("transaction %s is not refundable in status %s", original.ID, original.Status)
	}
	if input.Amount <= 0 || input.Amount > original.Amount {
		return nil, utils.InvalidStateErr("refund amount %.2f exceeds original amount %.2f", input.Amount, original.Amount)
	}

	refund := &models.Refund{
		ID:                    uuid.New().String(),
		UserID:                original.UserID,
		Role:                  original.Role,
		OriginalTransactionID: original.ID,
		AppointmentID:         input.AppointmentID,
		Amount:                input.Amount,
		Status:                models.RefundRequested,
		RequestedAt:           time.Now(),
	}
	if err := s.Repo.InsertRefund(ctx, refund); err != nil {
		return nil, err
	}

	utils.GetLogger().Info("refund requested",
		zap.String("refundId", refund.ID),
		zap.String("originalTransactionId", original.ID),
		zap.Float64("amount", refund.Amount))
	return refund, nil
}

func (s *DefaultWalletService) GetRefund(ctx context.Context, callerID string, callerRole models.Role, refundID string) (*models.Refund, error) {
	refund, err := s.Repo.GetRefund(ctx, refundID)
	if err != nil {
		return nil, err
	}
	if callerRole != models.RoleAdmin && refund.UserID != callerID {
		return nil, utils.UnauthorizedErr("refund %s does not belong to the caller", refundID)
	}
	return refund, nil
}

func (s *DefaultWalletService) ListRefunds(ctx context.Context, status models.RefundStatus) ([]models.Refund, error) {
	return s.Repo.ListRefunds(ctx, status)
}

// DecideRefund applies the admin decision to a pending refund. Deciding a
// refund that already left REQUESTED fails with InvalidState.
func (s *DefaultWalletService) DecideRefund(ctx context.Context, refundID, decision string) (*models.Refund, error) {
	d, ok := models.ParseRefundDecision(decision)
	if !ok {
		return nil, utils.InvalidStateErr("unknown refund decision %q", decision)
	}
	refund, err := s.Repo.SetRefundDecision(ctx, refundID, d)
	if err != nil {
		return nil, err
	}
	utils.GetLogger().Info("refund decided",
		zap.String("refundId", refundID),
		zap.String("decision", string(d)))
	return refund, nil
}

// ProcessRefund pays an APPROVED refund back to its owner: the credit and the
// REFUND ledger entry commit together with the move to PROCESSED.
func (s *DefaultWalletService) ProcessRefund(ctx context.Context, refundID string) (*models.Refund, error) {
	logger := utils.GetLogger()

	refund, err := s.Repo.GetRefund(ctx, refundID)
	if err != nil {
		return nil, err
	}
	original, err := s.Repo.GetTransaction(ctx, refund.OriginalTransactionID)
	if err != nil {
		return nil, err
	}
	if refund.Amount > original.Amount {
		return nil, utils.InvalidStateErr("refund amount %.2f exceeds original amount %.2f", refund.Amount, original.Amount)
	}

	now := time.Now()
	credit := &models.Transaction{
		ID:            uuid.New().String(),
		UserID:        refund.UserID,
		Role:          refund.Role,
		Type:          models.TxnRefund,
		Amount:        refund.Amount,
		Status:        models.TxnSuccess,
		Reason:        "refund payout",
		AppointmentID: refund.AppointmentID,
		CreatedAt:     now,
		CompletedAt:   &now,
	}
	processed, err := s.Repo.ProcessRefund(ctx, refundID, credit)
	if err != nil {
		return nil, err
	}

	logger.Info("refund processed",
		zap.String("refundId", refundID),
		zap.String("userId", processed.UserID),
		zap.Float64("amount", processed.Amount))

	if s.Notifier != nil && processed.Role == models.RolePatient {
		if err := s.Notifier.SendPatientPush(ctx, processed.UserID,
			"Refund processed",
			"Your refund has been credited to your wallet.",
			map[string]string{"event": models.EventRefundProcessed, "refundId": processed.ID},
		); err != nil {
			logger.Warn("failed to push refund notification", zap.Error(err))
		}
	}
	return processed, nil
}
