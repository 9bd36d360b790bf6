package wallet

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"medilink/models"
	"medilink/utils"
)

// seedPayment records a successful payment owned by pat-1 so refunds have an
// anchor to reverse.
func seedPayment(repo *fakeWalletRepo, amount float64) *models.Transaction {
	now := time.Now()
	txn := &models.Transaction{
		ID:            "txn-pay-1",
		UserID:        "pat-1",
		Role:          models.RolePatient,
		Type:          models.TxnPayment,
		Amount:        amount,
		Status:        models.TxnSuccess,
		AppointmentID: "appt-1",
		CreatedAt:     now,
		CompletedAt:   &now,
	}
	repo.txns = append(repo.txns, txn)
	return txn
}

func TestRequestRefundHappyPath(t *testing.T) {
	svc, repo := newWalletService()
	payment := seedPayment(repo, 50)

	refund, err := svc.RequestRefund(context.Background(), "pat-1", models.RolePatient,
		models.RequestRefundInput{OriginalTransactionID: payment.ID, Amount: 50, AppointmentID: "appt-1"})
	require.NoError(t, err)

	assert.Equal(t, models.RefundRequested, refund.Status)
	assert.Equal(t, payment.ID, refund.OriginalTransactionID)
	assert.Equal(t, float64(50), refund.Amount)
	assert.Equal(t, "pat-1", refund.UserID)
}

func TestRequestRefundAmountBound(t *testing.T) {
	svc, repo := newWalletService()
	payment := seedPayment(repo, 50)

	_, err := svc.RequestRefund(context.Background(), "pat-1", models.RolePatient,
		models.RequestRefundInput{OriginalTransactionID: payment.ID, Amount: 51})
	require.Error(t, err)
	assert.True(t, utils.IsCode(err, utils.CodeInvalidState))

	_, err = svc.RequestRefund(context.Background(), "pat-1", models.RolePatient,
		models.RequestRefundInput{OriginalTransactionID: payment.ID, Amount: 0})
	require.Error(t, err)
	assert.True(t, utils.IsCode(err, utils.CodeInvalidState))
}

func TestRequestRefundRequiresOwnership(t *testing.T) {
	svc, repo := newWalletService()
	payment := seedPayment(repo, 50)

	_, err := svc.RequestRefund(context.Background(), "pat-2", models.RolePatient,
		models.RequestRefundInput{OriginalTransactionID: payment.ID, Amount: 50})
	require.Error(t, err)
	assert.True(t, utils.IsCode(err, utils.CodeUnauthorized))
}

func TestRequestRefundRequiresSuccessfulOriginal(t *testing.T) {
	svc, repo := newWalletService()
	payment := seedPayment(repo, 50)
	payment.Status = models.TxnFailed

	_, err := svc.RequestRefund(context.Background(), "pat-1", models.RolePatient,
		models.RequestRefundInput{OriginalTransactionID: payment.ID, Amount: 50})
	require.Error(t, err)
	assert.True(t, utils.IsCode(err, utils.CodeInvalidState))
}

func TestRefundLifecycleApproveThenProcess(t *testing.T) {
	svc, repo := newWalletService()
	payment := seedPayment(repo, 50)
	ctx := context.Background()

	refund, err := svc.RequestRefund(ctx, "pat-1", models.RolePatient,
		models.RequestRefundInput{OriginalTransactionID: payment.ID, Amount: 50})
	require.NoError(t, err)

	// Processing before approval is out of order.
	_, err = svc.ProcessRefund(ctx, refund.ID)
	require.Error(t, err)
	assert.True(t, utils.IsCode(err, utils.CodeInvalidState))

	approved, err := svc.DecideRefund(ctx, refund.ID, "approved")
	require.NoError(t, err)
	assert.Equal(t, models.RefundApproved, approved.Status)

	processed, err := svc.ProcessRefund(ctx, refund.ID)
	require.NoError(t, err)
	assert.Equal(t, models.RefundProcessed, processed.Status)
	require.NotNil(t, processed.ProcessedAt)
	assert.Equal(t, float64(150), repo.balances[balanceKey{models.RolePatient, "pat-1"}])

	// The credit landed on the ledger as a REFUND entry.
	last := repo.txns[len(repo.txns)-1]
	assert.Equal(t, models.TxnRefund, last.Type)
	assert.Equal(t, float64(50), last.Amount)

	// Processing twice cannot double-credit.
	_, err = svc.ProcessRefund(ctx, refund.ID)
	require.Error(t, err)
	assert.True(t, utils.IsCode(err, utils.CodeInvalidState))
	assert.Equal(t, float64(150), repo.balances[balanceKey{models.RolePatient, "pat-1"}])
}

func TestRefundLifecycleReject(t *testing.T) {
	svc, repo := newWalletService()
	payment := seedPayment(repo, 50)
	ctx := context.Background()

	refund, err := svc.RequestRefund(ctx, "pat-1", models.RolePatient,
		models.RequestRefundInput{OriginalTransactionID: payment.ID, Amount: 50})
	require.NoError(t, err)

	rejected, err := svc.DecideRefund(ctx, refund.ID, "REJECTED")
	require.NoError(t, err)
	assert.Equal(t, models.RefundRejected, rejected.Status)

	// A rejected refund can never be decided again or processed.
	_, err = svc.DecideRefund(ctx, refund.ID, "APPROVED")
	require.Error(t, err)
	assert.True(t, utils.IsCode(err, utils.CodeInvalidState))
	_, err = svc.ProcessRefund(ctx, refund.ID)
	require.Error(t, err)
	assert.True(t, utils.IsCode(err, utils.CodeInvalidState))
	assert.Equal(t, float64(100), repo.balances[balanceKey{models.RolePatient, "pat-1"}])
}

func TestDecideRefundUnknownDecision(t *testing.T) {
	svc, repo := newWalletService()
	payment := seedPayment(repo, 50)

	refund, err := svc.RequestRefund(context.Background(), "pat-1", models.RolePatient,
		models.RequestRefundInput{OriginalTransactionID: payment.ID, Amount: 50})
	require.NoError(t, err)

	_, err = svc.DecideRefund(context.Background(), refund.ID, "MAYBE")
	require.Error(t, err)
	assert.True(t, utils.IsCode(err, utils.CodeInvalidState))
}
