// File: database/repository/wallet/crud.go
package walletRepo

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"medilink/models"
	"medilink/utils"
)

func (r *mongoWalletRepo) GetBalance(ctx context.Context, role models.Role, userID string) (float64, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var doc struct {
		WalletBalance float64 `bson:"walletBalance"`
	}
	err := r.balanceColl(role).FindOne(ctx, bson.M{"id": userID},
		options.FindOne().SetProjection(bson.M{"walletBalance": 1})).Decode(&doc)
	if err == mongo.ErrNoDocuments {
		return 0, utils.NotFoundErr("%s %s not found", role, userID)
	}
	if err != nil {
		return 0, err
	}
	return doc.WalletBalance, nil
}

func (r *mongoWalletRepo) GetTransaction(ctx context.Context, transactionID string) (*models.Transaction, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var txn models.Transaction
	err := r.txns.FindOne(ctx, bson.M{"id": transactionID}).Decode(&txn)
	if err == mongo.ErrNoDocuments {
		return nil, utils.NotFoundErr("transaction %s not found", transactionID)
	}
	if err != nil {
		return nil, err
	}
	return &txn, nil
}

// GetPaymentByAppointment finds the successful PAYMENT ledger entry for an
// appointment; it is the refund anchor on cancellation.
func (r *mongoWalletRepo) GetPaymentByAppointment(ctx context.Context, appointmentID string) (*models.Transaction, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	filter := bson.M{
		"appointmentId": appointmentID,
		"type":          models.TxnPayment,
		"status":        models.TxnSuccess,
	}
	var txn models.Transaction
	err := r.txns.FindOne(ctx, filter).Decode(&txn)
	if err == mongo.ErrNoDocuments {
		return nil, utils.NotFoundErr("no successful payment for appointment %s", appointmentID)
	}
	if err != nil {
		return nil, err
	}
	return &txn, nil
}

func (r *mongoWalletRepo) GetByGatewayRef(ctx context.Context, gatewayRef string) (*models.Transaction, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var txn models.Transaction
	err := r.txns.FindOne(ctx, bson.M{"gatewayRef": gatewayRef}).Decode(&txn)
	if err == mongo.ErrNoDocuments {
		return nil, utils.NotFoundErr("no transaction with gateway reference %s", gatewayRef)
	}
	if err != nil {
		return nil, err
	}
	return &txn, nil
}

func (r *mongoWalletRepo) ListTransactions(ctx context.Context, userID string) ([]models.Transaction, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	cursor, err := r.txns.Find(ctx, bson.M{"userId": userID},
		options.Find().SetSort(bson.M{"createdAt": -1}))
	if err != nil {
		return nil, fmt.Errorf("failed to fetch transactions: %w", err)
	}
	defer cursor.Close(ctx)

	var txns []models.Transaction
	if err := cursor.All(ctx, &txns); err != nil {
		return nil, fmt.Errorf("error decoding transactions: %w", err)
	}
	return txns, nil
}

func (r *mongoWalletRepo) InsertRefund(ctx context.Context, refund *models.Refund) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	_, err := r.refunds.InsertOne(ctx, refund)
	return err
}

func (r *mongoWalletRepo) GetRefund(ctx context.Context, refundID string) (*models.Refund, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var refund models.Refund
	err := r.refunds.FindOne(ctx, bson.M{"id": refundID}).Decode(&refund)
	if err == mongo.ErrNoDocuments {
		return nil, utils.NotFoundErr("refund %s not found", refundID)
	}
	if err != nil {
		return nil, err
	}
	return &refund, nil
}

func (r *mongoWalletRepo) ListRefunds(ctx context.Context, status models.RefundStatus) ([]models.Refund, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	filter := bson.M{}
	if status != "" {
		filter["status"] = status
	}
	cursor, err := r.refunds.Find(ctx, filter, options.Find().SetSort(bson.M{"requestedAt": -1}))
	if err != nil {
		return nil, fmt.Errorf("failed to fetch refunds: %w", err)
	}
	defer cursor.Close(ctx)

	var refunds []models.Refund
	if err := cursor.All(ctx, &refunds); err != nil {
		return nil, fmt.Errorf("error decoding refunds: %w", err)
	}
	return refunds, nil
}

func (r *mongoWalletRepo) SetRefundDecision(ctx context.Context, refundID string, decision models.RefundStatus) (*models.Refund, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	// Only a REQUESTED refund can be decided; the status walk is monotonic.
	filter := bson.M{"id": refundID, "status": models.RefundRequested}
	update := bson.M{"$set": bson.M{"status": decision}}
	after := options.After
	var refund models.Refund
	err := r.refunds.FindOneAndUpdate(ctx, filter, update,
		&options.FindOneAndUpdateOptions{ReturnDocument: &after}).Decode(&refund)
	if err == mongo.ErrNoDocuments {
		n, cntErr := r.refunds.CountDocuments(ctx, bson.M{"id": refundID})
		if cntErr != nil {
			return nil, cntErr
		}
		if n == 0 {
			return nil, utils.NotFoundErr("refund %s not found", refundID)
		}
		return nil, utils.InvalidStateErr("refund %s is no longer pending decision", refundID)
	}
	if err != nil {
		return nil, err
	}
	return &refund, nil
}
