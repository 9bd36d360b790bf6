// File: database/repository/wallet/transaction.go
package walletRepo

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"medilink/database"
	"medilink/models"
	"medilink/utils"
)

func (r *mongoWalletRepo) Debit(ctx context.Context, txn *models.Transaction) error {
	return database.WithTransaction(ctx, r.client, func(sc mongo.SessionContext) error {
		// The filter only matches while the balance covers the amount, so the
		// balance can never go negative.
		filter := bson.M{"id": txn.UserID, "walletBalance": bson.M{"$gte": txn.Amount}}
		update := bson.M{
			"$inc": bson.M{"walletBalance": -txn.Amount},
			"$set": bson.M{"updatedAt": time.Now()},
		}
		res, err := r.balanceColl(txn.Role).UpdateOne(sc, filter, update)
		if err != nil {
			return err
		}
		if res.MatchedCount == 0 {
			n, err := r.balanceColl(txn.Role).CountDocuments(sc, bson.M{"id": txn.UserID})
			if err != nil {
				return err
			}
			if n == 0 {
				return utils.NotFoundErr("%s %s not found", txn.Role, txn.UserID)
			}
			return utils.InsufficientFundsErr("%s %s has insufficient wallet balance", txn.Role, txn.UserID)
		}

		if _, err := r.txns.InsertOne(sc, txn); err != nil {
			return err
		}
		return nil
	})
}

func (r *mongoWalletRepo) Credit(ctx context.Context, txn *models.Transaction) error {
	return database.WithTransaction(ctx, r.client, func(sc mongo.SessionContext) error {
		update := bson.M{
			"$inc": bson.M{"walletBalance": txn.Amount},
			"$set": bson.M{"updatedAt": time.Now()},
		}
		res, err := r.balanceColl(txn.Role).UpdateOne(sc, bson.M{"id": txn.UserID}, update)
		if err != nil {
			return err
		}
		if res.MatchedCount == 0 {
			return utils.NotFoundErr("%s %s not found", txn.Role, txn.UserID)
		}

		if _, err := r.txns.InsertOne(sc, txn); err != nil {
			return err
		}
		return nil
	})
}

func (r *mongoWalletRepo) ProcessRefund(ctx context.Context, refundID string, credit *models.Transaction) (*models.Refund, error) {
	var processed models.Refund

	err := database.WithTransaction(ctx, r.client, func(sc mongo.SessionContext) error {
		now := time.Now()
		// Only an APPROVED refund is processable.
		filter := bson.M{"id": refundID, "status": models.RefundApproved}
		update := bson.M{"$set": bson.M{
			"status":      models.RefundProcessed,
			"processedAt": now,
		}}
		after := options.After
		err := r.refunds.FindOneAndUpdate(sc, filter, update,
			&options.FindOneAndUpdateOptions{ReturnDocument: &after}).Decode(&processed)
		if err == mongo.ErrNoDocuments {
			n, cntErr := r.refunds.CountDocuments(sc, bson.M{"id": refundID})
			if cntErr != nil {
				return cntErr
			}
			if n == 0 {
				return utils.NotFoundErr("refund %s not found", refundID)
			}
			return utils.InvalidStateErr("refund %s is not approved", refundID)
		}
		if err != nil {
			return err
		}

		res, err := r.balanceColl(credit.Role).UpdateOne(sc, bson.M{"id": credit.UserID}, bson.M{
			"$inc": bson.M{"walletBalance": credit.Amount},
			"$set": bson.M{"updatedAt": now},
		})
		if err != nil {
			return err
		}
		if res.MatchedCount == 0 {
			return utils.NotFoundErr("%s %s not found", credit.Role, credit.UserID)
		}

		if _, err := r.txns.InsertOne(sc, credit); err != nil {
			return err
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &processed, nil
}
