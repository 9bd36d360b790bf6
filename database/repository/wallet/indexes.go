// FILE: database/repository/wallet/indexes.go
package walletRepo

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// EnsureIndexes creates the necessary indexes on the ledger collections.
func (r *mongoWalletRepo) EnsureIndexes() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	txnIndexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "id", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("unique_id"),
		},
		{
			Keys:    bson.D{{Key: "userId", Value: 1}, {Key: "createdAt", Value: -1}},
			Options: options.Index().SetName("user_created_idx"),
		},
		{
			Keys:    bson.D{{Key: "appointmentId", Value: 1}, {Key: "type", Value: 1}},
			Options: options.Index().SetName("appointment_type_idx"),
		},
		// Deposit idempotency: one ledger entry per gateway reference.
		{
			Keys: bson.D{{Key: "gatewayRef", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("unique_gateway_ref").
				SetPartialFilterExpression(bson.M{"gatewayRef": bson.M{"$exists": true, "$gt": ""}}),
		},
	}
	if _, err := r.txns.Indexes().CreateMany(ctx, txnIndexes); err != nil {
		return fmt.Errorf("failed to create transaction indexes: %w", err)
	}

	refundIndexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "id", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("unique_id"),
		},
		{
			Keys:    bson.D{{Key: "status", Value: 1}, {Key: "requestedAt", Value: -1}},
			Options: options.Index().SetName("status_requested_idx"),
		},
	}
	if _, err := r.refunds.Indexes().CreateMany(ctx, refundIndexes); err != nil {
		return fmt.Errorf("failed to create refund indexes: %w", err)
	}
	return nil
}
