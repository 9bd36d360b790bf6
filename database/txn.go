package database

import (
	"context"
	"fmt"

	"medilink/utils"

	"go.mongodb.org/mongo-driver/mongo"
)

// txnMaxRetries bounds the internal retry loop for transient transaction
// failures. Anything still failing after that surfaces as Conflict.
const txnMaxRetries = 3

// WithTransaction runs fn inside a MongoDB multi-document transaction: every
// write in fn commits or none do. Transient transaction errors (benign
// optimistic-concurrency races at the store) are retried a bounded number of
// times; business errors from fn are surfaced immediately and never retried.
func WithTransaction(ctx context.Context, client *mongo.Client, fn func(sc mongo.SessionContext) error) error {
	sess, err := client.StartSession()
	if err != nil {
		return fmt.Errorf("could not start mongo session: %w", err)
	}
	defer sess.EndSession(ctx)

	var lastErr error
	for attempt := 0; attempt < txnMaxRetries; attempt++ {
		err := mongo.WithSession(ctx, sess, func(sc mongo.SessionContext) error {
			if err := sc.StartTransaction(); err != nil {
				return err
			}
			if err := fn(sc); err != nil {
				_ = sc.AbortTransaction(sc)
				return err
			}
			return sc.CommitTransaction(sc)
		})
		if err == nil {
			return nil
		}
		if !isTransient(err) {
			return err
		}
		lastErr = err
	}
	return utils.ConflictErr("transaction aborted after %d attempts: %v", txnMaxRetries, lastErr)
}

func isTransient(err error) bool {
	if cmdErr, ok := err.(mongo.CommandError); ok {
		return cmdErr.HasErrorLabel("TransientTransactionError") ||
			cmdErr.HasErrorLabel("UnknownTransactionCommitResult")
	}
	return false
}
