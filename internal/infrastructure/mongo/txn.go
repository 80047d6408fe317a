package mongo

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/mongo"

	"github.com/kantineguiden/services/api/internal/registry/domain"
)

// maxTxnAttempts bounds retries of a contended transaction before the
// failure surfaces as domain.ErrTransactionConflict.
const maxTxnAttempts = 3

// transient error labels the server attaches to aborted-but-retryable
// transactions.
const (
	labelTransientTransaction = "TransientTransactionError"
	labelUnknownCommitResult  = "UnknownTransactionCommitResult"
)

// runTransaction executes fn inside one session transaction, retrying at
// most maxTxnAttempts times on transient conflicts. Every retry re-runs fn
// against a freshly read base state, so derived aggregates cannot drift
// under concurrent commits.
func runTransaction(ctx context.Context, client *mongo.Client, onRetry func(), fn func(mongo.SessionContext) error) error {
	session, err := client.StartSession()
	if err != nil {
		return err
	}
	defer session.EndSession(ctx)

	var lastErr error
	for attempt := 1; attempt <= maxTxnAttempts; attempt++ {
		err := mongo.WithSession(ctx, session, func(sc mongo.SessionContext) error {
			if err := session.StartTransaction(); err != nil {
				return err
			}
			if err := fn(sc); err != nil {
				_ = session.AbortTransaction(sc)
				return err
			}
			return session.CommitTransaction(sc)
		})
		if err == nil {
			return nil
		}
		if !isTransient(err) {
			return err
		}
		lastErr = err
		if onRetry != nil {
			onRetry()
		}
	}
	return fmt.Errorf("%w: %v", domain.ErrTransactionConflict, lastErr)
}

// isTransient reports whether the error carries a retryable transaction
// label.
func isTransient(err error) bool {
	var serverErr mongo.ServerError
	if !errors.As(err, &serverErr) {
		return false
	}
	return serverErr.HasErrorLabel(labelTransientTransaction) ||
		serverErr.HasErrorLabel(labelUnknownCommitResult)
}
