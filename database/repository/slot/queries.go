// File: database/repository/slot/queries.go
package slotRepo

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"

	"medilink/models"
)

func (r *mongoSlotRepo) ListByDoctor(ctx context.Context, doctorID string, from, to time.Time) ([]models.AvailabilitySlot, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	filter := bson.M{
		"doctorId": doctorID,
		"start":    bson.M{"$gte": from},
		"end":      bson.M{"$lte": to},
	}
	cursor, err := r.coll.Find(ctx, filter, options.Find().SetSort(bson.M{"start": 1}))
	if err != nil {
		return nil, fmt.Errorf("failed to fetch slots: %w", err)
	}
	defer cursor.Close(ctx)

	var slots []models.AvailabilitySlot
	if err := cursor.All(ctx, &slots); err != nil {
		return nil, fmt.Errorf("error decoding slots: %w", err)
	}
	return slots, nil
}

func (r *mongoSlotRepo) ListAvailableByDoctor(ctx context.Context, doctorID string, from time.Time) ([]models.AvailabilitySlot, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	filter := bson.M{
		"doctorId": doctorID,
		"booked":   false,
		"start":    bson.M{"$gte": from},
	}
	cursor, err := r.coll.Find(ctx, filter, options.Find().SetSort(bson.M{"start": 1}))
	if err != nil {
		return nil, fmt.Errorf("failed to fetch available slots: %w", err)
	}
	defer cursor.Close(ctx)

	var slots []models.AvailabilitySlot
	if err := cursor.All(ctx, &slots); err != nil {
		return nil, fmt.Errorf("error decoding slots: %w", err)
	}
	return slots, nil
}

// anyOverlap reports whether any existing slot for the doctor intersects the
// half-open interval [start,end): newStart < existingEnd && newEnd > existingStart.
// Callers inside a transaction pass their session context so the check reads
// the transaction's snapshot.
func (r *mongoSlotRepo) anyOverlap(ctx context.Context, doctorID string, start, end time.Time) (bool, error) {
	filter := bson.M{
		"doctorId": doctorID,
		"start":    bson.M{"$lt": end},
		"end":      bson.M{"$gt": start},
	}
	n, err := r.coll.CountDocuments(ctx, filter, options.Count().SetLimit(1))
	if err != nil {
		return false, fmt.Errorf("overlap check failed: %w", err)
	}
	return n > 0, nil
}
