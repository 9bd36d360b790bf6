// File: database/repository/slot/crud.go
package slotRepo

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"medilink/database"
	"medilink/models"
	"medilink/utils"
)

// CreateManyIfNoOverlap re-runs the overlap check inside the transaction that
// performs the insert. Two racing publishes for intersecting windows both
// reach this point; exactly one commits, the other sees the overlap or a
// transient conflict and is rejected.
func (r *mongoSlotRepo) CreateManyIfNoOverlap(ctx context.Context, doctorID string, start, end time.Time, slots []models.AvailabilitySlot) error {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	docs := make([]interface{}, len(slots))
	for i, slot := range slots {
		if slot.ID == "" {
			slot.ID = uuid.New().String()
		}
		docs[i] = slot
	}

	return database.WithTransaction(ctx, r.client, func(sc mongo.SessionContext) error {
		overlap, err := r.anyOverlap(sc, doctorID, start, end)
		if err != nil {
			return err
		}
		if overlap {
			return utils.ConflictErr("availability window overlaps existing slots")
		}
		_, err = r.coll.InsertMany(sc, docs, &options.InsertManyOptions{Ordered: boolPtr(true)})
		return err
	})
}

func (r *mongoSlotRepo) GetByID(ctx context.Context, slotID string) (*models.AvailabilitySlot, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var slot models.AvailabilitySlot
	err := r.coll.FindOne(ctx, bson.M{"id": slotID}).Decode(&slot)
	if err == mongo.ErrNoDocuments {
		return nil, utils.NotFoundErr("slot %s not found", slotID)
	}
	if err != nil {
		return nil, err
	}
	return &slot, nil
}

// DeleteUnbooked removes a slot only while it is free; a booked slot yields
// Conflict and stays in place.
func (r *mongoSlotRepo) DeleteUnbooked(ctx context.Context, doctorID, slotID string) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	filter := bson.M{"id": slotID, "doctorId": doctorID, "booked": false}
	res, err := r.coll.DeleteOne(ctx, filter)
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		// Distinguish a missing slot from a booked one.
		n, err := r.coll.CountDocuments(ctx, bson.M{"id": slotID, "doctorId": doctorID})
		if err != nil {
			return err
		}
		if n == 0 {
			return utils.NotFoundErr("slot %s not found", slotID)
		}
		return utils.ConflictErr("slot %s is booked and cannot be deleted", slotID)
	}
	return nil
}

func boolPtr(b bool) *bool { return &b }
