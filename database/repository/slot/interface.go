// File: database/repository/slot/interface.go
package slotRepo

import (
	"context"
	"time"

	"medilink/database"
	"medilink/models"

	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// SlotRepository owns the availability_slots collection. Booking a slot is
// not exposed here: it only ever happens inside the appointment-creation
// transaction (see appointmentRepo.CreateWithSlot).
type SlotRepository interface {
	// CreateManyIfNoOverlap inserts the slots only when nothing for the doctor
	// intersects [start,end); the check and the insert share one transaction
	// so two racing publishes cannot both pass the check.
	CreateManyIfNoOverlap(ctx context.Context, doctorID string, start, end time.Time, slots []models.AvailabilitySlot) error
	GetByID(ctx context.Context, slotID string) (*models.AvailabilitySlot, error)
	ListByDoctor(ctx context.Context, doctorID string, from, to time.Time) ([]models.AvailabilitySlot, error)
	ListAvailableByDoctor(ctx context.Context, doctorID string, from time.Time) ([]models.AvailabilitySlot, error)
	DeleteUnbooked(ctx context.Context, doctorID, slotID string) error
}

type mongoSlotRepo struct {
	client *mongo.Client
	coll   *mongo.Collection
}

// NewMongoSlotRepo constructs a new MongoDB SlotRepository and ensures its
// indexes exist.
func NewMongoSlotRepo() SlotRepository {
	r := &mongoSlotRepo{
		client: database.MongoClient,
		coll:   database.DB().Collection("availability_slots"),
	}
	if err := r.EnsureIndexes(); err != nil {
		zap.L().Warn("failed to ensure slot indexes", zap.Error(err))
	}
	return r
}
