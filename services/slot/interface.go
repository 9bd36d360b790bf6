package slot

import (
	"context"
	"time"

	slotRepo "medilink/database/repository/slot"
	"medilink/models"
)

// SlotService owns publishing, listing and deleting a doctor's bookable
// windows. Booking itself happens through the appointment service.
type SlotService interface {
	Publish(ctx context.Context, doctorID string, start, end time.Time) ([]models.AvailabilitySlot, error)
	ListByDoctor(ctx context.Context, doctorID string, from, to time.Time) ([]models.AvailabilitySlot, error)
	ListAvailable(ctx context.Context, doctorID string, from time.Time) ([]models.AvailabilitySlot, error)
	Delete(ctx context.Context, doctorID, slotID string) error
}

// DefaultSlotService implements SlotService.
type DefaultSlotService struct {
	Repo slotRepo.SlotRepository
}
