package slot

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"medilink/models"
	"medilink/utils"
)

// Publish splits [start,end) into fixed 30-minute slots for the doctor. The
// whole request is rejected when any resulting sub-interval overlaps an
// existing slot; publishing is never partial.
func (s *DefaultSlotService) Publish(ctx context.Context, doctorID string, start, end time.Time) ([]models.AvailabilitySlot, error) {
	logger := utils.GetLogger()

	if !start.Before(end) {
		return nil, utils.ConflictErr("availability window start must be before end")
	}
	if end.Sub(start)%models.SlotDuration != 0 {
		return nil, utils.ConflictErr("availability window must be a multiple of %s", models.SlotDuration)
	}

	now := time.Now()
	var slots []models.AvailabilitySlot
	for cur := start; cur.Before(end); cur = cur.Add(models.SlotDuration) {
		slots = append(slots, models.AvailabilitySlot{
			ID:        uuid.New().String(),
			DoctorID:  doctorID,
			Start:     cur,
			End:       cur.Add(models.SlotDuration),
			Booked:    false,
			CreatedAt: now,
		})
	}

	// The overlap check lives inside the repository transaction that inserts
	// the slots, so racing publishes for intersecting windows cannot both land.
	if err := s.Repo.CreateManyIfNoOverlap(ctx, doctorID, start, end, slots); err != nil {
		return nil, err
	}

	logger.Info("published availability slots",
		zap.String("doctorId", doctorID),
		zap.Int("count", len(slots)))
	return slots, nil
}

func (s *DefaultSlotService) ListByDoctor(ctx context.Context, doctorID string, from, to time.Time) ([]models.AvailabilitySlot, error) {
	return s.Repo.ListByDoctor(ctx, doctorID, from, to)
}

func (s *DefaultSlotService) ListAvailable(ctx context.Context, doctorID string, from time.Time) ([]models.AvailabilitySlot, error) {
	return s.Repo.ListAvailableByDoctor(ctx, doctorID, from)
}

// Delete removes an unbooked slot; booked slots yield Conflict and must be
// cancelled through the appointment lifecycle instead.
func (s *DefaultSlotService) Delete(ctx context.Context, doctorID, slotID string) error {
	return s.Repo.DeleteUnbooked(ctx, doctorID, slotID)
}
