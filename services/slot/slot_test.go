package slot

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"medilink/models"
	"medilink/utils"
)

// fakeSlotRepo mirrors the store contract: the overlap check and the insert
// happen under one lock, exactly as the mongo repo runs them in one
// transaction.
type fakeSlotRepo struct {
	mu      sync.Mutex
	slots   []models.AvailabilitySlot
	deleted []string
}

func (f *fakeSlotRepo) CreateManyIfNoOverlap(_ context.Context, doctorID string, start, end time.Time, slots []models.AvailabilitySlot) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, s := range f.slots {
		if s.DoctorID == doctorID && start.Before(s.End) && end.After(s.Start) {
			return utils.ConflictErr("availability window overlaps existing slots")
		}
	}
	f.slots = append(f.slots, slots...)
	return nil
}

func (f *fakeSlotRepo) GetByID(_ context.Context, slotID string) (*models.AvailabilitySlot, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.slots {
		if f.slots[i].ID == slotID {
			return &f.slots[i], nil
		}
	}
	return nil, utils.NotFoundErr("slot %s not found", slotID)
}

func (f *fakeSlotRepo) ListByDoctor(_ context.Context, doctorID string, from, to time.Time) ([]models.AvailabilitySlot, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.AvailabilitySlot
	for _, s := range f.slots {
		if s.DoctorID == doctorID && !s.Start.Before(from) && s.Start.Before(to) {
			out = append(out, s)
		}
	}
	return out, nil
}

func (f *fakeSlotRepo) ListAvailableByDoctor(_ context.Context, doctorID string, from time.Time) ([]models.AvailabilitySlot, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.AvailabilitySlot
	for _, s := range f.slots {
		if s.DoctorID == doctorID && !s.Booked && !s.Start.Before(from) {
			out = append(out, s)
		}
	}
	return out, nil
}

func (f *fakeSlotRepo) DeleteUnbooked(_ context.Context, doctorID, slotID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i, s := range f.slots {
		if s.ID != slotID {
			continue
		}
		if s.DoctorID != doctorID {
			return utils.NotFoundErr("slot %s not found", slotID)
		}
		if s.Booked {
			return utils.ConflictErr("slot %s is booked", slotID)
		}
		f.slots = append(f.slots[:i], f.slots[i+1:]...)
		f.deleted = append(f.deleted, slotID)
		return nil
	}
	return utils.NotFoundErr("slot %s not found", slotID)
}

func TestPublishSplitsIntoHalfHourSlots(t *testing.T) {
	repo := &fakeSlotRepo{}
	svc := &DefaultSlotService{Repo: repo}

	start := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	end := start.Add(2 * time.Hour)

	slots, err := svc.Publish(context.Background(), "doc-1", start, end)
	require.NoError(t, err)
	require.Len(t, slots, 4)

	for i, s := range slots {
		assert.Equal(t, "doc-1", s.DoctorID)
		assert.Equal(t, start.Add(time.Duration(i)*models.SlotDuration), s.Start)
		assert.Equal(t, models.SlotDuration, s.End.Sub(s.Start))
		assert.False(t, s.Booked)
		assert.NotEmpty(t, s.ID)
	}
	assert.Len(t, repo.slots, 4)
}

func TestPublishRejectsInvertedWindow(t *testing.T) {
	svc := &DefaultSlotService{Repo: &fakeSlotRepo{}}

	start := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	_, err := svc.Publish(context.Background(), "doc-1", start, start)
	require.Error(t, err)
	assert.True(t, utils.IsCode(err, utils.CodeConflict))

	_, err = svc.Publish(context.Background(), "doc-1", start, start.Add(-time.Hour))
	require.Error(t, err)
	assert.True(t, utils.IsCode(err, utils.CodeConflict))
}

func TestPublishRejectsUnalignedWindow(t *testing.T) {
	svc := &DefaultSlotService{Repo: &fakeSlotRepo{}}

	start := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	_, err := svc.Publish(context.Background(), "doc-1", start, start.Add(45*time.Minute))
	require.Error(t, err)
	assert.True(t, utils.IsCode(err, utils.CodeConflict))
}

func TestPublishRejectsOverlapEntirely(t *testing.T) {
	start := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	repo := &fakeSlotRepo{slots: []models.AvailabilitySlot{
		{ID: "s1", DoctorID: "doc-1", Start: start.Add(time.Hour), End: start.Add(90 * time.Minute)},
	}}
	svc := &DefaultSlotService{Repo: repo}

	// The new window intersects s1 in its last half hour.
	_, err := svc.Publish(context.Background(), "doc-1", start, start.Add(90*time.Minute))
	require.Error(t, err)
	assert.True(t, utils.IsCode(err, utils.CodeConflict))
	assert.Len(t, repo.slots, 1, "no partial publish on overlap")
}

func TestPublishConcurrentSameWindowSingleWinner(t *testing.T) {
	repo := &fakeSlotRepo{}
	svc := &DefaultSlotService{Repo: repo}

	start := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	end := start.Add(time.Hour)

	const publishers = 8
	var wg sync.WaitGroup
	errs := make([]error, publishers)
	for i := 0; i < publishers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = svc.Publish(context.Background(), "doc-1", start, end)
		}(i)
	}
	wg.Wait()

	wins := 0
	for _, err := range errs {
		if err == nil {
			wins++
		} else {
			assert.True(t, utils.IsCode(err, utils.CodeConflict))
		}
	}
	assert.Equal(t, 1, wins, "exactly one racing publish may commit")
	assert.Len(t, repo.slots, 2, "the winning window is the only one persisted")
}

func TestDeleteBookedSlotConflicts(t *testing.T) {
	repo := &fakeSlotRepo{slots: []models.AvailabilitySlot{
		{ID: "s1", DoctorID: "doc-1", Booked: true},
		{ID: "s2", DoctorID: "doc-1", Booked: false},
	}}
	svc := &DefaultSlotService{Repo: repo}

	err := svc.Delete(context.Background(), "doc-1", "s1")
	require.Error(t, err)
	assert.True(t, utils.IsCode(err, utils.CodeConflict))

	require.NoError(t, svc.Delete(context.Background(), "doc-1", "s2"))
	assert.Equal(t, []string{"s2"}, repo.deleted)
}
