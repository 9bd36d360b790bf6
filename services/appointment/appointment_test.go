package appointment

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"medilink/models"
	"medilink/utils"
)

func TestCreateBooksSlotAndHoldsPayment(t *testing.T) {
	h := newHarness()
	ctx := context.Background()

	appt, err := h.svc.Create(ctx, h.patient.ID, models.CreateAppointmentRequest{
		SlotID:     h.slot.ID,
		ReasonNote: "persistent headaches",
	})
	require.NoError(t, err)

	assert.Equal(t, models.StatusRequested, appt.Status)
	assert.Equal(t, h.doctor.SessionRate, appt.Price, "price copied from the doctor's current rate")
	assert.Equal(t, models.PaymentHeld, appt.PaymentStatus)
	assert.Equal(t, h.slot.Start, appt.ScheduledStart)
	assert.Equal(t, h.slot.End, appt.ScheduledEnd)

	assert.True(t, h.b.slots[h.slot.ID].Booked)
	assert.Equal(t, appt.ID, h.b.slots[h.slot.ID].AppointmentID)
	assert.Equal(t, float64(150), h.b.patients[h.patient.ID].WalletBalance)

	require.Len(t, h.b.txns, 1)
	assert.Equal(t, models.TxnPayment, h.b.txns[0].Type)
	assert.Equal(t, appt.Price, h.b.txns[0].Amount)
	assert.Equal(t, appt.ID, h.b.txns[0].AppointmentID)
}

func TestCreateInsufficientFundsLeavesNothingBehind(t *testing.T) {
	h := newHarness()
	h.patient.WalletBalance = 10

	_, err := h.svc.Create(context.Background(), h.patient.ID, models.CreateAppointmentRequest{SlotID: h.slot.ID})
	require.Error(t, err)
	assert.True(t, utils.IsCode(err, utils.CodeInsufficientFunds))

	assert.False(t, h.b.slots[h.slot.ID].Booked, "slot stays free on aborted booking")
	assert.Equal(t, float64(10), h.b.patients[h.patient.ID].WalletBalance)
	assert.Empty(t, h.b.appts)
	assert.Empty(t, h.b.txns)
}

func TestCreateBookedSlotIsUnavailable(t *testing.T) {
	h := newHarness()
	h.slot.Booked = true

	_, err := h.svc.Create(context.Background(), h.patient.ID, models.CreateAppointmentRequest{SlotID: h.slot.ID})
	require.Error(t, err)
	assert.True(t, utils.IsCode(err, utils.CodeSlotUnavailable))
}

func TestCreateConcurrentSameSlotSingleWinner(t *testing.T) {
	h := newHarness()
	ctx := context.Background()

	const bookers = 8
	patients := make([]*models.PatientProfile, bookers)
	for i := range patients {
		p := &models.PatientProfile{ID: fmt.Sprintf("pat-%d", i+10), Name: "racer", WalletBalance: 200}
		h.b.patients[p.ID] = p
		patients[i] = p
	}

	var wg sync.WaitGroup
	errs := make([]error, bookers)
	for i := 0; i < bookers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = h.svc.Create(ctx, patients[i].ID, models.CreateAppointmentRequest{SlotID: h.slot.ID})
		}(i)
	}
	wg.Wait()

	wins := 0
	for _, err := range errs {
		if err == nil {
			wins++
		} else {
			assert.True(t, utils.IsCode(err, utils.CodeSlotUnavailable))
		}
	}
	assert.Equal(t, 1, wins, "exactly one racing booking may claim the slot")

	assert.True(t, h.b.slots[h.slot.ID].Booked)
	require.Len(t, h.b.appts, 1)
	require.Len(t, h.b.txns, 1)
	assert.Equal(t, models.TxnPayment, h.b.txns[0].Type)

	debited := 0
	for _, p := range patients {
		if p.WalletBalance == 150 {
			debited++
		} else {
			assert.Equal(t, float64(200), p.WalletBalance)
		}
	}
	assert.Equal(t, 1, debited, "only the winner is debited")
}

func TestGetEnforcesParticipation(t *testing.T) {
	h := newHarness()
	ctx := context.Background()
	appt := h.book(ctx)

	_, err := h.svc.Get(ctx, h.patient.ID, models.RolePatient, appt.ID)
	assert.NoError(t, err)
	_, err = h.svc.Get(ctx, h.doctor.ID, models.RoleDoctor, appt.ID)
	assert.NoError(t, err)
	_, err = h.svc.Get(ctx, "admin-9", models.RoleAdmin, appt.ID)
	assert.NoError(t, err)

	_, err = h.svc.Get(ctx, "stranger", models.RolePatient, appt.ID)
	require.Error(t, err)
	assert.True(t, utils.IsCode(err, utils.CodeUnauthorized))
}

func TestUpdateStatusRejectsOffTableTransitions(t *testing.T) {
	h := newHarness()
	ctx := context.Background()
	appt := h.book(ctx)

	// Patient cannot confirm their own request.
	_, err := h.svc.UpdateStatus(ctx, h.patient.ID, models.RolePatient, appt.ID,
		models.UpdateStatusRequest{Status: "CONFIRMED"})
	require.Error(t, err)
	assert.True(t, utils.IsCode(err, utils.CodeInvalidTransition))

	// Unknown status strings are off-table by definition.
	_, err = h.svc.UpdateStatus(ctx, h.doctor.ID, models.RoleDoctor, appt.ID,
		models.UpdateStatusRequest{Status: "PAUSED"})
	require.Error(t, err)
	assert.True(t, utils.IsCode(err, utils.CodeInvalidTransition))

	// Outsiders are unauthorized before the table is even consulted.
	_, err = h.svc.UpdateStatus(ctx, "stranger", models.RoleDoctor, appt.ID,
		models.UpdateStatusRequest{Status: "CONFIRMED"})
	require.Error(t, err)
	assert.True(t, utils.IsCode(err, utils.CodeUnauthorized))

	// State unchanged throughout.
	assert.Equal(t, models.StatusRequested, h.b.appts[appt.ID].Status)
}

func TestDoctorConfirmSchedulesReminders(t *testing.T) {
	h := newHarness()
	ctx := context.Background()
	appt := h.book(ctx)

	updated, err := h.svc.UpdateStatus(ctx, h.doctor.ID, models.RoleDoctor, appt.ID,
		models.UpdateStatusRequest{Status: "confirmed"})
	require.NoError(t, err)
	assert.Equal(t, models.StatusConfirmed, updated.Status)

	// One reminder per participant.
	assert.Len(t, h.queue.tasks, 2)
}

func TestPatientCancelReleasesSlotAndRaisesRefund(t *testing.T) {
	h := newHarness()
	ctx := context.Background()
	appt := h.book(ctx)
	h.force(appt.ID, models.StatusConfirmed)

	updated, err := h.svc.UpdateStatus(ctx, h.patient.ID, models.RolePatient, appt.ID,
		models.UpdateStatusRequest{Status: "CANCELLED_PATIENT", ReasonNote: "feeling better"})
	require.NoError(t, err)

	assert.Equal(t, models.StatusCancelledPatient, updated.Status)
	assert.Equal(t, models.PaymentRefundPending, updated.PaymentStatus)
	assert.False(t, h.b.slots[h.slot.ID].Booked, "slot released with the cancellation")

	require.Len(t, h.b.refunds, 1)
	refund := h.b.refunds[0]
	assert.Equal(t, models.RefundRequested, refund.Status)
	assert.Equal(t, appt.Price, refund.Amount)
	assert.Equal(t, h.b.txns[0].ID, refund.OriginalTransactionID)
	assert.Equal(t, h.patient.ID, refund.UserID)
}

func TestDoctorStartStampsActualStart(t *testing.T) {
	h := newHarness()
	ctx := context.Background()
	appt := h.book(ctx)
	h.force(appt.ID, models.StatusUpcoming)

	updated, err := h.svc.UpdateStatus(ctx, h.doctor.ID, models.RoleDoctor, appt.ID,
		models.UpdateStatusRequest{Status: "IN_PROGRESS"})
	require.NoError(t, err)
	assert.Equal(t, models.StatusInProgress, updated.Status)
	require.NotNil(t, updated.ActualStart)
	assert.Equal(t, models.PaymentHeld, updated.PaymentStatus, "payment stays held until completion")
}

func TestCompleteCreditsDoctor(t *testing.T) {
	h := newHarness()
	ctx := context.Background()
	appt := h.book(ctx)
	h.force(appt.ID, models.StatusInProgress)

	updated, err := h.svc.UpdateStatus(ctx, h.doctor.ID, models.RoleDoctor, appt.ID,
		models.UpdateStatusRequest{Status: "COMPLETED"})
	require.NoError(t, err)

	assert.Equal(t, models.StatusCompleted, updated.Status)
	assert.Equal(t, models.PaymentReleased, updated.PaymentStatus)
	require.NotNil(t, updated.ActualEnd)
	assert.Equal(t, appt.Price, h.b.doctors[h.doctor.ID].WalletBalance)

	// Booking debit plus payout credit on the ledger.
	require.Len(t, h.b.txns, 2)
	assert.Equal(t, models.RoleDoctor, h.b.txns[1].Role)
}

func TestTerminalAppointmentIsFrozen(t *testing.T) {
	h := newHarness()
	ctx := context.Background()
	appt := h.book(ctx)
	h.force(appt.ID, models.StatusCompleted)

	for _, target := range []string{"CONFIRMED", "IN_PROGRESS", "CANCELLED_PATIENT", "NO_SHOW"} {
		_, err := h.svc.UpdateStatus(ctx, h.doctor.ID, models.RoleDoctor, appt.ID,
			models.UpdateStatusRequest{Status: target})
		require.Error(t, err, target)
		assert.True(t, utils.IsCode(err, utils.CodeInvalidTransition), target)
	}
	assert.Equal(t, models.StatusCompleted, h.b.appts[appt.ID].Status)
}

func TestMarkOverdueNoShows(t *testing.T) {
	h := newHarness()
	ctx := context.Background()
	appt := h.book(ctx)
	h.force(appt.ID, models.StatusUpcoming)

	// Not yet overdue.
	swept, err := h.svc.MarkOverdueNoShows(ctx, time.Now())
	require.NoError(t, err)
	assert.Zero(t, swept)
	assert.Equal(t, models.StatusUpcoming, h.b.appts[appt.ID].Status)

	// Past the scheduled end the sweep fires.
	swept, err = h.svc.MarkOverdueNoShows(ctx, appt.ScheduledEnd.Add(time.Minute))
	require.NoError(t, err)
	assert.Equal(t, 1, swept)
	assert.Equal(t, models.StatusNoShow, h.b.appts[appt.ID].Status)
	assert.False(t, h.b.slots[h.slot.ID].Booked)
	require.Len(t, h.b.refunds, 1)
	assert.Equal(t, models.RefundRequested, h.b.refunds[0].Status)

	// Idempotent: the appointment no longer matches.
	swept, err = h.svc.MarkOverdueNoShows(ctx, appt.ScheduledEnd.Add(time.Hour))
	require.NoError(t, err)
	assert.Zero(t, swept)
}
