package appointment

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	appointmentRepo "medilink/database/repository/appointment"
	"medilink/models"
	"medilink/services/tasks"
	"medilink/utils"
)

// Create books a free slot for the patient: it claims the slot, debits the
// patient the doctor's current session rate, records the PAYMENT ledger entry
// and inserts the appointment in REQUESTED, all in one transaction. On a lost
// booking race the caller sees SlotUnavailable and nothing is written.
func (s *DefaultAppointmentService) Create(ctx context.Context, patientID string, req models.CreateAppointmentRequest) (*models.Appointment, error) {
	logger := utils.GetLogger()

	slot, err := s.Slots.GetByID(ctx, req.SlotID)
	if err != nil {
		return nil, err
	}
	if slot.Booked {
		return nil, utils.SlotUnavailableErr("slot %s is already booked", slot.ID)
	}

	doctor, err := s.Profiles.GetDoctor(ctx, slot.DoctorID)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	appt := &models.Appointment{
		ID:             uuid.New().String(),
		PatientID:      patientID,
		DoctorID:       slot.DoctorID,
		Status:         models.StatusRequested,
		ScheduledStart: slot.Start,
		ScheduledEnd:   slot.End,
		Price:          doctor.SessionRate,
		PaymentStatus:  models.PaymentHeld,
		SlotID:         slot.ID,
		ReasonNote:     req.ReasonNote,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	payment := &models.Transaction{
		ID:            uuid.New().String(),
		UserID:        patientID,
		Role:          models.RolePatient,
		Type:          models.TxnPayment,
		Amount:        appt.Price,
		Status:        models.TxnSuccess,
		Reason:        "consultation payment",
		AppointmentID: appt.ID,
		CreatedAt:     now,
		CompletedAt:   &now,
	}

	if err := s.Repo.CreateWithSlot(ctx, appt, payment); err != nil {
		return nil, err
	}

	logger.Info("appointment created",
		zap.String("appointmentId", appt.ID),
		zap.String("patientId", patientID),
		zap.String("doctorId", appt.DoctorID),
		zap.Float64("price", appt.Price))

	if s.Notifier != nil {
		if err := s.Notifier.SendDoctorPush(ctx, appt.DoctorID,
			"New appointment request",
			"A patient requested a consultation slot.",
			map[string]string{"event": "appointment_requested", "appointmentId": appt.ID},
		); err != nil {
			logger.Warn("failed to notify doctor of new appointment", zap.Error(err))
		}
	}
	return appt, nil
}

// Get returns the appointment if the caller is one of its participants or an
// admin; anyone else gets Unauthorized, even if the id exists.
func (s *DefaultAppointmentService) Get(ctx context.Context, callerID string, callerRole models.Role, appointmentID string) (*models.Appointment, error) {
	appt, err := s.Repo.GetByID(ctx, appointmentID)
	if err != nil {
		return nil, err
	}
	if callerRole != models.RoleAdmin && !appt.Participant(callerID) {
		return nil, utils.UnauthorizedErr("caller is not a participant of appointment %s", appointmentID)
	}
	return appt, nil
}

func (s *DefaultAppointmentService) ListForUser(ctx context.Context, userID string, role models.Role) ([]models.Appointment, error) {
	if role == models.RoleDoctor {
		return s.Repo.ListByDoctor(ctx, userID)
	}
	return s.Repo.ListByPatient(ctx, userID)
}

// UpdateStatus applies a lifecycle transition after checking the authority
// table for the caller's role on this appointment. Transitions that end the
// appointment release the slot and, when a payment is still held, raise a
// refund request in the same transaction.
func (s *DefaultAppointmentService) UpdateStatus(ctx context.Context, callerID string, callerRole models.Role, appointmentID string, req models.UpdateStatusRequest) (*models.Appointment, error) {
	target, ok := models.ParseAppointmentStatus(req.Status)
	if !ok {
		return nil, utils.InvalidTransitionErr("unknown status %q", req.Status)
	}

	appt, err := s.Repo.GetByID(ctx, appointmentID)
	if err != nil {
		return nil, err
	}

	role := callerRole
	if role != models.RoleAdmin {
		role = appt.RoleOf(callerID)
		if role == "" {
			return nil, utils.UnauthorizedErr("caller is not a participant of appointment %s", appointmentID)
		}
	}
	if !CanTransition(appt.Status, role, target) {
		return nil, utils.InvalidTransitionErr("%s may not move appointment %s from %s to %s",
			role, appointmentID, appt.Status, target)
	}

	if target == models.StatusCompleted {
		return s.complete(ctx, appt)
	}

	eff := appointmentRepo.TransitionEffects{
		To:         target,
		ReasonNote: req.ReasonNote,
	}
	if target == models.StatusInProgress {
		eff.StampActualStart = true
	}
	if target.Terminal() {
		eff.ReleaseSlot = true
		if appt.PaymentStatus == models.PaymentHeld {
			refund, err := s.refundForHeldPayment(ctx, appt)
			if err != nil {
				return nil, err
			}
			eff.Refund = refund
			eff.SetPaymentStatus = models.PaymentRefundPending
		}
	}

	updated, err := s.Repo.Transition(ctx, appointmentID, appt.Status, eff)
	if err != nil {
		return nil, err
	}

	s.afterTransition(ctx, updated)
	return updated, nil
}

// complete credits the doctor the held payment and stamps the actual end, in
// one transaction with the IN_PROGRESS -> COMPLETED move.
func (s *DefaultAppointmentService) complete(ctx context.Context, appt *models.Appointment) (*models.Appointment, error) {
	now := time.Now()
	payout := &models.Transaction{
		ID:            uuid.New().String(),
		UserID:        appt.DoctorID,
		Role:          models.RoleDoctor,
		Type:          models.TxnPayment,
		Amount:        appt.Price,
		Status:        models.TxnSuccess,
		Reason:        "consultation payout",
		AppointmentID: appt.ID,
		CreatedAt:     now,
		CompletedAt:   &now,
	}
	updated, err := s.Repo.CompleteWithPayout(ctx, appt.ID, payout)
	if err != nil {
		return nil, err
	}
	utils.GetLogger().Info("appointment completed",
		zap.String("appointmentId", updated.ID),
		zap.Float64("payout", payout.Amount))
	return updated, nil
}

// MarkOverdueNoShows transitions every UPCOMING appointment whose scheduled
// end is behind now into NO_SHOW. Appointments that change state concurrently
// are skipped; they will not match the next sweep either.
func (s *DefaultAppointmentService) MarkOverdueNoShows(ctx context.Context, now time.Time) (int, error) {
	logger := utils.GetLogger()

	overdue, err := s.Repo.ListOverdueUpcoming(ctx, now)
	if err != nil {
		return 0, err
	}

	swept := 0
	for i := range overdue {
		appt := &overdue[i]
		eff := appointmentRepo.TransitionEffects{
			To:          models.StatusNoShow,
			ReleaseSlot: true,
		}
		if appt.PaymentStatus == models.PaymentHeld {
			refund, err := s.refundForHeldPayment(ctx, appt)
			if err != nil {
				logger.Warn("sweep: could not build refund",
					zap.String("appointmentId", appt.ID), zap.Error(err))
				continue
			}
			eff.Refund = refund
			eff.SetPaymentStatus = models.PaymentRefundPending
		}

		updated, err := s.Repo.Transition(ctx, appt.ID, models.StatusUpcoming, eff)
		if err != nil {
			if utils.IsCode(err, utils.CodeConflict) {
				continue
			}
			logger.Warn("sweep: transition failed",
				zap.String("appointmentId", appt.ID), zap.Error(err))
			continue
		}
		swept++
		s.afterTransition(ctx, updated)
	}

	if swept > 0 {
		logger.Info("no-show sweep finished", zap.Int("swept", swept))
	}
	return swept, nil
}

// refundForHeldPayment builds the REQUESTED refund record reversing the
// appointment's held payment. The record is inserted by the transition
// transaction, never here.
func (s *DefaultAppointmentService) refundForHeldPayment(ctx context.Context, appt *models.Appointment) (*models.Refund, error) {
	payment, err := s.Wallet.GetPaymentByAppointment(ctx, appt.ID)
	if err != nil {
		return nil, err
	}
	return &models.Refund{
		ID:                    uuid.New().String(),
		UserID:                appt.PatientID,
		Role:                  models.RolePatient,
		OriginalTransactionID: payment.ID,
		AppointmentID:         appt.ID,
		Amount:                appt.Price,
		Status:                models.RefundRequested,
		RequestedAt:           time.Now(),
	}, nil
}

// afterTransition fires the best-effort side effects of a committed
// transition: pushes to both parties and reminder scheduling. Failures are
// logged and never unwind the transition.
func (s *DefaultAppointmentService) afterTransition(ctx context.Context, appt *models.Appointment) {
	logger := utils.GetLogger()

	var event, title, body string
	switch appt.Status {
	case models.StatusConfirmed:
		event = models.EventAppointmentConfirmed
		title = "Appointment confirmed"
		body = "Your consultation has been confirmed."
	case models.StatusRejected, models.StatusCancelledPatient, models.StatusCancelledDoctor:
		event = models.EventAppointmentCancelled
		title = "Appointment cancelled"
		body = "Your consultation was cancelled."
	case models.StatusNoShow:
		event = models.EventAppointmentNoShow
		title = "Appointment missed"
		body = "The consultation window passed without a session."
	}

	if event != "" && s.Notifier != nil {
		if err := s.Notifier.NotifyAppointmentEvent(ctx, appt, event, title, body); err != nil {
			logger.Warn("failed to push appointment event",
				zap.String("appointmentId", appt.ID),
				zap.String("event", event),
				zap.Error(err))
		}
	}

	if appt.Status == models.StatusConfirmed {
		s.scheduleReminders(appt)
	}
}

// scheduleReminders enqueues a delayed push for each participant ahead of the
// scheduled start. Nothing is scheduled when the lead time already passed.
func (s *DefaultAppointmentService) scheduleReminders(appt *models.Appointment) {
	if s.Queue == nil {
		return
	}
	logger := utils.GetLogger()

	fireAt := appt.ScheduledStart.Add(-tasks.ReminderLeadTime)
	if fireAt.Before(time.Now()) {
		return
	}

	targets := []struct {
		target string
		userID string
	}{
		{string(models.RolePatient), appt.PatientID},
		{string(models.RoleDoctor), appt.DoctorID},
	}
	for _, t := range targets {
		payload := models.ReminderPayload{
			AppointmentID: appt.ID,
			Target:        t.target,
			UserID:        t.userID,
			Title:         "Upcoming consultation",
			Body:          "Your consultation starts in 30 minutes.",
			FireDate:      fireAt.Format(time.RFC3339),
		}
		task, opts, err := tasks.NewReminderTask(payload, fireAt)
		if err != nil {
			logger.Warn("failed to build reminder task", zap.Error(err))
			continue
		}
		if _, err := s.Queue.Enqueue(task, opts...); err != nil {
			logger.Warn("failed to enqueue reminder",
				zap.String("appointmentId", appt.ID),
				zap.String("target", t.target),
				zap.Error(err))
		}
	}
}
