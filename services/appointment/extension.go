package appointment

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"medilink/models"
	"medilink/utils"
)

// Session extensions add one fixed slot length to the scheduled end.
const ExtensionIncrement = models.SlotDuration

// RequestExtension flips the one-shot extension flag while the session is in
// progress. Exactly one of two concurrent requests wins; the loser gets
// AlreadyRequested. There is no reject path: an unanswered request simply
// dies with the session.
func (s *DefaultAppointmentService) RequestExtension(ctx context.Context, callerID string, callerRole models.Role, appointmentID string) (*models.Appointment, error) {
	appt, err := s.Repo.GetByID(ctx, appointmentID)
	if err != nil {
		return nil, err
	}
	if callerRole != models.RoleAdmin && !appt.Participant(callerID) {
		return nil, utils.UnauthorizedErr("caller is not a participant of appointment %s", appointmentID)
	}

	updated, err := s.Repo.RequestExtension(ctx, appointmentID, callerID)
	if err != nil {
		return nil, err
	}

	logger := utils.GetLogger()
	logger.Info("extension requested",
		zap.String("appointmentId", appointmentID),
		zap.String("requestedBy", callerID))

	if s.Notifier != nil {
		data := map[string]string{"event": models.EventExtensionRequested, "appointmentId": appointmentID}
		title, body := "Extension requested", "The other party asked to extend this session by 30 minutes."
		var pushErr error
		if callerID == updated.PatientID {
			pushErr = s.Notifier.SendDoctorPush(ctx, updated.DoctorID, title, body, data)
		} else {
			pushErr = s.Notifier.SendPatientPush(ctx, updated.PatientID, title, body, data)
		}
		if pushErr != nil {
			logger.Warn("failed to notify counterpart of extension request", zap.Error(pushErr))
		}
	}
	return updated, nil
}

// AcceptExtension grants a pending extension: the patient is debited the
// doctor's current session rate and the scheduled end moves out by one slot
// length, atomically. An insufficient balance aborts with no time change.
// Only the counterpart of the requester may accept.
func (s *DefaultAppointmentService) AcceptExtension(ctx context.Context, callerID string, callerRole models.Role, appointmentID string) (*models.Appointment, error) {
	appt, err := s.Repo.GetByID(ctx, appointmentID)
	if err != nil {
		return nil, err
	}
	if callerRole != models.RoleAdmin {
		if !appt.Participant(callerID) {
			return nil, utils.UnauthorizedErr("caller is not a participant of appointment %s", appointmentID)
		}
		if appt.ExtensionRequested && appt.ExtensionRequestedBy == callerID {
			return nil, utils.UnauthorizedErr("requester may not accept their own extension")
		}
	}

	doctor, err := s.Profiles.GetDoctor(ctx, appt.DoctorID)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	fee := &models.Transaction{
		ID:            uuid.New().String(),
		UserID:        appt.PatientID,
		Role:          models.RolePatient,
		Type:          models.TxnPayment,
		Amount:        doctor.SessionRate,
		Status:        models.TxnSuccess,
		Reason:        "session extension fee",
		AppointmentID: appt.ID,
		CreatedAt:     now,
		CompletedAt:   &now,
	}

	updated, err := s.Repo.AcceptExtension(ctx, appointmentID, fee, ExtensionIncrement)
	if err != nil {
		return nil, err
	}

	logger := utils.GetLogger()
	logger.Info("extension granted",
		zap.String("appointmentId", appointmentID),
		zap.Time("newScheduledEnd", updated.ScheduledEnd),
		zap.Float64("fee", fee.Amount))

	if s.Notifier != nil {
		if err := s.Notifier.NotifyAppointmentEvent(ctx, updated,
			models.EventExtensionGranted,
			"Session extended",
			"This session has been extended by 30 minutes.",
		); err != nil {
			logger.Warn("failed to push extension grant", zap.Error(err))
		}
	}
	return updated, nil
}
