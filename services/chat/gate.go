package chat

import (
	"context"
	"time"

	appointmentRepo "medilink/database/repository/appointment"
	"medilink/models"
	"medilink/utils"
)

// SendGrace is the window after the scheduled end during which sending
// messages is still permitted.
const SendGrace = 10 * time.Minute

// CanSend is the send-permission predicate: the session must be in progress
// and now must sit inside [scheduledStart, scheduledEnd + grace]. It is pure
// and must be re-evaluated on every send attempt; scheduledEnd can move
// mid-session when an extension is granted, so the verdict is never cacheable.
func CanSend(appt *models.Appointment, now time.Time) bool {
	if appt.Status != models.StatusInProgress {
		return false
	}
	return !now.Before(appt.ScheduledStart) && !now.After(appt.ScheduledEnd.Add(SendGrace))
}

// CanRead is unconditional for a participant of the appointment's chat room,
// whatever the status.
func CanRead(appt *models.Appointment, userID string) bool {
	return appt.Participant(userID)
}

// ChatAccessService computes the communication-gate verdict the chat
// subsystem consults before accepting a message.
type ChatAccessService interface {
	Authorize(ctx context.Context, callerID string, callerRole models.Role, appointmentID string) (*models.ChatAccess, error)
	LinkRoom(ctx context.Context, callerID string, callerRole models.Role, appointmentID, roomID string) error
}

// DefaultChatAccessService is the production implementation.
type DefaultChatAccessService struct {
	Repo appointmentRepo.AppointmentRepository
	Now  func() time.Time // nil means time.Now
}

func (s *DefaultChatAccessService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

// Authorize loads the appointment and evaluates both gate predicates at this
// instant. Non-participants get Unauthorized rather than a read-only verdict.
func (s *DefaultChatAccessService) Authorize(ctx context.Context, callerID string, callerRole models.Role, appointmentID string) (*models.ChatAccess, error) {
	appt, err := s.Repo.GetByID(ctx, appointmentID)
	if err != nil {
		return nil, err
	}
	if callerRole != models.RoleAdmin && !appt.Participant(callerID) {
		return nil, utils.UnauthorizedErr("caller is not a participant of appointment %s", appointmentID)
	}

	now := s.now()
	return &models.ChatAccess{
		AppointmentID: appt.ID,
		RoomID:        appt.ChatRoomID,
		CanSend:       CanSend(appt, now),
		CanRead:       true,
		CheckedAt:     now,
	}, nil
}

// LinkRoom records the external chat room backing this appointment's session.
func (s *DefaultChatAccessService) LinkRoom(ctx context.Context, callerID string, callerRole models.Role, appointmentID, roomID string) error {
	appt, err := s.Repo.GetByID(ctx, appointmentID)
	if err != nil {
		return err
	}
	if callerRole != models.RoleAdmin && !appt.Participant(callerID) {
		return utils.UnauthorizedErr("caller is not a participant of appointment %s", appointmentID)
	}
	return s.Repo.LinkChatRoom(ctx, appointmentID, roomID)
}
