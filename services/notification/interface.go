package notification

import (
	"context"
	"fmt"

	profileRepo "medilink/database/repository/profile"
	"medilink/models"
	"medilink/utils"

	"firebase.google.com/go/v4/messaging"
)

// NotificationService defines methods for sending FCM pushes to patients and
// doctors. Delivery failures are logged by callers and never abort the
// lifecycle operation that triggered them.
type NotificationService interface {
	SendPatientPush(ctx context.Context, patientID, title, body string, data map[string]string) error
	SendDoctorPush(ctx context.Context, doctorID, title, body string, data map[string]string) error
	NotifyAppointmentEvent(ctx context.Context, appt *models.Appointment, event, title, body string) error
}

// DefaultNotificationService is the production implementation.
type DefaultNotificationService struct {
	profiles profileRepo.ProfileRepository
}

func NewDefaultNotificationService(profiles profileRepo.ProfileRepository) (*DefaultNotificationService, error) {
	if profiles == nil {
		return nil, fmt.Errorf("notification service initialization error: profile repository is nil")
	}
	return &DefaultNotificationService{profiles: profiles}, nil
}

// SendPatientPush looks up a patient's FCM token and sends a push.
func (s *DefaultNotificationService) SendPatientPush(
	ctx context.Context,
	patientID, title, body string,
	data map[string]string,
) error {
	p, err := s.profiles.GetPatient(ctx, patientID)
	if err != nil {
		return fmt.Errorf("SendPatientPush: could not find patient %s: %w", patientID, err)
	}
	return s.send(ctx, p.FCMToken, patientID, title, body, data, string(models.RolePatient))
}

// SendDoctorPush looks up a doctor's FCM token and sends a push.
func (s *DefaultNotificationService) SendDoctorPush(
	ctx context.Context,
	doctorID, title, body string,
	data map[string]string,
) error {
	d, err := s.profiles.GetDoctor(ctx, doctorID)
	if err != nil {
		return fmt.Errorf("SendDoctorPush: could not find doctor %s: %w", doctorID, err)
	}
	return s.send(ctx, d.FCMToken, doctorID, title, body, data, string(models.RoleDoctor))
}

// NotifyAppointmentEvent pushes the same event to both participants of an
// appointment, tagging the payload with the appointment id.
func (s *DefaultNotificationService) NotifyAppointmentEvent(
	ctx context.Context,
	appt *models.Appointment,
	event, title, body string,
) error {
	data := map[string]string{
		"event":         event,
		"appointmentId": appt.ID,
	}
	patientErr := s.SendPatientPush(ctx, appt.PatientID, title, body, data)
	doctorErr := s.SendDoctorPush(ctx, appt.DoctorID, title, body, data)
	if patientErr != nil {
		return patientErr
	}
	return doctorErr
}

func (s *DefaultNotificationService) send(
	ctx context.Context,
	token, recipientID, title, body string,
	data map[string]string,
	role string,
) error {
	if token == "" {
		return fmt.Errorf("recipient %s has no FCM token", recipientID)
	}
	if data == nil {
		data = map[string]string{}
	}
	if _, ok := data["role"]; !ok {
		data["role"] = role
	}

	msg := &messaging.Message{
		Token: token,
		Notification: &messaging.Notification{
			Title: title,
			Body:  body,
		},
		Data: data,
	}

	if _, err := utils.FCMClient.Send(ctx, msg); err != nil {
		return fmt.Errorf("failed to send FCM message to %s: %w", recipientID, err)
	}
	return nil
}
