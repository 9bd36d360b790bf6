package models

// Logical notification events emitted by the engine. Delivery transport is
// the notifier's concern.
const (
	EventAppointmentConfirmed = "appointment_confirmed"
	EventAppointmentCancelled = "appointment_cancelled"
	EventAppointmentNoShow    = "appointment_no_show"
	EventAppointmentReminder  = "appointment_reminder"
	EventExtensionRequested   = "extension_requested"
	EventExtensionGranted     = "extension_granted"
	EventRefundProcessed      = "refund_processed"
)

// ReminderPayload is the asynq task payload for a scheduled appointment reminder.
type ReminderPayload struct {
	AppointmentID string `json:"appointmentId"`
	Target        string `json:"target"` // "patient" or "doctor"
	UserID        string `json:"userId"`
	Title         string `json:"title"`
	Body          string `json:"body"`
	FireDate      string `json:"fireDate"`
}
