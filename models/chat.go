package models

import "time"

// ChatAccess is the communication-gate verdict handed to the chat subsystem.
// It is computed fresh on every call; the end time can move mid-session via
// an extension, so verdicts must never be cached.
type ChatAccess struct {
	AppointmentID string    `json:"appointmentId"`
	RoomID        string    `json:"roomId,omitempty"`
	CanSend       bool      `json:"canSend"`
	CanRead       bool      `json:"canRead"`
	CheckedAt     time.Time `json:"checkedAt"`
}

// LinkRoomRequest associates an external chat room with an appointment so
// message history groups by room as well as by appointment.
type LinkRoomRequest struct {
	RoomID string `json:"roomId" binding:"required"`
}
