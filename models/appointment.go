package models

import (
	"strings"
	"time"
)

// AppointmentStatus is the closed set of consultation lifecycle states.
// Raw input is normalized once at the HTTP boundary via ParseAppointmentStatus;
// no other code compares raw strings.
type AppointmentStatus string

const (
	StatusRequested        AppointmentStatus = "REQUESTED"
	StatusConfirmed        AppointmentStatus = "CONFIRMED"
	StatusUpcoming         AppointmentStatus = "UPCOMING"
	StatusInProgress       AppointmentStatus = "IN_PROGRESS"
	StatusCompleted        AppointmentStatus = "COMPLETED"
	StatusRejected         AppointmentStatus = "REJECTED"
	StatusCancelledPatient AppointmentStatus = "CANCELLED_PATIENT"
	StatusCancelledDoctor  AppointmentStatus = "CANCELLED_DOCTOR"
	StatusNoShow           AppointmentStatus = "NO_SHOW"
)

// ParseAppointmentStatus normalizes a raw status string (any casing) into the
// closed enumeration. The second return is false for unknown values.
func ParseAppointmentStatus(raw string) (AppointmentStatus, bool) {
	s := AppointmentStatus(strings.ToUpper(strings.TrimSpace(raw)))
	switch s {
	case StatusRequested, StatusConfirmed, StatusUpcoming, StatusInProgress,
		StatusCompleted, StatusRejected, StatusCancelledPatient,
		StatusCancelledDoctor, StatusNoShow:
		return s, true
	}
	return "", false
}

// Terminal reports whether no further transition may leave this state.
func (s AppointmentStatus) Terminal() bool {
	switch s {
	case StatusCompleted, StatusRejected, StatusCancelledPatient,
		StatusCancelledDoctor, StatusNoShow:
		return true
	}
	return false
}

// PaymentStatus tracks where the patient's held payment currently sits.
type PaymentStatus string

const (
	PaymentHeld          PaymentStatus = "HELD"           // debited from patient at booking, not yet released
	PaymentReleased      PaymentStatus = "RELEASED"       // credited to the doctor on completion
	PaymentRefundPending PaymentStatus = "REFUND_PENDING" // refund raised, not yet processed
	PaymentRefunded      PaymentStatus = "REFUNDED"
)

// Role is the caller's authorization role as supplied by the identity layer.
type Role string

const (
	RolePatient Role = "patient"
	RoleDoctor  Role = "doctor"
	RoleAdmin   Role = "admin"
)

// ParseRole normalizes a raw role string into the closed set.
func ParseRole(raw string) (Role, bool) {
	r := Role(strings.ToLower(strings.TrimSpace(raw)))
	switch r {
	case RolePatient, RoleDoctor, RoleAdmin:
		return r, true
	}
	return "", false
}

// Appointment is one consultation request between a patient and a doctor.
// It is never deleted; terminal states record how it ended.
type Appointment struct {
	ID                   string            `bson:"id" json:"id"`
	PatientID            string            `bson:"patientId" json:"patientId"`
	DoctorID             string            `bson:"doctorId" json:"doctorId"`
	Status               AppointmentStatus `bson:"status" json:"status"`
	ScheduledStart       time.Time         `bson:"scheduledStart" json:"scheduledStart"`
	ScheduledEnd         time.Time         `bson:"scheduledEnd" json:"scheduledEnd"`
	ActualStart          *time.Time        `bson:"actualStart,omitempty" json:"actualStart,omitempty"`
	ActualEnd            *time.Time        `bson:"actualEnd,omitempty" json:"actualEnd,omitempty"`
	Price                float64           `bson:"price" json:"price"` // copied from the doctor's rate at booking time
	PaymentStatus        PaymentStatus     `bson:"paymentStatus" json:"paymentStatus"`
	SlotID               string            `bson:"slotId" json:"slotId"`
	ExtensionRequested   bool              `bson:"extensionRequested" json:"extensionRequested"`
	ExtensionRequestedBy string            `bson:"extensionRequestedBy,omitempty" json:"extensionRequestedBy,omitempty"`
	ExtensionGranted     bool              `bson:"extensionGranted" json:"extensionGranted"`
	ChatRoomID           string            `bson:"chatRoomId,omitempty" json:"chatRoomId,omitempty"`
	ReasonNote           string            `bson:"reasonNote,omitempty" json:"reasonNote,omitempty"`
	CreatedAt            time.Time         `bson:"createdAt" json:"createdAt"`
	UpdatedAt            time.Time         `bson:"updatedAt" json:"updatedAt"`
}

// Participant reports whether userID is the patient or the doctor of this appointment.
func (a *Appointment) Participant(userID string) bool {
	return userID == a.PatientID || userID == a.DoctorID
}

// RoleOf returns the role userID plays on this appointment, or "" for outsiders.
func (a *Appointment) RoleOf(userID string) Role {
	switch userID {
	case a.PatientID:
		return RolePatient
	case a.DoctorID:
		return RoleDoctor
	}
	return ""
}

// CreateAppointmentRequest is the booking payload from a patient.
type CreateAppointmentRequest struct {
	SlotID     string `json:"slotId" binding:"required"`
	ReasonNote string `json:"reasonNote"`
}

// UpdateStatusRequest carries a requested lifecycle transition.
type UpdateStatusRequest struct {
	Status     string `json:"status" binding:"required"`
	ReasonNote string `json:"reasonNote"`
}
