package models

import "time"

// SlotDuration is the fixed length of every bookable window.
const SlotDuration = 30 * time.Minute

// AvailabilitySlot is one bookable 30-minute window published by a doctor.
// Slots are created in bulk from a [start,end) range and deleted only while
// unbooked; cancellation clears the booked fields instead of removing the slot.
type AvailabilitySlot struct {
	ID            string    `bson:"id" json:"id"`
	DoctorID      string    `bson:"doctorId" json:"doctorId"`
	Start         time.Time `bson:"start" json:"start"`
	End           time.Time `bson:"end" json:"end"`
	Booked        bool      `bson:"booked" json:"booked"`
	AppointmentID string    `bson:"appointmentId,omitempty" json:"appointmentId,omitempty"`
	PatientID     string    `bson:"patientId,omitempty" json:"patientId,omitempty"`
	CreatedAt     time.Time `bson:"createdAt" json:"createdAt"`
}

// Overlaps reports half-open interval overlap with [start,end).
func (s *AvailabilitySlot) Overlaps(start, end time.Time) bool {
	return start.Before(s.End) && end.After(s.Start)
}

// PublishSlotsRequest is a doctor's availability window; it is split into
// SlotDuration-sized slots on publish.
type PublishSlotsRequest struct {
	Start time.Time `json:"start" binding:"required"`
	End   time.Time `json:"end" binding:"required"`
}
