package models

import "time"

// PatientProfile carries the patient's wallet balance. The balance is only
// ever written through wallet-ledger transactions.
type PatientProfile struct {
	ID            string    `bson:"id" json:"id"`
	Name          string    `bson:"name" json:"name"`
	Email         string    `bson:"email" json:"email"`
	WalletBalance float64   `bson:"walletBalance" json:"walletBalance"`
	FCMToken      string    `bson:"fcmToken,omitempty" json:"-"`
	CreatedAt     time.Time `bson:"createdAt" json:"createdAt"`
	UpdatedAt     time.Time `bson:"updatedAt" json:"updatedAt"`
}

// DoctorProfile carries the doctor's published per-session rate and wallet
// balance. SessionRate is the price copied onto an appointment at booking time
// and the fee charged for a session extension.
type DoctorProfile struct {
	ID            string    `bson:"id" json:"id"`
	Name          string    `bson:"name" json:"name"`
	Email         string    `bson:"email" json:"email"`
	Specialty     string    `bson:"specialty,omitempty" json:"specialty,omitempty"`
	SessionRate   float64   `bson:"sessionRate" json:"sessionRate"`
	WalletBalance float64   `bson:"walletBalance" json:"walletBalance"`
	FCMToken      string    `bson:"fcmToken,omitempty" json:"-"`
	CreatedAt     time.Time `bson:"createdAt" json:"createdAt"`
	UpdatedAt     time.Time `bson:"updatedAt" json:"updatedAt"`
}
