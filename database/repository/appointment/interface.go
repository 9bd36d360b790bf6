// File: database/repository/appointment/interface.go
package appointmentRepo

import (
	"context"
	"time"

	"medilink/database"
	"medilink/models"

	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// TransitionEffects describes the writes that accompany a status change.
// Everything in one call commits inside a single transaction.
type TransitionEffects struct {
	To               models.AppointmentStatus
	ReasonNote       string
	ReleaseSlot      bool
	Refund           *models.Refund       // inserted alongside the transition when set
	SetPaymentStatus models.PaymentStatus // empty = leave untouched
	StampActualStart bool
	StampActualEnd   bool
}

// AppointmentRepository owns the appointments collection and every
// multi-document transaction that couples an appointment with its slot,
// the wallet balances, and the ledger records.
type AppointmentRepository interface {
	GetByID(ctx context.Context, appointmentID string) (*models.Appointment, error)
	ListByPatient(ctx context.Context, patientID string) ([]models.Appointment, error)
	ListByDoctor(ctx context.Context, doctorID string) ([]models.Appointment, error)
	ListOverdueUpcoming(ctx context.Context, cutoff time.Time) ([]models.Appointment, error)
	LinkChatRoom(ctx context.Context, appointmentID, roomID string) error

	// CreateWithSlot books the slot, debits the patient, appends the PAYMENT
	// ledger record and inserts the appointment, all or nothing.
	CreateWithSlot(ctx context.Context, appt *models.Appointment, payment *models.Transaction) error

	// Transition applies a table-validated status change with compare-and-set
	// on the expected current status, plus its side effects.
	Transition(ctx context.Context, appointmentID string, expect models.AppointmentStatus, eff TransitionEffects) (*models.Appointment, error)

	// CompleteWithPayout moves IN_PROGRESS -> COMPLETED and credits the doctor
	// in the same transaction.
	CompleteWithPayout(ctx context.Context, appointmentID string, payout *models.Transaction) (*models.Appointment, error)

	// RequestExtension is a single-document check-and-set on the
	// extensionRequested flag; exactly one concurrent caller wins.
	RequestExtension(ctx context.Context, appointmentID, requesterID string) (*models.Appointment, error)

	// AcceptExtension debits the patient the extension fee and pushes
	// scheduledEnd out by extendBy in one transaction.
	AcceptExtension(ctx context.Context, appointmentID string, fee *models.Transaction, extendBy time.Duration) (*models.Appointment, error)
}

type mongoAppointmentRepo struct {
	client   *mongo.Client
	appts    *mongo.Collection
	slots    *mongo.Collection
	patients *mongo.Collection
	doctors  *mongo.Collection
	txns     *mongo.Collection
	refunds  *mongo.Collection
}

// NewMongoAppointmentRepo constructs a new MongoDB AppointmentRepository and
// ensures its indexes exist.
func NewMongoAppointmentRepo() AppointmentRepository {
	db := database.DB()
	r := &mongoAppointmentRepo{
		client:   database.MongoClient,
		appts:    db.Collection("appointments"),
		slots:    db.Collection("availability_slots"),
		patients: db.Collection("patients"),
		doctors:  db.Collection("doctors"),
		txns:     db.Collection("transactions"),
		refunds:  db.Collection("refunds"),
	}
	if err := r.EnsureIndexes(); err != nil {
		zap.L().Warn("failed to ensure appointment indexes", zap.Error(err))
	}
	return r
}
