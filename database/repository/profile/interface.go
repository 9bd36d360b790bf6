// File: database/repository/profile/interface.go
package profileRepo

import (
	"context"

	"medilink/database"
	"medilink/models"

	"go.mongodb.org/mongo-driver/mongo"
)

// ProfileRepository serves the read side of patient and doctor profiles.
// Wallet balances on these documents are written exclusively by the wallet
// and appointment repositories' transactions.
type ProfileRepository interface {
	GetPatient(ctx context.Context, patientID string) (*models.PatientProfile, error)
	GetDoctor(ctx context.Context, doctorID string) (*models.DoctorProfile, error)
	CreatePatient(ctx context.Context, p *models.PatientProfile) error
	CreateDoctor(ctx context.Context, d *models.DoctorProfile) error
	SetPatientFCMToken(ctx context.Context, patientID, token string) error
	SetDoctorFCMToken(ctx context.Context, doctorID, token string) error
}

type mongoProfileRepo struct {
	patients *mongo.Collection
	doctors  *mongo.Collection
}

// NewMongoProfileRepo constructs a new MongoDB ProfileRepository.
func NewMongoProfileRepo() ProfileRepository {
	db := database.DB()
	return &mongoProfileRepo{
		patients: db.Collection("patients"),
		doctors:  db.Collection("doctors"),
	}
}
