// File: database/repository/profile/profile_mongo.go
package profileRepo

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"medilink/models"
	"medilink/utils"
)

func (r *mongoProfileRepo) GetPatient(ctx context.Context, patientID string) (*models.PatientProfile, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var p models.PatientProfile
	err := r.patients.FindOne(ctx, bson.M{"id": patientID}).Decode(&p)
	if err == mongo.ErrNoDocuments {
		return nil, utils.NotFoundErr("patient %s not found", patientID)
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *mongoProfileRepo) GetDoctor(ctx context.Context, doctorID string) (*models.DoctorProfile, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var d models.DoctorProfile
	err := r.doctors.FindOne(ctx, bson.M{"id": doctorID}).Decode(&d)
	if err == mongo.ErrNoDocuments {
		return nil, utils.NotFoundErr("doctor %s not found", doctorID)
	}
	if err != nil {
		return nil, err
	}
	return &d, nil
}

func (r *mongoProfileRepo) CreatePatient(ctx context.Context, p *models.PatientProfile) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if p.ID == "" {
		p.ID = uuid.New().String()
	}
	now := time.Now()
	p.CreatedAt = now
	p.UpdatedAt = now
	_, err := r.patients.InsertOne(ctx, p)
	return err
}

func (r *mongoProfileRepo) CreateDoctor(ctx context.Context, d *models.DoctorProfile) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if d.ID == "" {
		d.ID = uuid.New().String()
	}
	now := time.Now()
	d.CreatedAt = now
	d.UpdatedAt = now
	_, err := r.doctors.InsertOne(ctx, d)
	return err
}

func (r *mongoProfileRepo) SetPatientFCMToken(ctx context.Context, patientID, token string) error {
	return r.setToken(ctx, r.patients, patientID, token)
}

func (r *mongoProfileRepo) SetDoctorFCMToken(ctx context.Context, doctorID, token string) error {
	return r.setToken(ctx, r.doctors, doctorID, token)
}

func (r *mongoProfileRepo) setToken(ctx context.Context, coll *mongo.Collection, id, token string) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	update := bson.M{"$set": bson.M{"fcmToken": token, "updatedAt": time.Now()}}
	res, err := coll.UpdateOne(ctx, bson.M{"id": id}, update)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return utils.NotFoundErr("profile %s not found", id)
	}
	return nil
}
