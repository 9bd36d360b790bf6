// File: database/repository/appointment/crud.go
package appointmentRepo

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"medilink/models"
	"medilink/utils"
)

func (r *mongoAppointmentRepo) GetByID(ctx context.Context, appointmentID string) (*models.Appointment, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var appt models.Appointment
	err := r.appts.FindOne(ctx, bson.M{"id": appointmentID}).Decode(&appt)
	if err == mongo.ErrNoDocuments {
		return nil, utils.NotFoundErr("appointment %s not found", appointmentID)
	}
	if err != nil {
		return nil, err
	}
	return &appt, nil
}

func (r *mongoAppointmentRepo) ListByPatient(ctx context.Context, patientID string) ([]models.Appointment, error) {
	return r.list(ctx, bson.M{"patientId": patientID})
}

func (r *mongoAppointmentRepo) ListByDoctor(ctx context.Context, doctorID string) ([]models.Appointment, error) {
	return r.list(ctx, bson.M{"doctorId": doctorID})
}

// ListOverdueUpcoming returns appointments still UPCOMING whose scheduled end
// is already behind cutoff; the sweep turns these into NO_SHOW.
func (r *mongoAppointmentRepo) ListOverdueUpcoming(ctx context.Context, cutoff time.Time) ([]models.Appointment, error) {
	return r.list(ctx, bson.M{
		"status":       models.StatusUpcoming,
		"scheduledEnd": bson.M{"$lt": cutoff},
	})
}

func (r *mongoAppointmentRepo) list(ctx context.Context, filter bson.M) ([]models.Appointment, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	cursor, err := r.appts.Find(ctx, filter, options.Find().SetSort(bson.M{"scheduledStart": -1}))
	if err != nil {
		return nil, fmt.Errorf("failed to fetch appointments: %w", err)
	}
	defer cursor.Close(ctx)

	var appts []models.Appointment
	if err := cursor.All(ctx, &appts); err != nil {
		return nil, fmt.Errorf("error decoding appointments: %w", err)
	}
	return appts, nil
}

func (r *mongoAppointmentRepo) LinkChatRoom(ctx context.Context, appointmentID, roomID string) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	update := bson.M{"$set": bson.M{"chatRoomId": roomID, "updatedAt": time.Now()}}
	res, err := r.appts.UpdateOne(ctx, bson.M{"id": appointmentID}, update)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return utils.NotFoundErr("appointment %s not found", appointmentID)
	}
	return nil
}
