// File: database/repository/appointment/transaction.go
package appointmentRepo

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"medilink/database"
	"medilink/models"
	"medilink/utils"
)

func (r *mongoAppointmentRepo) CreateWithSlot(ctx context.Context, appt *models.Appointment, payment *models.Transaction) error {
	return database.WithTransaction(ctx, r.client, func(sc mongo.SessionContext) error {
		// Claim the slot: the filter only matches while it is free, so of two
		// racing bookings exactly one sees MatchedCount == 1.
		slotFilter := bson.M{"id": appt.SlotID, "booked": false}
		slotUpdate := bson.M{"$set": bson.M{
			"booked":        true,
			"appointmentId": appt.ID,
			"patientId":     appt.PatientID,
		}}
		res, err := r.slots.UpdateOne(sc, slotFilter, slotUpdate)
		if err != nil {
			return err
		}
		if res.MatchedCount == 0 {
			n, err := r.slots.CountDocuments(sc, bson.M{"id": appt.SlotID})
			if err != nil {
				return err
			}
			if n == 0 {
				return utils.NotFoundErr("slot %s not found", appt.SlotID)
			}
			return utils.SlotUnavailableErr("slot %s is already booked", appt.SlotID)
		}

		if err := r.debitPatient(sc, appt.PatientID, appt.Price); err != nil {
			return err
		}
		if _, err := r.txns.InsertOne(sc, payment); err != nil {
			return err
		}
		if _, err := r.appts.InsertOne(sc, appt); err != nil {
			return err
		}
		return nil
	})
}

func (r *mongoAppointmentRepo) Transition(ctx context.Context, appointmentID string, expect models.AppointmentStatus, eff TransitionEffects) (*models.Appointment, error) {
	var updated models.Appointment

	err := database.WithTransaction(ctx, r.client, func(sc mongo.SessionContext) error {
		now := time.Now()
		set := bson.M{
			"status":    eff.To,
			"updatedAt": now,
		}
		if eff.ReasonNote != "" {
			set["reasonNote"] = eff.ReasonNote
		}
		if eff.SetPaymentStatus != "" {
			set["paymentStatus"] = eff.SetPaymentStatus
		}
		if eff.StampActualStart {
			set["actualStart"] = now
		}
		if eff.StampActualEnd {
			set["actualEnd"] = now
		}

		// Compare-and-set on the current status: a concurrent transition makes
		// the filter miss and the whole transaction rolls back.
		filter := bson.M{"id": appointmentID, "status": expect}
		after := options.After
		err := r.appts.FindOneAndUpdate(sc, filter, bson.M{"$set": set},
			&options.FindOneAndUpdateOptions{ReturnDocument: &after}).Decode(&updated)
		if err == mongo.ErrNoDocuments {
			n, cntErr := r.appts.CountDocuments(sc, bson.M{"id": appointmentID})
			if cntErr != nil {
				return cntErr
			}
			if n == 0 {
				return utils.NotFoundErr("appointment %s not found", appointmentID)
			}
			return utils.ConflictErr("appointment %s changed state concurrently", appointmentID)
		}
		if err != nil {
			return err
		}

		if eff.ReleaseSlot && updated.SlotID != "" {
			release := bson.M{
				"$set":   bson.M{"booked": false},
				"$unset": bson.M{"appointmentId": "", "patientId": ""},
			}
			if _, err := r.slots.UpdateOne(sc, bson.M{"id": updated.SlotID}, release); err != nil {
				return err
			}
		}
		if eff.Refund != nil {
			if _, err := r.refunds.InsertOne(sc, eff.Refund); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &updated, nil
}

func (r *mongoAppointmentRepo) CompleteWithPayout(ctx context.Context, appointmentID string, payout *models.Transaction) (*models.Appointment, error) {
	var updated models.Appointment

	err := database.WithTransaction(ctx, r.client, func(sc mongo.SessionContext) error {
		now := time.Now()
		filter := bson.M{"id": appointmentID, "status": models.StatusInProgress}
		update := bson.M{"$set": bson.M{
			"status":        models.StatusCompleted,
			"paymentStatus": models.PaymentReleased,
			"actualEnd":     now,
			"updatedAt":     now,
		}}
		after := options.After
		err := r.appts.FindOneAndUpdate(sc, filter, update,
			&options.FindOneAndUpdateOptions{ReturnDocument: &after}).Decode(&updated)
		if err == mongo.ErrNoDocuments {
			return utils.ConflictErr("appointment %s is not in progress", appointmentID)
		}
		if err != nil {
			return err
		}

		if err := r.creditDoctor(sc, updated.DoctorID, payout.Amount); err != nil {
			return err
		}
		if _, err := r.txns.InsertOne(sc, payout); err != nil {
			return err
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &updated, nil
}

func (r *mongoAppointmentRepo) RequestExtension(ctx context.Context, appointmentID, requesterID string) (*models.Appointment, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	// Check-and-set on the extensionRequested flag; under concurrency exactly
	// one caller matches the filter.
	filter := bson.M{
		"id":                 appointmentID,
		"status":             models.StatusInProgress,
		"extensionRequested": false,
	}
	update := bson.M{"$set": bson.M{
		"extensionRequested":   true,
		"extensionRequestedBy": requesterID,
		"updatedAt":            time.Now(),
	}}
	after := options.After
	var updated models.Appointment
	err := r.appts.FindOneAndUpdate(ctx, filter, update,
		&options.FindOneAndUpdateOptions{ReturnDocument: &after}).Decode(&updated)
	if err == mongo.ErrNoDocuments {
		return nil, r.classifyExtensionMiss(ctx, appointmentID)
	}
	if err != nil {
		return nil, err
	}
	return &updated, nil
}

func (r *mongoAppointmentRepo) AcceptExtension(ctx context.Context, appointmentID string, fee *models.Transaction, extendBy time.Duration) (*models.Appointment, error) {
	var updated models.Appointment

	err := database.WithTransaction(ctx, r.client, func(sc mongo.SessionContext) error {
		// Debit first; insufficient funds must abort before any time change.
		if err := r.debitPatient(sc, fee.UserID, fee.Amount); err != nil {
			return err
		}

		filter := bson.M{
			"id":                 appointmentID,
			"status":             models.StatusInProgress,
			"extensionRequested": true,
			"extensionGranted":   false,
		}
		// Pipeline update so the new end derives from the stored value.
		update := mongo.Pipeline{
			bson.D{{Key: "$set", Value: bson.D{
				{Key: "scheduledEnd", Value: bson.D{
					{Key: "$add", Value: bson.A{"$scheduledEnd", extendBy.Milliseconds()}},
				}},
				{Key: "extensionGranted", Value: true},
				{Key: "updatedAt", Value: time.Now()},
			}}},
		}
		after := options.After
		err := r.appts.FindOneAndUpdate(sc, filter, update,
			&options.FindOneAndUpdateOptions{ReturnDocument: &after}).Decode(&updated)
		if err == mongo.ErrNoDocuments {
			return r.classifyAcceptMiss(sc, appointmentID)
		}
		if err != nil {
			return err
		}

		if _, err := r.txns.InsertOne(sc, fee); err != nil {
			return err
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &updated, nil
}

// classifyExtensionMiss turns a missed RequestExtension filter into the
// precise business error.
func (r *mongoAppointmentRepo) classifyExtensionMiss(ctx context.Context, appointmentID string) error {
	var appt models.Appointment
	err := r.appts.FindOne(ctx, bson.M{"id": appointmentID}).Decode(&appt)
	if err == mongo.ErrNoDocuments {
		return utils.NotFoundErr("appointment %s not found", appointmentID)
	}
	if err != nil {
		return err
	}
	if appt.Status != models.StatusInProgress {
		return utils.InvalidStateErr("appointment %s is not in progress", appointmentID)
	}
	return utils.AlreadyRequestedErr("extension already requested for appointment %s", appointmentID)
}

func (r *mongoAppointmentRepo) classifyAcceptMiss(ctx context.Context, appointmentID string) error {
	var appt models.Appointment
	err := r.appts.FindOne(ctx, bson.M{"id": appointmentID}).Decode(&appt)
	if err == mongo.ErrNoDocuments {
		return utils.NotFoundErr("appointment %s not found", appointmentID)
	}
	if err != nil {
		return err
	}
	switch {
	case appt.Status != models.StatusInProgress:
		return utils.InvalidStateErr("appointment %s is not in progress", appointmentID)
	case !appt.ExtensionRequested:
		return utils.InvalidStateErr("no extension requested for appointment %s", appointmentID)
	default:
		return utils.InvalidStateErr("extension already granted for appointment %s", appointmentID)
	}
}

// debitPatient decrements the patient's wallet balance inside the ambient
// session. The filter guards non-negativity: it only matches while the
// balance covers the amount.
func (r *mongoAppointmentRepo) debitPatient(sc mongo.SessionContext, patientID string, amount float64) error {
	filter := bson.M{"id": patientID, "walletBalance": bson.M{"$gte": amount}}
	update := bson.M{
		"$inc": bson.M{"walletBalance": -amount},
		"$set": bson.M{"updatedAt": time.Now()},
	}
	res, err := r.patients.UpdateOne(sc, filter, update)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		n, err := r.patients.CountDocuments(sc, bson.M{"id": patientID})
		if err != nil {
			return err
		}
		if n == 0 {
			return utils.NotFoundErr("patient %s not found", patientID)
		}
		return utils.InsufficientFundsErr("patient %s has insufficient wallet balance", patientID)
	}
	return nil
}

func (r *mongoAppointmentRepo) creditDoctor(sc mongo.SessionContext, doctorID string, amount float64) error {
	update := bson.M{
		"$inc": bson.M{"walletBalance": amount},
		"$set": bson.M{"updatedAt": time.Now()},
	}
	res, err := r.doctors.UpdateOne(sc, bson.M{"id": doctorID}, update)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return utils.NotFoundErr("doctor %s not found", doctorID)
	}
	return nil
}
