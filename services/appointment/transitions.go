package appointment

import "medilink/models"

// transitionTable is the complete authority table for status changes: by
// current status, which targets each role may move to. Anything absent fails
// with InvalidTransition. Terminal states have no row and so admit nothing.
var transitionTable = map[models.AppointmentStatus]map[models.Role][]models.AppointmentStatus{
	models.StatusRequested: {
		models.RoleDoctor:  {models.StatusConfirmed, models.StatusRejected},
		models.RolePatient: {models.StatusCancelledPatient},
	},
	models.StatusConfirmed: {
		models.RoleDoctor:  {models.StatusUpcoming, models.StatusCancelledDoctor},
		models.RolePatient: {models.StatusCancelledPatient},
	},
	models.StatusUpcoming: {
		models.RoleDoctor:  {models.StatusInProgress, models.StatusCancelledDoctor, models.StatusNoShow},
		models.RolePatient: {models.StatusCancelledPatient},
	},
	models.StatusInProgress: {
		models.RoleDoctor: {models.StatusCompleted},
	},
}

// CanTransition reports whether role may move an appointment from current to
// target. Admins may perform any transition either participant could.
func CanTransition(current models.AppointmentStatus, role models.Role, target models.AppointmentStatus) bool {
	row, ok := transitionTable[current]
	if !ok {
		return false
	}
	if role == models.RoleAdmin {
		return contains(row[models.RoleDoctor], target) || contains(row[models.RolePatient], target)
	}
	return contains(row[role], target)
}

func contains(targets []models.AppointmentStatus, s models.AppointmentStatus) bool {
	for _, t := range targets {
		if t == s {
			return true
		}
	}
	return false
}
