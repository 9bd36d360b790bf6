package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"medilink/middleware"
	"medilink/models"
	appointmentSvc "medilink/services/appointment"
	"medilink/utils"
)

// AppointmentHandler exposes the consultation lifecycle.
type AppointmentHandler struct {
	Svc appointmentSvc.AppointmentService
}

func NewAppointmentHandler(svc appointmentSvc.AppointmentService) *AppointmentHandler {
	return &AppointmentHandler{Svc: svc}
}

// Create books a slot for the calling patient.
func (h *AppointmentHandler) Create(c *gin.Context) {
	patientID, _ := middleware.CallerIdentity(c)

	var req models.CreateAppointmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.JSONError(c, http.StatusBadRequest, "invalid input", err.Error())
		return
	}

	appt, err := h.Svc.Create(c.Request.Context(), patientID, req)
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, appt)
}

func (h *AppointmentHandler) Get(c *gin.Context) {
	callerID, role := middleware.CallerIdentity(c)

	appt, err := h.Svc.Get(c.Request.Context(), callerID, role, c.Param("appointmentId"))
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, appt)
}

// List returns the caller's appointments on either side of the consultation.
func (h *AppointmentHandler) List(c *gin.Context) {
	callerID, role := middleware.CallerIdentity(c)

	appts, err := h.Svc.ListForUser(c.Request.Context(), callerID, role)
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"appointments": appts})
}

// UpdateStatus applies a lifecycle transition on behalf of the caller.
func (h *AppointmentHandler) UpdateStatus(c *gin.Context) {
	callerID, role := middleware.CallerIdentity(c)

	var req models.UpdateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.JSONError(c, http.StatusBadRequest, "invalid input", err.Error())
		return
	}

	appt, err := h.Svc.UpdateStatus(c.Request.Context(), callerID, role, c.Param("appointmentId"), req)
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, appt)
}

// RequestExtension opens the one-shot extension handshake on an active session.
func (h *AppointmentHandler) RequestExtension(c *gin.Context) {
	callerID, role := middleware.CallerIdentity(c)

	appt, err := h.Svc.RequestExtension(c.Request.Context(), callerID, role, c.Param("appointmentId"))
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, appt)
}

// AcceptExtension grants the pending extension: debit plus time extension.
func (h *AppointmentHandler) AcceptExtension(c *gin.Context) {
	callerID, role := middleware.CallerIdentity(c)

	appt, err := h.Svc.AcceptExtension(c.Request.Context(), callerID, role, c.Param("appointmentId"))
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, appt)
}
