package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"medilink/middleware"
	"medilink/models"
	slotSvc "medilink/services/slot"
	"medilink/utils"
)

// SlotHandler exposes a doctor's availability windows.
type SlotHandler struct {
	Svc slotSvc.SlotService
}

func NewSlotHandler(svc slotSvc.SlotService) *SlotHandler {
	return &SlotHandler{Svc: svc}
}

// Publish splits the posted window into bookable slots for the calling doctor.
func (h *SlotHandler) Publish(c *gin.Context) {
	doctorID, _ := middleware.CallerIdentity(c)

	var req models.PublishSlotsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.JSONError(c, http.StatusBadRequest, "invalid input", err.Error())
		return
	}

	slots, err := h.Svc.Publish(c.Request.Context(), doctorID, req.Start, req.End)
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"slots": slots})
}

// ListByDoctor returns a doctor's slots inside an optional [from,to) window.
func (h *SlotHandler) ListByDoctor(c *gin.Context) {
	doctorID := c.Param("doctorId")

	from, to, err := parseWindow(c)
	if err != nil {
		utils.JSONError(c, http.StatusBadRequest, "invalid time window", err.Error())
		return
	}

	slots, err := h.Svc.ListByDoctor(c.Request.Context(), doctorID, from, to)
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"slots": slots})
}

// ListAvailable returns a doctor's unbooked future slots.
func (h *SlotHandler) ListAvailable(c *gin.Context) {
	doctorID := c.Param("doctorId")

	from := time.Now()
	if raw := c.Query("from"); raw != "" {
		parsed, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			utils.JSONError(c, http.StatusBadRequest, "invalid time window", err.Error())
			return
		}
		from = parsed
	}

	slots, err := h.Svc.ListAvailable(c.Request.Context(), doctorID, from)
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"slots": slots})
}

// Delete removes one of the calling doctor's unbooked slots.
func (h *SlotHandler) Delete(c *gin.Context) {
	doctorID, _ := middleware.CallerIdentity(c)
	slotID := c.Param("slotId")

	if err := h.Svc.Delete(c.Request.Context(), doctorID, slotID); err != nil {
		utils.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted": slotID})
}

func parseWindow(c *gin.Context) (time.Time, time.Time, error) {
	from := time.Now()
	to := from.AddDate(0, 0, 14)

	if raw := c.Query("from"); raw != "" {
		parsed, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return time.Time{}, time.Time{}, err
		}
		from = parsed
	}
	if raw := c.Query("to"); raw != "" {
		parsed, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return time.Time{}, time.Time{}, err
		}
		to = parsed
	}
	return from, to, nil
}
