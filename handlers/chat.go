package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"medilink/middleware"
	"medilink/models"
	chatSvc "medilink/services/chat"
	"medilink/utils"
)

// ChatHandler exposes the communication gate consulted by the companion chat
// subsystem before accepting or displaying messages.
type ChatHandler struct {
	Svc chatSvc.ChatAccessService
}

func NewChatHandler(svc chatSvc.ChatAccessService) *ChatHandler {
	return &ChatHandler{Svc: svc}
}

// Access returns the caller's current send/read verdict for an appointment.
// The verdict is computed fresh per request and must not be cached client-side.
func (h *ChatHandler) Access(c *gin.Context) {
	callerID, role := middleware.CallerIdentity(c)

	access, err := h.Svc.Authorize(c.Request.Context(), callerID, role, c.Param("appointmentId"))
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, access)
}

// LinkRoom attaches the external chat room id to the appointment.
func (h *ChatHandler) LinkRoom(c *gin.Context) {
	callerID, role := middleware.CallerIdentity(c)

	var req models.LinkRoomRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.JSONError(c, http.StatusBadRequest, "invalid input", err.Error())
		return
	}

	if err := h.Svc.LinkRoom(c.Request.Context(), callerID, role, c.Param("appointmentId"), req.RoomID); err != nil {
		utils.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"linked": req.RoomID})
}
