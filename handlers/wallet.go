package handlers

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/webhook"
	"go.uber.org/zap"

	"medilink/config"
	"medilink/middleware"
	"medilink/models"
	walletSvc "medilink/services/wallet"
	"medilink/utils"
)

// WalletHandler exposes balances, the ledger, deposits and refunds.
type WalletHandler struct {
	Svc walletSvc.WalletService
}

func NewWalletHandler(svc walletSvc.WalletService) *WalletHandler {
	return &WalletHandler{Svc: svc}
}

func (h *WalletHandler) Balance(c *gin.Context) {
	callerID, role := middleware.CallerIdentity(c)

	balance, err := h.Svc.Balance(c.Request.Context(), role, callerID)
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"balance": balance})
}

func (h *WalletHandler) ListTransactions(c *gin.Context) {
	callerID, _ := middleware.CallerIdentity(c)

	txns, err := h.Svc.ListTransactions(c.Request.Context(), callerID)
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"transactions": txns})
}

func (h *WalletHandler) GetTransaction(c *gin.Context) {
	callerID, role := middleware.CallerIdentity(c)

	txn, err := h.Svc.GetTransaction(c.Request.Context(), callerID, role, c.Param("transactionId"))
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, txn)
}

// StripeWebhook receives deposit confirmations from the payment gateway.
// Stripe delivers events at least once; the deposit path is idempotent on
// the payment intent id, so replays are safe.
func (h *WalletHandler) StripeWebhook(c *gin.Context) {
	logger := utils.GetLogger()

	payload, err := io.ReadAll(c.Request.Body)
	if err != nil {
		utils.JSONError(c, http.StatusBadRequest, "could not read webhook body", err.Error())
		return
	}

	event, err := webhook.ConstructEvent(payload, c.GetHeader("Stripe-Signature"),
		config.AppConfig.StripeWebhookSecret)
	if err != nil {
		utils.JSONError(c, http.StatusBadRequest, "webhook signature verification failed", err.Error())
		return
	}

	if event.Type != "payment_intent.succeeded" {
		c.JSON(http.StatusOK, gin.H{"received": true})
		return
	}

	var intent stripe.PaymentIntent
	if err := json.Unmarshal(event.Data.Raw, &intent); err != nil {
		utils.JSONError(c, http.StatusBadRequest, "could not parse payment intent", err.Error())
		return
	}

	userID := intent.Metadata["userId"]
	role, ok := models.ParseRole(intent.Metadata["role"])
	if userID == "" || !ok {
		logger.Warn("deposit webhook missing wallet metadata",
			zap.String("paymentIntent", intent.ID))
		c.JSON(http.StatusOK, gin.H{"received": true})
		return
	}

	amount := float64(intent.Amount) / 100
	txn, err := h.Svc.Deposit(c.Request.Context(), userID, role, amount, intent.ID)
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"received": true, "transactionId": txn.ID})
}

func (h *WalletHandler) RequestRefund(c *gin.Context) {
	callerID, role := middleware.CallerIdentity(c)

	var input models.RequestRefundInput
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.JSONError(c, http.StatusBadRequest, "invalid input", err.Error())
		return
	}

	refund, err := h.Svc.RequestRefund(c.Request.Context(), callerID, role, input)
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, refund)
}

func (h *WalletHandler) GetRefund(c *gin.Context) {
	callerID, role := middleware.CallerIdentity(c)

	refund, err := h.Svc.GetRefund(c.Request.Context(), callerID, role, c.Param("refundId"))
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, refund)
}

// ListRefunds is the admin review queue, optionally filtered by status.
func (h *WalletHandler) ListRefunds(c *gin.Context) {
	var status models.RefundStatus
	if raw := c.Query("status"); raw != "" {
		parsed, ok := models.ParseRefundStatus(raw)
		if !ok {
			utils.JSONError(c, http.StatusBadRequest, "invalid input", "unknown refund status: "+raw)
			return
		}
		status = parsed
	}

	refunds, err := h.Svc.ListRefunds(c.Request.Context(), status)
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"refunds": refunds})
}

// DecideRefund records the admin's approve/reject decision.
func (h *WalletHandler) DecideRefund(c *gin.Context) {
	var input struct {
		Decision string `json:"decision" binding:"required"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.JSONError(c, http.StatusBadRequest, "invalid input", err.Error())
		return
	}

	refund, err := h.Svc.DecideRefund(c.Request.Context(), c.Param("refundId"), input.Decision)
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, refund)
}

// ProcessRefund pays an approved refund back to its owner.
func (h *WalletHandler) ProcessRefund(c *gin.Context) {
	refund, err := h.Svc.ProcessRefund(c.Request.Context(), c.Param("refundId"))
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, refund)
}
