package routes

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"medilink/handlers"
	"medilink/middleware"
	"medilink/models"
)

// RegisterProfileRoutes registers registration and profile endpoints.
func RegisterProfileRoutes(r *gin.Engine, hb *handlers.HandlerBundle) {
	api := r.Group("/api/profiles")
	{
		api.POST("/patients", hb.Profiles.RegisterPatient)
		api.POST("/doctors", hb.Profiles.RegisterDoctor)
		api.GET("/doctors/:doctorId", hb.Profiles.GetDoctor)

		protected := api.Group("")
		protected.Use(middleware.JWTAuthMiddleware())
		protected.GET("/me", hb.Profiles.Me)
		protected.PUT("/me/fcm-token", hb.Profiles.SetFCMToken)
	}
}

// RegisterSlotRoutes registers availability-slot endpoints.
func RegisterSlotRoutes(r *gin.Engine, hb *handlers.HandlerBundle) {
	api := r.Group("/api/slots")
	{
		// Slot browsing is public so patients can shop before registering.
		api.GET("/doctors/:doctorId", hb.Slots.ListByDoctor)
		api.GET("/doctors/:doctorId/available", hb.Slots.ListAvailable)

		doctor := api.Group("")
		doctor.Use(middleware.JWTAuthMiddleware(), middleware.RequireRole(models.RoleDoctor))
		doctor.POST("", hb.Slots.Publish)
		doctor.DELETE("/:slotId", hb.Slots.Delete)
	}
}

// RegisterAppointmentRoutes registers the consultation lifecycle endpoints.
func RegisterAppointmentRoutes(r *gin.Engine, hb *handlers.HandlerBundle) {
	api := r.Group("/api/appointments")
	{
		api.Use(middleware.JWTAuthMiddleware())
		api.GET("", hb.Appointments.List)
		api.GET("/:appointmentId", hb.Appointments.Get)
		api.PATCH("/:appointmentId/status", hb.Appointments.UpdateStatus)
		api.POST("/:appointmentId/extension", hb.Appointments.RequestExtension)
		api.POST("/:appointmentId/extension/accept", hb.Appointments.AcceptExtension)

		patient := api.Group("")
		patient.Use(middleware.RequireRole(models.RolePatient))
		patient.POST("", hb.Appointments.Create)
	}
}

// RegisterWalletRoutes registers balance, ledger, deposit and refund endpoints.
func RegisterWalletRoutes(r *gin.Engine, hb *handlers.HandlerBundle) {
	// Gateway webhooks authenticate by signature, not bearer token.
	r.POST("/api/wallet/deposits/webhook", hb.Wallet.StripeWebhook)

	api := r.Group("/api/wallet")
	{
		api.Use(middleware.JWTAuthMiddleware())
		api.GET("/balance", hb.Wallet.Balance)
		api.GET("/transactions", hb.Wallet.ListTransactions)
		api.GET("/transactions/:transactionId", hb.Wallet.GetTransaction)
		api.POST("/refunds", hb.Wallet.RequestRefund)
		api.GET("/refunds/:refundId", hb.Wallet.GetRefund)

		admin := api.Group("")
		admin.Use(middleware.RequireRole(models.RoleAdmin))
		admin.GET("/refunds", hb.Wallet.ListRefunds)
		admin.POST("/refunds/:refundId/decision", hb.Wallet.DecideRefund)
		admin.POST("/refunds/:refundId/process", hb.Wallet.ProcessRefund)
	}
}

// RegisterChatRoutes registers the communication-gate endpoints.
func RegisterChatRoutes(r *gin.Engine, hb *handlers.HandlerBundle) {
	api := r.Group("/api/chat")
	{
		api.Use(middleware.JWTAuthMiddleware())
		api.GET("/:appointmentId/access", hb.Chat.Access)
		api.POST("/:appointmentId/room", hb.Chat.LinkRoom)
	}
}

// RegisterHealthRoute registers a health-check endpoint.
func RegisterHealthRoute(r *gin.Engine) {
	r.GET("/health", handlers.Health)
}

// RegisterRoutes centralizes registration of all endpoints and middleware.
func RegisterRoutes(r *gin.Engine, hb *handlers.HandlerBundle) {
	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Authorization", "Content-Type"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))
	r.Use(middleware.RateLimitMiddleware())

	RegisterProfileRoutes(r, hb)
	RegisterSlotRoutes(r, hb)
	RegisterAppointmentRoutes(r, hb)
	RegisterWalletRoutes(r, hb)
	RegisterChatRoutes(r, hb)
	RegisterHealthRoute(r)
}
