package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"github.com/stripe/stripe-go/v76"

	"medilink/config"
	"medilink/cron"
	"medilink/database"
	appointmentRepo "medilink/database/repository/appointment"
	profileRepo "medilink/database/repository/profile"
	slotRepo "medilink/database/repository/slot"
	walletRepo "medilink/database/repository/wallet"
	"medilink/handlers"
	"medilink/routes"
	appointmentSvc "medilink/services/appointment"
	"medilink/services/chat"
	"medilink/services/notification"
	slotSvc "medilink/services/slot"
	walletSvc "medilink/services/wallet"
	"medilink/utils"
)

func main() {
	config.LoadConfig()
	logger := utils.GetLogger()

	database.InitDB()
	utils.InitRedis()
	utils.FirebaseInit()
	stripe.Key = config.AppConfig.StripeKey

	// Create the Gin router.
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(utils.ErrorHandler())
	router.Use(gin.Logger())

	// repositories.
	slots := slotRepo.NewMongoSlotRepo()
	appointments := appointmentRepo.NewMongoAppointmentRepo()
	wallets := walletRepo.NewMongoWalletRepo()
	profiles := profileRepo.NewMongoProfileRepo()

	// services.
	notificationService, err := notification.NewDefaultNotificationService(profiles)
	if err != nil {
		logger.Sugar().Fatalf("main: failed to initialize notification service: %v", err)
	}

	queueClient := cron.NewQueueClient()
	defer queueClient.Close()

	slotService := &slotSvc.DefaultSlotService{Repo: slots}
	appointmentService := &appointmentSvc.DefaultAppointmentService{
		Repo:     appointments,
		Slots:    slots,
		Wallet:   wallets,
		Profiles: profiles,
		Notifier: notificationService,
		Queue:    queueClient,
	}
	walletService := &walletSvc.DefaultWalletService{
		Repo:     wallets,
		Profiles: profiles,
		Notifier: notificationService,
	}
	chatService := &chat.DefaultChatAccessService{Repo: appointments}

	// Background worker: reminders and the no-show sweep.
	cron.InitWorker(appointmentService, notificationService)

	// Dependency health snapshots for the health endpoint.
	utils.StartHealthMonitor([]*redis.Client{
		utils.GetCacheClient(),
		utils.GetAuthCacheClient(),
	}, database.MongoClient)

	// Assemble the handler bundle.
	handlerBundle := &handlers.HandlerBundle{
		Profiles:     handlers.NewProfileHandler(profiles),
		Slots:        handlers.NewSlotHandler(slotService),
		Appointments: handlers.NewAppointmentHandler(appointmentService),
		Wallet:       handlers.NewWalletHandler(walletService),
		Chat:         handlers.NewChatHandler(chatService),
	}

	routes.RegisterRoutes(router, handlerBundle)

	port := config.AppConfig.AppPort
	if port == "" {
		port = "8080"
	}
	srv := &http.Server{
		Addr:    "0.0.0.0:" + port,
		Handler: router,
	}

	go func() {
		logger.Sugar().Infof("Starting server on %s...", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Sugar().Fatalf("main: server error: %v", err)
		}
	}()

	// Graceful shutdown on SIGINT/SIGTERM.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Sugar().Fatalf("main: forced shutdown: %v", err)
	}
	logger.Info("Server exited")
}
