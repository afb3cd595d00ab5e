package main

import (
	"context"
	"net/http"

	_ "time/tzdata" // Load timezone data

	"github.com/gorilla/mux"
	cron "github.com/robfig/cron/v3"
	"github.com/rs/cors"

	"github.com/partnerclub/booking-service/internal/app"
	"github.com/partnerclub/booking-service/internal/config"
	"github.com/partnerclub/booking-service/internal/constants"
	"github.com/partnerclub/booking-service/internal/controllers"
	"github.com/partnerclub/booking-service/internal/events"
	"github.com/partnerclub/booking-service/internal/middleware"
	"github.com/partnerclub/booking-service/internal/repositories"
	"github.com/partnerclub/booking-service/internal/routes"
	"github.com/partnerclub/booking-service/internal/services"
	"github.com/partnerclub/booking-service/internal/storage"
	"github.com/partnerclub/booking-service/internal/utils"
)

const appName = "booking-service"

func main() {
	utils.InitLogger(appName)
	cfg := config.LoadConfig(appName)

	application, err := app.NewApp(cfg)
	if err != nil {
		utils.Logger.Fatal("Failed to initialize the application:", err)
	}
	defer application.Close()

	// Repositories
	projectRepo := repositories.NewProjectRepository(application.DB)
	unitRepo := repositories.NewUnitRepository(application.DB)
	partnerRepo := repositories.NewPartnerRepository(application.DB)
	bookingRepo := repositories.NewBookingRepository(application.DB)

	if cfg.SeedDevData {
		if err := app.SeedDevData(projectRepo, unitRepo, partnerRepo); err != nil {
			utils.Logger.Fatal("Failed to seed dev data:", err)
		}
	}

	// Passport scans live on local disk behind the DocumentStore interface.
	documents, err := storage.NewDiskStore(cfg.DocumentsDir)
	if err != nil {
		utils.Logger.Fatal("Failed to initialize document store:", err)
	}

	// Event publisher (optional broker)
	var publisher events.Publisher = events.NoopPublisher{}
	if cfg.AMQPUrl != "" {
		amqpPub, err := events.NewAMQPPublisher(cfg.AMQPUrl, cfg.AMQPExchange)
		if err != nil {
			utils.Logger.Fatal("Failed to connect to RabbitMQ:", err)
		}
		publisher = amqpPub
	}
	defer publisher.Close()

	// Services
	bookingService := services.NewBookingService(bookingRepo, unitRepo, partnerRepo, publisher)
	authService := services.NewAuthService(
		partnerRepo, cfg.TelegramBotToken, cfg.RSAPrivateKey,
		cfg.InitDataExpiry, cfg.AccessTokenTTL,
	)
	mortgageService := services.NewMortgageService()

	// Controllers
	bookingsController := controllers.NewBookingsController(bookingService, documents)
	unitsController := controllers.NewUnitsController(unitRepo, projectRepo)
	authController := controllers.NewAuthController(authService)
	mortgageController := controllers.NewMortgageController(mortgageService)

	// Abandoned INIT bookings are swept hourly.
	c := cron.New()
	_, schErr := c.AddFunc("@hourly", func() {
		n, err := bookingService.ExpireStaleInitBookings(context.Background(), constants.StaleInitBookingTTL)
		if err != nil {
			utils.Logger.WithError(err).Error("Scheduled stale-booking sweep failed")
			return
		}
		if n > 0 {
			utils.Logger.Infof("Expired %d stale INIT bookings", n)
		}
	})
	if schErr != nil {
		utils.Logger.WithError(schErr).Fatal("Failed to schedule stale-booking sweep")
	}
	c.Start()
	defer c.Stop()

	// Router
	router := mux.NewRouter()

	// Health
	router.HandleFunc(routes.Health, controllers.HealthHandler).Methods(http.MethodGet)

	// Public
	router.HandleFunc(routes.AuthTelegram, authController.TelegramAuthHandler).Methods(http.MethodPost)
	router.HandleFunc(routes.UnitsByProject, unitsController.ListUnitsHandler).Methods(http.MethodGet)
	router.HandleFunc(routes.MortgageCalc, mortgageController.CalculateHandler).Methods(http.MethodPost)

	// Protected routes (JWT middleware)
	secured := router.NewRoute().Subrouter()
	secured.Use(middleware.AuthMiddleware(cfg.RSAPublicKey))

	secured.HandleFunc(routes.BookingsCreate, bookingsController.CreateBookingHandler).Methods(http.MethodPost)
	secured.HandleFunc(routes.BookingsPassport, bookingsController.AttachPassportHandler).Methods(http.MethodPost)
	secured.HandleFunc(routes.BookingsCancel, bookingsController.CancelBookingHandler).Methods(http.MethodPost)
	secured.HandleFunc(routes.BookingsMy, bookingsController.ListMyBookingsHandler).Methods(http.MethodPost)
	secured.HandleFunc(routes.BookingsStage, bookingsController.AdvanceStageHandler).Methods(http.MethodPost)

	// CORS config
	co := cors.New(cors.Options{
		AllowedOrigins:   []string{cfg.AppUrl},
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Authorization", "Content-Type"},
		AllowCredentials: true,
	})

	utils.Logger.Infof("Starting %s on port: %s", cfg.AppName, cfg.AppPort)
	if err := http.ListenAndServe(":"+cfg.AppPort, co.Handler(router)); err != nil {
		utils.Logger.Fatal("Failed to start server:", err)
	}
}
