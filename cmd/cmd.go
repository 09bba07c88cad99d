package cmd

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"car-journal-backend/internal/carinfo"
	"car-journal-backend/internal/config"
	"car-journal-backend/internal/db"
	"car-journal-backend/internal/handlers"
	"car-journal-backend/internal/media"
	"car-journal-backend/internal/middleware"
	"car-journal-backend/internal/models"
	"car-journal-backend/internal/notify"
	"car-journal-backend/internal/repository"
	"car-journal-backend/internal/services"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func Run() {
	// Load configuration
	path := os.Getenv("CONFIG_PATH")
	if path == "" {
		path = "config.yaml"
	}
	cfg, err := config.Load(path)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	// Setup logger
	setupLogger(cfg.Log.Level)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.Database.Migrate {
		if err := db.Migrate(cfg.Database.URL()); err != nil {
			log.Fatal().Err(err).Msg("Failed to migrate database")
		}
	}

	pool, err := db.Connect(ctx, cfg.Database.DSN())
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to database")
	}
	defer pool.Close()

	store, err := newMediaStore(ctx, cfg.Media)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create media store")
	}

	// Initialize repositories
	userRepo := repository.NewUserRepository(pool)
	carRepo := repository.NewCarRepository(pool)
	contactRepo := repository.NewContactRepository(pool)
	imageRepo := repository.NewImageRepository(pool)
	reminderRepo := repository.NewReminderRepository(pool)
	maintenanceRepo := repository.NewResourceRepository[models.Maintenance](pool, models.KindMaintenance)
	fuelingRepo := repository.NewResourceRepository[models.Fueling](pool, models.KindFueling)
	accessoryRepo := repository.NewResourceRepository[models.Accessory](pool, models.KindAccessory)
	insuranceRepo := repository.NewResourceRepository[models.Insurance](pool, models.KindInsurance)
	inspectionRepo := repository.NewResourceRepository[models.Inspection](pool, models.KindInspection)

	registry := services.NewImageRegistry(cfg.Images).
		Register(models.EntityAvatars, userRepo.AvatarTarget()).
		Register(models.EntityPosters, userRepo.PosterTarget()).
		Register(models.EntityCars, carRepo).
		Register(models.EntityContacts, contactRepo).
		Register(models.EntityMaintenance, maintenanceRepo).
		Register(models.EntityFueling, fuelingRepo).
		Register(models.EntityAccessory, accessoryRepo).
		Register(models.EntityInsurance, insuranceRepo).
		Register(models.EntityInspection, inspectionRepo)
	if err := registry.Validate(); err != nil {
		log.Fatal().Err(err).Msg("Invalid image registry")
	}

	// Initialize services
	validate := services.NewValidator()
	wsHub := services.NewWSHub()
	imageService := services.NewImageService(imageRepo, store, registry, wsHub, cfg.Media.Namespace, cfg.Media.MaxSizeMB<<20)
	carService := services.NewCarService(carRepo, imageService, carinfo.NewClient(cfg.CarInfo.BaseURL), validate)
	contactService := services.NewContactService(contactRepo, imageService, validate)
	userService := services.NewUserService(userRepo, imageService, newGoogleAuth(ctx, cfg.Google), validate, cfg.JWT.Secret, cfg.JWT.TTLDays)
	reminderService := services.NewReminderService(
		reminderRepo,
		carRepo,
		newMailer(cfg.Email),
		newPusher(cfg.Push),
		wsHub,
		validate,
		cfg.Reminders.Interval,
		cfg.Reminders.Window,
	)

	mounts := []func(chi.Router){
		resourceRoutes(maintenanceRepo, models.KindMaintenance, carRepo, contactRepo, imageService, validate),
		resourceRoutes(fuelingRepo, models.KindFueling, carRepo, contactRepo, imageService, validate),
		resourceRoutes(accessoryRepo, models.KindAccessory, carRepo, contactRepo, imageService, validate),
		resourceRoutes(insuranceRepo, models.KindInsurance, carRepo, contactRepo, imageService, validate),
		resourceRoutes(inspectionRepo, models.KindInspection, carRepo, contactRepo, imageService, validate),
	}

	// Initialize handlers
	userHandler := handlers.NewUserHandler(userService)
	carHandler := handlers.NewCarHandler(carService)
	contactHandler := handlers.NewContactHandler(contactService)
	reminderHandler := handlers.NewReminderHandler(reminderService)
	imageHandler := handlers.NewImageHandler(imageService, cfg.Media.MaxSizeMB<<20)
	wsHandler := handlers.NewWebSocketHandler(wsHub, userService)

	// Setup router
	r := chi.NewRouter()

	// Middleware
	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(chiMiddleware.Logger)
	r.Use(chiMiddleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Authorization", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	// Routes
	r.Route("/v1", func(r chi.Router) {
		// Public routes
		userHandler.PublicRoutes(r)

		// Protected routes
		r.Group(func(r chi.Router) {
			r.Use(middleware.AuthMiddleware(userService))
			userHandler.Routes(r)
			carHandler.Routes(r)
			contactHandler.Routes(r)
			reminderHandler.Routes(r)
			imageHandler.Routes(r)
			for _, mount := range mounts {
				mount(r)
			}
		})
	})

	// WebSocket route
	r.Get("/ws", wsHandler.HandleWebSocket)

	if cfg.Server.Profiling {
		r.Mount("/debug", chiMiddleware.Profiler())
	}

	go reminderService.Run(ctx)

	// Create HTTP server
	srv := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      r,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		log.Info().
			Str("host", cfg.Server.Host).
			Int("port", cfg.Server.Port).
			Msg("Starting server")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Server failed to start")
		}
	}()

	// Wait for interrupt signal for graceful shutdown
	<-ctx.Done()

	log.Info().Msg("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server exited")
}

// resourceRoutes builds the service and handler of one record kind
func resourceRoutes[T any](
	repo *repository.ResourceRepository[T],
	kind models.ResourceKind,
	cars *repository.CarRepository,
	contacts *repository.ContactRepository,
	images *services.ImageService,
	validate *validator.Validate,
) func(chi.Router) {
	service := services.NewResourceService[T](kind, repo, cars, contacts, images, validate)
	return handlers.NewResourceHandler[T](service).Routes
}

// newMediaStore picks the object storage backend
func newMediaStore(ctx context.Context, cfg config.MediaConfig) (media.Store, error) {
	switch cfg.Provider {
	case "minio":
		return media.NewMinioStore(ctx, cfg.Endpoint, cfg.AccessKey, cfg.SecretKey, cfg.Bucket, cfg.PublicBase, !cfg.DisableSSL)
	default:
		return media.NewS3Store(ctx, media.S3Options{
			Region:     cfg.Region,
			Bucket:     cfg.Bucket,
			AccessKey:  cfg.AccessKey,
			SecretKey:  cfg.SecretKey,
			Endpoint:   cfg.Endpoint,
			PublicBase: cfg.PublicBase,
		})
	}
}

// newGoogleAuth returns nil when Google sign-in is not configured or its discovery fails
func newGoogleAuth(ctx context.Context, cfg config.GoogleConfig) services.GoogleVerifier {
	if cfg.ClientID == "" {
		log.Warn().Msg("Google sign-in disabled: no client id")
		return nil
	}
	google, err := services.NewGoogleAuth(ctx, cfg.ClientID, cfg.ClientSecret, cfg.RedirectURL)
	if err != nil {
		log.Error().Err(err).Msg("Google sign-in disabled")
		return nil
	}
	return google
}

func newMailer(cfg config.EmailConfig) services.Mailer {
	if cfg.APIKey == "" {
		log.Warn().Msg("Email reminders disabled: no SendGrid api key")
		return nil
	}
	return notify.NewEmailSender(cfg.APIKey, cfg.From, cfg.FromName)
}

func newPusher(cfg config.PushConfig) services.Pusher {
	if cfg.KeyPath == "" {
		log.Warn().Msg("Push reminders disabled: no APNs key")
		return nil
	}
	pusher, err := notify.NewPushSender(notify.PushOptions{
		KeyPath:    cfg.KeyPath,
		KeyID:      cfg.KeyID,
		TeamID:     cfg.TeamID,
		Topic:      cfg.Topic,
		Production: cfg.Production,
	})
	if err != nil {
		log.Error().Err(err).Msg("Push reminders disabled")
		return nil
	}
	return pusher
}

// setupLogger configures zerolog logger
func setupLogger(level string) {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	parsed, err := zerolog.ParseLevel(level)
	if err != nil || level == "" {
		parsed = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(parsed)
}
