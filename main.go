package main

import (
	"log"

	api "studydash-backend/cmd/api"
	authdomain "studydash-backend/internal/auth/domain"
	authRepo "studydash-backend/internal/auth/repository"
	authUsecase "studydash-backend/internal/auth/usecase"
	coursedomain "studydash-backend/internal/course/domain"
	courseRepo "studydash-backend/internal/course/repository"
	"studydash-backend/internal/course/scheduler"
	courseUsecase "studydash-backend/internal/course/usecase"
	integrationdomain "studydash-backend/internal/integration/domain"
	integrationRepo "studydash-backend/internal/integration/repository"
	integrationUsecase "studydash-backend/internal/integration/usecase"
	"studydash-backend/internal/notification"
	"studydash-backend/pkg/config"
	"studydash-backend/pkg/database"
)

func main() {
	// Load configuration; a missing or malformed encryption key is fatal
	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load configuration:", err)
	}

	// Initialize database
	db, err := database.NewPostgresConnection(cfg)
	if err != nil {
		log.Fatal("Failed to connect to database:", err)
	}

	// Auto-migrate database schemas
	if err := db.AutoMigrate(
		&authdomain.User{},
		&authdomain.RefreshToken{},
		&coursedomain.Course{},
		&coursedomain.WorkItem{},
		&coursedomain.CalendarEvent{},
		&coursedomain.Tombstone{},
		&integrationdomain.Credential{},
		&notification.Notification{},
	); err != nil {
		log.Fatal("Failed to migrate database:", err)
	}

	// Initialize repositories (dependency injection)
	userRepo := authRepo.NewUserRepository(db)
	courseRepository := courseRepo.NewCourseRepository(db)
	workItemRepository := courseRepo.NewWorkItemRepository(db)
	eventRepository := courseRepo.NewEventRepository(db)
	tombstoneRepository := courseRepo.NewTombstoneRepository(db)
	credentialRepository := integrationRepo.NewCredentialRepository(db)
	notificationRepository := notification.NewRepository(db)

	// Initialize services and use cases
	notificationService := notification.NewService(notificationRepository)
	vault := integrationUsecase.NewVault(cfg.EncryptionKey, credentialRepository)

	authUsecaseInstance := authUsecase.NewAuthUsecase(userRepo, cfg)
	courseUsecaseInstance := courseUsecase.NewCourseUsecase(courseRepository, workItemRepository, eventRepository, tombstoneRepository)
	integrationUsecaseInstance := integrationUsecase.NewIntegrationUsecase(
		credentialRepository,
		vault,
		courseRepository,
		workItemRepository,
		eventRepository,
		tombstoneRepository,
		notificationService,
	)

	// Start the due-date reminder loop
	reminderScheduler := scheduler.NewDueReminderScheduler(workItemRepository, notificationService)
	reminderScheduler.Start()
	defer reminderScheduler.Stop()

	// Initialize HTTP handler
	handler := api.NewHandler(authUsecaseInstance, courseUsecaseInstance, integrationUsecaseInstance, notificationService, cfg)

	log.Printf("Server starting on port %s", cfg.Port)
	if err := handler.Start(":" + cfg.Port); err != nil {
		log.Fatal("Failed to start server:", err)
	}
}
