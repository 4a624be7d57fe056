package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"path"
	"syscall"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/classworks/lms-api/internal/config"
	"github.com/classworks/lms-api/internal/database"
	"github.com/classworks/lms-api/internal/handler"
	"github.com/classworks/lms-api/internal/middleware"
	"github.com/classworks/lms-api/internal/models"
	"github.com/classworks/lms-api/internal/repository"
	"github.com/classworks/lms-api/internal/router"
	"github.com/classworks/lms-api/internal/service"
	"github.com/classworks/lms-api/pkg/storage"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()

	db, err := database.ConnectPostgres(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}

	if err := db.AutoMigrate(
		&models.User{},
		&models.Course{},
		&models.Enrollment{},
		&models.Assignment{},
		&models.Submission{},
		&models.Quiz{},
		&models.Question{},
		&models.QuizResult{},
		&models.Material{},
		&models.Notice{},
		&models.ActivityLog{},
	); err != nil {
		log.Fatalf("failed to migrate database: %v", err)
	}

	var redisClient *redis.Client
	if cfg.RedisURL != "" {
		redisClient, err = database.ConnectRedis(cfg.RedisURL)
		if err != nil {
			log.Fatalf("failed to connect to redis: %v", err)
		}
		defer redisClient.Close()
	}

	var natsConn *nats.Conn
	if cfg.NATSURL != "" {
		natsConn, err = nats.Connect(cfg.NATSURL)
		if err != nil {
			log.Fatalf("failed to connect to nats: %v", err)
		}
		defer natsConn.Close()
	}

	assignmentUploads, err := buildUploader(cfg, logger, "assignments")
	if err != nil {
		log.Fatalf("failed to create uploader: %v", err)
	}
	submissionUploads, err := buildUploader(cfg, logger, "submissions")
	if err != nil {
		log.Fatalf("failed to create uploader: %v", err)
	}
	materialUploads, err := buildUploader(cfg, logger, "materials")
	if err != nil {
		log.Fatalf("failed to create uploader: %v", err)
	}
	noticeUploads, err := buildUploader(cfg, logger, "notices")
	if err != nil {
		log.Fatalf("failed to create uploader: %v", err)
	}

	validate := validator.New(validator.WithRequiredStructEnabled())

	userRepo := repository.NewUserRepository(db)
	courseRepo := repository.NewCourseRepository(db)
	assignmentRepo := repository.NewAssignmentRepository(db)
	submissionRepo := repository.NewSubmissionRepository(db)
	quizRepo := repository.NewQuizRepository(db)
	materialRepo := repository.NewMaterialRepository(db)
	noticeRepo := repository.NewNoticeRepository(db)
	activityRepo := repository.NewActivityLogRepository(db)

	events := service.NewNATSPublisher(natsConn, logger)

	activityService := service.NewActivityService(activityRepo, logger)
	authService := service.NewAuthService(userRepo, validate, cfg.JWTSecret, cfg.JWTTTL, logger)
	courseService := service.NewCourseService(courseRepo, validate, activityService, logger)
	assignmentService := service.NewAssignmentService(assignmentRepo, courseRepo, validate, assignmentUploads, logger)
	submissionService := service.NewSubmissionService(submissionRepo, assignmentRepo, courseRepo, validate, submissionUploads, events, activityService, logger)
	quizService := service.NewQuizService(quizRepo, courseRepo, validate, events, activityService, logger)
	materialService := service.NewMaterialService(materialRepo, courseRepo, materialUploads, validate, logger)
	noticeService := service.NewNoticeService(noticeRepo, courseRepo, noticeUploads, validate, redisClient, cfg.NoticeCacheTTL, events, activityService, logger)

	deps := router.Dependencies{
		AuthHandler:       handler.NewAuthHandler(authService, logger),
		CourseHandler:     handler.NewCourseHandler(courseService, logger),
		AssignmentHandler: handler.NewAssignmentHandler(assignmentService, logger),
		SubmissionHandler: handler.NewSubmissionHandler(submissionService, logger),
		QuizHandler:       handler.NewQuizHandler(quizService, logger),
		MaterialHandler:   handler.NewMaterialHandler(materialService, logger),
		NoticeHandler:     handler.NewNoticeHandler(noticeService, logger),
		ActivityHandler:   handler.NewActivityHandler(activityService, logger),
		JWTMiddleware:     middleware.JWTProtected(cfg.JWTSecret),
	}

	app := fiber.New(fiber.Config{
		AppName:      cfg.AppName,
		ServerHeader: cfg.AppName,
		BodyLimit:    32 * 1024 * 1024,
	})

	middleware.Register(app, middleware.Config{Logger: &logger})
	router.Register(app, cfg, deps)

	go func() {
		if err := app.Listen(cfg.HTTPAddress()); err != nil {
			log.Fatalf("failed to start server: %v", err)
		}
	}()

	waitForShutdown(app)
}

func buildUploader(cfg config.Config, logger zerolog.Logger, category string) (service.FileUploader, error) {
	if cfg.StorageDriver == config.StorageDriverCloudinary {
		return storage.NewCloudinary(storage.CloudinaryConfig{
			CloudName: cfg.CloudinaryCloudName,
			APIKey:    cfg.CloudinaryAPIKey,
			APISecret: cfg.CloudinaryAPISecret,
			Folder:    path.Join(cfg.CloudinaryUploadFolder, category),
		}, logger)
	}
	return storage.NewLocal(cfg.UploadDir, category, logger)
}

func waitForShutdown(app *fiber.App) {
	shutdownCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-shutdownCtx.Done()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(ctx); err != nil {
		log.Printf("graceful shutdown failed: %v", err)
	}

	log.Println("server stopped")
}
