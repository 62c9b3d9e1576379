package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/dipoade/resulta-api/internal/config"
	"github.com/dipoade/resulta-api/internal/database"
	"github.com/dipoade/resulta-api/internal/dto"
	"github.com/dipoade/resulta-api/internal/handler"
	"github.com/dipoade/resulta-api/internal/middleware"
	"github.com/dipoade/resulta-api/internal/models"
	"github.com/dipoade/resulta-api/internal/repository"
	"github.com/dipoade/resulta-api/internal/router"
	"github.com/dipoade/resulta-api/internal/scheduler"
	"github.com/dipoade/resulta-api/internal/service"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()

	db, err := database.ConnectPostgres(cfg.DatabaseURL, cfg.DBMaxConns)
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}

	if err := db.AutoMigrate(
		&models.Department{},
		&models.Course{},
		&models.Student{},
		&models.Term{},
		&models.TermLock{},
		&models.CourseRegistration{},
		&models.ResultRecord{},
		&models.CarryoverRecord{},
		&models.SemesterResultRecord{},
		&models.ComputationSummary{},
		&models.MasterComputationRun{},
	); err != nil {
		log.Fatalf("failed to migrate database: %v", err)
	}

	redisClient, err := database.ConnectRedis(cfg.RedisURL)
	if err != nil {
		log.Fatalf("failed to connect to redis: %v", err)
	}
	defer redisClient.Close()

	natsConn, err := database.ConnectNATS(cfg.NATSURL, cfg.AppName)
	if err != nil {
		log.Fatalf("failed to connect to nats: %v", err)
	}
	if natsConn != nil {
		defer natsConn.Close()
	}

	validate := validator.New(validator.WithRequiredStructEnabled())

	studentRepo := repository.NewStudentRepository(db)
	resultRepo := repository.NewResultRepository(db)
	termRepo := repository.NewTermRepository(db)
	registrationRepo := repository.NewRegistrationRepository(db)
	courseRepo := repository.NewCourseRepository(db)
	departmentRepo := repository.NewDepartmentRepository(db)
	carryoverRepo := repository.NewCarryoverRepository(db)
	summaryRepo := repository.NewSummaryRepository(db)
	semesterResultRepo := repository.NewSemesterResultRepository(db)
	masterRunRepo := repository.NewMasterRunRepository(db)

	notifier := service.NewNotificationService(natsConn, cfg.NotifySubject, logger)
	tracker := service.NewCarryoverTracker(carryoverRepo, studentRepo, logger)

	runCtx, stopWorkers := context.WithCancel(context.Background())
	defer stopWorkers()

	// The orchestrator reports into the queue through the master run
	// service, so the queue is constructed first and the handler closes over
	// the orchestrator set up afterwards.
	var jobQueue scheduler.Queue
	var pool *scheduler.Pool
	var orchestrator *service.ComputationOrchestrator

	runJob := func(ctx context.Context, job dto.ComputationJobRequest) error {
		ctx = middleware.ContextWithCorrelation(ctx, job.CorrelationID)
		_, err := orchestrator.Run(ctx, job)
		return err
	}

	if natsConn != nil {
		jobQueue = scheduler.NewNATSQueue(natsConn, cfg.JobSubject, logger)
	} else {
		pool = scheduler.NewPool(runJob, cfg.MaxRetries, 0, logger)
		jobQueue = pool
	}

	masterRunService := service.NewMasterRunService(masterRunRepo, departmentRepo, jobQueue, notifier, validate, logger)

	orchestrator = service.NewComputationOrchestrator(service.OrchestratorDeps{
		Students:        studentRepo,
		Results:         resultRepo,
		Carryovers:      carryoverRepo,
		Summaries:       summaryRepo,
		Terms:           termRepo,
		Registrations:   registrationRepo,
		Courses:         courseRepo,
		Departments:     departmentRepo,
		SemesterResults: semesterResultRepo,
		Tracker:         tracker,
		MasterRuns:      masterRunService,
		Notifier:        notifier,
	}, service.RunConfig{
		BatchSize:      cfg.BatchSize,
		FlushThreshold: cfg.FlushThreshold,
	}, validate, logger)

	if natsConn != nil {
		worker := scheduler.NewWorker(natsConn, cfg.JobSubject, cfg.JobQueueGroup, jobQueue, runJob, cfg.WorkerConcurrency, cfg.MaxRetries, logger)
		if err := worker.Start(runCtx); err != nil {
			log.Fatalf("failed to start job worker: %v", err)
		}
	} else {
		pool.Start(runCtx, cfg.WorkerConcurrency)
	}

	summaryQueries := service.NewSummaryQueryService(summaryRepo, redisClient, cfg.SummaryCacheTTL, logger)

	computationHandler := handler.NewComputationHandler(orchestrator, summaryQueries, jobQueue, validate, logger)
	masterRunHandler := handler.NewMasterRunHandler(masterRunService, logger)
	carryoverHandler := handler.NewCarryoverHandler(tracker, validate, logger)
	studentRecords := service.NewStudentRecordService(semesterResultRepo, logger)
	studentRecordHandler := handler.NewStudentRecordHandler(studentRecords, logger)

	app := fiber.New(fiber.Config{
		AppName:      cfg.AppName,
		ServerHeader: cfg.AppName,
	})

	middleware.Register(app, middleware.Config{Logger: &logger})
	router.Register(app, cfg, router.Dependencies{
		ComputationHandler:   computationHandler,
		MasterRunHandler:     masterRunHandler,
		CarryoverHandler:     carryoverHandler,
		StudentRecordHandler: studentRecordHandler,
		JWTMiddleware:        middleware.JWTProtected(cfg.JWTSecret),
	})

	go func() {
		if err := app.Listen(cfg.HTTPAddress()); err != nil {
			log.Fatalf("failed to start server: %v", err)
		}
	}()

	waitForShutdown(app, stopWorkers)
}

func waitForShutdown(app *fiber.App, stopWorkers context.CancelFunc) {
	shutdownCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-shutdownCtx.Done()

	stopWorkers()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(ctx); err != nil {
		log.Printf("graceful shutdown failed: %v", err)
	}

	log.Println("server stopped")
}
