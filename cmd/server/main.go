package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/ZiadSaad78/student-sorter-hub/api/swagger"
	"github.com/ZiadSaad78/student-sorter-hub/internal/handler"
	"github.com/ZiadSaad78/student-sorter-hub/internal/housing"
	"github.com/ZiadSaad78/student-sorter-hub/internal/middleware"
	"github.com/ZiadSaad78/student-sorter-hub/internal/repository"
	"github.com/ZiadSaad78/student-sorter-hub/internal/service"
	"github.com/ZiadSaad78/student-sorter-hub/pkg/cache"
	"github.com/ZiadSaad78/student-sorter-hub/pkg/config"
	"github.com/ZiadSaad78/student-sorter-hub/pkg/database"
	"github.com/ZiadSaad78/student-sorter-hub/pkg/logger"
	corsmiddleware "github.com/ZiadSaad78/student-sorter-hub/pkg/middleware/cors"
	reqidmiddleware "github.com/ZiadSaad78/student-sorter-hub/pkg/middleware/requestid"
	"github.com/ZiadSaad78/student-sorter-hub/pkg/storage"
)

// @title Student Housing Administration API
// @version 1.0.0
// @description Dormitory administration backend: students, buildings, rooms, assignments, applications, fees and reporting
// @BasePath /api/v1
// @schemes http
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect to postgres", "error", err)
	}
	defer db.Close() //nolint:errcheck

	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Sugar().Warnw("redis unavailable, caching disabled", "error", err)
		redisClient = nil
	}
	if redisClient != nil {
		defer redisClient.Close() //nolint:errcheck
	}

	// Repositories.
	userRepo := repository.NewUserRepository(db)
	studentRepo := repository.NewStudentRepository(db)
	buildingRepo := repository.NewBuildingRepository(db)
	roomRepo := repository.NewRoomRepository(db)
	assignmentRepo := repository.NewAssignmentRepository(db)
	applicationRepo := repository.NewApplicationRepository(db)
	feeRepo := repository.NewFeeRepository(db)
	complaintRepo := repository.NewComplaintRepository(db)
	notificationRepo := repository.NewNotificationRepository(db)
	reportRepo := repository.NewReportRepository(db)
	cacheRepo := repository.NewCacheRepository(redisClient)

	// In-memory housing state, hydrated from the database before the
	// server accepts traffic.
	store := housing.NewStore()
	engine := housing.NewEngine(store, logr)
	if err := hydrateStore(context.Background(), store, buildingRepo, roomRepo, studentRepo, assignmentRepo); err != nil {
		logr.Sugar().Fatalw("failed to hydrate housing state", "error", err)
	}
	summary := store.Summarize()
	logr.Sugar().Infow("housing state hydrated",
		"buildings", summary.TotalBuildings,
		"rooms", summary.TotalRooms,
		"occupied", summary.TotalOccupied)

	validate := validator.New()
	metricsService := service.NewMetricsService()
	metricsService.SetOccupiedBeds(summary.TotalOccupied)

	cacheService := service.NewCacheService(cacheRepo, metricsService, cfg.Dashboard.CacheTTL, logr, redisClient != nil)

	authService := service.NewAuthService(userRepo, validate, logr, service.AuthConfig{
		AccessTokenSecret:  cfg.JWT.Secret,
		AccessTokenExpiry:  cfg.JWT.Expiration,
		RefreshTokenExpiry: cfg.JWT.RefreshExpiration,
		Issuer:             "student-sorter-hub",
	})

	studentService := service.NewStudentService(studentRepo, store, validate, logr)
	buildingService := service.NewBuildingService(buildingRepo, store, validate, logr)
	roomService := service.NewRoomService(roomRepo, buildingRepo, store, cfg.Housing.MaxRoomCapacity, validate, logr)
	assignmentService := service.NewAssignmentService(engine, assignmentRepo, userRepo, cacheService, validate, logr)
	applicationService := service.NewApplicationService(applicationRepo, studentRepo, notificationRepo, userRepo, store, validate, logr)
	feeService := service.NewFeeService(feeRepo, studentRepo, validate, logr)
	complaintService := service.NewComplaintService(complaintRepo, studentRepo, notificationRepo, validate, logr)
	notificationService := service.NewNotificationService(notificationRepo, logr)
	dashboardService := service.NewDashboardService(store, applicationRepo, complaintRepo, feeRepo, cacheService, metricsService, cfg.Dashboard.CacheTTL, logr)

	rootCtx, rootCancel := context.WithCancel(context.Background())
	defer rootCancel()

	var reportService *service.ReportService
	if cfg.Reports.Enabled {
		exportStorage, err := storage.NewLocalStorage(cfg.Reports.StorageDir)
		if err != nil {
			logr.Sugar().Fatalw("failed to prepare export storage", "error", err)
		}
		signer := storage.NewSignedURLSigner(cfg.Reports.SignedURLSecret, cfg.Reports.SignedURLTTL)
		reportService = service.NewReportService(reportRepo, service.NewExportService(store), exportStorage, signer, service.ReportServiceConfig{
			WorkerConcurrency: cfg.Reports.WorkerConcurrency,
			WorkerRetries:     cfg.Reports.WorkerRetries,
			ResultTTL:         cfg.Reports.SignedURLTTL,
			CleanupInterval:   cfg.Reports.CleanupInterval,
		}, logr)
		reportService.Start(rootCtx)
		defer reportService.Stop()
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metricsService))

	metricsHandler := handler.NewMetricsHandler(metricsService)
	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", metricsHandler.Health)
	r.GET("/metrics", metricsHandler.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)
	handler.Register(api, handler.RouterDeps{
		Auth:          authService,
		Students:      studentService,
		Buildings:     buildingService,
		Rooms:         roomService,
		Assignments:   assignmentService,
		Applications:  applicationService,
		Fees:          feeService,
		Complaints:    complaintService,
		Notifications: notificationService,
		Dashboard:     dashboardService,
		Reports:       reportService,
		Metrics:       metricsService,
		Users:         userRepo,
	})

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logr.Sugar().Infow("server starting", "addr", srv.Addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logr.Sugar().Infow("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Sugar().Errorw("graceful shutdown failed", "error", err)
	}
	rootCancel()
}

// hydrateStore loads the full housing graph into memory. Entities are
// loaded in dependency order so every assignment can link an existing
// student and room.
func hydrateStore(ctx context.Context, store *housing.Store, buildings *repository.BuildingRepository, rooms *repository.RoomRepository, students *repository.StudentRepository, assignments *repository.AssignmentRepository) error {
	buildingRows, err := buildings.ListAll(ctx)
	if err != nil {
		return fmt.Errorf("load buildings: %w", err)
	}
	for _, b := range buildingRows {
		store.UpsertBuilding(b)
	}

	roomRows, err := rooms.ListAll(ctx)
	if err != nil {
		return fmt.Errorf("load rooms: %w", err)
	}
	for _, r := range roomRows {
		store.UpsertRoom(r)
	}

	studentRows, err := students.ListAll(ctx)
	if err != nil {
		return fmt.Errorf("load students: %w", err)
	}
	for _, s := range studentRows {
		store.UpsertStudent(s)
	}

	assignmentRows, err := assignments.ListActive(ctx)
	if err != nil {
		return fmt.Errorf("load assignments: %w", err)
	}
	for _, a := range assignmentRows {
		store.Hydrate(a)
	}
	return nil
}
