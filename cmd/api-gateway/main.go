package main

import (
	"fmt"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/acadsys/uniplan-api/api/swagger"
	"github.com/acadsys/uniplan-api/internal/handler"
	"github.com/acadsys/uniplan-api/internal/middleware"
	"github.com/acadsys/uniplan-api/internal/repository"
	"github.com/acadsys/uniplan-api/internal/service"
	"github.com/acadsys/uniplan-api/pkg/cache"
	"github.com/acadsys/uniplan-api/pkg/config"
	"github.com/acadsys/uniplan-api/pkg/database"
	"github.com/acadsys/uniplan-api/pkg/export"
	"github.com/acadsys/uniplan-api/pkg/logger"
	corsmiddleware "github.com/acadsys/uniplan-api/pkg/middleware/cors"
	reqidmiddleware "github.com/acadsys/uniplan-api/pkg/middleware/requestid"
)

// @title UniPlan API
// @version 1.0.0
// @description Enrollment eligibility and schedule-conflict resolution engine
// @BasePath /api/v1
// @schemes http

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
		logr.Sugar().Warnw("redis unavailable, planning cache disabled", "error", err)
		redisClient = nil
	}

	subjectRepo := repository.NewSubjectRepository(db)
	groupRepo := repository.NewGroupRepository(db)
	enrollmentRepo := repository.NewEnrollmentRepository(db)
	periodRepo := repository.NewPeriodRepository(db)
	cacheRepo := repository.NewCacheRepository(redisClient, logr)
	defer cacheRepo.Close() //nolint:errcheck

	checker := service.NewPrerequisiteChecker(cfg.Planning.MaxAttempts)
	detector := service.NewConflictDetector()
	metricsSvc := service.NewMetricsService()
	tokenSvc := service.NewTokenService(cfg.JWT)

	enrollmentSvc := service.NewEnrollmentService(enrollmentRepo, groupRepo, subjectRepo, checker, detector, cacheRepo, nil, logr)
	planningSvc := service.NewPlanningService(groupRepo, subjectRepo, enrollmentRepo, checker, detector, cacheRepo, metricsSvc, cfg.Planning, nil, logr)
	subjectSvc := service.NewSubjectService(subjectRepo, nil, logr)
	groupSvc := service.NewGroupService(groupRepo, subjectRepo, periodRepo, nil, logr)
	exportSvc := service.NewExportService(enrollmentSvc, groupRepo, export.NewCSVExporter(), export.NewPDFExporter(), logr)

	enrollmentHandler := handler.NewEnrollmentHandler(enrollmentSvc, metricsSvc)
	planningHandler := handler.NewPlanningHandler(planningSvc, metricsSvc)
	subjectHandler := handler.NewSubjectHandler(subjectSvc)
	groupHandler := handler.NewGroupHandler(groupSvc)
	exportHandler := handler.NewExportHandler(exportSvc)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metricsSvc))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	r.GET("/ready", func(c *gin.Context) {
		if err := db.Ping(); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded", "error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready", "metrics": metricsSvc.Snapshot()})
	})

	r.GET("/metrics", gin.WrapH(metricsSvc.Handler()))

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)
	api.Use(middleware.JWT(tokenSvc))
	{
		api.POST("/enrollments", enrollmentHandler.Enroll)
		api.DELETE("/enrollments/:id", enrollmentHandler.Drop)
		api.PUT("/enrollments/:id/grade", enrollmentHandler.RecordGrade)

		students := api.Group("/students", middleware.RequireStudentAccess("id"))
		{
			students.GET("/:id/history", enrollmentHandler.History)
			if cfg.Exports.Enabled {
				students.GET("/:id/history/export", exportHandler.HistoryCSV)
				students.GET("/:id/timetable/export", exportHandler.TimetablePDF)
			}
		}

		api.POST("/planning/simulate", planningHandler.Simulate)
		api.GET("/planning/available-groups", planningHandler.AvailableGroups)
		api.GET("/planning/available-subjects", planningHandler.AvailableSubjects)

		api.GET("/subjects", subjectHandler.List)
		api.POST("/subjects", subjectHandler.Create)
		api.GET("/subjects/:id", subjectHandler.Get)
		api.PUT("/subjects/:id", subjectHandler.Update)
		api.POST("/subjects/:id/prerequisites", subjectHandler.AddPrerequisite)

		api.GET("/groups", groupHandler.List)
		api.POST("/groups", groupHandler.Create)
		api.GET("/groups/:id", groupHandler.Get)
		api.POST("/groups/:id/schedules", groupHandler.AddSchedule)
		api.DELETE("/groups/:id", groupHandler.Deactivate)

		api.GET("/periods", groupHandler.ListPeriods)
		api.POST("/periods", groupHandler.CreatePeriod)
		api.GET("/periods/current", groupHandler.CurrentPeriod)
	}

	addr := fmt.Sprintf(":%d", cfg.Port)
	logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
	if err := r.Run(addr); err != nil {
		logr.Sugar().Fatalw("server failed", "error", err)
	}
}
