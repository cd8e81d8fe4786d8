package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	_ "github.com/noah-isme/uni-scheduler-api/api/swagger"
	"github.com/noah-isme/uni-scheduler-api/internal/handler"
	"github.com/noah-isme/uni-scheduler-api/internal/models"
	"github.com/noah-isme/uni-scheduler-api/internal/repository"
	"github.com/noah-isme/uni-scheduler-api/internal/router"
	"github.com/noah-isme/uni-scheduler-api/internal/service"
	"github.com/noah-isme/uni-scheduler-api/migrations"
	"github.com/noah-isme/uni-scheduler-api/pkg/cache"
	"github.com/noah-isme/uni-scheduler-api/pkg/config"
	"github.com/noah-isme/uni-scheduler-api/pkg/database"
	"github.com/noah-isme/uni-scheduler-api/pkg/jobs"
	"github.com/noah-isme/uni-scheduler-api/pkg/logger"
	"github.com/noah-isme/uni-scheduler-api/pkg/mq"
)

// @title University Scheduler API
// @version 1.0.0
// @description Venue and batch conflict aware scheduling of events and exams
// @BasePath /api
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

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Fatal("failed to connect database", zap.Error(err))
	}
	defer db.Close()

	if cfg.Database.AutoMigrate {
		if err := migrations.Up(ctx, db); err != nil {
			logr.Fatal("failed to apply migrations", zap.Error(err))
		}
	}

	metricsSvc := service.NewMetricsService()

	var cacheRepo *repository.CacheRepository
	if cfg.Cache.Enabled {
		client, err := cache.NewRedis(ctx, cfg.Redis)
		if err != nil {
			logr.Warn("redis unavailable, listing cache disabled", zap.Error(err))
		} else {
			cacheRepo = repository.NewCacheRepository(client, logr)
			defer cacheRepo.Close() //nolint:errcheck
		}
	}
	var cacheSvc *service.CacheService
	if cacheRepo != nil {
		cacheSvc = service.NewCacheService(cacheRepo, metricsSvc, cfg.Cache.TTL, logr, true)
	}

	var publisher mq.Publisher = mq.NopPublisher{}
	if cfg.Events.Enabled {
		amqpPublisher, err := mq.NewPublisher(cfg.Events.URL, cfg.Events.Exchange)
		if err != nil {
			logr.Warn("broker unavailable, booking events disabled", zap.Error(err))
		} else {
			publisher = amqpPublisher
		}
	}
	defer publisher.Close() //nolint:errcheck

	validate := validator.New()

	txManager := repository.NewTxManager(db)
	bookingRepo := repository.NewBookingRepository(db)
	venueRepo := repository.NewVenueRepository(db)
	batchRepo := repository.NewBatchRepository(db)
	departmentRepo := repository.NewDepartmentRepository(db)
	buildingRepo := repository.NewBuildingRepository(db)
	studentRepo := repository.NewStudentRepository(db)
	seatRepo := repository.NewSeatRepository(db)
	userRepo := repository.NewUserRepository(db)
	auditRepo := repository.NewAuditRepository(db)

	auditSvc := service.NewAuditService(auditRepo, logr, jobs.QueueConfig{
		Workers:    cfg.Audit.Workers,
		BufferSize: cfg.Audit.BufferSize,
		MaxRetries: cfg.Audit.MaxRetries,
		RetryDelay: cfg.Audit.RetryDelay,
	})
	auditSvc.Start(context.Background())
	defer auditSvc.Stop()

	classifier := service.NewCampusClassifier(batchRepo, departmentRepo)
	seatingSvc := service.NewSeatingService(studentRepo, seatRepo, bookingRepo, logr)
	resolver := service.NewConflictResolver(bookingRepo, classifier, cfg.Scheduling.UnscopedBatchMode)
	bookingSvc := service.NewBookingService(bookingRepo, txManager, resolver, validate, logr, service.BookingServiceOptions{
		Audit:           auditSvc,
		Cache:           cacheSvc,
		Events:          service.NewEventPublisher(publisher, logr),
		Metrics:         metricsSvc,
		Seating:         seatingSvc,
		Students:        studentRepo,
		AssignExamSeats: cfg.Scheduling.AssignExamSeats,
	})
	venueSvc := service.NewVenueService(venueRepo, bookingRepo, txManager, cacheSvc, validate, logr)
	referenceSvc := service.NewReferenceService(batchRepo, departmentRepo, buildingRepo, cacheSvc, validate, logr)
	exportSvc := service.NewExportService(bookingSvc, logr)
	authSvc := service.NewAuthService(userRepo, validate, logr, service.AuthConfig{
		AccessTokenSecret: cfg.JWT.Secret,
		AccessTokenExpiry: cfg.JWT.Expiration,
		Issuer:            cfg.JWT.Issuer,
	})

	var cacheCheck handler.HealthCheck
	if cacheRepo != nil {
		cacheCheck = cacheRepo.Ping
	}

	engine := router.New(router.Options{
		Env:            cfg.Env,
		APIPrefix:      cfg.APIPrefix,
		AllowedOrigins: cfg.CORS.AllowedOrigins,
		Logger:         logr,
		Tokens:         authSvc,
		Audit:          auditSvc,
		Metrics:        metricsSvc,
	}, router.Handlers{
		Auth:      handler.NewAuthHandler(authSvc),
		Events:    handler.NewBookingHandler(bookingSvc, models.BookingKindEvent),
		Exams:     handler.NewBookingHandler(bookingSvc, models.BookingKindExam),
		Seating:   handler.NewSeatingHandler(seatingSvc),
		Schedules: handler.NewScheduleHandler(bookingSvc, exportSvc),
		Venues:    handler.NewVenueHandler(venueSvc),
		Reference: handler.NewReferenceHandler(referenceSvc),
		Audit:     handler.NewAuditHandler(auditSvc),
		Metrics:   handler.NewMetricsHandler(metricsSvc, db.PingContext, cacheCheck),
	})

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logr.Sugar().Infow("server starting", "addr", srv.Addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	<-ctx.Done()
	logr.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Warn("graceful shutdown failed", zap.Error(err))
	}
}
