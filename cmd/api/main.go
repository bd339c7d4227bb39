package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/smartclinic/clinic-api/internal/cache"
	"github.com/smartclinic/clinic-api/internal/config"
	v1 "github.com/smartclinic/clinic-api/internal/handler/v1"
	"github.com/smartclinic/clinic-api/internal/repository"
	"github.com/smartclinic/clinic-api/internal/service"
	"github.com/smartclinic/clinic-api/pkg/auth"
	"github.com/smartclinic/clinic-api/pkg/database"
	"github.com/smartclinic/clinic-api/pkg/logger"
	"github.com/smartclinic/clinic-api/pkg/metrics"
	"github.com/smartclinic/clinic-api/pkg/mongodb"
	"github.com/smartclinic/clinic-api/pkg/tracer"

	"github.com/go-redis/redis/v8"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("loading config: %v", err)
	}

	zl, err := logger.New(cfg.Log)
	if err != nil {
		log.Fatalf("building logger: %v", err)
	}
	defer zl.Sync() //nolint:errcheck

	zl.Info("starting clinic-api",
		zap.String("version", cfg.App.Version),
		zap.String("environment", cfg.App.Environment),
	)

	tp, err := tracer.Init(cfg.Tracing)
	if err != nil {
		zl.Fatal("initializing tracer", zap.Error(err))
	}
	defer func() {
		if err := tp.Shutdown(context.Background()); err != nil {
			zl.Warn("tracer shutdown", zap.Error(err))
		}
	}()

	db, err := database.Connect(cfg.Database)
	if err != nil {
		zl.Fatal("connecting to postgres", zap.Error(err))
	}
	if err := database.Migrate(db, zl); err != nil {
		zl.Fatal("running migrations", zap.Error(err))
	}

	mongoClient, err := mongodb.Connect(context.Background(), cfg.Mongo)
	if err != nil {
		zl.Fatal("connecting to mongodb", zap.Error(err))
	}
	defer func() {
		if err := mongoClient.Disconnect(context.Background()); err != nil {
			zl.Warn("mongodb disconnect", zap.Error(err))
		}
	}()

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err := rdb.Ping(context.Background()).Err(); err != nil {
		// Availability falls back to recomputing on every request.
		zl.Warn("redis unavailable, availability cache disabled", zap.Error(err))
		rdb = nil
	}

	collector := metrics.NewCollector("clinic")
	if sqlDB, err := db.DB(); err == nil {
		go func() {
			for range time.Tick(15 * time.Second) {
				collector.DBConnections.Set(float64(sqlDB.Stats().OpenConnections))
			}
		}()
	}

	jwtManager := auth.NewJWTManager(cfg.JWT)

	// Repositories
	apptRepo := repository.NewAppointmentGormRepository(db)
	doctorRepo := repository.NewDoctorGormRepository(db)
	patientRepo := repository.NewPatientGormRepository(db)
	adminRepo := repository.NewAdminGormRepository(db)
	auditRepo := repository.NewAuditGormRepository(db)
	prescRepo, err := repository.NewPrescriptionMongoRepository(mongoClient.Database(cfg.Mongo.Database))
	if err != nil {
		zl.Fatal("initializing prescription store", zap.Error(err))
	}

	availCache := cache.NewAvailabilityCache(rdb, cfg.Scheduling.AvailabilityCacheTTL, zl)

	// Services
	auditSvc := service.NewAuditService(auditRepo, collector, zl)
	availSvc := service.NewAvailabilityService(doctorRepo, apptRepo, availCache, cfg.Scheduling.StrictOverlapRemoval, collector, zl)
	apptSvc := service.NewAppointmentService(apptRepo, doctorRepo, patientRepo, availCache, auditSvc, collector, zl)
	doctorSvc := service.NewDoctorService(doctorRepo, apptRepo, availCache, auditSvc, zl)
	patientSvc := service.NewPatientService(patientRepo, apptRepo, auditSvc, collector, zl)
	prescSvc := service.NewPrescriptionService(prescRepo, apptRepo, auditSvc, collector, zl)
	authSvc := service.NewAuthService(adminRepo, doctorRepo, patientRepo, jwtManager, auditSvc, zl)

	router := v1.NewRouter(v1.RouterDeps{
		Auth:         v1.NewAuthHandler(authSvc),
		Appointments: v1.NewAppointmentHandler(apptSvc, availSvc),
		Doctors:      v1.NewDoctorHandler(doctorSvc),
		Patients:     v1.NewPatientHandler(patientSvc),
		Prescription: v1.NewPrescriptionHandler(prescSvc),
		JWTManager:   jwtManager,
		Collector:    collector,
		Config:       cfg,
		Log:          zl,
	})

	srv := &http.Server{
		Addr:         cfg.Server.Address(),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		zl.Info("http server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zl.Fatal("http server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	zl.Info("shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		zl.Error("forced shutdown", zap.Error(err))
	}

	// Flush buffered audit entries before the process exits.
	auditSvc.Shutdown()

	zl.Info("stopped")
}
