package v1

import (
	"net/http"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/smartclinic/clinic-api/internal/config"
	"github.com/smartclinic/clinic-api/internal/domain"
	"github.com/smartclinic/clinic-api/internal/middleware"
	"github.com/smartclinic/clinic-api/pkg/auth"
	"github.com/smartclinic/clinic-api/pkg/metrics"
)

type RouterDeps struct {
	Auth         *AuthHandler
	Appointments *AppointmentHandler
	Doctors      *DoctorHandler
	Patients     *PatientHandler
	Prescription *PrescriptionHandler

	JWTManager *auth.JWTManager
	Collector  *metrics.Collector
	Config     *config.Config
	Log        *zap.Logger
}

func NewRouter(deps RouterDeps) *gin.Engine {
	if deps.Config.App.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(cors.New(cors.Config{
		AllowOrigins:  deps.Config.CORS.AllowedOrigins,
		AllowMethods:  deps.Config.CORS.AllowedMethods,
		AllowHeaders:  deps.Config.CORS.AllowedHeaders,
		MaxAge:        deps.Config.CORS.MaxAge,
		AllowWildcard: true,
	}))
	r.Use(middleware.RequestLogger(deps.Log))
	r.Use(middleware.RateLimit(deps.Config.RateLimit, deps.Log))
	r.Use(middleware.Metrics(deps.Collector))

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(metrics.MetricsHandler()))

	authed := middleware.Authenticate(deps.JWTManager)
	adminOnly := middleware.RequireRole(domain.RoleAdmin)
	clinicians := middleware.RequireRole(domain.RoleAdmin, domain.RoleDoctor)
	patients := middleware.RequireRole(domain.RolePatient)
	bookers := middleware.RequireRole(domain.RoleAdmin, domain.RolePatient)

	api := r.Group("/api/v1")
	{
		api.POST("/auth/login", deps.Auth.Login)
		api.POST("/auth/refresh", deps.Auth.Refresh)

		// Self-service registration and doctor discovery are public so
		// patients can browse before signing in.
		api.POST("/patients", deps.Patients.Register)
		api.GET("/doctors", deps.Doctors.List)
		api.GET("/doctors/:id", deps.Doctors.Get)
		api.GET("/doctors/:id/availability", deps.Appointments.Availability)

		secured := api.Group("", authed)
		{
			secured.POST("/doctors", adminOnly, deps.Doctors.Create)
			secured.PUT("/doctors/:id", clinicians, deps.Doctors.Update)
			secured.DELETE("/doctors/:id", adminOnly, deps.Doctors.Delete)
			secured.GET("/doctors/:id/schedule", clinicians, deps.Appointments.DaySchedule)

			secured.GET("/patients/me/appointments", patients, deps.Patients.MyAppointments)
			secured.GET("/patients/:id", clinicians, deps.Patients.Get)

			secured.POST("/appointments", bookers, deps.Appointments.Book)
			secured.GET("/appointments/:id", deps.Appointments.Get)
			secured.PUT("/appointments/:id", patients, deps.Appointments.Reschedule)
			secured.DELETE("/appointments/:id", patients, deps.Appointments.Cancel)
			secured.PATCH("/appointments/:id/status", clinicians, deps.Appointments.ChangeStatus)
			secured.GET("/appointments/:id/prescription", deps.Prescription.GetByAppointment)

			secured.POST("/prescriptions", middleware.RequireRole(domain.RoleDoctor), deps.Prescription.Issue)
			secured.GET("/prescriptions", clinicians, deps.Prescription.ListByPatientName)
		}
	}

	return r
}
