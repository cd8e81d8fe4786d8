// Package router assembles the gin engine and its route table.
package router

import (
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	"github.com/noah-isme/uni-scheduler-api/internal/handler"
	"github.com/noah-isme/uni-scheduler-api/internal/middleware"
	"github.com/noah-isme/uni-scheduler-api/internal/service"
	"github.com/noah-isme/uni-scheduler-api/pkg/config"
	"github.com/noah-isme/uni-scheduler-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/uni-scheduler-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/uni-scheduler-api/pkg/middleware/requestid"
)

// Options carries the cross-cutting collaborators of the engine.
type Options struct {
	Env            string
	APIPrefix      string
	AllowedOrigins []string
	Logger         *zap.Logger
	Tokens         middleware.TokenValidator
	Audit          middleware.AuditRecorder
	Metrics        *service.MetricsService
}

// Handlers groups every HTTP handler exposed by the API.
type Handlers struct {
	Auth      *handler.AuthHandler
	Events    *handler.BookingHandler
	Exams     *handler.BookingHandler
	Seating   *handler.SeatingHandler
	Schedules *handler.ScheduleHandler
	Venues    *handler.VenueHandler
	Reference *handler.ReferenceHandler
	Audit     *handler.AuditHandler
	Metrics   *handler.MetricsHandler
}

// New builds the engine. Reads are public; writes need a bearer token.
func New(opts Options, h Handlers) *gin.Engine {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(opts.Logger))
	r.Use(corsmiddleware.New(opts.AllowedOrigins))
	if opts.Metrics != nil {
		r.Use(middleware.Metrics(opts.Metrics, "/metrics", "/health"))
	}
	r.Use(middleware.WithResponseMeta())

	r.GET("/health", h.Metrics.Health)
	r.GET("/metrics", h.Metrics.Prometheus)
	if opts.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(opts.APIPrefix)
	api.GET("/health", h.Metrics.Health)
	api.GET("/metrics/summary", h.Metrics.Snapshot)

	api.POST("/auth/login", h.Auth.Login)
	api.GET("/me", middleware.JWT(opts.Tokens), h.Auth.Me)

	public := api.Group("", middleware.OptionalJWT(opts.Tokens))
	secured := api.Group("", middleware.JWT(opts.Tokens))

	registerBookings(public, secured, "/events", h.Events)
	registerBookings(public, secured, "/exams", h.Exams)
	public.GET("/exams/:id/seats", h.Seating.List)

	public.GET("/schedules", h.Schedules.List)
	public.POST("/schedules/check", h.Schedules.Check)
	public.GET("/schedules/export", h.Schedules.Export)

	public.GET("/venues", h.Venues.List)
	public.GET("/venues/:id", h.Venues.Get)
	venues := secured.Group("/venues", middleware.Audit(opts.Audit, "venue"))
	venues.POST("", h.Venues.Create)
	venues.PUT("/:id", h.Venues.Update)
	venues.DELETE("/:id", h.Venues.Delete)

	public.GET("/batches", h.Reference.ListBatches)
	public.GET("/batches/:id", h.Reference.GetBatch)
	batches := secured.Group("/batches", middleware.Audit(opts.Audit, "batch"))
	batches.POST("", h.Reference.CreateBatch)
	batches.PUT("/:id", h.Reference.UpdateBatch)
	batches.DELETE("/:id", h.Reference.DeleteBatch)

	public.GET("/departments", h.Reference.ListDepartments)
	public.GET("/departments/:id", h.Reference.GetDepartment)
	departments := secured.Group("/departments", middleware.Audit(opts.Audit, "department"))
	departments.POST("", h.Reference.CreateDepartment)
	departments.PUT("/:id", h.Reference.UpdateDepartment)
	departments.DELETE("/:id", h.Reference.DeleteDepartment)

	public.GET("/buildings", h.Reference.ListBuildings)
	buildings := secured.Group("/buildings", middleware.Audit(opts.Audit, "building"))
	buildings.POST("", h.Reference.CreateBuilding)
	buildings.PUT("/:id", h.Reference.UpdateBuilding)
	buildings.DELETE("/:id", h.Reference.DeleteBuilding)

	public.GET("/audit", h.Audit.List)

	return r
}

// registerBookings mounts the CRUD routes of one booking kind. Audit records come from the service.
func registerBookings(public, secured *gin.RouterGroup, path string, h *handler.BookingHandler) {
	public.GET(path, h.List)
	public.GET(path+"/:id", h.Get)
	secured.POST(path, h.Create)
	secured.PUT(path+"/:id", h.Update)
	secured.DELETE(path+"/:id", h.Delete)
}
