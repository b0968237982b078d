package http

import (
	"time"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	httpH "github.com/yungbote/fitcoach-backend/internal/http/handlers"
	httpMW "github.com/yungbote/fitcoach-backend/internal/http/middleware"
	"github.com/yungbote/fitcoach-backend/internal/observability"
	"github.com/yungbote/fitcoach-backend/internal/platform/logger"
)

type RouterConfig struct {
	Log      *logger.Logger
	Metrics  *observability.Metrics
	Location *time.Location // calendar zone when the client sends none

	CORSOrigins    []string
	TracingService string // empty disables otelgin

	OriginMiddleware *httpMW.OriginMiddleware
	OriginHandler    *httpH.OriginHandler
	CoachHandler     *httpH.CoachHandler
	HealthHandler    *httpH.HealthHandler
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	if cfg.TracingService != "" {
		r.Use(otelgin.Middleware(cfg.TracingService))
	}
	r.Use(httpMW.AttachTraceContext())
	r.Use(httpMW.AttachRequestContext(cfg.Location))
	r.Use(httpMW.RequestLogger(cfg.Log))
	r.Use(httpMW.Metrics(cfg.Metrics))
	r.Use(httpMW.CORS(cfg.CORSOrigins))

	// Health
	if cfg.HealthHandler != nil {
		r.GET("/healthcheck", cfg.HealthHandler.HealthCheck)
		r.GET("/readyz", cfg.HealthHandler.Ready)
	}
	if cfg.Metrics != nil {
		r.GET("/metrics", gin.WrapH(cfg.Metrics.Handler()))
	}

	api := r.Group("/api")
	{
		// Origins (public)
		if cfg.OriginHandler != nil {
			api.POST("/origins", cfg.OriginHandler.Create)
		}
	}

	protected := api.Group("/")
	{
		if cfg.OriginMiddleware != nil {
			protected.Use(cfg.OriginMiddleware.RequireOrigin())
		}

		if cfg.CoachHandler != nil {
			h := cfg.CoachHandler

			protected.GET("/state", h.GetState)
			protected.GET("/nav", h.GetNav)

			// Onboarding
			protected.GET("/onboarding", h.GetOnboarding)
			protected.PATCH("/profile", h.UpdateProfile)

			// Plan
			protected.POST("/plan", h.GeneratePlan)
			protected.GET("/plan", h.GetPlan)
			protected.GET("/plan/runs", h.ListGenerationRuns)
			protected.POST("/plan/days/:day/exercises/:idx/toggle", h.ToggleExercise)

			// Calendar
			protected.POST("/checkins", h.CheckIn)
			protected.GET("/calendar", h.GetCalendar)

			// Stats
			protected.POST("/metrics", h.AddMetric)
			protected.GET("/stats", h.GetStats)
			protected.GET("/stats/chart.png", h.GetStatsChart)

			protected.GET("/stretch", h.GetStretch)

			// Consultant
			protected.GET("/chat", h.GetChat)
			protected.POST("/chat/messages", h.SendMessage)

			// Reset
			protected.POST("/reset", h.RequestReset)
			protected.POST("/reset/confirm", h.ConfirmReset)
		}
	}

	return r
}
