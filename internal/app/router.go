package app

import (
	"github.com/yungbote/fitcoach-backend/internal/http"
	"github.com/yungbote/fitcoach-backend/internal/observability"
	"github.com/yungbote/fitcoach-backend/internal/platform/logger"
)

func wireServer(log *logger.Logger, cfg Config, metrics *observability.Metrics, tracing string, handlers Handlers, middleware Middleware) *http.Server {
	return http.NewServer(http.RouterConfig{
		Log:              log,
		Metrics:          metrics,
		Location:         cfg.Location(),
		CORSOrigins:      cfg.CORSOrigins,
		TracingService:   tracing,
		OriginMiddleware: middleware.Origin,
		OriginHandler:    handlers.Origin,
		CoachHandler:     handlers.Coach,
		HealthHandler:    handlers.Health,
	})
}
