package app

import (
	"context"

	httpH "github.com/yungbote/fitcoach-backend/internal/http/handlers"
	"github.com/yungbote/fitcoach-backend/internal/modules/coach"
	"github.com/yungbote/fitcoach-backend/internal/modules/origin"
	"github.com/yungbote/fitcoach-backend/internal/platform/logger"
)

type Services struct {
	Origins origin.Service
	Coach   *coach.Usecases
}

type Handlers struct {
	Health *httpH.HealthHandler
	Origin *httpH.OriginHandler
	Coach  *httpH.CoachHandler
}

func wireHandlers(log *logger.Logger, services Services, checks map[string]func(context.Context) error) Handlers {
	log.Info("Wiring handlers...")
	hc := make(map[string]httpH.Check, len(checks))
	for name, fn := range checks {
		hc[name] = fn
	}
	return Handlers{
		Health: httpH.NewHealthHandler(hc),
		Origin: httpH.NewOriginHandler(services.Origins),
		Coach:  httpH.NewCoachHandler(services.Coach),
	}
}
