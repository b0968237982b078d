package app

import (
	httpMW "github.com/yungbote/fitcoach-backend/internal/http/middleware"
	"github.com/yungbote/fitcoach-backend/internal/modules/origin"
	"github.com/yungbote/fitcoach-backend/internal/platform/logger"
)

type Middleware struct {
	Origin *httpMW.OriginMiddleware
}

func wireMiddleware(log *logger.Logger, origins origin.Service) Middleware {
	log.Info("Wiring middleware...")
	return Middleware{
		Origin: httpMW.NewOriginMiddleware(log, origins),
	}
}
