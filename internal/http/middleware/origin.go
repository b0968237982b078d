package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/yungbote/fitcoach-backend/internal/http/response"
	"github.com/yungbote/fitcoach-backend/internal/modules/origin"
	"github.com/yungbote/fitcoach-backend/internal/platform/ctxutil"
	"github.com/yungbote/fitcoach-backend/internal/platform/logger"
)

type OriginMiddleware struct {
	log     *logger.Logger
	origins origin.Service
}

func NewOriginMiddleware(log *logger.Logger, origins origin.Service) *OriginMiddleware {
	return &OriginMiddleware{log: log.With("Middleware", "OriginMiddleware"), origins: origins}
}

// RequireOrigin rejects requests without a valid device token.
func (om *OriginMiddleware) RequireOrigin() gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString := extractToken(c)
		if tokenString == "" {
			response.Abort(c, http.StatusUnauthorized, "unauthorized", origin.ErrMissingToken)
			return
		}
		ctx, err := om.origins.SetContextFromToken(c.Request.Context(), tokenString)
		if err != nil {
			om.log.Debug("origin token rejected", "error", err)
			response.Abort(c, http.StatusUnauthorized, "unauthorized", origin.ErrInvalidToken)
			return
		}
		od := ctxutil.GetOriginData(ctx)
		if od == nil || od.Origin == uuid.Nil {
			response.Abort(c, http.StatusForbidden, "forbidden", nil)
			return
		}
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

func extractToken(c *gin.Context) string {
	authHeader := c.GetHeader("Authorization")
	if len(authHeader) > 7 && strings.EqualFold(authHeader[:7], "Bearer ") {
		return strings.TrimSpace(authHeader[7:])
	}
	return ""
}
