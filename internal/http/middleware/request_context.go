package middleware

import (
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/fitcoach-backend/internal/platform/ctxutil"
)

const headerTimezone = "X-Timezone"

// AttachRequestContext resolves the caller's calendar zone. An unknown or
// missing X-Timezone falls back to def.
func AttachRequestContext(def *time.Location) gin.HandlerFunc {
	return func(c *gin.Context) {
		loc := def
		if name := strings.TrimSpace(c.GetHeader(headerTimezone)); name != "" {
			if l, err := time.LoadLocation(name); err == nil {
				loc = l
			}
		}
		ctx := ctxutil.WithOriginData(c.Request.Context(), &ctxutil.OriginData{Location: loc})
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}
