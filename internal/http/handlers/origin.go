package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/fitcoach-backend/internal/http/response"
	"github.com/yungbote/fitcoach-backend/internal/modules/origin"
)

type OriginHandler struct {
	origins origin.Service
}

func NewOriginHandler(origins origin.Service) *OriginHandler {
	return &OriginHandler{origins: origins}
}

// POST /api/origins
func (h *OriginHandler) Create(c *gin.Context) {
	tok, err := h.origins.Issue(c.Request.Context())
	if err != nil {
		response.RespondError(c, http.StatusInternalServerError, "issue_origin_failed", err)
		return
	}
	response.RespondCreated(c, tok)
}
