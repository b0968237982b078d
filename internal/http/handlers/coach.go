package handlers

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/yungbote/fitcoach-backend/internal/domain/fitness"
	"github.com/yungbote/fitcoach-backend/internal/http/response"
	"github.com/yungbote/fitcoach-backend/internal/modules/coach"
	"github.com/yungbote/fitcoach-backend/internal/platform/ctxutil"
)

type CoachHandler struct {
	coach *coach.Usecases
}

func NewCoachHandler(uc *coach.Usecases) *CoachHandler {
	return &CoachHandler{coach: uc}
}

func requestOrigin(c *gin.Context) (uuid.UUID, *time.Location, bool) {
	od := ctxutil.GetOriginData(c.Request.Context())
	if od == nil || od.Origin == uuid.Nil {
		response.RespondError(c, http.StatusUnauthorized, "unauthorized", nil)
		return uuid.Nil, nil, false
	}
	return od.Origin, od.Location, true
}

// intParam parses an optional integer; missing means def.
func intParam(c *gin.Context, raw, name string, def int) (int, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return def, true
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_"+name, err)
		return 0, false
	}
	return n, true
}

func respond[T any](c *gin.Context, v T, err error) {
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, v)
}

// GET /api/state
func (h *CoachHandler) GetState(c *gin.Context) {
	origin, _, ok := requestOrigin(c)
	if !ok {
		return
	}
	v, err := h.coach.State(c.Request.Context(), origin)
	respond(c, v, err)
}

// GET /api/nav?tab=
func (h *CoachHandler) GetNav(c *gin.Context) {
	origin, _, ok := requestOrigin(c)
	if !ok {
		return
	}
	v, err := h.coach.Nav(c.Request.Context(), origin, strings.TrimSpace(c.Query("tab")))
	respond(c, v, err)
}

// GET /api/onboarding
func (h *CoachHandler) GetOnboarding(c *gin.Context) {
	origin, _, ok := requestOrigin(c)
	if !ok {
		return
	}
	v, err := h.coach.Onboarding(c.Request.Context(), origin)
	respond(c, v, err)
}

// PATCH /api/profile
func (h *CoachHandler) UpdateProfile(c *gin.Context) {
	origin, _, ok := requestOrigin(c)
	if !ok {
		return
	}
	var patch fitness.ProfilePatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	p, err := h.coach.UpdateProfile(c.Request.Context(), origin, patch)
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"profile": p})
}

// POST /api/plan
func (h *CoachHandler) GeneratePlan(c *gin.Context) {
	origin, loc, ok := requestOrigin(c)
	if !ok {
		return
	}
	v, err := h.coach.GeneratePlan(c.Request.Context(), origin, loc)
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondCreated(c, v)
}

// GET /api/plan?day=
func (h *CoachHandler) GetPlan(c *gin.Context) {
	origin, loc, ok := requestOrigin(c)
	if !ok {
		return
	}
	day, ok := intParam(c, c.Query("day"), "day", -1)
	if !ok {
		return
	}
	v, err := h.coach.Dashboard(c.Request.Context(), origin, day, loc)
	respond(c, v, err)
}

// POST /api/plan/days/:day/exercises/:idx/toggle
func (h *CoachHandler) ToggleExercise(c *gin.Context) {
	origin, loc, ok := requestOrigin(c)
	if !ok {
		return
	}
	day, ok := intParam(c, c.Param("day"), "day", 0)
	if !ok {
		return
	}
	idx, ok := intParam(c, c.Param("idx"), "exercise", 0)
	if !ok {
		return
	}
	v, err := h.coach.ToggleExercise(c.Request.Context(), origin, day, idx, loc)
	respond(c, v, err)
}

// POST /api/checkins
func (h *CoachHandler) CheckIn(c *gin.Context) {
	origin, loc, ok := requestOrigin(c)
	if !ok {
		return
	}
	v, err := h.coach.CheckIn(c.Request.Context(), origin, loc)
	respond(c, v, err)
}

// GET /api/calendar?year=&month=
func (h *CoachHandler) GetCalendar(c *gin.Context) {
	origin, loc, ok := requestOrigin(c)
	if !ok {
		return
	}
	year, ok := intParam(c, c.Query("year"), "year", 0)
	if !ok {
		return
	}
	month, ok := intParam(c, c.Query("month"), "month", 0)
	if !ok {
		return
	}
	v, err := h.coach.Calendar(c.Request.Context(), origin, year, month, loc)
	respond(c, v, err)
}

// POST /api/metrics
func (h *CoachHandler) AddMetric(c *gin.Context) {
	origin, loc, ok := requestOrigin(c)
	if !ok {
		return
	}
	var in fitness.MetricInput
	if err := c.ShouldBindJSON(&in); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	v, err := h.coach.AddMetric(c.Request.Context(), origin, in, loc)
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondCreated(c, v)
}

// GET /api/stats
func (h *CoachHandler) GetStats(c *gin.Context) {
	origin, _, ok := requestOrigin(c)
	if !ok {
		return
	}
	v, err := h.coach.Stats(c.Request.Context(), origin)
	respond(c, v, err)
}

// GET /api/stats/chart.png
func (h *CoachHandler) GetStatsChart(c *gin.Context) {
	origin, _, ok := requestOrigin(c)
	if !ok {
		return
	}
	png, err := h.coach.StatsChart(c.Request.Context(), origin)
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	c.Header("Cache-Control", "no-store")
	c.Data(http.StatusOK, "image/png", png)
}

// GET /api/stretch
func (h *CoachHandler) GetStretch(c *gin.Context) {
	origin, _, ok := requestOrigin(c)
	if !ok {
		return
	}
	v, err := h.coach.Stretch(c.Request.Context(), origin)
	respond(c, v, err)
}

// GET /api/chat
func (h *CoachHandler) GetChat(c *gin.Context) {
	origin, _, ok := requestOrigin(c)
	if !ok {
		return
	}
	v, err := h.coach.Chat(c.Request.Context(), origin)
	respond(c, v, err)
}

type sendMessageReq struct {
	Text string `json:"text"`
}

// POST /api/chat/messages
func (h *CoachHandler) SendMessage(c *gin.Context) {
	origin, _, ok := requestOrigin(c)
	if !ok {
		return
	}
	var req sendMessageReq
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	v, err := h.coach.SendMessage(c.Request.Context(), origin, req.Text)
	respond(c, v, err)
}

// POST /api/reset
func (h *CoachHandler) RequestReset(c *gin.Context) {
	origin, _, ok := requestOrigin(c)
	if !ok {
		return
	}
	v, err := h.coach.RequestReset(c.Request.Context(), origin)
	respond(c, v, err)
}

type confirmResetReq struct {
	Token string `json:"token"`
}

// POST /api/reset/confirm
func (h *CoachHandler) ConfirmReset(c *gin.Context) {
	origin, _, ok := requestOrigin(c)
	if !ok {
		return
	}
	var req confirmResetReq
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	v, err := h.coach.ConfirmReset(c.Request.Context(), origin, strings.TrimSpace(req.Token))
	respond(c, v, err)
}

// GET /api/plan/runs?limit=20
func (h *CoachHandler) ListGenerationRuns(c *gin.Context) {
	origin, _, ok := requestOrigin(c)
	if !ok {
		return
	}
	limit, ok := intParam(c, c.Query("limit"), "limit", 20)
	if !ok {
		return
	}
	runs, err := h.coach.GenerationRuns(c.Request.Context(), origin, limit)
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"runs": runs})
}
