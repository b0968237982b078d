package coach

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/yungbote/fitcoach-backend/internal/domain/fitness"
	"github.com/yungbote/fitcoach-backend/internal/platform/apierr"
	"github.com/yungbote/fitcoach-backend/internal/platform/dbctx"
)

// toAPIError maps controller failures onto HTTP status and code.
func toAPIError(err error, fallback string) error {
	if err == nil {
		return nil
	}
	var (
		ve *fitness.ValidationError
		ge *GenerationError
		se *SessionError
		te *TransportError
		ae *apierr.Error
	)
	switch {
	case errors.As(err, &ae):
		return ae
	case errors.As(err, &ve):
		return apierr.New(http.StatusBadRequest, "validation_failed", err).WithField(ve.Field)
	case errors.As(err, &ge):
		return apierr.New(http.StatusBadGateway, "plan_generation_failed", err)
	case errors.As(err, &se):
		return apierr.New(http.StatusConflict, "no_session", err)
	case errors.As(err, &te):
		return apierr.New(http.StatusBadGateway, "chat_failed", err)
	case errors.Is(err, ErrChatBusy):
		return apierr.New(http.StatusConflict, "chat_busy", err)
	case errors.Is(err, ErrGenerationBusy):
		return apierr.New(http.StatusConflict, "generation_busy", err)
	case errors.Is(err, ErrResetNotConfirmed):
		return apierr.New(http.StatusConflict, "reset_not_confirmed", err)
	case errors.Is(err, ErrNoPlan):
		return apierr.New(http.StatusConflict, "no_plan", err)
	case errors.Is(err, ErrNoTrend):
		return apierr.New(http.StatusNotFound, "no_trend", err)
	default:
		return apierr.New(http.StatusInternalServerError, fallback, err)
	}
}

func (u *Usecases) controller(ctx context.Context, origin uuid.UUID) (*Controller, error) {
	if origin == uuid.Nil {
		return nil, apierr.New(http.StatusUnauthorized, "unauthorized", nil)
	}
	c, err := u.hub.Get(ctx, origin)
	if err != nil {
		return nil, apierr.New(http.StatusInternalServerError, "load_state_failed", err)
	}
	return c, nil
}

// StateView is the full client state, the shape a fresh client boots from.
type StateView struct {
	Profile    fitness.UserProfile   `json:"profile"`
	Plan       *fitness.FitnessPlan  `json:"plan"`
	CheckIns   []string              `json:"checkInDates"`
	History    []fitness.BodyMetrics `json:"metricsHistory"`
	Transcript []fitness.ChatMessage `json:"chat"`
	ActiveDay  int                   `json:"activeDay"`
	Generating bool                  `json:"generating"`
	Nav        NavView               `json:"nav"`
}

func (u *Usecases) State(ctx context.Context, origin uuid.UUID) (StateView, error) {
	c, err := u.controller(ctx, origin)
	if err != nil {
		return StateView{}, err
	}
	s := c.Snapshot()
	return StateView{
		Profile:    s.Profile,
		Plan:       s.Plan,
		CheckIns:   s.CheckIns,
		History:    s.History,
		Transcript: s.Transcript,
		ActiveDay:  s.ActiveDay,
		Generating: s.Generating,
		Nav:        BuildNavView(s, TabPlan),
	}, nil
}

func (u *Usecases) Nav(ctx context.Context, origin uuid.UUID, tab string) (NavView, error) {
	c, err := u.controller(ctx, origin)
	if err != nil {
		return NavView{}, err
	}
	active := TabPlan
	if tab != "" {
		t, ok := ParseTab(tab)
		if !ok {
			return NavView{}, toAPIError(fitness.Invalid("tab", "unknown tab"), "nav_failed")
		}
		active = t
	}
	return BuildNavView(c.Snapshot(), active), nil
}

func (u *Usecases) Onboarding(ctx context.Context, origin uuid.UUID) (OnboardingView, error) {
	c, err := u.controller(ctx, origin)
	if err != nil {
		return OnboardingView{}, err
	}
	return BuildOnboardingView(c.Snapshot()), nil
}

func (u *Usecases) UpdateProfile(ctx context.Context, origin uuid.UUID, patch fitness.ProfilePatch) (fitness.UserProfile, error) {
	c, err := u.controller(ctx, origin)
	if err != nil {
		return fitness.UserProfile{}, err
	}
	p, err := c.UpdateProfile(patch)
	return p, toAPIError(err, "update_profile_failed")
}

// GeneratePlan creates a plan and returns the dashboard it lands on.
func (u *Usecases) GeneratePlan(ctx context.Context, origin uuid.UUID, loc *time.Location) (DashboardView, error) {
	c, err := u.controller(ctx, origin)
	if err != nil {
		return DashboardView{}, err
	}
	if _, err := c.CreatePlan(ctx); err != nil {
		return DashboardView{}, toAPIError(err, "plan_generation_failed")
	}
	v, err := BuildDashboardView(c.Snapshot(), -1, u.now(), loc)
	return v, toAPIError(err, "dashboard_failed")
}

// Dashboard renders the plan tab. A day >= 0 also selects that day.
func (u *Usecases) Dashboard(ctx context.Context, origin uuid.UUID, day int, loc *time.Location) (DashboardView, error) {
	c, err := u.controller(ctx, origin)
	if err != nil {
		return DashboardView{}, err
	}
	if day >= 0 {
		if err := c.SelectDay(day); err != nil {
			return DashboardView{}, toAPIError(err, "dashboard_failed")
		}
	}
	v, err := BuildDashboardView(c.Snapshot(), -1, u.now(), loc)
	return v, toAPIError(err, "dashboard_failed")
}

func (u *Usecases) ToggleExercise(ctx context.Context, origin uuid.UUID, day, idx int, loc *time.Location) (DashboardView, error) {
	c, err := u.controller(ctx, origin)
	if err != nil {
		return DashboardView{}, err
	}
	if _, err := c.ToggleExercise(day, idx); err != nil {
		return DashboardView{}, toAPIError(err, "toggle_failed")
	}
	v, err := BuildDashboardView(c.Snapshot(), day, u.now(), loc)
	return v, toAPIError(err, "dashboard_failed")
}

type CheckInResult struct {
	Date       string `json:"date"`
	Added      bool   `json:"added"`
	MonthCount int    `json:"monthCount"`
}

func (u *Usecases) CheckIn(ctx context.Context, origin uuid.UUID, loc *time.Location) (CheckInResult, error) {
	c, err := u.controller(ctx, origin)
	if err != nil {
		return CheckInResult{}, err
	}
	now := u.now()
	added, date, err := c.CheckIn(ctx, now, loc)
	if err != nil {
		return CheckInResult{}, toAPIError(err, "checkin_failed")
	}
	cal, err := BuildCalendarView(c.Snapshot(), localYear(now, loc), localMonth(now, loc), now, loc)
	if err != nil {
		return CheckInResult{}, toAPIError(err, "checkin_failed")
	}
	return CheckInResult{Date: date, Added: added, MonthCount: cal.MonthCount}, nil
}

// Calendar renders a month; zero year or month means the current one.
func (u *Usecases) Calendar(ctx context.Context, origin uuid.UUID, year int, month int, loc *time.Location) (CalendarView, error) {
	c, err := u.controller(ctx, origin)
	if err != nil {
		return CalendarView{}, err
	}
	now := u.now()
	if year == 0 {
		year = localYear(now, loc)
	}
	m := time.Month(month)
	if month == 0 {
		m = localMonth(now, loc)
	}
	v, err := BuildCalendarView(c.Snapshot(), year, m, now, loc)
	return v, toAPIError(err, "calendar_failed")
}

type MetricResult struct {
	Metric fitness.BodyMetrics `json:"metric"`
	Stats  StatsView           `json:"stats"`
}

func (u *Usecases) AddMetric(ctx context.Context, origin uuid.UUID, in fitness.MetricInput, loc *time.Location) (MetricResult, error) {
	c, err := u.controller(ctx, origin)
	if err != nil {
		return MetricResult{}, err
	}
	m, err := c.AddMetric(ctx, in, u.now(), loc)
	if err != nil {
		return MetricResult{}, toAPIError(err, "add_metric_failed")
	}
	return MetricResult{Metric: m, Stats: BuildStatsView(c.Snapshot())}, nil
}

func (u *Usecases) Stats(ctx context.Context, origin uuid.UUID) (StatsView, error) {
	c, err := u.controller(ctx, origin)
	if err != nil {
		return StatsView{}, err
	}
	return BuildStatsView(c.Snapshot()), nil
}

func (u *Usecases) StatsChart(ctx context.Context, origin uuid.UUID) ([]byte, error) {
	c, err := u.controller(ctx, origin)
	if err != nil {
		return nil, err
	}
	png, err := u.chart.RenderChart(c.Snapshot())
	return png, toAPIError(err, "chart_failed")
}

func (u *Usecases) Stretch(ctx context.Context, origin uuid.UUID) (StretchView, error) {
	c, err := u.controller(ctx, origin)
	if err != nil {
		return StretchView{}, err
	}
	v, err := BuildStretchView(c.Snapshot())
	return v, toAPIError(err, "stretch_failed")
}

func (u *Usecases) Chat(ctx context.Context, origin uuid.UUID) (ChatView, error) {
	c, err := u.controller(ctx, origin)
	if err != nil {
		return ChatView{}, err
	}
	return BuildChatView(c.Snapshot()), nil
}

type ChatReply struct {
	Reply fitness.ChatMessage `json:"reply"`
	Chat  ChatView            `json:"chat"`
}

func (u *Usecases) SendMessage(ctx context.Context, origin uuid.UUID, text string) (ChatReply, error) {
	c, err := u.controller(ctx, origin)
	if err != nil {
		return ChatReply{}, err
	}
	reply, err := c.SendMessage(ctx, text)
	if err != nil {
		return ChatReply{}, toAPIError(err, "chat_failed")
	}
	return ChatReply{Reply: reply, Chat: BuildChatView(c.Snapshot())}, nil
}

type ResetChallenge struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
}

func (u *Usecases) RequestReset(ctx context.Context, origin uuid.UUID) (ResetChallenge, error) {
	c, err := u.controller(ctx, origin)
	if err != nil {
		return ResetChallenge{}, err
	}
	token, exp := c.RequestReset()
	return ResetChallenge{Token: token, ExpiresAt: exp.UTC()}, nil
}

func (u *Usecases) ConfirmReset(ctx context.Context, origin uuid.UUID, token string) (OnboardingView, error) {
	c, err := u.controller(ctx, origin)
	if err != nil {
		return OnboardingView{}, err
	}
	if err := c.ConfirmReset(ctx, token); err != nil {
		return OnboardingView{}, toAPIError(err, "reset_failed")
	}
	return BuildOnboardingView(c.Snapshot()), nil
}

// GenerationRuns lists the origin's recent generation attempts.
func (u *Usecases) GenerationRuns(ctx context.Context, origin uuid.UUID, limit int) ([]*fitness.GenerationRun, error) {
	if origin == uuid.Nil {
		return nil, apierr.New(http.StatusUnauthorized, "unauthorized", nil)
	}
	if u.runs == nil {
		return []*fitness.GenerationRun{}, nil
	}
	runs, err := u.runs.ListByOrigin(dbctx.Context{Ctx: ctx}, origin, limit)
	if err != nil {
		return nil, apierr.New(http.StatusInternalServerError, "list_runs_failed", err)
	}
	return runs, nil
}

func localYear(now time.Time, loc *time.Location) int {
	if loc == nil {
		loc = time.Local
	}
	return now.In(loc).Year()
}

func localMonth(now time.Time, loc *time.Location) time.Month {
	if loc == nil {
		loc = time.Local
	}
	return now.In(loc).Month()
}
