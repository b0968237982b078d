package coach

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/yungbote/fitcoach-backend/internal/data/kv"
	"github.com/yungbote/fitcoach-backend/internal/data/repos"
	"github.com/yungbote/fitcoach-backend/internal/observability"
	"github.com/yungbote/fitcoach-backend/internal/platform/events"
	"github.com/yungbote/fitcoach-backend/internal/platform/logger"
	"github.com/yungbote/fitcoach-backend/internal/platform/openai"
)

type UsecasesDeps struct {
	Log *logger.Logger

	AI      openai.Client
	Store   kv.Store
	Runs    repos.GenerationRunRepo
	Events  events.Publisher
	Metrics *observability.Metrics

	Config    Config
	ChartFont string
	// ChatModel overrides the provider model for consultant replies.
	ChatModel string

	// Planner and Consultant override the AI-backed defaults.
	Planner    PlanGenerator
	Consultant ChatSender
	Now        func() time.Time
}

type Usecases struct {
	hub   *Hub
	chart *ChartRenderer
	runs  repos.GenerationRunRepo
	now   func() time.Time
}

func New(deps UsecasesDeps) *Usecases {
	cfg := deps.Config.withDefaults()
	if deps.Log == nil {
		deps.Log = logger.Nop()
	}
	if deps.Now == nil {
		deps.Now = time.Now
	}
	planner := deps.Planner
	if planner == nil {
		planner = NewPlanner(deps.AI, deps.Log, cfg.Language)
	}
	consultant := deps.Consultant
	if consultant == nil {
		consultant = NewConsultant(openai.WithModel(deps.AI, deps.ChatModel), deps.Log)
	}
	return &Usecases{
		hub: NewHub(Deps{
			Log:        deps.Log,
			Store:      deps.Store,
			Planner:    planner,
			Consultant: consultant,
			Runs:       deps.Runs,
			Events:     deps.Events,
			Metrics:    deps.Metrics,
			Config:     cfg,
			Now:        deps.Now,
		}),
		chart: NewChartRenderer(deps.ChartFont),
		runs:  deps.Runs,
		now:   deps.Now,
	}
}

// Controller returns the origin's controller, loading it on first use.
func (u *Usecases) Controller(ctx context.Context, origin uuid.UUID) (*Controller, error) {
	return u.hub.Get(ctx, origin)
}

func (u *Usecases) Chart() *ChartRenderer { return u.chart }
