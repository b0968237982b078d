package coach

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/yungbote/fitcoach-backend/internal/domain/fitness"
	"github.com/yungbote/fitcoach-backend/internal/platform/logger"
	"github.com/yungbote/fitcoach-backend/internal/platform/openai"
)

// DefaultLanguage is the reply language of plans and consultant answers.
const DefaultLanguage = "Traditional Chinese (繁體中文)"

// Planner turns a profile into a typed plan and opens the follow-up session.
type Planner struct {
	ai       openai.Client
	log      *logger.Logger
	language string
	now      func() time.Time
}

func NewPlanner(ai openai.Client, log *logger.Logger, language string) *Planner {
	if language == "" {
		language = DefaultLanguage
	}
	return &Planner{
		ai:       ai,
		log:      log.With("service", "Planner"),
		language: language,
		now:      time.Now,
	}
}

// GeneratePlan returns a plan satisfying CheckShape plus a fresh session, or
// an error. Invalid profiles fail with *fitness.ValidationError before any
// network call; every other failure is a *GenerationError.
func (p *Planner) GeneratePlan(ctx context.Context, profile fitness.UserProfile) (*fitness.FitnessPlan, *Session, error) {
	if err := profile.Validate(); err != nil {
		return nil, nil, err
	}

	obj, err := p.ai.GenerateJSON(ctx, planSystemPrompt, buildPlanPrompt(profile, p.language), planSchemaName, planSchema())
	if err != nil {
		if errors.Is(err, openai.ErrMalformedOutput) {
			err = &ParseError{Cause: err}
		}
		p.log.Warn("plan request failed", "error", err)
		return nil, nil, &GenerationError{Cause: err}
	}

	plan, err := decodePlan(obj)
	if err != nil {
		p.log.Warn("plan response rejected", "error", err)
		return nil, nil, &GenerationError{Cause: err}
	}

	convID, err := p.ai.CreateConversation(ctx)
	if err != nil {
		p.log.Warn("open consultation session failed", "error", err)
		return nil, nil, &GenerationError{Cause: fmt.Errorf("open session: %w", err)}
	}

	session := &Session{
		ConversationID: convID,
		Instructions:   sessionInstructions(profile, plan, p.language),
		OpenedAt:       p.now(),
	}
	return plan, session, nil
}

func decodePlan(obj map[string]any) (*fitness.FitnessPlan, error) {
	raw, err := json.Marshal(obj)
	if err != nil {
		return nil, &ParseError{Cause: err}
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.DisallowUnknownFields()
	var plan fitness.FitnessPlan
	if err := dec.Decode(&plan); err != nil {
		return nil, &ParseError{Cause: err}
	}
	if err := plan.CheckShape(); err != nil {
		return nil, &ParseError{Cause: err}
	}
	return &plan, nil
}
