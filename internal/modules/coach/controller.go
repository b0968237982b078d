package coach

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"
	"gorm.io/datatypes"

	"github.com/yungbote/fitcoach-backend/internal/data/kv"
	"github.com/yungbote/fitcoach-backend/internal/data/repos"
	"github.com/yungbote/fitcoach-backend/internal/domain/fitness"
	"github.com/yungbote/fitcoach-backend/internal/modules/progress"
	"github.com/yungbote/fitcoach-backend/internal/observability"
	"github.com/yungbote/fitcoach-backend/internal/platform/dbctx"
	"github.com/yungbote/fitcoach-backend/internal/platform/events"
	"github.com/yungbote/fitcoach-backend/internal/platform/logger"
)

type PlanGenerator interface {
	GeneratePlan(ctx context.Context, profile fitness.UserProfile) (*fitness.FitnessPlan, *Session, error)
}

type ChatSender interface {
	Send(ctx context.Context, session *Session, text string) (string, error)
}

type Deps struct {
	Log        *logger.Logger
	Store      kv.Store
	Planner    PlanGenerator
	Consultant ChatSender
	Runs       repos.GenerationRunRepo // optional
	Events     events.Publisher        // optional
	Metrics    *observability.Metrics  // optional
	Config     Config
	Now        func() time.Time
}

type state struct {
	profile    fitness.UserProfile
	plan       *fitness.FitnessPlan
	checkIns   []string
	history    []fitness.BodyMetrics
	transcript []fitness.ChatMessage
	session    *Session
	completed  map[string]bool
	activeDay  int
}

func defaultState() state {
	return state{
		profile:   fitness.DefaultProfile(),
		checkIns:  []string{},
		history:   []fitness.BodyMetrics{},
		completed: map[string]bool{},
	}
}

type pendingReset struct {
	token     string
	expiresAt time.Time
}

// Controller owns one origin's state and is the only writer of its keys in
// the store. All methods are safe for concurrent use.
type Controller struct {
	origin   string
	originID uuid.UUID
	deps     Deps
	log      *logger.Logger

	flight singleflight.Group

	mu         sync.Mutex
	st         state
	generating bool
	chatting   bool
	epoch      uint64 // bumped whenever the session or transcript is replaced
	reset      *pendingReset

	// raw values last read from or written to the store, by key
	seen map[string]string
}

func NewController(origin uuid.UUID, deps Deps) *Controller {
	if deps.Now == nil {
		deps.Now = time.Now
	}
	if deps.Log == nil {
		deps.Log = logger.Nop()
	}
	if deps.Events == nil {
		deps.Events = events.Noop()
	}
	deps.Config = deps.Config.withDefaults()
	return &Controller{
		origin:   origin.String(),
		originID: origin,
		deps:     deps,
		log:      deps.Log.With("service", "CoachController", "origin", origin.String()),
		st:       defaultState(),
		seen:     map[string]string{},
	}
}

func (c *Controller) Origin() uuid.UUID { return c.originID }

// idle reports whether no generation or chat is running. A held lock counts
// as busy.
func (c *Controller) idle() bool {
	if !c.mu.TryLock() {
		return false
	}
	defer c.mu.Unlock()
	return !c.generating && !c.chatting
}

// Load restores persisted state. A value that does not parse, or parses into
// something no mutation could have written, discards every key for the
// origin and leaves defaults in memory. Only store I/O errors are returned.
func (c *Controller) Load(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	raw, err := c.fetch(ctx)
	if err != nil {
		return err
	}
	next := defaultState()
	if corrupted := parseState(raw, &next); corrupted != nil {
		return c.discardLocked(ctx, corrupted)
	}
	c.st = next
	c.seen = raw
	c.epoch++
	return nil
}

// Sync adopts keys another writer changed in the store since this
// controller last read or wrote them.
func (c *Controller) Sync(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.syncLocked(ctx)
}

// syncLocked keeps unsaved onboarding edits unless the stored profile itself
// changed. A replaced plan drops the session, transcript and completion marks
// that belonged to the old one. Callers hold c.mu.
func (c *Controller) syncLocked(ctx context.Context) error {
	raw, err := c.fetch(ctx)
	if err != nil {
		return err
	}
	changed := func(key string) bool {
		a, okA := raw[key]
		b, okB := c.seen[key]
		return okA != okB || a != b
	}
	dirty := false
	for _, key := range kv.Keys {
		if changed(key) {
			dirty = true
			break
		}
	}
	if !dirty {
		return nil
	}

	next := defaultState()
	if corrupted := parseState(raw, &next); corrupted != nil {
		return c.discardLocked(ctx, corrupted)
	}
	if changed(kv.KeyUserProfile) {
		c.st.profile = next.profile
	}
	if changed(kv.KeyCheckInDates) {
		c.st.checkIns = next.checkIns
	}
	if changed(kv.KeyMetricsHistory) {
		c.st.history = next.history
	}
	if changed(kv.KeyFitnessPlan) {
		c.st.plan = next.plan
		c.st.session = nil
		c.st.transcript = nil
		c.st.completed = map[string]bool{}
		c.st.activeDay = 0
		c.epoch++
	}
	c.log.Debug("adopted state written elsewhere")
	c.seen = raw
	return nil
}

func (c *Controller) discardLocked(ctx context.Context, corrupted error) error {
	c.log.Warn("storage corrupted, resetting origin", "error", corrupted)
	c.deps.Metrics.IncStorageReset()
	if err := c.deps.Store.Clear(ctx, c.origin); err != nil {
		return fmt.Errorf("clear corrupted state: %w", err)
	}
	c.st = defaultState()
	c.seen = map[string]string{}
	c.epoch++
	return nil
}

func (c *Controller) fetch(ctx context.Context) (map[string]string, error) {
	raw := make(map[string]string, len(kv.Keys))
	for _, key := range kv.Keys {
		v, ok, err := c.deps.Store.Get(ctx, c.origin, key)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", key, err)
		}
		if ok {
			raw[key] = v
		}
	}
	return raw, nil
}

// parseState decodes raw into st and returns the first corruption found.
func parseState(raw map[string]string, st *state) error {
	if v, ok := raw[kv.KeyUserProfile]; ok {
		var p *fitness.UserProfile
		if err := json.Unmarshal([]byte(v), &p); err != nil {
			return fmt.Errorf("%s: %w", kv.KeyUserProfile, err)
		}
		if p != nil {
			if err := p.Validate(); err != nil {
				return fmt.Errorf("%s: %w", kv.KeyUserProfile, err)
			}
			st.profile = *p
		}
	}
	if v, ok := raw[kv.KeyFitnessPlan]; ok {
		var plan *fitness.FitnessPlan
		if err := json.Unmarshal([]byte(v), &plan); err != nil {
			return fmt.Errorf("%s: %w", kv.KeyFitnessPlan, err)
		}
		if plan != nil {
			if err := plan.CheckShape(); err != nil {
				return fmt.Errorf("%s: %w", kv.KeyFitnessPlan, err)
			}
		}
		st.plan = plan
	}
	if v, ok := raw[kv.KeyCheckInDates]; ok {
		var dates []string
		if err := json.Unmarshal([]byte(v), &dates); err != nil {
			return fmt.Errorf("%s: %w", kv.KeyCheckInDates, err)
		}
		for _, d := range dates {
			if _, err := time.Parse(fitness.DateLayout, d); err != nil {
				return fmt.Errorf("%s: %w", kv.KeyCheckInDates, err)
			}
		}
		if dates != nil {
			st.checkIns = dates
		}
	}
	if v, ok := raw[kv.KeyMetricsHistory]; ok {
		var history []fitness.BodyMetrics
		if err := json.Unmarshal([]byte(v), &history); err != nil {
			return fmt.Errorf("%s: %w", kv.KeyMetricsHistory, err)
		}
		for i, m := range history {
			if err := m.Validate(); err != nil {
				return fmt.Errorf("%s[%d]: %w", kv.KeyMetricsHistory, i, err)
			}
		}
		if history != nil {
			st.history = history
		}
	}
	return nil
}

// UpdateProfile applies onboarding form edits in memory. The profile is
// persisted together with the next generated plan.
func (c *Controller) UpdateProfile(patch fitness.ProfilePatch) (fitness.UserProfile, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.generating {
		return fitness.UserProfile{}, ErrGenerationBusy
	}
	next := patch.Apply(c.st.profile)
	if err := next.Validate(); err != nil {
		return fitness.UserProfile{}, err
	}
	c.st.profile = next
	return next.Clone(), nil
}

// CreatePlan generates a plan for the current profile. Concurrent calls
// share one provider request. On failure nothing changes.
// The shared generation outlives the caller that started it, bounded by
// Config.GenerationTimeout; each caller stops waiting when its own ctx ends.
func (c *Controller) CreatePlan(ctx context.Context) (*fitness.FitnessPlan, error) {
	ch := c.flight.DoChan("plan", func() (any, error) {
		gctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.deps.Config.GenerationTimeout)
		defer cancel()
		return c.createPlan(gctx)
	})
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(*fitness.FitnessPlan).Clone(), nil
	}
}

func (c *Controller) createPlan(ctx context.Context) (*fitness.FitnessPlan, error) {
	c.mu.Lock()
	profile := c.st.profile.Clone()
	if err := profile.Validate(); err != nil {
		c.mu.Unlock()
		c.deps.Metrics.IncPlanGeneration("invalid")
		return nil, err
	}
	c.generating = true
	c.mu.Unlock()

	defer func() {
		c.mu.Lock()
		c.generating = false
		c.mu.Unlock()
	}()

	start := c.deps.Now()
	plan, session, err := c.deps.Planner.GeneratePlan(ctx, profile)
	if err != nil {
		var ve *fitness.ValidationError
		if errors.As(err, &ve) {
			c.deps.Metrics.IncPlanGeneration("invalid")
			return nil, err
		}
		c.deps.Metrics.IncPlanGeneration("failed")
		c.recordRun(ctx, profile, nil, err, start)
		return nil, err
	}

	planJSON, err := json.Marshal(plan)
	if err != nil {
		return nil, fmt.Errorf("encode plan: %w", err)
	}
	profileJSON, err := json.Marshal(profile)
	if err != nil {
		return nil, fmt.Errorf("encode profile: %w", err)
	}

	c.mu.Lock()
	if err := c.deps.Store.SetMany(ctx, c.origin, map[string]string{
		kv.KeyFitnessPlan: string(planJSON),
		kv.KeyUserProfile: string(profileJSON),
	}); err != nil {
		c.mu.Unlock()
		c.deps.Metrics.IncPlanGeneration("failed")
		return nil, fmt.Errorf("persist plan: %w", err)
	}
	c.st.plan = plan
	c.st.profile = profile
	c.st.session = session
	c.st.transcript = []fitness.ChatMessage{{Role: fitness.RoleModel, Text: GreetingText}}
	c.st.completed = map[string]bool{}
	c.st.activeDay = 0
	c.seen[kv.KeyFitnessPlan] = string(planJSON)
	c.seen[kv.KeyUserProfile] = string(profileJSON)
	c.epoch++
	c.mu.Unlock()

	c.deps.Metrics.IncPlanGeneration("ok")
	c.recordRun(ctx, profile, planJSON, nil, start)
	events.BestEffort(ctx, c.log, c.deps.Events, events.New(events.TypePlanGenerated, c.origin, map[string]any{
		"dailyCalories": plan.DailyCalories,
		"days":          len(plan.WeeklySchedule),
		"goal":          profile.Goal,
	}))
	c.log.Info("plan generated", "days", len(plan.WeeklySchedule), "duration_ms", c.deps.Now().Sub(start).Milliseconds())
	return plan, nil
}

func (c *Controller) recordRun(ctx context.Context, profile fitness.UserProfile, planJSON []byte, genErr error, start time.Time) {
	if c.deps.Runs == nil {
		return
	}
	profileJSON, _ := json.Marshal(profile)
	run := &fitness.GenerationRun{
		Origin:     c.originID,
		Status:     fitness.RunStatusSucceeded,
		Profile:    datatypes.JSON(profileJSON),
		DurationMS: c.deps.Now().Sub(start).Milliseconds(),
	}
	if planJSON != nil {
		run.Plan = datatypes.JSON(planJSON)
	}
	if genErr != nil {
		run.Status = fitness.RunStatusFailed
		run.Error = genErr.Error()
		var ge *GenerationError
		if errors.As(genErr, &ge) && ge.Cause != nil {
			run.Error = ge.Error() + ": " + ge.Cause.Error()
		}
	}
	if err := c.deps.Runs.Create(dbctx.Context{Ctx: ctx}, run); err != nil {
		c.log.Warn("record generation run failed", "error", err)
	}
}

// CheckIn records today's local date. It reports whether the date was new.
func (c *Controller) CheckIn(ctx context.Context, now time.Time, loc *time.Location) (bool, string, error) {
	date := fitness.LocalDate(now, loc)

	c.mu.Lock()
	if err := c.syncLocked(ctx); err != nil {
		c.mu.Unlock()
		return false, date, err
	}
	for _, d := range c.st.checkIns {
		if d == date {
			c.mu.Unlock()
			return false, date, nil
		}
	}
	next := append(append(make([]string, 0, len(c.st.checkIns)+1), c.st.checkIns...), date)
	raw, err := json.Marshal(next)
	if err != nil {
		c.mu.Unlock()
		return false, date, fmt.Errorf("encode check-ins: %w", err)
	}
	if err := c.deps.Store.Set(ctx, c.origin, kv.KeyCheckInDates, string(raw)); err != nil {
		c.mu.Unlock()
		return false, date, fmt.Errorf("persist check-ins: %w", err)
	}
	c.st.checkIns = next
	c.seen[kv.KeyCheckInDates] = string(raw)
	c.mu.Unlock()

	c.deps.Metrics.IncCheckIn()
	events.BestEffort(ctx, c.log, c.deps.Events, events.New(events.TypeCheckInRecorded, c.origin, map[string]any{"date": date}))
	return true, date, nil
}

// AddMetric stores a body-metric snapshot, newest first. BMI uses the
// profile's current height. Profile fields named by the sync policy are
// overwritten only when the snapshot carries them.
func (c *Controller) AddMetric(ctx context.Context, in fitness.MetricInput, now time.Time, loc *time.Location) (fitness.BodyMetrics, error) {
	if err := in.Validate(); err != nil {
		return fitness.BodyMetrics{}, err
	}
	in = in.Normalize()

	c.mu.Lock()
	// the generation commit would overwrite a synced profile with its snapshot
	if c.generating {
		c.mu.Unlock()
		return fitness.BodyMetrics{}, ErrGenerationBusy
	}
	if err := c.syncLocked(ctx); err != nil {
		c.mu.Unlock()
		return fitness.BodyMetrics{}, err
	}
	entry := fitness.BodyMetrics{
		Date:        fitness.LocalDate(now, loc),
		Weight:      in.Weight,
		BMI:         progress.BMI(in.Weight, c.st.profile.Height),
		BodyFat:     in.BodyFat,
		MuscleMass:  in.MuscleMass,
		BoneMass:    in.BoneMass,
		VisceralFat: in.VisceralFat,
	}
	history := append([]fitness.BodyMetrics{entry}, c.st.history...)

	profile := c.st.profile.Clone()
	profileChanged := false
	if c.deps.Config.Sync.Weight {
		profile.Weight = entry.Weight
		profileChanged = true
	}
	if c.deps.Config.Sync.BodyFat && entry.BodyFat != nil {
		v := *entry.BodyFat
		profile.CurrentBodyFat = &v
		profileChanged = true
	}

	values := make(map[string]string, 2)
	raw, err := json.Marshal(history)
	if err != nil {
		c.mu.Unlock()
		return fitness.BodyMetrics{}, fmt.Errorf("encode metrics: %w", err)
	}
	values[kv.KeyMetricsHistory] = string(raw)
	if profileChanged {
		raw, err := json.Marshal(profile)
		if err != nil {
			c.mu.Unlock()
			return fitness.BodyMetrics{}, fmt.Errorf("encode profile: %w", err)
		}
		values[kv.KeyUserProfile] = string(raw)
	}
	if err := c.deps.Store.SetMany(ctx, c.origin, values); err != nil {
		c.mu.Unlock()
		return fitness.BodyMetrics{}, fmt.Errorf("persist metrics: %w", err)
	}
	c.st.history = history
	c.st.profile = profile
	for k, v := range values {
		c.seen[k] = v
	}
	c.mu.Unlock()

	c.deps.Metrics.IncBodyMetric()
	events.BestEffort(ctx, c.log, c.deps.Events, events.New(events.TypeMetricRecorded, c.origin, map[string]any{
		"date":   entry.Date,
		"weight": entry.Weight,
		"bmi":    entry.BMI,
	}))
	return entry.Clone(), nil
}

// RequestReset issues the one-time token ConfirmReset requires.
func (c *Controller) RequestReset() (string, time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	pr := &pendingReset{
		token:     uuid.NewString(),
		expiresAt: c.deps.Now().Add(c.deps.Config.ResetTTL),
	}
	c.reset = pr
	return pr.token, pr.expiresAt
}

// ConfirmReset wipes every persisted key for the origin and returns memory
// to defaults, dropping the session and transcript.
func (c *Controller) ConfirmReset(ctx context.Context, token string) error {
	c.mu.Lock()
	pr := c.reset
	if pr == nil || token == "" || pr.token != token || c.deps.Now().After(pr.expiresAt) {
		c.mu.Unlock()
		return ErrResetNotConfirmed
	}
	if c.generating {
		c.mu.Unlock()
		return ErrGenerationBusy
	}
	if err := c.deps.Store.Clear(ctx, c.origin); err != nil {
		c.mu.Unlock()
		return fmt.Errorf("clear state: %w", err)
	}
	c.reset = nil
	c.st = defaultState()
	c.seen = map[string]string{}
	c.epoch++
	c.mu.Unlock()

	if c.deps.Runs != nil {
		if err := c.deps.Runs.DeleteByOrigin(dbctx.Context{Ctx: ctx}, c.originID); err != nil {
			c.log.Warn("delete generation runs failed", "error", err)
		}
	}
	events.BestEffort(ctx, c.log, c.deps.Events, events.New(events.TypeStateReset, c.origin, nil))
	c.log.Info("origin reset")
	return nil
}

func exerciseKey(day, idx int) string { return fmt.Sprintf("%d-%d", day, idx) }

// ToggleExercise flips a completion mark. Marks live in memory only.
func (c *Controller) ToggleExercise(day, idx int) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.st.plan == nil {
		return false, ErrNoPlan
	}
	if day < 0 || day >= len(c.st.plan.WeeklySchedule) {
		return false, fitness.Invalid("day", "out of range")
	}
	if idx < 0 || idx >= len(c.st.plan.WeeklySchedule[day].Exercises) {
		return false, fitness.Invalid("exercise", "out of range")
	}
	key := exerciseKey(day, idx)
	c.st.completed[key] = !c.st.completed[key]
	return c.st.completed[key], nil
}

func (c *Controller) SelectDay(day int) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.st.plan == nil {
		return ErrNoPlan
	}
	if day < 0 || day >= len(c.st.plan.WeeklySchedule) {
		return fitness.Invalid("day", "out of range")
	}
	c.st.activeDay = day
	return nil
}

// SendMessage appends the user message, asks the consultant and appends the
// reply. Only one message may be outstanding at a time.
func (c *Controller) SendMessage(ctx context.Context, text string) (fitness.ChatMessage, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return fitness.ChatMessage{}, fitness.Invalid("text", "is required")
	}

	c.mu.Lock()
	if c.chatting {
		c.mu.Unlock()
		return fitness.ChatMessage{}, ErrChatBusy
	}
	c.chatting = true
	session := c.st.session
	epoch := c.epoch
	c.st.transcript = append(c.st.transcript, fitness.ChatMessage{Role: fitness.RoleUser, Text: text})
	c.mu.Unlock()

	reply, sendErr := c.deps.Consultant.Send(ctx, session, text)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.chatting = false

	var msg fitness.ChatMessage
	switch {
	case sendErr == nil:
		msg = fitness.ChatMessage{Role: fitness.RoleModel, Text: reply}
		c.deps.Metrics.IncChatMessage("ok")
	case c.deps.Config.ChatFailurePolicy == Propagate:
		c.deps.Metrics.IncChatMessage("failed")
		return fitness.ChatMessage{}, sendErr
	default:
		c.log.Warn("consultant reply substituted", "error", sendErr)
		msg = fitness.ChatMessage{Role: fitness.RoleModel, Text: ChatFallbackText}
		c.deps.Metrics.IncChatMessage("substituted")
	}

	// a new plan or a reset replaced the transcript while we waited
	if c.epoch != epoch {
		return msg, nil
	}
	c.st.transcript = append(c.st.transcript, msg)
	return msg, nil
}

// Snapshot is a deep copy of the controller state for rendering.
type Snapshot struct {
	Profile    fitness.UserProfile
	Plan       *fitness.FitnessPlan
	CheckIns   []string
	History    []fitness.BodyMetrics
	Transcript []fitness.ChatMessage
	HasSession bool
	Completed  map[string]bool
	ActiveDay  int
	Generating bool
	Chatting   bool
}

func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	s := Snapshot{
		Profile:    c.st.profile.Clone(),
		Plan:       c.st.plan.Clone(),
		CheckIns:   append([]string{}, c.st.checkIns...),
		History:    make([]fitness.BodyMetrics, 0, len(c.st.history)),
		Transcript: append([]fitness.ChatMessage{}, c.st.transcript...),
		HasSession: c.st.session.usable(),
		Completed:  make(map[string]bool, len(c.st.completed)),
		ActiveDay:  c.st.activeDay,
		Generating: c.generating,
		Chatting:   c.chatting,
	}
	for _, m := range c.st.history {
		s.History = append(s.History, m.Clone())
	}
	for k, v := range c.st.completed {
		s.Completed[k] = v
	}
	return s
}
