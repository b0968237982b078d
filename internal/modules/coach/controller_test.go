package coach

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/yungbote/fitcoach-backend/internal/data/kv"
	"github.com/yungbote/fitcoach-backend/internal/domain/fitness"
	"github.com/yungbote/fitcoach-backend/internal/observability"
	"github.com/yungbote/fitcoach-backend/internal/platform/logger"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

type harness struct {
	ai     *fakeAI
	store  kv.Store
	clock  *fakeClock
	origin uuid.UUID
	deps   Deps
}

func newHarness(t *testing.T, mut ...func(*Config)) *harness {
	t.Helper()
	cfg := DefaultConfig()
	for _, m := range mut {
		m(&cfg)
	}
	h := &harness{
		ai:     newFakeAI(),
		store:  kv.NewMemoryStore(),
		clock:  &fakeClock{now: time.Date(2024, 3, 15, 9, 0, 0, 0, time.UTC)},
		origin: uuid.New(),
	}
	h.deps = Deps{
		Log:        logger.Nop(),
		Store:      h.store,
		Planner:    NewPlanner(h.ai, logger.Nop(), ""),
		Consultant: NewConsultant(h.ai, logger.Nop()),
		Metrics:    observability.New(),
		Config:     cfg,
		Now:        h.clock.Now,
	}
	return h
}

func (h *harness) controller(t *testing.T) *Controller {
	t.Helper()
	c := NewController(h.origin, h.deps)
	require.NoError(t, c.Load(context.Background()))
	return c
}

func (h *harness) stored(t *testing.T, key string) (string, bool) {
	t.Helper()
	v, ok, err := h.store.Get(context.Background(), h.origin.String(), key)
	require.NoError(t, err)
	return v, ok
}

func TestLoadWithEmptyStoreUsesDefaults(t *testing.T) {
	h := newHarness(t)
	s := h.controller(t).Snapshot()
	require.Equal(t, fitness.DefaultProfile(), s.Profile)
	require.Nil(t, s.Plan)
	require.Empty(t, s.CheckIns)
	require.Empty(t, s.History)
	require.False(t, s.HasSession)
}

func TestCreatePlanPersistsPlanAndProfile(t *testing.T) {
	h := newHarness(t)
	c := h.controller(t)

	age := 17
	_, err := c.UpdateProfile(fitness.ProfilePatch{Age: &age})
	require.NoError(t, err)

	plan, err := c.CreatePlan(context.Background())
	require.NoError(t, err)
	require.NoError(t, plan.CheckShape())

	_, ok := h.stored(t, kv.KeyFitnessPlan)
	require.True(t, ok)
	rawProfile, ok := h.stored(t, kv.KeyUserProfile)
	require.True(t, ok)
	require.Contains(t, rawProfile, `"age":17`)

	s := c.Snapshot()
	require.NotNil(t, s.Plan)
	require.True(t, s.HasSession)
	require.Equal(t, []fitness.ChatMessage{{Role: fitness.RoleModel, Text: GreetingText}}, s.Transcript)
}

func TestCreatePlanFailureLeavesStateUnchanged(t *testing.T) {
	h := newHarness(t)
	c := h.controller(t)
	_, err := c.CreatePlan(context.Background())
	require.NoError(t, err)
	before := c.Snapshot()
	rawBefore, _ := h.stored(t, kv.KeyFitnessPlan)

	h.ai.planErr = errors.New("upstream 500")
	_, err = c.CreatePlan(context.Background())
	var ge *GenerationError
	require.ErrorAs(t, err, &ge)

	require.Equal(t, before, c.Snapshot())
	rawAfter, _ := h.stored(t, kv.KeyFitnessPlan)
	require.Equal(t, rawBefore, rawAfter)
}

func TestCreatePlanInvalidProfileIsRejectedLocally(t *testing.T) {
	h := newHarness(t)
	c := h.controller(t)
	c.st.profile.Weight = 0

	_, err := c.CreatePlan(context.Background())
	var ve *fitness.ValidationError
	require.ErrorAs(t, err, &ve)
	require.EqualValues(t, 0, atomic.LoadInt32(&h.ai.jsonCalls))
}

func TestCreatePlanIsSingleFlight(t *testing.T) {
	h := newHarness(t)
	h.ai.planGate = make(chan struct{})
	c := h.controller(t)

	var wg, started sync.WaitGroup
	errs := make([]error, 3)
	for i := range errs {
		wg.Add(1)
		started.Add(1)
		go func(i int) {
			defer wg.Done()
			started.Done()
			_, errs[i] = c.CreatePlan(context.Background())
		}(i)
	}
	started.Wait()
	require.Eventually(t, func() bool { return c.Snapshot().Generating }, time.Second, 5*time.Millisecond)
	// give the followers time to join the in-flight call
	time.Sleep(50 * time.Millisecond)

	// the form is locked while generating
	age := 20
	_, err := c.UpdateProfile(fitness.ProfilePatch{Age: &age})
	require.ErrorIs(t, err, ErrGenerationBusy)

	close(h.ai.planGate)
	wg.Wait()
	for _, err := range errs {
		require.NoError(t, err)
	}
	require.EqualValues(t, 1, atomic.LoadInt32(&h.ai.jsonCalls))
	require.False(t, c.Snapshot().Generating)
}

func TestCheckInIsIdempotent(t *testing.T) {
	h := newHarness(t)
	c := h.controller(t)
	ctx := context.Background()

	added, date, err := c.CheckIn(ctx, h.clock.Now(), time.UTC)
	require.NoError(t, err)
	require.True(t, added)
	require.Equal(t, "2024-03-15", date)

	added, _, err = c.CheckIn(ctx, h.clock.Now().Add(time.Hour), time.UTC)
	require.NoError(t, err)
	require.False(t, added)
	require.Len(t, c.Snapshot().CheckIns, 1)

	raw, ok := h.stored(t, kv.KeyCheckInDates)
	require.True(t, ok)
	require.JSONEq(t, `["2024-03-15"]`, raw)
}

func TestCheckInUsesLocalCalendarDate(t *testing.T) {
	h := newHarness(t)
	c := h.controller(t)
	taipei := time.FixedZone("Asia/Taipei", 8*3600)

	// 20:30 UTC on the 15th is already the 16th in Taipei
	late := time.Date(2024, 3, 15, 20, 30, 0, 0, time.UTC)
	_, date, err := c.CheckIn(context.Background(), late, taipei)
	require.NoError(t, err)
	require.Equal(t, "2024-03-16", date)
}

func TestAddMetricComputesBMIAndSyncsWeight(t *testing.T) {
	h := newHarness(t)
	c := h.controller(t)
	height := 175.0
	_, err := c.UpdateProfile(fitness.ProfilePatch{Height: &height})
	require.NoError(t, err)

	zero := 0.0
	bf := 18.5
	m, err := c.AddMetric(context.Background(), fitness.MetricInput{Weight: 70, BodyFat: &bf, BoneMass: &zero}, h.clock.Now(), time.UTC)
	require.NoError(t, err)
	require.Equal(t, 22.9, m.BMI)
	require.Nil(t, m.BoneMass)
	require.Equal(t, "2024-03-15", m.Date)

	s := c.Snapshot()
	require.Equal(t, 70.0, s.Profile.Weight)
	require.Nil(t, s.Profile.CurrentBodyFat, "body fat is not synced by default")

	h.clock.Advance(24 * time.Hour)
	_, err = c.AddMetric(context.Background(), fitness.MetricInput{Weight: 71}, h.clock.Now(), time.UTC)
	require.NoError(t, err)
	s = c.Snapshot()
	require.Equal(t, "2024-03-16", s.History[0].Date, "history is newest first")
	require.Equal(t, "2024-03-15", s.History[1].Date)

	rawProfile, _ := h.stored(t, kv.KeyUserProfile)
	require.Contains(t, rawProfile, `"weight":71`)

	_, err = c.AddMetric(context.Background(), fitness.MetricInput{}, h.clock.Now(), time.UTC)
	var ve *fitness.ValidationError
	require.ErrorAs(t, err, &ve)
}

func TestAddMetricBodyFatSyncPolicy(t *testing.T) {
	h := newHarness(t, func(c *Config) { c.Sync = SyncPolicy{Weight: true, BodyFat: true} })
	c := h.controller(t)

	_, err := c.AddMetric(context.Background(), fitness.MetricInput{Weight: 61}, h.clock.Now(), time.UTC)
	require.NoError(t, err)
	require.Nil(t, c.Snapshot().Profile.CurrentBodyFat, "absent values never overwrite")

	bf := 17.0
	_, err = c.AddMetric(context.Background(), fitness.MetricInput{Weight: 61, BodyFat: &bf}, h.clock.Now(), time.UTC)
	require.NoError(t, err)
	require.NotNil(t, c.Snapshot().Profile.CurrentBodyFat)
	require.Equal(t, 17.0, *c.Snapshot().Profile.CurrentBodyFat)
}

func TestStateRoundTripsThroughStore(t *testing.T) {
	h := newHarness(t)
	c := h.controller(t)
	ctx := context.Background()

	_, err := c.CreatePlan(ctx)
	require.NoError(t, err)
	_, _, err = c.CheckIn(ctx, h.clock.Now(), time.UTC)
	require.NoError(t, err)
	mm := 30.2
	_, err = c.AddMetric(ctx, fitness.MetricInput{Weight: 62.4, MuscleMass: &mm}, h.clock.Now(), time.UTC)
	require.NoError(t, err)

	before := c.Snapshot()
	after := h.controller(t).Snapshot()
	require.Equal(t, before.Profile, after.Profile)
	require.Equal(t, before.Plan, after.Plan)
	require.Equal(t, before.CheckIns, after.CheckIns)
	require.Equal(t, before.History, after.History)
	require.False(t, after.HasSession, "sessions are not persisted")
}

func TestLoadCorruptedPlanResetsEverything(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	origin := h.origin.String()
	require.NoError(t, h.store.SetMany(ctx, origin, map[string]string{
		kv.KeyFitnessPlan:    "{not json",
		kv.KeyUserProfile:    `{"age":30,"gender":"female","height":160,"weight":50,"targetWeight":48,"timeline":8,"equipment":[],"goal":"fat_loss"}`,
		kv.KeyCheckInDates:   `["2024-03-01"]`,
		kv.KeyMetricsHistory: `[]`,
	}))

	c := NewController(h.origin, h.deps)
	require.NoError(t, c.Load(ctx))

	s := c.Snapshot()
	require.Nil(t, s.Plan)
	require.Equal(t, fitness.DefaultProfile(), s.Profile)
	for _, k := range kv.Keys {
		_, ok := h.stored(t, k)
		require.False(t, ok, "key %s should be cleared", k)
	}
}

func TestLoadRejectsMistypedValues(t *testing.T) {
	cases := map[string]string{
		kv.KeyCheckInDates:   `{"date":"2024-03-01"}`,
		kv.KeyMetricsHistory: `[{"date":"yesterday","weight":60}]`,
		kv.KeyUserProfile:    `{"age":-1}`,
		kv.KeyFitnessPlan:    `{"dailyCalories":2000}`,
	}
	for key, value := range cases {
		h := newHarness(t)
		require.NoError(t, h.store.Set(context.Background(), h.origin.String(), key, value))
		s := h.controller(t).Snapshot()
		require.Nil(t, s.Plan, key)
		_, ok := h.stored(t, key)
		require.False(t, ok, "%s should be cleared", key)
	}
}

func TestResetRequiresConfirmation(t *testing.T) {
	h := newHarness(t)
	c := h.controller(t)
	ctx := context.Background()

	_, err := c.CreatePlan(ctx)
	require.NoError(t, err)
	_, _, err = c.CheckIn(ctx, h.clock.Now(), time.UTC)
	require.NoError(t, err)
	_, err = c.AddMetric(ctx, fitness.MetricInput{Weight: 63}, h.clock.Now(), time.UTC)
	require.NoError(t, err)

	require.ErrorIs(t, c.ConfirmReset(ctx, "guess"), ErrResetNotConfirmed)

	token, _ := c.RequestReset()
	h.clock.Advance(3 * time.Minute)
	require.ErrorIs(t, c.ConfirmReset(ctx, token), ErrResetNotConfirmed)

	token, _ = c.RequestReset()
	require.NoError(t, c.ConfirmReset(ctx, token))
	require.ErrorIs(t, c.ConfirmReset(ctx, token), ErrResetNotConfirmed, "tokens are single use")

	for _, k := range kv.Keys {
		_, ok := h.stored(t, k)
		require.False(t, ok, "key %s should be cleared", k)
	}
	s := c.Snapshot()
	require.Nil(t, s.Plan)
	require.Equal(t, fitness.DefaultProfile(), s.Profile)
	require.Empty(t, s.CheckIns)
	require.Empty(t, s.History)
	require.Empty(t, s.Transcript)
	require.False(t, s.HasSession)
}

func TestChatBeforePlan(t *testing.T) {
	h := newHarness(t, func(c *Config) { c.ChatFailurePolicy = Propagate })
	c := h.controller(t)

	_, err := c.SendMessage(context.Background(), "可以開始了嗎？")
	var se *SessionError
	require.ErrorAs(t, err, &se)
	require.EqualValues(t, 0, atomic.LoadInt32(&h.ai.chatCalls))

	h2 := newHarness(t)
	c2 := h2.controller(t)
	msg, err := c2.SendMessage(context.Background(), "可以開始了嗎？")
	require.NoError(t, err)
	require.Equal(t, ChatFallbackText, msg.Text)
}

func TestSendMessageAppendsInOrder(t *testing.T) {
	h := newHarness(t)
	c := h.controller(t)
	_, err := c.CreatePlan(context.Background())
	require.NoError(t, err)

	_, err = c.SendMessage(context.Background(), "   ")
	var ve *fitness.ValidationError
	require.ErrorAs(t, err, &ve)

	msg, err := c.SendMessage(context.Background(), " 早餐吃什麼？ ")
	require.NoError(t, err)
	require.Equal(t, "多喝水，睡飽一點。", msg.Text)
	require.Equal(t, "早餐吃什麼？", h.ai.lastUser)
	require.Equal(t, "conv_1", h.ai.lastConvID)
	require.Contains(t, h.ai.lastInstructions, "2650kcal")

	h.ai.replyErr = errors.New("timeout")
	msg, err = c.SendMessage(context.Background(), "還在嗎？")
	require.NoError(t, err)
	require.Equal(t, ChatFallbackText, msg.Text)

	require.Equal(t, []fitness.ChatMessage{
		{Role: fitness.RoleModel, Text: GreetingText},
		{Role: fitness.RoleUser, Text: "早餐吃什麼？"},
		{Role: fitness.RoleModel, Text: "多喝水，睡飽一點。"},
		{Role: fitness.RoleUser, Text: "還在嗎？"},
		{Role: fitness.RoleModel, Text: ChatFallbackText},
	}, c.Snapshot().Transcript)
}

func TestSendMessagePropagatePolicy(t *testing.T) {
	h := newHarness(t, func(c *Config) { c.ChatFailurePolicy = Propagate })
	c := h.controller(t)
	_, err := c.CreatePlan(context.Background())
	require.NoError(t, err)

	h.ai.replyErr = errors.New("timeout")
	_, err = c.SendMessage(context.Background(), "hi")
	var te *TransportError
	require.ErrorAs(t, err, &te)

	tr := c.Snapshot().Transcript
	require.Len(t, tr, 2)
	require.Equal(t, fitness.RoleUser, tr[1].Role)
}

func TestSendMessageRejectsWhileOutstanding(t *testing.T) {
	h := newHarness(t)
	c := h.controller(t)
	_, err := c.CreatePlan(context.Background())
	require.NoError(t, err)

	h.ai.chatGate = make(chan struct{})
	done := make(chan error, 1)
	go func() {
		_, err := c.SendMessage(context.Background(), "first")
		done <- err
	}()
	require.Eventually(t, func() bool { return c.Snapshot().Chatting }, time.Second, 5*time.Millisecond)

	_, err = c.SendMessage(context.Background(), "second")
	require.ErrorIs(t, err, ErrChatBusy)

	close(h.ai.chatGate)
	require.NoError(t, <-done)
	require.Len(t, c.Snapshot().Transcript, 3)
}

func TestToggleExerciseAndSelectDay(t *testing.T) {
	h := newHarness(t)
	c := h.controller(t)

	_, err := c.ToggleExercise(0, 0)
	require.ErrorIs(t, err, ErrNoPlan)

	_, err = c.CreatePlan(context.Background())
	require.NoError(t, err)

	on, err := c.ToggleExercise(2, 1)
	require.NoError(t, err)
	require.True(t, on)
	on, err = c.ToggleExercise(2, 1)
	require.NoError(t, err)
	require.False(t, on)

	_, err = c.ToggleExercise(7, 0)
	var ve *fitness.ValidationError
	require.ErrorAs(t, err, &ve)

	require.NoError(t, c.SelectDay(3))
	require.Equal(t, 3, c.Snapshot().ActiveDay)
	require.Error(t, c.SelectDay(-1))

	// a new plan clears completion marks and the selected day
	_, err = c.ToggleExercise(1, 0)
	require.NoError(t, err)
	_, err = c.CreatePlan(context.Background())
	require.NoError(t, err)
	s := c.Snapshot()
	require.Empty(t, s.Completed)
	require.Zero(t, s.ActiveDay)
}

func TestHubLoadsOnce(t *testing.T) {
	h := newHarness(t)
	hub := NewHub(h.deps)
	ctx := context.Background()

	a, err := hub.Get(ctx, h.origin)
	require.NoError(t, err)
	b, err := hub.Get(ctx, h.origin)
	require.NoError(t, err)
	require.Same(t, a, b)

	other, err := hub.Get(ctx, uuid.New())
	require.NoError(t, err)
	require.NotSame(t, a, other)
	require.Equal(t, 2, hub.Len())
}

func TestAddMetricRejectedWhileGenerating(t *testing.T) {
	h := newHarness(t)
	h.ai.planGate = make(chan struct{})
	c := h.controller(t)
	ctx := context.Background()

	done := make(chan error, 1)
	go func() {
		_, err := c.CreatePlan(ctx)
		done <- err
	}()
	require.Eventually(t, func() bool { return c.Snapshot().Generating }, time.Second, 5*time.Millisecond)

	_, err := c.AddMetric(ctx, fitness.MetricInput{Weight: 72}, h.clock.Now(), time.UTC)
	require.ErrorIs(t, err, ErrGenerationBusy)
	close(h.ai.planGate)
	require.NoError(t, <-done)

	_, err = c.AddMetric(ctx, fitness.MetricInput{Weight: 72}, h.clock.Now(), time.UTC)
	require.NoError(t, err)
	s := c.Snapshot()
	require.Equal(t, 72.0, s.Profile.Weight)
	require.Len(t, s.History, 1)
	rawProfile, _ := h.stored(t, kv.KeyUserProfile)
	require.Contains(t, rawProfile, `"weight":72`)
}

func TestCreatePlanOutlivesTheCallerThatStartedIt(t *testing.T) {
	h := newHarness(t)
	h.ai.planGate = make(chan struct{})
	c := h.controller(t)

	firstCtx, cancel := context.WithCancel(context.Background())
	firstErr := make(chan error, 1)
	go func() {
		_, err := c.CreatePlan(firstCtx)
		firstErr <- err
	}()
	require.Eventually(t, func() bool { return c.Snapshot().Generating }, time.Second, 5*time.Millisecond)

	secondErr := make(chan error, 1)
	go func() {
		_, err := c.CreatePlan(context.Background())
		secondErr <- err
	}()
	// let the second caller join the in-flight call
	time.Sleep(50 * time.Millisecond)

	cancel()
	require.ErrorIs(t, <-firstErr, context.Canceled)
	close(h.ai.planGate)
	require.NoError(t, <-secondErr)
	require.EqualValues(t, 1, atomic.LoadInt32(&h.ai.jsonCalls))
	require.NotNil(t, c.Snapshot().Plan)
}

func TestHubBoundsResidentControllers(t *testing.T) {
	h := newHarness(t, func(c *Config) { c.Hub = HubConfig{MaxResident: 2, IdleTTL: time.Hour} })
	hub := NewHub(h.deps)
	ctx := context.Background()
	a, b, c := uuid.New(), uuid.New(), uuid.New()

	first, err := hub.Get(ctx, a)
	require.NoError(t, err)
	_, err = hub.Get(ctx, b)
	require.NoError(t, err)
	h.clock.Advance(time.Minute)
	_, err = hub.Get(ctx, a)
	require.NoError(t, err)

	// b is the least recently used
	_, err = hub.Get(ctx, c)
	require.NoError(t, err)
	require.Equal(t, 2, hub.Len())
	again, err := hub.Get(ctx, a)
	require.NoError(t, err)
	require.Same(t, first, again)

	for i := 0; i < 50; i++ {
		_, err := hub.Get(ctx, uuid.New())
		require.NoError(t, err)
	}
	require.Equal(t, 2, hub.Len())

	h.clock.Advance(2 * time.Hour)
	_, err = hub.Get(ctx, uuid.New())
	require.NoError(t, err)
	require.Equal(t, 1, hub.Len(), "idle controllers are dropped")
}

func TestHubKeepsBusyControllers(t *testing.T) {
	h := newHarness(t, func(c *Config) { c.Hub = HubConfig{MaxResident: 1, IdleTTL: time.Hour} })
	h.ai.planGate = make(chan struct{})
	hub := NewHub(h.deps)
	ctx := context.Background()

	c, err := hub.Get(ctx, h.origin)
	require.NoError(t, err)
	done := make(chan error, 1)
	go func() {
		_, err := c.CreatePlan(ctx)
		done <- err
	}()
	require.Eventually(t, func() bool { return c.Snapshot().Generating }, time.Second, 5*time.Millisecond)

	_, err = hub.Get(ctx, uuid.New())
	require.NoError(t, err)
	require.Equal(t, 2, hub.Len())

	close(h.ai.planGate)
	require.NoError(t, <-done)
	same, err := hub.Get(ctx, h.origin)
	require.NoError(t, err)
	require.Same(t, c, same)
}

func TestHubsSharingAStoreSeeEachOthersWrites(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	left, right := NewHub(h.deps), NewHub(h.deps)

	a, err := left.Get(ctx, h.origin)
	require.NoError(t, err)
	b, err := right.Get(ctx, h.origin)
	require.NoError(t, err)

	day := time.Date(2024, 3, 14, 9, 0, 0, 0, time.UTC)
	_, _, err = a.CheckIn(ctx, day, time.UTC)
	require.NoError(t, err)
	_, _, err = b.CheckIn(ctx, day.Add(24*time.Hour), time.UTC)
	require.NoError(t, err)

	raw, _ := h.stored(t, kv.KeyCheckInDates)
	require.JSONEq(t, `["2024-03-14","2024-03-15"]`, raw)
	a, err = left.Get(ctx, h.origin)
	require.NoError(t, err)
	require.Equal(t, []string{"2024-03-14", "2024-03-15"}, a.Snapshot().CheckIns)

	// a plan generated elsewhere replaces ours and the session that went with it
	_, err = b.CreatePlan(ctx)
	require.NoError(t, err)
	a, err = left.Get(ctx, h.origin)
	require.NoError(t, err)
	s := a.Snapshot()
	require.NotNil(t, s.Plan)
	require.False(t, s.HasSession)
	require.Empty(t, s.Transcript)

	token, _ := b.RequestReset()
	require.NoError(t, b.ConfirmReset(ctx, token))
	a, err = left.Get(ctx, h.origin)
	require.NoError(t, err)
	s = a.Snapshot()
	require.Nil(t, s.Plan)
	require.Empty(t, s.CheckIns)
	require.Equal(t, fitness.DefaultProfile(), s.Profile)
}
