package coach

import (
	"time"

	"github.com/yungbote/fitcoach-backend/internal/domain/fitness"
	"github.com/yungbote/fitcoach-backend/internal/modules/progress"
)

type TabID string

const (
	TabPlan       TabID = "plan"
	TabCalendar   TabID = "calendar"
	TabStats      TabID = "stats"
	TabStretch    TabID = "stretch"
	TabConsultant TabID = "consultant"
)

type Tab struct {
	ID    TabID  `json:"id"`
	Label string `json:"label"`
	Icon  string `json:"icon"`
}

var tabs = []Tab{
	{ID: TabPlan, Label: "我的計畫", Icon: "📋"},
	{ID: TabCalendar, Label: "訓練日誌", Icon: "📅"},
	{ID: TabStats, Label: "身體數據", Icon: "📊"},
	{ID: TabStretch, Label: "放鬆修復", Icon: "🧘"},
	{ID: TabConsultant, Label: "AI 顧問", Icon: "💬"},
}

func ParseTab(s string) (TabID, bool) {
	for _, t := range tabs {
		if string(t.ID) == s {
			return t.ID, true
		}
	}
	return "", false
}

// NavView is the tab switcher. Tabs and reset only exist once a plan does.
type NavView struct {
	Tabs     []Tab `json:"tabs"`
	Active   TabID `json:"active,omitempty"`
	HasPlan  bool  `json:"hasPlan"`
	CanReset bool  `json:"canReset"`
}

func BuildNavView(s Snapshot, active TabID) NavView {
	v := NavView{Tabs: []Tab{}, HasPlan: s.Plan != nil}
	if s.Plan == nil {
		return v
	}
	v.Tabs = append(v.Tabs, tabs...)
	v.CanReset = true
	v.Active = TabPlan
	if _, ok := ParseTab(string(active)); ok {
		v.Active = active
	}
	return v
}

type Choice struct {
	Value string `json:"value"`
	Label string `json:"label"`
}

type OnboardingView struct {
	Profile          fitness.UserProfile `json:"profile"`
	EquipmentOptions []string            `json:"equipmentOptions"`
	Genders          []Choice            `json:"genders"`
	Goals            []Choice            `json:"goals"`
	Generating       bool                `json:"generating"`
}

func BuildOnboardingView(s Snapshot) OnboardingView {
	return OnboardingView{
		Profile:          s.Profile,
		EquipmentOptions: append([]string(nil), fitness.EquipmentOptions...),
		Genders: []Choice{
			{Value: string(fitness.GenderMale), Label: "男"},
			{Value: string(fitness.GenderFemale), Label: "女"},
		},
		Goals: []Choice{
			{Value: string(fitness.GoalMuscleGain), Label: "增肌 (Muscle Gain)"},
			{Value: string(fitness.GoalFatLoss), Label: "減脂 (Fat Loss)"},
		},
		Generating: s.Generating,
	}
}

type DashboardView struct {
	Plan           *fitness.FitnessPlan `json:"plan"`
	Profile        fitness.UserProfile  `json:"profile"`
	ActiveDay      int                  `json:"activeDay"`
	Day            fitness.WorkoutDay   `json:"day"`
	Completed      []bool               `json:"completed"`
	CheckedInToday bool                 `json:"checkedInToday"`
	Today          string               `json:"today"`
}

// BuildDashboardView renders the plan tab. day < 0 keeps the selected day.
func BuildDashboardView(s Snapshot, day int, now time.Time, loc *time.Location) (DashboardView, error) {
	if s.Plan == nil {
		return DashboardView{}, ErrNoPlan
	}
	if day < 0 {
		day = s.ActiveDay
	}
	if day >= len(s.Plan.WeeklySchedule) {
		return DashboardView{}, fitness.Invalid("day", "out of range")
	}
	wd := s.Plan.WeeklySchedule[day]
	completed := make([]bool, len(wd.Exercises))
	for i := range wd.Exercises {
		completed[i] = s.Completed[exerciseKey(day, i)]
	}
	today := fitness.LocalDate(now, loc)
	return DashboardView{
		Plan:           s.Plan,
		Profile:        s.Profile,
		ActiveDay:      day,
		Day:            wd,
		Completed:      completed,
		CheckedInToday: contains(s.CheckIns, today),
		Today:          today,
	}, nil
}

type CalendarView struct {
	Year       int             `json:"year"`
	Month      int             `json:"month"`
	Weekdays   []string        `json:"weekdays"`
	Cells      []progress.Cell `json:"cells"`
	CheckedIn  map[int]bool    `json:"checkedIn"`
	Today      int             `json:"today"`
	MonthCount int             `json:"monthCount"`
	History    []string        `json:"history"`
}

// BuildCalendarView renders a month. Today is 0 unless the month contains now.
func BuildCalendarView(s Snapshot, year int, month time.Month, now time.Time, loc *time.Location) (CalendarView, error) {
	if month < time.January || month > time.December {
		return CalendarView{}, fitness.Invalid("month", "must be 1-12")
	}
	if year < 1 || year > 9999 {
		return CalendarView{}, fitness.Invalid("year", "out of range")
	}
	v := CalendarView{
		Year:       year,
		Month:      int(month),
		Weekdays:   []string{"日", "一", "二", "三", "四", "五", "六"},
		Cells:      progress.CalendarGrid(year, month),
		CheckedIn:  map[int]bool{},
		MonthCount: progress.CountInMonth(s.CheckIns, year, month),
		History:    make([]string, 0, len(s.CheckIns)),
	}
	for d := 1; d <= progress.DaysInMonth(year, month); d++ {
		if contains(s.CheckIns, progress.DateOf(year, month, d)) {
			v.CheckedIn[d] = true
		}
	}
	if loc == nil {
		loc = time.Local
	}
	local := now.In(loc)
	if local.Year() == year && local.Month() == month {
		v.Today = local.Day()
	}
	for i := len(s.CheckIns) - 1; i >= 0; i-- {
		v.History = append(v.History, s.CheckIns[i])
	}
	return v, nil
}

type MetricRow struct {
	Metric     fitness.BodyMetrics `json:"metric"`
	Advice     progress.AdviceKind `json:"advice"`
	AdviceText string              `json:"adviceText"`
}

type TrendPoint struct {
	Date   string  `json:"date"`
	Weight float64 `json:"weight"`
	Height float64 `json:"height"`
}

type StatsView struct {
	History   []MetricRow  `json:"history"`
	Trend     []TrendPoint `json:"trend"`
	FirstDate string       `json:"firstDate,omitempty"`
	LastDate  string       `json:"lastDate,omitempty"`
	Height    float64      `json:"height"`
}

// BuildStatsView pairs each entry with advice against the one before it and
// charts the series chronologically once there are two entries.
func BuildStatsView(s Snapshot) StatsView {
	v := StatsView{History: make([]MetricRow, 0, len(s.History)), Trend: []TrendPoint{}, Height: s.Profile.Height}
	for i, m := range s.History {
		var prev *fitness.BodyMetrics
		if i+1 < len(s.History) {
			prev = &s.History[i+1]
		}
		kind := progress.Advice(m, prev)
		v.History = append(v.History, MetricRow{Metric: m, Advice: kind, AdviceText: kind.Text()})
	}
	if len(s.History) < 2 {
		return v
	}
	v.Trend = trendPoints(s.History)
	v.FirstDate = v.Trend[0].Date
	v.LastDate = v.Trend[len(v.Trend)-1].Date
	return v
}

func trendPoints(history []fitness.BodyMetrics) []TrendPoint {
	chrono := progress.Chronological(history)
	weights := make([]float64, len(chrono))
	for i, m := range chrono {
		weights[i] = m.Weight
	}
	bars := progress.TrendBars(weights, progress.DefaultMinBarFraction)
	out := make([]TrendPoint, len(chrono))
	for i, m := range chrono {
		out[i] = TrendPoint{Date: m.Date, Weight: m.Weight, Height: bars[i]}
	}
	return out
}

type StretchView struct {
	Routine fitness.StretchingRoutine `json:"routine"`
}

func BuildStretchView(s Snapshot) (StretchView, error) {
	if s.Plan == nil {
		return StretchView{}, ErrNoPlan
	}
	return StretchView{Routine: s.Plan.StretchingRoutine}, nil
}

type ChatView struct {
	Messages  []fitness.ChatMessage `json:"messages"`
	Sending   bool                  `json:"sending"`
	Available bool                  `json:"available"`
}

func BuildChatView(s Snapshot) ChatView {
	msgs := s.Transcript
	if msgs == nil {
		msgs = []fitness.ChatMessage{}
	}
	return ChatView{Messages: msgs, Sending: s.Chatting, Available: s.HasSession}
}

func contains(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}
