package fitness

import (
	"strings"
	"testing"
	"time"
)

func validPlan() *FitnessPlan {
	return &FitnessPlan{
		DailyCalories: 2600,
		WaterIntake:   2400,
		Macros:        Macros{Protein: 130, Carbs: 320, Fats: 80},
		WeeklySchedule: []WorkoutDay{
			{Day: "週一", Focus: "胸", Exercises: []Exercise{{Name: "啞鈴臥推", Sets: "3-4", Reps: "8-12"}}},
			{Day: "週日", Focus: "休息", Exercises: []Exercise{{Name: "伸展", Sets: "1", Reps: "10 分鐘"}}},
		},
		StretchingRoutine: StretchingRoutine{Focus: "全身", Movements: []string{"貓牛式"}},
	}
}

func TestCheckShape(t *testing.T) {
	if err := validPlan().CheckShape(); err != nil {
		t.Fatalf("valid plan: %v", err)
	}

	cases := []struct {
		name string
		mut  func(*FitnessPlan)
		want string
	}{
		{"no calories", func(p *FitnessPlan) { p.DailyCalories = 0 }, "dailyCalories"},
		{"no water", func(p *FitnessPlan) { p.WaterIntake = 0 }, "waterIntake"},
		{"no macros", func(p *FitnessPlan) { p.Macros = Macros{} }, "macros"},
		{"empty schedule", func(p *FitnessPlan) { p.WeeklySchedule = nil }, "weeklySchedule is empty"},
		{"day without exercises", func(p *FitnessPlan) { p.WeeklySchedule[1].Exercises = nil }, "weeklySchedule[1]"},
		{"exercise without reps", func(p *FitnessPlan) { p.WeeklySchedule[0].Exercises[0].Reps = "" }, "exercises[0]"},
	}
	for _, tc := range cases {
		p := validPlan()
		tc.mut(p)
		err := p.CheckShape()
		if err == nil || !strings.Contains(err.Error(), tc.want) {
			t.Fatalf("%s: want error containing %q got=%v", tc.name, tc.want, err)
		}
	}
}

func TestPlanCloneIsDeep(t *testing.T) {
	p := validPlan()
	c := p.Clone()
	c.WeeklySchedule[0].Exercises[0].Name = "changed"
	c.StretchingRoutine.Movements[0] = "changed"
	if p.WeeklySchedule[0].Exercises[0].Name == "changed" || p.StretchingRoutine.Movements[0] == "changed" {
		t.Fatalf("Clone shares backing arrays")
	}
	if got := p.Focuses(); len(got) != 2 || got[0] != "胸" {
		t.Fatalf("Focuses: got=%v", got)
	}
}

func TestMetricInputNormalize(t *testing.T) {
	in := MetricInput{Weight: 70, BodyFat: fptr(0), MuscleMass: fptr(31.5)}
	out := in.Normalize()
	if out.BodyFat != nil {
		t.Fatalf("zero body fat must be dropped")
	}
	if out.MuscleMass == nil || *out.MuscleMass != 31.5 {
		t.Fatalf("muscle mass: got=%v", out.MuscleMass)
	}
	if err := (MetricInput{}).Validate(); err == nil {
		t.Fatalf("missing weight must fail validation")
	}
}

func TestLocalDate(t *testing.T) {
	// 2024-03-01 23:30 UTC is already March 2nd in Taipei.
	ts := time.Date(2024, 3, 1, 23, 30, 0, 0, time.UTC)
	taipei := time.FixedZone("Asia/Taipei", 8*3600)
	if got := LocalDate(ts, taipei); got != "2024-03-02" {
		t.Fatalf("LocalDate: want=%q got=%q", "2024-03-02", got)
	}
	if got := LocalDate(ts, time.UTC); got != "2024-03-01" {
		t.Fatalf("LocalDate utc: want=%q got=%q", "2024-03-01", got)
	}
}
