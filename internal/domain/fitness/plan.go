package fitness

import (
	"errors"
	"fmt"
	"strings"
)

type Macros struct {
	Protein int `json:"protein"`
	Carbs   int `json:"carbs"`
	Fats    int `json:"fats"`
}

type Exercise struct {
	Name  string `json:"name"`
	Sets  string `json:"sets"`
	Reps  string `json:"reps"`
	Notes string `json:"notes,omitempty"`
}

type WorkoutDay struct {
	Day       string     `json:"day"`
	Focus     string     `json:"focus"`
	Exercises []Exercise `json:"exercises"`
}

type StretchingRoutine struct {
	Focus     string   `json:"focus"`
	Movements []string `json:"movements"`
	Tips      string   `json:"tips"`
}

type FitnessPlan struct {
	DailyCalories     int               `json:"dailyCalories"`
	WaterIntake       int               `json:"waterIntake"`
	Macros            Macros            `json:"macros"`
	WeeklySchedule    []WorkoutDay      `json:"weeklySchedule"`
	DietSuggestions   []string          `json:"dietSuggestions"`
	FoodSwaps         []string          `json:"foodSwaps"`
	AgeSpecificAdvice string            `json:"ageSpecificAdvice"`
	StretchingRoutine StretchingRoutine `json:"stretchingRoutine"`
}

// CheckShape verifies the structural guarantees a plan must carry before it
// can be shown or persisted.
func (p *FitnessPlan) CheckShape() error {
	if p == nil {
		return errors.New("plan is empty")
	}
	if p.DailyCalories <= 0 {
		return errors.New("dailyCalories must be positive")
	}
	if p.WaterIntake <= 0 {
		return errors.New("waterIntake must be positive")
	}
	if p.Macros.Protein < 0 || p.Macros.Carbs < 0 || p.Macros.Fats < 0 {
		return errors.New("macros must not be negative")
	}
	if p.Macros.Protein+p.Macros.Carbs+p.Macros.Fats == 0 {
		return errors.New("macros are missing")
	}
	if len(p.WeeklySchedule) == 0 {
		return errors.New("weeklySchedule is empty")
	}
	for i, d := range p.WeeklySchedule {
		if strings.TrimSpace(d.Day) == "" {
			return fmt.Errorf("weeklySchedule[%d].day is empty", i)
		}
		if len(d.Exercises) == 0 {
			return fmt.Errorf("weeklySchedule[%d] has no exercises", i)
		}
		for j, ex := range d.Exercises {
			if strings.TrimSpace(ex.Name) == "" || strings.TrimSpace(ex.Sets) == "" || strings.TrimSpace(ex.Reps) == "" {
				return fmt.Errorf("weeklySchedule[%d].exercises[%d] is incomplete", i, j)
			}
		}
	}
	return nil
}

// Focuses lists each day's training focus in schedule order.
func (p *FitnessPlan) Focuses() []string {
	if p == nil {
		return nil
	}
	out := make([]string, 0, len(p.WeeklySchedule))
	for _, d := range p.WeeklySchedule {
		out = append(out, d.Focus)
	}
	return out
}

// Clone deep-copies the plan.
func (p *FitnessPlan) Clone() *FitnessPlan {
	if p == nil {
		return nil
	}
	out := *p
	out.WeeklySchedule = make([]WorkoutDay, len(p.WeeklySchedule))
	for i, d := range p.WeeklySchedule {
		d.Exercises = append([]Exercise(nil), d.Exercises...)
		out.WeeklySchedule[i] = d
	}
	out.DietSuggestions = append([]string(nil), p.DietSuggestions...)
	out.FoodSwaps = append([]string(nil), p.FoodSwaps...)
	out.StretchingRoutine.Movements = append([]string(nil), p.StretchingRoutine.Movements...)
	return &out
}
