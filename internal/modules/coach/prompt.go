package coach

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/yungbote/fitcoach-backend/internal/domain/fitness"
)

const planSchemaName = "fitness_plan"

const planSystemPrompt = `You are a world-class strength and nutrition coach who specialises in body recomposition for teenagers who are still growing.
Design a highly personalised plan for the student described by the user.
Safety first: avoid movements with a high injury risk for adolescents and stress correct form.`

func goalLabel(g fitness.Goal) string {
	if g == fitness.GoalFatLoss {
		return "fat loss"
	}
	return "muscle gain"
}

func goalStrategy(g fitness.Goal) string {
	if g == fitness.GoalFatLoss {
		return "Set a moderate caloric deficit and keep protein intake high to preserve muscle."
	}
	return "Set a moderate caloric surplus and focus on muscle hypertrophy."
}

func num(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func buildPlanPrompt(p fitness.UserProfile, language string) string {
	var b strings.Builder
	b.WriteString("Student profile:\n")
	fmt.Fprintf(&b, "- Age: %d\n", p.Age)
	fmt.Fprintf(&b, "- Gender: %s\n", p.Gender)
	fmt.Fprintf(&b, "- Height: %s cm\n", num(p.Height))
	fmt.Fprintf(&b, "- Current weight: %s kg\n", num(p.Weight))
	fmt.Fprintf(&b, "- Target weight: %s kg\n", num(p.TargetWeight))
	fmt.Fprintf(&b, "- Primary goal: %s\n", goalLabel(p.Goal))
	fmt.Fprintf(&b, "- Timeline: %d weeks\n", p.Timeline)
	if p.BodyweightOnly() {
		b.WriteString("- Equipment: none (bodyweight only)\n")
	} else {
		fmt.Fprintf(&b, "- Equipment: %s\n", strings.Join(p.Equipment, ", "))
	}
	if p.CurrentBodyFat != nil {
		fmt.Fprintf(&b, "- Current body fat: %s%%\n", num(*p.CurrentBodyFat))
	}
	if p.TargetBodyFat != nil {
		fmt.Fprintf(&b, "- Target body fat: %s%%\n", num(*p.TargetBodyFat))
	}

	b.WriteString("\nRequirements:\n")
	fmt.Fprintf(&b, "1. Strategy: %s\n", goalStrategy(p.Goal))
	b.WriteString("2. Schedule: 6 training days and exactly 1 rest day, 7 entries in weeklySchedule. Give the rest day light mobility work as its exercises.\n")
	b.WriteString("3. Nutrition: exact daily calories and macros in grams; water intake in ml at roughly 30-40 ml per kg of body weight.\n")
	b.WriteString("4. dietSuggestions: 4-5 concrete healthy meals. foodSwaps: 4-5 swaps such as \"fried chicken -> grilled chicken breast\".\n")
	b.WriteString("5. ageSpecificAdvice: sleep, hormones, growth and stress management for this age.\n")
	b.WriteString("6. stretchingRoutine: post-workout stretching to prevent growing pains and injuries, with 3-5 movements.\n")
	fmt.Fprintf(&b, "7. Language: every string value must be written in %s.\n", language)
	return b.String()
}

// sessionInstructions is the hidden context resent with every consultant turn.
func sessionInstructions(p fitness.UserProfile, plan *fitness.FitnessPlan, language string) string {
	var b strings.Builder
	b.WriteString("You are a professional AI fitness consultant. The user already has a plan you generated.\n")
	b.WriteString("User data:\n")
	fmt.Fprintf(&b, "- Age: %d\n", p.Age)
	fmt.Fprintf(&b, "- Gender: %s\n", p.Gender)
	fmt.Fprintf(&b, "- Current weight: %skg, target: %skg\n", num(p.Weight), num(p.TargetWeight))
	fmt.Fprintf(&b, "- Goal: %s\n", goalLabel(p.Goal))
	fmt.Fprintf(&b, "- Plan daily calories: %dkcal\n", plan.DailyCalories)
	fmt.Fprintf(&b, "- Training focus: %s\n", strings.Join(plan.Focuses(), ", "))
	b.WriteString("\nAnswer questions, help adjust the plan, or share exercise science knowledge.\n")
	fmt.Fprintf(&b, "Reply in %s with an encouraging, professional tone. Keep answers concise.\n", language)
	return b.String()
}

func stringArraySchema() map[string]any {
	return map[string]any{"type": "array", "items": map[string]any{"type": "string"}}
}

func objectSchema(props map[string]any, required ...string) map[string]any {
	return map[string]any{
		"type":                 "object",
		"properties":           props,
		"required":             required,
		"additionalProperties": false,
	}
}

// planSchema mirrors fitness.FitnessPlan. Strict mode requires every property
// to be listed as required, so optional notes are typed string|null.
func planSchema() map[string]any {
	exercise := objectSchema(map[string]any{
		"name":  map[string]any{"type": "string"},
		"sets":  map[string]any{"type": "string"},
		"reps":  map[string]any{"type": "string"},
		"notes": map[string]any{"type": []string{"string", "null"}},
	}, "name", "sets", "reps", "notes")

	day := objectSchema(map[string]any{
		"day":   map[string]any{"type": "string"},
		"focus": map[string]any{"type": "string"},
		"exercises": map[string]any{
			"type":  "array",
			"items": exercise,
		},
	}, "day", "focus", "exercises")

	return objectSchema(map[string]any{
		"dailyCalories": map[string]any{"type": "integer"},
		"waterIntake":   map[string]any{"type": "integer", "description": "Daily water intake in ml"},
		"macros": objectSchema(map[string]any{
			"protein": map[string]any{"type": "integer"},
			"carbs":   map[string]any{"type": "integer"},
			"fats":    map[string]any{"type": "integer"},
		}, "protein", "carbs", "fats"),
		"weeklySchedule":    map[string]any{"type": "array", "items": day},
		"dietSuggestions":   stringArraySchema(),
		"foodSwaps":         stringArraySchema(),
		"ageSpecificAdvice": map[string]any{"type": "string"},
		"stretchingRoutine": objectSchema(map[string]any{
			"focus":     map[string]any{"type": "string"},
			"tips":      map[string]any{"type": "string"},
			"movements": stringArraySchema(),
		}, "focus", "tips", "movements"),
	}, "dailyCalories", "waterIntake", "macros", "weeklySchedule", "dietSuggestions", "foodSwaps", "ageSpecificAdvice", "stretchingRoutine")
}
