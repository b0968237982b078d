package fitness

import (
	"errors"
	"testing"
)

func fptr(v float64) *float64 { return &v }

func TestDefaultProfile(t *testing.T) {
	p := DefaultProfile()
	if p.Age != 16 || p.Height != 170 || p.Weight != 60 || p.TargetWeight != 65 || p.Timeline != 12 {
		t.Fatalf("DefaultProfile numbers: got=%+v", p)
	}
	if p.Goal != GoalMuscleGain || p.Gender != GenderMale {
		t.Fatalf("DefaultProfile enums: got goal=%q gender=%q", p.Goal, p.Gender)
	}
	if len(p.Equipment) != 1 || p.Equipment[0] != "啞鈴" {
		t.Fatalf("DefaultProfile equipment: got=%v", p.Equipment)
	}
	if err := p.Validate(); err != nil {
		t.Fatalf("DefaultProfile must validate: %v", err)
	}
}

func TestProfileValidate(t *testing.T) {
	cases := []struct {
		name  string
		mut   func(*UserProfile)
		field string
	}{
		{"zero age", func(p *UserProfile) { p.Age = 0 }, "age"},
		{"bad gender", func(p *UserProfile) { p.Gender = "other" }, "gender"},
		{"zero height", func(p *UserProfile) { p.Height = 0 }, "height"},
		{"negative weight", func(p *UserProfile) { p.Weight = -1 }, "weight"},
		{"zero target", func(p *UserProfile) { p.TargetWeight = 0 }, "targetWeight"},
		{"zero timeline", func(p *UserProfile) { p.Timeline = 0 }, "timeline"},
		{"bad goal", func(p *UserProfile) { p.Goal = "bulk" }, "goal"},
		{"body fat out of range", func(p *UserProfile) { p.CurrentBodyFat = fptr(120) }, "currentBodyFat"},
		{"blank equipment", func(p *UserProfile) { p.Equipment = []string{" "} }, "equipment"},
	}
	for _, tc := range cases {
		p := DefaultProfile()
		tc.mut(&p)
		err := p.Validate()
		var ve *ValidationError
		if !errors.As(err, &ve) {
			t.Fatalf("%s: want ValidationError got=%v", tc.name, err)
		}
		if ve.Field != tc.field {
			t.Fatalf("%s: field want=%q got=%q", tc.name, tc.field, ve.Field)
		}
	}

	p := DefaultProfile()
	p.Equipment = nil
	if err := p.Validate(); err != nil {
		t.Fatalf("empty equipment is bodyweight only: %v", err)
	}
	if !p.BodyweightOnly() {
		t.Fatalf("BodyweightOnly: want=true")
	}
}

func TestProfilePatchApply(t *testing.T) {
	base := DefaultProfile()
	base.CurrentBodyFat = fptr(20)

	age := 18
	goal := GoalFatLoss
	eq := []string{"槓鈴", "啞鈴", "槓鈴"}
	out := ProfilePatch{Age: &age, Goal: &goal, Equipment: &eq, ClearCurrentBodyFat: true}.Apply(base)

	if out.Age != 18 || out.Goal != GoalFatLoss {
		t.Fatalf("Apply: got age=%d goal=%q", out.Age, out.Goal)
	}
	if len(out.Equipment) != 2 || out.Equipment[0] != "槓鈴" {
		t.Fatalf("Apply equipment dedupe: got=%v", out.Equipment)
	}
	if out.CurrentBodyFat != nil {
		t.Fatalf("Apply clear body fat: got=%v", *out.CurrentBodyFat)
	}
	if base.Age != 16 || base.CurrentBodyFat == nil {
		t.Fatalf("Apply mutated the input profile")
	}
}
