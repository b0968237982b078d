package fitness

import "strings"

type Gender string

const (
	GenderMale   Gender = "male"
	GenderFemale Gender = "female"
)

type Goal string

const (
	GoalMuscleGain Goal = "muscle_gain"
	GoalFatLoss    Goal = "fat_loss"
)

// EquipmentOptions is the multi-select catalogue offered by the onboarding form.
var EquipmentOptions = []string{"無器材(徒手)", "啞鈴", "槓鈴", "彈力帶", "單槓", "機械器材"}

type UserProfile struct {
	Age            int      `json:"age"`
	Gender         Gender   `json:"gender"`
	Height         float64  `json:"height"`
	Weight         float64  `json:"weight"`
	TargetWeight   float64  `json:"targetWeight"`
	Timeline       int      `json:"timeline"`
	Equipment      []string `json:"equipment"`
	Goal           Goal     `json:"goal"`
	CurrentBodyFat *float64 `json:"currentBodyFat,omitempty"`
	TargetBodyFat  *float64 `json:"targetBodyFat,omitempty"`
}

func DefaultProfile() UserProfile {
	return UserProfile{
		Age:          16,
		Gender:       GenderMale,
		Height:       170,
		Weight:       60,
		TargetWeight: 65,
		Timeline:     12,
		Equipment:    []string{"啞鈴"},
		Goal:         GoalMuscleGain,
	}
}

func (p UserProfile) Validate() error {
	switch {
	case p.Age <= 0:
		return invalid("age", "must be a positive integer")
	case p.Gender != GenderMale && p.Gender != GenderFemale:
		return invalid("gender", "must be male or female")
	case p.Height <= 0:
		return invalid("height", "must be greater than zero")
	case p.Weight <= 0:
		return invalid("weight", "must be greater than zero")
	case p.TargetWeight <= 0:
		return invalid("targetWeight", "must be greater than zero")
	case p.Timeline <= 0:
		return invalid("timeline", "must be a positive number of weeks")
	case p.Goal != GoalMuscleGain && p.Goal != GoalFatLoss:
		return invalid("goal", "must be muscle_gain or fat_loss")
	}
	if !percentOK(p.CurrentBodyFat) {
		return invalid("currentBodyFat", "must be between 0 and 100")
	}
	if !percentOK(p.TargetBodyFat) {
		return invalid("targetBodyFat", "must be between 0 and 100")
	}
	for _, e := range p.Equipment {
		if strings.TrimSpace(e) == "" {
			return invalid("equipment", "must not contain blank entries")
		}
	}
	return nil
}

func percentOK(v *float64) bool {
	return v == nil || (*v > 0 && *v < 100)
}

// BodyweightOnly reports whether no equipment was selected.
func (p UserProfile) BodyweightOnly() bool {
	return len(p.Equipment) == 0
}

// Clone returns a copy that shares no slices or pointers with p.
func (p UserProfile) Clone() UserProfile {
	out := p
	if p.Equipment != nil {
		out.Equipment = append([]string(nil), p.Equipment...)
	}
	out.CurrentBodyFat = clonePtr(p.CurrentBodyFat)
	out.TargetBodyFat = clonePtr(p.TargetBodyFat)
	return out
}

// ProfilePatch carries onboarding form edits. Nil fields are left untouched;
// ClearCurrentBodyFat/ClearTargetBodyFat empty the optional percentages.
type ProfilePatch struct {
	Age                 *int      `json:"age,omitempty"`
	Gender              *Gender   `json:"gender,omitempty"`
	Height              *float64  `json:"height,omitempty"`
	Weight              *float64  `json:"weight,omitempty"`
	TargetWeight        *float64  `json:"targetWeight,omitempty"`
	Timeline            *int      `json:"timeline,omitempty"`
	Equipment           *[]string `json:"equipment,omitempty"`
	Goal                *Goal     `json:"goal,omitempty"`
	CurrentBodyFat      *float64  `json:"currentBodyFat,omitempty"`
	TargetBodyFat       *float64  `json:"targetBodyFat,omitempty"`
	ClearCurrentBodyFat bool      `json:"clearCurrentBodyFat,omitempty"`
	ClearTargetBodyFat  bool      `json:"clearTargetBodyFat,omitempty"`
}

func (patch ProfilePatch) Apply(p UserProfile) UserProfile {
	out := p.Clone()
	if patch.Age != nil {
		out.Age = *patch.Age
	}
	if patch.Gender != nil {
		out.Gender = *patch.Gender
	}
	if patch.Height != nil {
		out.Height = *patch.Height
	}
	if patch.Weight != nil {
		out.Weight = *patch.Weight
	}
	if patch.TargetWeight != nil {
		out.TargetWeight = *patch.TargetWeight
	}
	if patch.Timeline != nil {
		out.Timeline = *patch.Timeline
	}
	if patch.Equipment != nil {
		out.Equipment = dedupe(*patch.Equipment)
	}
	if patch.Goal != nil {
		out.Goal = *patch.Goal
	}
	if patch.CurrentBodyFat != nil {
		out.CurrentBodyFat = clonePtr(patch.CurrentBodyFat)
	}
	if patch.TargetBodyFat != nil {
		out.TargetBodyFat = clonePtr(patch.TargetBodyFat)
	}
	if patch.ClearCurrentBodyFat {
		out.CurrentBodyFat = nil
	}
	if patch.ClearTargetBodyFat {
		out.TargetBodyFat = nil
	}
	return out
}

// equipment is a set; order of first selection is kept
func dedupe(in []string) []string {
	out := make([]string, 0, len(in))
	seen := make(map[string]struct{}, len(in))
	for _, s := range in {
		s = strings.TrimSpace(s)
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}

func clonePtr(v *float64) *float64 {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}
