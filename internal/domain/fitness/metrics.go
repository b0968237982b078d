package fitness

import "time"

// DateLayout is the calendar-date format used for check-ins and metric dates.
const DateLayout = "2006-01-02"

// LocalDate formats t as a calendar date in loc.
func LocalDate(t time.Time, loc *time.Location) string {
	if loc == nil {
		loc = time.Local
	}
	return t.In(loc).Format(DateLayout)
}

type BodyMetrics struct {
	Date        string   `json:"date"`
	Weight      float64  `json:"weight"`
	BMI         float64  `json:"bmi"`
	BodyFat     *float64 `json:"bodyFat,omitempty"`
	MuscleMass  *float64 `json:"muscleMass,omitempty"`
	BoneMass    *float64 `json:"boneMass,omitempty"`
	VisceralFat *float64 `json:"visceralFat,omitempty"`
}

func (m BodyMetrics) Clone() BodyMetrics {
	out := m
	out.BodyFat = clonePtr(m.BodyFat)
	out.MuscleMass = clonePtr(m.MuscleMass)
	out.BoneMass = clonePtr(m.BoneMass)
	out.VisceralFat = clonePtr(m.VisceralFat)
	return out
}

// Validate rejects history entries that could not have been written by AddMetric.
func (m BodyMetrics) Validate() error {
	if _, err := time.Parse(DateLayout, m.Date); err != nil {
		return invalid("date", "must be YYYY-MM-DD")
	}
	if m.Weight <= 0 {
		return invalid("weight", "must be greater than zero")
	}
	return nil
}

// MetricInput is one submission of the body-metrics form.
type MetricInput struct {
	Weight      float64  `json:"weight"`
	BodyFat     *float64 `json:"bodyFat,omitempty"`
	MuscleMass  *float64 `json:"muscleMass,omitempty"`
	BoneMass    *float64 `json:"boneMass,omitempty"`
	VisceralFat *float64 `json:"visceralFat,omitempty"`
}

func (in MetricInput) Validate() error {
	if in.Weight <= 0 {
		return invalid("weight", "is required")
	}
	if in.BodyFat != nil && *in.BodyFat >= 100 {
		return invalid("bodyFat", "must be below 100")
	}
	return nil
}

// Normalize drops optional values that were left blank (zero) on the form.
func (in MetricInput) Normalize() MetricInput {
	out := in
	out.BodyFat = positive(in.BodyFat)
	out.MuscleMass = positive(in.MuscleMass)
	out.BoneMass = positive(in.BoneMass)
	out.VisceralFat = positive(in.VisceralFat)
	return out
}

func positive(v *float64) *float64 {
	if v == nil || *v <= 0 {
		return nil
	}
	return clonePtr(v)
}
