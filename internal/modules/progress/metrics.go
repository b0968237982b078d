package progress

import (
	"math"

	"github.com/yungbote/fitcoach-backend/internal/domain/fitness"
)

// DefaultMinBarFraction keeps zero-variance series visible on the chart.
const DefaultMinBarFraction = 0.05

// chart padding in kg around the observed range
const trendPadding = 2.0

// BMI is weight / height_m^2 rounded to one decimal.
func BMI(weightKg, heightCm float64) float64 {
	if weightKg <= 0 || heightCm <= 0 {
		return 0
	}
	m := heightCm / 100
	return Round1(weightKg / (m * m))
}

func Round1(v float64) float64 {
	return math.Round(v*10) / 10
}

// TrendBars normalizes weights into (0,1] bar heights against a range padded
// by 2 kg on each side, never below minFraction.
func TrendBars(weights []float64, minFraction float64) []float64 {
	if len(weights) == 0 {
		return nil
	}
	if minFraction <= 0 {
		minFraction = DefaultMinBarFraction
	}
	lo, hi := weights[0], weights[0]
	for _, w := range weights[1:] {
		lo = math.Min(lo, w)
		hi = math.Max(hi, w)
	}
	lo -= trendPadding
	hi += trendPadding
	out := make([]float64, len(weights))
	for i, w := range weights {
		out[i] = math.Max((w-lo)/(hi-lo), minFraction)
	}
	return out
}

// Chronological reverses a newest-first history.
func Chronological(history []fitness.BodyMetrics) []fitness.BodyMetrics {
	out := make([]fitness.BodyMetrics, len(history))
	for i, m := range history {
		out[len(history)-1-i] = m
	}
	return out
}

type AdviceKind string

const (
	AdviceFirstRecord AdviceKind = "first_record"
	AdviceMuscleGain  AdviceKind = "muscle_gain"
	AdviceProtein     AdviceKind = "protein_warning"
	AdviceFatLoss     AdviceKind = "fat_loss"
	AdviceSteady      AdviceKind = "steady"
)

var adviceText = map[AdviceKind]string{
	AdviceFirstRecord: "📝 這是你的第一筆紀錄，持續保持追蹤！",
	AdviceMuscleGain:  "💪 增肌成效顯著！體重與肌肉量同時上升。",
	AdviceProtein:     "📉 注意蛋白質攝取，避免肌肉流失。",
	AdviceFatLoss:     "🔥 體重下降，持續加油！",
	AdviceSteady:      "⚓️ 數據穩定，繼續保持訓練強度。",
}

func (k AdviceKind) Text() string { return adviceText[k] }

// Advice compares an entry with the one recorded before it. The muscle delta
// counts only when both entries carry a muscle mass.
func Advice(current fitness.BodyMetrics, previous *fitness.BodyMetrics) AdviceKind {
	if previous == nil {
		return AdviceFirstRecord
	}
	weightDiff := current.Weight - previous.Weight
	muscleDiff := 0.0
	if current.MuscleMass != nil && previous.MuscleMass != nil {
		muscleDiff = *current.MuscleMass - *previous.MuscleMass
	}
	switch {
	case weightDiff > 0 && muscleDiff > 0:
		return AdviceMuscleGain
	case weightDiff < 0 && muscleDiff < 0:
		return AdviceProtein
	case weightDiff < 0:
		return AdviceFatLoss
	default:
		return AdviceSteady
	}
}
