package domain

import (
	"github.com/yungbote/fitcoach-backend/internal/domain/fitness"
	"github.com/yungbote/fitcoach-backend/internal/domain/storage"
)

type (
	UserProfile       = fitness.UserProfile
	FitnessPlan       = fitness.FitnessPlan
	WorkoutDay        = fitness.WorkoutDay
	Exercise          = fitness.Exercise
	BodyMetrics       = fitness.BodyMetrics
	ChatMessage       = fitness.ChatMessage
	GenerationRun     = fitness.GenerationRun
	KVEntry           = storage.KVEntry
	ValidationError   = fitness.ValidationError
	StretchingRoutine = fitness.StretchingRoutine
)
