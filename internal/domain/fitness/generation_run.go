package fitness

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

const (
	RunStatusSucceeded = "succeeded"
	RunStatusFailed    = "failed"
)

// GenerationRun records one plan-generation attempt for an origin.
type GenerationRun struct {
	ID         uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	Origin     uuid.UUID      `gorm:"type:uuid;not null;index" json:"origin"`
	Status     string         `gorm:"column:status;not null;index" json:"status"`
	Model      string         `gorm:"column:model" json:"model,omitempty"`
	Profile    datatypes.JSON `gorm:"column:profile" json:"profile"`
	Plan       datatypes.JSON `gorm:"column:plan" json:"plan,omitempty"`
	Error      string         `gorm:"column:error" json:"error,omitempty"`
	DurationMS int64          `gorm:"column:duration_ms;not null;default:0" json:"duration_ms"`
	CreatedAt  time.Time      `gorm:"not null;index" json:"created_at"`
}

func (GenerationRun) TableName() string { return "generation_run" }
