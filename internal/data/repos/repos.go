package repos

import (
	"github.com/yungbote/fitcoach-backend/internal/data/repos/coach"
	"github.com/yungbote/fitcoach-backend/internal/platform/logger"
	"gorm.io/gorm"
)

type GenerationRunRepo = coach.GenerationRunRepo

type Repos struct {
	GenerationRuns GenerationRunRepo
}

func New(db *gorm.DB, log *logger.Logger) Repos {
	return Repos{
		GenerationRuns: coach.NewGenerationRunRepo(db, log),
	}
}
