package coach

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/yungbote/fitcoach-backend/internal/domain"
	"github.com/yungbote/fitcoach-backend/internal/platform/dbctx"
	"github.com/yungbote/fitcoach-backend/internal/platform/logger"
)

type GenerationRunRepo interface {
	Create(dbc dbctx.Context, run *types.GenerationRun) error
	ListByOrigin(dbc dbctx.Context, origin uuid.UUID, limit int) ([]*types.GenerationRun, error)
	DeleteByOrigin(dbc dbctx.Context, origin uuid.UUID) error
}

type generationRunRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewGenerationRunRepo(db *gorm.DB, baseLog *logger.Logger) GenerationRunRepo {
	return &generationRunRepo{
		db:  db,
		log: baseLog.With("repo", "GenerationRunRepo"),
	}
}

func (r *generationRunRepo) Create(dbc dbctx.Context, run *types.GenerationRun) error {
	if run == nil {
		return nil
	}
	if run.ID == uuid.Nil {
		run.ID = uuid.New()
	}
	if run.CreatedAt.IsZero() {
		run.CreatedAt = time.Now().UTC()
	}
	return dbc.Handle(r.db).Create(run).Error
}

func (r *generationRunRepo) ListByOrigin(dbc dbctx.Context, origin uuid.UUID, limit int) ([]*types.GenerationRun, error) {
	var out []*types.GenerationRun
	if origin == uuid.Nil {
		return out, nil
	}
	if limit <= 0 {
		limit = 20
	}
	if err := dbc.Handle(r.db).
		Where("origin = ?", origin).
		Order("created_at DESC").
		Limit(limit).
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *generationRunRepo) DeleteByOrigin(dbc dbctx.Context, origin uuid.UUID) error {
	if origin == uuid.Nil {
		return nil
	}
	return dbc.Handle(r.db).
		Where("origin = ?", origin).
		Delete(&types.GenerationRun{}).Error
}
