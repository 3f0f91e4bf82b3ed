package repos

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yungbote/cognify-backend/internal/platform/logger"
	"github.com/yungbote/cognify-backend/internal/types"
)

type EvaluationRepo interface {
	GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.Evaluation, error)
	// GetRecentByUserID returns the user's most recent evaluations, newest
	// first.
	GetRecentByUserID(ctx context.Context, tx *gorm.DB, userID uuid.UUID, limit int) ([]types.Evaluation, error)
	// GetLatestByUserID returns the immediately preceding evaluation for the
	// user, or nil when none exists.
	GetLatestByUserID(ctx context.Context, tx *gorm.DB, userID uuid.UUID) (*types.Evaluation, error)
	Create(ctx context.Context, tx *gorm.DB, ev *types.Evaluation) error
}

type evaluationRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewEvaluationRepo(db *gorm.DB, baseLog *logger.Logger) EvaluationRepo {
	return &evaluationRepo{
		db:  db,
		log: baseLog.With("repo", "EvaluationRepo"),
	}
}

func (r *evaluationRepo) GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.Evaluation, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if id == uuid.Nil {
		return nil, nil
	}
	var row types.Evaluation
	err := transaction.WithContext(ctx).
		Where("id = ?", id).
		Limit(1).
		Find(&row).Error
	if err != nil {
		return nil, err
	}
	if row.ID == uuid.Nil {
		return nil, nil
	}
	return &row, nil
}

func (r *evaluationRepo) GetRecentByUserID(ctx context.Context, tx *gorm.DB, userID uuid.UUID, limit int) ([]types.Evaluation, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if userID == uuid.Nil {
		return nil, nil
	}
	if limit <= 0 {
		limit = 5
	}
	var rows []types.Evaluation
	err := transaction.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Limit(limit).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *evaluationRepo) GetLatestByUserID(ctx context.Context, tx *gorm.DB, userID uuid.UUID) (*types.Evaluation, error) {
	rows, err := r.GetRecentByUserID(ctx, tx, userID, 1)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return &rows[0], nil
}

func (r *evaluationRepo) Create(ctx context.Context, tx *gorm.DB, ev *types.Evaluation) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if ev == nil {
		return nil
	}
	if ev.ID == uuid.Nil {
		ev.ID = uuid.New()
	}
	now := time.Now().UTC()
	if ev.CreatedAt.IsZero() {
		ev.CreatedAt = now
	}
	ev.UpdatedAt = now
	return transaction.WithContext(ctx).Create(ev).Error
}
