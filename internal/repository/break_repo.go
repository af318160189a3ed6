package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/easterncc001/shift-logger/internal/model"
)

// BreakRepository 休息记录数据访问接口
type BreakRepository interface {
	// Create 插入休息记录；同一班次已有进行中休息时触发唯一约束冲突
	Create(ctx context.Context, b *model.Break) error
	GetOpen(ctx context.Context, shiftID uint64) (*model.Break, error)
	ListByShift(ctx context.Context, shiftID uint64) ([]model.Break, error)
	// EndOpen 条件结束进行中的休息，end_at 取 GREATEST(start_at, at)；返回是否命中
	EndOpen(ctx context.Context, shiftID uint64, at time.Time) (bool, error)
	DeleteByShift(ctx context.Context, shiftID uint64) error
}

type breakRepo struct {
	db *gorm.DB
}

// NewBreakRepo 创建 BreakRepository 实例
func NewBreakRepo(db *gorm.DB) BreakRepository {
	return &breakRepo{db: db}
}

func (r *breakRepo) Create(ctx context.Context, b *model.Break) error {
	return r.db.WithContext(ctx).Create(b).Error
}

func (r *breakRepo) GetOpen(ctx context.Context, shiftID uint64) (*model.Break, error) {
	var b model.Break
	err := r.db.WithContext(ctx).
		Where("shift_id = ? AND end_at IS NULL", shiftID).
		Order("start_at DESC").
		First(&b).Error
	if err != nil {
		return nil, err
	}
	return &b, nil
}

func (r *breakRepo) ListByShift(ctx context.Context, shiftID uint64) ([]model.Break, error) {
	var breaks []model.Break
	err := r.db.WithContext(ctx).
		Where("shift_id = ?", shiftID).
		Order("start_at ASC, id ASC").
		Find(&breaks).Error
	return breaks, err
}

func (r *breakRepo) EndOpen(ctx context.Context, shiftID uint64, at time.Time) (bool, error) {
	result := r.db.WithContext(ctx).
		Model(&model.Break{}).
		Where("shift_id = ? AND end_at IS NULL", shiftID).
		Update("end_at", gorm.Expr("GREATEST(start_at, ?)", at))
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (r *breakRepo) DeleteByShift(ctx context.Context, shiftID uint64) error {
	return r.db.WithContext(ctx).
		Where("shift_id = ?", shiftID).
		Delete(&model.Break{}).Error
}
