package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/easterncc001/shift-logger/internal/model"
)

// WorkerCodeRepository 工人编码数据访问接口
type WorkerCodeRepository interface {
	// Create 插入编码；身份或编码重复时返回唯一约束错误
	Create(ctx context.Context, wc *model.WorkerCode) error
	GetByIdentity(ctx context.Context, workerName, subcontractor string) (*model.WorkerCode, error)
	GetByCode(ctx context.Context, code string) (*model.WorkerCode, error)
	CodeExists(ctx context.Context, code string) (bool, error)
}

type workerCodeRepo struct {
	db *gorm.DB
}

// NewWorkerCodeRepo 创建 WorkerCodeRepository 实例
func NewWorkerCodeRepo(db *gorm.DB) WorkerCodeRepository {
	return &workerCodeRepo{db: db}
}

// Create 使用 SAVEPOINT 包裹插入，唯一约束冲突不会使外层事务失效
func (r *workerCodeRepo) Create(ctx context.Context, wc *model.WorkerCode) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.Create(wc).Error
	})
}

func (r *workerCodeRepo) GetByIdentity(ctx context.Context, workerName, subcontractor string) (*model.WorkerCode, error) {
	var wc model.WorkerCode
	err := r.db.WithContext(ctx).
		Where("worker_name = ? AND subcontractor = ?", workerName, subcontractor).
		First(&wc).Error
	if err != nil {
		return nil, err
	}
	return &wc, nil
}

func (r *workerCodeRepo) GetByCode(ctx context.Context, code string) (*model.WorkerCode, error) {
	var wc model.WorkerCode
	err := r.db.WithContext(ctx).
		Where("code = ?", code).
		First(&wc).Error
	if err != nil {
		return nil, err
	}
	return &wc, nil
}

func (r *workerCodeRepo) CodeExists(ctx context.Context, code string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&model.WorkerCode{}).
		Where("code = ?", code).
		Count(&count).Error
	return count > 0, err
}
