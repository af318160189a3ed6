package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/easterncc001/shift-logger/internal/model"
)

// QRBatchRepository 二维码批次数据访问接口
type QRBatchRepository interface {
	Create(ctx context.Context, batch *model.QRBatch) error
	GetByID(ctx context.Context, batchID string) (*model.QRBatch, error)
}

type qrBatchRepo struct {
	db *gorm.DB
}

// NewQRBatchRepo 创建 QRBatchRepository 实例
func NewQRBatchRepo(db *gorm.DB) QRBatchRepository {
	return &qrBatchRepo{db: db}
}

func (r *qrBatchRepo) Create(ctx context.Context, batch *model.QRBatch) error {
	return r.db.WithContext(ctx).Create(batch).Error
}

func (r *qrBatchRepo) GetByID(ctx context.Context, batchID string) (*model.QRBatch, error) {
	var batch model.QRBatch
	err := r.db.WithContext(ctx).
		Where("batch_id = ?", batchID).
		First(&batch).Error
	if err != nil {
		return nil, err
	}
	return &batch, nil
}
