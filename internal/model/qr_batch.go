package model

import "time"

// QRBatch 工地二维码批次 — 对应 qr_batches
type QRBatch struct {
	BatchID   string    `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"batch_id"`
	JobSite   string    `gorm:"type:varchar(255);not null"                     json:"job_site"`
	CreatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"             json:"created_at"`
}

// TableName 指定表名
func (QRBatch) TableName() string { return "qr_batches" }
