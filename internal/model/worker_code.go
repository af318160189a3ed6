package model

import "time"

// WorkerCode 工人编码表 — 对应 worker_codes
// (WorkerName, Subcontractor) 与 Code 双向唯一，写入后不再修改
type WorkerCode struct {
	ID            uint64    `gorm:"primaryKey;autoIncrement"   json:"id"`
	WorkerName    string    `gorm:"type:varchar(120);not null" json:"worker_name"`
	Subcontractor string    `gorm:"type:varchar(120);not null" json:"subcontractor"`
	Code          string    `gorm:"type:char(6);not null"      json:"-"`
	CreatedAt     time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
}

// TableName 指定表名
func (WorkerCode) TableName() string { return "worker_codes" }
