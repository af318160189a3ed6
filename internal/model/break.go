package model

import "time"

// Break 休息记录表 — 对应 breaks
// EndAt 为 nil 表示正在休息
type Break struct {
	ID        uint64     `gorm:"primaryKey;autoIncrement" json:"id"`
	ShiftID   uint64     `gorm:"not null;index"           json:"shift_id"`
	ShiftCode string     `gorm:"type:char(6);not null"    json:"-"`
	StartAt   time.Time  `gorm:"not null"                 json:"start_at"`
	EndAt     *time.Time `json:"end_at,omitempty"`
}

// TableName 指定表名
func (Break) TableName() string { return "breaks" }
