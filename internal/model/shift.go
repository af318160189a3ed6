package model

import "time"

// 编码来源
const (
	CodeKindWorker = "worker" // 来自 worker_codes 的固定编码
	CodeKindShift  = "shift"  // 本班次单独生成的编码
)

// Shift 班次表 — 对应 shifts
//
// ClockOut 为 nil 表示班次未结束。时长统一以秒存储，
// "Xh Ym" 只在展示层生成。
type Shift struct {
	ID             uint64     `gorm:"primaryKey;autoIncrement"            json:"id"`
	WorkerName     string     `gorm:"type:varchar(120);not null"          json:"worker_name"`
	Subcontractor  string     `gorm:"type:varchar(120);not null"          json:"subcontractor"`
	JobSite        string     `gorm:"type:varchar(255);not null"          json:"job_site"`
	ClockIn        time.Time  `gorm:"not null"                            json:"clock_in"`
	ClockOut       *time.Time `json:"clock_out,omitempty"`
	TotalSeconds   *int64     `json:"total_seconds,omitempty"`
	BreakSeconds   *int64     `json:"break_seconds,omitempty"`
	WorkingSeconds *int64     `json:"working_seconds,omitempty"`
	BreaksSummary  string     `gorm:"type:text;not null;default:''"       json:"breaks_summary"`
	Code           string     `gorm:"type:char(6);not null"               json:"-"`
	CodeKind       string     `gorm:"type:varchar(10);not null"           json:"code_kind"`
	QRBatchID      *string    `gorm:"type:uuid"                           json:"qr_batch_id,omitempty"`
	Flagged        bool       `gorm:"not null;default:false"              json:"flagged"`
	Timestamps

	Breaks []Break `gorm:"foreignKey:ShiftID;references:ID;constraint:OnDelete:CASCADE" json:"breaks,omitempty"`
}

// TableName 指定表名
func (Shift) TableName() string { return "shifts" }

// IsOpen 班次是否仍未结束
func (s *Shift) IsOpen() bool { return s.ClockOut == nil }
