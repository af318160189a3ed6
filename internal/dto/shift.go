package dto

// ── 班次管理 DTO ──

// ShiftListRequest 班次列表筛选
type ShiftListRequest struct {
	PaginationRequest
	ShiftFilterRequest
}

// ShiftFilterRequest 班次筛选条件（列表、导出、报表共用）
type ShiftFilterRequest struct {
	Name          string `form:"name"          binding:"omitempty,max=120"`
	Subcontractor string `form:"subcontractor" binding:"omitempty,max=120"`
	JobSite       string `form:"job_site"      binding:"omitempty,max=255"`
	Code          string `form:"code"          binding:"omitempty,len=6,numeric"`
	Flagged       *bool  `form:"flagged"`
	From          string `form:"from"          binding:"omitempty,datetime=2006-01-02"`
	To            string `form:"to"            binding:"omitempty,datetime=2006-01-02"`
	OpenOnly      bool   `form:"open_only"`
}

// UpdateShiftRequest 管理员修正班次
type UpdateShiftRequest struct {
	WorkerName    *string `json:"name"          binding:"omitempty,min=1,max=120"`
	Subcontractor *string `json:"subcontractor" binding:"omitempty,min=1,max=120"`
	JobSite       *string `json:"job_site"      binding:"omitempty,min=1,max=255"`
	ClockIn       *string `json:"clock_in"      binding:"omitempty"` // RFC3339
	ClockOut      *string `json:"clock_out"     binding:"omitempty"` // RFC3339
	Flagged       *bool   `json:"flagged"`
}

// BreakResponse 休息记录
type BreakResponse struct {
	ID      uint64 `json:"id"`
	StartAt string `json:"start_at"`
	EndAt   string `json:"end_at,omitempty"`
}

// ShiftResponse 班次详情（管理端）
type ShiftResponse struct {
	ID            uint64          `json:"id"`
	WorkerName    string          `json:"name"`
	Subcontractor string          `json:"subcontractor"`
	JobSite       string          `json:"job_site"`
	Code          string          `json:"code"`
	ClockIn       string          `json:"clock_in"`
	ClockOut      string          `json:"clock_out,omitempty"`
	TotalTime     string          `json:"total_time,omitempty"`
	BreakTime     string          `json:"break_time,omitempty"`
	WorkingTime   string          `json:"working_time,omitempty"`
	Breaks        string          `json:"breaks"`
	QRBatchID     string          `json:"qr_batch_id,omitempty"`
	Flagged       bool            `json:"flagged"`
	BreakRecords  []BreakResponse `json:"break_records,omitempty"`
	CreatedAt     string          `json:"created_at"`
}

// ReapResponse 手动清理结果
type ReapResponse struct {
	Closed int `json:"closed"`
}
