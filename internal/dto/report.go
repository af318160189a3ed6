package dto

// ── 统计报表 DTO ──

// ReportFilterRequest 报表筛选
type ReportFilterRequest struct {
	Subcontractor string `form:"subcontractor" binding:"omitempty,max=120"`
	JobSite       string `form:"job_site"      binding:"omitempty,max=255"`
}

// SubcontractorTotalResponse 分包商合计
type SubcontractorTotalResponse struct {
	Subcontractor string  `json:"subcontractor"`
	Days          int64   `json:"days"`
	WorkingHours  float64 `json:"working_hours"`
	WorkingTime   string  `json:"working_time"`
}

// ProjectHistoryResponse 分包商在某工地的出勤区间
type ProjectHistoryResponse struct {
	Subcontractor string `json:"subcontractor"`
	JobSite       string `json:"job_site"`
	FirstDay      string `json:"first_day"`
	LastDay       string `json:"last_day,omitempty"`
	Manpower      int64  `json:"manpower"`
}
