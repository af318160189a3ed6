package dto

// ── 打卡模块 DTO ──

// ClockAction 打卡动作，封闭枚举
type ClockAction string

const (
	ActionClockIn      ClockAction = "clock_in"
	ActionQuickClockIn ClockAction = "quick_clock_in"
	ActionBreakStart   ClockAction = "break_start"
	ActionBreakResume  ClockAction = "break_resume"
	ActionClockOut     ClockAction = "clock_out"
)

// Valid 是否为已知动作
func (a ClockAction) Valid() bool {
	switch a {
	case ActionClockIn, ActionQuickClockIn, ActionBreakStart, ActionBreakResume, ActionClockOut:
		return true
	}
	return false
}

// ClockRequest POST /clock 请求体，按 Action 决定哪些字段生效
type ClockRequest struct {
	Action        ClockAction `json:"action"        binding:"required"`
	Name          string      `json:"name"          binding:"omitempty,max=120"`
	Subcontractor string      `json:"subcontractor" binding:"omitempty,max=120"`
	JobSite       string      `json:"job_site"      binding:"omitempty,max=255"`
	Code          string      `json:"code"          binding:"omitempty,max=6"`
	QRBatchID     string      `json:"qr_batch_id"   binding:"omitempty,uuid"`
}

// ClockInRequest 首次上班
type ClockInRequest struct {
	WorkerName    string
	Subcontractor string
	JobSite       string
	QRBatchID     string
}

// QuickClockInRequest 凭编码上班
type QuickClockInRequest struct {
	Code      string
	JobSite   string
	QRBatchID string
}

// ShiftState 班次状态
type ShiftState string

const (
	StateNotStarted ShiftState = "not_started"
	StateOpen       ShiftState = "open"
	StateOnBreak    ShiftState = "on_break"
	StateClosed     ShiftState = "closed"
)

// ClockResult 打卡动作结果
// Code 仅在上班时返回一次，其余动作不会回显
type ClockResult struct {
	Action        ClockAction `json:"action"`
	State         ShiftState  `json:"state"`
	ShiftID       uint64      `json:"shift_id"`
	WorkerName    string      `json:"name"`
	Subcontractor string      `json:"subcontractor"`
	JobSite       string      `json:"job_site"`
	Code          string      `json:"code,omitempty"`
	ClockIn       string      `json:"clock_in"`
	ClockOut      string      `json:"clock_out,omitempty"`
	BreakStart    string      `json:"break_start,omitempty"`
	TotalTime     string      `json:"total_time,omitempty"`
	BreakTime     string      `json:"break_time,omitempty"`
	WorkingTime   string      `json:"working_time,omitempty"`
	Breaks        string      `json:"breaks,omitempty"`
}

// ShiftStatusResponse GET /clock/status/:code 响应
type ShiftStatusResponse struct {
	State         ShiftState `json:"state"`
	WorkerName    string     `json:"name,omitempty"`
	Subcontractor string     `json:"subcontractor,omitempty"`
	JobSite       string     `json:"job_site,omitempty"`
	ClockIn       string     `json:"clock_in,omitempty"`
	Elapsed       string     `json:"elapsed,omitempty"`
	OnBreakSince  string     `json:"on_break_since,omitempty"`
	ClockOut      string     `json:"clock_out,omitempty"`
	WorkingTime   string     `json:"working_time,omitempty"`
}
