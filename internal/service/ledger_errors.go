package service

import "errors"

// ── 班次台账业务错误 ──

// 校验类
var (
	ErrNameRequired          = errors.New("姓名不能为空")
	ErrSubcontractorRequired = errors.New("分包商不能为空")
	ErrJobSiteRequired       = errors.New("工地不能为空")
	ErrUnknownJobSite        = errors.New("工地不存在")
	ErrCodeFormat            = errors.New("编码必须是 6 位数字")
	ErrAmbiguousShift        = errors.New("该编码在多个工地有未结束班次，请指定工地")
	ErrInvalidClockRange     = errors.New("下班时间不能早于上班时间")
	ErrInvalidTime           = errors.New("时间格式错误，需为 RFC3339")
)

// 冲突类
var (
	ErrAlreadyClockedIn  = errors.New("已在班中，请勿重复上班打卡")
	ErrAlreadyOnBreak    = errors.New("正在休息中")
	ErrAlreadyClockedOut = errors.New("当前没有未结束的班次")
)

// 不存在类
var (
	ErrCodeNotFound    = errors.New("编码不存在")
	ErrNoBreakToResume = errors.New("当前没有进行中的休息")
	ErrShiftNotFound   = errors.New("班次不存在")
)

// Kind 错误分类，决定对外的 HTTP 状态
type Kind int

const (
	KindStore Kind = iota
	KindValidation
	KindConflict
	KindNotFound
)

// ErrorKind 将业务错误归类；无法识别的一律视为存储故障
func ErrorKind(err error) Kind {
	switch {
	case errors.Is(err, ErrNameRequired),
		errors.Is(err, ErrSubcontractorRequired),
		errors.Is(err, ErrJobSiteRequired),
		errors.Is(err, ErrUnknownJobSite),
		errors.Is(err, ErrCodeFormat),
		errors.Is(err, ErrAmbiguousShift),
		errors.Is(err, ErrInvalidClockRange),
		errors.Is(err, ErrInvalidTime):
		return KindValidation
	case errors.Is(err, ErrAlreadyClockedIn),
		errors.Is(err, ErrAlreadyOnBreak),
		errors.Is(err, ErrAlreadyClockedOut):
		return KindConflict
	case errors.Is(err, ErrCodeNotFound),
		errors.Is(err, ErrNoBreakToResume),
		errors.Is(err, ErrShiftNotFound):
		return KindNotFound
	}
	return KindStore
}
