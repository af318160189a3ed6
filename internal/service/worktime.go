package service

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/easterncc001/shift-logger/internal/model"
)

// ReapedSentinel 被自动关闭的班次的休息摘要标记
const ReapedSentinel = "AUTO-CLOSED"

// breakClockLayout 休息摘要中的时刻格式，如 "03:04 PM"
const breakClockLayout = "03:04 PM"

// WorkDuration 工时值类型，展示时统一为 "Xh Ym"
type WorkDuration time.Duration

// String 实现 fmt.Stringer
func (d WorkDuration) String() string { return FormatHM(time.Duration(d)) }

// Seconds 以整秒存储
func (d WorkDuration) Seconds() int64 { return int64(time.Duration(d) / time.Second) }

// FormatHM 将时长格式化为 "{小时}h {分钟}m"，整数截断（59.9 分钟显示为 59m）
func FormatHM(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	minutes := int64(d / time.Minute)
	return fmt.Sprintf("%dh %dm", minutes/60, minutes%60)
}

// FormatSecondsHM 对可空的秒数做 FormatHM，nil 返回空串
func FormatSecondsHM(seconds *int64) string {
	if seconds == nil {
		return ""
	}
	return FormatHM(time.Duration(*seconds) * time.Second)
}

// HoursFromSeconds 秒数转小时，保留两位小数
func HoursFromSeconds(seconds int64) float64 {
	return math.Round(float64(seconds)/36) / 100
}

// shiftDurations 一次结算得到的三个时长
type shiftDurations struct {
	Total   WorkDuration
	Break   WorkDuration
	Working WorkDuration
}

// SumBreaks 累加已结束休息的时长，每段裁剪到 [clockIn, clockOut] 之内
func SumBreaks(breaks []model.Break, clockIn, clockOut time.Time) time.Duration {
	var sum time.Duration
	for _, b := range breaks {
		if b.EndAt == nil {
			continue
		}
		start, end := b.StartAt, *b.EndAt
		if start.Before(clockIn) {
			start = clockIn
		}
		if end.After(clockOut) {
			end = clockOut
		}
		if end.After(start) {
			sum += end.Sub(start)
		}
	}
	return sum
}

// computeDurations 计算总时长、休息时长与工作时长；工作时长不为负
func computeDurations(clockIn, clockOut time.Time, breaks []model.Break) shiftDurations {
	total := clockOut.Sub(clockIn)
	if total < 0 {
		total = 0
	}
	onBreak := SumBreaks(breaks, clockIn, clockOut)
	working := total - onBreak
	if working < 0 {
		working = 0
	}
	return shiftDurations{
		Total:   WorkDuration(total),
		Break:   WorkDuration(onBreak),
		Working: WorkDuration(working),
	}
}

// BreakSummary 将已结束的休息拼接为 "03:04 PM - 03:19 PM; ..."，时刻按 loc 展示
func BreakSummary(breaks []model.Break, loc *time.Location) string {
	if loc == nil {
		loc = time.UTC
	}
	parts := make([]string, 0, len(breaks))
	for _, b := range breaks {
		if b.EndAt == nil {
			continue
		}
		parts = append(parts, fmt.Sprintf("%s - %s",
			b.StartAt.In(loc).Format(breakClockLayout),
			b.EndAt.In(loc).Format(breakClockLayout),
		))
	}
	return strings.Join(parts, "; ")
}
