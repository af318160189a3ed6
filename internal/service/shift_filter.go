package service

import (
	"strings"
	"time"

	"github.com/easterncc001/shift-logger/internal/dto"
	"github.com/easterncc001/shift-logger/internal/repository"
)

const dateLayout = "2006-01-02"

// toShiftFilter 将查询参数转换为仓储层过滤条件
// 日期按所选工地时区解释（未选工地时为 UTC），To 含当天
func toShiftFilter(req *dto.ShiftFilterRequest, sites SiteService) (repository.ShiftFilter, error) {
	f := repository.ShiftFilter{
		WorkerName:    strings.TrimSpace(req.Name),
		Subcontractor: strings.TrimSpace(req.Subcontractor),
		JobSite:       strings.TrimSpace(req.JobSite),
		Code:          strings.TrimSpace(req.Code),
		Flagged:       req.Flagged,
		OpenOnly:      req.OpenOnly,
	}

	loc := time.UTC
	if f.JobSite != "" {
		loc = sites.Location(f.JobSite)
	}
	if req.From != "" {
		from, err := time.ParseInLocation(dateLayout, req.From, loc)
		if err != nil {
			return f, ErrInvalidTime
		}
		f.From = &from
	}
	if req.To != "" {
		to, err := time.ParseInLocation(dateLayout, req.To, loc)
		if err != nil {
			return f, ErrInvalidTime
		}
		to = to.AddDate(0, 0, 1)
		f.To = &to
	}
	if f.From != nil && f.To != nil && !f.To.After(*f.From) {
		return f, ErrInvalidClockRange
	}
	return f, nil
}
