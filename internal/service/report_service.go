package service

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/easterncc001/shift-logger/internal/dto"
	"github.com/easterncc001/shift-logger/internal/repository"
)

// ReportService 分包商统计，每次调用都从班次表重新聚合
type ReportService interface {
	SubcontractorTotals(ctx context.Context, req *dto.ReportFilterRequest) ([]dto.SubcontractorTotalResponse, error)
	ProjectHistory(ctx context.Context, req *dto.ReportFilterRequest) ([]dto.ProjectHistoryResponse, error)
}

type reportService struct {
	repo   *repository.Repository
	sites  SiteService
	logger *zap.Logger
}

// NewReportService 创建 ReportService 实例
func NewReportService(repo *repository.Repository, sites SiteService, logger *zap.Logger) ReportService {
	return &reportService{repo: repo, sites: sites, logger: logger}
}

// ────────────────────── SubcontractorTotals ──────────────────────

func (s *reportService) SubcontractorTotals(ctx context.Context, req *dto.ReportFilterRequest) ([]dto.SubcontractorTotalResponse, error) {
	rows, err := s.repo.Shift.SubcontractorTotals(ctx, reportFilter(req))
	if err != nil {
		s.logger.Error("统计分包商工时失败", zap.Error(err))
		return nil, err
	}

	result := make([]dto.SubcontractorTotalResponse, 0, len(rows))
	for _, row := range rows {
		result = append(result, dto.SubcontractorTotalResponse{
			Subcontractor: row.Subcontractor,
			Days:          row.Days,
			WorkingHours:  HoursFromSeconds(row.WorkingSeconds),
			WorkingTime:   FormatHM(time.Duration(row.WorkingSeconds) * time.Second),
		})
	}
	return result, nil
}

// ────────────────────── ProjectHistory ──────────────────────

func (s *reportService) ProjectHistory(ctx context.Context, req *dto.ReportFilterRequest) ([]dto.ProjectHistoryResponse, error) {
	rows, err := s.repo.Shift.ProjectHistory(ctx, reportFilter(req))
	if err != nil {
		s.logger.Error("统计分包商项目历史失败", zap.Error(err))
		return nil, err
	}

	result := make([]dto.ProjectHistoryResponse, 0, len(rows))
	for _, row := range rows {
		loc := s.sites.Location(row.JobSite)
		item := dto.ProjectHistoryResponse{
			Subcontractor: row.Subcontractor,
			JobSite:       row.JobSite,
			FirstDay:      row.FirstDay.In(loc).Format(dateLayout),
			Manpower:      row.Manpower,
		}
		if !row.LastDay.IsZero() {
			item.LastDay = row.LastDay.In(loc).Format(dateLayout)
		}
		result = append(result, item)
	}
	return result, nil
}

func reportFilter(req *dto.ReportFilterRequest) repository.ShiftFilter {
	if req == nil {
		return repository.ShiftFilter{}
	}
	return repository.ShiftFilter{
		Subcontractor: strings.TrimSpace(req.Subcontractor),
		JobSite:       strings.TrimSpace(req.JobSite),
	}
}
