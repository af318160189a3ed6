package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/easterncc001/shift-logger/internal/dto"
	"github.com/easterncc001/shift-logger/internal/service"
	"github.com/easterncc001/shift-logger/pkg/response"
)

// ReportHandler 统计报表 HTTP 处理器
type ReportHandler struct {
	reportSvc service.ReportService
}

// NewReportHandler 创建 ReportHandler
func NewReportHandler(reportSvc service.ReportService) *ReportHandler {
	return &ReportHandler{reportSvc: reportSvc}
}

// SubcontractorTotals 分包商出勤天数与工时合计
// GET /api/v1/admin/reports/subcontractors
func (h *ReportHandler) SubcontractorTotals(c *gin.Context) {
	var req dto.ReportFilterRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.InvalidParams(c, err)
		return
	}

	result, err := h.reportSvc.SubcontractorTotals(c.Request.Context(), &req)
	if err != nil {
		handleLedgerError(c, err)
		return
	}

	response.OK(c, result)
}

// ProjectHistory 分包商在各工地的进退场记录
// GET /api/v1/admin/reports/project-history
func (h *ReportHandler) ProjectHistory(c *gin.Context) {
	var req dto.ReportFilterRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.InvalidParams(c, err)
		return
	}

	result, err := h.reportSvc.ProjectHistory(c.Request.Context(), &req)
	if err != nil {
		handleLedgerError(c, err)
		return
	}

	response.OK(c, result)
}
