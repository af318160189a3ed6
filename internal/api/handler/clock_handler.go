package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/easterncc001/shift-logger/internal/dto"
	"github.com/easterncc001/shift-logger/internal/service"
	"github.com/easterncc001/shift-logger/pkg/response"
)

// ClockHandler 工人打卡 HTTP 处理器（公开接口）
type ClockHandler struct {
	ledgerSvc service.LedgerService
}

// NewClockHandler 创建 ClockHandler
func NewClockHandler(ledgerSvc service.LedgerService) *ClockHandler {
	return &ClockHandler{ledgerSvc: ledgerSvc}
}

// Clock 打卡动作分发
// POST /api/v1/clock
func (h *ClockHandler) Clock(c *gin.Context) {
	var req dto.ClockRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.InvalidParams(c, err)
		return
	}
	if !req.Action.Valid() {
		response.BadRequest(c, 10001, "未知的打卡动作")
		return
	}

	ctx := c.Request.Context()
	var (
		result *dto.ClockResult
		err    error
	)
	switch req.Action {
	case dto.ActionClockIn:
		result, err = h.ledgerSvc.ClockIn(ctx, &dto.ClockInRequest{
			WorkerName:    req.Name,
			Subcontractor: req.Subcontractor,
			JobSite:       req.JobSite,
			QRBatchID:     req.QRBatchID,
		})
	case dto.ActionQuickClockIn:
		result, err = h.ledgerSvc.QuickClockIn(ctx, &dto.QuickClockInRequest{
			Code:      req.Code,
			JobSite:   req.JobSite,
			QRBatchID: req.QRBatchID,
		})
	case dto.ActionBreakStart:
		result, err = h.ledgerSvc.StartBreak(ctx, req.Code, req.JobSite)
	case dto.ActionBreakResume:
		result, err = h.ledgerSvc.ResumeBreak(ctx, req.Code, req.JobSite)
	case dto.ActionClockOut:
		result, err = h.ledgerSvc.ClockOut(ctx, req.Code, req.JobSite)
	}
	if err != nil {
		handleLedgerError(c, err)
		return
	}

	if req.Action == dto.ActionClockIn || req.Action == dto.ActionQuickClockIn {
		response.Created(c, result)
		return
	}
	response.OK(c, result)
}

// Status 按编码查询当前班次状态
// GET /api/v1/clock/status/:code
func (h *ClockHandler) Status(c *gin.Context) {
	result, err := h.ledgerSvc.Status(c.Request.Context(), c.Param("code"))
	if err != nil {
		handleLedgerError(c, err)
		return
	}
	response.OK(c, result)
}
