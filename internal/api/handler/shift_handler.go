package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/easterncc001/shift-logger/internal/dto"
	"github.com/easterncc001/shift-logger/internal/service"
	"github.com/easterncc001/shift-logger/pkg/response"
)

// ShiftHandler 管理端班次 HTTP 处理器
type ShiftHandler struct {
	shiftSvc service.ShiftAdminService
}

// NewShiftHandler 创建 ShiftHandler
func NewShiftHandler(shiftSvc service.ShiftAdminService) *ShiftHandler {
	return &ShiftHandler{shiftSvc: shiftSvc}
}

// ListShifts 班次列表
// GET /api/v1/admin/shifts
func (h *ShiftHandler) ListShifts(c *gin.Context) {
	var req dto.ShiftListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.InvalidParams(c, err)
		return
	}

	shifts, total, err := h.shiftSvc.List(c.Request.Context(), &req)
	if err != nil {
		handleLedgerError(c, err)
		return
	}

	response.OKPage(c, shifts, total, req.GetPage(), req.GetPageSize())
}

// GetShift 班次详情
// GET /api/v1/admin/shifts/:id
func (h *ShiftHandler) GetShift(c *gin.Context) {
	id, ok := MustGetIDParam(c)
	if !ok {
		return
	}

	shift, err := h.shiftSvc.GetByID(c.Request.Context(), id)
	if err != nil {
		handleLedgerError(c, err)
		return
	}

	response.OK(c, shift)
}

// UpdateShift 修正班次
// PUT /api/v1/admin/shifts/:id
func (h *ShiftHandler) UpdateShift(c *gin.Context) {
	id, ok := MustGetIDParam(c)
	if !ok {
		return
	}

	var req dto.UpdateShiftRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.InvalidParams(c, err)
		return
	}

	shift, err := h.shiftSvc.Update(c.Request.Context(), id, &req)
	if err != nil {
		handleLedgerError(c, err)
		return
	}

	response.OK(c, shift)
}

// DeleteShift 删除班次及其休息记录
// DELETE /api/v1/admin/shifts/:id
func (h *ShiftHandler) DeleteShift(c *gin.Context) {
	id, ok := MustGetIDParam(c)
	if !ok {
		return
	}

	if err := h.shiftSvc.Delete(c.Request.Context(), id); err != nil {
		handleLedgerError(c, err)
		return
	}

	response.OK(c, nil)
}
