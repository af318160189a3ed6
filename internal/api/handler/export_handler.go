package handler

import (
	"bytes"
	"context"
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/easterncc001/shift-logger/internal/dto"
	"github.com/easterncc001/shift-logger/internal/service"
	"github.com/easterncc001/shift-logger/pkg/response"
)

const (
	contentTypeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	contentTypeCSV  = "text/csv; charset=utf-8"
	contentTypeICS  = "text/calendar; charset=utf-8"
)

type exportFunc func(ctx context.Context, req *dto.ShiftFilterRequest) (*bytes.Buffer, string, error)

// ExportHandler 导出模块 HTTP 处理器
type ExportHandler struct {
	exportSvc service.ExportService
}

// NewExportHandler 创建 ExportHandler
func NewExportHandler(exportSvc service.ExportService) *ExportHandler {
	return &ExportHandler{exportSvc: exportSvc}
}

// ExportXLSX 导出班次 Excel
// GET /api/v1/admin/export/shifts.xlsx
func (h *ExportHandler) ExportXLSX(c *gin.Context) {
	h.export(c, h.exportSvc.ExportShiftsXLSX, contentTypeXLSX)
}

// ExportCSV 导出班次 CSV
// GET /api/v1/admin/export/shifts.csv
func (h *ExportHandler) ExportCSV(c *gin.Context) {
	h.export(c, h.exportSvc.ExportShiftsCSV, contentTypeCSV)
}

// ExportICS 导出已结束班次为 iCalendar
// GET /api/v1/admin/export/shifts.ics
func (h *ExportHandler) ExportICS(c *gin.Context) {
	h.export(c, h.exportSvc.ExportShiftsICS, contentTypeICS)
}

func (h *ExportHandler) export(c *gin.Context, fn exportFunc, contentType string) {
	var req dto.ShiftFilterRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.InvalidParams(c, err)
		return
	}

	buf, filename, err := fn(c.Request.Context(), &req)
	if err != nil {
		h.handleExportError(c, err)
		return
	}

	response.Attachment(c, contentType, filename, buf.Bytes())
}

func (h *ExportHandler) handleExportError(c *gin.Context, err error) {
	if errors.Is(err, service.ErrExportGenerateFail) {
		response.InternalError(c)
		return
	}
	handleLedgerError(c, err)
}
