package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/easterncc001/shift-logger/internal/service"
	"github.com/easterncc001/shift-logger/pkg/response"
)

// QRHandler 工地二维码 HTTP 处理器
type QRHandler struct {
	qrSvc service.QRService
}

// NewQRHandler 创建 QRHandler
func NewQRHandler(qrSvc service.QRService) *QRHandler {
	return &QRHandler{qrSvc: qrSvc}
}

// GenerateSiteQR 为工地新建二维码批次
// POST /api/v1/admin/sites/:id/qr
// 默认返回 PNG；?format=json 时返回批次号与链接
func (h *QRHandler) GenerateSiteQR(c *gin.Context) {
	result, err := h.qrSvc.GenerateSiteQR(c.Request.Context(), c.Param("id"))
	if err != nil {
		handleLedgerError(c, err)
		return
	}

	if c.Query("format") == "json" {
		response.Created(c, result)
		return
	}

	c.Header("X-QR-Batch-ID", result.BatchID)
	c.Header("X-QR-URL", result.URL)
	c.Data(http.StatusCreated, "image/png", result.PNG)
}
