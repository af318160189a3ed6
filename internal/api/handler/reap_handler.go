package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/easterncc001/shift-logger/internal/dto"
	"github.com/easterncc001/shift-logger/internal/service"
	"github.com/easterncc001/shift-logger/pkg/response"
)

// ReapHandler 超时班次手动清理
type ReapHandler struct {
	reaperSvc service.ReaperService
}

// NewReapHandler 创建 ReapHandler
func NewReapHandler(reaperSvc service.ReaperService) *ReapHandler {
	return &ReapHandler{reaperSvc: reaperSvc}
}

// Reap 立即关闭所有超时班次，不经节流
// POST /api/v1/admin/reap
func (h *ReapHandler) Reap(c *gin.Context) {
	n, err := h.reaperSvc.Reap(c.Request.Context())
	if err != nil {
		response.InternalError(c)
		return
	}
	response.OK(c, dto.ReapResponse{Closed: n})
}
