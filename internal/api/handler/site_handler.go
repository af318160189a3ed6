package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/easterncc001/shift-logger/internal/service"
	"github.com/easterncc001/shift-logger/pkg/response"
)

// SiteHandler 工地目录 HTTP 处理器
type SiteHandler struct {
	siteSvc service.SiteService
}

// NewSiteHandler 创建 SiteHandler
func NewSiteHandler(siteSvc service.SiteService) *SiteHandler {
	return &SiteHandler{siteSvc: siteSvc}
}

// ListSites 工地列表
// GET /api/v1/sites
func (h *SiteHandler) ListSites(c *gin.Context) {
	response.OK(c, h.siteSvc.List())
}
