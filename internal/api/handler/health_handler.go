package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
)

// Pinger 健康检查依赖，由 repository.Repository 实现
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthHandler 健康检查
type HealthHandler struct {
	pinger Pinger
}

// NewHealthHandler 创建 HealthHandler
func NewHealthHandler(pinger Pinger) *HealthHandler {
	return &HealthHandler{pinger: pinger}
}

// Health 检查数据库连通性
// GET /health
func (h *HealthHandler) Health(c *gin.Context) {
	if h.pinger != nil {
		if err := h.pinger.Ping(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable", "db": "down"})
			return
		}
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok", "db": "up"})
}
