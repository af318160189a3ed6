package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/easterncc001/shift-logger/internal/service"
)

// StaleShiftSweep 在处理打卡请求前顺带关闭超时班次
// Sweep 自带节流，绝大多数请求只做一次原子读
func StaleShiftSweep(reaper service.ReaperService) gin.HandlerFunc {
	return func(c *gin.Context) {
		reaper.Sweep(c.Request.Context())
		c.Next()
	}
}
