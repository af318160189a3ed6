package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/easterncc001/shift-logger/pkg/response"
)

// BodyLimit 全局请求体大小限制中间件
// maxBytes: 允许的最大请求体字节数；打卡与修正请求都是很小的 JSON
// 声明了 Content-Length 的超限请求直接拒绝，其余在读取时由 MaxBytesReader 截断，
// 表现为绑定失败（400）
func BodyLimit(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.ContentLength > maxBytes {
			response.Error(c, http.StatusRequestEntityTooLarge, 10005, "请求体过大")
			c.Abort()
			return
		}
		if c.Request.Body != nil {
			c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		}

		c.Next()
	}
}
