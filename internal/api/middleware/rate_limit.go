package middleware

import (
	"fmt"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/easterncc001/shift-logger/pkg/redis"
	"github.com/easterncc001/shift-logger/pkg/response"
)

// RateLimit 基于 Redis 滑动窗口的速率限制中间件
// 以 IP + 路由模板为键，猜测 6 位编码的请求会被同一键计数
// limit: 窗口内允许的最大请求数
// window: 滑动窗口时长
// rdb 为 nil 或出错时降级放行
func RateLimit(rdb *redis.Client, limit int, window time.Duration, logger *zap.Logger) gin.HandlerFunc {
	retryAfter := int(window / time.Second)

	return func(c *gin.Context) {
		if rdb == nil {
			c.Next()
			return
		}

		key := fmt.Sprintf("rate_limit:%s:%s", c.ClientIP(), c.FullPath())
		allowed, err := rdb.CheckRateLimit(c.Request.Context(), key, limit, window)
		if err != nil {
			logger.Debug("限流检查失败，放行", zap.String("key", key), zap.Error(err))
			c.Next()
			return
		}

		if !allowed {
			logger.Warn("请求被限流", zap.String("ip", c.ClientIP()), zap.String("route", c.FullPath()))
			response.TooManyRequests(c, retryAfter)
			c.Abort()
			return
		}

		c.Next()
	}
}
