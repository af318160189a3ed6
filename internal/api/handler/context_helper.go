package handler

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/easterncc001/shift-logger/pkg/jwt"
	"github.com/easterncc001/shift-logger/pkg/response"
)

// claimsKey 与 middleware.JWTAuth 注入的键一致
const claimsKey = "claims"

// MustGetClaims 从 Gin 上下文中安全提取 JWT 声明。
// 如果 JWT 中间件未正确注入，返回 false 并写入 401 响应。
// 调用方应在 ok=false 时直接 return。
func MustGetClaims(c *gin.Context) (*jwt.Claims, bool) {
	v, exists := c.Get(claimsKey)
	if !exists {
		response.Unauthorized(c, 10002, "未认证")
		return nil, false
	}
	claims, ok := v.(*jwt.Claims)
	if !ok || claims == nil {
		response.Unauthorized(c, 10002, "未认证")
		return nil, false
	}
	return claims, true
}

// MustGetIDParam 解析路径中的数字 ID，非法时写入 400 响应
func MustGetIDParam(c *gin.Context) (uint64, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		response.BadRequest(c, 10001, "ID 格式错误")
		return 0, false
	}
	return id, true
}
