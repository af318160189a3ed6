package dto

// ── 管理端认证 DTO ──

// LoginRequest 管理员登录请求
type LoginRequest struct {
	Password string `json:"password" binding:"required"`
}

// TokenResponse 登录成功响应
type TokenResponse struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   int    `json:"expires_in"` // 有效期（秒）
	Role        string `json:"role"`
}
