package service

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/easterncc001/shift-logger/config"
	"github.com/easterncc001/shift-logger/internal/dto"
	"github.com/easterncc001/shift-logger/pkg/jwt"
)

var (
	ErrInvalidCredentials = errors.New("密码错误")
)

// RoleAdmin 管理员角色
const RoleAdmin = "admin"

// TokenBlacklist 令牌黑名单，由 Redis 实现
type TokenBlacklist interface {
	BlacklistToken(ctx context.Context, jti string, ttl time.Duration) error
}

// AuthService 管理端认证接口
type AuthService interface {
	Login(ctx context.Context, req *dto.LoginRequest) (*dto.TokenResponse, error)
	// Logout 将令牌加入黑名单直至其过期；未配置黑名单时为空操作
	Logout(ctx context.Context, claims *jwt.Claims) error
}

type authService struct {
	cfg       *config.Config
	jwtMgr    *jwt.Manager
	blacklist TokenBlacklist
	logger    *zap.Logger
}

// NewAuthService 创建 AuthService 实例；blacklist 可为 nil
func NewAuthService(
	cfg *config.Config,
	jwtMgr *jwt.Manager,
	blacklist TokenBlacklist,
	logger *zap.Logger,
) AuthService {
	return &authService{
		cfg:       cfg,
		jwtMgr:    jwtMgr,
		blacklist: blacklist,
		logger:    logger,
	}
}

func (s *authService) Login(ctx context.Context, req *dto.LoginRequest) (*dto.TokenResponse, error) {
	// 1. 验证密码 (bcrypt)
	if err := bcrypt.CompareHashAndPassword([]byte(s.cfg.Auth.AdminPasswordHash), []byte(req.Password)); err != nil {
		s.logger.Warn("管理员登录失败")
		return nil, ErrInvalidCredentials
	}

	// 2. 生成 Token
	accessToken, _, err := s.jwtMgr.GenerateAccessToken(RoleAdmin, RoleAdmin)
	if err != nil {
		s.logger.Error("生成 AccessToken 失败", zap.Error(err))
		return nil, err
	}

	return &dto.TokenResponse{
		AccessToken: accessToken,
		ExpiresIn:   int(s.jwtMgr.AccessTokenTTL().Seconds()),
		Role:        RoleAdmin,
	}, nil
}

func (s *authService) Logout(ctx context.Context, claims *jwt.Claims) error {
	if s.blacklist == nil || claims == nil || claims.ID == "" {
		return nil
	}

	ttl := time.Minute
	if claims.ExpiresAt != nil {
		ttl = time.Until(claims.ExpiresAt.Time)
	}
	if ttl <= 0 {
		return nil
	}

	if err := s.blacklist.BlacklistToken(ctx, claims.ID, ttl); err != nil {
		s.logger.Error("令牌加入黑名单失败", zap.Error(err))
		return err
	}
	return nil
}
