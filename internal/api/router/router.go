package router

import (
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/easterncc001/shift-logger/config"
	"github.com/easterncc001/shift-logger/internal/api/handler"
	"github.com/easterncc001/shift-logger/internal/api/middleware"
	"github.com/easterncc001/shift-logger/internal/service"
	"github.com/easterncc001/shift-logger/pkg/jwt"
	"github.com/easterncc001/shift-logger/pkg/redis"
)

const (
	maxBodyBytes    = 1 << 20
	clockRateLimit  = 30
	loginRateLimit  = 10
	rateLimitWindow = time.Minute
)

// Setup 初始化并返回 Gin 路由引擎
func Setup(
	cfg *config.Config,
	h *handler.Handler,
	reaper service.ReaperService,
	jwtMgr *jwt.Manager,
	rdb *redis.Client,
	logger *zap.Logger,
) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	r := gin.New()

	// ── 全局中间件 ──
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger(logger))
	r.Use(middleware.SecurityHeaders())
	r.Use(middleware.CORS(cfg.Server.CORS.AllowOrigins))
	r.Use(middleware.BodyLimit(maxBodyBytes))

	// ── 健康检查 ──
	r.GET("/health", h.Health.Health)

	// ── API v1 ──
	v1 := r.Group("/api/v1")
	{
		// 工人端（无需认证，按 IP 限流，处理前顺带清理超时班次）
		public := v1.Group("")
		public.Use(middleware.RateLimit(rdb, clockRateLimit, rateLimitWindow, logger))
		public.Use(middleware.StaleShiftSweep(reaper))
		{
			public.GET("/sites", h.Site.ListSites)
			public.POST("/clock", h.Clock.Clock)
			public.GET("/clock/status/:code", h.Clock.Status)
		}

		// 认证模块
		auth := v1.Group("/auth")
		{
			auth.POST("/login", middleware.RateLimit(rdb, loginRateLimit, rateLimitWindow, logger), h.Auth.Login)
			auth.POST("/logout", middleware.JWTAuth(jwtMgr, rdb, logger), h.Auth.Logout)
		}

		// 管理端
		admin := v1.Group("/admin")
		admin.Use(middleware.JWTAuth(jwtMgr, rdb, logger), middleware.RoleAuth(service.RoleAdmin))
		{
			shifts := admin.Group("/shifts")
			{
				shifts.GET("", middleware.StaleShiftSweep(reaper), h.Shift.ListShifts)
				shifts.GET("/:id", h.Shift.GetShift)
				shifts.PUT("/:id", h.Shift.UpdateShift)
				shifts.DELETE("/:id", h.Shift.DeleteShift)
			}

			reports := admin.Group("/reports")
			{
				reports.GET("/subcontractors", h.Report.SubcontractorTotals)
				reports.GET("/project-history", h.Report.ProjectHistory)
			}

			export := admin.Group("/export")
			{
				export.GET("/shifts.xlsx", h.Export.ExportXLSX)
				export.GET("/shifts.csv", h.Export.ExportCSV)
				export.GET("/shifts.ics", h.Export.ExportICS)
			}

			admin.POST("/sites/:id/qr", h.QR.GenerateSiteQR)
			admin.POST("/reap", h.Reap.Reap)
		}
	}

	return r
}
