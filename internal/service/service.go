package service

import (
	"go.uber.org/zap"

	"github.com/easterncc001/shift-logger/config"
	"github.com/easterncc001/shift-logger/internal/repository"
	"github.com/easterncc001/shift-logger/pkg/jwt"
	"github.com/easterncc001/shift-logger/pkg/redis"
)

// Service 所有 Service 的聚合入口
type Service struct {
	Auth       AuthService
	Site       SiteService
	Ledger     LedgerService
	Reaper     ReaperService
	ShiftAdmin ShiftAdminService
	Report     ReportService
	Export     ExportService
	QR         QRService
}

// NewService 创建 Service 聚合；rdb 为 nil 时黑名单与跨实例节流降级
func NewService(
	cfg *config.Config,
	repo *repository.Repository,
	jwtMgr *jwt.Manager,
	rdb *redis.Client,
	logger *zap.Logger,
) *Service {
	var (
		blacklist TokenBlacklist
		sweepLock SweepLock
	)
	if rdb != nil {
		blacklist = rdb
		sweepLock = rdb
	}

	sites := NewSiteService(cfg.JobSites, logger)

	return &Service{
		Auth:       NewAuthService(cfg, jwtMgr, blacklist, logger),
		Site:       sites,
		Ledger:     NewLedgerService(cfg.Ledger, repo, sites, logger),
		Reaper:     NewReaperService(repo, sweepLock, cfg.Ledger.StaleAfter, cfg.Ledger.SweepInterval, logger),
		ShiftAdmin: NewShiftAdminService(cfg.Ledger, repo, sites, logger),
		Report:     NewReportService(repo, sites, logger),
		Export:     NewExportService(repo, sites, logger),
		QR:         NewQRService(repo, sites, cfg.Server.BaseURL, logger),
	}
}
