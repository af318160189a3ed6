package handler

import "github.com/easterncc001/shift-logger/internal/service"

// Handler 所有 Handler 的聚合入口
type Handler struct {
	Auth   *AuthHandler
	Site   *SiteHandler
	Clock  *ClockHandler
	Shift  *ShiftHandler
	Report *ReportHandler
	Export *ExportHandler
	QR     *QRHandler
	Reap   *ReapHandler
	Health *HealthHandler
}

// NewHandler 创建 Handler 聚合；pinger 用于健康检查
func NewHandler(svc *service.Service, pinger Pinger) *Handler {
	return &Handler{
		Auth:   NewAuthHandler(svc.Auth),
		Site:   NewSiteHandler(svc.Site),
		Clock:  NewClockHandler(svc.Ledger),
		Shift:  NewShiftHandler(svc.ShiftAdmin),
		Report: NewReportHandler(svc.Report),
		Export: NewExportHandler(svc.Export),
		QR:     NewQRHandler(svc.QR),
		Reap:   NewReapHandler(svc.Reaper),
		Health: NewHealthHandler(pinger),
	}
}
