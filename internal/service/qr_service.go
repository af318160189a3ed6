package service

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/easterncc001/shift-logger/internal/dto"
	"github.com/easterncc001/shift-logger/internal/model"
	"github.com/easterncc001/shift-logger/internal/repository"
	"github.com/easterncc001/shift-logger/pkg/qrcode"
)

// qrImageSize 二维码边长（像素，不含标题区）
const qrImageSize = 512

// QRService 工地二维码
type QRService interface {
	// GenerateSiteQR 新建一个批次并生成指向打卡页的二维码 PNG
	GenerateSiteQR(ctx context.Context, jobSite string) (*dto.QRCodeResult, error)
}

type qrService struct {
	repo    *repository.Repository
	sites   SiteService
	baseURL string
	logger  *zap.Logger
}

// NewQRService 创建 QRService 实例
func NewQRService(repo *repository.Repository, sites SiteService, baseURL string, logger *zap.Logger) QRService {
	return &qrService{
		repo:    repo,
		sites:   sites,
		baseURL: strings.TrimRight(baseURL, "/"),
		logger:  logger,
	}
}

func (s *qrService) GenerateSiteQR(ctx context.Context, jobSite string) (*dto.QRCodeResult, error) {
	site, err := s.sites.Get(jobSite)
	if err != nil {
		return nil, err
	}

	batch := &model.QRBatch{BatchID: uuid.NewString(), JobSite: site.ID}
	if err := s.repo.QRBatch.Create(ctx, batch); err != nil {
		s.logger.Error("保存二维码批次失败", zap.String("job_site", site.ID), zap.Error(err))
		return nil, err
	}

	q := url.Values{}
	q.Set("site", site.ID)
	q.Set("batch", batch.BatchID)
	link := fmt.Sprintf("%s/clock?%s", s.baseURL, q.Encode())

	png, err := qrcode.RenderPNG(link, site.Name, qrImageSize)
	if err != nil {
		s.logger.Error("生成二维码失败", zap.String("job_site", site.ID), zap.Error(err))
		return nil, err
	}

	s.logger.Info("生成工地二维码", zap.String("job_site", site.ID), zap.String("batch_id", batch.BatchID))
	return &dto.QRCodeResult{BatchID: batch.BatchID, URL: link, PNG: png}, nil
}
