package service

import (
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/easterncc001/shift-logger/config"
	"github.com/easterncc001/shift-logger/internal/dto"
)

// JobSite 工地目录条目
type JobSite struct {
	ID       string
	Name     string
	Location *time.Location
}

// SiteService 工地目录接口（来自配置，只读）
type SiteService interface {
	List() []dto.JobSiteResponse
	Get(id string) (*JobSite, error)
	// Location 返回工地的展示时区，未知工地回退到 UTC
	Location(id string) *time.Location
}

type siteService struct {
	sites  []JobSite
	byID   map[string]*JobSite
	logger *zap.Logger
}

// NewSiteService 从配置构建工地目录
func NewSiteService(sites []config.JobSiteConfig, logger *zap.Logger) SiteService {
	s := &siteService{
		sites:  make([]JobSite, 0, len(sites)),
		byID:   make(map[string]*JobSite, len(sites)),
		logger: logger,
	}
	for _, c := range sites {
		loc := time.UTC
		if c.Timezone != "" {
			l, err := time.LoadLocation(c.Timezone)
			if err != nil {
				logger.Warn("工地时区无效，使用 UTC", zap.String("job_site", c.ID), zap.Error(err))
			} else {
				loc = l
			}
		}
		name := c.Name
		if name == "" {
			name = c.ID
		}
		s.sites = append(s.sites, JobSite{ID: c.ID, Name: name, Location: loc})
	}
	for i := range s.sites {
		s.byID[s.sites[i].ID] = &s.sites[i]
	}
	return s
}

func (s *siteService) List() []dto.JobSiteResponse {
	result := make([]dto.JobSiteResponse, 0, len(s.sites))
	for _, site := range s.sites {
		result = append(result, dto.JobSiteResponse{
			ID:       site.ID,
			Name:     site.Name,
			Timezone: site.Location.String(),
		})
	}
	return result
}

func (s *siteService) Get(id string) (*JobSite, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, ErrJobSiteRequired
	}
	site, ok := s.byID[id]
	if !ok {
		return nil, ErrUnknownJobSite
	}
	return site, nil
}

func (s *siteService) Location(id string) *time.Location {
	if site, ok := s.byID[id]; ok {
		return site.Location
	}
	return time.UTC
}
