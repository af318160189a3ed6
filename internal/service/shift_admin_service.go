package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/easterncc001/shift-logger/config"
	"github.com/easterncc001/shift-logger/internal/dto"
	"github.com/easterncc001/shift-logger/internal/model"
	"github.com/easterncc001/shift-logger/internal/repository"
	pkgerrors "github.com/easterncc001/shift-logger/pkg/errors"
)

// ShiftAdminService 管理端班次查看与修正
type ShiftAdminService interface {
	List(ctx context.Context, req *dto.ShiftListRequest) ([]dto.ShiftResponse, int64, error)
	GetByID(ctx context.Context, id uint64) (*dto.ShiftResponse, error)
	Update(ctx context.Context, id uint64, req *dto.UpdateShiftRequest) (*dto.ShiftResponse, error)
	Delete(ctx context.Context, id uint64) error
}

type shiftAdminService struct {
	repo   *repository.Repository
	sites  SiteService
	codes  *codeIssuer
	scope  string
	logger *zap.Logger
}

// NewShiftAdminService 创建 ShiftAdminService 实例
func NewShiftAdminService(cfg config.LedgerConfig, repo *repository.Repository, sites SiteService, logger *zap.Logger) ShiftAdminService {
	return &shiftAdminService{
		repo:   repo,
		sites:  sites,
		codes:  newCodeIssuer(cfg.CodeMaxAttempts, logger),
		scope:  cfg.OpenShiftScope,
		logger: logger,
	}
}

// ────────────────────── List ──────────────────────

func (s *shiftAdminService) List(ctx context.Context, req *dto.ShiftListRequest) ([]dto.ShiftResponse, int64, error) {
	filter, err := toShiftFilter(&req.ShiftFilterRequest, s.sites)
	if err != nil {
		return nil, 0, err
	}

	shifts, total, err := s.repo.Shift.List(ctx, filter, req.GetOffset(), req.GetPageSize())
	if err != nil {
		s.logger.Error("查询班次列表失败", zap.Error(err))
		return nil, 0, err
	}

	result := make([]dto.ShiftResponse, 0, len(shifts))
	for i := range shifts {
		result = append(result, *toShiftResponse(&shifts[i], s.sites.Location(shifts[i].JobSite)))
	}
	return result, total, nil
}

// ────────────────────── GetByID ──────────────────────

func (s *shiftAdminService) GetByID(ctx context.Context, id uint64) (*dto.ShiftResponse, error) {
	shift, err := s.repo.Shift.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrShiftNotFound
		}
		s.logger.Error("查询班次失败", zap.Uint64("shift_id", id), zap.Error(err))
		return nil, err
	}
	return toShiftResponse(shift, s.sites.Location(shift.JobSite)), nil
}

// ────────────────────── Update ──────────────────────

func (s *shiftAdminService) Update(ctx context.Context, id uint64, req *dto.UpdateShiftRequest) (*dto.ShiftResponse, error) {
	var updated *model.Shift
	err := s.repo.InTx(ctx, func(tx *repository.Repository) error {
		shift, err := tx.Shift.GetByID(ctx, id)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrShiftNotFound
			}
			return err
		}
		prevName, prevSub, prevSite := shift.WorkerName, shift.Subcontractor, shift.JobSite

		if req.WorkerName != nil {
			name := strings.TrimSpace(*req.WorkerName)
			if name == "" {
				return ErrNameRequired
			}
			shift.WorkerName = name
		}
		if req.Subcontractor != nil {
			sub := strings.TrimSpace(*req.Subcontractor)
			if sub == "" {
				return ErrSubcontractorRequired
			}
			shift.Subcontractor = sub
		}
		if req.JobSite != nil {
			site, err := s.sites.Get(*req.JobSite)
			if err != nil {
				return err
			}
			shift.JobSite = site.ID
		}

		recompute := req.JobSite != nil
		if req.ClockIn != nil {
			t, err := time.Parse(time.RFC3339, *req.ClockIn)
			if err != nil {
				return ErrInvalidTime
			}
			shift.ClockIn = t.UTC()
			recompute = true
		}
		if req.ClockOut != nil {
			t, err := time.Parse(time.RFC3339, *req.ClockOut)
			if err != nil {
				return ErrInvalidTime
			}
			t = t.UTC()
			shift.ClockOut = &t
			recompute = true
		}
		if shift.ClockOut != nil && shift.ClockOut.Before(shift.ClockIn) {
			return ErrInvalidClockRange
		}

		if shift.ClockOut != nil && recompute {
			// 管理员补填下班时间时，进行中的休息一并结束
			if _, err := tx.Break.EndOpen(ctx, shift.ID, *shift.ClockOut); err != nil {
				return err
			}
			breaks, err := tx.Break.ListByShift(ctx, shift.ID)
			if err != nil {
				return err
			}
			d := computeDurations(shift.ClockIn, *shift.ClockOut, breaks)
			total, brk, working := d.Total.Seconds(), d.Break.Seconds(), d.Working.Seconds()
			shift.TotalSeconds = &total
			shift.BreakSeconds = &brk
			shift.WorkingSeconds = &working
			shift.BreaksSummary = BreakSummary(breaks, s.sites.Location(shift.JobSite))
			shift.Breaks = breaks
		}

		if req.Flagged != nil {
			shift.Flagged = *req.Flagged
		}

		renamed := shift.WorkerName != prevName || shift.Subcontractor != prevSub
		if shift.ClockOut == nil && (renamed || shift.JobSite != prevSite) {
			if err := tx.Shift.LockWorker(ctx, shift.WorkerName, shift.Subcontractor); err != nil {
				return err
			}
			if err := checkOpenScope(ctx, tx, s.scope, shift.WorkerName, shift.Subcontractor, shift.JobSite, shift.ID); err != nil {
				return err
			}
		}
		// 固定编码属于 (姓名, 分包商)，改名后换成新身份的编码
		if renamed && shift.CodeKind == model.CodeKindWorker {
			code, _, err := s.codes.GetOrCreateCode(ctx, tx, shift.WorkerName, shift.Subcontractor)
			if err != nil {
				return err
			}
			shift.Code = code
		}

		if err := tx.Shift.Update(ctx, shift); err != nil {
			if pkgerrors.IsUniqueViolation(err) {
				return ErrAlreadyClockedIn
			}
			return err
		}
		updated = shift
		return nil
	})
	if err != nil {
		if ErrorKind(err) == KindStore {
			s.logger.Error("更新班次失败", zap.Uint64("shift_id", id), zap.Error(err))
		}
		return nil, err
	}

	s.logger.Info("管理员修正班次", zap.Uint64("shift_id", id))
	return toShiftResponse(updated, s.sites.Location(updated.JobSite)), nil
}

// ────────────────────── Delete ──────────────────────

func (s *shiftAdminService) Delete(ctx context.Context, id uint64) error {
	err := s.repo.InTx(ctx, func(tx *repository.Repository) error {
		if _, err := tx.Shift.GetByID(ctx, id); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrShiftNotFound
			}
			return err
		}
		if err := tx.Break.DeleteByShift(ctx, id); err != nil {
			return err
		}
		return tx.Shift.Delete(ctx, id)
	})
	if err != nil {
		if !errors.Is(err, ErrShiftNotFound) {
			s.logger.Error("删除班次失败", zap.Uint64("shift_id", id), zap.Error(err))
		}
		return err
	}

	s.logger.Info("管理员删除班次", zap.Uint64("shift_id", id))
	return nil
}

// ── 内部辅助方法 ──

func toShiftResponse(shift *model.Shift, loc *time.Location) *dto.ShiftResponse {
	resp := &dto.ShiftResponse{
		ID:            shift.ID,
		WorkerName:    shift.WorkerName,
		Subcontractor: shift.Subcontractor,
		JobSite:       shift.JobSite,
		Code:          shift.Code,
		ClockIn:       formatLocal(shift.ClockIn, loc),
		TotalTime:     FormatSecondsHM(shift.TotalSeconds),
		BreakTime:     FormatSecondsHM(shift.BreakSeconds),
		WorkingTime:   FormatSecondsHM(shift.WorkingSeconds),
		Breaks:        shift.BreaksSummary,
		Flagged:       shift.Flagged,
		CreatedAt:     shift.CreatedAt.UTC().Format(time.RFC3339),
	}
	if shift.ClockOut != nil {
		resp.ClockOut = formatLocal(*shift.ClockOut, loc)
	}
	if shift.QRBatchID != nil {
		resp.QRBatchID = *shift.QRBatchID
	}
	for _, b := range shift.Breaks {
		br := dto.BreakResponse{ID: b.ID, StartAt: formatLocal(b.StartAt, loc)}
		if b.EndAt != nil {
			br.EndAt = formatLocal(*b.EndAt, loc)
		}
		resp.BreakRecords = append(resp.BreakRecords, br)
	}
	return resp
}
