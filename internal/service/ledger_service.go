package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/easterncc001/shift-logger/config"
	"github.com/easterncc001/shift-logger/internal/dto"
	"github.com/easterncc001/shift-logger/internal/model"
	"github.com/easterncc001/shift-logger/internal/repository"
	pkgerrors "github.com/easterncc001/shift-logger/pkg/errors"
)

// LedgerService 班次状态机：NotStarted → Open → (OnBreak ⇄ Open)* → Closed
type LedgerService interface {
	ClockIn(ctx context.Context, req *dto.ClockInRequest) (*dto.ClockResult, error)
	QuickClockIn(ctx context.Context, req *dto.QuickClockInRequest) (*dto.ClockResult, error)
	StartBreak(ctx context.Context, code, jobSite string) (*dto.ClockResult, error)
	ResumeBreak(ctx context.Context, code, jobSite string) (*dto.ClockResult, error)
	ClockOut(ctx context.Context, code, jobSite string) (*dto.ClockResult, error)
	Status(ctx context.Context, code string) (*dto.ShiftStatusResponse, error)
}

type ledgerService struct {
	repo   *repository.Repository
	sites  SiteService
	codes  *codeIssuer
	cfg    config.LedgerConfig
	now    func() time.Time
	logger *zap.Logger
}

// NewLedgerService 创建 LedgerService 实例
func NewLedgerService(
	cfg config.LedgerConfig,
	repo *repository.Repository,
	sites SiteService,
	logger *zap.Logger,
) LedgerService {
	return &ledgerService{
		repo:   repo,
		sites:  sites,
		codes:  newCodeIssuer(cfg.CodeMaxAttempts, logger),
		cfg:    cfg,
		now:    func() time.Time { return time.Now().UTC() },
		logger: logger,
	}
}

// ────────────────────── ClockIn ──────────────────────

func (s *ledgerService) ClockIn(ctx context.Context, req *dto.ClockInRequest) (*dto.ClockResult, error) {
	name := strings.TrimSpace(req.WorkerName)
	sub := strings.TrimSpace(req.Subcontractor)
	if name == "" {
		return nil, ErrNameRequired
	}
	if sub == "" {
		return nil, ErrSubcontractorRequired
	}
	site, err := s.sites.Get(req.JobSite)
	if err != nil {
		return nil, err
	}

	var shift *model.Shift
	err = s.repo.InTx(ctx, func(tx *repository.Repository) error {
		var err error
		shift, err = s.openShift(ctx, tx, name, sub, site, req.QRBatchID, "")
		return err
	})
	if err != nil {
		s.logStoreErr("上班打卡失败", err, zap.String("job_site", site.ID))
		return nil, err
	}

	s.logger.Info("上班打卡",
		zap.Uint64("shift_id", shift.ID),
		zap.String("job_site", site.ID),
		zap.String("code_kind", shift.CodeKind),
	)

	result := s.toClockResult(dto.ActionClockIn, dto.StateOpen, shift)
	result.Code = shift.Code
	return result, nil
}

// ────────────────────── QuickClockIn ──────────────────────

func (s *ledgerService) QuickClockIn(ctx context.Context, req *dto.QuickClockInRequest) (*dto.ClockResult, error) {
	code := strings.TrimSpace(req.Code)
	if err := ValidateCodeFormat(code); err != nil {
		return nil, err
	}
	site, err := s.sites.Get(req.JobSite)
	if err != nil {
		return nil, err
	}

	var shift *model.Shift
	err = s.repo.InTx(ctx, func(tx *repository.Repository) error {
		name, sub, reuse, err := s.resolveIdentity(ctx, tx, code)
		if err != nil {
			return err
		}
		shift, err = s.openShift(ctx, tx, name, sub, site, req.QRBatchID, reuse)
		return err
	})
	if err != nil {
		s.logStoreErr("编码上班打卡失败", err, zap.String("code", code), zap.String("job_site", site.ID))
		return nil, err
	}

	s.logger.Info("编码上班打卡", zap.Uint64("shift_id", shift.ID), zap.String("job_site", site.ID))

	result := s.toClockResult(dto.ActionQuickClockIn, dto.StateOpen, shift)
	if shift.Code != code {
		// 按班次编码模式下新班次换了编码，需要告知工人
		result.Code = shift.Code
	}
	return result, nil
}

// ────────────────────── StartBreak ──────────────────────

func (s *ledgerService) StartBreak(ctx context.Context, code, jobSite string) (*dto.ClockResult, error) {
	var (
		shift *model.Shift
		brk   *model.Break
	)
	err := s.repo.InTx(ctx, func(tx *repository.Repository) error {
		found, err := s.findOpenShift(ctx, tx, code, jobSite)
		if err != nil {
			return err
		}
		locked, err := tx.Shift.LockOpen(ctx, found.ID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrAlreadyClockedOut
			}
			return err
		}

		if _, err := tx.Break.GetOpen(ctx, locked.ID); err == nil {
			return ErrAlreadyOnBreak
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		b := &model.Break{ShiftID: locked.ID, ShiftCode: locked.Code, StartAt: s.now()}
		if err := tx.Break.Create(ctx, b); err != nil {
			if pkgerrors.IsUniqueViolation(err) {
				return ErrAlreadyOnBreak
			}
			return err
		}
		shift, brk = locked, b
		return nil
	})
	if err != nil {
		s.logStoreErr("开始休息失败", err, zap.String("code", code))
		return nil, err
	}

	s.logger.Info("开始休息", zap.Uint64("shift_id", shift.ID))

	result := s.toClockResult(dto.ActionBreakStart, dto.StateOnBreak, shift)
	result.BreakStart = formatLocal(brk.StartAt, s.sites.Location(shift.JobSite))
	return result, nil
}

// ────────────────────── ResumeBreak ──────────────────────

func (s *ledgerService) ResumeBreak(ctx context.Context, code, jobSite string) (*dto.ClockResult, error) {
	var shift *model.Shift
	err := s.repo.InTx(ctx, func(tx *repository.Repository) error {
		found, err := s.findOpenShift(ctx, tx, code, jobSite)
		if err != nil {
			if errors.Is(err, ErrAlreadyClockedOut) {
				return ErrNoBreakToResume
			}
			return err
		}
		ended, err := tx.Break.EndOpen(ctx, found.ID, s.now())
		if err != nil {
			return err
		}
		if !ended {
			return ErrNoBreakToResume
		}
		shift = found
		return nil
	})
	if err != nil {
		s.logStoreErr("结束休息失败", err, zap.String("code", code))
		return nil, err
	}

	s.logger.Info("结束休息", zap.Uint64("shift_id", shift.ID))

	return s.toClockResult(dto.ActionBreakResume, dto.StateOpen, shift), nil
}

// ────────────────────── ClockOut ──────────────────────

func (s *ledgerService) ClockOut(ctx context.Context, code, jobSite string) (*dto.ClockResult, error) {
	var shift *model.Shift
	err := s.repo.InTx(ctx, func(tx *repository.Repository) error {
		found, err := s.findOpenShift(ctx, tx, code, jobSite)
		if err != nil {
			return err
		}
		locked, err := tx.Shift.LockOpen(ctx, found.ID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrAlreadyClockedOut
			}
			return err
		}

		now := s.now()
		if now.Before(locked.ClockIn) {
			now = locked.ClockIn
		}

		// 下班时仍在休息：休息在此刻结束并计入休息时长
		if _, err := tx.Break.EndOpen(ctx, locked.ID, now); err != nil {
			return err
		}
		breaks, err := tx.Break.ListByShift(ctx, locked.ID)
		if err != nil {
			return err
		}

		d := computeDurations(locked.ClockIn, now, breaks)
		closing := repository.ShiftClose{
			ClockOut:       now,
			TotalSeconds:   d.Total.Seconds(),
			BreakSeconds:   d.Break.Seconds(),
			WorkingSeconds: d.Working.Seconds(),
			BreaksSummary:  BreakSummary(breaks, s.sites.Location(locked.JobSite)),
			Flagged:        locked.Flagged,
		}
		if err := tx.Shift.Close(ctx, locked.ID, closing); err != nil {
			if errors.Is(err, pkgerrors.ErrConditionFailed) {
				return ErrAlreadyClockedOut
			}
			return err
		}

		applyClose(locked, closing)
		locked.Breaks = breaks
		shift = locked
		return nil
	})
	if err != nil {
		s.logStoreErr("下班打卡失败", err, zap.String("code", code))
		return nil, err
	}

	s.logger.Info("下班打卡",
		zap.Uint64("shift_id", shift.ID),
		zap.Int64("working_seconds", *shift.WorkingSeconds),
	)

	return s.toClockResult(dto.ActionClockOut, dto.StateClosed, shift), nil
}

// ────────────────────── Status ──────────────────────

func (s *ledgerService) Status(ctx context.Context, code string) (*dto.ShiftStatusResponse, error) {
	code = strings.TrimSpace(code)
	if err := ValidateCodeFormat(code); err != nil {
		return nil, err
	}

	open, err := s.repo.Shift.ListOpenByCode(ctx, code)
	if err != nil {
		s.logger.Error("查询未结束班次失败", zap.String("code", code), zap.Error(err))
		return nil, err
	}
	if len(open) > 0 {
		shift := &open[0]
		loc := s.sites.Location(shift.JobSite)
		resp := &dto.ShiftStatusResponse{
			State:         dto.StateOpen,
			WorkerName:    shift.WorkerName,
			Subcontractor: shift.Subcontractor,
			JobSite:       shift.JobSite,
			ClockIn:       formatLocal(shift.ClockIn, loc),
			Elapsed:       FormatHM(s.now().Sub(shift.ClockIn)),
		}
		b, err := s.repo.Break.GetOpen(ctx, shift.ID)
		switch {
		case err == nil:
			resp.State = dto.StateOnBreak
			resp.OnBreakSince = formatLocal(b.StartAt, loc)
		case !errors.Is(err, gorm.ErrRecordNotFound):
			s.logger.Error("查询进行中休息失败", zap.Uint64("shift_id", shift.ID), zap.Error(err))
			return nil, err
		}
		return resp, nil
	}

	last, err := s.repo.Shift.GetLatestByCode(ctx, code)
	if err == nil {
		loc := s.sites.Location(last.JobSite)
		resp := &dto.ShiftStatusResponse{
			State:         dto.StateClosed,
			WorkerName:    last.WorkerName,
			Subcontractor: last.Subcontractor,
			JobSite:       last.JobSite,
			ClockIn:       formatLocal(last.ClockIn, loc),
			WorkingTime:   FormatSecondsHM(last.WorkingSeconds),
		}
		if last.ClockOut != nil {
			resp.ClockOut = formatLocal(*last.ClockOut, loc)
		}
		return resp, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		s.logger.Error("查询班次失败", zap.String("code", code), zap.Error(err))
		return nil, err
	}

	wc, err := s.repo.WorkerCode.GetByCode(ctx, code)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCodeNotFound
		}
		s.logger.Error("查询工人编码失败", zap.String("code", code), zap.Error(err))
		return nil, err
	}
	return &dto.ShiftStatusResponse{
		State:         dto.StateNotStarted,
		WorkerName:    wc.WorkerName,
		Subcontractor: wc.Subcontractor,
	}, nil
}

// ── 内部辅助方法 ──

func (s *ledgerService) durableCodes() bool {
	return s.cfg.CodeMode != config.CodeModePerShift
}

// openShift 在事务内完成冲突检查、编码解析与插入
// reuseCode 非空时直接沿用该固定编码
func (s *ledgerService) openShift(
	ctx context.Context,
	tx *repository.Repository,
	name, sub string,
	site *JobSite,
	batchID, reuseCode string,
) (*model.Shift, error) {
	if err := tx.Shift.LockWorker(ctx, name, sub); err != nil {
		return nil, err
	}
	if err := checkOpenScope(ctx, tx, s.cfg.OpenShiftScope, name, sub, site.ID, 0); err != nil {
		return nil, err
	}

	batch, err := s.resolveBatch(ctx, tx, batchID, site.ID)
	if err != nil {
		return nil, err
	}

	attempts := 1
	if !s.durableCodes() && reuseCode == "" {
		attempts = s.codes.maxAttempts
	}
	for attempt := 0; attempt < attempts; attempt++ {
		code, kind := reuseCode, model.CodeKindWorker
		if code == "" {
			if s.durableCodes() {
				code, _, err = s.codes.GetOrCreateCode(ctx, tx, name, sub)
			} else {
				code, err = s.codes.NewShiftCode(ctx, tx)
				kind = model.CodeKindShift
			}
			if err != nil {
				return nil, err
			}
		}

		shift := &model.Shift{
			WorkerName:    name,
			Subcontractor: sub,
			JobSite:       site.ID,
			ClockIn:       s.now(),
			Code:          code,
			CodeKind:      kind,
			QRBatchID:     batch,
		}
		err := tx.Shift.Create(ctx, shift)
		if err == nil {
			return shift, nil
		}
		if !pkgerrors.IsUniqueViolation(err) {
			return nil, err
		}
		if kind == model.CodeKindWorker {
			return nil, ErrAlreadyClockedIn
		}
		if c := pkgerrors.UniqueConstraint(err); c != "" && c != repository.ShiftCodeIndex {
			return nil, ErrAlreadyClockedIn
		}
		if err := checkOpenScope(ctx, tx, s.cfg.OpenShiftScope, name, sub, site.ID, 0); err != nil {
			return nil, err
		}
		s.logger.Debug("班次编码冲突，重新抽取", zap.Int("attempt", attempt+1))
	}
	return nil, ErrCodeSpaceExhausted
}

// checkOpenScope 按开放范围检查 (姓名, 分包商) 是否已有未结束班次，调用方须已持有 LockWorker
// exceptID 为正在修改的班次本身
func checkOpenScope(ctx context.Context, tx *repository.Repository, scope, name, sub, siteID string, exceptID uint64) error {
	open, err := tx.Shift.ListOpenByWorker(ctx, name, sub)
	if err != nil {
		return err
	}
	for _, o := range open {
		if o.ID == exceptID {
			continue
		}
		if scope != config.ScopeSite || o.JobSite == siteID {
			return ErrAlreadyClockedIn
		}
	}
	return nil
}

// resolveIdentity 由编码找到工人身份；返回可沿用的固定编码（若有）
func (s *ledgerService) resolveIdentity(ctx context.Context, repo *repository.Repository, code string) (name, sub, reuse string, err error) {
	wc, err := repo.WorkerCode.GetByCode(ctx, code)
	if err == nil {
		if s.durableCodes() {
			reuse = wc.Code
		}
		return wc.WorkerName, wc.Subcontractor, reuse, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return "", "", "", err
	}

	last, err := repo.Shift.GetLatestByCode(ctx, code)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", "", "", ErrCodeNotFound
		}
		return "", "", "", err
	}
	return last.WorkerName, last.Subcontractor, "", nil
}

// resolveBatch 校验二维码批次：格式错误、不存在或工地不符时忽略该批次
func (s *ledgerService) resolveBatch(ctx context.Context, repo *repository.Repository, batchID, siteID string) (*string, error) {
	batchID = strings.TrimSpace(batchID)
	if batchID == "" {
		return nil, nil
	}
	if _, err := uuid.Parse(batchID); err != nil {
		s.logger.Warn("二维码批次格式错误，已忽略", zap.String("batch_id", batchID))
		return nil, nil
	}
	batch, err := repo.QRBatch.GetByID(ctx, batchID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			s.logger.Warn("二维码批次不存在，已忽略", zap.String("batch_id", batchID))
			return nil, nil
		}
		return nil, err
	}
	if batch.JobSite != siteID {
		s.logger.Warn("二维码批次与工地不符，已忽略",
			zap.String("batch_id", batchID),
			zap.String("job_site", siteID),
		)
		return nil, nil
	}
	return &batch.BatchID, nil
}

// findOpenShift 定位编码对应的未结束班次
// 仅有一个时直接返回；多个时按 jobSite 收窄，未提供工地则报歧义
func (s *ledgerService) findOpenShift(ctx context.Context, repo *repository.Repository, code, jobSite string) (*model.Shift, error) {
	code = strings.TrimSpace(code)
	if err := ValidateCodeFormat(code); err != nil {
		return nil, err
	}
	jobSite = strings.TrimSpace(jobSite)

	open, err := repo.Shift.ListOpenByCode(ctx, code)
	if err != nil {
		return nil, err
	}

	switch {
	case len(open) == 1:
		return &open[0], nil
	case len(open) > 1:
		if jobSite == "" {
			return nil, ErrAmbiguousShift
		}
		for i := range open {
			if open[i].JobSite == jobSite {
				return &open[i], nil
			}
		}
		return nil, ErrAlreadyClockedOut
	}

	known, err := s.codes.codeTaken(ctx, repo, code)
	if err != nil {
		return nil, err
	}
	if !known {
		return nil, ErrCodeNotFound
	}
	return nil, ErrAlreadyClockedOut
}

// logStoreErr 只记录存储类错误，业务错误由调用方返回给客户端
func (s *ledgerService) logStoreErr(msg string, err error, fields ...zap.Field) {
	if ErrorKind(err) != KindStore {
		return
	}
	s.logger.Error(msg, append(fields, zap.Error(err))...)
}

func (s *ledgerService) toClockResult(action dto.ClockAction, state dto.ShiftState, shift *model.Shift) *dto.ClockResult {
	loc := s.sites.Location(shift.JobSite)
	result := &dto.ClockResult{
		Action:        action,
		State:         state,
		ShiftID:       shift.ID,
		WorkerName:    shift.WorkerName,
		Subcontractor: shift.Subcontractor,
		JobSite:       shift.JobSite,
		ClockIn:       formatLocal(shift.ClockIn, loc),
	}
	if shift.ClockOut != nil {
		result.ClockOut = formatLocal(*shift.ClockOut, loc)
		result.TotalTime = FormatSecondsHM(shift.TotalSeconds)
		result.BreakTime = FormatSecondsHM(shift.BreakSeconds)
		result.WorkingTime = FormatSecondsHM(shift.WorkingSeconds)
		result.Breaks = shift.BreaksSummary
	}
	return result
}

// applyClose 将关闭字段回写到内存中的班次
func applyClose(shift *model.Shift, c repository.ShiftClose) {
	clockOut := c.ClockOut
	total, brk, working := c.TotalSeconds, c.BreakSeconds, c.WorkingSeconds
	shift.ClockOut = &clockOut
	shift.TotalSeconds = &total
	shift.BreakSeconds = &brk
	shift.WorkingSeconds = &working
	shift.BreaksSummary = c.BreaksSummary
	shift.Flagged = c.Flagged
}

// formatLocal 以工地时区输出 RFC3339
func formatLocal(t time.Time, loc *time.Location) string {
	if loc == nil {
		loc = time.UTC
	}
	return t.In(loc).Format(time.RFC3339)
}
