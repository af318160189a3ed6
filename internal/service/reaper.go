package service

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/easterncc001/shift-logger/internal/repository"
	pkgerrors "github.com/easterncc001/shift-logger/pkg/errors"
)

// sweepLockKey 多实例共享的清理节流键
const sweepLockKey = "ledger:stale-sweep"

// ReaperService 自动关闭超时未下班的班次
type ReaperService interface {
	// Reap 立即执行一次清理，返回关闭的班次数
	Reap(ctx context.Context) (int, error)
	// Sweep 顺带触发的节流清理，任何错误只记录不返回
	Sweep(ctx context.Context)
}

// SweepLock 跨实例的节流锁，由 Redis SET NX 实现
type SweepLock interface {
	TryAcquire(ctx context.Context, key string, ttl time.Duration) (bool, error)
}

type reaper struct {
	repo       *repository.Repository
	lock       SweepLock
	staleAfter time.Duration
	interval   time.Duration
	lastSweep  atomic.Int64
	now        func() time.Time
	logger     *zap.Logger
}

// NewReaperService 创建 ReaperService 实例；lock 为 nil 时仅做进程内节流
func NewReaperService(
	repo *repository.Repository,
	lock SweepLock,
	staleAfter, interval time.Duration,
	logger *zap.Logger,
) ReaperService {
	return &reaper{
		repo:       repo,
		lock:       lock,
		staleAfter: staleAfter,
		interval:   interval,
		now:        func() time.Time { return time.Now().UTC() },
		logger:     logger,
	}
}

// ────────────────────── Reap ──────────────────────

func (r *reaper) Reap(ctx context.Context) (int, error) {
	cutoff := r.now().Add(-r.staleAfter)
	stale, err := r.repo.Shift.ListStale(ctx, cutoff)
	if err != nil {
		return 0, err
	}

	closed := 0
	for i := range stale {
		shift := &stale[i]
		clockOut := shift.ClockIn.Add(r.staleAfter)
		seconds := int64(r.staleAfter / time.Second)

		err := r.repo.InTx(ctx, func(tx *repository.Repository) error {
			if _, err := tx.Break.EndOpen(ctx, shift.ID, clockOut); err != nil {
				return err
			}
			return tx.Shift.Close(ctx, shift.ID, repository.ShiftClose{
				ClockOut:       clockOut,
				TotalSeconds:   seconds,
				BreakSeconds:   0,
				WorkingSeconds: seconds,
				BreaksSummary:  ReapedSentinel,
				Flagged:        true,
			})
		})
		if err != nil {
			if errors.Is(err, pkgerrors.ErrConditionFailed) {
				// 已被正常下班或其他实例关闭
				continue
			}
			return closed, err
		}

		closed++
		r.logger.Info("超时班次已自动关闭",
			zap.Uint64("shift_id", shift.ID),
			zap.String("job_site", shift.JobSite),
			zap.Time("clock_in", shift.ClockIn),
		)
	}
	return closed, nil
}

// ────────────────────── Sweep ──────────────────────

func (r *reaper) Sweep(ctx context.Context) {
	if !r.due(ctx) {
		return
	}
	n, err := r.Reap(ctx)
	if err != nil {
		r.logger.Warn("自动清理超时班次失败", zap.Int("closed", n), zap.Error(err))
		return
	}
	if n > 0 {
		r.logger.Info("自动清理超时班次", zap.Int("closed", n))
	}
}

// due 进程内按 interval 节流，配置了共享锁时再由锁决定由哪个实例执行
func (r *reaper) due(ctx context.Context) bool {
	now := r.now().UnixNano()
	last := r.lastSweep.Load()
	if last != 0 && now-last < int64(r.interval) {
		return false
	}
	if !r.lastSweep.CompareAndSwap(last, now) {
		return false
	}

	if r.lock == nil {
		return true
	}
	ok, err := r.lock.TryAcquire(ctx, sweepLockKey, r.interval)
	if err != nil {
		r.logger.Debug("获取清理锁失败，按本实例节流执行", zap.Error(err))
		return true
	}
	return ok
}
