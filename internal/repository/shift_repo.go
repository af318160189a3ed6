package repository

import (
	"context"
	"strings"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/easterncc001/shift-logger/internal/model"
	pkgerrors "github.com/easterncc001/shift-logger/pkg/errors"
)

// ShiftCodeIndex 按班次编码永不复用的唯一索引名，与迁移脚本一致
const ShiftCodeIndex = "uq_shifts_shift_code"

// ShiftFilter 班次查询条件（零值字段不参与过滤）
type ShiftFilter struct {
	WorkerName    string
	Subcontractor string
	JobSite       string
	Code          string
	Flagged       *bool
	From          *time.Time // clock_in >= From
	To            *time.Time // clock_in < To
	OpenOnly      bool
	ClosedOnly    bool
}

// ShiftClose 关闭班次时一次性写入的字段
type ShiftClose struct {
	ClockOut       time.Time
	TotalSeconds   int64
	BreakSeconds   int64
	WorkingSeconds int64
	BreaksSummary  string
	Flagged        bool
}

// SubcontractorTotal 分包商汇总行
type SubcontractorTotal struct {
	Subcontractor  string `gorm:"column:subcontractor"`
	Days           int64  `gorm:"column:days"`
	WorkingSeconds int64  `gorm:"column:working_seconds"`
}

// ProjectHistoryRow (分包商, 工地) 汇总行
type ProjectHistoryRow struct {
	Subcontractor string    `gorm:"column:subcontractor"`
	JobSite       string    `gorm:"column:job_site"`
	FirstDay      time.Time `gorm:"column:first_day"`
	LastDay       time.Time `gorm:"column:last_day"`
	Manpower      int64     `gorm:"column:manpower"`
}

// ShiftRepository 班次数据访问接口
type ShiftRepository interface {
	Create(ctx context.Context, shift *model.Shift) error
	GetByID(ctx context.Context, id uint64) (*model.Shift, error)
	// GetLatestByCode 返回携带该编码的最近一个班次（不论是否结束）
	GetLatestByCode(ctx context.Context, code string) (*model.Shift, error)
	ListOpenByCode(ctx context.Context, code string) ([]model.Shift, error)
	ListOpenByWorker(ctx context.Context, workerName, subcontractor string) ([]model.Shift, error)
	CodeExists(ctx context.Context, code string) (bool, error)
	// LockWorker 获取以工人身份为键的事务级咨询锁，串行化同一工人的上班请求
	// 必须在事务连接上调用
	LockWorker(ctx context.Context, workerName, subcontractor string) error
	// LockOpen 以 FOR UPDATE 锁定仍未结束的班次；已结束返回 gorm.ErrRecordNotFound
	LockOpen(ctx context.Context, id uint64) (*model.Shift, error)
	// Close 条件关闭：仅当 clock_out 仍为 NULL 时写入，否则返回 ErrConditionFailed
	Close(ctx context.Context, id uint64, c ShiftClose) error
	ListStale(ctx context.Context, clockInBefore time.Time) ([]model.Shift, error)
	List(ctx context.Context, filter ShiftFilter, offset, limit int) ([]model.Shift, int64, error)
	ListAll(ctx context.Context, filter ShiftFilter) ([]model.Shift, error)
	Update(ctx context.Context, shift *model.Shift) error
	Delete(ctx context.Context, id uint64) error
	SubcontractorTotals(ctx context.Context, filter ShiftFilter) ([]SubcontractorTotal, error)
	ProjectHistory(ctx context.Context, filter ShiftFilter) ([]ProjectHistoryRow, error)
}

type shiftRepo struct {
	db *gorm.DB
}

// NewShiftRepo 创建 ShiftRepository 实例
func NewShiftRepo(db *gorm.DB) ShiftRepository {
	return &shiftRepo{db: db}
}

// Create 使用 SAVEPOINT 包裹插入，唯一约束冲突后外层事务仍可继续（按班次编码重抽时需要）
func (r *shiftRepo) Create(ctx context.Context, shift *model.Shift) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.Omit("Breaks").Create(shift).Error
	})
}

func (r *shiftRepo) GetByID(ctx context.Context, id uint64) (*model.Shift, error) {
	var shift model.Shift
	err := r.db.WithContext(ctx).
		Preload("Breaks", func(db *gorm.DB) *gorm.DB {
			return db.Order("start_at ASC")
		}).
		Where("id = ?", id).
		First(&shift).Error
	if err != nil {
		return nil, err
	}
	return &shift, nil
}

func (r *shiftRepo) GetLatestByCode(ctx context.Context, code string) (*model.Shift, error) {
	var shift model.Shift
	err := r.db.WithContext(ctx).
		Where("code = ?", code).
		Order("clock_in DESC, id DESC").
		First(&shift).Error
	if err != nil {
		return nil, err
	}
	return &shift, nil
}

func (r *shiftRepo) ListOpenByCode(ctx context.Context, code string) ([]model.Shift, error) {
	var shifts []model.Shift
	err := r.db.WithContext(ctx).
		Where("code = ? AND clock_out IS NULL", code).
		Order("clock_in ASC").
		Find(&shifts).Error
	return shifts, err
}

func (r *shiftRepo) ListOpenByWorker(ctx context.Context, workerName, subcontractor string) ([]model.Shift, error) {
	var shifts []model.Shift
	err := r.db.WithContext(ctx).
		Where("worker_name = ? AND subcontractor = ? AND clock_out IS NULL", workerName, subcontractor).
		Order("clock_in ASC").
		Find(&shifts).Error
	return shifts, err
}

func (r *shiftRepo) CodeExists(ctx context.Context, code string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&model.Shift{}).
		Where("code = ?", code).
		Limit(1).
		Count(&count).Error
	return count > 0, err
}

func (r *shiftRepo) LockWorker(ctx context.Context, workerName, subcontractor string) error {
	return r.db.WithContext(ctx).
		Exec("SELECT pg_advisory_xact_lock(hashtext(?))", workerName+"\x1f"+subcontractor).Error
}

func (r *shiftRepo) LockOpen(ctx context.Context, id uint64) (*model.Shift, error) {
	var shift model.Shift
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ? AND clock_out IS NULL", id).
		First(&shift).Error
	if err != nil {
		return nil, err
	}
	return &shift, nil
}

func (r *shiftRepo) Close(ctx context.Context, id uint64, c ShiftClose) error {
	result := r.db.WithContext(ctx).
		Model(&model.Shift{}).
		Where("id = ? AND clock_out IS NULL", id).
		Updates(map[string]interface{}{
			"clock_out":       c.ClockOut,
			"total_seconds":   c.TotalSeconds,
			"break_seconds":   c.BreakSeconds,
			"working_seconds": c.WorkingSeconds,
			"breaks_summary":  c.BreaksSummary,
			"flagged":         c.Flagged,
			"updated_at":      time.Now().UTC(),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return pkgerrors.ErrConditionFailed
	}
	return nil
}

func (r *shiftRepo) ListStale(ctx context.Context, clockInBefore time.Time) ([]model.Shift, error) {
	var shifts []model.Shift
	err := r.db.WithContext(ctx).
		Where("clock_out IS NULL AND clock_in < ?", clockInBefore).
		Order("clock_in ASC").
		Find(&shifts).Error
	return shifts, err
}

func (r *shiftRepo) List(ctx context.Context, filter ShiftFilter, offset, limit int) ([]model.Shift, int64, error) {
	var (
		shifts []model.Shift
		total  int64
	)

	db := applyShiftFilter(r.db.WithContext(ctx).Model(&model.Shift{}), filter)
	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := db.
		Order("created_at DESC, id DESC").
		Offset(offset).
		Limit(limit).
		Find(&shifts).Error
	return shifts, total, err
}

func (r *shiftRepo) ListAll(ctx context.Context, filter ShiftFilter) ([]model.Shift, error) {
	var shifts []model.Shift
	err := applyShiftFilter(r.db.WithContext(ctx), filter).
		Order("clock_in ASC, id ASC").
		Find(&shifts).Error
	return shifts, err
}

func (r *shiftRepo) Update(ctx context.Context, shift *model.Shift) error {
	shift.UpdatedAt = time.Now().UTC()
	return r.db.WithContext(ctx).
		Model(shift).
		Select("worker_name", "subcontractor", "job_site", "clock_in", "clock_out",
			"total_seconds", "break_seconds", "working_seconds", "breaks_summary",
			"flagged", "updated_at").
		Updates(shift).Error
}

func (r *shiftRepo) Delete(ctx context.Context, id uint64) error {
	return r.db.WithContext(ctx).
		Where("id = ?", id).
		Delete(&model.Shift{}).Error
}

// SubcontractorTotals 每次调用都从 shifts 重新聚合，不维护累计表
func (r *shiftRepo) SubcontractorTotals(ctx context.Context, filter ShiftFilter) ([]SubcontractorTotal, error) {
	filter.ClosedOnly = true
	filter.OpenOnly = false

	var rows []SubcontractorTotal
	err := applyShiftFilter(r.db.WithContext(ctx).Model(&model.Shift{}), filter).
		Select("subcontractor, COUNT(*) AS days, COALESCE(SUM(working_seconds), 0) AS working_seconds").
		Group("subcontractor").
		Order("subcontractor ASC").
		Scan(&rows).Error
	return rows, err
}

// ProjectHistory 每次调用都从 shifts 重新聚合，不维护累计表
func (r *shiftRepo) ProjectHistory(ctx context.Context, filter ShiftFilter) ([]ProjectHistoryRow, error) {
	filter.ClosedOnly = true
	filter.OpenOnly = false

	var rows []ProjectHistoryRow
	err := applyShiftFilter(r.db.WithContext(ctx).Model(&model.Shift{}), filter).
		Select("subcontractor, job_site, MIN(clock_in) AS first_day, MAX(clock_out) AS last_day, COUNT(*) AS manpower").
		Group("subcontractor, job_site").
		Order("subcontractor ASC, job_site ASC").
		Scan(&rows).Error
	return rows, err
}

// applyShiftFilter 将 ShiftFilter 翻译为 WHERE 条件
func applyShiftFilter(db *gorm.DB, f ShiftFilter) *gorm.DB {
	if f.WorkerName != "" {
		db = db.Where("LOWER(worker_name) LIKE ?", "%"+escapeLike(f.WorkerName)+"%")
	}
	if f.Subcontractor != "" {
		db = db.Where("subcontractor = ?", f.Subcontractor)
	}
	if f.JobSite != "" {
		db = db.Where("job_site = ?", f.JobSite)
	}
	if f.Code != "" {
		db = db.Where("code = ?", f.Code)
	}
	if f.Flagged != nil {
		db = db.Where("flagged = ?", *f.Flagged)
	}
	if f.From != nil {
		db = db.Where("clock_in >= ?", *f.From)
	}
	if f.To != nil {
		db = db.Where("clock_in < ?", *f.To)
	}
	if f.OpenOnly {
		db = db.Where("clock_out IS NULL")
	}
	if f.ClosedOnly {
		db = db.Where("clock_out IS NOT NULL")
	}
	return db
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// escapeLike 转义 LIKE 通配符并转为小写
func escapeLike(s string) string {
	return likeEscaper.Replace(strings.ToLower(s))
}
