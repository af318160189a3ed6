//go:build integration

package repository_test

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync/atomic"
	"testing"
	"time"

	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/easterncc001/shift-logger/internal/model"
	"github.com/easterncc001/shift-logger/internal/repository"
	"github.com/easterncc001/shift-logger/pkg/database"
	pkgerrors "github.com/easterncc001/shift-logger/pkg/errors"
)

// ═══════════════════════════════════════════════════════════
// Test Setup
// ═══════════════════════════════════════════════════════════

var (
	testDB  *gorm.DB
	codeSeq atomic.Int64
)

func TestMain(m *testing.M) {
	dsn := os.Getenv("TEST_DATABASE_DSN")
	if dsn == "" {
		dsn = "host=localhost port=5433 user=postgres password=postgres dbname=shifts_test sslmode=disable TimeZone=UTC"
	}

	var err error
	testDB, err = gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "无法连接测试数据库: %v\n", err)
		os.Exit(1)
	}

	// 使用与生产一致的迁移脚本建表（部分唯一索引 AutoMigrate 无法表达）
	sqlDB, err := testDB.DB()
	if err != nil {
		fmt.Fprintf(os.Stderr, "获取 sql.DB 失败: %v\n", err)
		os.Exit(1)
	}
	if err := database.RunMigrations(sqlDB, zap.NewNop()); err != nil {
		fmt.Fprintf(os.Stderr, "迁移失败: %v\n", err)
		os.Exit(1)
	}

	code := m.Run()
	os.Exit(code)
}

// uniqueCode 每次调用返回一个本轮测试内不重复的 6 位编码
func uniqueCode() string {
	n := (time.Now().UnixNano()/1000 + codeSeq.Add(1)) % 1_000_000
	return fmt.Sprintf("%06d", n)
}

// newWorker 生成唯一的工人姓名并注册清理
func newWorker(t *testing.T) string {
	t.Helper()
	name := fmt.Sprintf("测试工人-%d", time.Now().UnixNano())
	t.Cleanup(func() {
		testDB.Where("worker_name = ?", name).Delete(&model.Shift{})
		testDB.Where("worker_name = ?", name).Delete(&model.WorkerCode{})
	})
	return name
}

func openShift(t *testing.T, repo *repository.Repository, name, site string, clockIn time.Time) *model.Shift {
	t.Helper()
	shift := &model.Shift{
		WorkerName:    name,
		Subcontractor: "Acme",
		JobSite:       site,
		ClockIn:       clockIn,
		Code:          uniqueCode(),
		CodeKind:      model.CodeKindWorker,
	}
	if err := repo.Shift.Create(context.Background(), shift); err != nil {
		t.Fatalf("创建班次失败: %v", err)
	}
	return shift
}

func closeArgs(clockOut time.Time, working int64) repository.ShiftClose {
	return repository.ShiftClose{
		ClockOut:       clockOut,
		TotalSeconds:   working,
		WorkingSeconds: working,
	}
}

// ═══════════════════════════════════════════════════════════
// 未结束班次唯一性
// ═══════════════════════════════════════════════════════════

func TestShift_OneOpenPerWorkerSite(t *testing.T) {
	repo := repository.NewRepository(testDB)
	ctx := context.Background()
	name := newWorker(t)
	clockIn := time.Now().UTC().Add(-time.Hour).Truncate(time.Second)

	first := openShift(t, repo, name, "riverside", clockIn)

	dup := &model.Shift{
		WorkerName: name, Subcontractor: "Acme", JobSite: "riverside",
		ClockIn: clockIn, Code: uniqueCode(), CodeKind: model.CodeKindWorker,
	}
	err := repo.Shift.Create(ctx, dup)
	if !pkgerrors.IsUniqueViolation(err) {
		t.Fatalf("期望唯一约束冲突，实际: %v", err)
	}

	// 另一个工地不受影响
	openShift(t, repo, name, "harbor", clockIn)

	if err := repo.Shift.Close(ctx, first.ID, closeArgs(clockIn.Add(time.Hour), 3600)); err != nil {
		t.Fatalf("关闭班次失败: %v", err)
	}

	// 结束后可以再次上班
	openShift(t, repo, name, "riverside", clockIn.Add(2*time.Hour))
}

func TestShift_PerShiftCodeNeverReused(t *testing.T) {
	repo := repository.NewRepository(testDB)
	ctx := context.Background()
	code := uniqueCode()
	clockIn := time.Now().UTC().Add(-time.Hour)

	a := &model.Shift{
		WorkerName: newWorker(t), Subcontractor: "Acme", JobSite: "riverside",
		ClockIn: clockIn, Code: code, CodeKind: model.CodeKindShift,
	}
	if err := repo.Shift.Create(ctx, a); err != nil {
		t.Fatalf("创建班次失败: %v", err)
	}
	if err := repo.Shift.Close(ctx, a.ID, closeArgs(clockIn.Add(time.Minute), 60)); err != nil {
		t.Fatalf("关闭班次失败: %v", err)
	}

	b := &model.Shift{
		WorkerName: newWorker(t), Subcontractor: "Acme", JobSite: "harbor",
		ClockIn: clockIn, Code: code, CodeKind: model.CodeKindShift,
	}
	if err := repo.Shift.Create(ctx, b); !pkgerrors.IsUniqueViolation(err) {
		t.Errorf("期望按班次编码不可复用，实际: %v", err)
	}

	exists, err := repo.Shift.CodeExists(ctx, code)
	if err != nil || !exists {
		t.Errorf("期望 CodeExists=true，实际: %v, %v", exists, err)
	}
}

// ═══════════════════════════════════════════════════════════
// 条件关闭
// ═══════════════════════════════════════════════════════════

func TestShift_CloseIsConditional(t *testing.T) {
	repo := repository.NewRepository(testDB)
	ctx := context.Background()
	clockIn := time.Now().UTC().Add(-2 * time.Hour)
	shift := openShift(t, repo, newWorker(t), "riverside", clockIn)

	if err := repo.Shift.Close(ctx, shift.ID, closeArgs(clockIn.Add(time.Hour), 3600)); err != nil {
		t.Fatalf("第一次关闭失败: %v", err)
	}
	err := repo.Shift.Close(ctx, shift.ID, closeArgs(clockIn.Add(90*time.Minute), 5400))
	if !errors.Is(err, pkgerrors.ErrConditionFailed) {
		t.Fatalf("期望 ErrConditionFailed，实际: %v", err)
	}

	got, err := repo.Shift.GetByID(ctx, shift.ID)
	if err != nil {
		t.Fatalf("查询班次失败: %v", err)
	}
	if got.WorkingSeconds == nil || *got.WorkingSeconds != 3600 {
		t.Errorf("期望保留第一次关闭的结果 3600，实际: %v", got.WorkingSeconds)
	}

	if _, err := repo.Shift.LockOpen(ctx, shift.ID); !errors.Is(err, gorm.ErrRecordNotFound) {
		t.Errorf("已结束班次 LockOpen 期望 ErrRecordNotFound，实际: %v", err)
	}
}

// ═══════════════════════════════════════════════════════════
// 休息记录
// ═══════════════════════════════════════════════════════════

func TestBreak_OneOpenPerShift(t *testing.T) {
	repo := repository.NewRepository(testDB)
	ctx := context.Background()
	clockIn := time.Now().UTC().Add(-time.Hour).Truncate(time.Second)
	shift := openShift(t, repo, newWorker(t), "riverside", clockIn)

	start := clockIn.Add(10 * time.Minute)
	if err := repo.Break.Create(ctx, &model.Break{ShiftID: shift.ID, ShiftCode: shift.Code, StartAt: start}); err != nil {
		t.Fatalf("创建休息失败: %v", err)
	}
	err := repo.Break.Create(ctx, &model.Break{ShiftID: shift.ID, ShiftCode: shift.Code, StartAt: start.Add(time.Minute)})
	if !pkgerrors.IsUniqueViolation(err) {
		t.Fatalf("期望唯一约束冲突，实际: %v", err)
	}

	// 结束时间早于开始时间时取开始时间
	ok, err := repo.Break.EndOpen(ctx, shift.ID, start.Add(-time.Minute))
	if err != nil || !ok {
		t.Fatalf("结束休息失败: %v, %v", ok, err)
	}
	breaks, err := repo.Break.ListByShift(ctx, shift.ID)
	if err != nil || len(breaks) != 1 {
		t.Fatalf("期望 1 条休息记录，实际: %d, %v", len(breaks), err)
	}
	if breaks[0].EndAt == nil || !breaks[0].EndAt.Equal(start) {
		t.Errorf("期望 end_at=%v，实际: %v", start, breaks[0].EndAt)
	}

	ok, err = repo.Break.EndOpen(ctx, shift.ID, start.Add(time.Hour))
	if err != nil || ok {
		t.Errorf("无进行中休息时期望未命中，实际: %v, %v", ok, err)
	}
}

// ═══════════════════════════════════════════════════════════
// 事务
// ═══════════════════════════════════════════════════════════

func TestInTx_RollbackOnError(t *testing.T) {
	repo := repository.NewRepository(testDB)
	ctx := context.Background()
	name := newWorker(t)
	sentinel := errors.New("rollback")

	err := repo.InTx(ctx, func(tx *repository.Repository) error {
		if err := tx.Shift.LockWorker(ctx, name, "Acme"); err != nil {
			return err
		}
		openShift(t, tx, name, "riverside", time.Now().UTC())
		return sentinel
	})
	if !errors.Is(err, sentinel) {
		t.Fatalf("期望返回 sentinel，实际: %v", err)
	}

	open, err := repo.Shift.ListOpenByWorker(ctx, name, "Acme")
	if err != nil {
		t.Fatalf("查询失败: %v", err)
	}
	if len(open) != 0 {
		t.Errorf("期望回滚后无班次，实际: %d", len(open))
	}
}

func TestInTx_SavepointAllowsRetry(t *testing.T) {
	repo := repository.NewRepository(testDB)
	ctx := context.Background()
	code := uniqueCode()
	clockIn := time.Now().UTC()

	taken := &model.Shift{
		WorkerName: newWorker(t), Subcontractor: "Acme", JobSite: "riverside",
		ClockIn: clockIn, Code: code, CodeKind: model.CodeKindShift,
	}
	if err := repo.Shift.Create(ctx, taken); err != nil {
		t.Fatalf("创建班次失败: %v", err)
	}

	name := newWorker(t)
	err := repo.InTx(ctx, func(tx *repository.Repository) error {
		clash := &model.Shift{
			WorkerName: name, Subcontractor: "Acme", JobSite: "riverside",
			ClockIn: clockIn, Code: code, CodeKind: model.CodeKindShift,
		}
		if err := tx.Shift.Create(ctx, clash); !pkgerrors.IsUniqueViolation(err) {
			return fmt.Errorf("期望唯一约束冲突，实际: %v", err)
		}
		// 冲突后同一事务仍可继续写入
		retry := &model.Shift{
			WorkerName: name, Subcontractor: "Acme", JobSite: "riverside",
			ClockIn: clockIn, Code: uniqueCode(), CodeKind: model.CodeKindShift,
		}
		return tx.Shift.Create(ctx, retry)
	})
	if err != nil {
		t.Fatalf("事务失败: %v", err)
	}

	open, _ := repo.Shift.ListOpenByWorker(ctx, name, "Acme")
	if len(open) != 1 {
		t.Errorf("期望 1 个未结束班次，实际: %d", len(open))
	}
}

// ═══════════════════════════════════════════════════════════
// 查询与统计
// ═══════════════════════════════════════════════════════════

func TestShift_ListStale(t *testing.T) {
	repo := repository.NewRepository(testDB)
	ctx := context.Background()
	now := time.Now().UTC()

	old := openShift(t, repo, newWorker(t), "harbor", now.Add(-30*time.Hour))
	fresh := openShift(t, repo, newWorker(t), "harbor", now.Add(-time.Hour))

	stale, err := repo.Shift.ListStale(ctx, now.Add(-24*time.Hour))
	if err != nil {
		t.Fatalf("查询失败: %v", err)
	}
	found := map[uint64]bool{}
	for _, s := range stale {
		found[s.ID] = true
	}
	if !found[old.ID] {
		t.Errorf("期望包含超时班次 %d", old.ID)
	}
	if found[fresh.ID] {
		t.Errorf("不应包含未超时班次 %d", fresh.ID)
	}
}

func TestShift_SubcontractorTotals(t *testing.T) {
	repo := repository.NewRepository(testDB)
	ctx := context.Background()
	sub := fmt.Sprintf("分包商-%d", time.Now().UnixNano())
	name := newWorker(t)
	t.Cleanup(func() { testDB.Where("subcontractor = ?", sub).Delete(&model.Shift{}) })

	day := time.Date(2024, 3, 4, 14, 0, 0, 0, time.UTC)
	for i, working := range []int64{3600, 5400} {
		shift := &model.Shift{
			WorkerName: name, Subcontractor: sub, JobSite: "riverside",
			ClockIn: day.AddDate(0, 0, i), Code: uniqueCode(), CodeKind: model.CodeKindWorker,
		}
		if err := repo.Shift.Create(ctx, shift); err != nil {
			t.Fatalf("创建班次失败: %v", err)
		}
		if err := repo.Shift.Close(ctx, shift.ID, closeArgs(shift.ClockIn.Add(2*time.Hour), working)); err != nil {
			t.Fatalf("关闭班次失败: %v", err)
		}
	}
	// 未结束班次不计入
	open := &model.Shift{
		WorkerName: name, Subcontractor: sub, JobSite: "riverside",
		ClockIn: day.AddDate(0, 0, 2), Code: uniqueCode(), CodeKind: model.CodeKindWorker,
	}
	if err := repo.Shift.Create(ctx, open); err != nil {
		t.Fatalf("创建班次失败: %v", err)
	}

	rows, err := repo.Shift.SubcontractorTotals(ctx, repository.ShiftFilter{Subcontractor: sub})
	if err != nil {
		t.Fatalf("统计失败: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("期望 1 行，实际: %d", len(rows))
	}
	if rows[0].Days != 2 || rows[0].WorkingSeconds != 9000 {
		t.Errorf("期望 days=2 working=9000，实际: %+v", rows[0])
	}

	history, err := repo.Shift.ProjectHistory(ctx, repository.ShiftFilter{Subcontractor: sub})
	if err != nil {
		t.Fatalf("统计失败: %v", err)
	}
	if len(history) != 1 || history[0].Manpower != 2 || !history[0].FirstDay.Equal(day) {
		t.Errorf("项目历史不符合预期: %+v", history)
	}
}
