package service

import (
	"context"
	"sort"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/easterncc001/shift-logger/internal/model"
	"github.com/easterncc001/shift-logger/internal/repository"
	pkgerrors "github.com/easterncc001/shift-logger/pkg/errors"
)

// ── 内存存储：班次与休息共享，模拟数据库的唯一约束 ──

type memStore struct {
	shifts    map[uint64]*model.Shift
	breaks    map[uint64]*model.Break
	codes     map[uint64]*model.WorkerCode
	batches   map[string]*model.QRBatch
	nextShift uint64
	nextBreak uint64
	nextCode  uint64
	failWith  error // 非 nil 时所有读写返回该错误
	// onCreate 非 nil 时在插入班次前调用，返回错误则插入失败（模拟并发写入与约束冲突）
	onCreate func(shift *model.Shift) error
}

func newMemStore() *memStore {
	return &memStore{
		shifts:  make(map[uint64]*model.Shift),
		breaks:  make(map[uint64]*model.Break),
		codes:   make(map[uint64]*model.WorkerCode),
		batches: make(map[string]*model.QRBatch),
	}
}

// newMockRepository 构建挂载 mock 的 Repository 聚合
func newMockRepository(store *memStore) *repository.Repository {
	return &repository.Repository{
		Shift:      &mockShiftRepo{store},
		Break:      &mockBreakRepo{store},
		WorkerCode: &mockWorkerCodeRepo{store},
		QRBatch:    &mockQRBatchRepo{store},
	}
}

func (m *memStore) sortedShifts() []*model.Shift {
	result := make([]*model.Shift, 0, len(m.shifts))
	for _, s := range m.shifts {
		result = append(result, s)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result
}

func (m *memStore) shiftBreaks(shiftID uint64) []model.Break {
	var result []model.Break
	for _, b := range m.breaks {
		if b.ShiftID == shiftID {
			result = append(result, *b)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].StartAt.Equal(result[j].StartAt) {
			return result[i].ID < result[j].ID
		}
		return result[i].StartAt.Before(result[j].StartAt)
	})
	return result
}

func cloneShift(s *model.Shift) model.Shift {
	c := *s
	c.Breaks = nil
	return c
}

// ── Mock ShiftRepository ──

type mockShiftRepo struct{ *memStore }

func (m *mockShiftRepo) Create(_ context.Context, shift *model.Shift) error {
	if m.failWith != nil {
		return m.failWith
	}
	if m.onCreate != nil {
		if err := m.onCreate(shift); err != nil {
			return err
		}
	}
	for _, s := range m.shifts {
		bothOpen := s.ClockOut == nil && shift.ClockOut == nil
		if bothOpen && s.WorkerName == shift.WorkerName &&
			s.Subcontractor == shift.Subcontractor && s.JobSite == shift.JobSite {
			return gorm.ErrDuplicatedKey
		}
		if bothOpen && s.Code == shift.Code && s.JobSite == shift.JobSite {
			return gorm.ErrDuplicatedKey
		}
		if shift.CodeKind == model.CodeKindShift && s.CodeKind == model.CodeKindShift && s.Code == shift.Code {
			return gorm.ErrDuplicatedKey
		}
	}
	m.nextShift++
	shift.ID = m.nextShift
	shift.CreatedAt = shift.ClockIn
	shift.UpdatedAt = shift.ClockIn
	c := cloneShift(shift)
	m.shifts[shift.ID] = &c
	return nil
}

func (m *mockShiftRepo) GetByID(_ context.Context, id uint64) (*model.Shift, error) {
	if m.failWith != nil {
		return nil, m.failWith
	}
	s, ok := m.shifts[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	c := cloneShift(s)
	c.Breaks = m.shiftBreaks(id)
	return &c, nil
}

func (m *mockShiftRepo) GetLatestByCode(_ context.Context, code string) (*model.Shift, error) {
	if m.failWith != nil {
		return nil, m.failWith
	}
	var latest *model.Shift
	for _, s := range m.sortedShifts() {
		if s.Code != code {
			continue
		}
		if latest == nil || !s.ClockIn.Before(latest.ClockIn) {
			latest = s
		}
	}
	if latest == nil {
		return nil, gorm.ErrRecordNotFound
	}
	c := cloneShift(latest)
	return &c, nil
}

func (m *mockShiftRepo) ListOpenByCode(_ context.Context, code string) ([]model.Shift, error) {
	if m.failWith != nil {
		return nil, m.failWith
	}
	var result []model.Shift
	for _, s := range m.sortedShifts() {
		if s.Code == code && s.ClockOut == nil {
			result = append(result, cloneShift(s))
		}
	}
	return result, nil
}

func (m *mockShiftRepo) ListOpenByWorker(_ context.Context, workerName, subcontractor string) ([]model.Shift, error) {
	if m.failWith != nil {
		return nil, m.failWith
	}
	var result []model.Shift
	for _, s := range m.sortedShifts() {
		if s.WorkerName == workerName && s.Subcontractor == subcontractor && s.ClockOut == nil {
			result = append(result, cloneShift(s))
		}
	}
	return result, nil
}

func (m *mockShiftRepo) CodeExists(_ context.Context, code string) (bool, error) {
	if m.failWith != nil {
		return false, m.failWith
	}
	for _, s := range m.shifts {
		if s.Code == code {
			return true, nil
		}
	}
	return false, nil
}

func (m *mockShiftRepo) LockWorker(_ context.Context, _, _ string) error {
	return m.failWith
}

func (m *mockShiftRepo) LockOpen(_ context.Context, id uint64) (*model.Shift, error) {
	if m.failWith != nil {
		return nil, m.failWith
	}
	s, ok := m.shifts[id]
	if !ok || s.ClockOut != nil {
		return nil, gorm.ErrRecordNotFound
	}
	c := cloneShift(s)
	return &c, nil
}

func (m *mockShiftRepo) Close(_ context.Context, id uint64, c repository.ShiftClose) error {
	if m.failWith != nil {
		return m.failWith
	}
	s, ok := m.shifts[id]
	if !ok || s.ClockOut != nil {
		return pkgerrors.ErrConditionFailed
	}
	applyClose(s, c)
	return nil
}

func (m *mockShiftRepo) ListStale(_ context.Context, clockInBefore time.Time) ([]model.Shift, error) {
	if m.failWith != nil {
		return nil, m.failWith
	}
	var result []model.Shift
	for _, s := range m.sortedShifts() {
		if s.ClockOut == nil && s.ClockIn.Before(clockInBefore) {
			result = append(result, cloneShift(s))
		}
	}
	return result, nil
}

func (m *mockShiftRepo) filter(f repository.ShiftFilter) []model.Shift {
	var result []model.Shift
	for _, s := range m.sortedShifts() {
		if f.WorkerName != "" && !strings.Contains(strings.ToLower(s.WorkerName), strings.ToLower(f.WorkerName)) {
			continue
		}
		if f.Subcontractor != "" && s.Subcontractor != f.Subcontractor {
			continue
		}
		if f.JobSite != "" && s.JobSite != f.JobSite {
			continue
		}
		if f.Code != "" && s.Code != f.Code {
			continue
		}
		if f.Flagged != nil && s.Flagged != *f.Flagged {
			continue
		}
		if f.From != nil && s.ClockIn.Before(*f.From) {
			continue
		}
		if f.To != nil && !s.ClockIn.Before(*f.To) {
			continue
		}
		if f.OpenOnly && s.ClockOut != nil {
			continue
		}
		if f.ClosedOnly && s.ClockOut == nil {
			continue
		}
		result = append(result, cloneShift(s))
	}
	return result
}

func (m *mockShiftRepo) List(_ context.Context, f repository.ShiftFilter, offset, limit int) ([]model.Shift, int64, error) {
	if m.failWith != nil {
		return nil, 0, m.failWith
	}
	all := m.filter(f)
	// created_at DESC
	sort.Slice(all, func(i, j int) bool { return all[i].ID > all[j].ID })
	total := int64(len(all))
	if offset >= len(all) {
		return []model.Shift{}, total, nil
	}
	end := offset + limit
	if end > len(all) {
		end = len(all)
	}
	return all[offset:end], total, nil
}

func (m *mockShiftRepo) ListAll(_ context.Context, f repository.ShiftFilter) ([]model.Shift, error) {
	if m.failWith != nil {
		return nil, m.failWith
	}
	return m.filter(f), nil
}

func (m *mockShiftRepo) Update(_ context.Context, shift *model.Shift) error {
	if m.failWith != nil {
		return m.failWith
	}
	if _, ok := m.shifts[shift.ID]; !ok {
		return gorm.ErrRecordNotFound
	}
	c := cloneShift(shift)
	m.shifts[shift.ID] = &c
	return nil
}

func (m *mockShiftRepo) Delete(_ context.Context, id uint64) error {
	if m.failWith != nil {
		return m.failWith
	}
	delete(m.shifts, id)
	return nil
}

func (m *mockShiftRepo) SubcontractorTotals(_ context.Context, f repository.ShiftFilter) ([]repository.SubcontractorTotal, error) {
	if m.failWith != nil {
		return nil, m.failWith
	}
	f.ClosedOnly, f.OpenOnly = true, false
	bySub := make(map[string]*repository.SubcontractorTotal)
	var order []string
	for _, s := range m.filter(f) {
		t, ok := bySub[s.Subcontractor]
		if !ok {
			t = &repository.SubcontractorTotal{Subcontractor: s.Subcontractor}
			bySub[s.Subcontractor] = t
			order = append(order, s.Subcontractor)
		}
		t.Days++
		if s.WorkingSeconds != nil {
			t.WorkingSeconds += *s.WorkingSeconds
		}
	}
	sort.Strings(order)
	result := make([]repository.SubcontractorTotal, 0, len(order))
	for _, sub := range order {
		result = append(result, *bySub[sub])
	}
	return result, nil
}

func (m *mockShiftRepo) ProjectHistory(_ context.Context, f repository.ShiftFilter) ([]repository.ProjectHistoryRow, error) {
	if m.failWith != nil {
		return nil, m.failWith
	}
	f.ClosedOnly, f.OpenOnly = true, false
	byKey := make(map[string]*repository.ProjectHistoryRow)
	var order []string
	for _, s := range m.filter(f) {
		key := s.Subcontractor + "\x1f" + s.JobSite
		row, ok := byKey[key]
		if !ok {
			row = &repository.ProjectHistoryRow{
				Subcontractor: s.Subcontractor,
				JobSite:       s.JobSite,
				FirstDay:      s.ClockIn,
				LastDay:       *s.ClockOut,
			}
			byKey[key] = row
			order = append(order, key)
		}
		if s.ClockIn.Before(row.FirstDay) {
			row.FirstDay = s.ClockIn
		}
		if s.ClockOut.After(row.LastDay) {
			row.LastDay = *s.ClockOut
		}
		row.Manpower++
	}
	sort.Strings(order)
	result := make([]repository.ProjectHistoryRow, 0, len(order))
	for _, key := range order {
		result = append(result, *byKey[key])
	}
	return result, nil
}

// ── Mock BreakRepository ──

type mockBreakRepo struct{ *memStore }

func (m *mockBreakRepo) Create(_ context.Context, b *model.Break) error {
	if m.failWith != nil {
		return m.failWith
	}
	for _, existing := range m.breaks {
		if existing.ShiftID == b.ShiftID && existing.EndAt == nil {
			return gorm.ErrDuplicatedKey
		}
	}
	m.nextBreak++
	b.ID = m.nextBreak
	c := *b
	m.breaks[b.ID] = &c
	return nil
}

func (m *mockBreakRepo) GetOpen(_ context.Context, shiftID uint64) (*model.Break, error) {
	if m.failWith != nil {
		return nil, m.failWith
	}
	for _, b := range m.breaks {
		if b.ShiftID == shiftID && b.EndAt == nil {
			c := *b
			return &c, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockBreakRepo) ListByShift(_ context.Context, shiftID uint64) ([]model.Break, error) {
	if m.failWith != nil {
		return nil, m.failWith
	}
	return m.shiftBreaks(shiftID), nil
}

func (m *mockBreakRepo) EndOpen(_ context.Context, shiftID uint64, at time.Time) (bool, error) {
	if m.failWith != nil {
		return false, m.failWith
	}
	for _, b := range m.breaks {
		if b.ShiftID == shiftID && b.EndAt == nil {
			end := at
			if end.Before(b.StartAt) {
				end = b.StartAt
			}
			b.EndAt = &end
			return true, nil
		}
	}
	return false, nil
}

func (m *mockBreakRepo) DeleteByShift(_ context.Context, shiftID uint64) error {
	if m.failWith != nil {
		return m.failWith
	}
	for id, b := range m.breaks {
		if b.ShiftID == shiftID {
			delete(m.breaks, id)
		}
	}
	return nil
}

// ── Mock WorkerCodeRepository ──

type mockWorkerCodeRepo struct{ *memStore }

func (m *mockWorkerCodeRepo) Create(_ context.Context, wc *model.WorkerCode) error {
	if m.failWith != nil {
		return m.failWith
	}
	for _, existing := range m.codes {
		if existing.Code == wc.Code ||
			(existing.WorkerName == wc.WorkerName && existing.Subcontractor == wc.Subcontractor) {
			return gorm.ErrDuplicatedKey
		}
	}
	m.nextCode++
	wc.ID = m.nextCode
	c := *wc
	m.codes[wc.ID] = &c
	return nil
}

func (m *mockWorkerCodeRepo) GetByIdentity(_ context.Context, workerName, subcontractor string) (*model.WorkerCode, error) {
	if m.failWith != nil {
		return nil, m.failWith
	}
	for _, wc := range m.codes {
		if wc.WorkerName == workerName && wc.Subcontractor == subcontractor {
			c := *wc
			return &c, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockWorkerCodeRepo) GetByCode(_ context.Context, code string) (*model.WorkerCode, error) {
	if m.failWith != nil {
		return nil, m.failWith
	}
	for _, wc := range m.codes {
		if wc.Code == code {
			c := *wc
			return &c, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockWorkerCodeRepo) CodeExists(_ context.Context, code string) (bool, error) {
	if m.failWith != nil {
		return false, m.failWith
	}
	for _, wc := range m.codes {
		if wc.Code == code {
			return true, nil
		}
	}
	return false, nil
}

// ── Mock QRBatchRepository ──

type mockQRBatchRepo struct{ *memStore }

func (m *mockQRBatchRepo) Create(_ context.Context, batch *model.QRBatch) error {
	if m.failWith != nil {
		return m.failWith
	}
	c := *batch
	m.batches[batch.BatchID] = &c
	return nil
}

func (m *mockQRBatchRepo) GetByID(_ context.Context, batchID string) (*model.QRBatch, error) {
	if m.failWith != nil {
		return nil, m.failWith
	}
	if b, ok := m.batches[batchID]; ok {
		c := *b
		return &c, nil
	}
	return nil, gorm.ErrRecordNotFound
}
