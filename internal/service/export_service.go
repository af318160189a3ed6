package service

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"strconv"
	"time"

	ics "github.com/arran4/golang-ical"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"github.com/easterncc001/shift-logger/internal/dto"
	"github.com/easterncc001/shift-logger/internal/model"
	"github.com/easterncc001/shift-logger/internal/repository"
)

// ── 导出模块业务错误 ──

var (
	ErrExportGenerateFail = errors.New("生成导出文件失败")
)

const (
	shiftSheetName   = "Shifts"
	totalsSheetName  = "Totals"
	exportTimeLayout = "2006-01-02 15:04"
)

var shiftExportHeader = []string{
	"ID", "Name", "Subcontractor", "Job Site", "Clock In", "Clock Out",
	"Total Time", "Working Time", "Break Time", "Breaks", "Flagged",
}

// ExportService 导出业务接口
//
// 导出以 bytes.Buffer 返回，由 Handler 层设置 HTTP 响应头后写入 Response。
// 时刻均按班次所在工地的时区展示。
type ExportService interface {
	// ExportShiftsXLSX 班次明细 + 分包商合计两个 Sheet
	ExportShiftsXLSX(ctx context.Context, req *dto.ShiftFilterRequest) (*bytes.Buffer, string, error)
	ExportShiftsCSV(ctx context.Context, req *dto.ShiftFilterRequest) (*bytes.Buffer, string, error)
	// ExportShiftsICS 每个已结束班次一个 VEVENT
	ExportShiftsICS(ctx context.Context, req *dto.ShiftFilterRequest) (*bytes.Buffer, string, error)
}

type exportService struct {
	repo   *repository.Repository
	sites  SiteService
	now    func() time.Time
	logger *zap.Logger
}

// NewExportService 创建 ExportService 实例
func NewExportService(repo *repository.Repository, sites SiteService, logger *zap.Logger) ExportService {
	return &exportService{
		repo:   repo,
		sites:  sites,
		now:    func() time.Time { return time.Now().UTC() },
		logger: logger,
	}
}

// ═══════════════════════════════════════════════════════════
// ExportShiftsXLSX — 导出班次为 Excel
// ═══════════════════════════════════════════════════════════

func (s *exportService) ExportShiftsXLSX(ctx context.Context, req *dto.ShiftFilterRequest) (*bytes.Buffer, string, error) {
	filter, shifts, err := s.loadShifts(ctx, req)
	if err != nil {
		return nil, "", err
	}
	totals, err := s.repo.Shift.SubcontractorTotals(ctx, filter)
	if err != nil {
		s.logger.Error("统计分包商工时失败", zap.Error(err))
		return nil, "", err
	}

	f := excelize.NewFile()
	defer f.Close()

	idx, _ := f.NewSheet(shiftSheetName)
	f.SetActiveSheet(idx)
	f.DeleteSheet("Sheet1")

	headerStyle, _ := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 11, Color: "#FFFFFF"},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#4472C4"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})
	flaggedStyle, _ := f.NewStyle(&excelize.Style{
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#FCE4D6"}, Pattern: 1},
	})

	// 明细 Sheet
	for i, h := range shiftExportHeader {
		f.SetCellValue(shiftSheetName, cell(colName(i), 1), h)
	}
	f.SetCellStyle(shiftSheetName, "A1", cell(colName(len(shiftExportHeader)-1), 1), headerStyle)
	f.SetColWidth(shiftSheetName, "B", "D", 20)
	f.SetColWidth(shiftSheetName, "E", "F", 18)
	f.SetColWidth(shiftSheetName, "J", "J", 40)
	f.SetPanes(shiftSheetName, &excelize.Panes{Freeze: true, YSplit: 1, TopLeftCell: "A2", ActivePane: "bottomLeft"})

	row := 2
	for i := range shifts {
		record := s.shiftRecord(&shifts[i])
		for col, v := range record {
			f.SetCellValue(shiftSheetName, cell(colName(col), row), v)
		}
		if shifts[i].Flagged {
			f.SetCellStyle(shiftSheetName, cell("A", row), cell(colName(len(record)-1), row), flaggedStyle)
		}
		row++
	}

	// 合计 Sheet
	f.NewSheet(totalsSheetName)
	for i, h := range []string{"Subcontractor", "Days", "Working Hours", "Working Time"} {
		f.SetCellValue(totalsSheetName, cell(colName(i), 1), h)
	}
	f.SetCellStyle(totalsSheetName, "A1", "D1", headerStyle)
	f.SetColWidth(totalsSheetName, "A", "A", 24)
	f.SetColWidth(totalsSheetName, "B", "D", 16)
	for i, t := range totals {
		r := i + 2
		f.SetCellValue(totalsSheetName, cell("A", r), t.Subcontractor)
		f.SetCellValue(totalsSheetName, cell("B", r), t.Days)
		f.SetCellValue(totalsSheetName, cell("C", r), HoursFromSeconds(t.WorkingSeconds))
		f.SetCellValue(totalsSheetName, cell("D", r), FormatHM(time.Duration(t.WorkingSeconds)*time.Second))
	}

	buf := new(bytes.Buffer)
	if err := f.Write(buf); err != nil {
		s.logger.Error("写入 Excel 失败", zap.Error(err))
		return nil, "", ErrExportGenerateFail
	}
	return buf, s.filename("xlsx"), nil
}

// ═══════════════════════════════════════════════════════════
// ExportShiftsCSV — 导出班次为 CSV
// ═══════════════════════════════════════════════════════════

func (s *exportService) ExportShiftsCSV(ctx context.Context, req *dto.ShiftFilterRequest) (*bytes.Buffer, string, error) {
	_, shifts, err := s.loadShifts(ctx, req)
	if err != nil {
		return nil, "", err
	}

	buf := new(bytes.Buffer)
	w := csv.NewWriter(buf)
	if err := w.Write(shiftExportHeader); err != nil {
		return nil, "", ErrExportGenerateFail
	}
	for i := range shifts {
		record := s.shiftRecord(&shifts[i])
		line := make([]string, len(record))
		for j, v := range record {
			line[j] = fmt.Sprint(v)
		}
		if err := w.Write(line); err != nil {
			s.logger.Error("写入 CSV 失败", zap.Error(err))
			return nil, "", ErrExportGenerateFail
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		s.logger.Error("写入 CSV 失败", zap.Error(err))
		return nil, "", ErrExportGenerateFail
	}
	return buf, s.filename("csv"), nil
}

// ═══════════════════════════════════════════════════════════
// ExportShiftsICS — 导出已结束班次为 iCalendar
// ═══════════════════════════════════════════════════════════

func (s *exportService) ExportShiftsICS(ctx context.Context, req *dto.ShiftFilterRequest) (*bytes.Buffer, string, error) {
	_, shifts, err := s.loadShifts(ctx, req)
	if err != nil {
		return nil, "", err
	}

	cal := ics.NewCalendar()
	cal.SetMethod(ics.MethodPublish)
	cal.SetProductId("-//shift-logger//shifts//EN")
	cal.SetXWRCalName("Shifts")

	stamp := s.now()
	for i := range shifts {
		shift := &shifts[i]
		if shift.ClockOut == nil {
			continue
		}
		event := cal.AddEvent(fmt.Sprintf("shift-%d@shift-logger", shift.ID))
		event.SetDtStampTime(stamp)
		event.SetCreatedTime(shift.CreatedAt)
		event.SetStartAt(shift.ClockIn)
		event.SetEndAt(*shift.ClockOut)
		event.SetSummary(fmt.Sprintf("%s (%s)", shift.WorkerName, shift.Subcontractor))
		event.SetLocation(shift.JobSite)

		desc := "Working: " + FormatSecondsHM(shift.WorkingSeconds)
		if shift.BreaksSummary != "" {
			desc += "\nBreaks: " + shift.BreaksSummary
		}
		if shift.Flagged {
			desc += "\nFlagged for review"
		}
		event.SetDescription(desc)
	}

	buf := bytes.NewBufferString(cal.Serialize())
	return buf, s.filename("ics"), nil
}

// ── 辅助函数 ──

func (s *exportService) loadShifts(ctx context.Context, req *dto.ShiftFilterRequest) (repository.ShiftFilter, []model.Shift, error) {
	if req == nil {
		req = &dto.ShiftFilterRequest{}
	}
	filter, err := toShiftFilter(req, s.sites)
	if err != nil {
		return filter, nil, err
	}
	shifts, err := s.repo.Shift.ListAll(ctx, filter)
	if err != nil {
		s.logger.Error("查询导出班次失败", zap.Error(err))
		return filter, nil, err
	}
	return filter, shifts, nil
}

// shiftRecord 一行导出数据，列顺序与 shiftExportHeader 一致
func (s *exportService) shiftRecord(shift *model.Shift) []interface{} {
	loc := s.sites.Location(shift.JobSite)
	clockOut := ""
	if shift.ClockOut != nil {
		clockOut = shift.ClockOut.In(loc).Format(exportTimeLayout)
	}
	return []interface{}{
		shift.ID,
		shift.WorkerName,
		shift.Subcontractor,
		shift.JobSite,
		shift.ClockIn.In(loc).Format(exportTimeLayout),
		clockOut,
		FormatSecondsHM(shift.TotalSeconds),
		FormatSecondsHM(shift.WorkingSeconds),
		FormatSecondsHM(shift.BreakSeconds),
		shift.BreaksSummary,
		strconv.FormatBool(shift.Flagged),
	}
}

func (s *exportService) filename(ext string) string {
	return fmt.Sprintf("shifts_%s.%s", s.now().Format("20060102"), ext)
}

func colName(idx int) string {
	name, _ := excelize.ColumnNumberToName(idx + 1)
	return name
}

func cell(col string, row int) string {
	return fmt.Sprintf("%s%d", col, row)
}
