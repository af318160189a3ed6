package service

import (
	"context"
	"encoding/csv"
	"strings"
	"testing"
	"time"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"github.com/easterncc001/shift-logger/internal/dto"
)

func setupTestExport() (ExportService, *memStore) {
	store := newMemStore()
	day := time.Date(2024, 3, 4, 14, 0, 0, 0, time.UTC)
	seedClosedShift(store, "Ana", "Acme", "riverside", day, 8*time.Hour)
	seedClosedShift(store, "Cy", "Bolt", "harbor", day, 4*time.Hour)
	seedOpenShift(store, "Dee", day.Add(time.Hour))
	return NewExportService(newMockRepository(store), testSites(), zap.NewNop()), store
}

func TestExportService_XLSX(t *testing.T) {
	svc, _ := setupTestExport()

	buf, filename, err := svc.ExportShiftsXLSX(context.Background(), &dto.ShiftFilterRequest{})
	if err != nil {
		t.Fatalf("ExportShiftsXLSX 应成功: %v", err)
	}
	if !strings.HasSuffix(filename, ".xlsx") {
		t.Errorf("文件名应以 .xlsx 结尾: %s", filename)
	}

	f, err := excelize.OpenReader(buf)
	if err != nil {
		t.Fatalf("生成的文件应可被解析: %v", err)
	}
	defer f.Close()

	rows, err := f.GetRows(shiftSheetName)
	if err != nil {
		t.Fatalf("读取明细 Sheet 失败: %v", err)
	}
	if len(rows) != 4 {
		t.Errorf("期望表头 + 3 行，实际: %d", len(rows))
	}
	if rows[1][1] != "Ana" || rows[1][4] != "2024-03-04 08:00" {
		t.Errorf("首行内容或时区不正确: %v", rows[1])
	}

	totals, err := f.GetRows(totalsSheetName)
	if err != nil {
		t.Fatalf("读取合计 Sheet 失败: %v", err)
	}
	if len(totals) != 3 || totals[1][0] != "Acme" || totals[1][3] != "8h 0m" {
		t.Errorf("合计 Sheet 不正确: %v", totals)
	}
}

func TestExportService_CSV(t *testing.T) {
	svc, _ := setupTestExport()

	buf, _, err := svc.ExportShiftsCSV(context.Background(), &dto.ShiftFilterRequest{Subcontractor: "Bolt"})
	if err != nil {
		t.Fatalf("ExportShiftsCSV 应成功: %v", err)
	}
	records, err := csv.NewReader(buf).ReadAll()
	if err != nil {
		t.Fatalf("CSV 应可解析: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("期望表头 + 1 行，实际: %d", len(records))
	}
	if records[1][2] != "Bolt" || records[1][7] != "4h 0m" {
		t.Errorf("CSV 内容不正确: %v", records[1])
	}
}

func TestExportService_ICS_OnlyClosedShifts(t *testing.T) {
	svc, _ := setupTestExport()

	buf, filename, err := svc.ExportShiftsICS(context.Background(), nil)
	if err != nil {
		t.Fatalf("ExportShiftsICS 应成功: %v", err)
	}
	if !strings.HasSuffix(filename, ".ics") {
		t.Errorf("文件名应以 .ics 结尾: %s", filename)
	}
	body := buf.String()
	if n := strings.Count(body, "BEGIN:VEVENT"); n != 2 {
		t.Errorf("期望 2 个 VEVENT，实际: %d", n)
	}
	if !strings.Contains(body, "Ana (Acme)") {
		t.Error("事件标题应包含姓名与分包商")
	}
}
