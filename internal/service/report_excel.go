package service

import (
	"bytes"
	"fmt"
	"time"

	"github.com/xuri/excelize/v2"
)

// 面板统计的 Excel 导出：一个工作簿四张表，
// 与 DashboardStatistics 的四个子查询一一对应

var (
	locationHeader = []string{"Latitude", "Longitude", "Flood", "Fire", "Earthquake", "Extreme Temp", "Total Incidents", "Last Incident", "Risk Score"}
	typeHeader     = []string{"Device Type", "Total Devices", "Operational", "Avg Value", "Max Value", "Min Value", "Last Reading", "Alert Count"}
	trendHeader    = []string{"Date", "Alert Type", "Count", "Avg Severity"}
	hotspotHeader  = []string{"Latitude", "Longitude", "Alert Count", "Risk Score", "Predominant Type"}
)

// ExportDashboardExcel 把面板统计渲染为 .xlsx 字节流
func ExportDashboardExcel(dashboard *DashboardStatistics) ([]byte, error) {
	if dashboard == nil {
		return nil, fmt.Errorf("dashboard is required")
	}

	f := excelize.NewFile()

	if err := writeSummarySheet(f, dashboard); err != nil {
		f.Close()
		return nil, err
	}
	if err := writeSheet(f, "Locations", locationHeader, len(dashboard.Locations), func(i int) []any {
		l := dashboard.Locations[i]
		return []any{l.Latitude, l.Longitude, l.FloodAlerts, l.FireAlerts, l.EarthquakeAlerts, l.ExtremeTempAlerts, l.TotalIncidents, formatTime(l.LastIncident), l.RiskScore}
	}); err != nil {
		f.Close()
		return nil, err
	}
	if err := writeSheet(f, "Device Types", typeHeader, len(dashboard.DeviceTypes), func(i int) []any {
		d := dashboard.DeviceTypes[i]
		return []any{string(d.DeviceType), d.TotalDevices, d.OperationalDevices, d.AverageValue, d.MaxValue, d.MinValue, formatTime(d.LastReadingTime), d.AlertCount}
	}); err != nil {
		f.Close()
		return nil, err
	}
	if err := writeSheet(f, "Trends", trendHeader, len(dashboard.Trends), func(i int) []any {
		t := dashboard.Trends[i]
		return []any{t.Date, string(t.AlertType), t.Count, t.AverageSeverity}
	}); err != nil {
		f.Close()
		return nil, err
	}
	if err := writeSheet(f, "Hotspots", hotspotHeader, len(dashboard.Hotspots), func(i int) []any {
		h := dashboard.Hotspots[i]
		return []any{h.Latitude, h.Longitude, h.AlertCount, h.RiskScore, string(h.PredominantAlertType)}
	}); err != nil {
		f.Close()
		return nil, err
	}

	f.DeleteSheet("Sheet1")

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to write workbook: %w", err)
	}
	if err := f.Close(); err != nil {
		return nil, fmt.Errorf("failed to close workbook: %w", err)
	}
	return buf.Bytes(), nil
}

func writeSummarySheet(f *excelize.File, dashboard *DashboardStatistics) error {
	const sheet = "Summary"
	index, err := f.NewSheet(sheet)
	if err != nil {
		return fmt.Errorf("failed to create sheet %s: %w", sheet, err)
	}
	f.SetActiveSheet(index)

	rows := [][]any{
		{"From", formatTime(dashboard.From)},
		{"To", formatTime(dashboard.To)},
		{"Total Alerts", dashboard.TotalAlerts},
		{"Operational Devices", dashboard.OperationalDevices},
		{"Total Shelters", dashboard.TotalShelters},
		{"Total Resources", dashboard.TotalResources},
	}
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return fmt.Errorf("failed to convert coordinates: %w", err)
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("failed to write summary row: %w", err)
		}
	}
	return nil
}

func writeSheet(f *excelize.File, sheet string, header []string, rows int, rowAt func(i int) []any) error {
	if _, err := f.NewSheet(sheet); err != nil {
		return fmt.Errorf("failed to create sheet %s: %w", sheet, err)
	}

	headerRow := make([]any, len(header))
	for i, h := range header {
		headerRow[i] = h
	}
	if err := f.SetSheetRow(sheet, "A1", &headerRow); err != nil {
		return fmt.Errorf("failed to write header for %s: %w", sheet, err)
	}

	for i := 0; i < rows; i++ {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return fmt.Errorf("failed to convert coordinates: %w", err)
		}
		row := rowAt(i)
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("failed to write row %d for %s: %w", i+2, sheet, err)
		}
	}
	return nil
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format("2006-01-02 15:04:05")
}
