package report

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"strconv"
	"time"

	"github.com/klokku/timesheet/pkg/timesheet"
	log "github.com/sirupsen/logrus"
	"github.com/xuri/excelize/v2"
)

// Renderer turns detailed entries into a downloadable file.
type Renderer interface {
	ContentType() string
	Extension() string
	Render(entries []DetailedEntry) ([]byte, error)
}

// NewRenderer returns the renderer for format, "csv" or "xlsx".
func NewRenderer(format string) (Renderer, error) {
	switch format {
	case "", "csv":
		return NewCsvRenderer(), nil
	case "xlsx":
		return NewXlsxRenderer(), nil
	default:
		return nil, fmt.Errorf("unsupported export format %q", format)
	}
}

// header names the day columns after the anchor weekday of the first entry.
func header(entries []DetailedEntry) []string {
	firstDay := time.Monday
	if len(entries) > 0 {
		firstDay = entries[0].WeekStart.Weekday()
	}
	columns := []string{"Week start", "Employee", "Badge", "Project", "Project number", "Billable", "Task", "Task type"}
	for i := 0; i < timesheet.DaysInWeek; i++ {
		columns = append(columns, time.Weekday((int(firstDay)+i)%7).String()[:3])
	}
	return append(columns, "Total", "Status", "Notes")
}

func hoursToString(hours float64) string {
	return strconv.FormatFloat(hours, 'f', 2, 64)
}

type CsvRendererImpl struct{}

func NewCsvRenderer() *CsvRendererImpl {
	return &CsvRendererImpl{}
}

func (c *CsvRendererImpl) ContentType() string {
	return "text/csv; charset=utf-8"
}

func (c *CsvRendererImpl) Extension() string {
	return "csv"
}

func (c *CsvRendererImpl) Render(entries []DetailedEntry) ([]byte, error) {
	data := make([][]string, 0, len(entries)+1)
	data = append(data, header(entries))
	for _, e := range entries {
		row := []string{
			e.WeekStart.Format(time.DateOnly),
			e.EmployeeName,
			e.BadgeId,
			e.ProjectName,
			e.ProjectNumber,
			strconv.FormatBool(e.Billable),
			e.TaskName,
			e.TaskTypeName,
		}
		for _, h := range e.Hours {
			row = append(row, hoursToString(h))
		}
		row = append(row, hoursToString(e.Hours.Total()), string(e.Status), e.Notes)
		data = append(data, row)
	}

	var b bytes.Buffer
	writer := csv.NewWriter(&b)
	for _, row := range data {
		if err := writer.Write(row); err != nil {
			log.Errorf("Error writing to csv: %v", err)
			return nil, err
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		log.Errorf("Error writing to csv: %v", err)
		return nil, err
	}
	return b.Bytes(), nil
}

const sheetName = "Entries"

type XlsxRendererImpl struct{}

func NewXlsxRenderer() *XlsxRendererImpl {
	return &XlsxRendererImpl{}
}

func (x *XlsxRendererImpl) ContentType() string {
	return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
}

func (x *XlsxRendererImpl) Extension() string {
	return "xlsx"
}

func (x *XlsxRendererImpl) Render(entries []DetailedEntry) ([]byte, error) {
	f := excelize.NewFile()
	defer func() {
		if err := f.Close(); err != nil {
			log.Errorf("failed to close workbook: %v", err)
		}
	}()
	if err := f.SetSheetName("Sheet1", sheetName); err != nil {
		return nil, err
	}

	columns := header(entries)
	headerRow := make([]any, 0, len(columns))
	for _, c := range columns {
		headerRow = append(headerRow, c)
	}
	if err := f.SetSheetRow(sheetName, "A1", &headerRow); err != nil {
		return nil, err
	}
	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return nil, err
	}
	lastHeaderCell, err := excelize.CoordinatesToCellName(len(columns), 1)
	if err != nil {
		return nil, err
	}
	if err := f.SetCellStyle(sheetName, "A1", lastHeaderCell, bold); err != nil {
		return nil, err
	}

	for i, e := range entries {
		row := []any{
			e.WeekStart.Format(time.DateOnly),
			e.EmployeeName,
			e.BadgeId,
			e.ProjectName,
			e.ProjectNumber,
			e.Billable,
			e.TaskName,
			e.TaskTypeName,
		}
		for _, h := range e.Hours {
			row = append(row, h)
		}
		row = append(row, e.Hours.Total(), string(e.Status), e.Notes)
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return nil, err
		}
		if err := f.SetSheetRow(sheetName, cell, &row); err != nil {
			log.Errorf("failed to write xlsx row: %v", err)
			return nil, err
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		log.Errorf("failed to write workbook: %v", err)
		return nil, err
	}
	return buf.Bytes(), nil
}
