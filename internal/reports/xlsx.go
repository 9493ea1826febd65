package reports

import (
	"bytes"
	"fmt"
	"sort"
	"time"

	"github.com/xuri/excelize/v2"
)

// Sheet is one worksheet of an export.
type Sheet struct {
	Name    string
	Headers []string
	Rows    [][]interface{}
}

// WriteXLSX renders sheets into a workbook with a styled, frozen header row.
func WriteXLSX(sheets ...Sheet) ([]byte, error) {
	if len(sheets) == 0 {
		return nil, fmt.Errorf("no sheets to write")
	}

	f := excelize.NewFile()
	defer f.Close()

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{
			Type:    "pattern",
			Color:   []string{"#E6F3FF"},
			Pattern: 1,
		},
		Border: []excelize.Border{
			{Type: "bottom", Color: "000000", Style: 1},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create header style: %w", err)
	}

	for i, sheet := range sheets {
		if i == 0 {
			if err := f.SetSheetName("Sheet1", sheet.Name); err != nil {
				return nil, fmt.Errorf("failed to name sheet: %w", err)
			}
		} else if _, err := f.NewSheet(sheet.Name); err != nil {
			return nil, fmt.Errorf("failed to create sheet %s: %w", sheet.Name, err)
		}
		if err := writeSheet(f, sheet, headerStyle); err != nil {
			return nil, err
		}
	}
	f.SetActiveSheet(0)

	var buf bytes.Buffer
	if _, err := f.WriteTo(&buf); err != nil {
		return nil, fmt.Errorf("failed to write workbook: %w", err)
	}
	return buf.Bytes(), nil
}

func writeSheet(f *excelize.File, sheet Sheet, headerStyle int) error {
	widths := make([]int, len(sheet.Headers))
	for col, header := range sheet.Headers {
		cell, err := excelize.CoordinatesToCellName(col+1, 1)
		if err != nil {
			return err
		}
		if err := f.SetCellValue(sheet.Name, cell, header); err != nil {
			return fmt.Errorf("failed to set header cell %s: %w", cell, err)
		}
		widths[col] = len(header)
	}
	if len(sheet.Headers) > 0 {
		last, _ := excelize.CoordinatesToCellName(len(sheet.Headers), 1)
		if err := f.SetCellStyle(sheet.Name, "A1", last, headerStyle); err != nil {
			return fmt.Errorf("failed to set header style: %w", err)
		}
	}

	for r, row := range sheet.Rows {
		for c, value := range row {
			if value == nil {
				continue
			}
			cell, err := excelize.CoordinatesToCellName(c+1, r+2)
			if err != nil {
				return err
			}
			if t, ok := value.(time.Time); ok {
				value = t.UTC().Format("2006-01-02 15:04")
			}
			if err := f.SetCellValue(sheet.Name, cell, value); err != nil {
				return fmt.Errorf("failed to set cell %s: %w", cell, err)
			}
			if c < len(widths) {
				if n := len(fmt.Sprint(value)); n > widths[c] {
					widths[c] = n
				}
			}
		}
	}

	for i, w := range widths {
		col, err := excelize.ColumnNumberToName(i + 1)
		if err != nil {
			return err
		}
		if w > 60 {
			w = 60
		}
		if err := f.SetColWidth(sheet.Name, col, col, float64(w+2)); err != nil {
			return fmt.Errorf("failed to set column width: %w", err)
		}
	}

	return f.SetPanes(sheet.Name, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	})
}

// Sheets lays out the occupancy report.
func (r *OccupancyReport) Sheets() []Sheet {
	rows := make([][]interface{}, 0, len(r.Properties)+1)
	for _, p := range r.Properties {
		rows = append(rows, []interface{}{p.Name, string(p.Status), p.Capacity, p.Occupied, p.Available, p.Rate})
	}
	rows = append(rows, []interface{}{"Total", "", r.TotalCapacity, r.TotalOccupied, r.TotalCapacity - r.TotalOccupied, r.Rate})
	return []Sheet{{
		Name:    "Occupancy",
		Headers: []string{"Property", "Status", "Capacity", "Occupied", "Available", "Occupancy %"},
		Rows:    rows,
	}}
}

// Sheets lays out the incident report: a summary and the incident list.
func (r *IncidentReport) Sheets() []Sheet {
	summary := [][]interface{}{
		{"Period", r.Range.From.Format(time.DateOnly) + " to " + r.Range.To.Format(time.DateOnly)},
		{"Total incidents", r.Total},
		{"Average hours to close", r.AvgHoursToClose},
	}
	for _, group := range []struct {
		label  string
		counts map[string]int
	}{
		{"Severity", r.BySeverity},
		{"Status", r.ByStatus},
		{"Category", r.ByCategory},
	} {
		for _, key := range sortedKeys(group.counts) {
			summary = append(summary, []interface{}{group.label + ": " + key, group.counts[key]})
		}
	}

	list := make([][]interface{}, 0, len(r.Incidents))
	for _, i := range r.Incidents {
		var closed interface{}
		if i.ClosedAt != nil {
			closed = *i.ClosedAt
		}
		list = append(list, []interface{}{i.OccurredAt, i.Category, i.Severity, i.Status, closed})
	}

	return []Sheet{
		{Name: "Summary", Headers: []string{"Measure", "Value"}, Rows: summary},
		{Name: "Incidents", Headers: []string{"Occurred", "Category", "Severity", "Status", "Closed"}, Rows: list},
	}
}

// Sheets lays out the financial report. Amounts are in major units.
func (r *FinancialReport) Sheets() []Sheet {
	totals := make([][]interface{}, 0, len(r.Totals))
	for _, t := range r.Totals {
		totals = append(totals, []interface{}{t.Currency, major(t.Due), major(t.Paid), major(t.Outstanding)})
	}

	invoices := make([][]interface{}, 0, len(r.Invoices))
	for _, inv := range r.Invoices {
		invoices = append(invoices, []interface{}{
			inv.Number, inv.PeriodEnd, inv.Status, inv.Currency, major(inv.AmountDue), major(inv.AmountPaid),
		})
	}

	return []Sheet{
		{Name: "Totals", Headers: []string{"Currency", "Due", "Paid", "Outstanding"}, Rows: totals},
		{Name: "Invoices", Headers: []string{"Number", "Period end", "Status", "Currency", "Due", "Paid"}, Rows: invoices},
	}
}

func major(minor int64) float64 {
	return float64(minor) / 100
}

func sortedKeys(m map[string]int) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
