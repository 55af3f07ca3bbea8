// Package export writes the summary report and coin transactions to Excel.
package export

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"talento/internal/models"
	"talento/internal/view"

	"github.com/rs/zerolog"
	"github.com/xuri/excelize/v2"
)

const (
	sheetSummary      = "Summary"
	sheetTrends       = "Trends"
	sheetTransactions = "Transactions"
)

// Exporter names files by date and writes them under dir.
type Exporter struct {
	dir    string
	logger zerolog.Logger
}

func New(dir string, logger *zerolog.Logger) *Exporter {
	return &Exporter{dir: dir, logger: logger.With().Str("component", "export").Logger()}
}

func (e *Exporter) Report(rep view.Report, now time.Time) (string, error) {
	path := filepath.Join(e.dir, fmt.Sprintf("summary_report_%s.xlsx", now.Format(models.DateLayout)))
	if err := WriteReport(rep, path); err != nil {
		return "", err
	}
	e.logger.Info().Str("file_path", path).Msg("Excel file created")
	return path, nil
}

func (e *Exporter) Transactions(txs []models.Transaction, now time.Time) (string, error) {
	path := filepath.Join(e.dir, fmt.Sprintf("transactions_%s.xlsx", now.Format(models.DateLayout)))
	if err := WriteTransactions(txs, path); err != nil {
		return "", err
	}
	e.logger.Info().Str("file_path", path).Msg("Excel file created")
	return path, nil
}

func headerStyle(f *excelize.File) int {
	style, _ := f.NewStyle(&excelize.Style{
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#DDEBF7"}, Pattern: 1},
		Font:      &excelize.Font{Bold: true},
		Alignment: &excelize.Alignment{Horizontal: "center"},
	})
	return style
}

func save(f *excelize.File, path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("error creating export directory: %w", err)
		}
	}
	// default sheet
	_ = f.DeleteSheet("Sheet1")
	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("error saving file: %w", err)
	}
	return nil
}

// WriteReport writes the summary, the 30-day trends and one chart per series.
func WriteReport(rep view.Report, path string) error {
	f := excelize.NewFile()
	defer f.Close()

	idx, err := f.NewSheet(sheetSummary)
	if err != nil {
		return fmt.Errorf("error creating sheet: %w", err)
	}
	f.SetActiveSheet(idx)

	rows := [][]any{
		{"Metric", "Value"},
		{"Total Users", rep.TotalUsers},
		{"New Users Today", rep.UsersCreatedToday},
		{"Total Bookings", rep.TotalBookings},
		{"Bookings Today", rep.BookingsToday},
		{"Approval Rate", rep.ApprovalRate.String()},
		{"Cancellation Rate", rep.CancellationRate.String()},
		{"Approved Bookings", rep.ApprovedBookings},
		{"Cancelled Bookings", rep.CancelledBookings},
	}
	for i, row := range rows {
		cell, _ := excelize.CoordinatesToCellName(1, i+1)
		if err := f.SetSheetRow(sheetSummary, cell, &row); err != nil {
			return fmt.Errorf("write summary: %w", err)
		}
	}
	hs := headerStyle(f)
	_ = f.SetCellStyle(sheetSummary, "A1", "B1", hs)
	_ = f.SetColWidth(sheetSummary, "A", "A", 25)
	_ = f.SetColWidth(sheetSummary, "B", "B", 15)

	// Booking Breakdown
	if err := f.AddChart(sheetSummary, "D2", &excelize.Chart{
		Type: excelize.Pie,
		Series: []excelize.ChartSeries{{
			Name:       "Booking Breakdown",
			Categories: fmt.Sprintf("%s!$A$8:$A$9", sheetSummary),
			Values:     fmt.Sprintf("%s!$B$8:$B$9", sheetSummary),
		}},
		Title: []excelize.RichTextRun{{Text: "Booking Breakdown"}},
	}); err != nil {
		return fmt.Errorf("add breakdown chart: %w", err)
	}

	if _, err := f.NewSheet(sheetTrends); err != nil {
		return fmt.Errorf("error creating sheet: %w", err)
	}
	header := []any{"Date"}
	for _, s := range rep.Series {
		header = append(header, s.Label)
	}
	if err := f.SetSheetRow(sheetTrends, "A1", &header); err != nil {
		return fmt.Errorf("write trends header: %w", err)
	}
	lastCol, _ := excelize.ColumnNumberToName(len(header))
	_ = f.SetCellStyle(sheetTrends, "A1", lastCol+"1", hs)
	_ = f.SetColWidth(sheetTrends, "A", lastCol, 18)

	for i, label := range rep.Labels {
		row := []any{label}
		for _, s := range rep.Series {
			var v int64
			if i < len(s.Values) {
				v = s.Values[i]
			}
			row = append(row, v)
		}
		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		if err := f.SetSheetRow(sheetTrends, cell, &row); err != nil {
			return fmt.Errorf("write trends: %w", err)
		}
	}

	last := len(rep.Labels) + 1
	for i, s := range rep.Series {
		col, _ := excelize.ColumnNumberToName(i + 2)
		anchor, _ := excelize.CoordinatesToCellName(len(header)+2, 1+i*16)
		if err := f.AddChart(sheetTrends, anchor, &excelize.Chart{
			Type: excelize.Col,
			Series: []excelize.ChartSeries{{
				Name:       fmt.Sprintf("%s!$%s$1", sheetTrends, col),
				Categories: fmt.Sprintf("%s!$A$2:$A$%d", sheetTrends, last),
				Values:     fmt.Sprintf("%s!$%s$2:$%s$%d", sheetTrends, col, col, last),
			}},
			Title:  []excelize.RichTextRun{{Text: s.Label + " (Last 30 Days)"}},
			Legend: excelize.ChartLegend{Position: "top"},
		}); err != nil {
			return fmt.Errorf("add %s chart: %w", s.Key, err)
		}
	}

	return save(f, path)
}

// WriteTransactions writes one row per transaction. Amounts stay numeric when
// they parse and fall back to the backend text otherwise.
func WriteTransactions(txs []models.Transaction, path string) error {
	f := excelize.NewFile()
	defer f.Close()

	idx, err := f.NewSheet(sheetTransactions)
	if err != nil {
		return fmt.Errorf("error creating sheet: %w", err)
	}
	f.SetActiveSheet(idx)

	header := []any{"ID", "Type", "Amount", "Date", "Status"}
	if err := f.SetSheetRow(sheetTransactions, "A1", &header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	_ = f.SetCellStyle(sheetTransactions, "A1", "E1", headerStyle(f))
	_ = f.SetColWidth(sheetTransactions, "A", "E", 18)

	for i, tx := range txs {
		var amount any = tx.AmountLabel()
		if v, err := tx.Amount.Float64(); err == nil {
			amount = v
		}
		row := []any{tx.ID, tx.TransactionType, amount, tx.StartDate, tx.Status}
		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		if err := f.SetSheetRow(sheetTransactions, cell, &row); err != nil {
			return fmt.Errorf("write transaction %d: %w", tx.ID, err)
		}
	}

	return save(f, path)
}
