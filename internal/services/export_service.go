package services

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/go-pdf/fpdf"
	"github.com/xuri/excelize/v2"
)

// Excel rejects cells longer than this.
const maxExcelCellChars = 32767

// ExportFormat names an export file type.
type ExportFormat string

const (
	ExportJSON  ExportFormat = "json"
	ExportExcel ExportFormat = "xlsx"
	ExportPDF   ExportFormat = "pdf"
)

// ParseExportFormat accepts a format name or file extension.
func ParseExportFormat(s string) (ExportFormat, error) {
	switch strings.ToLower(strings.TrimPrefix(strings.TrimSpace(s), ".")) {
	case "json":
		return ExportJSON, nil
	case "xlsx", "excel":
		return ExportExcel, nil
	case "pdf":
		return ExportPDF, nil
	default:
		return "", fmt.Errorf("unsupported export format %q", s)
	}
}

// ContentType returns the MIME type of the format.
func (f ExportFormat) ContentType() string {
	switch f {
	case ExportExcel:
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	case ExportPDF:
		return "application/pdf"
	default:
		return "application/json"
	}
}

// ExportRow is one line of an export.
type ExportRow struct {
	Log      string `json:"log"`
	Summary  string `json:"summary"`
	Category string `json:"category"`
}

// ExportRows flattens a report into export rows.
func ExportRows(r *AnalysisReport) []ExportRow {
	rows := make([]ExportRow, 0, len(r.Entries))
	for _, e := range r.Entries {
		row := ExportRow{Log: e.Entry.String(), Category: e.Category}
		switch {
		case e.Error != "":
			row.Summary = "Error: " + e.Error
		case e.Diagnostic != nil:
			row.Summary = e.Diagnostic.Summary
			if e.Diagnostic.FixSuggestion != "" {
				row.Summary += "\nFix: " + e.Diagnostic.FixSuggestion
			}
		}
		rows = append(rows, row)
	}
	return rows
}

// ExportService renders reports to files.
type ExportService struct{}

func NewExportService() *ExportService {
	return &ExportService{}
}

// Export writes r to w in the given format.
func (es *ExportService) Export(w io.Writer, format ExportFormat, r *AnalysisReport) error {
	rows := ExportRows(r)
	switch format {
	case ExportJSON:
		return es.WriteJSON(w, rows)
	case ExportExcel:
		return es.WriteExcel(w, rows)
	case ExportPDF:
		return es.WritePDF(w, reportTitle(r), rows)
	default:
		return fmt.Errorf("unsupported export format %q", format)
	}
}

// WriteJSON writes rows as an indented JSON array.
func (es *ExportService) WriteJSON(w io.Writer, rows []ExportRow) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(rows)
}

// WriteExcel writes rows to a single-sheet workbook.
func (es *ExportService) WriteExcel(w io.Writer, rows []ExportRow) error {
	f := excelize.NewFile()
	defer f.Close()

	const sheet = "Logs"
	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return err
	}

	if err := f.SetSheetRow(sheet, "A1", &[]interface{}{"Log", "Summary", "Category"}); err != nil {
		return err
	}
	header, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return err
	}
	if err := f.SetCellStyle(sheet, "A1", "C1", header); err != nil {
		return err
	}

	wrap, err := f.NewStyle(&excelize.Style{Alignment: &excelize.Alignment{WrapText: true, Vertical: "top"}})
	if err != nil {
		return err
	}

	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		values := []interface{}{truncateCell(row.Log), truncateCell(row.Summary), row.Category}
		if err := f.SetSheetRow(sheet, cell, &values); err != nil {
			return fmt.Errorf("writing row %d: %w", i+1, err)
		}
	}
	if len(rows) > 0 {
		last, _ := excelize.CoordinatesToCellName(2, len(rows)+1)
		if err := f.SetCellStyle(sheet, "A2", last, wrap); err != nil {
			return err
		}
	}

	if err := f.SetColWidth(sheet, "A", "A", 80); err != nil {
		return err
	}
	if err := f.SetColWidth(sheet, "B", "B", 60); err != nil {
		return err
	}
	if err := f.SetColWidth(sheet, "C", "C", 20); err != nil {
		return err
	}

	return f.Write(w)
}

// WritePDF writes rows as a paginated document.
func (es *ExportService) WritePDF(w io.Writer, title string, rows []ExportRow) error {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetTitle(title, true)
	pdf.SetMargins(15, 15, 15)
	pdf.SetAutoPageBreak(true, 15)
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	pdf.AddPage()
	pdf.SetFont("Helvetica", "B", 16)
	pdf.CellFormat(0, 10, tr(title), "", 1, "L", false, 0, "")
	pdf.Ln(4)

	if len(rows) == 0 {
		pdf.SetFont("Helvetica", "I", 11)
		pdf.CellFormat(0, 8, "No entries matched.", "", 1, "L", false, 0, "")
	}

	for i, row := range rows {
		pdf.SetFont("Helvetica", "B", 11)
		pdf.CellFormat(0, 7, tr(fmt.Sprintf("Log Entry %d  [%s]", i+1, row.Category)), "", 1, "L", false, 0, "")

		pdf.SetFont("Courier", "", 9)
		pdf.MultiCell(0, 5, tr(row.Log), "", "L", false)

		if row.Summary != "" {
			pdf.Ln(1)
			pdf.SetFont("Helvetica", "", 10)
			pdf.MultiCell(0, 5, tr("Summary: "+row.Summary), "", "L", false)
		}
		pdf.Ln(4)
	}

	if err := pdf.Error(); err != nil {
		return fmt.Errorf("rendering pdf: %w", err)
	}
	return pdf.Output(w)
}

func reportTitle(r *AnalysisReport) string {
	name := r.Filename
	if name == "" {
		name = r.ID
	}
	return fmt.Sprintf("Log analysis: %s (%s)", name, r.FormatID)
}

func truncateCell(s string) string {
	if len(s) <= maxExcelCellChars {
		return s
	}
	r := []rune(s)
	if len(r) <= maxExcelCellChars {
		return s
	}
	return string(r[:maxExcelCellChars-1]) + "…"
}
