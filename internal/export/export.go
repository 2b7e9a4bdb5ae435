// Package export renders a plant's threshold matrix as a downloadable file.
// The layout is the same in every format: one header row of volume
// thresholds and one row per operation, with "-" (or a blank spreadsheet
// cell) where no tier is configured.
package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"github.com/jung-kurt/gofpdf"
	"github.com/xuri/excelize/v2"

	"github.com/plantops/indirect-costs/internal/domain"
	"github.com/plantops/indirect-costs/internal/matrix"
)

// Format identifies an export file type.
type Format string

const (
	CSV  Format = "csv"
	XLSX Format = "xlsx"
	PDF  Format = "pdf"
)

// ErrUnknownFormat is returned by ParseFormat for anything but csv, xlsx
// or pdf.
var ErrUnknownFormat = fmt.Errorf("%w: format must be csv, xlsx or pdf", domain.ErrValidation)

// ParseFormat parses a case-insensitive format name.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case CSV, XLSX, PDF:
		return f, nil
	default:
		return "", ErrUnknownFormat
	}
}

// ContentType returns the MIME type served for f.
func (f Format) ContentType() string {
	switch f {
	case XLSX:
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	case PDF:
		return "application/pdf"
	default:
		return "text/csv; charset=utf-8"
	}
}

// Filename returns the suggested download name for a plant's matrix.
func (f Format) Filename(plant domain.Plant) string {
	return fmt.Sprintf("matrix-%s.%s", strings.ToLower(plant.Code), f)
}

// Write renders m in format f.
func Write(w io.Writer, f Format, plant domain.Plant, m matrix.Matrix) error {
	switch f {
	case CSV:
		return WriteCSV(w, m)
	case XLSX:
		return WriteXLSX(w, plant, m)
	case PDF:
		return WritePDF(w, plant, m)
	default:
		return ErrUnknownFormat
	}
}

// header returns the column titles: "Operation" then one per threshold.
func header(m matrix.Matrix) []string {
	out := make([]string, 0, len(m.Thresholds)+1)
	out = append(out, "Operation")
	for _, t := range m.Thresholds {
		out = append(out, matrix.FormatVolume(t))
	}
	return out
}

// WriteCSV writes the matrix as CSV with costs formatted to three decimals.
func WriteCSV(w io.Writer, m matrix.Matrix) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(header(m)); err != nil {
		return fmt.Errorf("export.WriteCSV: %w", err)
	}
	for _, r := range m.Rows {
		record := make([]string, 0, len(r.Cells)+1)
		record = append(record, r.OperationName)
		for _, c := range r.Cells {
			record = append(record, matrix.FormatCell(c))
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("export.WriteCSV: %w", err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("export.WriteCSV: %w", err)
	}
	return nil
}

// SheetName is the name of the single worksheet written by WriteXLSX.
const SheetName = "matrix"

// WriteXLSX writes a workbook with one sheet. Row 1 holds the plant, row 3
// the header and the operations follow from row 4. Costs are numeric cells;
// missing tiers are left blank.
func WriteXLSX(w io.Writer, plant domain.Plant, m matrix.Matrix) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", SheetName); err != nil {
		return fmt.Errorf("export.WriteXLSX: %w", err)
	}
	set := func(col, row int, v any) error {
		cell, err := excelize.CoordinatesToCellName(col, row)
		if err != nil {
			return err
		}
		return f.SetCellValue(SheetName, cell, v)
	}

	if err := set(1, 1, fmt.Sprintf("%s (%s)", plant.Name, plant.Code)); err != nil {
		return fmt.Errorf("export.WriteXLSX: %w", err)
	}
	for i, h := range header(m) {
		if err := set(i+1, 3, h); err != nil {
			return fmt.Errorf("export.WriteXLSX: %w", err)
		}
	}
	for i, r := range m.Rows {
		row := i + 4
		if err := set(1, row, r.OperationName); err != nil {
			return fmt.Errorf("export.WriteXLSX: %w", err)
		}
		for j, c := range r.Cells {
			if !c.Exists {
				continue
			}
			if err := set(j+2, row, c.CostPerKg); err != nil {
				return fmt.Errorf("export.WriteXLSX: %w", err)
			}
		}
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("export.WriteXLSX: %w", err)
	}
	return nil
}

// WritePDF writes a landscape A4 page with the matrix as a bordered table.
func WritePDF(w io.Writer, plant domain.Plant, m matrix.Matrix) error {
	pdf := gofpdf.New("L", "mm", "A4", "")
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.AddPage()

	pdf.SetFont("Arial", "B", 12)
	pdf.Cell(0, 8, tr(fmt.Sprintf("Indirect costs per kg: %s (%s)", plant.Name, plant.Code)))
	pdf.Ln(12)

	const nameWidth = 50.0
	pageW, _ := pdf.GetPageSize()
	left, _, right, _ := pdf.GetMargins()
	colWidth := 20.0
	if n := len(m.Thresholds); n > 0 {
		colWidth = min(colWidth, (pageW-left-right-nameWidth)/float64(n))
	}

	pdf.SetFont("Arial", "B", 9)
	for i, h := range header(m) {
		width := colWidth
		if i == 0 {
			width = nameWidth
		}
		pdf.CellFormat(width, 6, tr(h), "1", 0, "C", false, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont("Arial", "", 9)
	for _, r := range m.Rows {
		pdf.CellFormat(nameWidth, 6, tr(r.OperationName), "1", 0, "L", false, 0, "")
		for _, c := range r.Cells {
			pdf.CellFormat(colWidth, 6, matrix.FormatCell(c), "1", 0, "R", false, 0, "")
		}
		pdf.Ln(-1)
	}

	if err := pdf.Output(w); err != nil {
		return fmt.Errorf("export.WritePDF: %w", err)
	}
	return nil
}
