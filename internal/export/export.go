package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/cnpj-cowork/internal/cowork"
	"github.com/cnpj-cowork/internal/search"
)

// Format of an export
type Format string

const (
	FormatCSV   Format = "csv"
	FormatExcel Format = "xlsx"
)

// ParseFormat accepts csv, xlsx or excel; empty means csv
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "csv":
		return FormatCSV, nil
	case "xlsx", "excel":
		return FormatExcel, nil
	}
	return "", fmt.Errorf("unsupported export format %q, use csv or xlsx", s)
}

// ContentType returns the MIME type of the format
func (f Format) ContentType() string {
	if f == FormatExcel {
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	}
	return "text/csv; charset=utf-8"
}

// Write renders result to w in format f
func Write(w io.Writer, f Format, result *search.Result) error {
	switch f {
	case FormatExcel:
		return WriteExcel(w, result)
	default:
		return WriteCSV(w, result)
	}
}

// WriteCSV writes every row as a semicolon separated file with a header row
func WriteCSV(w io.Writer, result *search.Result) error {
	cw := csv.NewWriter(w)
	cw.Comma = ';'

	if err := cw.Write(cowork.Columns); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}
	for _, group := range result.Streets {
		for _, row := range group.Rows {
			if err := cw.Write(row.Values()); err != nil {
				return fmt.Errorf("failed to write row: %w", err)
			}
		}
	}

	cw.Flush()
	return cw.Error()
}

// WriteExcel writes one sheet per street with a bold header row
func WriteExcel(w io.Writer, result *search.Result) error {
	f := excelize.NewFile()
	defer f.Close()

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Size: 11},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#D9E1F2"}, Pattern: 1},
	})
	if err != nil {
		return fmt.Errorf("failed to create header style: %w", err)
	}

	used := make(map[string]bool)
	first := ""
	for _, group := range result.Streets {
		name := SheetName(group.Street, used)
		if first == "" {
			first = name
			if err := f.SetSheetName("Sheet1", name); err != nil {
				return fmt.Errorf("failed to rename sheet: %w", err)
			}
		} else if _, err := f.NewSheet(name); err != nil {
			return fmt.Errorf("failed to create sheet %s: %w", name, err)
		}

		if err := writeSheet(f, name, group.Rows, headerStyle); err != nil {
			return err
		}
	}

	if first == "" {
		if err := writeSheet(f, "Sheet1", nil, headerStyle); err != nil {
			return err
		}
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}

func writeSheet(f *excelize.File, sheet string, rows cowork.DisplayTable, headerStyle int) error {
	for i, header := range cowork.Columns {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		if err := f.SetCellValue(sheet, cell, header); err != nil {
			return fmt.Errorf("failed to write header: %w", err)
		}
	}
	last, _ := excelize.CoordinatesToCellName(len(cowork.Columns), 1)
	if err := f.SetCellStyle(sheet, "A1", last, headerStyle); err != nil {
		return fmt.Errorf("failed to style header: %w", err)
	}

	for r, row := range rows {
		for c, value := range row.Values() {
			cell, _ := excelize.CoordinatesToCellName(c+1, r+2)
			// cells stay text so identifiers keep their leading zeros
			if err := f.SetCellStr(sheet, cell, value); err != nil {
				return fmt.Errorf("failed to write cell %s: %w", cell, err)
			}
		}
	}

	for i := range cowork.Columns {
		col, _ := excelize.ColumnNumberToName(i + 1)
		f.SetColWidth(sheet, col, col, 22)
	}
	return nil
}

// SheetName makes a valid, unique worksheet name out of a street name
func SheetName(street string, used map[string]bool) string {
	name := strings.Map(func(r rune) rune {
		switch r {
		case ':', '\\', '/', '?', '*', '[', ']':
			return '-'
		}
		return r
	}, strings.TrimSpace(street))
	name = strings.Trim(name, "'")
	if name == "" {
		name = cowork.NotInformed
	}
	name = truncateRunes(name, 31)

	candidate := name
	for i := 2; used[strings.ToLower(candidate)]; i++ {
		suffix := fmt.Sprintf(" (%d)", i)
		candidate = truncateRunes(name, 31-len(suffix)) + suffix
	}
	used[strings.ToLower(candidate)] = true
	return candidate
}

func truncateRunes(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
