// Package sheet converts between xlsx workbooks and core tables.
//
// Only the first sheet of a workbook is read. Cells stored as numbers
// become number cells; every other non-empty cell becomes text.
package sheet

import (
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/xuri/excelize/v2"

	"github.com/JonMunkholm/recon/internal/core"
)

var (
	// ErrInvalidWorkbook wraps every failure to read a workbook.
	ErrInvalidWorkbook = errors.New("invalid spreadsheet")

	// ErrNoSheets is returned for a workbook without any sheet.
	ErrNoSheets = errors.New("no sheets in workbook")
)

// DefaultSheetName is used by Encode when no name is given.
const DefaultSheetName = "Sheet1"

// Decode reads the first sheet of the workbook in r.
func Decode(r io.Reader) (core.Table, error) {
	cr := &countingReader{r: r}
	f, err := excelize.OpenReader(cr)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidWorkbook, err)
	}
	defer f.Close()

	table, err := decode(f)
	if err != nil {
		return nil, err
	}
	slog.Debug("decoded workbook", "bytes", cr.n, "rows", len(table))
	return table, nil
}

// DecodeFile reads the first sheet of the workbook at path.
func DecodeFile(path string) (core.Table, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w %s: %w", ErrInvalidWorkbook, path, err)
	}
	defer f.Close()

	return decode(f)
}

func decode(f *excelize.File) (core.Table, error) {
	name := f.GetSheetName(0)
	if name == "" {
		return nil, ErrNoSheets
	}

	rows, err := f.GetRows(name, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("%w: read %s: %w", ErrInvalidWorkbook, name, err)
	}

	table := make(core.Table, len(rows))
	for r, values := range rows {
		row := make(core.Row, len(values))
		for c, v := range values {
			if v == "" {
				continue
			}
			cell, err := decodeCell(f, name, r, c, v)
			if err != nil {
				return nil, err
			}
			row[c] = cell
		}
		table[r] = row
	}
	return table, nil
}

func decodeCell(f *excelize.File, sheet string, r, c int, v string) (core.Cell, error) {
	ref, err := excelize.CoordinatesToCellName(c+1, r+1)
	if err != nil {
		return core.Cell{}, fmt.Errorf("%w: %w", ErrInvalidWorkbook, err)
	}
	typ, err := f.GetCellType(sheet, ref)
	if err != nil {
		return core.Cell{}, fmt.Errorf("%w: cell %s: %w", ErrInvalidWorkbook, ref, err)
	}

	switch typ {
	case excelize.CellTypeNumber, excelize.CellTypeUnset:
		if d, ok := core.ParseNumeric(v); ok {
			return core.Num(d), nil
		}
	}
	return core.Str(v), nil
}

// Encode writes t as a single-sheet workbook to w.
func Encode(w io.Writer, t core.Table, sheetName string) error {
	f, err := build(t, sheetName)
	if err != nil {
		return err
	}
	defer f.Close()

	if err := f.Write(w); err != nil {
		return fmt.Errorf("encode spreadsheet: %w", err)
	}
	return nil
}

// EncodeFile writes t as a single-sheet workbook at path.
func EncodeFile(path string, t core.Table, sheetName string) error {
	f, err := build(t, sheetName)
	if err != nil {
		return err
	}
	defer f.Close()

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("encode spreadsheet %s: %w", path, err)
	}
	return nil
}

func build(t core.Table, sheetName string) (*excelize.File, error) {
	if sheetName == "" {
		sheetName = DefaultSheetName
	}

	f := excelize.NewFile()
	if sheetName != DefaultSheetName {
		if err := f.SetSheetName(DefaultSheetName, sheetName); err != nil {
			f.Close()
			return nil, fmt.Errorf("encode spreadsheet: %w", err)
		}
	}

	sw, err := f.NewStreamWriter(sheetName)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("encode spreadsheet: %w", err)
	}

	for r, row := range t {
		values := make([]any, len(row))
		for c, cell := range row {
			values[c] = cellValue(cell)
		}
		ref, err := excelize.CoordinatesToCellName(1, r+1)
		if err != nil {
			f.Close()
			return nil, fmt.Errorf("encode spreadsheet: %w", err)
		}
		if err := sw.SetRow(ref, values); err != nil {
			f.Close()
			return nil, fmt.Errorf("encode spreadsheet: row %d: %w", r+1, err)
		}
	}

	if err := sw.Flush(); err != nil {
		f.Close()
		return nil, fmt.Errorf("encode spreadsheet: %w", err)
	}
	return f, nil
}

func cellValue(c core.Cell) any {
	switch c.Kind {
	case core.CellNumber:
		if c.Num.IsInteger() && c.Num.BigInt().IsInt64() {
			return c.Num.IntPart()
		}
		return c.Num.InexactFloat64()
	case core.CellText:
		return c.Str
	default:
		return nil
	}
}
