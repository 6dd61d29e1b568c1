package sheet

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/JonMunkholm/recon/internal/core"
)

func sampleTable() core.Table {
	return core.Table{
		core.RowFromStrings("Ref", "Name", "Amount"),
		{core.Str("00123"), core.Str("Widget"), core.Num(decimal.RequireFromString("12.5"))},
		{core.Str("A-9"), core.Cell{}, core.Int(8308000123)},
		{core.Str("big"), core.Cell{}, core.Num(decimal.RequireFromString("123456789012345678901234"))},
	}
}

func TestEncodeDecode_RoundTrip(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Encode(&buf, sampleTable(), "Merged"))

	got, err := Decode(&buf)
	require.NoError(t, err)
	require.Len(t, got, 4)

	assert.Equal(t, "Ref", got.Cell(0, 0).String())

	// Text that looks numeric stays text.
	assert.Equal(t, core.CellText, got.Cell(1, 0).Kind)
	assert.Equal(t, "00123", got.Cell(1, 0).Str)

	assert.True(t, got.Cell(1, 2).IsNumber())
	assert.True(t, got.Cell(1, 2).Num.Equal(decimal.RequireFromString("12.5")))

	assert.True(t, got.Cell(2, 1).IsEmpty())
	assert.True(t, got.Cell(2, 2).IsNumber())
	assert.Equal(t, "8308000123", got.Cell(2, 2).String())

	// Integers past int64 are written as doubles, never wrapped.
	big := got.Cell(3, 2)
	require.True(t, big.IsNumber())
	assert.True(t, big.Num.IsPositive())
	assert.Equal(t, 1.2345678901234568e23, big.Num.InexactFloat64())
}

func TestEncode_SheetName(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Encode(&buf, sampleTable(), "Merged"))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, "Merged", f.GetSheetName(0))
}

func TestEncode_DefaultSheetName(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Encode(&buf, sampleTable(), ""))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, DefaultSheetName, f.GetSheetName(0))
}

func TestDecode_ReadsFirstSheetOnly(t *testing.T) {
	f := excelize.NewFile()
	require.NoError(t, f.SetCellValue("Sheet1", "A1", "first"))
	_, err := f.NewSheet("Other")
	require.NoError(t, err)
	require.NoError(t, f.SetCellValue("Other", "A1", "second"))

	var buf bytes.Buffer
	require.NoError(t, f.Write(&buf))
	f.Close()

	got, err := Decode(&buf)
	require.NoError(t, err)
	assert.Equal(t, "first", got.Cell(0, 0).String())
}

func TestDecode_NumericCells(t *testing.T) {
	f := excelize.NewFile()
	require.NoError(t, f.SetCellValue("Sheet1", "A1", 42))
	require.NoError(t, f.SetCellValue("Sheet1", "B1", 0.0175))
	require.NoError(t, f.SetCellValue("Sheet1", "C1", "42"))

	var buf bytes.Buffer
	require.NoError(t, f.Write(&buf))
	f.Close()

	got, err := Decode(&buf)
	require.NoError(t, err)

	assert.True(t, got.Cell(0, 0).IsNumber())
	assert.Equal(t, "42", got.Cell(0, 0).String())
	assert.True(t, got.Cell(0, 1).IsNumber())
	assert.Equal(t, core.CellText, got.Cell(0, 2).Kind)
}

func TestDecode_Invalid(t *testing.T) {
	_, err := Decode(strings.NewReader("not a workbook"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid spreadsheet")
	assert.Equal(t, "FILE002", core.MapError(err).Code)
}

func TestEncodeFile_DecodeFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.xlsx")
	require.NoError(t, EncodeFile(path, sampleTable(), "Merged"))

	got, err := DecodeFile(path)
	require.NoError(t, err)
	assert.Len(t, got, 4)
	assert.Equal(t, "Widget", got.Cell(1, 1).String())
}

func TestDecodeFile_Missing(t *testing.T) {
	_, err := DecodeFile(filepath.Join(t.TempDir(), "missing.xlsx"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid spreadsheet")
}

func TestDecode_InvalidIsSentinel(t *testing.T) {
	_, err := Decode(bytes.NewReader([]byte{0x50, 0x4b, 0x03}))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidWorkbook)
}

func TestCountingReader(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Encode(&buf, sampleTable(), ""))
	size := int64(buf.Len())

	cr := &countingReader{r: &buf}
	f, err := excelize.OpenReader(cr)
	require.NoError(t, err)
	defer f.Close()
	assert.Equal(t, size, cr.n)
}
