package codec

import (
	"bytes"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"
)

// dateLayout is the display format for date cells.
const dateLayout = "2006-01-02"

// decodeXLSX reads the first worksheet of an OOXML workbook. The header is
// the first row of the sheet's used range, wherever that range starts.
func (c *Spreadsheet) decodeXLSX(data []byte) (*Sheet, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data), excelize.Options{UnzipSizeLimit: c.unzipLimit})
	if err != nil {
		// excelize has no sentinel for this one.
		if strings.Contains(err.Error(), "unzip size exceeds") {
			return nil, fmt.Errorf("%w: limit is %d bytes", ErrWorkbookTooLarge, c.unzipLimit)
		}
		return nil, fmt.Errorf("%w: %v", ErrInvalidSpreadsheet, err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return &Sheet{Name: DefaultSheetName}, nil
	}
	name := sheets[0]

	rows, err := f.GetRows(name)
	if err != nil {
		return nil, fmt.Errorf("%w: read sheet %q: %v", ErrInvalidSpreadsheet, name, err)
	}
	raw, err := f.GetRows(name, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("%w: read sheet %q: %v", ErrInvalidSpreadsheet, name, err)
	}

	dates := newDateResolver(f, name)
	for r, row := range rows {
		for c, shown := range row {
			if r >= len(raw) || c >= len(raw[r]) || raw[r][c] == shown {
				continue
			}
			if d, ok := dates.resolve(c, r, raw[r][c]); ok {
				row[c] = d
			}
		}
	}

	return buildSheet(name, usedRange(rows)), nil
}

// dateResolver renders date-formatted numeric cells as YYYY-MM-DD.
// Style lookups are cached per style id.
type dateResolver struct {
	f        *excelize.File
	sheet    string
	date1904 bool
	isDate   map[int]bool
}

func newDateResolver(f *excelize.File, sheet string) *dateResolver {
	d := &dateResolver{f: f, sheet: sheet, isDate: make(map[int]bool)}
	if props, err := f.GetWorkbookProps(); err == nil && props.Date1904 != nil {
		d.date1904 = *props.Date1904
	}
	return d
}

// resolve takes zero-based column/row indexes and the raw cell value.
func (d *dateResolver) resolve(col, row int, raw string) (string, bool) {
	serial, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return "", false
	}

	cell, err := excelize.CoordinatesToCellName(col+1, row+1)
	if err != nil {
		return "", false
	}
	styleID, err := d.f.GetCellStyle(d.sheet, cell)
	if err != nil {
		return "", false
	}

	isDate, seen := d.isDate[styleID]
	if !seen {
		isDate = d.styleIsDate(styleID)
		d.isDate[styleID] = isDate
	}
	if !isDate {
		return "", false
	}

	t, err := excelize.ExcelDateToTime(serial, d.date1904)
	if err != nil {
		return "", false
	}
	return t.Format(dateLayout), true
}

func (d *dateResolver) styleIsDate(styleID int) bool {
	style, err := d.f.GetStyle(styleID)
	if err != nil || style == nil {
		return false
	}
	if style.CustomNumFmt != nil && *style.CustomNumFmt != "" {
		return IsDateFormatCode(*style.CustomNumFmt)
	}
	return IsBuiltInDateFormat(style.NumFmt)
}

// Encode writes sheet as a single-sheet xlsx workbook.
func (c *Spreadsheet) Encode(w io.Writer, sheet *Sheet) error {
	f := excelize.NewFile()
	defer f.Close()

	name := sheet.Name
	if name == "" {
		name = DefaultSheetName
	}
	if name != DefaultSheetName {
		if err := f.SetSheetName(DefaultSheetName, name); err != nil {
			return fmt.Errorf("rename sheet: %w", err)
		}
	}

	if len(sheet.Header) > 0 {
		header := sheet.Header
		if err := f.SetSheetRow(name, "A1", &header); err != nil {
			return fmt.Errorf("write header: %w", err)
		}
	}

	for i, row := range sheet.Rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return fmt.Errorf("row %d: %w", i+1, err)
		}
		values := row
		if err := f.SetSheetRow(name, cell, &values); err != nil {
			return fmt.Errorf("write row %d: %w", i+1, err)
		}
	}

	for i, width := range sheet.Widths {
		col, err := excelize.ColumnNumberToName(i + 1)
		if err != nil {
			return fmt.Errorf("column %d: %w", i+1, err)
		}
		if width > excelize.MaxColumnWidth {
			width = excelize.MaxColumnWidth
		}
		if err := f.SetColWidth(name, col, col, width); err != nil {
			return fmt.Errorf("set width of column %s: %w", col, err)
		}
	}

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}
