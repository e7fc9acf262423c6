// Package codec decodes uploaded spreadsheet files into header-keyed string
// records and encodes records back into a single-sheet workbook.
//
// Decoding follows a "first row is the header" convention and returns every
// cell as a display string: numbers keep their formatted text and cells
// carrying a date number format are rendered as YYYY-MM-DD.
package codec

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"unicode/utf8"
)

// DefaultSheetName is the sheet name used when a Sheet has none.
const DefaultSheetName = "Sheet1"

// emptyHeader names columns whose header cell is blank.
const emptyHeader = "__EMPTY"

var (
	// ErrEmptyFile is returned when the uploaded file has no content.
	ErrEmptyFile = errors.New("empty file")

	// ErrUnsupportedFormat is returned for files that are neither an OOXML
	// workbook nor delimited text.
	ErrUnsupportedFormat = errors.New("unsupported format")

	// ErrInvalidSpreadsheet wraps decoder failures for malformed files.
	ErrInvalidSpreadsheet = errors.New("invalid spreadsheet")

	// ErrWorkbookTooLarge is returned when an xlsx inflates past the unzip
	// limit.
	ErrWorkbookTooLarge = errors.New("file too large once unpacked")
)

// Format identifies a supported input format.
type Format string

const (
	FormatXLSX Format = "xlsx"
	FormatCSV  Format = "csv"
	FormatTSV  Format = "tsv"
)

// Sheet is the decoded (or to-be-encoded) content of one worksheet.
type Sheet struct {
	Name   string
	Header []string
	Rows   [][]string

	// Widths are column widths in characters, indexed like Header.
	// Only used when encoding.
	Widths []float64
}

// Codec decodes uploaded files and encodes exports.
type Codec interface {
	Decode(name string, data []byte) (*Sheet, error)
	Encode(w io.Writer, sheet *Sheet) error
}

// DefaultUnzipLimit caps the unpacked size of an xlsx upload when no
// WithUnzipLimit option is given.
const DefaultUnzipLimit int64 = 512 << 20

// Spreadsheet is the default Codec: xlsx through excelize, csv/tsv through
// encoding/csv.
type Spreadsheet struct {
	unzipLimit int64
}

// Option configures a Spreadsheet.
type Option func(*Spreadsheet)

// WithUnzipLimit bounds how many bytes an xlsx may inflate to while it is
// opened. Non-positive values keep the default.
func WithUnzipLimit(n int64) Option {
	return func(c *Spreadsheet) {
		if n > 0 {
			c.unzipLimit = n
		}
	}
}

// New returns the default codec.
func New(opts ...Option) *Spreadsheet {
	c := &Spreadsheet{unzipLimit: DefaultUnzipLimit}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

var (
	zipMagic = []byte("PK\x03\x04")
	oleMagic = []byte{0xD0, 0xCF, 0x11, 0xE0, 0xA1, 0xB1, 0x1A, 0xE1}
)

// DetectFormat picks a decoder from the file signature, falling back to the
// file extension and finally to a text sniff.
func DetectFormat(name string, data []byte) (Format, error) {
	switch {
	case bytes.HasPrefix(data, zipMagic):
		return FormatXLSX, nil
	case bytes.HasPrefix(data, oleMagic):
		return "", fmt.Errorf("%w: legacy .xls or encrypted workbook", ErrUnsupportedFormat)
	}

	switch strings.ToLower(filepath.Ext(name)) {
	case ".tsv", ".tab":
		return FormatTSV, nil
	case ".csv", ".txt":
		return FormatCSV, nil
	case ".xlsx", ".xlsm", ".xltx", ".xltm":
		return "", fmt.Errorf("%w: %s is not a valid workbook", ErrInvalidSpreadsheet, name)
	}

	if looksLikeText(data) {
		return FormatCSV, nil
	}
	return "", fmt.Errorf("%w: %s", ErrUnsupportedFormat, name)
}

// looksLikeText reports whether the first KB is free of NUL bytes and
// decodes as UTF-8 (allowing a cut rune at the boundary).
func looksLikeText(data []byte) bool {
	sample := data
	if len(sample) > 1024 {
		sample = sample[:1024]
	}
	if bytes.IndexByte(sample, 0) >= 0 {
		return false
	}
	for len(sample) > 0 {
		r, size := utf8.DecodeRune(sample)
		if r == utf8.RuneError && size == 1 && len(sample) >= utf8.UTFMax {
			return false
		}
		sample = sample[size:]
	}
	return true
}

// Decode parses the first sheet of data into a Sheet.
func (c *Spreadsheet) Decode(name string, data []byte) (*Sheet, error) {
	if len(data) == 0 {
		return nil, ErrEmptyFile
	}

	format, err := DetectFormat(name, data)
	if err != nil {
		return nil, err
	}

	switch format {
	case FormatXLSX:
		return c.decodeXLSX(data)
	case FormatTSV:
		return decodeDelimited(data, '\t')
	default:
		return decodeDelimited(data, ',')
	}
}

// buildSheet applies the header convention to raw records: row one names the
// columns, blank data rows are dropped, and ragged rows are padded so every
// row carries every column.
func buildSheet(name string, records [][]string) *Sheet {
	sheet := &Sheet{Name: name}
	if len(records) == 0 {
		return sheet
	}

	width := 0
	for _, rec := range records {
		if len(rec) > width {
			width = len(rec)
		}
	}

	sheet.Header = headerNames(records[0], width)
	for _, rec := range records[1:] {
		if isBlankRecord(rec) {
			continue
		}
		row := make([]string, width)
		copy(row, rec)
		sheet.Rows = append(sheet.Rows, row)
	}
	return sheet
}

// headerNames fills blank header cells with __EMPTY and suffixes repeated
// names with _1, _2, ... so every column key is unique.
func headerNames(raw []string, width int) []string {
	names := make([]string, width)
	used := make(map[string]bool, width)
	counts := make(map[string]int)

	for i := range names {
		base := ""
		if i < len(raw) {
			base = raw[i]
		}
		if base == "" {
			base = emptyHeader
		}

		candidate := base
		for used[candidate] {
			counts[base]++
			candidate = fmt.Sprintf("%s_%d", base, counts[base])
		}
		used[candidate] = true
		names[i] = candidate
	}
	return names
}

// usedRange trims a sheet grid to the block that holds values: leading
// blank rows go, and so do columns left of the leftmost non-blank cell.
func usedRange(records [][]string) [][]string {
	first := 0
	for first < len(records) && isBlankRecord(records[first]) {
		first++
	}
	records = records[first:]

	left := -1
	for _, rec := range records {
		for i, v := range rec {
			if v != "" {
				if left < 0 || i < left {
					left = i
				}
				break
			}
		}
	}
	if left <= 0 {
		return records
	}

	trimmed := make([][]string, len(records))
	for i, rec := range records {
		if len(rec) > left {
			trimmed[i] = rec[left:]
		}
	}
	return trimmed
}

func isBlankRecord(rec []string) bool {
	for _, v := range rec {
		if v != "" {
			return false
		}
	}
	return true
}
