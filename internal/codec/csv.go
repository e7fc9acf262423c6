package codec

import (
	"bytes"
	"encoding/csv"
	"fmt"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// decodeDelimited reads comma or tab separated text. A UTF-8 or UTF-16 BOM
// selects the encoding and is dropped; invalid UTF-8 becomes U+FFFD.
func decodeDelimited(data []byte, comma rune) (*Sheet, error) {
	decoder := unicode.BOMOverride(unicode.UTF8.NewDecoder())

	r := csv.NewReader(transform.NewReader(bytes.NewReader(data), decoder))
	r.Comma = comma
	r.FieldsPerRecord = -1
	r.LazyQuotes = true

	records, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSpreadsheet, err)
	}
	return buildSheet(DefaultSheetName, records), nil
}
