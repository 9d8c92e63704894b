package export

import (
	"encoding/csv"
	"io"

	"docfill/internal/domain"
)

// BOM is the UTF-8 byte order mark, written first so Excel on Windows detects the encoding.
var BOM = []byte{0xEF, 0xBB, 0xBF}

var csvHeader = []string{"Document Type", "Field", "Value"}

// WriteCSV writes one row per extracted field, document types sorted.
// Field names and values that start like a formula are quoted with a
// leading apostrophe.
func WriteCSV(w io.Writer, record domain.SessionRecord) error {
	if _, err := w.Write(BOM); err != nil {
		return err
	}

	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return err
	}
	for _, docType := range record.DocumentTypes() {
		fields := record[docType]
		for _, key := range orderedKeys(docType, fields) {
			if err := cw.Write([]string{docType.String(), neutralizeFormula(key), neutralizeFormula(fields[key])}); err != nil {
				return err
			}
		}
	}
	cw.Flush()
	return cw.Error()
}
