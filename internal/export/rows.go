// Package export renders a session record as CSV or XLSX for download.
package export

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"docfill/internal/domain"
	"docfill/internal/parser"
)

// Format is a supported export format.
type Format string

const (
	FormatCSV  Format = "csv"
	FormatXLSX Format = "xlsx"
)

// ParseFormat validates a format query value. Empty means XLSX.
func ParseFormat(s string) (Format, error) {
	switch Format(strings.ToLower(strings.TrimSpace(s))) {
	case "", FormatXLSX:
		return FormatXLSX, nil
	case FormatCSV:
		return FormatCSV, nil
	default:
		return "", fmt.Errorf("%w: %q", domain.ErrUnsupportedExportFmt, s)
	}
}

// ContentType returns the MIME type of the format.
func (f Format) ContentType() string {
	if f == FormatCSV {
		return "text/csv; charset=utf-8"
	}
	return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
}

// orderedKeys lists declared fields in catalog order first, then any extra
// keys sorted.
func orderedKeys(docType domain.DocumentType, fields domain.FieldMap) []string {
	keys := make([]string, 0, len(fields))
	seen := make(map[string]bool, len(fields))
	if d, ok := parser.LookupDocumentType(docType); ok {
		for _, k := range d.FieldKeys() {
			if _, present := fields[k]; present {
				keys = append(keys, k)
				seen[k] = true
			}
		}
	}
	for _, k := range fields.Keys() {
		if !seen[k] {
			keys = append(keys, k)
		}
	}
	return keys
}

// nonAlphanumeric matches characters that are not alphanumeric, hyphen, or underscore.
var nonAlphanumeric = regexp.MustCompile(`[^a-zA-Z0-9_-]+`)

// BuildFilename returns a Content-Disposition-safe file name,
// e.g. "session-data_2024-01-31.xlsx".
func BuildFilename(prefix string, f Format, now time.Time) string {
	s := strings.Trim(nonAlphanumeric.ReplaceAllString(prefix, "_"), "_")
	if s == "" {
		s = "session-data"
	}
	return fmt.Sprintf("%s_%s.%s", s, now.Format("2006-01-02"), f)
}

// neutralizeFormula quotes a CSV cell that a spreadsheet would otherwise
// evaluate as a formula.
func neutralizeFormula(v string) string {
	if v != "" && strings.ContainsRune("=+-@\t\r", rune(v[0])) {
		return "'" + v
	}
	return v
}
