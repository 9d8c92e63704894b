package export

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"docfill/internal/domain"
	"docfill/internal/parser"
)

const maxSheetName = 31

// WriteXLSX writes a workbook with one sheet per document type, each listing
// Field/Value rows. An empty record yields a single empty "Summary" sheet.
func WriteXLSX(w io.Writer, record domain.SessionRecord) error {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	types := record.DocumentTypes()
	if len(types) == 0 {
		if err := f.SetSheetName("Sheet1", "Summary"); err != nil {
			return fmt.Errorf("renaming sheet: %w", err)
		}
		_, err := f.WriteTo(w)
		return err
	}

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("creating header style: %w", err)
	}

	used := make(map[string]bool, len(types))
	for i, docType := range types {
		name := sheetName(docType, used)
		if i == 0 {
			if err := f.SetSheetName("Sheet1", name); err != nil {
				return fmt.Errorf("renaming sheet: %w", err)
			}
		} else if _, err := f.NewSheet(name); err != nil {
			return fmt.Errorf("creating sheet %s: %w", name, err)
		}

		if err := f.SetSheetRow(name, "A1", &[]interface{}{parser.Label(docType)}); err != nil {
			return err
		}
		if err := f.SetSheetRow(name, "A2", &[]interface{}{"Field", "Value"}); err != nil {
			return err
		}
		if err := f.SetCellStyle(name, "A1", "B2", bold); err != nil {
			return err
		}

		fields := record[docType]
		for r, key := range orderedKeys(docType, fields) {
			cell, err := excelize.CoordinatesToCellName(1, r+3)
			if err != nil {
				return err
			}
			if err := f.SetSheetRow(name, cell, &[]interface{}{key, fields[key]}); err != nil {
				return err
			}
		}
		if err := f.SetColWidth(name, "A", "A", 24); err != nil {
			return err
		}
		if err := f.SetColWidth(name, "B", "B", 48); err != nil {
			return err
		}
	}

	_, err = f.WriteTo(w)
	return err
}

// sheetName truncates the tag to Excel's sheet name limit and de-duplicates.
func sheetName(docType domain.DocumentType, used map[string]bool) string {
	base := docType.String()
	if len(base) > maxSheetName {
		base = base[:maxSheetName]
	}
	name := base
	for n := 2; used[name]; n++ {
		suffix := fmt.Sprintf("~%d", n)
		name = base[:min(len(base), maxSheetName-len(suffix))] + suffix
	}
	used[name] = true
	return name
}
