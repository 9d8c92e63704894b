package parser

import (
	"fmt"
	"strings"

	"docfill/internal/domain"
)

// BuildPrompt returns the extraction instructions for a document type: the
// fixed JSON-only preamble followed by the type's field clause. Unknown tags
// get the generic clause.
func BuildPrompt(docType domain.DocumentType) string {
	c := loadCatalog()
	clause := c.Generic
	if d, ok := c.byTag[docType]; ok {
		clause = fieldClause(d.Fields)
	}
	return c.Preamble + " " + clause
}

// fieldClause renders "a as 'x', b as 'y', and c as 'z'."
func fieldClause(fields []FieldSpec) string {
	parts := make([]string, len(fields))
	for i, f := range fields {
		parts[i] = fmt.Sprintf("%s as '%s'", f.Description, f.Key)
	}

	switch len(parts) {
	case 1:
		return parts[0] + "."
	case 2:
		return parts[0] + " and " + parts[1] + "."
	default:
		return strings.Join(parts[:len(parts)-1], ", ") + ", and " + parts[len(parts)-1] + "."
	}
}
