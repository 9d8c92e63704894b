package parser

import (
	"fmt"
	"sort"
	"sync"

	"github.com/xeipuuv/gojsonschema"

	"docfill/internal/domain"
)

var (
	schemaMu    sync.Mutex
	schemaCache = map[domain.DocumentType]*gojsonschema.Schema{}
)

// fieldSchema returns the compiled JSON schema for a known document type:
// every declared key required, every value a string, nothing else allowed.
func fieldSchema(d DocumentSpec) (*gojsonschema.Schema, error) {
	schemaMu.Lock()
	defer schemaMu.Unlock()

	if s, ok := schemaCache[d.Tag]; ok {
		return s, nil
	}

	properties := make(map[string]interface{}, len(d.Fields))
	for _, f := range d.Fields {
		properties[f.Key] = map[string]interface{}{"type": "string"}
	}
	def := map[string]interface{}{
		"$schema":              "http://json-schema.org/draft-07/schema#",
		"type":                 "object",
		"required":             d.FieldKeys(),
		"properties":           properties,
		"additionalProperties": false,
	}

	s, err := gojsonschema.NewSchema(gojsonschema.NewGoLoader(def))
	if err != nil {
		return nil, fmt.Errorf("compiling schema for %s: %w", d.Tag, err)
	}
	schemaCache[d.Tag] = s
	return s, nil
}

// CheckFields validates extracted fields against the declared field set of
// docType. Missing keys are added with an empty value; unexpected keys are
// kept. Both are reported as issues, sorted by field name. Unknown document
// types have no declared set and are returned unchanged.
func CheckFields(docType domain.DocumentType, fields domain.FieldMap) (domain.FieldMap, []domain.FieldIssue, error) {
	d, ok := LookupDocumentType(docType)
	if !ok {
		return fields, nil, nil
	}

	s, err := fieldSchema(d)
	if err != nil {
		return fields, nil, err
	}

	doc := make(map[string]interface{}, len(fields))
	for k, v := range fields {
		doc[k] = v
	}
	result, err := s.Validate(gojsonschema.NewGoLoader(doc))
	if err != nil {
		return fields, nil, fmt.Errorf("validating %s fields: %w", docType, err)
	}
	if result.Valid() {
		return fields, nil, nil
	}

	out := fields.Clone()
	if out == nil {
		out = domain.FieldMap{}
	}
	var issues []domain.FieldIssue
	for _, re := range result.Errors() {
		property, _ := re.Details()["property"].(string)
		switch re.Type() {
		case "required":
			out[property] = ""
			issues = append(issues, domain.FieldIssue{Field: property, Kind: domain.FieldIssueMissing})
		case "additional_property_not_allowed":
			issues = append(issues, domain.FieldIssue{Field: property, Kind: domain.FieldIssueUnexpected})
		}
	}

	sort.Slice(issues, func(i, j int) bool { return issues[i].Field < issues[j].Field })
	return out, issues, nil
}
