package domain

import (
	"sort"
	"strings"
)

// DocumentType is the caller-chosen tag selecting which field set to extract.
type DocumentType string

// Known document types. Any other well-formed tag is accepted and analyzed
// with the generic extraction clause.
const (
	DocTypeIdentityCard         DocumentType = "identity-card"
	DocTypeTaxIDCard            DocumentType = "tax-id-card"
	DocTypeGradeTranscript      DocumentType = "grade-transcript"
	DocTypeCasteCertificate     DocumentType = "caste-certificate"
	DocTypeResidencyCertificate DocumentType = "residency-certificate"
)

// String returns the raw tag.
func (t DocumentType) String() string {
	return string(t)
}

// Humanize turns a tag into readable words, e.g. "tax-id-card" -> "tax id card".
func (t DocumentType) Humanize() string {
	return strings.NewReplacer("-", " ", "_", " ").Replace(string(t))
}

// FieldMap maps an extracted field name to its value. Values are strings and
// may be empty when the model could not find the field.
type FieldMap map[string]string

// Clone returns an independent copy of the map.
func (m FieldMap) Clone() FieldMap {
	if m == nil {
		return nil
	}
	out := make(FieldMap, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// Keys returns the field names in sorted order.
func (m FieldMap) Keys() []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// SessionRecord accumulates the most recent FieldMap per DocumentType for one
// browser session.
type SessionRecord map[DocumentType]FieldMap

// Clone returns a deep copy of the record.
func (r SessionRecord) Clone() SessionRecord {
	if r == nil {
		return nil
	}
	out := make(SessionRecord, len(r))
	for k, v := range r {
		out[k] = v.Clone()
	}
	return out
}

// DocumentTypes returns the document types present in the record in sorted order.
func (r SessionRecord) DocumentTypes() []DocumentType {
	types := make([]DocumentType, 0, len(r))
	for t := range r {
		types = append(types, t)
	}
	sort.Slice(types, func(i, j int) bool { return types[i] < types[j] })
	return types
}

// FieldIssue flags a key that differs from the declared field set of a document type.
type FieldIssue struct {
	Field string         `json:"field"`
	Kind  FieldIssueKind `json:"kind"`
}
