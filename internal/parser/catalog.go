package parser

import (
	_ "embed"
	"fmt"
	"sync"

	"gopkg.in/yaml.v3"

	"docfill/internal/domain"
)

//go:embed catalog.yaml
var catalogYAML []byte

// FieldSpec is one field the model is asked to extract.
type FieldSpec struct {
	Key         string `yaml:"key" json:"key"`
	Description string `yaml:"description" json:"description"`
}

// DocumentSpec describes a known document type and its declared fields.
type DocumentSpec struct {
	Tag    domain.DocumentType `yaml:"tag" json:"tag"`
	Label  string              `yaml:"label" json:"label"`
	Fields []FieldSpec         `yaml:"fields" json:"fields"`
}

// FieldKeys returns the declared keys in catalog order.
func (d DocumentSpec) FieldKeys() []string {
	keys := make([]string, len(d.Fields))
	for i, f := range d.Fields {
		keys[i] = f.Key
	}
	return keys
}

type catalog struct {
	Preamble  string         `yaml:"preamble"`
	Generic   string         `yaml:"generic"`
	Documents []DocumentSpec `yaml:"documents"`

	byTag map[domain.DocumentType]DocumentSpec
}

var (
	catalogOnce sync.Once
	loaded      *catalog
)

func loadCatalog() *catalog {
	catalogOnce.Do(func() {
		c, err := parseCatalog(catalogYAML)
		if err != nil {
			panic(fmt.Sprintf("parser: embedded catalog is invalid: %v", err))
		}
		loaded = c
	})
	return loaded
}

func parseCatalog(data []byte) (*catalog, error) {
	var c catalog
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("decoding catalog: %w", err)
	}
	if c.Preamble == "" || c.Generic == "" {
		return nil, fmt.Errorf("catalog must define preamble and generic clause")
	}

	c.byTag = make(map[domain.DocumentType]DocumentSpec, len(c.Documents))
	for _, d := range c.Documents {
		if d.Tag == "" || len(d.Fields) == 0 {
			return nil, fmt.Errorf("catalog entry %q has no tag or no fields", d.Tag)
		}
		if _, dup := c.byTag[d.Tag]; dup {
			return nil, fmt.Errorf("duplicate catalog entry %q", d.Tag)
		}
		seen := make(map[string]bool, len(d.Fields))
		for _, f := range d.Fields {
			if f.Key == "" || seen[f.Key] {
				return nil, fmt.Errorf("catalog entry %q has an empty or duplicate field key %q", d.Tag, f.Key)
			}
			seen[f.Key] = true
		}
		c.byTag[d.Tag] = d
	}
	return &c, nil
}

// LookupDocumentType returns the catalog entry for tag, if it is a known type.
func LookupDocumentType(tag domain.DocumentType) (DocumentSpec, bool) {
	d, ok := loadCatalog().byTag[tag]
	return d, ok
}

// DocumentTypes lists the known document types in catalog order.
func DocumentTypes() []DocumentSpec {
	docs := loadCatalog().Documents
	out := make([]DocumentSpec, len(docs))
	copy(out, docs)
	return out
}

// Label returns the display label for tag, falling back to the humanized tag
// for unknown types.
func Label(tag domain.DocumentType) string {
	if d, ok := LookupDocumentType(tag); ok {
		return d.Label
	}
	return tag.Humanize()
}
