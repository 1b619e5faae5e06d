// SPDX-License-Identifier: Apache-2.0

package parsers

import (
	"context"
	"strings"

	"github.com/goccy/go-yaml"

	"github.com/nmmflow/idp-mcp/internal/entity"
)

// ArrayShapeParser reads extractions where each section holds a list of
// {entity_type, entity_value, confidence} records. Every list element keeps
// its position, including malformed ones, so index-based keys stay aligned
// with what the reviewer saw.
type ArrayShapeParser struct{}

// NewArrayShapeParser creates a new ArrayShapeParser.
func NewArrayShapeParser() *ArrayShapeParser {
	return &ArrayShapeParser{}
}

func (p *ArrayShapeParser) Name() string {
	return "array"
}

func (p *ArrayShapeParser) Shape() entity.Shape {
	return entity.ArrayShape
}

// CanHandle returns true for the "array" format hint, or when the first
// non-empty section of the document is a list. Without a hint it also claims
// documents with no populated sections, which reconcile to an empty payload,
// and documents that fail to decode, so that Parse reports the decode error.
func (p *ArrayShapeParser) CanHandle(source entity.Source) bool {
	switch strings.ToLower(source.Format) {
	case "array", "entities":
		return true
	case "":
		l, err := detect(source.Content)
		return err != nil || l == layoutArray || l == layoutEmpty
	}
	return false
}

func (p *ArrayShapeParser) Parse(_ context.Context, source entity.Source) (entity.Extraction, error) {
	doc, err := decode(source.Content)
	if err != nil {
		return entity.Extraction{}, err
	}

	ex := entity.Extraction{Shape: entity.ArrayShape}
	for _, item := range doc {
		sec := entity.Section{Name: sectionName(item.Key)}
		records, ok := item.Value.([]interface{})
		if !ok && item.Value != nil {
			sec.Malformed = true
		}
		for _, rec := range records {
			sec.Fields = append(sec.Fields, p.parseRecord(rec))
		}
		ex.Sections = append(ex.Sections, sec)
	}
	return ex, nil
}

func (p *ArrayShapeParser) parseRecord(rec interface{}) entity.Field {
	m, ok := rec.(yaml.MapSlice)
	if !ok {
		return entity.Field{Malformed: true}
	}

	var f entity.Field
	rawName, _ := lookup(m, "entity_type")
	name, wellFormed := fieldName(rawName)
	f.Name = name
	f.Malformed = !wellFormed

	if v, ok := lookup(m, "entity_value"); ok {
		f.Value, _ = scalar(v)
	}
	f.Confidence = confidence(m)
	return f
}
