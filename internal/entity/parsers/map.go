// SPDX-License-Identifier: Apache-2.0

package parsers

import (
	"context"
	"strings"

	"github.com/goccy/go-yaml"

	"github.com/nmmflow/idp-mcp/internal/entity"
)

// MapShapeParser reads extractions where each section is an object keyed by
// field name, each field holding {value, confidence}. A field given as a bare
// scalar is accepted as its value.
type MapShapeParser struct{}

// NewMapShapeParser creates a new MapShapeParser.
func NewMapShapeParser() *MapShapeParser {
	return &MapShapeParser{}
}

func (p *MapShapeParser) Name() string {
	return "map"
}

func (p *MapShapeParser) Shape() entity.Shape {
	return entity.MapShape
}

func (p *MapShapeParser) CanHandle(source entity.Source) bool {
	switch strings.ToLower(source.Format) {
	case "map", "fields":
		return true
	case "":
		l, err := detect(source.Content)
		return err == nil && l == layoutMap
	}
	return false
}

func (p *MapShapeParser) Parse(_ context.Context, source entity.Source) (entity.Extraction, error) {
	doc, err := decode(source.Content)
	if err != nil {
		return entity.Extraction{}, err
	}

	ex := entity.Extraction{Shape: entity.MapShape}
	for _, item := range doc {
		sec := entity.Section{Name: sectionName(item.Key)}
		fields, ok := item.Value.(yaml.MapSlice)
		if !ok && item.Value != nil {
			sec.Malformed = true
		}
		for _, fi := range fields {
			sec.Fields = append(sec.Fields, p.parseField(fi))
		}
		ex.Sections = append(ex.Sections, sec)
	}
	return ex, nil
}

func (p *MapShapeParser) parseField(item yaml.MapItem) entity.Field {
	name, wellFormed := fieldName(item.Key)
	f := entity.Field{Name: name, Malformed: !wellFormed}

	switch v := item.Value.(type) {
	case yaml.MapSlice:
		if raw, ok := lookup(v, "value"); ok {
			f.Value, _ = scalar(raw)
		}
		f.Confidence = confidence(v)
	default:
		f.Value, _ = scalar(v)
	}
	return f
}
