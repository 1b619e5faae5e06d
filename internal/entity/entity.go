// SPDX-License-Identifier: Apache-2.0

package entity

import "context"

// Shape identifies which of the two extraction layouts an Extraction came from.
// The shape decides the suffix of every EntityKey derived from it.
type Shape int

const (
	// ArrayShape is section -> [{entity_type, entity_value, confidence}].
	// Keys use the zero-based position of the entity within its section.
	ArrayShape Shape = iota
	// MapShape is section -> {fieldName: {value, confidence}}.
	// Keys use the field name itself.
	MapShape
)

func (s Shape) String() string {
	switch s {
	case ArrayShape:
		return "array"
	case MapShape:
		return "map"
	default:
		return "unknown"
	}
}

// Field is one value lifted from a document by the extraction pipeline.
type Field struct {
	Name       string
	Value      string
	Confidence float64
	// Malformed is set when the source record had no usable field name.
	Malformed bool
}

type Section struct {
	Name   string
	Fields []Field
	// Malformed is set when the section value did not have the layout of the
	// extraction, e.g. an object of fields inside an array-shaped document.
	// Such a section carries no fields.
	Malformed bool
}

// Extraction is the parsed result of one extraction run. Sections and the
// fields inside them keep the order in which they appeared in the document.
type Extraction struct {
	Shape    Shape
	Sections []Section
}

// FieldID returns the identifier used as the key suffix for the field at
// position pos. It is the only place the shape picks index versus name.
func (e Extraction) FieldID(pos int, f Field) FieldID {
	if e.Shape == MapShape {
		return Name(f.Name)
	}
	return Index(pos)
}

// Key returns the EntityKey of the field at (sectionPos, fieldPos).
func (e Extraction) Key(sectionPos, fieldPos int) EntityKey {
	sec := e.Sections[sectionPos]
	return ComputeEntityKey(sec.Name, e.FieldID(fieldPos, sec.Fields[fieldPos]))
}

// Entity is a field together with the section it belongs to and its key.
type Entity struct {
	Key        EntityKey `json:"key"`
	Section    string    `json:"section"`
	Field      string    `json:"field"`
	Value      string    `json:"value"`
	Confidence float64   `json:"confidence"`
	Malformed  bool      `json:"malformed,omitempty"`
}

// Entities lists every field in document order with the key an editor must
// use when recording overrides or deletions for it.
func (e Extraction) Entities() []Entity {
	var out []Entity
	for si, sec := range e.Sections {
		for fi, f := range sec.Fields {
			out = append(out, Entity{
				Key:        e.Key(si, fi),
				Section:    sec.Name,
				Field:      f.Name,
				Value:      f.Value,
				Confidence: f.Confidence,
				Malformed:  f.Malformed,
			})
		}
	}
	return out
}

// MalformedSections returns the names of sections flagged as Malformed.
func (e Extraction) MalformedSections() []string {
	var names []string
	for _, sec := range e.Sections {
		if sec.Malformed {
			names = append(names, sec.Name)
		}
	}
	return names
}

// FieldCount returns the total number of fields across all sections.
func (e Extraction) FieldCount() int {
	n := 0
	for _, sec := range e.Sections {
		n += len(sec.Fields)
	}
	return n
}

// Source describes a raw extraction document handed to the Pipeline.
type Source struct {
	// Content is the raw JSON or YAML document.
	Content []byte
	Format  string
	ID      string
}

type Parser interface {
	CanHandle(source Source) bool
	Parse(ctx context.Context, source Source) (Extraction, error)
	Name() string
	// Shape is the layout every Extraction returned by Parse must carry.
	Shape() Shape
}
