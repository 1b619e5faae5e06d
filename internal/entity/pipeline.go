// SPDX-License-Identifier: Apache-2.0

package entity

import (
	"context"
	"errors"
	"fmt"
)

var (
	// ErrUnsupportedShape is returned when no registered parser accepts a source.
	ErrUnsupportedShape = errors.New("unsupported extraction shape")
	// ErrShapeMismatch is returned when a parser yields an Extraction whose
	// Shape differs from the one it declares. Keys derived from such an
	// extraction would use the wrong suffix.
	ErrShapeMismatch = errors.New("extraction shape mismatch")
)

// Pipeline picks a parser for a source and checks what it returns before the
// extraction is handed to the Reconciler.
type Pipeline struct {
	parsers []Parser
}

// NewPipeline creates a new Pipeline with the provided parsers.
func NewPipeline(parsers ...Parser) *Pipeline {
	return &Pipeline{parsers: parsers}
}

// RunResult is the output of a successful pipeline run.
type RunResult struct {
	Extraction Extraction
	ParserUsed string
	FieldCount int
	// MalformedSections names sections whose value did not match the shape.
	MalformedSections []string
}

func (p *Pipeline) Run(ctx context.Context, source Source) (Extraction, error) {
	result, err := p.RunWithMeta(ctx, source)
	if err != nil {
		return Extraction{}, err
	}
	return result.Extraction, nil
}

func (p *Pipeline) RunWithMeta(ctx context.Context, source Source) (RunResult, error) {
	parser, err := p.selectParser(source)
	if err != nil {
		return RunResult{}, err
	}

	ex, err := parser.Parse(ctx, source)
	if err != nil {
		return RunResult{}, fmt.Errorf("parser %q failed: %w", parser.Name(), err)
	}
	if err := checkExtraction(parser, ex); err != nil {
		return RunResult{}, err
	}

	return RunResult{
		Extraction:        ex,
		ParserUsed:        parser.Name(),
		FieldCount:        ex.FieldCount(),
		MalformedSections: ex.MalformedSections(),
	}, nil
}

// checkExtraction rejects output that would derive keys the editor never saw:
// a shape other than the parser's, or fields inside a section the parser
// flagged as malformed.
func checkExtraction(parser Parser, ex Extraction) error {
	if ex.Shape != parser.Shape() {
		return fmt.Errorf("%w: parser %q declares %s, returned %s", ErrShapeMismatch, parser.Name(), parser.Shape(), ex.Shape)
	}
	for _, sec := range ex.Sections {
		if sec.Malformed && len(sec.Fields) > 0 {
			return fmt.Errorf("parser %q returned %d fields for malformed section %q", parser.Name(), len(sec.Fields), sec.Name)
		}
	}
	return nil
}

// selectParser returns the first registered parser that can handle the given source.
func (p *Pipeline) selectParser(source Source) (Parser, error) {
	for _, parser := range p.parsers {
		if parser.CanHandle(source) {
			return parser, nil
		}
	}
	return nil, fmt.Errorf("%w: no parser found for source %q (format hint: %q)", ErrUnsupportedShape, source.ID, source.Format)
}

// RegisteredParsers returns the names of all currently registered parsers.
func (p *Pipeline) RegisteredParsers() []string {
	names := make([]string, len(p.parsers))
	for i, parser := range p.parsers {
		names[i] = parser.Name()
	}
	return names
}
