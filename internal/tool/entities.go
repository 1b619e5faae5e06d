// SPDX-License-Identifier: Apache-2.0

package tool

import (
	"context"
	"errors"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/nmmflow/idp-mcp/internal/entity"
)

var ErrInvalidFieldID = errors.New("exactly one of index or field_name is required")

// MetadataListEntities describes the list_entities tool.
var MetadataListEntities = &mcp.Tool{
	Name: "list_entities",
	Description: "Parse an extraction result and list every extracted entity with the key " +
		"that edits and deletions for it must use. Accepts both the array shape " +
		"(section -> [{entity_type, entity_value, confidence}]) and the map shape " +
		"(section -> {field: {value, confidence}}).",
}

type InputListEntities struct {
	Content  string `json:"content" jsonschema:"Raw JSON or YAML extraction result"`
	Format   string `json:"format,omitempty" jsonschema:"Shape hint: array or map. Detected when omitted."`
	SourceID string `json:"source_id,omitempty" jsonschema:"Optional document identifier"`
}

type OutputListEntities struct {
	Shape      string          `json:"shape"`
	ParserUsed string          `json:"parser_used"`
	Entities   []entity.Entity `json:"entities"`
}

func (t *Toolset) ListEntities(ctx context.Context, _ *mcp.CallToolRequest, input InputListEntities) (*mcp.CallToolResult, OutputListEntities, error) {
	result, err := t.parse(ctx, input.Content, input.Format, input.SourceID)
	if err != nil {
		return nil, OutputListEntities{}, err
	}

	entities := result.Extraction.Entities()
	if entities == nil {
		entities = []entity.Entity{}
	}
	return nil, OutputListEntities{
		Shape:      result.Extraction.Shape.String(),
		ParserUsed: result.ParserUsed,
		Entities:   entities,
	}, nil
}

// MetadataComputeEntityKey describes the compute_entity_key tool.
var MetadataComputeEntityKey = &mcp.Tool{
	Name:        "compute_entity_key",
	Description: "Compute the entity key for a section and either a zero-based index (array shape) or a field name (map shape).",
}

type InputComputeEntityKey struct {
	Section   string `json:"section" jsonschema:"Section name as it appears in the extraction"`
	Index     *int   `json:"index,omitempty" jsonschema:"Zero-based position of the entity in an array-shaped section"`
	FieldName string `json:"field_name,omitempty" jsonschema:"Field name in a map-shaped section"`
}

type OutputComputeEntityKey struct {
	Key string `json:"key"`
}

func (t *Toolset) ComputeEntityKey(_ context.Context, _ *mcp.CallToolRequest, input InputComputeEntityKey) (*mcp.CallToolResult, OutputComputeEntityKey, error) {
	if input.Section == "" {
		return nil, OutputComputeEntityKey{}, fmt.Errorf("section is required")
	}

	var id entity.FieldID
	switch {
	case input.Index != nil && input.FieldName == "":
		if *input.Index < 0 {
			return nil, OutputComputeEntityKey{}, fmt.Errorf("index must not be negative")
		}
		id = entity.Index(*input.Index)
	case input.Index == nil && input.FieldName != "":
		id = entity.Name(input.FieldName)
	default:
		return nil, OutputComputeEntityKey{}, ErrInvalidFieldID
	}

	return nil, OutputComputeEntityKey{Key: string(entity.ComputeEntityKey(input.Section, id))}, nil
}
