// SPDX-License-Identifier: Apache-2.0

package tool

import (
	"context"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/nmmflow/idp-mcp/internal/entity"
)

// MetadataReconcileEntities describes the reconcile_entities tool.
var MetadataReconcileEntities = &mcp.Tool{
	Name: "reconcile_entities",
	Description: "Merge an extraction result with reviewer edits and deletions and return the flat " +
		"field payload for the claims system. Edits and deletions come from an open session, " +
		"from the request, or both; request values take precedence. Deleted entities never " +
		"appear, blank values are dropped, and when two entities map to the same target field " +
		"the one visited last under the section order wins (reported in collisions). " +
		"extracted_field_count counts fields read from the document and payload_field_count " +
		"the distinct target fields delivered; a wide gap, or any malformed_sections, points " +
		"at an extraction worth a second look.",
	InputSchema: map[string]interface{}{
		"type":     "object",
		"required": []string{"content"},
		"properties": map[string]interface{}{
			"content": map[string]interface{}{
				"type":        "string",
				"description": "Raw JSON or YAML extraction result",
			},
			"format": map[string]interface{}{
				"type":        "string",
				"description": "Shape hint for the extraction. If omitted, auto-detection is used.",
				"enum":        []string{"array", "map"},
			},
			"source_id": map[string]interface{}{
				"type":        "string",
				"description": "Optional document identifier.",
			},
			"session_id": map[string]interface{}{
				"type":        "string",
				"description": "Session whose edits and deletions apply.",
			},
			"overrides": map[string]interface{}{
				"type":                 "object",
				"description":          "Entity key to replacement value.",
				"additionalProperties": map[string]interface{}{"type": "string"},
			},
			"deletions": map[string]interface{}{
				"type":        "array",
				"description": "Entity keys to remove from the payload.",
				"items":       map[string]interface{}{"type": "string"},
			},
			"order": map[string]interface{}{
				"type":        "string",
				"description": "Section order deciding which entity wins a target field collision.",
				"enum":        []string{"document", "reverse", "alphabetical", "priority", "priority-last"},
			},
		},
	},
}

type InputReconcileEntities struct {
	Content   string            `json:"content"`
	Format    string            `json:"format"`
	SourceID  string            `json:"source_id"`
	SessionID string            `json:"session_id"`
	Overrides map[string]string `json:"overrides"`
	Deletions []string          `json:"deletions"`
	Order     string            `json:"order"`
}

type OutputReconcileEntities struct {
	Payload       entity.Payload        `json:"payload"`
	ParserUsed    string                `json:"parser_used"`
	Order         string                `json:"order"`
	Contributions []entity.Contribution `json:"contributions"`
	Skipped       []entity.Skip         `json:"skipped"`
	Collisions    []entity.Collision    `json:"collisions"`
	KeyConflicts  []string              `json:"key_conflicts"`
	// MalformedSections names sections whose value did not match the
	// detected shape. They contribute nothing to the payload.
	MalformedSections   []string `json:"malformed_sections"`
	SectionCount        int      `json:"section_count"`
	ExtractedFieldCount int      `json:"extracted_field_count"`
	PayloadFieldCount   int      `json:"payload_field_count"`
}

func (t *Toolset) ReconcileEntities(ctx context.Context, _ *mcp.CallToolRequest, input InputReconcileEntities) (*mcp.CallToolResult, OutputReconcileEntities, error) {
	parsed, err := t.parse(ctx, input.Content, input.Format, input.SourceID)
	if err != nil {
		return nil, OutputReconcileEntities{}, err
	}

	overrides := make(entity.OverrideSet)
	deletions := make(entity.DeletionSet)
	if input.SessionID != "" {
		sess, err := t.sessions.Get(input.SessionID)
		if err != nil {
			return nil, OutputReconcileEntities{}, err
		}
		overrides, deletions = sess.Snapshot()
	}
	for k, v := range input.Overrides {
		overrides[entity.EntityKey(k)] = v
	}
	for _, k := range input.Deletions {
		deletions[entity.EntityKey(k)] = struct{}{}
	}

	r := t.reconciler
	if input.Order != "" {
		order, err := entity.ParseOrder(input.Order, t.prioritySections)
		if err != nil {
			return nil, OutputReconcileEntities{}, err
		}
		r = r.With(entity.WithOrder(order))
	}

	res := r.ReconcileWithMeta(parsed.Extraction, overrides, deletions)
	if t.validate {
		if err := entity.ValidatePayload(res.Payload); err != nil {
			return nil, OutputReconcileEntities{}, err
		}
	}
	t.logger.Info().
		Str("source", input.SourceID).
		Str("order", res.Order).
		Int("payload_fields", len(res.Payload)).
		Int("collisions", len(res.Collisions)).
		Strs("malformed_sections", parsed.MalformedSections).
		Msg("entities reconciled")

	out := OutputReconcileEntities{
		Payload:       res.Payload,
		ParserUsed:    parsed.ParserUsed,
		Order:         res.Order,
		Contributions: nonNil(res.Contributions),
		Skipped:       nonNil(res.Skipped),
		Collisions:    nonNil(res.Collisions),
		KeyConflicts:  make([]string, 0, len(res.KeyConflicts)),

		MalformedSections:   nonNil(parsed.MalformedSections),
		SectionCount:        res.SectionCount,
		ExtractedFieldCount: res.FieldCount,
		PayloadFieldCount:   len(res.Payload),
	}
	for _, k := range res.KeyConflicts {
		out.KeyConflicts = append(out.KeyConflicts, string(k))
	}
	return nil, out, nil
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
