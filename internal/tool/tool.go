// SPDX-License-Identifier: Apache-2.0

package tool

import (
	"context"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/rs/zerolog"

	"github.com/nmmflow/idp-mcp/internal/entity"
	"github.com/nmmflow/idp-mcp/internal/entity/parsers"
)

// Toolset holds the state shared by the MCP tool handlers.
type Toolset struct {
	pipeline         *entity.Pipeline
	reconciler       *entity.Reconciler
	sessions         *SessionStore
	prioritySections []string
	validate         bool
	logger           zerolog.Logger
}

type ToolsetOption func(*Toolset)

func WithReconciler(r *entity.Reconciler) ToolsetOption {
	return func(t *Toolset) { t.reconciler = r }
}

// WithPrioritySections sets the keywords used when a request names a
// priority order.
func WithPrioritySections(keywords []string) ToolsetOption {
	return func(t *Toolset) { t.prioritySections = keywords }
}

// WithValidation turns the payload delivery check on or off.
func WithValidation(enabled bool) ToolsetOption {
	return func(t *Toolset) { t.validate = enabled }
}

func WithLogger(l zerolog.Logger) ToolsetOption {
	return func(t *Toolset) { t.logger = l }
}

func NewToolset(opts ...ToolsetOption) *Toolset {
	t := &Toolset{
		pipeline:   DefaultPipeline(),
		reconciler: entity.NewReconciler(),
		sessions:   NewSessionStore(),
		validate:   true,
		logger:     zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// DefaultPipeline builds a Pipeline with both extraction shapes registered.
func DefaultPipeline() *entity.Pipeline {
	return entity.NewPipeline(
		parsers.NewArrayShapeParser(),
		parsers.NewMapShapeParser(),
	)
}

// NewServer registers every tool of t on a new MCP server.
func NewServer(t *Toolset, version string) *mcp.Server {
	server := mcp.NewServer(&mcp.Implementation{Name: "idp-mcp", Version: version}, nil)
	mcp.AddTool(server, MetadataListEntities, t.ListEntities)
	mcp.AddTool(server, MetadataComputeEntityKey, t.ComputeEntityKey)
	mcp.AddTool(server, MetadataOpenSession, t.OpenSession)
	mcp.AddTool(server, MetadataEditEntity, t.EditEntity)
	mcp.AddTool(server, MetadataCancelEdit, t.CancelEdit)
	mcp.AddTool(server, MetadataDeleteEntity, t.DeleteEntity)
	mcp.AddTool(server, MetadataRestoreEntity, t.RestoreEntity)
	mcp.AddTool(server, MetadataReconcileEntities, t.ReconcileEntities)
	return server
}

func (t *Toolset) parse(ctx context.Context, content, format, sourceID string) (entity.RunResult, error) {
	if content == "" {
		return entity.RunResult{}, fmt.Errorf("content is required")
	}
	if sourceID == "" {
		sourceID = "unknown"
	}
	return t.pipeline.RunWithMeta(ctx, entity.Source{
		Content: []byte(content),
		Format:  format,
		ID:      sourceID,
	})
}
