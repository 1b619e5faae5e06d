// SPDX-License-Identifier: Apache-2.0

package tool

import (
	"context"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/nmmflow/idp-mcp/internal/entity"
)

var MetadataOpenSession = &mcp.Tool{
	Name:        "open_session",
	Description: "Open a review session that collects entity edits and deletions in memory.",
}

var MetadataEditEntity = &mcp.Tool{
	Name:        "edit_entity",
	Description: "Record a replacement value for an entity. A blank value leaves the extracted value in effect.",
}

var MetadataCancelEdit = &mcp.Tool{
	Name:        "cancel_edit",
	Description: "Discard the pending replacement value for an entity.",
}

var MetadataDeleteEntity = &mcp.Tool{
	Name:        "delete_entity",
	Description: "Remove an entity from the payload. Any pending edit for it is discarded.",
}

var MetadataRestoreEntity = &mcp.Tool{
	Name:        "restore_entity",
	Description: "Undo the deletion of an entity.",
}

type InputOpenSession struct{}

type InputEditEntity struct {
	SessionID string `json:"session_id" jsonschema:"Session returned by open_session"`
	Key       string `json:"key" jsonschema:"Entity key from list_entities or compute_entity_key"`
	Value     string `json:"value" jsonschema:"Replacement value"`
}

type InputEntityKey struct {
	SessionID string `json:"session_id" jsonschema:"Session returned by open_session"`
	Key       string `json:"key" jsonschema:"Entity key from list_entities or compute_entity_key"`
}

type OutputRestoreEntity struct {
	Session  SessionState `json:"session"`
	Restored bool         `json:"restored"`
}

func (t *Toolset) OpenSession(_ context.Context, _ *mcp.CallToolRequest, _ InputOpenSession) (*mcp.CallToolResult, SessionState, error) {
	sess := t.sessions.Open()
	t.logger.Info().Str("session", sess.ID()).Msg("session opened")
	return nil, stateOf(sess), nil
}

func (t *Toolset) EditEntity(_ context.Context, _ *mcp.CallToolRequest, input InputEditEntity) (*mcp.CallToolResult, SessionState, error) {
	sess, err := t.session(input.SessionID, input.Key)
	if err != nil {
		return nil, SessionState{}, err
	}
	sess.Override(entity.EntityKey(input.Key), input.Value)
	return nil, stateOf(sess), nil
}

func (t *Toolset) CancelEdit(_ context.Context, _ *mcp.CallToolRequest, input InputEntityKey) (*mcp.CallToolResult, SessionState, error) {
	sess, err := t.session(input.SessionID, input.Key)
	if err != nil {
		return nil, SessionState{}, err
	}
	sess.Cancel(entity.EntityKey(input.Key))
	return nil, stateOf(sess), nil
}

func (t *Toolset) DeleteEntity(_ context.Context, _ *mcp.CallToolRequest, input InputEntityKey) (*mcp.CallToolResult, SessionState, error) {
	sess, err := t.session(input.SessionID, input.Key)
	if err != nil {
		return nil, SessionState{}, err
	}
	sess.Delete(entity.EntityKey(input.Key))
	return nil, stateOf(sess), nil
}

func (t *Toolset) RestoreEntity(_ context.Context, _ *mcp.CallToolRequest, input InputEntityKey) (*mcp.CallToolResult, OutputRestoreEntity, error) {
	sess, err := t.session(input.SessionID, input.Key)
	if err != nil {
		return nil, OutputRestoreEntity{}, err
	}
	restored := sess.Restore(entity.EntityKey(input.Key))
	return nil, OutputRestoreEntity{Session: stateOf(sess), Restored: restored}, nil
}

func (t *Toolset) session(id, key string) (*entity.Session, error) {
	if key == "" {
		return nil, fmt.Errorf("key is required")
	}
	return t.sessions.Get(id)
}
