// SPDX-License-Identifier: Apache-2.0

package entity_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nmmflow/idp-mcp/internal/entity"
)

func TestValidatePayload(t *testing.T) {
	tests := []struct {
		name    string
		payload entity.Payload
		wantErr bool
	}{
		{name: "reconciled payload", payload: entity.Payload{"ClaimNumber": "CL1", "employee_name": "Juan D'Souza"}},
		{name: "empty payload", payload: entity.Payload{}},
		{name: "blank value", payload: entity.Payload{"ClaimNumber": "  "}, wantErr: true},
		{name: "empty value", payload: entity.Payload{"ClaimNumber": ""}, wantErr: true},
		{name: "whitespace in field name", payload: entity.Payload{"claim number": "CL1"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := entity.ValidatePayload(tt.payload)
			if tt.wantErr {
				require.Error(t, err)
				assert.Contains(t, err.Error(), "payload failed validation")
				return
			}
			require.NoError(t, err)
		})
	}
}

func TestValidatePayload_ReconcileOutputAlwaysValid(t *testing.T) {
	ex := entity.Extraction{
		Shape: entity.ArrayShape,
		Sections: []entity.Section{
			{Name: "Claim", Fields: []entity.Field{
				{Name: "Claim ID", Value: "C-1"},
				{Name: "employer name", Value: " "},
				{Name: "Nature Of Injury", Value: "strain"},
			}},
		},
	}
	require.NoError(t, entity.ValidatePayload(entity.Reconcile(ex, nil, nil)))
}
