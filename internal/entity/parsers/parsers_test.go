// SPDX-License-Identifier: Apache-2.0

package parsers_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nmmflow/idp-mcp/internal/entity"
	"github.com/nmmflow/idp-mcp/internal/entity/parsers"
)

const arrayShapeJSON = `{
  "CLAIM DETAILS": [
    {"entity_type": "claim_administrator_claim_number", "entity_value": "CL123456", "confidence": 0.97},
    {"entity_type": "date_of_injury", "entity_value": "2024-03-01", "confidence": "88%"}
  ],
  "Employee Info": [
    {"entity_type": "employee_name", "entity_value": "Juan D'Souza"}
  ]
}`

const mapShapeYAML = `
claim_details_section:
  employee_name:
    value: Juan D'Souza
    confidence: "0.91"
  claim_number:
    value: CL123456
employer_section:
  employer_name: Acme Logistics
`

// ---------------------------------------------------------------------------
// Pipeline
// ---------------------------------------------------------------------------

func newPipeline() *entity.Pipeline {
	return entity.NewPipeline(parsers.NewArrayShapeParser(), parsers.NewMapShapeParser())
}

func TestPipeline_RegisteredParsers(t *testing.T) {
	assert.Equal(t, []string{"array", "map"}, newPipeline().RegisteredParsers())
}

func TestPipeline_DetectsShape(t *testing.T) {
	tests := []struct {
		name       string
		source     entity.Source
		wantParser string
		wantShape  entity.Shape
	}{
		{name: "array shape json", source: entity.Source{Content: []byte(arrayShapeJSON), ID: "a.json"}, wantParser: "array", wantShape: entity.ArrayShape},
		{name: "map shape yaml", source: entity.Source{Content: []byte(mapShapeYAML), ID: "b.yaml"}, wantParser: "map", wantShape: entity.MapShape},
		{name: "format hint wins", source: entity.Source{Content: []byte(`{}`), Format: "map", ID: "c.json"}, wantParser: "map", wantShape: entity.MapShape},
		{name: "leading empty section is skipped", source: entity.Source{Content: []byte(`{"empty": null, "s": [{"entity_type": "x", "entity_value": "1"}]}`)}, wantParser: "array", wantShape: entity.ArrayShape},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := newPipeline().RunWithMeta(context.Background(), tt.source)
			require.NoError(t, err)
			assert.Equal(t, tt.wantParser, res.ParserUsed)
			assert.Equal(t, tt.wantShape, res.Extraction.Shape)
		})
	}
}

func TestPipeline_UnsupportedShape(t *testing.T) {
	tests := []struct {
		name   string
		source entity.Source
	}{
		{name: "scalar sections", source: entity.Source{Content: []byte(`{"a": "x"}`), ID: "scalar.json"}},
		{name: "unknown format hint", source: entity.Source{Content: []byte(arrayShapeJSON), Format: "pdf", ID: "doc.pdf"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := newPipeline().Run(context.Background(), tt.source)
			require.Error(t, err)
			assert.ErrorIs(t, err, entity.ErrUnsupportedShape)
		})
	}
}

func TestPipeline_DecodeErrorIsReported(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{name: "truncated json", content: `[1, 2`},
		{name: "top level list", content: `[1, 2]`},
		{name: "unclosed flow mapping", content: `{"claim": [{"entity_type": "x"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := newPipeline().Run(context.Background(), entity.Source{Content: []byte(tt.content), ID: "broken.json"})
			require.Error(t, err)
			assert.NotErrorIs(t, err, entity.ErrUnsupportedShape)
			assert.Contains(t, err.Error(), "failed to parse extraction")
		})
	}
}

func TestPipeline_EmptyExtraction(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{name: "empty object", content: `{}`},
		{name: "null section", content: `{"claim": null}`},
		{name: "empty document", content: ``},
		{name: "yaml null sections", content: "claim:\nemployer: ~\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := newPipeline().RunWithMeta(context.Background(), entity.Source{Content: []byte(tt.content)})
			require.NoError(t, err)
			assert.Equal(t, 0, res.FieldCount)
			assert.Empty(t, res.MalformedSections)
			assert.Empty(t, entity.Reconcile(res.Extraction, nil, nil))
		})
	}
}

func TestPipeline_DuplicateKeys(t *testing.T) {
	t.Run("duplicate field in a map section", func(t *testing.T) {
		content := `{"claim_details_section": {"employee_name": {"value": "A"}, "employee_name": {"value": "B"}, "employer_name": {"value": "Acme"}}}`
		res, err := newPipeline().RunWithMeta(context.Background(), entity.Source{Content: []byte(content)})
		require.NoError(t, err)
		assert.Equal(t, "map", res.ParserUsed)

		fields := res.Extraction.Sections[0].Fields
		require.Len(t, fields, 2, "a repeated key keeps one slot")
		assert.Equal(t, entity.Field{Name: "employee_name", Value: "B"}, fields[0], "last value wins at the first position")
		assert.Equal(t, "employer_name", fields[1].Name)

		assert.Equal(t, entity.Payload{"employee_name": "B", "EmployerName": "Acme"}, entity.Reconcile(res.Extraction, nil, nil))
	})

	t.Run("duplicate section in an array document", func(t *testing.T) {
		content := `{
  "Claim": [{"entity_type": "claim_number", "entity_value": "CL1"}],
  "Employer": [{"entity_type": "employer_name", "entity_value": "Acme"}],
  "Claim": [{"entity_type": "claim_number", "entity_value": "CL2"}, {"entity_type": "date_of_injury", "entity_value": "2024-03-01"}]
}`
		res, err := newPipeline().RunWithMeta(context.Background(), entity.Source{Content: []byte(content)})
		require.NoError(t, err)

		sections := res.Extraction.Sections
		require.Len(t, sections, 2)
		assert.Equal(t, "Claim", sections[0].Name)
		assert.Len(t, sections[0].Fields, 2)
		assert.Equal(t, entity.EntityKey("CLAIM_1"), res.Extraction.Key(0, 1))

		assert.Equal(t, entity.Payload{
			"claim_number": "CL2",
			"LossDate":     "2024-03-01",
			"EmployerName": "Acme",
		}, entity.Reconcile(res.Extraction, nil, nil))
	})
}

func TestPipeline_ScalarsKeepSourceText(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    entity.Payload
	}{
		{name: "leading zero", content: "claim:\n  claim_number: 0123\n", want: entity.Payload{"claim_number": "0123"}},
		{name: "long digit string", content: "claim:\n  claim_number: 12345678901234567890123\n", want: entity.Payload{"claim_number": "12345678901234567890123"}},
		{name: "hex looking", content: "claim:\n  policy_number: 0x1F\n", want: entity.Payload{"PolicyNumber": "0x1F"}},
		{name: "trailing zero decimal", content: "claim:\n  total_paid: 1200.50\n", want: entity.Payload{"total_paid": "1200.50"}},
		{name: "json long number", content: `{"Claim": [{"entity_type": "claim_number", "entity_value": 98765432109876543210}]}`, want: entity.Payload{"claim_number": "98765432109876543210"}},
		{name: "quoted stays as written", content: "claim:\n  claim_number: \"0123\"\n", want: entity.Payload{"claim_number": "0123"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ex, err := newPipeline().Run(context.Background(), entity.Source{Content: []byte(tt.content)})
			require.NoError(t, err)
			assert.Equal(t, tt.want, entity.Reconcile(ex, nil, nil))
		})
	}
}

func TestPipeline_MixedShapeSections(t *testing.T) {
	content := `{"a": [{"entity_type": "employer_name", "entity_value": "Acme"}], "b": {"policy_number": {"value": "P1"}}, "c": "stray"}`
	res, err := newPipeline().RunWithMeta(context.Background(), entity.Source{Content: []byte(content)})
	require.NoError(t, err)
	assert.Equal(t, "array", res.ParserUsed)
	assert.Equal(t, []string{"b", "c"}, res.MalformedSections)

	result := entity.NewReconciler().ReconcileWithMeta(res.Extraction, nil, nil)
	assert.Equal(t, entity.Payload{"EmployerName": "Acme"}, result.Payload)
	assert.Equal(t, []entity.Skip{
		{Section: "b", Reason: entity.SkipMalformed},
		{Section: "c", Reason: entity.SkipMalformed},
	}, result.Skipped)

	ex, err := parsers.NewMapShapeParser().Parse(context.Background(), entity.Source{Content: []byte(content)})
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "c"}, ex.MalformedSections())
	assert.Empty(t, ex.Sections[0].Fields)
}

// ---------------------------------------------------------------------------
// ArrayShapeParser
// ---------------------------------------------------------------------------

func TestArrayShapeParser_Parse(t *testing.T) {
	p := parsers.NewArrayShapeParser()
	ex, err := p.Parse(context.Background(), entity.Source{Content: []byte(arrayShapeJSON), ID: "a.json"})
	require.NoError(t, err)

	require.Len(t, ex.Sections, 2)
	assert.Equal(t, "CLAIM DETAILS", ex.Sections[0].Name)
	assert.Equal(t, "Employee Info", ex.Sections[1].Name)

	claim := ex.Sections[0].Fields
	require.Len(t, claim, 2)
	assert.Equal(t, entity.Field{Name: "claim_administrator_claim_number", Value: "CL123456", Confidence: 0.97}, claim[0])
	assert.InDelta(t, 0.88, claim[1].Confidence, 1e-9)
	assert.Equal(t, "Juan D'Souza", ex.Sections[1].Fields[0].Value)
	assert.Equal(t, entity.EntityKey("CLAIM_DETAILS_1"), ex.Key(0, 1))
}

func TestArrayShapeParser_Malformed(t *testing.T) {
	content := `{"Claim": [
  {"entity_type": 42, "entity_value": "orphan"},
  "not an object",
  {"entity_value": "no type"},
  {"entity_type": "claim_id", "entity_value": 123456},
  {"entity_type": "employer_name"}
]}`
	ex, err := parsers.NewArrayShapeParser().Parse(context.Background(), entity.Source{Content: []byte(content)})
	require.NoError(t, err)

	fields := ex.Sections[0].Fields
	require.Len(t, fields, 5, "every element keeps its position")
	assert.True(t, fields[0].Malformed)
	assert.Equal(t, "42", fields[0].Name)
	assert.True(t, fields[1].Malformed)
	assert.True(t, fields[2].Malformed)
	assert.False(t, fields[3].Malformed)
	assert.Equal(t, "123456", fields[3].Value)
	assert.Equal(t, "", fields[4].Value)

	// malformed fields degrade to skips and the well-formed one still arrives
	payload := entity.Reconcile(ex, nil, nil)
	assert.Equal(t, entity.Payload{"ClaimNumber": "123456"}, payload)
}

func TestArrayShapeParser_CanHandle(t *testing.T) {
	p := parsers.NewArrayShapeParser()
	assert.True(t, p.CanHandle(entity.Source{Format: "array"}))
	assert.True(t, p.CanHandle(entity.Source{Content: []byte(arrayShapeJSON)}))
	assert.False(t, p.CanHandle(entity.Source{Content: []byte(mapShapeYAML)}))
	assert.False(t, p.CanHandle(entity.Source{Format: "map", Content: []byte(arrayShapeJSON)}))
	assert.True(t, p.CanHandle(entity.Source{Content: []byte(`{}`)}))
	assert.True(t, p.CanHandle(entity.Source{Content: []byte(`[1, 2`)}))
	assert.Equal(t, entity.ArrayShape, p.Shape())

	m := parsers.NewMapShapeParser()
	assert.False(t, m.CanHandle(entity.Source{Content: []byte(`{}`)}))
	assert.False(t, m.CanHandle(entity.Source{Content: []byte(`[1, 2`)}))
	assert.Equal(t, entity.MapShape, m.Shape())
}

// ---------------------------------------------------------------------------
// MapShapeParser
// ---------------------------------------------------------------------------

func TestMapShapeParser_Parse(t *testing.T) {
	p := parsers.NewMapShapeParser()
	ex, err := p.Parse(context.Background(), entity.Source{Content: []byte(mapShapeYAML), ID: "b.yaml"})
	require.NoError(t, err)

	require.Len(t, ex.Sections, 2)
	sec := ex.Sections[0]
	assert.Equal(t, "claim_details_section", sec.Name)
	require.Len(t, sec.Fields, 2)
	assert.Equal(t, "employee_name", sec.Fields[0].Name)
	assert.Equal(t, "Juan D'Souza", sec.Fields[0].Value)
	assert.InDelta(t, 0.91, sec.Fields[0].Confidence, 1e-9)
	assert.Equal(t, "claim_number", sec.Fields[1].Name)

	assert.Equal(t, "Acme Logistics", ex.Sections[1].Fields[0].Value, "bare scalar is the value")
	assert.Equal(t, entity.EntityKey("CLAIM_DETAILS_SECTION_employee_name"), ex.Key(0, 0))
}

func TestMapShapeParser_OverrideScenario(t *testing.T) {
	content := `{"claim_details_section": {"employee_name": {"value": "Juan D'Souza"}}}`
	ex, err := newPipeline().Run(context.Background(), entity.Source{Content: []byte(content)})
	require.NoError(t, err)

	payload := entity.Reconcile(ex, entity.OverrideSet{"CLAIM_DETAILS_SECTION_employee_name": "name-1"}, nil)
	assert.Equal(t, entity.Payload{"employee_name": "name-1"}, payload)
}

func TestMapShapeParser_InvalidYAML(t *testing.T) {
	_, err := parsers.NewMapShapeParser().Parse(context.Background(), entity.Source{Content: []byte("section: [unclosed")})
	require.Error(t, err)
}
