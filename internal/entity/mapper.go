// SPDX-License-Identifier: Apache-2.0

package entity

import (
	"fmt"
	"os"
	"strings"

	"github.com/goccy/go-yaml"
)

// ClaimNumberField is the claims-system field that carries the claim number.
const ClaimNumberField = "ClaimNumber"

// FieldMap maps normalized extracted field names to claims-system field names.
type FieldMap map[string]string

// DefaultFieldMap is the static extracted-name to Guidewire-name table.
// claim_number maps to itself so the bare name passes through unchanged and
// is not captured by the claim number fallback.
var DefaultFieldMap = FieldMap{
	"claim_administrator_claim_number": ClaimNumberField,
	"claim_number":                     "claim_number",
	"date_of_injury":                   "LossDate",
	"date_of_loss":                     "LossDate",
	"time_of_injury":                   "LossTime",
	"date_reported":                    "ReportedDate",
	"employer_name":                    "EmployerName",
	"employer_fein":                    "EmployerFEIN",
	"insured_name":                     "InsuredName",
	"insured_policy_number":            "PolicyNumber",
	"policy_number":                    "PolicyNumber",
	"injury_description":               "LossDescription",
	"accident_description":             "LossDescription",
	"body_part_injured":                "BodyPart",
	"nature_of_injury":                 "InjuryType",
	"cause_of_injury":                  "LossCause",
	"jurisdiction_state":               "JurisdictionState",
	"injured_worker_name":              "employee_name",
	"employee_full_name":               "employee_name",
	"employee_date_of_birth":           "DateOfBirth",
	"employee_occupation":              "Occupation",
	"date_of_hire":                     "HireDate",
	"average_weekly_wage":              "AverageWeeklyWage",
}

// FallbackRule names a heuristic consulted when a field is not in the map.
type FallbackRule interface {
	Name() string
	Match(normalized string) (string, bool)
}

// ClaimNumberRule sends any unmapped name containing "claim" together with
// "number" or "id" to ClaimNumberField. Extraction pipelines spell the claim
// number many ways and it must always reach the payload.
type ClaimNumberRule struct{}

func (ClaimNumberRule) Name() string { return "claim_number" }

func (ClaimNumberRule) Match(normalized string) (string, bool) {
	if !strings.Contains(normalized, "claim") {
		return "", false
	}
	if strings.Contains(normalized, "number") || strings.Contains(normalized, "id") {
		return ClaimNumberField, true
	}
	return "", false
}

// Mapper resolves normalized field names to target field names.
type Mapper struct {
	fields    FieldMap
	fallbacks []FallbackRule
}

type MapperOption func(*Mapper)

// WithFieldMap merges extra entries over the defaults.
func WithFieldMap(extra FieldMap) MapperOption {
	return func(m *Mapper) {
		for k, v := range extra {
			m.fields[NormalizeFieldName(k)] = v
		}
	}
}

// WithFallbacks replaces the fallback rules. Passing none disables them.
func WithFallbacks(rules ...FallbackRule) MapperOption {
	return func(m *Mapper) {
		m.fallbacks = rules
	}
}

// NewMapper creates a Mapper over DefaultFieldMap with ClaimNumberRule enabled.
func NewMapper(opts ...MapperOption) *Mapper {
	m := &Mapper{
		fields:    make(FieldMap, len(DefaultFieldMap)),
		fallbacks: []FallbackRule{ClaimNumberRule{}},
	}
	for k, v := range DefaultFieldMap {
		m.fields[k] = v
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Target returns the claims-system name for a normalized field name.
// Lookup order: field map, fallback rules, then the name unchanged.
func (m *Mapper) Target(normalized string) string {
	if target, ok := m.fields[normalized]; ok {
		return target
	}
	for _, rule := range m.fallbacks {
		if target, ok := rule.Match(normalized); ok {
			return target
		}
	}
	return normalized
}

var defaultMapper = NewMapper()

// MapToTargetField maps a normalized field name using the default Mapper.
func MapToTargetField(normalized string) string {
	return defaultMapper.Target(normalized)
}

// LoadFieldMap reads a YAML (or JSON) document of extracted-name: target-name
// pairs.
func LoadFieldMap(path string) (FieldMap, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read field map %q: %w", path, err)
	}
	var fm FieldMap
	if err := yaml.Unmarshal(data, &fm); err != nil {
		return nil, fmt.Errorf("failed to unmarshal field map %q: %w", path, err)
	}
	return fm, nil
}
