// SPDX-License-Identifier: Apache-2.0

package entity

import (
	"strconv"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// EntityKey joins extracted fields with the edits recorded against them.
type EntityKey string

// FieldID identifies a field within its section: either its position
// (Index) or its own name (Name).
type FieldID interface {
	suffix() string
}

// Index is the zero-based position of a field inside an ArrayShape section.
type Index int

func (i Index) suffix() string { return strconv.Itoa(int(i)) }

// Name is the field name of a MapShape field. It is used verbatim.
type Name string

func (n Name) suffix() string { return string(n) }

// ComputeEntityKey derives the key for a field. The section name is trimmed,
// uppercased and has each run of whitespace replaced by a single underscore;
// the field identifier is appended after another underscore.
//
//	ComputeEntityKey("Claim Details", Index(0))                  == "CLAIM_DETAILS_0"
//	ComputeEntityKey("claim_details_section", Name("employee_name")) == "CLAIM_DETAILS_SECTION_employee_name"
func ComputeEntityKey(section string, id FieldID) EntityKey {
	prefix := collapseWhitespace(cases.Upper(language.Und).String(strings.TrimSpace(section)))
	var suffix string
	if id != nil {
		suffix = id.suffix()
	}
	return EntityKey(prefix + "_" + suffix)
}

// NormalizeFieldName lowercases a raw field type and replaces each run of
// whitespace with a single underscore.
func NormalizeFieldName(raw string) string {
	return collapseWhitespace(cases.Lower(language.Und).String(strings.TrimSpace(raw)))
}

func collapseWhitespace(s string) string {
	return strings.Join(strings.Fields(s), "_")
}
