// SPDX-License-Identifier: Apache-2.0

package entity

import (
	"strings"

	"github.com/rs/zerolog"
)

// OverrideSet holds user edits keyed by EntityKey.
type OverrideSet map[EntityKey]string

// DeletionSet holds the keys of fields the user removed.
type DeletionSet map[EntityKey]struct{}

// Has reports whether key is marked as deleted.
func (d DeletionSet) Has(key EntityKey) bool {
	_, ok := d[key]
	return ok
}

// NewDeletionSet builds a DeletionSet from a list of keys.
func NewDeletionSet(keys ...EntityKey) DeletionSet {
	d := make(DeletionSet, len(keys))
	for _, k := range keys {
		d[k] = struct{}{}
	}
	return d
}

// Payload is the flat field map delivered to the claims system.
type Payload map[string]string

// ValueSource records where a payload value came from.
type ValueSource string

const (
	SourceExtracted ValueSource = "extracted"
	SourceOverride  ValueSource = "override"
)

// SkipReason explains why a field did not reach the payload.
type SkipReason string

const (
	SkipDeleted   SkipReason = "deleted"
	SkipBlank     SkipReason = "blank"
	SkipMalformed SkipReason = "malformed"
)

type Contribution struct {
	Key    EntityKey   `json:"key"`
	Target string      `json:"target"`
	Source ValueSource `json:"source"`
}

// Skip records a field, or a whole malformed section, left out of the
// payload. Section-level entries have no Key or Field.
type Skip struct {
	Key     EntityKey  `json:"key,omitempty"`
	Section string     `json:"section"`
	Field   string     `json:"field"`
	Reason  SkipReason `json:"reason"`
}

// Collision records a target field written by more than one source field.
// Winner is the key whose value ended up in the payload.
type Collision struct {
	Target      string    `json:"target"`
	Winner      EntityKey `json:"winner"`
	Overwritten EntityKey `json:"overwritten"`
}

// Result is the payload plus a report of how it was assembled.
type Result struct {
	Payload       Payload
	Order         string
	Contributions []Contribution
	Skipped       []Skip
	Collisions    []Collision
	// KeyConflicts lists keys derived for more than one distinct field.
	// Overrides and deletions recorded against such a key apply to all of them.
	KeyConflicts []EntityKey
	SectionCount int
	FieldCount   int
}

// Reconciler merges extracted fields with user overrides and deletions.
// It holds no per-call state and may be shared between goroutines.
type Reconciler struct {
	mapper *Mapper
	order  Order
	logger zerolog.Logger
}

type Option func(*Reconciler)

func WithMapper(m *Mapper) Option {
	return func(r *Reconciler) { r.mapper = m }
}

// WithOrder sets the section visiting order. The default is DocumentOrder.
func WithOrder(o Order) Option {
	return func(r *Reconciler) { r.order = o }
}

func WithLogger(l zerolog.Logger) Option {
	return func(r *Reconciler) { r.logger = l }
}

func NewReconciler(opts ...Option) *Reconciler {
	r := &Reconciler{
		mapper: defaultMapper,
		order:  DocumentOrder{},
		logger: zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// With returns a copy of r with opts applied.
func (r *Reconciler) With(opts ...Option) *Reconciler {
	c := *r
	for _, opt := range opts {
		opt(&c)
	}
	return &c
}

// Order returns the configured section order.
func (r *Reconciler) Order() Order {
	return r.order
}

// Reconcile builds the payload using the default Mapper and DocumentOrder.
func Reconcile(ex Extraction, overrides OverrideSet, deletions DeletionSet) Payload {
	return NewReconciler().Reconcile(ex, overrides, deletions)
}

func (r *Reconciler) Reconcile(ex Extraction, overrides OverrideSet, deletions DeletionSet) Payload {
	return r.ReconcileWithMeta(ex, overrides, deletions).Payload
}

// ReconcileWithMeta builds a fresh payload. For every field, in section order
// then document order: deleted keys are skipped; a non-blank override replaces
// the extracted value; blank values are skipped; the rest is written under its
// target field name, later writes replacing earlier ones. Inputs are not
// modified.
func (r *Reconciler) ReconcileWithMeta(ex Extraction, overrides OverrideSet, deletions DeletionSet) Result {
	res := Result{
		Payload:      make(Payload),
		Order:        r.order.Name(),
		SectionCount: len(ex.Sections),
		FieldCount:   ex.FieldCount(),
	}
	res.KeyConflicts = keyConflicts(ex)

	writer := make(map[string]EntityKey)
	for _, si := range r.order.Arrange(ex.Sections) {
		sec := ex.Sections[si]
		if sec.Malformed {
			res.Skipped = append(res.Skipped, Skip{Section: sec.Name, Reason: SkipMalformed})
			r.logger.Warn().Str("section", sec.Name).Str("shape", ex.Shape.String()).Msg("section does not match extraction shape, skipped")
			continue
		}
		for fi, f := range sec.Fields {
			key := ex.Key(si, fi)
			skip := func(reason SkipReason) {
				res.Skipped = append(res.Skipped, Skip{Key: key, Section: sec.Name, Field: f.Name, Reason: reason})
				r.logger.Debug().Str("key", string(key)).Str("reason", string(reason)).Msg("field skipped")
			}

			if deletions.Has(key) {
				skip(SkipDeleted)
				continue
			}
			normalized := NormalizeFieldName(f.Name)
			if f.Malformed || normalized == "" {
				skip(SkipMalformed)
				continue
			}

			value, source := f.Value, SourceExtracted
			if o, ok := overrides[key]; ok && strings.TrimSpace(o) != "" {
				value, source = o, SourceOverride
			}
			if strings.TrimSpace(value) == "" {
				skip(SkipBlank)
				continue
			}

			target := r.mapper.Target(normalized)
			if prev, ok := writer[target]; ok {
				res.Collisions = append(res.Collisions, Collision{Target: target, Winner: key, Overwritten: prev})
				r.logger.Warn().
					Str("target", target).
					Str("winner", string(key)).
					Str("overwritten", string(prev)).
					Msg("target field written twice, keeping last value")
			}
			writer[target] = key
			res.Payload[target] = value
			res.Contributions = append(res.Contributions, Contribution{Key: key, Target: target, Source: source})
		}
	}
	return res
}

func keyConflicts(ex Extraction) []EntityKey {
	seen := make(map[EntityKey]int)
	var conflicts []EntityKey
	for si, sec := range ex.Sections {
		for fi := range sec.Fields {
			key := ex.Key(si, fi)
			seen[key]++
			if seen[key] == 2 {
				conflicts = append(conflicts, key)
			}
		}
	}
	return conflicts
}
