// SPDX-License-Identifier: Apache-2.0

package entity

import (
	"fmt"
	"io"
	"maps"
	"slices"
	"sync"

	"github.com/goccy/go-yaml"
	"github.com/google/uuid"
)

// Session is the edit state of one review session: the overrides in
// progress and the fields the user removed. All mutation goes through its
// methods.
type Session struct {
	mu        sync.Mutex
	id        string
	overrides OverrideSet
	deletions DeletionSet
}

func NewSession() *Session {
	return &Session{
		id:        uuid.NewString(),
		overrides: make(OverrideSet),
		deletions: make(DeletionSet),
	}
}

func (s *Session) ID() string {
	return s.id
}

// Override records a replacement value for key.
func (s *Session) Override(key EntityKey, value string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.overrides[key] = value
}

// Cancel drops a pending override for key.
func (s *Session) Cancel(key EntityKey) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.overrides, key)
}

// Delete marks key as removed and drops any override for it.
func (s *Session) Delete(key EntityKey) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.deletions[key] = struct{}{}
	delete(s.overrides, key)
}

// Restore undoes a deletion. It reports whether key was deleted.
func (s *Session) Restore(key EntityKey) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.deletions.Has(key) {
		return false
	}
	delete(s.deletions, key)
	return true
}

// Snapshot returns copies of the current overrides and deletions.
func (s *Session) Snapshot() (OverrideSet, DeletionSet) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return maps.Clone(s.overrides), maps.Clone(s.deletions)
}

// Reconcile runs r against the current session state.
func (s *Session) Reconcile(r *Reconciler, ex Extraction) Result {
	overrides, deletions := s.Snapshot()
	return r.ReconcileWithMeta(ex, overrides, deletions)
}

type sessionFile struct {
	ID        string            `yaml:"id"`
	Overrides map[string]string `yaml:"overrides"`
	Deletions []string          `yaml:"deletions"`
}

// Save writes the session as YAML.
func (s *Session) Save(w io.Writer) error {
	overrides, deletions := s.Snapshot()
	doc := sessionFile{
		ID:        s.id,
		Overrides: make(map[string]string, len(overrides)),
	}
	for k, v := range overrides {
		doc.Overrides[string(k)] = v
	}
	for k := range deletions {
		doc.Deletions = append(doc.Deletions, string(k))
	}
	slices.Sort(doc.Deletions)

	data, err := yaml.Marshal(doc)
	if err != nil {
		return fmt.Errorf("failed to marshal session: %w", err)
	}
	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("failed to write session: %w", err)
	}
	return nil
}

// LoadSession reads a session written by Save. A file without an id gets a
// fresh one.
func LoadSession(r io.Reader) (*Session, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read session: %w", err)
	}
	var doc sessionFile
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to unmarshal session: %w", err)
	}

	s := NewSession()
	if doc.ID != "" {
		s.id = doc.ID
	}
	for k, v := range doc.Overrides {
		s.overrides[EntityKey(k)] = v
	}
	for _, k := range doc.Deletions {
		s.deletions[EntityKey(k)] = struct{}{}
	}
	return s, nil
}
