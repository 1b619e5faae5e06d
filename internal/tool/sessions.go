// SPDX-License-Identifier: Apache-2.0

package tool

import (
	"errors"
	"fmt"
	"maps"
	"slices"
	"sync"

	"github.com/nmmflow/idp-mcp/internal/entity"
)

var ErrSessionNotFound = errors.New("session not found")

// SessionStore keeps the review sessions opened through the server in memory.
type SessionStore struct {
	mu       sync.RWMutex
	sessions map[string]*entity.Session
}

func NewSessionStore() *SessionStore {
	return &SessionStore{sessions: make(map[string]*entity.Session)}
}

func (s *SessionStore) Open() *entity.Session {
	sess := entity.NewSession()
	s.mu.Lock()
	s.sessions[sess.ID()] = sess
	s.mu.Unlock()
	return sess
}

func (s *SessionStore) Get(id string) (*entity.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sess, ok := s.sessions[id]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrSessionNotFound, id)
	}
	return sess, nil
}

// SessionState is the edit state of a session as returned to clients.
type SessionState struct {
	SessionID string            `json:"session_id"`
	Overrides map[string]string `json:"overrides"`
	Deletions []string          `json:"deletions"`
}

func stateOf(sess *entity.Session) SessionState {
	overrides, deletions := sess.Snapshot()
	st := SessionState{
		SessionID: sess.ID(),
		Overrides: make(map[string]string, len(overrides)),
		Deletions: make([]string, 0, len(deletions)),
	}
	for k, v := range overrides {
		st.Overrides[string(k)] = v
	}
	for _, k := range slices.Sorted(maps.Keys(deletions)) {
		st.Deletions = append(st.Deletions, string(k))
	}
	return st
}
