package persona

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"xgrowth/internal/audit"
	"xgrowth/internal/store"
)

// #region manager

// Manager owns all access to persisted Persona State documents. Every
// mutation goes through UpdateFromFeedback: load, apply one bounded
// change, validate, save. A per-user mutex serializes the round-trip so
// concurrent feedback events for the same user cannot clobber each
// other's writes.
type Manager struct {
	docs  *store.DocStore
	trail *audit.Log // optional; nil disables the audit trail
	now   func() time.Time

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewManager creates a Manager over the given document store.
// trail may be nil.
func NewManager(docs *store.DocStore, trail *audit.Log) *Manager {
	return &Manager{
		docs:  docs,
		trail: trail,
		now:   time.Now,
		locks: make(map[string]*sync.Mutex),
	}
}

func (m *Manager) userLock(user string) *sync.Mutex {
	m.mu.Lock()
	defer m.mu.Unlock()
	l, ok := m.locks[user]
	if !ok {
		l = &sync.Mutex{}
		m.locks[user] = l
	}
	return l
}

// #endregion manager

// #region load

// Load returns the user's persisted state merged over defaults. Keys
// absent from storage fall back to their default value; unknown extra
// topics are preserved. A missing or unreadable document yields a full
// default profile, which is persisted so the next load finds it.
func (m *Manager) Load(user string) (*State, error) {
	l := m.userLock(user)
	l.Lock()
	defer l.Unlock()
	return m.loadLocked(user)
}

func (m *Manager) loadLocked(user string) (*State, error) {
	data, err := m.docs.Load(user)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			s := DefaultState()
			if err := m.saveLocked(user, s); err != nil {
				return nil, err
			}
			return s, nil
		}
		return nil, fmt.Errorf("load persona for %q: %w", user, err)
	}

	// Unmarshaling over a populated default struct implements the
	// merge: present keys override, absent keys keep defaults, and map
	// entries not mentioned in the document survive.
	s := DefaultState()
	if err := json.Unmarshal(data, s); err != nil {
		log.Printf("[PERSONA] corrupt document for %q, resetting to defaults: %v", user, err)
		s = DefaultState()
		if err := m.saveLocked(user, s); err != nil {
			return nil, err
		}
		return s, nil
	}
	if s.TopicAffinity == nil {
		// A literal "topic_affinity": null replaces the default map.
		s.TopicAffinity = DefaultState().TopicAffinity
	}
	return s, nil
}

// #endregion load

// #region save

// Save validates, clamps, stamps last_updated, and atomically replaces
// the user's document.
func (m *Manager) Save(user string, s *State) error {
	l := m.userLock(user)
	l.Lock()
	defer l.Unlock()
	return m.saveLocked(user, s)
}

func (m *Manager) saveLocked(user string, s *State) error {
	if err := Validate(s); err != nil {
		return err
	}
	ts := m.now().UTC()
	s.LearningHistory.LastUpdated = &ts

	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal persona for %q: %w", user, err)
	}
	if err := m.docs.Save(user, data); err != nil {
		return fmt.Errorf("save persona for %q: %w", user, err)
	}
	return nil
}

// #endregion save

// #region update-from-feedback

// UpdateFromFeedback is the sole mutation entry point: one bounded
// change to one section, an optional learning-history increment, then
// save. Unknown topics and attributes are ignored without error so old
// clients can keep talking to newer schemas.
func (m *Manager) UpdateFromFeedback(user string, kind Kind, p Payload) (*UpdateResult, error) {
	l := m.userLock(user)
	l.Lock()
	defer l.Unlock()

	s, err := m.loadLocked(user)
	if err != nil {
		return nil, err
	}

	changes := Apply(s, kind, p, m.now().UTC())

	if err := m.saveLocked(user, s); err != nil {
		return nil, err
	}

	explanation := "No changes made"
	if len(changes) > 0 {
		explanation = strings.Join(changes, "; ")
	}
	result := &UpdateResult{State: s, Changes: changes, Explanation: explanation}

	if m.trail != nil {
		payloadJSON, _ := json.Marshal(p)
		err := m.trail.Record(audit.Entry{
			UserKey:     user,
			Kind:        string(kind),
			PayloadJSON: string(payloadJSON),
			Changes:     changes,
			Explanation: explanation,
		})
		if err != nil {
			// The state change already committed; a failed audit write
			// is logged, not surfaced.
			log.Printf("[PERSONA] audit record failed for %q: %v", user, err)
		}
	}

	return result, nil
}

// #endregion update-from-feedback
