// Package activities holds the in-memory activity registry: a fixed set of
// named activities whose participant lists change through signup and
// unregister.
package activities

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sync"

	apperrors "mergington-activities/internal/common/errors"
	"mergington-activities/internal/models"
)

// Entry is one seed record.
type Entry struct {
	Name     string
	Activity models.Activity
}

// Registry maps activity names to activities. Names match exactly: no
// trimming, no case folding. All methods are safe for concurrent use.
type Registry struct {
	mu         sync.RWMutex
	order      []string
	activities map[string]*models.Activity
}

// New builds a registry from a seed. Each entry is copied, so later changes
// to the seed slice do not leak in.
func New(seed []Entry) (*Registry, error) {
	r := &Registry{
		order:      make([]string, 0, len(seed)),
		activities: make(map[string]*models.Activity, len(seed)),
	}
	for _, e := range seed {
		if _, dup := r.activities[e.Name]; dup {
			return nil, apperrors.NewSeedInvalidError(fmt.Sprintf("duplicate activity name %q", e.Name))
		}
		if err := checkParticipants(e); err != nil {
			return nil, err
		}
		a := e.Activity.Clone()
		r.activities[e.Name] = &a
		r.order = append(r.order, e.Name)
	}
	return r, nil
}

// NewDefault builds a registry from DefaultSeed.
func NewDefault() *Registry {
	r, err := New(DefaultSeed())
	if err != nil {
		panic(fmt.Sprintf("default seed is invalid: %v", err))
	}
	return r
}

func checkParticipants(e Entry) error {
	seen := make(map[string]struct{}, len(e.Activity.Participants))
	for _, p := range e.Activity.Participants {
		if _, dup := seen[p]; dup {
			return apperrors.NewSeedInvalidError(fmt.Sprintf("activity %q lists %q twice", e.Name, p))
		}
		seen[p] = struct{}{}
	}
	return nil
}

// List returns a snapshot of every activity in seed order.
func (r *Registry) List() Snapshot {
	r.mu.RLock()
	defer r.mu.RUnlock()

	snap := Snapshot{
		Order:      append([]string(nil), r.order...),
		Activities: make(map[string]models.Activity, len(r.activities)),
	}
	for name, a := range r.activities {
		snap.Activities[name] = a.Clone()
	}
	return snap
}

// Get returns a copy of one activity.
func (r *Registry) Get(name string) (models.Activity, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	a, ok := r.activities[name]
	if !ok {
		return models.Activity{}, false
	}
	return a.Clone(), true
}

// Signup appends email to the activity's participants. Capacity is not
// checked: max_participants is advisory.
func (r *Registry) Signup(name, email string) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	a, ok := r.activities[name]
	if !ok {
		return "", apperrors.NewActivityNotFoundError(name)
	}
	if indexOf(a.Participants, email) >= 0 {
		return "", apperrors.NewAlreadySignedUpError(name, email)
	}
	a.Participants = append(a.Participants, email)
	return fmt.Sprintf("Signed up %s for %s", email, name), nil
}

// Unregister removes email from the activity's participants, keeping the
// order of the rest.
func (r *Registry) Unregister(name, email string) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	a, ok := r.activities[name]
	if !ok {
		return "", apperrors.NewActivityNotFoundError(name)
	}
	i := indexOf(a.Participants, email)
	if i < 0 {
		return "", apperrors.NewNotSignedUpError(name, email)
	}
	a.Participants = append(a.Participants[:i], a.Participants[i+1:]...)
	return fmt.Sprintf("Unregistered %s from %s", email, name), nil
}

func indexOf(list []string, s string) int {
	for i, v := range list {
		if v == s {
			return i
		}
	}
	return -1
}

// Snapshot is a point-in-time copy of the registry.
type Snapshot struct {
	Order      []string
	Activities map[string]models.Activity
}

// MarshalJSON encodes the snapshot as a single object keyed by activity name,
// keys in seed order.
func (s Snapshot) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, name := range s.Order {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(name)
		if err != nil {
			return nil, err
		}
		val, err := json.Marshal(s.Activities[name])
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}
