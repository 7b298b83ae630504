package session

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Manager drives the state machine over a Store: Login creates the
// Authenticated state, Logout removes it, Update applies one transition.
type Manager struct {
	store Store
	ttl   time.Duration
	now   func() time.Time
	idGen func() string
}

func NewManager(store Store, ttl time.Duration) *Manager {
	return &Manager{
		store: store,
		ttl:   ttl,
		now:   func() time.Time { return time.Now().UTC() },
		idGen: uuid.NewString,
	}
}

func (m *Manager) TTL() time.Duration { return m.ttl }

// Login starts a fresh session for a successfully authenticated user.
func (m *Manager) Login(ctx context.Context, userID string, isAdmin bool) (*State, error) {
	st := Start(m.idGen(), userID, isAdmin, m.now())
	if err := m.store.Save(ctx, st, m.ttl); err != nil {
		return nil, err
	}
	return st, nil
}

// Load returns the session or ErrUnauthenticated.
func (m *Manager) Load(ctx context.Context, id string) (*State, error) {
	if id == "" {
		return nil, ErrUnauthenticated
	}
	st, err := m.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if st == nil {
		return nil, ErrUnauthenticated
	}
	return st, nil
}

// Update loads the session, applies fn and saves the result. The session
// is left untouched when fn fails.
func (m *Manager) Update(ctx context.Context, id string, fn func(st *State) error) (*State, error) {
	st, err := m.Load(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := fn(st); err != nil {
		return nil, err
	}
	st.UpdatedAt = m.now()
	if err := m.store.Save(ctx, st, m.ttl); err != nil {
		return nil, err
	}
	return st, nil
}

// Logout drops every piece of session state at once.
func (m *Manager) Logout(ctx context.Context, id string) error {
	if id == "" {
		return nil
	}
	return m.store.Delete(ctx, id)
}
