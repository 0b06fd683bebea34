// Package session provides the per-user conversation state store. A session
// accumulates the ordering choices a user makes (tier, add-ons, contact data)
// between the first interaction and confirmation or cancellation. Sessions
// live in memory only; a restart drops them and users are asked to start over.
package session

import (
	"sync"

	"github.com/habtamu-tamere/Bot/internal/catalog"
)

// State identifies a step of a conversation flow.
type State string

const (
	// StateIdle indicates there is no active conversation with the user.
	StateIdle State = "idle"

	// Ordering flow states.
	StateSelectingTier    State = "selecting_tier"
	StateSelectingAddons  State = "selecting_addons"
	StateEnteringContact  State = "entering_contact"
	StateEnteringBusiness State = "entering_business"
	StateEnteringRequests State = "entering_requests"
	StateConfirming       State = "confirming"

	// Auxiliary text flows driven through Scratch.
	StatePostingJob State = "posting_job"
	StateDraftingCV State = "drafting_cv"
)

// Session stores conversation state and accumulated order data for one user.
// The zero total is never stored; totals are always derived from the catalog.
type Session struct {
	UserID    int64
	Username  string
	FirstName string
	LastName  string

	State    State
	TierID   string
	Addons   []string
	Contact  string
	Business string
	Requests string

	// Scratch holds free-form values for auxiliary text flows (job posts,
	// CV drafts) keyed by step name.
	Scratch map[string]string
}

// HasAddon reports set membership for an add-on id.
func (s *Session) HasAddon(id string) bool {
	for _, a := range s.Addons {
		if a == id {
			return true
		}
	}
	return false
}

type entry struct {
	mu   sync.Mutex
	sess *Session
}

// Store owns all user sessions. Map access is guarded by a store-level mutex;
// each session additionally carries its own lock so a whole transition runs
// serialized per user even when the hosting runtime dispatches concurrently.
type Store struct {
	mu       sync.Mutex
	cat      *catalog.Catalog
	sessions map[int64]*entry
}

// NewStore builds an empty session store validating against the given catalog.
func NewStore(cat *catalog.Catalog) *Store {
	return &Store{
		cat:      cat,
		sessions: make(map[int64]*entry),
	}
}

func newSession(userID int64) *Session {
	return &Session{
		UserID:  userID,
		State:   StateIdle,
		Scratch: make(map[string]string),
	}
}

// withEntry runs fn on the user's session under the per-user lock, creating
// the session first when create is set.
func (s *Store) withEntry(userID int64, create bool, fn func(*Session) error) error {
	s.mu.Lock()
	e, ok := s.sessions[userID]
	if !ok {
		if !create {
			s.mu.Unlock()
			return ErrNoSession
		}
		e = &entry{sess: newSession(userID)}
		s.sessions[userID] = e
	}
	s.mu.Unlock()

	e.mu.Lock()
	defer e.mu.Unlock()
	return fn(e.sess)
}

// GetOrCreate returns a snapshot of the user's session, creating a fresh idle
// one when none exists.
func (s *Store) GetOrCreate(userID int64) Session {
	var snap Session
	_ = s.withEntry(userID, true, func(sess *Session) error {
		snap = snapshot(sess)
		return nil
	})
	return snap
}

// Peek returns a snapshot without creating a session.
func (s *Store) Peek(userID int64) (Session, bool) {
	var snap Session
	err := s.withEntry(userID, false, func(sess *Session) error {
		snap = snapshot(sess)
		return nil
	})
	return snap, err == nil
}

// Update runs fn on the user's session under the per-user lock, creating the
// session when needed. This is the primitive the conversation engine uses to
// make a whole transition atomic.
func (s *Store) Update(userID int64, fn func(*Session) error) error {
	return s.withEntry(userID, true, fn)
}

// Clear removes the session entirely (completion, cancellation, expiry).
func (s *Store) Clear(userID int64) {
	s.mu.Lock()
	delete(s.sessions, userID)
	s.mu.Unlock()
}

// SetTier records the selected tier. Selecting a tier always resets the
// add-on selection, also when re-selecting the same tier.
func (s *Store) SetTier(userID int64, tierID string) error {
	if _, ok := s.cat.Tier(tierID); !ok {
		return ErrUnknownTier
	}
	return s.withEntry(userID, true, func(sess *Session) error {
		sess.TierID = tierID
		sess.Addons = nil
		return nil
	})
}

// ToggleAddon flips set membership of an add-on. It requires an existing
// session with a selected tier.
func (s *Store) ToggleAddon(userID int64, addonID string) error {
	if _, ok := s.cat.Addon(addonID); !ok {
		return ErrUnknownAddon
	}
	return s.withEntry(userID, false, func(sess *Session) error {
		if sess.TierID == "" {
			return ErrNoTierSelected
		}
		for i, a := range sess.Addons {
			if a == addonID {
				sess.Addons = append(sess.Addons[:i], sess.Addons[i+1:]...)
				return nil
			}
		}
		sess.Addons = append(sess.Addons, addonID)
		return nil
	})
}

// SetContact records the contact string supplied by the user.
func (s *Store) SetContact(userID int64, contact string) error {
	return s.withEntry(userID, false, func(sess *Session) error {
		sess.Contact = contact
		return nil
	})
}

// SetBusiness records the business name.
func (s *Store) SetBusiness(userID int64, name string) error {
	return s.withEntry(userID, false, func(sess *Session) error {
		sess.Business = name
		return nil
	})
}

// SetRequests records free-text special requests.
func (s *Store) SetRequests(userID int64, text string) error {
	return s.withEntry(userID, false, func(sess *Session) error {
		sess.Requests = text
		return nil
	})
}

// ComputeTotal re-derives the order total from the live catalog and the
// current selection. The total is never cached on the session.
func (s *Store) ComputeTotal(userID int64) (int, error) {
	total := 0
	err := s.withEntry(userID, false, func(sess *Session) error {
		total = s.cat.Total(sess.TierID, sess.Addons)
		return nil
	})
	return total, err
}

// SetState moves the user's conversation to the given step.
func (s *Store) SetState(userID int64, st State) {
	_ = s.withEntry(userID, true, func(sess *Session) error {
		sess.State = st
		return nil
	})
}

// GetState returns the user's current step, or StateIdle without a session.
func (s *Store) GetState(userID int64) State {
	st := StateIdle
	_ = s.withEntry(userID, false, func(sess *Session) error {
		st = sess.State
		return nil
	})
	return st
}

// InProgress reports whether the user has an active, non-idle conversation.
func (s *Store) InProgress(userID int64) bool {
	return s.GetState(userID) != StateIdle
}

// SetScratch stores a step value for auxiliary text flows.
func (s *Store) SetScratch(userID int64, key, value string) {
	_ = s.withEntry(userID, true, func(sess *Session) error {
		sess.Scratch[key] = value
		return nil
	})
}

// Scratch reads a step value for auxiliary text flows.
func (s *Store) Scratch(userID int64, key string) (string, bool) {
	var (
		v  string
		ok bool
	)
	_ = s.withEntry(userID, false, func(sess *Session) error {
		v, ok = sess.Scratch[key]
		return nil
	})
	return v, ok
}

// SetIdentity keeps the last seen Telegram username and display names on the
// session so the finalized order can carry them.
func (s *Store) SetIdentity(userID int64, username, firstName, lastName string) {
	_ = s.withEntry(userID, true, func(sess *Session) error {
		sess.Username = username
		sess.FirstName = firstName
		sess.LastName = lastName
		return nil
	})
}

func snapshot(sess *Session) Session {
	out := *sess
	out.Addons = append([]string(nil), sess.Addons...)
	out.Scratch = make(map[string]string, len(sess.Scratch))
	for k, v := range sess.Scratch {
		out.Scratch[k] = v
	}
	return out
}
