// Package session holds the client's view of the current authentication state.
//
// A State is created once per client and handed to everything that needs it;
// there is no package-level instance. Writers obtain a Ticket before they start
// a request and present it when applying the result, so a response to an older
// request can never overwrite the outcome of a newer one.
package session

import (
	"sync"

	"market_client/internal/models"
	"market_client/internal/pkg/currency"
)

// Snapshot is an immutable copy of the session state.
type Snapshot struct {
	LoggedIn bool
	Username string
	Balance  string // Derived from balance cents, e.g. "123.45".
	IsAdmin  bool
}

var anonymous = Snapshot{Balance: currency.FormatCents(0)}

// Anonymous returns the state of a client nobody is logged in to.
func Anonymous() Snapshot {
	return anonymous
}

//go:generate mockgen -destination=mocks/mock_observer.go -package=mocks market_client/internal/session Observer

// Observer is notified whenever the session state changes.
type Observer interface {
	SessionChanged(Snapshot)
}

// ObserverFunc adapts a function to the Observer interface.
type ObserverFunc func(Snapshot)

// SessionChanged calls f(snapshot).
func (f ObserverFunc) SessionChanged(snapshot Snapshot) { f(snapshot) }

// Ticket orders session writes. Tickets are issued in increasing order by Begin.
type Ticket uint64

// State is the observable session record. It is safe for concurrent use.
type State struct {
	mu        sync.Mutex
	snapshot  Snapshot
	issued    Ticket
	applied   Ticket
	nextID    int
	observers []*subscription
}

// subscription serializes deliveries to one observer. Only one goroutine
// delivers at a time; writers arriving meanwhile mark it dirty and the
// delivering goroutine sends the current snapshot again before it stops.
type subscription struct {
	id       int
	observer Observer

	mu         sync.Mutex
	delivering bool
	dirty      bool
	delivered  Snapshot
}

// New returns an anonymous State.
func New() *State {
	return &State{snapshot: anonymous}
}

// Snapshot returns the current state.
func (s *State) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshot
}

// Begin issues a ticket for a write that is about to be attempted.
func (s *State) Begin() Ticket {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.issued++
	return s.issued
}

// Reset returns the state to the anonymous snapshot. It reports false when t is stale.
func (s *State) Reset(t Ticket) bool {
	return s.apply(t, func(Snapshot) Snapshot { return anonymous })
}

// ApplyIdentity records user as the logged in identity. It reports false when t is stale.
func (s *State) ApplyIdentity(t Ticket, user models.User) bool {
	return s.apply(t, func(Snapshot) Snapshot {
		return Snapshot{
			LoggedIn: true,
			Username: user.Username,
			Balance:  currency.FormatCents(user.BalanceCents),
			IsAdmin:  user.IsAdmin,
		}
	})
}

// ApplyLogin records a successful login. A login response does not carry the
// balance: the current one is kept for the same username, otherwise the
// anonymous balance is shown until the next identity refresh.
// It reports false when t is stale.
func (s *State) ApplyLogin(t Ticket, username string, isAdmin bool) bool {
	return s.apply(t, func(current Snapshot) Snapshot {
		balance := anonymous.Balance
		if current.LoggedIn && current.Username == username {
			balance = current.Balance
		}
		return Snapshot{
			LoggedIn: true,
			Username: username,
			Balance:  balance,
			IsAdmin:  isAdmin,
		}
	})
}

// Subscribe registers o and returns a function that unregisters it.
// Observers run synchronously, in subscription order, after the change is applied.
// An observer is never called concurrently with itself, and its last call always
// carries the current snapshot; a change overtaken by a newer one may be skipped.
func (s *State) Subscribe(o Observer) (cancel func()) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextID++
	id := s.nextID
	s.observers = append(s.observers, &subscription{id: id, observer: o, delivered: s.snapshot})

	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		for i, sub := range s.observers {
			if sub.id == id {
				s.observers = append(s.observers[:i:i], s.observers[i+1:]...)
				return
			}
		}
	}
}

func (s *State) apply(t Ticket, next func(Snapshot) Snapshot) bool {
	s.mu.Lock()
	if t < s.applied {
		s.mu.Unlock()
		return false
	}
	s.applied = t

	previous := s.snapshot
	s.snapshot = next(previous)
	changed := s.snapshot != previous

	var observers []*subscription
	if changed {
		observers = append(observers, s.observers...)
	}
	s.mu.Unlock()

	for _, sub := range observers {
		s.deliver(sub)
	}
	return true
}

// deliver sends the current snapshot to sub unless another goroutine is already
// delivering to it, in which case that goroutine picks the change up.
func (s *State) deliver(sub *subscription) {
	sub.mu.Lock()
	sub.dirty = true
	if sub.delivering {
		sub.mu.Unlock()
		return
	}
	sub.delivering = true

	for sub.dirty {
		sub.dirty = false
		sub.mu.Unlock()

		current := s.Snapshot()
		if current != sub.delivered {
			sub.delivered = current
			sub.observer.SessionChanged(current)
		}

		sub.mu.Lock()
	}
	sub.delivering = false
	sub.mu.Unlock()
}
