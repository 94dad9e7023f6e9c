// Package memory is an in-process datastore backend. It honours the same
// constraints as the Postgres schema (foreign keys, uniqueness, cascades) so
// that the service layer behaves identically on both.
package memory

import (
	"context"
	"sync"
	"time"

	"vaultify/internal/database"
	"vaultify/internal/models"

	"github.com/google/uuid"
)

type sessionRow struct {
	session      models.Session
	userID       string
	refreshToken string
}

type state struct {
	users       map[string]models.User
	nodes       map[string]models.Node
	shares      map[int64]models.Share
	nextShareID int64
	links       map[uuid.UUID]models.LinkShare
	sessions    map[uuid.UUID]sessionRow
	events      []models.Event
	nextEventID int64
}

func newState() *state {
	return &state{
		users:    make(map[string]models.User),
		nodes:    make(map[string]models.Node),
		shares:   make(map[int64]models.Share),
		links:    make(map[uuid.UUID]models.LinkShare),
		sessions: make(map[uuid.UUID]sessionRow),
	}
}

// clone copies every table. Rows are stored by value and their pointer
// fields are never mutated in place, so a shallow row copy is enough.
func (s *state) clone() *state {
	c := &state{
		users:       make(map[string]models.User, len(s.users)),
		nodes:       make(map[string]models.Node, len(s.nodes)),
		shares:      make(map[int64]models.Share, len(s.shares)),
		nextShareID: s.nextShareID,
		links:       make(map[uuid.UUID]models.LinkShare, len(s.links)),
		sessions:    make(map[uuid.UUID]sessionRow, len(s.sessions)),
		events:      make([]models.Event, len(s.events)),
		nextEventID: s.nextEventID,
	}
	for k, v := range s.users {
		c.users[k] = v
	}
	for k, v := range s.nodes {
		c.nodes[k] = v
	}
	for k, v := range s.shares {
		c.shares[k] = v
	}
	for k, v := range s.links {
		c.links[k] = v
	}
	for k, v := range s.sessions {
		c.sessions[k] = v
	}
	copy(c.events, s.events)
	return c
}

type Store struct {
	mu       sync.Mutex
	st       *state
	lastTime time.Time
}

func New() *Store {
	return &Store{st: newState()}
}

var _ database.Store = (*Store)(nil)

// ExecTx runs fn against a private copy of the data and publishes the copy
// only if fn succeeds. Transactions are fully serialised.
func (s *Store) ExecTx(ctx context.Context, fn func(database.Querier) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	work := s.st.clone()
	if err := fn(&queries{st: work, now: s.now}); err != nil {
		return err
	}
	s.st = work
	return nil
}

// now hands out strictly increasing timestamps at the precision Postgres
// stores. Callers hold s.mu.
func (s *Store) now() time.Time {
	t := time.Now().UTC().Truncate(time.Microsecond)
	if !t.After(s.lastTime) {
		t = s.lastTime.Add(time.Microsecond)
	}
	s.lastTime = t
	return t
}

type queries struct {
	st  *state
	now func() time.Time
}

var _ database.Querier = (*queries)(nil)
