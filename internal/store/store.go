// Package store owns the user's event collection. Every mutation updates
// memory first and then schedules a save of the full user record.
// Mutations made while a save is in flight are coalesced into one save of
// the newest state, so a slow backend never blocks callers.
package store

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	appLog "calassist/internal/log"
	"calassist/internal/model"
	"calassist/internal/persist"
)

var (
	// ErrEventNotFound is returned when an id is not in the store.
	ErrEventNotFound = errors.New("event not found")
	// ErrClosed is returned by mutations after Close.
	ErrClosed = errors.New("store closed")
)

const defaultSaveTimeout = 10 * time.Second

// Store is the in-memory event list plus its save scheduler. Saves run on
// one goroutine; each one writes the newest state at the time it starts,
// so the last write always reflects the last mutation.
type Store struct {
	mu     sync.RWMutex
	user   model.User
	lastID int64
	closed bool

	p           persist.Persister
	now         func() time.Time
	saveTimeout time.Duration

	// pending is the newest unsaved snapshot, nil when nothing is dirty.
	pending *model.User
	// seq counts mutations; savedSeq is the seq covered by the last
	// finished save.
	seq, savedSeq uint64
	// progress is closed and replaced after every finished save.
	progress chan struct{}
	wake     chan struct{}
	done     chan struct{}
}

// Option customizes a Store.
type Option func(*Store)

// WithClock replaces time.Now for id assignment.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// WithSaveTimeout bounds each persistence call.
func WithSaveTimeout(d time.Duration) Option {
	return func(s *Store) { s.saveTimeout = d }
}

// New starts a Store seeded with user. The caller must Close it.
func New(user model.User, p persist.Persister, opts ...Option) *Store {
	s := &Store{
		user:        user.Clone(),
		p:           p,
		now:         time.Now,
		saveTimeout: defaultSaveTimeout,
		progress:    make(chan struct{}),
		wake:        make(chan struct{}, 1),
		done:        make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	for _, ev := range s.user.Events {
		s.lastID = max(s.lastID, ev.ID)
	}

	go s.saveLoop()
	return s
}

// User returns a copy of the whole record.
func (s *Store) User() model.User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.user.Clone()
}

// Events returns a copy of the events in insertion order.
func (s *Store) Events() []model.Event {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]model.Event, len(s.user.Events))
	copy(out, s.user.Events)
	return out
}

func (s *Store) Get(id int64) (model.Event, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	i := s.indexOf(id)
	if i < 0 {
		return model.Event{}, false
	}
	return s.user.Events[i], true
}

// Add validates d, assigns a fresh id and appends the event.
func (s *Store) Add(d model.Draft) (model.Event, error) {
	evs, err := s.AddAll([]model.Draft{d})
	if err != nil {
		return model.Event{}, err
	}
	return evs[0], nil
}

// AddAll appends several drafts as one mutation. Either all drafts are
// valid and added, or none is.
func (s *Store) AddAll(drafts []model.Draft) ([]model.Event, error) {
	ready := make([]model.Draft, len(drafts))
	for i, d := range drafts {
		d = d.WithDefaults()
		if err := d.Validate(); err != nil {
			return nil, fmt.Errorf("draft %d: %w", i, err)
		}
		ready[i] = d
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, ErrClosed
	}
	if len(ready) == 0 {
		return []model.Event{}, nil
	}

	added := make([]model.Event, 0, len(ready))
	for _, d := range ready {
		ev := d.Event(s.nextID())
		s.user.Events = append(s.user.Events, ev)
		added = append(added, ev)
	}
	s.markDirtyLocked()
	appLog.Debug("events added", "count", len(added))
	return added, nil
}

// Update replaces the event with the given id, keeping its id and position.
func (s *Store) Update(id int64, d model.Draft) (model.Event, error) {
	d = d.WithDefaults()
	if err := d.Validate(); err != nil {
		return model.Event{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return model.Event{}, ErrClosed
	}
	i := s.indexOf(id)
	if i < 0 {
		appLog.Debug("update of unknown event ignored", "id", id)
		return model.Event{}, fmt.Errorf("%w: %d", ErrEventNotFound, id)
	}

	ev := d.Event(id)
	s.user.Events[i] = ev
	s.markDirtyLocked()
	return ev, nil
}

// Remove deletes the event with the given id. Removing an absent id is a
// no-op that reports false and schedules no save.
func (s *Store) Remove(id int64) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return false, ErrClosed
	}
	i := s.indexOf(id)
	if i < 0 {
		appLog.Debug("delete of unknown event ignored", "id", id)
		return false, nil
	}

	events := make([]model.Event, 0, len(s.user.Events)-1)
	events = append(events, s.user.Events[:i]...)
	events = append(events, s.user.Events[i+1:]...)
	s.user.Events = events
	s.markDirtyLocked()
	return true, nil
}

// Flush blocks until every mutation made before the call is covered by a
// finished save.
func (s *Store) Flush(ctx context.Context) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrClosed
	}
	target := s.seq
	for s.savedSeq < target {
		progress := s.progress
		s.mu.Unlock()
		select {
		case <-progress:
		case <-ctx.Done():
			return ctx.Err()
		}
		s.mu.Lock()
	}
	s.mu.Unlock()
	return nil
}

// Close stops accepting mutations, writes the pending state if any and
// stops the save goroutine. It is safe to call more than once.
func (s *Store) Close(ctx context.Context) error {
	s.mu.Lock()
	if !s.closed {
		s.closed = true
		close(s.wake)
	}
	s.mu.Unlock()

	select {
	case <-s.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *Store) indexOf(id int64) int {
	for i, ev := range s.user.Events {
		if ev.ID == id {
			return i
		}
	}
	return -1
}

// nextID is the creation timestamp in milliseconds, bumped so that it is
// strictly greater than every id ever seen. Ids are never reused.
func (s *Store) nextID() int64 {
	id := s.now().UnixMilli()
	if id <= s.lastID {
		id = s.lastID + 1
	}
	s.lastID = id
	return id
}

// markDirtyLocked must be called with s.mu held after a mutation.
func (s *Store) markDirtyLocked() {
	u := s.user.Clone()
	s.pending = &u
	s.seq++
	select {
	case s.wake <- struct{}{}:
	default:
		// The save goroutine is already due to run.
	}
}

func (s *Store) saveLoop() {
	defer close(s.done)
	for range s.wake {
		s.drain()
	}
	s.drain()
}

// drain saves the pending snapshot until nothing is dirty.
func (s *Store) drain() {
	for {
		s.mu.Lock()
		u, seq := s.pending, s.seq
		s.pending = nil
		s.mu.Unlock()
		if u == nil {
			return
		}

		s.save(*u)

		s.mu.Lock()
		s.savedSeq = seq
		close(s.progress)
		s.progress = make(chan struct{})
		s.mu.Unlock()
	}
}

func (s *Store) save(u model.User) {
	ctx, cancel := context.WithTimeout(context.Background(), s.saveTimeout)
	defer cancel()

	err := s.p.Save(ctx, u)
	if errors.Is(err, persist.ErrReadOnly) {
		appLog.Warn("user record is read-only, change kept in memory only", "events", len(u.Events))
		return
	}
	if err != nil {
		// Best effort: memory keeps the new state, no rollback.
		appLog.Error("persist user failed", err, "events", len(u.Events))
		return
	}
	appLog.Debug("user persisted", "events", len(u.Events))
}
