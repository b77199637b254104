package store

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"calassist/internal/model"
	"calassist/internal/persist"
)

type recordingPersister struct {
	mu    sync.Mutex
	saves []model.User
	err   error
}

func (r *recordingPersister) Load(context.Context) (model.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.saves) == 0 {
		return model.User{}, persist.ErrNotFound
	}
	return r.saves[len(r.saves)-1], nil
}

func (r *recordingPersister) Save(_ context.Context, u model.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.saves = append(r.saves, u)
	return r.err
}

func (r *recordingPersister) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.saves)
}

func (r *recordingPersister) last() model.User {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.saves[len(r.saves)-1]
}

func fixedClock(ms int64) func() time.Time {
	return func() time.Time { return time.UnixMilli(ms) }
}

func newStore(t *testing.T, u model.User, p persist.Persister, opts ...Option) *Store {
	t.Helper()
	s := New(u, p, opts...)
	t.Cleanup(func() { _ = s.Close(context.Background()) })
	return s
}

func flush(t *testing.T, s *Store) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, s.Flush(ctx))
}

func draft(title, start, end string) model.Draft {
	return model.Draft{Title: title, Date: "2024-06-10", StartTime: start, EndTime: end}
}

func TestAdd_AssignsIncreasingIDs(t *testing.T) {
	p := &recordingPersister{}
	s := newStore(t, model.EmptyUser(), p, WithClock(fixedClock(1718000000000)))

	a, err := s.Add(draft("a", "09:00", "10:00"))
	require.NoError(t, err)
	flush(t, s)
	b, err := s.Add(draft("b", "11:00", "12:00"))
	require.NoError(t, err)

	assert.Equal(t, int64(1718000000000), a.ID)
	assert.Equal(t, int64(1718000000001), b.ID)
	assert.Equal(t, model.Reminder10Minutes, a.Reminder)
	assert.Equal(t, model.RecurringNone, a.Recurring)

	flush(t, s)
	assert.Equal(t, 2, p.count())
	assert.Equal(t, s.User(), p.last())
}

func TestAdd_NeverReusesIDs(t *testing.T) {
	seed := model.User{Events: []model.Event{{ID: 5000, Date: "2024-06-10", StartTime: "09:00", EndTime: "10:00"}}}
	s := newStore(t, seed, &recordingPersister{}, WithClock(fixedClock(10)))

	ev, err := s.Add(draft("x", "09:00", "10:00"))
	require.NoError(t, err)
	assert.Equal(t, int64(5001), ev.ID)

	removed, err := s.Remove(ev.ID)
	require.NoError(t, err)
	assert.True(t, removed)

	again, err := s.Add(draft("y", "09:00", "10:00"))
	require.NoError(t, err)
	assert.Equal(t, int64(5002), again.ID)
}

func TestAdd_RejectsInvertedRange(t *testing.T) {
	p := &recordingPersister{}
	s := newStore(t, model.EmptyUser(), p)

	_, err := s.Add(draft("bad", "11:00", "10:00"))
	var verr *model.ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, "endTime", verr.Field)

	flush(t, s)
	assert.Empty(t, s.Events())
	assert.Zero(t, p.count())
}

func TestAddAll_AllOrNothingSingleSave(t *testing.T) {
	p := &recordingPersister{}
	s := newStore(t, model.EmptyUser(), p)

	_, err := s.AddAll([]model.Draft{draft("ok", "09:00", "10:00"), draft("bad", "x", "10:00")})
	require.Error(t, err)
	assert.Empty(t, s.Events())

	evs, err := s.AddAll([]model.Draft{draft("a", "09:00", "10:00"), draft("b", "10:00", "11:00")})
	require.NoError(t, err)
	assert.Len(t, evs, 2)

	flush(t, s)
	assert.Equal(t, 1, p.count())
	assert.Len(t, p.last().Events, 2)
}

func TestUpdate(t *testing.T) {
	p := &recordingPersister{}
	s := newStore(t, model.EmptyUser(), p)

	a, err := s.Add(draft("a", "09:00", "10:00"))
	require.NoError(t, err)
	b, err := s.Add(draft("b", "11:00", "12:00"))
	require.NoError(t, err)
	flush(t, s)
	before := p.count()

	upd, err := s.Update(a.ID, draft("a2", "08:00", "08:30"))
	require.NoError(t, err)
	assert.Equal(t, a.ID, upd.ID)

	evs := s.Events()
	require.Len(t, evs, 2)
	assert.Equal(t, "a2", evs[0].Title)
	assert.Equal(t, b.ID, evs[1].ID)

	_, err = s.Update(42, draft("ghost", "08:00", "09:00"))
	assert.ErrorIs(t, err, ErrEventNotFound)

	_, err = s.Update(a.ID, draft("a3", "10:00", "09:00"))
	assert.Error(t, err)
	got, ok := s.Get(a.ID)
	require.True(t, ok)
	assert.Equal(t, "a2", got.Title)

	flush(t, s)
	assert.Equal(t, before+1, p.count())
	assert.Equal(t, "a2", p.last().Events[0].Title)
}

func TestRemove_AbsentIsNoop(t *testing.T) {
	p := &recordingPersister{}
	seed := model.User{Name: "n", Events: []model.Event{{ID: 1, Date: "2024-06-10", StartTime: "09:00", EndTime: "10:00"}}}
	s := newStore(t, seed, p)

	removed, err := s.Remove(7)
	require.NoError(t, err)
	assert.False(t, removed)

	flush(t, s)
	assert.Zero(t, p.count())
	assert.Equal(t, seed, s.User())

	removed, err = s.Remove(1)
	require.NoError(t, err)
	assert.True(t, removed)
	flush(t, s)
	assert.Equal(t, 1, p.count())
	assert.Empty(t, p.last().Events)
	assert.Equal(t, "n", p.last().Name)
}

func TestSaveFailureKeepsMemory(t *testing.T) {
	p := &recordingPersister{err: errors.New("disk full")}
	s := newStore(t, model.EmptyUser(), p)

	ev, err := s.Add(draft("a", "09:00", "10:00"))
	require.NoError(t, err)
	flush(t, s)

	_, ok := s.Get(ev.ID)
	assert.True(t, ok)
	assert.Equal(t, 1, p.count())
}

func TestSavesAreOrdered_LastWins(t *testing.T) {
	p := &recordingPersister{}
	s := newStore(t, model.EmptyUser(), p)

	for i := 0; i < 200; i++ {
		_, err := s.Add(draft("e", "09:00", "10:00"))
		require.NoError(t, err)
	}
	flush(t, s)

	p.mu.Lock()
	saves := append([]model.User(nil), p.saves...)
	p.mu.Unlock()
	require.NotEmpty(t, saves)
	assert.LessOrEqual(t, len(saves), 200)
	for i := 1; i < len(saves); i++ {
		assert.Greater(t, len(saves[i].Events), len(saves[i-1].Events))
	}
	assert.Equal(t, s.User(), p.last())
}

// gatedPersister blocks every save until release is closed.
type gatedPersister struct {
	recordingPersister
	release chan struct{}
}

func (g *gatedPersister) Save(ctx context.Context, u model.User) error {
	select {
	case <-g.release:
	case <-ctx.Done():
		return ctx.Err()
	}
	return g.recordingPersister.Save(ctx, u)
}

func TestSlowBackendDoesNotBlockMutations(t *testing.T) {
	p := &gatedPersister{release: make(chan struct{})}
	s := newStore(t, model.EmptyUser(), p, WithSaveTimeout(time.Minute))
	var once sync.Once
	release := func() { once.Do(func() { close(p.release) }) }
	t.Cleanup(release)

	start := time.Now()
	for i := 0; i < 200; i++ {
		_, err := s.Add(draft("e", "09:00", "10:00"))
		require.NoError(t, err)
	}
	assert.Less(t, time.Since(start), time.Second)
	assert.Zero(t, p.count())

	release()
	flush(t, s)

	// One save may have started before the burst; the rest coalesce.
	assert.LessOrEqual(t, p.count(), 2)
	assert.Len(t, p.last().Events, 200)
}

func TestFlushWaitsForSaveStartedAfterMutation(t *testing.T) {
	p := &gatedPersister{release: make(chan struct{})}
	s := newStore(t, model.EmptyUser(), p, WithSaveTimeout(time.Minute))
	var once sync.Once
	release := func() { once.Do(func() { close(p.release) }) }
	t.Cleanup(release)

	_, err := s.Add(draft("a", "09:00", "10:00"))
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, s.Flush(ctx), context.DeadlineExceeded)

	release()
	flush(t, s)
	assert.Len(t, p.last().Events, 1)
}

func TestCorruptRecordIsNeverOverwritten(t *testing.T) {
	path := filepath.Join(t.TempDir(), "userInfo.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"name":"Ada","events":[{"id":1`), 0o600))

	user, p, err := persist.LoadGuarded(context.Background(), persist.NewFileStore(path))
	require.Error(t, err)

	s := New(user, p)
	_, err = s.Add(draft("a", "09:00", "10:00"))
	require.NoError(t, err)
	require.NoError(t, s.Close(context.Background()))

	assert.Len(t, s.Events(), 1)
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, `{"name":"Ada","events":[{"id":1`, string(data))
}

func TestSnapshotsDoNotAlias(t *testing.T) {
	s := newStore(t, model.EmptyUser(), &recordingPersister{})
	_, err := s.Add(draft("a", "09:00", "10:00"))
	require.NoError(t, err)

	evs := s.Events()
	evs[0].Title = "mutated"
	assert.Equal(t, "a", s.Events()[0].Title)
}

func TestClose(t *testing.T) {
	p := &recordingPersister{}
	s := New(model.EmptyUser(), p)

	_, err := s.Add(draft("a", "09:00", "10:00"))
	require.NoError(t, err)
	require.NoError(t, s.Close(context.Background()))
	require.NoError(t, s.Close(context.Background()))

	assert.Equal(t, 1, p.count())

	_, err = s.Add(draft("b", "09:00", "10:00"))
	assert.ErrorIs(t, err, ErrClosed)
	_, err = s.Remove(1)
	assert.ErrorIs(t, err, ErrClosed)
	assert.ErrorIs(t, s.Flush(context.Background()), ErrClosed)
}
