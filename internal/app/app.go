// Package app is the boundary the presentation layer talks to: it accepts
// user intents and hands back read-only snapshots of what to render.
package app

import (
	"fmt"
	"sync"
	"time"

	"calassist/internal/calendar"
	"calassist/internal/ics"
	appLog "calassist/internal/log"
	"calassist/internal/model"
	"calassist/internal/store"
)

// Options configures an App. Zero values take sensible defaults.
type Options struct {
	DefaultView    calendar.Granularity
	WeekStart      time.Weekday
	Layout         calendar.Layout
	HourHeight     float64
	MinEventHeight float64
	// Now is the wall clock; time.Now when nil.
	Now func() time.Time
}

// App combines the view controller, the event store and the geometry
// mapper behind one lock.
type App struct {
	mu     sync.RWMutex
	ctrl   *calendar.Controller
	mapper *calendar.Mapper
	store  *store.Store
	opts   Options

	// lastTick is the clock value the current-time line is derived from.
	lastTick time.Time
}

// New builds an App anchored at today.
func New(st *store.Store, opts Options) (*App, error) {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.DefaultView == "" {
		opts.DefaultView = calendar.Week
	}
	if opts.Layout == "" {
		opts.Layout = calendar.LayoutAbsolute
	}

	now := opts.Now()
	ctrl, err := calendar.NewController(opts.DefaultView, now)
	if err != nil {
		return nil, err
	}
	return &App{
		ctrl:     ctrl,
		mapper:   calendar.NewMapper(opts.HourHeight, opts.MinEventHeight),
		store:    st,
		opts:     opts,
		lastTick: now,
	}, nil
}

// Snapshot renders the current state.
func (a *App) Snapshot() calendar.Snapshot {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.snapshotLocked()
}

func (a *App) snapshotLocked() calendar.Snapshot {
	return calendar.Build(a.ctrl.State(), a.store.Events(), calendar.BuildOptions{
		WeekStart: a.opts.WeekStart,
		Layout:    a.opts.Layout,
		Mapper:    a.mapper,
		Now:       a.lastTick,
	})
}

func (a *App) Previous() calendar.Snapshot {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.ctrl.Previous()
	return a.snapshotLocked()
}

func (a *App) Next() calendar.Snapshot {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.ctrl.Next()
	return a.snapshotLocked()
}

// SetGranularity rejects unknown values with calendar.ErrUnknownGranularity.
func (a *App) SetGranularity(g string) (calendar.Snapshot, error) {
	gran, err := calendar.ParseGranularity(g)
	if err != nil {
		return calendar.Snapshot{}, err
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	if err := a.ctrl.SetGranularity(gran); err != nil {
		return calendar.Snapshot{}, err
	}
	return a.snapshotLocked(), nil
}

// JumpTo moves the anchor to a "YYYY-MM-DD" date.
func (a *App) JumpTo(date string) (calendar.Snapshot, error) {
	d, err := model.ParseDate(date)
	if err != nil {
		return calendar.Snapshot{}, &model.ValidationError{Field: "date", Reason: err.Error()}
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	a.ctrl.JumpTo(d)
	return a.snapshotLocked(), nil
}

func (a *App) ToggleDarkMode() calendar.Snapshot {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.ctrl.ToggleDarkMode()
	return a.snapshotLocked()
}

// SetHourHeight records the measured hour-row height reported by the
// presentation layer after layout or resize.
func (a *App) SetHourHeight(h float64) calendar.Snapshot {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.mapper.SetHourHeight(h)
	return a.snapshotLocked()
}

// Tick advances the clock the current-time line is derived from.
func (a *App) Tick(now time.Time) {
	a.mu.Lock()
	a.lastTick = now
	a.mu.Unlock()
}

func (a *App) AddEvent(d model.Draft) (model.Event, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.store.Add(d)
}

func (a *App) EditEvent(id int64, d model.Draft) (model.Event, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.store.Update(id, d)
}

// DeleteEvent removes id and clears the selection if it pointed at id.
// Deleting an unknown id is a no-op.
func (a *App) DeleteEvent(id int64) (bool, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	removed, err := a.store.Remove(id)
	if err != nil {
		return false, err
	}
	if sel := a.ctrl.State().SelectedID; sel != nil && *sel == id {
		a.ctrl.ClearSelection()
	}
	return removed, nil
}

// SelectEvent makes id the current event. Unknown ids are rejected with
// store.ErrEventNotFound and leave the selection unchanged.
func (a *App) SelectEvent(id int64) (model.Event, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	ev, ok := a.store.Get(id)
	if !ok {
		return model.Event{}, fmt.Errorf("%w: %d", store.ErrEventNotFound, id)
	}
	a.ctrl.Select(id)
	return ev, nil
}

func (a *App) ClearSelection() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.ctrl.ClearSelection()
}

func (a *App) Events() []model.Event {
	return a.store.Events()
}

func (a *App) User() model.User {
	return a.store.User()
}

// ImportICS adds every readable VEVENT of body as one store mutation.
func (a *App) ImportICS(body []byte) ([]model.Event, error) {
	drafts, err := ics.Import(body)
	if err != nil {
		return nil, err
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	added, err := a.store.AddAll(drafts)
	if err != nil {
		return nil, err
	}
	appLog.Info("ics import applied", "added", len(added))
	return added, nil
}

// ExportICS renders all events as an iCalendar document.
func (a *App) ExportICS() string {
	return ics.Export(a.store.Events(), a.opts.Now())
}
