// Package history provides an in-memory location history that satisfies
// queryfilter.Router. It keeps a linear entry list with a cursor: pushes
// append (discarding any forward branch), replaces overwrite in place, and
// Back/Forward move the cursor the way a browser would.
//
// A History is safe for concurrent use. Completions returned by Push resolve
// after the entry list has been updated and listeners have run, so a caller
// that waits observes the new location.
package history

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	queryfilter "github.com/reoring/queryfilter"
)

// Listener observes every location change, including Back/Forward moves.
type Listener func(queryfilter.Location)

// Option configures a History during New.
type Option func(*History) error

// WithLogger attaches a structured logger. The default discards everything.
func WithLogger(log zerolog.Logger) Option {
	return func(h *History) error {
		h.log = log
		return nil
	}
}

// WithListener registers a change listener. Listeners run outside the
// history lock, in registration order. A listener must not itself navigate
// or mutate a store backed by this history.
func WithListener(fn Listener) Option {
	return func(h *History) error {
		if fn != nil {
			h.listeners = append(h.listeners, fn)
		}
		return nil
	}
}

// WithLimit caps the number of retained entries; the oldest entries are
// dropped first. Zero means unlimited.
func WithLimit(n int) Option {
	return func(h *History) error {
		h.limit = n
		return nil
	}
}

type entry struct {
	id  uuid.UUID
	loc queryfilter.Location
}

// History is a linear location list with a cursor.
type History struct {
	mu        sync.Mutex
	entries   []entry
	idx       int
	limit     int
	log       zerolog.Logger
	listeners []Listener
}

var _ queryfilter.Router = (*History)(nil)

// New starts a history at the given location.
func New(initial queryfilter.Location, opts ...Option) (*History, error) {
	h := &History{log: zerolog.Nop()}
	h.entries = []entry{{id: uuid.New(), loc: initial.Clone()}}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		if err := opt(h); err != nil {
			return nil, err
		}
	}
	return h, nil
}

// Location returns the entry under the cursor.
func (h *History) Location() queryfilter.Location {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.entries[h.idx].loc.Clone()
}

// Push applies loc. Without Replace it truncates the forward branch and
// appends; with Replace it overwrites the current entry in place, keeping
// history length. The completion resolves asynchronously, after listeners
// have run; callers sequence follow-up work through Wait.
func (h *History) Push(ctx context.Context, loc queryfilter.Location, opts ...queryfilter.NavOpt) *queryfilter.Completion {
	opt := queryfilter.MergeNavOpts(opts...)
	c := queryfilter.NewCompletion()
	if err := ctx.Err(); err != nil {
		c.Resolve(err)
		return c
	}

	h.mu.Lock()
	e := entry{id: uuid.New(), loc: loc.Clone()}
	if opt.Replace {
		h.entries[h.idx] = e
	} else {
		// full slice expression so a retained forward branch is not clobbered
		h.entries = append(h.entries[:h.idx+1:h.idx+1], e)
		h.idx++
		if h.limit > 0 && len(h.entries) > h.limit {
			drop := len(h.entries) - h.limit
			h.entries = h.entries[drop:]
			h.idx -= drop
		}
	}
	h.log.Debug().Str("location", loc.String()).Bool("replace", opt.Replace).Str("entry", e.id.String()).Msg("history push")
	ls, cur := h.snapshotLocked()
	h.mu.Unlock()

	notify(ls, cur)
	// resolution happens off the caller's goroutine; observe it via Wait or Done
	go c.Resolve(nil)
	return c
}

// Back moves the cursor one entry towards the oldest. It reports false at
// the beginning of history.
func (h *History) Back() bool {
	h.mu.Lock()
	if h.idx == 0 {
		h.mu.Unlock()
		return false
	}
	h.idx--
	h.log.Debug().Str("location", h.entries[h.idx].loc.String()).Msg("history back")
	ls, cur := h.snapshotLocked()
	h.mu.Unlock()

	notify(ls, cur)
	return true
}

// Forward moves the cursor one entry towards the newest. It reports false at
// the end of history.
func (h *History) Forward() bool {
	h.mu.Lock()
	if h.idx >= len(h.entries)-1 {
		h.mu.Unlock()
		return false
	}
	h.idx++
	h.log.Debug().Str("location", h.entries[h.idx].loc.String()).Msg("history forward")
	ls, cur := h.snapshotLocked()
	h.mu.Unlock()

	notify(ls, cur)
	return true
}

// CanBack reports whether Back would move.
func (h *History) CanBack() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.idx > 0
}

// CanForward reports whether Forward would move.
func (h *History) CanForward() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.idx < len(h.entries)-1
}

// Len returns the number of retained entries.
func (h *History) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.entries)
}

// ID returns the identifier of the entry under the cursor. Replace assigns a
// fresh identifier, so observers can tell apart revisits and rewrites.
func (h *History) ID() uuid.UUID {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.entries[h.idx].id
}

// Subscribe registers a change listener after construction.
func (h *History) Subscribe(fn Listener) {
	if fn == nil {
		return
	}
	h.mu.Lock()
	h.listeners = append(h.listeners, fn)
	h.mu.Unlock()
}

func (h *History) snapshotLocked() ([]Listener, queryfilter.Location) {
	ls := make([]Listener, len(h.listeners))
	copy(ls, h.listeners)
	return ls, h.entries[h.idx].loc.Clone()
}

func notify(ls []Listener, loc queryfilter.Location) {
	for _, fn := range ls {
		fn(loc.Clone())
	}
}
