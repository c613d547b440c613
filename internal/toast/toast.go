// Package toast implements the single-slot, time-limited notification
// mechanism the store uses to surface operation results.
package toast

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/hybrid-mount/hmconsole/internal/models"
)

// Duration is the fixed auto-hide timeout.
const Duration = 3 * time.Second

// afterFunc is a variable so tests can fire timers deterministically.
var afterFunc = func(d time.Duration, f func()) { time.AfterFunc(d, f) }

// Slot holds at most one visible toast. A new toast supersedes the old
// one; the expiry timer checks the toast id before clearing visibility so
// a stale timer never hides a newer toast.
type Slot struct {
	mu       sync.Mutex
	current  models.Toast
	onChange func(models.Toast)
}

// NewSlot creates a slot. onChange, if non-nil, is invoked after every
// visibility change with a copy of the toast.
func NewSlot(onChange func(models.Toast)) *Slot {
	return &Slot{onChange: onChange}
}

// Show stamps a fresh id, replaces the slot, and schedules the auto-hide.
func (s *Slot) Show(text string, severity models.ToastSeverity) models.Toast {
	s.mu.Lock()
	t := models.Toast{
		ID:       uuid.NewString(),
		Text:     text,
		Severity: severity,
		Visible:  true,
	}
	s.current = t
	cb := s.onChange
	s.mu.Unlock()

	if cb != nil {
		cb(t)
	}
	afterFunc(Duration, func() { s.hide(t.ID) })
	return t
}

// Dismiss hides the current toast immediately.
func (s *Slot) Dismiss() {
	s.mu.Lock()
	id := s.current.ID
	s.mu.Unlock()
	s.hide(id)
}

// Current returns a copy of the slot's toast.
func (s *Slot) Current() models.Toast {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}

func (s *Slot) hide(id string) {
	s.mu.Lock()
	if s.current.ID != id || !s.current.Visible {
		s.mu.Unlock()
		return
	}
	s.current.Visible = false
	t := s.current
	cb := s.onChange
	s.mu.Unlock()

	if cb != nil {
		cb(t)
	}
}
