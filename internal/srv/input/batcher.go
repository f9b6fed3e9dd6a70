package input

import (
	"time"

	"github.com/jypelle/inkpanel/internal/srv/event"
)

// Batcher coalesces navigation and trigger events over a short window so a
// held direction or a ridden trigger does not turn into one repaint per sample.
type Batcher struct {
	window time.Duration

	active bool
	start  time.Time

	dx, dy int

	triggerSet   [2]bool
	triggerValue [2]uint8
}

func NewBatcher(window time.Duration) *Batcher {
	return &Batcher{window: window}
}

// Add absorbs ev into the current window and reports true, or reports false
// when ev is not batchable and must be sent right away.
func (b *Batcher) Add(ev event.Event, now time.Time) bool {
	switch {
	case ev.IsImmediate():
		return false
	case ev.IsNavigation():
		b.open(now)
		b.dx += int(ev.Dx)
		b.dy += int(ev.Dy)
		return true
	case ev.IsTrigger():
		b.open(now)
		side := 0
		if ev.Type == event.TRIGGER_RIGHT_EVENT {
			side = 1
		}
		b.triggerSet[side] = true
		b.triggerValue[side] = ev.Intensity
		return true
	}
	return false
}

// Pending reports whether a window is open.
func (b *Batcher) Pending() bool {
	return b.active
}

// Expired reports whether the open window has run its course at now.
func (b *Batcher) Expired(now time.Time) bool {
	return b.active && now.Sub(b.start) >= b.window
}

// Flush emits the window's net events if it expired at now.
func (b *Batcher) Flush(now time.Time, emit func(event.Event)) {
	if b.Expired(now) {
		b.Drain(emit)
	}
}

// Drain emits the net events of the open window whatever its age: one unit
// event per step of net horizontal motion, then vertical, then the last
// value of each trigger.
func (b *Batcher) Drain(emit func(event.Event)) {
	if !b.active {
		return
	}
	dx, dy := b.dx, b.dy
	triggerSet, triggerValue := b.triggerSet, b.triggerValue
	b.Clear()

	emitSteps(dx, func() event.Event {
		if dx < 0 {
			return event.Nav(-1, 0)
		}
		return event.Nav(1, 0)
	}, emit)
	emitSteps(dy, func() event.Event {
		if dy < 0 {
			return event.Nav(0, -1)
		}
		return event.Nav(0, 1)
	}, emit)
	if triggerSet[0] {
		emit(event.Trigger(event.TRIGGER_LEFT_EVENT, triggerValue[0]))
	}
	if triggerSet[1] {
		emit(event.Trigger(event.TRIGGER_RIGHT_EVENT, triggerValue[1]))
	}
}

// Clear discards the open window.
func (b *Batcher) Clear() {
	b.active = false
	b.start = time.Time{}
	b.dx, b.dy = 0, 0
	b.triggerSet = [2]bool{}
	b.triggerValue = [2]uint8{}
}

func (b *Batcher) open(now time.Time) {
	if !b.active {
		b.active = true
		b.start = now
	}
}

func emitSteps(n int, step func() event.Event, emit func(event.Event)) {
	if n < 0 {
		n = -n
	}
	for i := 0; i < n; i++ {
		emit(step())
	}
}
