package render

import (
	"time"
)

// AntiGhosting decides when a full repaint must clear the residual image
// that partial repaints leave on a bistable panel.
type AntiGhosting struct {
	interval   time.Duration
	maxPartial int

	lastFull time.Time
	partials int
}

func NewAntiGhosting(interval time.Duration, maxPartial int, now time.Time) *AntiGhosting {
	return &AntiGhosting{
		interval:   interval,
		maxPartial: maxPartial,
		lastFull:   now,
	}
}

// Due reports whether a full repaint is required at now.
func (g *AntiGhosting) Due(now time.Time) bool {
	if now.Sub(g.lastFull) > g.interval {
		return true
	}
	return g.maxPartial > 0 && g.partials >= g.maxPartial
}

func (g *AntiGhosting) FullDone(now time.Time) {
	g.lastFull = now
	g.partials = 0
}

func (g *AntiGhosting) PartialDone() {
	g.partials++
}

func (g *AntiGhosting) Partials() int {
	return g.partials
}

func (g *AntiGhosting) LastFull() time.Time {
	return g.lastFull
}
