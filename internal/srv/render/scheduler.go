package render

import (
	"image"
	"sync"
	"time"

	"github.com/jypelle/inkpanel/internal/srv/event"
	"github.com/jypelle/inkpanel/internal/srv/model"
	"github.com/jypelle/inkpanel/internal/srv/nav"
	"github.com/jypelle/inkpanel/internal/srv/state"
	"github.com/jypelle/inkpanel/internal/srv/worker"
	"github.com/sirupsen/logrus"
)

type Config struct {
	PollTimeout time.Duration
	// BatchWindow is how long events are held before being processed
	// together, unless an immediate event arrives first.
	BatchWindow     time.Duration
	GhostInterval   time.Duration
	MaxPartial      int
	MaxPartialTiles int
	SensorCooldown  time.Duration
	RetryBackoff    time.Duration
	Hysteresis      Hysteresis
}

// Handler applies an event to the screen state.
type Handler interface {
	Handle(ev event.Event) nav.Result
}

type Stats struct {
	FullRepaints    uint64    `json:"fullRepaints"`
	PartialRepaints uint64    `json:"partialRepaints"`
	Failures        uint64    `json:"failures"`
	Partials        int       `json:"partialsSinceFull"`
	LastFull        time.Time `json:"lastFull"`
}

// Scheduler is the render side of the pipeline: it drains the event channel,
// feeds the handler and repaints the panel in full or in regions.
type Scheduler struct {
	config   Config
	channel  *event.Channel
	shared   *state.Shared
	handler  Handler
	panel    Panel
	composer *Composer
	ghost    *AntiGhosting
	now      func() time.Time

	batch      []event.Event
	batchStart time.Time
	flushNow   bool

	lastRendered    state.DisplayState
	hasRendered     bool
	needFull        bool
	sensorPending   bool
	lastSensorPaint time.Time
	retry           bool
	retryAt         time.Time

	statsLock sync.Mutex
	stats     Stats
}

func NewScheduler(config Config, shared *state.Shared, handler Handler, panel Panel, composer *Composer) *Scheduler {
	now := time.Now()
	return &Scheduler{
		config:   config,
		channel:  shared.Channel(),
		shared:   shared,
		handler:  handler,
		panel:    panel,
		composer: composer,
		ghost:    NewAntiGhosting(config.GhostInterval, config.MaxPartial, now),
		now:      time.Now,
		batch:    make([]event.Event, 0, shared.Channel().Cap()),
	}
}

// SetClock replaces the time source and restarts the anti-ghosting timer.
func (s *Scheduler) SetClock(now func() time.Time) {
	s.now = now
	s.ghost.FullDone(now())
}

// Run steps the scheduler until the task is asked to stop.
func (s *Scheduler) Run(t *worker.Task) {
	for !t.Stopping() {
		s.Step()
	}
}

// Step runs one loop iteration. It blocks at most PollTimeout.
func (s *Scheduler) Step() {
	if ev, ok := s.channel.Receive(s.config.PollTimeout); ok {
		s.collect(ev)
		for i := 0; i < s.channel.Cap(); i++ {
			ev, ok = s.channel.Receive(0)
			if !ok {
				break
			}
			s.collect(ev)
		}
	}

	now := s.now()
	processed := false
	if len(s.batch) > 0 && (s.flushNow || now.Sub(s.batchStart) >= s.config.BatchWindow) {
		s.process()
		processed = true
	}

	if !processed && s.hasRendered && !s.sensorPending && !s.retry && !s.ghost.Due(now) {
		return
	}
	if !processed && now.Before(s.retryAt) {
		return
	}
	s.render(now)
}

func (s *Scheduler) collect(ev event.Event) {
	if len(s.batch) == 0 {
		s.batchStart = s.now()
	}
	s.batch = append(s.batch, ev)
	if ev.IsImmediate() {
		s.flushNow = true
	}
}

func (s *Scheduler) process() {
	for _, ev := range s.batch {
		logrus.Debugf("Render event: %s", ev.Type)
		res := s.handler.Handle(ev)
		if res.ScreenChanged || res.FullRefresh {
			s.needFull = true
		}
	}
	s.batch = s.batch[:0]
	s.flushNow = false
}

func (s *Scheduler) render(now time.Time) {
	cur := s.shared.Copy()

	if !s.hasRendered || s.needFull || cur.Dirty.Has(state.FULL_REDRAW_DIRTY) ||
		cur.CurrentScreen != s.lastRendered.CurrentScreen || s.ghost.Due(now) {
		s.full(&cur, now)
		return
	}

	if cur.Dirty == state.NO_DIRTY && !s.sensorPending && !s.retry {
		return
	}

	d := Compute(&s.lastRendered, &cur, s.config.Hysteresis)
	if d.SensorOnly && now.Sub(s.lastSensorPaint) < s.config.SensorCooldown && !s.statusChangedBeyondSensor(&cur) {
		s.sensorPending = true
		return
	}
	s.sensorPending = false
	if d.Empty() {
		s.retry = false
		s.shared.ClearDirty(cur.Dirty)
		return
	}
	if !cur.PartialRefreshOn || (!d.Layout && len(d.Tiles) > s.config.MaxPartialTiles) {
		s.full(&cur, now)
		return
	}

	layout := s.composer.Layout()
	var regions []image.Rectangle
	if d.StatusBar {
		regions = append(regions, layout.StatusBar())
	}
	if !d.Layout {
		for _, i := range d.Tiles {
			regions = append(regions, layout.Tile(i, len(cur.Rooms)))
		}
	}
	if d.Content || d.Layout {
		regions = append(regions, layout.Content())
	}

	img := s.composer.Compose(&cur)
	for _, r := range regions {
		if err := s.panel.PartialRefresh(img, r); err != nil {
			s.failed(now, err)
			return
		}
		s.ghost.PartialDone()
		s.statsLock.Lock()
		s.stats.PartialRepaints++
		s.stats.Partials = s.ghost.Partials()
		s.statsLock.Unlock()
	}
	if d.Content {
		s.lastSensorPaint = now
	}
	shown := painted(&s.lastRendered, &cur, d)
	s.rendered(&shown)
}

// painted returns what the panel shows once the regions of d were repainted
// from cur. Values below the hysteresis thresholds were not drawn and keep
// their last rendered value, so small drifts still add up to a repaint.
func painted(last, cur *state.DisplayState, d Diff) state.DisplayState {
	shown := cur.Clone()
	if !d.StatusBar {
		shown.Battery = last.Battery
		shown.Connectivity = last.Connectivity
		shown.Sensor = last.Sensor
	}
	switch cur.CurrentScreen {
	case model.DASHBOARD_SCREEN:
		if !d.Layout {
			shown.Rooms = append([]model.Room(nil), last.Rooms...)
			for _, i := range d.Tiles {
				shown.Rooms[i] = cur.Rooms[i]
			}
		}
	case model.ROOM_CONTROL_SCREEN:
		if !d.Content {
			shown.Rooms = append([]model.Room(nil), last.Rooms...)
		}
	case model.CLIMATE_SCREEN, model.ZONE_CONTROL_SCREEN:
		if !d.Content {
			shown.Zones = append([]model.Zone(nil), last.Zones...)
		}
	}
	return shown
}

func (s *Scheduler) full(cur *state.DisplayState, now time.Time) {
	img := s.composer.Compose(cur)
	if err := s.panel.FullRefresh(img); err != nil {
		s.failed(now, err)
		return
	}
	s.ghost.FullDone(now)
	s.needFull = false
	s.sensorPending = false
	s.lastSensorPaint = now

	s.statsLock.Lock()
	s.stats.FullRepaints++
	s.stats.Partials = 0
	s.stats.LastFull = now
	s.statsLock.Unlock()

	logrus.Debugf("Full repaint of %s", cur.CurrentScreen)
	s.rendered(cur)
}

func (s *Scheduler) rendered(cur *state.DisplayState) {
	s.lastRendered = *cur
	s.hasRendered = true
	s.retry = false
	s.retryAt = time.Time{}
	s.shared.ClearDirty(cur.Dirty)
}

// failed keeps the last rendered snapshot and dirty bits untouched so the
// next attempt diffs against what the panel really shows.
func (s *Scheduler) failed(now time.Time, err error) {
	logrus.Errorf("Unable to refresh display: %v", err)
	s.retry = true
	s.retryAt = now.Add(s.config.RetryBackoff)
	s.statsLock.Lock()
	s.stats.Failures++
	s.statsLock.Unlock()
}

// statusChangedBeyondSensor reports a status bar change not explained by
// new sensor readings alone.
func (s *Scheduler) statusChangedBeyondSensor(cur *state.DisplayState) bool {
	last := s.lastRendered
	last.Sensor = cur.Sensor
	return StatusBarChanged(&last, cur, s.config.Hysteresis)
}

func (s *Scheduler) Stats() Stats {
	s.statsLock.Lock()
	defer s.statsLock.Unlock()
	return s.stats
}
