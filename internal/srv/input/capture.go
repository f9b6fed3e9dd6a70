package input

import (
	"time"

	"github.com/jypelle/inkpanel/internal/srv/event"
	"github.com/jypelle/inkpanel/internal/srv/model"
	"github.com/sirupsen/logrus"
)

// Controller is the driver of the wireless game controller.
type Controller interface {
	IsConnected() bool
	// IsActive reports whether the controller delivers fresh input.
	IsActive() bool
	Snapshot() model.ControllerSnapshot
	Rumble(h model.Haptic)
}

// Capture polls the controller once per tick and feeds the event channel.
type Capture struct {
	controller Controller
	channel    *event.Channel
	detector   *EdgeDetector
	batcher    *Batcher

	connected bool
	now       func() time.Time
}

func NewCapture(controller Controller, channel *event.Channel, detector *EdgeDetector, batcher *Batcher) *Capture {
	return &Capture{
		controller: controller,
		channel:    channel,
		detector:   detector,
		batcher:    batcher,
		now:        time.Now,
	}
}

// SetClock replaces the time source.
func (c *Capture) SetClock(now func() time.Time) {
	c.now = now
}

// Step runs one polling tick.
func (c *Capture) Step() {
	now := c.now()

	connected := c.controller.IsConnected()
	if connected != c.connected {
		c.connected = connected
		c.detector.Reset()
		c.batcher.Clear()
		if connected {
			logrus.Infof("Controller connected")
			c.send(event.New(event.CONTROLLER_CONNECTED_EVENT))
		} else {
			logrus.Infof("Controller disconnected")
			c.send(event.New(event.CONTROLLER_DISCONNECTED_EVENT))
		}
	}

	if connected && c.controller.IsActive() {
		for _, ev := range c.detector.Detect(c.controller.Snapshot(), now) {
			c.feedback(ev)
			if c.batcher.Add(ev, now) {
				continue
			}
			// Keep arrival order: what was batched before ev goes first.
			c.batcher.Drain(c.send)
			c.send(ev)
		}
	}

	c.batcher.Flush(now, c.send)
}

func (c *Capture) send(ev event.Event) {
	logrus.Debugf("Input event: %s", ev.Type)
	c.channel.TrySend(ev)
}

func (c *Capture) feedback(ev event.Event) {
	switch {
	case ev.IsNavigation():
		c.controller.Rumble(model.TICK_HAPTIC)
	case ev.Type == event.SELECT_EVENT, ev.Type == event.TOGGLE_EVENT:
		c.controller.Rumble(model.SHORT_HAPTIC)
	case ev.Type == event.BACK_EVENT:
		c.controller.Rumble(model.LONG_HAPTIC)
	}
}
