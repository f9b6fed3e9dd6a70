package device

import (
	"fmt"
	"strings"
	"sync"

	"github.com/jypelle/inkpanel/internal/srv/model"
	"github.com/sirupsen/logrus"
)

const maxRumbles = 16

// Axes is the analog part of a controller snapshot.
type Axes struct {
	LeftX, LeftY              int16
	LeftTrigger, RightTrigger uint16
}

// SimController is a controller driven by software, used in simulation mode
// and by the api.
type SimController struct {
	lock      sync.RWMutex
	connected bool
	snapshot  model.ControllerSnapshot
	rumbles   []model.Haptic
}

func NewSimController() *SimController {
	return &SimController{connected: true}
}

func (c *SimController) IsConnected() bool {
	c.lock.RLock()
	defer c.lock.RUnlock()
	return c.connected
}

func (c *SimController) IsActive() bool {
	return c.IsConnected()
}

func (c *SimController) SetConnected(connected bool) {
	c.lock.Lock()
	defer c.lock.Unlock()
	c.connected = connected
}

func (c *SimController) Snapshot() model.ControllerSnapshot {
	c.lock.RLock()
	defer c.lock.RUnlock()
	return c.snapshot
}

// SetButton presses or releases a named button.
func (c *SimController) SetButton(name string, pressed bool) error {
	set, ok := buttonSetters[name]
	if !ok {
		return fmt.Errorf("controller: unknown button %q, expected one of %s", name, strings.Join(ButtonNames(), ", "))
	}
	c.lock.Lock()
	defer c.lock.Unlock()
	set(&c.snapshot, pressed)
	return nil
}

// SetAxes sets the analog part of the snapshot.
func (c *SimController) SetAxes(axes Axes) {
	c.lock.Lock()
	defer c.lock.Unlock()
	c.snapshot.LeftStickX = axes.LeftX
	c.snapshot.LeftStickY = axes.LeftY
	c.snapshot.LeftTrigger = axes.LeftTrigger
	c.snapshot.RightTrigger = axes.RightTrigger
}

func (c *SimController) Rumble(h model.Haptic) {
	logrus.Debugf("Rumble %d", h)
	c.lock.Lock()
	defer c.lock.Unlock()
	c.rumbles = append(c.rumbles, h)
	if len(c.rumbles) > maxRumbles {
		c.rumbles = c.rumbles[len(c.rumbles)-maxRumbles:]
	}
}

// Rumbles returns and forgets the haptic pulses requested so far.
func (c *SimController) Rumbles() []model.Haptic {
	c.lock.Lock()
	defer c.lock.Unlock()
	r := c.rumbles
	c.rumbles = nil
	return r
}
