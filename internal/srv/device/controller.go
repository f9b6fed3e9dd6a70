package device

import (
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/jypelle/inkpanel/internal/srv/model"
	"github.com/sirupsen/logrus"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/host/v3"
)

var buttonSetters = map[string]func(s *model.ControllerSnapshot, pressed bool){
	"a":      func(s *model.ControllerSnapshot, p bool) { s.A = p },
	"b":      func(s *model.ControllerSnapshot, p bool) { s.B = p },
	"x":      func(s *model.ControllerSnapshot, p bool) { s.X = p },
	"y":      func(s *model.ControllerSnapshot, p bool) { s.Y = p },
	"l1":     func(s *model.ControllerSnapshot, p bool) { s.L1 = p },
	"r1":     func(s *model.ControllerSnapshot, p bool) { s.R1 = p },
	"start":  func(s *model.ControllerSnapshot, p bool) { s.Start = p },
	"select": func(s *model.ControllerSnapshot, p bool) { s.Select = p },
	"up":     func(s *model.ControllerSnapshot, p bool) { s.Up = p },
	"down":   func(s *model.ControllerSnapshot, p bool) { s.Down = p },
	"left":   func(s *model.ControllerSnapshot, p bool) { s.Left = p },
	"right":  func(s *model.ControllerSnapshot, p bool) { s.Right = p },
}

// ButtonNames lists the button names accepted in pin maps and by
// SimController.
func ButtonNames() []string {
	names := make([]string, 0, len(buttonSetters))
	for name := range buttonSetters {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

var hapticDurations = map[model.Haptic]time.Duration{
	model.TICK_HAPTIC:  15 * time.Millisecond,
	model.SHORT_HAPTIC: 40 * time.Millisecond,
	model.LONG_HAPTIC:  150 * time.Millisecond,
}

type button struct {
	name string
	pin  gpio.PinIO
	set  func(s *model.ControllerSnapshot, pressed bool)
}

// GpioController reads a wired pad: one pull-up GPIO per button, pressed
// when pulled low. It has no sticks nor analog triggers.
type GpioController struct {
	lock    sync.Mutex
	buttons []*button
	haptic  gpio.PinIO
	started bool
}

func NewGpioController() *GpioController {
	return &GpioController{}
}

func (c *GpioController) Start(pins map[string]string, hapticPin string) error {
	logrus.Infof("Start gpio controller device")

	if _, err := host.Init(); err != nil {
		return fmt.Errorf("controller: %w", err)
	}

	c.lock.Lock()
	defer c.lock.Unlock()

	for name, pinName := range pins {
		set, ok := buttonSetters[name]
		if !ok {
			return fmt.Errorf("controller: unknown button %q, expected one of %s", name, strings.Join(ButtonNames(), ", "))
		}
		pin := gpioreg.ByName(pinName)
		if pin == nil {
			return fmt.Errorf("controller: failed to find %s pin for %s button", pinName, name)
		}
		// Set it as input, with an internal pull up resistor:
		if err := pin.In(gpio.PullUp, gpio.NoEdge); err != nil {
			return fmt.Errorf("controller: failed to setup %s button: %w", name, err)
		}
		c.buttons = append(c.buttons, &button{name: name, pin: pin, set: set})
	}

	if hapticPin != "" {
		c.haptic = gpioreg.ByName(hapticPin)
		if c.haptic == nil {
			logrus.Warnf("Haptic pin %s not found", hapticPin)
		} else if err := c.haptic.Out(gpio.Low); err != nil {
			logrus.Warnf("Unable to setup haptic pin: %v", err)
			c.haptic = nil
		}
	}
	c.started = true
	return nil
}

func (c *GpioController) Stop() {
	logrus.Infof("Stop gpio controller device")
	c.lock.Lock()
	defer c.lock.Unlock()
	c.started = false
	if c.haptic != nil {
		c.haptic.Out(gpio.Low)
	}
}

// IsConnected is true once the pins are configured; a wired pad cannot be
// unplugged.
func (c *GpioController) IsConnected() bool {
	c.lock.Lock()
	defer c.lock.Unlock()
	return c.started
}

func (c *GpioController) IsActive() bool {
	return c.IsConnected()
}

func (c *GpioController) Snapshot() model.ControllerSnapshot {
	c.lock.Lock()
	defer c.lock.Unlock()

	var s model.ControllerSnapshot
	for _, b := range c.buttons {
		b.set(&s, !bool(b.pin.Read()))
	}
	return s
}

func (c *GpioController) Rumble(h model.Haptic) {
	c.lock.Lock()
	pin := c.haptic
	c.lock.Unlock()
	if pin == nil {
		return
	}
	if err := pin.Out(gpio.High); err != nil {
		logrus.Debugf("Haptic pulse failed: %v", err)
		return
	}
	time.AfterFunc(hapticDurations[h], func() {
		pin.Out(gpio.Low)
	})
}
