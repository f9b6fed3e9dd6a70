package input

import (
	"time"

	"github.com/jypelle/inkpanel/internal/srv/event"
	"github.com/jypelle/inkpanel/internal/srv/model"
)

type signalId int

const (
	A_SIGNAL signalId = iota
	B_SIGNAL
	X_SIGNAL
	Y_SIGNAL
	L1_SIGNAL
	R1_SIGNAL
	START_SIGNAL
	SELECT_SIGNAL
	DPAD_UP_SIGNAL
	DPAD_DOWN_SIGNAL
	DPAD_LEFT_SIGNAL
	DPAD_RIGHT_SIGNAL
	STICK_UP_SIGNAL
	STICK_DOWN_SIGNAL
	STICK_LEFT_SIGNAL
	STICK_RIGHT_SIGNAL

	signalCount
)

// TriggerStep is the minimum change of a scaled trigger value reported as a
// new sample.
const TriggerStep = 8

// EdgeDetector turns successive controller snapshots into semantic events.
// A boolean signal fires only on its false to true transition.
type EdgeDetector struct {
	deadzone int16
	debounce time.Duration

	last       [signalCount]bool
	lastFire   [signalCount]time.Time
	triggers   [2]uint8
	homeScreen model.Screen

	out []event.Event
}

// NewEdgeDetector builds a detector. Stick deflections inside deadzone are
// ignored; a stick direction cannot fire twice within debounce.
func NewEdgeDetector(deadzone int16, debounce time.Duration, homeScreen model.Screen) *EdgeDetector {
	return &EdgeDetector{
		deadzone:   deadzone,
		debounce:   debounce,
		homeScreen: homeScreen,
		out:        make([]event.Event, 0, signalCount+2),
	}
}

// Reset forgets every retained value, e.g. after the controller reconnects.
func (d *EdgeDetector) Reset() {
	d.last = [signalCount]bool{}
	d.lastFire = [signalCount]time.Time{}
	d.triggers = [2]uint8{}
}

// Detect compares s with the previous snapshot. The returned slice is reused
// by the next call.
func (d *EdgeDetector) Detect(s model.ControllerSnapshot, now time.Time) []event.Event {
	d.out = d.out[:0]

	var current [signalCount]bool
	current[A_SIGNAL] = s.A
	current[B_SIGNAL] = s.B
	current[X_SIGNAL] = s.X
	current[Y_SIGNAL] = s.Y
	current[L1_SIGNAL] = s.L1
	current[R1_SIGNAL] = s.R1
	current[START_SIGNAL] = s.Start
	current[SELECT_SIGNAL] = s.Select
	current[DPAD_UP_SIGNAL] = s.Up
	current[DPAD_DOWN_SIGNAL] = s.Down
	current[DPAD_LEFT_SIGNAL] = s.Left
	current[DPAD_RIGHT_SIGNAL] = s.Right
	// Stick Y grows downwards. The right stick only scrolls vertically.
	current[STICK_UP_SIGNAL] = s.LeftStickY < -d.deadzone || s.RightStickY < -d.deadzone
	current[STICK_DOWN_SIGNAL] = s.LeftStickY > d.deadzone || s.RightStickY > d.deadzone
	current[STICK_LEFT_SIGNAL] = s.LeftStickX < -d.deadzone
	current[STICK_RIGHT_SIGNAL] = s.LeftStickX > d.deadzone

	for id := signalId(0); id < signalCount; id++ {
		rising := current[id] && !d.last[id]
		d.last[id] = current[id]
		if !rising {
			continue
		}
		if id >= STICK_UP_SIGNAL {
			if !d.lastFire[id].IsZero() && now.Sub(d.lastFire[id]) < d.debounce {
				continue
			}
			d.lastFire[id] = now
		}
		d.out = append(d.out, d.eventFor(id))
	}

	d.detectTrigger(0, s.LeftTrigger, event.TRIGGER_LEFT_EVENT)
	d.detectTrigger(1, s.RightTrigger, event.TRIGGER_RIGHT_EVENT)

	return d.out
}

func (d *EdgeDetector) detectTrigger(side int, raw uint16, t event.Type) {
	v := scaleTrigger(raw)
	prev := d.triggers[side]
	diff := int(v) - int(prev)
	if diff < 0 {
		diff = -diff
	}
	// Releasing the trigger always reports, however small the last step was.
	if diff >= TriggerStep || (v == 0 && prev != 0) {
		d.triggers[side] = v
		d.out = append(d.out, event.Trigger(t, v))
	}
}

func (d *EdgeDetector) eventFor(id signalId) event.Event {
	switch id {
	case A_SIGNAL:
		return event.New(event.SELECT_EVENT)
	case B_SIGNAL:
		return event.New(event.BACK_EVENT)
	case X_SIGNAL:
		return event.New(event.TOGGLE_EVENT)
	case Y_SIGNAL:
		return event.New(event.FORCE_FULL_REFRESH_EVENT)
	case L1_SIGNAL:
		return event.New(event.BUMPER_LEFT_EVENT)
	case R1_SIGNAL:
		return event.New(event.BUMPER_RIGHT_EVENT)
	case START_SIGNAL:
		return event.New(event.OPEN_SETTINGS_EVENT)
	case SELECT_SIGNAL:
		return event.ScreenChange(d.homeScreen)
	case DPAD_UP_SIGNAL, STICK_UP_SIGNAL:
		return event.Nav(0, -1)
	case DPAD_DOWN_SIGNAL, STICK_DOWN_SIGNAL:
		return event.Nav(0, 1)
	case DPAD_LEFT_SIGNAL, STICK_LEFT_SIGNAL:
		return event.Nav(-1, 0)
	default:
		return event.Nav(1, 0)
	}
}

func scaleTrigger(raw uint16) uint8 {
	if raw >= model.MaxTrigger {
		return 255
	}
	return uint8(uint32(raw) * 255 / model.MaxTrigger)
}
