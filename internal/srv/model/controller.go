package model

// ControllerSnapshot is a point-in-time read of the game controller.
type ControllerSnapshot struct {
	A, B, X, Y   bool
	L1, R1       bool
	Start        bool
	Select       bool
	Up, Down     bool
	Left, Right  bool
	LeftStickX   int16
	LeftStickY   int16
	RightStickX  int16
	RightStickY  int16
	LeftTrigger  uint16
	RightTrigger uint16
}

// MaxTrigger is the full-scale trigger reading reported by controller drivers.
const MaxTrigger = 1023

// Haptic selects a rumble pattern.
type Haptic int8

const (
	TICK_HAPTIC Haptic = iota
	SHORT_HAPTIC
	LONG_HAPTIC
)
