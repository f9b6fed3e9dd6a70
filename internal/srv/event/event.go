package event

import (
	"github.com/jypelle/inkpanel/internal/srv/model"
)

type Type int8

const (
	NONE_EVENT Type = iota

	// Navigation
	NAV_UP_EVENT
	NAV_DOWN_EVENT
	NAV_LEFT_EVENT
	NAV_RIGHT_EVENT

	// Analog triggers
	TRIGGER_LEFT_EVENT
	TRIGGER_RIGHT_EVENT

	// Buttons
	SELECT_EVENT
	BACK_EVENT
	TOGGLE_EVENT
	OPEN_SETTINGS_EVENT
	BUMPER_LEFT_EVENT
	BUMPER_RIGHT_EVENT

	// Display
	SCREEN_CHANGE_EVENT
	FORCE_FULL_REFRESH_EVENT

	// Controller link
	CONTROLLER_CONNECTED_EVENT
	CONTROLLER_DISCONNECTED_EVENT

	// External data
	ROOMS_UPDATED_EVENT
	ZONES_UPDATED_EVENT
	SENSOR_DATA_UPDATED_EVENT
	STATUS_UPDATED_EVENT

	typeCount
)

var typeNames = [typeCount]string{
	NONE_EVENT:                    "none",
	NAV_UP_EVENT:                  "nav_up",
	NAV_DOWN_EVENT:                "nav_down",
	NAV_LEFT_EVENT:                "nav_left",
	NAV_RIGHT_EVENT:               "nav_right",
	TRIGGER_LEFT_EVENT:            "trigger_left",
	TRIGGER_RIGHT_EVENT:           "trigger_right",
	SELECT_EVENT:                  "select",
	BACK_EVENT:                    "back",
	TOGGLE_EVENT:                  "toggle",
	OPEN_SETTINGS_EVENT:           "open_settings",
	BUMPER_LEFT_EVENT:             "bumper_left",
	BUMPER_RIGHT_EVENT:            "bumper_right",
	SCREEN_CHANGE_EVENT:           "screen_change",
	FORCE_FULL_REFRESH_EVENT:      "force_full_refresh",
	CONTROLLER_CONNECTED_EVENT:    "controller_connected",
	CONTROLLER_DISCONNECTED_EVENT: "controller_disconnected",
	ROOMS_UPDATED_EVENT:           "rooms_updated",
	ZONES_UPDATED_EVENT:           "zones_updated",
	SENSOR_DATA_UPDATED_EVENT:     "sensor_data_updated",
	STATUS_UPDATED_EVENT:          "status_updated",
}

func (t Type) String() string {
	if t < 0 || t >= typeCount {
		return "unknown"
	}
	return typeNames[t]
}

// ParseType is the inverse of Type.String.
func ParseType(name string) (Type, bool) {
	for i, n := range typeNames {
		if n == name {
			return Type(i), true
		}
	}
	return NONE_EVENT, false
}

// Event is a semantic action crossing from the input task to the render task.
// It is a small fixed-size value and must stay free of pointers, slices and
// interfaces so that queuing it never allocates.
type Event struct {
	Type Type
	// Dx, Dy carry the unit direction of navigation events.
	Dx int8
	Dy int8
	// Intensity is the final trigger position (0-255) of trigger events.
	Intensity uint8
	// Screen is the destination of SCREEN_CHANGE events.
	Screen model.Screen
}

func New(t Type) Event {
	return Event{Type: t}
}

// Nav returns the navigation event for a unit direction.
func Nav(dx, dy int8) Event {
	switch {
	case dx < 0:
		return Event{Type: NAV_LEFT_EVENT, Dx: -1}
	case dx > 0:
		return Event{Type: NAV_RIGHT_EVENT, Dx: 1}
	case dy < 0:
		return Event{Type: NAV_UP_EVENT, Dy: -1}
	default:
		return Event{Type: NAV_DOWN_EVENT, Dy: 1}
	}
}

func Trigger(t Type, intensity uint8) Event {
	return Event{Type: t, Intensity: intensity}
}

func ScreenChange(s model.Screen) Event {
	return Event{Type: SCREEN_CHANGE_EVENT, Screen: s}
}

func (e Event) IsNavigation() bool {
	return e.Type >= NAV_UP_EVENT && e.Type <= NAV_RIGHT_EVENT
}

func (e Event) IsTrigger() bool {
	return e.Type == TRIGGER_LEFT_EVENT || e.Type == TRIGGER_RIGHT_EVENT
}

// IsImmediate reports whether e must bypass every batching window.
func (e Event) IsImmediate() bool {
	switch e.Type {
	case SCREEN_CHANGE_EVENT,
		SELECT_EVENT,
		BACK_EVENT,
		OPEN_SETTINGS_EVENT,
		BUMPER_LEFT_EVENT,
		BUMPER_RIGHT_EVENT,
		FORCE_FULL_REFRESH_EVENT,
		CONTROLLER_CONNECTED_EVENT,
		CONTROLLER_DISCONNECTED_EVENT:
		return true
	}
	return false
}

// IsDataUpdate reports whether e only signals new external data.
func (e Event) IsDataUpdate() bool {
	return e.Type >= ROOMS_UPDATED_EVENT && e.Type <= STATUS_UPDATED_EVENT
}
