package state

import (
	"time"

	"github.com/jypelle/inkpanel/internal/srv/model"
)

// Dirty marks pieces of DisplayState changed since they were last rendered.
type Dirty uint16

const (
	STATUS_BAR_DIRTY Dirty = 1 << iota
	ROOMS_DIRTY
	ZONES_DIRTY
	SENSORS_DIRTY
	SELECTION_DIRTY
	SETTINGS_DIRTY
	FULL_REDRAW_DIRTY

	NO_DIRTY Dirty = 0
)

func (d Dirty) Has(flag Dirty) bool {
	return d&flag != 0
}

// DisplayState is everything the renderer needs to paint the panel.
type DisplayState struct {
	CurrentScreen  model.Screen
	PreviousScreen model.Screen
	// StackDepth mirrors the navigation back-stack depth.
	StackDepth int

	SelectedRoom     int
	SelectedZone     int
	SelectedSetting  int
	SelectedMetric   model.SensorMetric
	SelectedDisplay  int
	PartialRefreshOn bool

	Rooms        []model.Room
	Zones        []model.Zone
	Sensor       model.SensorReading
	Connectivity model.Connectivity
	Battery      int

	Dirty Dirty

	RoomsUpdatedAt  time.Time
	ZonesUpdatedAt  time.Time
	SensorUpdatedAt time.Time
	StatusUpdatedAt time.Time
}

// Default returns the state used at boot.
func Default() DisplayState {
	return DisplayState{
		CurrentScreen:    model.BOOT_SCREEN,
		PreviousScreen:   model.BOOT_SCREEN,
		StackDepth:       1,
		SelectedMetric:   model.CO2_METRIC,
		PartialRefreshOn: true,
		Battery:          -1,
		Dirty:            FULL_REDRAW_DIRTY,
	}
}

// Clone returns a copy of s sharing no memory with it.
func (s DisplayState) Clone() DisplayState {
	c := s
	if s.Rooms != nil {
		c.Rooms = append([]model.Room(nil), s.Rooms...)
	}
	if s.Zones != nil {
		c.Zones = append([]model.Zone(nil), s.Zones...)
	}
	return c
}

// SelectedRoomItem returns the currently selected room, if any.
func (s *DisplayState) SelectedRoomItem() (model.Room, bool) {
	if s.SelectedRoom < 0 || s.SelectedRoom >= len(s.Rooms) {
		return model.Room{}, false
	}
	return s.Rooms[s.SelectedRoom], true
}

// SelectedZoneItem returns the currently selected zone, if any.
func (s *DisplayState) SelectedZoneItem() (model.Zone, bool) {
	if s.SelectedZone < 0 || s.SelectedZone >= len(s.Zones) {
		return model.Zone{}, false
	}
	return s.Zones[s.SelectedZone], true
}

func (s *DisplayState) clampSelections() {
	if s.SelectedRoom >= len(s.Rooms) {
		s.SelectedRoom = len(s.Rooms) - 1
	}
	if s.SelectedRoom < 0 {
		s.SelectedRoom = 0
	}
	if s.SelectedZone >= len(s.Zones) {
		s.SelectedZone = len(s.Zones) - 1
	}
	if s.SelectedZone < 0 {
		s.SelectedZone = 0
	}
}
