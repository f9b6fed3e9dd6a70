package render

import (
	"math"

	"github.com/jypelle/inkpanel/internal/srv/model"
	"github.com/jypelle/inkpanel/internal/srv/state"
)

// Hysteresis holds how far a monitored value must move before it is
// considered changed. Raw sensor noise would otherwise repaint every cycle.
type Hysteresis struct {
	Battery     int     `yaml:"battery"`
	Temperature float64 `yaml:"temperature"`
	Humidity    float64 `yaml:"humidity"`
	Co2         int     `yaml:"co2"`
	// Brightness is in percent; a tile changes once the gap reaches it.
	Brightness int `yaml:"brightness"`
}

func DefaultHysteresis() Hysteresis {
	return Hysteresis{
		Battery:     5,
		Temperature: 1.0,
		Humidity:    5,
		Co2:         20,
		Brightness:  5,
	}
}

// Diff lists the regions to repaint between two snapshots.
type Diff struct {
	StatusBar bool
	// Tiles are the changed dashboard tiles, in ascending order.
	Tiles []int
	// Layout is set when the room count changed: the tile grid moved and
	// the whole content area must be repainted.
	Layout bool
	// Content is set when the body of a non-dashboard screen changed.
	Content bool
	// SensorOnly is set when Content changed only because of new readings.
	SensorOnly bool
}

func (d Diff) Empty() bool {
	return !d.StatusBar && len(d.Tiles) == 0 && !d.Layout && !d.Content
}

// Compute compares the last rendered snapshot with the current one. Both must
// show the same screen; a screen change is always a full repaint.
func Compute(last, current *state.DisplayState, h Hysteresis) Diff {
	var d Diff
	d.StatusBar = StatusBarChanged(last, current, h)

	switch current.CurrentScreen {
	case model.DASHBOARD_SCREEN:
		d.Layout = len(last.Rooms) != len(current.Rooms)
		d.Tiles = ChangedTiles(last, current, h)
	case model.ROOM_CONTROL_SCREEN:
		lr, lok := last.SelectedRoomItem()
		cr, cok := current.SelectedRoomItem()
		d.Content = lok != cok || last.SelectedRoom != current.SelectedRoom || roomChanged(lr, cr, h)
	case model.CLIMATE_SCREEN, model.ZONE_CONTROL_SCREEN:
		d.Content = last.SelectedZone != current.SelectedZone || zonesChanged(last.Zones, current.Zones, h)
	case model.SENSORS_SCREEN, model.SENSOR_DETAIL_SCREEN:
		selection := last.SelectedMetric != current.SelectedMetric
		readings := sensorChanged(last.Sensor, current.Sensor, h)
		d.Content = selection || readings
		d.SensorOnly = readings && !selection
	case model.SETTINGS_SCREEN:
		d.Content = last.SelectedSetting != current.SelectedSetting
	case model.SETTINGS_DISPLAY_SCREEN:
		d.Content = last.SelectedDisplay != current.SelectedDisplay || last.PartialRefreshOn != current.PartialRefreshOn
	}
	return d
}

// StatusBarChanged reports whether the status bar must be repainted.
func StatusBarChanged(last, current *state.DisplayState, h Hysteresis) bool {
	if last.Connectivity != current.Connectivity {
		return true
	}
	if absInt(last.Battery-current.Battery) > h.Battery {
		return true
	}
	if last.Sensor.Valid != current.Sensor.Valid {
		return true
	}
	return sensorChanged(last.Sensor, current.Sensor, h)
}

// ChangedTiles returns the indices of the dashboard tiles that differ. When
// the number of rooms changed every tile is reported.
func ChangedTiles(last, current *state.DisplayState, h Hysteresis) []int {
	var changed []int
	if len(last.Rooms) != len(current.Rooms) {
		changed = make([]int, len(current.Rooms))
		for i := range changed {
			changed[i] = i
		}
		return changed
	}
	for i := range current.Rooms {
		selectionMoved := (last.SelectedRoom == i) != (current.SelectedRoom == i)
		if selectionMoved || roomChanged(last.Rooms[i], current.Rooms[i], h) {
			changed = append(changed, i)
		}
	}
	return changed
}

func roomChanged(a, b model.Room, h Hysteresis) bool {
	if a.On != b.On || a.AnyOn != b.AnyOn || a.Name != b.Name {
		return true
	}
	return absInt(a.BrightnessPercent()-b.BrightnessPercent()) >= h.Brightness
}

func zonesChanged(a, b []model.Zone, h Hysteresis) bool {
	if len(a) != len(b) {
		return true
	}
	for i := range a {
		if a[i].Name != b[i].Name || a[i].TargetTemp != b[i].TargetTemp || a[i].Heating != b[i].Heating {
			return true
		}
		if math.Abs(a[i].CurrentTemp-b[i].CurrentTemp) > h.Temperature {
			return true
		}
	}
	return false
}

func sensorChanged(a, b model.SensorReading, h Hysteresis) bool {
	if a.Valid != b.Valid {
		return true
	}
	return math.Abs(a.Temperature-b.Temperature) > h.Temperature ||
		math.Abs(a.Humidity-b.Humidity) > h.Humidity ||
		absInt(a.Co2-b.Co2) > h.Co2
}

func absInt(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
