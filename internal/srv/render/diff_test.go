package render

import (
	"testing"

	"github.com/jypelle/inkpanel/internal/srv/model"
	"github.com/jypelle/inkpanel/internal/srv/state"
)

func dashboardState() state.DisplayState {
	st := state.Default()
	st.CurrentScreen = model.DASHBOARD_SCREEN
	st.Rooms = []model.Room{
		{Id: "1", Name: "Living", On: true, AnyOn: true, Brightness: 100},
		{Id: "2", Name: "Kitchen"},
		{Id: "3", Name: "Bedroom"},
	}
	st.Battery = 80
	st.Sensor = model.SensorReading{Valid: true, Temperature: 21, Humidity: 40, Co2: 600}
	return st
}

func TestDiffNoChange(t *testing.T) {
	last := dashboardState()
	cur := last.Clone()
	if d := Compute(&last, &cur, DefaultHysteresis()); !d.Empty() {
		t.Errorf("identical states diff = %+v", d)
	}
}

func TestDiffBrightnessHysteresis(t *testing.T) {
	last := dashboardState()

	cur := last.Clone()
	cur.Rooms[0].Brightness = 110
	if d := Compute(&last, &cur, DefaultHysteresis()); !d.Empty() {
		t.Errorf("100 -> 110 must stay below the threshold, got %+v", d)
	}

	cur.Rooms[0].Brightness = 112
	d := Compute(&last, &cur, DefaultHysteresis())
	if len(d.Tiles) != 1 || d.Tiles[0] != 0 {
		t.Errorf("100 -> 112 tiles = %v, want [0]", d.Tiles)
	}
	if d.StatusBar {
		t.Error("a room change must not touch the status bar")
	}
}

func TestDiffSelectionMovesTwoTiles(t *testing.T) {
	last := dashboardState()
	cur := last.Clone()
	cur.SelectedRoom = 2
	d := Compute(&last, &cur, DefaultHysteresis())
	if len(d.Tiles) != 2 || d.Tiles[0] != 0 || d.Tiles[1] != 2 {
		t.Errorf("tiles = %v, want [0 2]", d.Tiles)
	}
}

func TestDiffRoomCountChange(t *testing.T) {
	last := dashboardState()
	cur := last.Clone()
	cur.Rooms = append(cur.Rooms, model.Room{Id: "4"})
	d := Compute(&last, &cur, DefaultHysteresis())
	if len(d.Tiles) != 4 || !d.Layout {
		t.Errorf("diff = %+v, want a layout change over all four tiles", d)
	}

	cur.Rooms = nil
	d = Compute(&last, &cur, DefaultHysteresis())
	if !d.Layout || d.Empty() {
		t.Errorf("emptied room list diff = %+v, want a layout change", d)
	}
}

func TestStatusBarThresholds(t *testing.T) {
	tests := []struct {
		name   string
		change func(st *state.DisplayState)
		want   bool
	}{
		{"battery within", func(st *state.DisplayState) { st.Battery = 85 }, false},
		{"battery beyond", func(st *state.DisplayState) { st.Battery = 86 }, true},
		{"temperature within", func(st *state.DisplayState) { st.Sensor.Temperature = 22 }, false},
		{"temperature beyond", func(st *state.DisplayState) { st.Sensor.Temperature = 22.5 }, true},
		{"co2 within", func(st *state.DisplayState) { st.Sensor.Co2 = 620 }, false},
		{"co2 beyond", func(st *state.DisplayState) { st.Sensor.Co2 = 621 }, true},
		{"humidity beyond", func(st *state.DisplayState) { st.Sensor.Humidity = 46 }, true},
		{"sensor invalidated", func(st *state.DisplayState) { st.Sensor.Valid = false }, true},
		{"wifi changed", func(st *state.DisplayState) { st.Connectivity.Wifi = true }, true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			last := dashboardState()
			cur := last.Clone()
			tc.change(&cur)
			if got := StatusBarChanged(&last, &cur, DefaultHysteresis()); got != tc.want {
				t.Errorf("StatusBarChanged = %t, want %t", got, tc.want)
			}
		})
	}
}

func TestDiffSensorScreen(t *testing.T) {
	last := dashboardState()
	last.CurrentScreen = model.SENSORS_SCREEN
	cur := last.Clone()
	cur.Sensor.Co2 = 900

	d := Compute(&last, &cur, DefaultHysteresis())
	if !d.Content || !d.SensorOnly {
		t.Errorf("new readings: %+v", d)
	}

	cur.SelectedMetric = model.HUMIDITY_METRIC
	d = Compute(&last, &cur, DefaultHysteresis())
	if !d.Content || d.SensorOnly {
		t.Errorf("selection and readings: %+v", d)
	}
}

func TestDiffZoneScreen(t *testing.T) {
	last := dashboardState()
	last.CurrentScreen = model.ZONE_CONTROL_SCREEN
	last.Zones = []model.Zone{{Id: "z", TargetTemp: 20, CurrentTemp: 19}}
	cur := last.Clone()
	cur.Zones[0].CurrentTemp = 19.5
	if d := Compute(&last, &cur, DefaultHysteresis()); d.Content {
		t.Error("small temperature drift must not repaint")
	}
	cur.Zones[0].TargetTemp = 20.5
	if d := Compute(&last, &cur, DefaultHysteresis()); !d.Content {
		t.Error("target change must repaint")
	}
}
