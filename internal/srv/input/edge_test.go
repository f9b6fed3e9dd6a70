package input

import (
	"testing"
	"time"

	"github.com/jypelle/inkpanel/internal/srv/event"
	"github.com/jypelle/inkpanel/internal/srv/model"
)

func types(evs []event.Event) []event.Type {
	out := make([]event.Type, len(evs))
	for i, ev := range evs {
		out[i] = ev.Type
	}
	return out
}

func TestEdgeHeldButtonFiresOnce(t *testing.T) {
	d := NewEdgeDetector(8000, 200*time.Millisecond, model.DASHBOARD_SCREEN)
	now := time.Unix(0, 0)
	held := model.ControllerSnapshot{A: true}

	if got := types(d.Detect(held, now)); len(got) != 1 || got[0] != event.SELECT_EVENT {
		t.Fatalf("first press = %v, want [select]", got)
	}
	for i := 1; i <= 50; i++ {
		if got := d.Detect(held, now.Add(time.Duration(i)*10*time.Millisecond)); len(got) != 0 {
			t.Fatalf("holding fired %v at tick %d", types(got), i)
		}
	}
	d.Detect(model.ControllerSnapshot{}, now.Add(time.Second))
	if got := types(d.Detect(held, now.Add(time.Second+10*time.Millisecond))); len(got) != 1 {
		t.Errorf("re-press = %v, want one event", got)
	}
}

func TestEdgeButtonMapping(t *testing.T) {
	tests := []struct {
		name string
		snap model.ControllerSnapshot
		want event.Type
	}{
		{"a", model.ControllerSnapshot{A: true}, event.SELECT_EVENT},
		{"b", model.ControllerSnapshot{B: true}, event.BACK_EVENT},
		{"x", model.ControllerSnapshot{X: true}, event.TOGGLE_EVENT},
		{"y", model.ControllerSnapshot{Y: true}, event.FORCE_FULL_REFRESH_EVENT},
		{"l1", model.ControllerSnapshot{L1: true}, event.BUMPER_LEFT_EVENT},
		{"r1", model.ControllerSnapshot{R1: true}, event.BUMPER_RIGHT_EVENT},
		{"start", model.ControllerSnapshot{Start: true}, event.OPEN_SETTINGS_EVENT},
		{"select", model.ControllerSnapshot{Select: true}, event.SCREEN_CHANGE_EVENT},
		{"up", model.ControllerSnapshot{Up: true}, event.NAV_UP_EVENT},
		{"down", model.ControllerSnapshot{Down: true}, event.NAV_DOWN_EVENT},
		{"left", model.ControllerSnapshot{Left: true}, event.NAV_LEFT_EVENT},
		{"right", model.ControllerSnapshot{Right: true}, event.NAV_RIGHT_EVENT},
		{"stick right", model.ControllerSnapshot{LeftStickX: 20000}, event.NAV_RIGHT_EVENT},
		{"right stick scrolls", model.ControllerSnapshot{RightStickY: -20000}, event.NAV_UP_EVENT},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			d := NewEdgeDetector(8000, 200*time.Millisecond, model.SENSORS_SCREEN)
			got := d.Detect(tc.snap, time.Unix(0, 0))
			if len(got) != 1 || got[0].Type != tc.want {
				t.Fatalf("got %v, want [%s]", types(got), tc.want)
			}
			if tc.want == event.SCREEN_CHANGE_EVENT && got[0].Screen != model.SENSORS_SCREEN {
				t.Errorf("home shortcut goes to %s", got[0].Screen)
			}
		})
	}
}

func TestEdgeStickDeadzone(t *testing.T) {
	d := NewEdgeDetector(8000, 200*time.Millisecond, model.DASHBOARD_SCREEN)
	if got := d.Detect(model.ControllerSnapshot{LeftStickX: 7999, LeftStickY: -8000}, time.Unix(0, 0)); len(got) != 0 {
		t.Errorf("deflection inside the deadzone fired %v", types(got))
	}
}

func TestEdgeStickDebounce(t *testing.T) {
	d := NewEdgeDetector(8000, 200*time.Millisecond, model.DASHBOARD_SCREEN)
	now := time.Unix(0, 0)
	right := model.ControllerSnapshot{LeftStickX: 30000}
	center := model.ControllerSnapshot{}

	if got := d.Detect(right, now); len(got) != 1 {
		t.Fatalf("first flick = %v", types(got))
	}
	d.Detect(center, now.Add(50*time.Millisecond))
	if got := d.Detect(right, now.Add(100*time.Millisecond)); len(got) != 0 {
		t.Errorf("flick within debounce fired %v", types(got))
	}
	d.Detect(center, now.Add(150*time.Millisecond))
	if got := d.Detect(right, now.Add(300*time.Millisecond)); len(got) != 1 {
		t.Errorf("flick after debounce = %v", types(got))
	}
}

func TestEdgeTrigger(t *testing.T) {
	d := NewEdgeDetector(8000, 200*time.Millisecond, model.DASHBOARD_SCREEN)
	now := time.Unix(0, 0)

	got := d.Detect(model.ControllerSnapshot{RightTrigger: model.MaxTrigger}, now)
	if len(got) != 1 || got[0].Type != event.TRIGGER_RIGHT_EVENT || got[0].Intensity != 255 {
		t.Fatalf("full trigger = %+v", got)
	}
	if got := d.Detect(model.ControllerSnapshot{RightTrigger: model.MaxTrigger - 4}, now); len(got) != 0 {
		t.Errorf("small trigger change fired %+v", got)
	}
	got = d.Detect(model.ControllerSnapshot{}, now)
	if len(got) != 1 || got[0].Intensity != 0 {
		t.Errorf("release = %+v, want one zero sample", got)
	}
}

func TestEdgeReset(t *testing.T) {
	d := NewEdgeDetector(8000, 200*time.Millisecond, model.DASHBOARD_SCREEN)
	held := model.ControllerSnapshot{B: true}
	d.Detect(held, time.Unix(0, 0))
	d.Reset()
	if got := d.Detect(held, time.Unix(1, 0)); len(got) != 1 {
		t.Errorf("after reset a held button counts as pressed again, got %v", types(got))
	}
}
