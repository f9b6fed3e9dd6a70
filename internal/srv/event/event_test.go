package event

import (
	"testing"
	"unsafe"

	"github.com/jypelle/inkpanel/internal/srv/model"
)

func TestEventIsSmall(t *testing.T) {
	if size := unsafe.Sizeof(Event{}); size > 8 {
		t.Errorf("event size = %d bytes, want a fixed slot of at most 8", size)
	}
}

func TestParseType(t *testing.T) {
	for i := Type(0); i < typeCount; i++ {
		got, ok := ParseType(i.String())
		if !ok || got != i {
			t.Errorf("ParseType(%q) = %v %v", i.String(), got, ok)
		}
	}
	if _, ok := ParseType("nope"); ok {
		t.Error("unknown name must not parse")
	}
}

func TestClassification(t *testing.T) {
	tests := []struct {
		ev         Event
		immediate  bool
		navigation bool
		trigger    bool
	}{
		{Nav(1, 0), false, true, false},
		{Nav(0, -1), false, true, false},
		{Trigger(TRIGGER_LEFT_EVENT, 10), false, false, true},
		{New(SELECT_EVENT), true, false, false},
		{New(BACK_EVENT), true, false, false},
		{New(OPEN_SETTINGS_EVENT), true, false, false},
		{New(BUMPER_RIGHT_EVENT), true, false, false},
		{New(FORCE_FULL_REFRESH_EVENT), true, false, false},
		{New(CONTROLLER_DISCONNECTED_EVENT), true, false, false},
		{ScreenChange(model.CLIMATE_SCREEN), true, false, false},
		{New(TOGGLE_EVENT), false, false, false},
		{New(ROOMS_UPDATED_EVENT), false, false, false},
	}
	for _, tc := range tests {
		if got := tc.ev.IsImmediate(); got != tc.immediate {
			t.Errorf("%s immediate = %v", tc.ev.Type, got)
		}
		if got := tc.ev.IsNavigation(); got != tc.navigation {
			t.Errorf("%s navigation = %v", tc.ev.Type, got)
		}
		if got := tc.ev.IsTrigger(); got != tc.trigger {
			t.Errorf("%s trigger = %v", tc.ev.Type, got)
		}
	}
}
