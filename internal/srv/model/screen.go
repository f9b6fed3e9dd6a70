package model

// Screen identifies one page of the panel.
type Screen int8

const (
	BOOT_SCREEN Screen = iota
	DASHBOARD_SCREEN
	SENSORS_SCREEN
	CLIMATE_SCREEN
	ROOM_CONTROL_SCREEN
	ZONE_CONTROL_SCREEN
	SENSOR_DETAIL_SCREEN
	SETTINGS_SCREEN
	SETTINGS_DISPLAY_SCREEN
	SETTINGS_ABOUT_SCREEN
	PAIRING_SCREEN
	CONTROLLER_LOST_SCREEN

	ScreenCount
)

// MainWindows are the top-level screens reachable by bumper cycling, in cycling order.
var MainWindows = [3]Screen{DASHBOARD_SCREEN, SENSORS_SCREEN, CLIMATE_SCREEN}

var screenNames = [ScreenCount]string{
	BOOT_SCREEN:             "boot",
	DASHBOARD_SCREEN:        "dashboard",
	SENSORS_SCREEN:          "sensors",
	CLIMATE_SCREEN:          "climate",
	ROOM_CONTROL_SCREEN:     "room_control",
	ZONE_CONTROL_SCREEN:     "zone_control",
	SENSOR_DETAIL_SCREEN:    "sensor_detail",
	SETTINGS_SCREEN:         "settings",
	SETTINGS_DISPLAY_SCREEN: "settings_display",
	SETTINGS_ABOUT_SCREEN:   "settings_about",
	PAIRING_SCREEN:          "pairing",
	CONTROLLER_LOST_SCREEN:  "controller_lost",
}

func (s Screen) String() string {
	if s < 0 || s >= ScreenCount {
		return "unknown"
	}
	return screenNames[s]
}

// MainWindowIndex returns the position of s in MainWindows, or -1 for sub-screens.
func (s Screen) MainWindowIndex() int {
	for i, m := range MainWindows {
		if m == s {
			return i
		}
	}
	return -1
}

func (s Screen) IsMainWindow() bool {
	return s.MainWindowIndex() >= 0
}

// ParseScreen is the inverse of Screen.String.
func ParseScreen(name string) (Screen, bool) {
	for i, n := range screenNames {
		if n == name {
			return Screen(i), true
		}
	}
	return BOOT_SCREEN, false
}
