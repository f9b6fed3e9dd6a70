package nav

import (
	"github.com/jypelle/inkpanel/internal/srv/event"
	"github.com/jypelle/inkpanel/internal/srv/model"
	"github.com/jypelle/inkpanel/internal/srv/state"
	"github.com/sirupsen/logrus"
)

// RoomController is the command side of the lighting service.
type RoomController interface {
	SetRoomState(roomId string, on bool) error
	SetRoomBrightness(roomId string, brightness uint8) error
}

// ZoneController is the command side of the climate service.
type ZoneController interface {
	SetZoneTemperature(zoneId string, celsius float64) error
}

// Reconnecter restarts the telemetry link.
type Reconnecter interface {
	Reconnect() error
}

type SettingAction int

const (
	FORCE_REFRESH_SETTING SettingAction = iota
	DISPLAY_SETTING
	RECONNECT_SETTING
	PAIRING_SETTING
	ABOUT_SETTING

	SettingActionCount
)

func (a SettingAction) String() string {
	switch a {
	case FORCE_REFRESH_SETTING:
		return "Refresh screen"
	case DISPLAY_SETTING:
		return "Display"
	case RECONNECT_SETTING:
		return "Reconnect"
	case PAIRING_SETTING:
		return "Pair bridge"
	case ABOUT_SETTING:
		return "About"
	}
	return "unknown"
}

type DisplayOption int

const (
	PARTIAL_REFRESH_OPTION DisplayOption = iota
	CLEAR_GHOSTING_OPTION

	DisplayOptionCount
)

func (o DisplayOption) String() string {
	switch o {
	case PARTIAL_REFRESH_OPTION:
		return "Partial refresh"
	case CLEAR_GHOSTING_OPTION:
		return "Clear ghosting"
	}
	return "unknown"
}

const (
	BrightnessStep  = 25
	TemperatureStep = 0.5
	MinTemperature  = 5.0
	MaxTemperature  = 25.0
)

// Result tells the scheduler what an event did to the screen.
type Result struct {
	ScreenChanged bool
	FullRefresh   bool
}

func (r *Result) merge(o Result) {
	r.ScreenChanged = r.ScreenChanged || o.ScreenChanged
	r.FullRefresh = r.FullRefresh || o.FullRefresh
}

// Navigator maps semantic events to screen transitions, selection changes
// and service commands.
type Navigator struct {
	shared  *state.Shared
	stack   *Stack
	columns int
	home    model.Screen

	Rooms       RoomController
	Zones       ZoneController
	Reconnecter Reconnecter

	// OnChange, if set, receives a copy of the state after every handled input.
	OnChange func(st state.DisplayState)
}

// NewNavigator starts on the boot screen; home is the main window shown once
// the panel leaves it.
func NewNavigator(shared *state.Shared, columns, stackLimit int, home model.Screen) *Navigator {
	if !home.IsMainWindow() {
		home = model.DASHBOARD_SCREEN
	}
	n := &Navigator{
		shared:  shared,
		stack:   NewStack(model.BOOT_SCREEN, stackLimit),
		columns: columns,
		home:    home,
	}
	n.sync(false)
	return n
}

func (n *Navigator) Stack() *Stack {
	return n.stack
}

func (n *Navigator) Current() model.Screen {
	return n.stack.Current()
}

// Handle processes one event and reports its effect on the display.
func (n *Navigator) Handle(ev event.Event) Result {
	var res Result
	current := n.stack.Current()

	if ev.IsDataUpdate() {
		// New data only leaves the boot screen; status alone does not.
		if current == model.BOOT_SCREEN && ev.Type != event.STATUS_UPDATED_EVENT {
			res.ScreenChanged = n.stack.ClearAndNavigate(n.home)
			n.sync(res.ScreenChanged)
		}
		return res
	}

	switch ev.Type {
	case event.FORCE_FULL_REFRESH_EVENT:
		res.FullRefresh = true
		return res
	case event.SCREEN_CHANGE_EVENT:
		if ev.Screen.IsMainWindow() {
			res.ScreenChanged = n.stack.ClearAndNavigate(ev.Screen)
		} else {
			res.ScreenChanged = n.stack.Push(ev.Screen)
		}
		// The destination is always repainted in full, even when unchanged.
		res.FullRefresh = true
	case event.CONTROLLER_CONNECTED_EVENT:
		n.shared.UpdateConnectivity(func(c *model.Connectivity) { c.Controller = true })
		if current == model.CONTROLLER_LOST_SCREEN {
			res.ScreenChanged = n.stack.Pop()
		}
	case event.CONTROLLER_DISCONNECTED_EVENT:
		n.shared.UpdateConnectivity(func(c *model.Connectivity) { c.Controller = false })
		if current != model.BOOT_SCREEN {
			res.ScreenChanged = n.stack.PushOverlay(model.CONTROLLER_LOST_SCREEN)
		}
	case event.BUMPER_LEFT_EVENT:
		res.ScreenChanged = n.stack.CycleMainWindow(-1)
	case event.BUMPER_RIGHT_EVENT:
		res.ScreenChanged = n.stack.CycleMainWindow(1)
	case event.OPEN_SETTINGS_EVENT:
		res.ScreenChanged = n.stack.Push(model.SETTINGS_SCREEN)
	case event.BACK_EVENT:
		res.ScreenChanged = n.stack.Pop()
	default:
		if current == model.BOOT_SCREEN {
			res.ScreenChanged = n.stack.ClearAndNavigate(n.home)
			break
		}
		res.merge(n.handleScreen(current, ev))
	}

	n.sync(res.ScreenChanged)
	if n.OnChange != nil {
		n.OnChange(n.shared.Copy())
	}
	return res
}

func (n *Navigator) handleScreen(current model.Screen, ev event.Event) Result {
	switch current {
	case model.DASHBOARD_SCREEN:
		return n.handleDashboard(ev)
	case model.ROOM_CONTROL_SCREEN:
		return n.handleRoomControl(ev)
	case model.CLIMATE_SCREEN:
		return n.handleClimate(ev)
	case model.ZONE_CONTROL_SCREEN:
		return n.handleZoneControl(ev)
	case model.SENSORS_SCREEN, model.SENSOR_DETAIL_SCREEN:
		return n.handleSensors(current, ev)
	case model.SETTINGS_SCREEN:
		return n.handleSettings(ev)
	case model.SETTINGS_DISPLAY_SCREEN:
		return n.handleDisplaySettings(ev)
	}
	return Result{}
}

func (n *Navigator) handleDashboard(ev event.Event) Result {
	var res Result
	switch {
	case ev.IsNavigation():
		n.shared.Update(func(st *state.DisplayState) {
			if len(st.Rooms) == 0 {
				return
			}
			sel := GridMove(st.SelectedRoom, len(st.Rooms), n.columns, int(ev.Dx), int(ev.Dy))
			if sel != st.SelectedRoom {
				st.SelectedRoom = sel
				st.Dirty |= state.SELECTION_DIRTY
			}
		})
	case ev.Type == event.SELECT_EVENT:
		if n.hasRooms() {
			res.ScreenChanged = n.stack.Push(model.ROOM_CONTROL_SCREEN)
		}
	case ev.Type == event.TOGGLE_EVENT:
		n.toggleSelectedRoom()
	}
	return res
}

func (n *Navigator) handleRoomControl(ev event.Event) Result {
	switch ev.Type {
	case event.NAV_UP_EVENT, event.NAV_DOWN_EVENT:
		n.shared.Update(func(st *state.DisplayState) {
			if len(st.Rooms) == 0 {
				return
			}
			st.SelectedRoom = Wrap(st.SelectedRoom, int(ev.Dy), len(st.Rooms))
			st.Dirty |= state.SELECTION_DIRTY
		})
	case event.NAV_LEFT_EVENT, event.NAV_RIGHT_EVENT:
		n.adjustBrightness(func(current int) int { return current + int(ev.Dx)*BrightnessStep })
	case event.TRIGGER_RIGHT_EVENT:
		level := int(ev.Intensity) * model.MaxBrightness / 255
		n.adjustBrightness(func(current int) int {
			if level > current {
				return level
			}
			return current
		})
	case event.TRIGGER_LEFT_EVENT:
		level := model.MaxBrightness - int(ev.Intensity)*model.MaxBrightness/255
		n.adjustBrightness(func(current int) int {
			if level < current {
				return level
			}
			return current
		})
	case event.SELECT_EVENT, event.TOGGLE_EVENT:
		n.toggleSelectedRoom()
	}
	return Result{}
}

func (n *Navigator) handleClimate(ev event.Event) Result {
	var res Result
	switch {
	case ev.IsNavigation():
		n.shared.Update(func(st *state.DisplayState) {
			if len(st.Zones) == 0 {
				return
			}
			st.SelectedZone = Wrap(st.SelectedZone, int(ev.Dx)+int(ev.Dy), len(st.Zones))
			st.Dirty |= state.SELECTION_DIRTY
		})
	case ev.Type == event.SELECT_EVENT:
		st := n.shared.Copy()
		if len(st.Zones) > 0 {
			res.ScreenChanged = n.stack.Push(model.ZONE_CONTROL_SCREEN)
		}
	}
	return res
}

func (n *Navigator) handleZoneControl(ev event.Event) Result {
	var delta float64
	switch ev.Type {
	case event.NAV_UP_EVENT, event.NAV_RIGHT_EVENT:
		delta = TemperatureStep
	case event.NAV_DOWN_EVENT, event.NAV_LEFT_EVENT:
		delta = -TemperatureStep
	default:
		return Result{}
	}

	var zone model.Zone
	var ok bool
	n.shared.Update(func(st *state.DisplayState) {
		zone, ok = st.SelectedZoneItem()
		if !ok {
			return
		}
		zone.TargetTemp = clampTemperature(zone.TargetTemp + delta)
		st.Zones[st.SelectedZone] = zone
		st.Dirty |= state.ZONES_DIRTY
	})
	if !ok || n.Zones == nil {
		return Result{}
	}
	if err := n.Zones.SetZoneTemperature(zone.Id, zone.TargetTemp); err != nil {
		logrus.Warnf("Unable to set zone %s temperature: %v", zone.Id, err)
	}
	return Result{}
}

func (n *Navigator) handleSensors(current model.Screen, ev event.Event) Result {
	var res Result
	switch ev.Type {
	case event.NAV_LEFT_EVENT, event.NAV_RIGHT_EVENT, event.NAV_UP_EVENT, event.NAV_DOWN_EVENT:
		n.shared.Update(func(st *state.DisplayState) {
			st.SelectedMetric = model.SensorMetric(Wrap(int(st.SelectedMetric), int(ev.Dx)+int(ev.Dy), int(model.SensorMetricCount)))
			st.Dirty |= state.SELECTION_DIRTY
		})
	case event.SELECT_EVENT:
		if current == model.SENSORS_SCREEN {
			res.ScreenChanged = n.stack.Push(model.SENSOR_DETAIL_SCREEN)
		}
	}
	return res
}

func (n *Navigator) handleSettings(ev event.Event) Result {
	var res Result
	switch {
	case ev.IsNavigation():
		n.shared.Update(func(st *state.DisplayState) {
			st.SelectedSetting = Wrap(st.SelectedSetting, int(ev.Dx)+int(ev.Dy), int(SettingActionCount))
			st.Dirty |= state.SETTINGS_DIRTY
		})
	case ev.Type == event.SELECT_EVENT:
		action := SettingAction(n.shared.Copy().SelectedSetting)
		logrus.Debugf("Run setting action: %s", action)
		switch action {
		case FORCE_REFRESH_SETTING:
			res.FullRefresh = true
		case DISPLAY_SETTING:
			res.ScreenChanged = n.stack.Push(model.SETTINGS_DISPLAY_SCREEN)
		case RECONNECT_SETTING:
			if n.Reconnecter != nil {
				if err := n.Reconnecter.Reconnect(); err != nil {
					logrus.Warnf("Unable to reconnect: %v", err)
				}
			}
		case PAIRING_SETTING:
			res.ScreenChanged = n.stack.Push(model.PAIRING_SCREEN)
		case ABOUT_SETTING:
			res.ScreenChanged = n.stack.Push(model.SETTINGS_ABOUT_SCREEN)
		}
	}
	return res
}

func (n *Navigator) handleDisplaySettings(ev event.Event) Result {
	var res Result
	switch {
	case ev.IsNavigation():
		n.shared.Update(func(st *state.DisplayState) {
			st.SelectedDisplay = Wrap(st.SelectedDisplay, int(ev.Dx)+int(ev.Dy), int(DisplayOptionCount))
			st.Dirty |= state.SETTINGS_DIRTY
		})
	case ev.Type == event.SELECT_EVENT:
		n.shared.Update(func(st *state.DisplayState) {
			switch DisplayOption(st.SelectedDisplay) {
			case PARTIAL_REFRESH_OPTION:
				st.PartialRefreshOn = !st.PartialRefreshOn
				st.Dirty |= state.SETTINGS_DIRTY
			case CLEAR_GHOSTING_OPTION:
				res.FullRefresh = true
			}
		})
	}
	return res
}

func (n *Navigator) hasRooms() bool {
	var ok bool
	n.shared.Update(func(st *state.DisplayState) { ok = len(st.Rooms) > 0 })
	return ok
}

func (n *Navigator) toggleSelectedRoom() {
	var room model.Room
	var ok bool
	n.shared.Update(func(st *state.DisplayState) {
		room, ok = st.SelectedRoomItem()
		if !ok {
			return
		}
		room.On = !room.On
		room.AnyOn = room.On
		st.Rooms[st.SelectedRoom] = room
		st.Dirty |= state.ROOMS_DIRTY
	})
	if !ok || n.Rooms == nil {
		return
	}
	logrus.Debugf("Toggle room %s: %t", room.Id, room.On)
	if err := n.Rooms.SetRoomState(room.Id, room.On); err != nil {
		logrus.Warnf("Unable to switch room %s: %v", room.Id, err)
	}
}

func (n *Navigator) adjustBrightness(next func(current int) int) {
	var room model.Room
	var changed bool
	n.shared.Update(func(st *state.DisplayState) {
		var ok bool
		room, ok = st.SelectedRoomItem()
		if !ok {
			return
		}
		b := next(int(room.Brightness))
		if b < 0 {
			b = 0
		}
		if b > model.MaxBrightness {
			b = model.MaxBrightness
		}
		if uint8(b) == room.Brightness {
			return
		}
		room.Brightness = uint8(b)
		room.On = b > 0
		room.AnyOn = room.On
		st.Rooms[st.SelectedRoom] = room
		st.Dirty |= state.ROOMS_DIRTY
		changed = true
	})
	if !changed || n.Rooms == nil {
		return
	}
	if err := n.Rooms.SetRoomBrightness(room.Id, room.Brightness); err != nil {
		logrus.Warnf("Unable to set room %s brightness: %v", room.Id, err)
	}
}

// sync mirrors the stack into the shared state.
func (n *Navigator) sync(screenChanged bool) {
	current := n.stack.Current()
	depth := n.stack.Depth()
	n.shared.Update(func(st *state.DisplayState) {
		if st.CurrentScreen != current {
			st.PreviousScreen = st.CurrentScreen
			st.CurrentScreen = current
		}
		st.StackDepth = depth
		if screenChanged {
			st.Dirty |= state.FULL_REDRAW_DIRTY
		}
	})
	if screenChanged {
		logrus.Debugf("Screen: %s (depth %d)", current, depth)
	}
}

func clampTemperature(t float64) float64 {
	if t < MinTemperature {
		return MinTemperature
	}
	if t > MaxTemperature {
		return MaxTemperature
	}
	return t
}
