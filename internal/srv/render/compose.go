package render

import (
	"fmt"
	"image"
	"image/color"

	"github.com/hajimehoshi/bitmapfont/v2"
	"github.com/jypelle/inkpanel/internal/srv/model"
	"github.com/jypelle/inkpanel/internal/srv/nav"
	"github.com/jypelle/inkpanel/internal/srv/state"
	"github.com/jypelle/inkpanel/internal/version"
	"golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/math/fixed"
)

const lineHeight = 14

var (
	paper = image.NewUniform(color.Gray{Y: 255})
	ink   = image.NewUniform(color.Gray{Y: 0})
)

// Composer paints a whole frame from a state snapshot. Drawing is cheap next
// to a panel refresh, so partial repaints compose the full frame too and only
// send the changed rectangles.
type Composer struct {
	layout Layout
}

func NewComposer(layout Layout) *Composer {
	return &Composer{layout: layout}
}

func (c *Composer) Layout() Layout {
	return c.layout
}

func (c *Composer) Compose(st *state.DisplayState) *image.Gray {
	img := image.NewGray(c.layout.Bounds)
	draw.Draw(img, img.Bounds(), paper, image.Point{}, draw.Src)

	c.statusBar(img, st)
	content := c.layout.Content()

	switch st.CurrentScreen {
	case model.BOOT_SCREEN:
		addCenteredLabel(img, content, content.Min.Y+content.Dy()/2, "Starting...")
	case model.DASHBOARD_SCREEN:
		c.dashboard(img, st)
	case model.ROOM_CONTROL_SCREEN:
		c.roomControl(img, content, st)
	case model.CLIMATE_SCREEN:
		lines := make([]string, len(st.Zones))
		for i, z := range st.Zones {
			lines[i] = fmt.Sprintf("%s %.1f/%.1f", z.Name, z.CurrentTemp, z.TargetTemp)
		}
		addList(img, content, "Climate", lines, st.SelectedZone)
	case model.ZONE_CONTROL_SCREEN:
		c.zoneControl(img, content, st)
	case model.SENSORS_SCREEN, model.SENSOR_DETAIL_SCREEN:
		c.sensors(img, content, st)
	case model.SETTINGS_SCREEN:
		lines := make([]string, nav.SettingActionCount)
		for i := range lines {
			lines[i] = nav.SettingAction(i).String()
		}
		addList(img, content, "Settings", lines, st.SelectedSetting)
	case model.SETTINGS_DISPLAY_SCREEN:
		partial := "off"
		if st.PartialRefreshOn {
			partial = "on"
		}
		lines := []string{
			nav.PARTIAL_REFRESH_OPTION.String() + ": " + partial,
			nav.CLEAR_GHOSTING_OPTION.String(),
		}
		addList(img, content, "Display", lines, st.SelectedDisplay)
	case model.SETTINGS_ABOUT_SCREEN:
		addList(img, content, "About", []string{"inkpanel " + version.Full()}, -1)
	case model.PAIRING_SCREEN:
		addList(img, content, "Pairing", []string{"Press the bridge link button"}, -1)
	case model.CONTROLLER_LOST_SCREEN:
		addCenteredLabel(img, content, content.Min.Y+content.Dy()/2, "Controller disconnected")
	}
	return img
}

func (c *Composer) statusBar(img *image.Gray, st *state.DisplayState) {
	r := c.layout.StatusBar()
	fillRect(img, image.Rect(r.Min.X, r.Max.Y-1, r.Max.X, r.Max.Y), ink)

	left := st.CurrentScreen.String()
	if st.Sensor.Valid {
		left = fmt.Sprintf("%.0fC %.0f%% %dppm", st.Sensor.Temperature, st.Sensor.Humidity, st.Sensor.Co2)
	}
	addLabel(img, r.Min.X+2, r.Max.Y-4, left)

	right := ""
	if st.Connectivity.Wifi {
		right += "W "
	}
	if st.Connectivity.Mqtt == model.CONNECTED_CONNECTION {
		right += "M "
	}
	if st.Connectivity.Controller {
		right += "C "
	}
	if st.Battery >= 0 {
		right += fmt.Sprintf("%d%%", st.Battery)
	}
	addLabel(img, r.Max.X-labelWidth(right)-2, r.Max.Y-4, right)
}

func (c *Composer) dashboard(img *image.Gray, st *state.DisplayState) {
	if len(st.Rooms) == 0 {
		content := c.layout.Content()
		addCenteredLabel(img, content, content.Min.Y+content.Dy()/2, "No rooms")
		return
	}
	for i := range st.Rooms {
		c.tile(img, st, i)
	}
}

// tile paints dashboard tile i; it never draws outside Layout.Tile(i).
func (c *Composer) tile(img *image.Gray, st *state.DisplayState, i int) {
	r := c.layout.Tile(i, len(st.Rooms)).Inset(1)
	room := st.Rooms[i]

	fg, bg := ink, paper
	if i == st.SelectedRoom {
		fg, bg = paper, ink
	}
	fillRect(img, r, bg)
	strokeRect(img, r, ink)

	sub := img.SubImage(r).(*image.Gray)
	addLabelColor(sub, r.Min.X+3, r.Min.Y+lineHeight, room.Name, fg)
	status := "off"
	if room.On {
		status = fmt.Sprintf("on %d%%", room.BrightnessPercent())
	} else if room.AnyOn {
		status = "partly on"
	}
	addLabelColor(sub, r.Min.X+3, r.Min.Y+2*lineHeight, status, fg)
}

func (c *Composer) roomControl(img *image.Gray, r image.Rectangle, st *state.DisplayState) {
	room, ok := st.SelectedRoomItem()
	if !ok {
		addCenteredLabel(img, r, r.Min.Y+r.Dy()/2, "No room")
		return
	}
	onOff := "Off"
	if room.On {
		onOff = "On"
	}
	addLabel(img, r.Min.X+4, r.Min.Y+lineHeight, room.Name)
	addLabel(img, r.Min.X+4, r.Min.Y+2*lineHeight, onOff)
	bar := image.Rect(r.Min.X+4, r.Min.Y+2*lineHeight+6, r.Max.X-4, r.Min.Y+2*lineHeight+16)
	strokeRect(img, bar, ink)
	fill := bar.Inset(2)
	fill.Max.X = fill.Min.X + fill.Dx()*room.BrightnessPercent()/100
	fillRect(img, fill, ink)
}

func (c *Composer) zoneControl(img *image.Gray, r image.Rectangle, st *state.DisplayState) {
	zone, ok := st.SelectedZoneItem()
	if !ok {
		addCenteredLabel(img, r, r.Min.Y+r.Dy()/2, "No zone")
		return
	}
	addLabel(img, r.Min.X+4, r.Min.Y+lineHeight, zone.Name)
	addLabel(img, r.Min.X+4, r.Min.Y+2*lineHeight, fmt.Sprintf("Now %.1fC  Set %.1fC", zone.CurrentTemp, zone.TargetTemp))
	if zone.Heating {
		addLabel(img, r.Min.X+4, r.Min.Y+3*lineHeight, fmt.Sprintf("Heating %d%%", zone.HeatingPowerLevel))
	}
}

func (c *Composer) sensors(img *image.Gray, r image.Rectangle, st *state.DisplayState) {
	if !st.Sensor.Valid {
		addCenteredLabel(img, r, r.Min.Y+r.Dy()/2, "No sensor data")
		return
	}
	lines := make([]string, model.SensorMetricCount)
	for i := range lines {
		m := model.SensorMetric(i)
		lines[i] = fmt.Sprintf("%s: %.1f", m, st.Sensor.Value(m))
	}
	title := "Air quality"
	if st.CurrentScreen == model.SENSOR_DETAIL_SCREEN {
		title = st.SelectedMetric.String()
	}
	addList(img, r, title, lines, int(st.SelectedMetric))
}

func addList(img *image.Gray, r image.Rectangle, title string, lines []string, selected int) {
	addLabel(img, r.Min.X+4, r.Min.Y+lineHeight, title)
	for i, line := range lines {
		y := r.Min.Y + (i+2)*lineHeight
		if y > r.Max.Y {
			break
		}
		if i == selected {
			fillRect(img, image.Rect(r.Min.X+2, y-lineHeight+3, r.Max.X-2, y+3), ink)
			addLabelColor(img, r.Min.X+8, y, line, paper)
			continue
		}
		addLabel(img, r.Min.X+8, y, line)
	}
}

func addLabel(img draw.Image, x, y int, label string) {
	addLabelColor(img, x, y, label, ink)
}

func addLabelColor(img draw.Image, x, y int, label string, src image.Image) {
	d := &font.Drawer{
		Dst:  img,
		Src:  src,
		Face: bitmapfont.Face,
		Dot:  fixed.P(x, y),
	}
	d.DrawString(label)
}

func addCenteredLabel(img draw.Image, r image.Rectangle, y int, label string) {
	addLabel(img, r.Min.X+(r.Dx()-labelWidth(label))/2, y, label)
}

func labelWidth(label string) int {
	return font.MeasureString(bitmapfont.Face, label).Round()
}

func fillRect(img draw.Image, r image.Rectangle, src image.Image) {
	draw.Draw(img, r, src, image.Point{}, draw.Src)
}

func strokeRect(img draw.Image, r image.Rectangle, src image.Image) {
	fillRect(img, image.Rect(r.Min.X, r.Min.Y, r.Max.X, r.Min.Y+1), src)
	fillRect(img, image.Rect(r.Min.X, r.Max.Y-1, r.Max.X, r.Max.Y), src)
	fillRect(img, image.Rect(r.Min.X, r.Min.Y, r.Min.X+1, r.Max.Y), src)
	fillRect(img, image.Rect(r.Max.X-1, r.Min.Y, r.Max.X, r.Max.Y), src)
}
