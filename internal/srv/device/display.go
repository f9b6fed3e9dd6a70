package device

import (
	"fmt"
	"image"
	"image/color"

	"github.com/sirupsen/logrus"
	"golang.org/x/image/draw"
	"periph.io/x/conn/v3/spi/spireg"
	"periph.io/x/devices/v3/ssd1306/image1bit"
	"periph.io/x/devices/v3/waveshare2in13v4"
	"periph.io/x/host/v3"
)

// NewDisplay returns the e-paper panel, or a window of width x height in
// simulation mode.
func NewDisplay(simulationMode bool, width, height int) *Display {
	return &Display{
		simulationMode: simulationMode,
		bounds:         image.Rect(0, 0, width, height),
	}
}

func (d *Display) Start() error {
	logrus.Infof("Start display device")

	if d.simulationMode {
		d.lock.Lock()
		d.frame = image.NewGray(d.bounds)
		draw.Draw(d.frame, d.bounds, image.White, image.Point{}, draw.Src)
		d.lock.Unlock()
		d.startSimulation()
		return nil
	}

	if _, err := host.Init(); err != nil {
		return fmt.Errorf("display: %w", err)
	}

	var err error
	d.spiPort, err = spireg.Open("")
	if err != nil {
		return fmt.Errorf("display: unable to open spi port: %w", err)
	}

	opts := waveshare2in13v4.EPD2in13v4
	d.epd, err = waveshare2in13v4.NewHat(d.spiPort, &opts)
	if err != nil {
		d.spiPort.Close()
		return fmt.Errorf("display: unable to initialize e-paper hat: %w", err)
	}
	if err = d.epd.Init(); err != nil {
		d.spiPort.Close()
		return fmt.Errorf("display: unable to init e-paper: %w", err)
	}

	d.lock.Lock()
	d.bounds = d.epd.Bounds()
	d.lock.Unlock()
	d.buf = image1bit.NewVerticalLSB(d.bounds)
	return nil
}

func (d *Display) Stop() {
	logrus.Infof("Stop display device")

	if d.simulationMode {
		d.closeSimulationWindow()
		return
	}

	d.epdLock.Lock()
	defer d.epdLock.Unlock()
	if err := d.epd.Sleep(); err != nil {
		logrus.Warnf("Unable to put e-paper to sleep: %v", err)
	}
	d.epd.Halt()
	d.spiPort.Close()
}

func (d *Display) Bounds() image.Rectangle {
	d.lock.RLock()
	defer d.lock.RUnlock()
	return d.bounds
}

func (d *Display) FullRefresh(img image.Image) error {
	if d.simulationMode {
		d.lock.Lock()
		draw.Draw(d.frame, d.frame.Bounds(), img, d.frame.Bounds().Min, draw.Src)
		d.lock.Unlock()
		d.invalidateSimulationWindow()
		return nil
	}

	d.epdLock.Lock()
	defer d.epdLock.Unlock()
	draw.Draw(d.buf, d.buf.Bounds(), img, d.buf.Bounds().Min, draw.Src)
	// Clearing first flashes the panel, which removes ghosting.
	if err := d.epd.Clear(color.White); err != nil {
		return fmt.Errorf("display: clear: %w", err)
	}
	if err := d.epd.Draw(d.buf.Bounds(), d.buf, d.buf.Bounds().Min); err != nil {
		return fmt.Errorf("display: draw: %w", err)
	}
	return nil
}

func (d *Display) PartialRefresh(img image.Image, r image.Rectangle) error {
	if d.simulationMode {
		d.lock.Lock()
		r = r.Intersect(d.frame.Bounds())
		draw.Draw(d.frame, r, img, r.Min, draw.Src)
		d.lock.Unlock()
		d.invalidateSimulationWindow()
		return nil
	}

	d.epdLock.Lock()
	defer d.epdLock.Unlock()
	r = r.Intersect(d.buf.Bounds())
	draw.Draw(d.buf, r, img, r.Min, draw.Src)
	if err := d.epd.Draw(r, d.buf, r.Min); err != nil {
		return fmt.Errorf("display: partial draw %v: %w", r, err)
	}
	return nil
}

// Snapshot returns a copy of what the panel shows.
func (d *Display) Snapshot() image.Image {
	if d.simulationMode {
		d.lock.RLock()
		defer d.lock.RUnlock()
		if d.frame == nil {
			return nil
		}
		out := image.NewGray(d.frame.Bounds())
		copy(out.Pix, d.frame.Pix)
		return out
	}

	d.epdLock.Lock()
	defer d.epdLock.Unlock()
	if d.buf == nil {
		return nil
	}
	out := image.NewGray(d.buf.Bounds())
	draw.Draw(out, out.Bounds(), d.buf, d.buf.Bounds().Min, draw.Src)
	return out
}
