package device

import (
	"image"
	"sync"

	"gioui.org/app"
	"gioui.org/io/system"
	"gioui.org/layout"
	"gioui.org/op"
	"gioui.org/op/paint"
	"gioui.org/unit"
	"gioui.org/widget"
	"github.com/sirupsen/logrus"
	"periph.io/x/conn/v3/spi"
	"periph.io/x/devices/v3/ssd1306/image1bit"
	"periph.io/x/devices/v3/waveshare2in13v4"
)

type Display struct {
	epdLock sync.Mutex
	epd     *waveshare2in13v4.Dev
	spiPort spi.PortCloser
	buf     *image1bit.VerticalLSB

	lock           sync.RWMutex
	simulationMode bool
	bounds         image.Rectangle
	frame          *image.Gray

	simulationWindow *app.Window
}

func (d *Display) startSimulation() {
	w, h := float32(d.bounds.Dx()), float32(d.bounds.Dy())
	d.simulationWindow = app.NewWindow(
		app.Title("inkpanel"),
		app.Size(unit.Px(2*w), unit.Px(2*h)),
		app.MinSize(unit.Px(w), unit.Px(h)),
	)
	go func() {
		if err := d.gioloop(); err != nil {
			logrus.Errorf("Simulation window: %v", err)
		}
	}()
	go app.Main()
}

func (d *Display) invalidateSimulationWindow() {
	if d.simulationWindow != nil {
		d.simulationWindow.Invalidate()
	}
}

func (d *Display) closeSimulationWindow() {
	if d.simulationWindow != nil {
		d.simulationWindow.Close()
	}
}

func (d *Display) gioloop() error {
	var ops op.Ops
	for {
		e := <-d.simulationWindow.Events()
		switch e := e.(type) {
		case system.DestroyEvent:
			return e.Err
		case system.FrameEvent:
			gtx := layout.NewContext(&ops, e)

			d.lock.RLock()
			imgOp := paint.NewImageOp(d.frame)
			d.lock.RUnlock()

			img := widget.Image{Src: imgOp, Fit: widget.Contain}
			img.Layout(gtx)
			e.Frame(gtx.Ops)
		}
	}
}
