//go:build !amd64

package device

import (
	"image"
	"sync"

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
}

// Without a window the simulated frame is only reachable through Snapshot.
func (d *Display) startSimulation() {
}

func (d *Display) invalidateSimulationWindow() {
}

func (d *Display) closeSimulationWindow() {
}
