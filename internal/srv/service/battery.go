package service

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"runtime"
	"time"

	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/host/v3"
)

// BatteryStatus is the last battery gauge reading.
type BatteryStatus struct {
	Percent   int `json:"percent"`
	VoltageMv int `json:"voltageMv"`
}

type BatteryReader interface {
	Read(ctx context.Context) (BatteryStatus, error)
}

// PiSugar style gauge registers.
const (
	batteryVoltageHighReg = 0x22
	batteryVoltageLowReg  = 0x23
	batteryPercentReg     = 0x2A
)

type i2cBatteryReader struct {
	busName string
	addr    uint16
}

func NewI2cBatteryReader(busName string, addr uint16) BatteryReader {
	return &i2cBatteryReader{
		busName: busName,
		addr:    addr,
	}
}

func (r *i2cBatteryReader) Read(_ context.Context) (BatteryStatus, error) {
	if runtime.GOOS != "linux" {
		return BatteryStatus{}, errors.New("battery: i2c reader unavailable on this platform")
	}
	if _, err := host.Init(); err != nil {
		return BatteryStatus{}, fmt.Errorf("battery: %w", err)
	}

	bus, err := i2creg.Open(r.busName)
	if err != nil {
		return BatteryStatus{}, fmt.Errorf("battery: open bus: %w", err)
	}
	defer bus.Close()

	dev := &i2c.Dev{Bus: bus, Addr: r.addr}
	readReg := func(reg byte) (byte, error) {
		buf := []byte{0}
		if err := dev.Tx([]byte{reg}, buf); err != nil {
			return 0, fmt.Errorf("battery: read register 0x%02x: %w", reg, err)
		}
		return buf[0], nil
	}

	high, err := readReg(batteryVoltageHighReg)
	if err != nil {
		return BatteryStatus{}, err
	}
	low, err := readReg(batteryVoltageLowReg)
	if err != nil {
		return BatteryStatus{}, err
	}
	pct, err := readReg(batteryPercentReg)
	if err != nil {
		return BatteryStatus{}, err
	}
	if pct > 100 {
		pct = 100
	}
	return BatteryStatus{
		Percent:   int(pct),
		VoltageMv: int(uint16(high)<<8 | uint16(low)),
	}, nil
}

// mockBatteryReader slowly drains from 100% for simulation mode.
type mockBatteryReader struct {
	start time.Time
	rnd   *rand.Rand
}

func NewMockBatteryReader() BatteryReader {
	return &mockBatteryReader{
		start: time.Now(),
		rnd:   rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (m *mockBatteryReader) Read(_ context.Context) (BatteryStatus, error) {
	p := 100 - int(time.Since(m.start)/time.Hour) - m.rnd.Intn(2)
	if p < 5 {
		p = 5
	}
	return BatteryStatus{Percent: p}, nil
}
