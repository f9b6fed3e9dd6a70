package service

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/jypelle/inkpanel/internal/srv/model"
	"github.com/sirupsen/logrus"
)

// Sensors keeps the latest air-quality reading. Readings older than maxAge
// are reported invalid by Poll.
type Sensors struct {
	notifier
	bus    Bus
	maxAge time.Duration
	now    func() time.Time

	lock    sync.RWMutex
	reading model.SensorReading
}

type airPayload struct {
	Temperature float64 `json:"temperature"`
	Humidity    float64 `json:"humidity"`
	Co2         int     `json:"co2"`
	Voc         int     `json:"voc"`
}

func NewSensors(bus Bus, maxAge time.Duration) *Sensors {
	return &Sensors{
		bus:    bus,
		maxAge: maxAge,
		now:    time.Now,
	}
}

func (s *Sensors) Name() string {
	return "sensors"
}

func (s *Sensors) Start() error {
	logrus.Infof("Start sensors service")
	if s.bus == nil {
		s.setConnection(model.CONNECTED_CONNECTION)
		return nil
	}
	s.setConnection(model.CONNECTING_CONNECTION)
	return s.bus.Subscribe(s.bus.TopicPrefix()+"/sensors/air", s.onAir)
}

func (s *Sensors) Stop() {
	s.setConnection(model.DISCONNECTED_CONNECTION)
}

func (s *Sensors) Reading() model.SensorReading {
	s.lock.RLock()
	defer s.lock.RUnlock()
	return s.reading
}

// Push stores a calibrated sample and notifies listeners.
func (s *Sensors) Push(temperature, humidity float64, co2, voc int) {
	s.lock.Lock()
	s.reading = model.SensorReading{
		Valid:       true,
		Temperature: temperature,
		Humidity:    humidity,
		Co2:         co2,
		VocIndex:    voc,
		ReadAt:      s.now(),
	}
	s.lock.Unlock()
	s.setConnection(model.CONNECTED_CONNECTION)
	s.notify()
}

// Poll invalidates a stale reading.
func (s *Sensors) Poll() {
	s.lock.Lock()
	stale := s.reading.Valid && s.maxAge > 0 && s.now().Sub(s.reading.ReadAt) > s.maxAge
	if stale {
		s.reading.Valid = false
	}
	s.lock.Unlock()
	if stale {
		logrus.Warnf("Sensor reading is stale")
		s.notify()
	}
}

func (s *Sensors) onAir(payload []byte) {
	var p airPayload
	if err := json.Unmarshal(payload, &p); err != nil {
		logrus.Warnf("Invalid sensor payload: %v", err)
		return
	}
	s.Push(p.Temperature, p.Humidity, p.Co2, p.Voc)
}
