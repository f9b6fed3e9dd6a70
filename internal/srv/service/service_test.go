package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/jypelle/inkpanel/internal/srv/model"
)

type published struct {
	topic    string
	retained bool
	payload  []byte
}

// fakeBus records publications and lets tests deliver messages.
type fakeBus struct {
	lock      sync.Mutex
	handlers  map[string]func(payload []byte)
	published []published
}

func newFakeBus() *fakeBus {
	return &fakeBus{handlers: make(map[string]func(payload []byte))}
}

func (b *fakeBus) Publish(topic string, retained bool, payload interface{}) error {
	raw, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	b.lock.Lock()
	defer b.lock.Unlock()
	b.published = append(b.published, published{topic: topic, retained: retained, payload: raw})
	return nil
}

func (b *fakeBus) Subscribe(topic string, handler func(payload []byte)) error {
	b.lock.Lock()
	defer b.lock.Unlock()
	b.handlers[topic] = handler
	return nil
}

func (b *fakeBus) TopicPrefix() string {
	return "home"
}

func (b *fakeBus) deliver(t *testing.T, topic string, payload string) {
	t.Helper()
	b.lock.Lock()
	handler, ok := b.handlers[topic]
	b.lock.Unlock()
	if !ok {
		t.Fatalf("nothing subscribed to %s", topic)
	}
	handler([]byte(payload))
}

func TestLightingLocalMode(t *testing.T) {
	l := NewLighting(nil, []model.Room{{Id: "living", Brightness: 100}})
	updates := 0
	l.OnUpdate(func() { updates++ })

	if err := l.Start(); err != nil {
		t.Fatal(err)
	}
	if l.Connection() != model.CONNECTED_CONNECTION {
		t.Errorf("connection = %s", l.Connection())
	}
	if err := l.SetRoomState("living", true); err != nil {
		t.Fatal(err)
	}
	if err := l.SetRoomBrightness("living", 255); err != nil {
		t.Fatal(err)
	}
	room := l.Rooms()[0]
	if !room.On || !room.AnyOn || room.Brightness != model.MaxBrightness {
		t.Errorf("room = %+v", room)
	}
	if err := l.SetRoomState("attic", true); err == nil {
		t.Error("unknown room must fail")
	}
	if updates < 3 {
		t.Errorf("updates = %d, want at least 3", updates)
	}
}

func TestLightingOverBus(t *testing.T) {
	bus := newFakeBus()
	l := NewLighting(bus, nil)
	if err := l.Start(); err != nil {
		t.Fatal(err)
	}
	if l.Connection() != model.CONNECTING_CONNECTION {
		t.Errorf("connection before data = %s", l.Connection())
	}

	bus.deliver(t, "home/lighting/rooms", `[{"id":"1","name":"Living","on":true,"brightness":200}]`)
	if rooms := l.Rooms(); len(rooms) != 1 || rooms[0].Name != "Living" || !rooms[0].On {
		t.Errorf("rooms = %+v", rooms)
	}
	if l.Connection() != model.CONNECTED_CONNECTION {
		t.Errorf("connection after data = %s", l.Connection())
	}

	if err := l.SetRoomState("1", false); err != nil {
		t.Fatal(err)
	}
	if len(bus.published) != 1 || bus.published[0].topic != "home/lighting/1/set" || string(bus.published[0].payload) != `{"on":false}` {
		t.Errorf("published = %+v", bus.published)
	}

	bus.deliver(t, "home/lighting/rooms", `not json`)
	if l.Connection() != model.ERROR_CONNECTION {
		t.Errorf("connection after bad payload = %s", l.Connection())
	}
}

func TestClimateLocalMode(t *testing.T) {
	c := NewClimate(nil, []model.Zone{{Id: "ground", CurrentTemp: 19, TargetTemp: 18}})
	if err := c.SetZoneTemperature("ground", 21); err != nil {
		t.Fatal(err)
	}
	zone := c.Zones()[0]
	if zone.TargetTemp != 21 || !zone.Heating {
		t.Errorf("zone = %+v", zone)
	}
}

func TestClimateOverBus(t *testing.T) {
	bus := newFakeBus()
	c := NewClimate(bus, nil)
	c.Start()
	bus.deliver(t, "home/climate/zones", `[{"id":"z","name":"Ground","current_temp":19.5,"target_temp":20}]`)
	if zones := c.Zones(); len(zones) != 1 || zones[0].CurrentTemp != 19.5 {
		t.Errorf("zones = %+v", zones)
	}
	c.SetZoneTemperature("z", 20.5)
	if len(bus.published) != 1 || string(bus.published[0].payload) != `{"target":20.5}` {
		t.Errorf("published = %+v", bus.published)
	}
}

func TestSensorsStaleReading(t *testing.T) {
	now := time.Unix(1000, 0)
	s := NewSensors(nil, 10*time.Minute)
	s.now = func() time.Time { return now }

	s.Push(21.5, 40, 650, 100)
	if r := s.Reading(); !r.Valid || r.Co2 != 650 {
		t.Fatalf("reading = %+v", r)
	}

	now = now.Add(5 * time.Minute)
	s.Poll()
	if !s.Reading().Valid {
		t.Error("fresh reading invalidated")
	}

	notified := false
	s.OnUpdate(func() { notified = true })
	now = now.Add(6 * time.Minute)
	s.Poll()
	if s.Reading().Valid {
		t.Error("stale reading still valid")
	}
	if !notified {
		t.Error("invalidation not notified")
	}
}

func TestSensorsOverBus(t *testing.T) {
	bus := newFakeBus()
	s := NewSensors(bus, time.Minute)
	s.Start()
	bus.deliver(t, "home/sensors/air", fmt.Sprintf(`{"temperature":%v,"humidity":45,"co2":900,"voc":120}`, 22.5))
	if r := s.Reading(); !r.Valid || r.Temperature != 22.5 || r.VocIndex != 120 {
		t.Errorf("reading = %+v", r)
	}
}

func TestMockBattery(t *testing.T) {
	status, err := NewMockBatteryReader().Read(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if status.Percent < 5 || status.Percent > 100 {
		t.Errorf("percent = %d", status.Percent)
	}
}

func TestLightingCommandFailsFastWithoutBroker(t *testing.T) {
	link := NewMqttLink(MqttConfig{
		Broker:         "tcp://127.0.0.1:1",
		ClientId:       "inkpanel-test",
		TopicPrefix:    "home",
		ConnectTimeout: 100 * time.Millisecond,
		PublishTimeout: 100 * time.Millisecond,
	})
	l := NewLighting(link, []model.Room{{Id: "living"}})

	done := make(chan error, 1)
	go func() { done <- l.SetRoomState("living", true) }()

	select {
	case err := <-done:
		if !errors.Is(err, ErrNotConnected) {
			t.Errorf("err = %v, want ErrNotConnected", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("command blocked on an unreachable broker")
	}
}
