package service

import (
	"encoding/json"
	"fmt"
	"sync"

	"github.com/jypelle/inkpanel/internal/srv/model"
	"github.com/sirupsen/logrus"
)

// Lighting mirrors the lighting groups published on the bus and forwards
// room commands. Without a bus it keeps rooms locally and applies commands
// immediately.
type Lighting struct {
	notifier
	bus Bus

	lock  sync.RWMutex
	rooms []model.Room
}

type roomCommand struct {
	On         *bool  `json:"on,omitempty"`
	Brightness *uint8 `json:"brightness,omitempty"`
}

func NewLighting(bus Bus, rooms []model.Room) *Lighting {
	l := &Lighting{
		bus:   bus,
		rooms: append([]model.Room(nil), rooms...),
	}
	return l
}

func (l *Lighting) Name() string {
	return "lighting"
}

func (l *Lighting) Start() error {
	logrus.Infof("Start lighting service")
	if l.bus == nil {
		l.setConnection(model.CONNECTED_CONNECTION)
		l.notify()
		return nil
	}
	l.setConnection(model.CONNECTING_CONNECTION)
	return l.bus.Subscribe(l.bus.TopicPrefix()+"/lighting/rooms", l.onRooms)
}

func (l *Lighting) Stop() {
	l.setConnection(model.DISCONNECTED_CONNECTION)
}

// Rooms returns a copy of the cached rooms.
func (l *Lighting) Rooms() []model.Room {
	l.lock.RLock()
	defer l.lock.RUnlock()
	return append([]model.Room(nil), l.rooms...)
}

func (l *Lighting) SetRoomState(id string, on bool) error {
	if l.bus == nil {
		return l.apply(id, func(r *model.Room) {
			r.On = on
			r.AnyOn = on
		})
	}
	return l.bus.Publish(l.commandTopic(id), false, roomCommand{On: &on})
}

func (l *Lighting) SetRoomBrightness(id string, brightness uint8) error {
	if brightness > model.MaxBrightness {
		brightness = model.MaxBrightness
	}
	if l.bus == nil {
		return l.apply(id, func(r *model.Room) { r.Brightness = brightness })
	}
	return l.bus.Publish(l.commandTopic(id), false, roomCommand{Brightness: &brightness})
}

func (l *Lighting) commandTopic(id string) string {
	return fmt.Sprintf("%s/lighting/%s/set", l.bus.TopicPrefix(), id)
}

func (l *Lighting) apply(id string, fn func(r *model.Room)) error {
	l.lock.Lock()
	found := false
	for i := range l.rooms {
		if l.rooms[i].Id == id {
			fn(&l.rooms[i])
			found = true
			break
		}
	}
	l.lock.Unlock()
	if !found {
		return fmt.Errorf("lighting: unknown room %q", id)
	}
	l.notify()
	return nil
}

func (l *Lighting) onRooms(payload []byte) {
	var rooms []model.Room
	if err := json.Unmarshal(payload, &rooms); err != nil {
		logrus.Warnf("Invalid lighting payload: %v", err)
		l.setConnection(model.ERROR_CONNECTION)
		return
	}
	l.lock.Lock()
	l.rooms = rooms
	l.lock.Unlock()
	logrus.Debugf("Lighting: %d rooms", len(rooms))
	l.setConnection(model.CONNECTED_CONNECTION)
	l.notify()
}
