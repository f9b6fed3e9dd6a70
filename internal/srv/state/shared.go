package state

import (
	"sync"
	"time"

	"github.com/jypelle/inkpanel/internal/srv/event"
	"github.com/jypelle/inkpanel/internal/srv/model"
)

// Shared is the single DisplayState instance read and written by both the
// input side and the render side.
//
// The lock is only ever held to copy out or mutate plain data: never while
// talking to the network or the panel.
type Shared struct {
	lock    sync.Mutex
	state   DisplayState
	channel *event.Channel
	now     func() time.Time
}

func NewShared(channel *event.Channel) *Shared {
	return &Shared{
		state:   Default(),
		channel: channel,
		now:     time.Now,
	}
}

// Copy returns a deep copy of the state taken under lock.
func (s *Shared) Copy() DisplayState {
	s.lock.Lock()
	defer s.lock.Unlock()
	return s.state.Clone()
}

// Update runs fn with the lock held. fn must not block.
func (s *Shared) Update(fn func(st *DisplayState)) {
	s.lock.Lock()
	defer s.lock.Unlock()
	fn(&s.state)
}

// Channel returns the event channel updates are announced on.
func (s *Shared) Channel() *event.Channel {
	return s.channel
}

// ClearDirty removes flags once they have been rendered.
func (s *Shared) ClearDirty(flags Dirty) {
	s.lock.Lock()
	s.state.Dirty &^= flags
	s.lock.Unlock()
}

// UpdateRooms replaces the cached room list.
func (s *Shared) UpdateRooms(rooms []model.Room) {
	rooms = append([]model.Room(nil), rooms...)
	s.lock.Lock()
	s.state.Rooms = rooms
	s.state.clampSelections()
	s.state.RoomsUpdatedAt = s.now()
	s.state.Dirty |= ROOMS_DIRTY
	s.lock.Unlock()

	s.announce(event.ROOMS_UPDATED_EVENT)
}

// UpdateZones replaces the cached zone list.
func (s *Shared) UpdateZones(zones []model.Zone) {
	zones = append([]model.Zone(nil), zones...)
	s.lock.Lock()
	s.state.Zones = zones
	s.state.clampSelections()
	s.state.ZonesUpdatedAt = s.now()
	s.state.Dirty |= ZONES_DIRTY
	s.lock.Unlock()

	s.announce(event.ZONES_UPDATED_EVENT)
}

// UpdateSensorData stores a new air-quality reading.
func (s *Shared) UpdateSensorData(reading model.SensorReading) {
	s.lock.Lock()
	s.state.Sensor = reading
	s.state.SensorUpdatedAt = s.now()
	s.state.Dirty |= SENSORS_DIRTY | STATUS_BAR_DIRTY
	s.lock.Unlock()

	s.announce(event.SENSOR_DATA_UPDATED_EVENT)
}

// UpdateConnectivity applies fn to the connectivity flags.
func (s *Shared) UpdateConnectivity(fn func(c *model.Connectivity)) {
	s.lock.Lock()
	before := s.state.Connectivity
	fn(&s.state.Connectivity)
	changed := before != s.state.Connectivity
	if changed {
		s.state.StatusUpdatedAt = s.now()
		s.state.Dirty |= STATUS_BAR_DIRTY
	}
	s.lock.Unlock()

	if changed {
		s.announce(event.STATUS_UPDATED_EVENT)
	}
}

// UpdateBattery stores the battery level in percent.
func (s *Shared) UpdateBattery(percent int) {
	s.lock.Lock()
	changed := s.state.Battery != percent
	s.state.Battery = percent
	if changed {
		s.state.StatusUpdatedAt = s.now()
		s.state.Dirty |= STATUS_BAR_DIRTY
	}
	s.lock.Unlock()

	if changed {
		s.announce(event.STATUS_UPDATED_EVENT)
	}
}

func (s *Shared) announce(t event.Type) {
	if s.channel != nil {
		s.channel.TrySend(event.New(t))
	}
}
