package service

import (
	"encoding/json"
	"fmt"
	"sync"

	"github.com/jypelle/inkpanel/internal/srv/model"
	"github.com/sirupsen/logrus"
)

// Climate mirrors the heating zones published on the bus.
type Climate struct {
	notifier
	bus Bus

	lock  sync.RWMutex
	zones []model.Zone
}

type zoneCommand struct {
	Target float64 `json:"target"`
}

func NewClimate(bus Bus, zones []model.Zone) *Climate {
	return &Climate{
		bus:   bus,
		zones: append([]model.Zone(nil), zones...),
	}
}

func (c *Climate) Name() string {
	return "climate"
}

func (c *Climate) Start() error {
	logrus.Infof("Start climate service")
	if c.bus == nil {
		c.setConnection(model.CONNECTED_CONNECTION)
		c.notify()
		return nil
	}
	c.setConnection(model.CONNECTING_CONNECTION)
	return c.bus.Subscribe(c.bus.TopicPrefix()+"/climate/zones", c.onZones)
}

func (c *Climate) Stop() {
	c.setConnection(model.DISCONNECTED_CONNECTION)
}

func (c *Climate) Zones() []model.Zone {
	c.lock.RLock()
	defer c.lock.RUnlock()
	return append([]model.Zone(nil), c.zones...)
}

func (c *Climate) SetZoneTemperature(id string, target float64) error {
	if c.bus != nil {
		return c.bus.Publish(fmt.Sprintf("%s/climate/%s/set", c.bus.TopicPrefix(), id), false, zoneCommand{Target: target})
	}

	c.lock.Lock()
	found := false
	for i := range c.zones {
		if c.zones[i].Id == id {
			c.zones[i].TargetTemp = target
			c.zones[i].Heating = target > c.zones[i].CurrentTemp
			found = true
			break
		}
	}
	c.lock.Unlock()
	if !found {
		return fmt.Errorf("climate: unknown zone %q", id)
	}
	c.notify()
	return nil
}

func (c *Climate) onZones(payload []byte) {
	var zones []model.Zone
	if err := json.Unmarshal(payload, &zones); err != nil {
		logrus.Warnf("Invalid climate payload: %v", err)
		c.setConnection(model.ERROR_CONNECTION)
		return
	}
	c.lock.Lock()
	c.zones = zones
	c.lock.Unlock()
	logrus.Debugf("Climate: %d zones", len(zones))
	c.setConnection(model.CONNECTED_CONNECTION)
	c.notify()
}
