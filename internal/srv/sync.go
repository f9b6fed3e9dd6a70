package srv

import (
	"context"
	"net"
	"strings"
	"time"

	"github.com/jypelle/inkpanel/internal/srv/model"
	"github.com/sirupsen/logrus"
)

// watchServices pushes every service update into the shared state.
func (s *ServerApp) watchServices() {
	if s.mqttLink != nil {
		s.mqttLink.OnUpdate(func() {
			s.shared.UpdateConnectivity(func(c *model.Connectivity) { c.Mqtt = s.mqttLink.Connection() })
		})
	}
	s.lighting.OnUpdate(func() {
		s.shared.UpdateConnectivity(func(c *model.Connectivity) { c.Lighting = s.lighting.Connection() })
		if s.lighting.Connection() == model.CONNECTED_CONNECTION {
			s.shared.UpdateRooms(s.lighting.Rooms())
		}
	})
	s.climate.OnUpdate(func() {
		s.shared.UpdateConnectivity(func(c *model.Connectivity) { c.Climate = s.climate.Connection() })
		if s.climate.Connection() == model.CONNECTED_CONNECTION {
			s.shared.UpdateZones(s.climate.Zones())
		}
	})
	s.sensors.OnUpdate(func() {
		s.shared.UpdateSensorData(s.sensors.Reading())
	})
}

// schedulePolling registers the periodic jobs.
func (s *ServerApp) schedulePolling() {
	param := s.ServerParam

	if _, err := s.cron.AddFunc(param.SensorsParam.PollSpec, s.sensors.Poll); err != nil {
		logrus.Errorf("Invalid sensors poll spec %q: %v", param.SensorsParam.PollSpec, err)
	}
	if _, err := s.cron.AddFunc(param.BatteryParam.PollSpec, s.pollBattery); err != nil {
		logrus.Errorf("Invalid battery poll spec %q: %v", param.BatteryParam.PollSpec, err)
	}
	if _, err := s.cron.AddFunc("@every 30s", s.pollWifi); err != nil {
		logrus.Errorf("Unable to schedule wifi poll: %v", err)
	}

	// First readings without waiting for the schedule
	go func() {
		s.pollBattery()
		s.pollWifi()
	}()
}

func (s *ServerApp) pollBattery() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	status, err := s.battery.Read(ctx)
	if err != nil {
		logrus.Warnf("Unable to read battery: %v", err)
		return
	}
	s.shared.UpdateBattery(status.Percent)
}

func (s *ServerApp) pollWifi() {
	up := s.SimulationMode || wirelessUp()
	s.shared.UpdateConnectivity(func(c *model.Connectivity) { c.Wifi = up })
}

func wirelessUp() bool {
	ifaces, err := net.Interfaces()
	if err != nil {
		return false
	}
	for _, iface := range ifaces {
		if strings.HasPrefix(iface.Name, "wl") && iface.Flags&net.FlagUp != 0 {
			return true
		}
	}
	return false
}
