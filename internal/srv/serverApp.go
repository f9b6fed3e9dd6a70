package srv

import (
	"fmt"
	"image"
	"os/exec"

	"github.com/jypelle/inkpanel/apimodel"
	"github.com/jypelle/inkpanel/internal/srv/config"
	"github.com/jypelle/inkpanel/internal/srv/device"
	"github.com/jypelle/inkpanel/internal/srv/event"
	"github.com/jypelle/inkpanel/internal/srv/input"
	"github.com/jypelle/inkpanel/internal/srv/model"
	"github.com/jypelle/inkpanel/internal/srv/nav"
	"github.com/jypelle/inkpanel/internal/srv/render"
	"github.com/jypelle/inkpanel/internal/srv/service"
	"github.com/jypelle/inkpanel/internal/srv/state"
	"github.com/jypelle/inkpanel/internal/srv/worker"
	"github.com/jypelle/inkpanel/internal/version"
	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

// ServerApp owns every device, service and task of the panel.
type ServerApp struct {
	*config.ServerConfig

	channel   *event.Channel
	shared    *state.Shared
	navigator *nav.Navigator
	capture   *input.Capture
	scheduler *render.Scheduler

	displayDevice  *device.Display
	gpioController *device.GpioController
	simController  *device.SimController
	apiDevice      *device.Api

	mqttLink *service.MqttLink
	lighting *service.Lighting
	climate  *service.Climate
	sensors  *service.Sensors
	battery  service.BatteryReader
	services []service.Service
	cron     *cron.Cron

	inputTask  *worker.Task
	renderTask *worker.Task
	loopTask   *worker.Task
}

func NewServerApp(configDir string, debugMode bool, simulationMode bool) *ServerApp {

	logrus.Debugf("Creation of inkpanel server %s ...", version.AppVersion.String())

	app := &ServerApp{
		ServerConfig: config.NewServerConfig(configDir, debugMode, simulationMode),
	}
	param := app.ServerParam

	app.channel = event.NewChannel(param.LayoutParam.QueueLength)
	app.shared = state.NewShared(app.channel)

	// Services
	var bus service.Bus
	if param.MqttParam != nil {
		app.mqttLink = service.NewMqttLink(service.MqttConfig{
			Broker:         param.MqttParam.Broker,
			ClientId:       param.MqttParam.ClientId,
			Username:       param.MqttParam.Username,
			Password:       param.MqttParam.Password,
			TopicPrefix:    param.MqttParam.TopicPrefix,
			ConnectTimeout: param.MqttParam.ConnectTimeout,
			PublishTimeout: param.MqttParam.PublishTimeout,
		})
		bus = app.mqttLink
		app.services = append(app.services, app.mqttLink)
	}
	app.lighting = service.NewLighting(bus, param.HomeParam.Rooms)
	app.climate = service.NewClimate(bus, param.HomeParam.Zones)
	app.sensors = service.NewSensors(bus, param.SensorsParam.MaxAge)
	app.services = append(app.services, app.lighting, app.climate, app.sensors)

	if app.SimulationMode || !param.BatteryParam.Enabled {
		app.battery = service.NewMockBatteryReader()
	} else {
		app.battery = service.NewI2cBatteryReader(param.BatteryParam.Bus, param.BatteryParam.Address)
	}

	// Navigation
	home := app.restoreUi()
	app.navigator = nav.NewNavigator(app.shared, param.LayoutParam.Columns, param.LayoutParam.StackDepth, home)
	app.navigator.Rooms = app.lighting
	app.navigator.Zones = app.climate
	if app.mqttLink != nil {
		app.navigator.Reconnecter = app.mqttLink
	}
	app.navigator.OnChange = app.saveUi

	// Devices
	var controller input.Controller
	if app.SimulationMode {
		app.simController = device.NewSimController()
		controller = app.simController
	} else {
		app.gpioController = device.NewGpioController()
		controller = app.gpioController
	}
	app.capture = input.NewCapture(
		controller,
		app.channel,
		input.NewEdgeDetector(param.ControllerParam.Deadzone, param.TimingParam.NavDebounce, home),
		input.NewBatcher(param.TimingParam.InputBatchWindow),
	)

	app.displayDevice = device.NewDisplay(app.SimulationMode, param.DisplayParam.Width, param.DisplayParam.Height)
	if param.ApiParam.Enabled {
		app.apiDevice = device.NewApi(app.ServerConfig, app)
	}
	app.cron = cron.New()

	logrus.Debugln("Server created")

	return app
}

func (s *ServerApp) Start() {
	logrus.Printf("Starting inkpanel server ...")

	param := s.ServerParam

	logrus.Printf("Starting devices ...")

	// Start display device
	if err := s.displayDevice.Start(); err != nil {
		logrus.Fatalf("Unable to start display: %v", err)
	}
	composer := render.NewComposer(render.NewLayout(s.displayDevice.Bounds(), param.LayoutParam.Columns))
	s.scheduler = render.NewScheduler(render.Config{
		PollTimeout:     param.TimingParam.PollTimeout,
		BatchWindow:     param.TimingParam.DisplayBatchWindow,
		GhostInterval:   param.TimingParam.GhostInterval,
		MaxPartial:      param.TimingParam.MaxPartial,
		MaxPartialTiles: param.TimingParam.MaxPartialTiles,
		SensorCooldown:  param.TimingParam.SensorCooldown,
		RetryBackoff:    param.TimingParam.RetryBackoff,
		Hysteresis:      param.Hysteresis,
	}, s.shared, s.navigator, s.displayDevice, composer)

	// Start controller device
	if s.gpioController != nil {
		if err := s.gpioController.Start(param.ControllerParam.Pins, param.ControllerParam.HapticPin); err != nil {
			logrus.Fatalf("Unable to start controller: %v", err)
		}
	}

	// Start pipeline tasks
	s.startTasks()

	// Start services
	s.watchServices()
	for _, svc := range s.services {
		if err := svc.Start(); err != nil {
			logrus.Errorf("Unable to start %s service: %v", svc.Name(), err)
		}
	}
	s.schedulePolling()
	s.cron.Start()

	// Start api device
	if s.apiDevice != nil {
		if err := s.apiDevice.Start(); err != nil {
			logrus.Errorf("Unable to start api: %v", err)
		}
	}
}

func (s *ServerApp) Stop(halt bool) {
	logrus.Printf("Stopping inkpanel server ...")

	// Stop api
	if s.apiDevice != nil {
		s.apiDevice.Stop()
	}

	// Stop polling
	<-s.cron.Stop().Done()

	// Stop pipeline tasks
	s.stopTasks()

	// Stop services, bus last
	for i := len(s.services) - 1; i >= 0; i-- {
		s.services[i].Stop()
	}

	// Stop devices
	if s.gpioController != nil {
		s.gpioController.Stop()
	}
	s.displayDevice.Stop()

	// Flush config backup
	s.ServerConfig.ServerState.FlushSave()

	logrus.Printf("Server stopped")

	if halt {
		logrus.Printf("System halt")
		haltCmd := exec.Command("sudo", "halt")
		if err := haltCmd.Run(); err != nil {
			logrus.Errorf("Unable to halt the system: %v", err)
		}
	}
}

// PanelState implements device.ApiBackend.
func (s *ServerApp) PanelState() apimodel.PanelState {
	st := s.shared.Copy()
	return apimodel.PanelState{
		Screen:         st.CurrentScreen.String(),
		PreviousScreen: st.PreviousScreen.String(),
		StackDepth:     st.StackDepth,
		SelectedRoom:   st.SelectedRoom,
		SelectedZone:   st.SelectedZone,
		SelectedMetric: st.SelectedMetric.String(),
		PartialRefresh: st.PartialRefreshOn,
		Battery:        st.Battery,
		Rooms:          st.Rooms,
		Zones:          st.Zones,
		Sensor:         st.Sensor,
		Connectivity:   st.Connectivity,
	}
}

func (s *ServerApp) Stats() apimodel.Stats {
	cs := s.channel.Stats()
	stats := apimodel.Stats{
		EventsSent:      cs.Sent,
		EventsDropped:   cs.Dropped,
		ForcedRefreshes: cs.Forced,
		EventsPending:   cs.Pending,
	}
	if s.scheduler != nil {
		rs := s.scheduler.Stats()
		stats.FullRepaints = rs.FullRepaints
		stats.PartialRepaints = rs.PartialRepaints
		stats.RepaintFailures = rs.Failures
		stats.PartialsSinceFull = rs.Partials
		stats.LastFullRepaint = rs.LastFull
	}
	return stats
}

func (s *ServerApp) Send(ev event.Event) bool {
	return s.channel.TrySend(ev)
}

func (s *ServerApp) Screenshot() image.Image {
	return s.displayDevice.Snapshot()
}

func (s *ServerApp) SetButton(name string, pressed bool) error {
	if s.simController == nil {
		return fmt.Errorf("buttons can only be driven in simulation mode")
	}
	return s.simController.SetButton(name, pressed)
}

func (s *ServerApp) SetAxes(axes device.Axes) error {
	if s.simController == nil {
		return fmt.Errorf("axes can only be driven in simulation mode")
	}
	s.simController.SetAxes(axes)
	return nil
}

func (s *ServerApp) SetControllerConnected(connected bool) error {
	if s.simController == nil {
		return fmt.Errorf("the controller link can only be driven in simulation mode")
	}
	s.simController.SetConnected(connected)
	return nil
}

// restoreUi applies the persisted ui state and returns the home screen.
func (s *ServerApp) restoreUi() model.Screen {
	ui := s.ServerState.Ui()
	home := s.ServerParam.HomeScreen()
	if screen, ok := model.ParseScreen(ui.MainWindow); ok && screen.IsMainWindow() {
		home = screen
	}
	s.shared.Update(func(st *state.DisplayState) {
		st.SelectedRoom = ui.SelectedRoom
		st.SelectedZone = ui.SelectedZone
		st.SelectedSetting = ui.SelectedSetting
		if ui.SelectedMetric >= 0 && ui.SelectedMetric < int(model.SensorMetricCount) {
			st.SelectedMetric = model.SensorMetric(ui.SelectedMetric)
		}
		st.PartialRefreshOn = ui.PartialRefreshOn
	})
	return home
}

func (s *ServerApp) saveUi(st state.DisplayState) {
	ui := s.ServerState.Ui()
	if st.CurrentScreen.IsMainWindow() {
		ui.MainWindow = st.CurrentScreen.String()
	}
	ui.SelectedRoom = st.SelectedRoom
	ui.SelectedZone = st.SelectedZone
	ui.SelectedSetting = st.SelectedSetting
	ui.SelectedMetric = int(st.SelectedMetric)
	ui.PartialRefreshOn = st.PartialRefreshOn
	s.ServerState.SetUi(ui)
}
