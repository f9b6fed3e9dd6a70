package config

import (
	_ "embed"
	"time"

	"github.com/jypelle/inkpanel/internal/srv/model"
	"github.com/jypelle/inkpanel/internal/srv/render"
)

//go:embed param_default.yaml
var ParamDefaultFile []byte

type ServerParam struct {
	TimingParam     TimingParam       `yaml:"timing"`
	LayoutParam     LayoutParam       `yaml:"layout"`
	ControllerParam ControllerParam   `yaml:"controller"`
	DisplayParam    DisplayParam      `yaml:"display"`
	Hysteresis      render.Hysteresis `yaml:"hysteresis"`
	MqttParam       *MqttParam        `yaml:"mqtt,omitempty"`
	SensorsParam    SensorsParam      `yaml:"sensors"`
	BatteryParam    BatteryParam      `yaml:"battery"`
	HomeParam       HomeParam         `yaml:"home"`
	ApiParam        ApiParam          `yaml:"api"`
}

type TimingParam struct {
	InputTick          time.Duration `yaml:"input_tick"`
	InputBatchWindow   time.Duration `yaml:"input_batch_window"`
	DisplayBatchWindow time.Duration `yaml:"display_batch_window"`
	PollTimeout        time.Duration `yaml:"poll_timeout"`
	GhostInterval      time.Duration `yaml:"ghost_interval"`
	MaxPartial         int           `yaml:"max_partial"`
	MaxPartialTiles    int           `yaml:"max_partial_tiles"`
	NavDebounce        time.Duration `yaml:"nav_debounce"`
	SensorCooldown     time.Duration `yaml:"sensor_cooldown"`
	RetryBackoff       time.Duration `yaml:"retry_backoff"`
	TaskStopTimeout    time.Duration `yaml:"task_stop_timeout"`
}

type LayoutParam struct {
	Columns     int    `yaml:"columns"`
	QueueLength int    `yaml:"queue_length"`
	StackDepth  int    `yaml:"stack_depth"`
	HomeScreen  string `yaml:"home_screen"`
}

type ControllerParam struct {
	Deadzone int16 `yaml:"deadzone"`
	// Pins maps a signal (a, b, x, y, l1, r1, start, select, up, down, left,
	// right) to a GPIO name.
	Pins      map[string]string `yaml:"pins"`
	HapticPin string            `yaml:"haptic_pin"`
}

type DisplayParam struct {
	// Width and Height size the simulation window.
	Width  int `yaml:"width"`
	Height int `yaml:"height"`
	// SingleLoop runs input and render in one goroutine.
	SingleLoop bool `yaml:"single_loop"`
}

type MqttParam struct {
	Broker         string        `yaml:"broker"`
	ClientId       string        `yaml:"client_id"`
	Username       string        `yaml:"username"`
	Password       string        `yaml:"password"`
	TopicPrefix    string        `yaml:"topic_prefix"`
	ConnectTimeout time.Duration `yaml:"connect_timeout"`
	PublishTimeout time.Duration `yaml:"publish_timeout"`
}

type SensorsParam struct {
	PollSpec string        `yaml:"poll_spec"`
	MaxAge   time.Duration `yaml:"max_age"`
}

type BatteryParam struct {
	Enabled  bool   `yaml:"enabled"`
	Bus      string `yaml:"bus"`
	Address  uint16 `yaml:"address"`
	PollSpec string `yaml:"poll_spec"`
}

// HomeParam seeds rooms and zones when no bus is configured.
type HomeParam struct {
	Rooms []model.Room `yaml:"rooms"`
	Zones []model.Zone `yaml:"zones"`
}

type ApiParam struct {
	Enabled bool   `yaml:"enabled"`
	SslPort int64  `yaml:"ssl_port"`
	ApiKey  string `yaml:"api_key"`
}

// Normalize replaces missing or invalid values with defaults.
func (p *ServerParam) Normalize() {
	t := &p.TimingParam
	setDuration(&t.InputTick, 10*time.Millisecond)
	setDuration(&t.InputBatchWindow, 150*time.Millisecond)
	setDuration(&t.DisplayBatchWindow, 100*time.Millisecond)
	setDuration(&t.PollTimeout, 50*time.Millisecond)
	setDuration(&t.GhostInterval, 10*time.Minute)
	setDuration(&t.NavDebounce, 200*time.Millisecond)
	setDuration(&t.SensorCooldown, 30*time.Second)
	setDuration(&t.RetryBackoff, time.Second)
	setDuration(&t.TaskStopTimeout, 2*time.Second)
	setInt(&t.MaxPartial, 20)
	setInt(&t.MaxPartialTiles, 3)

	l := &p.LayoutParam
	setInt(&l.Columns, 3)
	setInt(&l.QueueLength, 32)
	setInt(&l.StackDepth, 8)
	if s, ok := model.ParseScreen(l.HomeScreen); !ok || !s.IsMainWindow() {
		l.HomeScreen = model.DASHBOARD_SCREEN.String()
	}

	if p.ControllerParam.Deadzone <= 0 {
		p.ControllerParam.Deadzone = 8000
	}

	setInt(&p.DisplayParam.Width, 250)
	setInt(&p.DisplayParam.Height, 122)

	def := render.DefaultHysteresis()
	setInt(&p.Hysteresis.Battery, def.Battery)
	setInt(&p.Hysteresis.Co2, def.Co2)
	setInt(&p.Hysteresis.Brightness, def.Brightness)
	if p.Hysteresis.Temperature <= 0 {
		p.Hysteresis.Temperature = def.Temperature
	}
	if p.Hysteresis.Humidity <= 0 {
		p.Hysteresis.Humidity = def.Humidity
	}

	if p.MqttParam != nil {
		if p.MqttParam.ClientId == "" {
			p.MqttParam.ClientId = "inkpanel"
		}
		if p.MqttParam.TopicPrefix == "" {
			p.MqttParam.TopicPrefix = "inkpanel"
		}
		setDuration(&p.MqttParam.ConnectTimeout, 5*time.Second)
		setDuration(&p.MqttParam.PublishTimeout, 500*time.Millisecond)
	}

	if p.SensorsParam.PollSpec == "" {
		p.SensorsParam.PollSpec = "@every 1m"
	}
	setDuration(&p.SensorsParam.MaxAge, 10*time.Minute)

	if p.BatteryParam.Address == 0 {
		p.BatteryParam.Address = 0x57
	}
	if p.BatteryParam.PollSpec == "" {
		p.BatteryParam.PollSpec = "@every 5m"
	}
}

// HomeScreen returns the main window shown after boot.
func (p *ServerParam) HomeScreen() model.Screen {
	s, ok := model.ParseScreen(p.LayoutParam.HomeScreen)
	if !ok {
		return model.DASHBOARD_SCREEN
	}
	return s
}

func setDuration(d *time.Duration, def time.Duration) {
	if *d <= 0 {
		*d = def
	}
}

func setInt(v *int, def int) {
	if *v <= 0 {
		*v = def
	}
}
