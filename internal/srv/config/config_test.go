package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/jypelle/inkpanel/internal/srv/model"
	"github.com/jypelle/inkpanel/internal/tool"
)

func TestLoadCreatesDefaults(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "inkpanel")
	sc, err := LoadServerConfig(dir, false, true)
	if err != nil {
		t.Fatalf("LoadServerConfig: %v", err)
	}
	defer sc.FlushSave()

	exists, err := tool.IsFileExists(sc.GetCompleteParamFilename())
	if err != nil || !exists {
		t.Fatalf("param file not created: %v", err)
	}
	if got := sc.TimingParam.InputBatchWindow; got != 150*time.Millisecond {
		t.Errorf("input batch window = %s", got)
	}
	if got := len(sc.HomeParam.Rooms); got != 5 {
		t.Errorf("rooms = %d, want 5", got)
	}
	if sc.MqttParam != nil {
		t.Error("default config must not enable mqtt")
	}
	if sc.HomeScreen() != model.DASHBOARD_SCREEN {
		t.Errorf("home screen = %s", sc.HomeScreen())
	}
	if !sc.Ui().PartialRefreshOn {
		t.Error("partial refresh is on in the default state")
	}
}

func TestLoadRoundTrip(t *testing.T) {
	dir := t.TempDir()
	sc, err := LoadServerConfig(dir, false, true)
	if err != nil {
		t.Fatal(err)
	}
	sc.FlushSave()
	sc.LayoutParam.HomeScreen = "climate"
	sc.TimingParam.GhostInterval = 5 * time.Minute
	if err = sc.SaveParam(); err != nil {
		t.Fatal(err)
	}

	reloaded, err := LoadServerConfig(dir, false, true)
	if err != nil {
		t.Fatal(err)
	}
	defer reloaded.FlushSave()
	if reloaded.HomeScreen() != model.CLIMATE_SCREEN {
		t.Errorf("home screen = %s", reloaded.HomeScreen())
	}
	if reloaded.TimingParam.GhostInterval != 5*time.Minute {
		t.Errorf("ghost interval = %s", reloaded.TimingParam.GhostInterval)
	}
}

func TestLoadRejectsBrokenParam(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, paramFilename), []byte("timing: [oops"), 0660); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadServerConfig(dir, false, true); err == nil {
		t.Error("expected an error on a malformed param file")
	}
}

func TestNormalizeFillsDefaults(t *testing.T) {
	p := &ServerParam{
		LayoutParam: LayoutParam{HomeScreen: "settings"},
		MqttParam:   &MqttParam{Broker: "tcp://localhost:1883"},
	}
	p.Normalize()

	if p.TimingParam.InputTick != 10*time.Millisecond || p.TimingParam.TaskStopTimeout != 2*time.Second {
		t.Errorf("timing = %+v", p.TimingParam)
	}
	if p.LayoutParam.QueueLength != 32 || p.LayoutParam.StackDepth != 8 {
		t.Errorf("layout = %+v", p.LayoutParam)
	}
	if p.HomeScreen() != model.DASHBOARD_SCREEN {
		t.Errorf("a sub-screen cannot be home, got %s", p.HomeScreen())
	}
	if p.Hysteresis.Co2 != 20 || p.Hysteresis.Temperature != 1.0 {
		t.Errorf("hysteresis = %+v", p.Hysteresis)
	}
	if p.MqttParam.TopicPrefix != "inkpanel" || p.MqttParam.ConnectTimeout != 5*time.Second ||
		p.MqttParam.PublishTimeout != 500*time.Millisecond {
		t.Errorf("mqtt = %+v", p.MqttParam)
	}
	if p.BatteryParam.Address != 0x57 {
		t.Errorf("battery address = %#x", p.BatteryParam.Address)
	}
}

func TestStateSaveIsDebounced(t *testing.T) {
	file := filepath.Join(t.TempDir(), stateFilename)
	ss, err := NewServerState(file)
	if err != nil {
		t.Fatal(err)
	}
	ss.saveDelay = time.Hour

	ss.SetUi(UiState{MainWindow: "sensors", SelectedRoom: 2, PartialRefreshOn: true})
	if exists, _ := tool.IsFileExists(file); exists {
		t.Fatal("state saved before the delay")
	}
	ss.FlushSave()

	reloaded, err := NewServerState(file)
	if err != nil {
		t.Fatal(err)
	}
	if ui := reloaded.Ui(); ui.MainWindow != "sensors" || ui.SelectedRoom != 2 {
		t.Errorf("reloaded ui = %+v", ui)
	}
}
