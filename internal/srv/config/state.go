package config

import (
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
)

const saveDelay = 10 * time.Second

// ServerState persists the UI position across restarts.
type ServerState struct {
	serverStateConfig     ServerStateConfig
	lock                  sync.RWMutex
	backupTimer           *time.Timer
	saveDelay             time.Duration
	completeStateFilename string
}

type ServerStateConfig struct {
	Ui UiState `yaml:"ui"`
}

type UiState struct {
	MainWindow       string `yaml:"main_window"`
	SelectedRoom     int    `yaml:"selected_room"`
	SelectedZone     int    `yaml:"selected_zone"`
	SelectedSetting  int    `yaml:"selected_setting"`
	SelectedMetric   int    `yaml:"selected_metric"`
	PartialRefreshOn bool   `yaml:"partial_refresh"`
}

func NewServerState(completeStateFilename string) (*ServerState, error) {
	serverState := &ServerState{
		completeStateFilename: completeStateFilename,
		saveDelay:             saveDelay,
	}

	rawConfig, err := os.ReadFile(completeStateFilename)
	if err == nil {
		if err = yaml.Unmarshal(rawConfig, &serverState.serverStateConfig); err != nil {
			return nil, fmt.Errorf("config: unable to interpret state file: %w", err)
		}
	} else {
		logrus.Infof("Create default state file")
		serverState.SetUi(UiState{PartialRefreshOn: true})
	}

	return serverState, nil
}

func (ss *ServerState) Ui() UiState {
	ss.lock.RLock()
	defer ss.lock.RUnlock()

	return ss.serverStateConfig.Ui
}

func (ss *ServerState) SetUi(ui UiState) {
	ss.lock.Lock()
	defer ss.lock.Unlock()

	if ss.serverStateConfig.Ui == ui && ss.backupTimer != nil {
		return
	}
	ss.serverStateConfig.Ui = ui
	ss.scheduleSave()
}

func (ss *ServerState) scheduleSave() {
	if ss.backupTimer == nil {
		ss.backupTimer = time.AfterFunc(ss.saveDelay, func() {
			ss.lock.Lock()
			defer ss.lock.Unlock()
			ss.save()
		})
	} else {
		ss.backupTimer.Reset(ss.saveDelay)
	}
}

func (ss *ServerState) save() {
	logrus.Infof("Save state file: %s", ss.completeStateFilename)
	rawConfig, err := yaml.Marshal(&ss.serverStateConfig)
	if err != nil {
		logrus.Errorf("Unable to serialize state file: %v", err)
		return
	}
	if err = os.WriteFile(ss.completeStateFilename, rawConfig, 0660); err != nil {
		logrus.Errorf("Unable to save state file: %v", err)
	}
}

// FlushSave writes a pending state change immediately.
func (ss *ServerState) FlushSave() {
	ss.lock.Lock()
	defer ss.lock.Unlock()
	if ss.backupTimer != nil {
		if ss.backupTimer.Stop() {
			ss.save()
		}
	}
}
