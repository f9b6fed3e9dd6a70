package srv

import (
	"github.com/jypelle/inkpanel/internal/srv/worker"
	"github.com/sirupsen/logrus"
)

// startTasks runs the input and render sides of the pipeline, each on its
// own OS thread, or both in a single loop when configured so.
func (s *ServerApp) startTasks() {
	tick := s.ServerParam.TimingParam.InputTick

	if s.ServerParam.DisplayParam.SingleLoop {
		logrus.Warnf("Running input and render in a single loop")
		s.loopTask = worker.Start("main loop", func(t *worker.Task) {
			for !t.Stopping() {
				s.capture.Step()
				s.scheduler.Step()
			}
		})
		return
	}

	s.inputTask = worker.Start("input", func(t *worker.Task) {
		for !t.Stopping() {
			s.capture.Step()
			if !t.Sleep(tick) {
				return
			}
		}
	})
	s.renderTask = worker.Start("render", s.scheduler.Run)
}

func (s *ServerApp) stopTasks() {
	timeout := s.ServerParam.TimingParam.TaskStopTimeout
	for _, t := range []*worker.Task{s.inputTask, s.renderTask, s.loopTask} {
		if t == nil {
			continue
		}
		if !t.Stop(timeout) {
			logrus.Warnf("Task %s was terminated", t.Name())
		}
	}
}
