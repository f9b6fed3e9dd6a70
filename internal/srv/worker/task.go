package worker

import (
	"context"
	"runtime"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"
)

// Task is a long-lived goroutine locked to its own OS thread, stopped
// cooperatively through a flag.
type Task struct {
	name string

	askDone atomic.Bool
	done    chan struct{}

	ctx    context.Context
	cancel context.CancelFunc
}

// Start runs body on a dedicated goroutine. body must return soon after
// Stopping reports true or its context is canceled.
func Start(name string, body func(t *Task)) *Task {
	ctx, cancel := context.WithCancel(context.Background())
	t := &Task{
		name:   name,
		done:   make(chan struct{}),
		ctx:    ctx,
		cancel: cancel,
	}

	logrus.Infof("Start %s task", name)
	go func() {
		defer close(t.done)
		runtime.LockOSThread()
		defer runtime.UnlockOSThread()
		body(t)
	}()
	return t
}

func (t *Task) Name() string {
	return t.name
}

// Stopping reports whether a stop was requested.
func (t *Task) Stopping() bool {
	return t.askDone.Load() || t.ctx.Err() != nil
}

// Context is canceled on forced termination.
func (t *Task) Context() context.Context {
	return t.ctx
}

// Sleep waits d or until the task is terminated. It reports false on termination.
func (t *Task) Sleep(d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return true
	case <-t.ctx.Done():
		return false
	}
}

// Done is closed once the task body returned.
func (t *Task) Done() <-chan struct{} {
	return t.done
}

// Stop asks the task to finish and waits up to timeout. If the task does not
// comply it is terminated by canceling its context, and Stop reports false.
func (t *Task) Stop(timeout time.Duration) bool {
	logrus.Infof("Stop %s task", t.name)
	t.askDone.Store(true)

	timer := time.NewTimer(timeout)
	defer timer.Stop()
	select {
	case <-t.done:
		t.cancel()
		return true
	case <-timer.C:
	}

	logrus.Errorf("Task %s did not stop within %s, terminating", t.name, timeout)
	t.cancel()
	return false
}
