package event

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"
)

// Channel is the bounded FIFO crossing from producers (input task, data
// services, api) to the render task.
//
// A full channel never blocks a producer: the event is dropped and a single
// FORCE_FULL_REFRESH is queued ahead of everything else, so the consumer
// eventually repaints from the shared state instead of going stale.
type Channel struct {
	lock  sync.Mutex
	buf   []Event
	head  int
	count int

	// forceRefresh is the out-of-band front slot for the escape hatch event.
	forceRefresh bool

	readable chan struct{}
	writable chan struct{}

	sent    atomic.Uint64
	dropped atomic.Uint64
	forced  atomic.Uint64
}

// Stats is a snapshot of the channel counters.
type Stats struct {
	Sent    uint64 `json:"sent"`
	Dropped uint64 `json:"dropped"`
	Forced  uint64 `json:"forced"`
	Pending int    `json:"pending"`
}

func NewChannel(length int) *Channel {
	if length < 1 {
		length = 1
	}
	return &Channel{
		buf:      make([]Event, length),
		readable: make(chan struct{}, 1),
		writable: make(chan struct{}, 1),
	}
}

// TrySend enqueues ev without blocking. It returns false when ev was dropped
// because the channel was full; a forced refresh is then pending.
func (c *Channel) TrySend(ev Event) bool {
	if c.push(ev) {
		return true
	}
	c.escape(ev)
	return false
}

// SendBlocking waits up to timeout for room in the channel. On timeout it
// behaves like a failed TrySend.
func (c *Channel) SendBlocking(ev Event, timeout time.Duration) bool {
	if c.push(ev) {
		return true
	}
	timer := time.NewTimer(timeout)
	defer timer.Stop()
	for {
		select {
		case <-c.writable:
			if c.push(ev) {
				return true
			}
		case <-timer.C:
			if c.push(ev) {
				return true
			}
			c.escape(ev)
			return false
		}
	}
}

// Receive returns the next event, waiting up to timeout. A zero timeout polls.
func (c *Channel) Receive(timeout time.Duration) (Event, bool) {
	if ev, ok := c.pop(); ok {
		return ev, true
	}
	if timeout <= 0 {
		return Event{}, false
	}
	timer := time.NewTimer(timeout)
	defer timer.Stop()
	for {
		select {
		case <-c.readable:
			if ev, ok := c.pop(); ok {
				return ev, true
			}
		case <-timer.C:
			return c.pop()
		}
	}
}

// Len returns the number of pending events, the forced refresh included.
func (c *Channel) Len() int {
	c.lock.Lock()
	defer c.lock.Unlock()
	n := c.count
	if c.forceRefresh {
		n++
	}
	return n
}

func (c *Channel) Cap() int {
	return len(c.buf)
}

func (c *Channel) Stats() Stats {
	return Stats{
		Sent:    c.sent.Load(),
		Dropped: c.dropped.Load(),
		Forced:  c.forced.Load(),
		Pending: c.Len(),
	}
}

func (c *Channel) push(ev Event) bool {
	c.lock.Lock()
	if c.count == len(c.buf) {
		c.lock.Unlock()
		return false
	}
	c.buf[(c.head+c.count)%len(c.buf)] = ev
	c.count++
	c.lock.Unlock()

	c.sent.Add(1)
	signal(c.readable)
	return true
}

func (c *Channel) pop() (Event, bool) {
	c.lock.Lock()
	if c.forceRefresh {
		c.forceRefresh = false
		c.lock.Unlock()
		return New(FORCE_FULL_REFRESH_EVENT), true
	}
	if c.count == 0 {
		c.lock.Unlock()
		return Event{}, false
	}
	ev := c.buf[c.head]
	c.head = (c.head + 1) % len(c.buf)
	c.count--
	c.lock.Unlock()

	signal(c.writable)
	return ev, true
}

func (c *Channel) escape(dropped Event) {
	c.dropped.Add(1)

	c.lock.Lock()
	already := c.forceRefresh
	c.forceRefresh = true
	c.lock.Unlock()

	logrus.WithFields(logrus.Fields{
		"event":   dropped.Type.String(),
		"dropped": c.dropped.Load(),
	}).Warn("Event channel full, event dropped")

	if !already {
		c.forced.Add(1)
		signal(c.readable)
	}
}

func signal(ch chan struct{}) {
	select {
	case ch <- struct{}{}:
	default:
	}
}
