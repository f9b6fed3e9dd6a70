package event

import (
	"sync"
	"testing"
	"time"
)

func TestChannelFifo(t *testing.T) {
	c := NewChannel(4)
	c.TrySend(Nav(1, 0))
	c.TrySend(New(SELECT_EVENT))
	c.TrySend(Nav(0, -1))

	want := []Type{NAV_RIGHT_EVENT, SELECT_EVENT, NAV_UP_EVENT}
	for i, w := range want {
		ev, ok := c.Receive(0)
		if !ok {
			t.Fatalf("event %d: channel empty", i)
		}
		if ev.Type != w {
			t.Errorf("event %d: got %s, want %s", i, ev.Type, w)
		}
	}
	if _, ok := c.Receive(0); ok {
		t.Error("expected empty channel")
	}
}

func TestChannelFullForcesRefresh(t *testing.T) {
	c := NewChannel(2)
	if !c.TrySend(Nav(1, 0)) || !c.TrySend(Nav(1, 0)) {
		t.Fatal("sends within capacity must succeed")
	}
	if c.TrySend(Nav(1, 0)) {
		t.Fatal("send on a full channel must report a drop")
	}
	// A second drop does not queue a second refresh.
	c.TrySend(Nav(-1, 0))

	stats := c.Stats()
	if stats.Dropped != 2 {
		t.Errorf("dropped = %d, want 2", stats.Dropped)
	}
	if stats.Forced != 1 {
		t.Errorf("forced = %d, want 1", stats.Forced)
	}
	if stats.Pending != 3 {
		t.Errorf("pending = %d, want 3", stats.Pending)
	}

	ev, _ := c.Receive(0)
	if ev.Type != FORCE_FULL_REFRESH_EVENT {
		t.Fatalf("first event = %s, want the forced refresh", ev.Type)
	}
	for i := 0; i < 2; i++ {
		if ev, _ := c.Receive(0); ev.Type != NAV_RIGHT_EVENT {
			t.Errorf("queued event %d = %s, want nav_right", i, ev.Type)
		}
	}
}

func TestChannelBackPressure(t *testing.T) {
	c := NewChannel(8)
	for i := 0; i < 100; i++ {
		c.TrySend(Nav(0, 1))
	}

	forced := 0
	total := 0
	for {
		ev, ok := c.Receive(0)
		if !ok {
			break
		}
		total++
		if ev.Type == FORCE_FULL_REFRESH_EVENT {
			forced++
		}
	}
	if forced == 0 {
		t.Error("flooding the channel must yield a forced refresh")
	}
	if total > c.Cap()+1 {
		t.Errorf("received %d events, channel must stay bounded to %d", total, c.Cap()+1)
	}
	if s := c.Stats(); s.Sent+s.Dropped != 100 {
		t.Errorf("sent %d + dropped %d, want 100", s.Sent, s.Dropped)
	}
}

func TestChannelReceiveWaits(t *testing.T) {
	c := NewChannel(1)
	go func() {
		time.Sleep(10 * time.Millisecond)
		c.TrySend(New(BACK_EVENT))
	}()
	ev, ok := c.Receive(time.Second)
	if !ok || ev.Type != BACK_EVENT {
		t.Fatalf("got %v %v, want back event", ev.Type, ok)
	}
}

func TestChannelReceiveTimeout(t *testing.T) {
	c := NewChannel(1)
	start := time.Now()
	if _, ok := c.Receive(20 * time.Millisecond); ok {
		t.Fatal("expected timeout")
	}
	if time.Since(start) < 20*time.Millisecond {
		t.Error("receive returned before its timeout")
	}
}

func TestChannelSendBlocking(t *testing.T) {
	c := NewChannel(1)
	c.TrySend(New(SELECT_EVENT))

	done := make(chan bool)
	go func() {
		done <- c.SendBlocking(New(BACK_EVENT), time.Second)
	}()
	time.Sleep(10 * time.Millisecond)
	c.Receive(0)

	select {
	case ok := <-done:
		if !ok {
			t.Fatal("blocking send should succeed once room is made")
		}
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for blocking send")
	}
	if ev, _ := c.Receive(0); ev.Type != BACK_EVENT {
		t.Errorf("got %s, want back", ev.Type)
	}
}

func TestChannelSendBlockingTimeout(t *testing.T) {
	c := NewChannel(1)
	c.TrySend(New(SELECT_EVENT))
	if c.SendBlocking(New(BACK_EVENT), 10*time.Millisecond) {
		t.Fatal("blocking send on a full channel must time out")
	}
	if s := c.Stats(); s.Forced != 1 {
		t.Errorf("forced = %d, want 1", s.Forced)
	}
}

func TestChannelConcurrentProducers(t *testing.T) {
	c := NewChannel(16)
	var wg sync.WaitGroup
	for p := 0; p < 4; p++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 50; i++ {
				c.TrySend(Nav(1, 0))
			}
		}()
	}

	received := 0
	stop := make(chan struct{})
	go func() {
		wg.Wait()
		close(stop)
	}()
	for {
		if _, ok := c.Receive(time.Millisecond); ok {
			received++
			continue
		}
		select {
		case <-stop:
			for {
				if _, ok := c.Receive(0); !ok {
					break
				}
				received++
			}
			s := c.Stats()
			if uint64(received) < s.Sent {
				t.Errorf("received %d events, %d were sent", received, s.Sent)
			}
			return
		default:
		}
	}
}
