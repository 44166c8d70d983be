package game

import (
	"sync"
	"testing"
	"time"
)

func TestCountdownRunsToZero(t *testing.T) {
	c := NewCountdown(1)

	var mu sync.Mutex
	var updates []CountdownUpdate
	done := make(chan struct{})
	go func() {
		c.Run(50*time.Millisecond, func(u CountdownUpdate) {
			mu.Lock()
			updates = append(updates, u)
			mu.Unlock()
		})
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("countdown did not finish")
	}

	mu.Lock()
	defer mu.Unlock()
	if len(updates) == 0 {
		t.Fatal("expected updates")
	}
	last := updates[len(updates)-1]
	if !last.Done || last.Remaining != 0 {
		t.Fatalf("countdown should freeze at zero, got %+v", last)
	}
	// A 1 second countdown is inside the urgency window from the start.
	if !last.Urgent {
		t.Fatal("urgency flag should be set")
	}
}

func TestCountdownUrgencyIsOneWay(t *testing.T) {
	c := NewCountdown(6)

	u, finished := c.tick(500 * time.Millisecond)
	if finished {
		t.Fatal("countdown finished too early")
	}
	if u.Urgent {
		t.Fatalf("5.5s remaining is above the threshold, got %+v", u)
	}

	u, _ = c.tick(time.Second)
	if !u.Urgent {
		t.Fatalf("4.5s remaining is urgent, got %+v", u)
	}

	u, _ = c.tick(time.Second)
	if !u.Urgent {
		t.Fatal("urgency never resets while counting")
	}
}

func TestCountdownStop(t *testing.T) {
	c := NewCountdown(60)
	done := make(chan struct{})
	go func() {
		c.Run(10*time.Millisecond, nil)
		close(done)
	}()
	c.Stop()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("stop should end the run loop")
	}
	// Stop twice is safe.
	c.Stop()
}

func TestCountdownDisplayRoundsUp(t *testing.T) {
	c := NewCountdown(10)
	u, _ := c.tick(100 * time.Millisecond)
	if u.Remaining != 10 {
		t.Fatalf("9.9s shows as 10, got %d", u.Remaining)
	}
	u, _ = c.tick(time.Second)
	if u.Remaining != 9 {
		t.Fatalf("8.9s shows as 9, got %d", u.Remaining)
	}
}
