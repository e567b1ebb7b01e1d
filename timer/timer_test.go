package timer

import (
	"sync"
	"testing"
	"time"
)

func TestManager_ScheduleFires(t *testing.T) {
	m := NewManager()
	defer m.Stop()

	fired := make(chan struct{})
	m.Schedule(20*time.Millisecond, func() { close(fired) })

	select {
	case <-fired:
	case <-time.After(time.Second):
		t.Fatal("scheduled task did not fire")
	}
}

func TestManager_CancelPreventsFire(t *testing.T) {
	m := NewManager()
	defer m.Stop()

	fired := make(chan struct{}, 1)
	id := m.Schedule(100*time.Millisecond, func() { fired <- struct{}{} })
	m.Cancel(id)

	select {
	case <-fired:
		t.Fatal("cancelled task fired")
	case <-time.After(300 * time.Millisecond):
	}
}

func TestManager_CancelUnknownID(t *testing.T) {
	m := NewManager()
	defer m.Stop()

	// Must not panic or affect other tasks.
	m.Cancel(9999)
	m.Cancel(9999)
}

func TestManager_Ordering(t *testing.T) {
	m := NewManager()
	defer m.Stop()

	var mu sync.Mutex
	var order []int
	done := make(chan struct{})

	m.Schedule(120*time.Millisecond, func() {
		mu.Lock()
		order = append(order, 2)
		mu.Unlock()
		close(done)
	})
	m.Schedule(20*time.Millisecond, func() {
		mu.Lock()
		order = append(order, 1)
		mu.Unlock()
	})

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("tasks did not complete")
	}

	mu.Lock()
	defer mu.Unlock()
	if len(order) != 2 || order[0] != 1 || order[1] != 2 {
		t.Fatalf("expected tasks in delay order, got %v", order)
	}
}

func TestCountdown_TicksMonotonicAndExpireOnce(t *testing.T) {
	c := NewCountdown()

	var mu sync.Mutex
	var ticks []int
	expires := 0
	done := make(chan struct{})

	c.Start(2, func(remaining int) {
		mu.Lock()
		ticks = append(ticks, remaining)
		mu.Unlock()
	}, func(uint64) {
		mu.Lock()
		expires++
		mu.Unlock()
		close(done)
	})

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("countdown did not expire")
	}
	// Let any stray tick after expiry show up.
	time.Sleep(150 * time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	if expires != 1 {
		t.Fatalf("expected exactly one expiry, got %d", expires)
	}
	if len(ticks) == 0 {
		t.Fatal("expected at least one tick")
	}
	if ticks[0] != 2 {
		t.Errorf("expected immediate tick of 2, got %d", ticks[0])
	}
	for i := 1; i < len(ticks); i++ {
		if ticks[i] > ticks[i-1] {
			t.Fatalf("ticks must be non-increasing, got %v", ticks)
		}
	}
	if ticks[len(ticks)-1] != 0 {
		t.Errorf("final tick must be 0, got %d", ticks[len(ticks)-1])
	}
}

func TestCountdown_CancelIdempotent(t *testing.T) {
	c := NewCountdown()

	// Cancel with nothing running is safe, twice in a row too.
	c.Cancel()
	c.Cancel()

	expired := make(chan struct{}, 2)
	c.Start(1, nil, func(uint64) { expired <- struct{}{} })
	c.Cancel()
	c.Cancel()

	select {
	case <-expired:
		t.Fatal("cancelled countdown must not expire")
	case <-time.After(1500 * time.Millisecond):
	}

	// A fresh start after cancels produces a single clean stream.
	done := make(chan struct{})
	c.Start(1, nil, func(uint64) { close(done) })
	select {
	case <-done:
	case <-time.After(3 * time.Second):
		t.Fatal("restarted countdown did not expire")
	}
}

func TestCountdown_CancelInvalidatesGeneration(t *testing.T) {
	c := NewCountdown()

	gen := c.Start(60, nil, nil)
	if got := c.Generation(); got != gen {
		t.Fatalf("expected current generation %d, got %d", gen, got)
	}

	// An expiry blocked on the owner's lock while Cancel runs would carry
	// this generation; invalidating it is what keeps that expiry out.
	c.Cancel()
	if c.Generation() == gen {
		t.Error("Cancel must invalidate the prior generation")
	}

	next := c.Start(60, nil, nil)
	defer c.Cancel()
	if next == gen {
		t.Error("a restart must arm a fresh generation")
	}
	if got := c.Generation(); got != next {
		t.Errorf("expected current generation %d, got %d", next, got)
	}
}

func TestCountdown_ExpiryCarriesItsGeneration(t *testing.T) {
	c := NewCountdown()

	got := make(chan uint64, 1)
	gen := c.Start(0, nil, func(g uint64) { got <- g })

	select {
	case g := <-got:
		if g != gen {
			t.Errorf("expected expiry generation %d, got %d", gen, g)
		}
	case <-time.After(time.Second):
		t.Fatal("countdown did not expire")
	}
}

func TestCountdown_RemainingAndDeadline(t *testing.T) {
	c := NewCountdown()

	if c.Remaining() != 0 {
		t.Error("idle countdown should report 0 remaining")
	}
	if _, armed := c.Deadline(); armed {
		t.Error("idle countdown should not report a deadline")
	}

	c.Start(30, nil, nil)
	defer c.Cancel()

	if r := c.Remaining(); r < 29 || r > 30 {
		t.Errorf("expected remaining close to 30, got %d", r)
	}
	if _, armed := c.Deadline(); !armed {
		t.Error("armed countdown should report its deadline")
	}
}

func TestCountdown_RestartCancelsPrior(t *testing.T) {
	c := NewCountdown()
	defer c.Cancel()

	first := make(chan struct{}, 1)
	c.Start(1, nil, func(uint64) { first <- struct{}{} })
	c.Start(60, nil, nil)

	select {
	case <-first:
		t.Fatal("restart must cancel the prior countdown's expiry")
	case <-time.After(1500 * time.Millisecond):
	}
}
