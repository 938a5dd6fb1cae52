package session

import "testing"

func TestCountdownOneShot(t *testing.T) {
	var c Countdown

	c.start(3)
	if !c.Running || c.Remaining != 3 {
		t.Fatalf("after start: %+v", c)
	}

	// start while running is a no-op.
	c.start(99)
	if c.Remaining != 3 {
		t.Fatalf("restart while running changed remaining: %d", c.Remaining)
	}

	if c.tick() || c.tick() {
		t.Fatal("expired too early")
	}
	if !c.tick() {
		t.Fatal("final tick must report expiry")
	}
	if c.Running || !c.Expired || c.Remaining != 0 {
		t.Fatalf("after expiry: %+v", c)
	}

	// finished timers stay finished.
	c.start(10)
	if c.Running || c.Remaining != 0 {
		t.Fatalf("restart after expiry: %+v", c)
	}
	if c.tick() {
		t.Fatal("tick on a finished timer must be inert")
	}
}
