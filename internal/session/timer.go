package session

// Countdown is a one-shot per-question (or global) timer. It moves
// idle → running → finished and never restarts within a session.
type Countdown struct {
	Remaining int  `json:"remaining"`
	Running   bool `json:"running"`
	Expired   bool `json:"expired"`
}

// start arms the countdown. It is a no-op once the timer has run before.
func (c *Countdown) start(seconds int) {
	if c.Running || c.Expired {
		return
	}
	c.Remaining = seconds
	c.Running = true
}

// tick decrements one second and reports whether the countdown just expired.
func (c *Countdown) tick() bool {
	if !c.Running {
		return false
	}
	c.Remaining--
	if c.Remaining <= 0 {
		c.Remaining = 0
		c.Running = false
		c.Expired = true
		return true
	}
	return false
}
