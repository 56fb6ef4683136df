package main

import "time"

// playClock is the wall clock that drives time-based playback. It can be
// paused and sped up without jumping.
type playClock struct {
	now    func() time.Time
	speed  float64
	origin time.Time
	offset float64 // seconds accumulated before origin
	paused bool
}

func newPlayClock(now func() time.Time) *playClock {
	return &playClock{now: now, speed: 1, origin: now()}
}

// Seconds returns the playback time.
func (c *playClock) Seconds() float64 {
	if c.paused {
		return c.offset
	}
	return c.offset + c.now().Sub(c.origin).Seconds()*c.speed
}

func (c *playClock) Paused() bool { return c.paused }

func (c *playClock) Pause() {
	if c.paused {
		return
	}
	c.offset = c.Seconds()
	c.paused = true
}

func (c *playClock) Resume() {
	if !c.paused {
		return
	}
	c.origin = c.now()
	c.paused = false
}

func (c *playClock) Toggle() {
	if c.paused {
		c.Resume()
	} else {
		c.Pause()
	}
}

// Restart rewinds to zero, keeping the paused state.
func (c *playClock) Restart() {
	c.offset = 0
	c.origin = c.now()
}

// SetSpeed changes the rate from now on.
func (c *playClock) SetSpeed(speed float64) {
	c.offset = c.Seconds()
	c.origin = c.now()
	c.speed = speed
}
