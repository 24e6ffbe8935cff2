package app

import (
	"context"
	"log"
	"sync"
	"time"
)

// Scheduler runs fn every interval until the returned cancel func is called.
type Scheduler interface {
	Every(interval time.Duration, fn func()) (cancel func())
}

// TickerScheduler is the wall-clock Scheduler backed by time.Ticker.
type TickerScheduler struct{}

func (TickerScheduler) Every(interval time.Duration, fn func()) func() {
	ticker := time.NewTicker(interval)
	done := make(chan struct{})
	go func() {
		for {
			select {
			case <-ticker.C:
				fn()
			case <-done:
				return
			}
		}
	}()
	var once sync.Once
	return func() {
		once.Do(func() {
			ticker.Stop()
			close(done)
		})
	}
}

// Timer starts per-question countdowns whose progress survives in a KeyValue store.
type Timer struct {
	store     KeyValue
	scheduler Scheduler
	interval  time.Duration
}

func NewTimer(store KeyValue, scheduler Scheduler) *Timer {
	return &Timer{store: store, scheduler: scheduler, interval: time.Second}
}

// Countdown is the handle of one running question countdown.
type Countdown struct {
	questionID int
	store      KeyValue
	ctx        context.Context
	onTick     func(questionID, remaining int)
	onExpire   func(questionID int)

	mu        sync.Mutex
	remaining int
	stopped   bool
	expired   bool
	cancel    func()
}

// Start resumes the countdown for questionID from stored progress, or seeds it at
// limitSeconds. onTick sees every decrement; onExpire fires once when the value
// reaches zero. A countdown resumed at zero or below is already expired: it never
// ticks and never calls onExpire, so callers must check Expired.
func (t *Timer) Start(ctx context.Context, questionID, limitSeconds int, onTick func(questionID, remaining int), onExpire func(questionID int)) *Countdown {
	remaining := limitSeconds
	var stored int
	ok, err := getJSON(ctx, t.store, timerKey(questionID), &stored)
	if err != nil {
		log.Printf("timer %d: load progress: %v", questionID, err)
	} else if ok {
		remaining = stored
	}

	c := &Countdown{
		questionID: questionID,
		store:      t.store,
		ctx:        context.WithoutCancel(ctx),
		onTick:     onTick,
		onExpire:   onExpire,
		remaining:  remaining,
	}
	if remaining <= 0 {
		c.expired = true
		c.stopped = true
		return c
	}

	c.mu.Lock()
	c.cancel = t.scheduler.Every(t.interval, c.tick)
	c.mu.Unlock()
	return c
}

func (c *Countdown) tick() {
	c.mu.Lock()
	if c.stopped {
		c.mu.Unlock()
		return
	}
	c.remaining--
	remaining := c.remaining
	if err := setJSON(c.ctx, c.store, timerKey(c.questionID), remaining); err != nil {
		log.Printf("timer %d: save progress: %v", c.questionID, err)
	}
	fire := false
	if remaining <= 0 && !c.expired {
		c.expired = true
		fire = true
		c.stopLocked()
	}
	c.mu.Unlock()

	if c.onTick != nil {
		c.onTick(c.questionID, clamp(remaining))
	}
	if fire && c.onExpire != nil {
		c.onExpire(c.questionID)
	}
}

// Stop halts further ticks. Stored progress is kept so a later Start resumes it.
func (c *Countdown) Stop() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.stopLocked()
}

func (c *Countdown) stopLocked() {
	c.stopped = true
	if c.cancel != nil {
		c.cancel()
		c.cancel = nil
	}
}

func (c *Countdown) QuestionID() int {
	return c.questionID
}

// Remaining returns the seconds left, never negative.
func (c *Countdown) Remaining() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return clamp(c.remaining)
}

func (c *Countdown) Expired() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.expired
}

func clamp(seconds int) int {
	if seconds < 0 {
		return 0
	}
	return seconds
}
