// Package stats keeps runtime usage counters for the admin console.
// Counters live for the process lifetime only and are never persisted.
package stats

import (
	"sync"
	"time"
)

// Counters is a point-in-time copy of the collected figures.
type Counters struct {
	Users     int
	Messages  int64
	StartedAt time.Time
	Uptime    time.Duration
}

// Collector tracks known end-users and relayed message totals.
type Collector struct {
	mu        sync.Mutex
	users     map[int64]struct{}
	messages  int64
	startedAt time.Time
	now       func() time.Time
}

// NewCollector starts a collector anchored to the current time.
func NewCollector() *Collector {
	return newCollectorAt(time.Now)
}

func newCollectorAt(now func() time.Time) *Collector {
	return &Collector{
		users:     make(map[int64]struct{}),
		startedAt: now(),
		now:       now,
	}
}

// Register marks a user as known without counting a message.
func (c *Collector) Register(userID int64) {
	c.mu.Lock()
	c.users[userID] = struct{}{}
	c.mu.Unlock()
}

// Observe records one relayed message from the given user.
func (c *Collector) Observe(userID int64) {
	c.mu.Lock()
	c.users[userID] = struct{}{}
	c.messages++
	c.mu.Unlock()
}

// CountRelayed returns the total number of relayed messages.
func (c *Collector) CountRelayed() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.messages
}

// Snapshot returns a copy of the counters with the uptime computed.
func (c *Collector) Snapshot() Counters {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Counters{
		Users:     len(c.users),
		Messages:  c.messages,
		StartedAt: c.startedAt,
		Uptime:    c.now().Sub(c.startedAt),
	}
}
