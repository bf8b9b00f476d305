package stats

import (
	"testing"
	"time"
)

func TestObserveCountsUsersAndMessages(t *testing.T) {
	c := NewCollector()
	c.Observe(10)
	c.Observe(10)
	c.Observe(20)

	snap := c.Snapshot()
	if snap.Users != 2 {
		t.Fatalf("Users = %d, want 2", snap.Users)
	}
	if snap.Messages != 3 {
		t.Fatalf("Messages = %d, want 3", snap.Messages)
	}
	if got := c.CountRelayed(); got != 3 {
		t.Fatalf("CountRelayed = %d, want 3", got)
	}
}

func TestRegisterAddsUserWithoutMessage(t *testing.T) {
	c := NewCollector()
	c.Register(10)
	c.Register(10)

	snap := c.Snapshot()
	if snap.Users != 1 {
		t.Fatalf("Users = %d, want 1", snap.Users)
	}
	if snap.Messages != 0 {
		t.Fatalf("Messages = %d, want 0", snap.Messages)
	}
}

func TestSnapshotUptime(t *testing.T) {
	base := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	clock := base
	c := newCollectorAt(func() time.Time { return clock })

	clock = base.Add(90 * time.Second)
	snap := c.Snapshot()
	if snap.Uptime != 90*time.Second {
		t.Fatalf("Uptime = %s, want 1m30s", snap.Uptime)
	}
	if !snap.StartedAt.Equal(base) {
		t.Fatalf("StartedAt = %s, want %s", snap.StartedAt, base)
	}
}
