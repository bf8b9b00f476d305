// Package state tracks the pending conversational expectation of each actor.
// Every actor has at most one expectation at a time; arming a new one
// silently replaces the previous one.
package state

import (
	"sync"

	"github.com/m3rciful/relaybot/core/logger"

	"log/slog"
)

// Kind identifies what the next message from an actor will be used for.
type Kind string

const (
	KindAdminAdd        Kind = "admin_add"
	KindAdminRemove     Kind = "admin_remove"
	KindBlacklistAdd    Kind = "blacklist_add"
	KindBlacklistRemove Kind = "blacklist_remove"
	KindReply           Kind = "reply"
)

// Expectation describes what the tracker is waiting for from an actor.
// TargetID carries the user a reply is addressed to; it is zero for
// console flows where the target arrives in the next message.
type Expectation struct {
	Kind     Kind
	TargetID int64
}

// Tracker holds per-actor expectations behind a single mutex.
type Tracker struct {
	mu      sync.Mutex
	pending map[int64]Expectation
}

// NewTracker builds an empty tracker.
func NewTracker() *Tracker {
	return &Tracker{pending: make(map[int64]Expectation)}
}

// Begin arms an expectation for the actor, replacing any previous one.
func (t *Tracker) Begin(actorID int64, exp Expectation) {
	t.mu.Lock()
	prev, had := t.pending[actorID]
	t.pending[actorID] = exp
	t.mu.Unlock()

	if had {
		logger.FSM.Debug("expectation replaced",
			slog.String("event", "fsm.begin"),
			slog.Int64("user_id", actorID),
			slog.String("expectation", string(exp.Kind)),
			slog.String("replaced", string(prev.Kind)),
		)
		return
	}
	logger.FSM.Debug("expectation armed",
		slog.String("event", "fsm.begin"),
		slog.Int64("user_id", actorID),
		slog.String("expectation", string(exp.Kind)),
	)
}

// Take atomically removes and returns the actor's pending expectation.
// The second result is false when nothing was armed. Two concurrent Takes
// for the same actor never both succeed.
func (t *Tracker) Take(actorID int64) (Expectation, bool) {
	t.mu.Lock()
	exp, ok := t.pending[actorID]
	if ok {
		delete(t.pending, actorID)
	}
	t.mu.Unlock()

	if ok {
		logger.FSM.Debug("expectation taken",
			slog.String("event", "fsm.take"),
			slog.Int64("user_id", actorID),
			slog.String("expectation", string(exp.Kind)),
		)
	}
	return exp, ok
}

// Clear drops the actor's pending expectation, if any.
func (t *Tracker) Clear(actorID int64) {
	t.mu.Lock()
	delete(t.pending, actorID)
	t.mu.Unlock()
}

// Pending returns the actor's expectation without consuming it.
func (t *Tracker) Pending(actorID int64) (Expectation, bool) {
	t.mu.Lock()
	exp, ok := t.pending[actorID]
	t.mu.Unlock()
	return exp, ok
}
