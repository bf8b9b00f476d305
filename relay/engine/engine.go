// Package engine implements the message relay pipeline. User messages fan
// out to every super-admin and admin; a pending expectation on the sender
// takes precedence over relaying.
package engine

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/m3rciful/relaybot/core/logger"
	"github.com/m3rciful/relaybot/relay/auth"
	"github.com/m3rciful/relaybot/relay/state"
	"github.com/m3rciful/relaybot/relay/stats"

	"log/slog"
)

// Outcome is the result of running one inbound message through the pipeline.
type Outcome string

const (
	// OutcomeSuppressed means the relay is paused and the message was dropped.
	OutcomeSuppressed Outcome = "suppressed"
	// OutcomeBlocked means the sender is blacklisted.
	OutcomeBlocked Outcome = "blocked"
	// OutcomeCompleted means the message completed a pending expectation.
	OutcomeCompleted Outcome = "completed"
	// OutcomeRelayed means the message was broadcast to the admin group.
	OutcomeRelayed Outcome = "relayed"
)

// ReplyAction asks the transport to attach a reply control addressed to a user.
type ReplyAction struct {
	TargetID int64
}

// Transport delivers outbound messages. Failures are returned as values and
// never abort the caller's flow.
type Transport interface {
	Deliver(ctx context.Context, recipientID int64, text string, action *ReplyAction) error
}

// Message is one inbound user message with its display metadata.
type Message struct {
	SenderID    int64
	Text        string
	DisplayName string
	Username    string
}

// CompletionFunc finishes a pending expectation with the actor's next message.
type CompletionFunc func(ctx context.Context, actorID int64, text string, exp state.Expectation) Outcome

const (
	msgPaused      = "The bot is currently paused. Please try again later."
	msgBlocked     = "You are not allowed to use this bot."
	msgRelayedAck  = "Your message has been delivered. You will receive a reply here."
	msgReplySent   = "Reply delivered."
	msgReplyFailed = "Could not deliver the reply. The user may have blocked the bot."
)

// Engine ties the availability flag, access store, expectation tracker,
// usage counters and transport into one inbound pipeline.
type Engine struct {
	flag      *Flag
	access    *auth.Store
	tracker   *state.Tracker
	usage     *stats.Collector
	transport Transport

	mu          sync.RWMutex
	completions map[state.Kind]CompletionFunc
}

// New builds an engine and registers its own reply completion.
func New(flag *Flag, access *auth.Store, tracker *state.Tracker, usage *stats.Collector, transport Transport) *Engine {
	e := &Engine{
		flag:        flag,
		access:      access,
		tracker:     tracker,
		usage:       usage,
		transport:   transport,
		completions: make(map[state.Kind]CompletionFunc),
	}
	e.completions[state.KindReply] = e.completeReply
	return e
}

// RegisterCompletion binds a handler to an expectation kind. The console
// registers the four list-edit completions through this.
func (e *Engine) RegisterCompletion(kind state.Kind, fn CompletionFunc) {
	e.mu.Lock()
	e.completions[kind] = fn
	e.mu.Unlock()
}

func (e *Engine) completion(kind state.Kind) CompletionFunc {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.completions[kind]
}

// BeginReply arms a reply expectation: the admin's next message goes to targetID.
func (e *Engine) BeginReply(adminID, targetID int64) {
	e.tracker.Begin(adminID, state.Expectation{Kind: state.KindReply, TargetID: targetID})
}

// HandleIncoming runs one inbound message through the pipeline:
// availability, then blacklist, then pending expectation, then relay.
func (e *Engine) HandleIncoming(ctx context.Context, msg Message) Outcome {
	if !e.flag.Active() {
		e.notify(ctx, msg.SenderID, msgPaused)
		logger.RELAY.Debug("message suppressed",
			slog.String("event", "relay.suppressed"),
			slog.Int64("user_id", msg.SenderID),
		)
		return OutcomeSuppressed
	}

	if e.access.Classify(msg.SenderID) == auth.RoleBlacklisted {
		e.notify(ctx, msg.SenderID, msgBlocked)
		logger.RELAY.Info("message blocked",
			slog.String("event", "relay.blocked"),
			slog.Int64("user_id", msg.SenderID),
			slog.String("outcome", "blocked"),
		)
		return OutcomeBlocked
	}

	if exp, ok := e.tracker.Take(msg.SenderID); ok {
		fn := e.completion(exp.Kind)
		if fn == nil {
			logger.RELAY.Warn("no completion handler",
				slog.String("event", "relay.completion.missing"),
				slog.Int64("user_id", msg.SenderID),
				slog.String("expectation", string(exp.Kind)),
			)
			return OutcomeCompleted
		}
		return fn(ctx, msg.SenderID, msg.Text, exp)
	}

	return e.relay(ctx, msg)
}

func (e *Engine) relay(ctx context.Context, msg Message) Outcome {
	e.usage.Observe(msg.SenderID)

	recipients := e.access.Recipients()
	text := formatRelay(msg)
	action := &ReplyAction{TargetID: msg.SenderID}

	start := time.Now()
	failures := make([]error, len(recipients))

	var wg sync.WaitGroup
	for i, id := range recipients {
		wg.Add(1)
		go func(i int, id int64) {
			defer wg.Done()
			failures[i] = e.transport.Deliver(ctx, id, text, action)
		}(i, id)
	}
	wg.Wait()

	var failed int
	var samples []string
	for i, err := range failures {
		if err == nil {
			continue
		}
		failed++
		samples = append(samples, fmt.Sprintf("%d: %v", recipients[i], err))
	}

	attrs := []slog.Attr{
		slog.String("event", "relay.broadcast"),
		slog.Int64("user_id", msg.SenderID),
		slog.Int("recipients", len(recipients)),
		slog.Int("delivered", len(recipients)-failed),
		slog.Int("failed", failed),
		slog.String("outcome", "relayed"),
		slog.Duration("duration", logger.RoundMS(time.Since(start))),
	}
	if failed > 0 {
		summary, truncated := logger.SummarizeStrings(samples, 3)
		if truncated {
			summary += ", ..."
		}
		attrs = append(attrs, slog.String("err", summary))
		logger.RELAY.LogAttrs(ctx, slog.LevelWarn, "broadcast partially failed", attrs...)
	} else {
		logger.RELAY.LogAttrs(ctx, slog.LevelInfo, "message relayed", attrs...)
	}

	e.notify(ctx, msg.SenderID, msgRelayedAck)
	return OutcomeRelayed
}

func (e *Engine) completeReply(ctx context.Context, actorID int64, text string, exp state.Expectation) Outcome {
	err := e.transport.Deliver(ctx, exp.TargetID, text, nil)
	if err != nil {
		logger.RELAY.Warn("reply delivery failed",
			slog.String("event", "relay.reply"),
			slog.Int64("user_id", actorID),
			slog.Int64("target_id", exp.TargetID),
			slog.String("err", err.Error()),
		)
		e.notify(ctx, actorID, msgReplyFailed)
		return OutcomeCompleted
	}

	logger.RELAY.Info("reply delivered",
		slog.String("event", "relay.reply"),
		slog.Int64("user_id", actorID),
		slog.Int64("target_id", exp.TargetID),
		slog.String("outcome", "completed"),
	)
	e.notify(ctx, actorID, msgReplySent)
	return OutcomeCompleted
}

// notify sends a best-effort service notice without a reply action.
func (e *Engine) notify(ctx context.Context, recipientID int64, text string) {
	if err := e.transport.Deliver(ctx, recipientID, text, nil); err != nil {
		logger.RELAY.Debug("notice delivery failed",
			slog.String("event", "relay.notice"),
			slog.Int64("user_id", recipientID),
			slog.String("err", err.Error()),
		)
	}
}

func formatRelay(msg Message) string {
	var b strings.Builder
	b.WriteString("Message from ")
	if msg.DisplayName != "" {
		b.WriteString(msg.DisplayName)
	} else {
		b.WriteString("user")
	}
	if msg.Username != "" {
		fmt.Fprintf(&b, " (@%s)", msg.Username)
	}
	fmt.Fprintf(&b, " [id %d]:\n\n%s", msg.SenderID, msg.Text)
	return b.String()
}
