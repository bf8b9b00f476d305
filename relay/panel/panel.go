// Package panel implements the super-admin console: availability toggle,
// admin and blacklist management, and the usage stats screen. Transport
// bindings render its texts; the console itself stays free of Telegram types.
package panel

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/m3rciful/relaybot/core/logger"
	"github.com/m3rciful/relaybot/relay/auth"
	"github.com/m3rciful/relaybot/relay/engine"
	"github.com/m3rciful/relaybot/relay/state"
	"github.com/m3rciful/relaybot/relay/stats"

	"log/slog"
)

const (
	msgInvalidIdentifier = "That is not a numeric id. Open the panel and start the action again."
	msgSaveFailed        = "Could not save the change. Nothing was modified, try again."
)

// Console drives the multi-step super-admin flows.
type Console struct {
	access    *auth.Store
	tracker   *state.Tracker
	flag      *engine.Flag
	usage     *stats.Collector
	transport engine.Transport
	clock     func() time.Time
}

// NewConsole wires the console against the shared relay state.
func NewConsole(access *auth.Store, tracker *state.Tracker, flag *engine.Flag, usage *stats.Collector, transport engine.Transport) *Console {
	return &Console{
		access:    access,
		tracker:   tracker,
		flag:      flag,
		usage:     usage,
		transport: transport,
		clock:     time.Now,
	}
}

// RegisterCompletions binds the four list-edit completions to the engine.
func (c *Console) RegisterCompletions(eng *engine.Engine) {
	for _, kind := range []state.Kind{
		state.KindAdminAdd,
		state.KindAdminRemove,
		state.KindBlacklistAdd,
		state.KindBlacklistRemove,
	} {
		eng.RegisterCompletion(kind, c.completeListEdit)
	}
}

// Authorize reports whether the actor may use the console.
func (c *Console) Authorize(actorID int64) bool {
	return c.access.Classify(actorID) == auth.RoleSuperAdmin
}

// Active reports the current availability flag state.
func (c *Console) Active() bool {
	return c.flag.Active()
}

// ToggleBot flips the availability flag and returns the new state.
func (c *Console) ToggleBot(actorID int64) bool {
	active := c.flag.Toggle()
	logger.PANEL.Info("availability toggled",
		slog.String("event", "panel.toggle"),
		slog.Int64("user_id", actorID),
		slog.Bool("active", active),
	)
	return active
}

// Arm begins a list-edit expectation for the actor and returns the prompt
// the binding should show.
func (c *Console) Arm(actorID int64, kind state.Kind) string {
	c.tracker.Begin(actorID, state.Expectation{Kind: kind})
	logger.PANEL.Info("flow armed",
		slog.String("event", "panel.arm"),
		slog.Int64("user_id", actorID),
		slog.String("expectation", string(kind)),
	)
	return prompt(kind)
}

func prompt(kind state.Kind) string {
	switch kind {
	case state.KindAdminAdd:
		return "Send the numeric id of the user to promote to admin."
	case state.KindAdminRemove:
		return "Send the numeric id of the admin to remove."
	case state.KindBlacklistAdd:
		return "Send the numeric id of the user to blacklist."
	case state.KindBlacklistRemove:
		return "Send the numeric id of the user to remove from the blacklist."
	default:
		return "Send the numeric id."
	}
}

// completeListEdit parses the actor's next message as an id and applies the
// matching mutation. The expectation was already consumed by the pipeline,
// so any failure aborts the flow without retry.
func (c *Console) completeListEdit(ctx context.Context, actorID int64, text string, exp state.Expectation) engine.Outcome {
	id, err := strconv.ParseInt(strings.TrimSpace(text), 10, 64)
	if err != nil {
		logger.PANEL.Info("flow aborted on bad id",
			slog.String("event", "panel.complete"),
			slog.Int64("user_id", actorID),
			slog.String("expectation", string(exp.Kind)),
			slog.String("outcome", "fail"),
		)
		c.send(ctx, actorID, msgInvalidIdentifier)
		return engine.OutcomeCompleted
	}

	var mutErr error
	switch exp.Kind {
	case state.KindAdminAdd:
		mutErr = c.access.AddAdmin(id)
	case state.KindAdminRemove:
		mutErr = c.access.RemoveAdmin(id)
	case state.KindBlacklistAdd:
		mutErr = c.access.AddBlacklist(id)
	case state.KindBlacklistRemove:
		mutErr = c.access.RemoveBlacklist(id)
	default:
		mutErr = fmt.Errorf("panel: unknown expectation %q", exp.Kind)
	}

	logger.PANEL.Info("flow completed",
		slog.String("event", "panel.complete"),
		slog.Int64("user_id", actorID),
		slog.String("expectation", string(exp.Kind)),
		slog.Int64("target_id", id),
		slog.String("outcome", logger.Status(mutErr)),
	)
	c.send(ctx, actorID, resultText(exp.Kind, id, mutErr))
	return engine.OutcomeCompleted
}

func resultText(kind state.Kind, id int64, err error) string {
	if err == nil {
		switch kind {
		case state.KindAdminAdd:
			return fmt.Sprintf("User %d is now an admin.", id)
		case state.KindAdminRemove:
			return fmt.Sprintf("User %d is no longer an admin.", id)
		case state.KindBlacklistAdd:
			return fmt.Sprintf("User %d was blacklisted.", id)
		case state.KindBlacklistRemove:
			return fmt.Sprintf("User %d was removed from the blacklist.", id)
		}
		return "Done."
	}

	switch {
	case errors.Is(err, auth.ErrAlreadyPrivileged):
		return fmt.Sprintf("User %d already has admin rights.", id)
	case errors.Is(err, auth.ErrCannotRemoveSuperAdmin):
		return "Super-admins cannot be removed."
	case errors.Is(err, auth.ErrNotAnAdmin):
		return fmt.Sprintf("User %d is not an admin.", id)
	case errors.Is(err, auth.ErrPrivilegedActor):
		return fmt.Sprintf("User %d is privileged and cannot be blacklisted.", id)
	case errors.Is(err, auth.ErrAlreadyBlacklisted):
		return fmt.Sprintf("User %d is already blacklisted.", id)
	case errors.Is(err, auth.ErrNotBlacklisted):
		return fmt.Sprintf("User %d is not blacklisted.", id)
	default:
		return msgSaveFailed
	}
}

func (c *Console) send(ctx context.Context, recipientID int64, text string) {
	if err := c.transport.Deliver(ctx, recipientID, text, nil); err != nil {
		logger.PANEL.Debug("console notice failed",
			slog.String("event", "panel.notice"),
			slog.Int64("user_id", recipientID),
			slog.String("err", err.Error()),
		)
	}
}
