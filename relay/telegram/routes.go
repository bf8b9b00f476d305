package telegram

import (
	"strings"
	"time"

	"github.com/m3rciful/relaybot/core/logger"
	tg "github.com/m3rciful/relaybot/core/telegram"
	"github.com/m3rciful/relaybot/core/telegram/callbacks"
	"github.com/m3rciful/relaybot/core/telegram/commands"
	tghelpers "github.com/m3rciful/relaybot/core/telegram/helpers"
	"github.com/m3rciful/relaybot/core/telegram/middleware"
	"github.com/m3rciful/relaybot/relay/auth"
	"github.com/m3rciful/relaybot/relay/engine"
	"github.com/m3rciful/relaybot/relay/panel"
	"github.com/m3rciful/relaybot/relay/state"
	"github.com/m3rciful/relaybot/relay/stats"

	tele "gopkg.in/telebot.v4"
	"log/slog"
)

const (
	msgGreeting    = "Hi! Write your message here and it will be forwarded to the team. Replies arrive in this chat."
	msgNotAllowed  = "You are not allowed to do that."
	msgReplyPrompt = "Send your reply for user %d."
)

// Handlers wires bot updates into the relay engine and admin console.
type Handlers struct {
	engine  *engine.Engine
	console *panel.Console
	access  *auth.Store
	tracker *state.Tracker
	usage   *stats.Collector
}

// NewHandlers builds the update handlers.
func NewHandlers(eng *engine.Engine, console *panel.Console, access *auth.Store, tracker *state.Tracker, usage *stats.Collector) *Handlers {
	return &Handlers{engine: eng, console: console, access: access, tracker: tracker, usage: usage}
}

// BuildRegistry registers the bot commands and console callbacks.
func (h *Handlers) BuildRegistry() *tg.Registry {
	reg := tg.NewRegistry()

	reg.RegisterCommand("/start", commands.Command{
		Handler:     h.handleStart,
		Description: "Start the conversation",
	})
	reg.RegisterCommand("/panel", commands.Command{
		Handler:        h.handlePanel,
		Description:    "Open the control panel",
		SuperAdminOnly: true,
		Hidden:         true,
	})

	gated := map[string]tele.HandlerFunc{
		keyToggle:          h.cbToggle,
		keyAdminManage:     h.cbAdminManage,
		keyBlacklist:       h.cbBlacklist,
		keyStats:           h.cbStats,
		keyAddAdmin:        h.cbArm(keyAddAdmin),
		keyRemoveAdmin:     h.cbArm(keyRemoveAdmin),
		keyAddBlacklist:    h.cbArm(keyAddBlacklist),
		keyRemoveBlacklist: h.cbArm(keyRemoveBlacklist),
		keyBackToPanel:     h.cbBackToPanel,
	}
	guard := middleware.SuperAdminOnlyMiddleware(middleware.SuperAdminOptions{
		Checker: h.access,
		OnReject: func(c tele.Context) error {
			return c.Respond(&tele.CallbackResponse{Text: msgNotAllowed, ShowAlert: true})
		},
	})
	for key, fn := range gated {
		_ = reg.RegisterCallback(key, guard(fn))
	}
	_ = reg.RegisterCallback(replyKey, h.cbReply)

	return reg
}

// Routes returns the text, document, and callback routes for the bot.
func (h *Handlers) Routes(reg *tg.Registry) []tg.Route {
	return []tg.Route{
		{Endpoint: tele.OnText, Handler: h.textRoute(reg)},
		{Endpoint: tele.OnDocument, Handler: h.documentRoute()},
		CallbackRoute(reg),
	}
}

// textRoute dispatches slash commands through the registry and funnels
// everything else into the relay pipeline. A sender with a pending
// expectation skips command lookup: the next message from that actor
// always consumes the expectation, even when it looks like a command.
func (h *Handlers) textRoute(reg *tg.Registry) tele.HandlerFunc {
	return func(c tele.Context) error {
		start := time.Now()
		text := c.Text()

		if strings.HasPrefix(text, "/") && !h.expecting(c) {
			if key, cmd, ok := reg.LookupCommand(text); ok && cmd.Handler != nil {
				return handleWithSummary(c, normalizeHandlerName(key), start, cmd.Handler)
			}
		}

		return handleWithSummary(c, "relay", start, h.handleRelay(text))
	}
}

func (h *Handlers) expecting(c tele.Context) bool {
	sender := c.Sender()
	if sender == nil {
		return false
	}
	_, pending := h.tracker.Pending(sender.ID)
	return pending
}

// documentRoute funnels captioned uploads through the relay pipeline.
func (h *Handlers) documentRoute() tele.HandlerFunc {
	return func(c tele.Context) error {
		start := time.Now()
		caption := ""
		if msg := c.Message(); msg != nil {
			caption = msg.Caption
		}
		if strings.TrimSpace(caption) == "" {
			caption = "(document without caption)"
		}
		return handleWithSummary(c, "relay.document", start, h.handleRelay(caption))
	}
}

func (h *Handlers) handleRelay(text string) tele.HandlerFunc {
	return func(c tele.Context) error {
		sender := c.Sender()
		if sender == nil {
			return nil
		}
		ctx := tghelpers.BuildContext(c)
		out := h.engine.HandleIncoming(ctx, engine.Message{
			SenderID:    sender.ID,
			Text:        text,
			DisplayName: strings.TrimSpace(strings.Join([]string{sender.FirstName, sender.LastName}, " ")),
			Username:    sender.Username,
		})
		logger.RELAY.Debug("update processed",
			slog.String("event", "relay.outcome"),
			slog.Int64("user_id", sender.ID),
			slog.String("outcome", string(out)),
		)
		return nil
	}
}

func (h *Handlers) handleStart(c tele.Context) error {
	if sender := c.Sender(); sender != nil {
		h.usage.Register(sender.ID)
	}
	return tghelpers.SendText(c, msgGreeting)
}

func (h *Handlers) handlePanel(c tele.Context) error {
	sender := c.Sender()
	if sender == nil || !h.console.Authorize(sender.ID) {
		return tghelpers.SendText(c, msgNotAllowed)
	}
	return tghelpers.SendMD(c, h.console.PanelText(), panelMarkup(h.console.Active()))
}

// CallbackRoute routes callbacks through the registry with summary logging.
func CallbackRoute(reg *tg.Registry) tg.Route {
	handler := func(c tele.Context) error {
		start := time.Now()
		if c.Callback() == nil {
			return nil
		}

		key := callbacks.CallbackKey(c)
		name := "callback." + normalizeHandlerName(key)

		cbHandler, ok := reg.GetCallback(key)
		if !ok || cbHandler == nil {
			fallback := reg.CallbackNotFound()
			if fallback == nil {
				return nil
			}
			return handleWithSummary(c, name, start, fallback)
		}

		err := handleWithSummary(c, name, start, cbHandler)
		if err == nil {
			// Clear the spinner for handlers that did not answer themselves.
			// An already-answered query makes this a no-op failure.
			_ = c.Respond()
		}
		return err
	}
	return tg.Route{
		Endpoint: tele.OnCallback,
		Handler:  middleware.RecoverMiddleware(handler),
	}
}

func handleWithSummary(c tele.Context, handlerName string, start time.Time, fn tele.HandlerFunc) error {
	ctx := tghelpers.WithHandler(c, handlerName)
	err := fn(c)

	attrs := []slog.Attr{
		slog.String("status", logger.Status(err)),
		slog.String("handler", handlerName),
		slog.Int64("duration_ms", logger.RoundMS(time.Since(start)).Milliseconds()),
	}
	if err != nil {
		attrs = append(attrs, slog.String("err", logger.SanitizeLimit(err.Error(), 256)))
	}
	logger.LogEvent(ctx, logger.Component("tg"), slog.LevelInfo, "handler.handled", attrs...)
	return err
}

func normalizeHandlerName(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return "unknown"
	}
	name = strings.TrimPrefix(name, "/")
	name = strings.ReplaceAll(name, " ", "_")
	return strings.ToLower(name)
}
