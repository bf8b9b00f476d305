package telegram

import (
	"fmt"

	"github.com/m3rciful/relaybot/core/logger"
	"github.com/m3rciful/relaybot/core/telegram/callbacks"
	tghelpers "github.com/m3rciful/relaybot/core/telegram/helpers"
	"github.com/m3rciful/relaybot/relay/auth"
	"github.com/m3rciful/relaybot/relay/state"

	tele "gopkg.in/telebot.v4"
	"log/slog"
)

func (h *Handlers) cbToggle(c tele.Context) error {
	h.console.ToggleBot(c.Sender().ID)
	return tghelpers.EditMD(c, h.console.PanelText(), panelMarkup(h.console.Active()))
}

func (h *Handlers) cbBackToPanel(c tele.Context) error {
	return tghelpers.EditMD(c, h.console.PanelText(), panelMarkup(h.console.Active()))
}

func (h *Handlers) cbAdminManage(c tele.Context) error {
	return tghelpers.EditMD(c, h.console.AdminListText(), adminManageMarkup())
}

func (h *Handlers) cbBlacklist(c tele.Context) error {
	return tghelpers.EditMD(c, h.console.BlacklistText(), blacklistMarkup())
}

// Refresh may land on a message the bot can no longer edit, so fall
// back to sending a fresh one.
func (h *Handlers) cbStats(c tele.Context) error {
	return tghelpers.EditOrSendMD(c, h.console.StatsText(), statsMarkup())
}

// cbArm starts one of the two-step list-edit flows.
func (h *Handlers) cbArm(key string) tele.HandlerFunc {
	kind := expectationFor(key)
	return func(c tele.Context) error {
		prompt := h.console.Arm(c.Sender().ID, kind)
		return tghelpers.EditMD(c, prompt)
	}
}

func expectationFor(key string) state.Kind {
	switch key {
	case keyAddAdmin:
		return state.KindAdminAdd
	case keyRemoveAdmin:
		return state.KindAdminRemove
	case keyAddBlacklist:
		return state.KindBlacklistAdd
	case keyRemoveBlacklist:
		return state.KindBlacklistRemove
	default:
		return state.Kind(key)
	}
}

// cbReply arms a reply expectation for any admin or super-admin pressing
// the reply button under a relayed message.
func (h *Handlers) cbReply(c tele.Context) error {
	sender := c.Sender()
	if sender == nil {
		return nil
	}
	switch h.access.Classify(sender.ID) {
	case auth.RoleSuperAdmin, auth.RoleAdmin:
	default:
		return c.Respond(&tele.CallbackResponse{Text: msgNotAllowed, ShowAlert: true})
	}

	target, err := callbacks.PayloadInt64(c)
	if err != nil {
		logger.PANEL.Warn("reply callback with bad payload",
			slog.String("event", "panel.reply"),
			slog.Int64("user_id", sender.ID),
			slog.String("err", err.Error()),
		)
		return c.Respond(&tele.CallbackResponse{Text: "Broken reply button."})
	}

	h.engine.BeginReply(sender.ID, target)
	return tghelpers.SendText(c, fmt.Sprintf(msgReplyPrompt, target))
}
