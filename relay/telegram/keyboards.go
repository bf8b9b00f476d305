package telegram

import (
	"github.com/m3rciful/relaybot/core/telegram/keyboard"

	tele "gopkg.in/telebot.v4"
)

const (
	keyToggle          = "bot_toggle"
	keyAdminManage     = "admin_manage"
	keyBlacklist       = "blacklist"
	keyStats           = "stats"
	keyAddAdmin        = "add_admin"
	keyRemoveAdmin     = "remove_admin"
	keyAddBlacklist    = "add_blacklist"
	keyRemoveBlacklist = "remove_blacklist"
	keyBackToPanel     = "back_to_panel"
)

func panelMarkup(active bool) *tele.ReplyMarkup {
	toggle := "Pause bot"
	if !active {
		toggle = "Resume bot"
	}
	return keyboard.InlineButtonsRows(
		[]keyboard.InlineBtn{{Text: toggle, Unique: keyToggle}},
		[]keyboard.InlineBtn{
			{Text: "Admins", Unique: keyAdminManage},
			{Text: "Blacklist", Unique: keyBlacklist},
		},
		[]keyboard.InlineBtn{{Text: "Stats", Unique: keyStats}},
	)
}

func adminManageMarkup() *tele.ReplyMarkup {
	return keyboard.InlineButtonsNPerRow([]keyboard.InlineBtn{
		{Text: "Add admin", Unique: keyAddAdmin},
		{Text: "Remove admin", Unique: keyRemoveAdmin},
		{Text: "Back", Unique: keyBackToPanel},
	}, 2)
}

func blacklistMarkup() *tele.ReplyMarkup {
	return keyboard.InlineButtonsNPerRow([]keyboard.InlineBtn{
		{Text: "Add", Unique: keyAddBlacklist},
		{Text: "Remove", Unique: keyRemoveBlacklist},
		{Text: "Back", Unique: keyBackToPanel},
	}, 2)
}

func statsMarkup() *tele.ReplyMarkup {
	return keyboard.InlineButtonsRows(
		[]keyboard.InlineBtn{
			{Text: "Refresh", Unique: keyStats},
			{Text: "Back", Unique: keyBackToPanel},
		},
	)
}
