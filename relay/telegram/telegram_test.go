package telegram

import (
	"testing"

	"github.com/m3rciful/relaybot/relay/state"
)

func TestReplyMarkupCarriesTarget(t *testing.T) {
	markup := ReplyMarkup(42)
	if len(markup.InlineKeyboard) != 1 || len(markup.InlineKeyboard[0]) != 1 {
		t.Fatalf("keyboard shape = %v", markup.InlineKeyboard)
	}
	btn := markup.InlineKeyboard[0][0]
	if btn.Unique != replyKey {
		t.Fatalf("Unique = %q, want %q", btn.Unique, replyKey)
	}
	if btn.Data != "42" {
		t.Fatalf("Data = %q, want %q", btn.Data, "42")
	}
}

func TestExpectationFor(t *testing.T) {
	cases := map[string]state.Kind{
		keyAddAdmin:        state.KindAdminAdd,
		keyRemoveAdmin:     state.KindAdminRemove,
		keyAddBlacklist:    state.KindBlacklistAdd,
		keyRemoveBlacklist: state.KindBlacklistRemove,
	}
	for key, want := range cases {
		if got := expectationFor(key); got != want {
			t.Fatalf("expectationFor(%q) = %q, want %q", key, got, want)
		}
	}
}

func TestNormalizeHandlerName(t *testing.T) {
	cases := map[string]string{
		"/Panel":     "panel",
		"  ":         "unknown",
		"bot toggle": "bot_toggle",
	}
	for in, want := range cases {
		if got := normalizeHandlerName(in); got != want {
			t.Fatalf("normalizeHandlerName(%q) = %q, want %q", in, got, want)
		}
	}
}
