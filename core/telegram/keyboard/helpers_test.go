package keyboard

import "testing"

func TestInlineButtonsNPerRowSplitsRows(t *testing.T) {
	buttons := []InlineBtn{
		{Text: "a", Unique: "a"},
		{Text: "b", Unique: "b"},
		{Text: "c", Unique: "c"},
	}

	markup := InlineButtonsNPerRow(buttons, 2)
	rows := markup.InlineKeyboard
	if len(rows) != 2 || len(rows[0]) != 2 || len(rows[1]) != 1 {
		t.Fatalf("keyboard shape = %v, want [2 1]", rows)
	}
	if rows[1][0].Unique != "c" {
		t.Fatalf("last button = %q, want %q", rows[1][0].Unique, "c")
	}
}

func TestInlineButtonsNPerRowOnePerRow(t *testing.T) {
	buttons := []InlineBtn{{Text: "a", Unique: "a"}, {Text: "b", Unique: "b"}}
	markup := InlineButtonsNPerRow(buttons, 1)
	if len(markup.InlineKeyboard) != 2 {
		t.Fatalf("rows = %d, want 2", len(markup.InlineKeyboard))
	}
}
