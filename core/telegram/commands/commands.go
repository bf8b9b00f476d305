package commands

import (
	tele "gopkg.in/telebot.v4"
)

// Command represents a bot command with its handler, description, and metadata.
type Command struct {
	Handler     tele.HandlerFunc
	Description string
	// SuperAdminOnly restricts the command to super-admins via the access gate.
	SuperAdminOnly bool
	Hidden         bool
	Aliases        []string
}
