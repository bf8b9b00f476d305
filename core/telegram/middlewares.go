package telegram

import (
	"github.com/m3rciful/relaybot/core/telegram/middleware"
)

// DefaultMiddlewares builds the shared middleware chain for bots.
func DefaultMiddlewares() []Middleware {
	return []Middleware{
		{Name: "recover", Use: middleware.RecoverMiddleware},
		{Name: "logger", Use: middleware.LoggerMiddleware},
	}
}
