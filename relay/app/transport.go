package app

import (
	"context"
	"errors"
	"sync"

	"github.com/m3rciful/relaybot/relay/engine"
)

// deferredTransport bridges the gap between engine construction and bot
// startup: the real transport only exists once telebot is connected.
type deferredTransport struct {
	mu   sync.RWMutex
	real engine.Transport
}

var errTransportNotReady = errors.New("app: transport not ready")

// Set installs the real transport.
func (d *deferredTransport) Set(t engine.Transport) {
	d.mu.Lock()
	d.real = t
	d.mu.Unlock()
}

// Deliver forwards to the installed transport, failing before startup.
func (d *deferredTransport) Deliver(ctx context.Context, recipientID int64, text string, action *engine.ReplyAction) error {
	d.mu.RLock()
	t := d.real
	d.mu.RUnlock()
	if t == nil {
		return errTransportNotReady
	}
	return t.Deliver(ctx, recipientID, text, action)
}
