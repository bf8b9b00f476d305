package telegram

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/m3rciful/relaybot/relay/auth"
	"github.com/m3rciful/relaybot/relay/engine"
	"github.com/m3rciful/relaybot/relay/panel"
	"github.com/m3rciful/relaybot/relay/state"
	"github.com/m3rciful/relaybot/relay/stats"

	tele "gopkg.in/telebot.v4"
)

type memTransport struct {
	mu    sync.Mutex
	texts map[int64][]string
}

func newMemTransport() *memTransport {
	return &memTransport{texts: map[int64][]string{}}
}

func (t *memTransport) Deliver(_ context.Context, recipientID int64, text string, _ *engine.ReplyAction) error {
	t.mu.Lock()
	t.texts[recipientID] = append(t.texts[recipientID], text)
	t.mu.Unlock()
	return nil
}

type memPersister struct {
	lists auth.Lists
}

func (p *memPersister) Load() (auth.Lists, error) { return p.lists.Clone(), nil }
func (p *memPersister) Save(l auth.Lists) error   { p.lists = l.Clone(); return nil }

// fakeCtx backs handler tests with a scripted update. Methods the handlers
// never touch fall through to the nil embedded interface and panic loudly.
type fakeCtx struct {
	tele.Context

	sender   *tele.User
	text     string
	callback *tele.Callback
	kv       map[string]interface{}

	sent      []string
	edits     []string
	responses []*tele.CallbackResponse
	answered  bool
}

func newFakeCtx(senderID int64, text string) *fakeCtx {
	return &fakeCtx{
		sender: &tele.User{ID: senderID},
		text:   text,
		kv:     map[string]interface{}{},
	}
}

func newFakeCallbackCtx(senderID int64, unique, data string) *fakeCtx {
	c := newFakeCtx(senderID, "")
	c.callback = &tele.Callback{Unique: unique, Data: data, Sender: c.sender}
	return c
}

func (f *fakeCtx) Update() tele.Update { return tele.Update{ID: 7} }

func (f *fakeCtx) Message() *tele.Message {
	return &tele.Message{Sender: f.sender, Chat: f.Chat(), Text: f.text}
}

func (f *fakeCtx) Callback() *tele.Callback { return f.callback }
func (f *fakeCtx) Sender() *tele.User       { return f.sender }
func (f *fakeCtx) Chat() *tele.Chat         { return &tele.Chat{ID: f.sender.ID} }
func (f *fakeCtx) Text() string             { return f.text }

func (f *fakeCtx) Get(key string) interface{}      { return f.kv[key] }
func (f *fakeCtx) Set(key string, val interface{}) { f.kv[key] = val }

func (f *fakeCtx) Send(what interface{}, _ ...interface{}) error {
	if s, ok := what.(string); ok {
		f.sent = append(f.sent, s)
	}
	return nil
}

func (f *fakeCtx) Edit(what interface{}, _ ...interface{}) error {
	if s, ok := what.(string); ok {
		f.edits = append(f.edits, s)
	}
	return nil
}

func (f *fakeCtx) EditOrSend(what interface{}, opts ...interface{}) error {
	return f.Edit(what, opts...)
}

// Respond mirrors Telegram: a callback query is answered at most once.
func (f *fakeCtx) Respond(resp ...*tele.CallbackResponse) error {
	if f.answered {
		return errors.New("telegram: query is already answered")
	}
	f.answered = true
	r := &tele.CallbackResponse{}
	if len(resp) > 0 {
		r = resp[0]
	}
	f.responses = append(f.responses, r)
	return nil
}

func newTestHandlers(t *testing.T, lists auth.Lists) (*Handlers, *state.Tracker, *auth.Store, *memTransport) {
	t.Helper()
	access, err := auth.NewStore(&memPersister{lists: lists})
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	tracker := state.NewTracker()
	usage := stats.NewCollector()
	transport := newMemTransport()
	flag := engine.NewFlag()
	eng := engine.New(flag, access, tracker, usage, transport)
	console := panel.NewConsole(access, tracker, flag, usage, transport)
	console.RegisterCompletions(eng)
	return NewHandlers(eng, console, access, tracker, usage), tracker, access, transport
}

func TestPendingExpectationConsumesCommands(t *testing.T) {
	h, tracker, access, _ := newTestHandlers(t, auth.Lists{SuperAdmins: []int64{1}})
	reg := h.BuildRegistry()
	onText := h.textRoute(reg)

	tracker.Begin(1, state.Expectation{Kind: state.KindAdminAdd})

	// The next message from the armed actor must consume the expectation,
	// command or not. "/start" fails the id parse and aborts the flow.
	if err := onText(newFakeCtx(1, "/start")); err != nil {
		t.Fatalf("onText(/start): %v", err)
	}
	if _, pending := tracker.Pending(1); pending {
		t.Fatalf("expectation still armed after /start")
	}
	if _, admins, _ := access.Counts(); admins != 0 {
		t.Fatalf("admins = %d after aborted flow, want 0", admins)
	}

	// With nothing armed, a later numeric message is plain relay input.
	if err := onText(newFakeCtx(1, "42")); err != nil {
		t.Fatalf("onText(42): %v", err)
	}
	if _, admins, _ := access.Counts(); admins != 0 {
		t.Fatalf("admins = %d after relay message, want 0", admins)
	}
	if access.Classify(42) != auth.RoleUser {
		t.Fatalf("Classify(42) = %q, want user", access.Classify(42))
	}
}

func TestCommandsStillDispatchWhenNothingPending(t *testing.T) {
	h, _, _, _ := newTestHandlers(t, auth.Lists{SuperAdmins: []int64{1}})
	reg := h.BuildRegistry()
	onText := h.textRoute(reg)

	c := newFakeCtx(5, "/start")
	if err := onText(c); err != nil {
		t.Fatalf("onText(/start): %v", err)
	}
	if len(c.sent) != 1 || c.sent[0] != msgGreeting {
		t.Fatalf("sent = %v, want greeting", c.sent)
	}
}

func TestGatedCallbackRejectionReachesUser(t *testing.T) {
	h, _, _, _ := newTestHandlers(t, auth.Lists{SuperAdmins: []int64{1}})
	route := CallbackRoute(h.BuildRegistry())

	c := newFakeCallbackCtx(99, keyToggle, "")
	if err := route.Handler(c); err != nil {
		t.Fatalf("callback route: %v", err)
	}
	if len(c.responses) != 1 {
		t.Fatalf("responses = %d, want exactly 1", len(c.responses))
	}
	if !c.responses[0].ShowAlert || c.responses[0].Text != msgNotAllowed {
		t.Fatalf("response = %+v, want alert %q", c.responses[0], msgNotAllowed)
	}
}

func TestCallbackSpinnerClearedAfterDispatch(t *testing.T) {
	h, _, _, _ := newTestHandlers(t, auth.Lists{SuperAdmins: []int64{1}})
	route := CallbackRoute(h.BuildRegistry())

	c := newFakeCallbackCtx(1, keyToggle, "")
	if err := route.Handler(c); err != nil {
		t.Fatalf("callback route: %v", err)
	}
	if len(c.edits) != 1 {
		t.Fatalf("edits = %d, want panel redraw", len(c.edits))
	}
	if !c.answered {
		t.Fatalf("callback query left unanswered")
	}
	if c.responses[0].ShowAlert {
		t.Fatalf("plain ack turned into an alert: %+v", c.responses[0])
	}
}
