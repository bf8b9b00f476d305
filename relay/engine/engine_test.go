package engine

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/m3rciful/relaybot/relay/auth"
	"github.com/m3rciful/relaybot/relay/state"
	"github.com/m3rciful/relaybot/relay/stats"
)

type delivery struct {
	recipient int64
	text      string
	action    *ReplyAction
}

type fakeTransport struct {
	mu         sync.Mutex
	deliveries []delivery
	failFor    map[int64]error
}

func (t *fakeTransport) Deliver(_ context.Context, recipientID int64, text string, action *ReplyAction) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if err, ok := t.failFor[recipientID]; ok {
		return err
	}
	t.deliveries = append(t.deliveries, delivery{recipient: recipientID, text: text, action: action})
	return nil
}

func (t *fakeTransport) sentTo(id int64) []delivery {
	t.mu.Lock()
	defer t.mu.Unlock()
	var out []delivery
	for _, d := range t.deliveries {
		if d.recipient == id {
			out = append(out, d)
		}
	}
	return out
}

type memPersister struct{ lists auth.Lists }

func (p *memPersister) Load() (auth.Lists, error) { return p.lists.Clone(), nil }
func (p *memPersister) Save(l auth.Lists) error   { p.lists = l.Clone(); return nil }

func newTestEngine(t *testing.T, lists auth.Lists) (*Engine, *fakeTransport, *stats.Collector, *state.Tracker) {
	t.Helper()
	access, err := auth.NewStore(&memPersister{lists: lists})
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	tracker := state.NewTracker()
	usage := stats.NewCollector()
	transport := &fakeTransport{failFor: map[int64]error{}}
	eng := New(NewFlag(), access, tracker, usage, transport)
	return eng, transport, usage, tracker
}

func TestBlacklistedSenderIsBlocked(t *testing.T) {
	eng, transport, usage, _ := newTestEngine(t, auth.Lists{
		SuperAdmins: []int64{1},
		Blacklist:   []int64{5},
	})

	out := eng.HandleIncoming(context.Background(), Message{SenderID: 5, Text: "hello"})
	if out != OutcomeBlocked {
		t.Fatalf("Outcome = %q, want blocked", out)
	}

	snap := usage.Snapshot()
	if snap.Messages != 0 || snap.Users != 0 {
		t.Fatalf("usage changed on blocked message: %+v", snap)
	}
	if got := transport.sentTo(1); len(got) != 0 {
		t.Fatalf("admin received %d deliveries for blocked message", len(got))
	}
	if got := transport.sentTo(5); len(got) != 1 {
		t.Fatalf("sender notices = %d, want 1", len(got))
	}
}

func TestPausedRelaySuppresses(t *testing.T) {
	eng, _, usage, _ := newTestEngine(t, auth.Lists{SuperAdmins: []int64{1}})
	eng.flag.Toggle()

	out := eng.HandleIncoming(context.Background(), Message{SenderID: 7, Text: "hi"})
	if out != OutcomeSuppressed {
		t.Fatalf("Outcome = %q, want suppressed", out)
	}
	if usage.CountRelayed() != 0 {
		t.Fatalf("CountRelayed = %d, want 0", usage.CountRelayed())
	}
}

func TestBroadcastSurvivesPartialFailure(t *testing.T) {
	eng, transport, usage, _ := newTestEngine(t, auth.Lists{
		SuperAdmins: []int64{1},
		Admins:      []int64{2, 3},
	})
	transport.failFor[2] = errors.New("blocked the bot")

	out := eng.HandleIncoming(context.Background(), Message{SenderID: 9, Text: "help", DisplayName: "Nine"})
	if out != OutcomeRelayed {
		t.Fatalf("Outcome = %q, want relayed", out)
	}
	if usage.CountRelayed() != 1 {
		t.Fatalf("CountRelayed = %d, want 1", usage.CountRelayed())
	}

	for _, id := range []int64{1, 3} {
		got := transport.sentTo(id)
		if len(got) != 1 {
			t.Fatalf("recipient %d deliveries = %d, want 1", id, len(got))
		}
		if got[0].action == nil || got[0].action.TargetID != 9 {
			t.Fatalf("recipient %d reply action = %+v, want target 9", id, got[0].action)
		}
		if !strings.Contains(got[0].text, "Nine") || !strings.Contains(got[0].text, "help") {
			t.Fatalf("recipient %d text = %q", id, got[0].text)
		}
	}

	// Sender is acked despite the failed recipient.
	acks := transport.sentTo(9)
	if len(acks) != 1 {
		t.Fatalf("sender acks = %d, want 1", len(acks))
	}
}

func TestReplyCompletionDeliversOnce(t *testing.T) {
	eng, transport, _, tracker := newTestEngine(t, auth.Lists{SuperAdmins: []int64{1}})

	eng.BeginReply(1, 42)
	out := eng.HandleIncoming(context.Background(), Message{SenderID: 1, Text: "your order shipped"})
	if out != OutcomeCompleted {
		t.Fatalf("Outcome = %q, want completed", out)
	}

	got := transport.sentTo(42)
	if len(got) != 1 {
		t.Fatalf("target deliveries = %d, want 1", len(got))
	}
	if got[0].text != "your order shipped" {
		t.Fatalf("target text = %q", got[0].text)
	}
	if got[0].action != nil {
		t.Fatalf("reply carried a reply action: %+v", got[0].action)
	}
	if _, ok := tracker.Pending(1); ok {
		t.Fatalf("expectation still pending after completion")
	}

	// Next message from the admin relays normally.
	out = eng.HandleIncoming(context.Background(), Message{SenderID: 1, Text: "fresh"})
	if out != OutcomeRelayed {
		t.Fatalf("follow-up Outcome = %q, want relayed", out)
	}
}

func TestReplyDeliveryFailureNotifiesLocally(t *testing.T) {
	eng, transport, _, tracker := newTestEngine(t, auth.Lists{SuperAdmins: []int64{1}})
	transport.failFor[42] = errors.New("forbidden")

	eng.BeginReply(1, 42)
	out := eng.HandleIncoming(context.Background(), Message{SenderID: 1, Text: "hello"})
	if out != OutcomeCompleted {
		t.Fatalf("Outcome = %q, want completed", out)
	}
	if _, ok := tracker.Pending(1); ok {
		t.Fatalf("failed reply re-armed the expectation")
	}
	notices := transport.sentTo(1)
	if len(notices) != 1 {
		t.Fatalf("admin notices = %d, want 1", len(notices))
	}
}

func TestRegisteredCompletionTakesPrecedence(t *testing.T) {
	eng, transport, usage, tracker := newTestEngine(t, auth.Lists{SuperAdmins: []int64{1}})

	var gotText string
	eng.RegisterCompletion(state.KindAdminAdd, func(_ context.Context, _ int64, text string, _ state.Expectation) Outcome {
		gotText = text
		return OutcomeCompleted
	})

	tracker.Begin(1, state.Expectation{Kind: state.KindAdminAdd})
	out := eng.HandleIncoming(context.Background(), Message{SenderID: 1, Text: "42"})
	if out != OutcomeCompleted {
		t.Fatalf("Outcome = %q, want completed", out)
	}
	if gotText != "42" {
		t.Fatalf("completion text = %q, want %q", gotText, "42")
	}
	if usage.CountRelayed() != 0 {
		t.Fatalf("completion incremented relay counter")
	}
	if got := transport.sentTo(1); len(got) != 0 {
		t.Fatalf("unexpected deliveries: %+v", got)
	}
}
