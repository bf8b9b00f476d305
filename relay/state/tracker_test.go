package state

import (
	"sync"
	"testing"
)

func TestBeginTakeOnce(t *testing.T) {
	tr := NewTracker()
	tr.Begin(10, Expectation{Kind: KindAdminAdd})

	exp, ok := tr.Take(10)
	if !ok {
		t.Fatalf("Take after Begin: ok = false")
	}
	if exp.Kind != KindAdminAdd {
		t.Fatalf("Take kind = %q, want %q", exp.Kind, KindAdminAdd)
	}

	if _, ok := tr.Take(10); ok {
		t.Fatalf("second Take: ok = true, want false")
	}
}

func TestBeginReplacesPrevious(t *testing.T) {
	tr := NewTracker()
	tr.Begin(10, Expectation{Kind: KindAdminAdd})
	tr.Begin(10, Expectation{Kind: KindReply, TargetID: 77})

	exp, ok := tr.Take(10)
	if !ok {
		t.Fatalf("Take: ok = false")
	}
	if exp.Kind != KindReply || exp.TargetID != 77 {
		t.Fatalf("Take = %+v, want reply to 77", exp)
	}
}

func TestActorsAreIndependent(t *testing.T) {
	tr := NewTracker()
	tr.Begin(10, Expectation{Kind: KindBlacklistAdd})
	tr.Begin(20, Expectation{Kind: KindAdminRemove})

	if exp, ok := tr.Take(20); !ok || exp.Kind != KindAdminRemove {
		t.Fatalf("Take(20) = %+v, %v", exp, ok)
	}
	if exp, ok := tr.Pending(10); !ok || exp.Kind != KindBlacklistAdd {
		t.Fatalf("Pending(10) = %+v, %v", exp, ok)
	}
}

func TestClear(t *testing.T) {
	tr := NewTracker()
	tr.Begin(10, Expectation{Kind: KindReply, TargetID: 5})
	tr.Clear(10)
	if _, ok := tr.Take(10); ok {
		t.Fatalf("Take after Clear: ok = true")
	}
}

func TestConcurrentBeginLastWriterWins(t *testing.T) {
	tr := NewTracker()
	const writers = 8

	var wg sync.WaitGroup
	for w := 0; w < writers; w++ {
		wg.Add(1)
		go func(target int64) {
			defer wg.Done()
			tr.Begin(10, Expectation{Kind: KindReply, TargetID: target})
		}(int64(w))
	}
	wg.Wait()

	// Whichever Begin ran last, exactly one intact expectation survives.
	exp, ok := tr.Take(10)
	if !ok {
		t.Fatalf("Take after concurrent Begin: ok = false")
	}
	if exp.Kind != KindReply || exp.TargetID < 0 || exp.TargetID >= writers {
		t.Fatalf("Take = %+v, want reply to one of 0..%d", exp, writers-1)
	}
	if _, ok := tr.Take(10); ok {
		t.Fatalf("second Take: ok = true, want false")
	}
}

func TestConcurrentTakeConsumesExactlyOnce(t *testing.T) {
	tr := NewTracker()
	const rounds = 100

	for i := 0; i < rounds; i++ {
		tr.Begin(10, Expectation{Kind: KindReply, TargetID: int64(i)})

		var wg sync.WaitGroup
		wins := make(chan struct{}, 4)
		for w := 0; w < 4; w++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				if _, ok := tr.Take(10); ok {
					wins <- struct{}{}
				}
			}()
		}
		wg.Wait()
		close(wins)

		var n int
		for range wins {
			n++
		}
		if n != 1 {
			t.Fatalf("round %d: %d goroutines consumed the expectation, want 1", i, n)
		}
	}
}
