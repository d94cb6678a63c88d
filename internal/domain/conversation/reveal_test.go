package conversation

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"
)

func TestRevealDisclosesFully(t *testing.T) {
	var mu sync.Mutex
	var last string
	task := StartReveal("xin chào", time.Millisecond, func(prefix string) {
		mu.Lock()
		last = prefix
		mu.Unlock()
	})

	select {
	case <-task.Done():
	case <-time.After(time.Second):
		t.Fatal("reveal did not finish")
	}

	mu.Lock()
	defer mu.Unlock()
	if last != "xin chào" {
		t.Errorf("final prefix = %q, want full text", last)
	}
}

func TestRevealPrefixesAreMonotonic(t *testing.T) {
	var mu sync.Mutex
	var seen []string
	task := StartReveal("chào", time.Millisecond, func(prefix string) {
		mu.Lock()
		seen = append(seen, prefix)
		mu.Unlock()
	})
	<-task.Done()

	mu.Lock()
	defer mu.Unlock()
	for i := 1; i < len(seen); i++ {
		if !strings.HasPrefix(seen[i], seen[i-1]) {
			t.Fatalf("emission %q does not extend %q", seen[i], seen[i-1])
		}
	}
}

func TestRevealCancelIdempotent(t *testing.T) {
	task := StartReveal(strings.Repeat("a", 10000), time.Millisecond, func(string) {})
	task.Cancel()
	task.Cancel() // second cancel must be a no-op

	select {
	case <-task.Done():
	default:
		t.Fatal("task not done after cancel")
	}
}

func TestSessionStartRevealCancelsPrevious(t *testing.T) {
	repo := newMockRepo()
	stub := &stubAI{reply: strings.Repeat("dài ", 500)}
	sess := newTestSession(repo, stub)

	turn, err := sess.Send(context.Background(), "kể chuyện")
	if err != nil {
		t.Fatal(err)
	}

	first, err := sess.StartReveal(turn.ID)
	if err != nil {
		t.Fatal(err)
	}
	second, err := sess.StartReveal(turn.ID)
	if err != nil {
		t.Fatal(err)
	}
	defer second.Cancel()

	select {
	case <-first.Done():
	case <-time.After(time.Second):
		t.Fatal("starting a second reveal did not cancel the first")
	}
}

func TestSessionCloseCancelsReveal(t *testing.T) {
	repo := newMockRepo()
	stub := &stubAI{reply: strings.Repeat("dài ", 500)}
	sess := newTestSession(repo, stub)

	turn, err := sess.Send(context.Background(), "kể chuyện")
	if err != nil {
		t.Fatal(err)
	}
	task, err := sess.StartReveal(turn.ID)
	if err != nil {
		t.Fatal(err)
	}

	sess.Close()
	select {
	case <-task.Done():
	case <-time.After(time.Second):
		t.Fatal("close did not cancel the reveal")
	}

	if _, err := sess.StartReveal(turn.ID); err != nil {
		t.Fatalf("reveal after close should still work: %v", err)
	}
	sess.Close()
}
