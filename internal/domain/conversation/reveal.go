package conversation

import (
	"sync"
	"time"
)

// RevealTask progressively discloses an assistant reply one rune per tick.
// It is the explicit, cancelable form of the panel's typing effect: starting
// a new reveal (or closing the panel) must cancel the previous task before
// another touches the same turn.
type RevealTask struct {
	done     chan struct{}
	cancelCh chan struct{}
	once     sync.Once
}

// StartReveal begins disclosing text, invoking emit with each successive
// prefix. emit is called from a single goroutine and never after Done is
// closed.
func StartReveal(text string, interval time.Duration, emit func(prefix string)) *RevealTask {
	if interval <= 0 {
		interval = 30 * time.Millisecond
	}
	t := &RevealTask{
		done:     make(chan struct{}),
		cancelCh: make(chan struct{}),
	}

	go func() {
		defer close(t.done)
		runes := []rune(text)
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for i := 1; i <= len(runes); i++ {
			select {
			case <-t.cancelCh:
				return
			case <-ticker.C:
				emit(string(runes[:i]))
			}
		}
	}()

	return t
}

// Cancel stops the reveal and waits for the emitting goroutine to exit, so a
// successor task cannot race on the same turn. Safe to call more than once.
func (t *RevealTask) Cancel() {
	t.once.Do(func() { close(t.cancelCh) })
	<-t.done
}

// Done is closed when the reveal has finished or been cancelled.
func (t *RevealTask) Done() <-chan struct{} {
	return t.done
}
