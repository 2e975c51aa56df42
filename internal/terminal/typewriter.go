package terminal

import (
	"context"
	"errors"
	"sync"
	"time"
)

// ErrRevealCancelled is returned by RevealWait when the reveal was superseded
// or cancelled before it finished.
var ErrRevealCancelled = errors.New("reveal cancelled")

// Typewriter reveals text into a buffer one rune per tick. Only one reveal is
// live at a time: starting a new one cancels the previous, which then never
// appends again and never calls its completion.
type Typewriter struct {
	mu     sync.Mutex
	gen    uint64
	cancel context.CancelFunc
}

// NewTypewriter returns an idle Typewriter.
func NewTypewriter() *Typewriter {
	return &Typewriter{}
}

// Reveal cancels any in-flight reveal, clears buf and appends text one rune
// every delay. onComplete, if non-nil, runs once after the last rune. The
// returned channel yields true when the reveal completed, false when it was
// cancelled, and is then closed.
func (t *Typewriter) Reveal(buf TextBuffer, text string, delay time.Duration, onComplete func()) <-chan bool {
	if delay <= 0 {
		delay = time.Millisecond
	}

	t.mu.Lock()
	if t.cancel != nil {
		t.cancel()
	}
	t.gen++
	gen := t.gen
	ctx, cancel := context.WithCancel(context.Background())
	t.cancel = cancel
	buf.Reset()
	t.mu.Unlock()

	result := make(chan bool, 1)
	go t.run(ctx, gen, buf, []rune(text), delay, onComplete, result)
	return result
}

func (t *Typewriter) run(ctx context.Context, gen uint64, buf TextBuffer, runes []rune, delay time.Duration, onComplete func(), result chan<- bool) {
	completed := false
	defer func() {
		result <- completed
		close(result)
	}()

	ticker := time.NewTicker(delay)
	defer ticker.Stop()

	for step := 0; step < len(runes); step++ {
		if !t.appendIfCurrent(gen, buf, runes[step]) {
			return
		}
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}

	t.mu.Lock()
	current := t.gen == gen
	if current {
		t.cancel()
		t.cancel = nil
	}
	t.mu.Unlock()
	if !current {
		return
	}

	completed = true
	if onComplete != nil {
		onComplete()
	}
}

// appendIfCurrent appends r unless a newer reveal (or Cancel) took over. The
// check and the append share the lock, so a superseded reveal cannot write
// after the buffer was cleared for its successor.
func (t *Typewriter) appendIfCurrent(gen uint64, buf TextBuffer, r rune) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.gen != gen {
		return false
	}
	buf.AppendText(string(r))
	return true
}

// RevealWait runs Reveal and blocks until it completes, is superseded, or ctx
// ends. On ctx end the reveal is cancelled.
func (t *Typewriter) RevealWait(ctx context.Context, buf TextBuffer, text string, delay time.Duration) error {
	done := t.Reveal(buf, text, delay, nil)
	select {
	case ok := <-done:
		if !ok {
			return ErrRevealCancelled
		}
		return nil
	case <-ctx.Done():
		t.Cancel()
		return ctx.Err()
	}
}

// Cancel stops the in-flight reveal, if any. The buffer keeps whatever was
// already revealed.
func (t *Typewriter) Cancel() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.cancel != nil {
		t.cancel()
		t.cancel = nil
	}
	t.gen++
}
