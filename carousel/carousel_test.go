package carousel

import (
	"sync"
	"testing"
	"time"
)

type shownRecorder struct {
	mu    sync.Mutex
	calls []int
}

func (s *shownRecorder) show(index int, _ string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, index)
}

func (s *shownRecorder) last() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.calls) == 0 {
		return -99
	}
	return s.calls[len(s.calls)-1]
}

func TestRenderEmptyListShowsPlaceholderWithoutTimer(t *testing.T) {
	rec := &shownRecorder{}
	r := NewRotator(10*time.Millisecond, rec.show)
	defer r.Stop()

	r.Render(nil)

	if rec.last() != -1 {
		t.Errorf("last shown = %d, want placeholder (-1)", rec.last())
	}
	if r.timerActive() {
		t.Error("timer armed for an empty photo list")
	}
}

func TestRerenderLeavesExactlyOneTimer(t *testing.T) {
	r := NewRotator(time.Hour, nil)
	defer r.Stop()

	// Rapid group switch A → B → A.
	r.Render([]string{"/a1.jpg", "/a2.jpg"})
	r.Render([]string{"/b1.jpg"})
	r.Render([]string{"/a1.jpg", "/a2.jpg"})

	if !r.timerActive() {
		t.Fatal("no timer armed after render")
	}
	r.Stop()
	if r.timerActive() {
		t.Error("timer still armed after Stop")
	}
}

func TestDisposedTimerTickIsDropped(t *testing.T) {
	rec := &shownRecorder{}
	r := NewRotator(time.Hour, rec.show)
	defer r.Stop()

	r.Render([]string{"/a1.jpg", "/a2.jpg"})
	r.mu.Lock()
	old := r.timer
	r.mu.Unlock()

	// A tick pulled off the old ticker right before the re-render races the
	// dispose; it must not advance the new list.
	r.Render([]string{"/b1.jpg", "/b2.jpg", "/b3.jpg"})
	r.tick(old)

	if got := r.Index(); got != 0 {
		t.Errorf("stale tick advanced the fresh list to index %d", got)
	}
	if rec.last() != 0 {
		t.Errorf("last shown = %d, want the fresh list's first slide", rec.last())
	}

	// The armed timer's own ticks still advance.
	r.mu.Lock()
	current := r.timer
	r.mu.Unlock()
	r.tick(current)
	if got := r.Index(); got != 1 {
		t.Errorf("live tick advanced to index %d, want 1", got)
	}
}

func TestAutomaticAdvanceWraps(t *testing.T) {
	rec := &shownRecorder{}
	r := NewRotator(5*time.Millisecond, rec.show)
	defer r.Stop()

	r.Render([]string{"/1.jpg", "/2.jpg", "/3.jpg"})

	// Wait for at least one full cycle: 0 → 1 → 2 → 0.
	deadline := time.After(2 * time.Second)
	for {
		rec.mu.Lock()
		n := len(rec.calls)
		rec.mu.Unlock()
		if n >= 5 {
			break
		}
		select {
		case <-deadline:
			t.Fatal("timer never advanced through a full cycle")
		case <-time.After(2 * time.Millisecond):
		}
	}
	r.Stop()

	rec.mu.Lock()
	defer rec.mu.Unlock()
	for i := 1; i < 5; i++ {
		prev, cur := rec.calls[i-1], rec.calls[i]
		if cur != (prev+1)%3 {
			t.Errorf("advance %d: %d → %d, want +1 modulo 3", i, prev, cur)
		}
	}
}

func TestManualNavigation(t *testing.T) {
	rec := &shownRecorder{}
	// Interval long enough that the timer never fires during the test.
	r := NewRotator(time.Hour, rec.show)
	defer r.Stop()

	r.Render([]string{"/1.jpg", "/2.jpg", "/3.jpg"})

	r.Next()
	if r.Index() != 1 {
		t.Errorf("index after Next = %d, want 1", r.Index())
	}

	r.Prev()
	r.Prev()
	if r.Index() != 2 {
		t.Errorf("index after wrapping Prev = %d, want 2", r.Index())
	}

	// Manual navigation must not tear down the automatic timer.
	if !r.timerActive() {
		t.Error("manual navigation disposed the timer")
	}
}

func TestManualNavigationWithoutPhotos(t *testing.T) {
	r := NewRotator(time.Hour, nil)
	r.Render(nil)

	// Must not panic or divide by zero.
	r.Next()
	r.Prev()
	if r.Index() != 0 {
		t.Errorf("index = %d, want 0", r.Index())
	}
}
