// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package carousel

import (
	"sync"
	"time"
)

// timerHandle owns one rotation timer. The rotator must dispose the previous
// handle before arming a new one, so two timers can never run concurrently.
type timerHandle struct {
	ticker *time.Ticker
	done   chan struct{}
}

func (h *timerHandle) dispose() {
	h.ticker.Stop()
	close(h.done)
}

// Rotator cycles through a group's photos on a fixed interval, with manual
// prev/next overrides that do not disturb the automatic phase.
type Rotator struct {
	mu       sync.Mutex
	photos   []string
	index    int
	interval time.Duration
	timer    *timerHandle

	// onShow fires with the slide to present; index is -1 for the
	// empty-list placeholder.
	onShow func(index int, url string)
}

func NewRotator(interval time.Duration, onShow func(index int, url string)) *Rotator {
	if onShow == nil {
		onShow = func(int, string) {}
	}
	return &Rotator{interval: interval, onShow: onShow}
}

// Render replaces the photo list, cancelling any existing timer first. An
// empty list shows the placeholder and arms nothing.
func (r *Rotator) Render(photos []string) {
	r.mu.Lock()

	if r.timer != nil {
		r.timer.dispose()
		r.timer = nil
	}

	r.photos = make([]string, len(photos))
	copy(r.photos, photos)
	r.index = 0

	if len(r.photos) == 0 {
		show := r.onShow
		r.mu.Unlock()
		show(-1, "")
		return
	}

	h := &timerHandle{
		ticker: time.NewTicker(r.interval),
		done:   make(chan struct{}),
	}
	r.timer = h
	show := r.onShow
	url := r.photos[0]
	r.mu.Unlock()

	show(0, url)
	go r.rotate(h)
}

func (r *Rotator) rotate(h *timerHandle) {
	for {
		select {
		case <-h.done:
			return
		case <-h.ticker.C:
			r.tick(h)
		}
	}
}

// tick advances one slide for an automatic timer fire. A tick that was
// already consumed when its handle got disposed would otherwise land on the
// freshly rendered list, so the handle must still be the armed one.
func (r *Rotator) tick(h *timerHandle) {
	r.mu.Lock()
	if r.timer != h {
		r.mu.Unlock()
		return
	}
	idx, url, ok := r.advance(1)
	show := r.onShow
	r.mu.Unlock()

	if ok {
		show(idx, url)
	}
}

// Next advances one slide immediately. The automatic timer keeps its phase.
func (r *Rotator) Next() {
	r.step(1)
}

// Prev goes back one slide immediately.
func (r *Rotator) Prev() {
	r.step(-1)
}

func (r *Rotator) step(delta int) {
	r.mu.Lock()
	idx, url, ok := r.advance(delta)
	show := r.onShow
	r.mu.Unlock()

	if ok {
		show(idx, url)
	}
}

// advance moves the slide pointer and returns the slide to show. Caller
// holds r.mu.
func (r *Rotator) advance(delta int) (int, string, bool) {
	n := len(r.photos)
	if n == 0 {
		return 0, "", false
	}
	r.index = ((r.index+delta)%n + n) % n
	return r.index, r.photos[r.index], true
}

// Index returns the currently shown slide index (0 when empty).
func (r *Rotator) Index() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.index
}

// Stop cancels the rotation timer, if any.
func (r *Rotator) Stop() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.timer != nil {
		r.timer.dispose()
		r.timer = nil
	}
}

// timerActive reports whether a rotation timer is armed. Test hook.
func (r *Rotator) timerActive() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.timer != nil
}
