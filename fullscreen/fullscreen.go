// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package fullscreen

import (
	"log/slog"
	"sync"
)

type Mode int

const (
	Normal Mode = iota
	NativeFullscreen
	ManualFullscreen
)

func (m Mode) String() string {
	switch m {
	case NativeFullscreen:
		return "native"
	case ManualFullscreen:
		return "manual"
	default:
		return "normal"
	}
}

// Native is the platform fullscreen API. Request may fail (blocked or
// unsupported); the controller then falls back to manual mode.
type Native interface {
	Request() error
	Exit() error
}

// Pages answers which view is active and can force-navigate to the display
// view. Only the display and ranking views are presentation-capable.
type Pages interface {
	PresentationActive() bool // display or ranking view visible
	DisplayActive() bool      // specifically the display view
	ShowDisplay()
}

// Controller is the fullscreen state machine: Normal, NativeFullscreen or
// ManualFullscreen.
type Controller struct {
	mu     sync.Mutex
	mode   Mode
	native Native // nil when the platform offers no fullscreen API
	pages  Pages

	baseW, baseH float64
	scale        float64
}

// NewController creates a controller for a stage of the given base size.
// native may be nil.
func NewController(native Native, pages Pages, baseW, baseH float64) *Controller {
	return &Controller{
		native: native,
		pages:  pages,
		baseW:  baseW,
		baseH:  baseH,
		scale:  1,
	}
}

// Enter requests fullscreen, trying the native API first and falling back to
// manual emulation on rejection or absence. Entering from a view that is not
// presentation-capable first force-navigates to the display view.
func (c *Controller) Enter(viewportW, viewportH float64) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.mode != Normal {
		return
	}

	if !c.pages.PresentationActive() {
		c.pages.ShowDisplay()
	}

	if c.native != nil {
		if err := c.native.Request(); err == nil {
			c.mode = NativeFullscreen
			c.rescaleLocked(viewportW, viewportH)
			return
		} else {
			slog.Info("native fullscreen rejected, using manual mode", "error", err)
		}
	}
	c.mode = ManualFullscreen
	c.rescaleLocked(viewportW, viewportH)
}

// Exit leaves fullscreen. Native mode asks the platform to undo; manual mode
// only clears local flags.
func (c *Controller) Exit() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.exitLocked()
}

func (c *Controller) exitLocked() {
	switch c.mode {
	case NativeFullscreen:
		if err := c.native.Exit(); err != nil {
			slog.Warn("native fullscreen exit failed", "error", err)
		}
	case ManualFullscreen:
		// Nothing to ask the platform to undo.
	default:
		return
	}
	c.mode = Normal
	c.scale = 1
}

// HandleEscape exits manual fullscreen only. Native fullscreen handles the
// key itself at the platform level.
func (c *Controller) HandleEscape() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.mode != ManualFullscreen {
		return
	}
	c.exitLocked()
}

// Rescale recomputes the stage scale for the given viewport. The stage is
// scaled uniformly, preserving aspect ratio; outside fullscreen or off the
// display view the scale resets to 1.
func (c *Controller) Rescale(viewportW, viewportH float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.rescaleLocked(viewportW, viewportH)
}

func (c *Controller) rescaleLocked(viewportW, viewportH float64) {
	if c.mode == Normal || !c.pages.DisplayActive() {
		c.scale = 1
		return
	}
	c.scale = min(viewportW/c.baseW, viewportH/c.baseH)
}

func (c *Controller) Mode() Mode {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.mode
}

func (c *Controller) Scale() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.scale
}
