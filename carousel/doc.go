// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package carousel rotates a group's photo slides on a timer.

The invariant is at most one active timer per rotator: rendering a new photo
list disposes the previous timer handle before arming its replacement, and a
tick that slipped out of a disposed handle is dropped rather than applied to
the new list. Manual prev/next steps never touch the timer, so the automatic
phase is preserved across user navigation.

An empty photo list shows the placeholder slide (index -1) and arms nothing.
*/
package carousel
