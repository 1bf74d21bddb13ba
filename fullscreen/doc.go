// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package fullscreen coordinates the stage's fullscreen presentation.

Entering prefers the native fullscreen request and falls back to manual
fullscreen when the environment rejects it; either way the display page is
forced into view first if no presentation surface is showing. The stage
scale is min(viewportW/baseW, viewportH/baseH) while a fullscreen mode is
active on the display page, and 1 everywhere else. Escape only leaves
manual fullscreen; native mode exits through the environment's own exit
path.
*/
package fullscreen
