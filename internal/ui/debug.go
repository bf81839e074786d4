package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/abelbrown/duet/internal/otel"
)

// debugPanelChrome is the number of terminal lines consumed by DebugPanel's
// border (top + bottom = 2) and vertical padding (top + bottom = 2).
// Must be updated if DebugPanel style changes.
const debugPanelChrome = 4

// debugOverlay renders the debug panel showing turn stats, the last errors
// and recent events. Returns empty string if ring is nil.
func debugOverlay(ring *otel.RingBuffer, width, height int) string {
	if ring == nil {
		return ""
	}

	stats := ring.Stats()
	recent := ring.Last(20)
	failures := ring.LastWhere(3, func(e otel.Event) bool { return e.Level == otel.LevelError })

	var lines []string
	lines = append(lines, DebugHeaderStyle.Render("Session Stats"))
	lines = append(lines, fmt.Sprintf("  Turns:      %d submitted, %d complete, %d errors, %d ignored",
		stats[otel.KindChatSubmit], stats[otel.KindChatComplete], stats[otel.KindChatError], stats[otel.KindChatIgnored]))
	lines = append(lines, fmt.Sprintf("  Searches:   %d started, %d complete, %d errors",
		stats[otel.KindSearchStart], stats[otel.KindSearchComplete], stats[otel.KindSearchError]))
	lines = append(lines, fmt.Sprintf("  Links:      %d opened, %d jumps",
		stats[otel.KindLinkOpen], stats[otel.KindLinkJump]))
	lines = append(lines, fmt.Sprintf("  Inspector:  %d shown", stats[otel.KindInspect]))
	lines = append(lines, fmt.Sprintf("  Buffer:     %d / %d events", ring.Len(), ring.Cap()))
	lines = append(lines, "")

	if len(failures) > 0 {
		lines = append(lines, DebugHeaderStyle.Render("Last Errors"))
		for _, e := range failures {
			lines = append(lines, fmt.Sprintf("  %6s  %-16s  %s",
				formatAge(time.Since(e.Time)), string(e.Kind), truncateRunes(e.Err, 48)))
		}
		lines = append(lines, "")
	}

	lines = append(lines, DebugHeaderStyle.Render("Recent Events"))
	for _, e := range recent {
		line := fmt.Sprintf("  %6s  %-18s", formatAge(time.Since(e.Time)), string(e.Kind))
		if e.Pane != "" {
			line += "  " + e.Pane
		}
		if e.Dur > 0 {
			line += "  " + formatAge(e.Dur)
		}
		if e.Msg != "" {
			line += "  " + truncateRunes(e.Msg, 40)
		}
		if e.Err != "" {
			line += "  ERR:" + truncateRunes(e.Err, 30)
		}
		if e.TurnID != "" {
			tid := e.TurnID
			if len(tid) > 8 {
				tid = tid[:8]
			}
			line += fmt.Sprintf("  turn:%s", tid)
		}
		lines = append(lines, line)
	}

	// Truncate to fit terminal height (subtract chrome added by DebugPanel border/padding)
	maxHeight := height - debugPanelChrome
	if maxHeight < 1 {
		maxHeight = 1
	}
	if len(lines) > maxHeight {
		lines = lines[:maxHeight]
	}

	panelWidth := 84
	if panelWidth > width-4 {
		panelWidth = width - 4
	}
	if panelWidth < 20 {
		panelWidth = 20
	}

	content := strings.Join(lines, "\n")
	return DebugPanel.Width(panelWidth).Render(content)
}

// formatAge formats a duration as a compact human string.
// Handles negative durations from clock skew by clamping to "0ms".
func formatAge(d time.Duration) string {
	if d < 0 {
		return "0ms"
	}
	switch {
	case d < time.Second:
		return fmt.Sprintf("%dms", d.Milliseconds())
	case d < time.Minute:
		return fmt.Sprintf("%.1fs", d.Seconds())
	default:
		return fmt.Sprintf("%.0fm", d.Minutes())
	}
}

// debugStatusBar renders the status bar for the debug overlay.
func debugStatusBar(width int) string {
	keys := StatusBarKey.Render("esc") + StatusBarText.Render(":close")
	return StatusBar.Width(width).Render("  [DEBUG]  " + keys)
}
