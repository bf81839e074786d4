package inspect

import (
	"strings"

	"github.com/charmbracelet/x/ansi"
)

const resetStyle = "\x1b[0m"

// Place composites fg onto bg with fg's top-left cell at (x, y). Both may
// carry ANSI styling. bg grows with blank lines if fg reaches past its end.
func Place(bg, fg string, x, y int) string {
	if fg == "" {
		return bg
	}
	if x < 0 {
		x = 0
	}
	if y < 0 {
		y = 0
	}

	bgLines := strings.Split(bg, "\n")
	fgLines := strings.Split(fg, "\n")
	for len(bgLines) < y+len(fgLines) {
		bgLines = append(bgLines, "")
	}

	for i, fl := range fgLines {
		row := y + i
		line := bgLines[row]
		w := ansi.StringWidth(fl)

		left := ansi.Truncate(line, x, "")
		if lw := ansi.StringWidth(left); lw < x {
			left += strings.Repeat(" ", x-lw)
		}
		right := ""
		if ansi.StringWidth(line) > x+w {
			right = ansi.TruncateLeft(line, x+w, "")
		}
		bgLines[row] = left + resetStyle + fl + resetStyle + right
	}
	return strings.Join(bgLines, "\n")
}
