package cite

import (
	"fmt"
	"io"

	"github.com/pkg/browser"
)

func init() {
	// The terminal belongs to the UI; browser launch chatter must not reach it.
	browser.Stdout = io.Discard
	browser.Stderr = io.Discard
}

// Open launches the system browser on an external target. The browser is a
// separate process, so the opened page has no handle back to this program.
func Open(href string) error {
	if !Opens(href) {
		return fmt.Errorf("refusing to open %q", href)
	}
	if err := browser.OpenURL(href); err != nil {
		return fmt.Errorf("open %s: %w", href, err)
	}
	return nil
}
