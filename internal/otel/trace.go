package otel

import (
	"fmt"
	"os"
	"sync/atomic"
	"time"
)

// traceEnabled is set once at package init. Atomic for safe concurrent access
// (production reads in UI goroutine, test writes via setTraceEnabled).
var traceEnabled atomic.Bool

func init() {
	traceEnabled.Store(os.Getenv("DUET_TRACE") != "")
}

// TraceEnabled reports whether DUET_TRACE is set.
func TraceEnabled() bool {
	return traceEnabled.Load()
}

// setTraceEnabled overrides the traceEnabled flag for testing.
func setTraceEnabled(v bool) {
	traceEnabled.Store(v)
}

// TraceMsg records one pass of a UI message through Update. It does nothing
// unless tracing is enabled or l is nil.
func TraceMsg(l *Logger, msg any, dur time.Duration) {
	if l == nil || !TraceEnabled() {
		return
	}
	l.Emit(Event{
		Level: LevelDebug,
		Kind:  KindMsgHandled,
		Comp:  "ui",
		Msg:   fmt.Sprintf("%T", msg),
		Dur:   dur,
	})
}
