package diag

import (
	"fmt"
	"io"
)

// Tracer is a leveled debug logger gated by an integer verbosity threshold
// (0-12), driven by the DEBUG environment variable.
type Tracer struct {
	w     io.Writer
	level int
}

// NewTracer creates a Tracer that writes messages at or below level to w.
// A nil Tracer, or one with a nil writer, is silent; a zero-level Tracer
// still emits level-0 messages.
func NewTracer(w io.Writer, level int) *Tracer {
	return &Tracer{w: w, level: level}
}

// Tracef emits format/args to the tracer's writer iff level <= t.level.
func (t *Tracer) Tracef(level int, format string, args ...interface{}) {
	if t == nil || t.w == nil || level > t.level {
		return
	}
	fmt.Fprintf(t.w, "[debug:%d] "+format+"\n", append([]interface{}{level}, args...)...)
}

// Enabled reports whether messages at level would be emitted.
func (t *Tracer) Enabled(level int) bool {
	return t != nil && level <= t.level
}
