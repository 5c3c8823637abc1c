package diag

import "fmt"

// Severity classifies a diagnostic. Only Error severities latch the Bag.
type Severity int

const (
	SevError Severity = iota
	SevWarning
	SevInfo
)

func (s Severity) String() string {
	switch s {
	case SevError:
		return "error"
	case SevWarning:
		return "warning"
	default:
		return "info"
	}
}

// SecondaryLocation is a cross-reference attached to a diagnostic, e.g.
// "previously declared here".
type SecondaryLocation struct {
	Pos     Pos
	Message string
}

// Diagnostic is one compiler-emitted message: a phase-tagged error code
// (internal/errors), a primary location, optional secondary locations, and an
// optional fix suggestion, generalized across all phases.
type Diagnostic struct {
	Severity   Severity
	Code       string // e.g. "LEX001", "PAR003", "TYP004"
	Phase      string // "lex", "parse", "name", "type", "semantic", "driver"
	Message    string
	Pos        Pos
	Secondary  []SecondaryLocation
	Fix        string
	Confidence float64
}

func (d Diagnostic) Error() string {
	return fmt.Sprintf("%s: %s at %s: %s", d.Code, d.Severity, d.Pos, d.Message)
}

// Bag accumulates diagnostics with fatal-latch semantics: the first
// error-severity diagnostic flips Fatal; subsequent diagnostics still
// accumulate, but the final compilation result is failure.
type Bag struct {
	diagnostics []Diagnostic
	fatal       bool
}

// NewBag creates an empty diagnostic bag.
func NewBag() *Bag {
	return &Bag{}
}

// Add appends a diagnostic and, if it is error-severity, latches Fatal.
func (b *Bag) Add(d Diagnostic) {
	b.diagnostics = append(b.diagnostics, d)
	if d.Severity == SevError {
		b.fatal = true
	}
}

// Errorf is a convenience constructor for a located error diagnostic.
func (b *Bag) Errorf(code, phase string, pos Pos, format string, args ...interface{}) {
	b.Add(Diagnostic{
		Severity: SevError,
		Code:     code,
		Phase:    phase,
		Message:  fmt.Sprintf(format, args...),
		Pos:      pos,
	})
}

// Warnf is a convenience constructor for a located warning diagnostic. It
// never latches Fatal.
func (b *Bag) Warnf(code, phase string, pos Pos, format string, args ...interface{}) {
	b.Add(Diagnostic{
		Severity: SevWarning,
		Code:     code,
		Phase:    phase,
		Message:  fmt.Sprintf(format, args...),
		Pos:      pos,
	})
}

// Fatal reports whether an error-severity diagnostic has been recorded.
func (b *Bag) Fatal() bool {
	return b.fatal
}

// HasErrors is an alias for Fatal, read more naturally at call sites that
// decide whether to continue to the next phase.
func (b *Bag) HasErrors() bool {
	return b.fatal
}

// All returns every diagnostic recorded so far, in emission order.
func (b *Bag) All() []Diagnostic {
	return b.diagnostics
}

// Reset clears the bag, including the fatal latch. Used between independent
// compilations sharing one process; the compiler instance, not a package
// global, owns this state.
func (b *Bag) Reset() {
	b.diagnostics = nil
	b.fatal = false
}

// CheckLatch aborts partial work when called inside a composite operation:
// certain multi-step operations check the latch on entry and exit and abort
// partial work if it has been set. It returns true if the caller should stop.
func (b *Bag) CheckLatch() bool {
	return b.fatal
}
